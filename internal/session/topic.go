package session

import "strings"

const (
	// DefaultTopic marks a conversation whose topic has not been derived yet.
	DefaultTopic  = "New Banking Chat"
	untitledTopic = "Untitled Chat"
	topicWords    = 5
)

// TopicFromMessage names a conversation after the first words of its opening
// message.
func TopicFromMessage(text string) string {
	words := strings.Fields(text)
	if len(words) > topicWords {
		words = words[:topicWords]
	}
	topic := strings.Join(words, " ")
	topic = strings.NewReplacer(".", "", "?", "").Replace(topic)
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return untitledTopic
	}
	return topic
}
