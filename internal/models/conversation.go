package models

import "time"

// Role identifies who authored a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatSession is a saved conversation. Messages are stored as one JSON
// document per session, not as individual rows.
type ChatSession struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Topic     string    `json:"topic"`
	Messages  []Message `json:"messages"`
	Timestamp time.Time `json:"timestamp"`
}

type ChatSessionSummary struct {
	ID           int64     `json:"id"`
	Topic        string    `json:"topic"`
	MessageCount int       `json:"message_count"`
	Timestamp    time.Time `json:"timestamp"`
}

// CloneMessages returns a copy that does not share a backing array with msgs.
func CloneMessages(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}
