package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RichardoC/bankchat/internal/models"
	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
)

// DefaultKnowledge is the banking fact sheet given to the model when none is
// configured.
const DefaultKnowledge = "A standard transaction fee is $1.00. " +
	"The maximum daily ATM withdrawal limit is $500. " +
	"Loan interest rates start at 4.5%. " +
	"Overdraft fees are $35. "

const unavailableReply = "Sorry, the AI service is unavailable. Error: %v"

// Model forwards the conversation to a language model served over HTTP.
type Model struct {
	llm     llms.Model
	system  string
	timeout time.Duration
	logger  *zap.Logger
}

// NewModel wraps llm. A zero timeout leaves the deadline to ctx and the
// transport.
func NewModel(llm llms.Model, knowledge string, timeout time.Duration, logger *zap.Logger) *Model {
	if knowledge == "" {
		knowledge = DefaultKnowledge
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Model{
		llm:     llm,
		system:  SystemPrompt(knowledge),
		timeout: timeout,
		logger:  logger,
	}
}

// SystemPrompt builds the instruction that grounds the model in knowledge
// and makes it refuse anything that is not about banking.
func SystemPrompt(knowledge string) string {
	return "You are a helpful and secure bank chatbot. " +
		"Your current knowledge base is: " + knowledge + " " +
		"Answer the user's question based on your banking knowledge and previous conversation. " +
		"If the question is completely unrelated to banking, respond strictly with: " +
		"'I can only assist with bank-related inquiries, such as transactions, accounts, and loan information.' "
}

func (m *Model) Respond(ctx context.Context, utterance string, history []models.Message) string {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	resp, err := m.llm.GenerateContent(ctx, m.messages(utterance, history))
	if err == nil && len(resp.Choices) == 0 {
		err = errors.New("model returned no choices")
	}
	if err != nil {
		m.logger.Warn("language model request failed",
			zap.Error(err),
			zap.Int("historyLength", len(history)))
		return fmt.Sprintf(unavailableReply, err)
	}
	return resp.Choices[0].Content
}

func (m *Model) messages(utterance string, history []models.Message) []llms.MessageContent {
	msgs := make([]llms.MessageContent, 0, len(history)+2)
	msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeSystem, m.system))
	for _, h := range history {
		msgs = append(msgs, llms.TextParts(chatMessageType(h.Role), h.Content))
	}
	return append(msgs, llms.TextParts(llms.ChatMessageTypeHuman, utterance))
}

func chatMessageType(role models.Role) llms.ChatMessageType {
	if role == models.RoleAssistant {
		return llms.ChatMessageTypeAI
	}
	return llms.ChatMessageTypeHuman
}
