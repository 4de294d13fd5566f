package llm

import (
	"context"
	"fmt"

	"github.com/RichardoC/bankchat/internal/config"
	"github.com/RichardoC/bankchat/internal/models"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

// Responder produces the assistant reply for a user utterance. history holds
// the conversation before the utterance, oldest first. Implementations never
// fail: problems are turned into a reply the user can read.
type Responder interface {
	Respond(ctx context.Context, utterance string, history []models.Message) string
}

// New builds the Responder selected by cfg.Strategy.
func New(cfg config.OracleConfig, knowledge string, logger *zap.Logger) (Responder, error) {
	switch cfg.Strategy {
	case "", config.StrategyKeyword:
		return Keyword{}, nil

	case config.StrategyOllama:
		llm, err := ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize ollama client: %w", err)
		}
		return NewModel(llm, knowledge, cfg.Timeout, logger), nil

	case config.StrategyOpenAI:
		llm, err := openai.New(
			openai.WithToken(cfg.Token),
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize openai client: %w", err)
		}
		return NewModel(llm, knowledge, cfg.Timeout, logger), nil

	default:
		return nil, fmt.Errorf("unknown oracle strategy %q", cfg.Strategy)
	}
}
