package scoring

import (
	"context"
	"io"

	"dealflow/pkg/config"

	"go.uber.org/zap"
)

const (
	ProviderGigaChat = "gigachat"
	ProviderGemini   = "gemini"
	ProviderNone     = "none"
)

// New builds the engine described by cfg. A provider that cannot be initialised
// leaves the engine on the heuristic alone; it is never a startup error. The
// returned closer releases the model client and is never nil.
func New(ctx context.Context, cfg *config.ScoringConfig, logger *zap.Logger) (*Engine, io.Closer) {
	var (
		primary Strategy
		closer  io.Closer = nopCloser{}
	)

	switch cfg.Provider {
	case ProviderGigaChat:
		c, err := NewGigaChatCompleter(ctx, &cfg.GigaChat, logger)
		if err != nil {
			logger.Warn("GigaChat scoring unavailable, heuristic only", zap.Error(err))
			break
		}
		primary = NewLLMStrategy(ProviderGigaChat, c, logger)
		closer = c
	case ProviderGemini:
		c, err := NewGeminiCompleter(ctx, &cfg.Gemini)
		if err != nil {
			logger.Warn("Gemini scoring unavailable, heuristic only", zap.Error(err))
			break
		}
		primary = NewLLMStrategy(ProviderGemini, c, logger)
	case ProviderNone, "":
	default:
		logger.Warn("Unknown scoring provider, heuristic only", zap.String("provider", cfg.Provider))
	}

	return NewEngine(primary, NewHeuristic(), cfg.Timeout, logger), closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
