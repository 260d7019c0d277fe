package llm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/pal/internal/store"
)

// New builds the configured provider wrapped as
// caller -> timeout -> retry -> logging -> provider.
// It returns nil, nil when generation is disabled.
func New(ctx context.Context, cfg Config, events store.EventRepo, log *zap.Logger) (Provider, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		base Provider
		err  error
	)
	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropic(cfg)
	case "openai", "openrouter":
		base, err = NewOpenAI(cfg)
	case "gemini":
		base, err = NewGemini(ctx, cfg)
	case "mock":
		base = NewMock()
	}
	if err != nil {
		return nil, fmt.Errorf("init %s provider: %w", cfg.Provider, err)
	}

	var p Provider = WithRetry(WithLogging(base, events, log), cfg.Retry)
	if cfg.Timeout > 0 {
		p = &timeout{Provider: p, d: cfg.Timeout}
	}
	return p, nil
}

// timeout bounds a request including its retries.
type timeout struct {
	Provider
	d time.Duration
}

func (t *timeout) Generate(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.Provider.Generate(ctx, req)
}
