package questions

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhisek/pal/internal/difficulty"
	"github.com/abhisek/pal/internal/llm"
)

// Config tunes generation.
type Config struct {
	Topic       string  `mapstructure:"topic"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
	MaxPrior    int     `mapstructure:"max_prior"`
	MaxMisses   int     `mapstructure:"max_misses"`

	Validators []Validator `mapstructure:"-"`
}

// DefaultConfig returns the standard validator chain.
func DefaultConfig() Config {
	return Config{
		Topic:       "general arithmetic and algebra",
		MaxTokens:   512,
		Temperature: 0.7,
		MaxPrior:    10,
		MaxMisses:   5,
		Validators:  []Validator{Structural{}, AnswerListed{}, Fresh{}},
	}
}

// LLMSource generates questions and falls back to another source when
// generation or validation fails.
type LLMSource struct {
	provider llm.Provider
	fallback Source
	cfg      Config
	log      *zap.Logger

	prior  []string
	misses []string
}

// NewLLMSource builds a generator. fallback may be nil.
func NewLLMSource(p llm.Provider, fallback Source, cfg Config, log *zap.Logger) *LLMSource {
	if log == nil {
		log = zap.NewNop()
	}
	return &LLMSource{provider: p, fallback: fallback, cfg: cfg, log: log}
}

func (s *LLMSource) Question(ctx context.Context, index int, level difficulty.Level) (*Question, error) {
	q, err := s.generate(ctx, level)
	if err == nil {
		s.prior = append(s.prior, q.Text)
		return q, nil
	}
	if s.fallback == nil {
		return nil, err
	}
	s.log.Warn("question generation failed, using fallback",
		zap.Int("index", index),
		zap.String("difficulty", string(level)),
		zap.Error(err))
	q, ferr := s.fallback.Question(ctx, index, level)
	if ferr != nil {
		return nil, fmt.Errorf("generate: %v; fallback: %w", err, ferr)
	}
	s.prior = append(s.prior, q.Text)
	return q, nil
}

func (s *LLMSource) generate(ctx context.Context, level difficulty.Level) (*Question, error) {
	req := llm.UserPrompt(systemPrompt, buildPrompt(s.cfg.Topic, level, s.prior, s.misses, s.cfg))
	req.Schema = Schema
	req.MaxTokens = s.cfg.MaxTokens
	req.Temperature = s.cfg.Temperature

	resp, err := s.provider.Generate(llm.WithPurpose(ctx, "question"), req)
	if err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}
	var out generated
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("decode question: %w", err)
	}
	q := &Question{
		Text:    out.Question,
		Options: out.Options,
		Answer:  out.Answer,
		Level:   level,
		Origin:  s.provider.Name(),
	}
	for _, v := range s.cfg.Validators {
		if verr := v.Validate(q, s.prior); verr != nil {
			return nil, verr
		}
	}
	return q, nil
}

// Record remembers missed questions for later prompts.
func (s *LLMSource) Record(q *Question, selected string) {
	if q.IsCorrect(selected) {
		return
	}
	s.misses = append(s.misses, fmt.Sprintf("%s (chose %q, answer %q)", q.Text, selected, q.Answer))
}
