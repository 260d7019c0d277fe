package sim

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhisek/pal/internal/adaptive"
	"github.com/abhisek/pal/internal/questions"
	"github.com/abhisek/pal/internal/session"
	"github.com/abhisek/pal/internal/store"
)

// Config describes a batch of simulated sessions.
type Config struct {
	Variant   string        `mapstructure:"-"`
	Seed      uint64        `mapstructure:"-"`
	Runs      int           `mapstructure:"runs"`
	Questions int           `mapstructure:"questions"`
	Learner   LearnerConfig `mapstructure:"learner"`
}

// DefaultConfig runs five hybrid sessions of twenty questions.
func DefaultConfig() Config {
	return Config{Variant: "hybrid", Runs: 5, Questions: 20, Seed: 1, Learner: DefaultLearnerConfig()}
}

// Runner runs simulated sessions.
type Runner struct {
	Engine  adaptive.Config
	Session session.Config
	Source  questions.Source // optional, fills question text
	Results store.ResultRepo // optional
	Log     *zap.Logger
}

// Run executes cfg.Runs sessions and returns their summaries. Run i uses
// seed cfg.Seed+i so batches are reproducible.
func (r *Runner) Run(ctx context.Context, cfg Config) ([]*session.Summary, error) {
	variant, err := adaptive.ParseVariant(cfg.Variant)
	if err != nil {
		return nil, err
	}
	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}

	out := make([]*session.Summary, 0, cfg.Runs)
	for i := range cfg.Runs {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		sum, err := r.runOne(ctx, variant, cfg, cfg.Seed+uint64(i), log)
		if err != nil {
			return out, fmt.Errorf("run %d: %w", i+1, err)
		}
		log.Info("simulated session",
			zap.String("variant", string(variant)),
			zap.Int("run", i+1),
			zap.Float64("accuracy", sum.Accuracy),
			zap.Float64("final_score", sum.FinalScore))
		out = append(out, sum)
	}
	return out, nil
}

func (r *Runner) runOne(ctx context.Context, variant adaptive.Variant, cfg Config, seed uint64, log *zap.Logger) (*session.Summary, error) {
	engineRng := adaptive.NewRand(seed)
	learnerRng := adaptive.NewRand(seed ^ 0x9e3779b97f4a7c15)

	engine, err := adaptive.NewEngine(variant, r.Engine, engineRng, adaptive.WithLogger(log))
	if err != nil {
		return nil, err
	}
	opts := []session.Option{
		session.WithConfig(r.Session),
		session.WithLogger(log),
		session.WithVariant(string(variant)),
	}
	if r.Results != nil {
		opts = append(opts, session.WithRecorder(r.Results))
	}
	s := session.New(engine, opts...)
	learner := NewLearner(cfg.Learner)

	for i := range cfg.Questions {
		level := s.Next()
		correct, rt := learner.Answer(level, learnerRng)
		o := session.Outcome{Correct: correct, ResponseTimeMs: rt}
		if r.Source != nil {
			q, err := r.Source.Question(ctx, i, level)
			if err != nil {
				return nil, fmt.Errorf("question %d: %w", i+1, err)
			}
			o.QuestionText = q.Text
			o.CorrectAnswer = q.Answer
			o.Selected = pick(q, correct)
		}
		if _, err := s.Answer(o); err != nil {
			return nil, err
		}
	}
	return s.Finish(ctx)
}

// pick returns the answer when correct, else the first other option.
func pick(q *questions.Question, correct bool) string {
	if correct {
		return q.Answer
	}
	for _, o := range q.Options {
		if o != q.Answer {
			return o
		}
	}
	return q.Answer
}
