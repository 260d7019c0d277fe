// Package adaptive selects the difficulty of the next question for a learner
// and updates its beliefs after every answer.
//
// Three predictors share a profile.State: Statistical (IRT base plus
// heuristic adjustments), RL (an epsilon-greedy bandit over the three tiers)
// and Hybrid (stochastic arbitration between the two). A Chain walks them in
// priority order and ends in the Baseline threshold sampler, which cannot
// fail. Every instance is owned by one session; calls must alternate
// NextDifficulty, Update, NextDifficulty, ...
package adaptive

import (
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/pal/internal/difficulty"
	"github.com/abhisek/pal/internal/profile"
)

// ErrUnavailable signals that a predictor cannot serve the call and the next
// tier should be tried.
var ErrUnavailable = errors.New("predictor unavailable")

// Answer is the observed outcome of one question.
type Answer struct {
	Correct        bool
	Difficulty     difficulty.Level
	ResponseTimeMs float64
}

// Predictor is one tier of the decision chain.
type Predictor interface {
	Name() string
	NextDifficulty(st *profile.State) (difficulty.Level, error)
	Update(st *profile.State, ans Answer) error
}

// Explainer is implemented by predictors that can describe their most recent
// decision. ok is false before the first decision.
type Explainer interface {
	Explain() (exp Explanation, ok bool)
}

// Rand is the randomness a predictor consumes. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// NewRand returns a deterministic source for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Option configures a predictor.
type Option func(*options)

type options struct {
	logger *zap.Logger
	now    func() time.Time
}

// WithLogger attaches a logger. The default discards output.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock overrides the time source used to stamp diagnostics.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: zap.NewNop(), now: time.Now}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func appendBounded[T any](s []T, v T, limit int) []T {
	s = append(s, v)
	if len(s) > limit {
		s = s[len(s)-limit:]
	}
	return s
}
