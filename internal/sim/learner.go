// Package sim drives sessions with simulated learners so predictor
// variants can be compared offline.
package sim

import (
	"math"

	"github.com/abhisek/pal/internal/adaptive"
	"github.com/abhisek/pal/internal/difficulty"
	"github.com/abhisek/pal/internal/profile"
)

// Learner answers a question at a tier.
type Learner interface {
	Answer(level difficulty.Level, rng adaptive.Rand) (correct bool, responseTimeMs float64)
}

// LearnerConfig describes a simulated learner.
type LearnerConfig struct {
	// CorrectProb, when positive, is a flat chance of answering correctly
	// at every tier. Otherwise Ability drives an IRT curve.
	CorrectProb float64 `mapstructure:"correct_prob"`

	// Ability is on the skill scale (0..100).
	Ability float64 `mapstructure:"ability"`

	// Growth is the ability gained per correct answer.
	Growth float64 `mapstructure:"growth"`

	// Pace scales response times; 1 answers at the expected time.
	Pace float64 `mapstructure:"pace"`

	// Jitter is the relative standard deviation of response times.
	Jitter float64 `mapstructure:"jitter"`
}

// DefaultLearnerConfig mirrors an 80% flat learner.
func DefaultLearnerConfig() LearnerConfig {
	return LearnerConfig{CorrectProb: 0.8, Ability: 50, Pace: 1, Jitter: 0.25}
}

// NewLearner builds the learner described by cfg.
func NewLearner(cfg LearnerConfig) Learner {
	times := adaptive.DefaultRLConfig().ExpectedTimeMs
	if cfg.Pace <= 0 {
		cfg.Pace = 1
	}
	if cfg.CorrectProb > 0 {
		return &flatLearner{p: math.Min(cfg.CorrectProb, 1), times: times, cfg: cfg}
	}
	return &irtLearner{ability: cfg.Ability, irt: profile.DefaultIRT(), times: times, cfg: cfg}
}

type flatLearner struct {
	p     float64
	times difficulty.PerLevel[float64]
	cfg   LearnerConfig
}

func (l *flatLearner) Answer(level difficulty.Level, rng adaptive.Rand) (bool, float64) {
	correct := rng.Float64() < l.p
	return correct, responseTime(*l.times.At(level), correct, l.cfg, rng)
}

type irtLearner struct {
	ability float64
	irt     difficulty.PerLevel[profile.IRTParam]
	times   difficulty.PerLevel[float64]
	cfg     LearnerConfig
}

// P is the chance of a correct answer at level.
func (l *irtLearner) P(level difficulty.Level) float64 {
	p := l.irt.At(level)
	return 1 / (1 + math.Exp(-p.Slope*(l.ability-p.Location)))
}

func (l *irtLearner) Answer(level difficulty.Level, rng adaptive.Rand) (bool, float64) {
	correct := rng.Float64() < l.P(level)
	if correct {
		l.ability = math.Min(100, l.ability+l.cfg.Growth)
	}
	return correct, responseTime(*l.times.At(level), correct, l.cfg, rng)
}

// responseTime draws around the expected time; wrong answers run slower.
func responseTime(expected float64, correct bool, cfg LearnerConfig, rng adaptive.Rand) float64 {
	t := expected * cfg.Pace
	if !correct {
		t *= 1.2
	}
	// Sum of uniforms approximates a normal draw with unit variance.
	var z float64
	for range 12 {
		z += rng.Float64()
	}
	z -= 6
	t *= 1 + cfg.Jitter*z
	return math.Max(500, math.Round(t))
}
