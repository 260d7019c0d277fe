// Package profile holds the per-learner data model consumed by the
// difficulty predictors.
package profile

import (
	"github.com/abhisek/pal/internal/difficulty"
)

// Capacity limits for the rolling collections.
const (
	MaxResponseTimes = 10
	MaxHistory       = 15
	MaxTierOutcomes  = 8
)

// HistoryEntry is one answered question.
type HistoryEntry struct {
	Difficulty     difficulty.Level `json:"difficulty"`
	Correct        bool             `json:"correct"`
	ResponseTimeMs float64          `json:"response_time_ms"`
	ScoreChange    float64          `json:"score_change"`
	QuestionText   string           `json:"question,omitempty"`
	SelectedOption string           `json:"selected,omitempty"`
	CorrectAnswer  string           `json:"answer,omitempty"`
}

// TimeStats is an exponentially weighted mean and variance of response
// times at one tier.
type TimeStats struct {
	EMA float64 `json:"ema"`
	Var float64 `json:"var"`
	N   int     `json:"n"`
}

// Observe folds x into the running statistics with smoothing factor alpha.
// The first sample seeds the mean with zero variance.
func (ts *TimeStats) Observe(x, alpha float64) {
	if ts.N == 0 {
		ts.EMA = x
		ts.Var = 0
		ts.N = 1
		return
	}
	prev := ts.EMA
	ts.EMA = alpha*x + (1-alpha)*prev
	diff := x - prev
	ts.Var = alpha*diff*diff + (1-alpha)*ts.Var
	ts.N++
}

// BetaPosterior is a Beta(A, B) belief over a tier's success rate.
type BetaPosterior struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// Observe increments A on success and B on failure.
func (bp *BetaPosterior) Observe(correct bool) {
	if correct {
		bp.A++
	} else {
		bp.B++
	}
}

// Mean returns the posterior mean.
func (bp BetaPosterior) Mean() float64 {
	n := bp.A + bp.B
	if n <= 0 {
		return 0.5
	}
	return bp.A / n
}

// IRTParam is the slope and location of a two-parameter logistic curve.
type IRTParam struct {
	Slope    float64 `json:"slope"`
	Location float64 `json:"location"`
}

// DefaultIRT returns the default tier curves.
func DefaultIRT() difficulty.PerLevel[IRTParam] {
	return difficulty.PerLevel[IRTParam]{
		Easy:   IRTParam{Slope: 0.15, Location: 20},
		Medium: IRTParam{Slope: 0.10, Location: 50},
		Hard:   IRTParam{Slope: 0.07, Location: 80},
	}
}

// Decision is the diagnostic snapshot of the latest statistical decision.
type Decision struct {
	Probabilities    difficulty.Dist `json:"probabilities"`
	GlobalConfidence float64         `json:"global_confidence"`
	Streak           int             `json:"streak"`
	ConsecutiveWrong int             `json:"consecutive_wrong"`
}

// Profile is the mutable learner record for one session.
type Profile struct {
	ResponseTimes        []float64                          `json:"response_times"`
	History              []HistoryEntry                     `json:"history"`
	AccuracyByDifficulty difficulty.PerLevel[[]bool]        `json:"accuracy_by_difficulty"`
	ConsecutiveCorrect   int                                `json:"consecutive_correct"`
	ConsecutiveWrong     int                                `json:"consecutive_wrong"`
	ConfidenceLevel      float64                            `json:"confidence_level"`
	LearningVelocity     float64                            `json:"learning_velocity"`
	AdaptationRate       float64                            `json:"adaptation_rate"`
	TimeStats            difficulty.PerLevel[TimeStats]     `json:"time_stats"`
	Beta                 difficulty.PerLevel[BetaPosterior] `json:"beta"`
	IRT                  difficulty.PerLevel[IRTParam]      `json:"irt"`

	// Damping counters, each capped at 2.
	CooldownRemaining        int `json:"cooldown_remaining"`
	RepromotionHoldRemaining int `json:"repromotion_hold_remaining"`

	LastDecision *Decision `json:"last_decision,omitempty"`
}

// New returns a fully initialized profile.
func New() *Profile {
	p := &Profile{
		ConfidenceLevel: 0.5,
		AdaptationRate:  0.5,
	}
	p.EnsureStructures()
	return p
}

// EnsureStructures fills in any per-tier structures that are missing. It is
// idempotent and never overwrites populated values: a Beta posterior with no
// mass and an IRT curve with zero slope count as missing.
func (p *Profile) EnsureStructures() {
	defaults := DefaultIRT()
	for _, l := range difficulty.Levels {
		if b := p.Beta.At(l); b.A+b.B == 0 {
			*b = BetaPosterior{A: 1, B: 1}
		}
		if irt := p.IRT.At(l); irt.Slope == 0 {
			*irt = *defaults.At(l)
		}
	}
}

// State is the snapshot the predictors read and update.
type State struct {
	SkillScore     float64          `json:"skill_score"`
	Streak         int              `json:"streak"`
	BestStreak     int              `json:"best_streak"`
	LastDifficulty difficulty.Level `json:"last_difficulty,omitempty"`
	Profile        *Profile         `json:"profile"`
}

// NewState returns the starting state of a session.
func NewState() *State {
	return &State{
		SkillScore:     50,
		LastDifficulty: difficulty.Easy,
		Profile:        New(),
	}
}

// Ensure allocates or completes the profile in place.
func (s *State) Ensure() *Profile {
	if s.Profile == nil {
		s.Profile = New()
	}
	s.Profile.EnsureStructures()
	return s.Profile
}

// ClampScore bounds v to the skill score range [0, 100].
func ClampScore(v float64) float64 {
	return clamp(v, 0, 100)
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

// appendBounded appends v and drops the oldest entries beyond limit.
func appendBounded[T any](s []T, v T, limit int) []T {
	s = append(s, v)
	if len(s) > limit {
		s = s[len(s)-limit:]
	}
	return s
}
