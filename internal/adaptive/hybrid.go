package adaptive

import (
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/pal/internal/difficulty"
	"github.com/abhisek/pal/internal/profile"
)

// HybridConfig controls how much the bandit is trusted over time.
type HybridConfig struct {
	InitialRLWeight     float64 `mapstructure:"initial_rl_weight"`
	MaxRLWeight         float64 `mapstructure:"max_rl_weight"`
	RLWeightIncrement   float64 `mapstructure:"rl_weight_increment"`
	MinDecisionsForRL   int     `mapstructure:"min_decisions_for_rl"`
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold"`
	ConfidenceBoost     float64 `mapstructure:"confidence_boost"`
	VelocityThreshold   float64 `mapstructure:"velocity_threshold"`
	VelocityBoost       float64 `mapstructure:"velocity_boost"`
	HistorySize         int     `mapstructure:"history_size"`

	// Skill score cut-offs of the statistical fallback.
	FallbackEasyMax   float64 `mapstructure:"fallback_easy_max"`
	FallbackMediumMax float64 `mapstructure:"fallback_medium_max"`
}

// DefaultHybridConfig returns the default weighting schedule.
func DefaultHybridConfig() HybridConfig {
	return HybridConfig{
		InitialRLWeight:     0.3,
		MaxRLWeight:         0.8,
		RLWeightIncrement:   0.02,
		MinDecisionsForRL:   10,
		ConfidenceThreshold: 0.6,
		ConfidenceBoost:     1.2,
		VelocityThreshold:   0.3,
		VelocityBoost:       1.1,
		HistorySize:         100,
		FallbackEasyMax:     30,
		FallbackMediumMax:   70,
	}
}

// Weights is the split between the two predictors for one decision.
type Weights struct {
	Statistical float64 `json:"statistical"`
	RL          float64 `json:"rl"`
}

// Blend is the audit record of one hybrid decision.
type Blend struct {
	DecisionCount       int              `json:"decision_count"`
	Weights             Weights          `json:"weights"`
	Statistical         difficulty.Level `json:"statistical"`
	RL                  difficulty.Level `json:"rl"`
	StatisticalFallback bool             `json:"statistical_fallback,omitempty"`
	RLFallback          bool             `json:"rl_fallback,omitempty"`
	Final               difficulty.Level `json:"final"`
	Reasoning           string           `json:"reasoning"`
	At                  time.Time        `json:"at"`
}

// HybridStats summarizes the blender.
type HybridStats struct {
	DecisionCount int     `json:"decision_count"`
	RLWeight      float64 `json:"rl_weight"`
	AgreementRate float64 `json:"agreement_rate"`
	Recent        []Blend `json:"recent"`
}

// Hybrid arbitrates between a statistical and an RL predictor. When they
// disagree one uniform draw picks a side in proportion to the weights. Both
// sides learn from every answer.
type Hybrid struct {
	cfg  HybridConfig
	stat Predictor
	rl   Predictor
	rng  Rand
	log  *zap.Logger
	now  func() time.Time

	rlWeight float64
	count    int
	history  []Blend
}

// NewHybrid creates a blender over stat and rl. Either may be nil, in which
// case that side always uses its fallback.
func NewHybrid(cfg HybridConfig, stat, rl Predictor, rng Rand, opts ...Option) *Hybrid {
	o := buildOptions(opts)
	if rng == nil {
		rng = NewRand(uint64(o.now().UnixNano()))
	}
	return &Hybrid{
		cfg:      cfg,
		stat:     stat,
		rl:       rl,
		rng:      rng,
		log:      o.logger,
		now:      o.now,
		rlWeight: cfg.InitialRLWeight,
	}
}

func (h *Hybrid) Name() string { return "hybrid" }

// RLWeight returns the weight used for the latest decision.
func (h *Hybrid) RLWeight() float64 { return h.rlWeight }

// DecisionCount returns the number of decisions made so far.
func (h *Hybrid) DecisionCount() int { return h.count }

// ScheduledRLWeight is the RL weight for decision n before any confidence or
// velocity boost.
func ScheduledRLWeight(cfg HybridConfig, n int) float64 {
	if n < cfg.MinDecisionsForRL {
		return 0
	}
	return math.Min(cfg.MaxRLWeight, cfg.InitialRLWeight+float64(n-cfg.MinDecisionsForRL)*cfg.RLWeightIncrement)
}

func (h *Hybrid) weights(st *profile.State) Weights {
	w := ScheduledRLWeight(h.cfg, h.count)
	p := st.Profile
	if p.ConfidenceLevel > h.cfg.ConfidenceThreshold {
		w = math.Min(h.cfg.MaxRLWeight, w*h.cfg.ConfidenceBoost)
	}
	if math.Abs(p.LearningVelocity) > h.cfg.VelocityThreshold {
		w = math.Min(h.cfg.MaxRLWeight, w*h.cfg.VelocityBoost)
	}
	h.rlWeight = w
	return Weights{Statistical: 1 - w, RL: w}
}

// NextDifficulty asks both sides for a tier from the same profile snapshot
// and arbitrates. It never fails.
func (h *Hybrid) NextDifficulty(st *profile.State) (difficulty.Level, error) {
	if st == nil {
		return "", fmt.Errorf("hybrid: nil state: %w", ErrUnavailable)
	}
	st.Ensure()
	h.count++
	w := h.weights(st)

	statLevel, statFallback := h.predict(h.stat, "statistical", st, func() difficulty.Level {
		return h.thresholdLevel(st.SkillScore)
	})
	rlLevel, rlFallback := h.predict(h.rl, "rl", st, func() difficulty.Level {
		return difficulty.FromRank(h.rng.IntN(len(difficulty.Levels)))
	})

	final := statLevel
	if statLevel != rlLevel && h.rng.Float64() >= w.Statistical {
		final = rlLevel
	}

	b := Blend{
		DecisionCount:       h.count,
		Weights:             w,
		Statistical:         statLevel,
		RL:                  rlLevel,
		StatisticalFallback: statFallback,
		RLFallback:          rlFallback,
		Final:               final,
		At:                  h.now(),
	}
	b.Reasoning = blendReasoning(b)
	h.history = appendBounded(h.history, b, h.cfg.HistorySize)

	h.log.Debug("hybrid decision",
		zap.Int("decision", h.count),
		zap.Float64("rl_weight", w.RL),
		zap.String("statistical", string(statLevel)),
		zap.String("rl", string(rlLevel)),
		zap.String("final", string(final)))
	return final, nil
}

// predict runs one side, substituting the fallback when the side is absent
// or fails. The second result reports whether the fallback was used.
func (h *Hybrid) predict(p Predictor, side string, st *profile.State, fallback func() difficulty.Level) (difficulty.Level, bool) {
	if p == nil {
		return fallback(), true
	}
	level, err := guardNext(p, st)
	if err != nil {
		h.log.Warn("hybrid side failed, using fallback", zap.String("side", side), zap.Error(err))
		return fallback(), true
	}
	return level, false
}

func (h *Hybrid) thresholdLevel(skill float64) difficulty.Level {
	switch {
	case skill <= h.cfg.FallbackEasyMax:
		return difficulty.Easy
	case skill <= h.cfg.FallbackMediumMax:
		return difficulty.Medium
	}
	return difficulty.Hard
}

func blendReasoning(b Blend) string {
	var parts []string
	switch {
	case b.Weights.RL < 0.1:
		parts = append(parts, "Using statistical approach (early learning phase)")
	case b.Weights.RL > 0.7:
		parts = append(parts, "RL-dominant decision (high confidence)")
	default:
		parts = append(parts, fmt.Sprintf("Blended decision (%.0f%% statistical, %.0f%% RL)",
			b.Weights.Statistical*100, b.Weights.RL*100))
	}
	if b.Statistical != b.RL {
		parts = append(parts, fmt.Sprintf("Statistical: %s, RL: %s", b.Statistical, b.RL))
		if b.Final == b.RL {
			parts = append(parts, "RL prediction selected")
		} else {
			parts = append(parts, "Statistical prediction selected")
		}
	} else {
		parts = append(parts, fmt.Sprintf("Both algorithms agree: %s", b.Final))
	}
	return strings.Join(parts, "; ")
}

// Update forwards the answer to both sides. The bandit goes first: it leaves
// the state untouched, so both sides see the profile and skill score as they
// were before this answer. Failures are logged, never returned.
func (h *Hybrid) Update(st *profile.State, ans Answer) error {
	if st == nil {
		return fmt.Errorf("hybrid update: nil state: %w", ErrUnavailable)
	}
	for _, side := range []struct {
		name string
		p    Predictor
	}{{"rl", h.rl}, {"statistical", h.stat}} {
		if side.p == nil {
			continue
		}
		if err := guardUpdate(side.p, st, ans); err != nil {
			h.log.Warn("hybrid side update failed", zap.String("side", side.name), zap.Error(err))
		}
	}
	return nil
}

// Explain reports the latest blend with the underlying explanations.
func (h *Hybrid) Explain() (Explanation, bool) {
	if len(h.history) == 0 {
		return Explanation{}, false
	}
	b := h.history[len(h.history)-1]
	exp := Explanation{
		Predictor:     h.Name(),
		Difficulty:    b.Final,
		Reasoning:     b.Reasoning,
		At:            b.At,
		Weights:       &b.Weights,
		Statistical:   b.Statistical,
		RL:            b.RL,
		DecisionCount: b.DecisionCount,
	}
	for _, p := range []Predictor{h.stat, h.rl} {
		if e, ok := p.(Explainer); ok {
			if d, ok := e.Explain(); ok {
				exp.Details = append(exp.Details, d)
			}
		}
	}
	return exp, true
}

// Stats summarizes the blender and returns the last ten blends.
func (h *Hybrid) Stats() HybridStats {
	agree := 0
	for _, b := range h.history {
		if b.Statistical == b.RL {
			agree++
		}
	}
	rate := 0.0
	if len(h.history) > 0 {
		rate = float64(agree) / float64(len(h.history))
	}
	recent := h.history
	if len(recent) > 10 {
		recent = recent[len(recent)-10:]
	}
	return HybridStats{
		DecisionCount: h.count,
		RLWeight:      h.rlWeight,
		AgreementRate: rate,
		Recent:        append([]Blend(nil), recent...),
	}
}

// History returns the blending log, oldest first.
func (h *Hybrid) History() []Blend { return h.history }

// Reset clears the schedule and resets both sides where supported.
func (h *Hybrid) Reset() {
	h.count = 0
	h.rlWeight = h.cfg.InitialRLWeight
	h.history = nil
	for _, p := range []Predictor{h.stat, h.rl} {
		if r, ok := p.(interface{ Reset() }); ok {
			r.Reset()
		}
	}
}
