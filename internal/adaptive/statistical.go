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

// StatisticalConfig holds the tunables of the statistical predictor.
type StatisticalConfig struct {
	AccuracyDecay       float64                              `mapstructure:"accuracy_decay"`
	PromoteAccuracy     float64                              `mapstructure:"promote_accuracy"`
	DemoteAccuracy      float64                              `mapstructure:"demote_accuracy"`
	ZThreshold          float64                              `mapstructure:"z_threshold"`
	MinTimeSamples      int                                  `mapstructure:"min_time_samples"`
	EMAAlpha            float64                              `mapstructure:"ema_alpha"`
	ConfidenceBlend     float64                              `mapstructure:"confidence_blend"`
	LearningRate        float64                              `mapstructure:"learning_rate"`
	RescueWindow        int                                  `mapstructure:"rescue_window"`
	RescueMinHard       int                                  `mapstructure:"rescue_min_hard"`
	RescueFailureRate   float64                              `mapstructure:"rescue_failure_rate"`
	SmoothingMinHistory int                                  `mapstructure:"smoothing_min_history"`
	SmoothingWindow     int                                  `mapstructure:"smoothing_window"`
	SmoothingWeight     float64                              `mapstructure:"smoothing_weight"`
	Bands               difficulty.PerLevel[difficulty.Band] `mapstructure:"bands"`
}

// DefaultStatisticalConfig returns the default tunables.
func DefaultStatisticalConfig() StatisticalConfig {
	return StatisticalConfig{
		AccuracyDecay:       0.85,
		PromoteAccuracy:     0.75,
		DemoteAccuracy:      0.35,
		ZThreshold:          0.8,
		MinTimeSamples:      5,
		EMAAlpha:            0.2,
		ConfidenceBlend:     0.6,
		LearningRate:        0.6,
		RescueWindow:        5,
		RescueMinHard:       4,
		RescueFailureRate:   0.65,
		SmoothingMinHistory: 3,
		SmoothingWindow:     5,
		SmoothingWeight:     0.6,
		Bands:               DefaultBands(),
	}
}

// DefaultBands are the per-tier limits applied after smoothing.
func DefaultBands() difficulty.PerLevel[difficulty.Band] {
	return difficulty.PerLevel[difficulty.Band]{
		Easy:   difficulty.Band{Min: 0.05, Max: 0.8},
		Medium: difficulty.Band{Min: 0.1, Max: 0.6},
		Hard:   difficulty.Band{Min: 0.05, Max: 0.7},
	}
}

// Statistical combines an IRT base distribution with heuristic adjustments
// driven by accuracy, timing, momentum and damping counters.
type Statistical struct {
	cfg  StatisticalConfig
	rng  Rand
	log  *zap.Logger
	now  func() time.Time
	last *Explanation
}

// NewStatistical creates a statistical predictor drawing from rng.
func NewStatistical(cfg StatisticalConfig, rng Rand, opts ...Option) *Statistical {
	o := buildOptions(opts)
	if rng == nil {
		rng = NewRand(uint64(o.now().UnixNano()))
	}
	return &Statistical{cfg: cfg, rng: rng, log: o.logger, now: o.now}
}

func (s *Statistical) Name() string { return "statistical" }

// NextDifficulty samples the next tier and records the decision on the
// profile. It also moves the repromotion hold.
func (s *Statistical) NextDifficulty(st *profile.State) (difficulty.Level, error) {
	if st == nil {
		return "", fmt.Errorf("statistical: nil state: %w", ErrUnavailable)
	}
	probs, gc, notes := s.distribution(st)
	p := st.Profile
	p.LastDecision = &profile.Decision{
		Probabilities:    probs,
		GlobalConfidence: gc,
		Streak:           st.Streak,
		ConsecutiveWrong: p.ConsecutiveWrong,
	}

	level := probs.Sample(s.rng.Float64())
	s.updateHold(p, st.LastDifficulty, level)

	s.last = &Explanation{
		Predictor:        s.Name(),
		Difficulty:       level,
		Reasoning:        strings.Join(notes, "; "),
		At:               s.now(),
		Probabilities:    &probs,
		GlobalConfidence: &gc,
		Streak:           st.Streak,
		ConsecutiveWrong: p.ConsecutiveWrong,
	}
	s.log.Debug("statistical decision",
		zap.String("difficulty", string(level)),
		zap.Stringer("probabilities", probs),
		zap.Float64("global_confidence", gc))
	return level, nil
}

// Distribution returns the normalized probabilities the next decision would
// sample from, without sampling or touching the damping counters.
func (s *Statistical) Distribution(st *profile.State) difficulty.Dist {
	probs, _, _ := s.distribution(st)
	return probs
}

func (s *Statistical) distribution(st *profile.State) (difficulty.Dist, float64, []string) {
	p := st.Ensure()
	probs := BaseDistribution(p.IRT, st.SkillScore)
	gc := s.globalConfidence(p)

	var notes []string
	note := func(n string) {
		if n != "" {
			notes = append(notes, n)
		}
	}
	note(s.adjustAccuracy(&probs, p))
	note(s.adjustTiming(&probs, p, st.LastDifficulty))
	note(adjustRisk(&probs, gc))
	note(adjustMomentum(&probs, st.Streak, p.ConsecutiveWrong))
	note(s.adjustRescue(&probs, p))
	note(adjustDamping(&probs, p))
	note(s.smooth(&probs, p))

	return probs.Normalize(), gc, notes
}

// BaseDistribution evaluates the two-parameter logistic curve of every tier
// at skill and normalizes the result.
func BaseDistribution(irt difficulty.PerLevel[profile.IRTParam], skill float64) difficulty.Dist {
	var d difficulty.Dist
	for _, l := range difficulty.Levels {
		c := irt.At(l)
		d.Set(l, sigmoid(c.Slope*(skill-c.Location)))
	}
	return d.Normalize()
}

// tierFactor holds the multipliers for a tier whose weighted accuracy is at
// or below the demote threshold (low) or at or above the promote one (high).
type tierFactor struct{ low, high float64 }

var accuracyFactors = difficulty.PerLevel[tierFactor]{
	Easy:   tierFactor{low: 1.15, high: 0.9},
	Medium: tierFactor{low: 0.85, high: 1.05},
	Hard:   tierFactor{low: 0.7, high: 1.15},
}

func (s *Statistical) adjustAccuracy(probs *difficulty.Dist, p *profile.Profile) string {
	var acc difficulty.PerLevel[float64]
	for _, l := range difficulty.Levels {
		a := p.WeightedAccuracy(l, s.cfg.AccuracyDecay)
		*acc.At(l) = a
		f := accuracyFactors.At(l)
		switch {
		case a <= s.cfg.DemoteAccuracy:
			probs.Scale(l, f.low)
		case a >= s.cfg.PromoteAccuracy:
			probs.Scale(l, f.high)
		}
	}
	return fmt.Sprintf("weighted accuracy E%.2f M%.2f H%.2f", acc.Easy, acc.Medium, acc.Hard)
}

// timeZ is how many deviations the latest response at level sits from its
// running mean. Too few samples give 0.
func (s *Statistical) timeZ(p *profile.Profile, level difficulty.Level) float64 {
	ts := p.TimeStats.At(level)
	if ts.N < s.cfg.MinTimeSamples {
		return 0
	}
	last, ok := p.LastResponseTime(level)
	if !ok {
		return 0
	}
	return (last - ts.EMA) / math.Sqrt(math.Max(ts.Var, 1e-6))
}

func (s *Statistical) adjustTiming(probs *difficulty.Dist, p *profile.Profile, last difficulty.Level) string {
	zt := s.cfg.ZThreshold
	switch last {
	case difficulty.Easy:
		if z := s.timeZ(p, difficulty.Easy); z < -zt {
			probs.Hard *= 1.15
			probs.Easy *= 0.9
			return fmt.Sprintf("fast on Easy (z=%.2f)", z)
		}
	case difficulty.Medium:
		if z := s.timeZ(p, difficulty.Medium); z < -zt {
			probs.Hard *= 1.08
			return fmt.Sprintf("fast on Medium (z=%.2f)", z)
		}
	case difficulty.Hard:
		if z := s.timeZ(p, difficulty.Hard); z > zt {
			probs.Hard *= 0.8
			probs.Medium *= 1.15
			return fmt.Sprintf("slow on Hard (z=%.2f)", z)
		}
	}
	return ""
}

func adjustRisk(probs *difficulty.Dist, gc float64) string {
	risk := 0.9 + gc*0.3
	probs.Hard *= risk
	probs.Easy *= 2 - risk
	return fmt.Sprintf("risk budget %.2f", risk)
}

func adjustMomentum(probs *difficulty.Dist, streak, consecutiveWrong int) string {
	var notes []string
	switch {
	case streak >= 5:
		bonus := math.Min(1.35, 1+float64(streak-4)*0.06)
		probs.Hard *= bonus
		probs.Easy *= 2 - bonus
		notes = append(notes, fmt.Sprintf("streak %d bonus %.2f", streak, bonus))
	case streak >= 3:
		probs.Hard *= 1.08
		probs.Easy *= 0.95
		notes = append(notes, fmt.Sprintf("streak %d", streak))
	}
	switch {
	case consecutiveWrong >= 3:
		probs.Easy *= 1.5
		probs.Hard *= 0.45
		notes = append(notes, fmt.Sprintf("%d wrong in a row", consecutiveWrong))
	case consecutiveWrong == 2:
		probs.Easy *= 1.2
		probs.Hard *= 0.85
		notes = append(notes, "2 wrong in a row")
	}
	return strings.Join(notes, ", ")
}

func (s *Statistical) adjustRescue(probs *difficulty.Dist, p *profile.Profile) string {
	var attempts, failures int
	for _, h := range p.Last(s.cfg.RescueWindow) {
		if h.Difficulty != difficulty.Hard {
			continue
		}
		attempts++
		if !h.Correct {
			failures++
		}
	}
	if attempts < s.cfg.RescueMinHard {
		return ""
	}
	if float64(failures)/float64(attempts) < s.cfg.RescueFailureRate {
		return ""
	}
	probs.Hard *= 0.5
	probs.Medium *= 1.2
	return fmt.Sprintf("rescue: %d/%d recent Hard failed", failures, attempts)
}

func adjustDamping(probs *difficulty.Dist, p *profile.Profile) string {
	var notes []string
	if p.CooldownRemaining > 0 {
		probs.Hard *= 0.9
		probs.Easy *= 1.05
		notes = append(notes, fmt.Sprintf("cooldown %d", p.CooldownRemaining))
	}
	if p.RepromotionHoldRemaining > 0 {
		probs.Hard *= 0.8
		probs.Medium *= 0.95
		probs.Easy *= 1.05
		notes = append(notes, fmt.Sprintf("hold %d", p.RepromotionHoldRemaining))
	}
	return strings.Join(notes, ", ")
}

func (s *Statistical) smooth(probs *difficulty.Dist, p *profile.Profile) string {
	if len(p.History) < s.cfg.SmoothingMinHistory {
		return ""
	}
	recent := difficulty.Empirical(p.RecentLevels(s.cfg.SmoothingWindow))
	*probs = probs.Blend(recent, s.cfg.SmoothingWeight).Clamp(s.cfg.Bands)
	return "smoothed toward recent tiers"
}

// updateHold arms the repromotion hold on any downgrade and lets it decay
// otherwise.
func (s *Statistical) updateHold(p *profile.Profile, prev, curr difficulty.Level) {
	if !prev.Valid() || !curr.Valid() {
		return
	}
	if curr.Rank() < prev.Rank() {
		p.RepromotionHoldRemaining = max(p.RepromotionHoldRemaining, 2)
	} else if p.RepromotionHoldRemaining > 0 {
		p.RepromotionHoldRemaining--
	}
}

func (s *Statistical) globalConfidence(p *profile.Profile) float64 {
	w := s.cfg.ConfidenceBlend
	return clamp(w*p.ConfidenceLevel+(1-w)*meanBetaConfidence(p), 0, 1)
}

// BetaConfidence maps the spread of a Beta posterior to [0, 1]. Posteriors
// with two or fewer pseudo-observations get a flat 0.3.
func BetaConfidence(b profile.BetaPosterior) float64 {
	n := b.A + b.B
	if n <= 2 {
		return 0.3
	}
	v := (b.A * b.B) / (n * n * (n + 1))
	return clamp(1-math.Min(1, math.Sqrt(v)*4), 0, 1)
}

func meanBetaConfidence(p *profile.Profile) float64 {
	var sum float64
	for _, l := range difficulty.Levels {
		sum += BetaConfidence(*p.Beta.At(l))
	}
	return sum / float64(len(difficulty.Levels))
}

// Update folds the answer into the timing, Beta, cooldown and confidence
// statistics and moves the skill score along the answered tier's curve.
func (s *Statistical) Update(st *profile.State, ans Answer) error {
	if st == nil {
		return fmt.Errorf("statistical update: nil state: %w", ErrUnavailable)
	}
	if !ans.Difficulty.Valid() {
		return fmt.Errorf("statistical update: invalid difficulty %q", ans.Difficulty)
	}
	p := st.Ensure()
	d := ans.Difficulty

	p.TimeStats.At(d).Observe(ans.ResponseTimeMs, s.cfg.EMAAlpha)
	p.Beta.At(d).Observe(ans.Correct)

	if !ans.Correct && d != difficulty.Easy {
		p.CooldownRemaining = min(2, p.CooldownRemaining+1)
	} else if p.CooldownRemaining > 0 {
		p.CooldownRemaining--
	}

	w := s.cfg.ConfidenceBlend
	p.ConfidenceLevel = clamp(w*p.ConfidenceLevel+(1-w)*meanBetaConfidence(p), 0, 1)

	base := BaseDistribution(p.IRT, st.SkillScore)
	outcome := 0.0
	if ans.Correct {
		outcome = 1
	}
	slope := p.IRT.At(d).Slope
	st.SkillScore = profile.ClampScore(st.SkillScore + s.cfg.LearningRate*(outcome-base.Get(d))*slope*100)
	return nil
}

// Explain reports the latest decision.
func (s *Statistical) Explain() (Explanation, bool) {
	if s.last == nil {
		return Explanation{}, false
	}
	return *s.last, true
}
