package adaptive

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/pal/internal/difficulty"
	"github.com/abhisek/pal/internal/profile"
)

// scoreBand maps an upper skill bound to a starting distribution.
type scoreBand struct {
	upTo  float64
	probs difficulty.Dist
}

var thresholdBands = []scoreBand{
	{20, difficulty.Dist{Easy: 0.85, Medium: 0.12, Hard: 0.03}},
	{35, difficulty.Dist{Easy: 0.75, Medium: 0.20, Hard: 0.05}},
	{50, difficulty.Dist{Easy: 0.55, Medium: 0.35, Hard: 0.10}},
	{65, difficulty.Dist{Easy: 0.35, Medium: 0.45, Hard: 0.20}},
	{80, difficulty.Dist{Easy: 0.20, Medium: 0.45, Hard: 0.35}},
	{90, difficulty.Dist{Easy: 0.10, Medium: 0.35, Hard: 0.55}},
}

var topBand = difficulty.Dist{Easy: 0.05, Medium: 0.25, Hard: 0.70}

// ThresholdDistribution returns the starting distribution for a skill score.
func ThresholdDistribution(skill float64) difficulty.Dist {
	for _, b := range thresholdBands {
		if skill <= b.upTo {
			return b.probs
		}
	}
	return topBand
}

// Baseline is the threshold sampler at the end of every chain. It reads the
// profile but keeps no learned state, and it never fails.
type Baseline struct {
	rng  Rand
	log  *zap.Logger
	now  func() time.Time
	last *Explanation
}

// NewBaseline creates the threshold sampler.
func NewBaseline(rng Rand, opts ...Option) *Baseline {
	o := buildOptions(opts)
	if rng == nil {
		rng = NewRand(uint64(o.now().UnixNano()))
	}
	return &Baseline{rng: rng, log: o.logger, now: o.now}
}

func (b *Baseline) Name() string { return "baseline" }

// NextDifficulty samples from the threshold distribution after the profile
// nudges and the smoothing buffer.
func (b *Baseline) NextDifficulty(st *profile.State) (difficulty.Level, error) {
	if st == nil {
		st = profile.NewState()
	}
	probs := b.Distribution(st)
	level := probs.Sample(b.rng.Float64())
	b.last = &Explanation{
		Predictor:     b.Name(),
		Difficulty:    level,
		Reasoning:     "skill-score threshold bands",
		At:            b.now(),
		Probabilities: &probs,
		Streak:        st.Streak,
	}
	return level, nil
}

// Distribution returns the normalized distribution the sampler draws from.
func (b *Baseline) Distribution(st *profile.State) difficulty.Dist {
	p := st.Ensure()
	probs := ThresholdDistribution(st.SkillScore)

	adjustRecentPerformance(&probs, p)
	adjustResponseTrend(&probs, p)
	adjustTierPatterns(&probs, p)
	adjustBaselineMomentum(&probs, st, p)

	switch {
	case p.LearningVelocity > 0.3:
		probs.Hard *= 1.2
		probs.Easy *= 0.8
	case p.LearningVelocity < -0.3:
		probs.Easy *= 1.2
		probs.Hard *= 0.8
	}
	switch {
	case p.ConfidenceLevel < 0.3:
		probs.Easy *= 1.1
		probs.Hard *= 0.9
	case p.ConfidenceLevel > 0.8:
		probs.Hard *= 1.1
		probs.Easy *= 0.9
	}

	if len(p.History) >= 3 {
		recent := difficulty.Empirical(p.RecentLevels(5))
		probs = probs.Blend(recent, 0.7).Clamp(DefaultBands())
	}
	return probs.Normalize()
}

func adjustRecentPerformance(probs *difficulty.Dist, p *profile.Profile) {
	recent := p.Last(4)
	if len(recent) == 0 {
		return
	}
	acc := p.RecentAccuracy(4)
	switch {
	case acc >= 0.75 && len(recent) >= 4:
		probs.Easy *= 0.85
		probs.Medium *= 0.95
		probs.Hard *= 1 + (acc-0.75)*0.8
	case acc <= 0.25 && len(recent) >= 3:
		probs.Easy *= 1.3
		probs.Medium *= 0.9
		probs.Hard *= 0.7
	case acc > 0.5 && acc < 0.75:
		probs.Medium *= 1.05
	}
}

func adjustResponseTrend(probs *difficulty.Dist, p *profile.Profile) {
	n := len(p.ResponseTimes)
	if n < 2 {
		return
	}
	avg, _ := p.AverageResponseTime()
	recent := (p.ResponseTimes[n-1] + p.ResponseTimes[n-2]) / 2
	switch {
	case recent < avg*0.6:
		probs.Easy *= 0.8
		probs.Hard *= 1.2
	case recent > avg*1.5:
		probs.Easy *= 1.2
		probs.Hard *= 0.8
	}
}

func adjustTierPatterns(probs *difficulty.Dist, p *profile.Profile) {
	count := func(l difficulty.Level) int { return len(*p.AccuracyByDifficulty.At(l)) }

	if easy := p.TierAccuracy(difficulty.Easy); easy >= 0.85 && count(difficulty.Easy) >= 4 {
		mastery := math.Min(1.5, 1+(easy-0.85)*2)
		probs.Easy *= 0.8 / mastery
		probs.Medium *= 1.1
	}

	if n := count(difficulty.Medium); n >= 3 {
		medium := p.TierAccuracy(difficulty.Medium)
		switch {
		case medium <= 0.25:
			probs.Easy *= 1.4
			probs.Medium *= 0.7
			probs.Hard *= 0.5
		case medium >= 0.8 && n >= 4:
			probs.Medium *= 0.9
			probs.Hard *= 1.2
		}
	}

	if n := count(difficulty.Hard); n >= 3 {
		hard := p.TierAccuracy(difficulty.Hard)
		switch {
		case hard >= 0.75:
			probs.Hard *= 1.25
			probs.Easy *= 0.85
		case hard <= 0.2 && n >= 4:
			probs.Hard *= 0.6
			probs.Medium *= 1.2
		}
	}
}

func adjustBaselineMomentum(probs *difficulty.Dist, st *profile.State, p *profile.Profile) {
	switch {
	case st.Streak >= 5:
		bonus := math.Min(1.4, 1+float64(st.Streak-4)*0.08)
		probs.Hard *= bonus
		probs.Easy *= 2 - bonus
	case st.Streak >= 3:
		probs.Hard *= 1.1
		probs.Easy *= 0.95
	}
	switch {
	case p.ConsecutiveWrong >= 3:
		probs.Easy *= 1.5
		probs.Hard *= 0.4
	case p.ConsecutiveWrong == 2:
		probs.Easy *= 1.2
		probs.Hard *= 0.8
	}

	if len(p.History) == 0 || p.History[len(p.History)-1].Correct {
		return
	}
	failureRate := func(window int, level difficulty.Level) (float64, int) {
		var n, failed int
		for _, h := range p.Last(window) {
			if h.Difficulty != level {
				continue
			}
			n++
			if !h.Correct {
				failed++
			}
		}
		if n == 0 {
			return 0, 0
		}
		return float64(failed) / float64(n), n
	}
	switch st.LastDifficulty {
	case difficulty.Hard:
		if rate, n := failureRate(4, difficulty.Hard); n >= 2 && rate >= 0.5 {
			probs.Hard *= 0.4
			probs.Medium *= 1.4
		}
	case difficulty.Medium:
		if rate, n := failureRate(3, difficulty.Medium); n >= 2 && rate >= 0.67 {
			probs.Easy *= 1.3
			probs.Medium *= 0.8
		}
	}
}

// Update is a no-op: the sampler learns nothing beyond the profile.
func (b *Baseline) Update(*profile.State, Answer) error { return nil }

// Explain reports the latest decision.
func (b *Baseline) Explain() (Explanation, bool) {
	if b.last == nil {
		return Explanation{}, false
	}
	return *b.last, true
}
