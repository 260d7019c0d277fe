package profile

import (
	"github.com/abhisek/pal/internal/difficulty"
)

// Observe records an answered question: rolling queues, consecutive
// counters, learning velocity, confidence, and adaptation rate.
func (p *Profile) Observe(e HistoryEntry) {
	p.EnsureStructures()

	if e.Correct {
		p.ConsecutiveCorrect++
		p.ConsecutiveWrong = 0
	} else {
		p.ConsecutiveWrong++
		p.ConsecutiveCorrect = 0
	}

	p.ResponseTimes = appendBounded(p.ResponseTimes, e.ResponseTimeMs, MaxResponseTimes)
	p.History = appendBounded(p.History, e, MaxHistory)
	if e.Difficulty.Valid() {
		acc := p.AccuracyByDifficulty.At(e.Difficulty)
		*acc = appendBounded(*acc, e.Correct, MaxTierOutcomes)
	}

	if len(p.History) >= 5 {
		var sum float64
		for _, h := range p.History[len(p.History)-5:] {
			sum += h.ScoreChange
		}
		p.LearningVelocity = sum / 5
	}

	p.updateConfidence()

	coverage := float64(len(p.History)) / 10
	if coverage > 1 {
		coverage = 1
	}
	p.AdaptationRate = 0.3 + p.ConfidenceLevel*coverage*0.4
}

// updateConfidence derives confidence from how consistent the last five
// answers were, both in correctness and in response time.
func (p *Profile) updateConfidence() {
	if len(p.History) < 3 {
		return
	}
	recent := p.Last(5)
	outcomes := make([]float64, len(recent))
	times := make([]float64, len(recent))
	for i, h := range recent {
		if h.Correct {
			outcomes[i] = 1
		}
		times[i] = h.ResponseTimeMs
	}
	accConsistency := max(0, 1-variance(outcomes)*2)
	timeConsistency := max(0, 1-variance(times)/10000)
	p.ConfidenceLevel = (accConsistency + timeConsistency) / 2
}

// Last returns up to n most recent history entries, oldest first.
func (p *Profile) Last(n int) []HistoryEntry {
	if n >= len(p.History) {
		return p.History
	}
	return p.History[len(p.History)-n:]
}

// RecentAccuracy is the share of correct answers among the last n entries,
// or 0.5 when there is no history.
func (p *Profile) RecentAccuracy(n int) float64 {
	recent := p.Last(n)
	if len(recent) == 0 {
		return 0.5
	}
	correct := 0
	for _, h := range recent {
		if h.Correct {
			correct++
		}
	}
	return float64(correct) / float64(len(recent))
}

// AverageResponseTime returns the mean of the rolling response times and
// whether any were recorded.
func (p *Profile) AverageResponseTime() (float64, bool) {
	if len(p.ResponseTimes) == 0 {
		return 0, false
	}
	var sum float64
	for _, t := range p.ResponseTimes {
		sum += t
	}
	return sum / float64(len(p.ResponseTimes)), true
}

// LastResponseTime returns the latest response time recorded at level.
func (p *Profile) LastResponseTime(level difficulty.Level) (float64, bool) {
	for i := len(p.History) - 1; i >= 0; i-- {
		if p.History[i].Difficulty == level {
			return p.History[i].ResponseTimeMs, true
		}
	}
	return 0, false
}

// WeightedAccuracy walks the history newest first with geometric decay
// applied per entry and averages the outcomes at level. Without matching
// entries it returns 0.5.
func (p *Profile) WeightedAccuracy(level difficulty.Level, decay float64) float64 {
	var num, den float64
	w := 1.0
	for i := len(p.History) - 1; i >= 0; i-- {
		h := p.History[i]
		if h.Difficulty == level {
			if h.Correct {
				num += w
			}
			den += w
		}
		w *= decay
	}
	if den == 0 {
		return 0.5
	}
	return num / den
}

// TierAccuracy is the plain accuracy of the rolling outcomes at level, 0.5
// when empty.
func (p *Profile) TierAccuracy(level difficulty.Level) float64 {
	outcomes := *p.AccuracyByDifficulty.At(level)
	if len(outcomes) == 0 {
		return 0.5
	}
	correct := 0
	for _, ok := range outcomes {
		if ok {
			correct++
		}
	}
	return float64(correct) / float64(len(outcomes))
}

// RecentLevels returns the difficulties of the last n entries.
func (p *Profile) RecentLevels(n int) []difficulty.Level {
	recent := p.Last(n)
	out := make([]difficulty.Level, len(recent))
	for i, h := range recent {
		out[i] = h.Difficulty
	}
	return out
}

// variance is the population variance, 0 for fewer than two values.
func variance(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	var sum float64
	for _, v := range values {
		sum += (v - mean) * (v - mean)
	}
	return sum / float64(len(values))
}
