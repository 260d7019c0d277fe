package eval

import (
	"math"

	"github.com/abhisek/pal/internal/difficulty"
	"github.com/abhisek/pal/internal/store"
)

// HardThreshold is the recent Hard accuracy that counts as stabilized.
const HardThreshold = 0.6

// recentWindow is how many attempts per tier the recent mean covers.
const recentWindow = 5

// Trajectory is the difficulty path of a sequence of answers with the
// recent accuracy of each tier after every answer.
type Trajectory struct {
	Levels     []difficulty.Level
	RecentMean difficulty.PerLevel[[]float64]
}

// Adaptiveness summarizes how a trajectory moves between tiers.
type Adaptiveness struct {
	Interactions int     `json:"n_interactions"`
	SwitchRate   float64 `json:"difficulty_switch_rate"`

	// StabilizationIndex is the first answer index where the recent Hard
	// accuracy exceeds HardThreshold, or -1.
	StabilizationIndex int `json:"stabilization_index"`
}

// BuildTrajectory concatenates the answers of sessions in order. A tier
// with no attempts yet has recent mean 0.5.
func BuildTrajectory(recs []store.SessionRecord) Trajectory {
	var tr Trajectory
	var hist difficulty.PerLevel[[]bool]
	for _, r := range recs {
		for _, a := range r.Answers {
			tr.Levels = append(tr.Levels, a.Difficulty)
			if a.Difficulty.Valid() {
				h := hist.At(a.Difficulty)
				*h = append(*h, a.Correct)
			}
			for _, level := range difficulty.Levels {
				m := tr.RecentMean.At(level)
				*m = append(*m, recentMean(*hist.At(level)))
			}
		}
	}
	return tr
}

func recentMean(h []bool) float64 {
	if len(h) == 0 {
		return 0.5
	}
	if len(h) > recentWindow {
		h = h[len(h)-recentWindow:]
	}
	c := 0
	for _, ok := range h {
		if ok {
			c++
		}
	}
	return float64(c) / float64(len(h))
}

// Measure computes switch rate switches/(n-1) and the stabilization index.
func (tr Trajectory) Measure() Adaptiveness {
	n := len(tr.Levels)
	out := Adaptiveness{Interactions: n, StabilizationIndex: -1}
	if n == 0 {
		return out
	}
	switches := 0
	for i := 1; i < n; i++ {
		if tr.Levels[i] != tr.Levels[i-1] {
			switches++
		}
	}
	out.SwitchRate = math.Round(float64(switches)/float64(max(1, n-1))*1000) / 1000
	for i, m := range tr.RecentMean.Hard {
		if m > HardThreshold {
			out.StabilizationIndex = i
			break
		}
	}
	return out
}

// MeasureSessions is BuildTrajectory followed by Measure.
func MeasureSessions(recs []store.SessionRecord) Adaptiveness {
	return BuildTrajectory(recs).Measure()
}
