// Package eval compares predictor variants over finished sessions.
package eval

import (
	"math"
	"slices"

	"github.com/abhisek/pal/internal/difficulty"
	"github.com/abhisek/pal/internal/store"
)

// VariantSummary aggregates the sessions of one variant.
type VariantSummary struct {
	Variant          string                       `json:"variant"`
	Runs             int                          `json:"runs"`
	MeanAccuracy     float64                      `json:"mean_accuracy"`
	StdAccuracy      float64                      `json:"std_accuracy"`
	MeanFinalScore   float64                      `json:"mean_final_score"`
	MeanBestStreak   float64                      `json:"mean_best_streak"`
	MeanResponseTime float64                      `json:"mean_avg_response_time_ms"`
	AccuracyByLevel  difficulty.PerLevel[float64] `json:"accuracy_by_difficulty"`
}

// Summarize groups sessions by variant, sorted by variant name.
// AccuracyByLevel needs answers loaded; sessions without any are skipped
// for that column only.
func Summarize(recs []store.SessionRecord) []VariantSummary {
	groups := map[string][]store.SessionRecord{}
	for _, r := range recs {
		v := r.Variant
		if v == "" {
			v = "unknown"
		}
		groups[v] = append(groups[v], r)
	}

	var out []VariantSummary
	for v, list := range groups {
		s := VariantSummary{Variant: v, Runs: len(list)}
		acc := make([]float64, len(list))
		var byLevel difficulty.PerLevel[[]float64]
		for i, r := range list {
			acc[i] = r.Accuracy
			s.MeanFinalScore += r.FinalScore
			s.MeanBestStreak += float64(r.BestStreak)
			s.MeanResponseTime += r.AvgResponseTimeMs
			for _, level := range difficulty.Levels {
				if a, ok := tierAccuracy(r.Answers, level); ok {
					col := byLevel.At(level)
					*col = append(*col, a)
				}
			}
		}
		n := float64(len(list))
		s.MeanAccuracy, s.StdAccuracy = meanStd(acc)
		s.MeanFinalScore /= n
		s.MeanBestStreak /= n
		s.MeanResponseTime /= n
		for _, level := range difficulty.Levels {
			*s.AccuracyByLevel.At(level), _ = meanStd(*byLevel.At(level))
		}
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b VariantSummary) int {
		switch {
		case a.Variant < b.Variant:
			return -1
		case a.Variant > b.Variant:
			return 1
		}
		return 0
	})
	return out
}

func tierAccuracy(answers []store.AnswerRecord, level difficulty.Level) (float64, bool) {
	var n, c int
	for _, a := range answers {
		if a.Difficulty == level {
			n++
			if a.Correct {
				c++
			}
		}
	}
	if n == 0 {
		return 0, false
	}
	return float64(c) / float64(n), true
}

// meanStd returns the mean and population standard deviation, zeros when
// empty.
func meanStd(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	var ss float64
	for _, x := range xs {
		ss += (x - mean) * (x - mean)
	}
	return mean, math.Sqrt(ss / float64(len(xs)))
}
