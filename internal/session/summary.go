package session

import (
	"time"

	"github.com/abhisek/pal/internal/difficulty"
	"github.com/abhisek/pal/internal/store"
)

// Summary is the end-of-session report.
type Summary struct {
	ID                string                          `json:"id"`
	Variant           string                          `json:"variant"`
	StartedAt         time.Time                       `json:"started_at"`
	FinishedAt        time.Time                       `json:"finished_at"`
	FinalScore        float64                         `json:"final_score"`
	BestStreak        int                             `json:"best_streak"`
	Questions         int                             `json:"questions"`
	Correct           int                             `json:"correct"`
	Accuracy          float64                         `json:"overall_accuracy"`
	ByDifficulty      difficulty.PerLevel[TierResult] `json:"accuracy_by_difficulty"`
	AvgResponseTimeMs float64                         `json:"avg_response_time_ms"`
	Answers           []Answered                      `json:"answered_questions"`
}

// Summary computes the report from every answer so far.
func (s *Session) Summary() *Summary {
	sum := &Summary{
		ID:         s.ID,
		Variant:    s.Variant,
		StartedAt:  s.startedAt,
		FinishedAt: s.now(),
		FinalScore: s.state.SkillScore,
		BestStreak: s.state.BestStreak,
		Questions:  len(s.answered),
		Answers:    append([]Answered(nil), s.answered...),
	}
	var totalRT float64
	for _, a := range s.answered {
		tier := sum.ByDifficulty.At(a.Difficulty)
		tier.Attempted++
		if a.Correct {
			sum.Correct++
			tier.Correct++
		}
		totalRT += a.ResponseTimeMs
	}
	if sum.Questions > 0 {
		sum.Accuracy = float64(sum.Correct) / float64(sum.Questions)
		sum.AvgResponseTimeMs = totalRT / float64(sum.Questions)
	}
	return sum
}

// Record converts the summary to its stored form.
func (sum *Summary) Record() store.SessionRecord {
	rec := store.SessionRecord{
		ID:                sum.ID,
		Variant:           sum.Variant,
		StartedAt:         sum.StartedAt,
		FinishedAt:        sum.FinishedAt,
		FinalScore:        sum.FinalScore,
		BestStreak:        sum.BestStreak,
		Questions:         sum.Questions,
		Correct:           sum.Correct,
		Accuracy:          sum.Accuracy,
		AvgResponseTimeMs: sum.AvgResponseTimeMs,
	}
	for _, a := range sum.Answers {
		rec.Answers = append(rec.Answers, store.AnswerRecord{
			Index:          a.Index,
			Difficulty:     a.Difficulty,
			Correct:        a.Correct,
			ResponseTimeMs: a.ResponseTimeMs,
			ScoreChange:    a.ScoreChange,
			SkillAfter:     a.SkillAfter,
			Predictor:      a.Predictor,
			Question:       a.Question,
			Selected:       a.Selected,
			Answer:         a.Answer,
		})
	}
	return rec
}
