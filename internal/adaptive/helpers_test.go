package adaptive

import (
	"github.com/abhisek/pal/internal/difficulty"
	"github.com/abhisek/pal/internal/profile"
)

// scriptedRand replays fixed draws; once exhausted it repeats the last one.
type scriptedRand struct {
	floats []float64
	ints   []int
	fi, ii int
}

func (r *scriptedRand) Float64() float64 {
	if len(r.floats) == 0 {
		return 0.5
	}
	v := r.floats[min(r.fi, len(r.floats)-1)]
	r.fi++
	return v
}

func (r *scriptedRand) IntN(n int) int {
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[min(r.ii, len(r.ints)-1)]
	r.ii++
	return v % n
}

// stubPredictor returns a fixed level and records calls.
type stubPredictor struct {
	name      string
	level     difficulty.Level
	err       error
	panics    bool
	updateErr error
	calls     *[]string
}

func (s *stubPredictor) Name() string { return s.name }

func (s *stubPredictor) NextDifficulty(*profile.State) (difficulty.Level, error) {
	if s.calls != nil {
		*s.calls = append(*s.calls, s.name+".next")
	}
	if s.panics {
		panic("boom")
	}
	return s.level, s.err
}

func (s *stubPredictor) Update(*profile.State, Answer) error {
	if s.calls != nil {
		*s.calls = append(*s.calls, s.name+".update")
	}
	return s.updateErr
}

// answer applies the session bookkeeping for one outcome before the
// predictors see it.
func answer(st *profile.State, level difficulty.Level, correct bool, rt float64) Answer {
	change := -2.0
	if correct {
		st.Streak++
		change = 5
	} else {
		st.Streak = 0
	}
	st.SkillScore = profile.ClampScore(st.SkillScore + change)
	st.Profile.Observe(profile.HistoryEntry{
		Difficulty:     level,
		Correct:        correct,
		ResponseTimeMs: rt,
		ScoreChange:    change,
	})
	st.LastDifficulty = level
	return Answer{Correct: correct, Difficulty: level, ResponseTimeMs: rt}
}
