package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/abhisek/pal/internal/adaptive"
	"github.com/abhisek/pal/internal/difficulty"
	"github.com/abhisek/pal/internal/profile"
	"github.com/abhisek/pal/internal/store"
)

// fixedEngine always returns the same level and counts updates.
type fixedEngine struct {
	level   difficulty.Level
	updates []adaptive.Answer
	seen    []profile.State
}

func (f *fixedEngine) Name() string { return "fixed" }

func (f *fixedEngine) NextDifficulty(*profile.State) (difficulty.Level, error) {
	return f.level, nil
}

func (f *fixedEngine) Update(st *profile.State, ans adaptive.Answer) error {
	f.updates = append(f.updates, ans)
	f.seen = append(f.seen, *st)
	return nil
}

func (f *fixedEngine) Explain() (adaptive.Explanation, bool) {
	return adaptive.Explanation{Predictor: "fixed", Difficulty: f.level}, true
}

type memRepo struct {
	saved []store.SessionRecord
	err   error
}

func (m *memRepo) SaveSession(_ context.Context, rec store.SessionRecord) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, rec)
	return nil
}

func (m *memRepo) ListSessions(context.Context, store.QueryOpts) ([]store.SessionRecord, error) {
	return m.saved, nil
}

func (m *memRepo) Answers(context.Context, string) ([]store.AnswerRecord, error) {
	return nil, nil
}

func TestNew_InitialState(t *testing.T) {
	s := New(&fixedEngine{level: difficulty.Easy})
	st := s.State()
	if st.SkillScore != 50 {
		t.Errorf("SkillScore = %f, want 50", st.SkillScore)
	}
	if st.LastDifficulty != difficulty.Easy {
		t.Errorf("LastDifficulty = %q, want Easy", st.LastDifficulty)
	}
	if s.ID == "" {
		t.Error("session id empty")
	}
}

func TestAnswer_WithoutNext(t *testing.T) {
	s := New(&fixedEngine{level: difficulty.Easy})
	if _, err := s.Answer(Outcome{Correct: true}); !errors.Is(err, ErrNoPendingQuestion) {
		t.Errorf("err = %v, want ErrNoPendingQuestion", err)
	}
}

func TestNext_IsIdempotentUntilAnswered(t *testing.T) {
	eng := &fixedEngine{level: difficulty.Medium}
	s := New(eng)
	if a, b := s.Next(), s.Next(); a != b {
		t.Errorf("Next changed without Answer: %q then %q", a, b)
	}
	if s.Pending() != difficulty.Medium {
		t.Errorf("Pending = %q", s.Pending())
	}
	if _, err := s.Answer(Outcome{Correct: true, ResponseTimeMs: 3000}); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if s.Pending() != "" {
		t.Errorf("Pending after Answer = %q", s.Pending())
	}
}

func TestAnswer_Bookkeeping(t *testing.T) {
	tests := []struct {
		level   difficulty.Level
		correct bool
		change  float64
	}{
		{difficulty.Easy, true, 2},
		{difficulty.Medium, true, 5},
		{difficulty.Hard, true, 8},
		{difficulty.Easy, false, -2},
		{difficulty.Medium, false, -4},
		{difficulty.Hard, false, -6},
	}
	for _, tt := range tests {
		eng := &fixedEngine{level: tt.level}
		s := New(eng)
		s.Next()
		a, err := s.Answer(Outcome{Correct: tt.correct, ResponseTimeMs: 2500, QuestionText: "q"})
		if err != nil {
			t.Fatalf("Answer: %v", err)
		}
		if a.ScoreChange != tt.change {
			t.Errorf("%s correct=%v: change = %f, want %f", tt.level, tt.correct, a.ScoreChange, tt.change)
		}
		if got := s.State().SkillScore; got != 50+tt.change {
			t.Errorf("SkillScore = %f, want %f", got, 50+tt.change)
		}
		if s.State().LastDifficulty != tt.level {
			t.Errorf("LastDifficulty = %q, want %q", s.State().LastDifficulty, tt.level)
		}
		if len(eng.updates) != 1 || eng.updates[0].Difficulty != tt.level || eng.updates[0].Correct != tt.correct {
			t.Errorf("engine updates = %+v", eng.updates)
		}
		// The engine sees the answer already recorded in the profile.
		if n := len(eng.seen[0].Profile.History); n != 1 {
			t.Errorf("history at update = %d, want 1", n)
		}
	}
}

func TestAnswer_StreaksAndClamp(t *testing.T) {
	s := New(&fixedEngine{level: difficulty.Hard}, WithConfig(Config{
		InitialSkill: 95,
		CorrectStep:  difficulty.PerLevel[float64]{Easy: 2, Medium: 5, Hard: 8},
		WrongStep:    difficulty.PerLevel[float64]{Easy: 2, Medium: 4, Hard: 6},
	}))
	for _, ok := range []bool{true, true, true, false, true} {
		s.Next()
		if _, err := s.Answer(Outcome{Correct: ok, ResponseTimeMs: 8000}); err != nil {
			t.Fatal(err)
		}
	}
	st := s.State()
	if st.Streak != 1 || st.BestStreak != 3 {
		t.Errorf("Streak = %d, BestStreak = %d, want 1 and 3", st.Streak, st.BestStreak)
	}
	if st.SkillScore != 100 {
		t.Errorf("SkillScore = %f, want 100 (clamped, then -6, then +8 clamped)", st.SkillScore)
	}
	if st.Profile.ConsecutiveCorrect != 1 || st.Profile.ConsecutiveWrong != 0 {
		t.Errorf("consecutive = %d/%d", st.Profile.ConsecutiveCorrect, st.Profile.ConsecutiveWrong)
	}
}

func TestAnswer_ScoreChangeAtBounds(t *testing.T) {
	tests := []struct {
		name    string
		initial float64
		correct bool
		want    []float64
	}{
		{"ceiling", 97, true, []float64{3, 0, 0, 0, 0}},
		{"floor", 4, false, []float64{-4, 0, 0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(&fixedEngine{level: difficulty.Hard}, WithConfig(Config{
				InitialSkill: tt.initial,
				CorrectStep:  difficulty.PerLevel[float64]{Easy: 2, Medium: 5, Hard: 8},
				WrongStep:    difficulty.PerLevel[float64]{Easy: 2, Medium: 4, Hard: 6},
			}))
			for i, want := range tt.want {
				s.Next()
				a, err := s.Answer(Outcome{Correct: tt.correct, ResponseTimeMs: 8000})
				if err != nil {
					t.Fatal(err)
				}
				if a.ScoreChange != want {
					t.Errorf("answer %d: ScoreChange = %f, want %f", i+1, a.ScoreChange, want)
				}
				if got := s.State().Profile.History[i].ScoreChange; got != want {
					t.Errorf("answer %d: history ScoreChange = %f, want %f", i+1, got, want)
				}
			}
			var sum float64
			for _, c := range tt.want {
				sum += c
			}
			if got, want := s.State().Profile.LearningVelocity, sum/float64(len(tt.want)); got != want {
				t.Errorf("LearningVelocity = %f, want %f", got, want)
			}
		})
	}
}

func TestSummary(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := New(&fixedEngine{level: difficulty.Medium}, WithClock(func() time.Time { return now }), WithVariant("hybrid"))
	outcomes := []Outcome{
		{Correct: true, ResponseTimeMs: 2000},
		{Correct: false, ResponseTimeMs: 4000},
		{Correct: true, ResponseTimeMs: 6000},
	}
	for _, o := range outcomes {
		s.Next()
		if _, err := s.Answer(o); err != nil {
			t.Fatal(err)
		}
	}
	sum := s.Summary()
	if sum.Questions != 3 || sum.Correct != 2 {
		t.Errorf("Questions/Correct = %d/%d", sum.Questions, sum.Correct)
	}
	if sum.AvgResponseTimeMs != 4000 {
		t.Errorf("AvgResponseTimeMs = %f, want 4000", sum.AvgResponseTimeMs)
	}
	if sum.ByDifficulty.Medium.Attempted != 3 || sum.ByDifficulty.Medium.Correct != 2 {
		t.Errorf("Medium = %+v", sum.ByDifficulty.Medium)
	}
	if sum.ByDifficulty.Easy.Accuracy() != 0 {
		t.Errorf("Easy accuracy with no attempts = %f", sum.ByDifficulty.Easy.Accuracy())
	}
	if sum.Variant != "hybrid" || !sum.StartedAt.Equal(now) {
		t.Errorf("Variant/StartedAt = %s/%v", sum.Variant, sum.StartedAt)
	}
	if sum.Answers[0].Predictor != "fixed" {
		t.Errorf("Predictor = %q", sum.Answers[0].Predictor)
	}
}

func TestFinish_Records(t *testing.T) {
	repo := &memRepo{}
	s := New(&fixedEngine{level: difficulty.Easy}, WithRecorder(repo), WithVariant("baseline"))
	s.Next()
	_, _ = s.Answer(Outcome{Correct: true, ResponseTimeMs: 1000, QuestionText: "q1", Selected: "a", CorrectAnswer: "a"})

	if _, err := s.Finish(context.Background()); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if len(repo.saved) != 1 {
		t.Fatalf("saved = %d, want 1", len(repo.saved))
	}
	rec := repo.saved[0]
	if rec.ID != s.ID || rec.Variant != "baseline" || len(rec.Answers) != 1 {
		t.Errorf("record = %+v", rec)
	}
	if rec.Answers[0].Question != "q1" || rec.Answers[0].Selected != "a" {
		t.Errorf("answer record = %+v", rec.Answers[0])
	}

	repo.err = errors.New("disk full")
	if _, err := s.Finish(context.Background()); err == nil {
		t.Error("expected save error")
	}
}

func TestSession_RealEngine(t *testing.T) {
	for _, v := range adaptive.Variants {
		eng, err := adaptive.NewEngine(v, adaptive.DefaultConfig(), adaptive.NewRand(5))
		if err != nil {
			t.Fatalf("NewEngine(%s): %v", v, err)
		}
		s := New(eng, WithVariant(string(v)))
		rng := adaptive.NewRand(6)
		for i := 0; i < 40; i++ {
			level := s.Next()
			if !level.Valid() {
				t.Fatalf("%s: invalid level %q", v, level)
			}
			if _, err := s.Answer(Outcome{Correct: rng.Float64() < 0.7, ResponseTimeMs: 1000 + rng.Float64()*8000}); err != nil {
				t.Fatalf("%s: Answer: %v", v, err)
			}
			if sc := s.State().SkillScore; sc < 0 || sc > 100 {
				t.Fatalf("%s: skill out of range: %f", v, sc)
			}
		}
		if exp, ok := s.Explain(); !ok || exp.Predictor == "" {
			t.Errorf("%s: no explanation", v)
		}
	}
}
