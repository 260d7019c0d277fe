package sim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/pal/internal/adaptive"
	"github.com/abhisek/pal/internal/dataset"
	"github.com/abhisek/pal/internal/difficulty"
	"github.com/abhisek/pal/internal/questions"
	"github.com/abhisek/pal/internal/session"
	"github.com/abhisek/pal/internal/store"
)

type memResults struct{ saved []store.SessionRecord }

func (m *memResults) SaveSession(_ context.Context, rec store.SessionRecord) error {
	m.saved = append(m.saved, rec)
	return nil
}

func (m *memResults) ListSessions(context.Context, store.QueryOpts) ([]store.SessionRecord, error) {
	return m.saved, nil
}

func (m *memResults) Answers(context.Context, string) ([]store.AnswerRecord, error) { return nil, nil }

func newRunner(results store.ResultRepo) *Runner {
	return &Runner{
		Engine:  adaptive.DefaultConfig(),
		Session: session.DefaultConfig(),
		Source:  questions.NewLessonSource(dataset.DefaultLesson()),
		Results: results,
	}
}

func TestRun_AllVariants(t *testing.T) {
	for _, v := range adaptive.Variants {
		results := &memResults{}
		cfg := DefaultConfig()
		cfg.Variant = string(v)
		cfg.Runs = 3
		cfg.Questions = 15

		sums, err := newRunner(results).Run(context.Background(), cfg)
		require.NoError(t, err, v)
		require.Len(t, sums, 3)
		assert.Len(t, results.saved, 3)
		for _, s := range sums {
			assert.Equal(t, 15, s.Questions)
			assert.Equal(t, string(v), s.Variant)
			assert.InDelta(t, 50, s.FinalScore, 50)
			for _, a := range s.Answers {
				assert.NotEmpty(t, a.Question)
				assert.True(t, a.Difficulty.Valid())
			}
		}
	}
}

func TestRun_Reproducible(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Runs = 2
	a, err := newRunner(nil).Run(context.Background(), cfg)
	require.NoError(t, err)
	b, err := newRunner(nil).Run(context.Background(), cfg)
	require.NoError(t, err)

	for i := range a {
		require.Len(t, b[i].Answers, len(a[i].Answers))
		for j := range a[i].Answers {
			assert.Equal(t, a[i].Answers[j].Difficulty, b[i].Answers[j].Difficulty)
			assert.Equal(t, a[i].Answers[j].Correct, b[i].Answers[j].Correct)
		}
	}
}

func TestRun_UnknownVariant(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Variant = "oracle"
	_, err := newRunner(nil).Run(context.Background(), cfg)
	assert.Error(t, err)
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sums, err := newRunner(nil).Run(ctx, DefaultConfig())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sums)
}

func TestFlatLearner_Rate(t *testing.T) {
	l := NewLearner(LearnerConfig{CorrectProb: 0.8, Pace: 1, Jitter: 0.25})
	rng := adaptive.NewRand(3)
	correct := 0
	for range 2000 {
		ok, rt := l.Answer(difficulty.Medium, rng)
		if ok {
			correct++
		}
		require.GreaterOrEqual(t, rt, 500.0)
	}
	assert.InDelta(t, 0.8, float64(correct)/2000, 0.04)
}

func TestIRTLearner(t *testing.T) {
	l := NewLearner(LearnerConfig{Ability: 50}).(*irtLearner)
	assert.Greater(t, l.P(difficulty.Easy), l.P(difficulty.Medium))
	assert.Greater(t, l.P(difficulty.Medium), l.P(difficulty.Hard))
	assert.InDelta(t, 0.5, l.P(difficulty.Medium), 1e-9)

	grower := NewLearner(LearnerConfig{Ability: 50, Growth: 5}).(*irtLearner)
	rng := adaptive.NewRand(9)
	for range 50 {
		grower.Answer(difficulty.Easy, rng)
	}
	assert.Greater(t, grower.ability, 50.0)
	assert.LessOrEqual(t, grower.ability, 100.0)
}

func TestResponseTime_SlowerWhenWrong(t *testing.T) {
	cfg := LearnerConfig{Pace: 1, Jitter: 0}
	rng := adaptive.NewRand(1)
	assert.Equal(t, 5000.0, responseTime(5000, true, cfg, rng))
	assert.Equal(t, 6000.0, responseTime(5000, false, cfg, rng))
}
