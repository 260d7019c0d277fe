package adaptive

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/pal/internal/difficulty"
	"github.com/abhisek/pal/internal/profile"
)

func TestScheduledRLWeight(t *testing.T) {
	cfg := DefaultHybridConfig()
	for n := 0; n < 10; n++ {
		assert.Equal(t, 0.0, ScheduledRLWeight(cfg, n), "n=%d", n)
	}
	tests := []struct {
		n    int
		want float64
	}{
		{10, 0.3},
		{11, 0.32},
		{20, 0.5},
		{35, 0.8},
		{500, 0.8},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, ScheduledRLWeight(cfg, tt.n), 1e-9, "n=%d", tt.n)
	}
}

func TestHybrid_EarlyDecisionsAreStatistical(t *testing.T) {
	stat := &stubPredictor{name: "statistical", level: difficulty.Easy}
	rl := &stubPredictor{name: "rl", level: difficulty.Hard}
	// The largest possible draw still favours statistical while its weight is 1.
	h := NewHybrid(DefaultHybridConfig(), stat, rl, &scriptedRand{floats: []float64{0.999999}})
	st := profile.NewState()

	for i := 1; i <= 9; i++ {
		level, err := h.NextDifficulty(st)
		require.NoError(t, err)
		assert.Equal(t, difficulty.Easy, level, "decision %d", i)
		assert.Equal(t, 0.0, h.RLWeight())
	}

	level, _ := h.NextDifficulty(st)
	assert.Equal(t, 10, h.DecisionCount())
	assert.InDelta(t, 0.3, h.RLWeight(), 1e-9)
	assert.Equal(t, difficulty.Hard, level, "draw above statistical weight picks RL")

	exp, ok := h.Explain()
	require.True(t, ok)
	assert.Contains(t, exp.Reasoning, "Statistical: Easy, RL: Hard")
	assert.Contains(t, exp.Reasoning, "RL prediction selected")
}

func TestHybrid_Boosts(t *testing.T) {
	h := NewHybrid(DefaultHybridConfig(), nil, nil, NewRand(1))
	st := profile.NewState()
	st.Profile.ConfidenceLevel = 0.7
	st.Profile.LearningVelocity = -0.5
	h.count = 10

	w := h.weights(st)
	assert.InDelta(t, 0.3*1.2*1.1, w.RL, 1e-9)
	assert.InDelta(t, 1-0.3*1.2*1.1, w.Statistical, 1e-9)

	h.count = 40
	w = h.weights(st)
	assert.Equal(t, 0.8, w.RL)
}

func TestHybrid_Agreement(t *testing.T) {
	stat := &stubPredictor{name: "statistical", level: difficulty.Medium}
	rl := &stubPredictor{name: "rl", level: difficulty.Medium}
	h := NewHybrid(DefaultHybridConfig(), stat, rl, NewRand(1))
	level, _ := h.NextDifficulty(profile.NewState())
	assert.Equal(t, difficulty.Medium, level)

	exp, _ := h.Explain()
	assert.Contains(t, exp.Reasoning, "Both algorithms agree: Medium")
	assert.Contains(t, exp.Reasoning, "early learning phase")
}

func TestHybrid_Fallbacks(t *testing.T) {
	tests := []struct {
		skill float64
		want  difficulty.Level
	}{
		{10, difficulty.Easy},
		{30, difficulty.Easy},
		{50, difficulty.Medium},
		{70, difficulty.Medium},
		{85, difficulty.Hard},
	}
	for _, tt := range tests {
		stat := &stubPredictor{name: "statistical", err: errors.New("down")}
		rl := &stubPredictor{name: "rl", panics: true}
		rng := &scriptedRand{floats: []float64{0}, ints: []int{0}}
		h := NewHybrid(DefaultHybridConfig(), stat, rl, rng)
		st := profile.NewState()
		st.SkillScore = tt.skill

		level, err := h.NextDifficulty(st)
		require.NoError(t, err)
		// rlWeight is 0, so the statistical fallback always wins.
		assert.Equal(t, tt.want, level, "skill %v", tt.skill)

		b := h.History()[0]
		assert.True(t, b.StatisticalFallback)
		assert.True(t, b.RLFallback)
		assert.Equal(t, difficulty.Easy, b.RL, "uniform fallback with IntN=0")
	}
}

func TestHybrid_NilSides(t *testing.T) {
	h := NewHybrid(DefaultHybridConfig(), nil, nil, NewRand(5))
	st := profile.NewState()
	level, err := h.NextDifficulty(st)
	require.NoError(t, err)
	assert.True(t, level.Valid())
	assert.NoError(t, h.Update(st, Answer{Correct: true, Difficulty: level}))
}

func TestHybrid_UpdatesBothSides(t *testing.T) {
	var calls []string
	stat := &stubPredictor{name: "statistical", level: difficulty.Easy, calls: &calls}
	rl := &stubPredictor{name: "rl", level: difficulty.Hard, calls: &calls, updateErr: errors.New("rl broke")}
	h := NewHybrid(DefaultHybridConfig(), stat, rl, NewRand(1))
	st := profile.NewState()

	for i := 0; i < 3; i++ {
		level, _ := h.NextDifficulty(st)
		require.NoError(t, h.Update(st, Answer{Correct: true, Difficulty: level, ResponseTimeMs: 2000}))
	}
	assert.Equal(t, []string{
		"statistical.next", "rl.next", "rl.update", "statistical.update",
		"statistical.next", "rl.next", "rl.update", "statistical.update",
		"statistical.next", "rl.next", "rl.update", "statistical.update",
	}, calls)
}

func TestHybrid_SidesSeePreUpdateState(t *testing.T) {
	rng := NewRand(11)
	stat := NewStatistical(DefaultStatisticalConfig(), rng)
	rl := NewRL(DefaultRLConfig(), rng)
	h := NewHybrid(DefaultHybridConfig(), stat, rl, rng)
	st := profile.NewState()

	level, _ := h.NextDifficulty(st)
	ans := answer(st, level, true, 3000)
	skillBefore := st.SkillScore
	require.NoError(t, h.Update(st, ans))

	mem := rl.Memory()
	require.Len(t, mem, 1)
	assert.InDelta(t, skillBefore/100, mem[0].State.Skill, 1e-12)
	assert.NotEqual(t, skillBefore, st.SkillScore)
}

func TestHybrid_HistoryCapAndStats(t *testing.T) {
	rng := NewRand(21)
	stat := NewStatistical(DefaultStatisticalConfig(), rng)
	rl := NewRL(DefaultRLConfig(), rng)
	h := NewHybrid(DefaultHybridConfig(), stat, rl, rng)
	st := profile.NewState()

	for i := 0; i < 250; i++ {
		level, err := h.NextDifficulty(st)
		require.NoError(t, err)
		require.NoError(t, h.Update(st, answer(st, level, rng.Float64() < 0.7, 2000+rng.Float64()*6000)))
		require.LessOrEqual(t, h.RLWeight(), 0.8)
	}
	assert.Len(t, h.History(), 100)

	stats := h.Stats()
	assert.Equal(t, 250, stats.DecisionCount)
	assert.Len(t, stats.Recent, 10)
	assert.GreaterOrEqual(t, stats.AgreementRate, 0.0)
	assert.LessOrEqual(t, stats.AgreementRate, 1.0)

	exp, ok := h.Explain()
	require.True(t, ok)
	assert.Len(t, exp.Details, 2)

	h.Reset()
	assert.Equal(t, 0, h.DecisionCount())
	assert.Empty(t, h.History())
	assert.Equal(t, 0.15, rl.ExplorationRate())
}
