package adaptive

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/pal/internal/difficulty"
	"github.com/abhisek/pal/internal/profile"
)

func TestChain_FallsThroughFailingTiers(t *testing.T) {
	var calls []string
	first := &stubPredictor{name: "first", err: ErrUnavailable, calls: &calls}
	second := &stubPredictor{name: "second", panics: true, calls: &calls}
	third := &stubPredictor{name: "third", level: difficulty.Hard, calls: &calls}
	c := NewChain(NewBaseline(NewRand(1)), nil, first, nil, second, third)
	st := profile.NewState()

	level, err := c.NextDifficulty(st)
	require.NoError(t, err)
	assert.Equal(t, difficulty.Hard, level)
	assert.Equal(t, third, c.Active())

	require.NoError(t, c.Update(st, Answer{Correct: true, Difficulty: level}))
	assert.Equal(t, []string{"first.next", "second.next", "third.next", "third.update"}, calls)
}

func TestChain_InvalidLevelCountsAsFailure(t *testing.T) {
	bad := &stubPredictor{name: "bad", level: "Expert"}
	c := NewChain(NewBaseline(NewRand(1)), nil, bad)
	level, err := c.NextDifficulty(profile.NewState())
	require.NoError(t, err)
	assert.True(t, level.Valid())
	assert.Equal(t, "baseline", c.Active().Name())
}

func TestChain_AllTiersFail(t *testing.T) {
	c := NewChain(nil, nil,
		&stubPredictor{name: "a", err: errors.New("x")},
		&stubPredictor{name: "b", panics: true},
	)
	for i := 0; i < 20; i++ {
		level, err := c.NextDifficulty(profile.NewState())
		require.NoError(t, err)
		require.True(t, level.Valid())
	}
}

func TestChain_UpdateErrorsSwallowed(t *testing.T) {
	p := &stubPredictor{name: "p", level: difficulty.Easy, updateErr: errors.New("nope")}
	c := NewChain(nil, nil, p)
	st := profile.NewState()
	_, _ = c.NextDifficulty(st)
	assert.NoError(t, c.Update(st, Answer{Correct: false, Difficulty: difficulty.Easy}))
}

func TestChain_UpdateBeforeDecisionUsesTopTier(t *testing.T) {
	var calls []string
	p := &stubPredictor{name: "top", level: difficulty.Easy, calls: &calls}
	c := NewChain(nil, nil, nil, p)
	require.NoError(t, c.Update(profile.NewState(), Answer{Correct: true, Difficulty: difficulty.Easy}))
	assert.Equal(t, []string{"top.update"}, calls)
}

func TestParseVariant(t *testing.T) {
	v, err := ParseVariant(" Hybrid ")
	require.NoError(t, err)
	assert.Equal(t, VariantHybrid, v)

	_, err = ParseVariant("enhanced")
	assert.Error(t, err)
}

func TestNewEngine(t *testing.T) {
	tests := []struct {
		variant Variant
		tiers   []string
	}{
		{VariantHybrid, []string{"hybrid", "rl", "statistical", "baseline"}},
		{VariantRL, []string{"rl", "statistical", "baseline"}},
		{VariantStatistical, []string{"statistical", "baseline"}},
		{VariantBaseline, []string{"baseline"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.variant), func(t *testing.T) {
			e, err := NewEngine(tt.variant, DefaultConfig(), NewRand(1))
			require.NoError(t, err)
			var names []string
			for _, p := range e.Tiers() {
				names = append(names, p.Name())
			}
			assert.Equal(t, tt.tiers, names)
		})
	}

	_, err := NewEngine("nope", DefaultConfig(), nil)
	assert.Error(t, err)
}

func TestEngine_DeterministicReplay(t *testing.T) {
	run := func(seed uint64) []difficulty.Level {
		e, err := NewEngine(VariantHybrid, DefaultConfig(), NewRand(seed))
		require.NoError(t, err)
		outcomes := NewRand(seed + 100)
		st := profile.NewState()
		var levels []difficulty.Level
		for i := 0; i < 60; i++ {
			level, err := e.NextDifficulty(st)
			require.NoError(t, err)
			levels = append(levels, level)
			ans := answer(st, level, outcomes.Float64() < 0.65, 1500+outcomes.Float64()*7000)
			require.NoError(t, e.Update(st, ans))
		}
		return levels
	}
	assert.Equal(t, run(42), run(42))
}

func TestEngine_HybridTrainsSharedInstances(t *testing.T) {
	e, err := NewEngine(VariantHybrid, DefaultConfig(), NewRand(3))
	require.NoError(t, err)
	st := profile.NewState()
	for i := 0; i < 15; i++ {
		level, _ := e.NextDifficulty(st)
		_ = e.Update(st, answer(st, level, true, 2500))
	}
	assert.Equal(t, "hybrid", e.Active().Name())
	assert.Equal(t, 15, e.Hybrid.DecisionCount())
	assert.Equal(t, 15, e.RL.Stats().Updates)
	assert.Less(t, e.RL.ExplorationRate(), 0.15)

	exp, ok := e.Explain()
	require.True(t, ok)
	assert.Equal(t, "hybrid", exp.Predictor)
}
