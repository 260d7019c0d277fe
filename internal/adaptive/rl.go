package adaptive

import (
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/pal/internal/difficulty"
	"github.com/abhisek/pal/internal/profile"
)

// RLConfig holds the bandit's learning parameters.
type RLConfig struct {
	LearningRate       float64                      `mapstructure:"learning_rate"`
	Discount           float64                      `mapstructure:"discount"`
	ExplorationRate    float64                      `mapstructure:"exploration_rate"`
	ExplorationDecay   float64                      `mapstructure:"exploration_decay"`
	MinExplorationRate float64                      `mapstructure:"min_exploration_rate"`
	MemorySize         int                          `mapstructure:"memory_size"`
	DecisionLogSize    int                          `mapstructure:"decision_log_size"`
	ExpectedTimeMs     difficulty.PerLevel[float64] `mapstructure:"expected_time_ms"`
}

// DefaultRLConfig returns the default bandit parameters.
func DefaultRLConfig() RLConfig {
	return RLConfig{
		LearningRate:       0.1,
		Discount:           0.9,
		ExplorationRate:    0.15,
		ExplorationDecay:   0.995,
		MinExplorationRate: 0.05,
		MemorySize:         1000,
		DecisionLogSize:    50,
		ExpectedTimeMs:     difficulty.PerLevel[float64]{Easy: 3000, Medium: 5000, Hard: 8000},
	}
}

// StateVector is the learner encoding recorded with every decision. The Q
// table does not condition on it.
type StateVector struct {
	Skill            float64 `json:"skill"`
	RecentAccuracy   float64 `json:"recent_accuracy"`
	NormalizedTime   float64 `json:"normalized_time"`
	StreakMomentum   float64 `json:"streak_momentum"`
	LearningVelocity float64 `json:"learning_velocity"`
	Confidence       float64 `json:"confidence"`
}

// Transition is one entry of the replay memory.
type Transition struct {
	State  StateVector      `json:"state"`
	Action difficulty.Level `json:"action"`
	Reward float64          `json:"reward"`
	Next   StateVector      `json:"next_state"`
	At     time.Time        `json:"at"`
}

// RLDecision is one entry of the decision log.
type RLDecision struct {
	Action          difficulty.Level             `json:"action"`
	QValues         difficulty.PerLevel[float64] `json:"q_values"`
	ExplorationRate float64                      `json:"exploration_rate"`
	State           StateVector                  `json:"state"`
	Explored        bool                         `json:"explored"`
	Reasoning       string                       `json:"reasoning"`
	At              time.Time                    `json:"at"`
}

// RLStats summarizes the bandit.
type RLStats struct {
	TotalDecisions  int                          `json:"total_decisions"`
	Updates         int                          `json:"updates"`
	AverageQ        float64                      `json:"average_q"`
	ExplorationRate float64                      `json:"exploration_rate"`
	MemorySize      int                          `json:"memory_size"`
	ActionCounts    difficulty.PerLevel[int]     `json:"action_counts"`
	QValues         difficulty.PerLevel[float64] `json:"q_values"`
	Recent          []RLDecision                 `json:"recent"`
}

// RL is an epsilon-greedy three-arm bandit with one Q value per tier.
type RL struct {
	cfg RLConfig
	rng Rand
	log *zap.Logger
	now func() time.Time

	q         [3]float64
	counts    [3]int
	epsilon   float64
	memory    []Transition
	decisions []RLDecision
	decided   int
	updates   int
}

// NewRL creates a bandit with zeroed Q values.
func NewRL(cfg RLConfig, rng Rand, opts ...Option) *RL {
	o := buildOptions(opts)
	if rng == nil {
		rng = NewRand(uint64(o.now().UnixNano()))
	}
	return &RL{cfg: cfg, rng: rng, log: o.logger, now: o.now, epsilon: cfg.ExplorationRate}
}

func (r *RL) Name() string { return "rl" }

// Config returns the parameters the bandit was built with.
func (r *RL) Config() RLConfig { return r.cfg }

// ExplorationRate returns the current epsilon.
func (r *RL) ExplorationRate() float64 { return r.epsilon }

// QValues returns a copy of the Q table.
func (r *RL) QValues() difficulty.PerLevel[float64] {
	return difficulty.PerLevel[float64]{Easy: r.q[0], Medium: r.q[1], Hard: r.q[2]}
}

// NextDifficulty selects an action epsilon-greedily and logs the decision.
func (r *RL) NextDifficulty(st *profile.State) (difficulty.Level, error) {
	if st == nil {
		return "", fmt.Errorf("rl: nil state: %w", ErrUnavailable)
	}
	st.Ensure()
	sv := r.encode(st)

	explored := false
	var idx int
	if r.rng.Float64() < r.epsilon {
		idx = r.rng.IntN(len(r.q))
		explored = true
	} else {
		idx = r.argmax()
	}
	action := difficulty.FromRank(idx)

	dec := RLDecision{
		Action:          action,
		QValues:         r.QValues(),
		ExplorationRate: r.epsilon,
		State:           sv,
		Explored:        explored,
		Reasoning:       r.reasoning(idx, sv),
		At:              r.now(),
	}
	r.decisions = appendBounded(r.decisions, dec, r.cfg.DecisionLogSize)
	r.decided++

	r.log.Debug("rl decision",
		zap.String("difficulty", string(action)),
		zap.Bool("explored", explored),
		zap.Float64("epsilon", r.epsilon))
	return action, nil
}

// Update computes the reward for the answered tier and applies one
// Q-learning step.
func (r *RL) Update(st *profile.State, ans Answer) error {
	if st == nil {
		return fmt.Errorf("rl update: nil state: %w", ErrUnavailable)
	}
	if !ans.Difficulty.Valid() {
		return fmt.Errorf("rl update: invalid difficulty %q", ans.Difficulty)
	}
	st.Ensure()

	prev := r.encode(st)
	reward := r.Reward(st, ans)
	r.learn(ans.Difficulty.Rank(), reward)

	r.memory = appendBounded(r.memory, Transition{
		State:  prev,
		Action: ans.Difficulty,
		Reward: reward,
		Next:   r.encode(st),
		At:     r.now(),
	}, r.cfg.MemorySize)
	r.updates++
	return nil
}

// learn applies Q(a) += lr * (reward + discount*max(Q) - Q(a)), counts the
// action and decays epsilon.
func (r *RL) learn(a int, reward float64) {
	maxQ := r.q[r.argmax()]
	r.q[a] += r.cfg.LearningRate * (reward + r.cfg.Discount*maxQ - r.q[a])
	r.counts[a]++
	r.epsilon = math.Max(r.cfg.MinExplorationRate, r.epsilon*r.cfg.ExplorationDecay)
}

// Reward scores an answer: correctness, time appropriateness, whether the
// tier suited recent accuracy, and a streak bonus. The sum is clamped to
// [-1, 1]. An unknown tier earns the correctness term alone.
func (r *RL) Reward(st *profile.State, ans Answer) float64 {
	reward := -0.5
	if ans.Correct {
		reward = 1.0
	}
	if !ans.Difficulty.Valid() {
		return reward
	}
	p := st.Ensure()

	if expected := *r.cfg.ExpectedTimeMs.At(ans.Difficulty); expected > 0 {
		ratio := ans.ResponseTimeMs / expected
		reward += 0.3 * math.Max(0, 1-math.Abs(ratio-1)*0.5)
	}

	reward += 0.2 * progression(p, ans.Difficulty)

	if ans.Correct && st.Streak > 2 {
		reward += 0.1 * math.Min(float64(st.Streak)/5, 1)
	}
	return clamp(reward, -1, 1)
}

// progression rewards picking a tier that matches the last three answers:
// Hard after strong accuracy, Easy after weak, Medium in between.
func progression(p *profile.Profile, level difficulty.Level) float64 {
	if len(p.History) < 3 {
		return 0
	}
	acc := p.RecentAccuracy(3)
	switch {
	case acc > 0.8 && level == difficulty.Hard:
		return 0.5
	case acc < 0.3 && level == difficulty.Easy:
		return 0.5
	case acc >= 0.4 && acc <= 0.7 && level == difficulty.Medium:
		return 0.3
	}
	return 0
}

func (r *RL) encode(st *profile.State) StateVector {
	p := st.Profile
	avg, ok := p.AverageResponseTime()
	if !ok {
		avg = 5000
	}
	return StateVector{
		Skill:            st.SkillScore / 100,
		RecentAccuracy:   p.RecentAccuracy(5),
		NormalizedTime:   math.Min(1, avg/10000),
		StreakMomentum:   math.Min(1, float64(st.Streak)/10),
		LearningVelocity: clamp(p.LearningVelocity, -1, 1),
		Confidence:       p.ConfidenceLevel,
	}
}

// argmax returns the first index holding the largest Q value.
func (r *RL) argmax() int {
	best := 0
	for i := 1; i < len(r.q); i++ {
		if r.q[i] > r.q[best] {
			best = i
		}
	}
	return best
}

func (r *RL) reasoning(idx int, sv StateVector) string {
	var parts []string
	if r.epsilon > r.cfg.MinExplorationRate {
		parts = append(parts, fmt.Sprintf("Exploring (epsilon=%.3f)", r.epsilon))
	}
	switch {
	case sv.RecentAccuracy > 0.8:
		parts = append(parts, fmt.Sprintf("High recent accuracy (%.0f%%)", sv.RecentAccuracy*100))
	case sv.RecentAccuracy < 0.3:
		parts = append(parts, fmt.Sprintf("Low recent accuracy (%.0f%%)", sv.RecentAccuracy*100))
	}
	if sv.StreakMomentum > 0.5 {
		parts = append(parts, "Strong streak momentum")
	}
	switch {
	case sv.LearningVelocity > 0.3:
		parts = append(parts, "Positive learning velocity")
	case sv.LearningVelocity < -0.3:
		parts = append(parts, "Negative learning velocity")
	}
	best := r.argmax()
	if idx == best {
		parts = append(parts, fmt.Sprintf("Highest Q-value (%.3f)", r.q[idx]))
	} else {
		parts = append(parts, fmt.Sprintf("Q-value: %.3f (max: %.3f)", r.q[idx], r.q[best]))
	}
	return strings.Join(parts, ", ")
}

// Explain reports the latest decision.
func (r *RL) Explain() (Explanation, bool) {
	if len(r.decisions) == 0 {
		return Explanation{}, false
	}
	d := r.decisions[len(r.decisions)-1]
	counts := r.actionCounts()
	return Explanation{
		Predictor:       r.Name(),
		Difficulty:      d.Action,
		Reasoning:       d.Reasoning,
		At:              d.At,
		QValues:         &d.QValues,
		ActionCounts:    &counts,
		ExplorationRate: d.ExplorationRate,
		Explored:        d.Explored,
		StateVector:     &d.State,
	}, true
}

// Stats summarizes the bandit's learning so far.
func (r *RL) Stats() RLStats {
	var sum float64
	for _, v := range r.q {
		sum += v
	}
	recent := r.decisions
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}
	return RLStats{
		TotalDecisions:  r.decided,
		Updates:         r.updates,
		AverageQ:        sum / float64(len(r.q)),
		ExplorationRate: r.epsilon,
		MemorySize:      len(r.memory),
		ActionCounts:    r.actionCounts(),
		QValues:         r.QValues(),
		Recent:          append([]RLDecision(nil), recent...),
	}
}

// Memory returns the replay memory, oldest first.
func (r *RL) Memory() []Transition { return r.memory }

// Decisions returns the decision log, oldest first.
func (r *RL) Decisions() []RLDecision { return r.decisions }

// Reset restores the initial Q table and exploration rate.
func (r *RL) Reset() {
	r.q = [3]float64{}
	r.counts = [3]int{}
	r.epsilon = r.cfg.ExplorationRate
	r.memory = nil
	r.decisions = nil
	r.decided = 0
	r.updates = 0
}

func (r *RL) actionCounts() difficulty.PerLevel[int] {
	return difficulty.PerLevel[int]{Easy: r.counts[0], Medium: r.counts[1], Hard: r.counts[2]}
}
