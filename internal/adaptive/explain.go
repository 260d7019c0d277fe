package adaptive

import (
	"time"

	"github.com/abhisek/pal/internal/difficulty"
)

// Explanation describes the most recent decision of a predictor. Fields that
// do not apply to the producing predictor are left empty.
type Explanation struct {
	Predictor  string           `json:"predictor"`
	Difficulty difficulty.Level `json:"difficulty"`
	Reasoning  string           `json:"reasoning,omitempty"`
	At         time.Time        `json:"at"`

	// Statistical and baseline.
	Probabilities    *difficulty.Dist `json:"probabilities,omitempty"`
	GlobalConfidence *float64         `json:"global_confidence,omitempty"`
	Streak           int              `json:"streak,omitempty"`
	ConsecutiveWrong int              `json:"consecutive_wrong,omitempty"`

	// RL.
	QValues         *difficulty.PerLevel[float64] `json:"q_values,omitempty"`
	ActionCounts    *difficulty.PerLevel[int]     `json:"action_counts,omitempty"`
	ExplorationRate float64                       `json:"exploration_rate,omitempty"`
	Explored        bool                          `json:"explored,omitempty"`
	StateVector     *StateVector                  `json:"state_vector,omitempty"`

	// Hybrid.
	Weights       *Weights         `json:"weights,omitempty"`
	Statistical   difficulty.Level `json:"statistical_prediction,omitempty"`
	RL            difficulty.Level `json:"rl_prediction,omitempty"`
	DecisionCount int              `json:"decision_count,omitempty"`
	Details       []Explanation    `json:"details,omitempty"`
}
