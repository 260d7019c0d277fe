package session

import (
	"github.com/abhisek/pal/internal/difficulty"
)

// Config holds the score bookkeeping applied to every answer.
type Config struct {
	// InitialSkill is the skill score a new session starts from.
	InitialSkill float64 `mapstructure:"initial_skill"`

	// CorrectStep and WrongStep are the per-tier score changes applied before
	// the predictors refine the estimate.
	CorrectStep difficulty.PerLevel[float64] `mapstructure:"correct_step"`
	WrongStep   difficulty.PerLevel[float64] `mapstructure:"wrong_step"`
}

// DefaultConfig returns the default bookkeeping.
func DefaultConfig() Config {
	return Config{
		InitialSkill: 50,
		CorrectStep:  difficulty.PerLevel[float64]{Easy: 2, Medium: 5, Hard: 8},
		WrongStep:    difficulty.PerLevel[float64]{Easy: 2, Medium: 4, Hard: 6},
	}
}

// Outcome is the learner's answer to the pending question.
type Outcome struct {
	Correct        bool
	ResponseTimeMs float64
	QuestionText   string
	Selected       string
	CorrectAnswer  string
}

// Answered is one completed question in a session.
type Answered struct {
	Index          int              `json:"index"`
	Difficulty     difficulty.Level `json:"difficulty"`
	Correct        bool             `json:"correct"`
	ResponseTimeMs float64          `json:"rt"`
	ScoreChange    float64          `json:"score_change"`
	SkillAfter     float64          `json:"skill_after"`
	Predictor      string           `json:"predictor"`
	Question       string           `json:"q,omitempty"`
	Selected       string           `json:"selected,omitempty"`
	Answer         string           `json:"answer,omitempty"`
}

// TierResult counts attempts at one tier.
type TierResult struct {
	Attempted int `json:"attempted"`
	Correct   int `json:"correct"`
}

// Accuracy returns Correct/Attempted, or 0 with no attempts.
func (r TierResult) Accuracy() float64 {
	if r.Attempted == 0 {
		return 0
	}
	return float64(r.Correct) / float64(r.Attempted)
}
