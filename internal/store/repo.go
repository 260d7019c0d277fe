package store

import (
	"context"
	"time"

	"github.com/abhisek/pal/internal/difficulty"
)

// QueryOpts filters and paginates queries.
type QueryOpts struct {
	Limit       int    // max results (0 = unlimited)
	Variant     string // sessions only; empty matches all
	WithAnswers bool   // sessions only; load answered questions
	After       int64  // events only; sequence > After
}

// SessionRecord is the stored summary of one finished session.
type SessionRecord struct {
	ID                string         `json:"id"`
	Variant           string         `json:"variant"`
	StartedAt         time.Time      `json:"started_at"`
	FinishedAt        time.Time      `json:"finished_at"`
	FinalScore        float64        `json:"final_score"`
	BestStreak        int            `json:"best_streak"`
	Questions         int            `json:"questions"`
	Correct           int            `json:"correct"`
	Accuracy          float64        `json:"overall_accuracy"`
	AvgResponseTimeMs float64        `json:"avg_response_time_ms"`
	Answers           []AnswerRecord `json:"answered_questions,omitempty"`
}

// AnswerRecord is one answered question of a stored session.
type AnswerRecord struct {
	Sequence       int64            `json:"sequence,omitempty"`
	Index          int              `json:"index"`
	Difficulty     difficulty.Level `json:"difficulty"`
	Correct        bool             `json:"correct"`
	ResponseTimeMs float64          `json:"rt"`
	ScoreChange    float64          `json:"score_change"`
	SkillAfter     float64          `json:"skill_after"`
	Predictor      string           `json:"predictor,omitempty"`
	Question       string           `json:"q,omitempty"`
	Selected       string           `json:"selected,omitempty"`
	Answer         string           `json:"answer,omitempty"`
}

// ResultRepo stores finished sessions for offline evaluation. Nothing here
// is read back into a live session.
type ResultRepo interface {
	// SaveSession stores the summary and its answers atomically.
	SaveSession(ctx context.Context, rec SessionRecord) error

	// ListSessions returns sessions, newest first.
	ListSessions(ctx context.Context, opts QueryOpts) ([]SessionRecord, error)

	// Answers returns a session's answers in order.
	Answers(ctx context.Context, sessionID string) ([]AnswerRecord, error)
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEvent is a stored LLM request.
type LLMRequestEvent struct {
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsage aggregates requests for one purpose.
type LLMUsage struct {
	Purpose      string
	Calls        int
	Failures     int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs float64
}

// EventRepo provides append and query access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// LLMRequests returns events, newest first.
	LLMRequests(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)

	// LLMRequest returns the event with the given sequence, or nil.
	LLMRequest(ctx context.Context, seq int64) (*LLMRequestEvent, error)

	// LLMUsageByPurpose aggregates events per purpose.
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error)
}
