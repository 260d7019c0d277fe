// Package session runs one learner's question loop: it asks the engine for a
// difficulty, applies the score bookkeeping for the answer, and feeds the
// outcome back to the engine.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/pal/internal/adaptive"
	"github.com/abhisek/pal/internal/difficulty"
	"github.com/abhisek/pal/internal/profile"
	"github.com/abhisek/pal/internal/store"
)

// ErrNoPendingQuestion is returned by Answer when Next has not been called.
var ErrNoPendingQuestion = errors.New("no pending question")

// Engine decides difficulties and learns from answers.
type Engine interface {
	adaptive.Predictor
	adaptive.Explainer
}

// Session owns the learner state and the engine for one run.
type Session struct {
	ID      string
	Variant string

	cfg    Config
	engine Engine
	state  *profile.State
	repo   store.ResultRepo
	log    *zap.Logger
	now    func() time.Time

	pending   difficulty.Level
	decidedBy string
	answered  []Answered
	startedAt time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithConfig overrides the score bookkeeping.
func WithConfig(cfg Config) Option {
	return func(s *Session) { s.cfg = cfg }
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithRecorder persists the session summary on Finish.
func WithRecorder(repo store.ResultRepo) Option {
	return func(s *Session) { s.repo = repo }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithVariant labels the session for evaluation.
func WithVariant(v string) Option {
	return func(s *Session) { s.Variant = v }
}

// New starts a session over engine.
func New(engine Engine, opts ...Option) *Session {
	s := &Session{
		ID:     uuid.NewString(),
		cfg:    DefaultConfig(),
		engine: engine,
		log:    zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state = profile.NewState()
	s.state.SkillScore = s.cfg.InitialSkill
	s.startedAt = s.now()
	s.log = s.log.With(zap.String("session", s.ID))
	return s
}

// State exposes the learner state. Callers must not mutate it between Next
// and Answer.
func (s *Session) State() *profile.State { return s.state }

// Pending returns the difficulty awaiting an answer, or "".
func (s *Session) Pending() difficulty.Level { return s.pending }

// Next returns the difficulty of the next question. Calling it again before
// Answer returns the same pending difficulty.
func (s *Session) Next() difficulty.Level {
	if s.pending != "" {
		return s.pending
	}
	level, err := s.engine.NextDifficulty(s.state)
	if err != nil || !level.Valid() {
		// Engines end in a sampler that cannot fail; guard anyway.
		s.log.Error("engine returned no difficulty", zap.Error(err))
		level = difficulty.Easy
	}
	s.pending = level
	s.decidedBy = ""
	if exp, ok := s.engine.Explain(); ok {
		s.decidedBy = exp.Predictor
	}
	return level
}

// Answer records the outcome for the pending question and updates the
// engine.
func (s *Session) Answer(o Outcome) (Answered, error) {
	level := s.pending
	if level == "" {
		return Answered{}, ErrNoPendingQuestion
	}
	st := s.state

	var change float64
	if o.Correct {
		change = *s.cfg.CorrectStep.At(level)
		st.Streak++
		st.BestStreak = max(st.BestStreak, st.Streak)
	} else {
		change = -*s.cfg.WrongStep.At(level)
		st.Streak = 0
	}
	before := st.SkillScore
	st.SkillScore = profile.ClampScore(st.SkillScore + change)
	// Record the delta that survived the clamp so velocity stays honest at
	// the bounds.
	change = st.SkillScore - before

	st.Ensure().Observe(profile.HistoryEntry{
		Difficulty:     level,
		Correct:        o.Correct,
		ResponseTimeMs: o.ResponseTimeMs,
		ScoreChange:    change,
		QuestionText:   o.QuestionText,
		SelectedOption: o.Selected,
		CorrectAnswer:  o.CorrectAnswer,
	})
	st.LastDifficulty = level

	if err := s.engine.Update(st, adaptive.Answer{
		Correct:        o.Correct,
		Difficulty:     level,
		ResponseTimeMs: o.ResponseTimeMs,
	}); err != nil {
		s.log.Warn("engine update failed", zap.Error(err))
	}

	a := Answered{
		Index:          len(s.answered) + 1,
		Difficulty:     level,
		Correct:        o.Correct,
		ResponseTimeMs: o.ResponseTimeMs,
		ScoreChange:    change,
		SkillAfter:     st.SkillScore,
		Predictor:      s.decidedBy,
		Question:       o.QuestionText,
		Selected:       o.Selected,
		Answer:         o.CorrectAnswer,
	}
	s.answered = append(s.answered, a)
	s.pending = ""

	s.log.Debug("answer recorded",
		zap.Int("index", a.Index),
		zap.String("difficulty", string(level)),
		zap.Bool("correct", o.Correct),
		zap.Float64("skill", st.SkillScore))
	return a, nil
}

// Explain describes the engine's latest decision.
func (s *Session) Explain() (adaptive.Explanation, bool) {
	return s.engine.Explain()
}

// Answered returns the completed questions in order.
func (s *Session) Answered() []Answered { return s.answered }

// Finish builds the summary and persists it when a recorder is configured.
func (s *Session) Finish(ctx context.Context) (*Summary, error) {
	sum := s.Summary()
	if s.repo == nil {
		return sum, nil
	}
	if err := s.repo.SaveSession(ctx, sum.Record()); err != nil {
		return sum, fmt.Errorf("save session: %w", err)
	}
	return sum, nil
}
