// Package questions supplies the question shown at a chosen difficulty,
// either from a prepared lesson or generated by a language model.
package questions

import (
	"context"

	"github.com/abhisek/pal/internal/dataset"
	"github.com/abhisek/pal/internal/difficulty"
)

// Question is a multiple-choice question at one tier.
type Question struct {
	Text    string
	Options []string
	Answer  string
	Level   difficulty.Level
	Origin  string // "lesson" or the generating provider
}

// IsCorrect reports whether selected matches the answer.
func (q *Question) IsCorrect(selected string) bool { return selected == q.Answer }

// Source returns the question for the index-th step of a session.
type Source interface {
	Question(ctx context.Context, index int, level difficulty.Level) (*Question, error)
}

// Feedback is implemented by sources that adapt to the learner's answers.
type Feedback interface {
	Record(q *Question, selected string)
}

// LessonSource serves questions from a lesson, one segment per step.
type LessonSource struct {
	lesson *dataset.Lesson
}

// NewLessonSource wraps lesson.
func NewLessonSource(lesson *dataset.Lesson) *LessonSource {
	return &LessonSource{lesson: lesson}
}

func (s *LessonSource) Question(_ context.Context, index int, level difficulty.Level) (*Question, error) {
	q, err := s.lesson.Question(index, level)
	if err != nil {
		return nil, err
	}
	return &Question{Text: q.Text, Options: q.Options, Answer: q.Answer, Level: level, Origin: "lesson"}, nil
}
