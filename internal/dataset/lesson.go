package dataset

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/abhisek/pal/internal/difficulty"
)

// DefaultVideo is the lesson video used when none is given.
const DefaultVideo = "ZSt9tm3RoUU"

// Question is what a learner sees at one tier.
type Question struct {
	Text    string   `json:"q"`
	Options []string `json:"options"`
	Answer  string   `json:"answer"`
}

// Segment is a point in the lesson with one question per tier.
type Segment struct {
	Timestamp int `json:"timestamp"`
	difficulty.PerLevel[Question]
}

// Lesson is a sequence of segments.
type Lesson struct {
	Video    string    `json:"video"`
	Segments []Segment `json:"questions"`
}

// Question returns the question for segment i (wrapping) at level.
func (l *Lesson) Question(i int, level difficulty.Level) (Question, error) {
	if len(l.Segments) == 0 {
		return Question{}, ErrNoQuestions
	}
	if !level.Valid() {
		return Question{}, fmt.Errorf("invalid difficulty %q", level)
	}
	seg := &l.Segments[i%len(l.Segments)]
	return *seg.At(level), nil
}

// LessonOptions shapes BuildLesson.
type LessonOptions struct {
	Segments int
	Video    string
}

// BuildLesson spreads items over segments. Segment i starts at 10+15i
// seconds and takes the next item of each tier round-robin; an empty tier
// gets a placeholder question.
func BuildLesson(items []Item, opts LessonOptions) *Lesson {
	if opts.Segments <= 0 {
		opts.Segments = 5
	}
	if opts.Video == "" {
		opts.Video = DefaultVideo
	}

	var buckets difficulty.PerLevel[[]Item]
	for _, it := range items {
		level := it.Difficulty
		if !level.Valid() {
			level = difficulty.Medium
		}
		b := buckets.At(level)
		*b = append(*b, it)
	}

	lesson := &Lesson{Video: opts.Video}
	var next difficulty.PerLevel[int]
	for i := range opts.Segments {
		seg := Segment{Timestamp: 10 + 15*i}
		for _, level := range difficulty.Levels {
			bucket := *buckets.At(level)
			if len(bucket) == 0 {
				*seg.At(level) = Question{
					Text:    fmt.Sprintf("Placeholder %s question %d", level, i+1),
					Options: []string{"A", "B", "C"},
					Answer:  "A",
				}
				continue
			}
			n := next.At(level)
			it := bucket[*n%len(bucket)]
			*n++
			*seg.At(level) = Question{Text: it.Text, Options: it.Options, Answer: it.Answer}
		}
		lesson.Segments = append(lesson.Segments, seg)
	}
	return lesson
}

//go:embed default_lesson.json
var defaultLessonJSON []byte

// DefaultLesson returns the built-in five-segment sample lesson.
func DefaultLesson() *Lesson {
	var l Lesson
	dec := json.NewDecoder(bytes.NewReader(defaultLessonJSON))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&l); err != nil {
		panic(fmt.Sprintf("dataset: embedded lesson: %v", err))
	}
	return &l
}
