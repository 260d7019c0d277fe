package questions

import (
	"fmt"
	"strings"
)

// Validator checks a generated question.
type Validator interface {
	Name() string
	Validate(q *Question, prior []string) *ValidationError
}

// ValidationError says why a question was rejected.
type ValidationError struct {
	Validator string
	Message   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}

// Structural rejects empty or oversized text and malformed options.
type Structural struct{}

func (Structural) Name() string { return "structural" }

func (v Structural) Validate(q *Question, _ []string) *ValidationError {
	fail := func(msg string) *ValidationError { return &ValidationError{Validator: v.Name(), Message: msg} }
	switch {
	case strings.TrimSpace(q.Text) == "":
		return fail("question is empty")
	case len(q.Text) > 500:
		return fail("question exceeds 500 characters")
	case len(q.Options) < 2:
		return fail("fewer than two options")
	}
	seen := make(map[string]bool, len(q.Options))
	for _, o := range q.Options {
		key := strings.ToLower(strings.TrimSpace(o))
		if key == "" {
			return fail("empty option")
		}
		if seen[key] {
			return fail(fmt.Sprintf("duplicate option %q", o))
		}
		seen[key] = true
	}
	return nil
}

// AnswerListed requires the answer to be one of the options.
type AnswerListed struct{}

func (AnswerListed) Name() string { return "answer-listed" }

func (v AnswerListed) Validate(q *Question, _ []string) *ValidationError {
	for _, o := range q.Options {
		if o == q.Answer {
			return nil
		}
	}
	return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf("answer %q is not an option", q.Answer)}
}

// Fresh rejects a question already asked in the session.
type Fresh struct{}

func (Fresh) Name() string { return "fresh" }

func (v Fresh) Validate(q *Question, prior []string) *ValidationError {
	text := normalize(q.Text)
	for _, p := range prior {
		if normalize(p) == text {
			return &ValidationError{Validator: v.Name(), Message: "question repeats an earlier one"}
		}
	}
	return nil
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
