package questions

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/abhisek/pal/internal/dataset"
	"github.com/abhisek/pal/internal/difficulty"
	"github.com/abhisek/pal/internal/llm"
)

func mcq(text string, options []string, answer string) llm.MockResponse {
	b, _ := json.Marshal(map[string]any{
		"question": text, "options": options, "answer": answer, "difficulty": "Medium",
	})
	return llm.MockResponse{Content: b}
}

func TestLessonSource(t *testing.T) {
	src := NewLessonSource(dataset.DefaultLesson())
	q, err := src.Question(context.Background(), 1, difficulty.Medium)
	if err != nil {
		t.Fatal(err)
	}
	if q.Text != "What is the capital of France?" || q.Origin != "lesson" || !q.IsCorrect("Paris") {
		t.Errorf("question = %+v", q)
	}
}

func TestLLMSource_Generates(t *testing.T) {
	mock := llm.NewMock(mcq("What is 3*4?", []string{"7", "12", "34"}, "12"))
	src := NewLLMSource(mock, nil, DefaultConfig(), nil)

	q, err := src.Question(context.Background(), 0, difficulty.Hard)
	if err != nil {
		t.Fatalf("Question: %v", err)
	}
	if q.Level != difficulty.Hard || q.Origin != "mock" || q.Answer != "12" {
		t.Errorf("question = %+v", q)
	}
	calls := mock.Calls()
	if len(calls) != 1 || calls[0].Schema != Schema {
		t.Fatalf("calls = %+v", calls)
	}
	if !strings.Contains(calls[0].Messages[0].Content, "Difficulty: Hard") {
		t.Errorf("prompt = %q", calls[0].Messages[0].Content)
	}
}

func TestLLMSource_ValidationFallsBack(t *testing.T) {
	tests := []struct {
		name string
		resp llm.MockResponse
	}{
		{"answer not listed", mcq("What is 1+1?", []string{"1", "3"}, "2")},
		{"duplicate options", mcq("What is 1+1?", []string{"2", "2 "}, "2")},
		{"provider error", llm.MockResponse{Err: errors.New("boom")}},
		{"schema violation", llm.MockResponse{Content: json.RawMessage(`{"question":"x"}`)}},
	}
	for _, tt := range tests {
		src := NewLLMSource(llm.NewMock(tt.resp), NewLessonSource(dataset.DefaultLesson()), DefaultConfig(), nil)
		q, err := src.Question(context.Background(), 0, difficulty.Easy)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if q.Origin != "lesson" {
			t.Errorf("%s: origin = %q, want lesson", tt.name, q.Origin)
		}
	}
}

func TestLLMSource_NoFallback(t *testing.T) {
	src := NewLLMSource(llm.NewMock(mcq("q", []string{"a"}, "a")), nil, DefaultConfig(), nil)
	_, err := src.Question(context.Background(), 0, difficulty.Easy)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestLLMSource_PromptCarriesHistory(t *testing.T) {
	mock := llm.NewMock(
		mcq("What is 2+5?", []string{"6", "7"}, "7"),
		mcq("What is 2+5?", []string{"6", "7"}, "7"),
		mcq("What is 9-3?", []string{"6", "5"}, "6"),
	)
	src := NewLLMSource(mock, nil, DefaultConfig(), nil)
	ctx := context.Background()

	q, err := src.Question(ctx, 0, difficulty.Easy)
	if err != nil {
		t.Fatal(err)
	}
	src.Record(q, "6")

	// Repeat is rejected by the freshness check.
	if _, err := src.Question(ctx, 1, difficulty.Easy); err == nil {
		t.Fatal("expected duplicate rejection")
	}
	if _, err := src.Question(ctx, 2, difficulty.Easy); err != nil {
		t.Fatal(err)
	}
	prompt := mock.Calls()[2].Messages[0].Content
	if !strings.Contains(prompt, "1. What is 2+5?") {
		t.Errorf("prompt missing prior question: %q", prompt)
	}
	if !strings.Contains(prompt, `chose "6"`) {
		t.Errorf("prompt missing miss: %q", prompt)
	}
}

func TestNumbered(t *testing.T) {
	if got := numbered(nil, 3); got != "None" {
		t.Errorf("numbered(nil) = %q", got)
	}
	if got := numbered([]string{"a", "b", "c"}, 2); got != "1. b\n2. c" {
		t.Errorf("numbered = %q", got)
	}
}
