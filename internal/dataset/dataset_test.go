package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abhisek/pal/internal/difficulty"
)

const bank = `{
  "questions": [
    {"question": {"text": "2+2?", "options": ["3", "4", "5"], "answer": "B", "difficulty": "easy"}},
    {"prompt": "Capital of France?", "options": [{"text": "Paris"}, {"text": "Rome"}], "answer": "Paris", "difficulty": "MEDIUM"},
    {"text": "Derivative of x^2?", "options": ["2x", "x"], "correct": "2x", "difficulty": "hard"},
    {"text": "No difficulty", "options": ["a", "b"], "answer": "a"},
    {"text": "One option", "options": ["a"], "answer": "a"},
    {"text": "", "options": ["a", "b"], "answer": "a"},
    {"question": {"text": "Nested, outer options", "answer": "D"}, "options": ["w", "x", "y", "z"]}
  ]
}`

func TestLoad(t *testing.T) {
	items, err := Load(strings.NewReader(bank))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(items) != 5 {
		t.Fatalf("items = %d, want 5: %+v", len(items), items)
	}

	tests := []struct {
		text   string
		answer string
		level  difficulty.Level
	}{
		{"2+2?", "4", difficulty.Easy},
		{"Capital of France?", "Paris", difficulty.Medium},
		{"Derivative of x^2?", "2x", difficulty.Hard},
		{"No difficulty", "a", difficulty.Medium},
		{"Nested, outer options", "z", difficulty.Medium},
	}
	for i, tt := range tests {
		got := items[i]
		if got.Text != tt.text || got.Answer != tt.answer || got.Difficulty != tt.level {
			t.Errorf("item %d = %+v, want text=%q answer=%q level=%s", i, got, tt.text, tt.answer, tt.level)
		}
	}
}

func TestLoad_BareArray(t *testing.T) {
	items, err := Load(strings.NewReader(`[{"text": "q", "options": ["x", "y"], "answer": "a"}]`))
	if err != nil {
		t.Fatal(err)
	}
	// "a" maps to the first option.
	if items[0].Answer != "x" {
		t.Errorf("answer = %q, want x", items[0].Answer)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not json", `{`},
		{"wrong shape", `{"items": []}`},
		{"bad option", `{"questions": [{"text": "q", "options": [1, 2], "answer": "A"}]}`},
	}
	for _, tt := range tests {
		if _, err := Load(strings.NewReader(tt.input)); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}

	_, err := Load(strings.NewReader(`{"questions": [{"text": "q", "options": ["a"]}]}`))
	if !errors.Is(err, ErrNoQuestions) {
		t.Errorf("err = %v, want ErrNoQuestions", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.json")
	if err := os.WriteFile(path, []byte(bank), 0o644); err != nil {
		t.Fatal(err)
	}
	items, err := LoadFile(path)
	if err != nil || len(items) != 5 {
		t.Errorf("LoadFile = %d items, %v", len(items), err)
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestBuildLesson(t *testing.T) {
	items := []Item{
		{Text: "e1", Options: []string{"a", "b"}, Answer: "a", Difficulty: difficulty.Easy},
		{Text: "e2", Options: []string{"a", "b"}, Answer: "b", Difficulty: difficulty.Easy},
		{Text: "m1", Options: []string{"a", "b"}, Answer: "a", Difficulty: difficulty.Medium},
	}
	l := BuildLesson(items, LessonOptions{Segments: 3})

	if l.Video != DefaultVideo || len(l.Segments) != 3 {
		t.Fatalf("lesson = %+v", l)
	}
	wantTS := []int{10, 25, 40}
	wantEasy := []string{"e1", "e2", "e1"}
	for i, seg := range l.Segments {
		if seg.Timestamp != wantTS[i] {
			t.Errorf("segment %d timestamp = %d, want %d", i, seg.Timestamp, wantTS[i])
		}
		if seg.Easy.Text != wantEasy[i] {
			t.Errorf("segment %d easy = %q, want %q", i, seg.Easy.Text, wantEasy[i])
		}
		if seg.Medium.Text != "m1" {
			t.Errorf("segment %d medium = %q", i, seg.Medium.Text)
		}
		if want := "Placeholder Hard question"; !strings.HasPrefix(seg.Hard.Text, want) || seg.Hard.Answer != "A" {
			t.Errorf("segment %d hard = %+v", i, seg.Hard)
		}
	}
}

func TestDefaultLesson(t *testing.T) {
	l := DefaultLesson()
	if len(l.Segments) != 5 {
		t.Fatalf("segments = %d, want 5", len(l.Segments))
	}
	q, err := l.Question(0, difficulty.Hard)
	if err != nil {
		t.Fatal(err)
	}
	if q.Text != "What is 15²?" || q.Answer != "225" {
		t.Errorf("hard question = %+v", q)
	}
	// Wraps past the last segment.
	q, _ = l.Question(5, difficulty.Easy)
	if q.Text != "What is 2+2?" {
		t.Errorf("wrapped question = %q", q.Text)
	}
	for _, seg := range l.Segments {
		for _, level := range difficulty.Levels {
			q := *seg.At(level)
			found := false
			for _, o := range q.Options {
				found = found || o == q.Answer
			}
			if !found {
				t.Errorf("%s %q: answer %q not among options", level, q.Text, q.Answer)
			}
		}
	}
	if _, err := l.Question(0, "Impossible"); err == nil {
		t.Error("expected error for invalid level")
	}
}
