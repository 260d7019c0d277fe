// Package dataset loads multiple-choice question banks and arranges them
// into lessons with one question per tier per segment.
package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	_ "embed" // schema.json, default_lesson.json

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/abhisek/pal/internal/difficulty"
)

// ErrNoQuestions is returned when a bank has no usable items.
var ErrNoQuestions = errors.New("dataset has no usable questions")

//go:embed schema.json
var schemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func bankSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			schemaErr = err
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("mem://pal/dataset.json", doc); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = c.Compile("mem://pal/dataset.json")
	})
	return schema, schemaErr
}

// Item is one extracted question.
type Item struct {
	Text       string
	Options    []string
	Answer     string
	Difficulty difficulty.Level
}

// LoadFile reads and parses a bank from path.
func LoadFile(path string) ([]Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	items, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return items, nil
}

// Load parses a bank, either {"questions": [...]} or a bare array. Items
// without text, at least two options, and an answer are skipped.
func Load(r io.Reader) ([]Item, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}
	sch, err := bankSchema()
	if err != nil {
		return nil, fmt.Errorf("compile dataset schema: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return nil, fmt.Errorf("validate dataset: %w", err)
	}

	var entries []rawItem
	if bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
		err = json.Unmarshal(raw, &entries)
	} else {
		var wrapped struct {
			Questions []rawItem `json:"questions"`
		}
		err = json.Unmarshal(raw, &wrapped)
		entries = wrapped.Questions
	}
	if err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}

	var items []Item
	for _, e := range entries {
		if it, ok := e.extract(); ok {
			items = append(items, it)
		}
	}
	if len(items) == 0 {
		return nil, ErrNoQuestions
	}
	return items, nil
}

type rawFields struct {
	Text       string   `json:"text"`
	Prompt     string   `json:"prompt"`
	Options    []option `json:"options"`
	Answer     string   `json:"answer"`
	Correct    string   `json:"correct"`
	Difficulty string   `json:"difficulty"`
}

type rawItem struct {
	rawFields
	Question *rawFields `json:"question"`
}

// option accepts "text" or {"text": "..."}.
type option string

func (o *option) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*o = option(strings.TrimSpace(s))
		return nil
	}
	var obj struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	*o = option(strings.TrimSpace(obj.Text))
	return nil
}

func (e rawItem) extract() (Item, bool) {
	q := e.rawFields
	if e.Question != nil {
		q = *e.Question
	}

	text := strings.TrimSpace(q.Text)
	if text == "" {
		text = strings.TrimSpace(q.Prompt)
	}
	opts := q.Options
	if len(opts) < 2 && e.Question != nil {
		opts = e.Options
	}
	options := make([]string, len(opts))
	for i, o := range opts {
		options[i] = string(o)
	}

	var answer string
	switch {
	case q.Answer != "" && len(options) > 0:
		answer = q.Answer
		if idx := letterIndex(q.Answer); idx >= 0 && idx < len(options) {
			answer = options[idx]
		}
	case q.Correct != "":
		answer = q.Correct
	}

	level := difficulty.Medium
	diff := q.Difficulty
	if diff == "" {
		diff = e.Difficulty
	}
	if l, err := difficulty.Parse(diff); err == nil {
		level = l
	}

	if text == "" || len(options) < 2 || answer == "" {
		return Item{}, false
	}
	return Item{Text: text, Options: options, Answer: answer, Difficulty: level}, true
}

func letterIndex(s string) int {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 1 {
		return -1
	}
	return strings.Index("ABCD", s)
}
