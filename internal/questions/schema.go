package questions

import "github.com/abhisek/pal/internal/llm"

// Schema constrains generated questions.
var Schema = &llm.Schema{
	Name:        "mcq-question",
	Description: "One multiple-choice question with its correct option",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question": map[string]any{
				"type":        "string",
				"description": "The question shown to the learner",
			},
			"options": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"minItems":    2,
				"maxItems":    5,
				"description": "Answer options, exactly one of them correct",
			},
			"answer": map[string]any{
				"type":        "string",
				"description": "The text of the correct option, copied exactly",
			},
			"difficulty": map[string]any{
				"type": "string",
				"enum": []any{"Easy", "Medium", "Hard"},
			},
		},
		"required":             []any{"question", "options", "answer", "difficulty"},
		"additionalProperties": false,
	},
}

type generated struct {
	Question   string   `json:"question"`
	Options    []string `json:"options"`
	Answer     string   `json:"answer"`
	Difficulty string   `json:"difficulty"`
}
