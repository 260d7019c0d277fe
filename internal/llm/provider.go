// Package llm generates structured content from hosted language models.
// Every provider returns JSON validated against the request's schema.
package llm

import (
	"context"
	"encoding/json"
)

// Provider sends one request to a model.
type Provider interface {
	// Generate returns the model output. When req.Schema is set the content
	// has already been validated against it.
	Generate(ctx context.Context, req Request) (*Response, error)

	// Name is the provider name, e.g. "anthropic".
	Name() string

	// Model is the model id requests are sent to.
	Model() string
}

// Request is a single-turn or multi-turn prompt.
type Request struct {
	System      string
	Messages    []Message
	Schema      *Schema
	MaxTokens   int
	Temperature float64
}

// Message is one conversation turn.
type Message struct {
	Role    Role
	Content string
}

// Role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// UserPrompt builds a request with one user message.
func UserPrompt(system, prompt string) Request {
	return Request{
		System:   system,
		Messages: []Message{{Role: RoleUser, Content: prompt}},
	}
}

// Schema is the JSON Schema a response must satisfy. Name is kebab-case
// and doubles as the compiled-schema cache key.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// Response is the model output.
type Response struct {
	Content    json.RawMessage
	Usage      Usage
	Model      string
	StopReason StopReason
}

// StopReason is normalized across providers.
type StopReason string

const (
	StopEnd       StopReason = "end"
	StopMaxTokens StopReason = "max_tokens"
)

// Usage counts tokens for one request.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Total returns input plus output tokens.
func (u Usage) Total() int { return u.InputTokens + u.OutputTokens }

// checkResponse turns a truncated or non-conforming output into an error.
func checkResponse(req Request, resp *Response) (*Response, error) {
	if resp.StopReason == StopMaxTokens {
		return nil, &ValidationError{Content: resp.Content, Err: ErrTruncated}
	}
	if err := Validate(req.Schema, resp.Content); err != nil {
		return nil, err
	}
	return resp, nil
}
