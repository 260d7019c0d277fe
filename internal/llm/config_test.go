package llm

import (
	"context"
	"testing"
)

func TestConfig_ResolvedModel(t *testing.T) {
	tests := []struct {
		provider, model, want string
	}{
		{"anthropic", "", "claude-haiku-4-5-20251001"},
		{"anthropic", "claude-sonnet", "claude-sonnet-4-5-20250929"},
		{"openai", "o3", "o3"},
		{"gemini", "", "gemini-2.0-flash"},
	}
	for _, tt := range tests {
		c := Config{Provider: tt.provider, Model: tt.model}
		if got := c.ResolvedModel(); got != tt.want {
			t.Errorf("%s/%q: ResolvedModel = %q, want %q", tt.provider, tt.model, got, tt.want)
		}
	}
}

func TestConfig_Discover(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	c := DefaultConfig().Discover()
	if c.Provider != "openai" || c.ResolvedKey() != "sk-test" {
		t.Errorf("provider/key = %s/%s", c.Provider, c.ResolvedKey())
	}

	explicit := Config{Provider: "gemini"}.Discover()
	if explicit.Provider != "gemini" {
		t.Errorf("explicit provider replaced: %s", explicit.Provider)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("disabled config: %v", err)
	}
	cfg.Provider = "nope"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown provider accepted")
	}
	cfg.Provider = "anthropic"
	if err := cfg.Validate(); err == nil {
		t.Error("missing key accepted")
	}
	cfg.APIKey = "k"
	if err := cfg.Validate(); err != nil {
		t.Errorf("valid config: %v", err)
	}
	cfg.Provider = "mock"
	cfg.APIKey = ""
	if err := cfg.Validate(); err != nil {
		t.Errorf("mock: %v", err)
	}
}

func TestNew_Disabled(t *testing.T) {
	p, err := New(context.Background(), DefaultConfig(), nil, nil)
	if err != nil || p != nil {
		t.Errorf("New(disabled) = %v, %v", p, err)
	}
}

func TestNew_Mock(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "mock"
	p, err := New(context.Background(), cfg, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if p.Name() != "mock" {
		t.Errorf("Name = %s", p.Name())
	}
}
