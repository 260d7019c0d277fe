package llm

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/abhisek/pal/internal/store"
)

func openEvents(t *testing.T) store.EventRepo {
	t.Helper()
	s, err := store.Open("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s.EventRepo()
}

func TestLogging_RecordsEvents(t *testing.T) {
	events := openEvents(t)
	core, logs := observer.New(zap.DebugLevel)
	mock := NewMock(
		MockResponse{Content: json.RawMessage(`{"a":"x","b":1}`), Usage: Usage{InputTokens: 10, OutputTokens: 4}},
		MockResponse{Err: unavailable()},
	)
	p := WithLogging(mock, events, zap.New(core))

	ctx := WithPurpose(context.Background(), "question")
	req := UserPrompt("sys", "make a pair")
	req.Schema = pairSchema
	if _, err := p.Generate(ctx, req); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Generate(ctx, req); err == nil {
		t.Fatal("expected error")
	}

	got, err := events.LLMRequests(context.Background(), store.QueryOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("events = %d, want 2", len(got))
	}
	failed, ok := got[0], got[1]
	if failed.Success || failed.ErrorMessage == "" {
		t.Errorf("failed event = %+v", failed.LLMRequestEventData)
	}
	if !ok.Success || ok.InputTokens != 10 || ok.Purpose != "question" || ok.Provider != "mock" {
		t.Errorf("ok event = %+v", ok.LLMRequestEventData)
	}
	if !strings.Contains(ok.RequestBody, "[schema: test-pair]") || !strings.Contains(ok.RequestBody, "make a pair") {
		t.Errorf("request body = %q", ok.RequestBody)
	}

	if n := logs.FilterMessage("llm request failed").Len(); n != 1 {
		t.Errorf("warn logs = %d, want 1", n)
	}
}

func TestLogging_NilRepo(t *testing.T) {
	p := WithLogging(NewMock(MockResponse{Content: json.RawMessage(`{}`)}), nil, nil)
	if _, err := p.Generate(context.Background(), Request{}); err != nil {
		t.Fatal(err)
	}
}

func TestPurposeFrom(t *testing.T) {
	if got := PurposeFrom(context.Background()); got != "unknown" {
		t.Errorf("PurposeFrom = %q", got)
	}
}
