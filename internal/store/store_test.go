package store

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/pal/internal/difficulty"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleSession(id, variant string, started time.Time) SessionRecord {
	return SessionRecord{
		ID:                id,
		Variant:           variant,
		StartedAt:         started,
		FinishedAt:        started.Add(2 * time.Minute),
		FinalScore:        61.5,
		BestStreak:        3,
		Questions:         2,
		Correct:           1,
		Accuracy:          0.5,
		AvgResponseTimeMs: 4200,
		Answers: []AnswerRecord{
			{Index: 1, Difficulty: difficulty.Easy, Correct: true, ResponseTimeMs: 2400, ScoreChange: 2, SkillAfter: 52, Predictor: "hybrid", Question: "2+2?", Selected: "4", Answer: "4"},
			{Index: 2, Difficulty: difficulty.Hard, Correct: false, ResponseTimeMs: 6000, ScoreChange: -6, SkillAfter: 46, Predictor: "hybrid"},
		},
	}
}

func TestOpen_CreatesSchema(t *testing.T) {
	s := openTestStore(t)
	for _, table := range []string{"sessions", "answers", "llm_events", "global_sequence"} {
		var name string
		err := s.DB().QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestOpen_FileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pal.db")
	if err := EnsureDir(path); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	if err := s.ResultRepo().SaveSession(context.Background(), sampleSession("a", "hybrid", time.Now())); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
}

func TestResultRepo_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	repo := s.ResultRepo()
	ctx := context.Background()
	base := time.UnixMilli(1_700_000_000_000)

	if err := repo.SaveSession(ctx, sampleSession("s1", "hybrid", base)); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	if err := repo.SaveSession(ctx, sampleSession("s2", "baseline", base.Add(time.Hour))); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	all, err := repo.ListSessions(ctx, QueryOpts{WithAnswers: true})
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len = %d, want 2", len(all))
	}
	if all[0].ID != "s2" {
		t.Errorf("newest first: got %s", all[0].ID)
	}
	got := all[1]
	if !got.StartedAt.Equal(base) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, base)
	}
	if got.FinalScore != 61.5 || got.BestStreak != 3 || got.Accuracy != 0.5 {
		t.Errorf("summary fields = %+v", got)
	}
	if len(got.Answers) != 2 {
		t.Fatalf("answers = %d, want 2", len(got.Answers))
	}
	a := got.Answers[0]
	if a.Difficulty != difficulty.Easy || !a.Correct || a.Question != "2+2?" || a.Predictor != "hybrid" {
		t.Errorf("answer = %+v", a)
	}
	if got.Answers[1].Sequence <= a.Sequence {
		t.Errorf("sequence not increasing: %d then %d", a.Sequence, got.Answers[1].Sequence)
	}

	onlyBaseline, err := repo.ListSessions(ctx, QueryOpts{Variant: "baseline"})
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(onlyBaseline) != 1 || onlyBaseline[0].ID != "s2" {
		t.Errorf("variant filter = %+v", onlyBaseline)
	}
	if onlyBaseline[0].Answers != nil {
		t.Error("answers loaded without WithAnswers")
	}

	limited, _ := repo.ListSessions(ctx, QueryOpts{Limit: 1})
	if len(limited) != 1 {
		t.Errorf("limit: len = %d, want 1", len(limited))
	}
}

func TestResultRepo_DuplicateIDRollsBack(t *testing.T) {
	s := openTestStore(t)
	repo := s.ResultRepo()
	ctx := context.Background()

	if err := repo.SaveSession(ctx, sampleSession("dup", "rl", time.Now())); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	if err := repo.SaveSession(ctx, sampleSession("dup", "rl", time.Now())); err == nil {
		t.Fatal("expected duplicate id error")
	}
	answers, err := repo.Answers(ctx, "dup")
	if err != nil {
		t.Fatalf("Answers: %v", err)
	}
	if len(answers) != 2 {
		t.Errorf("answers = %d, want 2 (second save rolled back)", len(answers))
	}
}

func TestResultRepo_EmptyID(t *testing.T) {
	s := openTestStore(t)
	if err := s.ResultRepo().SaveSession(context.Background(), SessionRecord{}); err == nil {
		t.Error("expected error for empty id")
	}
}

func TestEventRepo_LLMRequests(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	events := []LLMRequestEventData{
		{Provider: "anthropic", Model: "m1", Purpose: "question-gen", InputTokens: 100, OutputTokens: 50, LatencyMs: 200, Success: true},
		{Provider: "anthropic", Model: "m1", Purpose: "question-gen", InputTokens: 80, OutputTokens: 0, LatencyMs: 400, Success: false, ErrorMessage: "rate limit"},
		{Provider: "openai", Model: "m2", Purpose: "hint", InputTokens: 10, OutputTokens: 5, LatencyMs: 100, Success: true},
	}
	for _, e := range events {
		if err := repo.AppendLLMRequest(ctx, e); err != nil {
			t.Fatalf("AppendLLMRequest: %v", err)
		}
	}

	got, err := repo.LLMRequests(ctx, QueryOpts{Limit: 2})
	if err != nil {
		t.Fatalf("LLMRequests: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Purpose != "hint" {
		t.Errorf("newest first: got %q", got[0].Purpose)
	}

	after, _ := repo.LLMRequests(ctx, QueryOpts{After: got[1].Sequence})
	if len(after) != 1 {
		t.Errorf("After filter: len = %d, want 1", len(after))
	}

	one, err := repo.LLMRequest(ctx, got[1].Sequence)
	if err != nil || one == nil {
		t.Fatalf("LLMRequest(%d) = %v, %v", got[1].Sequence, one, err)
	}
	if one.Purpose != got[1].Purpose || one.Model != got[1].Model {
		t.Errorf("LLMRequest = %+v, want %+v", one, got[1])
	}
	if missing, err := repo.LLMRequest(ctx, 9999); err != nil || missing != nil {
		t.Errorf("LLMRequest(missing) = %v, %v; want nil, nil", missing, err)
	}

	usage, err := repo.LLMUsageByPurpose(ctx)
	if err != nil {
		t.Fatalf("LLMUsageByPurpose: %v", err)
	}
	if len(usage) != 2 {
		t.Fatalf("usage groups = %d, want 2", len(usage))
	}
	q := usage[1]
	if q.Purpose != "question-gen" || q.Calls != 2 || q.Failures != 1 || q.InputTokens != 180 {
		t.Errorf("question-gen usage = %+v", q)
	}
	if q.AvgLatencyMs != 300 {
		t.Errorf("AvgLatencyMs = %f, want 300", q.AvgLatencyMs)
	}
}

func TestReset(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	_ = s.ResultRepo().SaveSession(ctx, sampleSession("x", "hybrid", time.Now()))
	_ = s.EventRepo().AppendLLMRequest(ctx, LLMRequestEventData{Provider: "p", Model: "m", Success: true})

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	sessions, _ := s.ResultRepo().ListSessions(ctx, QueryOpts{})
	events, _ := s.EventRepo().LLMRequests(ctx, QueryOpts{})
	if len(sessions) != 0 || len(events) != 0 {
		t.Errorf("after reset: %d sessions, %d events", len(sessions), len(events))
	}
}

func TestExportJSONL(t *testing.T) {
	var buf bytes.Buffer
	recs := []SessionRecord{sampleSession("a", "hybrid", time.Now()), sampleSession("b", "rl", time.Now())}
	if err := ExportJSONL(&buf, recs); err != nil {
		t.Fatalf("ExportJSONL: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if first["variant"] != "hybrid" {
		t.Errorf("variant = %v", first["variant"])
	}
	if _, ok := first["answered_questions"]; !ok {
		t.Error("answered_questions missing")
	}
}

func TestDefaultDBPath(t *testing.T) {
	t.Setenv("PAL_DB", "/tmp/custom.db")
	if p, _ := DefaultDBPath(); p != "/tmp/custom.db" {
		t.Errorf("PAL_DB: got %s", p)
	}
	t.Setenv("PAL_DB", "")
	t.Setenv("XDG_DATA_HOME", "/data")
	if p, _ := DefaultDBPath(); p != "/data/pal/pal.db" {
		t.Errorf("XDG: got %s", p)
	}
}
