package store

import (
	"context"
	"database/sql"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const (
	tableSessions  = "sessions"
	tableAnswers   = "answers"
	tableLLMEvents = "llm_events"
)

var (
	// sessionsColumns holds the columns of the sessions table.
	sessionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "variant", Type: field.TypeString},
		{Name: "started_at", Type: field.TypeInt64},
		{Name: "finished_at", Type: field.TypeInt64},
		{Name: "final_score", Type: field.TypeFloat64},
		{Name: "best_streak", Type: field.TypeInt},
		{Name: "questions", Type: field.TypeInt},
		{Name: "correct", Type: field.TypeInt},
		{Name: "accuracy", Type: field.TypeFloat64},
		{Name: "avg_response_ms", Type: field.TypeFloat64},
	}
	sessionsTable = &schema.Table{
		Name:       tableSessions,
		Columns:    sessionsColumns,
		PrimaryKey: []*schema.Column{sessionsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "sessions_variant_started_at", Columns: []*schema.Column{sessionsColumns[1], sessionsColumns[2]}},
		},
	}

	// answersColumns holds the columns of the answers table.
	answersColumns = []*schema.Column{
		{Name: "sequence", Type: field.TypeInt64},
		{Name: "idx", Type: field.TypeInt},
		{Name: "difficulty", Type: field.TypeString},
		{Name: "correct", Type: field.TypeBool},
		{Name: "response_ms", Type: field.TypeFloat64},
		{Name: "score_change", Type: field.TypeFloat64},
		{Name: "skill_after", Type: field.TypeFloat64},
		{Name: "predictor", Type: field.TypeString, Default: ""},
		{Name: "question", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "selected", Type: field.TypeString, Default: ""},
		{Name: "answer", Type: field.TypeString, Default: ""},
		{Name: "session_id", Type: field.TypeString},
	}
	answersTable = &schema.Table{
		Name:       tableAnswers,
		Columns:    answersColumns,
		PrimaryKey: []*schema.Column{answersColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "answers_sessions_answers",
				Columns:    []*schema.Column{answersColumns[11]},
				RefColumns: []*schema.Column{sessionsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{Name: "answers_session_id_idx", Columns: []*schema.Column{answersColumns[11], answersColumns[1]}},
		},
	}

	// llmEventsColumns holds the columns of the llm_events table.
	llmEventsColumns = []*schema.Column{
		{Name: "sequence", Type: field.TypeInt64},
		{Name: "timestamp", Type: field.TypeInt64},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString, Default: ""},
		{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Default: ""},
		{Name: "request_body", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "response_body", Type: field.TypeString, Size: 2147483647, Default: ""},
	}
	llmEventsTable = &schema.Table{
		Name:       tableLLMEvents,
		Columns:    llmEventsColumns,
		PrimaryKey: []*schema.Column{llmEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "llm_events_purpose", Columns: []*schema.Column{llmEventsColumns[4]}},
			{Name: "llm_events_timestamp", Columns: []*schema.Column{llmEventsColumns[1]}},
		},
	}

	// tables lists every table in creation order.
	tables = []*schema.Table{sessionsTable, answersTable, llmEventsTable}
)

func init() {
	answersTable.ForeignKeys[0].RefTable = sessionsTable
}

// migrate creates or upgrades the schema. Columns are only ever added.
func migrate(ctx context.Context, db *sql.DB) error {
	m, err := schema.NewMigrate(entsql.OpenDB(dialect.SQLite, db))
	if err != nil {
		return fmt.Errorf("init migration: %w", err)
	}
	if err := m.Create(ctx, tables...); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}
