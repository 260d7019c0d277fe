package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

type resultRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

var sessionColumns = []string{
	"id", "variant", "started_at", "finished_at", "final_score",
	"best_streak", "questions", "correct", "accuracy", "avg_response_ms",
}

var answerColumns = []string{
	"sequence", "session_id", "idx", "difficulty", "correct", "response_ms",
	"score_change", "skill_after", "predictor", "question", "selected", "answer",
}

func (r *resultRepo) SaveSession(ctx context.Context, rec SessionRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("save session: empty id")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	query, args := builder().Insert(tableSessions).
		Columns(sessionColumns...).
		Values(rec.ID, rec.Variant, rec.StartedAt.UnixMilli(), rec.FinishedAt.UnixMilli(), rec.FinalScore,
			rec.BestStreak, rec.Questions, rec.Correct, rec.Accuracy, rec.AvgResponseTimeMs).
		Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	for _, a := range rec.Answers {
		seq, err := r.seq.Next(ctx, tx)
		if err != nil {
			return err
		}
		query, args := builder().Insert(tableAnswers).
			Columns(answerColumns...).
			Values(seq, rec.ID, a.Index, string(a.Difficulty), a.Correct, a.ResponseTimeMs,
				a.ScoreChange, a.SkillAfter, a.Predictor, a.Question, a.Selected, a.Answer).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert answer %d: %w", a.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit session: %w", err)
	}
	return nil
}

func (r *resultRepo) ListSessions(ctx context.Context, opts QueryOpts) ([]SessionRecord, error) {
	sel := builder().Select(sessionColumns...).From(entsql.Table(tableSessions))
	if opts.Variant != "" {
		sel.Where(entsql.EQ("variant", opts.Variant))
	}
	sel.OrderBy(entsql.Desc("started_at"), entsql.Desc("id"))
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}
	query, args := sel.Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	var out []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		var started, finished int64
		if err := rows.Scan(&rec.ID, &rec.Variant, &started, &finished, &rec.FinalScore,
			&rec.BestStreak, &rec.Questions, &rec.Correct, &rec.Accuracy, &rec.AvgResponseTimeMs); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan session: %w", err)
		}
		rec.StartedAt = time.UnixMilli(started)
		rec.FinishedAt = time.UnixMilli(finished)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	// Release the single connection before loading answers.
	rows.Close()

	if opts.WithAnswers {
		for i := range out {
			answers, err := r.Answers(ctx, out[i].ID)
			if err != nil {
				return nil, err
			}
			out[i].Answers = answers
		}
	}
	return out, nil
}

func (r *resultRepo) Answers(ctx context.Context, sessionID string) ([]AnswerRecord, error) {
	query, args := builder().Select(answerColumns...).
		From(entsql.Table(tableAnswers)).
		Where(entsql.EQ("session_id", sessionID)).
		OrderBy("idx").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query answers: %w", err)
	}
	defer rows.Close()

	var out []AnswerRecord
	for rows.Next() {
		var a AnswerRecord
		var sid, level string
		if err := rows.Scan(&a.Sequence, &sid, &a.Index, &level, &a.Correct, &a.ResponseTimeMs,
			&a.ScoreChange, &a.SkillAfter, &a.Predictor, &a.Question, &a.Selected, &a.Answer); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		a.Difficulty = difficultyLevel(level)
		out = append(out, a)
	}
	return out, rows.Err()
}
