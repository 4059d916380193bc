package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/locuta-ai/locuta/internal/pkg/persistence"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB provides operations with postgresql
type DB struct {
	pool querier
}

//NewDB creates DB instance
func NewDB(pool *pgxpool.Pool) (*DB, error) {
	res := &DB{pool: pool}
	return res, nil
}

// LoadLesson loads one lesson by (category, module, level).
// Returns nil without error when no row matches
func (db *DB) LoadLesson(ctx context.Context, category string, module, level int) (*persistence.Lesson, error) {
	var res persistence.Lesson
	err := db.pool.QueryRow(ctx, `SELECT id, category, module, level, title, practice_prompt,
		example, expected_duration, focus_areas FROM lessons
		WHERE category = $1 AND module = $2 AND level = $3`, category, module, level).
		Scan(&res.ID, &res.Category, &res.Module, &res.Level, &res.Title, &res.PracticePrompt,
			&res.Example, &res.ExpectedDuration, &res.FocusAreas)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("can't load lesson: %w", err)
	}
	return &res, nil
}

// InsertSession inserts one practice attempt row. Sessions are append-only,
// there is no update path. Uses Exec so execution-time failures surface here
// and not as a silently dropped row
func (db *DB) InsertSession(ctx context.Context, s *persistence.Session) error {
	_, err := db.pool.Exec(ctx, `INSERT INTO sessions(id, user_id, category, module, level,
		tone, transcript, example_text, example_audio, feedback, overall_score, status, created)
	VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		s.ID, s.UserID, s.Category, s.Module, s.Level, s.Tone, s.Transcript,
		s.ExampleText, s.ExampleAudio, s.Feedback, s.OverallScore, s.Status, s.Created)
	if err != nil {
		return fmt.Errorf("can't insert session: %w", err)
	}
	return nil
}

// LoadSession loads a session by ID scoped to its owner.
// Returns nil without error when no row matches
func (db *DB) LoadSession(ctx context.Context, id, userID string) (*persistence.Session, error) {
	var res persistence.Session
	err := db.pool.QueryRow(ctx, `SELECT id, user_id, category, module, level, tone, transcript,
		example_text, example_audio, feedback, overall_score, status, created FROM sessions
		WHERE id = $1 AND user_id = $2`, id, userID).
		Scan(&res.ID, &res.UserID, &res.Category, &res.Module, &res.Level, &res.Tone,
			&res.Transcript, &res.ExampleText, &res.ExampleAudio, &res.Feedback,
			&res.OverallScore, &res.Status, &res.Created)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("can't load session: %w", err)
	}
	return &res, nil
}

// UpsertProgress writes the per-lesson progress row keyed by
// (user, category, module, level). best_score only grows and completed
// never reverts - the merge happens in the conflict clause so concurrent
// resubmissions can't produce duplicate rows or regress the values
func (db *DB) UpsertProgress(ctx context.Context, p *persistence.UserProgress) error {
	_, err := db.pool.Exec(ctx, `INSERT INTO user_progress(user_id, category, module, level,
		completed, best_score, attempts, last_practiced)
	VALUES($1, $2, $3, $4, $5, $6, 1, $7)
	ON CONFLICT (user_id, category, module, level) DO UPDATE SET
		completed = user_progress.completed OR EXCLUDED.completed,
		best_score = GREATEST(user_progress.best_score, EXCLUDED.best_score),
		attempts = user_progress.attempts + 1,
		last_practiced = EXCLUDED.last_practiced`,
		p.UserID, p.Category, p.Module, p.Level, p.Completed, p.BestScore, p.LastPracticed)
	if err != nil {
		return fmt.Errorf("can't upsert progress: %w", err)
	}
	return nil
}

// LoadProgress loads all progress rows of a user
func (db *DB) LoadProgress(ctx context.Context, userID string) ([]*persistence.UserProgress, error) {
	rows, err := db.pool.Query(ctx, `SELECT user_id, category, module, level, completed,
		best_score, attempts, last_practiced FROM user_progress
		WHERE user_id = $1 ORDER BY category, module, level`, userID)
	if err != nil {
		return nil, fmt.Errorf("can't load progress: %w", err)
	}
	defer rows.Close()
	var res []*persistence.UserProgress
	for rows.Next() {
		var p persistence.UserProgress
		if err := rows.Scan(&p.UserID, &p.Category, &p.Module, &p.Level, &p.Completed,
			&p.BestScore, &p.Attempts, &p.LastPracticed); err != nil {
			return nil, fmt.Errorf("can't scan progress: %w", err)
		}
		res = append(res, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("can't load progress: %w", err)
	}
	return res, nil
}

// Live returns no error if db is reachable and initialized
func (db *DB) Live(ctx context.Context) error {
	var exists bool
	if err := db.pool.QueryRow(ctx, `SELECT EXISTS (SELECT FROM pg_tables WHERE tablename = 'lessons')`).Scan(&exists); err != nil {
		return fmt.Errorf("can't check table: %w", err)
	}
	if !exists {
		return fmt.Errorf("no migration done")
	}
	return nil
}
