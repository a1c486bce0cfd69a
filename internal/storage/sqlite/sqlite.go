package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/execution"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/storage"

	_ "modernc.org/sqlite"
)

const sessionColumns = `id, question_id, language, status, created_at, updated_at`

// SQLiteStore implements storage.Store backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path and runs migrations.
// Use ":memory:" for an in-memory database (useful for testing).
func Open(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) CreateSession(ctx context.Context, sess *storage.Session) error {
	now := time.Now().UTC()
	sess.CreatedAt = now
	sess.UpdatedAt = now
	if sess.Status == "" {
		sess.Status = storage.StatusActive
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, question_id, language, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.QuestionID, string(sess.Language), string(sess.Status),
		formatTime(sess.CreatedAt), formatTime(sess.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*storage.Session, error) {
	// Exact match first, then prefix
	sess, err := scanSession(s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id))
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("querying session: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id LIKE ? || '%'`, id)
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}
	defer rows.Close()

	var matches []*storage.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("session %s: %w", id, storage.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("ambiguous session prefix %q matches %d sessions", id, len(matches))
	}
}

func (s *SQLiteStore) ListSessions(ctx context.Context, opts storage.SessionListOptions) ([]storage.Session, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE 1 = 1`
	var args []any

	if opts.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(opts.Status))
	}
	if opts.QuestionID != "" {
		query += ` AND question_id = ?`
		args = append(args, opts.QuestionID)
	}

	query += ` ORDER BY updated_at DESC, id LIMIT ? OFFSET ?`
	args = append(args, limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var sessions []storage.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *sess)
	}
	return sessions, rows.Err()
}

func (s *SQLiteStore) UpdateSession(ctx context.Context, sess *storage.Session) error {
	sess.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET status = ?, updated_at = ? WHERE id = ?`,
		string(sess.Status), formatTime(sess.UpdatedAt), sess.ID,
	)
	if err != nil {
		return fmt.Errorf("updating session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("session %s: %w", sess.ID, storage.ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, id string) error {
	// Resolve prefix first
	sess, err := s.GetSession(ctx, id)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM grades WHERE session_id = ?`,
		`DELETE FROM answers WHERE session_id = ?`,
		`DELETE FROM sessions WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, sess.ID); err != nil {
			return fmt.Errorf("deleting session: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) SaveAnswer(ctx context.Context, a *storage.Answer) error {
	a.UpdatedAt = time.Now().UTC()
	now := formatTime(a.UpdatedAt)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO answers (session_id, question_id, source, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			question_id = excluded.question_id,
			source = excluded.source,
			updated_at = excluded.updated_at`,
		a.SessionID, a.QuestionID, a.Source, now,
	)
	if err != nil {
		return fmt.Errorf("saving answer: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `UPDATE sessions SET updated_at = ? WHERE id = ?`, now, a.SessionID)
	return err
}

func (s *SQLiteStore) LoadAnswer(ctx context.Context, sessionID string) (*storage.Answer, error) {
	var a storage.Answer
	var updatedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT session_id, question_id, source, updated_at FROM answers WHERE session_id = ?`,
		sessionID).Scan(&a.SessionID, &a.QuestionID, &a.Source, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading answer: %w", err)
	}
	a.UpdatedAt = parseTime(updatedAt)
	return &a, nil
}

func (s *SQLiteStore) RecordGrade(ctx context.Context, g *storage.Grade) error {
	g.CreatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO grades (session_id, question_id, passed, total, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		g.SessionID, g.QuestionID, g.Passed, g.Total, formatTime(g.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("recording grade: %w", err)
	}
	g.ID, _ = res.LastInsertId()
	return nil
}

func (s *SQLiteStore) ListGrades(ctx context.Context, sessionID string) ([]storage.Grade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, question_id, passed, total, created_at
		FROM grades WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing grades: %w", err)
	}
	defer rows.Close()

	var grades []storage.Grade
	for rows.Next() {
		var g storage.Grade
		var createdAt string
		if err := rows.Scan(&g.ID, &g.SessionID, &g.QuestionID, &g.Passed, &g.Total, &createdAt); err != nil {
			return nil, err
		}
		g.CreatedAt = parseTime(createdAt)
		grades = append(grades, g)
	}
	return grades, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// scanner works with both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSession(s scanner) (*storage.Session, error) {
	var sess storage.Session
	var lang, status, createdAt, updatedAt string
	if err := s.Scan(&sess.ID, &sess.QuestionID, &lang, &status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	sess.Language = execution.Language(lang)
	sess.Status = storage.SessionStatus(status)
	sess.CreatedAt = parseTime(createdAt)
	sess.UpdatedAt = parseTime(updatedAt)
	return &sess, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
