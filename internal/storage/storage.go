// Package storage persists editor sessions, the latest answer of each session
// and the grade history. It backs the answer-tracking collaborator.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/execution"
)

// ErrNotFound is returned when a session does not exist.
var ErrNotFound = errors.New("not found")

// SessionStatus represents the lifecycle state of a session.
type SessionStatus string

const (
	StatusActive    SessionStatus = "active"
	StatusCompleted SessionStatus = "completed"
)

// Session is the metadata for a saved editor session.
type Session struct {
	ID         string             `json:"id"`
	QuestionID string             `json:"question_id"`
	Language   execution.Language `json:"language"`
	Status     SessionStatus      `json:"status"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// Answer is the most recent source a session submitted for its question.
type Answer struct {
	SessionID  string    `json:"session_id"`
	QuestionID string    `json:"question_id"`
	Source     string    `json:"source"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Grade is one graded run.
type Grade struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session_id"`
	QuestionID string    `json:"question_id"`
	Passed     int       `json:"passed"`
	Total      int       `json:"total"`
	CreatedAt  time.Time `json:"created_at"`
}

// SessionListOptions controls filtering and pagination for ListSessions.
type SessionListOptions struct {
	Status     SessionStatus
	QuestionID string
	Limit      int
	Offset     int
}

// Store is the persistence interface for sessions, answers and grades.
type Store interface {
	// CreateSession inserts a new session. The ID field must be set by the caller.
	CreateSession(ctx context.Context, s *Session) error

	// GetSession returns a session by ID or ID prefix.
	GetSession(ctx context.Context, id string) (*Session, error)

	// ListSessions returns sessions ordered by updated_at descending.
	ListSessions(ctx context.Context, opts SessionListOptions) ([]Session, error)

	// UpdateSession updates mutable fields (status, updated_at).
	UpdateSession(ctx context.Context, s *Session) error

	// DeleteSession removes a session with its answer and grades.
	DeleteSession(ctx context.Context, id string) error

	// SaveAnswer overwrites the stored answer for a session.
	SaveAnswer(ctx context.Context, a *Answer) error

	// LoadAnswer returns the stored answer, or nil if none was saved.
	LoadAnswer(ctx context.Context, sessionID string) (*Answer, error)

	// RecordGrade appends a graded run.
	RecordGrade(ctx context.Context, g *Grade) error

	// ListGrades returns a session's grades oldest first.
	ListGrades(ctx context.Context, sessionID string) ([]Grade, error)

	// Close releases resources.
	Close() error
}
