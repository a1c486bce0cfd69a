package storage

import (
	"context"
	"fmt"
)

// SessionTracker records answers and grades for one session.
type SessionTracker struct {
	store     Store
	sessionID string
}

// NewSessionTracker binds store to sessionID.
func NewSessionTracker(store Store, sessionID string) *SessionTracker {
	return &SessionTracker{store: store, sessionID: sessionID}
}

// TrackAnswer saves the latest source.
func (t *SessionTracker) TrackAnswer(ctx context.Context, questionID, source string) error {
	if err := t.store.SaveAnswer(ctx, &Answer{
		SessionID:  t.sessionID,
		QuestionID: questionID,
		Source:     source,
	}); err != nil {
		return fmt.Errorf("saving answer: %w", err)
	}
	return nil
}

// TrackGrade appends a grade and marks the session completed once every case passes.
func (t *SessionTracker) TrackGrade(ctx context.Context, questionID string, passed, total int) error {
	if err := t.store.RecordGrade(ctx, &Grade{
		SessionID:  t.sessionID,
		QuestionID: questionID,
		Passed:     passed,
		Total:      total,
	}); err != nil {
		return fmt.Errorf("recording grade: %w", err)
	}

	sess, err := t.store.GetSession(ctx, t.sessionID)
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}
	status := StatusActive
	if total > 0 && passed == total {
		status = StatusCompleted
	}
	sess.Status = status
	if err := t.store.UpdateSession(ctx, sess); err != nil {
		return fmt.Errorf("updating session: %w", err)
	}
	return nil
}
