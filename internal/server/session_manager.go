package server

import (
	"context"
	"fmt"
	"sync"

	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/editor"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/engine"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/storage"
)

// SessionManager tracks which stored sessions have an editor in memory.
type SessionManager struct {
	engine *engine.Engine
	store  storage.Store

	mu       sync.RWMutex
	sessions map[string]*editor.Session
}

// NewSessionManager creates a new SessionManager.
func NewSessionManager(eng *engine.Engine, store storage.Store) *SessionManager {
	return &SessionManager{
		engine:   eng,
		store:    store,
		sessions: make(map[string]*editor.Session),
	}
}

// Get returns an active editor if it exists.
func (sm *SessionManager) Get(sessionID string) (*editor.Session, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	es, ok := sm.sessions[sessionID]
	return es, ok
}

// GetOrCreate returns the editor for sess, rebuilding it from the store when
// it is not in memory (for example after a restart). The buffer starts from the
// last saved answer, or the question's template when nothing was saved.
func (sm *SessionManager) GetOrCreate(ctx context.Context, sess *storage.Session) (*editor.Session, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if es, ok := sm.sessions[sess.ID]; ok {
		return es, nil
	}

	q, err := sm.engine.Question(sess.QuestionID)
	if err != nil {
		return nil, err
	}

	opts := []editor.Option{editor.WithTracker(storage.NewSessionTracker(sm.store, sess.ID))}
	answer, err := sm.store.LoadAnswer(ctx, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("loading answer: %w", err)
	}
	if answer != nil {
		opts = append(opts, editor.WithSource(answer.Source))
	}

	es := sm.engine.NewSession(sess.ID, q, opts...)
	sm.sessions[sess.ID] = es
	return es, nil
}

// Remove drops an editor from memory. An in-flight run finishes on its own.
func (sm *SessionManager) Remove(sessionID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sessions, sessionID)
}

// Len returns the number of editors in memory.
func (sm *SessionManager) Len() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// CloseAll drops every editor.
func (sm *SessionManager) CloseAll() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for id := range sm.sessions {
		delete(sm.sessions, id)
	}
}
