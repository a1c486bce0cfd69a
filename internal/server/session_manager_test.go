package server

import (
	"context"
	"errors"
	"testing"

	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/config"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/engine"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/execution"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/question"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/runtime"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/runtime/javascript"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/storage"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/storage/sqlite"
)

const doubleTemplate = "// read a number and print it doubled\n"

func testEngine(t *testing.T) *engine.Engine {
	t.Helper()
	bank := question.NewBank(&question.Question{
		ID:             "double",
		Title:          "Double it",
		Language:       execution.LanguageJavaScript,
		SourceTemplate: doubleTemplate,
		TestCases: []execution.TestCase{
			{Input: "2", ExpectedOutput: "4", Description: "sample"},
			{Input: "5", ExpectedOutput: "10", Description: "hidden one"},
			{Input: "-3", ExpectedOutput: "-6", Description: "hidden two"},
		},
	})
	return engine.NewWith(config.Default(), []runtime.Backend{javascript.Backend{}}, bank, nil)
}

func testStore(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()
	store, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("opening memory db: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func createStored(t *testing.T, store storage.Store, id, questionID string) *storage.Session {
	t.Helper()
	sess := &storage.Session{
		ID:         id,
		QuestionID: questionID,
		Language:   execution.LanguageJavaScript,
		Status:     storage.StatusActive,
	}
	if err := store.CreateSession(context.Background(), sess); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	return sess
}

func TestSessionManager_GetOrCreate(t *testing.T) {
	store := testStore(t)
	sm := NewSessionManager(testEngine(t), store)
	defer sm.CloseAll()

	sess := createStored(t, store, "test-session-1", "double")

	es1, err := sm.GetOrCreate(context.Background(), sess)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if es1.Source() != doubleTemplate {
		t.Errorf("source = %q, want template", es1.Source())
	}

	es2, err := sm.GetOrCreate(context.Background(), sess)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if es1 != es2 {
		t.Error("expected same editor on second call")
	}
}

func TestSessionManager_RebuildsFromStore(t *testing.T) {
	store := testStore(t)
	eng := testEngine(t)
	sess := createStored(t, store, "restored", "double")

	first := NewSessionManager(eng, store)
	es, err := first.GetOrCreate(context.Background(), sess)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	es.SetSource(context.Background(), "console.log(1)")

	// A fresh manager stands in for a restarted server.
	second := NewSessionManager(eng, store)
	restored, err := second.GetOrCreate(context.Background(), sess)
	if err != nil {
		t.Fatalf("GetOrCreate after restart: %v", err)
	}
	if restored.Source() != "console.log(1)" {
		t.Errorf("source = %q, want saved answer", restored.Source())
	}
}

func TestSessionManager_UnknownQuestion(t *testing.T) {
	store := testStore(t)
	sm := NewSessionManager(testEngine(t), store)
	sess := createStored(t, store, "orphan", "gone")

	if _, err := sm.GetOrCreate(context.Background(), sess); !errors.Is(err, engine.ErrQuestionNotFound) {
		t.Fatalf("err = %v, want ErrQuestionNotFound", err)
	}
	if sm.Len() != 0 {
		t.Error("failed session should not be kept")
	}
}

func TestSessionManager_RemoveAndCloseAll(t *testing.T) {
	store := testStore(t)
	sm := NewSessionManager(testEngine(t), store)

	for _, id := range []string{"session-a", "session-b", "session-c"} {
		sess := createStored(t, store, id, "double")
		if _, err := sm.GetOrCreate(context.Background(), sess); err != nil {
			t.Fatalf("GetOrCreate: %v", err)
		}
	}

	sm.Remove("session-a")
	if _, ok := sm.Get("session-a"); ok {
		t.Error("expected session to be removed")
	}
	if _, ok := sm.Get("session-b"); !ok {
		t.Error("expected session-b to exist")
	}

	sm.CloseAll()
	if sm.Len() != 0 {
		t.Error("expected all sessions to be cleared")
	}
}
