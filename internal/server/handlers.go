package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/editor"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/engine"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/question"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/storage"
)

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, engine.ErrQuestionNotFound):
		return http.StatusNotFound
	case errors.Is(err, editor.ErrBusy):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	}
	writeError(w, status, err.Error())
}

// sessionView is a stored session together with its live editor state.
type sessionView struct {
	editor.Snapshot
	Status    storage.SessionStatus `json:"status"`
	CreatedAt time.Time             `json:"created_at"`
}

func newSessionView(sess *storage.Session, es *editor.Session) sessionView {
	return sessionView{
		Snapshot:  es.Snapshot(),
		Status:    sess.Status,
		CreatedAt: sess.CreatedAt,
	}
}

// resolve loads the stored session named in the URL and its editor.
func (s *Server) resolve(r *http.Request) (*storage.Session, *editor.Session, error) {
	sess, err := s.store.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return nil, nil, err
	}
	es, err := s.sessions.GetOrCreate(r.Context(), sess)
	if err != nil {
		return nil, nil, err
	}
	return sess, es, nil
}

// --- Runtime and question handlers ---

func (s *Server) handleRuntimes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Runtimes())
}

func (s *Server) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	qs := s.engine.Questions.List()
	out := make([]question.Public, 0, len(qs))
	for _, q := range qs {
		out = append(out, q.Public())
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetQuestion(w http.ResponseWriter, r *http.Request) {
	q, err := s.engine.Question(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q.Public())
}

// --- Session handlers ---

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	opts := storage.SessionListOptions{
		Status:     storage.SessionStatus(r.URL.Query().Get("status")),
		QuestionID: r.URL.Query().Get("question_id"),
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			opts.Limit = n
		}
	}
	if offset := r.URL.Query().Get("offset"); offset != "" {
		if n, err := strconv.Atoi(offset); err == nil {
			opts.Offset = n
		}
	}

	sessions, err := s.store.ListSessions(r.Context(), opts)
	if err != nil {
		s.fail(w, err)
		return
	}

	if sessions == nil {
		sessions = []storage.Session{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

type createSessionRequest struct {
	QuestionID string `json:"question_id"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.QuestionID == "" {
		writeError(w, http.StatusBadRequest, "question_id is required")
		return
	}

	q, err := s.engine.Question(req.QuestionID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess := &storage.Session{
		ID:         uuid.New().String(),
		QuestionID: q.ID,
		Language:   q.Language,
		Status:     storage.StatusActive,
	}
	if err := s.store.CreateSession(r.Context(), sess); err != nil {
		s.fail(w, err)
		return
	}

	es, err := s.sessions.GetOrCreate(r.Context(), sess)
	if err != nil {
		s.fail(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, newSessionView(sess, es))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, es, err := s.resolve(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(sess, es))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}

	// Remove from active sessions first
	s.sessions.Remove(sess.ID)

	if err := s.store.DeleteSession(r.Context(), sess.ID); err != nil {
		s.fail(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Editing and run handlers ---

type setSourceRequest struct {
	Source *string `json:"source"`
}

func (s *Server) handleSetSource(w http.ResponseWriter, r *http.Request) {
	var req setSourceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.Source == nil {
		writeError(w, http.StatusBadRequest, "source is required")
		return
	}

	sess, es, err := s.resolve(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	es.SetSource(r.Context(), *req.Source)
	writeJSON(w, http.StatusOK, newSessionView(sess, es))
}

func (s *Server) handleRunCode(w http.ResponseWriter, r *http.Request) {
	_, es, err := s.resolve(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	out, err := es.RunCode(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRunTests(w http.ResponseWriter, r *http.Request) {
	_, es, err := s.resolve(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	summary, err := es.RunTests(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleListGrades(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	grades, err := s.store.ListGrades(r.Context(), sess.ID)
	if err != nil {
		s.fail(w, err)
		return
	}
	if grades == nil {
		grades = []storage.Grade{}
	}
	writeJSON(w, http.StatusOK, grades)
}
