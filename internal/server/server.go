package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/engine"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/storage"
)

// Server is the HTTP server for the assessment editor API.
type Server struct {
	engine   *engine.Engine
	store    storage.Store
	sessions *SessionManager
	router   chi.Router
	http     *http.Server
	logger   *zap.Logger
}

// New creates a new Server.
func New(eng *engine.Engine, store storage.Store, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		engine:   eng,
		store:    store,
		sessions: NewSessionManager(eng, store),
		router:   chi.NewRouter(),
		logger:   logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Route("/api", func(r chi.Router) {
		r.Use(jsonContentType)

		r.Get("/runtimes", s.handleRuntimes)

		// Questions
		r.Get("/questions", s.handleListQuestions)
		r.Get("/questions/{id}", s.handleGetQuestion)

		// Sessions
		r.Get("/sessions", s.handleListSessions)
		r.Post("/sessions", s.handleCreateSession)
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Delete("/sessions/{id}", s.handleDeleteSession)

		// Editing and runs
		r.Put("/sessions/{id}/source", s.handleSetSource)
		r.Post("/sessions/{id}/run", s.handleRunCode)
		r.Post("/sessions/{id}/tests", s.handleRunTests)
		r.Get("/sessions/{id}/grades", s.handleListGrades)

		// WebSocket (no JSON content-type)
		r.Get("/sessions/{id}/ws", s.handleWebSocket)
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// jsonContentType sets Content-Type to application/json for API routes.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// Start begins listening on the given port.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("assess server starting", zap.String("url", "http://localhost"+addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")
	s.sessions.CloseAll()
	if s.http == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return s.http.Shutdown(shutdownCtx)
}
