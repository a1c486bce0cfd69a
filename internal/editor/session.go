// Package editor holds one candidate's editing state for a question and drives
// runs on its behalf.
package editor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/execution"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/question"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/results"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/sandbox"
)

// ErrBusy is returned when a run is requested while another one is in flight.
var ErrBusy = errors.New("a run is already in progress")

// Tracker receives answer and grade updates. Implementations must not block
// for long; their errors are logged and otherwise ignored.
type Tracker interface {
	TrackAnswer(ctx context.Context, questionID, source string) error
	TrackGrade(ctx context.Context, questionID string, passed, total int) error
}

// Grader runs a submission against test cases.
type Grader interface {
	RunAll(ctx context.Context, source string, lang execution.Language, cases []execution.TestCase) execution.RunSummary
}

// Status describes a plain run's outcome for display.
type Status string

const (
	StatusOK    Status = "ok"
	StatusEmpty Status = "empty"
	StatusError Status = "error"
)

// RunOutput is the renderable result of a plain run.
type RunOutput struct {
	Stdout     string               `json:"stdout"`
	Error      *execution.ErrorInfo `json:"error,omitempty"`
	WallTimeMs int64                `json:"wall_time_ms"`
	Status     Status               `json:"status"`
}

// NewRunOutput converts an execution result. Empty output is reported
// separately from an error.
func NewRunOutput(res execution.Result) RunOutput {
	out := RunOutput{
		Stdout:     res.Stdout,
		Error:      res.Error,
		WallTimeMs: res.WallTime.Milliseconds(),
	}
	switch {
	case res.Error != nil:
		out.Status = StatusError
	case strings.TrimSpace(res.Stdout) == "":
		out.Status = StatusEmpty
	default:
		out.Status = StatusOK
	}
	return out
}

// Snapshot is a point-in-time copy of a session.
type Snapshot struct {
	ID         string                 `json:"id"`
	QuestionID string                 `json:"question_id"`
	Language   execution.Language     `json:"language"`
	Source     string                 `json:"source"`
	Running    bool                   `json:"running"`
	LastRun    *RunOutput             `json:"last_run,omitempty"`
	LastTests  *results.PublicSummary `json:"last_tests,omitempty"`
	UpdatedAt  time.Time              `json:"updated_at"`
}

// Session is one candidate's editor for one question.
type Session struct {
	ID       string
	Question *question.Question

	runner  sandbox.Runner
	grader  Grader
	tracker Tracker
	timeout time.Duration
	logger  *zap.Logger

	running atomic.Bool

	mu        sync.Mutex
	source    string
	lastRun   *RunOutput
	lastTests *results.PublicSummary
	updatedAt time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithTracker forwards answers and grades to t.
func WithTracker(t Tracker) Option {
	return func(s *Session) { s.tracker = t }
}

// WithLogger sets the session's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSource seeds the buffer instead of the question's template.
func WithSource(src string) Option {
	return func(s *Session) { s.source = src }
}

// NewSession creates a session whose buffer starts from the question's source
// template. Plain runs and graded runs share the question's time limit.
func NewSession(id string, q *question.Question, runner sandbox.Runner, grader Grader, timeout time.Duration, opts ...Option) *Session {
	s := &Session{
		ID:        id,
		Question:  q,
		runner:    runner,
		grader:    grader,
		timeout:   timeout,
		logger:    zap.NewNop(),
		source:    q.SourceTemplate,
		updatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("session", id), zap.String("question", q.ID))
	return s
}

// Source returns the current buffer.
func (s *Session) Source() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

// SetSource replaces the buffer and forwards it to the tracker.
func (s *Session) SetSource(ctx context.Context, src string) {
	s.mu.Lock()
	s.source = src
	s.updatedAt = time.Now()
	s.mu.Unlock()

	if s.tracker != nil {
		if err := s.tracker.TrackAnswer(ctx, s.Question.ID, src); err != nil {
			s.logger.Warn("tracking answer", zap.Error(err))
		}
	}
}

// Reset restores the buffer to the question's template.
func (s *Session) Reset(ctx context.Context) {
	s.SetSource(ctx, s.Question.SourceTemplate)
}

// Running reports whether a run is in flight.
func (s *Session) Running() bool {
	return s.running.Load()
}

// RunCode executes the buffer once with no input.
func (s *Session) RunCode(ctx context.Context) (RunOutput, error) {
	if !s.running.CompareAndSwap(false, true) {
		return RunOutput{}, ErrBusy
	}
	defer s.running.Store(false)

	src := s.Source()
	res := s.runner.Run(ctx, execution.Request{
		Language: s.Question.Language,
		Source:   src,
	}, s.timeout)
	out := NewRunOutput(res)

	s.mu.Lock()
	s.lastRun = &out
	s.mu.Unlock()

	s.logger.Debug("ran code", zap.String("status", string(out.Status)))
	return out, nil
}

// RunTests grades the buffer against every test case of the question and
// forwards the score to the tracker.
func (s *Session) RunTests(ctx context.Context) (results.PublicSummary, error) {
	if !s.running.CompareAndSwap(false, true) {
		return results.PublicSummary{}, ErrBusy
	}
	defer s.running.Store(false)

	src := s.Source()
	summary := results.Publish(s.grader.RunAll(ctx, src, s.Question.Language, s.Question.TestCases))

	s.mu.Lock()
	s.lastTests = &summary
	s.mu.Unlock()

	if s.tracker != nil {
		if err := s.tracker.TrackGrade(ctx, s.Question.ID, summary.PassedCases, summary.TotalCases); err != nil {
			s.logger.Warn("tracking grade", zap.Error(err))
		}
	}

	s.logger.Info("ran tests",
		zap.Int("passed", summary.PassedCases),
		zap.Int("total", summary.TotalCases))
	return summary, nil
}

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:         s.ID,
		QuestionID: s.Question.ID,
		Language:   s.Question.Language,
		Source:     s.source,
		Running:    s.running.Load(),
		LastRun:    s.lastRun,
		LastTests:  s.lastTests,
		UpdatedAt:  s.updatedAt,
	}
}
