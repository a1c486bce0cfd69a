// Package engine assembles the execution stack from configuration: the
// interpreter provisioner, the sandbox, the grader and the question bank.
// Every front end (CLI, HTTP server, MCP tools, NATS worker) runs on one Engine.
package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/config"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/editor"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/execution"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/grading"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/provision"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/question"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/results"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/runtime"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/runtime/javascript"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/runtime/python"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/runtime/shell"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/sandbox"
)

// Engine is the shared execution stack of a process.
type Engine struct {
	Provisioner *provision.Provisioner
	Sandbox     *sandbox.Sandbox
	Questions   *question.Bank

	defaultTimeout time.Duration
	caseDelay      time.Duration
	logger         *zap.Logger
}

// RuntimeStatus reports one language's provisioning state.
type RuntimeStatus struct {
	Language execution.Language `json:"language"`
	Enabled  bool               `json:"enabled"`
	State    provision.State    `json:"state"`
}

// New builds an Engine from cfg and loads the question bank.
func New(cfg *config.Config, logger *zap.Logger) (*Engine, error) {
	bank, err := question.LoadDir(cfg.Questions.Dir)
	if err != nil {
		return nil, fmt.Errorf("loading questions: %w", err)
	}
	backends := []runtime.Backend{
		python.Backend{Binary: cfg.Runtime.Python.Binary},
		javascript.Backend{},
		shell.Backend{},
	}
	return NewWith(cfg, backends, bank, logger), nil
}

// NewWith builds an Engine from explicit backends and questions.
func NewWith(cfg *config.Config, backends []runtime.Backend, bank *question.Bank, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if bank == nil {
		bank = question.NewBank()
	}
	prov := provision.New(backends,
		provision.WithLoadTimeout(cfg.Runtime.LoadTimeout),
		provision.WithLogger(logger.Named("provision")))

	for _, q := range bank.List() {
		for _, problem := range q.Problems {
			logger.Warn("malformed test case", zap.String("question", q.ID), zap.String("problem", problem))
		}
	}

	return &Engine{
		Provisioner:    prov,
		Sandbox:        sandbox.New(prov, cfg.Policy(), logger.Named("sandbox")),
		Questions:      bank,
		defaultTimeout: cfg.Runtime.DefaultTimeout,
		caseDelay:      cfg.Runtime.CaseDelay,
		logger:         logger,
	}
}

// Warm loads the interpreters for langs. Failures are logged; a later run
// retries the load.
func (e *Engine) Warm(ctx context.Context, langs ...execution.Language) {
	for _, lang := range langs {
		if !e.Sandbox.Policy.IsLanguageAllowed(lang) {
			continue
		}
		if _, err := e.Provisioner.EnsureReady(ctx, lang); err != nil {
			e.logger.Warn("warming runtime", zap.String("language", string(lang)), zap.Error(err))
		}
	}
}

// Runtimes reports the state of every known language.
func (e *Engine) Runtimes() []RuntimeStatus {
	langs := execution.Languages()
	out := make([]RuntimeStatus, 0, len(langs))
	for _, lang := range langs {
		out = append(out, RuntimeStatus{
			Language: lang,
			Enabled:  e.Sandbox.Policy.IsLanguageAllowed(lang),
			State:    e.Provisioner.State(lang),
		})
	}
	return out
}

// Timeout returns q's per-execution limit, or the configured default for nil.
func (e *Engine) Timeout(q *question.Question) time.Duration {
	if q == nil {
		return e.defaultTimeout
	}
	return q.Timeout(e.defaultTimeout)
}

// Run executes one scratch snippet.
func (e *Engine) Run(ctx context.Context, req execution.Request, timeout time.Duration) execution.Result {
	if timeout <= 0 {
		timeout = e.defaultTimeout
	}
	return e.Sandbox.Run(ctx, req, timeout)
}

// Grader returns a runner bound to q's time limit.
func (e *Engine) Grader(q *question.Question) *grading.Runner {
	return grading.NewRunner(e.Sandbox, e.Timeout(q),
		grading.WithDelay(e.caseDelay),
		grading.WithLogger(e.logger.Named("grading")))
}

// Grade runs source against every test case of q and returns the full,
// undisclosed summary. Callers that render it must go through results.Publish.
func (e *Engine) Grade(ctx context.Context, q *question.Question, source string) execution.RunSummary {
	return e.Grader(q).RunAll(ctx, source, q.Language, q.TestCases)
}

// GradePublic grades and applies the disclosure policy.
func (e *Engine) GradePublic(ctx context.Context, q *question.Question, source string) results.PublicSummary {
	return results.Publish(e.Grade(ctx, q, source))
}

// NewSession opens an editor session on q.
func (e *Engine) NewSession(id string, q *question.Question, opts ...editor.Option) *editor.Session {
	opts = append([]editor.Option{editor.WithLogger(e.logger.Named("editor"))}, opts...)
	return editor.NewSession(id, q, e.Sandbox, e.Grader(q), e.Timeout(q), opts...)
}

// Question looks up a question by id.
func (e *Engine) Question(id string) (*question.Question, error) {
	q, ok := e.Questions.Get(id)
	if !ok {
		return nil, fmt.Errorf("question %q: %w", id, ErrQuestionNotFound)
	}
	return q, nil
}
