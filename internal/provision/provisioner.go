// Package provision owns the process-wide interpreter singletons. Each
// language's interpreter is loaded lazily on first use and kept for the
// lifetime of the process.
package provision

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/execution"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/runtime"
)

// DefaultLoadTimeout bounds a single interpreter load.
const DefaultLoadTimeout = 30 * time.Second

// State is the readiness of a language's interpreter.
type State string

const (
	StateNotLoaded State = "not_loaded"
	StateLoading   State = "loading"
	StateReady     State = "ready"
)

// Error reports that an interpreter could not be made ready. A failed load
// leaves the language not loaded, so the next call retries.
type Error struct {
	Language execution.Language
	Cause    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s runtime unavailable: %v", e.Language, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Provisioner loads interpreters on demand and caches them.
type Provisioner struct {
	backends    map[execution.Language]runtime.Backend
	loadTimeout time.Duration
	logger      *zap.Logger
	group       singleflight.Group

	mu      sync.RWMutex
	ready   map[execution.Language]runtime.Interpreter
	loading map[execution.Language]bool
}

// Option configures a Provisioner.
type Option func(*Provisioner)

// WithLoadTimeout overrides DefaultLoadTimeout.
func WithLoadTimeout(d time.Duration) Option {
	return func(p *Provisioner) {
		if d > 0 {
			p.loadTimeout = d
		}
	}
}

// WithLogger sets the logger used for load events.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Provisioner) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a Provisioner for the given backends. Later backends for the
// same language replace earlier ones.
func New(backends []runtime.Backend, opts ...Option) *Provisioner {
	p := &Provisioner{
		backends:    make(map[execution.Language]runtime.Backend, len(backends)),
		loadTimeout: DefaultLoadTimeout,
		logger:      zap.NewNop(),
		ready:       make(map[execution.Language]runtime.Interpreter),
		loading:     make(map[execution.Language]bool),
	}
	for _, b := range backends {
		p.backends[b.Language()] = b
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Languages returns the languages this provisioner has a backend for.
func (p *Provisioner) Languages() []execution.Language {
	var langs []execution.Language
	for _, lang := range execution.Languages() {
		if _, ok := p.backends[lang]; ok {
			langs = append(langs, lang)
		}
	}
	return langs
}

// State reports the current readiness of lang.
func (p *Provisioner) State(lang execution.Language) State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if _, ok := p.ready[lang]; ok {
		return StateReady
	}
	if p.loading[lang] {
		return StateLoading
	}
	return StateNotLoaded
}

// EnsureReady returns the interpreter for lang, loading it if necessary.
// Concurrent callers share a single in-flight load.
func (p *Provisioner) EnsureReady(ctx context.Context, lang execution.Language) (runtime.Interpreter, error) {
	if in, ok := p.cached(lang); ok {
		return in, nil
	}

	backend, ok := p.backends[lang]
	if !ok {
		return nil, &Error{Language: lang, Cause: execution.ErrUnknownLanguage}
	}

	// The load outlives any single caller: one caller giving up must not fail
	// the load for everyone else waiting on it.
	loadCtx := context.WithoutCancel(ctx)
	ch := p.group.DoChan(string(lang), func() (any, error) {
		return p.load(loadCtx, backend)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, &Error{Language: lang, Cause: res.Err}
		}
		return res.Val.(runtime.Interpreter), nil
	case <-ctx.Done():
		return nil, &Error{Language: lang, Cause: ctx.Err()}
	}
}

func (p *Provisioner) load(ctx context.Context, backend runtime.Backend) (runtime.Interpreter, error) {
	lang := backend.Language()
	if in, ok := p.cached(lang); ok {
		return in, nil
	}

	p.setLoading(lang, true)
	defer p.setLoading(lang, false)

	ctx, cancel := context.WithTimeout(ctx, p.loadTimeout)
	defer cancel()

	start := time.Now()
	in, err := backend.Load(ctx)
	if err != nil {
		p.logger.Warn("interpreter load failed",
			zap.String("language", string(lang)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, err
	}
	if in == nil {
		return nil, fmt.Errorf("backend returned no interpreter")
	}

	p.mu.Lock()
	p.ready[lang] = in
	p.mu.Unlock()

	p.logger.Info("interpreter ready",
		zap.String("language", string(lang)),
		zap.Duration("elapsed", time.Since(start)))
	return in, nil
}

func (p *Provisioner) cached(lang execution.Language) (runtime.Interpreter, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	in, ok := p.ready[lang]
	return in, ok
}

func (p *Provisioner) setLoading(lang execution.Language, loading bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if loading {
		p.loading[lang] = true
	} else {
		delete(p.loading, lang)
	}
}
