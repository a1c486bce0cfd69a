// Package sandbox executes untrusted snippets against the provisioned
// interpreters. It is the single place where every failure is turned into an
// execution.Result; nothing escapes Run as a Go error or panic.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/execution"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/runtime"
)

// Runner runs one snippet.
type Runner interface {
	Run(ctx context.Context, req execution.Request, timeout time.Duration) execution.Result
}

// Provisioner hands out ready interpreters.
type Provisioner interface {
	EnsureReady(ctx context.Context, lang execution.Language) (runtime.Interpreter, error)
}

// Sandbox runs snippets one at a time per language.
type Sandbox struct {
	Policy Policy

	provisioner Provisioner
	logger      *zap.Logger

	mu    sync.Mutex
	locks map[execution.Language]*semaphore.Weighted
}

// New creates a sandbox with the given policy.
func New(provisioner Provisioner, policy Policy, logger *zap.Logger) *Sandbox {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sandbox{
		Policy:      policy,
		provisioner: provisioner,
		logger:      logger,
		locks:       make(map[execution.Language]*semaphore.Weighted),
	}
}

// Run executes req and returns once it finishes, fails, or exceeds timeout.
//
// The timeout, capped by Policy.MaxTimeout, covers both the wait for the
// language's run lock and the run itself. On timeout the caller is released
// immediately and the program is asked to stop through its context. The run
// lock stays held until the interpreter actually returns, so a later Run on
// the same language either waits for it or, once its own timeout has passed
// in the queue, reports execution.KindBusy.
func (s *Sandbox) Run(ctx context.Context, req execution.Request, timeout time.Duration) execution.Result {
	start := time.Now()
	result := s.run(ctx, req, timeout)
	result.WallTime = time.Since(start)

	fields := []zap.Field{
		zap.String("language", string(req.Language)),
		zap.Duration("wall_time", result.WallTime),
		zap.Int("stdout_bytes", len(result.Stdout)),
	}
	if result.Error != nil {
		fields = append(fields, zap.String("error_kind", string(result.Error.Kind)))
	}
	s.logger.Debug("execution finished", fields...)
	return result
}

func (s *Sandbox) run(ctx context.Context, req execution.Request, timeout time.Duration) execution.Result {
	timeout = s.Policy.Clamp(timeout)
	if !s.Policy.IsLanguageAllowed(req.Language) {
		return execution.Failed(execution.KindConfiguration,
			fmt.Sprintf("language %q is not enabled", req.Language))
	}

	in, err := s.provisioner.EnsureReady(ctx, req.Language)
	if err != nil {
		return execution.Failed(execution.KindProvision, err.Error())
	}

	// Waiting for the lock and running share one deadline.
	deadline := time.Now().Add(timeout)

	lock := s.lockFor(req.Language)
	lockCtx, cancelLock := context.WithDeadline(ctx, deadline)
	err = lock.Acquire(lockCtx, 1)
	cancelLock()
	if err != nil {
		if ctx.Err() != nil {
			return execution.Failed(execution.KindCanceled, ctx.Err().Error())
		}
		return execution.Failed(execution.KindBusy,
			fmt.Sprintf("%s runtime is still busy with a previous run", req.Language))
	}

	stdout := newCappedBuffer(s.Policy.MaxOutputBytes)
	stderr := newCappedBuffer(s.Policy.MaxOutputBytes)

	execCtx, cancelExec := context.WithCancel(ctx)
	defer cancelExec()

	done := make(chan error, 1)
	go func() {
		defer lock.Release(1)
		done <- s.execute(execCtx, in, req, stdout, stderr)
	}()

	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	select {
	case err := <-done:
		return classify(err, stdout.String(), stderr.String(), timeout)
	case <-timer.C:
		cancelExec()
		s.logger.Warn("execution timed out",
			zap.String("language", string(req.Language)),
			zap.Duration("timeout", timeout))
		return execution.Result{
			Stdout: stdout.String(),
			Error:  timeoutError(timeout),
		}
	case <-ctx.Done():
		cancelExec()
		return execution.Result{
			Stdout: stdout.String(),
			Error:  &execution.ErrorInfo{Kind: execution.KindCanceled, Message: ctx.Err().Error()},
		}
	}
}

// execute runs one program with the interpreter reset beforehand. Panics from
// the backend are reported as program errors.
func (s *Sandbox) execute(ctx context.Context, in runtime.Interpreter, req execution.Request, stdout, stderr *cappedBuffer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("interpreter panic",
				zap.String("language", string(req.Language)),
				zap.Any("panic", r))
			err = &runtime.ProgramError{Message: fmt.Sprintf("interpreter panic: %v", r)}
		}
	}()

	if err := in.Reset(); err != nil {
		return fmt.Errorf("resetting %s interpreter: %w", req.Language, err)
	}
	return in.Exec(ctx, req.Source, strings.NewReader(req.Stdin), stdout, stderr)
}

func classify(err error, stdout, stderr string, timeout time.Duration) execution.Result {
	result := execution.Result{Stdout: stdout}
	if err == nil {
		return result
	}

	var progErr *runtime.ProgramError
	switch {
	case errors.As(err, &progErr):
		detail := progErr.Detail
		if detail == "" {
			detail = stderr
		}
		result.Error = &execution.ErrorInfo{
			Kind:    execution.KindRuntime,
			Message: progErr.Message,
			Detail:  detail,
		}
	case errors.Is(err, context.DeadlineExceeded):
		result.Error = timeoutError(timeout)
	case errors.Is(err, context.Canceled):
		result.Error = &execution.ErrorInfo{Kind: execution.KindCanceled, Message: err.Error()}
	default:
		result.Error = &execution.ErrorInfo{
			Kind:    execution.KindRuntime,
			Message: err.Error(),
			Detail:  stderr,
		}
	}
	return result
}

func timeoutError(timeout time.Duration) *execution.ErrorInfo {
	return &execution.ErrorInfo{
		Kind:    execution.KindTimeout,
		Message: fmt.Sprintf("execution exceeded %s", timeout),
	}
}

func (s *Sandbox) lockFor(lang execution.Language) *semaphore.Weighted {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[lang]
	if !ok {
		lock = semaphore.NewWeighted(1)
		s.locks[lang] = lock
	}
	return lock
}
