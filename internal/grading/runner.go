// Package grading runs a submission against a question's test cases and
// produces one verdict per case.
package grading

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/execution"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/sandbox"
)

// missingExpectation is recorded on verdicts whose test case has no expected output.
const missingExpectation = "test case has no expected output"

// Runner grades submissions through a sandbox.
type Runner struct {
	sandbox sandbox.Runner
	timeout time.Duration
	delay   time.Duration
	logger  *zap.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithDelay pauses between cases.
func WithDelay(d time.Duration) Option {
	return func(r *Runner) { r.delay = d }
}

// WithLogger sets the runner's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner creates a Runner whose executions are each limited to timeout.
func NewRunner(sb sandbox.Runner, timeout time.Duration, opts ...Option) *Runner {
	r := &Runner{
		sandbox: sb,
		timeout: timeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunAll executes source once per test case, strictly in order, and never
// stops early: a case that errors or times out fails on its own and the
// remaining cases still run.
func (r *Runner) RunAll(ctx context.Context, source string, lang execution.Language, cases []execution.TestCase) execution.RunSummary {
	summary := execution.RunSummary{
		TotalCases: len(cases),
		Verdicts:   make([]execution.Verdict, 0, len(cases)),
	}

	for i, tc := range cases {
		if i > 0 && r.delay > 0 {
			select {
			case <-time.After(r.delay):
			case <-ctx.Done():
			}
		}

		result := r.sandbox.Run(ctx, execution.Request{
			Language: lang,
			Source:   source,
			Stdin:    tc.Input,
		}, r.timeout)

		verdict := Judge(i, tc, result)
		if verdict.Passed {
			summary.PassedCases++
		}
		summary.Verdicts = append(summary.Verdicts, verdict)
	}

	r.logger.Debug("graded submission",
		zap.String("language", string(lang)),
		zap.Int("passed", summary.PassedCases),
		zap.Int("total", summary.TotalCases))
	return summary
}

// Judge turns one execution result into a verdict for the case at index.
func Judge(index int, tc execution.TestCase, result execution.Result) execution.Verdict {
	verdict := execution.Verdict{
		CaseIndex:      index,
		ActualOutput:   result.Stdout,
		ExpectedOutput: tc.ExpectedOutput,
		InputEchoed:    tc.Input,
		Description:    tc.Description,
		Error:          result.Error,
		WallTime:       result.WallTime,
	}

	if result.Error != nil {
		verdict.ActualOutput = result.Error.String()
		return verdict
	}
	if strings.TrimSpace(tc.ExpectedOutput) == "" {
		verdict.Error = &execution.ErrorInfo{
			Kind:    execution.KindConfiguration,
			Message: missingExpectation,
		}
		return verdict
	}
	verdict.Passed = Matches(tc.ExpectedOutput, result.Stdout)
	return verdict
}

// Matches compares outputs after trimming leading and trailing whitespace.
// Anything else, including interior whitespace and line endings, must match
// exactly.
func Matches(expected, actual string) bool {
	return strings.TrimSpace(expected) == strings.TrimSpace(actual)
}
