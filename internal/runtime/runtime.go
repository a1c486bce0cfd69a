// Package runtime defines the contract between the sandbox and the
// language interpreters it drives.
package runtime

import (
	"context"
	"io"
	"strings"

	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/execution"
)

// Interpreter is a loaded language runtime. Implementations are not safe for
// concurrent use; callers serialize access.
type Interpreter interface {
	// Reset clears any state left behind by a previous Exec.
	Reset() error

	// Exec runs src with the given streams attached for the duration of the call.
	// Program failures are reported as *ProgramError. Exec returns once ctx is
	// done if the backend can stop the program.
	Exec(ctx context.Context, src string, stdin io.Reader, stdout, stderr io.Writer) error
}

// Backend loads the interpreter for one language.
type Backend interface {
	Language() execution.Language
	Load(ctx context.Context) (Interpreter, error)
}

// ProgramError is an error raised by the submitted program itself.
type ProgramError struct {
	Message string
	// Detail holds diagnostics such as a traceback or captured stderr.
	Detail string
}

func (e *ProgramError) Error() string {
	return e.Message
}

// LastLine returns the last non-blank line of s, which for most interpreters is
// the most useful summary of an error report.
func LastLine(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
