package execution

import (
	"encoding/json"
	"time"
)

// ErrorKind classifies why an execution did not produce an authoritative stdout.
type ErrorKind string

const (
	KindProvision     ErrorKind = "ProvisionError"
	KindTimeout       ErrorKind = "Timeout"
	KindRuntime       ErrorKind = "RuntimeError"
	KindConfiguration ErrorKind = "ConfigurationError"
	// KindBusy means the interpreter is still occupied by an abandoned run.
	KindBusy ErrorKind = "Busy"
	// KindCanceled means the caller's context ended before the run finished.
	KindCanceled ErrorKind = "Canceled"
)

// ErrorInfo describes a failed execution.
type ErrorInfo struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Detail  string    `json:"detail,omitempty"`
}

func (e *ErrorInfo) String() string {
	if e == nil {
		return ""
	}
	return string(e.Kind) + ": " + e.Message
}

// Request is a single execution of a snippet. It is built per invocation.
type Request struct {
	Language Language `json:"language"`
	Source   string   `json:"source"`
	// Stdin is the program's whole input stream. Empty input reads as EOF.
	Stdin string `json:"stdin,omitempty"`
}

// Result is the outcome of one Request.
//
// Stdout is always set, even when Error is non-nil, so that callers can compare
// output without nil checks. When Error is non-nil it is the authoritative outcome.
type Result struct {
	Stdout   string        `json:"stdout"`
	Error    *ErrorInfo    `json:"error"`
	WallTime time.Duration `json:"-"`
}

// OK reports whether the execution finished without error.
func (r Result) OK() bool {
	return r.Error == nil
}

// MarshalJSON renders WallTime as whole milliseconds.
func (r Result) MarshalJSON() ([]byte, error) {
	type alias Result
	return json.Marshal(struct {
		alias
		WallTimeMs int64 `json:"wall_time_ms"`
	}{
		alias:      alias(r),
		WallTimeMs: r.WallTime.Milliseconds(),
	})
}

// Failed builds a Result carrying only an error.
func Failed(kind ErrorKind, message string) Result {
	return Result{Error: &ErrorInfo{Kind: kind, Message: message}}
}
