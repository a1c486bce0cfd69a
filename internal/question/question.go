// Package question loads coding questions from YAML files.
package question

import (
	"fmt"
	"time"

	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/execution"
)

// Question is a coding question as supplied by the question source.
type Question struct {
	ID             string
	Title          string
	Prompt         string
	Language       execution.Language
	SourceTemplate string
	TestCases      []execution.TestCase
	TimeLimit      time.Duration
	// MemoryLimitMB is shown to candidates but not enforced.
	MemoryLimitMB int
	// Problems lists test cases that were malformed at load time. Those cases
	// are kept and always fail.
	Problems []string
}

// Timeout returns the per-execution time limit, or fallback when the question
// does not set one.
func (q *Question) Timeout(fallback time.Duration) time.Duration {
	if q.TimeLimit > 0 {
		return q.TimeLimit
	}
	return fallback
}

// Public is the candidate-facing view of a question. Only the sample test
// case is included.
type Public struct {
	ID               string              `json:"id"`
	Title            string              `json:"title"`
	Prompt           string              `json:"prompt"`
	Language         execution.Language  `json:"language"`
	SourceTemplate   string              `json:"source_template"`
	TimeLimitSeconds float64             `json:"time_limit_seconds"`
	MemoryLimitMB    int                 `json:"memory_limit_mb"`
	TotalCases       int                 `json:"total_cases"`
	Sample           *execution.TestCase `json:"sample,omitempty"`
}

// Public returns the candidate-facing view.
func (q *Question) Public() Public {
	p := Public{
		ID:               q.ID,
		Title:            q.Title,
		Prompt:           q.Prompt,
		Language:         q.Language,
		SourceTemplate:   q.SourceTemplate,
		TimeLimitSeconds: q.TimeLimit.Seconds(),
		MemoryLimitMB:    q.MemoryLimitMB,
		TotalCases:       len(q.TestCases),
	}
	if len(q.TestCases) > 0 {
		sample := q.TestCases[0]
		p.Sample = &sample
	}
	return p
}

// Scratch builds an ad hoc question with no test cases, for plain runs.
func Scratch(lang execution.Language, source string) *Question {
	return &Question{
		ID:             fmt.Sprintf("scratch-%s", lang),
		Title:          "Scratch",
		Language:       lang,
		SourceTemplate: source,
	}
}
