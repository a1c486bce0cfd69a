package execution

import (
	"time"
)

// TestCase is an input/expected-output pair supplied by a question.
// Index 0 of a question's cases is the sample case; the rest are hidden.
type TestCase struct {
	Input          string `json:"input" yaml:"input"`
	ExpectedOutput string `json:"expected_output" yaml:"expected_output"`
	Description    string `json:"description,omitempty" yaml:"description"`
}

// Verdict is the graded outcome of one TestCase.
type Verdict struct {
	CaseIndex      int
	Passed         bool
	ActualOutput   string
	ExpectedOutput string
	InputEchoed    string
	Description    string
	// Error is set when the case could not be judged on output alone.
	Error    *ErrorInfo
	WallTime time.Duration
}

// Sample reports whether the verdict belongs to the sample case.
func (v Verdict) Sample() bool {
	return v.CaseIndex == 0
}

// RunSummary collects the verdicts of one graded run, in case order.
type RunSummary struct {
	TotalCases  int
	PassedCases int
	Verdicts    []Verdict
}
