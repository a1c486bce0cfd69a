// Package results applies the disclosure policy to graded runs. It is the only
// code that reads the detail fields of hidden verdicts; everything that renders
// or forwards results works on a PublicSummary.
package results

import (
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/execution"
)

// PublicVerdict is what a candidate may see about one test case. The detail
// fields are only set for the sample case and are omitted entirely otherwise.
type PublicVerdict struct {
	Passed      bool    `json:"passed"`
	Description string  `json:"description"`
	Input       *string `json:"input,omitempty"`
	Expected    *string `json:"expected,omitempty"`
	Actual      *string `json:"actual,omitempty"`
}

// Detailed reports whether the verdict carries input/expected/actual.
func (v PublicVerdict) Detailed() bool {
	return v.Input != nil
}

// PublicSummary is the renderable form of an execution.RunSummary.
type PublicSummary struct {
	TotalCases  int             `json:"total_cases"`
	PassedCases int             `json:"passed_cases"`
	PerCase     []PublicVerdict `json:"per_case"`
}

// AllPassed reports whether every case passed. A summary without cases never passes.
func (s PublicSummary) AllPassed() bool {
	return s.TotalCases > 0 && s.PassedCases == s.TotalCases
}

// Publish converts a summary into its public form.
func Publish(summary execution.RunSummary) PublicSummary {
	pub := PublicSummary{
		TotalCases:  summary.TotalCases,
		PassedCases: summary.PassedCases,
		PerCase:     make([]PublicVerdict, len(summary.Verdicts)),
	}
	for i, v := range summary.Verdicts {
		pv := PublicVerdict{
			Passed:      v.Passed,
			Description: v.Description,
		}
		if v.Sample() {
			input, expected, actual := v.InputEchoed, v.ExpectedOutput, v.ActualOutput
			pv.Input, pv.Expected, pv.Actual = &input, &expected, &actual
		}
		pub.PerCase[i] = pv
	}
	return pub
}
