package sandbox

import (
	"time"

	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/execution"
)

// Policy defines the limits applied to every execution.
type Policy struct {
	DefaultTimeout time.Duration        // Used when a run does not specify a timeout
	MaxTimeout     time.Duration        // Upper bound on any requested timeout; zero means no cap
	MaxOutputBytes int                  // Cap on captured stdout and stderr, each
	MemoryLimitMB  int                  // Advisory only; reported, never enforced
	Languages      []execution.Language // Languages allowed to run
}

// DefaultPolicy returns safe defaults for code execution.
func DefaultPolicy() Policy {
	return Policy{
		DefaultTimeout: 5 * time.Second,
		MaxTimeout:     30 * time.Second,
		MaxOutputBytes: 1 << 20,
		Languages:      execution.Languages(),
	}
}

// Clamp resolves a requested timeout: non-positive values fall back to
// DefaultTimeout and anything above MaxTimeout is capped.
func (p Policy) Clamp(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		timeout = p.DefaultTimeout
	}
	if p.MaxTimeout > 0 && timeout > p.MaxTimeout {
		timeout = p.MaxTimeout
	}
	return timeout
}

// IsLanguageAllowed checks if a language is on the allowlist.
func (p Policy) IsLanguageAllowed(lang execution.Language) bool {
	for _, allowed := range p.Languages {
		if allowed == lang {
			return true
		}
	}
	return false
}
