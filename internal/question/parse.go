package question

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/execution"
)

// document is the on-disk shape of a question. Test cases are kept loosely
// typed and normalized by parseTestCase.
type document struct {
	ID               string           `yaml:"id"`
	Title            string           `yaml:"title"`
	Prompt           string           `yaml:"prompt"`
	Language         string           `yaml:"language"`
	SourceTemplate   string           `yaml:"source_template"`
	TimeLimitSeconds float64          `yaml:"time_limit_seconds"`
	MemoryLimitMB    int              `yaml:"memory_limit_mb"`
	TestCases        []map[string]any `yaml:"test_cases"`
}

var expectedKeys = []string{"expected_output", "expectedOutput", "expected", "output"}

// Parse decodes one YAML question document.
func Parse(data []byte) (*Question, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding question: %w", err)
	}

	if strings.TrimSpace(doc.ID) == "" {
		return nil, errors.New("question has no id")
	}
	lang, err := execution.ParseLanguage(doc.Language)
	if err != nil {
		return nil, fmt.Errorf("question %s: %w", doc.ID, err)
	}
	if doc.TimeLimitSeconds < 0 {
		return nil, fmt.Errorf("question %s: negative time limit", doc.ID)
	}

	q := &Question{
		ID:             doc.ID,
		Title:          doc.Title,
		Prompt:         doc.Prompt,
		Language:       lang,
		SourceTemplate: doc.SourceTemplate,
		TimeLimit:      time.Duration(doc.TimeLimitSeconds * float64(time.Second)),
		MemoryLimitMB:  doc.MemoryLimitMB,
		TestCases:      make([]execution.TestCase, 0, len(doc.TestCases)),
	}
	for i, raw := range doc.TestCases {
		tc, problem := parseTestCase(raw)
		if problem != "" {
			q.Problems = append(q.Problems, fmt.Sprintf("test case %d: %s", i, problem))
		}
		q.TestCases = append(q.TestCases, tc)
	}
	return q, nil
}

// parseTestCase maps a loosely typed test case onto execution.TestCase.
// Scalars of any type are rendered as strings. A case without a usable
// expected output is returned with an empty ExpectedOutput, which grading
// treats as an automatic failure, along with a description of the problem.
func parseTestCase(raw map[string]any) (execution.TestCase, string) {
	var tc execution.TestCase
	var problems []string

	input, err := scalar(raw["input"])
	if err != nil {
		problems = append(problems, "input: "+err.Error())
	}
	tc.Input = input

	desc, err := scalar(raw["description"])
	if err != nil {
		problems = append(problems, "description: "+err.Error())
	}
	tc.Description = desc

	found := false
	for _, key := range expectedKeys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		found = true
		expected, err := scalar(v)
		if err != nil {
			problems = append(problems, key+": "+err.Error())
			break
		}
		tc.ExpectedOutput = expected
		break
	}
	if !found {
		problems = append(problems, "missing expected output")
	} else if strings.TrimSpace(tc.ExpectedOutput) == "" && len(problems) == 0 {
		problems = append(problems, "empty expected output")
	}

	return tc, strings.Join(problems, "; ")
}

func scalar(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case uint64:
		return strconv.FormatUint(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(x), nil
	case []any:
		lines := make([]string, len(x))
		for i, item := range x {
			s, err := scalar(item)
			if err != nil {
				return "", err
			}
			lines[i] = s
		}
		return strings.Join(lines, "\n"), nil
	default:
		return "", fmt.Errorf("unsupported value of type %T", v)
	}
}
