package storage

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/execution"
)

func TestExportMarkdown(t *testing.T) {
	sess := &Session{
		ID:         "s1",
		QuestionID: "sum-two",
		Language:   execution.LanguagePython,
		Status:     StatusActive,
		CreatedAt:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	md := ExportMarkdown(sess, nil, nil)
	for _, want := range []string{"# sum-two", "**Session:** s1", "_No answer saved._", "_Not graded yet._"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}

	md = ExportMarkdown(sess, &Answer{Source: "print(1)\n"}, []Grade{{Passed: 1, Total: 3}})
	if !strings.Contains(md, "```python\nprint(1)\n```") {
		t.Errorf("markdown missing answer block:\n%s", md)
	}
	if !strings.Contains(md, "| 1 | 1 | 3 |") {
		t.Errorf("markdown missing grade row:\n%s", md)
	}
}

func TestExportJSON(t *testing.T) {
	data, err := ExportJSON(&Session{ID: "s1"}, nil, nil)
	if err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	grades, ok := decoded["grades"].([]any)
	if !ok || len(grades) != 0 {
		t.Errorf("grades = %v, want empty array", decoded["grades"])
	}
}
