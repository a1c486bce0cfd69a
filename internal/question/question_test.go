package question

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/execution"
)

const sumQuestion = `
id: sum-two
title: Sum two numbers
prompt: Read two integers and print their sum.
language: py
source_template: |
  a, b = map(int, input().split())
time_limit_seconds: 2.5
memory_limit_mb: 64
test_cases:
  - input: "1 2"
    expected_output: 3
    description: small numbers
  - input: "10 -4"
    expectedOutput: "6"
  - input: "0 0"
    output: 0
  - input: "5 5"
    description: no expectation
  - input: "true"
    expected: true
`

func TestParse(t *testing.T) {
	q, err := Parse([]byte(sumQuestion))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if q.ID != "sum-two" {
		t.Errorf("ID = %q", q.ID)
	}
	if q.Language != execution.LanguagePython {
		t.Errorf("Language = %q, want python", q.Language)
	}
	if q.TimeLimit != 2500*time.Millisecond {
		t.Errorf("TimeLimit = %v", q.TimeLimit)
	}
	if q.MemoryLimitMB != 64 {
		t.Errorf("MemoryLimitMB = %d", q.MemoryLimitMB)
	}
	if len(q.TestCases) != 5 {
		t.Fatalf("got %d test cases, want 5", len(q.TestCases))
	}

	wantExpected := []string{"3", "6", "0", "", "true"}
	for i, want := range wantExpected {
		if got := q.TestCases[i].ExpectedOutput; got != want {
			t.Errorf("case %d ExpectedOutput = %q, want %q", i, got, want)
		}
	}
	if q.TestCases[0].Description != "small numbers" {
		t.Errorf("case 0 Description = %q", q.TestCases[0].Description)
	}

	if len(q.Problems) != 1 || !strings.Contains(q.Problems[0], "test case 3") {
		t.Errorf("Problems = %v, want one entry for case 3", q.Problems)
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"no id", "title: x\nlanguage: js\n"},
		{"unknown language", "id: a\nlanguage: cobol\n"},
		{"negative limit", "id: a\nlanguage: js\ntime_limit_seconds: -1\n"},
		{"bad yaml", "id: [unterminated\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.doc)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseNestedExpectation(t *testing.T) {
	doc := "id: a\nlanguage: js\ntest_cases:\n  - input: x\n    expected_output: {a: 1}\n"
	q, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if q.TestCases[0].ExpectedOutput != "" {
		t.Errorf("ExpectedOutput = %q, want empty", q.TestCases[0].ExpectedOutput)
	}
	if len(q.Problems) != 1 {
		t.Errorf("Problems = %v", q.Problems)
	}
}

func TestTimeout(t *testing.T) {
	q := &Question{}
	if got := q.Timeout(5 * time.Second); got != 5*time.Second {
		t.Errorf("Timeout = %v, want fallback", got)
	}
	q.TimeLimit = time.Second
	if got := q.Timeout(5 * time.Second); got != time.Second {
		t.Errorf("Timeout = %v, want 1s", got)
	}
}

func TestPublicExposesOnlySample(t *testing.T) {
	q, err := Parse([]byte(sumQuestion))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	pub := q.Public()
	if pub.TotalCases != 5 {
		t.Errorf("TotalCases = %d", pub.TotalCases)
	}
	if pub.Sample == nil || pub.Sample.Input != "1 2" {
		t.Fatalf("Sample = %+v", pub.Sample)
	}

	empty := (&Question{ID: "x"}).Public()
	if empty.Sample != nil {
		t.Error("expected no sample for a question without cases")
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
	write("b.yaml", "id: b\nlanguage: js\n")
	write("a.yml", "id: a\nlanguage: sh\n")
	write("notes.txt", "ignored")

	bank, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	list := bank.List()
	if len(list) != 2 || list[0].ID != "a" || list[1].ID != "b" {
		t.Fatalf("List = %v", list)
	}
	if _, ok := bank.Get("a"); !ok {
		t.Error("Get(a) not found")
	}
	if _, ok := bank.Get("missing"); ok {
		t.Error("Get(missing) found")
	}

	write("dup.yaml", "id: a\nlanguage: js\n")
	if _, err := LoadDir(dir); err == nil {
		t.Error("expected duplicate id error")
	}
}

func TestLoadDirMissing(t *testing.T) {
	bank, err := LoadDir(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(bank.List()) != 0 {
		t.Error("expected empty bank")
	}
}
