package natshandler

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/config"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/engine"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/execution"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/question"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/runtime"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/runtime/javascript"
)

func testHandler(t *testing.T) *Handler {
	t.Helper()
	bank := question.NewBank(&question.Question{
		ID:       "upper",
		Language: execution.LanguageJavaScript,
		TestCases: []execution.TestCase{
			{Input: "abc", ExpectedOutput: "ABC"},
			{Input: "hidden", ExpectedOutput: "HIDDEN"},
		},
	})
	eng := engine.NewWith(config.Default(), []runtime.Backend{javascript.Backend{}}, bank, nil)
	return New(eng, nil)
}

func TestHandleRunCapsTimeout(t *testing.T) {
	cfg := config.Default()
	cfg.Runtime.DefaultTimeout = 50 * time.Millisecond
	cfg.Runtime.MaxTimeout = 100 * time.Millisecond
	h := New(engine.NewWith(cfg, []runtime.Backend{javascript.Backend{}}, nil, nil), nil)

	start := time.Now()
	data := h.HandleRun(context.Background(), []byte(`{"language":"js","code":"for(;;){}","timeout_ms":86400000}`))
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("request held the worker for %v", elapsed)
	}

	var reply RunReply
	if err := json.Unmarshal(data, &reply); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if reply.Result == nil || reply.Result.Error == nil || reply.Result.Error.Kind != execution.KindTimeout {
		t.Fatalf("reply = %+v, want Timeout", reply)
	}
	if reply.Result.Error.Message != "execution exceeded 100ms" {
		t.Errorf("Message = %q", reply.Result.Error.Message)
	}
}

func TestSubjects(t *testing.T) {
	if got := RunSubject("assess"); got != "assess.run.request" {
		t.Errorf("RunSubject = %q", got)
	}
	if got := GradeSubject("assess"); got != "assess.grade.request" {
		t.Errorf("GradeSubject = %q", got)
	}
}

func TestHandleRun(t *testing.T) {
	h := testHandler(t)
	tests := []struct {
		name      string
		body      string
		wantOut   string
		wantKind  execution.ErrorKind
		wantError string
	}{
		{"ok", `{"language":"js","code":"console.log(readline())","stdin":"hey"}`, "hey\n", "", ""},
		{"runtime error", `{"language":"js","code":"null.x"}`, "", execution.KindRuntime, ""},
		{"timeout", `{"language":"js","code":"for(;;){}","timeout_ms":50}`, "", execution.KindTimeout, ""},
		{"no backend", `{"language":"bash","code":"echo"}`, "", execution.KindProvision, ""},
		{"unknown language", `{"language":"cobol","code":"x"}`, "", "", "unknown language"},
		{"bad json", `{`, "", "", "invalid request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var reply RunReply
			if err := json.Unmarshal(h.HandleRun(context.Background(), []byte(tt.body)), &reply); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if tt.wantError != "" {
				if !strings.Contains(reply.Error, tt.wantError) {
					t.Errorf("Error = %q, want %q", reply.Error, tt.wantError)
				}
				return
			}
			if reply.Result == nil {
				t.Fatalf("no result, error %q", reply.Error)
			}
			if reply.Result.Stdout != tt.wantOut {
				t.Errorf("Stdout = %q, want %q", reply.Result.Stdout, tt.wantOut)
			}
			var kind execution.ErrorKind
			if reply.Result.Error != nil {
				kind = reply.Result.Error.Kind
			}
			if kind != tt.wantKind {
				t.Errorf("kind = %q, want %q", kind, tt.wantKind)
			}
		})
	}
}

func TestHandleGrade(t *testing.T) {
	h := testHandler(t)
	data := h.HandleGrade(context.Background(), []byte(`{"question_id":"upper","code":"console.log(readline().toUpperCase())"}`))
	if strings.Contains(string(data), "HIDDEN") || strings.Contains(string(data), "hidden") {
		t.Errorf("reply leaks hidden case: %s", data)
	}

	var reply GradeReply
	if err := json.Unmarshal(data, &reply); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if reply.Summary == nil || reply.Summary.PassedCases != 2 {
		t.Fatalf("reply = %s", data)
	}
	if !reply.Summary.PerCase[0].Detailed() {
		t.Error("sample case should be detailed")
	}

	data = h.HandleGrade(context.Background(), []byte(`{"question_id":"nope","code":"x"}`))
	if err := json.Unmarshal(data, &reply); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !strings.Contains(reply.Error, "question not found") {
		t.Errorf("Error = %q", reply.Error)
	}
}
