package execution

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		in   string
		want Language
	}{
		{"python", LanguagePython},
		{"Py", LanguagePython},
		{"python3", LanguagePython},
		{" js ", LanguageJavaScript},
		{"node", LanguageJavaScript},
		{"bash", LanguageShell},
		{"sh", LanguageShell},
	}
	for _, tt := range tests {
		got, err := ParseLanguage(tt.in)
		if err != nil {
			t.Errorf("ParseLanguage(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLanguage(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}

	if _, err := ParseLanguage("cobol"); !errors.Is(err, ErrUnknownLanguage) {
		t.Errorf("ParseLanguage(cobol) err = %v, want ErrUnknownLanguage", err)
	}
}

func TestResultJSON(t *testing.T) {
	data, err := json.Marshal(Result{Stdout: "hi\n", WallTime: 1500 * time.Millisecond})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if got, want := string(data), `{"stdout":"hi\n","error":null,"wall_time_ms":1500}`; got != want {
		t.Errorf("json = %s, want %s", got, want)
	}

	data, err = json.Marshal(Failed(KindTimeout, "execution exceeded 1s"))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if got, want := string(data), `{"stdout":"","error":{"kind":"Timeout","message":"execution exceeded 1s"},"wall_time_ms":0}`; got != want {
		t.Errorf("json = %s, want %s", got, want)
	}
}

func TestErrorInfoString(t *testing.T) {
	var nilInfo *ErrorInfo
	if nilInfo.String() != "" {
		t.Error("nil ErrorInfo renders non-empty")
	}
	info := &ErrorInfo{Kind: KindBusy, Message: "python runtime is still busy"}
	if got := info.String(); got != "Busy: python runtime is still busy" {
		t.Errorf("String() = %q", got)
	}
}
