package python

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/runtime"
)

func load(t *testing.T) runtime.Interpreter {
	t.Helper()
	if _, err := exec.LookPath(DefaultBinary); err != nil {
		t.Skip("python3 not installed")
	}
	in, err := Backend{}.Load(context.Background())
	if err != nil {
		t.Skipf("python3 unusable: %v", err)
	}
	return in
}

func TestExec(t *testing.T) {
	in := load(t)
	tests := []struct {
		name, src, stdin, want string
	}{
		{"print", "print('hello')", "", "hello\n"},
		{"stdin", "a, b = map(int, input().split())\nprint(a + b)", "3 4\n", "7\n"},
		{"read all", "import sys\nprint(len(sys.stdin.read().split()))", "a b c", "3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout bytes.Buffer
			err := in.Exec(context.Background(), tt.src, strings.NewReader(tt.stdin), &stdout, nil)
			if err != nil {
				t.Fatalf("Exec: %v", err)
			}
			if stdout.String() != tt.want {
				t.Errorf("stdout = %q, want %q", stdout.String(), tt.want)
			}
		})
	}
}

func TestExecProgramError(t *testing.T) {
	in := load(t)
	err := in.Exec(context.Background(), "print(1 // 0)", nil, nil, nil)
	var progErr *runtime.ProgramError
	if !errors.As(err, &progErr) {
		t.Fatalf("err = %v, want *ProgramError", err)
	}
	if !strings.HasPrefix(progErr.Message, "ZeroDivisionError") {
		t.Errorf("Message = %q", progErr.Message)
	}
	if !strings.Contains(progErr.Detail, "Traceback") {
		t.Errorf("Detail = %q, want traceback", progErr.Detail)
	}
}

func TestExecConfined(t *testing.T) {
	in := load(t)
	target := filepath.Join(t.TempDir(), "written")
	tests := []struct {
		name, src, want string
	}{
		{"read host file", "print(open('/etc/passwd').read())", "open is not permitted"},
		{"write file", "open(" + strconv.Quote(target) + ", 'w').write('x')", "open is not permitted"},
		{"list directory", "import os\nprint(os.listdir('/'))", "os.listdir is not permitted"},
		{"subprocess", "import subprocess\nsubprocess.run(['/bin/echo', 'spawned'])", "subprocess.Popen is not permitted"},
		{"os.system", "import os\nos.system('echo spawned')", "os.system is not permitted"},
		{"socket", "import socket\nsocket.socket()", "socket.__new__ is not permitted"},
		{"ctypes", "import ctypes\nctypes.CDLL(None)", "ctypes.dlopen is not permitted"},
		{"remove", "import os\nos.remove(" + strconv.Quote(target) + ")", "os.remove is not permitted"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout bytes.Buffer
			err := in.Exec(context.Background(), tt.src, nil, &stdout, nil)
			var progErr *runtime.ProgramError
			if !errors.As(err, &progErr) {
				t.Fatalf("err = %v (%T), want *ProgramError", err, err)
			}
			if progErr.Message != "PermissionError: "+tt.want {
				t.Errorf("Message = %q, want %q", progErr.Message, tt.want)
			}
			if strings.Contains(stdout.String(), "spawned") {
				t.Errorf("process ran: %q", stdout.String())
			}
		})
	}
	if _, err := os.Stat(target); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("file was written: %v", err)
	}
}

func TestExecConfinedAllowsStdlib(t *testing.T) {
	in := load(t)
	src := "import json, collections, math, random, re, itertools, heapq\n" +
		"counts = collections.Counter(input().split())\n" +
		"print(json.dumps(sorted(counts.items())), math.isqrt(17))"
	var stdout bytes.Buffer
	if err := in.Exec(context.Background(), src, strings.NewReader("b a b\n"), &stdout, nil); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if want := `[["a", 1], ["b", 2]] 4` + "\n"; stdout.String() != want {
		t.Errorf("stdout = %q, want %q", stdout.String(), want)
	}
}

func TestSupported(t *testing.T) {
	tests := []struct {
		version string
		want    bool
	}{
		{"Python 3.12.3", true},
		{"Python 3.8.10", true},
		{"Python 3.14.0a1", true},
		{"Python 3.7.17", false},
		{"Python 2.7.18", false},
		{"pypy", false},
	}
	for _, tt := range tests {
		if got := supported(tt.version); got != tt.want {
			t.Errorf("supported(%q) = %v, want %v", tt.version, got, tt.want)
		}
	}
}

func TestExecIsolated(t *testing.T) {
	in := load(t)
	if err := in.Exec(context.Background(), "leak = 1", nil, nil, nil); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	var stdout bytes.Buffer
	if err := in.Exec(context.Background(), "print('leak' in globals())", nil, &stdout, nil); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if stdout.String() != "False\n" {
		t.Errorf("globals leaked: %q", stdout.String())
	}
}

func TestExecTimeout(t *testing.T) {
	in := load(t)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := in.Exec(ctx, "while True: pass", nil, nil, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want DeadlineExceeded", err)
	}
}
