// Package python runs Python snippets with the system CPython interpreter.
//
// Every Exec starts a fresh interpreter process, so no bindings survive from
// one run to the next, and a timed-out program is killed rather than left
// running. Before the submitted source runs, a bootstrap installs an audit hook
// (PEP 578) that refuses process creation, sockets, ctypes, filesystem
// changes and any file read outside the interpreter's own library paths.
package python

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/execution"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/runtime"
)

// DefaultBinary is looked up on PATH when no binary is configured.
const DefaultBinary = "python3"

// waitDelay bounds how long Exec waits for output pipes after the process is killed.
const waitDelay = time.Second

// Backend provisions the Python interpreter.
type Backend struct {
	Binary string
}

func (b Backend) Language() execution.Language { return execution.LanguagePython }

// Load locates the interpreter binary and checks that it is Python 3.
func (b Backend) Load(ctx context.Context) (runtime.Interpreter, error) {
	binary := b.Binary
	if binary == "" {
		binary = DefaultBinary
	}

	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("locating %s: %w", binary, err)
	}

	out, err := exec.CommandContext(ctx, path, "--version").CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("running %s --version: %w", path, err)
	}
	version := strings.TrimSpace(string(out))
	if !supported(version) {
		return nil, fmt.Errorf("%s reports %q, want Python 3.8 or newer", path, version)
	}

	return &Interpreter{path: path, version: version, workdir: os.TempDir()}, nil
}

// Interpreter is a located CPython binary.
type Interpreter struct {
	path    string
	version string
	workdir string
}

// Version returns the interpreter's version banner, e.g. "Python 3.12.3".
func (in *Interpreter) Version() string {
	return in.version
}

// Reset has nothing to clear: each Exec runs in its own process.
func (in *Interpreter) Reset() error {
	return nil
}

func (in *Interpreter) Exec(ctx context.Context, src string, stdin io.Reader, stdout, stderr io.Writer) error {
	// The source travels as argv[1]; the bootstrap confines the process and
	// then executes it as __main__.
	cmd := exec.CommandContext(ctx, in.path, "-s", "-B", "-c", bootstrap, src)
	cmd.Dir = in.workdir
	cmd.Env = []string{
		"PYTHONHASHSEED=0",
		"PYTHONIOENCODING=utf-8",
		"PYTHONUNBUFFERED=1",
		"LANG=C.UTF-8",
	}
	cmd.WaitDelay = waitDelay

	if stdin == nil {
		stdin = strings.NewReader("")
	}
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	var errBuf bytes.Buffer
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = io.MultiWriter(stderr, &errBuf)

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		message := runtime.LastLine(errBuf.String())
		if message == "" {
			message = fmt.Sprintf("exit status %d", exitErr.ExitCode())
		}
		return &runtime.ProgramError{Message: message, Detail: errBuf.String()}
	}
	return fmt.Errorf("running python: %w", err)
}

// supported reports whether a --version banner names Python 3.8 or newer,
// the first release with audit hooks.
func supported(version string) bool {
	rest, ok := strings.CutPrefix(version, "Python 3.")
	if !ok {
		return false
	}
	digits := strings.IndexFunc(rest, func(r rune) bool { return r < '0' || r > '9' })
	if digits >= 0 {
		rest = rest[:digits]
	}
	minor, err := strconv.Atoi(rest)
	return err == nil && minor >= 8
}
