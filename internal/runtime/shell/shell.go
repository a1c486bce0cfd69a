// Package shell runs POSIX shell snippets on an embedded interpreter. Only
// shell builtins are available: external commands, file access and directory
// listings are refused.
package shell

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/execution"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/runtime"
)

const devNull = "/dev/null"

// Backend provisions the shell interpreter.
type Backend struct{}

func (Backend) Language() execution.Language { return execution.LanguageShell }

func (Backend) Load(ctx context.Context) (runtime.Interpreter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	runner, err := interp.New(
		interp.StdIO(nil, io.Discard, io.Discard),
		interp.Env(expand.ListEnviron("HOME=/", "PATH=", "LANG=C.UTF-8")),
		interp.ExecHandlers(denyExec),
		interp.OpenHandler(openDevNullOnly),
		interp.ReadDirHandler(emptyDir),
	)
	if err != nil {
		return nil, fmt.Errorf("creating shell runner: %w", err)
	}
	return &Interpreter{runner: runner}, nil
}

// Interpreter wraps a single reusable shell runner.
type Interpreter struct {
	runner *interp.Runner
}

// Reset returns the runner to its just-constructed state: variables, functions,
// options and working directory are all cleared.
func (in *Interpreter) Reset() error {
	in.runner.Reset()
	return nil
}

func (in *Interpreter) Exec(ctx context.Context, src string, stdin io.Reader, stdout, stderr io.Writer) error {
	file, err := syntax.NewParser().Parse(strings.NewReader(src), "main.sh")
	if err != nil {
		return &runtime.ProgramError{Message: "syntax error: " + err.Error()}
	}

	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	var errBuf bytes.Buffer
	if err := interp.StdIO(stdin, stdout, io.MultiWriter(stderr, &errBuf))(in.runner); err != nil {
		return fmt.Errorf("redirecting shell streams: %w", err)
	}
	defer interp.StdIO(nil, io.Discard, io.Discard)(in.runner)

	err = in.runner.Run(ctx, file)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err == nil {
		return nil
	}

	status, ok := interp.IsExitStatus(err)
	if !ok {
		return &runtime.ProgramError{Message: err.Error(), Detail: errBuf.String()}
	}
	if status == 0 {
		return nil
	}
	message := runtime.LastLine(errBuf.String())
	if message == "" {
		message = fmt.Sprintf("exit status %d", status)
	}
	return &runtime.ProgramError{Message: message, Detail: errBuf.String()}
}

func denyExec(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(ctx context.Context, args []string) error {
		hc := interp.HandlerCtx(ctx)
		fmt.Fprintf(hc.Stderr, "%s: command not found\n", args[0])
		return interp.NewExitStatus(127)
	}
}

func openDevNullOnly(ctx context.Context, path string, flag int, perm os.FileMode) (io.ReadWriteCloser, error) {
	if path == devNull {
		return interp.DefaultOpenHandler()(ctx, path, flag, perm)
	}
	return nil, &os.PathError{Op: "open", Path: path, Err: os.ErrPermission}
}

func emptyDir(ctx context.Context, path string) ([]fs.FileInfo, error) {
	return nil, nil
}
