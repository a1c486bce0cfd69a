// Package javascript runs JavaScript snippets on an embedded goja VM.
package javascript

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dop251/goja"

	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/execution"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/runtime"
)

// Backend provisions the JavaScript interpreter.
type Backend struct{}

func (Backend) Language() execution.Language { return execution.LanguageJavaScript }

func (Backend) Load(ctx context.Context) (runtime.Interpreter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	in := &Interpreter{}
	in.redirect(nil, nil, nil)
	if err := in.Reset(); err != nil {
		return nil, err
	}
	return in, nil
}

// Interpreter wraps a goja VM. Submitted source is evaluated as the body of a
// function so that top-level declarations stay local and `return` is allowed.
type Interpreter struct {
	vm     *goja.Runtime
	stdin  *bufio.Reader
	stdout io.Writer
	stderr io.Writer
}

// Reset replaces the VM with a fresh realm, discarding globals and any
// modifications to built-in prototypes made by the previous program.
func (in *Interpreter) Reset() error {
	vm := goja.New()

	console := vm.NewObject()
	bindings := map[string]func(goja.FunctionCall) goja.Value{
		"log":   in.writeTo(func() io.Writer { return in.stdout }),
		"info":  in.writeTo(func() io.Writer { return in.stdout }),
		"debug": in.writeTo(func() io.Writer { return in.stdout }),
		"warn":  in.writeTo(func() io.Writer { return in.stderr }),
		"error": in.writeTo(func() io.Writer { return in.stderr }),
	}
	for name, fn := range bindings {
		if err := console.Set(name, fn); err != nil {
			return fmt.Errorf("binding console.%s: %w", name, err)
		}
	}
	if err := vm.Set("console", console); err != nil {
		return fmt.Errorf("binding console: %w", err)
	}
	if err := vm.Set("print", bindings["log"]); err != nil {
		return fmt.Errorf("binding print: %w", err)
	}
	if err := vm.Set("readline", in.readLine); err != nil {
		return fmt.Errorf("binding readline: %w", err)
	}

	in.vm = vm
	return nil
}

func (in *Interpreter) Exec(ctx context.Context, src string, stdin io.Reader, stdout, stderr io.Writer) error {
	restore := in.redirect(stdin, stdout, stderr)
	defer restore()

	vm := in.vm
	vm.ClearInterrupt()
	stop := context.AfterFunc(ctx, func() {
		vm.Interrupt(ctx.Err())
	})
	defer stop()

	value, err := vm.RunScript("main.js", wrap(src))
	if err != nil {
		return in.classify(ctx, err)
	}
	if value != nil && !goja.IsUndefined(value) && !goja.IsNull(value) {
		fmt.Fprintln(in.stdout, in.format(value))
	}
	return nil
}

func wrap(src string) string {
	return "(function() {\n" + src + "\n})()"
}

func (in *Interpreter) classify(ctx context.Context, err error) error {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return context.Canceled
	}

	var exception *goja.Exception
	if errors.As(err, &exception) {
		message := exception.Value().String()
		return &runtime.ProgramError{Message: message, Detail: exception.String()}
	}

	var syntaxErr *goja.CompilerSyntaxError
	if errors.As(err, &syntaxErr) {
		return &runtime.ProgramError{Message: "SyntaxError: " + syntaxErr.Error()}
	}

	return &runtime.ProgramError{Message: err.Error()}
}

// redirect swaps the interpreter's streams and returns a func restoring the
// previous ones.
func (in *Interpreter) redirect(stdin io.Reader, stdout, stderr io.Writer) func() {
	prevIn, prevOut, prevErr := in.stdin, in.stdout, in.stderr

	if stdin == nil {
		stdin = strings.NewReader("")
	}
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	in.stdin = bufio.NewReader(stdin)
	in.stdout = stdout
	in.stderr = stderr

	return func() {
		in.stdin, in.stdout, in.stderr = prevIn, prevOut, prevErr
	}
}

func (in *Interpreter) writeTo(stream func() io.Writer) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = in.format(arg)
		}
		io.WriteString(stream(), strings.Join(parts, " ")+"\n")
		return goja.Undefined()
	}
}

// readLine returns the next stdin line without its terminator, or null at EOF.
func (in *Interpreter) readLine(goja.FunctionCall) goja.Value {
	line, err := in.stdin.ReadString('\n')
	if err != nil && line == "" {
		return goja.Null()
	}
	return in.vm.ToValue(strings.TrimRight(line, "\r\n"))
}

// format renders a value the way console.log does for common cases: plain
// objects and arrays as JSON, everything else through ToString.
func (in *Interpreter) format(v goja.Value) string {
	switch {
	case v == nil || goja.IsUndefined(v):
		return "undefined"
	case goja.IsNull(v):
		return "null"
	}

	obj, ok := v.(*goja.Object)
	if !ok {
		return v.String()
	}
	if _, isFunc := goja.AssertFunction(obj); isFunc {
		return v.String()
	}
	switch obj.ClassName() {
	case "Object", "Array":
		if s, err := in.stringify(obj); err == nil {
			return s
		}
	}
	return v.String()
}

func (in *Interpreter) stringify(obj *goja.Object) (string, error) {
	jsonObj := in.vm.Get("JSON")
	if jsonObj == nil {
		return "", errors.New("JSON unavailable")
	}
	stringify, ok := goja.AssertFunction(jsonObj.ToObject(in.vm).Get("stringify"))
	if !ok {
		return "", errors.New("JSON.stringify unavailable")
	}
	res, err := stringify(goja.Undefined(), obj)
	if err != nil {
		return "", err
	}
	if goja.IsUndefined(res) {
		return "undefined", nil
	}
	return res.String(), nil
}
