package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/editor"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/execution"
)

var (
	langFlag    string
	stdinFlag   string
	timeoutFlag time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Run a source file in the sandbox",
	Long: `Run a single source file once, without a question, and print its output.

The language is taken from --lang or the file extension (.py, .js, .sh).
Use "-" as the file to read source from stdin.

Examples:
  assess run hello.py
  assess run solve.js --stdin input.txt
  echo 'echo hi' | assess run - --lang sh`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&langFlag, "lang", "l", "", "Language (python, javascript, shell)")
	runCmd.Flags().StringVar(&stdinFlag, "stdin", "", "File to use as the program's stdin")
	runCmd.Flags().DurationVar(&timeoutFlag, "timeout", 0, "Execution timeout (default: runtime.default_timeout)")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	source, err := readSource(args[0])
	if err != nil {
		return err
	}
	lang, err := detectLanguage(langFlag, args[0])
	if err != nil {
		return err
	}

	var stdin string
	if stdinFlag != "" {
		data, err := os.ReadFile(stdinFlag)
		if err != nil {
			return fmt.Errorf("reading stdin file: %w", err)
		}
		stdin = string(data)
	}

	_, logger, eng, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	res := eng.Run(context.Background(), execution.Request{
		Language: lang,
		Source:   source,
		Stdin:    stdin,
	}, timeoutFlag)

	out := editor.NewRunOutput(res)
	fmt.Print(out.Stdout)
	switch out.Status {
	case editor.StatusEmpty:
		color.New(color.Faint).Fprintln(os.Stderr, "(no output)")
	case editor.StatusError:
		color.New(color.FgRed).Fprintln(os.Stderr, out.Error.String())
		if detail := strings.TrimSpace(out.Error.Detail); detail != "" && detail != out.Error.Message {
			color.New(color.Faint).Fprintln(os.Stderr, detail)
		}
		return errors.New("run failed")
	}
	return nil
}

func readSource(path string) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("reading source: %w", err)
	}
	return string(data), nil
}

// detectLanguage prefers an explicit name and falls back to the file extension.
func detectLanguage(name, path string) (execution.Language, error) {
	if name != "" {
		return execution.ParseLanguage(name)
	}
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", errors.New("cannot detect language: pass --lang")
	}
	return execution.ParseLanguage(ext)
}
