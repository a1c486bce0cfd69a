package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/editor"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/storage"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/storage/sqlite"
)

var (
	resumeID    string
	noStoreFlag bool
)

var replCmd = &cobra.Command{
	Use:   "repl <question-id>",
	Short: "Work on a question in an interactive terminal editor",
	Long: `Open a terminal editor session for a question.

Lines you type are appended to the source buffer. Commands start with a slash:
/run runs the buffer, /test grades it, /show prints it, /reset restores the
template, /clear empties it and /quit exits.

Examples:
  assess repl sum-two
  assess repl --resume 3f2a9c1e`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRepl,
}

func init() {
	replCmd.Flags().StringVar(&resumeID, "resume", "", "Resume a saved session")
	replCmd.Flags().BoolVar(&noStoreFlag, "no-store", false, "Do not save answers or grades")
	rootCmd.AddCommand(replCmd)
}

func runRepl(cmd *cobra.Command, args []string) error {
	if resumeID == "" && len(args) == 0 {
		return errors.New("a question id or --resume is required")
	}

	cfg, logger, eng, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := context.Background()

	var (
		store  storage.Store
		stored *storage.Session
		opts   []editor.Option
	)
	if !noStoreFlag || resumeID != "" {
		store, err = sqlite.Open(cfg.Storage.DBPath)
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		defer store.Close()
	}

	questionID := ""
	if len(args) > 0 {
		questionID = args[0]
	}

	switch {
	case resumeID != "":
		stored, err = store.GetSession(ctx, resumeID)
		if err != nil {
			return err
		}
		questionID = stored.QuestionID
		answer, err := store.LoadAnswer(ctx, stored.ID)
		if err != nil {
			return err
		}
		if answer != nil {
			opts = append(opts, editor.WithSource(answer.Source))
		}
	case store != nil:
		q, err := eng.Question(questionID)
		if err != nil {
			return err
		}
		stored = &storage.Session{
			ID:         uuid.New().String(),
			QuestionID: q.ID,
			Language:   q.Language,
			Status:     storage.StatusActive,
		}
		if err := store.CreateSession(ctx, stored); err != nil {
			return err
		}
	}

	q, err := eng.Question(questionID)
	if err != nil {
		return err
	}

	sessionID := "scratch"
	if stored != nil {
		sessionID = stored.ID
		opts = append(opts, editor.WithTracker(storage.NewSessionTracker(store, stored.ID)))
	}
	es := eng.NewSession(sessionID, q, opts...)

	bold := color.New(color.Bold).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()
	fmt.Printf("%s (%s, %s per run)\n", bold(q.Title), q.Language, eng.Timeout(q))
	if stored != nil {
		fmt.Printf("Session: %s\n", shortID(stored.ID))
	}
	if q.Prompt != "" {
		fmt.Printf("\n%s\n", strings.TrimSpace(q.Prompt))
	}
	fmt.Println(faint("Type /help for commands, /quit to exit"))
	fmt.Println()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          color.CyanString(string(q.Language)+">") + " ",
		HistoryFile:     filepath.Join(os.TempDir(), "assess_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("readline: %w", err)
	}
	defer rl.Close()

	// Ctrl+C cancels the active run, not the whole app.
	var runCancel context.CancelFunc
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		for range sigCh {
			if runCancel != nil {
				runCancel()
			}
		}
	}()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				fmt.Println("\nGoodbye!")
				return nil
			}
			return err
		}

		if !strings.HasPrefix(strings.TrimSpace(line), "/") {
			es.SetSource(ctx, appendLine(es.Source(), line))
			continue
		}

		runCtx, cancel := context.WithCancel(ctx)
		runCancel = cancel
		quit := handleReplCommand(runCtx, strings.TrimSpace(line), es)
		cancel()
		runCancel = nil
		if quit {
			fmt.Println("Goodbye!")
			return nil
		}
	}
}

// handleReplCommand runs one slash command and reports whether to exit.
func handleReplCommand(ctx context.Context, input string, es *editor.Session) bool {
	switch strings.ToLower(strings.Fields(input)[0]) {
	case "/quit", "/exit", "/q":
		return true
	case "/run", "/r":
		out, err := es.RunCode(ctx)
		if err != nil {
			color.Red("error: %s", err)
			return false
		}
		printRunOutput(out)
	case "/test", "/t":
		summary, err := es.RunTests(ctx)
		if err != nil {
			color.Red("error: %s", err)
			return false
		}
		printSummary(summary)
	case "/show", "/s":
		printBuffer(es.Source())
	case "/reset":
		es.Reset(ctx)
		fmt.Println("Buffer reset to template.")
		printBuffer(es.Source())
	case "/clear":
		es.SetSource(ctx, "")
		fmt.Println("Buffer cleared.")
	case "/undo", "/u":
		es.SetSource(ctx, dropLastLine(es.Source()))
		printBuffer(es.Source())
	case "/help", "/h":
		fmt.Println("Commands:")
		fmt.Println("  /run      - Run the buffer with no input")
		fmt.Println("  /test     - Grade the buffer against the test cases")
		fmt.Println("  /show     - Print the buffer")
		fmt.Println("  /undo     - Remove the last line")
		fmt.Println("  /reset    - Restore the question template")
		fmt.Println("  /clear    - Empty the buffer")
		fmt.Println("  /quit     - Exit")
	default:
		fmt.Printf("Unknown command: %s (try /help)\n", input)
	}
	fmt.Println()
	return false
}

func printRunOutput(out editor.RunOutput) {
	switch out.Status {
	case editor.StatusEmpty:
		color.New(color.Faint).Println("(no output)")
	case editor.StatusError:
		fmt.Print(out.Stdout)
		color.Red("%s", out.Error.String())
	default:
		fmt.Print(out.Stdout)
	}
	color.New(color.Faint).Printf("(%d ms)\n", out.WallTimeMs)
}

func printBuffer(src string) {
	faint := color.New(color.Faint).SprintFunc()
	if src == "" {
		fmt.Println(faint("(empty)"))
		return
	}
	for i, line := range strings.Split(strings.TrimRight(src, "\n"), "\n") {
		fmt.Printf("%s %s\n", faint(fmt.Sprintf("%3d", i+1)), line)
	}
}

func appendLine(src, line string) string {
	if src != "" && !strings.HasSuffix(src, "\n") {
		src += "\n"
	}
	return src + line + "\n"
}

func dropLastLine(src string) string {
	trimmed := strings.TrimRight(src, "\n")
	i := strings.LastIndex(trimmed, "\n")
	if i < 0 {
		return ""
	}
	return trimmed[:i+1]
}
