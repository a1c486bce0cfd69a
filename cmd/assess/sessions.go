package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/storage"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/storage/sqlite"
)

var (
	statusFilter   string
	questionFilter string
	limitFlag      int
	exportFormat   string
	exportOutput   string
	forceFlag      bool
)

var sessionsCmd = &cobra.Command{
	Use:     "sessions",
	Aliases: []string{"session", "s"},
	Short:   "Manage saved editor sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved sessions",
	RunE:  runSessionsList,
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show a session's answer and grade history",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsShow,
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsDelete,
}

var sessionsExportCmd = &cobra.Command{
	Use:   "export <session-id>",
	Short: "Export a session as markdown or JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsExport,
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsListCmd, sessionsShowCmd, sessionsDeleteCmd, sessionsExportCmd)

	sessionsListCmd.Flags().StringVar(&statusFilter, "status", "", "Filter by status (active, completed)")
	sessionsListCmd.Flags().StringVar(&questionFilter, "question", "", "Filter by question id")
	sessionsListCmd.Flags().IntVar(&limitFlag, "limit", 20, "Max sessions to show")

	sessionsExportCmd.Flags().StringVar(&exportFormat, "format", "md", "Export format: md or json")
	sessionsExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: stdout)")

	sessionsDeleteCmd.Flags().BoolVar(&forceFlag, "force", false, "Skip confirmation")
}

func openStore() (storage.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return sqlite.Open(cfg.Storage.DBPath)
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	sessions, err := store.ListSessions(context.Background(), storage.SessionListOptions{
		Status:     storage.SessionStatus(statusFilter),
		QuestionID: questionFilter,
		Limit:      limitFlag,
	})
	if err != nil {
		return err
	}

	if len(sessions) == 0 {
		fmt.Println("No sessions found.")
		return nil
	}

	fmt.Printf("%-10s %-12s %-24s %-12s %s\n", "ID", "STATUS", "QUESTION", "LANGUAGE", "UPDATED")
	fmt.Println(strings.Repeat("─", 75))

	for _, s := range sessions {
		fmt.Printf("%-10s %-12s %-24s %-12s %s\n",
			shortID(s.ID), s.Status, truncate(s.QuestionID, 22), s.Language, timeAgo(s.UpdatedAt))
	}
	return nil
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	sess, err := store.GetSession(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Session:  %s\n", sess.ID)
	fmt.Printf("Question: %s\n", sess.QuestionID)
	fmt.Printf("Language: %s\n", sess.Language)
	fmt.Printf("Status:   %s\n", statusLabel(sess.Status))
	fmt.Printf("Created:  %s\n", sess.CreatedAt.Format(time.RFC3339))
	fmt.Printf("Updated:  %s\n", sess.UpdatedAt.Format(time.RFC3339))

	answer, err := store.LoadAnswer(ctx, sess.ID)
	if err != nil {
		return err
	}
	fmt.Println(strings.Repeat("─", 60))
	if answer == nil || answer.Source == "" {
		fmt.Println("(no answer saved)")
	} else {
		fmt.Println(strings.TrimRight(answer.Source, "\n"))
	}

	grades, err := store.ListGrades(ctx, sess.ID)
	if err != nil {
		return err
	}
	fmt.Println(strings.Repeat("─", 60))
	fmt.Printf("Grades: %d\n", len(grades))
	for _, g := range grades {
		score := fmt.Sprintf("%d/%d", g.Passed, g.Total)
		if g.Total > 0 && g.Passed == g.Total {
			score = color.GreenString(score)
		} else {
			score = color.RedString(score)
		}
		fmt.Printf("  %s  %s\n", g.CreatedAt.Local().Format("2006-01-02 15:04:05"), score)
	}
	return nil
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	sess, err := store.GetSession(ctx, args[0])
	if err != nil {
		return err
	}

	if !forceFlag {
		fmt.Printf("Delete session %s for %q? [y/N] ", shortID(sess.ID), sess.QuestionID)
		var confirm string
		fmt.Scanln(&confirm)
		if strings.ToLower(confirm) != "y" {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	if err := store.DeleteSession(ctx, sess.ID); err != nil {
		return err
	}
	fmt.Printf("Deleted session %s\n", shortID(sess.ID))
	return nil
}

func runSessionsExport(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	sess, err := store.GetSession(ctx, args[0])
	if err != nil {
		return err
	}
	answer, err := store.LoadAnswer(ctx, sess.ID)
	if err != nil {
		return err
	}
	grades, err := store.ListGrades(ctx, sess.ID)
	if err != nil {
		return err
	}

	var output string
	switch exportFormat {
	case "json":
		data, err := storage.ExportJSON(sess, answer, grades)
		if err != nil {
			return err
		}
		output = string(data) + "\n"
	default:
		output = storage.ExportMarkdown(sess, answer, grades)
	}

	if exportOutput != "" {
		return os.WriteFile(exportOutput, []byte(output), 0o644)
	}

	fmt.Print(output)
	return nil
}

func statusLabel(s storage.SessionStatus) string {
	if s == storage.StatusCompleted {
		return color.GreenString(string(s))
	}
	return string(s)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if len(s) > maxLen {
		return s[:maxLen] + ".."
	}
	return s
}

func timeAgo(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
