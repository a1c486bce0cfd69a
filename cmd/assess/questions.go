package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var questionsCmd = &cobra.Command{
	Use:     "questions",
	Aliases: []string{"question", "q"},
	Short:   "Browse the question bank",
}

var questionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available questions",
	RunE:  runQuestionsList,
}

var questionsShowCmd = &cobra.Command{
	Use:   "show <question-id>",
	Short: "Show a question's prompt, template and sample case",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuestionsShow,
}

func init() {
	rootCmd.AddCommand(questionsCmd)
	questionsCmd.AddCommand(questionsListCmd, questionsShowCmd)
}

func runQuestionsList(cmd *cobra.Command, args []string) error {
	cfg, logger, eng, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	qs := eng.Questions.List()
	if len(qs) == 0 {
		fmt.Printf("No questions found in %s.\n", cfg.Questions.Dir)
		return nil
	}

	warn := color.New(color.FgYellow).SprintFunc()

	fmt.Printf("%-20s %-12s %-6s %s\n", "ID", "LANGUAGE", "CASES", "TITLE")
	fmt.Println(strings.Repeat("─", 70))
	for _, q := range qs {
		title := q.Title
		if len(q.Problems) > 0 {
			title += " " + warn(fmt.Sprintf("(%d malformed cases)", len(q.Problems)))
		}
		fmt.Printf("%-20s %-12s %-6d %s\n", q.ID, q.Language, len(q.TestCases), title)
	}
	return nil
}

func runQuestionsShow(cmd *cobra.Command, args []string) error {
	_, logger, eng, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	q, err := eng.Question(args[0])
	if err != nil {
		return err
	}
	pub := q.Public()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Printf("%s\n\n", bold(pub.Title))
	fmt.Printf("ID:       %s\n", pub.ID)
	fmt.Printf("Language: %s\n", pub.Language)
	fmt.Printf("Limit:    %s per run\n", eng.Timeout(q))
	if pub.MemoryLimitMB > 0 {
		fmt.Printf("Memory:   %d MB (advisory)\n", pub.MemoryLimitMB)
	}
	fmt.Printf("Cases:    %d (1 sample)\n", pub.TotalCases)

	if pub.Prompt != "" {
		fmt.Printf("\n%s\n", strings.TrimSpace(pub.Prompt))
	}
	if pub.Sample != nil {
		fmt.Printf("\n%s\n", bold("Sample"))
		printField("input", pub.Sample.Input)
		printField("expected", pub.Sample.ExpectedOutput)
	}
	if pub.SourceTemplate != "" {
		fmt.Printf("\n%s\n%s\n", bold("Template"), strings.TrimRight(pub.SourceTemplate, "\n"))
	}
	return nil
}
