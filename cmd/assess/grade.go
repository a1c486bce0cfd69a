package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/results"
)

var gradeJSON bool

var gradeCmd = &cobra.Command{
	Use:   "grade <question-id> <file>",
	Short: "Grade a solution against a question's test cases",
	Long: `Run a solution once per test case and report which cases pass.

The first test case is shown with its input, expected and actual output.
Hidden cases report pass or fail only.

Examples:
  assess grade sum-two solution.py
  assess grade sum-two solution.py --json`,
	Args: cobra.ExactArgs(2),
	RunE: runGrade,
}

func init() {
	gradeCmd.Flags().BoolVar(&gradeJSON, "json", false, "Print the summary as JSON")
	rootCmd.AddCommand(gradeCmd)
}

func runGrade(cmd *cobra.Command, args []string) error {
	source, err := readSource(args[1])
	if err != nil {
		return err
	}

	_, logger, eng, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	q, err := eng.Question(args[0])
	if err != nil {
		return err
	}

	summary := eng.GradePublic(context.Background(), q, source)

	if gradeJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			return err
		}
	} else {
		printSummary(summary)
	}

	if !summary.AllPassed() {
		return errors.New("not all test cases passed")
	}
	return nil
}

func printSummary(summary results.PublicSummary) {
	pass := color.New(color.FgGreen, color.Bold).SprintFunc()
	fail := color.New(color.FgRed, color.Bold).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	for i, v := range summary.PerCase {
		mark := pass("PASS")
		if !v.Passed {
			mark = fail("FAIL")
		}
		label := fmt.Sprintf("case %d", i+1)
		if i == 0 {
			label += " (sample)"
		} else {
			label += " (hidden)"
		}
		if v.Description != "" {
			label += " " + faint(v.Description)
		}
		fmt.Printf("%s  %s\n", mark, label)

		if v.Detailed() {
			printField("input", *v.Input)
			printField("expected", *v.Expected)
			printField("actual", *v.Actual)
		}
	}

	score := fmt.Sprintf("%d/%d passed", summary.PassedCases, summary.TotalCases)
	fmt.Println(strings.Repeat("─", 40))
	if summary.AllPassed() {
		fmt.Println(pass(score))
	} else {
		fmt.Println(fail(score))
	}
}

func printField(name, value string) {
	faint := color.New(color.Faint).SprintFunc()
	lines := strings.Split(strings.TrimRight(value, "\n"), "\n")
	fmt.Printf("      %s\n", faint(name+":"))
	for _, line := range lines {
		fmt.Printf("      %s %s\n", faint("│"), line)
	}
}
