package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/config"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/engine"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/logging"
)

var (
	configFlag    string
	logLevelFlag  string
	questionsFlag string
)

var rootCmd = &cobra.Command{
	Use:   "assess",
	Short: "assess - sandboxed code execution and grading for coding questions",
	Long: `assess runs untrusted Python, JavaScript and shell snippets in a sandbox
and grades them against a question's test cases.

Only the first test case of a question is ever shown in full; the rest report
pass or fail only.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Config file (default: ./assess.yaml or $HOME/.assess/assess.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&questionsFlag, "questions", "", "Question directory (overrides config)")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if logLevelFlag != "" {
		cfg.Log.Level = logLevelFlag
	}
	if questionsFlag != "" {
		cfg.Questions.Dir = questionsFlag
	}
	return cfg, nil
}

// setup loads configuration and builds the logger and engine shared by every command.
func setup() (*config.Config, *zap.Logger, *engine.Engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, nil, err
	}
	eng, err := engine.New(cfg, logger)
	if err != nil {
		logger.Sync()
		return nil, nil, nil, err
	}
	return cfg, logger, eng, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
