package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	flagDB       string
	flagOllama   string
	flagModel    string
	flagWorkers  int
	flagMaxLines int
	flagActivate int
	flagRetries  int
)

var rootCmd = &cobra.Command{
	Use:           "loupe",
	Short:         "Chunked LLM code review for files too large to analyze whole",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "history database path (default .loupe/history.db)")
	rootCmd.PersistentFlags().StringVar(&flagOllama, "ollama", "http://localhost:11434", "ollama base URL")
	rootCmd.PersistentFlags().StringVar(&flagModel, "model", "qwen3:8b", "model used for review")
	rootCmd.PersistentFlags().IntVar(&flagWorkers, "workers", 4, "maximum concurrent chunk analyses")
	rootCmd.PersistentFlags().IntVar(&flagMaxLines, "max-lines", 200, "largest line span per chunk")
	rootCmd.PersistentFlags().IntVar(&flagActivate, "threshold", 300, "files at or below this many lines are reviewed whole")
	rootCmd.PersistentFlags().IntVar(&flagRetries, "retries", 2, "backend retries for transient failures")
}
