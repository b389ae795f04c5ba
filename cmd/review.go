package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"loupe/internal/analyzer"
	"loupe/internal/chunker"
	"loupe/internal/chunker/languages"
	"loupe/internal/finding"
	"loupe/internal/output"
	"loupe/internal/review"
	"loupe/internal/store"
	"loupe/internal/tui"
)

var (
	flagJSON     bool
	flagProgress bool
	flagNoSave   bool
	flagFailOn   string
)

var reviewCmd = &cobra.Command{
	Use:   "review <path>",
	Short: "Review a file or directory tree",
	Args:  cobra.ExactArgs(1),
	RunE:  runReview,
}

func runReview(cmd *cobra.Command, args []string) error {
	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	backend := analyzer.NewOllama(flagOllama, flagModel, flagRetries)

	run := func(onProgress review.ProgressFunc) ([]*review.Report, error) {
		eng := newEngine(backend, onProgress)
		if info.IsDir() {
			return eng.ReviewTree(cmd.Context(), path)
		}
		r, err := eng.ReviewFile(cmd.Context(), path)
		if err != nil {
			return nil, err
		}
		r.Path = args[0]
		return []*review.Report{r}, nil
	}

	var reports []*review.Report
	if flagProgress && !flagJSON {
		reports, err = tui.RunWithProgress(run)
	} else {
		reports, err = run(nil)
	}
	if err != nil {
		return err
	}

	if !flagNoSave {
		if err := saveReports(reports); err != nil {
			fmt.Fprintf(os.Stderr, "save history: %v\n", err)
		}
	}

	if flagJSON {
		if err := output.WriteJSON(os.Stdout, reports); err != nil {
			return err
		}
	} else {
		if err := output.WriteTerminal(os.Stdout, reports); err != nil {
			return err
		}
		if prompt, out := backend.Usage(); prompt+out > 0 {
			fmt.Fprintln(os.Stdout, output.UsageLine(prompt, out))
		}
	}

	return checkFailOn(reports)
}

func newEngine(backend *analyzer.Ollama, onProgress review.ProgressFunc) *review.Engine {
	reg := chunker.NewRegistry()
	languages.RegisterAll(reg)
	return review.NewEngine(reg, backend, review.Config{
		Chunk: chunker.Config{
			MaxLinesPerChunk:    flagMaxLines,
			ActivationThreshold: flagActivate,
		},
		Workers:    flagWorkers,
		OnProgress: onProgress,
	})
}

func historyPath() (string, error) {
	if flagDB != "" {
		return flagDB, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, ".loupe", "history.db"), nil
}

func saveReports(reports []*review.Report) error {
	dbPath, err := historyPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return err
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	for _, r := range reports {
		_, err := st.SaveRun(store.Run{
			Path:         r.Path,
			Model:        flagModel,
			ElapsedMs:    r.Elapsed.Milliseconds(),
			ChunkCount:   r.Meta.ChunkCount,
			FailedChunks: r.Meta.FailedChunks,
		}, r.Findings)
		if err != nil {
			return err
		}
	}
	return nil
}

func checkFailOn(reports []*review.Report) error {
	if flagFailOn == "" || flagFailOn == "none" {
		return nil
	}
	for _, r := range reports {
		for _, f := range r.Findings {
			if finding.MeetsThreshold(f.Severity, flagFailOn) {
				return fmt.Errorf("findings at or above severity %q", flagFailOn)
			}
		}
	}
	return nil
}

func init() {
	reviewCmd.Flags().BoolVar(&flagJSON, "json", false, "emit the report as JSON")
	reviewCmd.Flags().BoolVar(&flagProgress, "progress", false, "show a live progress view")
	reviewCmd.Flags().BoolVar(&flagNoSave, "no-save", false, "skip writing the run to history")
	reviewCmd.Flags().StringVar(&flagFailOn, "fail-on", "", "exit non-zero when findings reach this severity (low|medium|high)")
	rootCmd.AddCommand(reviewCmd)
}
