package cmd

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"loupe/internal/output"
	"loupe/internal/review"
	"loupe/internal/store"
)

var flagRunsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List past review runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openHistory()
		if err != nil {
			return err
		}
		defer st.Close()

		runs, err := st.ListRuns(flagRunsLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded yet. Run 'loupe review <path>' first.")
			return nil
		}
		for _, r := range runs {
			fmt.Printf("#%-4d %-40s %-12s %3d findings, %d/%d chunks ok, %s, %s\n",
				r.ID, r.Path, r.Model, r.Findings,
				r.ChunkCount-len(r.FailedChunks), r.ChunkCount,
				time.Duration(r.ElapsedMs)*time.Millisecond,
				r.StartedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show the findings of one run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid run id %q", args[0])
		}

		st, err := openHistory()
		if err != nil {
			return err
		}
		defer st.Close()

		run, err := st.GetRun(id)
		if err != nil {
			return fmt.Errorf("run %d: %w", id, err)
		}
		findings, err := st.GetFindings(id)
		if err != nil {
			return err
		}

		report := review.ReportFromStored(run.Path, findings, run.FailedChunks, run.ChunkCount,
			time.Duration(run.ElapsedMs)*time.Millisecond)
		return output.WriteTerminal(os.Stdout, []*review.Report{report})
	},
}

func openHistory() (store.Store, error) {
	dbPath, err := historyPath()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("no history at %s\nRun 'loupe review <path>' first", dbPath)
	}
	return store.Open(dbPath)
}

func init() {
	runsCmd.Flags().IntVar(&flagRunsLimit, "limit", 20, "maximum runs to list")
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}
