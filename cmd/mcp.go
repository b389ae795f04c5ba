package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"loupe/internal/analyzer"
	"loupe/internal/output"
	"loupe/internal/review"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP server exposing code review tools",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	s := mcpserver.NewMCPServer("loupe", "1.0.0", mcpserver.WithToolCapabilities(false))

	s.AddTool(reviewFileTool(), makeReviewFileHandler())
	s.AddTool(listRunsTool(), makeListRunsHandler())
	s.AddTool(getRunTool(), makeGetRunHandler())

	return mcpserver.ServeStdio(s)
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

// --- Tool schema builders ---

var readOnlyAnnotation = mcp.ToolAnnotation{
	ReadOnlyHint:    mcp.ToBoolPtr(true),
	DestructiveHint: mcp.ToBoolPtr(false),
	IdempotentHint:  mcp.ToBoolPtr(true),
	OpenWorldHint:   mcp.ToBoolPtr(false),
}

func reviewFileTool() mcp.Tool {
	return mcp.NewTool("review_file",
		mcp.WithDescription("Run a chunked LLM code review over a single source file. Large files are split into self-contained semantic chunks, reviewed concurrently, and the findings merged with file-absolute line numbers."),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{
			ReadOnlyHint:    mcp.ToBoolPtr(true),
			DestructiveHint: mcp.ToBoolPtr(false),
			IdempotentHint:  mcp.ToBoolPtr(false),
			OpenWorldHint:   mcp.ToBoolPtr(true),
		}),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Absolute path of the file to review"),
		),
	)
}

func listRunsTool() mcp.Tool {
	return mcp.NewTool("list_runs",
		mcp.WithDescription("List past review runs from the history database."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of runs to return (default 20)"),
		),
	)
}

func getRunTool() mcp.Tool {
	return mcp.NewTool("get_run",
		mcp.WithDescription("Get the full findings report of one past review run."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Run ID as returned by list_runs"),
		),
	)
}

// --- Handler factories ---

func makeReviewFileHandler() mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path := req.GetString("path", "")
		if path == "" {
			return mcp.NewToolResultError("path is required"), nil
		}

		backend := analyzer.NewOllama(flagOllama, flagModel, flagRetries)
		eng := newEngine(backend, nil)
		report, err := eng.ReviewFile(ctx, path)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("review failed: %v", err)), nil
		}

		return mcp.NewToolResultText(output.Markdown([]*review.Report{report})), nil
	}
}

func makeListRunsHandler() mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		st, err := openHistory()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		defer st.Close()

		runs, err := st.ListRuns(req.GetInt("limit", 20))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list runs failed: %v", err)), nil
		}
		if len(runs) == 0 {
			return mcp.NewToolResultText("No runs recorded yet."), nil
		}

		text := "## Review runs\n\n"
		for _, r := range runs {
			text += fmt.Sprintf("- **#%d** %s (%s) — %d findings, %d/%d chunks ok, %s\n",
				r.ID, r.Path, r.Model, r.Findings,
				r.ChunkCount-len(r.FailedChunks), r.ChunkCount,
				r.StartedAt.Format("2006-01-02 15:04"))
		}
		return mcp.NewToolResultText(text), nil
	}
}

func makeGetRunHandler() mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := req.GetInt("id", 0)
		if id <= 0 {
			return mcp.NewToolResultError("id is required"), nil
		}

		st, err := openHistory()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		defer st.Close()

		run, err := st.GetRun(int64(id))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("run %d not found — call list_runs to see available runs", id)), nil
		}
		findings, err := st.GetFindings(int64(id))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("load findings failed: %v", err)), nil
		}

		report := review.ReportFromStored(run.Path, findings, run.FailedChunks, run.ChunkCount,
			time.Duration(run.ElapsedMs)*time.Millisecond)
		return mcp.NewToolResultText(output.Markdown([]*review.Report{report})), nil
	}
}
