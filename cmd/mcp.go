package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/BugBuster18/Agentic-File-Recommender/internal/app"
)

// mcpCmd exposes the Core API as MCP tools, kept from the teacher's
// mcp.NewTool + ToolAnnotation + handler-factory wiring pattern
// (cmd/mcp.go), repointed at scan/recommend/log_activity/health instead of
// codebase search.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP server exposing scan/recommend/activity tools",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	s := mcpserver.NewMCPServer("afr", "1.0.0", mcpserver.WithToolCapabilities(false))

	s.AddTool(scanRootTool(), makeScanHandler(a))
	s.AddTool(recommendFilesTool(), makeRecommendHandler(a))
	s.AddTool(logActivityTool(), makeLogActivityHandler(a))
	s.AddTool(healthCheckTool(), makeHealthHandler(a))

	return mcpserver.ServeStdio(s)
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

var readOnlyAnnotation = mcp.ToolAnnotation{
	ReadOnlyHint:    mcp.ToBoolPtr(true),
	DestructiveHint: mcp.ToBoolPtr(false),
	IdempotentHint:  mcp.ToBoolPtr(true),
	OpenWorldHint:   mcp.ToBoolPtr(false),
}

var mutatingAnnotation = mcp.ToolAnnotation{
	ReadOnlyHint:    mcp.ToBoolPtr(false),
	DestructiveHint: mcp.ToBoolPtr(false),
	IdempotentHint:  mcp.ToBoolPtr(true),
	OpenWorldHint:   mcp.ToBoolPtr(false),
}

// recordingAnnotation marks tools that log an access on every call, so a
// repeated call bumps access counts again.
var recordingAnnotation = mcp.ToolAnnotation{
	ReadOnlyHint:    mcp.ToBoolPtr(false),
	DestructiveHint: mcp.ToBoolPtr(false),
	IdempotentHint:  mcp.ToBoolPtr(false),
	OpenWorldHint:   mcp.ToBoolPtr(false),
}

func scanRootTool() mcp.Tool {
	return mcp.NewTool("scan_root",
		mcp.WithDescription("Reconcile a directory tree with the file index: adds new files, re-embeds changed ones, tombstones deleted ones."),
		mcp.WithToolAnnotation(mutatingAnnotation),
		mcp.WithString("root",
			mcp.Required(),
			mcp.Description("Absolute path to the directory to scan"),
		),
	)
}

func recommendFilesTool() mcp.Tool {
	return mcp.NewTool("recommend_files",
		mcp.WithDescription("Recommend files related to a given file, combining semantic similarity, recency, and co-access history."),
		mcp.WithToolAnnotation(recordingAnnotation),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Absolute path to the reference file"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of recommendations to return (default 5, max 100)"),
		),
	)
}

func logActivityTool() mcp.Tool {
	return mcp.NewTool("log_activity",
		mcp.WithDescription("Record that a file was accessed, updating recency and co-occurrence signals."),
		mcp.WithToolAnnotation(recordingAnnotation),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Absolute path to the accessed file"),
		),
	)
}

func healthCheckTool() mcp.Tool {
	return mcp.NewTool("health_check",
		mcp.WithDescription("Report index health: file counts and whether the ANN index is stale."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
	)
}

func makeScanHandler(a *app.App) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		root := req.GetString("root", "")
		if root == "" {
			return mcp.NewToolResultError("root is required"), nil
		}
		rpt, err := a.Scanner.Scan(ctx, root)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("scan failed: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf(
			"added=%d updated=%d unchanged=%d tombstoned=%d failures=%d",
			rpt.Added, rpt.Updated, rpt.Unchanged, rpt.Tombstoned, len(rpt.Failures))), nil
	}
}

func makeRecommendHandler(a *app.App) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path := req.GetString("path", "")
		if path == "" {
			return mcp.NewToolResultError("path is required"), nil
		}
		k := req.GetInt("limit", 5)
		recs, err := a.Ranker.Recommend(ctx, path, k, time.Now())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("recommend failed: %v", err)), nil
		}
		if len(recs) == 0 {
			return mcp.NewToolResultText("no recommendations found"), nil
		}
		out := ""
		for i, r := range recs {
			out += fmt.Sprintf("%d. %s (score=%.3f semantic=%.3f recency=%.3f co-access=%.3f)\n",
				i+1, r.File.Path, r.FinalScore, r.Semantic, r.Recency, r.CoAccess)
		}
		return mcp.NewToolResultText(out), nil
	}
}

func makeLogActivityHandler(a *app.App) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path := req.GetString("path", "")
		if path == "" {
			return mcp.NewToolResultError("path is required"), nil
		}
		f, err := a.Store.GetFileByPath(ctx, path)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("lookup failed: %v", err)), nil
		}
		if f == nil {
			return mcp.NewToolResultError(fmt.Sprintf("path %q not indexed — call scan_root first", path)), nil
		}
		summary, err := a.Activity.Log(ctx, f.ID, time.Now())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("log activity failed: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf(
			"access_count_after=%d copairs_updated=%d", summary.AccessCountAfter, summary.CopairsUpdated)), nil
	}
}

func makeHealthHandler(a *app.App) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		h, err := a.Health(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("health failed: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf(
			"ok=%v n_files=%d n_embedded=%d index_dirty=%v", h.OK, h.NFiles, h.NEmbedded, h.IndexDirty)), nil
	}
}
