// Package mcp exposes session management as MCP tools over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/yjkwon/ccjanitor/internal/core/cleanup"
	"github.com/yjkwon/ccjanitor/internal/core/config"
	"github.com/yjkwon/ccjanitor/internal/core/store"
)

// ListSessionsArgs defines arguments for the list_sessions tool
type ListSessionsArgs struct {
	ProjectName string `json:"project_name"`
}

// RenameSessionArgs defines arguments for the rename_session tool
type RenameSessionArgs struct {
	ProjectName string `json:"project_name"`
	SessionID   string `json:"session_id"`
	NewTitle    string `json:"new_title"`
}

// DeleteSessionArgs defines arguments for the delete_session tool
type DeleteSessionArgs struct {
	ProjectName string `json:"project_name"`
	SessionID   string `json:"session_id"`
}

// CleanupArgs defines arguments for preview_cleanup and clear_sessions
type CleanupArgs struct {
	ProjectName  string `json:"project_name,omitempty"`
	ClearEmpty   *bool  `json:"clear_empty,omitempty"`
	ClearInvalid *bool  `json:"clear_invalid,omitempty"`
}

// StartServer starts the MCP server over the projects root.
func StartServer(root string, cfg *config.Config, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	st := store.New(root, log)
	cleaner := cleanup.New(st, cfg.ExtraSignatures, log)

	s := server.NewMCPServer(
		"ccjanitor",
		"1.0.0",
	)

	projectsTool := mcp.NewTool("list_projects",
		mcp.WithDescription("List all Claude Code projects with session counts and total sizes"),
	)
	s.AddTool(projectsTool, makeListProjectsHandler(st))

	sessionsTool := mcp.NewTool("list_sessions",
		mcp.WithDescription("List all sessions in a project, newest first"),
		mcp.WithString("project_name",
			mcp.Required(),
			mcp.Description("Project folder name (e.g. '-Users-me-code-myapp')")),
	)
	s.AddTool(sessionsTool, makeListSessionsHandler(st))

	renameTool := mcp.NewTool("rename_session",
		mcp.WithDescription("Rename a session by adding a title prefix to its first user message"),
		mcp.WithString("project_name",
			mcp.Required(),
			mcp.Description("Project folder name")),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session ID (filename without .jsonl)")),
		mcp.WithString("new_title",
			mcp.Required(),
			mcp.Description("Title to prepend")),
	)
	s.AddTool(renameTool, makeRenameSessionHandler(st))

	deleteTool := mcp.NewTool("delete_session",
		mcp.WithDescription("Delete a session (moves the file to the project's .bak folder for recovery)"),
		mcp.WithString("project_name",
			mcp.Required(),
			mcp.Description("Project folder name")),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session ID to delete")),
	)
	s.AddTool(deleteTool, makeDeleteSessionHandler(st))

	previewTool := mcp.NewTool("preview_cleanup",
		mcp.WithDescription("Preview sessions that would be cleaned up: empty sessions and sessions that only contain auth-failure errors. Read-only."),
		mcp.WithString("project_name",
			mcp.Description("Optional: limit to one project")),
	)
	s.AddTool(previewTool, makePreviewCleanupHandler(cleaner))

	clearTool := mcp.NewTool("clear_sessions",
		mcp.WithDescription("Delete every empty and auth-failure session (each is backed up to .bak). Per-session failures are reported, not raised."),
		mcp.WithString("project_name",
			mcp.Description("Optional: limit to one project")),
		mcp.WithBoolean("clear_empty",
			mcp.Description("Clear empty sessions (default: true)")),
		mcp.WithBoolean("clear_invalid",
			mcp.Description("Clear auth-failure sessions (default: true)")),
	)
	s.AddTool(clearTool, makeClearSessionsHandler(cleaner))

	log.Info("starting MCP server", zap.String("root", root))
	return server.ServeStdio(s)
}

func decodeArgs(request mcp.CallToolRequest, out any) error {
	argsBytes, _ := json.Marshal(request.Params.Arguments)
	return json.Unmarshal(argsBytes, out)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	resultJSON, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func makeListProjectsHandler(st *store.Store) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		projects, err := st.ListProjects()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to list projects: %v", err)), nil
		}
		return jsonResult(map[string]interface{}{
			"projects": projects,
		})
	}
}

func makeListSessionsHandler(st *store.Store) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args ListSessionsArgs
		if err := decodeArgs(request, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		sessions, err := st.ListSessions(args.ProjectName)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(map[string]interface{}{
			"sessions": sessions,
		})
	}
}

func makeRenameSessionHandler(st *store.Store) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args RenameSessionArgs
		if err := decodeArgs(request, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		if args.NewTitle == "" {
			return mcp.NewToolResultError("new_title must not be empty"), nil
		}

		if err := st.RenameSession(args.ProjectName, args.SessionID, args.NewTitle); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(map[string]interface{}{
			"success": true,
			"message": "Session renamed",
		})
	}
}

func makeDeleteSessionHandler(st *store.Store) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args DeleteSessionArgs
		if err := decodeArgs(request, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		backupPath, err := st.DeleteSession(args.ProjectName, args.SessionID)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(map[string]interface{}{
			"success":     true,
			"backup_path": backupPath,
		})
	}
}

func makePreviewCleanupHandler(cleaner *cleanup.Cleaner) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args CleanupArgs
		if err := decodeArgs(request, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		candidates, skipped, err := cleaner.Preview(cleanup.Options{Project: args.ProjectName})
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return mcp.NewToolResultError(fmt.Sprintf("scan failed: %v", err)), nil
		}
		return jsonResult(map[string]interface{}{
			"candidates":    candidates,
			"total_count":   len(candidates),
			"skipped_count": skipped,
		})
	}
}

func makeClearSessionsHandler(cleaner *cleanup.Cleaner) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args CleanupArgs
		if err := decodeArgs(request, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		opts := cleanup.Options{Project: args.ProjectName}
		if args.ClearEmpty != nil {
			opts.KeepEmpty = !*args.ClearEmpty
		}
		if args.ClearInvalid != nil {
			opts.KeepAuth = !*args.ClearInvalid
		}

		result, err := cleaner.Clear(opts)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("cleanup failed: %v", err)), nil
		}
		return jsonResult(map[string]interface{}{
			"deleted":       result.Deleted,
			"deleted_count": len(result.Deleted),
			"skipped_count": result.Skipped,
			"errors":        result.Errors,
		})
	}
}
