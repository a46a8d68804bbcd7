package cli

import (
	"fmt"

	"github.com/cbroglie/mustache"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/yjkwon/ccjanitor/internal/core/cleanup"
)

var (
	cleanupApply   bool
	cleanupProject string
	cleanupNoEmpty bool
	cleanupNoAuth  bool
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Find and clear empty and auth-failure sessions",
	Long: `Scan every project for sessions with no real user content: empty
sessions, and sessions whose only user messages are authentication
failures ("Invalid API key", "Please run /login", ...).

Without --apply this is a dry run. With --apply each candidate is moved
into its project's .bak folder.

Examples:
  ccjanitor cleanup
  ccjanitor cleanup --project -Users-me-code-myapp
  ccjanitor cleanup --apply`,
	RunE: runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
	cleanupCmd.Flags().BoolVar(&cleanupApply, "apply", false, "Actually delete the candidates (default is a dry run)")
	cleanupCmd.Flags().StringVar(&cleanupProject, "project", "", "Limit to one project")
	cleanupCmd.Flags().BoolVar(&cleanupNoEmpty, "no-empty", false, "Leave empty sessions alone")
	cleanupCmd.Flags().BoolVar(&cleanupNoAuth, "no-invalid", false, "Leave auth-failure sessions alone")
}

func runCleanup(cmd *cobra.Command, args []string) error {
	st, cfg, err := newStore()
	if err != nil {
		return err
	}

	cleaner := cleanup.New(st, cfg.ExtraSignatures, newLogger())
	opts := cleanup.Options{
		Project:   cleanupProject,
		KeepEmpty: cleanupNoEmpty,
		KeepAuth:  cleanupNoAuth,
	}

	if !cleanupApply {
		candidates, skipped, err := cleaner.Preview(opts)
		if err != nil {
			return err
		}
		if err := printReport(cfg.CleanupReportTemplate, candidates); err != nil {
			return err
		}
		if skipped > 0 {
			color.Yellow("%d file(s) could not be scanned and were skipped", skipped)
		}
		if len(candidates) > 0 {
			fmt.Println("\nRun again with --apply to delete these (each is backed up to .bak).")
		}
		return nil
	}

	result, err := cleaner.Clear(opts)
	if err != nil {
		return err
	}

	color.Green("Deleted %d session(s)", len(result.Deleted))
	if result.Skipped > 0 {
		color.Yellow("Skipped %d unscannable file(s)", result.Skipped)
	}
	for _, e := range result.Errors {
		color.Red("failed: %s: %s", e.SessionID, e.Reason)
	}
	return nil
}

// printReport renders the cleanup preview through the (user-overridable)
// mustache template.
func printReport(template string, candidates []cleanup.Candidate) error {
	rows := make([]map[string]string, 0, len(candidates))
	for _, c := range candidates {
		rows = append(rows, map[string]string{
			"project_name":   c.Project,
			"session_id":     c.SessionID,
			"classification": c.ClassName,
			"snippet":        c.Snippet,
			"size":           humanize.Bytes(uint64(c.FileSize)),
		})
	}

	out, err := mustache.Render(template, map[string]interface{}{
		"total_count": len(candidates),
		"candidates":  rows,
	})
	if err != nil {
		return fmt.Errorf("failed to render cleanup report: %w", err)
	}
	fmt.Print(out)
	return nil
}
