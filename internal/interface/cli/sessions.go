package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var sessionsLimit int

var sessionsCmd = &cobra.Command{
	Use:   "sessions <project>",
	Short: "List sessions in a project",
	Long: `List the sessions of one project in reverse chronological order.

Shows titles, message counts, sizes and timestamps. The project argument
is the directory name under the root (see 'ccjanitor projects').

Examples:
  ccjanitor sessions -Users-me-code-myapp
  ccjanitor sessions -Users-me-code-myapp --limit 10`,
	Args: cobra.ExactArgs(1),
	RunE: runSessions,
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.Flags().IntVar(&sessionsLimit, "limit", 20, "Maximum number of sessions to display")
}

func runSessions(cmd *cobra.Command, args []string) error {
	st, _, err := newStore()
	if err != nil {
		return err
	}

	sessions, err := st.ListSessions(args[0])
	if err != nil {
		return err
	}

	// Apply limit (interface concern - pagination)
	if len(sessions) > sessionsLimit {
		sessions = sessions[:sessionsLimit]
	}

	if len(sessions) == 0 {
		fmt.Printf("No sessions found in %s\n", args[0])
		return nil
	}

	fmt.Printf("Showing %d session(s) in %s\n\n", len(sessions), args[0])

	for i, s := range sessions {
		fmt.Printf("[%d] %s\n", i+1, s.SessionID)
		fmt.Printf("    Title: %s\n", truncateTitle(s.Title, 80))
		fmt.Printf("    Messages: %d (%s)\n", s.MessageCount, humanize.Bytes(uint64(s.FileSize)))
		if !s.UpdatedAt.IsZero() {
			fmt.Printf("    Updated: %s\n", formatTimestamp(s.UpdatedAt))
		}
		fmt.Println()
	}

	return nil
}

// truncateTitle truncates long titles for display
func truncateTitle(title string, maxLen int) string {
	// Remove newlines and excessive whitespace
	title = strings.ReplaceAll(title, "\n", " ")
	title = strings.Join(strings.Fields(title), " ")

	if len(title) <= maxLen {
		return title
	}

	// Find a good break point (end of word)
	truncated := title[:maxLen]
	lastSpace := strings.LastIndex(truncated, " ")
	if lastSpace > maxLen-20 {
		truncated = truncated[:lastSpace]
	}

	return truncated + "..."
}

// formatTimestamp formats a timestamp in a human-friendly way
func formatTimestamp(t time.Time) string {
	now := time.Now()
	diff := now.Sub(t)

	if diff < time.Minute {
		return "just now"
	}
	if diff < time.Hour {
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	}
	if diff < 24*time.Hour {
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	}
	if diff < 7*24*time.Hour {
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}

	if t.Year() == now.Year() {
		return t.Format("Jan 2")
	}
	return t.Format("Jan 2, 2006")
}
