package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/yjkwon/ccjanitor/internal/core/cleanup"
	"github.com/yjkwon/ccjanitor/internal/interface/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse projects and sessions interactively",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	st, cfg, err := newStore()
	if err != nil {
		return err
	}
	cleaner := cleanup.New(st, cfg.ExtraSignatures, newLogger())

	p := tea.NewProgram(tui.New(st, cleaner), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI failed: %w", err)
	}
	return nil
}
