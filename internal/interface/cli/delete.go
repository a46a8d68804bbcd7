package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <project> <session-id>",
	Short: "Delete a session (moves it to the project's .bak folder)",
	Long: `Move a session file into the project's .bak subdirectory. Nothing is
ever erased: restore a session by moving the file back out of .bak.`,
	Args: cobra.ExactArgs(2),
	RunE: runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	st, _, err := newStore()
	if err != nil {
		return err
	}

	backupPath, err := st.DeleteSession(args[0], args[1])
	if err != nil {
		return err
	}

	color.Green("Deleted %s/%s", args[0], args[1])
	color.New(color.Faint).Printf("backed up to %s\n", backupPath)
	return nil
}
