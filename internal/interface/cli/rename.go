package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var renameCmd = &cobra.Command{
	Use:   "rename <project> <session-id> <title>",
	Short: "Add a title prefix to a session's first message",
	Long: `Prepend a title to the first user message of a session so it shows up
in session pickers. The original message text is kept below the title;
renaming again stacks another prefix.

Example:
  ccjanitor rename -Users-me-code-myapp 3f2a91c0-12ab "Fix login flow"`,
	Args: cobra.ExactArgs(3),
	RunE: runRename,
}

func init() {
	rootCmd.AddCommand(renameCmd)
}

func runRename(cmd *cobra.Command, args []string) error {
	st, _, err := newStore()
	if err != nil {
		return err
	}

	if err := st.RenameSession(args[0], args[1], args[2]); err != nil {
		return err
	}

	color.Green("Renamed %s/%s", args[0], args[1])
	return nil
}
