package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List Claude Code projects",
	Long: `List every project directory under the root with its session count
and total size on disk.`,
	RunE: runProjects,
}

func init() {
	rootCmd.AddCommand(projectsCmd)
}

func runProjects(cmd *cobra.Command, args []string) error {
	st, _, err := newStore()
	if err != nil {
		return err
	}

	projects, err := st.ListProjects()
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}

	if len(projects) == 0 {
		fmt.Println("No projects found.")
		return nil
	}

	for _, p := range projects {
		fmt.Printf("%s\n", p.DisplayName)
		fmt.Printf("    Dir: %s\n", p.Name)
		fmt.Printf("    Sessions: %d (%s)\n", p.SessionCount, humanize.Bytes(uint64(p.TotalSize)))
		fmt.Println()
	}
	return nil
}
