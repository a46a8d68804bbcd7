package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yjkwon/ccjanitor/cmd/ccjanitor/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "serve-mcp",
	Short: "Start MCP server for Claude Code integration",
	Long: `Start an MCP (Model Context Protocol) server that lets Claude Code
list, rename, delete and clean up its own session files.

Configure in Claude Code's MCP settings:
  {
    "mcpServers": {
      "ccjanitor": {
        "command": "ccjanitor",
        "args": ["serve-mcp"]
      }
    }
  }
`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	root, err := resolveRoot(cfg)
	if err != nil {
		return fmt.Errorf("failed to resolve projects root: %w", err)
	}

	// The MCP transport owns stdout, so diagnostics always go to stderr.
	logCfg := zap.NewProductionConfig()
	logCfg.OutputPaths = []string{"stderr"}
	logCfg.ErrorOutputPaths = []string{"stderr"}
	log, err := logCfg.Build()
	if err != nil {
		log = zap.NewNop()
	}
	defer func() { _ = log.Sync() }()

	if err := mcp.StartServer(root, cfg, log); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}
