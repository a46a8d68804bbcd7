package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yjkwon/ccjanitor/internal/core/config"
	"github.com/yjkwon/ccjanitor/internal/core/store"
)

var (
	rootDir     string
	verbose     bool
	versionInfo string
)

// SetVersion sets the version information from build-time ldflags
func SetVersion(version, commit, date string) {
	versionInfo = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
	rootCmd.Version = versionInfo
}

// Execute runs the CLI
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ccjanitor",
	Short: "Claude Code session janitor",
	Long: `ccjanitor - list, rename, delete and clean up your Claude Code sessions

Sessions live as JSONL files under ~/.claude/projects, one directory per
project. Deletes are always backups: files move into the project's .bak
folder and can be restored by moving them back.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default to TUI if no subcommand specified
		return tuiCmd.RunE(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "Projects root (default ~/.claude/projects)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log diagnostics to stderr")
}

// loadConfig reads the user config; it never fails hard.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil || cfg == nil {
		return &config.Config{CleanupReportTemplate: config.DefaultCleanupReport}
	}
	return cfg
}

// resolveRoot picks the projects root: --root flag, then config, then the
// conventional default.
func resolveRoot(cfg *config.Config) (string, error) {
	if rootDir != "" {
		return rootDir, nil
	}
	if cfg.ProjectsRoot != "" {
		return cfg.ProjectsRoot, nil
	}
	return store.DefaultRoot()
}

// newLogger builds the stderr logger. stdout stays clean: it belongs to
// command output (and to the MCP transport under serve-mcp).
func newLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logCfg := zap.NewDevelopmentConfig()
	logCfg.OutputPaths = []string{"stderr"}
	logCfg.ErrorOutputPaths = []string{"stderr"}
	log, err := logCfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

// newStore wires a Store from flags and config.
func newStore() (*store.Store, *config.Config, error) {
	cfg := loadConfig()
	root, err := resolveRoot(cfg)
	if err != nil {
		return nil, nil, err
	}
	return store.New(root, newLogger()), cfg, nil
}
