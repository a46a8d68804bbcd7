package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// DefaultCleanupReport is the mustache template used to render cleanup
// previews in the CLI. A file named cleanup_report.mustache in the config
// directory overrides it.
const DefaultCleanupReport = `Cleanup candidates: {{total_count}}
{{#candidates}}
  [{{classification}}] {{project_name}}/{{session_id}} ({{size}}) {{snippet}}
{{/candidates}}
{{^candidates}}
  Nothing to clean up.
{{/candidates}}`

type Config struct {
	ProjectsRoot          string   // override for ~/.claude/projects
	ExtraSignatures       []string // user-supplied auth-failure substrings
	CleanupReportTemplate string
}

type tomlConfig struct {
	ProjectsRoot    string   `toml:"projects_root"`
	ExtraSignatures []string `toml:"extra_invalid_signatures"`
}

// Load reads config from ~/.config/ccjanitor/. Missing files mean
// defaults; a broken config never blocks startup.
func Load() (*Config, error) {
	cfg := &Config{
		CleanupReportTemplate: DefaultCleanupReport,
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, nil // Use defaults
	}

	configDir := filepath.Join(home, ".config", "ccjanitor")
	tomlPath := filepath.Join(configDir, "config.toml")
	reportPath := filepath.Join(configDir, "cleanup_report.mustache")

	// Load TOML config if it exists
	if _, err := os.Stat(tomlPath); err == nil {
		var tc tomlConfig
		if _, err := toml.DecodeFile(tomlPath, &tc); err == nil {
			cfg.ProjectsRoot = tc.ProjectsRoot
			cfg.ExtraSignatures = tc.ExtraSignatures
		}
	}

	// If custom report template exists, use it
	if data, err := os.ReadFile(reportPath); err == nil {
		cfg.CleanupReportTemplate = string(data)
	}

	return cfg, nil
}
