package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Iron-Ham/council/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// RegisterConfigCmd adds the config command and its subcommands to parent.
func RegisterConfigCmd(parent *cobra.Command) {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "View council configuration",
		Long: `View council configuration.

Without arguments, displays the effective configuration.`,
		RunE: runConfigShow,
	}
	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE:  runConfigShow,
	})
	configCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create a default config file",
		Long:  `Create a default config file at ~/.config/council/config.yaml with all available options.`,
		RunE:  runConfigInit,
	})
	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the config file path",
		RunE:  runConfigPath,
	})
	parent.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	if _, err := config.Load(); err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	// Show where config is being read from
	if used := viper.ConfigFileUsed(); used != "" {
		_, _ = fmt.Fprintf(out, "# Config file: %s\n", used)
	} else {
		_, _ = fmt.Fprintln(out, "# Config file: (none - using defaults)")
	}

	settings := viper.AllSettings()
	delete(settings, "config")
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	_, err = out.Write(data)
	return err
}

const defaultConfigContent = `# Council configuration

debate:
  # Number of rounds: analysis, then rebuttals, then synthesis (3 or more)
  rounds: 3
  # Circuit breakers, checked before every round
  max_duration_minutes: 30
  max_budget: 2.00
  enforce_timeout: true
  enforce_budget: true
  # Flat cost charged for every agent operation
  cost_per_operation: 0.01
  # Limit for a single agent operation
  operation_timeout_seconds: 120
  # Concurrent agent operations per round (0 = one per agent)
  max_parallel: 0
  # Share of max_budget that logs a warning
  budget_warning_ratio: 0.8
  perspectives: [cost, security, performance, maintainability]

agents:
  # heuristic (keyword profiles, offline) or llm
  backend: heuristic
  # YAML perspective templates (default: ~/.config/council/templates)
  templates_dir: ""

llm:
  # Any OpenAI-compatible endpoint; empty uses the default
  base_url: ""
  model: gpt-4o-mini
  api_key_env: OPENAI_API_KEY
  temperature: 0.2
  max_tokens: 0

audit:
  enabled: true
  # Default: ~/.local/share/council/audit
  dir: ""
  max_size_mb: 10
  max_backups: 5

knowledge:
  enabled: false
  # file or postgres
  driver: file
  dir: ""
  dsn: ""
  min_confidence: 0.6

logging:
  enabled: true
  # debug, info, warn or error
  level: info
  dir: ""
  max_size_mb: 10
  max_backups: 3
  compress: false
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir := config.ConfigDir()
	configFile := config.ConfigFile()

	// Check if config file already exists
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s", configFile)
	}

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(configFile, []byte(defaultConfigContent), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Created config file at %s\n", configFile)
	_, _ = fmt.Fprintln(out, "Edit this file to customize council's behavior.")
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if used := viper.ConfigFileUsed(); used != "" {
		_, _ = fmt.Fprintf(out, "Active config: %s\n", used)
	} else {
		_, _ = fmt.Fprintf(out, "Default path: %s (not created)\n", config.ConfigFile())
	}

	// Also show config search paths
	_, _ = fmt.Fprintln(out, "\nSearch paths:")
	_, _ = fmt.Fprintf(out, "  1. %s\n", filepath.Join(config.ConfigDir(), "config.yaml"))
	_, _ = fmt.Fprintln(out, "  2. ./config.yaml (current directory)")
	_, _ = fmt.Fprintln(out, "\nEnvironment variables: COUNCIL_* (e.g., COUNCIL_DEBATE_MAX_BUDGET)")
	return nil
}
