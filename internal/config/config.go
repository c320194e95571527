package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete council configuration
type Config struct {
	Debate    DebateConfig    `mapstructure:"debate"`
	Agents    AgentsConfig    `mapstructure:"agents"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Audit     AuditConfig     `mapstructure:"audit"`
	Knowledge KnowledgeConfig `mapstructure:"knowledge"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// DebateConfig controls how a debate is scheduled
type DebateConfig struct {
	// Rounds is the number of debate rounds (default: 3)
	Rounds int `mapstructure:"rounds"`
	// MaxDurationMinutes is the wall-clock limit checked between rounds (default: 30)
	MaxDurationMinutes float64 `mapstructure:"max_duration_minutes"`
	// MaxBudget is the spend limit in dollars checked between rounds (default: 2.00)
	MaxBudget float64 `mapstructure:"max_budget"`
	// CostPerOperation is the flat cost charged for each agent operation (default: 0.01)
	CostPerOperation float64 `mapstructure:"cost_per_operation"`
	// EnforceBudget turns the budget circuit breaker on (default: true)
	EnforceBudget bool `mapstructure:"enforce_budget"`
	// EnforceTimeout turns the timeout circuit breaker on (default: true)
	EnforceTimeout bool `mapstructure:"enforce_timeout"`
	// OperationTimeoutSeconds bounds a single agent operation (default: 120)
	OperationTimeoutSeconds int `mapstructure:"operation_timeout_seconds"`
	// MaxParallel caps concurrent agent operations per round (default: 0, unbounded)
	MaxParallel int `mapstructure:"max_parallel"`
	// BudgetWarningRatio is the share of MaxBudget that logs a warning (default: 0.8)
	BudgetWarningRatio float64 `mapstructure:"budget_warning_ratio"`
	// Perspectives are used when the debate command is given none
	Perspectives []string `mapstructure:"perspectives"`
}

// MaxDuration returns the debate time limit as a time.Duration
func (c *DebateConfig) MaxDuration() time.Duration {
	return time.Duration(c.MaxDurationMinutes * float64(time.Minute))
}

// OperationTimeout returns the per-operation limit as a time.Duration
func (c *DebateConfig) OperationTimeout() time.Duration {
	return time.Duration(c.OperationTimeoutSeconds) * time.Second
}

// AgentsConfig controls which agents are spawned for a perspective
type AgentsConfig struct {
	// Backend is "heuristic" (keyword profiles, no network) or "llm" (default: "heuristic")
	Backend string `mapstructure:"backend"`
	// TemplatesDir holds YAML perspective templates. Empty means
	// "templates" under the config directory.
	TemplatesDir string `mapstructure:"templates_dir"`
}

// LLMConfig configures the model-backed agents
type LLMConfig struct {
	// BaseURL points at an OpenAI-compatible endpoint. Empty uses the default.
	BaseURL string `mapstructure:"base_url"`
	// Model is the chat model name (default: "gpt-4o-mini")
	Model string `mapstructure:"model"`
	// APIKeyEnv names the environment variable holding the API key (default: "OPENAI_API_KEY")
	APIKeyEnv string `mapstructure:"api_key_env"`
	// Temperature is the sampling temperature (default: 0.2)
	Temperature float64 `mapstructure:"temperature"`
	// MaxTokens caps each reply. Zero leaves it to the server.
	MaxTokens int `mapstructure:"max_tokens"`
}

// APIKey reads the key from the configured environment variable
func (c *LLMConfig) APIKey() string {
	if c.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.APIKeyEnv)
}

// AuditConfig controls the per-debate event log
type AuditConfig struct {
	// Enabled writes every debate event to audit.jsonl (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Dir is where audit files are written. Empty means "audit" under the data directory.
	Dir string `mapstructure:"dir"`
	// MaxSizeMB rotates the audit file past this size (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of rotated audit files kept (default: 5)
	MaxBackups int `mapstructure:"max_backups"`
}

// KnowledgeConfig controls capture of decisive debate outcomes
type KnowledgeConfig struct {
	// Enabled stores decisive outcomes after each debate (default: false)
	Enabled bool `mapstructure:"enabled"`
	// Driver is "file" or "postgres" (default: "file")
	Driver string `mapstructure:"driver"`
	// Dir is used by the file driver. Empty means "knowledge" under the data directory.
	Dir string `mapstructure:"dir"`
	// DSN is the postgres connection string
	DSN string `mapstructure:"dsn"`
	// MinConfidence is the lowest verdict confidence captured (default: 0.6)
	MinConfidence float64 `mapstructure:"min_confidence"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether debug logging is enabled (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// Dir is where debug.log is written. Empty means "logs" under the data directory.
	Dir string `mapstructure:"dir"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of backup log files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups"`
	// Compress gzips rotated log files (default: false)
	Compress bool `mapstructure:"compress"`
}

// DefaultPerspectives are debated when neither the command line nor the
// config file names any.
func DefaultPerspectives() []string {
	return []string{"cost", "security", "performance", "maintainability"}
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Debate: DebateConfig{
			Rounds:                  3,
			MaxDurationMinutes:      30,
			MaxBudget:               2.00,
			CostPerOperation:        0.01,
			EnforceBudget:           true,
			EnforceTimeout:          true,
			OperationTimeoutSeconds: 120,
			MaxParallel:             0,
			BudgetWarningRatio:      0.8,
			Perspectives:            DefaultPerspectives(),
		},
		Agents: AgentsConfig{
			Backend: BackendHeuristic,
		},
		LLM: LLMConfig{
			Model:       "gpt-4o-mini",
			APIKeyEnv:   "OPENAI_API_KEY",
			Temperature: 0.2,
		},
		Audit: AuditConfig{
			Enabled:    true,
			MaxSizeMB:  10,
			MaxBackups: 5,
		},
		Knowledge: KnowledgeConfig{
			Enabled:       false,
			Driver:        "file",
			MinConfidence: 0.6,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Debate defaults
	viper.SetDefault("debate.rounds", defaults.Debate.Rounds)
	viper.SetDefault("debate.max_duration_minutes", defaults.Debate.MaxDurationMinutes)
	viper.SetDefault("debate.max_budget", defaults.Debate.MaxBudget)
	viper.SetDefault("debate.cost_per_operation", defaults.Debate.CostPerOperation)
	viper.SetDefault("debate.enforce_budget", defaults.Debate.EnforceBudget)
	viper.SetDefault("debate.enforce_timeout", defaults.Debate.EnforceTimeout)
	viper.SetDefault("debate.operation_timeout_seconds", defaults.Debate.OperationTimeoutSeconds)
	viper.SetDefault("debate.max_parallel", defaults.Debate.MaxParallel)
	viper.SetDefault("debate.budget_warning_ratio", defaults.Debate.BudgetWarningRatio)
	viper.SetDefault("debate.perspectives", defaults.Debate.Perspectives)

	// Agent defaults
	viper.SetDefault("agents.backend", defaults.Agents.Backend)
	viper.SetDefault("agents.templates_dir", defaults.Agents.TemplatesDir)

	// LLM defaults
	viper.SetDefault("llm.base_url", defaults.LLM.BaseURL)
	viper.SetDefault("llm.model", defaults.LLM.Model)
	viper.SetDefault("llm.api_key_env", defaults.LLM.APIKeyEnv)
	viper.SetDefault("llm.temperature", defaults.LLM.Temperature)
	viper.SetDefault("llm.max_tokens", defaults.LLM.MaxTokens)

	// Audit defaults
	viper.SetDefault("audit.enabled", defaults.Audit.Enabled)
	viper.SetDefault("audit.dir", defaults.Audit.Dir)
	viper.SetDefault("audit.max_size_mb", defaults.Audit.MaxSizeMB)
	viper.SetDefault("audit.max_backups", defaults.Audit.MaxBackups)

	// Knowledge defaults
	viper.SetDefault("knowledge.enabled", defaults.Knowledge.Enabled)
	viper.SetDefault("knowledge.driver", defaults.Knowledge.Driver)
	viper.SetDefault("knowledge.dir", defaults.Knowledge.Dir)
	viper.SetDefault("knowledge.dsn", defaults.Knowledge.DSN)
	viper.SetDefault("knowledge.min_confidence", defaults.Knowledge.MinConfidence)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
	viper.SetDefault("logging.compress", defaults.Logging.Compress)
}

// BindEnv makes every setting overridable through COUNCIL_* environment
// variables, e.g. COUNCIL_DEBATE_MAX_BUDGET.
func BindEnv() {
	viper.SetEnvPrefix("council")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate the configuration
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "council")
	}
	// Fall back to ~/.config/council
	home, err := os.UserHomeDir()
	if err != nil {
		return ".council"
	}
	return filepath.Join(home, ".config", "council")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DataDir returns where audit, knowledge and log files live by default
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "council")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".council"
	}
	return filepath.Join(home, ".local", "share", "council")
}

// TemplatesDir returns the configured template directory, or the default
// under ConfigDir.
func (c *Config) TemplatesDir() string {
	if c.Agents.TemplatesDir != "" {
		return c.Agents.TemplatesDir
	}
	return filepath.Join(ConfigDir(), "templates")
}

// AuditDir returns the configured audit directory, or the default under DataDir.
func (c *Config) AuditDir() string {
	if c.Audit.Dir != "" {
		return c.Audit.Dir
	}
	return filepath.Join(DataDir(), "audit")
}

// KnowledgeDir returns the configured knowledge directory, or the default under DataDir.
func (c *Config) KnowledgeDir() string {
	if c.Knowledge.Dir != "" {
		return c.Knowledge.Dir
	}
	return filepath.Join(DataDir(), "knowledge")
}

// LogDir returns the configured log directory, or the default under DataDir.
func (c *Config) LogDir() string {
	if c.Logging.Dir != "" {
		return c.Logging.Dir
	}
	return filepath.Join(DataDir(), "logs")
}

// Agent backends
const (
	BackendHeuristic = "heuristic"
	BackendLLM       = "llm"
)

// ValidBackends returns the list of valid agent backends
func ValidBackends() []string {
	return []string{BackendHeuristic, BackendLLM}
}

// ValidKnowledgeDrivers returns the list of valid knowledge drivers
func ValidKnowledgeDrivers() []string {
	return []string{"file", "postgres"}
}
