package config

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "debate.max_budget")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateDebate()...)
	errors = append(errors, c.validateAgents()...)
	errors = append(errors, c.validateLLM()...)
	errors = append(errors, c.validateAudit()...)
	errors = append(errors, c.validateKnowledge()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

// validateDebate validates the DebateConfig
func (c *Config) validateDebate() []ValidationError {
	var errors []ValidationError
	d := c.Debate

	const maxRounds = 20
	if d.Rounds < 1 {
		errors = append(errors, ValidationError{
			Field:   "debate.rounds",
			Value:   d.Rounds,
			Message: "must be at least 1",
		})
	}
	if d.Rounds > maxRounds {
		errors = append(errors, ValidationError{
			Field:   "debate.rounds",
			Value:   d.Rounds,
			Message: fmt.Sprintf("exceeds maximum of %d", maxRounds),
		})
	}

	// A non-positive limit is only meaningful when the breaker is off
	if d.EnforceTimeout && !(d.MaxDurationMinutes > 0) {
		errors = append(errors, ValidationError{
			Field:   "debate.max_duration_minutes",
			Value:   d.MaxDurationMinutes,
			Message: "must be positive when enforce_timeout is set",
		})
	}

	if d.MaxBudget < 0 || math.IsNaN(d.MaxBudget) {
		errors = append(errors, ValidationError{
			Field:   "debate.max_budget",
			Value:   d.MaxBudget,
			Message: "must be non-negative",
		})
	}

	if d.CostPerOperation < 0 || math.IsNaN(d.CostPerOperation) || math.IsInf(d.CostPerOperation, 0) {
		errors = append(errors, ValidationError{
			Field:   "debate.cost_per_operation",
			Value:   d.CostPerOperation,
			Message: "must be a finite non-negative amount",
		})
	}

	if d.OperationTimeoutSeconds <= 0 {
		errors = append(errors, ValidationError{
			Field:   "debate.operation_timeout_seconds",
			Value:   d.OperationTimeoutSeconds,
			Message: "must be positive",
		})
	}

	if d.MaxParallel < 0 {
		errors = append(errors, ValidationError{
			Field:   "debate.max_parallel",
			Value:   d.MaxParallel,
			Message: "must be non-negative (0 means unbounded)",
		})
	}

	if d.BudgetWarningRatio < 0 || d.BudgetWarningRatio > 1 {
		errors = append(errors, ValidationError{
			Field:   "debate.budget_warning_ratio",
			Value:   d.BudgetWarningRatio,
			Message: "must be between 0 and 1",
		})
	}

	for i, p := range d.Perspectives {
		if strings.TrimSpace(p) == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("debate.perspectives[%d]", i),
				Value:   p,
				Message: "must not be empty",
			})
		}
	}

	return errors
}

// validateAgents validates the AgentsConfig
func (c *Config) validateAgents() []ValidationError {
	var errors []ValidationError

	if c.Agents.Backend != "" && !slices.Contains(ValidBackends(), c.Agents.Backend) {
		errors = append(errors, ValidationError{
			Field:   "agents.backend",
			Value:   c.Agents.Backend,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidBackends(), ", ")),
		})
	}

	if strings.ContainsRune(c.Agents.TemplatesDir, '\x00') {
		errors = append(errors, ValidationError{
			Field:   "agents.templates_dir",
			Value:   c.Agents.TemplatesDir,
			Message: "contains invalid null character",
		})
	}

	return errors
}

// validateLLM validates the LLMConfig. Only checked when the llm backend is in use.
func (c *Config) validateLLM() []ValidationError {
	var errors []ValidationError
	if c.Agents.Backend != BackendLLM {
		return errors
	}

	if strings.TrimSpace(c.LLM.Model) == "" {
		errors = append(errors, ValidationError{
			Field:   "llm.model",
			Value:   c.LLM.Model,
			Message: "is required for the llm backend",
		})
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errors = append(errors, ValidationError{
			Field:   "llm.temperature",
			Value:   c.LLM.Temperature,
			Message: "must be between 0 and 2",
		})
	}

	if c.LLM.MaxTokens < 0 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_tokens",
			Value:   c.LLM.MaxTokens,
			Message: "must be non-negative (0 leaves it to the server)",
		})
	}

	if c.LLM.BaseURL != "" && !strings.HasPrefix(c.LLM.BaseURL, "http://") && !strings.HasPrefix(c.LLM.BaseURL, "https://") {
		errors = append(errors, ValidationError{
			Field:   "llm.base_url",
			Value:   c.LLM.BaseURL,
			Message: "must be an http or https URL",
		})
	}

	return errors
}

// validateAudit validates the AuditConfig
func (c *Config) validateAudit() []ValidationError {
	var errors []ValidationError
	if !c.Audit.Enabled {
		return errors
	}

	if c.Audit.MaxSizeMB < 0 {
		errors = append(errors, ValidationError{
			Field:   "audit.max_size_mb",
			Value:   c.Audit.MaxSizeMB,
			Message: "must be non-negative (0 disables rotation)",
		})
	}

	if c.Audit.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "audit.max_backups",
			Value:   c.Audit.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validateKnowledge validates the KnowledgeConfig
func (c *Config) validateKnowledge() []ValidationError {
	var errors []ValidationError

	if c.Knowledge.MinConfidence < 0 || c.Knowledge.MinConfidence > 1 {
		errors = append(errors, ValidationError{
			Field:   "knowledge.min_confidence",
			Value:   c.Knowledge.MinConfidence,
			Message: "must be between 0 and 1",
		})
	}

	if !c.Knowledge.Enabled {
		return errors
	}

	if c.Knowledge.Driver != "" && !slices.Contains(ValidKnowledgeDrivers(), c.Knowledge.Driver) {
		errors = append(errors, ValidationError{
			Field:   "knowledge.driver",
			Value:   c.Knowledge.Driver,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidKnowledgeDrivers(), ", ")),
		})
	}

	if c.Knowledge.Driver == "postgres" && strings.TrimSpace(c.Knowledge.DSN) == "" {
		errors = append(errors, ValidationError{
			Field:   "knowledge.dsn",
			Value:   c.Knowledge.DSN,
			Message: "is required for the postgres driver",
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	// Validate log level
	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	// Max size must be positive
	if c.Logging.MaxSizeMB <= 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be positive",
		})
	}

	// Reasonable upper bound for log file size
	const maxLogSizeMB = 1000 // 1GB
	if c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	// Max backups must be non-negative
	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}
