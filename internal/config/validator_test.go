package config

import (
	"math"
	"strings"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	err := ValidationError{
		Field:   "test.field",
		Value:   123,
		Message: "must be greater than zero",
	}

	expected := "test.field: must be greater than zero (got: 123)"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestValidationErrors_Error(t *testing.T) {
	t.Run("empty errors", func(t *testing.T) {
		var errs ValidationErrors
		if errs.Error() != "" {
			t.Errorf("Error() for empty = %q, want empty string", errs.Error())
		}
	})

	t.Run("single error", func(t *testing.T) {
		errs := ValidationErrors{
			{Field: "test.field", Value: 123, Message: "is invalid"},
		}
		expected := "test.field: is invalid (got: 123)"
		if errs.Error() != expected {
			t.Errorf("Error() = %q, want %q", errs.Error(), expected)
		}
	})

	t.Run("multiple errors", func(t *testing.T) {
		errs := ValidationErrors{
			{Field: "field1", Value: "bad", Message: "is invalid"},
			{Field: "field2", Value: -1, Message: "must be positive"},
		}
		result := errs.Error()
		if !strings.Contains(result, "2 validation errors") {
			t.Errorf("Error() should mention 2 errors: %s", result)
		}
		if !strings.Contains(result, "field1") || !strings.Contains(result, "field2") {
			t.Errorf("Error() should mention both fields: %s", result)
		}
	})
}

func TestConfig_Validate_DefaultConfig(t *testing.T) {
	cfg := Default()
	errs := cfg.Validate()
	if len(errs) != 0 {
		t.Errorf("Default config should be valid, got %d errors: %v", len(errs), errs)
	}
}

func hasField(errs []ValidationError, field string) bool {
	for _, err := range errs {
		if err.Field == field {
			return true
		}
	}
	return false
}

func TestConfig_Validate_Debate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		field   string
		wantErr bool
	}{
		{"one round", func(c *Config) { c.Debate.Rounds = 1 }, "debate.rounds", false},
		{"zero rounds", func(c *Config) { c.Debate.Rounds = 0 }, "debate.rounds", true},
		{"too many rounds", func(c *Config) { c.Debate.Rounds = 21 }, "debate.rounds", true},
		{"zero duration enforced", func(c *Config) { c.Debate.MaxDurationMinutes = 0 }, "debate.max_duration_minutes", true},
		{"zero duration not enforced", func(c *Config) {
			c.Debate.MaxDurationMinutes = 0
			c.Debate.EnforceTimeout = false
		}, "debate.max_duration_minutes", false},
		{"NaN duration", func(c *Config) { c.Debate.MaxDurationMinutes = math.NaN() }, "debate.max_duration_minutes", true},
		{"zero budget", func(c *Config) { c.Debate.MaxBudget = 0 }, "debate.max_budget", false},
		{"negative budget", func(c *Config) { c.Debate.MaxBudget = -1 }, "debate.max_budget", true},
		{"free operations", func(c *Config) { c.Debate.CostPerOperation = 0 }, "debate.cost_per_operation", false},
		{"infinite cost", func(c *Config) { c.Debate.CostPerOperation = math.Inf(1) }, "debate.cost_per_operation", true},
		{"zero operation timeout", func(c *Config) { c.Debate.OperationTimeoutSeconds = 0 }, "debate.operation_timeout_seconds", true},
		{"negative parallelism", func(c *Config) { c.Debate.MaxParallel = -2 }, "debate.max_parallel", true},
		{"warning ratio above one", func(c *Config) { c.Debate.BudgetWarningRatio = 1.5 }, "debate.budget_warning_ratio", true},
		{"blank perspective", func(c *Config) { c.Debate.Perspectives = []string{"cost", " "} }, "debate.perspectives[1]", true},
		{"no perspectives", func(c *Config) { c.Debate.Perspectives = nil }, "debate.perspectives[0]", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			if got := hasField(cfg.Validate(), tt.field); got != tt.wantErr {
				t.Errorf("error for %s = %v, want %v", tt.field, got, tt.wantErr)
			}
		})
	}
}

func TestConfig_Validate_Agents(t *testing.T) {
	for _, backend := range []string{"heuristic", "llm", ""} {
		cfg := Default()
		cfg.Agents.Backend = backend
		if hasField(cfg.Validate(), "agents.backend") {
			t.Errorf("backend %q should be valid", backend)
		}
	}

	cfg := Default()
	cfg.Agents.Backend = "oracle"
	if !hasField(cfg.Validate(), "agents.backend") {
		t.Error("expected error for unknown backend")
	}

	cfg = Default()
	cfg.Agents.TemplatesDir = "bad\x00dir"
	if !hasField(cfg.Validate(), "agents.templates_dir") {
		t.Error("expected error for null byte in templates_dir")
	}
}

func TestConfig_Validate_LLM(t *testing.T) {
	t.Run("ignored for the heuristic backend", func(t *testing.T) {
		cfg := Default()
		cfg.LLM.Model = ""
		cfg.LLM.Temperature = 9
		if errs := cfg.Validate(); len(errs) != 0 {
			t.Errorf("unexpected errors: %v", errs)
		}
	})

	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"missing model", func(c *Config) { c.LLM.Model = " " }, "llm.model"},
		{"temperature too high", func(c *Config) { c.LLM.Temperature = 2.5 }, "llm.temperature"},
		{"negative max tokens", func(c *Config) { c.LLM.MaxTokens = -1 }, "llm.max_tokens"},
		{"base url without scheme", func(c *Config) { c.LLM.BaseURL = "localhost:8080/v1" }, "llm.base_url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Agents.Backend = BackendLLM
			tt.modify(cfg)
			if !hasField(cfg.Validate(), tt.field) {
				t.Errorf("expected error for %s", tt.field)
			}
		})
	}

	cfg := Default()
	cfg.Agents.Backend = BackendLLM
	cfg.LLM.BaseURL = "http://localhost:11434/v1"
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("local endpoint should be valid, got %v", errs)
	}
}

func TestConfig_Validate_Audit(t *testing.T) {
	cfg := Default()
	cfg.Audit.MaxBackups = -1
	if !hasField(cfg.Validate(), "audit.max_backups") {
		t.Error("expected error for negative max_backups")
	}

	cfg.Audit.Enabled = false
	if hasField(cfg.Validate(), "audit.max_backups") {
		t.Error("a disabled audit log should not be validated")
	}
}

func TestConfig_Validate_Knowledge(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		field   string
		wantErr bool
	}{
		{"confidence above one", func(c *Config) { c.Knowledge.MinConfidence = 1.1 }, "knowledge.min_confidence", true},
		{"unknown driver disabled", func(c *Config) { c.Knowledge.Driver = "mongo" }, "knowledge.driver", false},
		{"unknown driver enabled", func(c *Config) {
			c.Knowledge.Enabled = true
			c.Knowledge.Driver = "mongo"
		}, "knowledge.driver", true},
		{"postgres without dsn", func(c *Config) {
			c.Knowledge.Enabled = true
			c.Knowledge.Driver = "postgres"
		}, "knowledge.dsn", true},
		{"postgres with dsn", func(c *Config) {
			c.Knowledge.Enabled = true
			c.Knowledge.Driver = "postgres"
			c.Knowledge.DSN = "postgres://localhost/council"
		}, "knowledge.dsn", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			if got := hasField(cfg.Validate(), tt.field); got != tt.wantErr {
				t.Errorf("error for %s = %v, want %v", tt.field, got, tt.wantErr)
			}
		})
	}
}

func TestConfig_Validate_Logging(t *testing.T) {
	t.Run("valid log levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error", ""} {
			cfg := Default()
			cfg.Logging.Level = level
			if hasField(cfg.Validate(), "logging.level") {
				t.Errorf("level %q should be valid", level)
			}
		}
	})

	t.Run("case sensitive log level", func(t *testing.T) {
		cfg := Default()
		cfg.Logging.Level = "INFO"
		if !hasField(cfg.Validate(), "logging.level") {
			t.Error("expected error for uppercase log level")
		}
	})

	t.Run("max size bounds", func(t *testing.T) {
		for _, size := range []int{0, 1001} {
			cfg := Default()
			cfg.Logging.MaxSizeMB = size
			if !hasField(cfg.Validate(), "logging.max_size_mb") {
				t.Errorf("expected error for max_size_mb = %d", size)
			}
		}
	})

	t.Run("negative backups", func(t *testing.T) {
		cfg := Default()
		cfg.Logging.MaxBackups = -1
		if !hasField(cfg.Validate(), "logging.max_backups") {
			t.Error("expected error for negative max_backups")
		}
	})
}

func TestConfig_Validate_MultipleErrors(t *testing.T) {
	cfg := Default()
	cfg.Debate.Rounds = 0
	cfg.Debate.MaxBudget = -1
	cfg.Logging.Level = "loud"

	errs := cfg.Validate()
	if len(errs) != 3 {
		t.Errorf("expected 3 errors, got %d: %v", len(errs), errs)
	}
}
