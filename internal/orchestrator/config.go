package orchestrator

import (
	"math"
	"time"

	"github.com/Iron-Ham/council/internal/config"
	"github.com/Iron-Ham/council/internal/errors"
)

// Default scheduler settings.
const (
	DefaultRounds           = 3
	DefaultMaxDuration      = 30 * time.Minute
	DefaultMaxBudget        = 2.00
	DefaultCostPerOperation = 0.01
	DefaultOperationTimeout = 2 * time.Minute
)

// Config controls how a debate is scheduled.
type Config struct {
	// Rounds is the number of rounds. Round 1 is analysis, the last round is
	// synthesis when there are at least three, and the rest are rebuttals.
	Rounds int

	MaxDuration      time.Duration
	MaxBudget        float64
	CostPerOperation float64
	EnforceBudget    bool
	EnforceTimeout   bool

	// OperationTimeout bounds a single agent operation.
	OperationTimeout time.Duration

	// MaxParallel caps concurrent agent operations in fan-out rounds.
	// Zero means one goroutine per agent.
	MaxParallel int

	// BudgetWarningRatio is the share of MaxBudget at which a warning is
	// logged. Zero disables the warning.
	BudgetWarningRatio float64
}

// DefaultConfig returns the scheduler defaults.
func DefaultConfig() Config {
	return Config{
		Rounds:             DefaultRounds,
		MaxDuration:        DefaultMaxDuration,
		MaxBudget:          DefaultMaxBudget,
		CostPerOperation:   DefaultCostPerOperation,
		EnforceBudget:      true,
		EnforceTimeout:     true,
		OperationTimeout:   DefaultOperationTimeout,
		BudgetWarningRatio: 0.8,
	}
}

// FromConfig maps the debate section of the application config onto
// scheduler settings.
func FromConfig(c config.DebateConfig) Config {
	return Config{
		Rounds:             c.Rounds,
		MaxDuration:        time.Duration(c.MaxDurationMinutes * float64(time.Minute)),
		MaxBudget:          c.MaxBudget,
		CostPerOperation:   c.CostPerOperation,
		EnforceBudget:      c.EnforceBudget,
		EnforceTimeout:     c.EnforceTimeout,
		OperationTimeout:   time.Duration(c.OperationTimeoutSeconds) * time.Second,
		MaxParallel:        c.MaxParallel,
		BudgetWarningRatio: c.BudgetWarningRatio,
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.Rounds < 1:
		return invalidConfig("rounds", c.Rounds, "at least one round is required")
	case c.EnforceTimeout && c.MaxDuration <= 0:
		return invalidConfig("max_duration", c.MaxDuration, "must be positive when the timeout is enforced")
	case c.MaxBudget < 0 || math.IsNaN(c.MaxBudget):
		return invalidConfig("max_budget", c.MaxBudget, "must be non-negative")
	case c.CostPerOperation < 0 || math.IsNaN(c.CostPerOperation) || math.IsInf(c.CostPerOperation, 0):
		return invalidConfig("cost_per_operation", c.CostPerOperation, "must be a finite non-negative amount")
	case c.OperationTimeout <= 0:
		return invalidConfig("operation_timeout", c.OperationTimeout, "must be positive")
	case c.MaxParallel < 0:
		return invalidConfig("max_parallel", c.MaxParallel, "must be non-negative")
	case c.BudgetWarningRatio < 0 || c.BudgetWarningRatio > 1:
		return invalidConfig("budget_warning_ratio", c.BudgetWarningRatio, "must be within [0, 1]")
	}
	return nil
}

func invalidConfig(field string, value any, msg string) error {
	return errors.NewValidationError(msg).
		WithField(field).
		WithValue(value).
		WithCause(errors.ErrInvalidConfig)
}
