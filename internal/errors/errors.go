// Package errors provides centralized error definitions and error handling utilities
// for the council codebase. It defines domain-specific errors, semantic error types,
// error constructors with context wrapping, and error classification helpers.
//
// # Error Types
//
// Domain-specific errors represent errors from specific subsystems:
//   - DebateError: scheduler-level failures for a single debate session
//   - AgentError: a failed agent operation inside a round
//
// Semantic errors represent common error conditions:
//   - ValidationError: invalid input or state
//   - TimeoutError: operation timed out
//
// # Usage
//
//	err := errors.NewAgentError("analyze failed", cause).
//	    WithAgent("security", "security").
//	    WithRound(1)
//
//	if errors.Is(err, errors.ErrOperationTimeout) { ... }
//
//	var agentErr *errors.AgentError
//	if errors.As(err, &agentErr) { ... }
//
// # Error Classification
//
// Circuit-breaker halts are not errors: the scheduler reports them as an outcome
// on the result. The ErrBudgetExceeded and ErrTimeoutExceeded sentinels exist so a
// halt cause can still be matched with errors.Is when it is surfaced as an error
// (for example by the CLI exit path).
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Debate-related sentinel errors
var (
	// ErrBudgetExceeded indicates the spend circuit breaker tripped.
	ErrBudgetExceeded = New("budget exceeded")
	// ErrTimeoutExceeded indicates the wall-clock circuit breaker tripped.
	ErrTimeoutExceeded = New("debate timeout exceeded")
	// ErrStateCorrupted indicates the shared debate state is inconsistent.
	ErrStateCorrupted = New("debate state corrupted")
	// ErrAlreadyRun indicates Run was called on a scheduler that already ran.
	ErrAlreadyRun = New("debate already run")
	// ErrNoPerspectives indicates a debate was requested with no participants.
	ErrNoPerspectives = New("no perspectives configured")
)

// Agent-related sentinel errors
var (
	// ErrUnknownPerspective indicates no agent factory is registered for a perspective.
	ErrUnknownPerspective = New("unknown perspective")
	// ErrAgentFailed indicates an agent operation returned an error or panicked.
	ErrAgentFailed = New("agent operation failed")
	// ErrOperationTimeout indicates an agent operation overran its timeout.
	ErrOperationTimeout = New("agent operation timed out")
	// ErrInvalidArgument indicates an argument failed validation before posting.
	ErrInvalidArgument = New("invalid argument")
	// ErrAgentExcluded indicates a write from an agent with no operation in flight.
	ErrAgentExcluded = New("agent excluded from the round")
)

// Message bus sentinel errors
var (
	// ErrUnknownRecipient indicates a targeted message named an unregistered mailbox.
	ErrUnknownRecipient = New("unknown recipient")
	// ErrMissingSender indicates a message had no From field.
	ErrMissingSender = New("message sender is required")
)

// General sentinel errors
var (
	// ErrInvalidConfig indicates that configuration validation failed.
	ErrInvalidConfig = New("invalid configuration")
	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = New("operation timed out")
	// ErrCanceled indicates that an operation was canceled.
	ErrCanceled = New("operation canceled")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// CouncilError is the base interface for all council errors.
type CouncilError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRecoverable returns true if the debate can continue past this error.
	IsRecoverable() bool
}

// baseError provides common functionality for all error types.
type baseError struct {
	message     string
	cause       error
	severity    Severity
	recoverable bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsRecoverable returns whether the debate can continue past the error.
func (e *baseError) IsRecoverable() bool {
	return e.recoverable
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// DebateError represents a scheduler-level failure. These are not recoverable:
// the debate is not finalized and the error reaches the caller.
//
// Example:
//
//	err := errors.NewDebateError("spawn agents", errors.ErrUnknownPerspective).
//	    WithCouncilID("c-123")
//	fmt.Println(err) // "debate error [council=c-123]: spawn agents: unknown perspective"
type DebateError struct {
	baseError
	CouncilID string
	Round     int
}

// NewDebateError creates a new DebateError.
func NewDebateError(message string, cause error) *DebateError {
	return &DebateError{
		baseError: baseError{
			message:  message,
			cause:    cause,
			severity: SeverityCritical,
		},
	}
}

// WithCouncilID adds the council session id to the error context.
func (e *DebateError) WithCouncilID(id string) *DebateError {
	e.CouncilID = id
	return e
}

// WithRound adds the round number to the error context.
func (e *DebateError) WithRound(round int) *DebateError {
	e.Round = round
	return e
}

// Error returns the formatted error message.
func (e *DebateError) Error() string {
	var parts []string
	if e.CouncilID != "" {
		parts = append(parts, fmt.Sprintf("council=%s", e.CouncilID))
	}
	if e.Round > 0 {
		parts = append(parts, fmt.Sprintf("round=%d", e.Round))
	}
	return formatWithContext("debate error", parts, e.message, e.cause)
}

// AgentError represents a failed agent operation. The scheduler recovers from
// these by excluding the agent from the round.
type AgentError struct {
	baseError
	AgentID     string
	Perspective string
	Round       int
	Operation   string
}

// NewAgentError creates a new AgentError.
func NewAgentError(message string, cause error) *AgentError {
	return &AgentError{
		baseError: baseError{
			message:     message,
			cause:       cause,
			severity:    SeverityWarning,
			recoverable: true,
		},
	}
}

// WithAgent adds the agent id and perspective to the error context.
func (e *AgentError) WithAgent(id, perspective string) *AgentError {
	e.AgentID = id
	e.Perspective = perspective
	return e
}

// WithRound adds the round number to the error context.
func (e *AgentError) WithRound(round int) *AgentError {
	e.Round = round
	return e
}

// WithOperation names the agent operation that failed (analyze, rebuttal, synthesize).
func (e *AgentError) WithOperation(op string) *AgentError {
	e.Operation = op
	return e
}

// Error returns the formatted error message.
func (e *AgentError) Error() string {
	var parts []string
	if e.AgentID != "" {
		parts = append(parts, fmt.Sprintf("agent=%s", e.AgentID))
	}
	if e.Operation != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Operation))
	}
	if e.Round > 0 {
		parts = append(parts, fmt.Sprintf("round=%d", e.Round))
	}
	return formatWithContext("agent error", parts, e.message, e.cause)
}

// Is reports whether target is ErrAgentFailed or matches the cause.
func (e *AgentError) Is(target error) bool {
	return target == ErrAgentFailed
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// ValidationError represents invalid input.
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:  message,
			severity: SeverityError,
		},
	}
}

// WithField adds the offending field name.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the offending value.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause sets the underlying cause.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}
	return formatWithContext("validation error", parts, e.message, e.cause)
}

// TimeoutError represents an operation that exceeded its deadline.
type TimeoutError struct {
	baseError
	Operation string
	Duration  time.Duration
}

// NewTimeoutError creates a new TimeoutError.
func NewTimeoutError(operation string, duration time.Duration) *TimeoutError {
	return &TimeoutError{
		baseError: baseError{
			message:     fmt.Sprintf("%s timed out after %v", operation, duration),
			cause:       ErrOperationTimeout,
			severity:    SeverityWarning,
			recoverable: true,
		},
		Operation: operation,
		Duration:  duration,
	}
}

// Is reports whether target is ErrTimeout or the operation timeout sentinel.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout || target == ErrOperationTimeout
}

// -----------------------------------------------------------------------------
// Classification Helpers
// -----------------------------------------------------------------------------

// IsRecoverable reports whether the debate can continue past err.
// Unknown errors are treated as unrecoverable.
func IsRecoverable(err error) bool {
	if err == nil {
		return true
	}
	var ce CouncilError
	if As(err, &ce) {
		return ce.IsRecoverable()
	}
	return Is(err, ErrOperationTimeout) || Is(err, ErrAgentFailed)
}

// GetSeverity returns the severity of err, defaulting to SeverityError.
func GetSeverity(err error) Severity {
	var ce CouncilError
	if As(err, &ce) {
		return ce.Severity()
	}
	return SeverityError
}

// Wrap adds a message to err. It returns nil when err is nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds a formatted message to err. It returns nil when err is nil.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func formatWithContext(prefix string, parts []string, message string, cause error) string {
	if len(parts) > 0 {
		prefix = fmt.Sprintf("%s [%s]", prefix, strings.Join(parts, ", "))
	}
	if cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, message, cause)
	}
	return fmt.Sprintf("%s: %s", prefix, message)
}
