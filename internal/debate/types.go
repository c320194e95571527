package debate

import (
	"fmt"
	"slices"
	"time"

	"github.com/Iron-Ham/council/internal/errors"
)

// Status represents the lifecycle state of a debate.
type Status string

const (
	// StatusPending indicates the debate has been created but not started.
	StatusPending Status = "PENDING"

	// StatusInProgress indicates the scheduler has marked the debate started.
	StatusInProgress Status = "IN_PROGRESS"

	// StatusCompleted indicates the debate finished, normally or by a halt.
	StatusCompleted Status = "COMPLETED"
)

// Position is an agent's stance on the topic.
type Position string

const (
	Support Position = "SUPPORT"
	Oppose  Position = "OPPOSE"
	Neutral Position = "NEUTRAL"
)

// Positions returns every valid position in tally order.
// Tie-breaks in vote aggregation depend on this order.
func Positions() []Position {
	return []Position{Support, Oppose, Neutral}
}

// Valid reports whether p is one of the three positions.
func (p Position) Valid() bool {
	return p == Support || p == Oppose || p == Neutral
}

// ParsePosition converts s to a Position. It accepts only the exact tags.
func ParsePosition(s string) (Position, error) {
	p := Position(s)
	if !p.Valid() {
		return "", errors.NewValidationError("unknown position").
			WithField("position").
			WithValue(s).
			WithCause(errors.ErrInvalidArgument)
	}
	return p, nil
}

// Argument is one agent's stance in one round. Arguments are immutable once
// posted; the state hands out copies.
type Argument struct {
	AgentID     string    `json:"agent_id"`
	Perspective string    `json:"perspective"`
	Position    Position  `json:"position"`
	Evidence    []string  `json:"evidence,omitempty"`
	Reasoning   string    `json:"reasoning"`
	Confidence  float64   `json:"confidence"`
	Round       int       `json:"round_number"`
	CreatedAt   time.Time `json:"created_at"`
}

// Validate checks the invariants every stored argument must hold.
// Round is checked by the state, which knows the current round.
func (a Argument) Validate() error {
	if a.AgentID == "" {
		return invalid("agent_id", a.AgentID, "agent id is required")
	}
	if !a.Position.Valid() {
		return invalid("position", a.Position, "unknown position")
	}
	if a.Confidence < 0 || a.Confidence > 1 || a.Confidence != a.Confidence {
		return invalid("confidence", a.Confidence, "confidence must be within [0, 1]")
	}
	if a.Round < 0 {
		return invalid("round_number", a.Round, "round must be positive")
	}
	return nil
}

func (a Argument) clone() Argument {
	a.Evidence = slices.Clone(a.Evidence)
	return a
}

// String renders a compact one-line description, used in logs.
func (a Argument) String() string {
	return fmt.Sprintf("%s[r%d] %s (%.2f)", a.AgentID, a.Round, a.Position, a.Confidence)
}

// EvidenceItem is a piece of supporting material an agent collected.
type EvidenceItem struct {
	Source      string    `json:"source"`
	Content     string    `json:"content"`
	CollectedBy string    `json:"collected_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// Filter selects arguments. Zero-valued fields match everything.
type Filter struct {
	Round       int
	Perspective string
	AgentID     string

	// BeforeRound, when positive, matches only arguments from earlier rounds.
	BeforeRound int
}

// Match reports whether a satisfies every non-zero field of f.
func (f Filter) Match(a Argument) bool {
	if f.Round > 0 && a.Round != f.Round {
		return false
	}
	if f.BeforeRound > 0 && a.Round >= f.BeforeRound {
		return false
	}
	if f.Perspective != "" && a.Perspective != f.Perspective {
		return false
	}
	if f.AgentID != "" && a.AgentID != f.AgentID {
		return false
	}
	return true
}

func invalid(field string, value any, msg string) error {
	return errors.NewValidationError(msg).
		WithField(field).
		WithValue(value).
		WithCause(errors.ErrInvalidArgument)
}
