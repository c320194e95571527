package event

import "time"

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "round.started", "argument.posted")
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Event type identifiers.
const (
	TypeDebateStarted  = "debate.started"
	TypeAgentSpawned   = "agent.spawned"
	TypeRoundStarted   = "round.started"
	TypeArgumentPosted = "argument.posted"
	TypeEvidenceAdded  = "evidence.added"
	TypeAgentFailed    = "agent.failed"
	TypeRoundCost      = "round.cost"
	TypeBreakerTripped = "breaker.tripped"
	TypeDebateResolved = "debate.resolved"
	TypeMailboxMessage = "mailbox.message"
)

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Debate Lifecycle Events
// -----------------------------------------------------------------------------

// DebateStartedEvent is emitted once, before any agent is spawned.
type DebateStartedEvent struct {
	baseEvent
	CouncilID          string   `json:"council_id"`
	Topic              string   `json:"topic"`
	Perspectives       []string `json:"perspectives"`
	Rounds             int      `json:"rounds"`
	MaxBudget          float64  `json:"max_budget"`
	MaxDurationMinutes float64  `json:"max_duration_minutes"`
	CostPerOperation   float64  `json:"cost_per_operation"`
	EnforceBudget      bool     `json:"enforce_budget"`
	EnforceTimeout     bool     `json:"enforce_timeout"`
}

// NewDebateStartedEvent creates a DebateStartedEvent.
func NewDebateStartedEvent(councilID, topic string, perspectives []string) DebateStartedEvent {
	return DebateStartedEvent{
		baseEvent:    newBaseEvent(TypeDebateStarted),
		CouncilID:    councilID,
		Topic:        topic,
		Perspectives: append([]string(nil), perspectives...),
	}
}

// AgentSpawnedEvent is emitted for each agent instance the scheduler creates.
type AgentSpawnedEvent struct {
	baseEvent
	AgentID     string `json:"agent_id"`
	Perspective string `json:"perspective"`
}

// NewAgentSpawnedEvent creates an AgentSpawnedEvent.
func NewAgentSpawnedEvent(agentID, perspective string) AgentSpawnedEvent {
	return AgentSpawnedEvent{
		baseEvent:   newBaseEvent(TypeAgentSpawned),
		AgentID:     agentID,
		Perspective: perspective,
	}
}

// RoundStartedEvent is emitted after the breakers pass and before any agent runs.
type RoundStartedEvent struct {
	baseEvent
	Round  int    `json:"round"`
	Phase  string `json:"phase"`
	Agents int    `json:"agents"`
}

// NewRoundStartedEvent creates a RoundStartedEvent.
func NewRoundStartedEvent(round int, phase string, agents int) RoundStartedEvent {
	return RoundStartedEvent{
		baseEvent: newBaseEvent(TypeRoundStarted),
		Round:     round,
		Phase:     phase,
		Agents:    agents,
	}
}

// ArgumentPostedEvent is emitted after an argument is appended to the shared state.
// Reasoning is truncated by the publisher.
type ArgumentPostedEvent struct {
	baseEvent
	AgentID     string  `json:"agent_id"`
	Perspective string  `json:"perspective"`
	Position    string  `json:"position"`
	Confidence  float64 `json:"confidence"`
	Round       int     `json:"round"`
	Reasoning   string  `json:"reasoning"`
}

// NewArgumentPostedEvent creates an ArgumentPostedEvent.
func NewArgumentPostedEvent(agentID, perspective, position string, confidence float64, round int, reasoning string) ArgumentPostedEvent {
	return ArgumentPostedEvent{
		baseEvent:   newBaseEvent(TypeArgumentPosted),
		AgentID:     agentID,
		Perspective: perspective,
		Position:    position,
		Confidence:  confidence,
		Round:       round,
		Reasoning:   reasoning,
	}
}

// EvidenceAddedEvent is emitted after an evidence item is appended.
type EvidenceAddedEvent struct {
	baseEvent
	Source      string `json:"source"`
	CollectedBy string `json:"collected_by"`
}

// NewEvidenceAddedEvent creates an EvidenceAddedEvent.
func NewEvidenceAddedEvent(source, collectedBy string) EvidenceAddedEvent {
	return EvidenceAddedEvent{
		baseEvent:   newBaseEvent(TypeEvidenceAdded),
		Source:      source,
		CollectedBy: collectedBy,
	}
}

// AgentFailedEvent is emitted when an agent operation errors, panics or times out.
// The agent is excluded from that round.
type AgentFailedEvent struct {
	baseEvent
	AgentID   string `json:"agent_id"`
	Round     int    `json:"round"`
	Operation string `json:"operation"`
	Error     string `json:"error"`
}

// NewAgentFailedEvent creates an AgentFailedEvent.
func NewAgentFailedEvent(agentID string, round int, operation, errMsg string) AgentFailedEvent {
	return AgentFailedEvent{
		baseEvent: newBaseEvent(TypeAgentFailed),
		AgentID:   agentID,
		Round:     round,
		Operation: operation,
		Error:     errMsg,
	}
}

// RoundCostEvent reports spend after a round finishes.
type RoundCostEvent struct {
	baseEvent
	Round     int     `json:"round"`
	RoundCost float64 `json:"round_cost"`
	TotalCost float64 `json:"total_cost"`
}

// NewRoundCostEvent creates a RoundCostEvent.
func NewRoundCostEvent(round int, roundCost, totalCost float64) RoundCostEvent {
	return RoundCostEvent{
		baseEvent: newBaseEvent(TypeRoundCost),
		Round:     round,
		RoundCost: roundCost,
		TotalCost: totalCost,
	}
}

// BreakerTrippedEvent is emitted when a circuit breaker prevents the next round.
type BreakerTrippedEvent struct {
	baseEvent
	Cause          string  `json:"cause"`
	Reason         string  `json:"reason"`
	NextRound      int     `json:"next_round"`
	TotalCost      float64 `json:"total_cost"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

// NewBreakerTrippedEvent creates a BreakerTrippedEvent.
func NewBreakerTrippedEvent(cause, reason string, nextRound int, totalCost, elapsedSeconds float64) BreakerTrippedEvent {
	return BreakerTrippedEvent{
		baseEvent:      newBaseEvent(TypeBreakerTripped),
		Cause:          cause,
		Reason:         reason,
		NextRound:      nextRound,
		TotalCost:      totalCost,
		ElapsedSeconds: elapsedSeconds,
	}
}

// DebateResolvedEvent is emitted once with the final recommendation.
type DebateResolvedEvent struct {
	baseEvent
	Recommendation  string         `json:"recommendation"`
	Confidence      float64        `json:"confidence"`
	VoteBreakdown   map[string]int `json:"vote_breakdown"`
	Halted          bool           `json:"halted"`
	HaltReason      string         `json:"halt_reason,omitempty"`
	TotalCost       float64        `json:"total_cost"`
	DurationSeconds float64        `json:"duration_seconds"`
}

// NewDebateResolvedEvent creates a DebateResolvedEvent.
func NewDebateResolvedEvent(recommendation string, confidence float64, votes map[string]int) DebateResolvedEvent {
	return DebateResolvedEvent{
		baseEvent:      newBaseEvent(TypeDebateResolved),
		Recommendation: recommendation,
		Confidence:     confidence,
		VoteBreakdown:  votes,
	}
}

// -----------------------------------------------------------------------------
// Message Bus Events
// -----------------------------------------------------------------------------

// MailboxMessageEvent is emitted after a message is delivered.
type MailboxMessageEvent struct {
	baseEvent
	MessageID  string   `json:"message_id"`
	From       string   `json:"from"`
	To         string   `json:"to,omitempty"`
	Body       string   `json:"body"`
	Recipients []string `json:"recipients"`
}

// NewMailboxMessageEvent creates a MailboxMessageEvent.
func NewMailboxMessageEvent(messageID, from, to, body string, recipients []string) MailboxMessageEvent {
	return MailboxMessageEvent{
		baseEvent:  newBaseEvent(TypeMailboxMessage),
		MessageID:  messageID,
		From:       from,
		To:         to,
		Body:       body,
		Recipients: append([]string(nil), recipients...),
	}
}
