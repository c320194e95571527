// Package event provides a pub-sub event bus for decoupled inter-component
// communication inside a single debate.
//
// The scheduler, the shared debate state and the message bus publish events;
// the audit log subscribes to all of them and serializes them as JSON lines.
// Publishers never know who is listening.
//
// # Main Types
//
//   - [Event]: Interface that all events must implement, providing EventType() and Timestamp()
//   - [Bus]: Synchronous pub-sub event dispatcher with thread-safe operations
//   - [Handler]: Function type for event handlers (func(Event))
//
// # Event Categories
//
// Debate lifecycle:
//   - [DebateStartedEvent], [AgentSpawnedEvent], [RoundStartedEvent]
//   - [RoundCostEvent], [BreakerTrippedEvent], [DebateResolvedEvent]
//
// Shared state:
//   - [ArgumentPostedEvent], [EvidenceAddedEvent], [AgentFailedEvent]
//
// Message bus:
//   - [MailboxMessageEvent]
//
// Concrete event structs carry json tags so subscribers can marshal them as-is.
//
// # Thread Safety
//
// The [Bus] type is safe for concurrent use. Handlers are called synchronously on
// the publishing goroutine, so a handler that needs ordering across concurrent
// publishers must serialize internally. A panicking handler is recovered and
// logged so one subscriber cannot break delivery to the others.
package event
