// Package debate holds the shared state of a single council debate.
//
// A debate gathers one agent per perspective around a topic. Agents append
// [Argument] and [EvidenceItem] records to the shared [State] while the
// scheduler advances rounds. Both logs are append-only: nothing posted is ever
// edited or removed, and every read returns a copy.
//
// # Lifecycle
//
// [New] returns the state together with a [Lifecycle] handle. Only the holder
// of that handle can advance the round counter or set the start and completion
// marks. Agents are given the state through the [Board] interface, which has
// no lifecycle methods at all.
//
//	state, lc, err := debate.New("Adopt gRPC for internal services?", []string{"cost", "security"})
//	lc.MarkStarted()
//	state.PostArgument(debate.Argument{AgentID: "cost", Perspective: "cost",
//	    Position: debate.Support, Confidence: 0.7, Reasoning: "..."})
//	lc.AdvanceRound()
//	lc.MarkCompleted()
//
// The status moves PENDING → IN_PROGRESS → COMPLETED and is derived from the
// marks, which are each set at most once.
//
// # Thread Safety
//
// State is safe for concurrent use. The argument log, evidence log and round
// counter share one mutex.
package debate
