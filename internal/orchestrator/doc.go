// Package orchestrator schedules a council debate.
//
// A [Scheduler] spawns one agent per perspective from an agent.Registry and
// runs the rounds:
//
//   - round 1, analysis: every agent analyzes the topic concurrently
//   - middle rounds, rebuttal: agents speak one at a time in perspective
//     order, each given every argument from the earlier rounds
//   - final round, synthesis: every agent writes a closing concurrently
//
// Before each round the timeout breaker and then the budget breaker are
// checked. A tripped breaker ends the debate early but still produces a
// [Result] with the vote over whatever arguments exist.
//
// Agent failures (errors, panics, operation timeouts) exclude the agent from
// that round only. Run returns an error only for failures that prevent the
// debate from being held.
package orchestrator
