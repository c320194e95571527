package orchestrator

import (
	"fmt"
	"sync"

	"github.com/Iron-Ham/council/internal/debate"
	"github.com/Iron-Ham/council/internal/errors"
)

// gate is the board an agent is spawned with. Writes pass through to the
// shared state only while one of the agent's operations is in flight, and
// arguments are stamped with that operation's round. Once an operation is
// abandoned the gate is retired and stays shut for the rest of the debate.
type gate struct {
	state   *debate.State
	agentID string

	mu      sync.Mutex
	round   int // 0 while no operation is in flight
	retired bool
}

var _ debate.Board = (*gate)(nil)

func newGate(state *debate.State, agentID string) *gate {
	return &gate{state: state, agentID: agentID}
}

// open admits writes for round. It reports false once the gate is retired.
func (g *gate) open(round int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.retired {
		return false
	}
	g.round = round
	return true
}

// shut stops admitting writes. A write already inside the gate finishes
// before shut returns.
func (g *gate) shut(retire bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.round = 0
	if retire {
		g.retired = true
	}
}

func (g *gate) isRetired() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.retired
}

// Accepting returns nil while an operation is in flight.
func (g *gate) Accepting() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closedLocked()
}

func (g *gate) closedLocked() error {
	if g.round != 0 {
		return nil
	}
	return errors.NewAgentError("board closed outside an operation", errors.ErrAgentExcluded).
		WithAgent(g.agentID, "")
}

func (g *gate) CouncilID() string { return g.state.CouncilID() }
func (g *gate) Topic() string { return g.state.Topic() }
func (g *gate) Perspectives() []string { return g.state.Perspectives() }
func (g *gate) Metadata() map[string]any { return g.state.Metadata() }
func (g *gate) CurrentRound() int { return g.state.CurrentRound() }
func (g *gate) Arguments(f debate.Filter) []debate.Argument { return g.state.Arguments(f) }
func (g *gate) Evidence() []debate.EvidenceItem { return g.state.Evidence() }

// PostArgument posts arg for the operation in flight. An unset round takes the
// operation's round; any other round is rejected.
func (g *gate) PostArgument(arg debate.Argument) (debate.Argument, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.closedLocked(); err != nil {
		return debate.Argument{}, err
	}
	if arg.Round == 0 {
		arg.Round = g.round
	}
	if arg.Round != g.round {
		return debate.Argument{}, errors.NewValidationError(
			fmt.Sprintf("argument for round %d posted during round %d", arg.Round, g.round)).
			WithField("round_number").
			WithValue(arg.Round).
			WithCause(errors.ErrInvalidArgument)
	}
	return g.state.PostArgument(arg)
}

// AddEvidence records evidence for the operation in flight.
func (g *gate) AddEvidence(item debate.EvidenceItem) (debate.EvidenceItem, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.closedLocked(); err != nil {
		return debate.EvidenceItem{}, err
	}
	return g.state.AddEvidence(item)
}
