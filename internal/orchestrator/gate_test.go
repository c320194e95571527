package orchestrator

import (
	"testing"
	"time"

	"github.com/Iron-Ham/council/internal/agent"
	"github.com/Iron-Ham/council/internal/debate"
	"github.com/Iron-Ham/council/internal/errors"
	"github.com/Iron-Ham/council/internal/mailbox"
)

func newTestGate(t *testing.T) (*gate, *debate.State, *debate.Lifecycle) {
	t.Helper()
	state, lc, err := debate.New("Adopt gRPC internally", []string{"cost", "security"})
	if err != nil {
		t.Fatal(err)
	}
	return newGate(state, "cost"), state, lc
}

func costArgument(round int) debate.Argument {
	return debate.Argument{AgentID: "cost", Perspective: "cost", Position: debate.Support, Confidence: 0.7, Round: round}
}

func TestGate_ClosedUntilOpened(t *testing.T) {
	g, state, _ := newTestGate(t)

	if _, err := g.PostArgument(costArgument(0)); !errors.Is(err, errors.ErrAgentExcluded) {
		t.Errorf("PostArgument() on a closed gate error = %v, want ErrAgentExcluded", err)
	}
	if _, err := g.AddEvidence(debate.EvidenceItem{Source: "bench", CollectedBy: "cost"}); !errors.Is(err, errors.ErrAgentExcluded) {
		t.Errorf("AddEvidence() on a closed gate error = %v, want ErrAgentExcluded", err)
	}
	if err := g.Accepting(); err == nil {
		t.Error("Accepting() = nil on a closed gate")
	}
	if state.ArgumentCount() != 0 || len(state.Evidence()) != 0 {
		t.Error("closed gate let a write through")
	}
}

func TestGate_StampsOperationRound(t *testing.T) {
	g, state, lc := newTestGate(t)
	lc.AdvanceRound()

	// An operation from round 1 still in flight while the state is on round 2.
	g.open(1)
	arg, err := g.PostArgument(costArgument(0))
	if err != nil {
		t.Fatalf("PostArgument() error = %v", err)
	}
	if arg.Round != 1 {
		t.Errorf("Round = %d, want the operation's round 1", arg.Round)
	}
	if _, err := g.PostArgument(costArgument(2)); !errors.Is(err, errors.ErrInvalidArgument) {
		t.Errorf("PostArgument(round 2) error = %v, want ErrInvalidArgument", err)
	}
	if state.ArgumentCount() != 1 {
		t.Errorf("ArgumentCount() = %d, want 1", state.ArgumentCount())
	}

	g.shut(false)
	if _, err := g.PostArgument(costArgument(0)); err == nil {
		t.Error("PostArgument() after shut succeeded")
	}
	if !g.open(2) {
		t.Error("open() after a normal shut = false")
	}
}

func TestGate_RetiredStaysShut(t *testing.T) {
	g, _, _ := newTestGate(t)
	g.open(1)
	g.shut(true)

	if g.open(2) {
		t.Error("open() on a retired gate = true")
	}
	if _, err := g.PostArgument(costArgument(0)); !errors.Is(err, errors.ErrAgentExcluded) {
		t.Errorf("PostArgument() error = %v, want ErrAgentExcluded", err)
	}
}

func TestGate_GuardsMessages(t *testing.T) {
	g, _, _ := newTestGate(t)
	bus := mailbox.New()
	for _, id := range []string{"cost", "security"} {
		if err := bus.Register(id); err != nil {
			t.Fatal(err)
		}
	}
	base := agent.NewBase(agent.Env{ID: "cost", Perspective: "cost", Board: g, Bus: bus})

	if _, err := base.SendMessage("security", mailbox.MessageChallenge, "egress costs?"); !errors.Is(err, errors.ErrAgentExcluded) {
		t.Errorf("SendMessage() on a closed gate error = %v, want ErrAgentExcluded", err)
	}
	g.open(1)
	if _, err := base.SendMessage("security", mailbox.MessageChallenge, "egress costs?"); err != nil {
		t.Errorf("SendMessage() on an open gate error = %v", err)
	}
	if got := len(bus.History(time.Time{})); got != 1 {
		t.Errorf("history has %d messages, want 1", got)
	}
}
