package agent_test

import (
	"context"
	"testing"
	"time"

	"github.com/Iron-Ham/council/internal/agent"
	"github.com/Iron-Ham/council/internal/agent/agenttest"
	"github.com/Iron-Ham/council/internal/debate"
	"github.com/Iron-Ham/council/internal/errors"
	"github.com/Iron-Ham/council/internal/mailbox"
)

func newEnv(t *testing.T, id, perspective string) (agent.Env, *debate.State) {
	t.Helper()
	state, _, err := debate.New("Move CI to self-hosted runners?", []string{"cost", "security"})
	if err != nil {
		t.Fatalf("debate.New() error = %v", err)
	}
	bus := mailbox.New()
	for _, p := range []string{"cost", "security"} {
		if err := bus.Register(p); err != nil {
			t.Fatal(err)
		}
	}
	return agent.Env{ID: id, Perspective: perspective, Topic: state.Topic(), Board: state, Bus: bus}, state
}

func TestBase_PostArgument(t *testing.T) {
	env, state := newEnv(t, "cost", "cost")
	b := agent.NewBase(env)

	arg, err := b.PostArgument(debate.Support, 0.75, "runner minutes dominate the bill", "billing/2025.csv")
	if err != nil {
		t.Fatalf("PostArgument() error = %v", err)
	}
	if arg.AgentID != "cost" || arg.Perspective != "cost" || arg.Round != 1 {
		t.Errorf("unexpected argument %+v", arg)
	}
	if state.ArgumentCount() != 1 {
		t.Errorf("ArgumentCount() = %d, want 1", state.ArgumentCount())
	}

	if _, err := b.PostArgument(debate.Support, 2, "overconfident"); !errors.Is(err, errors.ErrInvalidArgument) {
		t.Errorf("PostArgument(confidence=2) error = %v", err)
	}
}

func TestBase_AddEvidence(t *testing.T) {
	env, state := newEnv(t, "security", "security")
	b := agent.NewBase(env)

	item, err := b.AddEvidence("runbook.md", "runners need patching")
	if err != nil {
		t.Fatalf("AddEvidence() error = %v", err)
	}
	if item.CollectedBy != "security" {
		t.Errorf("CollectedBy = %q", item.CollectedBy)
	}
	if len(state.Evidence()) != 1 {
		t.Error("evidence not recorded")
	}
}

func TestBase_Messaging(t *testing.T) {
	env, _ := newEnv(t, "cost", "cost")
	cost := agent.NewBase(env)
	secEnv := env
	secEnv.ID, secEnv.Perspective = "security", "security"
	sec := agent.NewBase(secEnv)

	if _, err := cost.SendMessage("", mailbox.MessageChallenge, "@security patching is cheap"); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	msgs := sec.ReadMessages(context.Background(), 50*time.Millisecond)
	if len(msgs) != 1 || msgs[0].From != "cost" {
		t.Fatalf("ReadMessages() = %+v", msgs)
	}
	if got := cost.ReadMessages(context.Background(), 0); len(got) != 0 {
		t.Errorf("sender read its own broadcast: %+v", got)
	}
}

func TestBase_NoBusNoBoard(t *testing.T) {
	b := agent.NewBase(agent.Env{ID: "x", Perspective: "x"})
	if _, err := b.SendMessage("", mailbox.MessageNote, "hello"); err != nil {
		t.Errorf("SendMessage() without bus error = %v", err)
	}
	if got := b.ReadMessages(context.Background(), time.Second); len(got) != 0 {
		t.Errorf("ReadMessages() without bus = %v", got)
	}
	if _, err := b.PostArgument(debate.Neutral, 0.5, "x"); err == nil {
		t.Error("PostArgument() without board should fail")
	}
	if b.Logger() == nil {
		t.Error("Logger() should default to a no-op logger")
	}
}

func TestRegistry(t *testing.T) {
	r := agent.NewRegistry()
	fleet := agenttest.NewFleet(nil)

	if err := r.Register("cost", fleet.Factory()); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Register("", fleet.Factory()); !errors.Is(err, errors.ErrInvalidArgument) {
		t.Errorf("Register(\"\") error = %v", err)
	}
	if err := r.Register("security", nil); !errors.Is(err, errors.ErrInvalidArgument) {
		t.Errorf("Register(nil factory) error = %v", err)
	}

	if _, err := r.Lookup("security"); !errors.Is(err, errors.ErrUnknownPerspective) {
		t.Errorf("Lookup(unregistered) error = %v, want ErrUnknownPerspective", err)
	}
	r.SetDefault(fleet.Factory())
	if _, err := r.Lookup("security"); err != nil {
		t.Errorf("Lookup() with default error = %v", err)
	}
	if !r.Has("cost") || r.Has("security") {
		t.Error("Has() should only report explicit bindings")
	}
	if got := r.Perspectives(); len(got) != 1 || got[0] != "cost" {
		t.Errorf("Perspectives() = %v", got)
	}

	env, _ := newEnv(t, "cost", "cost")
	a, err := r.Spawn(env)
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}
	if a.ID() != "cost" || fleet.Agent("cost") == nil {
		t.Error("Spawn() did not use the registered factory")
	}
}

func TestRegistry_SpawnError(t *testing.T) {
	r := agent.NewRegistry()
	boom := errors.New("no credentials")
	_ = r.Register("llm", func(agent.Env) (agent.Agent, error) { return nil, boom })

	_, err := r.Spawn(agent.Env{ID: "llm", Perspective: "llm"})
	if !errors.Is(err, boom) || !errors.Is(err, errors.ErrAgentFailed) {
		t.Errorf("Spawn() error = %v, want wrapped agent failure", err)
	}
}

func TestScripted_Defaults(t *testing.T) {
	env, state := newEnv(t, "cost", "cost")
	fleet := agenttest.NewFleet(nil)
	a, err := fleet.Factory()(env)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if _, err := a.Analyze(ctx); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if got, err := a.Rebuttal(ctx, state.Arguments(debate.Filter{})); got != nil || err != nil {
		t.Errorf("Rebuttal() = %v, %v; want nil, nil", got, err)
	}
	closing, err := a.Synthesize(ctx, nil)
	if err != nil || closing == "" {
		t.Errorf("Synthesize() = %q, %v", closing, err)
	}
	calls := fleet.Agent("cost").Calls()
	if len(calls) != 3 || calls[1].Op != "rebuttal" || calls[1].PriorSize != 1 {
		t.Errorf("Calls() = %+v", calls)
	}
}
