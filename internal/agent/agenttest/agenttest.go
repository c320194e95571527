// Package agenttest provides scriptable agents for scheduler tests.
package agenttest

import (
	"context"
	"sync"

	"github.com/Iron-Ham/council/internal/agent"
	"github.com/Iron-Ham/council/internal/debate"
)

// Call records one invocation of a Scripted agent.
type Call struct {
	Op        string
	PriorSize int
	Round     int
}

// Scripted is an agent whose behavior is set per operation. Unset hooks
// post a NEUTRAL 0.5 argument, return nil, and return a fixed closing.
type Scripted struct {
	agent.Base

	AnalyzeFunc    func(ctx context.Context, b *agent.Base) (*debate.Argument, error)
	RebuttalFunc   func(ctx context.Context, b *agent.Base, prior []debate.Argument) (*debate.Argument, error)
	SynthesizeFunc func(ctx context.Context, b *agent.Base, all []debate.Argument) (string, error)

	mu    sync.Mutex
	calls []Call
}

// Calls returns the invocations so far, in order.
func (s *Scripted) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

func (s *Scripted) record(op string, prior int) {
	round := 0
	if board := s.Board(); board != nil {
		round = board.CurrentRound()
	}
	s.mu.Lock()
	s.calls = append(s.calls, Call{Op: op, PriorSize: prior, Round: round})
	s.mu.Unlock()
}

// Analyze implements agent.Agent.
func (s *Scripted) Analyze(ctx context.Context) (*debate.Argument, error) {
	s.record("analyze", 0)
	if s.AnalyzeFunc != nil {
		return s.AnalyzeFunc(ctx, &s.Base)
	}
	return s.PostArgument(debate.Neutral, 0.5, "no strong signal")
}

// Rebuttal implements agent.Agent.
func (s *Scripted) Rebuttal(ctx context.Context, prior []debate.Argument) (*debate.Argument, error) {
	s.record("rebuttal", len(prior))
	if s.RebuttalFunc != nil {
		return s.RebuttalFunc(ctx, &s.Base, prior)
	}
	return nil, nil
}

// Synthesize implements agent.Agent.
func (s *Scripted) Synthesize(ctx context.Context, all []debate.Argument) (string, error) {
	s.record("synthesize", len(all))
	if s.SynthesizeFunc != nil {
		return s.SynthesizeFunc(ctx, &s.Base, all)
	}
	return s.ID() + " rests", nil
}

// Fleet builds Scripted agents through a registry and keeps them by
// perspective so tests can inspect them after a run.
type Fleet struct {
	mu     sync.Mutex
	agents map[string]*Scripted
	setup  func(perspective string, s *Scripted)
}

// NewFleet creates a Fleet. setup, if non-nil, configures each agent at spawn.
func NewFleet(setup func(perspective string, s *Scripted)) *Fleet {
	return &Fleet{agents: make(map[string]*Scripted), setup: setup}
}

// Factory returns an agent.Factory producing Scripted agents.
func (f *Fleet) Factory() agent.Factory {
	return func(env agent.Env) (agent.Agent, error) {
		s := &Scripted{Base: agent.NewBase(env)}
		if f.setup != nil {
			f.setup(env.Perspective, s)
		}
		f.mu.Lock()
		f.agents[env.Perspective] = s
		f.mu.Unlock()
		return s, nil
	}
}

// Registry returns a registry whose default factory is this fleet.
func (f *Fleet) Registry() *agent.Registry {
	r := agent.NewRegistry()
	r.SetDefault(f.Factory())
	return r
}

// Agent returns the agent spawned for perspective, or nil.
func (f *Fleet) Agent(perspective string) *Scripted {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.agents[perspective]
}

// Stance returns an AnalyzeFunc that posts a fixed position and confidence.
func Stance(pos debate.Position, confidence float64) func(context.Context, *agent.Base) (*debate.Argument, error) {
	return func(_ context.Context, b *agent.Base) (*debate.Argument, error) {
		return b.PostArgument(pos, confidence, b.Perspective()+" stance")
	}
}
