// Package agent defines the contract every debate participant satisfies and
// the registry the scheduler spawns participants from.
//
// The scheduler treats agents as opaque. How a position is derived (keyword
// heuristics, a model call, a YAML template) lives in the subpackages and is
// selected per perspective through a [Registry].
package agent

import (
	"context"

	"github.com/Iron-Ham/council/internal/debate"
	"github.com/Iron-Ham/council/internal/logging"
	"github.com/Iron-Ham/council/internal/mailbox"
)

// Agent is one participant in a debate.
type Agent interface {
	// ID is stable for the lifetime of the debate.
	ID() string

	// Perspective is the viewpoint this agent embodies.
	Perspective() string

	// Analyze runs in round 1. It must post at least one argument to the
	// board and returns the one it considers its stance.
	Analyze(ctx context.Context) (*debate.Argument, error)

	// Rebuttal runs in the middle rounds with every argument from earlier
	// rounds. A nil argument and nil error means nothing to add.
	Rebuttal(ctx context.Context, prior []debate.Argument) (*debate.Argument, error)

	// Synthesize runs in the final round with the full argument history and
	// returns a closing statement.
	Synthesize(ctx context.Context, all []debate.Argument) (string, error)
}

// Env is what an agent is given at spawn time.
type Env struct {
	ID          string
	Perspective string
	Topic       string
	Board       debate.Board
	Bus         *mailbox.Bus
	Logger      *logging.Logger
}

// Guard is implemented by boards that admit writes only while the agent has
// an operation in flight. Base consults it before sending messages too.
type Guard interface {
	Accepting() error
}

// Factory builds an agent for env.
type Factory func(env Env) (Agent, error)
