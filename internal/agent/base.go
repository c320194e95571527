package agent

import (
	"context"
	"time"

	"github.com/Iron-Ham/council/internal/debate"
	"github.com/Iron-Ham/council/internal/errors"
	"github.com/Iron-Ham/council/internal/logging"
	"github.com/Iron-Ham/council/internal/mailbox"
)

// Base carries an agent's environment and the helper operations shared by
// every implementation. Embed it to get ID and Perspective for free.
type Base struct {
	env Env
}

// NewBase wraps env. A nil logger is replaced with a no-op logger.
func NewBase(env Env) Base {
	if env.Logger == nil {
		env.Logger = logging.NopLogger()
	}
	return Base{env: env}
}

// ID returns the agent id.
func (b *Base) ID() string { return b.env.ID }

// Perspective returns the agent's perspective.
func (b *Base) Perspective() string { return b.env.Perspective }

// Topic returns the debate topic.
func (b *Base) Topic() string { return b.env.Topic }

// Board returns the shared debate state.
func (b *Base) Board() debate.Board { return b.env.Board }

// Logger returns the agent's logger.
func (b *Base) Logger() *logging.Logger { return b.env.Logger }

// PostArgument posts a stance as this agent. The round is stamped by the board.
func (b *Base) PostArgument(pos debate.Position, confidence float64, reasoning string, evidence ...string) (*debate.Argument, error) {
	if b.env.Board == nil {
		return nil, errors.NewAgentError("no board attached", errors.ErrStateCorrupted).
			WithAgent(b.env.ID, b.env.Perspective)
	}
	stored, err := b.env.Board.PostArgument(debate.Argument{
		AgentID:     b.env.ID,
		Perspective: b.env.Perspective,
		Position:    pos,
		Evidence:    evidence,
		Reasoning:   reasoning,
		Confidence:  confidence,
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// AddEvidence records evidence collected by this agent.
func (b *Base) AddEvidence(source, content string) (debate.EvidenceItem, error) {
	if b.env.Board == nil {
		return debate.EvidenceItem{}, errors.NewAgentError("no board attached", errors.ErrStateCorrupted).
			WithAgent(b.env.ID, b.env.Perspective)
	}
	return b.env.Board.AddEvidence(debate.EvidenceItem{
		Source:      source,
		Content:     content,
		CollectedBy: b.env.ID,
	})
}

// SendMessage posts to the bus as this agent. An empty to broadcasts.
// Without a bus the message is dropped and a zero Message returned. A guarded
// board that is closed to the agent rejects the message.
func (b *Base) SendMessage(to string, typ mailbox.MessageType, body string) (mailbox.Message, error) {
	if g, ok := b.env.Board.(Guard); ok {
		if err := g.Accepting(); err != nil {
			return mailbox.Message{}, err
		}
	}
	if b.env.Bus == nil {
		return mailbox.Message{}, nil
	}
	return b.env.Bus.Post(mailbox.Message{From: b.env.ID, To: to, Type: typ, Body: body})
}

// ReadMessages drains this agent's mailbox, waiting up to timeout when empty.
func (b *Base) ReadMessages(ctx context.Context, timeout time.Duration) []mailbox.Message {
	if b.env.Bus == nil {
		return []mailbox.Message{}
	}
	return b.env.Bus.Receive(ctx, b.env.ID, timeout)
}
