package mailbox

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Iron-Ham/council/internal/errors"
	"github.com/Iron-Ham/council/internal/event"
	"github.com/Iron-Ham/council/internal/logging"
)

// box is one agent's inbox. Each box has its own lock so delivery to one
// agent never waits on another.
type box struct {
	mu     sync.Mutex
	queue  []Message
	active bool

	// notify holds at most one pending wake-up for a blocked Receive.
	notify chan struct{}
}

func newBox() *box {
	return &box{active: true, notify: make(chan struct{}, 1)}
}

func (b *box) deliver(msg Message) {
	b.mu.Lock()
	b.queue = append(b.queue, msg)
	b.mu.Unlock()

	select {
	case b.notify <- struct{}{}:
	default:
	}
}

func (b *box) drain() []Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.queue) == 0 {
		return nil
	}
	out := b.queue
	b.queue = nil
	return out
}

// Bus routes messages between the agents of one debate. It keeps a full,
// time-ordered history of every post for auditing.
type Bus struct {
	mu    sync.RWMutex
	boxes map[string]*box
	order []string

	histMu  sync.Mutex
	history []Message

	journal *Journal
	events  *event.Bus
	logger  *logging.Logger
	now     func() time.Time
}

// New creates an empty Bus.
func New(opts ...Option) *Bus {
	b := &Bus{
		boxes:  make(map[string]*box),
		logger: logging.NopLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Register creates a mailbox for id. Registering an existing id reactivates it
// for broadcasts and keeps whatever is still queued.
func (b *Bus) Register(id string) error {
	if id == "" {
		return errors.NewValidationError("mailbox id is required").
			WithField("id").
			WithCause(errors.ErrInvalidArgument)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if existing, ok := b.boxes[id]; ok {
		existing.mu.Lock()
		existing.active = true
		existing.mu.Unlock()
		return nil
	}
	b.boxes[id] = newBox()
	b.order = append(b.order, id)
	return nil
}

// Unregister stops broadcasts to id. Queued messages stay readable, and posts
// addressed or @mentioned directly to id are still delivered.
func (b *Bus) Unregister(id string) {
	b.mu.RLock()
	mb, ok := b.boxes[id]
	b.mu.RUnlock()
	if !ok {
		return
	}
	mb.mu.Lock()
	mb.active = false
	mb.mu.Unlock()
}

// Registered returns the known mailbox ids in registration order.
func (b *Bus) Registered() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.order)
}

// Post routes msg. With To set, the message goes only to that mailbox;
// otherwise it is broadcast to every active mailbox except the sender. Every
// registered @name in the body also receives it, the sender included when it
// mentions itself. No mailbox receives the same post twice. The stamped
// message is returned.
func (b *Bus) Post(msg Message) (Message, error) {
	if msg.From == "" {
		return Message{}, errors.ErrMissingSender
	}
	if msg.Type == "" {
		msg.Type = MessageNote
	}
	if !ValidateMessageType(msg.Type) {
		return Message{}, errors.NewValidationError("unknown message type").
			WithField("type").
			WithValue(msg.Type).
			WithCause(errors.ErrInvalidArgument)
	}
	msg = msg.clone()
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.Mentions = ParseMentions(msg.Body)

	targets, err := b.route(msg)
	if err != nil {
		return Message{}, err
	}
	msg.Recipients = make([]string, len(targets))
	for i, t := range targets {
		msg.Recipients[i] = t.id
	}

	b.histMu.Lock()
	msg.Timestamp = b.now()
	b.history = append(b.history, msg)
	if b.journal != nil {
		if err := b.journal.Append(msg); err != nil {
			b.logger.Warn("mailbox journal append failed", "message_id", msg.ID, "error", err)
		}
	}
	b.histMu.Unlock()

	for _, t := range targets {
		t.box.deliver(msg.clone())
	}

	if b.events != nil {
		b.events.Publish(newMessageEvent(msg))
	}
	b.logger.Debug("message posted",
		"message_id", msg.ID,
		"from", msg.From,
		"to", msg.To,
		"recipients", len(msg.Recipients),
	)
	return msg.clone(), nil
}

type target struct {
	id  string
	box *box
}

// route resolves the recipients of msg in a stable order: the direct or
// broadcast recipients first, then mentions not already covered.
func (b *Bus) route(msg Message) ([]target, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	seen := make(map[string]bool)
	var out []target
	add := func(id string, mb *box) {
		if seen[id] {
			return
		}
		seen[id] = true
		out = append(out, target{id: id, box: mb})
	}

	if msg.To != "" {
		mb, ok := b.boxes[msg.To]
		if !ok {
			return nil, errors.Wrapf(errors.ErrUnknownRecipient, "mailbox %q", msg.To)
		}
		add(msg.To, mb)
	} else {
		for _, id := range b.order {
			if id == msg.From {
				continue
			}
			mb := b.boxes[id]
			mb.mu.Lock()
			active := mb.active
			mb.mu.Unlock()
			if active {
				add(id, mb)
			}
		}
	}

	for _, name := range msg.Mentions {
		if mb, ok := b.boxes[name]; ok {
			add(name, mb)
		}
	}
	return out, nil
}

// Receive drains the mailbox for id. When it is empty, Receive waits up to
// timeout for at least one message to arrive and then drains whatever is
// queued. It returns an empty slice on timeout, on cancellation, or when id
// has no mailbox; it never fails.
func (b *Bus) Receive(ctx context.Context, id string, timeout time.Duration) []Message {
	b.mu.RLock()
	mb, ok := b.boxes[id]
	b.mu.RUnlock()
	if !ok {
		return []Message{}
	}

	if msgs := mb.drain(); len(msgs) > 0 {
		return msgs
	}
	if timeout <= 0 {
		return []Message{}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case <-mb.notify:
			if msgs := mb.drain(); len(msgs) > 0 {
				return msgs
			}
		case <-timer.C:
			if msgs := mb.drain(); len(msgs) > 0 {
				return msgs
			}
			return []Message{}
		case <-ctx.Done():
			return []Message{}
		}
	}
}

// Pending returns the number of queued messages for id.
func (b *Bus) Pending(id string) int {
	b.mu.RLock()
	mb, ok := b.boxes[id]
	b.mu.RUnlock()
	if !ok {
		return 0
	}
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return len(mb.queue)
}

// History returns every post stamped at or after since, oldest first. A zero
// since returns the full history.
func (b *Bus) History(since time.Time) []Message {
	b.histMu.Lock()
	defer b.histMu.Unlock()

	out := make([]Message, 0, len(b.history))
	for _, m := range b.history {
		if !since.IsZero() && m.Timestamp.Before(since) {
			continue
		}
		out = append(out, m.clone())
	}
	return out
}

// Close releases the journal, if any.
func (b *Bus) Close() error {
	if b.journal == nil {
		return nil
	}
	return b.journal.Close()
}
