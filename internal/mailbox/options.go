package mailbox

import (
	"time"

	"github.com/Iron-Ham/council/internal/event"
	"github.com/Iron-Ham/council/internal/logging"
)

// Option configures a Bus.
type Option func(*Bus)

// WithBus attaches an event bus. When set, a MailboxMessageEvent is published
// after every successful Post.
func WithBus(bus *event.Bus) Option {
	return func(b *Bus) {
		b.events = bus
	}
}

// WithJournal mirrors the history to an append-only JSONL file.
func WithJournal(j *Journal) Option {
	return func(b *Bus) {
		b.journal = j
	}
}

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(l *logging.Logger) Option {
	return func(b *Bus) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithClock replaces time.Now for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *Bus) {
		if now != nil {
			b.now = now
		}
	}
}
