package orchestrator

import (
	"time"

	"github.com/Iron-Ham/council/internal/event"
	"github.com/Iron-Ham/council/internal/logging"
	"github.com/Iron-Ham/council/internal/orchestrator/budget"
)

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the scheduler's logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithEventBus publishes debate events to bus.
func WithEventBus(bus *event.Bus) Option {
	return func(s *Scheduler) {
		if bus != nil {
			s.events = bus
		}
	}
}

// WithClock replaces time.Now for the breakers and every timestamp.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithKnowledgeHook offers the final result to h.
func WithKnowledgeHook(h KnowledgeHook) Option {
	return func(s *Scheduler) { s.hook = h }
}

// WithTracker supplies the cost tracker. Spend already recorded on it counts
// against the budget, which is how a resumed session carries its cost over.
func WithTracker(t *budget.Tracker) Option {
	return func(s *Scheduler) { s.tracker = t }
}

// WithMailboxJournal persists every bus message to dir.
func WithMailboxJournal(dir string) Option {
	return func(s *Scheduler) { s.journalDir = dir }
}

// WithCouncilID fixes the council id instead of generating one.
func WithCouncilID(id string) Option {
	return func(s *Scheduler) { s.councilID = id }
}

// WithMetadata attaches metadata to the debate state. Agents may read it.
func WithMetadata(md map[string]any) Option {
	return func(s *Scheduler) { s.metadata = md }
}
