package debate

import (
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Iron-Ham/council/internal/errors"
	"github.com/Iron-Ham/council/internal/event"
	"github.com/Iron-Ham/council/internal/util"
)

// reasoningExcerptLen bounds the reasoning carried on ArgumentPostedEvent.
const reasoningExcerptLen = 200

// Board is the view of the shared state handed to agents. It can read and
// append but has no lifecycle controls.
type Board interface {
	CouncilID() string
	Topic() string
	Perspectives() []string
	Metadata() map[string]any
	CurrentRound() int
	PostArgument(arg Argument) (Argument, error)
	AddEvidence(item EvidenceItem) (EvidenceItem, error)
	Arguments(filter Filter) []Argument
	Evidence() []EvidenceItem
}

// State is the shared debate container. The argument log, evidence log and
// round counter are guarded by a single mutex.
type State struct {
	mu           sync.RWMutex
	councilID    string
	topic        string
	perspectives []string
	metadata     map[string]any
	round        int
	arguments    []Argument
	evidence     []EvidenceItem
	createdAt    time.Time
	startedAt    time.Time
	completedAt  time.Time

	bus *event.Bus
	now func() time.Time
}

var _ Board = (*State)(nil)

// Lifecycle holds the controls only the scheduler may use. It is returned
// once, by New, so whoever creates the state owns its lifecycle.
type Lifecycle struct {
	s *State
}

// Option configures a State.
type Option func(*State)

// WithCouncilID sets the session id instead of generating a UUID.
func WithCouncilID(id string) Option {
	return func(s *State) {
		if id != "" {
			s.councilID = id
		}
	}
}

// WithMetadata seeds the open key/value metadata map.
func WithMetadata(md map[string]any) Option {
	return func(s *State) {
		maps.Copy(s.metadata, md)
	}
}

// WithBus publishes ArgumentPostedEvent and EvidenceAddedEvent after each append.
func WithBus(bus *event.Bus) Option {
	return func(s *State) {
		s.bus = bus
	}
}

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *State) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates the shared state for a debate on topic. Perspectives are an
// ordered set: empty names and duplicates are rejected.
func New(topic string, perspectives []string, opts ...Option) (*State, *Lifecycle, error) {
	if topic == "" {
		return nil, nil, invalid("topic", topic, "topic is required")
	}
	if len(perspectives) == 0 {
		return nil, nil, errors.ErrNoPerspectives
	}
	seen := make(map[string]bool, len(perspectives))
	for _, p := range perspectives {
		if p == "" {
			return nil, nil, invalid("perspectives", perspectives, "perspective names must be non-empty")
		}
		if seen[p] {
			return nil, nil, invalid("perspectives", p, "duplicate perspective")
		}
		seen[p] = true
	}

	s := &State{
		councilID:    uuid.NewString(),
		topic:        topic,
		perspectives: slices.Clone(perspectives),
		metadata:     make(map[string]any),
		round:        1,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.createdAt = s.now()

	return s, &Lifecycle{s: s}, nil
}

// CouncilID returns the unique session id.
func (s *State) CouncilID() string { return s.councilID }

// Topic returns the debate topic.
func (s *State) Topic() string { return s.topic }

// Perspectives returns the participating perspectives in registration order.
func (s *State) Perspectives() []string { return slices.Clone(s.perspectives) }

// Metadata returns a copy of the metadata map.
func (s *State) Metadata() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.metadata)
}

// CurrentRound returns the round counter. It starts at 1.
func (s *State) CurrentRound() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.round
}

// PostArgument validates and appends an argument. A zero Round is stamped with
// the current round and a zero CreatedAt with the current time. Arguments for
// a round that has not started yet are rejected. The stored copy is returned.
func (s *State) PostArgument(arg Argument) (Argument, error) {
	if err := arg.Validate(); err != nil {
		return Argument{}, err
	}
	arg = arg.clone()

	s.mu.Lock()
	if arg.Round == 0 {
		arg.Round = s.round
	}
	if arg.Round > s.round {
		current := s.round
		s.mu.Unlock()
		return Argument{}, invalid("round_number", arg.Round, fmt.Sprintf("round has not started (current %d)", current))
	}
	if arg.CreatedAt.IsZero() {
		arg.CreatedAt = s.now()
	}
	s.arguments = append(s.arguments, arg)
	s.mu.Unlock()

	if s.bus != nil {
		s.bus.Publish(event.NewArgumentPostedEvent(
			arg.AgentID, arg.Perspective, string(arg.Position), arg.Confidence, arg.Round,
			util.Excerpt(arg.Reasoning, reasoningExcerptLen),
		))
	}
	return arg.clone(), nil
}

// AddEvidence appends an evidence item. Source and CollectedBy are required.
func (s *State) AddEvidence(item EvidenceItem) (EvidenceItem, error) {
	if item.Source == "" {
		return EvidenceItem{}, invalid("source", item.Source, "evidence source is required")
	}
	if item.CollectedBy == "" {
		return EvidenceItem{}, invalid("collected_by", item.CollectedBy, "collector is required")
	}

	s.mu.Lock()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = s.now()
	}
	s.evidence = append(s.evidence, item)
	s.mu.Unlock()

	if s.bus != nil {
		s.bus.Publish(event.NewEvidenceAddedEvent(item.Source, item.CollectedBy))
	}
	return item, nil
}

// Arguments returns a snapshot of the arguments matching filter, in posting order.
func (s *State) Arguments(filter Filter) []Argument {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Argument, 0, len(s.arguments))
	for _, a := range s.arguments {
		if filter.Match(a) {
			out = append(out, a.clone())
		}
	}
	return out
}

// ArgumentCount returns the number of posted arguments.
func (s *State) ArgumentCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.arguments)
}

// Evidence returns a snapshot of the evidence log.
func (s *State) Evidence() []EvidenceItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.evidence)
}

// Status derives the lifecycle state from the start and completion marks.
func (s *State) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case !s.completedAt.IsZero():
		return StatusCompleted
	case !s.startedAt.IsZero():
		return StatusInProgress
	default:
		return StatusPending
	}
}

// CreatedAt returns when the state was created.
func (s *State) CreatedAt() time.Time { return s.createdAt }

// StartedAt returns the start mark, if set.
func (s *State) StartedAt() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.startedAt, !s.startedAt.IsZero()
}

// CompletedAt returns the completion mark, if set.
func (s *State) CompletedAt() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.completedAt, !s.completedAt.IsZero()
}

// DurationSeconds returns the time between the start and completion marks.
// ok is false until both exist.
func (s *State) DurationSeconds() (seconds float64, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.startedAt.IsZero() || s.completedAt.IsZero() {
		return 0, false
	}
	return s.completedAt.Sub(s.startedAt).Seconds(), true
}

// State returns the state this lifecycle controls.
func (l *Lifecycle) State() *State { return l.s }

// AdvanceRound increments the round counter and returns the new round.
func (l *Lifecycle) AdvanceRound() int {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	l.s.round++
	return l.s.round
}

// MarkStarted records the start time. It reports whether this call set it;
// later calls are no-ops.
func (l *Lifecycle) MarkStarted() bool {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	if !l.s.startedAt.IsZero() {
		return false
	}
	l.s.startedAt = l.s.now()
	return true
}

// MarkCompleted records the completion time once. Completing a debate that was
// never started also sets the start mark so the duration is defined.
func (l *Lifecycle) MarkCompleted() bool {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	if !l.s.completedAt.IsZero() {
		return false
	}
	l.s.completedAt = l.s.now()
	if l.s.startedAt.IsZero() {
		l.s.startedAt = l.s.completedAt
	}
	return true
}
