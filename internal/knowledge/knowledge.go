// Package knowledge keeps the outcome of decisive debates so later work can
// look them up.
//
// A [Hook] plugs into the scheduler: its [Policy] decides whether a result is
// worth keeping and its [Sink] stores an [Entry] built from the result.
package knowledge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Iron-Ham/council/internal/consensus"
	"github.com/Iron-Ham/council/internal/errors"
	"github.com/Iron-Ham/council/internal/orchestrator"
	"github.com/google/uuid"
)

// Drivers accepted by OpenSink.
const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
)

// DefaultMinConfidence is the lowest verdict confidence captured by default.
const DefaultMinConfidence = 0.6

// Entry is a stored debate outcome.
type Entry struct {
	ID                string         `json:"id"`
	CouncilID         string         `json:"council_id"`
	Topic             string         `json:"topic"`
	Recommendation    string         `json:"recommendation"`
	Confidence        float64        `json:"confidence"`
	VoteBreakdown     map[string]int `json:"vote_breakdown"`
	KeyConsiderations []string       `json:"key_considerations"`
	Perspectives      []string       `json:"perspectives"`
	RoundsCompleted   int            `json:"rounds_completed"`
	TotalCost         float64        `json:"total_cost"`
	CapturedAt        time.Time      `json:"captured_at"`
}

// EntryFromResult flattens a debate result.
func EntryFromResult(r *orchestrator.Result, capturedAt time.Time) Entry {
	votes := make(map[string]int, len(r.VoteBreakdown))
	for p, n := range r.VoteBreakdown {
		votes[string(p)] = n
	}
	return Entry{
		ID:                uuid.NewString(),
		CouncilID:         r.CouncilID,
		Topic:             r.Topic,
		Recommendation:    string(r.Recommendation),
		Confidence:        r.Confidence,
		VoteBreakdown:     votes,
		KeyConsiderations: append([]string{}, r.KeyConsiderations...),
		Perspectives:      append([]string{}, r.Perspectives...),
		RoundsCompleted:   r.RoundsCompleted,
		TotalCost:         r.Cost.Total,
		CapturedAt:        capturedAt.UTC(),
	}
}

// Policy decides which results are kept. Halted debates and SPLIT verdicts
// are never kept; the rest must reach MinConfidence.
type Policy struct {
	MinConfidence float64
}

// Allows reports whether r should be captured.
func (p Policy) Allows(r *orchestrator.Result) bool {
	if r == nil || r.Halted || r.Recommendation == consensus.Split {
		return false
	}
	return r.Confidence >= p.MinConfidence
}

// Sink stores entries.
type Sink interface {
	Store(ctx context.Context, e Entry) error
	Close() error
}

// Hook satisfies orchestrator.KnowledgeHook.
type Hook struct {
	policy Policy
	sink   Sink
	now    func() time.Time
}

var _ orchestrator.KnowledgeHook = (*Hook)(nil)

// NewHook combines a policy and a sink.
func NewHook(policy Policy, sink Sink) *Hook {
	return &Hook{policy: policy, sink: sink, now: time.Now}
}

// ShouldCapture applies the policy.
func (h *Hook) ShouldCapture(r *orchestrator.Result) bool {
	return h.policy.Allows(r)
}

// Capture stores r.
func (h *Hook) Capture(ctx context.Context, r *orchestrator.Result) error {
	return h.sink.Store(ctx, EntryFromResult(r, h.now()))
}

// Close closes the sink.
func (h *Hook) Close() error { return h.sink.Close() }

// OpenSink opens the sink for driver. The file driver writes under dir; the
// postgres driver connects to dsn and creates its table if needed.
func OpenSink(ctx context.Context, driver, dir, dsn string) (Sink, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverFile:
		return NewFileSink(dir)
	case DriverPostgres:
		s, err := NewPostgresSink(dsn)
		if err != nil {
			return nil, err
		}
		if err := s.Init(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil
	default:
		return nil, errors.NewValidationError(fmt.Sprintf("unknown knowledge driver %q", driver)).
			WithField("knowledge.driver").
			WithValue(driver).
			WithCause(errors.ErrInvalidConfig)
	}
}
