// Package budget tracks the estimated spend of a debate for the budget
// circuit breaker.
//
// Costs are a flat per-operation estimate used only to decide whether the
// next round may start. They are not a billing record.
package budget

import (
	"maps"
	"math"
	"sync"

	"github.com/Iron-Ham/council/internal/errors"
	"github.com/Iron-Ham/council/internal/logging"
)

// Config holds the spend thresholds the tracker reports on.
// Zero disables a threshold.
type Config struct {
	Limit            float64
	WarningThreshold float64
}

// Callbacks are notified the first time spend crosses a threshold.
type Callbacks struct {
	// OnWarning is called once when total spend reaches the warning threshold.
	OnWarning func(total float64)
	// OnLimit is called once when total spend exceeds the limit.
	OnLimit func(total float64)
}

// Summary is a copy of the tracker's totals.
type Summary struct {
	Total   float64            `json:"total_cost"`
	ByAgent map[string]float64 `json:"cost_by_agent"`
	ByRound map[int]float64    `json:"cost_by_round"`
}

// Tracker accumulates spend per agent and per round. Total always equals the
// sum of either breakdown.
type Tracker struct {
	mu      sync.Mutex
	total   float64
	byAgent map[string]float64
	byRound map[int]float64

	config    Config
	callbacks Callbacks
	warned    bool
	limited   bool
	logger    *logging.Logger
}

// NewTracker creates an empty tracker.
func NewTracker(cfg Config, callbacks Callbacks, logger *logging.Logger) *Tracker {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Tracker{
		byAgent:   make(map[string]float64),
		byRound:   make(map[int]float64),
		config:    cfg,
		callbacks: callbacks,
		logger:    logger,
	}
}

// Record adds cost for one agent operation in round. Negative, NaN and
// infinite costs are rejected.
func (t *Tracker) Record(agentID string, round int, cost float64) error {
	if cost < 0 || math.IsNaN(cost) || math.IsInf(cost, 0) {
		return errors.NewValidationError("cost must be a finite non-negative amount").
			WithField("cost").
			WithValue(cost).
			WithCause(errors.ErrInvalidArgument)
	}

	t.mu.Lock()
	t.total += cost
	t.byAgent[agentID] += cost
	t.byRound[round] += cost
	total := t.total

	fireWarning := !t.warned && t.config.WarningThreshold > 0 && total >= t.config.WarningThreshold
	if fireWarning {
		t.warned = true
	}
	fireLimit := !t.limited && t.config.Limit > 0 && total > t.config.Limit
	if fireLimit {
		t.limited = true
	}
	t.mu.Unlock()

	if fireWarning {
		t.logger.Warn("budget warning threshold reached",
			"total_cost", total,
			"warning_threshold", t.config.WarningThreshold,
		)
		if t.callbacks.OnWarning != nil {
			t.callbacks.OnWarning(total)
		}
	}
	if fireLimit {
		t.logger.Warn("budget limit exceeded, no further rounds will start",
			"total_cost", total,
			"cost_limit", t.config.Limit,
		)
		if t.callbacks.OnLimit != nil {
			t.callbacks.OnLimit(total)
		}
	}
	return nil
}

// Total returns the total recorded spend.
func (t *Tracker) Total() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}

// RoundCost returns the spend recorded for round.
func (t *Tracker) RoundCost(round int) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.byRound[round]
}

// Exceeds reports whether total spend is strictly greater than limit.
func (t *Tracker) Exceeds(limit float64) bool {
	return t.Total() > limit
}

// Summary returns a copy of the totals.
func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Summary{
		Total:   t.total,
		ByAgent: maps.Clone(t.byAgent),
		ByRound: maps.Clone(t.byRound),
	}
}
