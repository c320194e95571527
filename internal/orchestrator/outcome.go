package orchestrator

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Iron-Ham/council/internal/orchestrator/budget"
)

// Cause names the circuit breaker that stopped a debate early.
type Cause string

const (
	CauseNone     Cause = ""
	CauseTimeout  Cause = "timeout"
	CauseBudget   Cause = "budget"
	CauseCanceled Cause = "canceled"
)

// Outcome is the result of the pre-round breaker check. A halt is a normal
// outcome, not an error: the debate still resolves with what it has.
type Outcome struct {
	Cause  Cause
	Reason string
}

// Halted reports whether a breaker tripped.
func (o Outcome) Halted() bool { return o.Cause != CauseNone }

// checkBreakers runs before every round. The timeout breaker is checked first
// so a debate that is both late and over budget reports the timeout.
func (s *Scheduler) checkBreakers(ctx context.Context, started time.Time, tracker *budget.Tracker) Outcome {
	if s.cfg.EnforceTimeout {
		elapsed := s.now().Sub(started)
		if elapsed > s.cfg.MaxDuration {
			return Outcome{
				Cause: CauseTimeout,
				Reason: fmt.Sprintf("timeout exceeded: %.1f minutes elapsed of %s minute limit",
					elapsed.Minutes(), strconv.FormatFloat(s.cfg.MaxDuration.Minutes(), 'f', -1, 64)),
			}
		}
	}
	if s.cfg.EnforceBudget && tracker.Exceeds(s.cfg.MaxBudget) {
		return Outcome{
			Cause:  CauseBudget,
			Reason: fmt.Sprintf("budget exceeded: $%.2f spent of $%.2f limit", tracker.Total(), s.cfg.MaxBudget),
		}
	}
	if err := ctx.Err(); err != nil {
		return Outcome{Cause: CauseCanceled, Reason: "canceled: " + err.Error()}
	}
	return Outcome{}
}
