package orchestrator

import (
	"context"
	"time"

	"github.com/Iron-Ham/council/internal/consensus"
	"github.com/Iron-Ham/council/internal/debate"
	"github.com/Iron-Ham/council/internal/mailbox"
	"github.com/Iron-Ham/council/internal/orchestrator/budget"
	"github.com/sourcegraph/conc/panics"
)

// knowledgeTimeout bounds a single knowledge capture.
const knowledgeTimeout = 30 * time.Second

// Result is the single record a debate produces, whether it ran every round
// or was halted by a breaker.
type Result struct {
	CouncilID    string        `json:"council_id"`
	Topic        string        `json:"topic"`
	Perspectives []string      `json:"perspectives"`
	Status       debate.Status `json:"status"`

	consensus.Verdict

	// Arguments are those counted in the verdict. Excluded holds arguments
	// posted by an agent in a round it was excluded from.
	Arguments []debate.Argument     `json:"arguments"`
	Excluded  []debate.Argument     `json:"excluded_arguments,omitempty"`
	Evidence  []debate.EvidenceItem `json:"evidence,omitempty"`
	Messages  []mailbox.Message     `json:"messages,omitempty"`

	// Closings maps agent id to its final-round statement.
	Closings map[string]string `json:"closings,omitempty"`

	// FailedAgents maps a round to the agents excluded from it.
	FailedAgents map[int][]string `json:"failed_agents,omitempty"`

	RoundsCompleted int    `json:"rounds_completed"`
	Halted          bool   `json:"halted"`
	HaltCause       Cause  `json:"halt_cause,omitempty"`
	HaltReason      string `json:"halt_reason,omitempty"`

	Cost            budget.Summary `json:"cost"`
	StartedAt       time.Time      `json:"started_at"`
	CompletedAt     time.Time      `json:"completed_at"`
	DurationSeconds float64        `json:"duration_seconds"`

	KnowledgeCaptured bool `json:"knowledge_captured"`
}

// ArgumentsByRound groups the result's arguments by round number.
func (r *Result) ArgumentsByRound() map[int][]debate.Argument {
	out := make(map[int][]debate.Argument)
	for _, a := range r.Arguments {
		out[a.Round] = append(out[a.Round], a)
	}
	return out
}

// KnowledgeHook receives finished debates worth keeping. Both methods are
// called at most once per debate; a failing hook never fails the debate.
type KnowledgeHook interface {
	ShouldCapture(r *Result) bool
	Capture(ctx context.Context, r *Result) error
}

func (d *debateRun) offerKnowledge(ctx context.Context, res *Result) {
	hook := d.s.hook
	if hook == nil {
		return
	}

	var pc panics.Catcher
	pc.Try(func() {
		if !hook.ShouldCapture(res) {
			d.logger.Debug("knowledge capture skipped by policy")
			return
		}
		hookCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), knowledgeTimeout)
		defer cancel()
		if err := hook.Capture(hookCtx, res); err != nil {
			d.logger.Warn("knowledge capture failed", "error", err)
			return
		}
		res.KnowledgeCaptured = true
		d.logger.Info("knowledge captured")
	})
	if rec := pc.Recovered(); rec != nil {
		d.logger.Error("knowledge hook panicked", "error", rec.AsError())
	}
}
