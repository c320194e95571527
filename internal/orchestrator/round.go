package orchestrator

import (
	"context"
	"slices"
	"time"

	"github.com/Iron-Ham/council/internal/debate"
	"github.com/Iron-Ham/council/internal/errors"
	"github.com/Iron-Ham/council/internal/event"
	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
)

// Round phases.
const (
	PhaseAnalysis  = "analysis"
	PhaseRebuttal  = "rebuttal"
	PhaseSynthesis = "synthesis"
)

// Agent operation names used in errors, logs and events.
const (
	opAnalyze    = "analyze"
	opRebuttal   = "rebuttal"
	opSynthesize = "synthesize"
)

// PhaseFor returns the phase of round in a debate of total rounds.
// Synthesis needs at least three rounds; shorter debates end on a rebuttal.
func PhaseFor(round, total int) string {
	switch {
	case round == 1:
		return PhaseAnalysis
	case round == total && total >= 3:
		return PhaseSynthesis
	default:
		return PhaseRebuttal
	}
}

func (d *debateRun) runRound(ctx context.Context, round int) {
	phase := PhaseFor(round, d.s.cfg.Rounds)
	logger := d.logger.WithRound(round)
	agents := d.activeCount()
	logger.Info("round started", "phase", phase, "agents", agents)
	d.s.events.Publish(event.NewRoundStartedEvent(round, phase, agents))

	switch phase {
	case PhaseAnalysis:
		d.fanOut(ctx, round, opAnalyze, func(ctx context.Context, p participant) error {
			arg, err := p.agent.Analyze(ctx)
			if err != nil {
				return err
			}
			return d.ensurePosted(p, round, arg, true)
		})

	case PhaseRebuttal:
		// Every agent in the round sees the same snapshot; arguments posted
		// by earlier speakers in this round are not part of it.
		prior, _ := d.partition(d.state.Arguments(debate.Filter{BeforeRound: round}))
		for _, p := range d.agents {
			snapshot := cloneArguments(prior)
			_ = d.invoke(ctx, p, round, opRebuttal, func(ctx context.Context) error {
				arg, err := p.agent.Rebuttal(ctx, snapshot)
				if err != nil {
					return err
				}
				return d.ensurePosted(p, round, arg, false)
			})
		}

	case PhaseSynthesis:
		all, _ := d.partition(d.state.Arguments(debate.Filter{}))
		d.fanOut(ctx, round, opSynthesize, func(ctx context.Context, p participant) error {
			closing, err := p.agent.Synthesize(ctx, cloneArguments(all))
			if err != nil {
				return err
			}
			d.mu.Lock()
			d.closings[p.id] = closing
			d.mu.Unlock()
			return nil
		})
	}

	roundCost := d.s.tracker.RoundCost(round)
	total := d.s.tracker.Total()
	d.s.events.Publish(event.NewRoundCostEvent(round, roundCost, total))
	logger.Info("round finished",
		"phase", phase,
		"arguments", len(d.state.Arguments(debate.Filter{Round: round})),
		"total_arguments", d.state.ArgumentCount(),
		"round_cost", roundCost,
		"total_cost", total,
	)
}

// fanOut runs op for every agent concurrently and waits for all of them.
func (d *debateRun) fanOut(ctx context.Context, round int, op string, fn func(context.Context, participant) error) {
	p := pool.New()
	if d.s.cfg.MaxParallel > 0 {
		p = p.WithMaxGoroutines(d.s.cfg.MaxParallel)
	}
	for _, a := range d.agents {
		p.Go(func() {
			_ = d.invoke(ctx, a, round, op, func(ctx context.Context) error {
				return fn(ctx, a)
			})
		})
	}
	p.Wait()
}

// ensurePosted posts the argument an operation returned when the agent left
// nothing on the board for the round. A required argument that is missing
// entirely is an error.
func (d *debateRun) ensurePosted(p participant, round int, arg *debate.Argument, required bool) error {
	if len(d.state.Arguments(debate.Filter{Round: round, AgentID: p.id})) > 0 {
		return nil
	}
	if arg == nil {
		if required {
			return errors.New("analysis posted no argument")
		}
		return nil
	}
	posted := *arg
	posted.AgentID = p.id
	posted.Perspective = p.perspective
	posted.Round = round
	posted.CreatedAt = time.Time{}
	if _, err := p.board.PostArgument(posted); err != nil {
		return errors.Wrap(err, "post returned argument")
	}
	return nil
}

// invoke runs one agent operation under the per-operation timeout, records
// its cost, and converts errors, panics and overruns into an exclusion from
// the round. The agent's gate is open only while the operation runs; an
// overrun retires it. The returned error is informational; the debate
// continues.
func (d *debateRun) invoke(ctx context.Context, p participant, round int, op string, fn func(context.Context) error) error {
	if !p.board.open(round) {
		return d.exclude(p, round, op,
			errors.NewAgentError("retired after an abandoned operation", errors.ErrAgentExcluded))
	}
	if err := d.s.tracker.Record(p.id, round, d.s.cfg.CostPerOperation); err != nil {
		d.logger.Warn("failed to record cost", "agent_id", p.id, "error", err)
	}

	opCtx, cancel := context.WithTimeout(ctx, d.s.cfg.OperationTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		var pc panics.Catcher
		var err error
		pc.Try(func() { err = fn(opCtx) })
		if rec := pc.Recovered(); rec != nil {
			err = rec.AsError()
		}
		done <- err
	}()

	var err error
	abandoned := false
	select {
	case err = <-done:
	case <-opCtx.Done():
		select {
		case err = <-done:
		default:
			// The agent keeps running in its goroutine; nothing waits for it.
			abandoned = true
			err = opCtx.Err()
		}
	}
	p.board.shut(abandoned)
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		err = errors.NewTimeoutError(op, d.s.cfg.OperationTimeout)
	case ctx.Err() != nil:
		err = errors.Wrap(errors.ErrCanceled, err.Error())
	}
	return d.exclude(p, round, op, err)
}

// exclude records p as failed for round. Its arguments from that round no
// longer count toward the vote or later snapshots.
func (d *debateRun) exclude(p participant, round int, op string, err error) error {
	agentErr := errors.NewAgentError(op+" failed", err).
		WithAgent(p.id, p.perspective).
		WithRound(round).
		WithOperation(op)

	logFn := d.logger.Warn
	if !errors.IsRecoverable(err) {
		logFn = d.logger.Error
	}
	logFn("agent excluded from round",
		"agent_id", p.id,
		"round", round,
		"operation", op,
		"severity", errors.GetSeverity(err).String(),
		"error", err,
	)
	d.mu.Lock()
	d.failed[round] = append(d.failed[round], p.id)
	d.mu.Unlock()
	d.s.events.Publish(event.NewAgentFailedEvent(p.id, round, op, err.Error()))
	return agentErr
}

// partition splits args into those that count and those posted by an agent
// that was excluded from the argument's round.
func (d *debateRun) partition(args []debate.Argument) (kept, excluded []debate.Argument) {
	d.mu.Lock()
	defer d.mu.Unlock()
	kept = make([]debate.Argument, 0, len(args))
	for _, a := range args {
		if slices.Contains(d.failed[a.Round], a.AgentID) {
			excluded = append(excluded, a)
			continue
		}
		kept = append(kept, a)
	}
	return kept, excluded
}

func (d *debateRun) activeCount() int {
	n := 0
	for _, p := range d.agents {
		if !p.board.isRetired() {
			n++
		}
	}
	return n
}

func cloneArguments(args []debate.Argument) []debate.Argument {
	out := slices.Clone(args)
	for i := range out {
		out[i].Evidence = slices.Clone(out[i].Evidence)
	}
	return out
}
