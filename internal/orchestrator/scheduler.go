package orchestrator

import (
	"context"
	"maps"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Iron-Ham/council/internal/agent"
	"github.com/Iron-Ham/council/internal/consensus"
	"github.com/Iron-Ham/council/internal/debate"
	"github.com/Iron-Ham/council/internal/errors"
	"github.com/Iron-Ham/council/internal/event"
	"github.com/Iron-Ham/council/internal/logging"
	"github.com/Iron-Ham/council/internal/mailbox"
	"github.com/Iron-Ham/council/internal/orchestrator/budget"
	"github.com/Iron-Ham/council/internal/util"
)

// Scheduler runs one debate: it spawns an agent per perspective, drives the
// rounds, enforces the breakers and resolves the vote.
//
// A Scheduler is single-use; Run returns ErrAlreadyRun on a second call.
type Scheduler struct {
	cfg      Config
	registry *agent.Registry

	logger     *logging.Logger
	events     *event.Bus
	now        func() time.Time
	hook       KnowledgeHook
	tracker    *budget.Tracker
	journalDir string
	councilID  string
	metadata   map[string]any

	ran atomic.Bool
}

// New validates cfg and returns a scheduler that spawns agents from registry.
func New(cfg Config, registry *agent.Registry, opts ...Option) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if registry == nil {
		return nil, errors.NewValidationError("agent registry is required").
			WithField("registry").
			WithCause(errors.ErrInvalidConfig)
	}

	s := &Scheduler{
		cfg:      cfg,
		registry: registry,
		logger:   logging.NopLogger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.events == nil {
		s.events = event.NewBus()
		s.events.SetLogger(s.logger)
	}
	if s.tracker == nil {
		s.tracker = budget.NewTracker(budget.Config{
			Limit:            cfg.MaxBudget,
			WarningThreshold: cfg.MaxBudget * cfg.BudgetWarningRatio,
		}, budget.Callbacks{}, s.logger)
	}
	return s, nil
}

// Config returns the scheduler's configuration.
func (s *Scheduler) Config() Config { return s.cfg }

// Tracker returns the cost tracker used by the scheduler.
func (s *Scheduler) Tracker() *budget.Tracker { return s.tracker }

// participant is a spawned agent with the identity the scheduler assigned.
type participant struct {
	agent       agent.Agent
	id          string
	perspective string
	board       *gate
}

// debateRun holds the state of a single Run.
type debateRun struct {
	s       *Scheduler
	state   *debate.State
	lc      *debate.Lifecycle
	bus     *mailbox.Bus
	logger  *logging.Logger
	agents  []participant
	started time.Time

	mu       sync.Mutex
	failed   map[int][]string
	closings map[string]string
}

// Run holds a debate on topic among perspectives and returns its result.
//
// Breaker halts and agent failures still produce a result. An error is
// returned only when the debate cannot be held at all: invalid input, or a
// perspective the registry cannot spawn.
func (s *Scheduler) Run(ctx context.Context, topic string, perspectives []string) (*Result, error) {
	if s.ran.Swap(true) {
		return nil, errors.ErrAlreadyRun
	}

	state, lc, err := debate.New(topic, perspectives,
		debate.WithCouncilID(s.councilID),
		debate.WithMetadata(s.metadata),
		debate.WithBus(s.events),
		debate.WithClock(s.now),
	)
	if err != nil {
		return nil, errors.NewDebateError("create debate", err)
	}

	d := &debateRun{
		s:        s,
		state:    state,
		lc:       lc,
		logger:   s.logger.WithCouncil(state.CouncilID()),
		failed:   make(map[int][]string),
		closings: make(map[string]string),
	}
	d.bus = d.openBus()
	defer func() {
		if err := d.bus.Close(); err != nil {
			d.logger.Warn("failed to close mailbox journal", "error", err)
		}
	}()

	start := event.NewDebateStartedEvent(state.CouncilID(), topic, perspectives)
	start.Rounds = s.cfg.Rounds
	start.MaxBudget = s.cfg.MaxBudget
	start.MaxDurationMinutes = s.cfg.MaxDuration.Minutes()
	start.CostPerOperation = s.cfg.CostPerOperation
	start.EnforceBudget = s.cfg.EnforceBudget
	start.EnforceTimeout = s.cfg.EnforceTimeout
	s.events.Publish(start)
	d.logger.Info("debate started",
		"topic", util.Excerpt(topic, 120),
		"perspectives", perspectives,
		"rounds", s.cfg.Rounds,
	)

	if err := d.spawn(perspectives); err != nil {
		return nil, errors.NewDebateError("spawn agents", err).WithCouncilID(state.CouncilID())
	}

	lc.MarkStarted()
	d.started, _ = state.StartedAt()

	var outcome Outcome
	completed := 0
	for round := 1; round <= s.cfg.Rounds; round++ {
		outcome = s.checkBreakers(ctx, d.started, s.tracker)
		if outcome.Halted() {
			d.halt(outcome, round)
			break
		}
		if round > 1 {
			lc.AdvanceRound()
		}
		d.runRound(ctx, round)
		completed = round
	}

	return d.resolve(ctx, outcome, completed), nil
}

// openBus creates the message bus for this run. A journal that cannot be
// opened is logged and skipped.
func (d *debateRun) openBus() *mailbox.Bus {
	opts := []mailbox.Option{
		mailbox.WithBus(d.s.events),
		mailbox.WithLogger(d.logger),
		mailbox.WithClock(d.s.now),
	}
	if d.s.journalDir != "" {
		j, err := mailbox.OpenJournal(d.s.journalDir)
		if err != nil {
			d.logger.Warn("mailbox journal disabled", "dir", d.s.journalDir, "error", err)
		} else {
			opts = append(opts, mailbox.WithJournal(j))
		}
	}
	return mailbox.New(opts...)
}

// spawn creates one agent per perspective, in order. Agent ids are the
// perspective slug, suffixed when two perspectives slug the same.
func (d *debateRun) spawn(perspectives []string) error {
	used := make(map[string]bool, len(perspectives))
	for _, p := range perspectives {
		id := agentID(p, used)
		board := newGate(d.state, id)
		a, err := d.s.registry.Spawn(agent.Env{
			ID:          id,
			Perspective: p,
			Topic:       d.state.Topic(),
			Board:       board,
			Bus:         d.bus,
			Logger:      d.logger.WithAgent(id),
		})
		if err != nil {
			return err
		}
		if err := d.bus.Register(id); err != nil {
			return err
		}
		d.agents = append(d.agents, participant{agent: a, id: id, perspective: p, board: board})
		d.s.events.Publish(event.NewAgentSpawnedEvent(id, p))
		d.logger.Debug("agent spawned", "agent_id", id, "perspective", p)
	}
	return nil
}

func agentID(perspective string, used map[string]bool) string {
	base := util.Slug(perspective)
	if base == "" {
		base = "agent"
	}
	id := base
	for n := 2; used[id]; n++ {
		id = base + "-" + strconv.Itoa(n)
	}
	used[id] = true
	return id
}

func (d *debateRun) halt(o Outcome, nextRound int) {
	elapsed := d.s.now().Sub(d.started)
	d.logger.Warn("circuit breaker tripped",
		"cause", string(o.Cause),
		"reason", o.Reason,
		"next_round", nextRound,
	)
	d.s.events.Publish(event.NewBreakerTrippedEvent(
		string(o.Cause), o.Reason, nextRound, d.s.tracker.Total(), elapsed.Seconds(),
	))
}

// resolve aggregates the vote, marks the debate completed and builds the
// result. It runs exactly once per debate, on every path past spawning.
// The verdict and the reported arguments come from one snapshot.
func (d *debateRun) resolve(ctx context.Context, o Outcome, completed int) *Result {
	arguments, excluded := d.partition(d.state.Arguments(debate.Filter{}))
	verdict := consensus.Aggregate(arguments)
	d.lc.MarkCompleted()

	startedAt, _ := d.state.StartedAt()
	completedAt, _ := d.state.CompletedAt()
	duration, _ := d.state.DurationSeconds()

	d.mu.Lock()
	failed := make(map[int][]string, len(d.failed))
	for r, ids := range d.failed {
		failed[r] = slices.Sorted(slices.Values(ids))
	}
	closings := maps.Clone(d.closings)
	d.mu.Unlock()

	res := &Result{
		CouncilID:       d.state.CouncilID(),
		Topic:           d.state.Topic(),
		Perspectives:    d.state.Perspectives(),
		Status:          d.state.Status(),
		Verdict:         verdict,
		Arguments:       arguments,
		Excluded:        excluded,
		Evidence:        d.state.Evidence(),
		Messages:        d.bus.History(time.Time{}),
		Closings:        closings,
		FailedAgents:    failed,
		RoundsCompleted: completed,
		Halted:          o.Halted(),
		HaltCause:       o.Cause,
		HaltReason:      o.Reason,
		Cost:            d.s.tracker.Summary(),
		StartedAt:       startedAt,
		CompletedAt:     completedAt,
		DurationSeconds: duration,
	}

	votes := make(map[string]int, len(verdict.VoteBreakdown))
	for p, n := range verdict.VoteBreakdown {
		votes[string(p)] = n
	}
	resolved := event.NewDebateResolvedEvent(string(verdict.Recommendation), verdict.Confidence, votes)
	resolved.Halted = res.Halted
	resolved.HaltReason = res.HaltReason
	resolved.TotalCost = res.Cost.Total
	resolved.DurationSeconds = duration
	d.s.events.Publish(resolved)

	d.logger.Info("debate resolved",
		"recommendation", string(verdict.Recommendation),
		"confidence", verdict.Confidence,
		"rounds_completed", completed,
		"halted", res.Halted,
		"total_cost", res.Cost.Total,
		"duration_seconds", duration,
	)

	for _, id := range d.bus.Registered() {
		if n := d.bus.Pending(id); n > 0 {
			d.logger.Debug("unread messages at resolution", "agent_id", id, "count", n)
		}
	}

	d.offerKnowledge(ctx, res)
	return res
}
