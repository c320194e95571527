package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Iron-Ham/council/internal/agent"
	"github.com/Iron-Ham/council/internal/agent/heuristic"
	"github.com/Iron-Ham/council/internal/agent/llm"
	"github.com/Iron-Ham/council/internal/agent/template"
	"github.com/Iron-Ham/council/internal/audit"
	"github.com/Iron-Ham/council/internal/config"
	"github.com/Iron-Ham/council/internal/event"
	"github.com/Iron-Ham/council/internal/knowledge"
	"github.com/Iron-Ham/council/internal/logging"
	"github.com/Iron-Ham/council/internal/orchestrator"
	"github.com/Iron-Ham/council/internal/util"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type debateOptions struct {
	perspectives []string
	rounds       int
	maxBudget    float64
	maxDuration  float64
	noBudget     bool
	noTimeout    bool
	backend      string
	templates    string
	noAudit      bool
	knowledge    bool
	jsonOutput   bool
	quiet        bool
}

// RegisterDebateCmd adds the debate command to parent.
func RegisterDebateCmd(parent *cobra.Command) {
	opts := &debateOptions{}
	cmd := &cobra.Command{
		Use:   "debate <topic>",
		Short: "Run a debate on a topic",
		Long: `Run a debate on a topic with one agent per perspective.

Flags override the debate section of the config file for this run.

Examples:
  # Debate with the configured perspectives
  council debate "Adopt a service mesh"

  # Pick perspectives and a tighter budget
  council debate "Move to Postgres" -p cost,performance,security --max-budget 0.10

  # Machine-readable result
  council debate "Rewrite the billing service" --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDebate(cmd, opts, strings.Join(args, " "))
		},
	}

	f := cmd.Flags()
	f.StringSliceVarP(&opts.perspectives, "perspectives", "p", nil, "Perspectives to debate (comma-separated)")
	f.IntVarP(&opts.rounds, "rounds", "r", 0, "Number of rounds")
	f.Float64Var(&opts.maxBudget, "max-budget", 0, "Budget limit in dollars")
	f.Float64Var(&opts.maxDuration, "max-duration", 0, "Time limit in minutes")
	f.BoolVar(&opts.noBudget, "no-budget", false, "Disable the budget circuit breaker")
	f.BoolVar(&opts.noTimeout, "no-timeout", false, "Disable the timeout circuit breaker")
	f.StringVar(&opts.backend, "backend", "", "Agent backend (heuristic, llm)")
	f.StringVar(&opts.templates, "templates", "", "Directory of YAML perspective templates")
	f.BoolVar(&opts.noAudit, "no-audit", false, "Do not write an audit log")
	f.BoolVar(&opts.knowledge, "capture", false, "Capture a decisive outcome in the knowledge store")
	f.BoolVar(&opts.jsonOutput, "json", false, "Print the result as JSON")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "Only print the result")

	parent.AddCommand(cmd)
}

// apply copies explicitly set flags over the loaded config.
func (o *debateOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("perspectives") {
		cfg.Debate.Perspectives = o.perspectives
	}
	if f.Changed("rounds") {
		cfg.Debate.Rounds = o.rounds
	}
	if f.Changed("max-budget") {
		cfg.Debate.MaxBudget = o.maxBudget
	}
	if f.Changed("max-duration") {
		cfg.Debate.MaxDurationMinutes = o.maxDuration
	}
	if o.noBudget {
		cfg.Debate.EnforceBudget = false
	}
	if o.noTimeout {
		cfg.Debate.EnforceTimeout = false
	}
	if f.Changed("backend") {
		cfg.Agents.Backend = o.backend
	}
	if f.Changed("templates") {
		cfg.Agents.TemplatesDir = o.templates
	}
	if o.noAudit {
		cfg.Audit.Enabled = false
	}
	if o.knowledge {
		cfg.Knowledge.Enabled = true
	}
}

func runDebate(cmd *cobra.Command, opts *debateOptions, topic string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	opts.apply(cmd, cfg)
	if errs := cfg.Validate(); len(errs) > 0 {
		return config.ValidationErrors(errs)
	}
	perspectives := cleanPerspectives(cfg.Debate.Perspectives)
	if len(perspectives) == 0 {
		return fmt.Errorf("no perspectives: pass --perspectives or set debate.perspectives")
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	registry, err := buildRegistry(cfg, perspectives, logger)
	if err != nil {
		return err
	}

	councilID := uuid.NewString()
	bus := event.NewBus()
	bus.SetLogger(logger)

	schedOpts := []orchestrator.Option{
		orchestrator.WithLogger(logger),
		orchestrator.WithEventBus(bus),
		orchestrator.WithCouncilID(councilID),
	}

	var auditPath string
	if cfg.Audit.Enabled {
		dir := filepath.Join(cfg.AuditDir(), councilID)
		auditPath = filepath.Join(dir, audit.FileName)
		w, err := audit.Open(auditPath, logging.RotationConfig{
			MaxSizeMB:  cfg.Audit.MaxSizeMB,
			MaxBackups: cfg.Audit.MaxBackups,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to open audit log: %w", err)
		}
		w.Attach(bus)
		defer func() { _ = w.Close() }()
		schedOpts = append(schedOpts, orchestrator.WithMailboxJournal(dir))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if cfg.Knowledge.Enabled {
		sink, err := knowledge.OpenSink(ctx, cfg.Knowledge.Driver, cfg.KnowledgeDir(), cfg.Knowledge.DSN)
		if err != nil {
			return fmt.Errorf("failed to open knowledge store: %w", err)
		}
		hook := knowledge.NewHook(knowledge.Policy{MinConfidence: cfg.Knowledge.MinConfidence}, sink)
		defer func() { _ = hook.Close() }()
		schedOpts = append(schedOpts, orchestrator.WithKnowledgeHook(hook))
	}

	sched, err := orchestrator.New(orchestrator.FromConfig(cfg.Debate), registry, schedOpts...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !opts.jsonOutput && !opts.quiet {
		watchProgress(bus, newRenderer(cmd.ErrOrStderr()))
	}

	res, err := sched.Run(ctx, topic, perspectives)
	if err != nil {
		return err
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	newRenderer(out).Result(res)
	if auditPath != "" && !opts.quiet {
		_, _ = fmt.Fprintf(out, "audit: %s\n", auditPath)
	}
	return nil
}

func cleanPerspectives(in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func newLogger(cfg *config.Config) (*logging.Logger, error) {
	if !cfg.Logging.Enabled {
		return logging.NopLogger(), nil
	}
	logger, err := logging.NewLoggerWithRotation(cfg.LogDir(), cfg.Logging.Level, logging.RotationConfig{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		Compress:   cfg.Logging.Compress,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open log: %w", err)
	}
	return logger, nil
}

// buildRegistry binds the built-in heuristic profiles, then any templates,
// then (for the llm backend) the model-backed agent for every perspective
// being debated.
func buildRegistry(cfg *config.Config, perspectives []string, logger *logging.Logger) (*agent.Registry, error) {
	registry := agent.NewRegistry()
	if err := heuristic.Register(registry); err != nil {
		return nil, err
	}

	files, err := template.LoadDir(cfg.TemplatesDir())
	if err != nil {
		return nil, err
	}
	if err := template.Register(registry, files); err != nil {
		return nil, err
	}
	if len(files) > 0 {
		logger.Debug("loaded perspective templates", "count", len(files), "dir", cfg.TemplatesDir())
	}

	if cfg.Agents.Backend != config.BackendLLM {
		return registry, nil
	}
	key := cfg.LLM.APIKey()
	if key == "" && cfg.LLM.BaseURL == "" {
		return nil, fmt.Errorf("llm backend needs an API key in $%s or a base_url", cfg.LLM.APIKeyEnv)
	}
	factory := llm.Factory(llm.NewClient(key, cfg.LLM.BaseURL), llm.Config{
		Model:       cfg.LLM.Model,
		Temperature: float32(cfg.LLM.Temperature),
		MaxTokens:   cfg.LLM.MaxTokens,
	})
	for _, p := range perspectives {
		if err := registry.Register(p, factory); err != nil {
			return nil, err
		}
	}
	registry.SetDefault(factory)
	return registry, nil
}

// watchProgress prints one line per round, argument and breaker as the
// debate runs. Handlers may fire from agent goroutines.
func watchProgress(bus *event.Bus, r *renderer) {
	var mu sync.Mutex
	emit := func(s string) {
		mu.Lock()
		defer mu.Unlock()
		r.line(s)
	}
	bus.Subscribe(event.TypeRoundStarted, func(e event.Event) {
		if ev, ok := e.(event.RoundStartedEvent); ok {
			emit(r.label.Render(fmt.Sprintf("round %d: %s (%d agents)", ev.Round, ev.Phase, ev.Agents)))
		}
	})
	bus.Subscribe(event.TypeArgumentPosted, func(e event.Event) {
		if ev, ok := e.(event.ArgumentPostedEvent); ok {
			emit(fmt.Sprintf("  %s %s %.2f %s", ev.AgentID, ev.Position, ev.Confidence,
				r.muted.Render(util.Excerpt(ev.Reasoning, 80))))
		}
	})
	bus.Subscribe(event.TypeAgentFailed, func(e event.Event) {
		if ev, ok := e.(event.AgentFailedEvent); ok {
			emit(r.warning.Render(fmt.Sprintf("  %s failed %s: %s", ev.AgentID, ev.Operation, ev.Error)))
		}
	})
	bus.Subscribe(event.TypeBreakerTripped, func(e event.Event) {
		if ev, ok := e.(event.BreakerTrippedEvent); ok {
			emit(r.warning.Render("halted: " + ev.Reason))
		}
	})
}
