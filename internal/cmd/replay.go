package cmd

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Iron-Ham/council/internal/audit"
	"github.com/Iron-Ham/council/internal/event"
	"github.com/Iron-Ham/council/internal/mailbox"
	"github.com/Iron-Ham/council/internal/util"
	"github.com/gobwas/glob"
	"github.com/spf13/cobra"
)

type replayOptions struct {
	filters    []string
	jsonOutput bool
	messages   bool
}

// RegisterReplayCmd adds the replay command to parent.
func RegisterReplayCmd(parent *cobra.Command) {
	opts := &replayOptions{}
	cmd := &cobra.Command{
		Use:   "replay <audit.jsonl>",
		Short: "Re-render a recorded debate from its audit log",
		Long: `Re-render a recorded debate from its audit log.

Event types can be narrowed with glob patterns. With --messages the
mailbox journal recorded next to the audit log is printed after the events,
message bodies in full.

Examples:
  # Everything
  council replay ~/.local/share/council/audit/<id>/audit.jsonl

  # Only arguments and breakers
  council replay audit.jsonl --filter 'argument.*' --filter 'breaker.*'

  # Events followed by the full mailbox
  council replay audit.jsonl --messages`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd, opts, args[0])
		},
	}
	cmd.Flags().StringArrayVarP(&opts.filters, "filter", "f", nil, "Glob on event types (repeatable)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Print matching records as JSON lines")
	cmd.Flags().BoolVarP(&opts.messages, "messages", "m", false, "Also print the mailbox journal")
	parent.AddCommand(cmd)
}

// typeMatcher reports whether an event type passes the --filter globs.
// No patterns match everything.
type typeMatcher []glob.Glob

func compileFilters(patterns []string) (typeMatcher, error) {
	var m typeMatcher
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid filter %q: %w", p, err)
		}
		m = append(m, g)
	}
	return m, nil
}

func (m typeMatcher) Match(eventType string) bool {
	if len(m) == 0 {
		return true
	}
	for _, g := range m {
		if g.Match(eventType) {
			return true
		}
	}
	return false
}

func runReplay(cmd *cobra.Command, opts *replayOptions, path string) error {
	match, err := compileFilters(opts.filters)
	if err != nil {
		return err
	}
	records, err := audit.Read(path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	r := newRenderer(out)
	shown := 0
	for _, rec := range records {
		if !match.Match(rec.Type) {
			continue
		}
		shown++
		if opts.jsonOutput {
			line, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(out, string(line))
			continue
		}
		r.line(fmt.Sprintf("%s %s %s",
			r.muted.Render(fmt.Sprintf("%4d %s", rec.Seq, rec.Timestamp.Format("15:04:05.000"))),
			r.label.Render(fmt.Sprintf("%-16s", rec.Type)),
			describeRecord(rec)))
	}
	if shown == 0 && !opts.jsonOutput {
		_, _ = fmt.Fprintln(out, "no matching events")
	}
	if opts.messages {
		return replayMessages(r, opts.jsonOutput, filepath.Join(filepath.Dir(path), mailbox.JournalFile))
	}
	return nil
}

// replayMessages prints the mailbox journal at path. Event lines excerpt
// message bodies; the journal keeps them whole.
func replayMessages(r *renderer, jsonOutput bool, path string) error {
	msgs, err := mailbox.ReadJournal(path)
	if err != nil {
		return err
	}
	if jsonOutput {
		for _, m := range msgs {
			line, err := json.Marshal(m)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(r.w, string(line))
		}
		return nil
	}

	r.line("")
	r.line(r.title.Render("Mailbox"))
	if len(msgs) == 0 {
		r.line(r.muted.Render("no mailbox messages"))
		return nil
	}
	for _, m := range msgs {
		to := m.To
		if to == "" {
			to = "*"
		}
		r.line(fmt.Sprintf("%s %s %s -> %s",
			r.muted.Render(m.Timestamp.Format("15:04:05.000")),
			r.label.Render(fmt.Sprintf("%-10s", m.Type)),
			m.From, to))
		for _, l := range strings.Split(m.Body, "\n") {
			r.printf("    %s\n", l)
		}
	}
	return nil
}

// describeRecord summarizes a record's payload on one line. Unknown types
// fall back to the raw payload.
func describeRecord(rec audit.Record) string {
	switch rec.Type {
	case event.TypeDebateStarted:
		var e event.DebateStartedEvent
		if rec.Decode(&e) == nil {
			return fmt.Sprintf("%q with %s, %d rounds, budget $%.2f",
				e.Topic, strings.Join(e.Perspectives, ", "), e.Rounds, e.MaxBudget)
		}
	case event.TypeAgentSpawned:
		var e event.AgentSpawnedEvent
		if rec.Decode(&e) == nil {
			return fmt.Sprintf("%s (%s)", e.AgentID, e.Perspective)
		}
	case event.TypeRoundStarted:
		var e event.RoundStartedEvent
		if rec.Decode(&e) == nil {
			return fmt.Sprintf("round %d %s, %d agents", e.Round, e.Phase, e.Agents)
		}
	case event.TypeArgumentPosted:
		var e event.ArgumentPostedEvent
		if rec.Decode(&e) == nil {
			return fmt.Sprintf("r%d %s %s %.2f: %s", e.Round, e.AgentID, e.Position, e.Confidence, util.Excerpt(e.Reasoning, 120))
		}
	case event.TypeEvidenceAdded:
		var e event.EvidenceAddedEvent
		if rec.Decode(&e) == nil {
			return fmt.Sprintf("%s from %s", e.Source, e.CollectedBy)
		}
	case event.TypeAgentFailed:
		var e event.AgentFailedEvent
		if rec.Decode(&e) == nil {
			return fmt.Sprintf("r%d %s %s: %s", e.Round, e.AgentID, e.Operation, e.Error)
		}
	case event.TypeRoundCost:
		var e event.RoundCostEvent
		if rec.Decode(&e) == nil {
			return fmt.Sprintf("r%d $%.2f (total $%.2f)", e.Round, e.RoundCost, e.TotalCost)
		}
	case event.TypeBreakerTripped:
		var e event.BreakerTrippedEvent
		if rec.Decode(&e) == nil {
			return fmt.Sprintf("%s before round %d: %s", e.Cause, e.NextRound, e.Reason)
		}
	case event.TypeDebateResolved:
		var e event.DebateResolvedEvent
		if rec.Decode(&e) == nil {
			return fmt.Sprintf("%s %.2f %s", e.Recommendation, e.Confidence, formatVotes(e.VoteBreakdown))
		}
	case event.TypeMailboxMessage:
		var e event.MailboxMessageEvent
		if rec.Decode(&e) == nil {
			to := e.To
			if to == "" {
				to = "*"
			}
			return fmt.Sprintf("%s -> %s: %s", e.From, to, util.Excerpt(e.Body, 120))
		}
	}
	return util.Excerpt(string(rec.Data), 160)
}

func formatVotes(votes map[string]int) string {
	keys := make([]string, 0, len(votes))
	for k := range votes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, votes[k]))
	}
	return strings.Join(parts, " ")
}
