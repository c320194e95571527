package cmd

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/Iron-Ham/council/internal/consensus"
	"github.com/Iron-Ham/council/internal/debate"
	"github.com/Iron-Ham/council/internal/orchestrator"
	"github.com/Iron-Ham/council/internal/util"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

const defaultRenderWidth = 100

var (
	primaryColor = lipgloss.Color("#A78BFA") // Purple
	greenColor   = lipgloss.Color("#10B981")
	redColor     = lipgloss.Color("#F87171")
	amberColor   = lipgloss.Color("#F59E0B")
	blueColor    = lipgloss.Color("#60A5FA")
	mutedColor   = lipgloss.Color("#9CA3AF")
	borderColor  = lipgloss.Color("#6B7280")
)

// renderer writes human-readable output. Colors and the verdict box are only
// used when the destination is a terminal.
type renderer struct {
	w      io.Writer
	styled bool
	width  int

	title   lipgloss.Style
	label   lipgloss.Style
	muted   lipgloss.Style
	warning lipgloss.Style
	box     lipgloss.Style
}

func newRenderer(w io.Writer) *renderer {
	r := &renderer{w: w, width: defaultRenderWidth}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		r.styled = true
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 20 {
			r.width = width
		}
	}

	plain := lipgloss.NewStyle()
	r.title, r.label, r.muted, r.warning, r.box = plain, plain, plain, plain, plain
	if r.styled {
		r.title = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
		r.label = lipgloss.NewStyle().Bold(true)
		r.muted = lipgloss.NewStyle().Foreground(mutedColor)
		r.warning = lipgloss.NewStyle().Foreground(amberColor)
		r.box = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(0, 1)
	}
	return r
}

func (r *renderer) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.w, format, args...)
}

// line prints s cut to the terminal width.
func (r *renderer) line(s string) {
	_, _ = fmt.Fprintln(r.w, util.TruncateANSI(s, r.width))
}

func (r *renderer) position(p debate.Position) string {
	tag := string(p)
	if !r.styled {
		return tag
	}
	color := amberColor
	switch p {
	case debate.Support:
		color = greenColor
	case debate.Oppose:
		color = redColor
	}
	return lipgloss.NewStyle().Foreground(color).Render(tag)
}

func (r *renderer) recommendation(rec consensus.Recommendation) string {
	tag := string(rec)
	if !r.styled {
		return tag
	}
	color := blueColor
	switch rec {
	case consensus.Adopt:
		color = greenColor
	case consensus.Reject:
		color = redColor
	case consensus.Conditional:
		color = amberColor
	}
	return lipgloss.NewStyle().Bold(true).Foreground(color).Render(tag)
}

// Result prints a finished debate.
func (r *renderer) Result(res *orchestrator.Result) {
	r.line(r.title.Render("Council "+res.CouncilID) + "  " + r.muted.Render(string(res.Status)))
	r.line(r.label.Render("Topic: ") + res.Topic)
	r.line(r.label.Render("Perspectives: ") + strings.Join(res.Perspectives, ", "))
	r.printf("\n")

	byRound := res.ArgumentsByRound()
	rounds := make([]int, 0, len(byRound))
	for round := range byRound {
		rounds = append(rounds, round)
	}
	slices.Sort(rounds)
	for _, round := range rounds {
		r.line(r.label.Render(fmt.Sprintf("Round %d", round)))
		for _, a := range byRound[round] {
			r.line(fmt.Sprintf("  %s %.2f  %s: %s",
				r.position(a.Position), a.Confidence, a.AgentID, util.Excerpt(a.Reasoning, r.width)))
		}
		if failed := res.FailedAgents[round]; len(failed) > 0 {
			r.line(r.warning.Render("  excluded: " + strings.Join(failed, ", ")))
		}
	}
	if len(rounds) > 0 {
		r.printf("\n")
	}

	if len(res.Closings) > 0 {
		r.line(r.label.Render("Closing statements"))
		ids := make([]string, 0, len(res.Closings))
		for id := range res.Closings {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		for _, id := range ids {
			r.line(fmt.Sprintf("  %s: %s", id, util.Excerpt(res.Closings[id], r.width)))
		}
		r.printf("\n")
	}

	r.verdict(res)
}

func (r *renderer) verdict(res *orchestrator.Result) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s  confidence %.2f\n", r.label.Render("Recommendation:"), r.recommendation(res.Recommendation), res.Confidence)

	votes := make([]string, 0, len(debate.Positions()))
	for _, p := range debate.Positions() {
		votes = append(votes, fmt.Sprintf("%s %d", r.position(p), res.VoteBreakdown[p]))
	}
	fmt.Fprintf(&b, "%s %s\n", r.label.Render("Votes:"), strings.Join(votes, "  "))

	if len(res.KeyConsiderations) > 0 {
		fmt.Fprintf(&b, "%s\n", r.label.Render("Key considerations:"))
		for _, kc := range res.KeyConsiderations {
			fmt.Fprintf(&b, "  - %s\n", util.TruncateString(kc, max(r.width-8, 20)))
		}
	}

	if res.Halted {
		fmt.Fprintf(&b, "%s\n", r.warning.Render("Halted: "+res.HaltReason))
	}
	fmt.Fprintf(&b, "%s", r.muted.Render(fmt.Sprintf("%d round(s), $%.2f spent, %.1fs",
		res.RoundsCompleted, res.Cost.Total, res.DurationSeconds)))
	if res.KnowledgeCaptured {
		fmt.Fprintf(&b, "%s", r.muted.Render(", captured"))
	}

	_, _ = fmt.Fprintln(r.w, r.box.Render(b.String()))
}
