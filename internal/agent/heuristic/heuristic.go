// Package heuristic implements keyword-driven debate agents.
//
// Each agent scores the topic against its [Profile]'s support and oppose
// signals. During rebuttal it challenges the most confident opposing agent on
// the bus and adjusts its own confidence to the pressure it sees; the
// closing statement summarizes where the council landed.
package heuristic

import (
	"context"
	"fmt"
	"strings"

	"github.com/Iron-Ham/council/internal/agent"
	"github.com/Iron-Ham/council/internal/debate"
	"github.com/Iron-Ham/council/internal/mailbox"
)

const (
	signalWeight  = 0.1
	maxConfidence = 0.9
	minConfidence = 0.1
	noSignalDrop  = 0.1
	softenFactor  = 0.85
	reinforceStep = 0.05
)

// Agent is a keyword-profile debate participant.
type Agent struct {
	agent.Base
	profile Profile
}

var _ agent.Agent = (*Agent)(nil)

// New creates an agent for env using profile.
func New(env agent.Env, profile Profile) *Agent {
	if profile.BaseConfidence <= 0 || profile.BaseConfidence > 1 {
		profile.BaseConfidence = defaultBaseConfidence
	}
	if profile.Focus == "" {
		profile.Focus = env.Perspective
	}
	return &Agent{Base: agent.NewBase(env), profile: profile}
}

// Factory returns an agent.Factory that always uses profile.
func Factory(profile Profile) agent.Factory {
	return func(env agent.Env) (agent.Agent, error) {
		return New(env, profile), nil
	}
}

// DefaultFactory picks the built-in profile for the perspective, or a
// signal-less generic profile.
func DefaultFactory() agent.Factory {
	return func(env agent.Env) (agent.Agent, error) {
		p, ok := Builtin(env.Perspective)
		if !ok {
			p = Generic(env.Perspective)
		}
		return New(env, p), nil
	}
}

// Register binds every built-in profile and sets the default factory.
func Register(r *agent.Registry) error {
	for _, name := range BuiltinPerspectives() {
		p, _ := Builtin(name)
		if err := r.Register(name, Factory(p)); err != nil {
			return err
		}
	}
	r.SetDefault(DefaultFactory())
	return nil
}

// Profile returns the agent's profile.
func (a *Agent) Profile() Profile { return a.profile }

// Score counts the support and oppose signals present in text.
func (p Profile) Score(text string) (support, oppose []string) {
	text = strings.ToLower(text)
	for _, s := range p.SupportSignals {
		if strings.Contains(text, strings.ToLower(s)) {
			support = append(support, s)
		}
	}
	for _, s := range p.OpposeSignals {
		if strings.Contains(text, strings.ToLower(s)) {
			oppose = append(oppose, s)
		}
	}
	return support, oppose
}

// Analyze scores the topic and posts the resulting stance.
func (a *Agent) Analyze(ctx context.Context) (*debate.Argument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text := a.Topic()
	if board := a.Board(); board != nil {
		if extra, ok := board.Metadata()["context"].(string); ok {
			text += "\n" + extra
		}
	}
	support, oppose := a.profile.Score(text)

	pos := debate.Neutral
	switch {
	case len(support) > len(oppose):
		pos = debate.Support
	case len(oppose) > len(support):
		pos = debate.Oppose
	}

	conf := a.profile.BaseConfidence + signalWeight*float64(abs(len(support)-len(oppose)))
	if len(support)+len(oppose) == 0 {
		conf = a.profile.BaseConfidence - noSignalDrop
	}
	conf = clamp(conf)

	evidence := make([]string, 0, len(support)+len(oppose))
	for _, s := range support {
		evidence = append(evidence, "signal:+"+s)
	}
	for _, s := range oppose {
		evidence = append(evidence, "signal:-"+s)
	}
	if len(evidence) > 0 {
		if _, err := a.AddEvidence("topic", "matched "+strings.Join(evidence, ", ")); err != nil {
			a.Logger().Warn("evidence not recorded", "error", err)
		}
	}

	return a.PostArgument(pos, conf, a.analysisReasoning(pos, support, oppose), evidence...)
}

func (a *Agent) analysisReasoning(pos debate.Position, support, oppose []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From the %s perspective (%s): ", a.Perspective(), a.profile.Focus)
	switch {
	case len(support) == 0 && len(oppose) == 0:
		b.WriteString("the proposal does not touch on the signals this perspective weighs, so no stance is taken.")
	case pos == debate.Neutral:
		fmt.Fprintf(&b, "favorable signals (%s) and concerns (%s) balance out.",
			strings.Join(support, ", "), strings.Join(oppose, ", "))
	case pos == debate.Support:
		fmt.Fprintf(&b, "favorable signals (%s) outweigh concerns", strings.Join(support, ", "))
		if len(oppose) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(oppose, ", "))
		}
		b.WriteString(".")
	default:
		fmt.Fprintf(&b, "concerns (%s) outweigh favorable signals", strings.Join(oppose, ", "))
		if len(support) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(support, ", "))
		}
		b.WriteString(".")
	}
	return b.String()
}

// Rebuttal challenges the most confident opposing agent and re-posts this
// agent's stance with confidence adjusted to the opposition. It returns nil
// when this agent has no prior stance or nobody opposes it.
func (a *Agent) Rebuttal(ctx context.Context, prior []debate.Argument) (*debate.Argument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	latest := latestByAgent(prior)
	mine, ok := latest[a.ID()]
	if !ok {
		return nil, nil
	}

	var others, opponents []debate.Argument
	for _, id := range agentOrder(prior) {
		if id == a.ID() {
			continue
		}
		arg := latest[id]
		others = append(others, arg)
		if opposes(mine.Position, arg.Position) {
			opponents = append(opponents, arg)
		}
	}
	if len(opponents) == 0 {
		return nil, nil
	}

	strongest := opponents[0]
	sum := 0.0
	for _, o := range opponents {
		sum += o.Confidence
		if o.Confidence > strongest.Confidence {
			strongest = o
		}
	}
	// Mean opposing confidence scaled by the opposing share of the others.
	pressure := sum / float64(len(others))

	challenge := fmt.Sprintf("@%s your %s stance (%.2f) overlooks %s.",
		strongest.AgentID, strongest.Position, strongest.Confidence, a.profile.Focus)
	if _, err := a.SendMessage("", mailbox.MessageChallenge, challenge); err != nil {
		a.Logger().Warn("challenge not sent", "target", strongest.AgentID, "error", err)
	}

	conf := mine.Confidence
	verb := "holds"
	if pressure > mine.Confidence {
		conf *= softenFactor
		verb = "softens"
	} else {
		conf += reinforceStep
	}
	conf = clamp(conf)

	reasoning := fmt.Sprintf("Responding to %s (%s, %.2f): the %s view %s at %s given opposition pressure %.2f.",
		strongest.AgentID, strongest.Position, strongest.Confidence, a.Perspective(), verb, mine.Position, pressure)
	return a.PostArgument(mine.Position, conf, reasoning, fmt.Sprintf("argument:%s:r%d", strongest.AgentID, strongest.Round))
}

// Synthesize reads any messages addressed to this agent and summarizes the
// final standing of the council from its point of view.
func (a *Agent) Synthesize(ctx context.Context, all []debate.Argument) (string, error) {
	msgs := a.ReadMessages(ctx, 0)

	latest := latestByAgent(all)
	counts := map[debate.Position]int{}
	for _, arg := range latest {
		counts[arg.Position]++
	}

	var b strings.Builder
	if mine, ok := latest[a.ID()]; ok {
		fmt.Fprintf(&b, "%s closes %s at %.2f.", a.Perspective(), mine.Position, mine.Confidence)
	} else {
		fmt.Fprintf(&b, "%s closes without a recorded stance.", a.Perspective())
	}
	fmt.Fprintf(&b, " Council stands at %d support, %d oppose, %d neutral.",
		counts[debate.Support], counts[debate.Oppose], counts[debate.Neutral])

	var challengers []string
	seen := map[string]bool{}
	for _, m := range msgs {
		if m.Type == mailbox.MessageChallenge && !seen[m.From] {
			seen[m.From] = true
			challengers = append(challengers, m.From)
		}
	}
	if len(challengers) > 0 {
		fmt.Fprintf(&b, " Challenged by %s.", strings.Join(challengers, ", "))
	}
	return b.String(), nil
}

// latestByAgent keeps each agent's argument with the highest round; later
// entries win ties.
func latestByAgent(args []debate.Argument) map[string]debate.Argument {
	out := make(map[string]debate.Argument, len(args))
	for _, arg := range args {
		if cur, ok := out[arg.AgentID]; !ok || arg.Round >= cur.Round {
			out[arg.AgentID] = arg
		}
	}
	return out
}

func agentOrder(args []debate.Argument) []string {
	var order []string
	seen := map[string]bool{}
	for _, arg := range args {
		if !seen[arg.AgentID] {
			seen[arg.AgentID] = true
			order = append(order, arg.AgentID)
		}
	}
	return order
}

// opposes reports whether other stands against mine. A neutral agent is
// opposed by any committed stance.
func opposes(mine, other debate.Position) bool {
	switch mine {
	case debate.Support:
		return other == debate.Oppose
	case debate.Oppose:
		return other == debate.Support
	default:
		return other != debate.Neutral
	}
}

func clamp(c float64) float64 {
	return max(minConfidence, min(maxConfidence, c))
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
