// Package consensus turns a debate's arguments into a single verdict.
//
// [Aggregate] is a pure function: the same arguments always produce the same
// verdict. Only each agent's latest argument votes.
package consensus

import (
	"fmt"
	"sort"

	"github.com/Iron-Ham/council/internal/debate"
	"github.com/Iron-Ham/council/internal/util"
)

// Recommendation is the council's overall answer.
type Recommendation string

const (
	Adopt       Recommendation = "ADOPT"
	Reject      Recommendation = "REJECT"
	Conditional Recommendation = "CONDITIONAL"
	Split       Recommendation = "SPLIT"
)

const (
	// DampeningFactor scales mean confidence when no position reaches half
	// the voters.
	DampeningFactor = 0.6

	adoptAbove       = 0.7
	rejectSupportMax = 0.3
	rejectOpposeMin  = 0.7
	conditionalMin   = 0.4
	conditionalMax   = 0.7

	maxConsiderations = 5
	excerptLen        = 160
)

// considerationQuota is how many key considerations each position contributes.
var considerationQuota = map[debate.Position]int{
	debate.Support: 2,
	debate.Oppose:  2,
	debate.Neutral: 1,
}

// Verdict is the outcome of aggregating a debate.
type Verdict struct {
	Recommendation    Recommendation          `json:"recommendation"`
	Confidence        float64                 `json:"confidence"`
	VoteBreakdown     map[debate.Position]int `json:"vote_breakdown"`
	Majority          debate.Position         `json:"majority,omitempty"`
	Voters            int                     `json:"voters"`
	KeyConsiderations []string                `json:"key_considerations"`
}

// Aggregate computes the verdict for args.
//
// Each agent votes with its argument from the highest round; within a round
// the later argument wins. The majority is the position with the most votes,
// ties going to SUPPORT, then OPPOSE, then NEUTRAL. With zero arguments the
// verdict is SPLIT at confidence 0.
func Aggregate(args []debate.Argument) Verdict {
	v := Verdict{
		Recommendation:    Split,
		VoteBreakdown:     emptyBreakdown(),
		KeyConsiderations: []string{},
	}

	final := Latest(args)
	if len(final) == 0 {
		return v
	}
	v.Voters = len(final)

	confSum := make(map[debate.Position]float64, 3)
	total := 0.0
	for _, a := range final {
		v.VoteBreakdown[a.Position]++
		confSum[a.Position] += a.Confidence
		total += a.Confidence
	}

	v.Majority = majority(v.VoteBreakdown)
	n := float64(v.Voters)
	count := v.VoteBreakdown[v.Majority]
	share := float64(count) / n
	if share >= 0.5 {
		v.Confidence = confSum[v.Majority] / float64(count) * share
	} else {
		v.Confidence = total / n * DampeningFactor
	}
	v.Confidence = clamp01(v.Confidence)

	v.Recommendation = Recommend(
		float64(v.VoteBreakdown[debate.Support])/n,
		float64(v.VoteBreakdown[debate.Oppose])/n,
	)
	v.KeyConsiderations = keyConsiderations(final)
	return v
}

// Recommend maps the SUPPORT share s and OPPOSE share o to a recommendation.
// ADOPT needs s strictly above 0.7; CONDITIONAL takes 0.4 through 0.7
// inclusive.
func Recommend(s, o float64) Recommendation {
	switch {
	case s > adoptAbove:
		return Adopt
	case s < rejectSupportMax && o > rejectOpposeMin:
		return Reject
	case s >= conditionalMin && s <= conditionalMax:
		return Conditional
	default:
		return Split
	}
}

// Latest returns each agent's most recent argument, ordered by where that
// argument appears in args.
func Latest(args []debate.Argument) []debate.Argument {
	idx := make(map[string]int, len(args))
	for i, a := range args {
		j, ok := idx[a.AgentID]
		if !ok || a.Round >= args[j].Round {
			idx[a.AgentID] = i
		}
	}
	positions := make([]int, 0, len(idx))
	for _, i := range idx {
		positions = append(positions, i)
	}
	sort.Ints(positions)

	out := make([]debate.Argument, len(positions))
	for k, i := range positions {
		out[k] = args[i]
	}
	return out
}

func majority(breakdown map[debate.Position]int) debate.Position {
	best := debate.Support
	for _, p := range debate.Positions() {
		if breakdown[p] > breakdown[best] {
			best = p
		}
	}
	return best
}

func keyConsiderations(final []debate.Argument) []string {
	byPos := make(map[debate.Position][]debate.Argument, 3)
	for _, a := range final {
		byPos[a.Position] = append(byPos[a.Position], a)
	}

	out := make([]string, 0, maxConsiderations)
	for _, p := range debate.Positions() {
		group := byPos[p]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Confidence > group[j].Confidence
		})
		for i := 0; i < len(group) && i < considerationQuota[p]; i++ {
			out = append(out, Summarize(group[i]))
		}
	}
	return out
}

// Summarize renders an argument as a one-line consideration.
func Summarize(a debate.Argument) string {
	label := a.Perspective
	if label == "" {
		label = a.AgentID
	}
	return fmt.Sprintf("[%s] %s (%.2f): %s", a.Position, label, a.Confidence, util.Excerpt(a.Reasoning, excerptLen))
}

func emptyBreakdown() map[debate.Position]int {
	m := make(map[debate.Position]int, 3)
	for _, p := range debate.Positions() {
		m[p] = 0
	}
	return m
}

func clamp01(f float64) float64 {
	if f != f || f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
