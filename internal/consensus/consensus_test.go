package consensus

import (
	"math"
	"strings"
	"testing"

	"github.com/Iron-Ham/council/internal/debate"
)

func arg(agent string, pos debate.Position, conf float64, round int) debate.Argument {
	return debate.Argument{
		AgentID:     agent,
		Perspective: agent,
		Position:    pos,
		Confidence:  conf,
		Round:       round,
		Reasoning:   agent + " reasoning",
	}
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestAggregate_Scenarios(t *testing.T) {
	tests := []struct {
		name      string
		args      []debate.Argument
		wantRecs  []Recommendation
		wantVotes map[debate.Position]int
		wantConf  float64
	}{
		{
			name:      "unanimous support",
			args:      []debate.Argument{arg("a", debate.Support, 0.8, 1), arg("b", debate.Support, 0.7, 1)},
			wantRecs:  []Recommendation{Adopt},
			wantVotes: map[debate.Position]int{debate.Support: 2, debate.Oppose: 0, debate.Neutral: 0},
			wantConf:  0.75,
		},
		{
			name:      "even split",
			args:      []debate.Argument{arg("a", debate.Support, 0.8, 1), arg("b", debate.Oppose, 0.7, 1)},
			wantRecs:  []Recommendation{Split, Conditional},
			wantVotes: map[debate.Position]int{debate.Support: 1, debate.Oppose: 1, debate.Neutral: 0},
			// SUPPORT wins the tie; 0.8 * 0.5.
			wantConf: 0.4,
		},
		{
			name: "two thirds support",
			args: []debate.Argument{
				arg("a", debate.Support, 0.9, 1), arg("b", debate.Support, 0.6, 1), arg("c", debate.Neutral, 0.5, 1),
			},
			wantRecs:  []Recommendation{Conditional, Adopt},
			wantVotes: map[debate.Position]int{debate.Support: 2, debate.Oppose: 0, debate.Neutral: 1},
			wantConf:  0.75 * 2.0 / 3.0,
		},
		{
			name: "no majority is dampened",
			args: []debate.Argument{
				arg("a", debate.Support, 0.9, 1), arg("b", debate.Oppose, 0.6, 1), arg("c", debate.Neutral, 0.3, 1),
			},
			wantRecs:  []Recommendation{Split},
			wantVotes: map[debate.Position]int{debate.Support: 1, debate.Oppose: 1, debate.Neutral: 1},
			wantConf:  0.6 * DampeningFactor,
		},
		{
			name: "strong opposition rejects",
			args: []debate.Argument{
				arg("a", debate.Oppose, 0.9, 1), arg("b", debate.Oppose, 0.8, 1), arg("c", debate.Oppose, 0.7, 1),
				arg("d", debate.Oppose, 0.6, 1), arg("e", debate.Neutral, 0.5, 1),
			},
			wantRecs:  []Recommendation{Reject},
			wantVotes: map[debate.Position]int{debate.Support: 0, debate.Oppose: 4, debate.Neutral: 1},
			wantConf:  0.75 * 0.8,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Aggregate(tt.args)

			ok := false
			for _, r := range tt.wantRecs {
				ok = ok || v.Recommendation == r
			}
			if !ok {
				t.Errorf("Recommendation = %s, want one of %v", v.Recommendation, tt.wantRecs)
			}
			for p, n := range tt.wantVotes {
				if v.VoteBreakdown[p] != n {
					t.Errorf("VoteBreakdown[%s] = %d, want %d", p, v.VoteBreakdown[p], n)
				}
			}
			if !near(v.Confidence, tt.wantConf) {
				t.Errorf("Confidence = %v, want %v", v.Confidence, tt.wantConf)
			}
		})
	}
}

func TestAggregate_UnanimousSupportConfidenceAboveThreshold(t *testing.T) {
	v := Aggregate([]debate.Argument{arg("a", debate.Support, 0.8, 1), arg("b", debate.Support, 0.7, 1)})
	if v.Confidence <= 0.7 {
		t.Errorf("Confidence = %v, want > 0.7", v.Confidence)
	}
}

func TestAggregate_Empty(t *testing.T) {
	v := Aggregate(nil)
	if v.Recommendation != Split || v.Confidence != 0 || v.Voters != 0 {
		t.Errorf("Aggregate(nil) = %+v", v)
	}
	if len(v.VoteBreakdown) != 3 || len(v.KeyConsiderations) != 0 {
		t.Errorf("empty verdict should carry a zero breakdown and no considerations: %+v", v)
	}
}

func TestAggregate_LatestArgumentVotes(t *testing.T) {
	args := []debate.Argument{
		arg("a", debate.Oppose, 0.9, 1),
		arg("b", debate.Support, 0.6, 1),
		arg("a", debate.Support, 0.7, 2),
		// A later round-1 post does not override round 2.
		arg("a", debate.Neutral, 0.2, 1),
	}
	v := Aggregate(args)
	if v.VoteBreakdown[debate.Support] != 2 || v.Voters != 2 {
		t.Errorf("VoteBreakdown = %v, Voters = %d", v.VoteBreakdown, v.Voters)
	}
}

func TestLatest_TieBreaksOnInsertionOrder(t *testing.T) {
	args := []debate.Argument{
		arg("a", debate.Oppose, 0.9, 2),
		arg("b", debate.Neutral, 0.5, 1),
		arg("a", debate.Support, 0.4, 2),
	}
	got := Latest(args)
	if len(got) != 2 {
		t.Fatalf("Latest() returned %d, want 2", len(got))
	}
	if got[0].AgentID != "b" || got[1].Position != debate.Support {
		t.Errorf("Latest() = %+v", got)
	}
}

func TestAggregate_MajorityTieBreak(t *testing.T) {
	tests := []struct {
		name string
		args []debate.Argument
		want debate.Position
	}{
		{"support beats oppose", []debate.Argument{arg("a", debate.Oppose, 1, 1), arg("b", debate.Support, 0.1, 1)}, debate.Support},
		{"oppose beats neutral", []debate.Argument{arg("a", debate.Neutral, 1, 1), arg("b", debate.Oppose, 0.1, 1)}, debate.Oppose},
		{"clear neutral", []debate.Argument{arg("a", debate.Neutral, 1, 1), arg("b", debate.Neutral, 1, 1), arg("c", debate.Oppose, 1, 1)}, debate.Neutral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Aggregate(tt.args).Majority; got != tt.want {
				t.Errorf("Majority = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRecommend_Boundaries(t *testing.T) {
	tests := []struct {
		s, o float64
		want Recommendation
	}{
		{7.0 / 10.0, 0.3, Conditional},
		{8.0 / 10.0, 0, Adopt},
		{4.0 / 10.0, 0.6, Conditional},
		{3.0 / 10.0, 0.7, Split},
		{0.29, 0.71, Reject},
		{0, 0.7, Split},
		{0, 0.5, Split},
		{0.35, 0.65, Split},
	}
	for _, tt := range tests {
		if got := Recommend(tt.s, tt.o); got != tt.want {
			t.Errorf("Recommend(%v, %v) = %s, want %s", tt.s, tt.o, got, tt.want)
		}
	}
}

func TestAggregate_ExactlySeventyPercentIsConditional(t *testing.T) {
	var args []debate.Argument
	for i := range 10 {
		pos := debate.Support
		if i >= 7 {
			pos = debate.Oppose
		}
		args = append(args, arg(string(rune('a'+i)), pos, 0.8, 1))
	}
	if v := Aggregate(args); v.Recommendation != Conditional {
		t.Errorf("Recommendation = %s, want CONDITIONAL at s = 0.7", v.Recommendation)
	}
}

func TestAggregate_KeyConsiderations(t *testing.T) {
	args := []debate.Argument{
		arg("s1", debate.Support, 0.5, 1),
		arg("s2", debate.Support, 0.9, 1),
		arg("s3", debate.Support, 0.7, 1),
		arg("o1", debate.Oppose, 0.6, 1),
		arg("n1", debate.Neutral, 0.4, 1),
		arg("n2", debate.Neutral, 0.8, 1),
	}
	args[1].Reasoning = strings.Repeat("long ", 100)

	got := Aggregate(args).KeyConsiderations
	if len(got) != 4 {
		t.Fatalf("KeyConsiderations = %v, want 2 support + 1 oppose + 1 neutral", got)
	}
	wantPrefixes := []string{"[SUPPORT] s2 (0.90)", "[SUPPORT] s3 (0.70)", "[OPPOSE] o1 (0.60)", "[NEUTRAL] n2 (0.80)"}
	for i, p := range wantPrefixes {
		if !strings.HasPrefix(got[i], p) {
			t.Errorf("KeyConsiderations[%d] = %q, want prefix %q", i, got[i], p)
		}
	}
	if n := len([]rune(got[0])); n > excerptLen+40 {
		t.Errorf("consideration not truncated: %d runes", n)
	}
}

func TestAggregate_ConfidenceAlwaysInRange(t *testing.T) {
	positions := debate.Positions()
	for n := 1; n <= 12; n++ {
		var args []debate.Argument
		for i := range n {
			args = append(args, arg(string(rune('a'+i)), positions[(i*7+n)%3], float64((i*37+n)%11)/10, 1))
		}
		v := Aggregate(args)
		if v.Confidence < 0 || v.Confidence > 1 {
			t.Fatalf("n=%d: Confidence = %v out of range", n, v.Confidence)
		}
	}
}

func TestAggregate_DoesNotMutateInput(t *testing.T) {
	args := []debate.Argument{arg("b", debate.Support, 0.2, 1), arg("a", debate.Support, 0.9, 1)}
	Aggregate(args)
	if args[0].AgentID != "b" {
		t.Error("Aggregate() reordered its input")
	}
}
