package mailbox

import (
	"strings"
	"testing"
	"time"
)

func TestFormatForPrompt_Empty(t *testing.T) {
	if got := FormatForPrompt(nil); got != "" {
		t.Errorf("FormatForPrompt(nil) = %q, want empty string", got)
	}
	if got := FormatForPrompt([]Message{}); got != "" {
		t.Errorf("FormatForPrompt([]) = %q, want empty string", got)
	}
}

func TestFormatForPrompt_GroupsAndMarksDirect(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	messages := []Message{
		{From: "cost", Type: MessageChallenge, Body: "@security the audit tooling is cheap", Timestamp: base},
		{From: "security", To: "cost", Type: MessageDefense, Body: "licensing is per seat", Timestamp: base.Add(time.Second)},
		{From: "performance", Type: MessageChallenge, Body: "latency doubles", Timestamp: base.Add(2 * time.Second),
			Metadata: map[string]any{"round": 2, "confidence": 0.8}},
	}

	result := FormatForPrompt(messages)

	for _, want := range []string{
		"<council-messages>",
		"</council-messages>",
		"[CHALLENGE]",
		"[DEFENSE]",
		"cost: @security the audit tooling is cheap",
		"security (direct): licensing is per seat",
		"confidence=0.8, round=2",
	} {
		if !strings.Contains(result, want) {
			t.Errorf("result missing %q:\n%s", want, result)
		}
	}
	if strings.Index(result, "[CHALLENGE]") > strings.Index(result, "[DEFENSE]") {
		t.Error("groups should appear in order of first appearance")
	}
	if strings.Count(result, "[CHALLENGE]") != 1 {
		t.Error("messages of one type should share a header")
	}
}

func TestFilterMessages(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	messages := []Message{
		{From: "cost", Type: MessageNote, Body: "one", Timestamp: base},
		{From: "security", Type: MessageChallenge, Body: "two @cost", Mentions: []string{"cost"}, Timestamp: base.Add(time.Second)},
		{From: "cost", Type: MessageChallenge, Body: "three", Timestamp: base.Add(2 * time.Second)},
		{From: "performance", Type: MessageQuestion, Body: "four", Timestamp: base.Add(3 * time.Second)},
	}

	tests := []struct {
		name  string
		opts  FilterOptions
		wants []string
	}{
		{"no filter", FilterOptions{}, []string{"one", "two @cost", "three", "four"}},
		{"by type", FilterOptions{Types: []MessageType{MessageChallenge}}, []string{"two @cost", "three"}},
		{"since is exclusive", FilterOptions{Since: base.Add(time.Second)}, []string{"three", "four"}},
		{"from", FilterOptions{From: "cost"}, []string{"one", "three"}},
		{"mentioning", FilterOptions{Mentioning: "cost"}, []string{"two @cost"}},
		{"max keeps newest", FilterOptions{MaxMessages: 2}, []string{"three", "four"}},
		{"combined", FilterOptions{From: "cost", Types: []MessageType{MessageChallenge}}, []string{"three"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filterMessages(messages, tt.opts)
			if len(got) != len(tt.wants) {
				t.Fatalf("filterMessages() returned %d messages, want %d", len(got), len(tt.wants))
			}
			for i, w := range tt.wants {
				if got[i].Body != w {
					t.Errorf("got[%d].Body = %q, want %q", i, got[i].Body, w)
				}
			}
		})
	}
}

func TestFormatFiltered_EmptyWhenNothingMatches(t *testing.T) {
	messages := []Message{{From: "cost", Type: MessageNote, Body: "hi"}}
	if got := FormatFiltered(messages, FilterOptions{From: "nobody"}); got != "" {
		t.Errorf("FormatFiltered() = %q, want empty", got)
	}
}
