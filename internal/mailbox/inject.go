package mailbox

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// FormatForPrompt renders messages as a block an agent can place in a model
// prompt. Messages are grouped by type in order of first appearance; direct
// messages are marked so the reader knows they were singled out.
//
// Returns an empty string if there are no messages.
func FormatForPrompt(messages []Message) string {
	if len(messages) == 0 {
		return ""
	}

	groups := make(map[MessageType][]Message)
	var typeOrder []MessageType
	for _, msg := range messages {
		if _, exists := groups[msg.Type]; !exists {
			typeOrder = append(typeOrder, msg.Type)
		}
		groups[msg.Type] = append(groups[msg.Type], msg)
	}

	var b strings.Builder
	b.WriteString("<council-messages>\n")
	for i, mt := range typeOrder {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "[%s]\n", strings.ToUpper(string(mt)))
		for _, msg := range groups[mt] {
			if msg.IsBroadcast() {
				fmt.Fprintf(&b, "  %s: %s\n", msg.From, msg.Body)
			} else {
				fmt.Fprintf(&b, "  %s (direct): %s\n", msg.From, msg.Body)
			}
			if len(msg.Metadata) > 0 {
				fmt.Fprintf(&b, "    %s\n", formatMetadata(msg.Metadata))
			}
		}
	}
	b.WriteString("</council-messages>")
	return b.String()
}

// FilterOptions controls which messages are included by FormatFiltered.
type FilterOptions struct {
	Types       []MessageType // Only include these types (empty = all)
	Since       time.Time     // Only messages after this time (zero = all)
	From        string        // Only messages from this sender (empty = all)
	Mentioning  string        // Only messages that @mention this name (empty = all)
	MaxMessages int           // Maximum messages to include, keeping the newest (0 = unlimited)
}

// FormatFiltered applies opts and formats the result with FormatForPrompt.
func FormatFiltered(messages []Message, opts FilterOptions) string {
	return FormatForPrompt(filterMessages(messages, opts))
}

// filterMessages returns the subset of messages matching opts, in input order.
func filterMessages(messages []Message, opts FilterOptions) []Message {
	var result []Message

	typeSet := make(map[MessageType]bool, len(opts.Types))
	for _, t := range opts.Types {
		typeSet[t] = true
	}

	for _, msg := range messages {
		if len(typeSet) > 0 && !typeSet[msg.Type] {
			continue
		}
		if !opts.Since.IsZero() && !msg.Timestamp.After(opts.Since) {
			continue
		}
		if opts.From != "" && msg.From != opts.From {
			continue
		}
		if opts.Mentioning != "" && !mentions(msg, opts.Mentioning) {
			continue
		}
		result = append(result, msg)
	}

	if opts.MaxMessages > 0 && len(result) > opts.MaxMessages {
		result = result[len(result)-opts.MaxMessages:]
	}
	return result
}

func mentions(msg Message, name string) bool {
	for _, m := range msg.Mentions {
		if m == name {
			return true
		}
	}
	return false
}

// formatMetadata formats a metadata map as sorted key=value pairs.
func formatMetadata(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, m[k]))
	}
	return strings.Join(parts, ", ")
}
