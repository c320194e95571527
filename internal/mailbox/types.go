package mailbox

import (
	"regexp"
	"time"
)

// MessageType identifies the kind of inter-agent message.
type MessageType string

const (
	// MessageNote is a plain remark. Posts without a type are stamped with it.
	MessageNote MessageType = "note"

	// MessageChallenge disputes another agent's position.
	MessageChallenge MessageType = "challenge"

	// MessageDefense provides evidence supporting a position under challenge.
	MessageDefense MessageType = "defense"

	// MessageQuestion asks another agent for input.
	MessageQuestion MessageType = "question"

	// MessageAnswer responds to a question.
	MessageAnswer MessageType = "answer"

	// MessageConsensus signals agreement with another agent.
	MessageConsensus MessageType = "consensus"
)

var validMessageTypes = map[MessageType]bool{
	MessageNote:      true,
	MessageChallenge: true,
	MessageDefense:   true,
	MessageQuestion:  true,
	MessageAnswer:    true,
	MessageConsensus: true,
}

// ValidateMessageType returns true if the given type is a known message type.
func ValidateMessageType(t MessageType) bool {
	return validMessageTypes[t]
}

// Message is a single inter-agent communication. An empty To means broadcast.
type Message struct {
	ID        string         `json:"id"`
	From      string         `json:"from"`
	To        string         `json:"to,omitempty"`
	Type      MessageType    `json:"type"`
	Body      string         `json:"body"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`

	// Mentions lists the @names found in Body, in order of appearance.
	Mentions []string `json:"mentions,omitempty"`

	// Recipients lists the mailboxes the post was delivered to.
	Recipients []string `json:"recipients"`
}

// IsBroadcast returns true if the message is addressed to every agent.
func (m Message) IsBroadcast() bool {
	return m.To == ""
}

// mentionPattern matches @name tokens that are not part of an email address.
var mentionPattern = regexp.MustCompile(`(?:^|[^\w@])@([A-Za-z0-9][\w-]*)`)

// ParseMentions returns the distinct @names in body, in order of first
// appearance. Trailing hyphens are trimmed so "@cost-" reads as "cost".
func ParseMentions(body string) []string {
	matches := mentionPattern.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		name := trimHyphens(m[1])
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

func trimHyphens(s string) string {
	for len(s) > 0 && s[len(s)-1] == '-' {
		s = s[:len(s)-1]
	}
	return s
}

func (m Message) clone() Message {
	if m.Metadata != nil {
		md := make(map[string]any, len(m.Metadata))
		for k, v := range m.Metadata {
			md[k] = v
		}
		m.Metadata = md
	}
	m.Mentions = append([]string(nil), m.Mentions...)
	m.Recipients = append([]string(nil), m.Recipients...)
	return m
}
