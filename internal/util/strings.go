// Package util holds the string helpers shared by rendering, audit and agents.
package util

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// TruncateString cuts s to maxLen runes, ending in "..." when it had to cut.
// It ignores escape codes; use TruncateANSI for styled output.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 3 {
		return "..."
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

// TruncateANSI cuts s to maxWidth terminal columns, keeping escape sequences
// intact and counting wide runes by their display width.
func TruncateANSI(s string, maxWidth int) string {
	if maxWidth <= 3 {
		return "..."
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	// The tail counts toward maxWidth.
	return ansi.Truncate(s, maxWidth, "...")
}

// Excerpt collapses runs of whitespace (including newlines) to single spaces
// and truncates the result to maxLen runes. Used for audit records and key
// considerations where reasoning must fit on one line.
func Excerpt(s string, maxLen int) string {
	return TruncateString(strings.Join(strings.Fields(s), " "), maxLen)
}

// Slug lowercases s and replaces every run of characters that are not letters
// or digits with a single hyphen. Leading and trailing hyphens are dropped.
// "Developer Experience" becomes "developer-experience".
func Slug(s string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}
