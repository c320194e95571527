package logging

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// LogEntry is one parsed line of debug.log.
type LogEntry struct {
	Timestamp time.Time      `json:"time"`
	Level     string         `json:"level"`
	Message   string         `json:"msg"`
	CouncilID string         `json:"council_id,omitempty"`
	AgentID   string         `json:"agent_id,omitempty"`
	Round     int            `json:"round,omitempty"`
	Attrs     map[string]any `json:"attrs,omitempty"`
}

// LogFilter selects log entries. Zero-valued fields match everything.
type LogFilter struct {
	// Level keeps entries at or above this level.
	Level string

	StartTime time.Time
	EndTime   time.Time

	CouncilID       string
	AgentID         string
	Round           int
	MessageContains string
}

var levelOrder = map[string]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// ReadLogs parses {logDir}/debug.log, skipping malformed lines, and returns
// the entries in timestamp order.
func ReadLogs(logDir string) ([]LogEntry, error) {
	f, err := os.Open(filepath.Join(logDir, logFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no log file found in %s: %w", logDir, err)
		}
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var entries []LogEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		entry, err := parseLogEntry(line)
		if err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading log file: %w", err)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
	return entries, nil
}

func parseLogEntry(line string) (LogEntry, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return LogEntry{}, fmt.Errorf("invalid JSON: %w", err)
	}

	entry := LogEntry{Attrs: make(map[string]any)}
	for k, v := range raw {
		switch k {
		case "time":
			if s, ok := v.(string); ok {
				entry.Timestamp, _ = time.Parse(time.RFC3339Nano, s)
			}
		case "level":
			entry.Level, _ = v.(string)
		case "msg":
			entry.Message, _ = v.(string)
		case "council_id":
			entry.CouncilID, _ = v.(string)
		case "agent_id":
			entry.AgentID, _ = v.(string)
		case "round":
			if n, ok := v.(float64); ok {
				entry.Round = int(n)
			}
		default:
			entry.Attrs[k] = v
		}
	}
	return entry, nil
}

// FilterLogs returns the entries matching every criterion of filter.
func FilterLogs(entries []LogEntry, filter LogFilter) []LogEntry {
	var out []LogEntry
	for _, e := range entries {
		if filter.matches(e) {
			out = append(out, e)
		}
	}
	return out
}

func (f LogFilter) matches(e LogEntry) bool {
	if f.Level != "" {
		want, ok1 := levelOrder[strings.ToUpper(f.Level)]
		got, ok2 := levelOrder[e.Level]
		if ok1 && ok2 && got < want {
			return false
		}
	}
	switch {
	case !f.StartTime.IsZero() && e.Timestamp.Before(f.StartTime):
		return false
	case !f.EndTime.IsZero() && e.Timestamp.After(f.EndTime):
		return false
	case f.CouncilID != "" && e.CouncilID != f.CouncilID:
		return false
	case f.AgentID != "" && e.AgentID != f.AgentID:
		return false
	case f.Round > 0 && e.Round != f.Round:
		return false
	case f.MessageContains != "" && !strings.Contains(e.Message, f.MessageContains):
		return false
	}
	return true
}

// ExportFormats lists the formats ExportLogEntries accepts.
func ExportFormats() []string { return []string{"json", "text", "csv"} }

// ExportLogEntries writes entries to w as "json", "text" or "csv".
func ExportLogEntries(w io.Writer, entries []LogEntry, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "text":
		return exportText(w, entries)
	case "csv":
		return exportCSV(w, entries)
	default:
		return fmt.Errorf("unsupported export format: %s (supported: %s)", format, strings.Join(ExportFormats(), ", "))
	}
}

// exportText writes "[time] LEVEL - msg (council=.., agent=.., round=..) {attrs}".
func exportText(w io.Writer, entries []LogEntry) error {
	for _, e := range entries {
		var b strings.Builder
		fmt.Fprintf(&b, "[%s] %s - %s", e.Timestamp.Format("2006-01-02 15:04:05.000"), e.Level, e.Message)

		var ctx []string
		if e.CouncilID != "" {
			ctx = append(ctx, "council="+e.CouncilID)
		}
		if e.AgentID != "" {
			ctx = append(ctx, "agent="+e.AgentID)
		}
		if e.Round > 0 {
			ctx = append(ctx, "round="+strconv.Itoa(e.Round))
		}
		if len(ctx) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(ctx, ", "))
		}
		if len(e.Attrs) > 0 {
			attrs, _ := json.Marshal(e.Attrs)
			b.WriteByte(' ')
			b.Write(attrs)
		}
		b.WriteByte('\n')
		if _, err := io.WriteString(w, b.String()); err != nil {
			return fmt.Errorf("failed to write text entry: %w", err)
		}
	}
	return nil
}

func exportCSV(w io.Writer, entries []LogEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp", "level", "message", "council_id", "agent_id", "round", "attrs"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, e := range entries {
		attrs := ""
		if len(e.Attrs) > 0 {
			if b, err := json.Marshal(e.Attrs); err == nil {
				attrs = string(b)
			}
		}
		round := ""
		if e.Round > 0 {
			round = strconv.Itoa(e.Round)
		}
		record := []string{
			e.Timestamp.Format(time.RFC3339Nano),
			e.Level,
			e.Message,
			e.CouncilID,
			e.AgentID,
			round,
			attrs,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
