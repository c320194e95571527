// Package audit records every debate event as one JSON object per line.
//
// A [Writer] subscribes to an event.Bus and appends a [Record] for each event
// in publication order, numbering them with a monotonically increasing seq.
// [Read] loads a stream back for replay.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/Iron-Ham/council/internal/event"
	"github.com/Iron-Ham/council/internal/logging"
)

// FileName is the audit stream's file name inside the audit directory.
const FileName = "audit.jsonl"

// Record is one audit line.
type Record struct {
	Seq       int64           `json:"seq"`
	Timestamp time.Time       `json:"ts"`
	Type      string          `json:"type"`
	CouncilID string          `json:"council_id,omitempty"`
	Data      json.RawMessage `json:"data"`
}

// Decode unmarshals the record's payload into v.
func (r Record) Decode(v any) error {
	return json.Unmarshal(r.Data, v)
}

// Writer appends records to a rotating file.
type Writer struct {
	mu        sync.Mutex
	out       *logging.RotatingWriter
	seq       int64
	councilID string
	failures  int

	bus    *event.Bus
	subID  string
	logger *logging.Logger
}

// Open opens path for appending.
func Open(path string, rotation logging.RotationConfig, logger *logging.Logger) (*Writer, error) {
	if logger == nil {
		logger = logging.NopLogger()
	}
	out, err := logging.NewRotatingWriter(path, rotation)
	if err != nil {
		return nil, fmt.Errorf("audit: %w", err)
	}
	return &Writer{out: out, logger: logger}, nil
}

// Path returns the live audit file.
func (w *Writer) Path() string { return w.out.Path() }

// Attach subscribes the writer to every event on bus.
func (w *Writer) Attach(bus *event.Bus) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.bus = bus
	w.subID = bus.SubscribeAll(w.Handle)
}

// Handle writes e as the next record. The council id is taken from the
// debate.started event and stamped on every later record. Write failures are
// logged and counted, never returned to the publisher.
func (w *Writer) Handle(e event.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		w.fail(e, err)
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if started, ok := e.(event.DebateStartedEvent); ok {
		w.councilID = started.CouncilID
	}
	w.seq++
	line, err := json.Marshal(Record{
		Seq:       w.seq,
		Timestamp: e.Timestamp(),
		Type:      e.EventType(),
		CouncilID: w.councilID,
		Data:      data,
	})
	if err == nil {
		_, err = w.out.Write(append(line, '\n'))
	}
	if err != nil {
		w.failures++
		w.logger.Warn("audit write failed", "event_type", e.EventType(), "seq", w.seq, "error", err)
	}
}

func (w *Writer) fail(e event.Event, err error) {
	w.mu.Lock()
	w.failures++
	w.mu.Unlock()
	w.logger.Warn("audit encode failed", "event_type", e.EventType(), "error", err)
}

// Failures returns the number of events that could not be recorded.
func (w *Writer) Failures() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.failures
}

// Close unsubscribes from the bus and closes the file.
func (w *Writer) Close() error {
	w.mu.Lock()
	bus, id := w.bus, w.subID
	w.bus, w.subID = nil, ""
	w.mu.Unlock()
	if bus != nil {
		bus.Unsubscribe(id)
	}
	return w.out.Close()
}

// Read loads the records in path in file order. Malformed lines are skipped.
// A file shared by several debates restarts seq at 1 for each of them.
func Read(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audit: %w", err)
	}
	defer func() { _ = f.Close() }()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var r Record
		if err := json.Unmarshal([]byte(line), &r); err != nil || r.Type == "" {
			continue
		}
		records = append(records, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("audit: read %s: %w", path, err)
	}
	return records, nil
}
