package mailbox

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// JournalFile is the JSONL file a Journal writes inside its directory.
const JournalFile = "mailbox.jsonl"

// Journal persists bus history as JSONL (one JSON object per line) in an
// append-only log. It is written to, never read from, while a debate runs.
type Journal struct {
	path string
	mu   sync.Mutex
	f    *os.File
}

// OpenJournal creates dir if needed and opens {dir}/mailbox.jsonl for appending.
func OpenJournal(dir string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mailbox: create journal directory: %w", err)
	}
	path := filepath.Join(dir, JournalFile)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("mailbox: open journal: %w", err)
	}
	return &Journal{path: path, f: f}, nil
}

// Path returns the journal file path.
func (j *Journal) Path() string { return j.path }

// Append writes msg as one line. Writes are serialized by a mutex and the
// file is opened with O_APPEND, so lines never interleave.
func (j *Journal) Append(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("mailbox: marshal message: %w", err)
	}
	data = append(data, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.f == nil {
		return fmt.Errorf("mailbox: journal closed")
	}
	if _, err := j.f.Write(data); err != nil {
		return fmt.Errorf("mailbox: append to journal: %w", err)
	}
	return nil
}

// Close closes the underlying file. Further appends fail.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.f == nil {
		return nil
	}
	err := j.f.Close()
	j.f = nil
	return err
}

// ReadJournal reads every message from a journal file, sorted chronologically.
// Returns nil (not error) if the file does not exist.
func ReadJournal(path string) ([]Message, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("mailbox: open journal: %w", err)
	}
	defer func() { _ = f.Close() }()

	var messages []Message
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var msg Message
		if err := json.Unmarshal(line, &msg); err != nil {
			// Skip malformed lines rather than failing entirely
			continue
		}
		messages = append(messages, msg)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("mailbox: scan journal: %w", err)
	}

	sortMessages(messages)
	return messages, nil
}
