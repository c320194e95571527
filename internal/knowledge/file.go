package knowledge

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileName is the file the file sink appends to.
const FileName = "knowledge.jsonl"

// FileSink appends entries to {dir}/knowledge.jsonl.
type FileSink struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

// NewFileSink creates dir if needed and opens the knowledge file.
func NewFileSink(dir string) (*FileSink, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("knowledge: directory is required for the file driver")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("knowledge: create directory: %w", err)
	}
	path := filepath.Join(dir, FileName)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("knowledge: open %s: %w", path, err)
	}
	return &FileSink{path: path, f: f}, nil
}

// Path returns the knowledge file path.
func (s *FileSink) Path() string { return s.path }

// Store appends e as one JSON line.
func (s *FileSink) Store(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("knowledge: encode entry: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return os.ErrClosed
	}
	if _, err := s.f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("knowledge: write entry: %w", err)
	}
	return nil
}

// Close closes the file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}

// ReadFile loads the entries in a knowledge file, skipping malformed lines.
func ReadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("knowledge: %w", err)
	}
	defer func() { _ = f.Close() }()

	var out []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil || e.CouncilID == "" {
			continue
		}
		out = append(out, e)
	}
	return out, scanner.Err()
}
