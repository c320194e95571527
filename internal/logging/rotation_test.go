package logging

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func newTestWriter(t *testing.T, cfg RotationConfig) (*RotatingWriter, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "test.log")
	rw, err := NewRotatingWriter(path, cfg)
	if err != nil {
		t.Fatalf("NewRotatingWriter() error = %v", err)
	}
	t.Cleanup(func() { _ = rw.Close() })
	return rw, path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(b)
}

func TestRotatingWriter_AppendsToExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	if err := os.WriteFile(path, []byte("before\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	rw, err := NewRotatingWriter(path, DefaultRotationConfig())
	if err != nil {
		t.Fatal(err)
	}
	if rw.Size() != int64(len("before\n")) {
		t.Errorf("Size() = %d, want existing size", rw.Size())
	}
	if _, err := rw.Write([]byte("after\n")); err != nil {
		t.Fatal(err)
	}
	if err := rw.Close(); err != nil {
		t.Fatal(err)
	}
	if got := readFile(t, path); got != "before\nafter\n" {
		t.Errorf("content = %q", got)
	}
}

func TestRotatingWriter_Rotates(t *testing.T) {
	rw, path := newTestWriter(t, RotationConfig{MaxSizeMB: 1, MaxBackups: 2})
	chunk := []byte(strings.Repeat("x", 600<<10) + "\n")

	for range 4 {
		if _, err := rw.Write(chunk); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}

	for _, p := range []string{path, path + ".1", path + ".2"} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("expected %s to exist: %v", p, err)
		}
	}
	if _, err := os.Stat(path + ".3"); !os.IsNotExist(err) {
		t.Errorf("backup beyond MaxBackups was kept")
	}
	if rw.Size() != int64(len(chunk)) {
		t.Errorf("Size() = %d after rotation, want %d", rw.Size(), len(chunk))
	}
}

func TestRotatingWriter_NoBackups(t *testing.T) {
	rw, path := newTestWriter(t, RotationConfig{MaxSizeMB: 1})
	chunk := []byte(strings.Repeat("y", 700<<10))
	_, _ = rw.Write(chunk)
	_, _ = rw.Write(chunk)

	if _, err := os.Stat(path + ".1"); !os.IsNotExist(err) {
		t.Error("no backup should be kept with MaxBackups = 0")
	}
	if rw.Size() != int64(len(chunk)) {
		t.Errorf("Size() = %d", rw.Size())
	}
}

func TestRotatingWriter_Compress(t *testing.T) {
	rw, path := newTestWriter(t, RotationConfig{MaxSizeMB: 1, MaxBackups: 1, Compress: true})
	first := []byte(strings.Repeat("a", 1048574))
	_, _ = rw.Write(first)
	_, _ = rw.Write([]byte("second"))
	if err := rw.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path + ".1.gz")
	if err != nil {
		t.Fatalf("compressed backup missing: %v", err)
	}
	defer f.Close()
	zr, err := gzip.NewReader(f)
	if err != nil {
		t.Fatal(err)
	}
	data, err := io.ReadAll(zr)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != len(first) {
		t.Errorf("decompressed %d bytes, want %d", len(data), len(first))
	}
	if _, err := os.Stat(path + ".1"); !os.IsNotExist(err) {
		t.Error("plain backup should be removed after compression")
	}
}

func TestRotatingWriter_WriteAfterClose(t *testing.T) {
	rw, _ := newTestWriter(t, RotationConfig{})
	_ = rw.Close()
	if _, err := rw.Write([]byte("late")); err == nil {
		t.Error("Write() after Close() should fail")
	}
	if err := rw.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestRotatingWriter_ConcurrentWrites(t *testing.T) {
	rw, path := newTestWriter(t, RotationConfig{})
	var wg sync.WaitGroup
	for range 10 {
		wg.Go(func() {
			for range 50 {
				_, _ = rw.Write([]byte("line\n"))
			}
		})
	}
	wg.Wait()
	_ = rw.Close()

	if n := strings.Count(readFile(t, path), "line\n"); n != 500 {
		t.Errorf("wrote %d lines, want 500", n)
	}
}

func TestNewLoggerWithRotation(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLoggerWithRotation(dir, LevelDebug, RotationConfig{MaxSizeMB: 1, MaxBackups: 1})
	if err != nil {
		t.Fatal(err)
	}
	l.WithCouncil("c-1").Info("round started", "round", 1)
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	if got := readFile(t, filepath.Join(dir, logFileName)); !strings.Contains(got, `"council_id":"c-1"`) {
		t.Errorf("debug.log = %s", got)
	}
}
