package logging

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// RotationConfig controls size-based rotation of a log file.
type RotationConfig struct {
	// MaxSizeMB is the size at which the file is rotated. Zero disables rotation.
	MaxSizeMB int
	// MaxBackups is how many rotated files are kept as {path}.1 .. {path}.N.
	MaxBackups int
	// Compress gzips rotated files.
	Compress bool
}

// DefaultRotationConfig returns the rotation settings used when the
// configuration does not override them.
func DefaultRotationConfig() RotationConfig {
	return RotationConfig{MaxSizeMB: 10, MaxBackups: 3}
}

// RotatingWriter is an append-only file writer that rotates the file once it
// would grow past the configured size. It is safe for concurrent use and is
// shared by the debug log and the audit log.
type RotatingWriter struct {
	mu sync.Mutex

	path     string
	limit    int64
	backups  int
	compress bool

	f    *os.File
	size int64
	wg   sync.WaitGroup
}

// NewRotatingWriter opens path for appending, creating parent directories.
func NewRotatingWriter(path string, cfg RotationConfig) (*RotatingWriter, error) {
	rw := &RotatingWriter{
		path:     path,
		limit:    int64(cfg.MaxSizeMB) << 20,
		backups:  cfg.MaxBackups,
		compress: cfg.Compress,
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	if err := rw.open(); err != nil {
		return nil, err
	}
	return rw, nil
}

func (rw *RotatingWriter) open() error {
	f, err := os.OpenFile(rw.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}
	rw.f = f
	rw.size = info.Size()
	return nil
}

// Write appends p, rotating first when p would push the file past the limit.
// A single write larger than the limit still goes to one file.
func (rw *RotatingWriter) Write(p []byte) (int, error) {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.f == nil {
		return 0, os.ErrClosed
	}
	if rw.limit > 0 && rw.size > 0 && rw.size+int64(len(p)) > rw.limit {
		if err := rw.rotate(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: log rotation failed: %v\n", err)
			if rw.f == nil {
				return 0, err
			}
		}
	}
	n, err := rw.f.Write(p)
	rw.size += int64(n)
	return n, err
}

// rotate shifts {path}.i to {path}.i+1, moves the live file to {path}.1 and
// reopens. The caller holds the mutex.
func (rw *RotatingWriter) rotate() error {
	if err := rw.f.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	rw.f = nil

	if rw.backups <= 0 {
		if err := os.Remove(rw.path); err != nil && !os.IsNotExist(err) {
			return rw.reopenAfter(err)
		}
		return rw.open()
	}

	for _, suffix := range []string{"", ".gz"} {
		_ = os.Remove(rw.backup(rw.backups) + suffix)
		for i := rw.backups - 1; i >= 1; i-- {
			_ = os.Rename(rw.backup(i)+suffix, rw.backup(i+1)+suffix)
		}
	}

	first := rw.backup(1)
	if err := os.Rename(rw.path, first); err != nil {
		return rw.reopenAfter(err)
	}
	if rw.compress {
		rw.wg.Go(func() { compressFile(first) })
	}
	return rw.open()
}

func (rw *RotatingWriter) reopenAfter(cause error) error {
	if err := rw.open(); err != nil {
		return fmt.Errorf("failed to rotate log file (%v) and reopen it: %w", cause, err)
	}
	return fmt.Errorf("failed to rotate log file: %w", cause)
}

func (rw *RotatingWriter) backup(n int) string {
	return fmt.Sprintf("%s.%d", rw.path, n)
}

// compressFile replaces path with path.gz. Failures leave the plain backup.
func compressFile(path string) {
	in, err := os.Open(path)
	if err != nil {
		return
	}
	defer in.Close()

	out, err := os.Create(path + ".gz")
	if err != nil {
		return
	}
	zw := gzip.NewWriter(out)
	_, copyErr := io.Copy(zw, in)
	closeErr := zw.Close()
	fileErr := out.Close()
	if copyErr != nil || closeErr != nil || fileErr != nil {
		_ = os.Remove(path + ".gz")
		return
	}
	_ = os.Remove(path)
}

// Sync flushes the live file to disk.
func (rw *RotatingWriter) Sync() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	if rw.f == nil {
		return nil
	}
	return rw.f.Sync()
}

// Close syncs and closes the live file and waits for pending compression.
func (rw *RotatingWriter) Close() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	defer rw.wg.Wait()

	if rw.f == nil {
		return nil
	}
	f := rw.f
	rw.f = nil
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to sync log file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	return nil
}

// Size returns the size of the live file in bytes.
func (rw *RotatingWriter) Size() int64 {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	return rw.size
}

// Path returns the live file path.
func (rw *RotatingWriter) Path() string { return rw.path }
