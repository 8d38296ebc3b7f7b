package logging

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// RotationConfig holds configuration for engine log rotation.
type RotationConfig struct {
	// MaxSizeMB is the size in megabytes at which the log rolls over.
	// Zero disables rotation.
	MaxSizeMB int
	// MaxBackups is how many rolled files are kept next to the live one.
	MaxBackups int
	// Compress gzips rolled files.
	Compress bool
}

// DefaultRotationConfig returns the rotation settings used when config omits them.
func DefaultRotationConfig() RotationConfig {
	return RotationConfig{MaxSizeMB: 10, MaxBackups: 3}
}

// RotatingWriter is a size-bounded log file. When a write would push the file
// past its limit, the file is renamed to path.1 (older backups shift up) and
// a fresh file is opened. It is safe for concurrent use.
type RotatingWriter struct {
	mu   sync.Mutex
	path string
	cfg  RotationConfig
	file *os.File
	size int64

	// compressions tracks background gzip jobs so Close can wait for them.
	compressions sync.WaitGroup
}

// NewRotatingWriter opens (or creates) path for appending.
func NewRotatingWriter(path string, cfg RotationConfig) (*RotatingWriter, error) {
	rw := &RotatingWriter{path: path, cfg: cfg}
	if err := rw.open(); err != nil {
		return nil, err
	}
	return rw, nil
}

func (rw *RotatingWriter) limit() int64 {
	return int64(rw.cfg.MaxSizeMB) << 20
}

// open must be called with mu held (or before the writer is shared).
func (rw *RotatingWriter) open() error {
	if err := os.MkdirAll(filepath.Dir(rw.path), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(rw.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}
	rw.file, rw.size = f, info.Size()
	return nil
}

// Write appends p, rolling the file over first when p would not fit.
// A failed rollover is reported on stderr and the write still goes to the
// current file.
func (rw *RotatingWriter) Write(p []byte) (int, error) {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.file == nil {
		return 0, fmt.Errorf("log file is closed")
	}
	if lim := rw.limit(); lim > 0 && rw.size > 0 && rw.size+int64(len(p)) > lim {
		if err := rw.roll(); err != nil {
			fmt.Fprintf(os.Stderr, "gtui: log rotation failed: %v\n", err)
		}
		if rw.file == nil {
			return 0, fmt.Errorf("log file unavailable after rotation")
		}
	}

	n, err := rw.file.Write(p)
	rw.size += int64(n)
	return n, err
}

// roll must be called with mu held.
func (rw *RotatingWriter) roll() error {
	if err := rw.file.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	rw.file = nil

	rw.shiftBackups()

	first := rw.backup(1)
	if rw.cfg.MaxBackups > 0 {
		if err := os.Rename(rw.path, first); err != nil {
			if openErr := rw.open(); openErr != nil {
				return fmt.Errorf("failed to rename log file and reopen: %w", openErr)
			}
			return fmt.Errorf("failed to rename log file: %w", err)
		}
		if rw.cfg.Compress {
			rw.compressions.Add(1)
			go func() {
				defer rw.compressions.Done()
				if err := gzipFile(first); err != nil {
					fmt.Fprintf(os.Stderr, "gtui: log compression failed: %v\n", err)
				}
			}()
		}
	} else {
		_ = os.Remove(rw.path)
	}
	return rw.open()
}

// shiftBackups renames path.i to path.i+1 (newest first is .1) and drops
// whatever falls off the end.
func (rw *RotatingWriter) shiftBackups() {
	n := rw.cfg.MaxBackups
	if n <= 0 {
		return
	}
	removeBoth(rw.backup(n))
	for i := n - 1; i >= 1; i-- {
		from, to := rw.backup(i), rw.backup(i+1)
		if _, err := os.Stat(from + ".gz"); err == nil {
			_ = os.Rename(from+".gz", to+".gz")
			continue
		}
		if _, err := os.Stat(from); err == nil {
			_ = os.Rename(from, to)
		}
	}
}

func (rw *RotatingWriter) backup(n int) string {
	return fmt.Sprintf("%s.%d", rw.path, n)
}

func removeBoth(path string) {
	_ = os.Remove(path)
	_ = os.Remove(path + ".gz")
}

// gzipFile streams path into path.gz and removes path on success.
func gzipFile(path string) (err error) {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	dstPath := path + ".gz"
	dst, err := os.Create(dstPath)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(dstPath)
		}
	}()

	zw := gzip.NewWriter(dst)
	if _, err = io.Copy(zw, src); err != nil {
		_ = dst.Close()
		return err
	}
	if err = zw.Close(); err != nil {
		_ = dst.Close()
		return err
	}
	if err = dst.Close(); err != nil {
		return err
	}
	return os.Remove(path)
}

// Sync flushes the live file.
func (rw *RotatingWriter) Sync() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	if rw.file == nil {
		return nil
	}
	return rw.file.Sync()
}

// Close syncs and closes the live file, then waits for pending compressions.
// Closing twice is a no-op.
func (rw *RotatingWriter) Close() error {
	rw.mu.Lock()
	f := rw.file
	rw.file = nil
	rw.mu.Unlock()

	var err error
	if f != nil {
		if syncErr := f.Sync(); syncErr != nil {
			err = fmt.Errorf("failed to sync log file: %w", syncErr)
		}
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close log file: %w", closeErr)
		}
	}
	rw.compressions.Wait()
	return err
}

// Size returns the number of bytes in the live file.
func (rw *RotatingWriter) Size() int64 {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	return rw.size
}

// Path returns the live file path.
func (rw *RotatingWriter) Path() string {
	return rw.path
}
