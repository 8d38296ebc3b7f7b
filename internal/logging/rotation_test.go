package logging

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const mb = 1 << 20

func TestRotatingWriter_AppendsToExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "debug.log")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("old\n"), 0644); err != nil {
		t.Fatal(err)
	}

	rw, err := NewRotatingWriter(path, DefaultRotationConfig())
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	if rw.Size() != 4 {
		t.Errorf("Size() = %d, want 4", rw.Size())
	}
	if _, err := rw.Write([]byte("new\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := rw.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	got, _ := os.ReadFile(path)
	if string(got) != "old\nnew\n" {
		t.Errorf("content = %q", got)
	}
	if rw.Path() != path {
		t.Errorf("Path() = %q", rw.Path())
	}
}

func TestRotatingWriter_Rotates(t *testing.T) {
	tests := []struct {
		name       string
		cfg        RotationConfig
		writes     int
		wantFiles  []string
		wantAbsent []string
	}{
		{
			name:      "keeps backups",
			cfg:       RotationConfig{MaxSizeMB: 1, MaxBackups: 2},
			writes:    3,
			wantFiles: []string{"debug.log", "debug.log.1", "debug.log.2"},
		},
		{
			name:       "drops oldest beyond MaxBackups",
			cfg:        RotationConfig{MaxSizeMB: 1, MaxBackups: 1},
			writes:     3,
			wantFiles:  []string{"debug.log", "debug.log.1"},
			wantAbsent: []string{"debug.log.2"},
		},
		{
			name:       "no backups truncates",
			cfg:        RotationConfig{MaxSizeMB: 1, MaxBackups: 0},
			writes:     3,
			wantFiles:  []string{"debug.log"},
			wantAbsent: []string{"debug.log.1"},
		},
		{
			name:       "compresses backups",
			cfg:        RotationConfig{MaxSizeMB: 1, MaxBackups: 2, Compress: true},
			writes:     2,
			wantFiles:  []string{"debug.log", "debug.log.1.gz"},
			wantAbsent: []string{"debug.log.1"},
		},
	}

	chunk := []byte(strings.Repeat("x", mb*3/4))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			rw, err := NewRotatingWriter(filepath.Join(dir, "debug.log"), tt.cfg)
			if err != nil {
				t.Fatalf("NewRotatingWriter failed: %v", err)
			}
			for i := 0; i < tt.writes; i++ {
				if _, err := rw.Write(chunk); err != nil {
					t.Fatalf("Write %d failed: %v", i, err)
				}
			}
			if err := rw.Close(); err != nil {
				t.Fatalf("Close failed: %v", err)
			}

			for _, name := range tt.wantFiles {
				if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
					t.Errorf("expected %s: %v", name, err)
				}
			}
			for _, name := range tt.wantAbsent {
				if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
					t.Errorf("did not expect %s", name)
				}
			}
		})
	}
}

func TestRotatingWriter_CompressedContent(t *testing.T) {
	dir := t.TempDir()
	rw, err := NewRotatingWriter(filepath.Join(dir, "debug.log"), RotationConfig{MaxSizeMB: 1, MaxBackups: 1, Compress: true})
	if err != nil {
		t.Fatal(err)
	}
	first := []byte(strings.Repeat("a", mb-10))
	if _, err := rw.Write(first); err != nil {
		t.Fatal(err)
	}
	if _, err := rw.Write([]byte(strings.Repeat("b", 20))); err != nil {
		t.Fatal(err)
	}
	if err := rw.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(filepath.Join(dir, "debug.log.1.gz"))
	if err != nil {
		t.Fatalf("open backup: %v", err)
	}
	defer func() { _ = f.Close() }()
	zr, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	got, err := io.ReadAll(zr)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(first) {
		t.Errorf("backup holds %d bytes, want %d", len(got), len(first))
	}
}

func TestRotatingWriter_WriteAfterClose(t *testing.T) {
	rw, err := NewRotatingWriter(filepath.Join(t.TempDir(), "debug.log"), RotationConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if err := rw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := rw.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
	if _, err := rw.Write([]byte("x")); err == nil {
		t.Error("expected error writing to closed writer")
	}
	if err := rw.Sync(); err != nil {
		t.Errorf("Sync() on closed writer = %v", err)
	}
}
