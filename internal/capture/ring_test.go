package capture

import (
	"strings"
	"sync"
	"testing"
)

func TestRingBuffer(t *testing.T) {
	tests := []struct {
		name   string
		size   int
		writes []string
		want   string
	}{
		{"empty", 5, nil, ""},
		{"under capacity", 5, []string{"abc"}, "abc"},
		{"exactly full", 5, []string{"abc", "de"}, "abcde"},
		{"wraps", 5, []string{"abc", "de", "fg"}, "cdefg"},
		{"wraps twice", 5, []string{"abcd", "efgh", "ij"}, "fghij"},
		{"single write larger than capacity", 3, []string{"abcdefg"}, "efg"},
		{"many small writes", 4, []string{"a", "b", "c", "d", "e", "f"}, "cdef"},
		{"zero size clamps to one", 0, []string{"xyz"}, "z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRingBuffer(tt.size)
			for _, w := range tt.writes {
				n, err := r.Write([]byte(w))
				if err != nil || n != len(w) {
					t.Fatalf("Write(%q) = %d, %v", w, n, err)
				}
			}
			if got := string(r.Bytes()); got != tt.want {
				t.Errorf("Bytes() = %q, want %q", got, tt.want)
			}
			if r.Len() != len(tt.want) {
				t.Errorf("Len() = %d, want %d", r.Len(), len(tt.want))
			}
		})
	}
}

func TestRingBuffer_Reset(t *testing.T) {
	r := NewRingBuffer(4)
	_, _ = r.Write([]byte("abcdef"))
	r.Reset()
	if r.Len() != 0 {
		t.Errorf("Len() after Reset = %d", r.Len())
	}
	_, _ = r.Write([]byte("xy"))
	if got := string(r.Bytes()); got != "xy" {
		t.Errorf("Bytes() = %q, want xy", got)
	}
	if r.Cap() != 4 {
		t.Errorf("Cap() = %d", r.Cap())
	}
}

func TestRingBuffer_Concurrent(t *testing.T) {
	r := NewRingBuffer(64)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, _ = r.Write([]byte("0123456789"))
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = r.Bytes()
			}
		}()
	}
	wg.Wait()
	got := string(r.Bytes())
	if len(got) != 64 {
		t.Fatalf("Len = %d, want 64", len(got))
	}
	// Every write is the same 10-byte pattern, so the tail must be a
	// contiguous run of it.
	if !strings.Contains(strings.Repeat("0123456789", 8), got) {
		t.Errorf("tail %q is not a contiguous run of whole writes", got)
	}
}
