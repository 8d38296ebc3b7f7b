package capture

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/Iron-Ham/gtui/internal/errors"
)

func acquire(t *testing.T, opts SinkOptions) *Sink {
	t.Helper()
	s, err := Acquire(opts)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	t.Cleanup(s.Release)
	return s
}

func TestAcquire_Conflict(t *testing.T) {
	s := acquire(t, SinkOptions{Owner: "first", Unbound: &bytes.Buffer{}})

	_, err := Acquire(SinkOptions{Owner: "second"})
	if !errors.Is(err, errors.ErrCaptureConflict) {
		t.Fatalf("second Acquire error = %v, want ErrCaptureConflict", err)
	}
	var conflict *errors.CaptureConflictError
	if !errors.As(err, &conflict) || conflict.Owner != "first" {
		t.Errorf("conflict owner = %+v, want first", conflict)
	}
	if Active() != s {
		t.Error("failed Acquire must not change the active sink")
	}

	s.Release()
	s.Release()
	if Active() != nil {
		t.Error("Active() != nil after Release")
	}

	again := acquire(t, SinkOptions{Owner: "third", Unbound: &bytes.Buffer{}})
	if again.Owner() != "third" {
		t.Errorf("Owner() = %q", again.Owner())
	}
}

func TestRelease_NilSink(t *testing.T) {
	var s *Sink
	s.Release()
}

func TestWriter_Routing(t *testing.T) {
	var unboundOut bytes.Buffer
	s := acquire(t, SinkOptions{Unbound: &unboundOut})

	ctx := context.Background()
	Println(ctx, "before")

	task := NewBuffer(0)
	var leaked context.Context
	err := s.CaptureFor(ctx, task, func(ctx context.Context) error {
		Printf(ctx, "in %s\n", "task")
		Print(ctx, "done")
		leaked = ctx
		return nil
	})
	if err != nil {
		t.Fatalf("CaptureFor returned %v", err)
	}
	Println(ctx, "after")
	Println(leaked, "stale")

	if got := task.String(); got != "in task\ndone" {
		t.Errorf("task output = %q", got)
	}
	if got := unboundOut.String(); got != "before\nafter\nstale\n" {
		t.Errorf("unbound output = %q", got)
	}
}

func TestCaptureFor_ReturnsError(t *testing.T) {
	s := acquire(t, SinkOptions{Unbound: &bytes.Buffer{}})
	want := fmt.Errorf("boom")
	if err := s.CaptureFor(context.Background(), NewBuffer(0), func(context.Context) error { return want }); err != want {
		t.Errorf("CaptureFor = %v, want %v", err, want)
	}
}

func TestCaptureFor_DetachesOnPanic(t *testing.T) {
	var unboundOut bytes.Buffer
	s := acquire(t, SinkOptions{Unbound: &unboundOut})
	task := NewBuffer(0)

	var inner context.Context
	func() {
		defer func() {
			if r := recover(); r != "boom" {
				t.Errorf("recovered %v, want boom", r)
			}
		}()
		_ = s.CaptureFor(context.Background(), task, func(ctx context.Context) error {
			inner = ctx
			panic("boom")
		})
	}()

	Print(inner, "late")
	if task.Len() != 0 {
		t.Errorf("task buffer received %q after panic", task.String())
	}
	if unboundOut.String() != "late" {
		t.Errorf("unbound = %q, want late", unboundOut.String())
	}
}

func TestCaptureFor_NestedRestoresOuter(t *testing.T) {
	s := acquire(t, SinkOptions{Unbound: &bytes.Buffer{}})
	outer, inner := NewBuffer(0), NewBuffer(0)

	_ = s.CaptureFor(context.Background(), outer, func(ctx context.Context) error {
		Print(ctx, "a")
		_ = s.CaptureFor(ctx, inner, func(ctx context.Context) error {
			Print(ctx, "b")
			return nil
		})
		Print(ctx, "c")
		return nil
	})

	if outer.String() != "ac" || inner.String() != "b" {
		t.Errorf("outer = %q inner = %q", outer.String(), inner.String())
	}
}

func TestConcurrentTasksDoNotInterleave(t *testing.T) {
	s := acquire(t, SinkOptions{Unbound: &bytes.Buffer{}})

	const tasks, lines = 16, 200
	bufs := make([]*Buffer, tasks)
	var wg sync.WaitGroup
	for i := range bufs {
		bufs[i] = NewBuffer(0)
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.CaptureFor(context.Background(), bufs[i], func(ctx context.Context) error {
				for j := 0; j < lines; j++ {
					Printf(ctx, "task-%d line-%d\n", i, j)
				}
				return nil
			})
		}(i)
	}
	wg.Wait()

	for i, b := range bufs {
		got := strings.Split(strings.TrimSuffix(b.String(), "\n"), "\n")
		if len(got) != lines {
			t.Fatalf("task %d captured %d lines, want %d", i, len(got), lines)
		}
		for j, line := range got {
			if want := fmt.Sprintf("task-%d line-%d", i, j); line != want {
				t.Fatalf("task %d line %d = %q, want %q", i, j, line, want)
			}
		}
	}
}

func TestAttachInherited_SpawnedGoroutine(t *testing.T) {
	var unboundOut bytes.Buffer
	s := acquire(t, SinkOptions{Unbound: &unboundOut})
	task := NewBuffer(0)

	_ = s.CaptureFor(context.Background(), task, func(ctx context.Context) error {
		done := make(chan struct{})
		go func() {
			defer close(done)
			cctx, b := AttachInherited(ctx)
			defer b.Detach()
			Print(cctx, "child;")
		}()
		<-done
		Print(ctx, "parent")
		return nil
	})

	if task.String() != "child;parent" {
		t.Errorf("task output = %q", task.String())
	}

	// With nothing bound, an inherited binding writes to the unbound destination.
	cctx, b := AttachInherited(context.Background())
	Print(cctx, "orphan")
	b.Detach()
	b.Detach()
	if unboundOut.String() != "orphan" {
		t.Errorf("unbound = %q", unboundOut.String())
	}
}

func TestBinding_NilSafe(t *testing.T) {
	var b *Binding
	b.Detach()
	if !b.Detached() {
		t.Error("nil binding should report detached")
	}
	if b.Destination() != nil {
		t.Error("nil binding has no destination")
	}
}

func TestRedirectStdout(t *testing.T) {
	original := os.Stdout
	var unboundOut bytes.Buffer
	s, err := Acquire(SinkOptions{Unbound: &unboundOut, RedirectStdout: true})
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if s.Terminal() != original {
		t.Error("Terminal() must be the pre-redirect stdout")
	}
	if os.Stdout == original {
		t.Fatal("os.Stdout was not redirected")
	}

	fmt.Fprint(os.Stdout, "stray write")
	s.Release()

	if os.Stdout != original {
		t.Error("os.Stdout not restored by Release")
	}
	if unboundOut.String() != "stray write" {
		t.Errorf("unbound = %q, want stray write", unboundOut.String())
	}
}

func TestWriter_NoSink(t *testing.T) {
	if Active() != nil {
		t.Skip("another sink is active")
	}
	task := NewBuffer(0)
	ctx, b := Attach(context.Background(), task)
	defer b.Detach()
	Print(ctx, "bound without sink")
	if task.String() != "bound without sink" {
		t.Errorf("task output = %q", task.String())
	}
}
