package gtui_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Iron-Ham/gtui"
)

func headless() gtui.Options {
	return gtui.Options{Title: "test", Headless: true}
}

func TestRun_Pipeline(t *testing.T) {
	step := func(name string) gtui.Action {
		return func(ctx context.Context) error {
			gtui.Printf(ctx, "%s out\n", name)
			gtui.Logger(ctx).Info(name + " log")
			return nil
		}
	}

	g := gtui.NewGraph()
	for _, add := range []struct {
		name string
		deps []string
	}{
		{"fetch", nil},
		{"lint", []string{"fetch"}},
		{"test", []string{"fetch"}},
		{"package", []string{"lint", "test"}},
	} {
		if err := g.AddTask(gtui.NewTask(add.name, step(add.name)), add.deps...); err != nil {
			t.Fatalf("AddTask(%s) error = %v", add.name, err)
		}
	}

	formatter := gtui.FormatterFunc(func(r gtui.Record) string {
		return r.Logger + ": " + r.Message
	})
	opts := headless()
	opts.LogFormatter = formatter

	rep, err := gtui.Run(context.Background(), g, opts)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !rep.Success {
		t.Fatalf("Run() success = false, report: %+v", rep)
	}
	for _, name := range []string{"fetch", "lint", "test", "package"} {
		tr, ok := rep.Task(name)
		if !ok {
			t.Fatalf("report has no task %q", name)
		}
		if tr.Status != gtui.StatusSuccess {
			t.Errorf("%s status = %v, want SUCCESS", name, tr.Status)
		}
		if want := name + " out\n"; tr.Output != want {
			t.Errorf("%s output = %q, want %q", name, tr.Output, want)
		}
		if want := name + ": " + name + " log"; tr.Log != want {
			t.Errorf("%s log = %q, want %q", name, tr.Log, want)
		}
	}
}

func TestRun_CycleRejected(t *testing.T) {
	var ran atomic.Bool
	action := func(context.Context) error { ran.Store(true); return nil }

	g := gtui.NewGraph()
	if err := g.AddTasks(gtui.NewTask("t1", action), gtui.NewTask("t2", action)); err != nil {
		t.Fatal(err)
	}
	if err := g.AddDependency("t1", "t2"); err != nil {
		t.Fatal(err)
	}
	if err := g.AddDependency("t2", "t1"); err != nil {
		t.Fatal(err)
	}

	rep, err := gtui.Run(context.Background(), g, headless())
	if rep != nil {
		t.Errorf("Run() report = %+v, want nil", rep)
	}
	var cycleErr *gtui.CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("Run() error = %v, want *CycleError", err)
	}
	if !errors.Is(err, gtui.ErrDependencyCycle) {
		t.Errorf("errors.Is(err, ErrDependencyCycle) = false")
	}
	if got := strings.Join(cycleErr.Cycle, " -> "); got != "t1 -> t2 -> t1" {
		t.Errorf("cycle = %q, want %q", got, "t1 -> t2 -> t1")
	}
	if ran.Load() {
		t.Error("an action ran on a cyclic graph")
	}
}

func TestRun_FailureAndCallback(t *testing.T) {
	g, err := gtui.Linear(
		gtui.NewTask("t1", func(context.Context) error { return nil }),
		gtui.NewTask("t2", func(context.Context) error { return fmt.Errorf("boom") }),
		gtui.NewTask("t3", func(context.Context) error { return nil }),
	)
	if err != nil {
		t.Fatalf("Linear() error = %v", err)
	}

	var calls atomic.Int32
	var outcome atomic.Bool
	opts := headless()
	opts.Callback = func(success bool) {
		calls.Add(1)
		outcome.Store(success)
	}

	rep, err := gtui.Run(context.Background(), g, opts)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if rep.Success {
		t.Error("report success = true, want false")
	}
	if calls.Load() != 1 || outcome.Load() {
		t.Errorf("callback calls = %d outcome = %v, want 1 false", calls.Load(), outcome.Load())
	}

	want := map[string]gtui.Status{
		"t1": gtui.StatusSuccess,
		"t2": gtui.StatusFailed,
		"t3": gtui.StatusSkipped,
	}
	for name, status := range want {
		tr, _ := rep.Task(name)
		if tr.Status != status {
			t.Errorf("%s status = %v, want %v", name, tr.Status, status)
		}
	}
	if tr, _ := rep.Task("t2"); !strings.Contains(tr.Error, "boom") {
		t.Errorf("t2 error = %q, want it to mention boom", tr.Error)
	}
}

func TestRun_NestedRunConflicts(t *testing.T) {
	var nested atomic.Value
	inner := gtui.NewGraph()
	if err := inner.AddTask(gtui.NewTask("inner", func(context.Context) error { return nil })); err != nil {
		t.Fatal(err)
	}

	outer := gtui.NewGraph()
	err := outer.AddTask(gtui.NewTask("outer", func(ctx context.Context) error {
		_, err := gtui.Run(ctx, inner, headless())
		nested.Store(err)
		return nil
	}))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := gtui.Run(context.Background(), outer, headless()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	got, _ := nested.Load().(error)
	if !errors.Is(got, gtui.ErrCaptureConflict) {
		t.Errorf("nested Run() error = %v, want ErrCaptureConflict", got)
	}

	// The outer run released the sink, so a new run can acquire it.
	again := gtui.NewGraph()
	if err := again.AddTask(gtui.NewTask("again", func(context.Context) error { return nil })); err != nil {
		t.Fatal(err)
	}
	if _, err := gtui.Run(context.Background(), again, headless()); err != nil {
		t.Errorf("Run() after release error = %v", err)
	}
}

func TestRun_OutputIsolation(t *testing.T) {
	const lines = 100
	g := gtui.NewGraph()
	for i := range 4 {
		name := fmt.Sprintf("w%d", i)
		err := g.AddTask(gtui.NewTask(name, func(ctx context.Context) error {
			for j := range lines {
				fmt.Fprintf(gtui.Writer(ctx), "%s %d\n", name, j)
				if j%10 == 0 {
					time.Sleep(time.Millisecond)
				}
			}
			return nil
		}))
		if err != nil {
			t.Fatal(err)
		}
	}

	rep, err := gtui.Run(context.Background(), g, headless())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	for _, tr := range rep.Tasks {
		got := strings.Split(strings.TrimSuffix(tr.Output, "\n"), "\n")
		if len(got) != lines {
			t.Fatalf("%s has %d lines, want %d", tr.Name, len(got), lines)
		}
		for j, line := range got {
			if want := fmt.Sprintf("%s %d", tr.Name, j); line != want {
				t.Fatalf("%s line %d = %q, want %q", tr.Name, j, line, want)
			}
		}
	}
}

func TestLoggerOutsideTask(t *testing.T) {
	// Must not panic or write anywhere.
	gtui.Logger(context.Background()).Info("ignored")
}
