package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/Iron-Ham/gtui/internal/graph"
	"github.com/Iron-Ham/gtui/internal/logging"
)

func noop(context.Context) error { return nil }

// finishedGraph builds fetch -> build -> deploy plus an independent lint,
// with build failed and deploy skipped.
func finishedGraph(t *testing.T) *graph.TaskGraph {
	t.Helper()
	g := graph.New()
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(g.AddTask(graph.NewTask("fetch", noop)))
	must(g.AddTask(graph.NewTask("build", noop), "fetch"))
	must(g.AddTask(graph.NewTask("deploy", noop), "build"))
	must(g.AddTask(graph.NewTask("lint", noop)))

	set := func(name string, steps ...graph.Status) {
		task, _ := g.Task(name)
		for _, s := range steps {
			var cause error
			if s == graph.StatusFailed {
				cause = errors.New("exit status 1")
			}
			must(task.SetStatus(s, cause))
		}
	}
	set("fetch", graph.StatusRunning, graph.StatusSuccess)
	set("build", graph.StatusRunning, graph.StatusFailed)
	set("deploy", graph.StatusSkipped)

	fetch, _ := g.Task("fetch")
	_, _ = fetch.OutputWriter().Write([]byte("downloaded\n"))
	slog.New(logging.NewRecordHandler(fetch.LogBuffer(), "fetch", logging.HandlerOptions{})).Info("fetched")
	return g
}

func TestView(t *testing.T) {
	g := finishedGraph(t)
	engine := logging.NewRecordBuffer()
	engine.Append(logging.Record{Message: "launching"})
	v := NewView("ci", g, engine, nil)

	if v.Title() != "ci" {
		t.Errorf("Title() = %q", v.Title())
	}
	c := v.Counts()
	want := Counts{Total: 4, Pending: 1, Succeeded: 1, Failed: 1, Skipped: 1}
	if c != want {
		t.Errorf("Counts() = %+v, want %+v", c, want)
	}
	if c.Done() {
		t.Error("Done() = true with a pending task")
	}

	build, ok := v.Task("build")
	if !ok {
		t.Fatal("Task(build) not found")
	}
	if deps := build.Dependencies(); len(deps) != 1 || deps[0] != "fetch" {
		t.Errorf("Dependencies() = %v", deps)
	}
	if build.Err() == nil {
		t.Error("failed task should expose its error")
	}
	if _, ok := v.Task("nope"); ok {
		t.Error("Task(nope) should not be found")
	}

	fetch, _ := v.Task("fetch")
	if out, next := fetch.OutputFrom(0); string(out) != "downloaded\n" || next != 11 {
		t.Errorf("OutputFrom(0) = %q, %d", out, next)
	}
	if recs, _ := fetch.LogRecordsFrom(0); len(recs) != 1 {
		t.Errorf("LogRecordsFrom(0) = %v", recs)
	}
	if len(v.EngineLog()) != 1 {
		t.Errorf("EngineLog() = %v", v.EngineLog())
	}
	if names := len(v.Tasks()); names != 4 {
		t.Errorf("len(Tasks()) = %d", names)
	}
}

func TestSnapshotAndJSON(t *testing.T) {
	g := finishedGraph(t)
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	r := NewView("ci", g, nil, nil).Snapshot(false, start, start.Add(3*time.Second))

	if r.Duration() != 3*time.Second {
		t.Errorf("Duration() = %v", r.Duration())
	}
	fetch, ok := r.Task("fetch")
	if !ok || fetch.Output != "downloaded\n" || !strings.Contains(fetch.Log, "[fetch][fetched]") {
		t.Errorf("fetch report = %+v", fetch)
	}
	if _, ok := r.Task("missing"); ok {
		t.Error("Task(missing) should not be found")
	}

	var buf bytes.Buffer
	if err := r.WriteJSON(&buf); err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		Success bool `json:"success"`
		Tasks   []struct {
			Name   string `json:"name"`
			Status string `json:"status"`
			Error  string `json:"error"`
		} `json:"tasks"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if decoded.Success || len(decoded.Tasks) != 4 {
		t.Fatalf("decoded = %+v", decoded)
	}
	if decoded.Tasks[1].Status != "FAILED" || decoded.Tasks[1].Error != "exit status 1" {
		t.Errorf("build = %+v", decoded.Tasks[1])
	}
	if decoded.Tasks[2].Status != "SKIPPED" {
		t.Errorf("deploy = %+v", decoded.Tasks[2])
	}
}

func TestSummary(t *testing.T) {
	g := finishedGraph(t)
	start := time.Now()
	r := NewView("ci", g, nil, nil).Snapshot(false, start, start.Add(time.Second))

	var buf bytes.Buffer
	if err := r.Summary(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"ci", "✓ fetch", "✗ build", "⊘ deploy", "exit status 1", "failed: 1 succeeded, 1 failed, 1 skipped"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "-"},
		{1234567 * time.Nanosecond, "1ms"},
		{1530 * time.Millisecond, "1.5s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
