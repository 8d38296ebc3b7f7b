package event

import (
	"bytes"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Iron-Ham/gtui/internal/graph"
	"github.com/Iron-Ham/gtui/internal/logging"
)

func TestBus_SubscribeAndPublish(t *testing.T) {
	bus := NewBus(nil)

	var got []string
	id := bus.Subscribe(TypeTaskStarted, func(e Event) {
		got = append(got, "specific:"+e.(TaskStartedEvent).Task)
	})
	bus.SubscribeAll(func(e Event) {
		got = append(got, "all:"+e.EventType())
	})
	if id == "" {
		t.Error("Subscribe should return a non-empty ID")
	}

	bus.Publish(NewTaskStartedEvent("build"))
	bus.Publish(NewTaskSkippedEvent("deploy", "build"))

	want := []string{"specific:build", "all:task.started", "all:task.skipped"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("delivery order = %v, want %v", got, want)
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus(nil)
	var calls int
	id := bus.Subscribe(TypeRunCompleted, func(Event) { calls++ })
	other := bus.Subscribe(TypeRunCompleted, func(Event) {})

	if !bus.Unsubscribe(id) {
		t.Fatal("Unsubscribe returned false for a live ID")
	}
	if bus.Unsubscribe(id) {
		t.Error("second Unsubscribe should return false")
	}
	bus.Publish(NewRunCompletedEvent("run", true, 1, 0, 0, 0))
	if calls != 0 {
		t.Errorf("unsubscribed handler called %d times", calls)
	}
	if bus.SubscriptionCount() != 1 {
		t.Errorf("SubscriptionCount() = %d, want 1", bus.SubscriptionCount())
	}
	bus.Unsubscribe(other)
	bus.Clear()
	if bus.SubscriptionCount() != 0 {
		t.Error("Clear should remove all subscriptions")
	}
}

func TestBus_PanickingHandlerIsLogged(t *testing.T) {
	var logs bytes.Buffer
	bus := NewBus(logging.NewWriterLogger(&logs, logging.LevelError))

	reached := false
	bus.Subscribe(TypeTaskFinished, func(Event) { panic("handler bug") })
	bus.Subscribe(TypeTaskFinished, func(Event) { reached = true })

	bus.Publish(NewTaskFinishedEvent("t", graph.StatusSuccess, nil, 0))

	if !reached {
		t.Error("handler after a panicking one was not called")
	}
	if !strings.Contains(logs.String(), "handler bug") {
		t.Errorf("panic not logged: %s", logs.String())
	}
}

func TestBus_NilPublish(t *testing.T) {
	var bus *Bus
	bus.Publish(NewTaskStartedEvent("x"))
}

func TestBus_Concurrent(t *testing.T) {
	bus := NewBus(nil)
	var count atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			id := bus.Subscribe(TypeTaskStarted, func(Event) {})
			bus.Unsubscribe(id)
		}()
		go func() {
			defer wg.Done()
			bus.Publish(NewTaskStartedEvent("t"))
			count.Add(1)
		}()
	}
	wg.Wait()
	if count.Load() != 10 {
		t.Errorf("published %d, want 10", count.Load())
	}
}
