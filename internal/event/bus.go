package event

import (
	"fmt"
	"runtime/debug"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/Iron-Ham/gtui/internal/logging"
)

// Wildcard subscribes a handler to every event type.
const Wildcard = "*"

// Handler is a function that handles an event.
type Handler func(Event)

type subscription struct {
	id      string
	handler Handler
}

// Bus is a synchronous pub-sub event bus. Handlers run on the publishing
// goroutine, so publishers must not hold locks a handler might need.
type Bus struct {
	mu            sync.RWMutex
	subscriptions map[string][]subscription // eventType -> subscriptions
	nextID        atomic.Uint64
	logger        *logging.Logger
}

// NewBus creates a new event bus. Handler panics are reported to logger;
// a nil logger discards them.
func NewBus(logger *logging.Logger) *Bus {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Bus{
		subscriptions: make(map[string][]subscription),
		logger:        logger,
	}
}

// Subscribe registers a handler for one event type and returns an ID for
// Unsubscribe.
func (b *Bus) Subscribe(eventType string, handler Handler) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := fmt.Sprintf("sub-%d", b.nextID.Add(1))
	b.subscriptions[eventType] = append(b.subscriptions[eventType], subscription{id: id, handler: handler})
	return id
}

// SubscribeAll registers a handler for every event type.
func (b *Bus) SubscribeAll(handler Handler) string {
	return b.Subscribe(Wildcard, handler)
}

// Unsubscribe removes a subscription by ID and reports whether it existed.
func (b *Bus) Unsubscribe(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for eventType, subs := range b.subscriptions {
		i := slices.IndexFunc(subs, func(s subscription) bool { return s.id == id })
		if i < 0 {
			continue
		}
		b.subscriptions[eventType] = slices.Delete(slices.Clone(subs), i, i+1)
		return true
	}
	return false
}

// Publish delivers event to the handlers for its type, then to wildcard
// handlers, each group in registration order. A panicking handler is
// logged and skipped.
func (b *Bus) Publish(event Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	specific := b.subscriptions[event.EventType()]
	wildcard := b.subscriptions[Wildcard]
	b.mu.RUnlock()

	// Unsubscribe replaces slices instead of editing them, so these stay valid.
	for _, sub := range specific {
		b.safeCall(sub.handler, event)
	}
	for _, sub := range wildcard {
		b.safeCall(sub.handler, event)
	}
}

func (b *Bus) safeCall(handler Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				"event", event.EventType(),
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
		}
	}()
	handler(event)
}

// Clear removes all subscriptions.
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscriptions = make(map[string][]subscription)
}

// SubscriptionCount returns the total number of active subscriptions.
func (b *Bus) SubscriptionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := 0
	for _, subs := range b.subscriptions {
		count += len(subs)
	}
	return count
}
