package event

import (
	"reflect"
	"sync"
)

// Bus is a deferred, ordered event bus. Events emitted during a tick are
// queued and delivered by Flush at the end of that tick, in emission order
// across all event types. Handlers run on the tick goroutine.
type Bus struct {
	mu       sync.Mutex // only protects handler registration
	queue    []any
	draining []any
	handlers map[reflect.Type][]any
}

func NewBus() *Bus {
	return &Bus{
		queue:    make([]any, 0, 256),
		draining: make([]any, 0, 256),
		handlers: make(map[reflect.Type][]any),
	}
}

// Emit queues an event for delivery at the next Flush.
func Emit[T any](b *Bus, event T) {
	b.queue = append(b.queue, event)
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.handlers[t] = append(b.handlers[t], fn)
}

// Pending returns the number of queued, undelivered events.
func (b *Bus) Pending() int { return len(b.queue) }

// Flush delivers every queued event to its subscribed handlers.
// Events emitted by handlers during a flush are delivered at the next Flush.
func (b *Bus) Flush() {
	b.draining, b.queue = b.queue, b.draining[:0]
	b.mu.Lock()
	handlers := b.handlers
	b.mu.Unlock()
	for _, ev := range b.draining {
		for _, h := range handlers[reflect.TypeOf(ev)] {
			// Safe because Subscribe and Emit use the same type key.
			callHandler(h, ev)
		}
	}
	for i := range b.draining {
		b.draining[i] = nil
	}
	b.draining = b.draining[:0]
}

func callHandler(handler any, event any) {
	reflect.ValueOf(handler).Call([]reflect.Value{reflect.ValueOf(event)})
}
