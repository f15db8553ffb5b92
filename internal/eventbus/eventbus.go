// Package eventbus is a small typed publish/subscribe hub used to tell
// renderers about state changes without a UI framework in between.
package eventbus

import (
	"sort"
	"sync"
)

type Handler[T any] func(T)

// Bus delivers events synchronously, in subscription order.
type Bus[T any] struct {
	mu       sync.RWMutex
	handlers map[int]Handler[T]
	nextID   int
}

func New[T any]() *Bus[T] {
	return &Bus[T]{handlers: make(map[int]Handler[T])}
}

// Subscribe registers a handler and returns the function that removes it.
func (b *Bus[T]) Subscribe(handler Handler[T]) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = handler
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
	}
}

// Publish calls every handler before returning. The lock is not held while
// handlers run, so a handler may subscribe, unsubscribe or publish again.
func (b *Bus[T]) Publish(event T) {
	b.mu.RLock()
	ids := make([]int, 0, len(b.handlers))
	for id := range b.handlers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	snapshot := make([]Handler[T], 0, len(ids))
	for _, id := range ids {
		snapshot = append(snapshot, b.handlers[id])
	}
	b.mu.RUnlock()

	for _, h := range snapshot {
		h(event)
	}
}

func (b *Bus[T]) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}
