// Package reactive provides the observable value cells waypoint uses for the
// current route and the history adapter's location and state.
package reactive

import (
	"sync"
	"sync/atomic"
)

// Readable is the read-only view of a Cell handed to collaborators.
type Readable[T any] interface {
	// Get returns the current value.
	Get() T

	// Subscribe registers fn to be called with every new value. The returned
	// function removes the subscription.
	Subscribe(fn func(T)) (unsubscribe func())
}

type subscriber[T any] struct {
	id uint64
	fn func(T)
}

// Cell is a single-writer observable value. Subscribers run on the writer's
// goroutine, after the value is stored, in subscription order.
type Cell[T any] struct {
	// value is the current value.
	value T

	// mu protects value and version.
	mu      sync.RWMutex
	version uint64

	// subs are notified on every Set.
	subs   []subscriber[T]
	subMu  sync.RWMutex
	nextID atomic.Uint64
}

// NewCell creates a cell holding initial.
func NewCell[T any](initial T) *Cell[T] {
	return &Cell[T]{value: initial}
}

// Get returns the current value.
func (c *Cell[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Version returns how many times the cell has been written.
func (c *Cell[T]) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Set stores v and notifies subscribers.
func (c *Cell[T]) Set(v T) {
	c.mu.Lock()
	c.value = v
	c.version++
	c.mu.Unlock()

	c.notify(v)
}

// Update replaces the value with fn(current) and notifies subscribers.
func (c *Cell[T]) Update(fn func(T) T) {
	c.mu.Lock()
	v := fn(c.value)
	c.value = v
	c.version++
	c.mu.Unlock()

	c.notify(v)
}

// Subscribe implements Readable.
func (c *Cell[T]) Subscribe(fn func(T)) func() {
	if fn == nil {
		return func() {}
	}
	id := c.nextID.Add(1)

	c.subMu.Lock()
	c.subs = append(c.subs, subscriber[T]{id: id, fn: fn})
	c.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { c.unsubscribe(id) })
	}
}

func (c *Cell[T]) unsubscribe(id uint64) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for i, s := range c.subs {
		if s.id == id {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			return
		}
	}
}

// notify copies the subscriber list so callbacks run without holding locks.
func (c *Cell[T]) notify(v T) {
	c.subMu.RLock()
	subs := make([]subscriber[T], len(c.subs))
	copy(subs, c.subs)
	c.subMu.RUnlock()

	for _, s := range subs {
		s.fn(v)
	}
}

// ReadOnly returns a view of c that cannot be converted back into the
// writable cell.
func (c *Cell[T]) ReadOnly() Readable[T] {
	return view[T]{c: c}
}

// view hides the writer methods of a Cell.
type view[T any] struct {
	c *Cell[T]
}

func (v view[T]) Get() T { return v.c.Get() }

func (v view[T]) Subscribe(fn func(T)) (unsubscribe func()) { return v.c.Subscribe(fn) }
