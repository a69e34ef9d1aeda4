// Package latest provides a single-slot "most recent value" cell used to hand
// data from a producer goroutine to a consumer that must never block on it.
package latest

import "sync"

// Cell holds the most recently stored value. Stores overwrite, loads never
// block and never consume: a reader that runs faster than the writer sees the
// same value again, a slower reader skips intermediate ones.
type Cell[T any] struct {
	mu      sync.RWMutex
	value   T
	version uint64
}

// Store replaces the held value.
func (c *Cell[T]) Store(v T) {
	c.mu.Lock()
	c.value = v
	c.version++
	c.mu.Unlock()
}

// Load returns the held value and whether anything has been stored yet.
func (c *Cell[T]) Load() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value, c.version > 0
}

// LoadOr returns the held value, or fallback if nothing has been stored.
func (c *Cell[T]) LoadOr(fallback T) T {
	v, ok := c.Load()
	if !ok {
		return fallback
	}
	return v
}

// Version returns how many times Store has been called.
func (c *Cell[T]) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Reset empties the cell.
func (c *Cell[T]) Reset() {
	c.mu.Lock()
	var zero T
	c.value = zero
	c.version = 0
	c.mu.Unlock()
}
