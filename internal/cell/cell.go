// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cell provides a shared observable state cell: a mutex-guarded value
// with optional change notification. It is deliberately free of any UI or
// reactive-framework coupling so that hosts can inject their own observers.
package cell

import "sync"

// Cell holds a single value of type T behind a mutex.
// Reads return a snapshot; updates run inside the cell's critical section so
// that concurrent updaters observe a consistent state.
type Cell[T any] struct {
	mu     sync.Mutex
	value  T
	subs   map[int]func(T)
	nextID int
}

// New creates a cell holding the given initial value.
func New[T any](value T) *Cell[T] {
	return &Cell[T]{
		value: value,
		subs:  make(map[int]func(T)),
	}
}

// Read returns a snapshot of the current value.
func (c *Cell[T]) Read() T {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.value
}

// Update applies fn to the current value inside the critical section.
// If fn returns an error the value is left unchanged and no subscribers are
// notified. The returned value is the cell's value after the call.
func (c *Cell[T]) Update(fn func(T) (T, error)) (T, error) {
	c.mu.Lock()

	next, err := fn(c.value)
	if err != nil {
		v := c.value
		c.mu.Unlock()

		return v, err
	}

	c.value = next

	notify := make([]func(T), 0, len(c.subs))
	for _, sub := range c.subs {
		notify = append(notify, sub)
	}

	c.mu.Unlock()

	// Subscribers run outside the lock so they may call back into the cell.
	for _, sub := range notify {
		sub(next)
	}

	return next, nil
}

// Subscribe registers fn to be called with the new value after every
// successful update. It returns a cancel function that removes the
// subscription.
func (c *Cell[T]) Subscribe(fn func(T)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	c.subs[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}
