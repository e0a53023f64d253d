// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package linefeed provides an in-memory fan-out for lines of process output.
// Producers never block: each subscriber owns an unbounded queue that is
// drained into its delivery channel by a dedicated pump goroutine. A hub with
// no subscribers discards published lines.
package linefeed

import "sync"

// Hub multiplexes lines from any number of producers to any number of
// subscribers. It is safe for concurrent use.
type Hub struct {
	mu     sync.Mutex
	subs   map[int]*Subscription
	nextID int
	closed bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subs: make(map[int]*Subscription),
	}
}

// Publish delivers line to every current subscriber. It never blocks.
// Publishing to a closed hub is a no-op.
func (h *Hub) Publish(line string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	for _, sub := range h.subs {
		sub.enqueue(line)
	}
}

// Subscribe registers a new subscriber. Lines published before the
// subscription are not replayed. Callers must either drain the subscription
// until its channel closes or call Cancel to release the pump goroutine.
func (h *Hub) Subscribe() *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := &Subscription{
		hub:  h,
		id:   h.nextID,
		out:  make(chan string),
		quit: make(chan struct{}),
	}
	sub.cond = sync.NewCond(&sub.mu)
	h.nextID++

	if h.closed {
		// The feed already ended; deliver the closed channel immediately.
		sub.done = true
	} else {
		h.subs[sub.id] = sub
	}

	go sub.pump()

	return sub
}

// Close marks the feed as ended. Subscribers receive all previously published
// lines and then their channels close. Close is idempotent.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	h.closed = true

	for id, sub := range h.subs {
		sub.finish()
		delete(h.subs, id)
	}
}

// Subscription is a single consumer's view of the hub's line feed.
type Subscription struct {
	hub  *Hub
	id   int
	out  chan string
	quit chan struct{}

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []string
	done   bool // no further lines will be enqueued
	cancel sync.Once
}

// Lines returns the delivery channel. It is closed once the feed ends and all
// queued lines have been delivered, or when the subscription is cancelled.
func (s *Subscription) Lines() <-chan string {
	return s.out
}

// Cancel detaches the subscription from the hub and releases its pump.
// Lines still queued are discarded. Cancel is idempotent.
func (s *Subscription) Cancel() {
	s.cancel.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s.id)
		s.hub.mu.Unlock()

		close(s.quit)

		s.mu.Lock()
		s.done = true
		s.cond.Signal()
		s.mu.Unlock()
	})
}

func (s *Subscription) enqueue(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return
	}

	s.queue = append(s.queue, line)
	s.cond.Signal()
}

func (s *Subscription) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.done = true
	s.cond.Signal()
}

func (s *Subscription) pump() {
	defer close(s.out)

	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.done {
			s.cond.Wait()
		}

		if len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}

		batch := s.queue
		s.queue = nil
		s.mu.Unlock()

		for _, line := range batch {
			select {
			case <-s.quit:
				return
			default:
			}

			select {
			case s.out <- line:
			case <-s.quit:
				return
			}
		}
	}
}
