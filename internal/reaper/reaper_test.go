// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package reaper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

type fakeExecution struct {
	done chan struct{}
}

func (f *fakeExecution) Done() <-chan struct{} { return f.done }
func (f *fakeExecution) Summary() string       { return "fake" }

func TestEnrollStartsDriverOnce(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := New()
	defer r.Close()

	ex := &fakeExecution{done: make(chan struct{})}
	r.Enroll(context.Background(), ex)
	r.Enroll(context.Background(), ex)

	close(ex.done)
}

func TestCloseUnwindsWatchers(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := New()

	ex := &fakeExecution{done: make(chan struct{})}
	r.Enroll(context.Background(), ex)

	done := make(chan struct{})

	go func() {
		r.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not unwind watchers")
	}
}

func TestEnrollAfterCloseDoesNotBlock(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := New()
	r.Close()

	done := make(chan struct{})

	go func() {
		for range 100 {
			r.Enroll(context.Background(), &fakeExecution{done: make(chan struct{})})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Enroll blocked after Close")
	}
}

func TestDefaultIsSingleton(t *testing.T) {
	assert.Same(t, Default(), Default())
}
