// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runnable

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func newTestHandle(t *testing.T, wait WaitFunc) *Handle {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())

	return NewHandle(ctx, cancel, "test", nil, wait)
}

func TestHandleResolvesResult(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := newTestHandle(t, func() (int, error) { return 0, nil })

	res, err := h.Wait(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, 0, res.ExitCode)
	assert.True(t, res.Success())
	assert.False(t, h.Terminated())
}

func TestHandleReplaysResultToLateWaiters(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := newTestHandle(t, func() (int, error) { return 3, nil })

	first, err := h.Wait(context.Background())
	require.NoError(t, err)

	// A waiter arriving after completion sees the identical cached value.
	second, err := h.Wait(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestHandleConcurrentWaitersSeeSameResult(t *testing.T) {
	defer goleak.VerifyNone(t)

	release := make(chan struct{})
	h := newTestHandle(t, func() (int, error) {
		<-release
		return 7, nil
	})

	const waiters = 8

	results := make([]*ExecutionResult, waiters)

	var wg sync.WaitGroup

	wg.Add(waiters)

	for i := range waiters {
		go func() {
			defer wg.Done()

			res, err := h.Wait(context.Background())
			assert.NoError(t, err)
			results[i] = res
		}()
	}

	close(release)
	wg.Wait()

	for i := 1; i < waiters; i++ {
		assert.Same(t, results[0], results[i])
	}
}

func TestHandleCancelResolvesTerminated(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	h := NewHandle(ctx, cancel, "blocked", nil, func() (int, error) {
		<-ctx.Done()
		return 0, nil
	})

	h.Cancel()

	res, err := h.Wait(context.Background())
	require.ErrorIs(t, err, ErrTerminated)
	assert.Nil(t, res)
	assert.True(t, h.Terminated())
}

func TestHandleCancelIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	h := NewHandle(ctx, cancel, "blocked", nil, func() (int, error) {
		<-ctx.Done()
		return 0, nil
	})

	h.Cancel()
	h.Cancel()
	h.Cancel()

	_, err := h.Wait(context.Background())
	require.ErrorIs(t, err, ErrTerminated)
}

func TestHandleCancelAfterResolutionIsNoOp(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := newTestHandle(t, func() (int, error) { return 0, nil })

	res, err := h.Wait(context.Background())
	require.NoError(t, err)

	h.Cancel()

	again, err := h.Wait(context.Background())
	require.NoError(t, err)
	assert.Same(t, res, again)
	assert.False(t, h.Terminated())
}

func TestHandleResultPeekDoesNotBlock(t *testing.T) {
	defer goleak.VerifyNone(t)

	release := make(chan struct{})
	h := newTestHandle(t, func() (int, error) {
		<-release
		return 0, nil
	})

	_, ok, _ := h.Result()
	assert.False(t, ok)

	close(release)

	_, err := h.Wait(context.Background())
	require.NoError(t, err)

	res, ok, err := h.Result()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotNil(t, res)
}

func TestHandleWaitHonorsCallerContext(t *testing.T) {
	release := make(chan struct{})
	h := newTestHandle(t, func() (int, error) {
		<-release
		return 0, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := h.Wait(ctx)
	require.True(t, errors.Is(err, context.DeadlineExceeded))

	// The handle itself is unaffected by a waiter's context expiry.
	close(release)

	_, err = h.Wait(context.Background())
	require.NoError(t, err)
}

func TestHandleRuntimeFailureIsAValue(t *testing.T) {
	defer goleak.VerifyNone(t)

	errBoom := errors.New("boom")
	h := newTestHandle(t, func() (int, error) { return -1, errBoom })

	res, err := h.Wait(context.Background())
	require.NoError(t, err, "runtime failure must resolve to a value, not an error")
	require.NotNil(t, res)
	assert.ErrorIs(t, res.Error, errBoom)
	assert.False(t, res.Success())
}
