package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitDeliversOneResult(t *testing.T) {
	p := New(1)

	done := p.Submit(context.Background(), func(context.Context) error { return nil })

	err, ok := <-done
	require.True(t, ok)
	assert.NoError(t, err)

	_, ok = <-done
	assert.False(t, ok)
}

func TestRunBoundsConcurrency(t *testing.T) {
	p := New(2)

	var running, peak atomic.Int32
	task := func(context.Context) error {
		n := running.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		running.Add(-1)
		return nil
	}

	tasks := make([]Task, 8)
	for i := range tasks {
		tasks[i] = task
	}

	require.NoError(t, p.Run(context.Background(), tasks...))
	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Equal(t, int32(0), running.Load())
}

func TestRunReturnsFirstError(t *testing.T) {
	p := New(4)
	boom := errors.New("boom")

	err := p.Run(context.Background(),
		func(context.Context) error { return nil },
		func(context.Context) error { return boom },
	)
	assert.ErrorIs(t, err, boom)
}

func TestDoRecoversPanics(t *testing.T) {
	p := New(1)

	err := p.Do(context.Background(), func(context.Context) error { panic("bad pixel") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad pixel")

	// The slot was released.
	assert.NoError(t, p.Do(context.Background(), func(context.Context) error { return nil }))
}

func TestDoRespectsCancelledContext(t *testing.T) {
	p := New(1)
	require.NoError(t, p.sem.Acquire(context.Background(), 1))
	defer p.sem.Release(1)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := p.Do(ctx, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewDefaultsToGOMAXPROCS(t *testing.T) {
	assert.Greater(t, New(0).Size(), 0)
}
