package queue_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"verify-bot/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type span struct {
	label string
	start time.Time
	end   time.Time
}

func TestDispatchIsSerializedAndFIFO(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		spans []span
	)
	record := func(label string, d time.Duration) func() error {
		return func() error {
			start := time.Now()
			time.Sleep(d)
			mu.Lock()
			spans = append(spans, span{label: label, start: start, end: time.Now()})
			mu.Unlock()
			return nil
		}
	}

	done := make(chan struct{})
	var reported int
	q := queue.New(20*time.Millisecond, nil, func(string, error) {
		mu.Lock()
		reported++
		if reported == 3 {
			close(done)
		}
		mu.Unlock()
	})
	q.Start()
	defer q.Stop()

	q.Enqueue("a", record("a", 30*time.Millisecond))
	q.Enqueue("b", record("b", 30*time.Millisecond))
	q.Enqueue("c", record("c", 0))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("queue did not drain in time")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, spans, 3)
	assert.Equal(t, "a", spans[0].label)
	assert.Equal(t, "b", spans[1].label)
	assert.Equal(t, "c", spans[2].label)
	for i := 1; i < len(spans); i++ {
		assert.False(t, spans[i].start.Before(spans[i-1].end),
			"task %s started before %s finished", spans[i].label, spans[i-1].label)
	}
}

func TestTransientErrorsAreRetried(t *testing.T) {
	t.Parallel()

	transient := errors.New("connect timeout")
	var attempts int
	done := make(chan error, 1)

	q := queue.New(10*time.Millisecond, func(err error) bool {
		return errors.Is(err, transient)
	}, func(_ string, err error) {
		done <- err
	})
	q.RetryBaseDelay = 5 * time.Millisecond
	q.Start()
	defer q.Stop()

	q.Enqueue("flaky", func() error {
		attempts++
		if attempts < 3 {
			return transient
		}
		return nil
	})

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("task did not finish in time")
	}
	assert.Equal(t, 3, attempts)
}

func TestTransientRetriesAreBounded(t *testing.T) {
	t.Parallel()

	transient := errors.New("connect timeout")
	var attempts int
	done := make(chan error, 1)

	q := queue.New(10*time.Millisecond, func(err error) bool {
		return errors.Is(err, transient)
	}, func(_ string, err error) {
		done <- err
	})
	q.RetryBaseDelay = 5 * time.Millisecond
	q.Start()
	defer q.Stop()

	q.Enqueue("always-failing", func() error {
		attempts++
		return transient
	})

	select {
	case err := <-done:
		require.ErrorIs(t, err, transient)
	case <-time.After(5 * time.Second):
		t.Fatal("task did not finish in time")
	}
	assert.Equal(t, 3, attempts, "3 attempts total, then give up")
}

func TestPermanentErrorsAreNotRetried(t *testing.T) {
	t.Parallel()

	permanent := errors.New("missing permissions")
	var attempts int
	done := make(chan error, 1)

	q := queue.New(10*time.Millisecond, func(err error) bool { return false },
		func(_ string, err error) { done <- err })
	q.Start()
	defer q.Stop()

	q.Enqueue("forbidden", func() error {
		attempts++
		return permanent
	})

	select {
	case err := <-done:
		require.ErrorIs(t, err, permanent)
	case <-time.After(5 * time.Second):
		t.Fatal("task did not finish in time")
	}
	assert.Equal(t, 1, attempts)
}
