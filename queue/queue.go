// Package queue serializes all privileged platform mutations behind a single
// worker so the bot never has two role or message mutations in flight at once.
// The external rate limit is global, so the pacing is deliberately coarse:
// strictly one task per interval, FIFO, no per-member sharding.
package queue

import (
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Task is a unit of privileged work. Label identifies it in audit reports.
type Task struct {
	Label string
	Run   func() error
}

// ReportFunc receives the final outcome of every dispatched task. Callers of
// Enqueue are never notified; the report is the only record of failure.
type ReportFunc func(label string, err error)

// ActionQueue dispatches enqueued tasks one at a time at a fixed pace.
type ActionQueue struct {
	// RetryBaseDelay overrides the first retry delay. Zero means one second.
	RetryBaseDelay time.Duration

	mu    sync.Mutex
	tasks []Task

	interval    time.Duration
	isTransient func(error) bool
	report      ReportFunc

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a queue dispatching one task per interval. isTransient decides
// which task errors are retried; report receives every task outcome. Both may
// be nil (no retries, log-only reporting).
func New(interval time.Duration, isTransient func(error) bool, report ReportFunc) *ActionQueue {
	if isTransient == nil {
		isTransient = func(error) bool { return false }
	}
	if report == nil {
		report = func(label string, err error) {
			if err != nil {
				log.Printf("[Queue] Task %s failed: %v", label, err)
			}
		}
	}
	return &ActionQueue{
		interval:    interval,
		isTransient: isTransient,
		report:      report,
		done:        make(chan struct{}),
	}
}

// Start launches the worker goroutine.
func (q *ActionQueue) Start() {
	q.wg.Add(1)
	go q.work()
}

// Stop halts dispatch. Queued tasks that have not started are dropped;
// an in-flight task finishes on its own retry policy.
func (q *ActionQueue) Stop() {
	q.stopOnce.Do(func() { close(q.done) })
	q.wg.Wait()
}

// Enqueue appends a task. Fire-and-forget: the eventual outcome goes to the
// report sink, never back to the caller.
func (q *ActionQueue) Enqueue(label string, run func() error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, Task{Label: label, Run: run})
}

// Len returns the number of tasks waiting for dispatch.
func (q *ActionQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

func (q *ActionQueue) dequeue() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tasks) == 0 {
		return Task{}, false
	}
	t := q.tasks[0]
	q.tasks = q.tasks[1:]
	return t, true
}

func (q *ActionQueue) work() {
	defer q.wg.Done()
	ticker := time.NewTicker(q.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			task, ok := q.dequeue()
			if !ok {
				continue
			}
			q.report(task.Label, q.execute(task))
		case <-q.done:
			return
		}
	}
}

// execute runs a task, retrying transient failures with exponential backoff
// (base 1s x 1.6 per attempt, 3 attempts total). Non-transient failures are
// surfaced immediately without consuming a retry.
func (q *ActionQueue) execute(task Task) error {
	base := q.RetryBaseDelay
	if base == 0 {
		base = time.Second
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = base
	bo.Multiplier = 1.6
	bo.RandomizationFactor = 0

	return backoff.Retry(func() error {
		err := task.Run()
		if err == nil {
			return nil
		}
		if q.isTransient(err) {
			log.Printf("[Queue] Transient error in task %s, retrying: %v", task.Label, err)
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithMaxRetries(bo, 2))
}
