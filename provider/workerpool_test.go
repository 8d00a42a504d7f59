package provider

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPoolCompletesAllTasksUnderSaturation(t *testing.T) {
	pool := NewWorkerPoolWithSize(2, 4, 8, 100*time.Millisecond, 5*time.Second)

	var done int64
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		pool.Submit(func() {
			defer wg.Done()
			atomic.AddInt64(&done, 1)
		})
	}

	wg.Wait()
	pool.Shutdown()

	assert.Equal(t, int64(200), atomic.LoadInt64(&done))
}

func TestWorkerPoolCallerRunsWhenSaturated(t *testing.T) {
	pool := NewWorkerPoolWithSize(1, 1, 1, time.Second, 5*time.Second)
	defer pool.Shutdown()

	block := make(chan struct{})

	// Occupy the only worker
	pool.Submit(func() { <-block })
	// Fill the queue
	pool.Submit(func() {})

	// Give the worker time to pick up the blocker so the queue slot is the
	// only capacity left
	time.Sleep(50 * time.Millisecond)
	pool.Submit(func() {})

	// Pool is now saturated at its ceiling; this task must run on the
	// submitting goroutine before Submit returns.
	ran := false
	pool.Submit(func() { ran = true })
	require.True(t, ran)

	close(block)
}

func TestWorkerPoolGrowsBeyondCoreWorkers(t *testing.T) {
	pool := NewWorkerPoolWithSize(1, 4, 1, time.Second, 5*time.Second)
	defer pool.Shutdown()

	block := make(chan struct{})
	var started int64

	// One blocker for the core worker, one to fill the queue, then more to
	// force extra workers to spawn. One task may sit in the queue until the
	// blockers release; at least three must be running concurrently.
	for i := 0; i < 4; i++ {
		pool.Submit(func() {
			atomic.AddInt64(&started, 1)
			<-block
		})
	}

	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt64(&started) < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	require.GreaterOrEqual(t, atomic.LoadInt64(&started), int64(3))
	assert.GreaterOrEqual(t, pool.Workers(), 3)
	close(block)
}

func TestWorkerPoolShutdownDrainsQueuedTasks(t *testing.T) {
	pool := NewWorkerPoolWithSize(1, 1, 64, time.Second, 5*time.Second)

	var done int64
	for i := 0; i < 50; i++ {
		pool.Submit(func() {
			time.Sleep(time.Millisecond)
			atomic.AddInt64(&done, 1)
		})
	}

	pool.Shutdown()

	assert.Equal(t, int64(50), atomic.LoadInt64(&done))
}

func TestWorkerPoolSubmitAfterShutdownRunsInline(t *testing.T) {
	pool := NewWorkerPoolWithSize(1, 1, 1, time.Second, time.Second)
	pool.Shutdown()

	ran := false
	pool.Submit(func() { ran = true })
	assert.True(t, ran)
}
