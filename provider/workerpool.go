package provider

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/appleplayground/media-service/config"
)

// WorkerPool is the bounded executor behind the async upload path. A fixed
// set of core workers drains a finite queue; when the queue backs up the
// pool grows up to a ceiling, and beyond that the submitting goroutine runs
// the task itself. Nothing is ever dropped and Submit never blocks
// indefinitely. Extra workers are reclaimed after an idle timeout.
type WorkerPool struct {
	tasks chan func()
	stop  chan struct{}

	minWorkers  int
	maxWorkers  int
	idleTimeout time.Duration
	grace       time.Duration

	workers int32
	pending sync.WaitGroup
	mu      sync.Mutex
	closed  bool
}

func NewWorkerPool(cfg *config.EnvConfig) *WorkerPool {
	cores := runtime.NumCPU()
	return NewWorkerPoolWithSize(
		cores,
		cores*cfg.WorkerPool.SizeMultiplier,
		cfg.WorkerPool.QueueSize,
		cfg.WorkerPool.IdleTimeout,
		cfg.WorkerPool.ShutdownGrace,
	)
}

func NewWorkerPoolWithSize(minWorkers, maxWorkers, queueSize int, idleTimeout, grace time.Duration) *WorkerPool {
	if minWorkers < 1 {
		minWorkers = 1
	}
	if maxWorkers < minWorkers {
		maxWorkers = minWorkers
	}
	if queueSize < 1 {
		queueSize = 1
	}

	p := &WorkerPool{
		tasks:       make(chan func(), queueSize),
		stop:        make(chan struct{}),
		minWorkers:  minWorkers,
		maxWorkers:  maxWorkers,
		idleTimeout: idleTimeout,
		grace:       grace,
	}

	atomic.AddInt32(&p.workers, int32(minWorkers))
	for i := 0; i < minWorkers; i++ {
		go p.coreWorker()
	}

	return p
}

// Submit enqueues a task. If the queue is full the pool grows up to its
// ceiling; if it is already at the ceiling the task runs on the calling
// goroutine. After Shutdown the task also runs on the caller.
func (p *WorkerPool) Submit(task func()) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		task()
		return
	}
	p.pending.Add(1)
	p.mu.Unlock()

	wrapped := func() {
		defer p.pending.Done()
		task()
	}

	select {
	case p.tasks <- wrapped:
		return
	default:
	}

	if p.trySpawnExtra(wrapped) {
		return
	}

	// Caller-runs degradation: saturated queue, pool at ceiling
	wrapped()
}

// Shutdown stops accepting queued work and waits for in-flight and queued
// tasks up to the grace period before abandoning the rest.
func (p *WorkerPool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	close(p.stop)

	done := make(chan struct{})
	go func() {
		p.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(p.grace):
	}
}

// Workers reports the current worker count
func (p *WorkerPool) Workers() int {
	return int(atomic.LoadInt32(&p.workers))
}

func (p *WorkerPool) trySpawnExtra(task func()) bool {
	for {
		cur := atomic.LoadInt32(&p.workers)
		if int(cur) >= p.maxWorkers {
			return false
		}
		if atomic.CompareAndSwapInt32(&p.workers, cur, cur+1) {
			go p.extraWorker(task)
			return true
		}
	}
}

func (p *WorkerPool) coreWorker() {
	for {
		select {
		case task := <-p.tasks:
			task()
		case <-p.stop:
			p.drain()
			return
		}
	}
}

// extraWorker serves its seed task and then stays around until idle
func (p *WorkerPool) extraWorker(first func()) {
	defer atomic.AddInt32(&p.workers, -1)

	first()

	idle := time.NewTimer(p.idleTimeout)
	defer idle.Stop()

	for {
		select {
		case task := <-p.tasks:
			task()
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(p.idleTimeout)
		case <-idle.C:
			return
		case <-p.stop:
			p.drain()
			return
		}
	}
}

func (p *WorkerPool) drain() {
	for {
		select {
		case task := <-p.tasks:
			task()
		default:
			return
		}
	}
}
