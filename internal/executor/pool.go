// Package executor implements the strand-over-pool concurrency primitive
// the core is built on: a fixed-size worker pool plus per-connection
// strands that guarantee at most one task per strand runs at a time
// while distinct strands run in parallel.
package executor

import (
	"sync"
)

// Pool is a fixed-size worker pool shared by every Strand created from it.
// Strands enqueue tasks onto the pool; the pool guarantees nothing about
// ordering across strands, only that a strand's own tasks never overlap.
type Pool struct {
	tasks   chan func()
	wg      sync.WaitGroup
	closeMu sync.Mutex
	closed  bool
}

// NewPool starts a pool with the given number of worker goroutines.
// size is clamped to at least 1.
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	p := &Pool{
		tasks: make(chan func(), size*4),
	}
	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		task()
	}
}

// submit enqueues a raw task onto the pool. Used only by Strand.
func (p *Pool) submit(task func()) {
	p.closeMu.Lock()
	closed := p.closed
	p.closeMu.Unlock()
	if closed {
		return
	}
	p.tasks <- task
}

// Stop drains pending tasks and stops accepting new ones. It does not
// interrupt a task already running.
func (p *Pool) Stop() {
	p.closeMu.Lock()
	if p.closed {
		p.closeMu.Unlock()
		return
	}
	p.closed = true
	p.closeMu.Unlock()
	close(p.tasks)
}

// Join blocks until every worker goroutine has exited. Call after Stop.
func (p *Pool) Join() {
	p.wg.Wait()
}

// Strand is a serial execution context bound to a shared Pool: tasks
// posted to the same Strand run one at a time, in post order, but
// distinct strands may execute concurrently on different pool workers.
//
// A Strand drains its own queue on whichever pool worker happened to
// pick up the drain task; the important property is that only one
// worker ever drains a given strand at a time. draining is set for the
// duration of that drain so RunningInThisThread can answer correctly
// when called synchronously from inside a posted task, which is the
// only place the core ever calls it.
type Strand struct {
	pool *Pool

	mu       sync.Mutex
	queue    []func()
	draining bool
}

// NewStrand creates a strand backed by pool.
func NewStrand(pool *Pool) *Strand {
	return &Strand{pool: pool}
}

// Post enqueues task on the strand. Tasks enqueued to the same strand
// run in enqueue order with at most one active at a time; distinct
// strands may run concurrently.
func (s *Strand) Post(task func()) {
	s.mu.Lock()
	s.queue = append(s.queue, task)
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true
	s.mu.Unlock()
	s.pool.submit(s.drain)
}

// drain runs queued tasks until the queue is empty, then releases the
// strand so a future Post schedules a fresh drain.
func (s *Strand) drain() {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.draining = false
			s.mu.Unlock()
			return
		}
		task := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		task()
	}
}

// RunningInThisThread reports whether the calling goroutine is currently
// inside a task this strand is draining. Only meaningful when called
// synchronously from within a task posted to this strand, which is the
// discipline every public strand-owning entry point in this codebase
// follows.
func (s *Strand) RunningInThisThread() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draining
}
