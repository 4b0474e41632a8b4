package runtime

import (
	"context"
	"errors"
	"sync"
)

// ErrPoolClosed is returned by futures submitted after Shutdown.
var ErrPoolClosed = errors.New("pool: shut down")

// Runner is the one-question entry point the pool hosts; *Handle satisfies
// it, tests substitute stubs.
type Runner interface {
	Run(ctx context.Context, question string) (string, error)
}

// Future resolves exactly once with the invocation's answer or error.
type Future struct {
	done   chan struct{}
	answer string
	err    error
}

// Wait blocks until the invocation finishes.
func (f *Future) Wait() (string, error) {
	<-f.done
	return f.answer, f.err
}

// Pool runs agent invocations on a fixed set of workers so a long
// synchronous run never blocks the caller. Invocations are independent;
// there is no ordering guarantee between them and no cancellation of a
// run once a worker has picked it up.
type Pool struct {
	jobs chan job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.RWMutex
	closed bool
}

type job struct {
	ctx      context.Context
	runner   Runner
	question string
	future   *Future
}

func NewPool(size int) *Pool {
	if size <= 0 {
		size = 4
	}
	p := &Pool{jobs: make(chan job)}
	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for j := range p.jobs {
		j.future.answer, j.future.err = j.runner.Run(j.ctx, j.question)
		close(j.future.done)
	}
}

// Submit queues one invocation and returns its future. Blocks only while
// every worker is busy and the queue is full, or until ctx is done. After
// Shutdown the future resolves immediately with ErrPoolClosed.
func (p *Pool) Submit(ctx context.Context, r Runner, question string) *Future {
	f := &Future{done: make(chan struct{})}

	// The read lock is held across the send so Shutdown cannot close the
	// channel under an in-flight Submit.
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		f.err = ErrPoolClosed
		close(f.done)
		return f
	}

	j := job{ctx: ctx, runner: r, question: question, future: f}
	select {
	case p.jobs <- j:
	case <-ctx.Done():
		f.err = ctx.Err()
		close(f.done)
	}
	return f
}

// Shutdown stops accepting work and waits for in-flight invocations.
func (p *Pool) Shutdown() {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
		close(p.jobs)
	})
	p.wg.Wait()
}
