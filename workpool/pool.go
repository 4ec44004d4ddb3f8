package workpool

import (
	"runtime"
	"sync"

	"servex.dev/go/engine/internal/obs"
)

// Task is an opaque zero-argument unit of work. Ownership moves to the
// pool at Submit; exactly one worker executes it exactly once.
type Task func() (any, error)

type job struct {
	task Task
	fut  *Future
}

// Pool is a fixed set of workers sharing one FIFO task queue.
type Pool struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []job
	closing bool

	wg   sync.WaitGroup
	size int

	log   obs.Logger
	meter obs.Meter
}

// Option configures a Pool at construction.
type Option func(*Pool)

// WithLogger sets the logger used for recovered task panics.
func WithLogger(l obs.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.log = l
		}
	}
}

// WithMeter sets the meter used for task completion counters.
func WithMeter(m obs.Meter) Option {
	return func(p *Pool) {
		if m != nil {
			p.meter = m
		}
	}
}

// New creates a pool with n workers, each entering its run loop
// immediately. n below 1 is clamped to 1.
func New(n int, opts ...Option) *Pool {
	if n < 1 {
		n = 1
	}
	p := &Pool{
		size:  n,
		log:   obs.NopLogger{},
		meter: obs.NopMeter{},
	}
	p.cond = sync.NewCond(&p.mu)
	for _, opt := range opts {
		opt(p)
	}
	p.wg.Add(n)
	for i := 0; i < n; i++ {
		go p.run(i)
	}
	return p
}

// Size returns the worker count fixed at construction.
func (p *Pool) Size() int { return p.size }

// Submit appends task to the queue and wakes one idle worker. It
// returns immediately with a Future for the eventual result. After
// Shutdown has begun it fails with ErrPoolClosed; a submission that
// succeeds is never lost.
func (p *Pool) Submit(task Task) (*Future, error) {
	fut := newFuture()
	p.mu.Lock()
	if p.closing {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	p.queue = append(p.queue, job{task: task, fut: fut})
	p.mu.Unlock()
	p.cond.Signal()
	return fut, nil
}

// Shutdown stops the pool accepting new work and wakes all workers.
// Tasks already queued still execute before the workers exit.
// Shutdown is idempotent.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	p.closing = true
	p.mu.Unlock()
	p.cond.Broadcast()
}

// Join blocks until every worker has exited. Call it only after
// Shutdown.
func (p *Pool) Join() {
	p.wg.Wait()
}

func (p *Pool) run(id int) {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closing {
			p.cond.Wait()
		}
		if p.closing && len(p.queue) == 0 {
			p.mu.Unlock()
			return
		}
		j := p.queue[0]
		p.queue = p.queue[1:]
		p.mu.Unlock()

		// Run outside the lock so a slow task never blocks
		// producers or the other workers.
		val, err := p.execute(id, j.task)
		j.fut.complete(val, err)
		if err != nil {
			p.meter.Counter("workpool.tasks.failed", 1)
		} else {
			p.meter.Counter("workpool.tasks.completed", 1)
		}
	}
}

// execute runs one task, converting a panic into a *TaskError so the
// worker loop itself never unwinds.
func (p *Pool) execute(id int, task Task) (val any, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			err = &TaskError{Value: r, Stack: buf[:n]}
			p.log.Logf(obs.Error, "worker %d: task panic: %v", id, r)
		}
	}()
	return task()
}
