// Package workpool provides a fixed-size worker pool with
// future-style result retrieval.
//
// A Pool owns n long-lived worker goroutines pulling from one shared
// FIFO queue. Submit enqueues a Task and returns a Future that
// completes exactly once with the task's value or error. Shutdown
// drains: queued tasks still run, new submissions fail with
// ErrPoolClosed, and Join waits for every worker to exit.
//
//	p := workpool.New(4)
//	fut, err := p.Submit(func() (any, error) { return 42, nil })
//	if err != nil { ... }
//	v, err := fut.Result()
//	p.Shutdown()
//	p.Join()
//
// A panic inside a Task is recovered into a *TaskError stored in that
// task's Future; it never terminates the worker or affects other
// tasks.
package workpool
