package workpool

// Future holds the eventual outcome of one submitted Task. It is
// written exactly once, by the worker that executed the task; the
// close of the done channel publishes the value and error to any
// number of readers.
type Future struct {
	done chan struct{}
	val  any
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Done returns a channel that is closed once the task has finished.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Result blocks until the task has finished and returns its value and
// error. It may be called any number of times, from any goroutine.
func (f *Future) Result() (any, error) {
	<-f.done
	return f.val, f.err
}

func (f *Future) complete(val any, err error) {
	f.val = val
	f.err = err
	close(f.done)
}
