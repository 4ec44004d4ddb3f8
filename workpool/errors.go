package workpool

import (
	"errors"
	"fmt"
)

// ErrPoolClosed is returned by Submit once Shutdown has begun.
var ErrPoolClosed = errors.New("workpool: pool closed")

// TaskError wraps a panic recovered while executing a task. It is
// stored in the task's Future and never propagates out of the worker.
type TaskError struct {
	// Value is the value the task panicked with.
	Value any
	// Stack is the goroutine stack captured at recovery.
	Stack []byte
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("workpool: task panicked: %v", e.Value)
}
