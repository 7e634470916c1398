package client

import "context"

// Task is a pending/settled handle for one asynchronous orchestrator operation.
type Task struct {
	done    chan struct{}
	applied bool
}

func newTask() *Task {
	return &Task{done: make(chan struct{})}
}

// completedTask is returned for guarded no-op events.
func completedTask() *Task {
	t := newTask()
	close(t.done)
	return t
}

func (t *Task) settle(applied bool) {
	t.applied = applied
	close(t.done)
}

// Done is closed once the operation has settled.
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the operation settles or ctx ends.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Applied reports whether the outcome was written to the UI state.
// It is false for no-op events and for completions superseded by a newer event.
// Only meaningful after Done is closed.
func (t *Task) Applied() bool {
	select {
	case <-t.done:
		return t.applied
	default:
		return false
	}
}
