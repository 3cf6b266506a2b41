package dialogue

import "time"

// Timer is a cancellable handle for a deferred task.
type Timer interface {
	// Stop cancels the task if it has not fired yet and reports whether
	// the cancellation took effect.
	Stop() bool
}

// TaskScheduler is the execution seam the engine schedules work through.
// Every group's turn loop is a chain of tasks submitted here, there is no
// dedicated goroutine per group.
type TaskScheduler interface {
	// Submit runs fn asynchronously.
	Submit(fn func())
	// After runs fn once the duration elapses, unless the returned timer
	// is stopped first.
	After(d time.Duration, fn func()) Timer
}

// goScheduler is the default TaskScheduler backed by goroutines and
// runtime timers.
type goScheduler struct{}

func (goScheduler) Submit(fn func()) {
	go fn()
}

func (goScheduler) After(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}
