package task

import (
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/buffer"
)

// Task is a unit of work executed on a worker channel.
// Process runs off the main thread and must not touch main-thread-owned state.
type Task interface {
	Process() TaskResult
}

// TaskResult is the outcome of a Task. HandleResult runs on the main thread during
// TaskManager.ProcessCompleted and may mutate main-thread-owned state.
type TaskResult interface {
	// HandleResult consumes the result.
	//
	// Returns:
	//   - []Task: follow-up tasks to publish once every result of the cycle is handled
	//   - []buffer.BufferWrite: buffer writes to apply immediately
	HandleResult() ([]Task, []buffer.BufferWrite)
}

// TaskFunc adapts a plain function into a Task.
type TaskFunc func() TaskResult

// Process calls f.
func (f TaskFunc) Process() TaskResult {
	return f()
}

// ResultFunc adapts a plain function into a TaskResult.
type ResultFunc func() ([]Task, []buffer.BufferWrite)

// HandleResult calls f.
func (f ResultFunc) HandleResult() ([]Task, []buffer.BufferWrite) {
	return f()
}
