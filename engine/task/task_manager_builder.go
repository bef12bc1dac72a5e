package task

import "time"

// TaskManagerBuilderOption is a functional option for configuring a TaskManager.
type TaskManagerBuilderOption func(*taskManager)

// WithChannels sets the number of worker channels.
// Values <= 0 are ignored.
//
// Parameters:
//   - n: the channel count (default runtime.NumCPU())
//
// Returns:
//   - TaskManagerBuilderOption: option function to apply
func WithChannels(n int) TaskManagerBuilderOption {
	return func(tm *taskManager) {
		if n > 0 {
			tm.channelCount = n
		}
	}
}

// WithPanicFlushTimeout sets how long a worker waits for Sentry to deliver a panic report.
//
// Parameters:
//   - d: the flush timeout (default 5s)
//
// Returns:
//   - TaskManagerBuilderOption: option function to apply
func WithPanicFlushTimeout(d time.Duration) TaskManagerBuilderOption {
	return func(tm *taskManager) {
		tm.flushTimeout = d
	}
}
