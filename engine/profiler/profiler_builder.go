package profiler

import "time"

// ProfilerBuilderOption is a functional option for configuring a Profiler.
type ProfilerBuilderOption func(*Profiler)

// WithUpdateInterval sets how often statistics are logged.
//
// Parameters:
//   - d: the interval (default 1s)
//
// Returns:
//   - ProfilerBuilderOption: option function to apply
func WithUpdateInterval(d time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.updateInterval = d
	}
}

// WithSnapshot sets the function queried for engine state each time statistics are logged.
//
// Parameters:
//   - fn: the snapshot function
//
// Returns:
//   - ProfilerBuilderOption: option function to apply
func WithSnapshot(fn func() Snapshot) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.snapshot = fn
	}
}
