package task

import (
	"errors"
	"fmt"
	"log"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/buffer"
	"github.com/getsentry/sentry-go"
)

// MaxTasksInFlight is the number of tasks a channel may run at once.
// Keeping it at one preserves submission order within a channel.
const MaxTasksInFlight = 1

// ErrChannelDisconnected is returned when dispatching to a channel whose worker has failed.
var ErrChannelDisconnected = errors.New("task: channel disconnected")

// TaskManager distributes tasks round-robin over a fixed set of worker channels and feeds their
// results back to the main thread. Every method except Stop must be called from the main thread.
type TaskManager interface {
	// Publish dispatches a task to the next channel with a free slot, or queues it if every channel
	// is busy.
	//
	// Parameters:
	//   - t: the task to run
	//
	// Returns:
	//   - bool: true if the task was dispatched immediately, false if it was queued
	Publish(t Task) bool

	// ProcessQueued dispatches queued tasks in FIFO order into any channel that has a free slot.
	// Dispatch stops for the cycle when a channel turns out to be disconnected; the task stays at
	// the front of the queue.
	ProcessQueued()

	// ProcessCompleted drains every channel's finished results without blocking, handles them,
	// applies their writes to sink and then publishes their follow-up tasks.
	//
	// Parameters:
	//   - sink: where result buffer writes are applied
	//
	// Returns:
	//   - error: the joined errors of every failed write, nil if all succeeded
	ProcessCompleted(sink buffer.Writer) error

	// QueuedTasks returns the number of tasks waiting for a free channel.
	QueuedTasks() int

	// InFlight returns the number of dispatched tasks whose results have not been handled yet.
	InFlight() int

	// Channels returns the number of worker channels.
	Channels() int

	// Disconnected returns the number of channels that have stopped accepting work.
	Disconnected() int

	// Stop shuts every worker channel down. Queued tasks are kept but never dispatched.
	Stop()
}

type taskChannel struct {
	id      int
	pool    worker.DynamicWorkerPool
	results chan TaskResult

	// failed is set by the worker when a task panics; disconnected is its main-thread mirror.
	failed       atomic.Bool
	disconnected bool
	inFlight     int
}

type taskManager struct {
	channelCount   int
	flushTimeout   time.Duration
	channels       []*taskChannel
	queue          []Task
	currentChannel int
	nextTaskID     int
}

var _ TaskManager = &taskManager{}

// NewTaskManager creates a TaskManager and starts its worker channels.
//
// Parameters:
//   - options: functional options for task manager configuration
//
// Returns:
//   - TaskManager: the newly created task manager
func NewTaskManager(options ...TaskManagerBuilderOption) TaskManager {
	tm := &taskManager{
		channelCount: runtime.NumCPU(),
		flushTimeout: time.Second * 5,
	}

	for _, opt := range options {
		opt(tm)
	}

	tm.channels = make([]*taskChannel, tm.channelCount)
	for i := range tm.channels {
		tm.channels[i] = &taskChannel{
			id:      i,
			pool:    worker.NewDynamicWorkerPool(1, MaxTasksInFlight, time.Second),
			results: make(chan TaskResult, MaxTasksInFlight),
		}
	}

	log.Printf("[TaskManager] started %d worker channels", tm.channelCount)
	return tm
}

func (tm *taskManager) Publish(t Task) bool {
	idx, ok := tm.findAvailableChannel()
	if !ok {
		tm.queue = append(tm.queue, t)
		return false
	}
	if err := tm.trySend(t, idx); err != nil {
		tm.queue = append(tm.queue, t)
		return false
	}
	tm.currentChannel = (idx + 1) % len(tm.channels)
	return true
}

func (tm *taskManager) ProcessQueued() {
	for len(tm.queue) > 0 {
		idx, ok := tm.findAvailableChannel()
		if !ok {
			return
		}
		t := tm.queue[0]
		tm.queue = tm.queue[1:]
		if err := tm.trySend(t, idx); err != nil {
			tm.queue = append([]Task{t}, tm.queue...)
			return
		}
		tm.currentChannel = (idx + 1) % len(tm.channels)
	}
}

func (tm *taskManager) ProcessCompleted(sink buffer.Writer) error {
	var followUps []Task
	var errs []error

	for _, ch := range tm.channels {
		if ch.failed.Load() && !ch.disconnected {
			ch.disconnected = true
			ch.inFlight = 0
			log.Printf("[TaskManager] channel %d disconnected", ch.id)
		}

	drain:
		for {
			select {
			case res := <-ch.results:
				ch.inFlight = max(ch.inFlight-1, 0)
				tasks, writes := res.HandleResult()
				if err := buffer.ApplyWrites(sink, writes); err != nil {
					errs = append(errs, err)
				}
				followUps = append(followUps, tasks...)
			default:
				break drain
			}
		}
	}

	for _, t := range followUps {
		tm.Publish(t)
	}
	return errors.Join(errs...)
}

func (tm *taskManager) QueuedTasks() int {
	return len(tm.queue)
}

func (tm *taskManager) InFlight() int {
	total := 0
	for _, ch := range tm.channels {
		total += ch.inFlight
	}
	return total
}

func (tm *taskManager) Channels() int {
	return len(tm.channels)
}

func (tm *taskManager) Disconnected() int {
	n := 0
	for _, ch := range tm.channels {
		if ch.disconnected {
			n++
		}
	}
	return n
}

func (tm *taskManager) Stop() {
	for _, ch := range tm.channels {
		ch.pool.Stop()
		ch.failed.Store(true)
	}
	log.Printf("[TaskManager] stopped with %d queued and %d in flight", len(tm.queue), tm.InFlight())
}

// findAvailableChannel returns the first channel with a free slot, starting at the current channel.
func (tm *taskManager) findAvailableChannel() (int, bool) {
	n := len(tm.channels)
	for i := range n {
		idx := (tm.currentChannel + i) % n
		if tm.channels[idx].inFlight < MaxTasksInFlight {
			return idx, true
		}
	}
	return 0, false
}

func (tm *taskManager) trySend(t Task, idx int) error {
	ch := tm.channels[idx]
	if ch.disconnected || ch.failed.Load() {
		ch.disconnected = true
		ch.inFlight = 0
		// Move past the dead channel so later cycles reach the healthy ones.
		tm.currentChannel = (idx + 1) % len(tm.channels)
		return fmt.Errorf("%w: %d", ErrChannelDisconnected, ch.id)
	}

	ch.inFlight++
	tm.nextTaskID++
	ch.pool.SubmitTask(worker.Task{
		ID:      tm.nextTaskID,
		Payload: t,
		Do: func() (any, error) {
			return nil, tm.run(ch, t)
		},
	})
	return nil
}

// run executes a task on its worker. A panic marks the channel failed and is reported to Sentry;
// the task's result is never delivered.
func (tm *taskManager) run(ch *taskChannel, t Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			ch.failed.Store(true)
			err = fmt.Errorf("task: %T panicked on channel %d: %v", t, ch.id, r)
			log.Printf("[TaskManager] %v", err)

			hub := sentry.CurrentHub().Clone()
			hub.ConfigureScope(func(scope *sentry.Scope) {
				scope.SetTag("task", fmt.Sprintf("%T", t))
				scope.SetTag("channel", fmt.Sprint(ch.id))
			})
			hub.Recover(err)
			hub.Flush(tm.flushTimeout)
		}
	}()

	ch.results <- t.Process()
	return nil
}
