package task

import (
	"bytes"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/buffer"
	"github.com/cogentcore/webgpu/wgpu"
)

// gatedTask blocks its worker until gate is closed.
type gatedTask struct {
	gate   chan struct{}
	result TaskResult
}

func (g *gatedTask) Process() TaskResult {
	<-g.gate
	if g.result != nil {
		return g.result
	}
	return ResultFunc(func() ([]Task, []buffer.BufferWrite) { return nil, nil })
}

func newGated(n int) []*gatedTask {
	tasks := make([]*gatedTask, n)
	for i := range tasks {
		tasks[i] = &gatedTask{gate: make(chan struct{})}
	}
	return tasks
}

// waitFor polls ProcessCompleted until cond holds or the deadline passes.
func waitFor(t *testing.T, tm TaskManager, sink buffer.Writer, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if err := tm.ProcessCompleted(sink); err != nil {
			t.Fatalf("ProcessCompleted: %v", err)
		}
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not reached before deadline")
}

func TestPublishDispatchesAndQueues(t *testing.T) {
	tm := NewTaskManager(WithChannels(2), WithPanicFlushTimeout(0))
	t.Cleanup(tm.Stop)
	sink := buffer.NewMemoryBufferRegistry()

	tasks := newGated(5)
	var dispatched []bool
	for _, g := range tasks {
		dispatched = append(dispatched, tm.Publish(g))
	}
	want := []bool{true, true, false, false, false}
	for i := range want {
		if dispatched[i] != want[i] {
			t.Fatalf("Publish results = %v, want %v", dispatched, want)
		}
	}
	if tm.InFlight() != 2 || tm.QueuedTasks() != 3 {
		t.Fatalf("in flight %d queued %d, want 2 and 3", tm.InFlight(), tm.QueuedTasks())
	}

	tm.ProcessQueued()
	if tm.QueuedTasks() != 3 {
		t.Fatalf("ProcessQueued dispatched into busy channels, queued = %d", tm.QueuedTasks())
	}

	close(tasks[0].gate)
	waitFor(t, tm, sink, func() bool { return tm.InFlight() == 1 })

	tm.ProcessQueued()
	if tm.InFlight() != 2 || tm.QueuedTasks() != 2 {
		t.Fatalf("in flight %d queued %d, want 2 and 2", tm.InFlight(), tm.QueuedTasks())
	}

	for _, g := range tasks[1:] {
		close(g.gate)
	}
	waitFor(t, tm, sink, func() bool {
		tm.ProcessQueued()
		return tm.InFlight() == 0 && tm.QueuedTasks() == 0
	})
}

func TestProcessCompletedAppliesWritesAndFollowUps(t *testing.T) {
	tm := NewTaskManager(WithChannels(1), WithPanicFlushTimeout(0))
	t.Cleanup(tm.Stop)
	sink := buffer.NewMemoryBufferRegistry()
	if err := sink.Create("out", 4, wgpu.BufferUsageStorage); err != nil {
		t.Fatalf("Create: %v", err)
	}

	second := TaskFunc(func() TaskResult {
		return ResultFunc(func() ([]Task, []buffer.BufferWrite) {
			return nil, []buffer.BufferWrite{{Buffer: "out", Offset: 1, Data: []byte{2}}}
		})
	})
	first := TaskFunc(func() TaskResult {
		return ResultFunc(func() ([]Task, []buffer.BufferWrite) {
			return []Task{second}, []buffer.BufferWrite{{Buffer: "out", Offset: 0, Data: []byte{1}}}
		})
	})

	if !tm.Publish(first) {
		t.Fatal("first task not dispatched")
	}
	waitFor(t, tm, sink, func() bool {
		got, _ := sink.Contents("out")
		return bytes.Equal(got, []byte{1, 2, 0, 0}) && tm.InFlight() == 0
	})
}

func TestProcessCompletedReportsWriteErrors(t *testing.T) {
	tm := NewTaskManager(WithChannels(1), WithPanicFlushTimeout(0))
	t.Cleanup(tm.Stop)
	sink := buffer.NewMemoryBufferRegistry()

	tm.Publish(TaskFunc(func() TaskResult {
		return ResultFunc(func() ([]Task, []buffer.BufferWrite) {
			return nil, []buffer.BufferWrite{{Buffer: "missing", Data: []byte{1}}}
		})
	}))

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if err := tm.ProcessCompleted(sink); err != nil {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("write to an unknown buffer was not reported")
}

func TestPanickingTaskDisconnectsChannel(t *testing.T) {
	tm := NewTaskManager(WithChannels(1), WithPanicFlushTimeout(0))
	t.Cleanup(tm.Stop)
	sink := buffer.NewMemoryBufferRegistry()

	tm.Publish(TaskFunc(func() TaskResult {
		panic("boom")
	}))
	waitFor(t, tm, sink, func() bool { return tm.Disconnected() == 1 })
	if tm.InFlight() != 0 {
		t.Fatalf("in flight = %d after disconnect", tm.InFlight())
	}

	next := newGated(2)
	if tm.Publish(next[0]) {
		t.Fatal("task dispatched to a disconnected channel")
	}
	tm.Publish(next[1])
	tm.ProcessQueued()
	if tm.QueuedTasks() != 2 {
		t.Fatalf("queued = %d, want 2", tm.QueuedTasks())
	}
}

func TestDisconnectedChannelIsSkippedNextCycle(t *testing.T) {
	tm := NewTaskManager(WithChannels(2), WithPanicFlushTimeout(0))
	t.Cleanup(tm.Stop)
	sink := buffer.NewMemoryBufferRegistry()

	tm.Publish(TaskFunc(func() TaskResult { panic("boom") }))
	waitFor(t, tm, sink, func() bool { return tm.Disconnected() == 1 })

	ok := TaskFunc(func() TaskResult {
		return ResultFunc(func() ([]Task, []buffer.BufferWrite) { return nil, nil })
	})
	tm.Publish(ok)
	tm.Publish(ok)
	waitFor(t, tm, sink, func() bool {
		tm.ProcessQueued()
		return tm.QueuedTasks() == 0 && tm.InFlight() == 0
	})
}

func TestProcessQueuedAdvancesRoundRobin(t *testing.T) {
	tm := NewTaskManager(WithChannels(3), WithPanicFlushTimeout(0))
	t.Cleanup(tm.Stop)
	sink := buffer.NewMemoryBufferRegistry()
	impl := tm.(*taskManager)

	tasks := newGated(4)
	for _, g := range tasks {
		tm.Publish(g)
	}
	if impl.currentChannel != 0 {
		t.Fatalf("cursor after filling every channel = %d, want 0", impl.currentChannel)
	}

	// tasks[0] runs on channel 0; freeing it lets the queued task take that channel.
	close(tasks[0].gate)
	waitFor(t, tm, sink, func() bool { return tm.InFlight() == 2 })
	tm.ProcessQueued()
	if tm.QueuedTasks() != 0 || impl.channels[0].inFlight != 1 {
		t.Fatalf("queued %d, channel 0 in flight %d", tm.QueuedTasks(), impl.channels[0].inFlight)
	}
	if impl.currentChannel != 1 {
		t.Fatalf("cursor after queued dispatch = %d, want 1", impl.currentChannel)
	}

	for _, g := range tasks[1:] {
		close(g.gate)
	}
	waitFor(t, tm, sink, func() bool { return tm.InFlight() == 0 })
}
