package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var errAction = errors.New("ap busy")

type fakeSleeper struct {
	slept   []time.Duration
	onSleep func(n int)
}

func (s *fakeSleeper) Sleep(d time.Duration) {
	s.slept = append(s.slept, d)
	if s.onSleep != nil {
		s.onSleep(len(s.slept))
	}
}

// fakeInvoker fails an identity as many times as failures[identity] says.
type fakeInvoker struct {
	mu       sync.Mutex
	failures map[string]int
	calls    []string
	onInvoke func(identity string)
}

func (f *fakeInvoker) InvokeAction(_ context.Context, _, identity string) error {
	f.mu.Lock()
	f.calls = append(f.calls, identity)
	remaining := f.failures[identity]
	if remaining > 0 {
		f.failures[identity] = remaining - 1
	}
	hook := f.onInvoke
	f.mu.Unlock()

	if hook != nil {
		hook(identity)
	}
	if remaining > 0 {
		return errAction
	}
	return nil
}

type memoryStore struct {
	checkpoints map[string]Checkpoint
	saved       []int
	deleted     []string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{checkpoints: make(map[string]Checkpoint)}
}

func (m *memoryStore) Load(_ context.Context, key string) (Checkpoint, bool) {
	cp, ok := m.checkpoints[key]
	return cp, ok
}

func (m *memoryStore) Save(_ context.Context, key string, cp Checkpoint) {
	m.checkpoints[key] = cp
	m.saved = append(m.saved, cp.LastProcessedIndex)
}

func (m *memoryStore) Delete(_ context.Context, key string) {
	delete(m.checkpoints, key)
	m.deleted = append(m.deleted, key)
}

type recordingObserver struct {
	started     []time.Duration
	ticks       []int
	interrupted int
	finished    int
}

func (o *recordingObserver) WaitStarted(total time.Duration) { o.started = append(o.started, total) }
func (o *recordingObserver) Tick(elapsed int)                { o.ticks = append(o.ticks, elapsed) }
func (o *recordingObserver) WaitInterrupted()                { o.interrupted++ }
func (o *recordingObserver) WaitFinished()                   { o.finished++ }

type fixedStatuses map[string]string

func (f fixedStatuses) Lookup(identity string) (string, bool) {
	s, ok := f[identity]
	return s, ok
}

type staticConfirmer bool

func (c staticConfirmer) Confirm(context.Context, int) bool { return bool(c) }

func makeSource(n int, status string) Source {
	src := Source{Key: "aps"}
	for i := range n {
		src.Tasks = append(src.Tasks, Task{
			Identity: fmt.Sprintf("SN%03d", i),
			GroupKey: "venue-1",
			Name:     fmt.Sprintf("ap-%d", i),
			Status:   status,
		})
	}
	return src
}

type recordingMetrics struct {
	mu          sync.Mutex
	outcomes    map[string]int
	attempts    []bool
	checkpoints []int
}

func (m *recordingMetrics) TaskFinished(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.outcomes == nil {
		m.outcomes = make(map[string]int)
	}
	m.outcomes[outcome]++
}

func (m *recordingMetrics) ActionAttempt(_ time.Duration, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = append(m.attempts, ok)
}

func (m *recordingMetrics) CheckpointSaved(index int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkpoints = append(m.checkpoints, index)
}
