// internal/sched/host.go

package sched

import (
	"sync"
	"sync/atomic"
	"time"
)

// Handle identifies a scheduled poll or timeout.
type Handle uint64

// Host provides the periodic and one-shot invocation primitives the scheduler
// runs on. Cancelling an unknown or already-cancelled handle is a no-op.
type Host interface {
	SchedulePoll(fn func(), interval time.Duration) Handle
	CancelPoll(h Handle)
	ScheduleTimeout(fn func(), delay time.Duration) Handle
	CancelTimeout(h Handle)
}

// TickHost implements Host on time.Ticker and time.AfterFunc.
type TickHost struct {
	mu     sync.Mutex
	next   atomic.Uint64
	polls  map[Handle]chan struct{}
	timers map[Handle]*time.Timer
}

// NewTickHost creates a host with no active polls or timeouts.
func NewTickHost() *TickHost {
	return &TickHost{
		polls:  make(map[Handle]chan struct{}),
		timers: make(map[Handle]*time.Timer),
	}
}

// SchedulePoll begins invoking fn at the given interval on its own goroutine.
func (h *TickHost) SchedulePoll(fn func(), interval time.Duration) Handle {
	id := Handle(h.next.Add(1))
	stop := make(chan struct{})

	h.mu.Lock()
	h.polls[id] = stop
	h.mu.Unlock()

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fn()
			case <-stop:
				return
			}
		}
	}()
	return id
}

// CancelPoll stops the poll goroutine. Idempotent.
func (h *TickHost) CancelPoll(id Handle) {
	h.mu.Lock()
	stop, ok := h.polls[id]
	if ok {
		delete(h.polls, id)
	}
	h.mu.Unlock()
	if ok {
		close(stop)
	}
}

// ScheduleTimeout invokes fn once after delay.
func (h *TickHost) ScheduleTimeout(fn func(), delay time.Duration) Handle {
	id := Handle(h.next.Add(1))

	h.mu.Lock()
	defer h.mu.Unlock()
	h.timers[id] = time.AfterFunc(delay, func() {
		h.mu.Lock()
		delete(h.timers, id)
		h.mu.Unlock()
		fn()
	})
	return id
}

// CancelTimeout stops a pending timeout. Idempotent; a no-op if the timeout
// already fired.
func (h *TickHost) CancelTimeout(id Handle) {
	h.mu.Lock()
	t, ok := h.timers[id]
	if ok {
		delete(h.timers, id)
	}
	h.mu.Unlock()
	if ok {
		t.Stop()
	}
}

// Shutdown cancels everything still scheduled.
func (h *TickHost) Shutdown() {
	h.mu.Lock()
	polls := h.polls
	timers := h.timers
	h.polls = make(map[Handle]chan struct{})
	h.timers = make(map[Handle]*time.Timer)
	h.mu.Unlock()

	for _, stop := range polls {
		close(stop)
	}
	for _, t := range timers {
		t.Stop()
	}
}
