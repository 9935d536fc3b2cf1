package sched

import (
	"testing"
	"time"
)

func TestTickHostCancelIsIdempotent(t *testing.T) {
	h := NewTickHost()

	p := h.SchedulePoll(func() {}, time.Hour)
	h.CancelPoll(p)
	h.CancelPoll(p) // second cancel is a no-op

	to := h.ScheduleTimeout(func() { t.Errorf("timeout fired despite cancel") }, time.Hour)
	h.CancelTimeout(to)
	h.CancelTimeout(to)

	h.Shutdown()
}

func TestTickHostShutdownStopsEverything(t *testing.T) {
	h := NewTickHost()
	h.SchedulePoll(func() {}, time.Hour)
	h.ScheduleTimeout(func() {}, time.Hour)

	h.Shutdown()

	if len(h.polls) != 0 || len(h.timers) != 0 {
		t.Fatalf("expected empty host after shutdown: %d polls, %d timers",
			len(h.polls), len(h.timers))
	}
}

func TestTickHostPollFires(t *testing.T) {
	h := NewTickHost()
	fired := make(chan struct{}, 1)

	p := h.SchedulePoll(func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	}, time.Millisecond)
	defer h.CancelPoll(p)

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatalf("poll never fired")
	}
}
