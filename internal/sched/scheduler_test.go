package sched

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// fakeClock is advanced by hand so tests are deterministic.
type fakeClock struct {
	now float64
}

func (c *fakeClock) Now() float64 { return c.now }

type fakePoll struct {
	fn       func()
	interval time.Duration
}

type fakeTimeout struct {
	fn    func()
	delay time.Duration
}

// fakeHost records scheduled polls and timeouts; the test drives them.
type fakeHost struct {
	next     uint64
	polls    map[Handle]fakePoll
	timeouts map[Handle]fakeTimeout
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		polls:    make(map[Handle]fakePoll),
		timeouts: make(map[Handle]fakeTimeout),
	}
}

func (h *fakeHost) SchedulePoll(fn func(), interval time.Duration) Handle {
	h.next++
	id := Handle(h.next)
	h.polls[id] = fakePoll{fn, interval}
	return id
}

func (h *fakeHost) CancelPoll(id Handle) { delete(h.polls, id) }

func (h *fakeHost) ScheduleTimeout(fn func(), delay time.Duration) Handle {
	h.next++
	id := Handle(h.next)
	h.timeouts[id] = fakeTimeout{fn, delay}
	return id
}

func (h *fakeHost) CancelTimeout(id Handle) { delete(h.timeouts, id) }

// tickBeat runs the high-frequency dispatch polls (sub-second interval).
func (h *fakeHost) tickBeat() {
	var fns []func()
	for _, p := range h.polls {
		if p.interval < time.Second {
			fns = append(fns, p.fn)
		}
	}
	for _, fn := range fns {
		fn()
	}
}

// tickSecond runs the one-second duration polls.
func (h *fakeHost) tickSecond() {
	var fns []func()
	for _, p := range h.polls {
		if p.interval == time.Second {
			fns = append(fns, p.fn)
		}
	}
	for _, fn := range fns {
		fn()
	}
}

// fireTimeouts pops and runs every pending timeout.
func (h *fakeHost) fireTimeouts() {
	pending := h.timeouts
	h.timeouts = make(map[Handle]fakeTimeout)
	for _, to := range pending {
		to.fn()
	}
}

type firedBeat struct {
	index       int
	scheduledAt float64
	drift       float64
}

type recListener struct {
	beats      []firedBeat
	completed  int
	suppressed []bool
	durations  []int
}

func (l *recListener) BeatFired(index int, scheduledAt, drift float64) {
	l.beats = append(l.beats, firedBeat{index, scheduledAt, drift})
}
func (l *recListener) DisplayTick(int, float64, float64) {}
func (l *recListener) DurationTick(secs int)             { l.durations = append(l.durations, secs) }
func (l *recListener) Completed()                        { l.completed++ }
func (l *recListener) Suppressed(on bool)                { l.suppressed = append(l.suppressed, on) }

func newTestScheduler(t *testing.T) (*Scheduler, *fakeClock, *fakeHost, *recListener) {
	t.Helper()
	clock := &fakeClock{}
	host := newFakeHost()
	l := &recListener{}
	s, err := New(defaultConfig(), clock, host, l)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, clock, host, l
}

func TestNewRequiresCollaborators(t *testing.T) {
	if _, err := New(defaultConfig(), nil, newFakeHost(), nil); err == nil {
		t.Fatalf("expected error without a clock")
	}
	if _, err := New(defaultConfig(), &fakeClock{}, nil, nil); err == nil {
		t.Fatalf("expected error without a host")
	}
}

func TestStartDerivesTotalBeats(t *testing.T) {
	s, _, _, _ := newTestScheduler(t)
	s.Start(1, 60, 0)

	snap := s.State()
	if snap.TotalBeats != 60 {
		t.Fatalf("expected 60 total beats for 1min at 60bpm, got %d", snap.TotalBeats)
	}
	if snap.RemainingBeats != 60 {
		t.Fatalf("expected 60 remaining, got %d", snap.RemainingBeats)
	}
	if snap.RemainingSeconds != 60 {
		t.Fatalf("expected 60s remaining, got %d", snap.RemainingSeconds)
	}
	if !snap.IsRunning || snap.IsSuppressed {
		t.Fatalf("expected running and not suppressed, got %+v", snap)
	}
}

func TestStartClampsInputs(t *testing.T) {
	s, _, _, _ := newTestScheduler(t)
	s.Start(0, 1000, 0) // minutes below range, bpm above range

	snap := s.State()
	if snap.BPM != 200 {
		t.Fatalf("expected bpm clamped to 200, got %v", snap.BPM)
	}
	if snap.RemainingSeconds != 60 {
		t.Fatalf("expected duration clamped to 1 minute, got %ds", snap.RemainingSeconds)
	}
	if snap.TotalBeats != 200 {
		t.Fatalf("expected 200 total beats, got %d", snap.TotalBeats)
	}
}

func TestStartHonorsBeatOverride(t *testing.T) {
	s, _, _, _ := newTestScheduler(t)
	s.Start(1, 60, 30)

	if snap := s.State(); snap.TotalBeats != 30 {
		t.Fatalf("expected override of 30 beats, got %d", snap.TotalBeats)
	}
}

func TestFirstBeatFiresImmediately(t *testing.T) {
	s, clock, host, l := newTestScheduler(t)
	clock.now = 5
	s.Start(1, 120, 0)

	host.tickBeat() // fills the window
	host.tickBeat() // releases the immediate beat

	if len(l.beats) != 1 {
		t.Fatalf("expected exactly one beat, got %d", len(l.beats))
	}
	if l.beats[0].index != 1 || l.beats[0].scheduledAt != 5 {
		t.Fatalf("expected beat 1 at t=5, got %+v", l.beats[0])
	}
}

func TestSessionCompletesAfterAllBeats(t *testing.T) {
	s, clock, host, l := newTestScheduler(t)
	s.Start(1, 60, 0) // 60 beats, one per second, first at t=0

	for tick := 0; tick <= 60*4; tick++ {
		clock.now = float64(tick) * 0.25
		host.tickBeat()
	}

	if len(l.beats) != 60 {
		t.Fatalf("expected 60 released beats, got %d", len(l.beats))
	}
	last := -1.0
	for i, b := range l.beats {
		if b.index != i+1 {
			t.Fatalf("expected index %d at position %d, got %d", i+1, i, b.index)
		}
		if b.scheduledAt <= last {
			t.Fatalf("release times not strictly increasing at beat %d", b.index)
		}
		last = b.scheduledAt
	}
	if l.completed != 1 {
		t.Fatalf("expected exactly one completion, got %d", l.completed)
	}
	snap := s.State()
	if snap.RemainingBeats != 0 || snap.IsRunning {
		t.Fatalf("expected exhausted idle session, got %+v", snap)
	}

	// polling after completion must not fire anything further
	clock.now += 10
	host.tickBeat()
	if l.completed != 1 || len(l.beats) != 60 {
		t.Fatalf("completion was not final: %d completions, %d beats", l.completed, len(l.beats))
	}
}

func TestAutoResetAfterCompletion(t *testing.T) {
	s, clock, host, _ := newTestScheduler(t)
	s.Start(1, 60, 2)

	for tick := 0; tick <= 8; tick++ {
		clock.now = float64(tick) * 0.25
		host.tickBeat()
	}
	if snap := s.State(); snap.RemainingBeats != 0 {
		t.Fatalf("expected exhaustion first, got %+v", snap)
	}

	host.fireTimeouts() // the scheduled auto-reset

	snap := s.State()
	if snap.RemainingBeats != 2 || snap.RemainingSeconds != 60 || snap.IsRunning {
		t.Fatalf("expected reset idle session, got %+v", snap)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	s, clock, host, _ := newTestScheduler(t)
	s.Start(1, 60, 0)
	clock.now = 0.1
	host.tickBeat()

	s.Stop()
	first := s.State()
	s.Stop()
	second := s.State()

	if first != second {
		t.Fatalf("second stop changed state: %+v vs %+v", first, second)
	}
	if first.IsRunning {
		t.Fatalf("expected stopped session")
	}
	if len(host.polls) != 0 {
		t.Fatalf("expected all polls cancelled, %d left", len(host.polls))
	}
}

func TestResumeWhileRunningIsNoop(t *testing.T) {
	s, _, host, _ := newTestScheduler(t)
	s.Start(1, 60, 0)

	before := s.State()
	polls := len(host.polls)
	s.Resume()

	if after := s.State(); after != before {
		t.Fatalf("resume while running changed state: %+v vs %+v", before, after)
	}
	if len(host.polls) != polls {
		t.Fatalf("resume while running rescheduled polls")
	}
}

func TestResumeSchedulesOneIntervalOut(t *testing.T) {
	s, clock, host, l := newTestScheduler(t)
	s.Start(1, 60, 0)
	host.tickBeat()
	clock.now = 0.1
	host.tickBeat() // release beat 1
	s.Stop()

	remaining := s.State().RemainingBeats
	clock.now = 10
	s.Resume()

	if got := s.State().RemainingBeats; got != remaining {
		t.Fatalf("resume changed remaining beats: %d vs %d", got, remaining)
	}

	// nothing may fire before a full interval has elapsed
	clock.now = 10.5
	host.tickBeat()
	if len(l.beats) != 1 {
		t.Fatalf("beat fired too early after resume")
	}
	clock.now = 10.6 // inside the lookahead window; queues the beat
	host.tickBeat()
	clock.now = 11.01
	host.tickBeat()
	if len(l.beats) != 2 {
		t.Fatalf("expected next beat one interval after resume, got %d beats", len(l.beats))
	}
	if l.beats[1].scheduledAt != 11 {
		t.Fatalf("expected beat scheduled at 11, got %v", l.beats[1].scheduledAt)
	}
}

func TestTempoChangeContinuity(t *testing.T) {
	s, clock, host, l := newTestScheduler(t)
	s.Start(1, 60, 0)

	for tick := 0; tick <= 40; tick++ {
		clock.now = float64(tick) * 0.25
		host.tickBeat()
	}
	released := len(l.beats) // beats released under the old interval

	changeAt := clock.now
	s.SetTempo(120) // new interval 0.5s

	for tick := 0; tick <= 8; tick++ {
		clock.now = changeAt + float64(tick)*0.1
		host.tickBeat()
	}

	if len(l.beats) == released {
		t.Fatalf("no beat released after tempo change")
	}
	next := l.beats[released]
	if next.scheduledAt < changeAt {
		t.Fatalf("beat %v scheduled before the tempo change at %v", next.scheduledAt, changeAt)
	}
	if next.scheduledAt > changeAt+0.5 {
		t.Fatalf("next beat %v more than one new interval after %v", next.scheduledAt, changeAt)
	}
	// and the beat after it must already use the new interval
	if len(l.beats) > released+1 {
		gap := l.beats[released+1].scheduledAt - next.scheduledAt
		if gap < 0.49 || gap > 0.51 {
			t.Fatalf("expected 0.5s spacing after change, got %v", gap)
		}
	}
}

func TestSuppressionConservesBeats(t *testing.T) {
	s, clock, host, l := newTestScheduler(t)
	s.Start(1, 60, 0)

	for tick := 0; tick <= 20; tick++ {
		clock.now = float64(tick) * 0.25
		host.tickBeat()
	}

	before := s.State().RemainingBeats
	s.DisableFor(5)

	if snap := s.State(); !snap.IsSuppressed || !snap.IsRunning {
		t.Fatalf("expected suppressed running session, got %+v", snap)
	}
	if len(l.suppressed) != 1 || !l.suppressed[0] {
		t.Fatalf("expected Suppressed(true) callback, got %v", l.suppressed)
	}

	// duration keeps counting while suppressed
	host.tickSecond()
	if len(l.durations) == 0 {
		t.Fatalf("expected duration tick during suppression")
	}

	beats := len(l.beats)
	clock.now += 5
	host.tickBeat()
	if len(l.beats) != beats {
		t.Fatalf("beat fired while suppressed")
	}

	host.fireTimeouts() // re-enable

	after := s.State()
	if after.RemainingBeats != before {
		t.Fatalf("suppression consumed beats: %d before, %d after", before, after.RemainingBeats)
	}
	if after.IsSuppressed {
		t.Fatalf("expected suppression lifted")
	}
	if len(l.suppressed) != 2 || l.suppressed[1] {
		t.Fatalf("expected Suppressed(false) callback, got %v", l.suppressed)
	}

	// next beat is at least one full interval after re-enable
	reenabledAt := clock.now
	clock.now = reenabledAt + 0.5
	host.tickBeat()
	if len(l.beats) != beats {
		t.Fatalf("stale beat burst after re-enable")
	}
	clock.now = reenabledAt + 0.6 // queues the post-suppression beat
	host.tickBeat()
	clock.now = reenabledAt + 1.01
	host.tickBeat()
	if len(l.beats) != beats+1 {
		t.Fatalf("expected one beat one interval after re-enable, got %d", len(l.beats)-beats)
	}
}

func TestDisableForWhenNotRunningIsNoop(t *testing.T) {
	s, _, host, l := newTestScheduler(t)
	s.DisableFor(5)
	if len(host.timeouts) != 0 || len(l.suppressed) != 0 {
		t.Fatalf("disable before start should be a no-op")
	}

	s.Start(1, 60, 0)
	s.DisableFor(5)
	s.DisableFor(5) // already suppressed
	if len(host.timeouts) != 1 {
		t.Fatalf("expected a single re-enable timeout, got %d", len(host.timeouts))
	}
	if len(l.suppressed) != 1 {
		t.Fatalf("expected a single Suppressed callback, got %v", l.suppressed)
	}
}

func TestSetRequiredTempoScenario(t *testing.T) {
	s, _, host, _ := newTestScheduler(t)
	s.Start(1, 100, 30) // 30 beats, 60s

	// burn the wall clock down to 30s without releasing beats
	for i := 0; i < 30; i++ {
		host.tickSecond()
	}
	if snap := s.State(); snap.RemainingSeconds != 30 {
		t.Fatalf("expected 30s remaining, got %d", snap.RemainingSeconds)
	}

	s.SetRequiredTempo()
	if snap := s.State(); snap.BPM != 60 {
		t.Fatalf("expected required tempo of 60, got %v", snap.BPM)
	}
}

func TestSetRequiredTempoUndefinedAtZeroSeconds(t *testing.T) {
	s, _, host, _ := newTestScheduler(t)
	s.Start(1, 100, 30)

	for i := 0; i < 90; i++ {
		host.tickSecond() // counts to zero, then stays there
	}
	snap := s.State()
	if snap.RemainingSeconds != 0 {
		t.Fatalf("expected 0s remaining, got %d", snap.RemainingSeconds)
	}
	if snap.RequiredBPM != 0 {
		t.Fatalf("expected undefined required tempo, got %v", snap.RequiredBPM)
	}

	s.SetRequiredTempo() // must be a quiet no-op
	if got := s.State().BPM; got != 100 {
		t.Fatalf("expected tempo unchanged at 100, got %v", got)
	}
}

func TestMultiplyTempoClampsAtMax(t *testing.T) {
	s, _, _, _ := newTestScheduler(t)
	s.Start(1, 150, 0)

	s.MultiplyTempo()
	if got := s.State().BPM; got != 200 {
		t.Fatalf("expected 200, got %v", got)
	}
	s.MultiplyTempo()
	if got := s.State().BPM; got != 200 {
		t.Fatalf("expected multiply at max to stay 200, got %v", got)
	}
}

func TestCSVLoggingWritesRows(t *testing.T) {
	s, clock, host, _ := newTestScheduler(t)
	path := filepath.Join(t.TempDir(), "beats.csv")
	if err := s.EnableCSVLogging(path); err != nil {
		t.Fatalf("EnableCSVLogging: %v", err)
	}

	s.Start(1, 60, 2)
	for tick := 0; tick <= 8; tick++ {
		clock.now = float64(tick) * 0.25
		host.tickBeat()
	}
	s.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	out := string(data)
	if !strings.HasPrefix(out, "timestamp,session,event,beat,bpm,drift_sec") {
		t.Fatalf("missing header: %q", out)
	}
	for _, want := range []string{"Start", "Beat", "Complete"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s row in csv:\n%s", want, out)
		}
	}
}

func TestResetRestoresBudget(t *testing.T) {
	s, clock, host, _ := newTestScheduler(t)
	s.Start(1, 60, 0)

	for tick := 0; tick <= 20; tick++ {
		clock.now = float64(tick) * 0.25
		host.tickBeat()
	}
	host.tickSecond()
	host.tickSecond()

	s.Reset()

	snap := s.State()
	if snap.RemainingBeats != 60 || snap.RemainingSeconds != 60 {
		t.Fatalf("expected full budget after reset, got %+v", snap)
	}
	if snap.IsRunning {
		t.Fatalf("expected idle session after reset")
	}
}
