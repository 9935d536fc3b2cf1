// internal/sched/scheduler.go

package sched

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is the dispatch loop's lifecycle state.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateSuppressed
	StateCompleted
)

func (st State) String() string {
	switch st {
	case StateIdle:
		return "Idle"
	case StateRunning:
		return "Running"
	case StateSuppressed:
		return "Suppressed"
	case StateCompleted:
		return "Completed"
	default:
		return "Unknown"
	}
}

// Snapshot is a point-in-time view of the session for display surfaces.
type Snapshot struct {
	RemainingBeats   int
	TotalBeats       int
	BPM              float64
	RequiredBPM      float64 // 0 when undefined
	RemainingSeconds int
	TotalSeconds     int
	IsRunning        bool
	IsSuppressed     bool
}

// Scheduler converts a tempo and a remaining-beat count into precisely timed
// beat callbacks, and streams state changes.
type Scheduler struct {
	// scheduler-related
	mu       sync.Mutex // protects all session state below
	cfg      Config
	tempo    Tempo
	clock    Clock
	host     Host
	listener Listener

	sessionID uuid.UUID
	state     State
	sess      *Session
	queue     *pendingQueue
	dur       DurationState

	pollHandle     Handle
	durHandle      Handle
	suppressHandle Handle
	resetHandle    Handle
	hasSuppress    bool
	hasReset       bool

	statusCh chan StatusEvent

	// logging-related
	csvFile   *os.File
	csvWriter *csv.Writer
}

// New creates a Scheduler on the given collaborators. A missing clock or
// host is a construction error; there is no silent fallback to a
// lower-precision time source. A nil listener is replaced with a no-op.
func New(cfg Config, clock Clock, host Host, l Listener) (*Scheduler, error) {
	if clock == nil {
		return nil, errors.New("sched: monotonic clock unavailable")
	}
	if host == nil {
		return nil, errors.New("sched: host primitives unavailable")
	}
	if l == nil {
		l = nopListener{}
	}
	return &Scheduler{
		cfg:      cfg,
		tempo:    NewTempo(cfg),
		clock:    clock,
		host:     host,
		listener: l,
		queue:    newPendingQueue(),
		statusCh: make(chan StatusEvent, 256), // buffered channel for status events
	}, nil
}

// EnableCSVLogging opens the given file path for CSV logging of events.
// Must be called before Start().
func (s *Scheduler) EnableCSVLogging(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)

	// write header
	w.Write([]string{"timestamp", "session", "event", "beat", "bpm", "drift_sec"})
	w.Flush()

	s.mu.Lock()
	s.csvFile = f
	s.csvWriter = w
	s.mu.Unlock()
	return nil
}

// StatusChannel exposes a read-only stream (optional consumers). Events are
// dropped, not queued, when the consumer lags.
func (s *Scheduler) StatusChannel() <-chan StatusEvent { return s.statusCh }

// Start begins a countdown session. durationMinutes is clamped to [1, 999]
// and initialBPM to the configured bounds; out-of-range input is never
// fatal. totalBeatsOverride replaces the derived beat budget when positive.
// A no-op if a session is already running or suppressed.
func (s *Scheduler) Start(durationMinutes int, initialBPM float64, totalBeatsOverride int) {
	s.mu.Lock()
	if s.state == StateRunning || s.state == StateSuppressed {
		s.mu.Unlock()
		return
	}
	if s.hasReset {
		s.host.CancelTimeout(s.resetHandle)
		s.hasReset = false
	}

	if durationMinutes < 1 {
		durationMinutes = 1
	} else if durationMinutes > 999 {
		durationMinutes = 999
	}
	bpm := s.tempo.Clamp(initialBPM)

	total := totalBeatsOverride
	if total <= 0 {
		total = totalBeatsFor(durationMinutes, bpm)
	}

	now := s.clock.Now()
	s.sessionID = uuid.New()
	s.sess = newSession(total, bpm, now)
	s.queue = newPendingQueue()
	s.dur = DurationState{
		TotalSeconds:     durationMinutes * 60,
		RemainingSeconds: durationMinutes * 60,
	}
	s.state = StateRunning

	s.pollHandle = s.host.SchedulePoll(s.poll, time.Second/time.Duration(s.cfg.PollHz))
	s.durHandle = s.host.SchedulePoll(s.durationTick, time.Second)
	s.record(StatusStart, 0, 0)
	s.mu.Unlock()
}

// poll is the dispatch tick: release due beats, refill the lookahead window,
// detect exhaustion. External inputs only take effect between polls, so the
// loop is the sole writer of session state while running.
func (s *Scheduler) poll() {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return
	}

	now := s.clock.Now()
	due := s.queue.PopDue(now)
	for _, ev := range due {
		drift := now - ev.ScheduledAt
		s.record(StatusBeat, ev.Index, drift)
		if drift > s.cfg.DriftWarnMS/1000 {
			s.record(StatusDrift, ev.Index, drift)
		}
	}

	fill(s.sess, s.queue, now, s.cfg.LookaheadSec)

	completed := s.sess.RemainingBeats == 0 && s.queue.Empty()
	if completed {
		s.state = StateCompleted
		s.host.CancelPoll(s.pollHandle)
		s.host.CancelPoll(s.durHandle)
		if s.hasSuppress {
			s.host.CancelTimeout(s.suppressHandle)
			s.hasSuppress = false
		}
		if s.cfg.ResetDelaySec > 0 {
			s.resetHandle = s.host.ScheduleTimeout(
				s.Reset, time.Duration(s.cfg.ResetDelaySec*float64(time.Second)))
			s.hasReset = true
		}
		s.record(StatusComplete, 0, 0)
	}

	remaining, bpm, req := s.displayLocked()
	s.mu.Unlock()

	// Callbacks run outside the lock so a listener can query State().
	for _, ev := range due {
		s.listener.BeatFired(ev.Index, ev.ScheduledAt, now-ev.ScheduledAt)
	}
	if len(due) > 0 || completed {
		s.listener.DisplayTick(remaining, bpm, req)
	}
	if completed {
		s.listener.Completed()
	}
}

// durationTick is the independent one-second wall countdown. It keeps
// running through suppression and never triggers completion; beat
// exhaustion is the authoritative completion signal.
func (s *Scheduler) durationTick() {
	s.mu.Lock()
	if s.state != StateRunning && s.state != StateSuppressed {
		s.mu.Unlock()
		return
	}
	if s.dur.RemainingSeconds > 0 {
		s.dur.RemainingSeconds--
	}
	secs := s.dur.RemainingSeconds
	remaining, bpm, req := s.displayLocked()
	s.mu.Unlock()

	s.listener.DurationTick(secs)
	s.listener.DisplayTick(remaining, bpm, req)
}

// Stop halts polling and leaves the beat counts untouched for a later
// Resume. Idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.state == StateIdle || s.state == StateCompleted {
		s.mu.Unlock()
		return
	}
	wasSuppressed := s.state == StateSuppressed
	s.reclaimLocked()
	s.cancelTimersLocked()
	s.state = StateIdle
	s.record(StatusIdle, 0, 0)
	s.mu.Unlock()

	if wasSuppressed {
		s.listener.Suppressed(false)
	}
}

// Resume continues a stopped session. The next beat lands one full interval
// after now, so stop/resume can never double-fire. A no-op when already
// running or when nothing is resumable.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	if s.state != StateIdle || s.sess == nil || s.sess.RemainingBeats == 0 {
		s.mu.Unlock()
		return
	}
	s.sess.NextBeatTime = s.clock.Now() + s.sess.BeatInterval
	s.state = StateRunning
	s.pollHandle = s.host.SchedulePoll(s.poll, time.Second/time.Duration(s.cfg.PollHz))
	s.durHandle = s.host.SchedulePoll(s.durationTick, time.Second)
	s.record(StatusResume, 0, 0)
	s.mu.Unlock()
}

// Reset restores the session to its initial beat and duration budget and
// goes Idle. Safe to call from any state.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	if s.sess == nil {
		s.mu.Unlock()
		return
	}
	s.cancelTimersLocked()
	s.queue.Clear()
	s.sess.RemainingBeats = s.sess.TotalBeats
	s.dur.RemainingSeconds = s.dur.TotalSeconds
	s.state = StateIdle
	s.record(StatusReset, 0, 0)
	remaining, bpm, req := s.displayLocked()
	s.mu.Unlock()

	s.listener.DisplayTick(remaining, bpm, req)
}

// SetTempo changes the tempo, clamped to the configured bounds. While
// running, every not-yet-released queued beat is invalidated and the next
// beat lands exactly one new interval after now, so no beat governed by the
// old interval can fire after the change.
func (s *Scheduler) SetTempo(bpm float64) {
	s.mu.Lock()
	if s.sess == nil {
		s.mu.Unlock()
		return
	}
	s.setTempoLocked(s.tempo.Clamp(bpm))
	remaining, cur, req := s.displayLocked()
	s.mu.Unlock()

	s.listener.DisplayTick(remaining, cur, req)
}

// MultiplyTempo doubles the tempo (rounded, then clamped).
func (s *Scheduler) MultiplyTempo() {
	s.mu.Lock()
	if s.sess == nil {
		s.mu.Unlock()
		return
	}
	s.setTempoLocked(s.tempo.Double(s.sess.BPM))
	remaining, cur, req := s.displayLocked()
	s.mu.Unlock()

	s.listener.DisplayTick(remaining, cur, req)
}

// DivideTempo halves the tempo (rounded, then clamped).
func (s *Scheduler) DivideTempo() {
	s.mu.Lock()
	if s.sess == nil {
		s.mu.Unlock()
		return
	}
	s.setTempoLocked(s.tempo.Halve(s.sess.BPM))
	remaining, cur, req := s.displayLocked()
	s.mu.Unlock()

	s.listener.DisplayTick(remaining, cur, req)
}

// SetRequiredTempo adopts the tempo that would exhaust the remaining beats
// exactly as the duration runs out. A no-op while the required tempo is
// undefined (remainingSeconds == 0 is a transient, expected state).
func (s *Scheduler) SetRequiredTempo() {
	s.mu.Lock()
	if s.sess == nil {
		s.mu.Unlock()
		return
	}
	req, ok := s.tempo.Required(s.unspentLocked(), s.dur.RemainingSeconds)
	if !ok {
		s.mu.Unlock()
		return
	}
	s.setTempoLocked(req)
	remaining, cur, reqNow := s.displayLocked()
	s.mu.Unlock()

	s.listener.DisplayTick(remaining, cur, reqNow)
}

// DisableFor suppresses beat dispatch for the given number of seconds. The
// duration countdown keeps running; no beats are spent while suppressed.
// A no-op unless currently running.
func (s *Scheduler) DisableFor(seconds float64) {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return
	}
	s.reclaimLocked()
	s.host.CancelPoll(s.pollHandle)
	s.state = StateSuppressed
	s.suppressHandle = s.host.ScheduleTimeout(
		s.reenable, time.Duration(seconds*float64(time.Second)))
	s.hasSuppress = true
	s.record(StatusSuppress, 0, 0)
	s.mu.Unlock()

	s.listener.Suppressed(true)
}

// reenable ends a suppression window. The next beat lands one full current
// interval after now; stale pre-suppression timestamps never burst-fire.
func (s *Scheduler) reenable() {
	s.mu.Lock()
	if s.state != StateSuppressed {
		s.mu.Unlock()
		return
	}
	s.hasSuppress = false
	s.sess.NextBeatTime = s.clock.Now() + s.sess.BeatInterval
	s.state = StateRunning
	s.pollHandle = s.host.SchedulePoll(s.poll, time.Second/time.Duration(s.cfg.PollHz))
	s.record(StatusResume, 0, 0)
	s.mu.Unlock()

	s.listener.Suppressed(false)
}

// State returns a snapshot of the current session.
func (s *Scheduler) State() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		RemainingSeconds: s.dur.RemainingSeconds,
		TotalSeconds:     s.dur.TotalSeconds,
		IsRunning:        s.state == StateRunning || s.state == StateSuppressed,
		IsSuppressed:     s.state == StateSuppressed,
	}
	if s.sess != nil {
		snap.RemainingBeats = s.unspentLocked()
		snap.TotalBeats = s.sess.TotalBeats
		snap.BPM = s.sess.BPM
		if req, ok := s.tempo.Required(snap.RemainingBeats, s.dur.RemainingSeconds); ok {
			snap.RequiredBPM = req
		}
	}
	return snap
}

// setTempoLocked applies an already-clamped tempo. Queued events were
// scheduled under the old interval; they are reclaimed so two intervals
// never govern overlapping beats.
func (s *Scheduler) setTempoLocked(bpm float64) {
	s.reclaimLocked()
	s.sess.BPM = bpm
	s.sess.BeatInterval = 60 / bpm
	if s.state == StateRunning {
		s.sess.NextBeatTime = s.clock.Now() + s.sess.BeatInterval
	}
	s.record(StatusTempoChange, 0, 0)
}

// reclaimLocked drops unreleased queue entries and credits the beats back.
// Their timestamps are lost; the beats themselves are not.
func (s *Scheduler) reclaimLocked() {
	s.sess.RemainingBeats += s.queue.Clear()
}

// unspentLocked is the user-facing remaining count: beats neither released
// nor yet handed to the queue.
func (s *Scheduler) unspentLocked() int {
	return s.sess.RemainingBeats + s.queue.Len()
}

func (s *Scheduler) displayLocked() (remaining int, bpm, requiredBPM float64) {
	if s.sess == nil {
		return 0, 0, 0
	}
	remaining = s.unspentLocked()
	bpm = s.sess.BPM
	if req, ok := s.tempo.Required(remaining, s.dur.RemainingSeconds); ok {
		requiredBPM = req
	}
	return remaining, bpm, requiredBPM
}

func (s *Scheduler) cancelTimersLocked() {
	s.host.CancelPoll(s.pollHandle)
	s.host.CancelPoll(s.durHandle)
	if s.hasSuppress {
		s.host.CancelTimeout(s.suppressHandle)
		s.hasSuppress = false
	}
	if s.hasReset {
		s.host.CancelTimeout(s.resetHandle)
		s.hasReset = false
	}
}

// Close stops the session and releases the CSV log, if any.
func (s *Scheduler) Close() {
	s.Stop()

	s.mu.Lock()
	if s.csvFile != nil {
		s.csvWriter.Flush()
		s.csvFile.Close()
		s.csvFile = nil
		s.csvWriter = nil
	}
	s.mu.Unlock()
}

// record emits a status event to the channel (dropping if full) and to the
// CSV log when enabled. Caller holds the lock.
func (s *Scheduler) record(kind StatusKind, beat int, driftSec float64) {
	ev := StatusEvent{Time: time.Now(), Kind: kind, Beat: beat, DriftSec: driftSec}
	if s.sess != nil {
		ev.BPM = s.sess.BPM
	}

	select {
	case s.statusCh <- ev:
	default:
	}

	if s.csvWriter != nil {
		rec := []string{
			ev.Time.Format(time.RFC3339Nano),
			s.sessionID.String(),
			ev.Kind.String(),
			strconv.Itoa(ev.Beat),
			fmt.Sprintf("%.2f", ev.BPM),
			fmt.Sprintf("%.4f", ev.DriftSec),
		}
		s.csvWriter.Write(rec)
		s.csvWriter.Flush()
	}
}
