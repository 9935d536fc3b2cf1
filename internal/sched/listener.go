package sched

// Listener receives scheduler callbacks. Implementations must return
// quickly; the dispatch loop invokes them inline between polls and a slow
// callback delays subsequent beats.
type Listener interface {
	// BeatFired reports one released beat. driftSec is |now - scheduledAt|.
	BeatFired(index int, scheduledAt, driftSec float64)
	// DisplayTick reports countdown numbers for a display surface.
	// requiredBPM is 0 when undefined (no time or no beats left).
	DisplayTick(remainingBeats int, bpm, requiredBPM float64)
	// DurationTick reports the wall-clock countdown, once per second.
	DurationTick(remainingSeconds int)
	// Completed fires exactly once when the last beat has been released.
	Completed()
	// Suppressed reports suppression entry (true) and exit (false).
	Suppressed(active bool)
}

// nopListener is substituted when the caller passes a nil Listener.
type nopListener struct{}

func (nopListener) BeatFired(int, float64, float64)   {}
func (nopListener) DisplayTick(int, float64, float64) {}
func (nopListener) DurationTick(int)                  {}
func (nopListener) Completed()                        {}
func (nopListener) Suppressed(bool)                   {}
