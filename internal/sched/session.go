package sched

import "math"

// Session holds the mutable state of one countdown run. The dispatch loop is
// its only writer while running.
type Session struct {
	TotalBeats     int
	RemainingBeats int     // beats not yet handed to the pending queue
	BPM            float64 // clamped to [Config.MinBPM, Config.MaxBPM]
	BeatInterval   float64 // seconds, 60/BPM
	NextBeatTime   float64 // clock seconds; non-decreasing while running
	StartTime      float64
}

// BeatEvent is one scheduled beat. Immutable once created; consumed exactly
// once when released.
type BeatEvent struct {
	Index       int // 1-based
	ScheduledAt float64
}

// DurationState tracks the independent one-second wall countdown. Its only
// coupling to beats is the required-tempo formula.
type DurationState struct {
	TotalSeconds     int
	RemainingSeconds int
}

func newSession(totalBeats int, bpm float64, now float64) *Session {
	return &Session{
		TotalBeats:     totalBeats,
		RemainingBeats: totalBeats,
		BPM:            bpm,
		BeatInterval:   60 / bpm,
		NextBeatTime:   now,
		StartTime:      now,
	}
}

// totalBeatsFor derives the beat budget from a duration and tempo:
// ceil(minutes*60 * bpm/60). Always at least 1 for legal inputs.
func totalBeatsFor(durationMinutes int, bpm float64) int {
	n := int(math.Ceil(float64(durationMinutes) * 60 * bpm / 60))
	if n < 1 {
		n = 1
	}
	return n
}
