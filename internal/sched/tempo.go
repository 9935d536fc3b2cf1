// internal/sched/tempo.go

package sched

import "math"

// Tempo applies the configured BPM bounds. All mutating entry points clamp,
// so a Session never carries an out-of-range tempo.
type Tempo struct {
	cfg Config
}

// NewTempo returns a controller bound to cfg's BPM limits.
func NewTempo(cfg Config) Tempo {
	return Tempo{cfg: cfg}
}

// Clamp forces bpm into [MinBPM, MaxBPM].
func (t Tempo) Clamp(bpm float64) float64 {
	if bpm < t.cfg.MinBPM {
		return t.cfg.MinBPM
	}
	if bpm > t.cfg.MaxBPM {
		return t.cfg.MaxBPM
	}
	return bpm
}

// Double returns bpm*2 rounded then clamped. Round-before-clamp keeps
// repeated calls idempotent at the boundary.
func (t Tempo) Double(bpm float64) float64 {
	return t.Clamp(math.Round(bpm * 2))
}

// Halve returns bpm/2 rounded then clamped.
func (t Tempo) Halve(bpm float64) float64 {
	return t.Clamp(math.Round(bpm / 2))
}

// Required computes the clamped BPM that exhausts remainingBeats exactly as
// remainingSeconds reaches zero. ok is false when remainingSeconds <= 0 or
// no beats remain; the value is then meaningless. This is an expected state
// at session end, not an error.
func (t Tempo) Required(remainingBeats, remainingSeconds int) (bpm float64, ok bool) {
	if remainingSeconds <= 0 || remainingBeats <= 0 {
		return 0, false
	}
	raw := math.Round(float64(remainingBeats) * 60 / float64(remainingSeconds))
	return t.Clamp(raw), true
}
