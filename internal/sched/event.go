// internal/sched/event.go

package sched

import (
	"time"
)

// StatusKind represents the type of scheduler event
type StatusKind int

const (
	StatusIdle StatusKind = iota
	StatusStart
	StatusBeat
	StatusTempoChange
	StatusSuppress
	StatusResume
	StatusComplete
	StatusReset
	StatusDrift
)

// StatusEvent is emitted on every released beat and on key state changes
type StatusEvent struct {
	Time     time.Time
	Kind     StatusKind
	Beat     int     // 1-based index of the released beat, 0 if n/a
	BPM      float64 // tempo in effect when the event was emitted
	DriftSec float64 // |now - scheduled| for beat and drift events
}

func (sk StatusKind) String() string {
	switch sk {
	case StatusIdle:
		return "Idle"
	case StatusStart:
		return "Start"
	case StatusBeat:
		return "Beat"
	case StatusTempoChange:
		return "Tempo"
	case StatusSuppress:
		return "Suppress"
	case StatusResume:
		return "Resume"
	case StatusComplete:
		return "Complete"
	case StatusReset:
		return "Reset"
	case StatusDrift:
		return "Drift"
	default:
		return "Unknown"
	}
}
