// internal/sched/generator.go

package sched

// fill appends beat events to the queue while the session's next beat falls
// inside the lookahead window and beats remain. Each emitted event advances
// NextBeatTime by one interval and spends one remaining beat, so the loop is
// bounded by RemainingBeats even when the window dwarfs the interval.
func fill(s *Session, q *pendingQueue, now, lookaheadSec float64) {
	horizon := now + lookaheadSec
	for s.NextBeatTime < horizon && s.RemainingBeats > 0 {
		q.Push(BeatEvent{
			Index:       s.TotalBeats - s.RemainingBeats + 1,
			ScheduledAt: s.NextBeatTime,
		})
		s.RemainingBeats--
		s.NextBeatTime += s.BeatInterval
	}
}
