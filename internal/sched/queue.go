// internal/sched/queue.go

package sched

import (
	"github.com/emirpasic/gods/trees/redblacktree"
)

// pendingQueue holds scheduled-but-unreleased BeatEvents ordered by
// (ScheduledAt, Index). Indexes are unique, so two entries never collide.
type pendingQueue struct {
	rbt *redblacktree.Tree
}

func newPendingQueue() *pendingQueue {
	return &pendingQueue{rbt: redblacktree.NewWith(beatCmp)}
}

// Push inserts one event.
func (q *pendingQueue) Push(ev BeatEvent) {
	q.rbt.Put(beatKey{ev.ScheduledAt, ev.Index}, ev)
}

// PopDue removes and returns, in order, every event with ScheduledAt <= now.
func (q *pendingQueue) PopDue(now float64) []BeatEvent {
	var due []BeatEvent
	for {
		node := q.rbt.Left()
		if node == nil {
			break
		}
		key := node.Key.(beatKey)
		if key.scheduledAt > now {
			break
		}
		due = append(due, node.Value.(BeatEvent))
		q.rbt.Remove(key)
	}
	return due
}

// Clear drops all pending events and returns how many were dropped. The
// dropped events represent beats that have not been spent; the caller must
// credit them back to the session.
func (q *pendingQueue) Clear() int {
	n := q.rbt.Size()
	q.rbt.Clear()
	return n
}

func (q *pendingQueue) Len() int {
	return q.rbt.Size()
}

func (q *pendingQueue) Empty() bool {
	return q.rbt.Empty()
}

// beatKey is used as a key in the red-black tree.
type beatKey struct {
	scheduledAt float64
	index       int
}

// beatCmp orders keys for the red-black tree.
func beatCmp(a, b any) int {
	ka, kb := a.(beatKey), b.(beatKey)
	switch {
	case ka.scheduledAt < kb.scheduledAt:
		return -1
	case ka.scheduledAt > kb.scheduledAt:
		return 1
	case ka.index < kb.index:
		return -1
	case ka.index > kb.index:
		return 1
	default:
		return 0
	}
}
