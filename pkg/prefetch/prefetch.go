// Package prefetch schedules speculative decode work around a reader's
// current page, biased by scroll/turn velocity and distance.
package prefetch

import (
	"math"

	"github.com/aalpar/deheap"

	"github.com/localcomicreader/readerd/pkg/coretypes"
)

// Task is a single scheduled prefetch operation.
type Task struct {
	Page     coretypes.PageId
	Distance int32
	Priority float64
}

type queueEntry struct {
	priority float64
	sequence uint64
	task     Task
}

// entryHeap is a deheap.Interface ordered so PopMax returns the highest
// priority entry; equal-priority entries are broken by sequence, with
// the earliest pushed entry (lowest sequence) winning the tie.
type entryHeap []*queueEntry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].sequence > h[j].sequence
}

func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x any) {
	*h = append(*h, x.(*queueEntry))
}

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// Queue is a priority queue producing decode/prefetch tasks ordered by
// relevance to the reader's current position, with lazy deletion: a
// page can be dropped from the "queued" set (by a replan or clear)
// without having to search the heap for its entry.
type Queue struct {
	pending     entryHeap
	queued      map[coretypes.PageId]struct{}
	active      map[coretypes.RequestToken]coretypes.PageId
	activePages map[coretypes.PageId]struct{}
	sequence    uint64
	nextToken   uint64
}

// New returns an empty queue.
func New() *Queue {
	return &Queue{
		queued:      make(map[coretypes.PageId]struct{}),
		active:      make(map[coretypes.RequestToken]coretypes.PageId),
		activePages: make(map[coretypes.PageId]struct{}),
	}
}

// Len returns the number of distinct pages currently queued.
func (q *Queue) Len() int { return len(q.queued) }

// Clear empties the queue, including in-flight task bookkeeping.
func (q *Queue) Clear() {
	q.pending = nil
	q.queued = make(map[coretypes.PageId]struct{})
	q.active = make(map[coretypes.RequestToken]coretypes.PageId)
	q.activePages = make(map[coretypes.PageId]struct{})
}

// PlanWindow rebuilds the queue around a new center page, applying the
// given policy and viewport velocity. Pages already in flight (issued
// by a prior NextTask not yet Complete/Cancel'd) are skipped.
func (q *Queue) PlanWindow(center coretypes.PageId, totalPages uint32, policy coretypes.PrefetchPolicy, velocity float32) {
	q.pending = nil
	q.queued = make(map[coretypes.PageId]struct{})

	if totalPages == 0 {
		return
	}

	centerIndex := center.Index

	behind := policy.Behind
	if behind > centerIndex {
		behind = centerIndex
	}
	start := centerIndex - behind

	end := centerIndex + policy.Ahead
	if end > totalPages-1 {
		end = totalPages - 1
	}

	for index := start; index <= end; index++ {
		if index == centerIndex {
			continue
		}

		distance := int32(index) - int32(centerIndex)
		priority := computePriority(distance, velocity)
		if priority <= 0 {
			continue
		}

		page := coretypes.PageId{SourceId: center.SourceId, Index: index}
		if _, inFlight := q.activePages[page]; inFlight {
			continue
		}
		q.pushTask(page, distance, priority)
	}
}

// NextTask pops and returns the highest priority task, issuing a
// cancellation token that Complete or Cancel later resolves.
func (q *Queue) NextTask() (coretypes.RequestToken, Task, bool) {
	for q.pending.Len() > 0 {
		entry := deheap.PopMax(&q.pending).(*queueEntry)
		if _, ok := q.queued[entry.task.Page]; !ok {
			continue // stale: superseded by a later PlanWindow/Clear
		}
		delete(q.queued, entry.task.Page)

		token := q.allocateToken()
		q.active[token] = entry.task.Page
		q.activePages[entry.task.Page] = struct{}{}
		return token, entry.task, true
	}
	return 0, Task{}, false
}

// Complete marks an issued task done, releasing its token and allowing
// the page to be scheduled again.
func (q *Queue) Complete(token coretypes.RequestToken) bool {
	page, ok := q.active[token]
	if !ok {
		return false
	}
	delete(q.active, token)
	delete(q.activePages, page)
	return true
}

// Cancel aborts an in-flight task identified by token.
func (q *Queue) Cancel(token coretypes.RequestToken) bool {
	return q.Complete(token)
}

func (q *Queue) pushTask(page coretypes.PageId, distance int32, priority float64) {
	if _, exists := q.queued[page]; exists {
		return
	}
	q.queued[page] = struct{}{}

	q.sequence++
	entry := &queueEntry{priority: priority, sequence: q.sequence, task: Task{Page: page, Distance: distance, Priority: priority}}
	deheap.Push(&q.pending, entry)
}

func (q *Queue) allocateToken() coretypes.RequestToken {
	q.nextToken++
	if q.nextToken == 0 {
		q.nextToken = 1
	}
	return coretypes.RequestToken(q.nextToken)
}

// computePriority scores a page distance from center given a viewport
// velocity: closer pages score higher, and pages in the direction of
// travel get a bonus proportional to speed (capped at 4 units/frame).
func computePriority(distance int32, velocity float32) float64 {
	absDistance := math.Abs(float64(distance))
	distanceWeight := 1.0 / (absDistance + 1.0)

	speed := math.Abs(float64(velocity))
	var directionAlignment float64
	if distance != 0 && speed != 0 {
		directionAlignment = float64(sign(distance)) * float64(signF(velocity))
	}

	directionalWeight := directionAlignment * (math.Min(speed, 4.0) / 8.0)
	score := distanceWeight + directionalWeight
	if score < 0 {
		score = 0
	}
	if math.IsInf(score, 0) || math.IsNaN(score) {
		return 0
	}
	return score
}

func sign(v int32) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func signF(v float32) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
