package sim

import "container/heap"

// entry wraps an Event with a monotonic sequence number so that events
// scheduled for the same timestamp are popped in FIFO order.
type entry struct {
	event Event
	seq   uint64
}

// EventQueue implements heap.Interface, ordering events by timestamp
// and breaking ties by insertion order.
// See canonical Golang example here: https://pkg.go.dev/container/heap#example-package-IntHeap
type EventQueue struct {
	entries []entry
	nextSeq uint64
}

func (eq *EventQueue) Len() int { return len(eq.entries) }

func (eq *EventQueue) Less(i, j int) bool {
	ti, tj := eq.entries[i].event.Timestamp(), eq.entries[j].event.Timestamp()
	if ti != tj {
		return ti < tj
	}
	return eq.entries[i].seq < eq.entries[j].seq
}

func (eq *EventQueue) Swap(i, j int) {
	eq.entries[i], eq.entries[j] = eq.entries[j], eq.entries[i]
}

func (eq *EventQueue) Push(x any) {
	eq.entries = append(eq.entries, entry{event: x.(Event), seq: eq.nextSeq})
	eq.nextSeq++
}

func (eq *EventQueue) Pop() any {
	old := eq.entries
	n := len(old)
	item := old[n-1]
	eq.entries = old[0 : n-1]
	return item.event
}

// Schedule pushes an event into the queue, preserving heap invariants.
func (eq *EventQueue) Schedule(ev Event) {
	heap.Push(eq, ev)
}

// Next pops and returns the earliest-timestamp, earliest-inserted event.
// Returns nil if the queue is empty.
func (eq *EventQueue) Next() Event {
	if eq.Len() == 0 {
		return nil
	}
	return heap.Pop(eq).(Event)
}
