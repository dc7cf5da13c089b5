package bus

import (
	"container/heap"

	"github.com/yanun0323/errors"

	"github.com/brandonschabell/alphaflow/internal/event"
)

var ErrEmptyQueue = errors.New("event queue empty")

// Queue is a min-priority queue imposing a strict total order on
// events: timestamp ascending, then category priority ascending, then
// arrival sequence ascending. The arrival counter guarantees stable
// FIFO ordering for events that tie on timestamp and category.
type Queue struct {
	entries queueEntries
	counter uint64
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Push adds an event to the queue.
func (q *Queue) Push(e event.Event) {
	heap.Push(&q.entries, queueEntry{
		event:    e,
		priority: e.Kind().Priority(),
		seq:      q.counter,
	})
	q.counter++
}

// Pop removes and returns the minimum event. It returns ErrEmptyQueue
// when the queue holds no events.
func (q *Queue) Pop() (event.Event, error) {
	if len(q.entries) == 0 {
		return nil, ErrEmptyQueue
	}
	entry := heap.Pop(&q.entries).(queueEntry)
	return entry.event, nil
}

// Peek returns the minimum event without removing it.
func (q *Queue) Peek() (event.Event, error) {
	if len(q.entries) == 0 {
		return nil, ErrEmptyQueue
	}
	return q.entries[0].event, nil
}

// Size returns the number of queued events.
func (q *Queue) Size() int {
	return len(q.entries)
}

// Clear drops all queued events and resets the arrival counter.
func (q *Queue) Clear() {
	q.entries = q.entries[:0]
	q.counter = 0
}

type queueEntry struct {
	event    event.Event
	priority int
	seq      uint64
}

type queueEntries []queueEntry

func (es queueEntries) Len() int { return len(es) }

func (es queueEntries) Less(i, j int) bool {
	a, b := es[i], es[j]
	at, bt := a.event.Timestamp(), b.event.Timestamp()
	if !at.Equal(bt) {
		return at.Before(bt)
	}
	if a.priority != b.priority {
		return a.priority < b.priority
	}
	return a.seq < b.seq
}

func (es queueEntries) Swap(i, j int) { es[i], es[j] = es[j], es[i] }

func (es *queueEntries) Push(x any) { *es = append(*es, x.(queueEntry)) }

func (es *queueEntries) Pop() any {
	old := *es
	n := len(old)
	entry := old[n-1]
	*es = old[:n-1]
	return entry
}
