package engine

import (
	"sync"

	"github.com/roach88/fingerpick/internal/interaction"
	"github.com/roach88/fingerpick/internal/touch"
)

// EventType distinguishes between event kinds.
type EventType int

const (
	// EventTouchDown registers every pointer in the batch.
	EventTouchDown EventType = iota + 1
	// EventTouchMove moves every pointer in the batch.
	EventTouchMove
	// EventTouchUp releases every pointer in the batch.
	EventTouchUp
	// EventVisibilityLost resets the machine.
	EventVisibilityLost
	// EventConfigure replaces the machine's configuration.
	EventConfigure
)

var eventTypeNames = map[EventType]string{
	EventTouchDown:      "down",
	EventTouchMove:      "move",
	EventTouchUp:        "up",
	EventVisibilityLost: "hide",
	EventConfigure:      "configure",
}

func (t EventType) String() string {
	if name, ok := eventTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// Event is one input for the machine.
type Event struct {
	Type     EventType
	Pointers []touch.Point
	Config   *interaction.Config

	// Seq is assigned by Enqueue.
	Seq int64
}

// Down builds a touch-down event.
func Down(points ...touch.Point) Event {
	return Event{Type: EventTouchDown, Pointers: points}
}

// Move builds a batched touch-move event.
func Move(points ...touch.Point) Event {
	return Event{Type: EventTouchMove, Pointers: points}
}

// Up builds a touch-up event. Only the identities are used.
func Up(ids ...int) Event {
	points := make([]touch.Point, len(ids))
	for i, id := range ids {
		points[i] = touch.Point{ID: id}
	}
	return Event{Type: EventTouchUp, Pointers: points}
}

// Hide builds a visibility-lost event.
func Hide() Event {
	return Event{Type: EventVisibilityLost}
}

// Configure builds a configuration event.
func Configure(cfg interaction.Config) Event {
	return Event{Type: EventConfigure, Config: &cfg}
}

// eventQueue is a thread-safe FIFO queue for events.
//
// Host surfaces enqueue from their own goroutines (one per websocket
// connection reader) while the engine's Run loop dequeues.
//
// The queue uses a channel for signaling to enable context-aware waiting
// in the Run loop.
type eventQueue struct {
	mu     sync.Mutex
	events []Event
	clock  *Clock
	closed bool
	signal chan struct{} // buffered, size 1
}

func newEventQueue(clock *Clock) *eventQueue {
	return &eventQueue{
		events: make([]Event, 0, 16),
		clock:  clock,
		signal: make(chan struct{}, 1),
	}
}

// Enqueue stamps e with the next seq and adds it to the back of the queue.
// Returns false if the queue is closed.
func (q *eventQueue) Enqueue(e Event) (int64, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return 0, false
	}

	e.Seq = q.clock.Next()
	q.events = append(q.events, e)

	// buffer of 1 coalesces multiple signals
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return e.Seq, true
}

// TryDequeue removes the front event without blocking.
func (q *eventQueue) TryDequeue() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return Event{}, false
	}

	e := q.events[0]
	// release the pointer batch for GC
	q.events[0] = Event{}
	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}
	return e, true
}

// Wait returns a channel that signals when events may be available.
// The channel is closed by Close.
func (q *eventQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Drained reports whether the queue is closed and empty.
func (q *eventQueue) Drained() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && len(q.events) == 0
}

// Close signals that no more events will be enqueued.
func (q *eventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
