// Package touch tracks the contact points currently on the surface.
//
// A Registry maps a pointer identity (a small non-negative integer that the
// host reuses once a finger lifts) to its last known position. It is owned
// by a single interaction goroutine and is not safe for concurrent use.
package touch

import "slices"

// DefaultCapacity is the hard cap on simultaneous contact points.
const DefaultCapacity = 10

// Point is one contact on the surface.
type Point struct {
	ID int     `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// Registry is an identity-keyed, capacity-bounded store of contact points.
//
// INVARIANT: 0 <= Size() <= Capacity(). Once full, new touch-downs are
// rejected; nothing is ever evicted.
type Registry struct {
	capacity int
	points   map[int]*Point
}

// NewRegistry creates an empty registry. A capacity below 1 falls back to
// DefaultCapacity.
func NewRegistry(capacity int) *Registry {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Registry{
		capacity: capacity,
		points:   make(map[int]*Point, capacity),
	}
}

// RegisterDown inserts a new contact point.
//
// Returns false (and leaves the registry untouched) when the registry is
// full or the identity is negative. A second down for an identity that is
// already tracked only moves it.
func (r *Registry) RegisterDown(id int, x, y float64) bool {
	if id < 0 {
		return false
	}
	if p, ok := r.points[id]; ok {
		p.X, p.Y = x, y
		return true
	}
	if r.IsFull() {
		return false
	}
	r.points[id] = &Point{ID: id, X: x, Y: y}
	return true
}

// UpdateMove moves a tracked point. Unknown identities are ignored, which
// tolerates moves racing with an already-processed up.
func (r *Registry) UpdateMove(id int, x, y float64) bool {
	p, ok := r.points[id]
	if !ok {
		return false
	}
	p.X, p.Y = x, y
	return true
}

// MoveAll applies a batch of moves and returns how many matched a tracked point.
func (r *Registry) MoveAll(moves []Point) int {
	n := 0
	for _, m := range moves {
		if r.UpdateMove(m.ID, m.X, m.Y) {
			n++
		}
	}
	return n
}

// RegisterUp removes a point and returns its identity. The boolean reports
// whether the identity was tracked.
func (r *Registry) RegisterUp(id int) (int, bool) {
	if _, ok := r.points[id]; !ok {
		return id, false
	}
	delete(r.points, id)
	return id, true
}

// Clear drops every point.
func (r *Registry) Clear() {
	clear(r.points)
}

// IsEmpty reports whether no point is tracked.
func (r *Registry) IsEmpty() bool { return len(r.points) == 0 }

// IsFull reports whether the registry has reached capacity.
func (r *Registry) IsFull() bool { return len(r.points) >= r.capacity }

// Size returns the number of tracked points.
func (r *Registry) Size() int { return len(r.points) }

// Capacity returns the hard cap.
func (r *Registry) Capacity() int { return r.capacity }

// Contains reports whether id is tracked.
func (r *Registry) Contains(id int) bool {
	_, ok := r.points[id]
	return ok
}

// Point returns a copy of the tracked point for id.
func (r *Registry) Point(id int) (Point, bool) {
	p, ok := r.points[id]
	if !ok {
		return Point{}, false
	}
	return *p, true
}

// Identities returns a snapshot of the tracked identities in ascending order.
// The slice is owned by the caller.
func (r *Registry) Identities() []int {
	ids := make([]int, 0, len(r.points))
	for id := range r.points {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Points returns copies of every tracked point ordered by identity, so one
// draw pass always iterates in the same order.
func (r *Registry) Points() []Point {
	out := make([]Point, 0, len(r.points))
	for _, id := range r.Identities() {
		out = append(out, *r.points[id])
	}
	return out
}
