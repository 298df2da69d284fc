package testutil

import "sync"

// StableSource is a selection source whose Shuffle leaves the order untouched.
//
// With StableSource a pick of n identities returns the n smallest and a team
// partition deals overflow in ascending identity order, so scenario traces
// can be compared byte for byte.
type StableSource struct{}

// Shuffle implements selection.Source and does nothing.
func (StableSource) Shuffle(n int, swap func(i, j int)) {}

// ReverseSource reverses the order on every Shuffle.
//
// Useful to prove a caller actually consumes the shuffled order.
type ReverseSource struct{}

// Shuffle implements selection.Source.
func (ReverseSource) Shuffle(n int, swap func(i, j int)) {
	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		swap(i, j)
	}
}

// CountingSource wraps another source and counts Shuffle calls.
//
// Thread-safety: Calls is guarded by an internal mutex.
type CountingSource struct {
	mu    sync.Mutex
	Inner interface {
		Shuffle(n int, swap func(i, j int))
	}
	calls int
}

// Shuffle implements selection.Source.
func (c *CountingSource) Shuffle(n int, swap func(i, j int)) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	if c.Inner != nil {
		c.Inner.Shuffle(n, swap)
	}
}

// Calls returns how many times Shuffle ran.
func (c *CountingSource) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}
