package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func shuffleInts(src interface {
	Shuffle(n int, swap func(i, j int))
}, in []int) []int {
	out := append([]int(nil), in...)
	src.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func TestStableSource_KeepsOrder(t *testing.T) {
	assert.Equal(t, []int{3, 1, 2}, shuffleInts(StableSource{}, []int{3, 1, 2}))
}

func TestReverseSource_Reverses(t *testing.T) {
	assert.Equal(t, []int{4, 3, 2, 1}, shuffleInts(ReverseSource{}, []int{1, 2, 3, 4}))
	assert.Equal(t, []int{3, 2, 1}, shuffleInts(ReverseSource{}, []int{1, 2, 3}))
	assert.Empty(t, shuffleInts(ReverseSource{}, nil))
}

func TestCountingSource_CountsAndDelegates(t *testing.T) {
	src := &CountingSource{Inner: ReverseSource{}}

	assert.Equal(t, []int{2, 1}, shuffleInts(src, []int{1, 2}))
	shuffleInts(src, []int{1})
	assert.Equal(t, 2, src.Calls())
}

func TestNewFakeClock_StartsAtEpoch(t *testing.T) {
	c := NewFakeClock()
	assert.Equal(t, Epoch, c.Now())
	assert.Zero(t, Elapsed(c))
}
