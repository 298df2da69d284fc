package testutil

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Epoch is the fixed start time of every fake clock handed out here.
//
// Pinning the epoch keeps elapsed-time values in traces identical across runs.
var Epoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// NewFakeClock returns a clockwork fake clock starting at Epoch.
func NewFakeClock() *clockwork.FakeClock {
	return clockwork.NewFakeClockAt(Epoch)
}

// Elapsed returns how far c has moved past Epoch.
func Elapsed(c clockwork.Clock) time.Duration {
	return c.Now().Sub(Epoch)
}
