// Package scheduler implements named, delayable, cancellable one-shot timers
// for the interaction goroutine.
//
// ARCHITECTURE:
//
// The Scheduler never starts goroutines and never calls back on its own.
// It only records deadlines. The owner asks for NextDeadline to know how
// long it may sleep and calls RunDue to dispatch whatever has expired. All
// of this happens on the owner's single goroutine, so the scheduler carries
// no locks.
//
// Ordering:
//   - Due entries fire in deadline order; equal deadlines fire in the order
//     they were armed (logical sequence number).
//   - RunDue re-reads the pending set after every dispatch, so a handler
//     that cancels a tag suppresses any later entry for it, even one due at
//     the same instant.
//   - While an entry is being dispatched, delays are measured from its
//     deadline rather than the wall clock. Self-repeating ticks therefore
//     do not drift, and advancing a fake clock by a large step replays
//     every intermediate tick.
package scheduler

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Firing is a dispatched timer.
type Firing struct {
	Tag      Tag
	Seq      int64
	Deadline time.Time
}

type entry struct {
	tag      Tag
	seq      int64
	deadline time.Time
}

// Scheduler holds pending one-shot timers keyed by tag.
type Scheduler struct {
	clock   clockwork.Clock
	pending []entry
	seq     int64

	// dispatchAt is the deadline of the entry being dispatched; zero otherwise.
	dispatchAt time.Time
}

// New creates a scheduler reading time from clock.
// A nil clock falls back to clockwork.NewRealClock().
func New(clock clockwork.Clock) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{clock: clock}
}

// Clock returns the scheduler's time source.
func (s *Scheduler) Clock() clockwork.Clock { return s.clock }

// now is the reference point for new deadlines.
func (s *Scheduler) now() time.Time {
	if !s.dispatchAt.IsZero() {
		return s.dispatchAt
	}
	return s.clock.Now()
}

// Schedule arms a one-shot timer for tag after delay. Repeated schedules for
// the same tag queue independently. Returns the entry's sequence number.
func (s *Scheduler) Schedule(tag Tag, delay time.Duration) int64 {
	if delay < 0 {
		delay = 0
	}
	s.seq++
	s.pending = append(s.pending, entry{
		tag:      tag,
		seq:      s.seq,
		deadline: s.now().Add(delay),
	})
	return s.seq
}

// ScheduleIfAbsent arms tag only when nothing is pending for it.
// Reports whether a timer was armed.
func (s *Scheduler) ScheduleIfAbsent(tag Tag, delay time.Duration) bool {
	if s.IsPending(tag) {
		return false
	}
	s.Schedule(tag, delay)
	return true
}

// Cancel removes every pending entry for tag and returns how many were removed.
func (s *Scheduler) Cancel(tag Tag) int {
	kept := s.pending[:0]
	removed := 0
	for _, e := range s.pending {
		if e.tag == tag {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	clear(s.pending[len(kept):])
	s.pending = kept
	return removed
}

// CancelAll removes every pending entry.
func (s *Scheduler) CancelAll() int {
	n := len(s.pending)
	s.pending = s.pending[:0]
	return n
}

// IsPending reports whether tag has at least one pending entry.
func (s *Scheduler) IsPending(tag Tag) bool {
	for _, e := range s.pending {
		if e.tag == tag {
			return true
		}
	}
	return false
}

// PendingCount returns the number of pending entries for tag.
func (s *Scheduler) PendingCount(tag Tag) int {
	n := 0
	for _, e := range s.pending {
		if e.tag == tag {
			n++
		}
	}
	return n
}

// Len returns the total number of pending entries.
func (s *Scheduler) Len() int { return len(s.pending) }

// PendingTags returns the distinct pending tags in AllTags order.
func (s *Scheduler) PendingTags() []Tag {
	var out []Tag
	for _, tag := range AllTags {
		if s.IsPending(tag) {
			out = append(out, tag)
		}
	}
	return out
}

// NextDeadline returns the earliest pending deadline.
func (s *Scheduler) NextDeadline() (time.Time, bool) {
	i := s.earliest()
	if i < 0 {
		return time.Time{}, false
	}
	return s.pending[i].deadline, true
}

// earliest returns the index of the entry that fires first, or -1.
func (s *Scheduler) earliest() int {
	best := -1
	for i, e := range s.pending {
		if best < 0 {
			best = i
			continue
		}
		b := s.pending[best]
		if e.deadline.Before(b.deadline) || (e.deadline.Equal(b.deadline) && e.seq < b.seq) {
			best = i
		}
	}
	return best
}

// PopDue removes and returns the earliest entry due at or before now.
func (s *Scheduler) PopDue(now time.Time) (Firing, bool) {
	i := s.earliest()
	if i < 0 || s.pending[i].deadline.After(now) {
		return Firing{}, false
	}
	e := s.pending[i]
	s.pending = append(s.pending[:i], s.pending[i+1:]...)
	return Firing{Tag: e.tag, Seq: e.seq, Deadline: e.deadline}, true
}

// RunDue dispatches every entry due at or before now, one at a time, and
// returns how many fired. Entries armed by dispatch that are themselves
// due by now fire in the same call.
func (s *Scheduler) RunDue(now time.Time, dispatch func(Firing)) int {
	fired := 0
	for {
		f, ok := s.PopDue(now)
		if !ok {
			return fired
		}
		s.dispatchAt = f.Deadline
		dispatch(f)
		s.dispatchAt = time.Time{}
		fired++
	}
}
