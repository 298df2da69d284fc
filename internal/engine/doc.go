// Package engine runs an interaction.Machine on its own goroutine.
//
// ARCHITECTURE:
//
// Single-Writer Event Loop:
// The machine is not safe for concurrent use, so every touch event, timer
// firing and configuration change is applied from one goroutine. This keeps
// the machine free of locks and makes every cancel-before-fire race
// impossible by construction.
//
// Event Processing Flow:
//  1. Host surfaces call Enqueue from any goroutine; events land in a FIFO
//     queue stamped with a logical sequence number.
//  2. Run fires every timer that is already due, then applies one queued
//     event, and repeats.
//  3. With nothing queued, Run sleeps on a clockwork timer armed for the
//     machine's next deadline and wakes early when a new event arrives.
//  4. When Run exits the machine is detached: pending timers are cancelled
//     and later events are dropped.
//
// Timers due before an event are fired before it is applied, so a pick that
// was due at t=3000ms cannot be postponed by a touch processed later.
//
// Step offers the same processing synchronously for callers that already
// own the goroutine, such as the scenario harness driving a fake clock.
//
// CRITICAL PATTERNS:
//
// Logical Clock
// Events are ordered by the seq number from Clock.Next(), assigned under the
// queue lock. Wall-clock time only decides when timers are due.
package engine
