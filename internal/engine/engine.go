package engine

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/roach88/fingerpick/internal/interaction"
)

// Engine is the single-writer event loop around one interaction.Machine.
//
// CRITICAL: All machine calls happen in the goroutine running Run (or the
// goroutine calling Step, never both). External callers use Enqueue.
//
// Thread-safety model:
//   - Enqueue(), Stop(), QueueLen(): safe from any goroutine
//   - Run(), Step(): must be called from exactly one goroutine
type Engine struct {
	machine *interaction.Machine
	queue   *eventQueue
	clock   *Clock
	logger  zerolog.Logger

	// onEvent observes each event after it is applied.
	onEvent func(Event)
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(l zerolog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithClock sets the logical clock used to stamp events.
func WithClock(c *Clock) EngineOption {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithEventHook registers a callback run on the engine goroutine after each
// event is applied.
func WithEventHook(fn func(Event)) EngineOption {
	return func(e *Engine) { e.onEvent = fn }
}

// New creates an Engine driving m. The machine's scheduler clock decides
// when Run wakes up.
func New(m *interaction.Machine, opts ...EngineOption) *Engine {
	e := &Engine{
		machine: m,
		clock:   NewClock(),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.queue = newEventQueue(e.clock)
	return e
}

// Machine returns the driven machine. Only touch it from the engine goroutine.
func (e *Engine) Machine() *interaction.Machine { return e.machine }

// Enqueue submits an event for processing by the Run loop and returns its
// seq. Returns false if the engine has been stopped.
func (e *Engine) Enqueue(ev Event) (int64, bool) {
	return e.queue.Enqueue(ev)
}

// QueueLen returns the number of events waiting to be applied.
func (e *Engine) QueueLen() int { return e.queue.Len() }

// Stop closes the queue. Run applies what is already queued, then returns.
func (e *Engine) Stop() {
	e.queue.Close()
}

// Run starts the event loop. It blocks until ctx is cancelled or Stop is
// called, and detaches the machine on the way out.
//
// ERROR HANDLING: a pick that fails is logged and the loop continues; the
// machine is already back in Tracking by then.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info().Str("session", e.machine.SessionID()).Msg("engine starting")
	defer e.machine.Detach()

	wall := e.machine.Clock()
	for {
		e.fireDue()

		if ev, ok := e.queue.TryDequeue(); ok {
			e.apply(ev)
			continue
		}
		if e.queue.Drained() {
			e.logger.Info().Msg("engine stopping: queue closed")
			return nil
		}

		var timeout <-chan time.Time
		var timer clockwork.Timer
		if deadline, ok := e.machine.NextDeadline(); ok {
			wait := deadline.Sub(wall.Now())
			if wait <= 0 {
				continue
			}
			timer = wall.NewTimer(wait)
			timeout = timer.Chan()
		}

		select {
		case <-ctx.Done():
			stopTimer(timer)
			e.queue.Close()
			e.logger.Info().Msg("engine stopping: context cancelled")
			return ctx.Err()
		case <-e.queue.Wait():
			stopTimer(timer)
		case <-timeout:
		}
	}
}

func stopTimer(t clockwork.Timer) {
	if t != nil {
		t.Stop()
	}
}

// Step fires due timers and applies every queued event without blocking.
// Returns the number of events applied.
func (e *Engine) Step() int {
	n := 0
	for {
		e.fireDue()
		ev, ok := e.queue.TryDequeue()
		if !ok {
			return n
		}
		e.apply(ev)
		n++
	}
}

func (e *Engine) fireDue() {
	if err := e.machine.Tick(); err != nil {
		e.logger.Warn().Err(err).Str("phase", e.machine.Phase().String()).Msg("timer dispatch failed")
	}
}

// apply routes an event to the machine.
// CRITICAL: Called only from the loop goroutine.
func (e *Engine) apply(ev Event) {
	m := e.machine
	e.logger.Debug().Int64("seq", ev.Seq).Str("event", ev.Type.String()).Int("pointers", len(ev.Pointers)).Msg("applying event")

	switch ev.Type {
	case EventTouchDown:
		for _, p := range ev.Pointers {
			m.TouchDown(p.ID, p.X, p.Y)
		}
	case EventTouchMove:
		m.TouchMove(ev.Pointers)
	case EventTouchUp:
		for _, p := range ev.Pointers {
			m.TouchUp(p.ID)
		}
	case EventVisibilityLost:
		m.VisibilityLost()
	case EventConfigure:
		if ev.Config == nil {
			e.logger.Warn().Int64("seq", ev.Seq).Msg("configure event without config")
			return
		}
		m.Configure(*ev.Config)
	default:
		e.logger.Warn().Int64("seq", ev.Seq).Int("type", int(ev.Type)).Msg("unknown event type")
		return
	}

	if e.onEvent != nil {
		e.onEvent(ev)
	}
}
