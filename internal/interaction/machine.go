package interaction

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/roach88/fingerpick/internal/scheduler"
	"github.com/roach88/fingerpick/internal/selection"
	"github.com/roach88/fingerpick/internal/touch"
)

// Result is a locked decision. It is recomputed from scratch on every pick.
type Result struct {
	Mode Mode
	// Selected holds the picked identities in ModePick, ascending.
	Selected []int
	// Teams maps every identity to its team in ModeTeam.
	Teams map[int]int
}

func (r *Result) clone() *Result {
	if r == nil {
		return nil
	}
	out := &Result{Mode: r.Mode, Selected: slices.Clone(r.Selected)}
	if r.Teams != nil {
		out.Teams = make(map[int]int, len(r.Teams))
		for id, team := range r.Teams {
			out.Teams[id] = team
		}
	}
	return out
}

// PhaseHook observes phase transitions.
type PhaseHook func(from, to Phase)

// Machine is the interaction state machine.
//
// It owns the touch registry and the timer scheduler. Inputs arrive through
// TouchDown, TouchMove, TouchUp and VisibilityLost; timers fire through
// RunDue. Side effects leave through the Intents collaborator.
//
// Thread-safety: none. A Machine must be driven from one goroutine; the
// engine package provides that goroutine.
type Machine struct {
	cfg      Config
	registry *touch.Registry
	timers   *scheduler.Scheduler
	intents  Intents
	src      selection.Source
	logger   zerolog.Logger
	session  string
	onPhase  PhaseHook

	phase    Phase
	result   *Result
	radius   float64
	palette  []string
	detached bool
}

// Option configures a Machine.
type Option func(*Machine)

// WithClock sets the time source of the machine's scheduler.
func WithClock(c clockwork.Clock) Option {
	return func(m *Machine) { m.timers = scheduler.New(c) }
}

// WithIntents sets the collaborator that receives intents.
func WithIntents(i Intents) Option {
	return func(m *Machine) {
		if i != nil {
			m.intents = i
		}
	}
}

// WithSource sets the random source used for picks and palette shuffles.
func WithSource(src selection.Source) Option {
	return func(m *Machine) {
		if src != nil {
			m.src = src
		}
	}
}

// WithLogger sets the machine's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Machine) { m.logger = l }
}

// WithSessionID overrides the generated session id.
func WithSessionID(id string) Option {
	return func(m *Machine) { m.session = id }
}

// WithPhaseHook registers a callback for phase transitions.
func WithPhaseHook(h PhaseHook) Option {
	return func(m *Machine) { m.onPhase = h }
}

// New creates an idle machine.
//
// Without options the machine reads the real clock, draws randomness from a
// time-seeded PCG, discards intents and logs nothing.
func New(cfg Config, opts ...Option) *Machine {
	m := &Machine{
		intents: NopIntents{},
		logger:  zerolog.Nop(),
		palette: slices.Clone(DefaultPalette),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.timers == nil {
		m.timers = scheduler.New(nil)
	}
	if m.src == nil {
		m.src = selection.NewSource(0)
	}
	if m.session == "" {
		m.session = newSessionID()
	}
	m.logger = m.logger.With().Str("session", m.session).Logger()

	m.cfg = normalize(cfg)
	m.registry = touch.NewRegistry(m.cfg.Capacity)
	m.cfg.Capacity = m.registry.Capacity()
	m.radius = m.cfg.Tracking.Min
	return m
}

func newSessionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// normalize keeps self-repeating ticks from spinning on a zero interval.
func normalize(cfg Config) Config {
	def := DefaultDelays()
	if cfg.Delays.AnimRepeat <= 0 {
		cfg.Delays.AnimRepeat = def.AnimRepeat
	}
	if cfg.Delays.AnimAfterPick <= 0 {
		cfg.Delays.AnimAfterPick = def.AnimAfterPick
	}
	return cfg
}

// SessionID returns the machine's session id.
func (m *Machine) SessionID() string { return m.session }

// Phase returns the current phase.
func (m *Machine) Phase() Phase { return m.phase }

// Config returns the active configuration.
func (m *Machine) Config() Config { return m.cfg }

// Touches returns the number of tracked points.
func (m *Machine) Touches() int { return m.registry.Size() }

// Radius returns the current animation radius.
func (m *Machine) Radius() float64 { return m.radius }

// Result returns a copy of the locked result, or nil.
func (m *Machine) Result() *Result { return m.result.clone() }

// IsPending reports whether a timer for tag is armed.
func (m *Machine) IsPending(tag scheduler.Tag) bool { return m.timers.IsPending(tag) }

// PendingTags lists the armed timers.
func (m *Machine) PendingTags() []scheduler.Tag { return m.timers.PendingTags() }

// NextDeadline returns when the next timer is due.
func (m *Machine) NextDeadline() (time.Time, bool) { return m.timers.NextDeadline() }

// Clock returns the machine's time source.
func (m *Machine) Clock() clockwork.Clock { return m.timers.Clock() }

// Detached reports whether Detach has been called.
func (m *Machine) Detached() bool { return m.detached }

// TouchDown registers a contact and re-evaluates the decision timers.
func (m *Machine) TouchDown(id int, x, y float64) {
	if m.detached {
		return
	}
	if m.phase == PhaseLocked {
		if m.cfg.KeepLocked {
			m.logger.Debug().Int("pointer", id).Str("reason", "locked").Msg("touch-down ignored")
			return
		}
		m.unlock()
	}

	wasEmpty := m.registry.IsEmpty()
	if m.registry.RegisterDown(id, x, y) {
		m.logger.Debug().Int("pointer", id).Int("count", m.registry.Size()).Msg("touch-down")
		if wasEmpty {
			m.intents.PressedStateChanged(true)
		}
	} else {
		reason := "capacity_exceeded"
		if id < 0 {
			reason = "invalid_identity"
		}
		m.logger.Debug().Int("pointer", id).Str("reason", reason).Msg("touch-down ignored")
	}

	m.stopDeciding()
	m.evaluate()
	m.redraw()
}

// TouchMove updates the positions of a batch of pointers.
// Unknown identities are skipped. Moves never change the phase.
func (m *Machine) TouchMove(points []touch.Point) {
	if m.detached {
		return
	}
	if m.phase == PhaseLocked && m.cfg.MovePolicy == MoveIgnoreWhenLocked {
		return
	}
	if m.registry.MoveAll(points) > 0 {
		m.redraw()
	}
}

// TouchUp removes a contact. Releasing the last contact resets the machine.
func (m *Machine) TouchUp(id int) {
	if m.detached {
		return
	}
	if _, ok := m.registry.RegisterUp(id); !ok {
		m.logger.Debug().Int("pointer", id).Str("reason", "unknown_identity").Msg("touch-up ignored")
		return
	}
	m.logger.Debug().Int("pointer", id).Int("count", m.registry.Size()).Msg("touch-up")

	switch {
	case m.registry.IsEmpty():
		m.reset("last_touch_up")
	case m.phase == PhaseLocked:
		// the result stays on screen until the reset timer
	default:
		m.stopDeciding()
		m.evaluate()
	}
	m.redraw()
}

// VisibilityLost cancels every timer and returns to Idle.
func (m *Machine) VisibilityLost() {
	if m.detached {
		return
	}
	m.reset("visibility_lost")
	m.redraw()
}

// Configure replaces the configuration. A locked result keeps its mode
// until reset. Capacity changes apply only while no touch is tracked.
//
// The threshold is re-checked at once: a Deciding countdown that no longer
// has a surplus is cancelled, and Tracking with a new surplus starts one.
// A countdown that still has its surplus keeps running.
func (m *Machine) Configure(cfg Config) {
	if m.detached {
		return
	}
	cfg = normalize(cfg)
	if cfg.Capacity != m.registry.Capacity() && m.registry.IsEmpty() {
		m.registry = touch.NewRegistry(cfg.Capacity)
	}
	cfg.Capacity = m.registry.Capacity()
	m.cfg = cfg
	m.logger.Info().
		Str("mode", cfg.Mode.String()).
		Int("threshold", cfg.Threshold).
		Int("team_count", cfg.TeamCount).
		Msg("configuration updated")

	surplus := m.registry.Size() > cfg.Threshold
	if (m.phase == PhaseDeciding && !surplus) || (m.phase == PhaseTracking && surplus) {
		m.stopDeciding()
		m.evaluate()
		m.redraw()
	}
}

// RunDue fires every timer due at or before now. Pick failures are joined
// into the returned error; the machine stays usable either way.
func (m *Machine) RunDue(now time.Time) error {
	if m.detached {
		return nil
	}
	var errs []error
	m.timers.RunDue(now, func(f scheduler.Firing) {
		if err := m.fire(f.Tag); err != nil {
			errs = append(errs, err)
		}
	})
	return errors.Join(errs...)
}

// Tick fires every timer due by the machine's clock.
func (m *Machine) Tick() error { return m.RunDue(m.timers.Clock().Now()) }

// Detach cancels every timer and turns later input into no-ops.
// Calling it more than once is harmless.
func (m *Machine) Detach() {
	if m.detached {
		return
	}
	n := m.timers.CancelAll()
	m.registry.Clear()
	m.result = nil
	m.detached = true
	m.logger.Info().Int("cancelled", n).Msg("session detached")
}

func (m *Machine) fire(tag scheduler.Tag) error {
	m.logger.Debug().Str("tag", tag.String()).Msg("timer fired")
	switch tag {
	case scheduler.TagSoundCue:
		m.intents.RequestSoundCue(SoundTrigger)
	case scheduler.TagPick:
		return m.pick()
	case scheduler.TagAnimBeforePick:
		if m.phase != PhaseDeciding {
			return nil
		}
		m.radius = m.cfg.Tracking.next(m.radius)
		m.timers.ScheduleIfAbsent(scheduler.TagAnimBeforePick, m.cfg.Delays.AnimRepeat)
		m.redraw()
	case scheduler.TagAnimAfterPick:
		if m.phase != PhaseLocked {
			return nil
		}
		m.radius = m.cfg.Selected.next(m.radius)
		m.timers.ScheduleIfAbsent(scheduler.TagAnimAfterPick, m.cfg.Delays.AnimAfterPick)
		m.redraw()
	case scheduler.TagReset:
		m.reset("reset_timer")
		m.redraw()
	case scheduler.TagExplain:
		m.intents.RequestNotification(NotificationNotEnoughFingers)
	}
	return nil
}

// stopDeciding cancels the Deciding timers and the explain notification.
func (m *Machine) stopDeciding() {
	m.timers.Cancel(scheduler.TagSoundCue)
	m.timers.Cancel(scheduler.TagPick)
	m.timers.Cancel(scheduler.TagAnimBeforePick)
	m.timers.Cancel(scheduler.TagExplain)
}

// evaluate arms the Deciding timers when strictly more than Threshold
// contacts are down. Callers cancel first, so each tag is armed at most once.
func (m *Machine) evaluate() {
	if m.registry.IsEmpty() {
		m.setPhase(PhaseIdle)
		return
	}
	d := m.cfg.Delays
	if m.registry.Size() > m.cfg.Threshold {
		m.timers.Schedule(scheduler.TagSoundCue, d.SoundCue)
		m.timers.Schedule(scheduler.TagPick, d.Pick)
		m.timers.Schedule(scheduler.TagAnimBeforePick, d.AnimStart)
		m.setPhase(PhaseDeciding)
		return
	}
	if m.phase == PhaseDeciding {
		m.radius = m.cfg.Tracking.Min
	}
	if m.cfg.Explain {
		m.timers.Schedule(scheduler.TagExplain, d.Explain)
	}
	m.setPhase(PhaseTracking)
}

func (m *Machine) pick() error {
	ids := m.registry.Identities()
	res, err := m.decide(ids)
	m.timers.Cancel(scheduler.TagAnimBeforePick)
	if err != nil {
		m.logger.Warn().Err(err).Int("count", len(ids)).Str("mode", m.cfg.Mode.String()).Msg("pick rejected")
		m.radius = m.cfg.Tracking.Min
		m.setPhase(PhaseTracking)
		m.intents.RequestNotification(NotificationPickFailed)
		m.redraw()
		return fmt.Errorf("pick among %d touches: %w", len(ids), err)
	}

	m.result = res
	m.intents.RequestSoundCue(SoundSelect)
	m.radius = m.cfg.Selected.Min
	m.setPhase(PhaseLocked)
	m.timers.Cancel(scheduler.TagReset)
	m.timers.Schedule(scheduler.TagReset, m.cfg.Delays.ResetFor(res.Mode))
	m.timers.ScheduleIfAbsent(scheduler.TagAnimAfterPick, m.cfg.Delays.AnimAfterPick)
	m.redraw()
	m.intents.RequestVibrate(m.cfg.VibrateDuration, m.cfg.VibrateAmplitude)

	ev := m.logger.Info().Str("mode", res.Mode.String()).Int("count", len(ids))
	if res.Mode == ModePick {
		ev = ev.Ints("selected", res.Selected)
	}
	ev.Msg("result locked")
	return nil
}

func (m *Machine) decide(ids []int) (*Result, error) {
	switch m.cfg.Mode {
	case ModePick:
		picked, err := selection.PickN(ids, m.cfg.Threshold, m.src)
		if err != nil {
			return nil, err
		}
		return &Result{Mode: ModePick, Selected: picked}, nil
	case ModeTeam:
		teams, err := selection.PartitionTeams(ids, m.cfg.TeamCount, m.src)
		if err != nil {
			return nil, err
		}
		return &Result{Mode: ModeTeam, Teams: teams}, nil
	case ModeRank:
		_, err := selection.PickRank(ids, m.cfg.Threshold)
		return nil, err
	default:
		return nil, selection.NewUnsupportedMode(m.cfg.Mode.String())
	}
}

// unlock drops a locked result so a new touch can start over.
func (m *Machine) unlock() {
	m.timers.Cancel(scheduler.TagReset)
	m.timers.Cancel(scheduler.TagAnimAfterPick)
	m.result = nil
	m.radius = m.cfg.Tracking.Min
	m.setPhase(PhaseTracking)
}

// reset is the full reset: timers, contacts and result are cleared.
func (m *Machine) reset(reason string) {
	n := m.timers.CancelAll()
	pressed := !m.registry.IsEmpty() || m.phase != PhaseIdle
	m.registry.Clear()
	m.result = nil
	m.radius = m.cfg.Tracking.Min
	m.src.Shuffle(len(m.palette), func(i, j int) {
		m.palette[i], m.palette[j] = m.palette[j], m.palette[i]
	})
	if pressed {
		m.intents.PressedStateChanged(false)
	}
	m.logger.Debug().Str("reason", reason).Int("cancelled", n).Msg("reset")
	m.setPhase(PhaseIdle)
}

func (m *Machine) setPhase(p Phase) {
	if p == m.phase {
		return
	}
	from := m.phase
	m.phase = p
	m.logger.Info().Str("from", from.String()).Str("phase", p.String()).Msg("phase changed")
	if m.onPhase != nil {
		m.onPhase(from, p)
	}
}

func (m *Machine) redraw() {
	m.intents.RequestRedraw(m.Snapshot())
}

func (m *Machine) colour(i int) string {
	if i < 0 {
		i = -i
	}
	return m.palette[i%len(m.palette)]
}

// Snapshot describes what to draw right now.
func (m *Machine) Snapshot() Snapshot {
	s := Snapshot{
		Phase:  m.phase,
		Mode:   m.cfg.Mode,
		Locked: m.phase == PhaseLocked && m.result != nil,
		Radius: m.radius,
		Points: []DrawPoint{},
	}
	if s.Locked {
		s.Mode = m.result.Mode
	}
	for _, p := range m.registry.Points() {
		dp := DrawPoint{ID: p.ID, X: p.X, Y: p.Y, Team: -1}
		switch {
		case s.Locked && m.result.Mode == ModePick:
			if !slices.Contains(m.result.Selected, p.ID) {
				continue
			}
			dp.Selected = true
			dp.Color = m.colour(p.ID)
		case s.Locked && m.result.Mode == ModeTeam:
			dp.Team = m.result.Teams[p.ID]
			dp.Color = m.colour(dp.Team)
		case m.cfg.Mode == ModeTeam:
			dp.Color = Gray
		default:
			dp.Color = m.colour(p.ID)
		}
		s.Points = append(s.Points, dp)
	}
	return s
}
