package harness

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/roach88/fingerpick/internal/config"
	"github.com/roach88/fingerpick/internal/engine"
	"github.com/roach88/fingerpick/internal/interaction"
	"github.com/roach88/fingerpick/internal/selection"
	"github.com/roach88/fingerpick/internal/testutil"
	"github.com/roach88/fingerpick/internal/touch"
)

// Harness is the scenario execution engine.
// It owns the goroutine, so it drives the engine with Step instead of Run.
type Harness struct {
	clock   *clockwork.FakeClock
	seq     *engine.Clock
	machine *interaction.Machine
	engine  *engine.Engine
	cfg     config.Config
	result  *Result
}

// Option configures a run.
type Option func(*options)

type options struct {
	logger zerolog.Logger
}

// WithLogger routes machine and engine logs to l. Runs are silent by default.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Build a machine over a fresh fake clock with a deterministic source
//  2. Feed each step through the engine, checking expect clauses
//  3. Evaluate assertions against the trace and final state
//
// An error is returned only when the scenario cannot be run at all; failed
// expectations are reported in Result.Errors.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	mc, err := scenario.Config.Machine()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	var src selection.Source = testutil.StableSource{}
	if scenario.Seed != nil {
		src = selection.NewSource(*scenario.Seed)
	}

	h := &Harness{
		clock:  testutil.NewFakeClock(),
		seq:    engine.NewClock(),
		cfg:    scenario.Config,
		result: NewResult(),
	}
	h.machine = interaction.New(mc,
		interaction.WithClock(h.clock),
		interaction.WithIntents(h),
		interaction.WithSource(src),
		interaction.WithLogger(o.logger),
		interaction.WithSessionID("scenario:"+scenario.Name),
		interaction.WithPhaseHook(h.phaseChanged),
	)
	h.engine = engine.New(h.machine, engine.WithLogger(o.logger))

	for i, step := range scenario.Steps {
		if err := h.execute(step); err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
		if step.Expect != nil {
			where := fmt.Sprintf("steps[%d] (%s)", i, step.Action())
			for _, msg := range checkExpect(where, step.Expect, h.state()) {
				h.result.AddError(msg)
			}
		}
	}

	h.result.Final = h.state()
	for _, msg := range EvaluateAssertions(h.result, scenario.Assertions) {
		h.result.AddError(msg)
	}
	return h.result, nil
}

func (h *Harness) execute(step Step) error {
	switch step.Action() {
	case "down":
		h.input(engine.Down(points(step.Down)...))
	case "move":
		h.input(engine.Move(points(step.Move)...))
	case "up":
		h.input(engine.Up(step.Up...))
	case "hide":
		h.input(engine.Hide())
	case "configure":
		h.cfg = step.Configure.Apply(h.cfg)
		mc, err := h.cfg.Machine()
		if err != nil {
			return err
		}
		h.input(engine.Configure(mc))
	case "advance":
		h.advance(time.Duration(step.Advance) * time.Millisecond)
	default:
		return fmt.Errorf("empty step")
	}
	return nil
}

// input records ev in the trace, then applies it.
func (h *Harness) input(ev engine.Event) {
	h.trace(ev.Type.String(), inputDetail(ev))
	h.engine.Enqueue(ev)
	h.engine.Step()
}

// advance walks the clock deadline by deadline up to d from now.
func (h *Harness) advance(d time.Duration) {
	target := h.clock.Now().Add(d)
	for {
		next, ok := h.machine.NextDeadline()
		if !ok || next.After(target) {
			break
		}
		if now := h.clock.Now(); next.After(now) {
			h.clock.Advance(next.Sub(now))
		}
		h.engine.Step()
	}
	h.clock.Advance(target.Sub(h.clock.Now()))
	h.engine.Step()
}

func (h *Harness) state() FinalState {
	var pending []string
	for _, tag := range h.machine.PendingTags() {
		pending = append(pending, tag.String())
	}
	if pending == nil {
		pending = []string{}
	}
	return FinalState{
		Phase:    h.machine.Phase().String(),
		Touches:  h.machine.Touches(),
		Pending:  pending,
		Result:   h.machine.Result(),
		Snapshot: h.machine.Snapshot(),
	}
}

func (h *Harness) trace(kind, detail string) {
	h.result.Trace = append(h.result.Trace, TraceEvent{
		Seq:    h.seq.Next(),
		AtMs:   testutil.Elapsed(h.clock).Milliseconds(),
		Kind:   kind,
		Detail: detail,
	})
}

func (h *Harness) phaseChanged(from, to interaction.Phase) {
	h.trace(KindPhase, from.String()+"->"+to.String())
	if to == interaction.PhaseLocked {
		h.result.Locked = h.machine.Result()
		h.trace(KindResult, FormatResult(h.result.Locked))
	}
}

// RequestRedraw is left out of the trace.
func (h *Harness) RequestRedraw(interaction.Snapshot) {}

func (h *Harness) RequestVibrate(d time.Duration, amplitude int) {
	h.trace(KindVibrate, fmt.Sprintf("%dms@%d", d.Milliseconds(), amplitude))
}

func (h *Harness) RequestSoundCue(cue interaction.SoundCue) {
	h.trace(KindSound, string(cue))
}

func (h *Harness) RequestNotification(kind interaction.NotificationKind) {
	h.trace(KindNotification, string(kind))
}

func (h *Harness) PressedStateChanged(pressed bool) {
	h.trace(KindPressed, strconv.FormatBool(pressed))
}

func points(ps []Pointer) []touch.Point {
	out := make([]touch.Point, len(ps))
	for i, p := range ps {
		out[i] = touch.Point{ID: p.ID, X: p.X, Y: p.Y}
	}
	return out
}

func joinInts(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}

func inputDetail(ev engine.Event) string {
	switch ev.Type {
	case engine.EventConfigure:
		c := ev.Config
		return fmt.Sprintf("mode=%s threshold=%d team_count=%d", c.Mode, c.Threshold, c.TeamCount)
	case engine.EventVisibilityLost:
		return ""
	default:
		ids := make([]int, len(ev.Pointers))
		for i, p := range ev.Pointers {
			ids[i] = p.ID
		}
		return joinInts(ids)
	}
}

// FormatResult renders a result as "selected=1,2" or "teams=0:0,1:1".
func FormatResult(r *interaction.Result) string {
	if r == nil {
		return "none"
	}
	if r.Mode != interaction.ModeTeam {
		return "selected=" + joinInts(r.Selected)
	}
	ids := make([]int, 0, len(r.Teams))
	for id := range r.Teams {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d:%d", id, r.Teams[id])
	}
	return "teams=" + strings.Join(parts, ",")
}
