package harness

import (
	"github.com/roach88/fingerpick/internal/interaction"
)

// Trace event kinds besides the engine's input kinds (down, move, up, hide,
// configure).
const (
	KindPhase        = "phase"
	KindResult       = "result"
	KindSound        = "sound"
	KindVibrate      = "vibrate"
	KindNotification = "notification"
	KindPressed      = "pressed"
)

// TraceEvent is one trace entry.
type TraceEvent struct {
	Seq    int64  `json:"seq"`
	AtMs   int64  `json:"at_ms"`
	Kind   string `json:"kind"`
	Detail string `json:"detail,omitempty"`
}

// Label renders the event as kind or kind:detail, the form used by
// trace_order assertions.
func (e TraceEvent) Label() string {
	if e.Detail == "" {
		return e.Kind
	}
	return e.Kind + ":" + e.Detail
}

// FinalState describes the machine after the last step.
type FinalState struct {
	Phase    string               `json:"phase"`
	Touches  int                  `json:"touches"`
	Pending  []string             `json:"pending"`
	Result   *interaction.Result  `json:"-"`
	Snapshot interaction.Snapshot `json:"snapshot"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass   bool         `json:"pass"`
	Trace  []TraceEvent `json:"trace"`
	Errors []string     `json:"errors,omitempty"`
	Final  FinalState   `json:"final"`

	// Locked is the last result the machine locked during the run. It
	// survives the reset that usually ends a scenario.
	Locked *interaction.Result `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
