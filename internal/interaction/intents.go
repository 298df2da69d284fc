package interaction

import (
	"sync"
	"time"
)

// SoundCue names an audio cue.
type SoundCue string

const (
	SoundTrigger SoundCue = "trigger"
	SoundSelect  SoundCue = "select"
)

// NotificationKind names a user-facing notification.
type NotificationKind string

const (
	// NotificationNotEnoughFingers asks for more fingers than the threshold.
	NotificationNotEnoughFingers NotificationKind = "not_enough_fingers"
	// NotificationPickFailed reports a pick that produced no result.
	NotificationPickFailed NotificationKind = "pick_failed"
)

// Intents receives fire-and-forget requests from the machine.
//
// Implementations are called synchronously on the interaction goroutine and
// must not block or call back into the machine. Snapshots are immutable.
type Intents interface {
	RequestRedraw(s Snapshot)
	RequestVibrate(d time.Duration, amplitude int)
	RequestSoundCue(cue SoundCue)
	RequestNotification(kind NotificationKind)
	PressedStateChanged(pressed bool)
}

// NopIntents discards every intent.
type NopIntents struct{}

// RequestRedraw does nothing.
func (NopIntents) RequestRedraw(Snapshot) {}

// RequestVibrate does nothing.
func (NopIntents) RequestVibrate(time.Duration, int) {}

// RequestSoundCue does nothing.
func (NopIntents) RequestSoundCue(SoundCue) {}

// RequestNotification does nothing.
func (NopIntents) RequestNotification(NotificationKind) {}

// PressedStateChanged does nothing.
func (NopIntents) PressedStateChanged(bool) {}

// Fanout forwards every intent to each target in order.
type Fanout []Intents

// RequestRedraw forwards the snapshot to every target.
func (f Fanout) RequestRedraw(s Snapshot) {
	for _, t := range f {
		t.RequestRedraw(s)
	}
}

// RequestVibrate forwards a vibration request to every target.
func (f Fanout) RequestVibrate(d time.Duration, amplitude int) {
	for _, t := range f {
		t.RequestVibrate(d, amplitude)
	}
}

// RequestSoundCue forwards a sound cue to every target.
func (f Fanout) RequestSoundCue(cue SoundCue) {
	for _, t := range f {
		t.RequestSoundCue(cue)
	}
}

// RequestNotification forwards a notification to every target.
func (f Fanout) RequestNotification(kind NotificationKind) {
	for _, t := range f {
		t.RequestNotification(kind)
	}
}

// PressedStateChanged forwards the pressed state to every target.
func (f Fanout) PressedStateChanged(pressed bool) {
	for _, t := range f {
		t.PressedStateChanged(pressed)
	}
}

// IntentKind labels a recorded intent.
type IntentKind string

const (
	IntentRedraw       IntentKind = "redraw"
	IntentVibrate      IntentKind = "vibrate"
	IntentSound        IntentKind = "sound"
	IntentNotification IntentKind = "notification"
	IntentPressed      IntentKind = "pressed"
)

// Intent is one recorded request.
type Intent struct {
	Kind IntentKind
	// Detail is the cue, notification kind or "true"/"false" for pressed.
	Detail   string
	Snapshot *Snapshot
	Duration time.Duration
	Amount   int
}

// Recorder keeps every intent it receives. Used by the scenario harness and
// tests.
//
// Thread-safety: safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	intents []Intent
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) add(i Intent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intents = append(r.intents, i)
}

// RequestRedraw records a redraw with its snapshot.
func (r *Recorder) RequestRedraw(s Snapshot) {
	r.add(Intent{Kind: IntentRedraw, Snapshot: &s})
}

// RequestVibrate records the duration and amplitude.
func (r *Recorder) RequestVibrate(d time.Duration, amplitude int) {
	r.add(Intent{Kind: IntentVibrate, Duration: d, Amount: amplitude})
}

// RequestSoundCue records the cue as the detail.
func (r *Recorder) RequestSoundCue(cue SoundCue) {
	r.add(Intent{Kind: IntentSound, Detail: string(cue)})
}

// RequestNotification records the notification kind as the detail.
func (r *Recorder) RequestNotification(kind NotificationKind) {
	r.add(Intent{Kind: IntentNotification, Detail: string(kind)})
}

// PressedStateChanged records "true" or "false".
func (r *Recorder) PressedStateChanged(pressed bool) {
	detail := "false"
	if pressed {
		detail = "true"
	}
	r.add(Intent{Kind: IntentPressed, Detail: detail})
}

// All returns a copy of everything recorded so far.
func (r *Recorder) All() []Intent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Intent(nil), r.intents...)
}

// Count returns how many intents of kind were recorded, optionally
// filtered by detail ("" matches any).
func (r *Recorder) Count(kind IntentKind, detail string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, i := range r.intents {
		if i.Kind == kind && (detail == "" || i.Detail == detail) {
			n++
		}
	}
	return n
}

// Last returns the most recent intent of kind.
func (r *Recorder) Last(kind IntentKind) (Intent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.intents) - 1; i >= 0; i-- {
		if r.intents[i].Kind == kind {
			return r.intents[i], true
		}
	}
	return Intent{}, false
}

// Drain returns and forgets everything recorded so far.
func (r *Recorder) Drain() []Intent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.intents
	r.intents = nil
	return out
}
