package surface

import (
	"fmt"

	"github.com/roach88/fingerpick/internal/engine"
	"github.com/roach88/fingerpick/internal/interaction"
	"github.com/roach88/fingerpick/internal/touch"
)

// Client message types.
const (
	ClientDown = "down"
	ClientMove = "move"
	ClientUp   = "up"
	ClientHide = "hide"
)

// ClientPointer is one contact as sent by the host.
type ClientPointer struct {
	ID int     `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// ClientMessage is a touch input from the host.
type ClientMessage struct {
	Type     string          `json:"type"`
	Pointers []ClientPointer `json:"pointers,omitempty"`
}

// Event converts the message into an engine event.
func (m ClientMessage) Event() (engine.Event, error) {
	points := make([]touch.Point, len(m.Pointers))
	for i, p := range m.Pointers {
		points[i] = touch.Point{ID: p.ID, X: p.X, Y: p.Y}
	}

	switch m.Type {
	case ClientDown:
		return engine.Down(points...), nil
	case ClientMove:
		return engine.Move(points...), nil
	case ClientUp:
		ids := make([]int, len(m.Pointers))
		for i, p := range m.Pointers {
			ids[i] = p.ID
		}
		return engine.Up(ids...), nil
	case ClientHide:
		return engine.Hide(), nil
	default:
		return engine.Event{}, fmt.Errorf("unknown message type %q", m.Type)
	}
}

// ServerMessage is an intent delivered to the host. Only the fields of
// its Type are set.
type ServerMessage struct {
	Type       string                       `json:"type"`
	Session    string                       `json:"session,omitempty"`
	Snapshot   *interaction.Snapshot        `json:"snapshot,omitempty"`
	DurationMs int64                        `json:"duration_ms,omitempty"`
	Amplitude  int                          `json:"amplitude,omitempty"`
	Cue        interaction.SoundCue         `json:"cue,omitempty"`
	Kind       interaction.NotificationKind `json:"kind,omitempty"`
	Text       string                       `json:"text,omitempty"`
	Pressed    *bool                        `json:"pressed,omitempty"`
	Error      string                       `json:"error,omitempty"`
}

// Server message types besides the intent kinds.
const (
	ServerHello = "hello"
	ServerError = "error"
)
