package surface

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/roach88/fingerpick/internal/engine"
	"github.com/roach88/fingerpick/internal/interaction"
	"github.com/roach88/fingerpick/internal/notice"
)

// connection is one WebSocket peer. It is also the session's intents
// target: intents arrive on the engine goroutine and are queued for
// writePump.
type connection struct {
	id        string
	ws        *websocket.Conn
	send      chan ServerMessage
	cfg       ConnectionConfig
	lang      string
	threshold int
	logger    zerolog.Logger
}

// enqueue never blocks the engine. A full buffer drops the message.
func (c *connection) enqueue(msg ServerMessage) {
	select {
	case c.send <- msg:
	default:
		c.logger.Warn().Str("type", msg.Type).Msg("send buffer full, dropping message")
	}
}

// RequestRedraw sends the snapshot to the client.
func (c *connection) RequestRedraw(s interaction.Snapshot) {
	c.enqueue(ServerMessage{Type: string(interaction.IntentRedraw), Snapshot: &s})
}

// RequestVibrate asks the client to vibrate.
func (c *connection) RequestVibrate(d time.Duration, amplitude int) {
	c.enqueue(ServerMessage{
		Type:       string(interaction.IntentVibrate),
		DurationMs: d.Milliseconds(),
		Amplitude:  amplitude,
	})
}

// RequestSoundCue asks the client to play a cue.
func (c *connection) RequestSoundCue(cue interaction.SoundCue) {
	c.enqueue(ServerMessage{Type: string(interaction.IntentSound), Cue: cue})
}

// RequestNotification sends the notification with text in the session language.
func (c *connection) RequestNotification(kind interaction.NotificationKind) {
	c.enqueue(ServerMessage{
		Type: string(interaction.IntentNotification),
		Kind: kind,
		Text: notice.Text(c.lang, kind, c.threshold),
	})
}

// PressedStateChanged reports whether any finger is down.
func (c *connection) PressedStateChanged(pressed bool) {
	c.enqueue(ServerMessage{Type: string(interaction.IntentPressed), Pressed: &pressed})
}

// writePump handles sending messages to the WebSocket connection.
func (c *connection) writePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteJSON(msg); err != nil {
				c.logger.Debug().Err(err).Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug().Err(err).Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump feeds client messages to the engine until the connection fails.
func (c *connection) readPump(eng *engine.Engine) {
	c.ws.SetReadLimit(c.cfg.MaxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Msg("unexpected WebSocket close error")
			}
			return
		}
		c.ws.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.enqueue(ServerMessage{Type: ServerError, Error: "malformed message: " + err.Error()})
			continue
		}
		ev, err := msg.Event()
		if err != nil {
			c.enqueue(ServerMessage{Type: ServerError, Error: err.Error()})
			continue
		}
		if _, ok := eng.Enqueue(ev); !ok {
			return
		}
	}
}
