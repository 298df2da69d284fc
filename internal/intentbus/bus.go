// Package intentbus fans interaction intents out to NATS.
//
// Each intent becomes a JSON envelope on subject <prefix>.<kind>, for
// example fingerpick.intents.vibrate. Redraws are not published: they are
// frequent and only meaningful to the surface that draws them.
package intentbus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/roach88/fingerpick/internal/interaction"
)

// Publisher is the subset of *nats.Conn the bus needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Envelope is the published message body.
type Envelope struct {
	Session string          `json:"session"`
	Kind    string          `json:"kind"`
	At      time.Time       `json:"at"`
	Payload json.RawMessage `json:"payload"`
}

// Bus publishes intents for any number of sessions.
type Bus struct {
	pub    Publisher
	nc     *nats.Conn
	prefix string
	clock  clockwork.Clock
	logger zerolog.Logger
}

// Option configures a Bus.
type Option func(*Bus)

// WithClock sets the clock used to stamp envelopes.
func WithClock(c clockwork.Clock) Option {
	return func(b *Bus) { b.clock = c }
}

// WithLogger sets the bus logger.
func WithLogger(l zerolog.Logger) Option {
	return func(b *Bus) { b.logger = l }
}

// New creates a bus over an existing publisher.
func New(pub Publisher, prefix string, opts ...Option) *Bus {
	b := &Bus{
		pub:    pub,
		prefix: prefix,
		clock:  clockwork.NewRealClock(),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Connect dials NATS and returns a bus publishing on it.
func Connect(url, prefix string, opts ...Option) (*Bus, error) {
	b := New(nil, prefix, opts...)
	logger := b.logger

	nc, err := nats.Connect(url,
		nats.Name("fingerpick"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			logger.Error().Err(err).Msg("NATS error")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	b.pub = nc
	b.nc = nc
	logger.Info().Str("url", nc.ConnectedUrl()).Str("prefix", prefix).Msg("intent bus connected")
	return b, nil
}

// Close drains the NATS connection when the bus owns one.
func (b *Bus) Close() error {
	if b.nc == nil {
		return nil
	}
	return b.nc.Drain()
}

// Subject returns the subject an intent kind is published on.
func Subject(prefix string, kind interaction.IntentKind) string {
	return prefix + "." + string(kind)
}

// NewEnvelope builds the message for one intent.
func NewEnvelope(session string, kind interaction.IntentKind, at time.Time, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", kind, err)
	}
	return json.Marshal(Envelope{
		Session: session,
		Kind:    string(kind),
		At:      at.UTC(),
		Payload: raw,
	})
}

func (b *Bus) publish(session string, kind interaction.IntentKind, payload any) {
	data, err := NewEnvelope(session, kind, b.clock.Now(), payload)
	if err != nil {
		b.logger.Error().Err(err).Str("session", session).Msg("failed to build envelope")
		return
	}
	subject := Subject(b.prefix, kind)
	if err := b.pub.Publish(subject, data); err != nil {
		b.logger.Warn().Err(err).Str("subject", subject).Str("session", session).Msg("publish failed")
	}
}

// For returns the intents sink of one session.
func (b *Bus) For(session string) interaction.Intents {
	return &sessionIntents{bus: b, session: session}
}

type vibratePayload struct {
	DurationMs int64 `json:"duration_ms"`
	Amplitude  int   `json:"amplitude"`
}

type soundPayload struct {
	Cue interaction.SoundCue `json:"cue"`
}

type notificationPayload struct {
	Kind interaction.NotificationKind `json:"kind"`
}

type pressedPayload struct {
	Pressed bool `json:"pressed"`
}

type sessionIntents struct {
	bus     *Bus
	session string
}

func (s *sessionIntents) RequestRedraw(interaction.Snapshot) {}

func (s *sessionIntents) RequestVibrate(d time.Duration, amplitude int) {
	s.bus.publish(s.session, interaction.IntentVibrate, vibratePayload{DurationMs: d.Milliseconds(), Amplitude: amplitude})
}

func (s *sessionIntents) RequestSoundCue(cue interaction.SoundCue) {
	s.bus.publish(s.session, interaction.IntentSound, soundPayload{Cue: cue})
}

func (s *sessionIntents) RequestNotification(kind interaction.NotificationKind) {
	s.bus.publish(s.session, interaction.IntentNotification, notificationPayload{Kind: kind})
}

func (s *sessionIntents) PressedStateChanged(pressed bool) {
	s.bus.publish(s.session, interaction.IntentPressed, pressedPayload{Pressed: pressed})
}
