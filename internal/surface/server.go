// Package surface hosts interaction sessions over WebSocket.
//
// Every connection to GET /ws owns one machine and one engine. The host
// sends touch input as JSON; the session answers with the machine's intents
// (redraw, vibrate, sound, notification, pressed). Closing the connection
// detaches the session.
package surface

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/roach88/fingerpick/internal/engine"
	"github.com/roach88/fingerpick/internal/interaction"
	"github.com/roach88/fingerpick/internal/notice"
)

// ConnectionConfig holds configuration for WebSocket connections.
type ConnectionConfig struct {
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	PingInterval   time.Duration
	MaxMessageSize int64
	SendBuffer     int
}

// DefaultConnectionConfig returns default WebSocket configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:   10 * time.Second,
		ReadTimeout:    60 * time.Second,
		PingInterval:   30 * time.Second,
		MaxMessageSize: 4096,
		SendBuffer:     256,
	}
}

// Config parameterises a Server.
type Config struct {
	Machine        interaction.Config
	Language       string
	AllowedOrigins []string
	Connection     ConnectionConfig
}

// SessionSink hands out an extra intents target per session.
// *intentbus.Bus implements it.
type SessionSink interface {
	For(session string) interaction.Intents
}

// Server accepts WebSocket sessions.
type Server struct {
	cfg      Config
	cors     *cors.Cors
	upgrader websocket.Upgrader
	logger   zerolog.Logger
	clock    clockwork.Clock
	sink     SessionSink

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	active atomic.Int64

	// mu orders session registration against Close.
	mu      sync.Mutex
	closing bool
	events atomic.Int64
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger. Sessions log through it too.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithClock sets the clock every session's machine runs on.
func WithClock(c clockwork.Clock) Option {
	return func(s *Server) { s.clock = c }
}

// WithSessionSink adds a per-session intents target such as the intent bus.
func WithSessionSink(sink SessionSink) Option {
	return func(s *Server) { s.sink = sink }
}

// New creates a server. Sessions stop when Close is called.
func New(cfg Config, opts ...Option) *Server {
	if cfg.Connection == (ConnectionConfig{}) {
		cfg.Connection = DefaultConnectionConfig()
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	s := &Server{
		cfg:    cfg,
		logger: zerolog.Nop(),
		clock:  clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.cors = cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead},
		AllowedHeaders: []string{"*"},
	})
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if r.Header.Get("Origin") == "" {
				return true
			}
			return s.cors.OriginAllowed(r)
		},
	}
	return s
}

// Handler returns the HTTP handler with /ws and /healthz behind CORS.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return s.cors.Handler(mux)
}

// Active returns the number of open sessions.
func (s *Server) Active() int { return int(s.active.Load()) }

// Events returns the number of touch events applied across all sessions.
func (s *Server) Events() int64 { return s.events.Load() }

// Close stops every session and waits for them to detach. New sessions
// are refused once Close has started.
func (s *Server) Close() {
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

// track registers a session with the WaitGroup unless the server is closing.
func (s *Server) track() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.wg.Add(1)
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":   "ok",
		"sessions": s.Active(),
		"events":   s.Events(),
	})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if !s.track() {
		http.Error(w, "server closing", http.StatusServiceUnavailable)
		return
	}
	defer s.wg.Done()

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to upgrade WebSocket connection")
		return
	}

	lang := r.URL.Query().Get("lang")
	if lang == "" {
		lang = s.cfg.Language
	}

	s.active.Add(1)
	defer s.active.Add(-1)
	s.serve(ws, notice.Match(lang).String())
}

// serve runs one session until the connection drops or the server closes.
func (s *Server) serve(ws *websocket.Conn, lang string) {
	id := uuid.NewString()
	logger := s.logger.With().Str("connection_id", id).Logger()

	c := &connection{
		id:        id,
		ws:        ws,
		send:      make(chan ServerMessage, s.cfg.Connection.SendBuffer),
		cfg:       s.cfg.Connection,
		lang:      lang,
		threshold: s.cfg.Machine.Threshold,
		logger:    logger,
	}

	sinks := interaction.Fanout{c}
	if s.sink != nil {
		sinks = append(sinks, s.sink.For(id))
	}
	m := interaction.New(s.cfg.Machine,
		interaction.WithClock(s.clock),
		interaction.WithIntents(sinks),
		interaction.WithLogger(logger),
		interaction.WithSessionID(id),
	)
	eng := engine.New(m,
		engine.WithLogger(logger),
		engine.WithEventHook(func(engine.Event) { s.events.Add(1) }),
	)

	logger.Info().Str("lang", lang).Msg("session opened")
	c.enqueue(ServerMessage{Type: ServerHello, Session: id})

	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = eng.Run(ctx)
		ws.Close()
	}()
	go c.writePump()

	c.readPump(eng)

	cancel()
	<-done
	close(c.send)
	logger.Info().Msg("session closed")
}
