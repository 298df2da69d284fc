package surface

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fingerpick/internal/interaction"
)

func fastConfig() interaction.Config {
	cfg := interaction.DefaultConfig()
	cfg.Delays.SoundCue = 10 * time.Millisecond
	cfg.Delays.Pick = 40 * time.Millisecond
	cfg.Delays.AnimStart = time.Second
	cfg.Delays.AnimAfterPick = time.Second
	cfg.Delays.PickReset = time.Second
	cfg.Delays.Explain = 20 * time.Millisecond
	return cfg
}

func startServer(t *testing.T, cfg Config, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()
	srv := New(cfg, opts...)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return srv, ts
}

func dial(t *testing.T, ts *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil reads messages until one has the given type.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) (ServerMessage, []ServerMessage) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var seen []ServerMessage
	for {
		var msg ServerMessage
		require.NoError(t, conn.ReadJSON(&msg))
		seen = append(seen, msg)
		if msg.Type == typ {
			return msg, seen
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, msg ClientMessage) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(msg))
}

func TestServer_Hello(t *testing.T) {
	_, ts := startServer(t, Config{Machine: fastConfig(), Language: "en"})
	conn := dial(t, ts, "")

	hello, _ := readUntil(t, conn, ServerHello)
	assert.NotEmpty(t, hello.Session)
}

func TestServer_PickOverWebSocket(t *testing.T) {
	srv, ts := startServer(t, Config{Machine: fastConfig(), Language: "en"})
	conn := dial(t, ts, "")
	readUntil(t, conn, ServerHello)

	send(t, conn, ClientMessage{Type: ClientDown, Pointers: []ClientPointer{{ID: 0, X: 10, Y: 10}, {ID: 1, X: 20, Y: 20}}})

	vib, seen := readUntil(t, conn, string(interaction.IntentVibrate))
	assert.Equal(t, int64(100), vib.DurationMs)
	assert.Equal(t, 100, vib.Amplitude)

	var types []string
	var cues []interaction.SoundCue
	var lastRedraw *interaction.Snapshot
	for _, msg := range seen {
		types = append(types, msg.Type)
		if msg.Type == string(interaction.IntentSound) {
			cues = append(cues, msg.Cue)
		}
		if msg.Type == string(interaction.IntentRedraw) {
			lastRedraw = msg.Snapshot
		}
	}
	assert.Contains(t, types, string(interaction.IntentPressed))
	assert.Equal(t, []interaction.SoundCue{interaction.SoundTrigger, interaction.SoundSelect}, cues)
	require.NotNil(t, lastRedraw)
	assert.Equal(t, interaction.PhaseLocked, lastRedraw.Phase)
	assert.Len(t, lastRedraw.SelectedIDs(), 1)
	assert.Equal(t, int64(1), srv.Events())
}

func TestServer_LocalizedNotification(t *testing.T) {
	_, ts := startServer(t, Config{Machine: fastConfig(), Language: "en"})
	conn := dial(t, ts, "?lang=ko")
	readUntil(t, conn, ServerHello)

	send(t, conn, ClientMessage{Type: ClientDown, Pointers: []ClientPointer{{ID: 0}}})

	msg, _ := readUntil(t, conn, string(interaction.IntentNotification))
	assert.Equal(t, interaction.NotificationNotEnoughFingers, msg.Kind)
	assert.Equal(t, "손가락을 2개 이상 올려 주세요", msg.Text)
}

func TestServer_BadMessages(t *testing.T) {
	_, ts := startServer(t, Config{Machine: fastConfig()})
	conn := dial(t, ts, "")
	readUntil(t, conn, ServerHello)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	msg, _ := readUntil(t, conn, ServerError)
	assert.Contains(t, msg.Error, "malformed message")

	send(t, conn, ClientMessage{Type: "wiggle"})
	msg, _ = readUntil(t, conn, ServerError)
	assert.Equal(t, `unknown message type "wiggle"`, msg.Error)
}

func TestServer_Healthz(t *testing.T) {
	srv, ts := startServer(t, Config{Machine: fastConfig()})

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(0), body["sessions"])
	assert.Equal(t, float64(0), body["events"])
	assert.Equal(t, 0, srv.Active())
}

func TestServer_CloseDetachesSession(t *testing.T) {
	srv, ts := startServer(t, Config{Machine: fastConfig()})
	conn := dial(t, ts, "")
	readUntil(t, conn, ServerHello)
	require.Equal(t, 1, srv.Active())

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return srv.Active() == 0 }, 3*time.Second, 10*time.Millisecond)
}

func TestServer_CloseWaitsForSessionsAndRefusesNewOnes(t *testing.T) {
	srv, ts := startServer(t, Config{Machine: fastConfig()})
	conn := dial(t, ts, "")
	readUntil(t, conn, ServerHello)

	closed := make(chan struct{})
	go func() {
		srv.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(3 * time.Second):
		t.Fatal("Close did not return")
	}
	assert.Equal(t, 0, srv.Active())

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestServer_RejectsDisallowedOrigin(t *testing.T) {
	_, ts := startServer(t, Config{Machine: fastConfig(), AllowedOrigins: []string{"https://picker.example"}})
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header = http.Header{"Origin": []string{"https://picker.example"}}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	conn.Close()
}

type recordingSink struct {
	mu       sync.Mutex
	sessions []string
}

func (r *recordingSink) For(session string) interaction.Intents {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, session)
	return interaction.NopIntents{}
}

func TestServer_SessionSink(t *testing.T) {
	sink := &recordingSink{}
	_, ts := startServer(t, Config{Machine: fastConfig()}, WithSessionSink(sink))
	conn := dial(t, ts, "")
	hello, _ := readUntil(t, conn, ServerHello)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, []string{hello.Session}, sink.sessions)
}

func TestClientMessage_Event(t *testing.T) {
	ev, err := ClientMessage{Type: ClientUp, Pointers: []ClientPointer{{ID: 3}, {ID: 4}}}.Event()
	require.NoError(t, err)
	require.Len(t, ev.Pointers, 2)
	assert.Equal(t, 3, ev.Pointers[0].ID)
	assert.Equal(t, 4, ev.Pointers[1].ID)

	ev, err = ClientMessage{Type: ClientMove, Pointers: []ClientPointer{{ID: 1, X: 5, Y: 6}}}.Event()
	require.NoError(t, err)
	assert.Equal(t, 5.0, ev.Pointers[0].X)

	_, err = ClientMessage{Type: ClientHide}.Event()
	require.NoError(t, err)

	_, err = ClientMessage{}.Event()
	assert.Error(t, err)
}
