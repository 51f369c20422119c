package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"supply_sandbox/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func TestPollInterval(t *testing.T) {
	cases := map[string]time.Duration{
		"/ws":                                defaultPollInterval,
		"/ws?interval=200ms":                 200 * time.Millisecond,
		"/ws?interval_ms=150":                150 * time.Millisecond,
		"/ws?interval=20s":                   defaultPollInterval,
		"/ws?interval=-1s":                   defaultPollInterval,
		"/ws?interval_ms=20000":              defaultPollInterval,
		"/ws?interval=bogus":                 defaultPollInterval,
		"/ws?interval=2s&interval_ms=150":    2 * time.Second,
		"/ws?interval=bogus&interval_ms=250": 250 * time.Millisecond,
	}
	for u, want := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, u, nil)
		if got := pollInterval(c); got != want {
			t.Errorf("%s: got %v want %v", u, got, want)
		}
	}
}

type wsTestEnvelope struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func dialSessionStream(t *testing.T, s *service.Service, query url.Values) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)
	srv := httptest.NewServer(NewHandler(s, nil).InitRoutes())
	t.Cleanup(srv.Close)

	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	u.Path = "/ws/sessions/s1"
	u.RawQuery = query.Encode()

	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestWebSocket_SessionStream_InitialAndChanges(t *testing.T) {
	cfg := &mockConfigurator{snap: sampleSnapshot()}
	s := &service.Service{Authorization: &mockAuth{parseID: 7}, Configurator: cfg}
	conn := dialSessionStream(t, s, url.Values{"token": {"tok"}, "interval_ms": {"20"}})

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var env wsTestEnvelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read initial: %v", err)
	}
	if env.Type != wsTypeSession {
		t.Fatalf("bad envelope: %+v", env)
	}
	var snap service.Snapshot
	if err := json.Unmarshal(env.Data, &snap); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if snap.Session.ID != "s1" || len(snap.Actions) == 0 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	// unchanged snapshots are not resent
	deadline := time.Now().Add(time.Second)
	for cfg.gets() < 3 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	next := sampleSnapshot()
	next.Session.Facility = "Reno, NV"
	next.Session.UpdatedAt = time.Now().UTC()
	cfg.setSnapshot(next)

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	env = wsTestEnvelope{}
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read update: %v", err)
	}
	snap = service.Snapshot{}
	_ = json.Unmarshal(env.Data, &snap)
	if snap.Session.Facility != "Reno, NV" {
		t.Fatalf("expected changed snapshot, got %+v", snap.Session)
	}
	cfg.mu.Lock()
	uid, sid := cfg.lastUserID, cfg.lastSessionID
	cfg.mu.Unlock()
	if uid != 7 || sid != "s1" {
		t.Fatalf("stream used user=%d session=%q", uid, sid)
	}
}

func TestWebSocket_MissingSessionSendsErrorAndCloses(t *testing.T) {
	cfg := &mockConfigurator{getErr: service.ErrSessionNotFound}
	s := &service.Service{Authorization: &mockAuth{parseID: 7}, Configurator: cfg}
	conn := dialSessionStream(t, s, url.Values{"token": {"tok"}})

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var env wsTestEnvelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read: %v", err)
	}
	if env.Type != wsTypeError || env.Error != errSessionNotFound {
		t.Fatalf("envelope=%+v", env)
	}
	_ = conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
	if err := conn.ReadJSON(&env); err == nil {
		t.Fatalf("expected closed connection")
	}
}

func TestWebSocket_StorageErrorCloses(t *testing.T) {
	cfg := &mockConfigurator{getErr: errors.New("boom")}
	s := &service.Service{Authorization: &mockAuth{parseID: 7}, Configurator: cfg}
	conn := dialSessionStream(t, s, url.Values{"token": {"tok"}})

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var env wsTestEnvelope
	if err := conn.ReadJSON(&env); err != nil || env.Type != wsTypeError {
		t.Fatalf("expected error envelope, got %+v (err=%v)", env, err)
	}
}

func TestWebSocket_RejectsMissingToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := httptest.NewServer(NewHandler(&service.Service{Authorization: &mockAuth{}}, nil).InitRoutes())
	defer srv.Close()

	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	u.Path = "/ws/sessions/s1"
	_, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err == nil {
		t.Fatalf("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %+v", resp)
	}
}
