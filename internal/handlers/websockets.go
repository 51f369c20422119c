package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"supply_sandbox/internal/logger"
	"supply_sandbox/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 1 << 12 // clients only send control frames

	defaultPollInterval = time.Second
	maxPollInterval     = 10 * time.Second
)

const (
	wsTypeSession = "session"
	wsTypeError   = "error"
)

type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// The stream is authenticated by token, not cookies, so any origin may connect.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// @Summary      Stream a session
// @Description  WebSocket. Sends {"type":"session","data":{session,layout,actions,variable_options}} on connect and whenever the session changes, polled every interval.
// @Tags         sessions
// @Param        id           path   string  true   "Session id"
// @Param        token        query  string  false  "JWT when no Authorization header can be sent"
// @Param        interval     query  string  false  "Poll interval, e.g. 500ms (max 10s)"
// @Param        interval_ms  query  int     false  "Poll interval in milliseconds, used when interval is absent or invalid"
// @Success      101
// @Failure      401  {object}  map[string]string
// @Router       /ws/sessions/{id} [get]
func (h *Handler) wsSessionStream(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	poll := pollInterval(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	s := &sessionStream{
		conn:      conn,
		cfg:       h.services.Configurator,
		log:       h.log,
		userID:    userID,
		sessionID: c.Param("id"),
	}
	s.run(c.Request.Context(), poll)
}

// pollInterval reads ?interval=500ms, falling back to ?interval_ms=500, then
// to the default. Values outside (0, 10s] are ignored.
func pollInterval(c *gin.Context) time.Duration {
	inRange := func(d time.Duration) bool { return d > 0 && d <= maxPollInterval }

	if d, err := time.ParseDuration(c.Query("interval")); err == nil && inRange(d) {
		return d
	}
	if ms, err := strconv.Atoi(c.Query("interval_ms")); err == nil && inRange(time.Duration(ms)*time.Millisecond) {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultPollInterval
}

// sessionStream pushes snapshots of one session, skipping unchanged ones.
type sessionStream struct {
	conn      *websocket.Conn
	cfg       service.Configurator
	log       *logger.Logger
	userID    int
	sessionID string
	lastSeen  time.Time
}

func (s *sessionStream) run(ctx context.Context, poll time.Duration) {
	s.conn.SetReadLimit(maxMsgSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	closed := s.drain()

	if err := s.push(ctx, true); err != nil {
		s.debug("ws_initial_push_failed", err)
		return
	}

	poller := time.NewTicker(poll)
	pinger := time.NewTicker(pingPeriod)
	defer poller.Stop()
	defer pinger.Stop()

	for {
		select {
		case <-closed:
			return
		case <-ctx.Done():
			return
		case <-pinger.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				s.debug("ws_ping_failed", err)
				return
			}
		case <-poller.C:
			if err := s.push(ctx, false); err != nil {
				s.debug("ws_push_failed", err)
				return
			}
		}
	}
}

// drain reads until the peer goes away so control frames are processed. The
// returned channel closes on disconnect.
func (s *sessionStream) drain() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := s.conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	return done
}

// push writes the current snapshot if it changed since the last write, or
// unconditionally when force is set. A vanished session ends the stream with
// an error envelope.
func (s *sessionStream) push(ctx context.Context, force bool) error {
	snap, err := s.cfg.Get(ctx, s.userID, s.sessionID)
	if err != nil {
		msg := errSessionNotFound
		if !errors.Is(err, service.ErrSessionNotFound) {
			msg = "failed to load session"
			if s.log != nil {
				s.log.Errorw("ws_get_session_failed", "session_id", s.sessionID, "err", err)
			}
		}
		_ = s.write(wsEnvelope{Type: wsTypeError, Error: msg})
		return err
	}
	if !force && snap.Session.UpdatedAt.Equal(s.lastSeen) {
		return nil
	}
	s.lastSeen = snap.Session.UpdatedAt
	return s.write(wsEnvelope{Type: wsTypeSession, Data: snap})
}

func (s *sessionStream) write(v wsEnvelope) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(v)
}

func (s *sessionStream) debug(key string, err error) {
	if s.log != nil {
		s.log.Debugw(key, "session_id", s.sessionID, "err", err)
	}
}
