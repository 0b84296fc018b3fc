package broadcast

import (
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// StreamConfig tunes the websocket transport.
type StreamConfig struct {
	// IdleTimeout drops sessions that have not answered a ping or sent
	// anything for this long.
	IdleTimeout  time.Duration
	WriteTimeout time.Duration
	Buffer       int
	// AllowedOrigins restricts the Origin header; empty or "*" allows all.
	AllowedOrigins []string
}

// DefaultStreamConfig returns the stream settings used when none are configured.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		IdleTimeout:  60 * time.Second,
		WriteTimeout: 10 * time.Second,
		Buffer:       DefaultBuffer,
	}
}

// StreamServer upgrades dashboard connections to websockets and joins each
// one to a hub. Client messages are read only to track liveness.
type StreamServer struct {
	hub      *Hub
	cfg      StreamConfig
	logger   *slog.Logger
	upgrader websocket.Upgrader
	conns    sync.Map // subscription id -> *streamConn
}

type streamConn struct {
	conn *websocket.Conn
	sub  *Subscription

	mu         sync.Mutex
	lastActive time.Time
	closeOnce  sync.Once
}

func (c *streamConn) touch() {
	c.mu.Lock()
	c.lastActive = time.Now()
	c.mu.Unlock()
}

func (c *streamConn) write(messageType int, data []byte, timeout time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(timeout))
	return c.conn.WriteMessage(messageType, data)
}

func NewStreamServer(hub *Hub, cfg StreamConfig, logger *slog.Logger) *StreamServer {
	defaults := DefaultStreamConfig()
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaults.IdleTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaults.WriteTimeout
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = defaults.Buffer
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &StreamServer{
		hub:    hub,
		cfg:    cfg,
		logger: logger.With("component", "stream", "group", hub.Name()),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

func (s *StreamServer) checkOrigin(r *http.Request) bool {
	if len(s.cfg.AllowedOrigins) == 0 || slices.Contains(s.cfg.AllowedOrigins, "*") {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || slices.Contains(s.cfg.AllowedOrigins, origin)
}

// Len returns the number of open sessions.
func (s *StreamServer) Len() int {
	n := 0
	s.conns.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// ServeHTTP upgrades the request and serves the session until it ends.
func (s *StreamServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error.
		s.logger.Warn("websocket upgrade failed", "error", err, "remote_addr", r.RemoteAddr)
		return
	}

	sc := &streamConn{
		conn:       conn,
		sub:        s.hub.Subscribe(s.cfg.Buffer),
		lastActive: time.Now(),
	}
	conn.SetReadLimit(4096)
	conn.SetPongHandler(func(string) error {
		sc.touch()
		return nil
	})
	s.conns.Store(sc.sub.ID, sc)
	s.logger.Info("dashboard connected", "subscriber", sc.sub.ID, "remote_addr", conn.RemoteAddr().String())

	go s.writeLoop(sc)
	s.readLoop(sc)
	s.drop(sc, "client disconnected")
}

func (s *StreamServer) readLoop(sc *streamConn) {
	for {
		if _, _, err := sc.conn.ReadMessage(); err != nil {
			return
		}
		sc.touch()
	}
}

func (s *StreamServer) writeLoop(sc *streamConn) {
	for {
		select {
		case <-sc.sub.Done():
			return
		case data := <-sc.sub.C():
			if err := sc.write(websocket.TextMessage, data, s.cfg.WriteTimeout); err != nil {
				s.drop(sc, "write failed")
				return
			}
		}
	}
}

func (s *StreamServer) drop(sc *streamConn, reason string) {
	sc.closeOnce.Do(func() {
		s.conns.Delete(sc.sub.ID)
		s.hub.Unsubscribe(sc.sub)
		_ = sc.conn.Close()
		s.logger.Info("dashboard disconnected", "subscriber", sc.sub.ID, "reason", reason)
	})
}

// HeartbeatCheck pings every session and drops the ones that have been idle
// longer than IdleTimeout or fail the ping. It returns how many it dropped.
func (s *StreamServer) HeartbeatCheck() int {
	var stale []*streamConn

	s.conns.Range(func(_, value any) bool {
		sc := value.(*streamConn)

		sc.mu.Lock()
		idle := time.Since(sc.lastActive)
		sc.mu.Unlock()

		if idle > s.cfg.IdleTimeout {
			stale = append(stale, sc)
			return true
		}
		if err := sc.write(websocket.PingMessage, nil, s.cfg.WriteTimeout); err != nil {
			stale = append(stale, sc)
		}
		return true
	})

	for _, sc := range stale {
		s.drop(sc, "heartbeat timeout")
	}

	s.logger.Debug("heartbeat check complete", "dropped", len(stale), "sessions", s.Len())
	return len(stale)
}

// Close ends every session.
func (s *StreamServer) Close() {
	s.conns.Range(func(_, value any) bool {
		sc := value.(*streamConn)
		_ = sc.write(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"), time.Second)
		s.drop(sc, "server shutdown")
		return true
	})
}
