package control

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// DefaultAddr is where the control server listens unless told otherwise.
const DefaultAddr = "127.0.0.1:8765"

const (
	maxMessageBytes = 64 << 10
	shutdownTimeout = 3 * time.Second
)

// Ack is written back for every message received on /ws.
type Ack struct {
	OK    bool   `json:"ok"`
	Op    Op     `json:"op,omitempty"`
	Error string `json:"error,omitempty"`
}

// Server exposes the dispatcher over a websocket and serves metrics.
type Server struct {
	addr     string
	disp     *Dispatcher
	log      zerolog.Logger
	upgrader websocket.Upgrader

	mu       sync.Mutex
	conns    map[*websocket.Conn]struct{}
	closing  bool
	handlers sync.WaitGroup
}

// NewServer creates a server posting into disp.
func NewServer(addr string, disp *Dispatcher, log zerolog.Logger) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	return &Server{
		addr: addr,
		disp: disp,
		log:  log.With().Str("component", "control-server").Logger(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]struct{}),
	}
}

// Handler returns the HTTP routes: /ws, /metrics and /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.log.Info().Str("addr", ln.Addr().String()).Msg("control server listening")

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		s.closeConns()
		s.handlers.Wait()
		return err
	}
}

// track registers conn. It reports false once the server is closing.
func (s *Server) track(conn *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.conns[conn] = struct{}{}
	s.handlers.Add(1)
	return true
}

func (s *Server) untrack(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	s.handlers.Done()
}

// closeConns closes every hijacked websocket so their read loops return.
func (s *Server) closeConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closing = true
	for conn := range s.conns {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		conn.Close()
	}
}

// Connections returns the number of open websocket clients.
func (s *Server) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()
	if !s.track(conn) {
		return
	}
	defer s.untrack(conn)
	conn.SetReadLimit(maxMessageBytes)

	log := s.log.With().Str("remote", r.RemoteAddr).Logger()
	log.Debug().Msg("control client connected")

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Msg("control client read ended")
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		ack := Ack{OK: true}
		cmd, err := Decode(data)
		if err == nil {
			ack.Op = cmd.Op
			err = s.disp.Post(cmd)
		}
		if err != nil {
			ack = Ack{Error: err.Error()}
			log.Warn().Err(err).Msg("rejected control command")
		}
		if err := conn.WriteJSON(ack); err != nil {
			log.Debug().Err(err).Msg("control ack write failed")
			return
		}
	}
}
