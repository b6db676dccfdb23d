package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	general_i "github.com/beka-birhanu/vinom-common/interfaces/general"
	"github.com/beka-birhanu/wam-game-server/service/i"
	"github.com/beka-birhanu/wam-game-server/transport"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
)

// HTTPConfig configures the HTTP side of the server.
type HTTPConfig struct {
	Addr         string
	Enroll       func(i.LineConn) error
	Logger       general_i.Logger
	MaxLineBytes int
	WriteTimeout time.Duration
}

// HTTPServer serves health checks and enrolls websocket players.
type HTTPServer struct {
	server       *http.Server
	router       *chi.Mux
	ready        atomic.Bool
	upgrader     websocket.Upgrader
	enroll       func(i.LineConn) error
	logger       general_i.Logger
	maxLineBytes int
	writeTimeout time.Duration
}

func NewHTTPServer(c HTTPConfig) *HTTPServer {
	s := &HTTPServer{
		router: chi.NewRouter(),
		upgrader: websocket.Upgrader{
			// Browser clients are served from anywhere; the game has no auth.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		enroll:       c.Enroll,
		logger:       c.Logger,
		maxLineBytes: c.MaxLineBytes,
		writeTimeout: c.WriteTimeout,
	}

	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.RealIP)
	s.router.Use(chimw.Recoverer)

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/ready", s.handleReady)
	s.router.Get("/ws", s.handleWebsocket)

	s.server = &http.Server{
		Addr:              c.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

func (s *HTTPServer) Start() {
	go func() {
		s.logger.Info(fmt.Sprintf("http server listening on %s", s.server.Addr))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(fmt.Sprintf("http server: %s", err))
		}
	}()
}

func (s *HTTPServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) SetReady(ready bool) {
	s.ready.Store(ready)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready.Load() {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte("not ready"))
}

func (s *HTTPServer) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	if !s.ready.Load() {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warning(fmt.Sprintf("websocket upgrade from %s: %s", r.RemoteAddr, err))
		return
	}

	conn := transport.NewWSConn(ws, s.maxLineBytes, s.writeTimeout)
	if err := s.enroll(conn); err != nil {
		s.logger.Warning(fmt.Sprintf("refused websocket %s: %s", conn.RemoteAddr(), err))
		_ = conn.Close()
		return
	}
	s.logger.Info(fmt.Sprintf("accepted websocket %s", conn.RemoteAddr()))
}
