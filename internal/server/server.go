// Package server exposes the market map API over HTTP: whole-set read and
// write endpoints, an SSE sync stream, a WebSocket sync variant, and a health
// probe. CORS is open and every data request passes the per-client rate
// limiter.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/mapboard/mapboard/internal/config"
	"github.com/mapboard/mapboard/internal/ratelimit"
	"github.com/mapboard/mapboard/pkg/mapstore"
)

// Server wires the store, rate limiter and streaming hub behind an HTTP
// listener. Construct with New, then Start; Shutdown stops the listener and
// the background goroutines.
type Server struct {
	httpServer   *http.Server
	handler      http.Handler
	store        *mapstore.Store
	limiter      *ratelimit.Limiter
	hub          *hub
	log          *zap.Logger
	pingInterval time.Duration

	cancelBg context.CancelFunc
}

// New builds a server from explicitly constructed dependencies.
// Nothing is lazily initialized: the caller owns the store lifecycle.
func New(cfg *config.Config, store *mapstore.Store, limiter *ratelimit.Limiter, log *zap.Logger) *Server {
	s := &Server{
		store:        store,
		limiter:      limiter,
		hub:          newHub(log),
		log:          log,
		pingInterval: cfg.PingInterval(),
	}

	r := mux.NewRouter()
	r.Use(accessLog(log))

	r.Handle("/api/data", s.rateLimited(http.HandlerFunc(s.handleGetData))).Methods(http.MethodGet)
	r.Handle("/api/data", s.rateLimited(http.HandlerFunc(s.handleSetData))).Methods(http.MethodPost, http.MethodPut)
	r.HandleFunc("/api/sync", s.handleSync).Methods(http.MethodGet)
	r.HandleFunc("/api/ws", s.handleWS).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)

	s.handler = corsMiddleware(r)
	s.httpServer = &http.Server{
		Addr:        cfg.ListenAddr,
		Handler:     s.handler,
		ReadTimeout: 10 * time.Second,
		// No WriteTimeout: the sync stream is long-lived by design.
	}

	return s
}

// Handler returns the fully wrapped HTTP handler. Used by tests to mount the
// server on httptest.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start launches the background goroutines (hub fan-out, limiter sweep) and
// the HTTP listener. Returns an error if the hub's broker subscription cannot
// be established; listener errors are logged from the serving goroutine.
func (s *Server) Start() error {
	if err := s.startBackground(context.Background()); err != nil {
		return err
	}

	go func() {
		s.log.Info("server listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("server listen failed", zap.Error(err))
		}
	}()

	return nil
}

// startBackground starts the hub and the rate limiter sweeper under a
// cancellable context. Split from Start so tests can run the background
// machinery without binding a listener.
func (s *Server) startBackground(ctx context.Context) error {
	bgCtx, cancel := context.WithCancel(ctx)
	s.cancelBg = cancel

	sub, err := s.store.Subscribe(bgCtx)
	if err != nil {
		cancel()
		return err
	}

	go s.hub.run(bgCtx, sub)
	go s.limiter.Sweep(bgCtx)

	return nil
}

// Shutdown stops the background goroutines and gracefully drains the HTTP
// listener. The context bounds how long in-flight requests may take.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.cancelBg != nil {
		s.cancelBg()
	}
	return s.httpServer.Shutdown(ctx)
}
