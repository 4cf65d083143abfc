package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Options configures a Server.
type Options struct {
	Addr              string
	ControlToken      string
	AllowedOrigins    []string // CORS and websocket; empty allows all
	BroadcastInterval time.Duration
	RateLimit         RateLimitConfig
	Logger            *zap.Logger
}

// Server is the HTTP API server with WebSocket support.
type Server struct {
	engine      EngineInterface
	opts        Options
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *IPRateLimiter
	logger      *zap.Logger
}

// NewServer wires the router and websocket hub around engine.
//
// Background workers do not start until Run is called, so a Server can be
// constructed in tests and driven through Router with httptest.
func NewServer(engine EngineInterface, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.RateLimit.RequestsPerSecond <= 0 {
		opts.RateLimit = DefaultRateLimitConfig
	}

	s := &Server{
		engine:      engine,
		opts:        opts,
		rateLimiter: NewIPRateLimiter(opts.RateLimit),
		logger:      logger.Named("api"),
	}

	corsOrigins := opts.AllowedOrigins
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}
	auth := NewControlAuth(opts.ControlToken)
	s.wsHub = NewWebSocketHub(engine, NewOriginPolicy(opts.AllowedOrigins), auth, s.logger)
	s.router = NewRouter(RouterConfig{
		Engine:       engine,
		RateLimiter:  s.rateLimiter,
		CORSOrigins:  corsOrigins,
		ControlToken: opts.ControlToken,
		Logger:       s.logger,
	})

	// The websocket route needs the hub instance, so it is not part of NewRouter.
	s.router.Get("/ws", s.wsHub.HandleWebSocket)

	return s
}

// Router returns the HTTP handler for use with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Hub exposes the websocket hub.
func (s *Server) Hub() *WebSocketHub {
	return s.wsHub
}

// Run serves HTTP and runs the hub and broadcast loop until ctx is
// cancelled, then shuts the listener down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.rateLimiter.StartCleanup()
	defer s.rateLimiter.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.wsHub.Run(gctx) })
	g.Go(func() error { return s.wsHub.RunBroadcastLoop(gctx, s.opts.BroadcastInterval) })
	g.Go(func() error {
		s.logger.Info("api server starting", zap.String("addr", s.opts.Addr),
			zap.Bool("control_token", s.opts.ControlToken != ""))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("api server shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
