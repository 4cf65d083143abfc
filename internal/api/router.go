package api

import (
	"net/http"
	"time"

	"tank-arena/internal/arena"
	"tank-arena/internal/entity"
	"tank-arena/internal/game"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// EngineInterface is the slice of *game.Session the API layer calls.
// Tests substitute a mock so no tick loop is needed.
type EngineInterface interface {
	// Snapshot returns the latest published state (never nil)
	Snapshot() *game.Snapshot
	HUD() game.HUD
	// Submit queues a command for the next tick
	Submit(cmd game.Command) error
	Pause()
	Resume() error
	Restart(class entity.VehicleClass) error
	Debug() game.Debug
	SetDebug(d game.Debug)
	Arena() *arena.Arena
}

// RouterConfig contains all dependencies needed to construct the HTTP router.
//
// Example usage in tests:
//
//	router := api.NewRouter(api.RouterConfig{
//	    Engine: mockEngine,
//	    RateLimitConfig: &api.RateLimitConfig{
//	        RequestsPerSecond: 1000,
//	        Burst:             1000,
//	    },
//	    DisableLogging: true,
//	})
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Engine is the running session (required)
	Engine EngineInterface

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one will be created using RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is only used if RateLimiter is nil.
	RateLimitConfig *RateLimitConfig

	// CORSOrigins lists allowed CORS origins. Nil allows local development origins.
	CORSOrigins []string

	// ControlToken protects input and session control when non-empty.
	ControlToken string

	// DisableLogging disables the request logger middleware (useful for benchmarks).
	DisableLogging bool

	Logger *zap.Logger
}

type routerHandlers struct {
	engine EngineInterface
	logger *zap.Logger
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// NewRouter is pure: it starts no goroutines and opens no listeners, so it is
// safe to wrap in httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	// Middleware - order matters
	r.Use(middleware.RequestID)
	if !cfg.DisableLogging {
		r.Use(requestLogger(logger))
	}
	r.Use(middleware.Recoverer)

	// Rate limiting before CORS to reject early
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = []string{
			"http://localhost:*",
			"http://127.0.0.1:*",
		}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", ControlTokenHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	h := &routerHandlers{
		engine: cfg.Engine,
		logger: logger,
	}
	auth := NewControlAuth(cfg.ControlToken)

	r.Get("/health", h.handleHealth)

	r.Route("/api", func(r chi.Router) {
		// Read-only state
		r.Get("/state", h.handleGetState)
		r.Get("/hud", h.handleGetHUD)
		r.Get("/classes", h.handleGetClasses)
		r.Get("/debug", h.handleGetDebug)
		r.Get("/minimap.png", h.handleMinimap)
		r.Get("/auth", auth.HandleAuthStatus)

		// Control
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)

			r.Post("/input", h.handleInput)
			r.Post("/debug", h.handleSetDebug)
			r.Post("/session/pause", h.handlePause)
			r.Post("/session/resume", h.handleResume)
			r.Post("/session/restart", h.handleRestart)
		})
	})

	return r
}

// requestLogger logs each request and feeds the HTTP metrics, labelled by
// route pattern so cardinality stays bounded.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			elapsed := time.Since(start)
			pattern := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				pattern = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			RecordRequest(r.Method, pattern, status, elapsed)

			logger.Debug("http request",
				zap.String("method", r.Method),
				zap.String("route", pattern),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("elapsed", elapsed),
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("ip", GetClientIP(r)))
		})
	}
}
