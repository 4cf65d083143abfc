package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/pprof"
	"strconv"
	"time"

	"tank-arena/internal/game"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics with bounded cardinality (no per-entity labels)
var (
	// Simulation metrics
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arena_tick_duration_seconds",
		Help:    "Time spent in one simulation tick",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.016},
	})

	enemiesAlive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_enemies_alive",
		Help: "Enemies alive in the current session",
	})

	projectilesActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_projectiles_active",
		Help: "Shells in flight",
	})

	propsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_props_active",
		Help: "Destructible props still standing",
	})

	sessionScore = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_score",
		Help: "Score of the current session",
	})

	shotsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_shots_total",
		Help: "Shells fired",
	}, []string{"side"}) // Bounded: "player", "enemy"

	outcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_outcomes_total",
		Help: "Finished sessions by outcome and reason",
	}, []string{"outcome", "reason"}) // Bounded: won/lost x kills/capture/destroyed

	// Event log metrics
	eventLogDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "event_log_dropped_total",
		Help: "Events dropped due to rate limiting or buffer full",
	})

	// DoS detection metrics - bounded label values only
	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Connections rejected by rate limiter or origin check",
	}, []string{"reason"}) // Bounded: "rate_limit", "origin", "ws_total_limit", "ws_ip_limit", "token"

	// HTTP metrics
	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"}) // endpoint is the route pattern, not the URL

	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status"})

	// WebSocket metrics
	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Currently active WebSocket connections",
	})

	wsMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "websocket_messages_total",
		Help: "WebSocket messages by direction",
	}, []string{"direction"}) // Bounded: "out", "in", "skipped"
)

// ObservabilityConfig configures the debug server
type ObservabilityConfig struct {
	Enabled       bool
	ListenAddr    string // Loopback only unless AllowExternal is set
	AllowExternal bool
	BasicAuthUser string // Optional basic auth
	BasicAuthPass string
}

// DefaultObservabilityConfig returns safe defaults
func DefaultObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		Enabled:    true,
		ListenAddr: "127.0.0.1:6060",
	}
}

// NewDebugHandler builds the pprof, metrics and health mux.
func NewDebugHandler(cfg ObservabilityConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	if cfg.BasicAuthUser != "" {
		return basicAuthMiddleware(cfg.BasicAuthUser, cfg.BasicAuthPass, mux)
	}
	return mux
}

// RunDebugServer serves the debug handler until ctx is cancelled.
// Non-loopback addresses are rewritten to 127.0.0.1 unless AllowExternal is set.
func RunDebugServer(ctx context.Context, cfg ObservabilityConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		logger.Info("debug server disabled")
		return nil
	}
	if !cfg.AllowExternal && !isLoopback(cfg.ListenAddr) {
		logger.Warn("debug server forced to localhost", zap.String("requested", cfg.ListenAddr))
		cfg.ListenAddr = "127.0.0.1:6060"
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           NewDebugHandler(cfg),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("debug server starting",
		zap.String("addr", cfg.ListenAddr),
		zap.String("pprof", "http://"+cfg.ListenAddr+"/debug/pprof/"),
		zap.String("metrics", "http://"+cfg.ListenAddr+"/metrics"))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func isLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// basicAuthMiddleware adds basic authentication to the handler
func basicAuthMiddleware(user, pass string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || !tokenEqual(u, user) || !tokenEqual(p, pass) {
			w.Header().Set("WWW-Authenticate", `Basic realm="debug"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SessionHooks returns game hooks that feed the simulation metrics.
func SessionHooks() game.Hooks {
	return game.Hooks{
		OnTick:    RecordTick,
		OnOutcome: RecordOutcome,
		OnShot:    RecordShot,
	}
}

// RecordTick records tick timing and the post-tick entity counts
func RecordTick(elapsed time.Duration, stats game.TickStats) {
	tickDuration.Observe(elapsed.Seconds())
	enemiesAlive.Set(float64(stats.EnemiesAlive))
	projectilesActive.Set(float64(stats.Projectiles))
	propsActive.Set(float64(stats.Props))
	sessionScore.Set(float64(stats.Score))
}

// RecordOutcome counts a finished session
func RecordOutcome(outcome game.Outcome, reason string) {
	outcomesTotal.WithLabelValues(outcome.String(), reason).Inc()
}

// RecordShot counts a fired shell
func RecordShot(friendly bool) {
	side := "enemy"
	if friendly {
		side = "player"
	}
	shotsTotal.WithLabelValues(side).Inc()
}

// RecordEventDropped counts an event refused by the event log
func RecordEventDropped() {
	eventLogDropped.Inc()
}

// RecordConnectionRejected increments the rejection counter
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// RecordRequest records HTTP request metrics
func RecordRequest(method, endpoint string, status int, duration time.Duration) {
	requestLatency.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	requestTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
}

// UpdateWSConnections updates WebSocket connection count
func UpdateWSConnections(count int) {
	wsConnectionsActive.Set(float64(count))
}

// RecordWSMessage counts a websocket message in the given direction
func RecordWSMessage(direction string) {
	wsMessagesTotal.WithLabelValues(direction).Inc()
}
