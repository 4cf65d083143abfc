// Package config provides centralized configuration management.
// Defaults live here; every value can be overridden from the environment
// (or a .env file loaded by the server before Load is called).
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// SIMULATION CONFIGURATION
// =============================================================================

// SimulationConfig holds the session parameters.
type SimulationConfig struct {
	TickRate        int     // Ticks per second of the live loop
	TickDelta       float64 // Simulated seconds per tick
	Bound           float64 // Vehicle clamp half-extent
	ProjectileBound float64 // Shells expire beyond this on X or Z
	KillsToWin      int
	CaptureRadius   float64 // Distance from the center that wins by capture
	EnemyCount      int
	PropCount       int
	Seed            int64  // 0 picks a time-based seed
	Class           string // Player vehicle class name
}

// DefaultSimulation returns the default session parameters.
func DefaultSimulation() SimulationConfig {
	return SimulationConfig{
		TickRate:        60,
		TickDelta:       0.016,
		Bound:           48,
		ProjectileBound: 50,
		KillsToWin:      10,
		CaptureRadius:   5,
		EnemyCount:      6,
		PropCount:       10,
		Class:           "balanced",
	}
}

// SimulationFromEnv returns simulation configuration with environment overrides.
func SimulationFromEnv() SimulationConfig {
	cfg := DefaultSimulation()

	if v := getEnvInt("TICK_RATE", 0); v > 0 {
		cfg.TickRate = v
	}
	if v := getEnvFloat("TICK_DELTA", 0); v > 0 {
		cfg.TickDelta = v
	}
	if v := getEnvFloat("ARENA_BOUND", 0); v > 0 {
		cfg.Bound = v
	}
	if v := getEnvFloat("PROJECTILE_BOUND", 0); v > 0 {
		cfg.ProjectileBound = v
	}
	if v := getEnvInt("KILLS_TO_WIN", 0); v > 0 {
		cfg.KillsToWin = v
	}
	if v := getEnvFloat("CAPTURE_RADIUS", 0); v > 0 {
		cfg.CaptureRadius = v
	}
	if v := getEnvInt("ENEMY_COUNT", -1); v >= 0 {
		cfg.EnemyCount = v
	}
	if v := getEnvInt("PROP_COUNT", -1); v >= 0 {
		cfg.PropCount = v
	}
	if v := os.Getenv("SEED"); v != "" {
		if s, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Seed = s
		}
	}
	if v := os.Getenv("PLAYER_CLASS"); v != "" {
		cfg.Class = v
	}

	return cfg
}

// =============================================================================
// SESSION RESOURCE LIMITS
// =============================================================================

// ResourceLimits caps per-session collections and the command queue.
type ResourceLimits struct {
	MaxProjectiles int // Per side
	MaxExplosions  int // Oldest evicted beyond this
	MaxProps       int // Snapshot cap
	MaxEnemies     int // Snapshot cap
	MaxCommands    int // Command queue capacity
}

// DefaultLimits returns the default resource limits.
func DefaultLimits() ResourceLimits {
	return ResourceLimits{
		MaxProjectiles: 256,
		MaxExplosions:  64,
		MaxProps:       64,
		MaxEnemies:     32,
		MaxCommands:    256,
	}
}

// LimitsFromEnv returns resource limits with environment overrides.
func LimitsFromEnv() ResourceLimits {
	cfg := DefaultLimits()

	if v := getEnvInt("MAX_PROJECTILES", 0); v > 0 {
		cfg.MaxProjectiles = v
	}
	if v := getEnvInt("MAX_EXPLOSIONS", 0); v > 0 {
		cfg.MaxExplosions = v
	}
	if v := getEnvInt("MAX_COMMANDS", 0); v > 0 {
		cfg.MaxCommands = v
	}

	return cfg
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int
	ControlToken   string   // Required on mutating endpoints when set
	AllowedOrigins []string // CORS and websocket origins; empty allows all
	BroadcastRate  int      // Websocket snapshots per second
	RequestsPerSec float64  // Per-IP HTTP rate limit
	Burst          int
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:           3000,
		BroadcastRate:  10,
		RequestsPerSec: 20,
		Burst:          40,
	}
}

// ServerFromEnv returns server configuration with environment variable overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	cfg.ControlToken = os.Getenv("CONTROL_TOKEN")
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}
	if v := getEnvInt("BROADCAST_RATE", 0); v > 0 {
		cfg.BroadcastRate = v
	}
	if v := getEnvFloat("RATE_LIMIT_RPS", 0); v > 0 {
		cfg.RequestsPerSec = v
	}
	if v := getEnvInt("RATE_LIMIT_BURST", 0); v > 0 {
		cfg.Burst = v
	}

	return cfg
}

// =============================================================================
// EVENT LOG CONFIGURATION
// =============================================================================

// EventLogConfig controls the NDJSON event log and its NATS fan-out.
type EventLogConfig struct {
	Path          string // Empty keeps events in memory only
	NATSURL       string // Empty disables publishing
	SubjectPrefix string
}

// DefaultEventLog returns the default event log configuration.
func DefaultEventLog() EventLogConfig {
	return EventLogConfig{
		Path:          "events.ndjson",
		SubjectPrefix: "arena.events",
	}
}

// EventLogFromEnv returns event log configuration with environment overrides.
func EventLogFromEnv() EventLogConfig {
	cfg := DefaultEventLog()

	if v, ok := os.LookupEnv("EVENT_LOG_PATH"); ok {
		cfg.Path = v
	}
	cfg.NATSURL = os.Getenv("NATS_URL")
	if v := os.Getenv("NATS_SUBJECT_PREFIX"); v != "" {
		cfg.SubjectPrefix = v
	}

	return cfg
}

// =============================================================================
// LOGGING, ARENA AND OBSERVABILITY
// =============================================================================

// LogConfig holds logger settings.
type LogConfig struct {
	Level string
}

// ArenaConfig points at the obstacle layout.
type ArenaConfig struct {
	LayoutPath string // Empty builds an open arena
}

// ObservabilityConfig controls the debug server (pprof and metrics).
type ObservabilityConfig struct {
	DebugServer bool
	DebugAddr   string
}

// DefaultObservability returns the default observability configuration.
func DefaultObservability() ObservabilityConfig {
	return ObservabilityConfig{
		DebugServer: false,
		DebugAddr:   "127.0.0.1:6060",
	}
}

// ObservabilityFromEnv returns observability configuration with environment overrides.
func ObservabilityFromEnv() ObservabilityConfig {
	cfg := DefaultObservability()

	cfg.DebugServer = getEnvBool("DEBUG_SERVER", cfg.DebugServer)
	if v := os.Getenv("DEBUG_ADDR"); v != "" {
		cfg.DebugAddr = v
	}

	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Simulation    SimulationConfig
	Server        ServerConfig
	Limits        ResourceLimits
	EventLog      EventLogConfig
	Log           LogConfig
	Arena         ArenaConfig
	Observability ObservabilityConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Simulation:    SimulationFromEnv(),
		Server:        ServerFromEnv(),
		Limits:        LimitsFromEnv(),
		EventLog:      EventLogFromEnv(),
		Log:           LogConfig{Level: getEnvString("LOG_LEVEL", "info")},
		Arena:         ArenaConfig{LayoutPath: getEnvString("ARENA_LAYOUT", "configs/arena.yaml")},
		Observability: ObservabilityFromEnv(),
	}
}

// TickInterval is the wall-clock period of the live loop.
func (s SimulationConfig) TickInterval() time.Duration {
	if s.TickRate <= 0 {
		return 0
	}
	return time.Second / time.Duration(s.TickRate)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvString(key, defaultVal string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultVal
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
