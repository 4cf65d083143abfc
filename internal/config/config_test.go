package config

import (
	"testing"
	"time"
)

// TestDefaults verifies the documented defaults
func TestDefaults(t *testing.T) {
	sim := DefaultSimulation()
	if sim.TickDelta != 0.016 || sim.KillsToWin != 10 || sim.EnemyCount != 6 || sim.PropCount != 10 {
		t.Errorf("unexpected simulation defaults %+v", sim)
	}
	if sim.TickInterval() != time.Second/60 {
		t.Errorf("expected 60 Hz interval, got %v", sim.TickInterval())
	}
	if DefaultServer().Port != 3000 {
		t.Errorf("expected port 3000, got %d", DefaultServer().Port)
	}
}

// TestSimulationFromEnv verifies overrides and that invalid values are ignored
func TestSimulationFromEnv(t *testing.T) {
	t.Setenv("TICK_RATE", "30")
	t.Setenv("KILLS_TO_WIN", "nope")
	t.Setenv("ENEMY_COUNT", "0")
	t.Setenv("SEED", "1234")
	t.Setenv("PLAYER_CLASS", "heavy")

	cfg := SimulationFromEnv()
	if cfg.TickRate != 30 {
		t.Errorf("expected tick rate 30, got %d", cfg.TickRate)
	}
	if cfg.KillsToWin != 10 {
		t.Errorf("invalid value should keep default, got %d", cfg.KillsToWin)
	}
	if cfg.EnemyCount != 0 {
		t.Errorf("zero enemies should be allowed, got %d", cfg.EnemyCount)
	}
	if cfg.Seed != 1234 || cfg.Class != "heavy" {
		t.Errorf("unexpected seed/class %d/%s", cfg.Seed, cfg.Class)
	}
}

// TestServerFromEnv verifies the token and origin list parsing
func TestServerFromEnv(t *testing.T) {
	t.Setenv("CONTROL_TOKEN", "secret")
	t.Setenv("ALLOWED_ORIGINS", " http://a.test, ,http://b.test ")

	cfg := ServerFromEnv()
	if cfg.ControlToken != "secret" {
		t.Errorf("expected token, got %q", cfg.ControlToken)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.test" {
		t.Errorf("unexpected origins %v", cfg.AllowedOrigins)
	}
}

// TestLoad verifies the assembled config and explicit empty values
func TestLoad(t *testing.T) {
	t.Setenv("EVENT_LOG_PATH", "")
	t.Setenv("NATS_URL", "nats://localhost:4222")
	t.Setenv("DEBUG_SERVER", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()
	if cfg.EventLog.Path != "" {
		t.Errorf("explicit empty path should disable the file, got %q", cfg.EventLog.Path)
	}
	if cfg.EventLog.NATSURL == "" || cfg.EventLog.SubjectPrefix != "arena.events" {
		t.Errorf("unexpected event log config %+v", cfg.EventLog)
	}
	if !cfg.Observability.DebugServer {
		t.Error("expected debug server enabled")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected debug level, got %q", cfg.Log.Level)
	}
	if cfg.Arena.LayoutPath != "configs/arena.yaml" {
		t.Errorf("unexpected layout path %q", cfg.Arena.LayoutPath)
	}
}
