package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"tank-arena/internal/api"
	"tank-arena/internal/arena"
	"tank-arena/internal/config"
	"tank-arena/internal/entity"
	"tank-arena/internal/game"
	"tank-arena/internal/logging"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "tank-arena: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env from the parent directory, then the current one
	envErr := godotenv.Load("../.env")
	if envErr != nil {
		envErr = godotenv.Load(".env")
	}

	cfg := config.Load()

	logger, err := logging.New(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if envErr != nil {
		logger.Debug("no .env file found, using environment variables only")
	}

	a, err := loadArena(cfg.Arena.LayoutPath)
	if err != nil {
		return err
	}
	index := a.IndexStats()
	logger.Info("arena loaded",
		zap.String("layout", cfg.Arena.LayoutPath),
		zap.Float64("half_extent", a.HalfExtent()),
		zap.Int("obstacles", len(a.Obstacles())),
		zap.Int("grid_cells", index.TotalCells),
		zap.Int("grid_max_in_cell", index.MaxInCell))

	class, err := entity.ParseVehicleClass(cfg.Simulation.Class)
	if err != nil {
		return err
	}

	events, closeEvents, err := startEventLog(cfg.EventLog, logger)
	if err != nil {
		return err
	}
	defer closeEvents()

	session, err := game.NewSession(sessionConfig(cfg, a, class, events, logger))
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := api.NewServer(session, api.Options{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		ControlToken:      cfg.Server.ControlToken,
		AllowedOrigins:    cfg.Server.AllowedOrigins,
		BroadcastInterval: time.Second / time.Duration(max(cfg.Server.BroadcastRate, 1)),
		RateLimit: api.RateLimitConfig{
			RequestsPerSecond: cfg.Server.RequestsPerSec,
			Burst:             cfg.Server.Burst,
			CleanupInterval:   api.DefaultRateLimitConfig.CleanupInterval,
		},
		Logger: logger,
	})

	logger.Info("tank arena starting",
		zap.String("session", session.ID()),
		zap.Stringer("class", class),
		zap.Int("tps", cfg.Simulation.TickRate),
		zap.Int("enemies", cfg.Simulation.EnemyCount),
		zap.Int("props", cfg.Simulation.PropCount),
		zap.Int("port", cfg.Server.Port))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		session.Start(gctx)
		return nil
	})
	g.Go(func() error { return server.Run(gctx) })
	if cfg.Observability.DebugServer {
		g.Go(func() error {
			return api.RunDebugServer(gctx, api.ObservabilityConfig{
				Enabled:    true,
				ListenAddr: cfg.Observability.DebugAddr,
			}, logger)
		})
	}

	err = g.Wait()
	outcome, reason := session.Outcome()
	logger.Info("tank arena stopped",
		zap.Stringer("outcome", outcome),
		zap.String("reason", reason),
		zap.Int("score", session.HUD().Score))
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// loadArena builds the obstacle layout, or an open arena for an empty path.
func loadArena(path string) (*arena.Arena, error) {
	if path == "" {
		return arena.New(arena.DefaultHalfExtent, nil)
	}
	layout, err := arena.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return layout.Build()
}

// startEventLog opens the NDJSON log and the optional NATS fan-out. The
// returned func flushes and closes both.
func startEventLog(cfg config.EventLogConfig, logger *zap.Logger) (*game.EventLog, func(), error) {
	events := game.NewEventLog(logger)
	events.OnDrop(api.RecordEventDropped)

	var pub *game.NATSPublisher
	if cfg.NATSURL != "" {
		p, err := game.NewNATSPublisher(cfg.NATSURL, cfg.SubjectPrefix, logger)
		if err != nil {
			// The game runs without the broker.
			logger.Warn("event publishing disabled", zap.Error(err))
		} else {
			pub = p
			events.SetPublisher(pub)
			logger.Info("publishing events", zap.String("url", cfg.NATSURL), zap.String("prefix", cfg.SubjectPrefix))
		}
	}

	if err := events.Start(cfg.Path); err != nil {
		if pub != nil {
			_ = pub.Close()
		}
		return nil, nil, fmt.Errorf("start event log: %w", err)
	}
	if cfg.Path != "" {
		logger.Info("event log open", zap.String("path", cfg.Path))
	}

	return events, func() {
		events.Stop()
		if pub != nil {
			_ = pub.Close()
		}
	}, nil
}

func sessionConfig(cfg config.AppConfig, a *arena.Arena, class entity.VehicleClass, events *game.EventLog, logger *zap.Logger) game.SessionConfig {
	sim := cfg.Simulation
	sc := game.DefaultSessionConfig(a)
	sc.Class = class
	sc.TickRate = sim.TickRate
	sc.TickDelta = sim.TickDelta
	sc.Bound = min(sim.Bound, a.HalfExtent())
	sc.ProjectileBound = sim.ProjectileBound
	sc.KillsToWin = sim.KillsToWin
	sc.CaptureRadius = sim.CaptureRadius
	sc.EnemyCount = sim.EnemyCount
	sc.PropCount = sim.PropCount
	sc.Seed = sim.Seed
	sc.Limits = game.ResourceLimits{
		MaxProjectiles: cfg.Limits.MaxProjectiles,
		MaxExplosions:  cfg.Limits.MaxExplosions,
		MaxProps:       cfg.Limits.MaxProps,
		MaxEnemies:     cfg.Limits.MaxEnemies,
		MaxCommands:    cfg.Limits.MaxCommands,
	}
	sc.Logger = logger.Named("session")
	sc.EventLog = events
	sc.Hooks = api.SessionHooks()
	return sc
}
