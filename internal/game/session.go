package game

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"tank-arena/internal/ai"
	"tank-arena/internal/arena"
	"tank-arena/internal/entity"
	"tank-arena/internal/game/spatial"
	"tank-arena/internal/projectile"
)

const (
	DefaultTickRate      = 60
	DefaultTickDelta     = 0.016
	DefaultKillsToWin    = 10
	DefaultCaptureRadius = 5.0
	DefaultEnemyCount    = 6
	DefaultPropCount     = 10
)

var (
	ErrNoArena       = errors.New("session has no arena")
	ErrInvalidClass  = errors.New("invalid vehicle class")
	ErrInvalidConfig = errors.New("invalid session config")
	ErrSessionOver   = errors.New("session is over")
	ErrPaused        = errors.New("session is paused")
	ErrQueueFull     = errors.New("command queue is full")
)

// Hooks are optional observers called from the tick goroutine while the
// session lock is held. They must not call back into the session.
type Hooks struct {
	OnTick    func(elapsed time.Duration, stats TickStats)
	OnOutcome func(outcome Outcome, reason string)
	OnShot    func(friendly bool)
}

// TickStats summarizes the state after a tick.
type TickStats struct {
	Tick         uint64
	EnemiesAlive int
	Projectiles  int
	Props        int
	Explosions   int
	Score        int
	Kills        int
}

// SessionConfig configures a session. Start from DefaultSessionConfig.
type SessionConfig struct {
	Arena           *arena.Arena
	Class           entity.VehicleClass
	TickRate        int     // Ticks per second for Start
	TickDelta       float64 // Simulated seconds per tick
	Bound           float64 // Vehicle clamp half-extent
	ProjectileBound float64 // Shells expire beyond this on X or Z
	KillsToWin      int
	CaptureRadius   float64 // Player XZ distance to the center that wins
	EnemyCount      int
	PropCount       int
	Seed            int64 // Zero picks a time-based seed
	Limits          ResourceLimits

	Logger   *zap.Logger
	Scene    SceneSink
	Audio    AudioSink
	EventLog *EventLog
	Hooks    Hooks
}

// DefaultSessionConfig returns the standard scenario for a.
func DefaultSessionConfig(a *arena.Arena) SessionConfig {
	cfg := SessionConfig{
		Arena:           a,
		Class:           entity.ClassBalanced,
		TickRate:        DefaultTickRate,
		TickDelta:       DefaultTickDelta,
		Bound:           arena.DefaultHalfExtent,
		ProjectileBound: projectile.DefaultBound,
		KillsToWin:      DefaultKillsToWin,
		CaptureRadius:   DefaultCaptureRadius,
		EnemyCount:      DefaultEnemyCount,
		PropCount:       DefaultPropCount,
		Limits:          DefaultLimits,
	}
	if a != nil {
		cfg.Bound = a.HalfExtent()
	}
	return cfg
}

func (c *SessionConfig) validate() error {
	if c.Arena == nil {
		return ErrNoArena
	}
	if !c.Class.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidClass, c.Class)
	}
	switch {
	case !(c.TickDelta > 0) || math.IsInf(c.TickDelta, 0):
		return fmt.Errorf("%w: tick delta %v", ErrInvalidConfig, c.TickDelta)
	case !(c.Bound > 0) || math.IsInf(c.Bound, 0):
		return fmt.Errorf("%w: bound %v", ErrInvalidConfig, c.Bound)
	case !(c.ProjectileBound > 0) || math.IsInf(c.ProjectileBound, 0):
		return fmt.Errorf("%w: projectile bound %v", ErrInvalidConfig, c.ProjectileBound)
	case c.KillsToWin <= 0:
		return fmt.Errorf("%w: kills to win %d", ErrInvalidConfig, c.KillsToWin)
	case c.CaptureRadius < 0 || math.IsNaN(c.CaptureRadius):
		return fmt.Errorf("%w: capture radius %v", ErrInvalidConfig, c.CaptureRadius)
	case c.EnemyCount < 0 || c.PropCount < 0:
		return fmt.Errorf("%w: negative entity count", ErrInvalidConfig)
	}
	return nil
}

func (c *SessionConfig) applyDefaults() {
	if c.TickRate <= 0 {
		c.TickRate = DefaultTickRate
	}
	if c.Limits.MaxProjectiles <= 0 {
		c.Limits.MaxProjectiles = DefaultLimits.MaxProjectiles
	}
	if c.Limits.MaxExplosions <= 0 {
		c.Limits.MaxExplosions = DefaultLimits.MaxExplosions
	}
	if c.Limits.MaxProps <= 0 {
		c.Limits.MaxProps = DefaultLimits.MaxProps
	}
	if c.Limits.MaxEnemies <= 0 {
		c.Limits.MaxEnemies = DefaultLimits.MaxEnemies
	}
	if c.Limits.MaxCommands <= 0 {
		c.Limits.MaxCommands = DefaultLimits.MaxCommands
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.Scene == nil {
		c.Scene = nopScene{}
	}
	if c.Audio == nil {
		c.Audio = nopAudio{}
	}
	if c.Seed == 0 {
		c.Seed = time.Now().UnixNano()
	}
}

// Session is one game: a player, its enemies and props in a frozen arena.
//
// Tick runs on a single goroutine (the Start loop, or a test). Readers on
// other goroutines use the snapshot accessors, which take the read lock.
type Session struct {
	mu     sync.RWMutex
	cfg    SessionConfig
	logger *zap.Logger
	arena  *arena.Arena

	id   string
	seed int64

	player     *entity.Vehicle
	enemies    []*entity.Vehicle
	vehicles   []*entity.Vehicle // player followed by enemies
	props      []*entity.Prop
	explosions []*Explosion

	shells *projectile.Simulator
	ai     *ai.Controller
	onHit  projectile.Listener

	// Vehicle-vs-vehicle broad phase
	sap     *spatial.SweepAndPrune
	circles []spatial.Circle
	bodies  []*entity.Vehicle

	cameraTheta float64
	engineSpeed float64
	heldInput   Input

	tickNum uint64
	score   int
	kills   int
	outcome Outcome
	reason  string
	paused  bool
	debug   Debug

	commands *MPSCQueue[Command]
	cmdBuf   []Command

	snapshots *SnapshotPool
	events    *EventLog
	scene     SceneSink
	audio     AudioSink

	running  bool
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewSession validates cfg and builds the scenario.
func NewSession(cfg SessionConfig) (*Session, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	s := &Session{
		cfg:       cfg,
		logger:    cfg.Logger,
		arena:     cfg.Arena,
		sap:       spatial.NewSweepAndPrune(cfg.EnemyCount + 1),
		commands:  NewMPSCQueue[Command](cfg.Limits.MaxCommands),
		cmdBuf:    make([]Command, cfg.Limits.MaxCommands),
		snapshots: NewSnapshotPool(cfg.Limits),
		events:    cfg.EventLog,
		scene:     cfg.Scene,
		audio:     cfg.Audio,
		stopChan:  make(chan struct{}),
	}
	s.onHit = projectile.ListenerFunc(s.handleHit)

	if err := s.reset(cfg.Class, cfg.Seed); err != nil {
		return nil, err
	}
	return s, nil
}

// reset discards every collection and rebuilds the scenario. On error the
// previous state is left untouched.
func (s *Session) reset(class entity.VehicleClass, seed int64) error {
	if !class.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidClass, class)
	}
	rng := rand.New(rand.NewSource(seed))
	sc, err := buildScenario(s.arena, rng, class, s.cfg.EnemyCount, s.cfg.PropCount, s.cfg.Bound)
	if err != nil {
		return err
	}

	if s.player != nil {
		s.despawnAll()
	}

	s.id = uuid.NewString()
	s.seed = seed
	s.ai = ai.NewController(rng)
	s.cfg.Class = class

	s.player = sc.player
	s.enemies = sc.enemies
	s.props = sc.props
	s.explosions = s.explosions[:0]
	s.vehicles = append(s.vehicles[:0], s.player)
	s.vehicles = append(s.vehicles, s.enemies...)
	s.shells = projectile.NewSimulator(s.cfg.Limits.MaxProjectiles, s.cfg.ProjectileBound)

	s.cameraTheta = math.Pi
	s.engineSpeed = 0
	s.heldInput = Input{}
	s.tickNum = 0
	s.score = 0
	s.kills = 0
	s.outcome = OutcomeRunning
	s.reason = ""
	s.paused = false
	s.stepTurret(0)

	for _, v := range s.vehicles {
		s.scene.Spawned(EntityRef{Kind: EntityVehicle, ID: v.ID})
	}
	for _, p := range s.props {
		s.scene.Spawned(EntityRef{Kind: EntityProp, ID: p.ID})
	}

	s.emit(EventTypeSessionStart, "", SessionStartPayload{
		Seed:    seed,
		Class:   class.String(),
		Enemies: len(s.enemies),
		Props:   len(s.props),
	})
	s.logger.Info("session started",
		zap.String("session", s.id),
		zap.Int64("seed", seed),
		zap.Stringer("class", class),
		zap.Int("enemies", len(s.enemies)),
		zap.Int("props", len(s.props)),
	)
	s.publish()
	return nil
}

func (s *Session) despawnAll() {
	for _, v := range s.vehicles {
		s.scene.Despawned(EntityRef{Kind: EntityVehicle, ID: v.ID})
	}
	for _, p := range s.props {
		s.scene.Despawned(EntityRef{Kind: EntityProp, ID: p.ID})
	}
	for _, p := range s.shells.Friendly() {
		s.scene.Despawned(EntityRef{Kind: EntityProjectile, ID: p.ID})
	}
	for _, p := range s.shells.Hostile() {
		s.scene.Despawned(EntityRef{Kind: EntityProjectile, ID: p.ID})
	}
	for _, e := range s.explosions {
		s.scene.Despawned(EntityRef{Kind: EntityExplosion, ID: e.ID})
	}
}

// Start runs the tick loop until ctx is cancelled or Stop is called.
// It blocks; run it in its own goroutine.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	rate := s.cfg.TickRate
	s.mu.Unlock()

	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	s.logger.Info("session loop started", zap.String("session", s.ID()), zap.Int("tps", rate))
	defer s.logger.Info("session loop stopped", zap.String("session", s.ID()))

	for {
		select {
		case <-ctx.Done():
			s.markStopped()
			return
		case <-s.stopChan:
			s.markStopped()
			return
		case <-ticker.C:
			s.advance()
		}
	}
}

// Stop ends the Start loop. It is safe to call more than once.
func (s *Session) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

func (s *Session) markStopped() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// advance is one iteration of the Start loop: drain commands, then tick with
// the held input unless paused or over.
func (s *Session) advance() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.drainCommands()
	if s.paused || s.outcome.Terminal() {
		return
	}
	in := s.heldInput
	s.heldInput.LookDelta = 0
	s.tick(in)
}

// Tick drains pending commands and advances the simulation one fixed step
// with the given input. It returns ErrSessionOver once an outcome is fixed
// and ErrPaused while paused; neither mutates state.
func (s *Session) Tick(in Input) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.drainCommands()
	if s.outcome.Terminal() {
		return ErrSessionOver
	}
	if s.paused {
		return ErrPaused
	}
	s.tick(in)
	return nil
}

// Pause stops tick scheduling. Pausing a paused or finished session does
// nothing.
func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pause()
}

func (s *Session) pause() {
	if s.paused || s.outcome.Terminal() {
		return
	}
	s.paused = true
	s.publish()
	s.emit(EventTypePause, "", nil)
	s.logger.Info("session paused", zap.String("session", s.id), zap.Uint64("tick", s.tickNum))
}

// Resume continues from the last committed state. It is refused once the
// session is over or the player is dead.
func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resume()
}

func (s *Session) resume() error {
	if s.outcome.Terminal() || !s.player.Alive {
		return ErrSessionOver
	}
	if !s.paused {
		return nil
	}
	s.paused = false
	s.publish()
	s.emit(EventTypeResume, "", nil)
	s.logger.Info("session resumed", zap.String("session", s.id), zap.Uint64("tick", s.tickNum))
	return nil
}

// Restart discards all state and rebuilds the scenario with class and a new
// seed. A failed restart leaves the session unchanged.
func (s *Session) Restart(class entity.VehicleClass) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restart(class)
}

func (s *Session) restart(class entity.VehicleClass) error {
	if err := s.reset(class, nextSeed(s.seed)); err != nil {
		s.logger.Warn("restart failed", zap.String("session", s.id), zap.Error(err))
		return err
	}
	s.emit(EventTypeRestart, "", nil)
	return nil
}

// nextSeed derives the seed of the following round from the current one
// without touching any session state.
func nextSeed(seed int64) int64 {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(seed))
	return int64(xxhash.Sum64(b[:]) >> 1)
}

// SetDebug replaces the debug flags.
func (s *Session) SetDebug(d Debug) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setDebug(d)
}

func (s *Session) setDebug(d Debug) {
	if d != s.debug {
		s.logger.Info("debug flags changed", zap.String("session", s.id), zap.Any("debug", d))
	}
	s.debug = d
	s.publish()
}

// Submit queues a command for the next tick. Safe from any goroutine.
func (s *Session) Submit(cmd Command) error {
	if !s.commands.TryPush(cmd) {
		return ErrQueueFull
	}
	return nil
}

func (s *Session) drainCommands() {
	n := s.commands.DrainTo(s.cmdBuf)
	for i := range n {
		cmd := s.cmdBuf[i]
		s.cmdBuf[i] = Command{}
		s.apply(cmd)
	}
}

// Snapshot returns a copy of the latest published snapshot.
func (s *Session) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshots.AcquireRead().Clone()
}

// HUD returns the current heads-up data.
func (s *Session) HUD() HUD {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hud()
}

func (s *Session) hud() HUD {
	return HUD{
		Score:          s.score,
		Kills:          s.kills,
		KillsToWin:     s.cfg.KillsToWin,
		HealthFraction: s.player.HealthFraction(),
		Armor:          s.player.Armor,
		FireRate:       s.player.FireRate,
		ReloadProgress: s.player.ReloadProgress(),
		Outcome:        s.outcome,
	}
}

// Outcome returns the terminal state and the reason it was reached.
func (s *Session) Outcome() (Outcome, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.outcome, s.reason
}

// Paused reports whether ticks are suspended.
func (s *Session) Paused() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paused
}

// PlayerAlive reports whether the player vehicle is alive.
func (s *Session) PlayerAlive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.player.Alive
}

// Debug returns the current debug flags.
func (s *Session) Debug() Debug {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.debug
}

// ID is the session's identifier. It changes on Restart.
func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// Arena returns the session's frozen environment.
func (s *Session) Arena() *arena.Arena { return s.arena }

// Limits returns the session's resource limits.
func (s *Session) Limits() ResourceLimits { return s.cfg.Limits }

// EventLogStats returns event log counters, or nil without an event log.
func (s *Session) EventLogStats() map[string]any {
	if s.events == nil {
		return nil
	}
	return s.events.Stats()
}

func (s *Session) emit(t EventType, entityID string, payload any) {
	if s.events == nil {
		return
	}
	s.events.EmitSimple(t, s.tickNum, s.id, entityID, payload)
}
