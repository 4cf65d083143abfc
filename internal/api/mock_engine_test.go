package api

import (
	"sync"

	"tank-arena/internal/arena"
	"tank-arena/internal/entity"
	"tank-arena/internal/game"
	"tank-arena/internal/geom"
)

// mockEngine implements EngineInterface without a tick loop.
type mockEngine struct {
	mu        sync.Mutex
	snap      *game.Snapshot
	debug     game.Debug
	arena     *arena.Arena
	commands  []game.Command
	submitErr error
	resumeErr error
	paused    bool
	restarts  []entity.VehicleClass
}

func newMockEngine() *mockEngine {
	a, err := arena.New(arena.DefaultHalfExtent, []entity.Obstacle{
		{ID: "crate", Center: geom.V3(10, 2, 10), Size: geom.V3(4, 4, 4)},
	})
	if err != nil {
		panic(err)
	}
	snap := &game.Snapshot{
		Tick:      7,
		SessionID: "session-1",
		Player: game.VehicleSnapshot{
			ID: "player", Kind: "player", Alive: true,
			Width: entity.HullWidth, Length: entity.HullLength,
			Health: 100, MaxHealth: 100, Color: "#4682b4",
		},
		Enemies: []game.VehicleSnapshot{
			{ID: "tank-1", Kind: "enemy", X: -20, Z: 20, Alive: true, Width: entity.HullWidth, Length: entity.HullLength},
		},
		Projectiles: []game.ProjectileSnapshot{{ID: "s1", X: 1, Z: 5, Friendly: true}},
		Props:       []game.PropSnapshot{{ID: "p1", X: 5, Z: -5, Size: 1.5, Health: 50}},
		Explosions:  []game.ExplosionSnapshot{{X: 0, Z: 0, Scale: 1, Color: "#ff4500", Opacity: 0.5}},
		HUD:         game.HUD{Score: 300, Kills: 3, KillsToWin: 10, HealthFraction: 1},
	}
	return &mockEngine{arena: a, snap: snap}
}

func (m *mockEngine) Snapshot() *game.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap.Clone()
}

func (m *mockEngine) HUD() game.HUD {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap.HUD
}

func (m *mockEngine) Submit(cmd game.Command) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.submitErr != nil {
		return m.submitErr
	}
	m.commands = append(m.commands, cmd)
	return nil
}

func (m *mockEngine) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = true
}

func (m *mockEngine) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.resumeErr != nil {
		return m.resumeErr
	}
	m.paused = false
	return nil
}

func (m *mockEngine) Restart(class entity.VehicleClass) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.restarts = append(m.restarts, class)
	return nil
}

func (m *mockEngine) Debug() game.Debug {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.debug
}

func (m *mockEngine) SetDebug(d game.Debug) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.debug = d
}

func (m *mockEngine) Arena() *arena.Arena { return m.arena }

func (m *mockEngine) submitted() []game.Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]game.Command(nil), m.commands...)
}

func (m *mockEngine) setTick(tick uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap.Tick = tick
}

func (m *mockEngine) isPaused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

func (m *mockEngine) setResumeErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resumeErr = err
}

func (m *mockEngine) restartList() []entity.VehicleClass {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]entity.VehicleClass(nil), m.restarts...)
}
