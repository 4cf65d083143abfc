package game

import (
	"sync/atomic"
	"time"
)

// ResourceLimits defines hard caps on per-session collections.
type ResourceLimits struct {
	MaxProjectiles int // Per side, enforced at spawn
	MaxExplosions  int // Oldest-first eviction above this
	MaxProps       int // Snapshot cap
	MaxEnemies     int // Snapshot cap
	MaxCommands    int // Command queue capacity
}

// DefaultLimits are sized for a single-player arena.
var DefaultLimits = ResourceLimits{
	MaxProjectiles: 256,
	MaxExplosions:  64,
	MaxProps:       64,
	MaxEnemies:     32,
	MaxCommands:    256,
}

// VehicleSnapshot is an immutable copy of a vehicle.
type VehicleSnapshot struct {
	ID        string  `json:"id"`
	Kind      string  `json:"kind"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Z         float64 `json:"z"`
	Yaw       float64 `json:"yaw"`
	TurretYaw float64 `json:"turretYaw"`
	Width     float64 `json:"width"`
	Length    float64 `json:"length"`
	Health    float64 `json:"health"`
	MaxHealth float64 `json:"maxHealth"`
	Alive     bool    `json:"alive"`
	Class     string  `json:"class,omitempty"`
	Color     string  `json:"color,omitempty"`
	Mode      string  `json:"mode,omitempty"`
	Spotted   bool    `json:"spotted,omitempty"`
}

// ProjectileSnapshot is an immutable shell.
type ProjectileSnapshot struct {
	ID       string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
	Friendly bool    `json:"friendly"`
}

// PropSnapshot is an immutable prop.
type PropSnapshot struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Z      float64 `json:"z"`
	Size   float64 `json:"size"`
	Health float64 `json:"health"`
}

// ExplosionSnapshot is an immutable explosion.
type ExplosionSnapshot struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z"`
	Kind    string  `json:"kind"`
	Scale   float64 `json:"scale"`
	Color   string  `json:"color"`
	Opacity float64 `json:"opacity"`
}

// Snapshot is the complete simulation state after one tick.
// All slices are pre-allocated and capped by ResourceLimits.
type Snapshot struct {
	Sequence  uint64    `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`
	Tick      uint64    `json:"tick"`
	SessionID string    `json:"sessionId"`
	Paused    bool      `json:"paused"`
	Debug     Debug     `json:"debug"`

	Player      VehicleSnapshot      `json:"player"`
	Enemies     []VehicleSnapshot    `json:"enemies"`
	Projectiles []ProjectileSnapshot `json:"projectiles"`
	Props       []PropSnapshot       `json:"props"`
	Explosions  []ExplosionSnapshot  `json:"explosions"`

	HUD          HUD `json:"hud"`
	EnemiesAlive int `json:"enemiesAlive"`
}

// Clone deep-copies the snapshot so it can outlive the pool slot.
func (s *Snapshot) Clone() *Snapshot {
	c := *s
	c.Enemies = append([]VehicleSnapshot(nil), s.Enemies...)
	c.Projectiles = append([]ProjectileSnapshot(nil), s.Projectiles...)
	c.Props = append([]PropSnapshot(nil), s.Props...)
	c.Explosions = append([]ExplosionSnapshot(nil), s.Explosions...)
	return &c
}

// SnapshotPool pre-allocates snapshots to avoid GC pressure.
// Triple buffering lets the tick write one slot while readers hold another.
type SnapshotPool struct {
	snapshots [3]Snapshot
	limits    ResourceLimits
	writeIdx  uint32 // atomic - producer index
	readIdx   uint32 // atomic - consumer index
	sequence  uint64 // atomic - monotonic sequence
}

// NewSnapshotPool creates a pool with pre-allocated slices.
func NewSnapshotPool(limits ResourceLimits) *SnapshotPool {
	pool := &SnapshotPool{limits: limits}
	for i := range pool.snapshots {
		pool.snapshots[i] = Snapshot{
			Enemies:     make([]VehicleSnapshot, 0, limits.MaxEnemies),
			Projectiles: make([]ProjectileSnapshot, 0, 2*limits.MaxProjectiles),
			Props:       make([]PropSnapshot, 0, limits.MaxProps),
			Explosions:  make([]ExplosionSnapshot, 0, limits.MaxExplosions),
		}
	}
	return pool
}

// AcquireWrite returns the next write slot with its slices reset.
// Producer only, called from the tick.
func (p *SnapshotPool) AcquireWrite() *Snapshot {
	idx := atomic.AddUint32(&p.writeIdx, 1) % 3
	snap := &p.snapshots[idx]

	snap.Enemies = snap.Enemies[:0]
	snap.Projectiles = snap.Projectiles[:0]
	snap.Props = snap.Props[:0]
	snap.Explosions = snap.Explosions[:0]
	snap.Player = VehicleSnapshot{}
	snap.HUD = HUD{}

	snap.Sequence = atomic.AddUint64(&p.sequence, 1)
	snap.Timestamp = time.Now()
	return snap
}

// PublishWrite makes the last acquired write slot the read slot.
func (p *SnapshotPool) PublishWrite() {
	atomic.StoreUint32(&p.readIdx, atomic.LoadUint32(&p.writeIdx))
}

// AcquireRead returns the latest published snapshot.
func (p *SnapshotPool) AcquireRead() *Snapshot {
	idx := atomic.LoadUint32(&p.readIdx) % 3
	return &p.snapshots[idx]
}

// Limits returns the resource limits.
func (p *SnapshotPool) Limits() ResourceLimits {
	return p.limits
}
