// Package entity holds the simulation's data records: vehicles, projectiles,
// props and static obstacles. Behavior lives in the ai, projectile, props
// and game packages; the methods here only keep each record's invariants.
package entity

import (
	"math"

	"github.com/google/uuid"

	"tank-arena/internal/geom"
)

const (
	GroundHeight = 0.5 // Vehicle Y is pinned here
	HullWidth    = 2.2 // Footprint width at class size 1 (body + treads)
	HullLength   = 3.2 // Footprint length at class size 1

	EnemyMaxHealth = 100
	EnemyArmor     = 0
	EnemyFirePower = 10
	EnemyFireRate  = 2.0 // Seconds between enemy shots

	PropHealth = 50
)

// Kind distinguishes the player from AI vehicles.
type Kind uint8

const (
	KindPlayer Kind = iota
	KindEnemy
)

func (k Kind) String() string {
	if k == KindPlayer {
		return "player"
	}
	return "enemy"
}

// AIMode is the state of an enemy's controller.
type AIMode uint8

const (
	ModePatrol AIMode = iota
	ModePursue
)

func (m AIMode) String() string {
	if m == ModePursue {
		return "pursue"
	}
	return "patrol"
}

// Patrol is an enemy's wandering state.
type Patrol struct {
	Target geom.Vec3
	Speed  float64 // Units per tick
}

// Vehicle is a tank: the player or an enemy.
type Vehicle struct {
	ID       string
	Kind     Kind
	Position geom.Vec3
	Yaw      float64
	Width    float64
	Length   float64

	Health        float64
	MaxHealth     float64
	Armor         float64
	FirePower     float64
	FireRate      float64 // Cooldown in seconds
	TimeSinceShot float64
	Alive         bool

	// Player only
	Class         VehicleClass
	TurretYaw     float64 // Relative to body yaw
	Speed         float64
	RotationSpeed float64

	// Enemy only
	Patrol  Patrol
	Mode    AIMode
	Spotted bool
}

// NewPlayer creates the player's vehicle from a class config. The reload
// timer starts full so the first shot is available immediately.
func NewPlayer(class VehicleClass, pos geom.Vec3) *Vehicle {
	cfg := class.Config()
	return &Vehicle{
		ID:            uuid.NewString(),
		Kind:          KindPlayer,
		Position:      pos.WithY(GroundHeight),
		Width:         HullWidth * cfg.Size,
		Length:        HullLength * cfg.Size,
		Health:        cfg.MaxHealth,
		MaxHealth:     cfg.MaxHealth,
		Armor:         cfg.Armor,
		FirePower:     cfg.FirePower,
		FireRate:      cfg.FireRate,
		TimeSinceShot: cfg.FireRate,
		Alive:         true,
		Class:         class,
		Speed:         cfg.Speed,
		RotationSpeed: cfg.RotationSpeed,
	}
}

// NewEnemy creates an AI vehicle with the fixed enemy stat block.
func NewEnemy(pos geom.Vec3, patrol Patrol) *Vehicle {
	return &Vehicle{
		ID:        uuid.NewString(),
		Kind:      KindEnemy,
		Position:  pos.WithY(GroundHeight),
		Width:     HullWidth,
		Length:    HullLength,
		Health:    EnemyMaxHealth,
		MaxHealth: EnemyMaxHealth,
		Armor:     EnemyArmor,
		FirePower: EnemyFirePower,
		FireRate:  EnemyFireRate,
		Alive:     true,
		Patrol:    patrol,
		Mode:      ModePatrol,
	}
}

// Footprint returns the vehicle's oriented ground rectangle.
func (v *Vehicle) Footprint() geom.OBB {
	return geom.OBB{
		Center: v.Position.XZ(),
		Yaw:    v.Yaw,
		Width:  v.Width,
		Length: v.Length,
	}
}

// Forward is the body's facing direction.
func (v *Vehicle) Forward() geom.Vec3 { return geom.Forward(v.Yaw) }

// ApplyDamage subtracts health, clamping at zero. It returns true when this
// call killed the vehicle. Dead vehicles ignore further damage.
func (v *Vehicle) ApplyDamage(amount float64) bool {
	if !v.Alive || amount <= 0 || math.IsNaN(amount) {
		return false
	}
	v.Health -= amount
	if v.Health <= 0 {
		v.Health = 0
		v.Alive = false
		return true
	}
	return false
}

// HealthFraction is Health/MaxHealth in [0, 1].
func (v *Vehicle) HealthFraction() float64 {
	if v.MaxHealth <= 0 {
		return 0
	}
	return geom.Clamp(v.Health/v.MaxHealth, 0, 1)
}

// ReloadProgress is min(TimeSinceShot/FireRate, 1).
func (v *Vehicle) ReloadProgress() float64 {
	if v.FireRate <= 0 {
		return 1
	}
	return math.Min(v.TimeSinceShot/v.FireRate, 1)
}

// Projectile is a shell in flight.
type Projectile struct {
	ID        string
	OwnerID   string
	Position  geom.Vec3
	Velocity  geom.Vec3
	Friendly  bool    // Fired by the player
	Lifetime  float64 // Seconds since spawn
	FirePower float64 // Raw power used for the damage roll
}

// Prop is a destructible, pushable box.
type Prop struct {
	ID       string
	Position geom.Vec3
	Velocity geom.Vec3
	Size     float64
	Health   float64
}

// NewProp creates a prop resting on the ground.
func NewProp(pos geom.Vec3, size float64) *Prop {
	return &Prop{
		ID:       uuid.NewString(),
		Position: pos.WithY(size / 2),
		Size:     size,
		Health:   PropHealth,
	}
}

// Alive reports whether the prop still has health.
func (p *Prop) Alive() bool { return p.Health > 0 }

// Obstacle is an immovable box. Yaw rotates it about its center; collision
// and sight use its world-space bounding box.
type Obstacle struct {
	ID     string
	Center geom.Vec3
	Size   geom.Vec3
	Yaw    float64
}

// Bounds returns the obstacle's world AABB.
func (o Obstacle) Bounds() geom.AABB {
	return geom.RotatedBounds(o.Center, o.Size, o.Yaw)
}
