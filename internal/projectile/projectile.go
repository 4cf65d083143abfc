// Package projectile simulates shells: spawning, integration, expiry and
// hit resolution against obstacles, vehicles and props.
package projectile

import (
	"errors"
	"math"

	"github.com/google/uuid"

	"tank-arena/internal/entity"
	"tank-arena/internal/geom"
)

const (
	Speed         = 0.5  // Units per tick
	MaxLifetime   = 5.0  // Seconds
	Radius        = 0.3  // Shell radius for obstacle checks
	HitRadius     = 2.0  // Vehicle hit distance
	PropHitMargin = 0.3  // Added to the prop's size for prop hits
	PropDamage    = 25.0 // Fixed damage per prop hit
	PropImpulse   = 0.2  // Velocity kick applied to a hit prop

	ScorePropHit       = 10
	ScorePropDestroyed = 20
	ScoreKill          = 100

	DefaultBound     = 50.0 // Shells beyond ±50 on X or Z expire
	DefaultMaxActive = 256  // Per side
)

var (
	ErrDegenerateDirection = errors.New("projectile direction is degenerate")
	ErrProjectileLimit     = errors.New("projectile limit reached")
)

// Damage is the armor-reduced damage of a hit:
// rawPower * 100 / (100 + armor). Positive armor reduces damage
// asymptotically; negative armor amplifies it. An armor of -100 or lower
// would divide by zero or flip the sign, so the raw power is returned.
func Damage(rawPower, armor float64) float64 {
	d := 100 + armor
	if d <= 0 {
		return rawPower
	}
	return rawPower * (100 / d)
}

// HitKind says what a shell struck.
type HitKind uint8

const (
	HitObstacle HitKind = iota
	HitEnemy
	HitProp
	HitPlayer
	HitExpired // Lifetime or bounds; no impact effect
)

func (k HitKind) String() string {
	switch k {
	case HitEnemy:
		return "enemy"
	case HitProp:
		return "prop"
	case HitPlayer:
		return "player"
	case HitExpired:
		return "expired"
	default:
		return "obstacle"
	}
}

// Hit reports how a shell left play. Points is the score the player earns from
// it (zero for hostile shells and obstacle hits).
type Hit struct {
	Kind       HitKind
	Position   geom.Vec3
	Projectile *entity.Projectile
	Vehicle    *entity.Vehicle
	Prop       *entity.Prop
	Damage     float64
	Killed     bool // The vehicle died or the prop was destroyed
	Points     int
}

// Listener receives hits synchronously, in resolution order, so it can
// apply scoring and terminal checks inside the same tick.
type Listener interface {
	OnHit(Hit)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Hit)

func (f ListenerFunc) OnHit(h Hit) { f(h) }

// Obstacles is the static-geometry query the simulator needs.
type Obstacles interface {
	SphereHit(center geom.Vec3, radius float64) (geom.AABB, bool)
}

// Simulator owns the friendly and hostile shell lists of one session.
type Simulator struct {
	friendly  []*entity.Projectile
	hostile   []*entity.Projectile
	maxActive int
	bound     float64

	// PlayerInvulnerable keeps hostile hits from dealing damage. The hit is
	// still reported and the shell destroyed.
	PlayerInvulnerable bool
}

// NewSimulator creates an empty simulator. Non-positive arguments select
// the defaults.
func NewSimulator(maxActive int, bound float64) *Simulator {
	if maxActive <= 0 {
		maxActive = DefaultMaxActive
	}
	if bound <= 0 {
		bound = DefaultBound
	}
	return &Simulator{
		friendly:  make([]*entity.Projectile, 0, 32),
		hostile:   make([]*entity.Projectile, 0, 32),
		maxActive: maxActive,
		bound:     bound,
	}
}

// Spawn normalizes direction, scales it to Speed and appends a shell to the
// friendly or hostile list.
func (s *Simulator) Spawn(friendly bool, origin, direction geom.Vec3, firePower float64, ownerID string) (*entity.Projectile, error) {
	dir, ok := direction.Normalize()
	if !ok || !origin.Finite() {
		return nil, ErrDegenerateDirection
	}
	list := &s.hostile
	if friendly {
		list = &s.friendly
	}
	if len(*list) >= s.maxActive {
		return nil, ErrProjectileLimit
	}

	p := &entity.Projectile{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Position:  origin,
		Velocity:  dir.Scale(Speed),
		Friendly:  friendly,
		FirePower: firePower,
	}
	*list = append(*list, p)
	return p, nil
}

// Friendly returns the live player shells. Do not retain across ticks.
func (s *Simulator) Friendly() []*entity.Projectile { return s.friendly }

// Hostile returns the live enemy shells. Do not retain across ticks.
func (s *Simulator) Hostile() []*entity.Projectile { return s.hostile }

// Count returns the number of live shells on both sides.
func (s *Simulator) Count() int { return len(s.friendly) + len(s.hostile) }

// Reset drops every shell.
func (s *Simulator) Reset() {
	clear(s.friendly)
	clear(s.hostile)
	s.friendly = s.friendly[:0]
	s.hostile = s.hostile[:0]
}

// StepFriendly advances player shells one tick and resolves, in order:
// obstacle hits, expiry, enemy hits, prop hits. Each shell resolves at most
// one hit.
func (s *Simulator) StepFriendly(env Obstacles, enemies []*entity.Vehicle, props []*entity.Prop, dt float64, l Listener) {
	n := 0
	for _, p := range s.friendly {
		if s.advance(p, env, dt, l) {
			continue
		}
		if hitEnemy(p, enemies, l) || hitProp(p, props, l) {
			continue
		}
		s.friendly[n] = p
		n++
	}
	clear(s.friendly[n:])
	s.friendly = s.friendly[:n]
}

// StepHostile advances enemy shells one tick and resolves obstacle hits,
// expiry and player hits.
func (s *Simulator) StepHostile(env Obstacles, player *entity.Vehicle, dt float64, l Listener) {
	n := 0
	for _, p := range s.hostile {
		if s.advance(p, env, dt, l) {
			continue
		}
		if s.hitPlayer(p, player, l) {
			continue
		}
		s.hostile[n] = p
		n++
	}
	clear(s.hostile[n:])
	s.hostile = s.hostile[:n]
}

// advance integrates one shell and reports whether it was consumed by an
// obstacle or expired.
func (s *Simulator) advance(p *entity.Projectile, env Obstacles, dt float64, l Listener) bool {
	prev := p.Position
	p.Position = p.Position.Add(p.Velocity)
	p.Lifetime += dt

	if env != nil {
		if _, hit := env.SphereHit(p.Position, Radius); hit {
			emit(l, Hit{Kind: HitObstacle, Position: prev, Projectile: p})
			return true
		}
	}
	if p.Lifetime > MaxLifetime || math.Abs(p.Position.X) > s.bound || math.Abs(p.Position.Z) > s.bound {
		emit(l, Hit{Kind: HitExpired, Position: p.Position, Projectile: p})
		return true
	}
	return false
}

func hitEnemy(p *entity.Projectile, enemies []*entity.Vehicle, l Listener) bool {
	for _, e := range enemies {
		if e == nil || !e.Alive || e.Health <= 0 {
			continue
		}
		if p.Position.Dist(e.Position) >= HitRadius {
			continue
		}
		dmg := Damage(p.FirePower, e.Armor)
		killed := e.ApplyDamage(dmg)
		h := Hit{Kind: HitEnemy, Position: p.Position, Projectile: p, Vehicle: e, Damage: dmg, Killed: killed}
		if killed {
			h.Points = ScoreKill
		}
		emit(l, h)
		return true
	}
	return false
}

func hitProp(p *entity.Projectile, props []*entity.Prop, l Listener) bool {
	for _, b := range props {
		if b == nil || !b.Alive() {
			continue
		}
		if p.Position.Dist(b.Position) >= b.Size+PropHitMargin {
			continue
		}
		if dir, ok := b.Position.Sub(p.Position).XZ().Normalize(); ok {
			b.Velocity = b.Velocity.AddXZ(dir.Scale(PropImpulse))
		}
		b.Health -= PropDamage
		h := Hit{Kind: HitProp, Position: p.Position, Projectile: p, Prop: b, Damage: PropDamage, Points: ScorePropHit}
		if b.Health <= 0 {
			h.Killed = true
			h.Points += ScorePropDestroyed
		}
		emit(l, h)
		return true
	}
	return false
}

func (s *Simulator) hitPlayer(p *entity.Projectile, player *entity.Vehicle, l Listener) bool {
	if player == nil || !player.Alive || player.Health <= 0 {
		return false
	}
	if p.Position.Dist(player.Position) >= HitRadius {
		return false
	}
	dmg := Damage(p.FirePower, player.Armor)
	if s.PlayerInvulnerable {
		dmg = 0
	}
	killed := player.ApplyDamage(dmg)
	emit(l, Hit{Kind: HitPlayer, Position: p.Position, Projectile: p, Vehicle: player, Damage: dmg, Killed: killed})
	return true
}

func emit(l Listener, h Hit) {
	if l != nil {
		l.OnHit(h)
	}
}
