// Package ai drives enemy vehicles with a two-state machine: PURSUE when the
// player is visible and near, PATROL otherwise. Each enemy is updated on its
// own; there is no shared scheduler state between enemies.
package ai

import (
	"math/rand"

	"tank-arena/internal/entity"
	"tank-arena/internal/geom"
)

const (
	DetectionRadius  = 20.0 // Player must be closer than this to be pursued
	EngagementRange  = 8.0  // Pursuers stop advancing inside this range
	ApproachSpeed    = 0.05 // Units per tick while pursuing
	DetourDistance   = 5.0  // Offset along the obstacle's shorter axis
	ArrivalThreshold = 0.1  // Patrol target reached
	BodyRadius       = 1.5  // Sphere used for enemy-vs-obstacle checks
	BlockedSpread    = 5.0  // ±range of a re-rolled target after a collision
	ArrivedSpread    = 10.0 // ±range of a re-rolled target after arrival
)

// MuzzleOffset is where enemy shells spawn, in the enemy's local frame.
var MuzzleOffset = geom.V3(0, 0.5, 1.5)

// Environment is what the controller needs to know about the arena.
type Environment interface {
	SphereHit(center geom.Vec3, radius float64) (geom.AABB, bool)
	LineOfSight(origin, direction geom.Vec3, maxDistance float64) bool
	HalfExtent() float64
}

// Decision is the controller's output for one enemy and one tick.
type Decision struct {
	Fire      bool
	Origin    geom.Vec3
	Direction geom.Vec3
}

// Controller updates enemies. It holds no per-enemy state; everything lives
// on the vehicle record.
type Controller struct {
	rng *rand.Rand

	// IgnorePlayer makes every enemy behave as if the player were hidden.
	IgnorePlayer bool
}

// NewController creates a controller drawing patrol targets from rng.
func NewController(rng *rand.Rand) *Controller {
	return &Controller{rng: rng}
}

// Update advances one enemy by one tick of dt seconds. Dead enemies and a
// nil player are ignored.
func (c *Controller) Update(enemy, player *entity.Vehicle, env Environment, dt float64) Decision {
	if enemy == nil || !enemy.Alive || enemy.Health <= 0 {
		return Decision{}
	}

	toPlayer := geom.Vec3{}
	distance := 0.0
	canSee := false
	if player != nil && player.Alive && !c.IgnorePlayer {
		toPlayer = player.Position.Sub(enemy.Position)
		distance = toPlayer.Len()
		canSee = env.LineOfSight(enemy.Position, toPlayer, distance)
	}

	enemy.Spotted = canSee && distance < DetectionRadius
	if enemy.Spotted {
		enemy.Mode = entity.ModePursue
		return c.pursue(enemy, player, toPlayer, distance, env, dt)
	}
	enemy.Mode = entity.ModePatrol
	c.patrol(enemy, env)
	return Decision{}
}

func (c *Controller) pursue(enemy, player *entity.Vehicle, toPlayer geom.Vec3, distance float64, env Environment, dt float64) Decision {
	enemy.Yaw = geom.YawTowards(enemy.Position, player.Position, enemy.Yaw)

	if distance > EngagementRange {
		prev := enemy.Position
		if dir, ok := toPlayer.Normalize(); ok {
			enemy.Position.X += dir.X * ApproachSpeed
			enemy.Position.Z += dir.Z * ApproachSpeed
		}
		if box, hit := env.SphereHit(enemy.Position, BodyRadius); hit {
			enemy.Position = prev
			size := box.Size()
			detour := geom.V3(DetourDistance, 0, 0)
			if size.X > size.Z {
				detour = geom.V3(0, 0, DetourDistance)
			}
			enemy.Patrol.Target = enemy.Position.Add(detour)
		}
	}

	enemy.TimeSinceShot += dt
	if enemy.TimeSinceShot <= enemy.FireRate {
		return Decision{}
	}
	enemy.TimeSinceShot = 0
	return Decision{
		Fire:      true,
		Origin:    enemy.Position.Add(geom.RotateY3(MuzzleOffset, enemy.Yaw)),
		Direction: enemy.Forward(),
	}
}

func (c *Controller) patrol(enemy *entity.Vehicle, env Environment) {
	toTarget := enemy.Patrol.Target.Sub(enemy.Position)
	toTarget.Y = 0
	if toTarget.Len() <= ArrivalThreshold {
		enemy.Patrol.Target = c.reroll(enemy.Position, ArrivedSpread, env.HalfExtent())
		return
	}

	enemy.Yaw = geom.YawTowards(enemy.Position, enemy.Patrol.Target, enemy.Yaw)
	prev := enemy.Position
	if dir, ok := toTarget.Normalize(); ok {
		enemy.Position.X += dir.X * enemy.Patrol.Speed
		enemy.Position.Z += dir.Z * enemy.Patrol.Speed
	}
	if _, hit := env.SphereHit(enemy.Position, BodyRadius); hit {
		enemy.Position = prev
		enemy.Patrol.Target = c.reroll(enemy.Position, BlockedSpread, env.HalfExtent())
	}
}

// reroll picks a new patrol target within ±spread of pos, clamped to the
// arena.
func (c *Controller) reroll(pos geom.Vec3, spread, bound float64) geom.Vec3 {
	x := pos.X + (c.rng.Float64()*2-1)*spread
	z := pos.Z + (c.rng.Float64()*2-1)*spread
	return geom.V3(
		geom.Clamp(x, -bound, bound),
		entity.GroundHeight,
		geom.Clamp(z, -bound, bound),
	)
}

// NewPatrol rolls an enemy's initial patrol state: speed 0.03–0.05 and a
// target within ±5 of the spawn point.
func NewPatrol(rng *rand.Rand, spawn geom.Vec3) entity.Patrol {
	return entity.Patrol{
		Target: geom.V3(
			spawn.X+(rng.Float64()*2-1)*BlockedSpread,
			entity.GroundHeight,
			spawn.Z+(rng.Float64()*2-1)*BlockedSpread,
		),
		Speed: 0.03 + rng.Float64()*0.02,
	}
}
