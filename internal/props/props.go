// Package props integrates destructible boxes: drift with damping, bounce
// off obstacles and arena walls, and soft pushes from nearby vehicles.
package props

import (
	"tank-arena/internal/collision"
	"tank-arena/internal/entity"
	"tank-arena/internal/geom"
)

const (
	Damping      = 0.95
	WallDamping  = -0.5
	PushRadius   = 1.5 // Added to half the prop size
	PushStrength = 0.1
)

// Obstacles is the static-geometry query props collide against.
type Obstacles interface {
	SphereHit(center geom.Vec3, radius float64) (geom.AABB, bool)
}

// Step advances every living prop one tick and returns the slice with dead
// props removed. The backing array of props is reused.
func Step(props []*entity.Prop, vehicles []*entity.Vehicle, env Obstacles, bound float64) []*entity.Prop {
	n := 0
	for _, p := range props {
		if p == nil || !p.Alive() {
			continue
		}
		integrate(p, env, bound)
		push(p, vehicles)
		props[n] = p
		n++
	}
	clear(props[n:])
	return props[:n]
}

func integrate(p *entity.Prop, env Obstacles, bound float64) {
	p.Position = p.Position.Add(p.Velocity)
	p.Velocity = p.Velocity.Scale(Damping)

	if env != nil {
		if box, hit := env.SphereHit(p.Position, p.Size/2); hit {
			collision.ResolveBounce(&p.Position, &p.Velocity, box)
		}
	}

	b := bound - p.Size/2
	if p.Position.X < -b || p.Position.X > b {
		p.Position.X = geom.Clamp(p.Position.X, -b, b)
		p.Velocity.X *= WallDamping
	}
	if p.Position.Z < -b || p.Position.Z > b {
		p.Position.Z = geom.Clamp(p.Position.Z, -b, b)
		p.Velocity.Z *= WallDamping
	}
}

func push(p *entity.Prop, vehicles []*entity.Vehicle) {
	reach := p.Size/2 + PushRadius
	for _, v := range vehicles {
		if v == nil || !v.Alive || v.Health <= 0 {
			continue
		}
		d := p.Position.XZ().Sub(v.Position.XZ())
		if d.Len() >= reach {
			continue
		}
		if dir, ok := d.Normalize(); ok {
			p.Velocity = p.Velocity.AddXZ(dir.Scale(PushStrength))
		}
	}
}
