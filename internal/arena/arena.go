// Package arena is the environment contract of a session: the frozen set of
// static obstacles and the arena half-extent, indexed for the queries the
// simulation runs every tick.
package arena

import (
	"errors"
	"fmt"
	"math"

	"tank-arena/internal/collision"
	"tank-arena/internal/entity"
	"tank-arena/internal/game/spatial"
	"tank-arena/internal/geom"
	"tank-arena/internal/visibility"
)

const (
	DefaultHalfExtent = 48.0 // Vehicles are clamped to ±48
	DefaultCellSize   = 8.0
)

var (
	ErrInvalidBounds   = errors.New("arena half-extent must be positive")
	ErrInvalidObstacle = errors.New("invalid obstacle")
)

// Arena holds the read-only obstacle set for one session.
//
// Query methods reuse internal scratch buffers and must only be called from
// the goroutine running the simulation. Obstacles and Boxes are safe to read
// from anywhere since they never change.
type Arena struct {
	halfExtent float64
	obstacles  []entity.Obstacle
	boxes      []geom.AABB
	grid       *spatial.Grid
	losScratch []geom.AABB
}

// New validates the obstacles, computes their world boxes and indexes them.
func New(halfExtent float64, obstacles []entity.Obstacle) (*Arena, error) {
	if !(halfExtent > 0) || math.IsInf(halfExtent, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBounds, halfExtent)
	}

	a := &Arena{
		halfExtent: halfExtent,
		obstacles:  make([]entity.Obstacle, len(obstacles)),
		boxes:      make([]geom.AABB, len(obstacles)),
		grid:       spatial.NewGrid(halfExtent+DefaultCellSize, DefaultCellSize, len(obstacles)),
	}
	copy(a.obstacles, obstacles)

	for i, o := range a.obstacles {
		box := o.Bounds()
		if !box.Valid() {
			return nil, fmt.Errorf("%w: %q has a non-positive or non-finite extent", ErrInvalidObstacle, o.ID)
		}
		a.boxes[i] = box
		a.grid.InsertBox(uint32(i), box.Min.X, box.Min.Z, box.Max.X, box.Max.Z)
	}
	return a, nil
}

// HalfExtent is the clamp bound for vehicles.
func (a *Arena) HalfExtent() float64 { return a.halfExtent }

// Obstacles returns the obstacle records in index order. Do not mutate.
func (a *Arena) Obstacles() []entity.Obstacle { return a.obstacles }

// Boxes returns the obstacles' world boxes in index order. Do not mutate.
func (a *Arena) Boxes() []geom.AABB { return a.boxes }

// IndexStats reports how the obstacles spread over the broad-phase grid.
func (a *Arena) IndexStats() spatial.GridStats { return a.grid.Stats() }

// SphereHit returns the lowest-index obstacle box touching the sphere,
// matching collision.SphereVsObstacles over the full list.
func (a *Arena) SphereHit(center geom.Vec3, radius float64) (geom.AABB, bool) {
	if !center.Finite() || radius < 0 {
		return geom.AABB{}, false
	}
	for _, id := range a.grid.QueryRadius(center.X, center.Z, radius) {
		if a.boxes[id].IntersectsSphere(center, radius) {
			return a.boxes[id], true
		}
	}
	return geom.AABB{}, false
}

// OrientedHit returns the lowest-index obstacle the footprint penetrates,
// matching collision.OrientedVsAxisAligned over the full list.
func (a *Arena) OrientedHit(o geom.OBB) (collision.Contact, bool) {
	if !o.Valid() {
		return collision.Contact{}, false
	}
	for _, id := range a.grid.QueryRadius(o.Center.X, o.Center.Z, o.Radius()) {
		if c, ok := collision.OrientedVsBox(o, a.boxes[id]); ok {
			c.Obstacle = int(id)
			return c, true
		}
	}
	return collision.Contact{}, false
}

// LineOfSight reports whether a ray from origin along direction reaches
// maxDistance without hitting an obstacle.
func (a *Arena) LineOfSight(origin, direction geom.Vec3, maxDistance float64) bool {
	dir, ok := direction.Normalize()
	if !ok || !origin.Finite() || !(maxDistance > 0) || math.IsInf(maxDistance, 0) {
		return false
	}
	end := origin.Add(dir.Scale(maxDistance))
	a.losScratch = a.losScratch[:0]
	for _, id := range a.grid.QueryRect(
		math.Min(origin.X, end.X), math.Min(origin.Z, end.Z),
		math.Max(origin.X, end.X), math.Max(origin.Z, end.Z),
	) {
		a.losScratch = append(a.losScratch, a.boxes[id])
	}
	return visibility.HasLineOfSight(origin, dir, maxDistance, a.losScratch)
}

// Blocked reports whether an axis-aligned probe box overlaps any obstacle.
// Scenario setup uses it to find free spawn points.
func (a *Arena) Blocked(center, size geom.Vec3) bool {
	probe := geom.BoxFromCenter(center, size)
	for _, id := range a.grid.QueryRect(probe.Min.X, probe.Min.Z, probe.Max.X, probe.Max.Z) {
		if a.boxes[id].Overlaps(probe) {
			return true
		}
	}
	return false
}

// Clamp pins a position to ±(halfExtent - margin) on X and Z. It reports
// which axes were clamped.
func (a *Arena) Clamp(p geom.Vec3, margin float64) (out geom.Vec3, clampedX, clampedZ bool) {
	b := a.halfExtent - margin
	out = p
	if out.X < -b {
		out.X, clampedX = -b, true
	} else if out.X > b {
		out.X, clampedX = b, true
	}
	if out.Z < -b {
		out.Z, clampedZ = -b, true
	} else if out.Z > b {
		out.Z, clampedZ = b, true
	}
	return out, clampedX, clampedZ
}
