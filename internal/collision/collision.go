// Package collision implements the narrow-phase queries of the simulation:
// sphere vs obstacle boxes, oriented footprint vs axis-aligned boxes and
// oriented vs oriented footprints, all via the separating axis theorem on
// the XZ plane, plus the resolution helpers that act on their results.
//
// Every query treats degenerate input (NaN, zero extents) as "no collision".
package collision

import (
	"math"

	"tank-arena/internal/geom"
)

const (
	BounceClearance = 1.5  // Distance kept from an obstacle face after a bounce
	BounceDamping   = -0.5 // Velocity factor on the bounced axis
	PushFactor      = 1.01 // Separation overshoot so shapes end strictly apart

	tieEpsilon = 1e-12
)

// Contact describes a penetration found by a SAT query.
type Contact struct {
	Obstacle int       // Index of the obstacle hit (OrientedVsAxisAligned only)
	Depth    float64   // Overlap along Normal
	Normal   geom.Vec2 // Unit push direction for the first shape
}

// SphereVsObstacles returns the index of the first box, in slice order,
// whose extent intersects the sphere.
func SphereVsObstacles(center geom.Vec3, radius float64, boxes []geom.AABB) (int, bool) {
	for i := range boxes {
		if boxes[i].IntersectsSphere(center, radius) {
			return i, true
		}
	}
	return -1, false
}

// ResolveBounce moves a sphere-like entity out of a box along the box's
// shorter horizontal axis and reflects that velocity component.
func ResolveBounce(pos, vel *geom.Vec3, box geom.AABB) {
	if !box.Valid() {
		return
	}
	c := box.Center()
	size := box.Size()
	if size.X > size.Z {
		if pos.Z-c.Z > 0 {
			pos.Z = c.Z + size.Z/2 + BounceClearance
		} else {
			pos.Z = c.Z - size.Z/2 - BounceClearance
		}
		vel.Z *= BounceDamping
		return
	}
	if pos.X-c.X > 0 {
		pos.X = c.X + size.X/2 + BounceClearance
	} else {
		pos.X = c.X - size.X/2 - BounceClearance
	}
	vel.X *= BounceDamping
}

// OrientedVsAxisAligned tests a footprint against each box in order and
// returns the first penetration found. The candidate axes are the
// footprint's local X and Z plus world X and Z. The normal points from the
// box toward the footprint.
func OrientedVsAxisAligned(o geom.OBB, boxes []geom.AABB) (Contact, bool) {
	if !o.Valid() {
		return Contact{}, false
	}
	for i := range boxes {
		if c, ok := orientedVsBox(o, boxes[i]); ok {
			c.Obstacle = i
			return c, true
		}
	}
	return Contact{}, false
}

// OrientedVsBox runs the footprint-vs-box test for a single box.
func OrientedVsBox(o geom.OBB, box geom.AABB) (Contact, bool) {
	if !o.Valid() {
		return Contact{}, false
	}
	return orientedVsBox(o, box)
}

func orientedVsBox(o geom.OBB, box geom.AABB) (Contact, bool) {
	if !box.Valid() {
		return Contact{}, false
	}
	oc := o.Corners()
	bc := box.CornersXZ()
	ax := o.Axes()
	axes := [4]geom.Vec2{ax[0], ax[1], {X: 1}, {Z: 1}}

	best := math.Inf(1)
	var bestAxis geom.Vec2
	for _, axis := range axes {
		overlap := intervalOverlap(oc[:], bc[:], axis)
		if overlap <= 0 {
			return Contact{}, false
		}
		if overlap < best {
			best = overlap
			bestAxis = axis
		}
	}

	d := o.Center.Sub(box.Center().XZ())
	if d.Dot(bestAxis) < 0 {
		bestAxis = bestAxis.Neg()
	}
	return Contact{Depth: best, Normal: bestAxis}, true
}

// OrientedVsOriented runs SAT over the two axes of each footprint. The
// result is symmetric: swapping a and b yields the same depth and the
// negated normal. Pushing a along Normal separates it from b.
func OrientedVsOriented(a, b geom.OBB) (Contact, bool) {
	if !a.Valid() || !b.Valid() {
		return Contact{}, false
	}
	ac := a.Corners()
	bc := b.Corners()
	aa := a.Axes()
	ba := b.Axes()
	axes := [4]geom.Vec2{aa[0], aa[1], ba[0], ba[1]}

	best := math.Inf(1)
	var bestAxis geom.Vec2
	for _, axis := range axes {
		axis = canonical(axis)
		overlap := intervalOverlap(ac[:], bc[:], axis)
		if overlap <= 0 {
			return Contact{}, false
		}
		// Ties go to the canonically smaller axis so argument order never
		// changes the chosen axis.
		if overlap < best-tieEpsilon || (math.Abs(overlap-best) <= tieEpsilon && axisLess(axis, bestAxis)) {
			best = overlap
			bestAxis = axis
		}
	}

	proj := a.Center.Sub(b.Center).Dot(bestAxis)
	switch {
	case proj < -tieEpsilon:
		bestAxis = bestAxis.Neg()
	case math.Abs(proj) <= tieEpsilon && footprintLess(a, b):
		bestAxis = bestAxis.Neg()
	}
	return Contact{Depth: best, Normal: bestAxis}, true
}

// ResolvePush translates pos along normal by depth, scaled by PushFactor.
func ResolvePush(pos *geom.Vec3, normal geom.Vec2, depth float64) {
	if depth <= 0 || math.IsNaN(depth) {
		return
	}
	*pos = pos.AddXZ(normal.Scale(depth * PushFactor))
}

// ResolveMutualPush splits a separation evenly between two bodies: a moves
// along normal and b against it.
func ResolveMutualPush(a, b *geom.Vec3, normal geom.Vec2, overlap float64) {
	if overlap <= 0 || math.IsNaN(overlap) {
		return
	}
	half := normal.Scale(overlap / 2)
	*a = a.AddXZ(half)
	*b = b.AddXZ(half.Neg())
}

func intervalOverlap(a, b []geom.Vec2, axis geom.Vec2) float64 {
	aLo, aHi := geom.Project(a, axis)
	bLo, bHi := geom.Project(b, axis)
	return math.Min(aHi, bHi) - math.Max(aLo, bLo)
}

// canonical flips an axis into the half-plane X>0 (or X==0, Z>0).
func canonical(axis geom.Vec2) geom.Vec2 {
	if axis.X < -tieEpsilon || (math.Abs(axis.X) <= tieEpsilon && axis.Z < 0) {
		return axis.Neg()
	}
	return axis
}

func axisLess(a, b geom.Vec2) bool {
	if math.Abs(a.X-b.X) > tieEpsilon {
		return a.X < b.X
	}
	return a.Z < b.Z
}

// footprintLess orders footprints by center, then size, then yaw modulo pi.
// Only identical footprints compare equal both ways.
func footprintLess(a, b geom.OBB) bool {
	switch {
	case a.Center.X != b.Center.X:
		return a.Center.X < b.Center.X
	case a.Center.Z != b.Center.Z:
		return a.Center.Z < b.Center.Z
	case a.Width != b.Width:
		return a.Width < b.Width
	case a.Length != b.Length:
		return a.Length < b.Length
	}
	return halfTurn(a.Yaw) < halfTurn(b.Yaw)
}

// halfTurn maps a yaw into [0, pi); a footprint looks the same after half a
// turn.
func halfTurn(yaw float64) float64 {
	y := math.Mod(yaw, math.Pi)
	if y < 0 {
		y += math.Pi
	}
	return y
}
