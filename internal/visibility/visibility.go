// Package visibility answers line-of-sight queries against obstacle boxes.
package visibility

import (
	"math"

	"tank-arena/internal/geom"
)

// HasLineOfSight casts a ray from origin along direction and reports whether
// no box is hit closer than maxDistance. A degenerate direction or distance
// yields false: the caller loses sight rather than seeing through walls.
func HasLineOfSight(origin, direction geom.Vec3, maxDistance float64, boxes []geom.AABB) bool {
	dir, ok := direction.Normalize()
	if !ok || !origin.Finite() || math.IsNaN(maxDistance) || maxDistance <= 0 {
		return false
	}
	for i := range boxes {
		if t, hit := RayBoxDistance(origin, dir, boxes[i]); hit && t < maxDistance {
			return false
		}
	}
	return true
}

// RayBoxDistance returns the distance along a unit ray to the first point
// of the box. An origin inside the box hits at distance 0.
func RayBoxDistance(origin, dir geom.Vec3, box geom.AABB) (float64, bool) {
	if !box.Valid() {
		return 0, false
	}
	tMin := 0.0
	tMax := math.Inf(1)

	o := [3]float64{origin.X, origin.Y, origin.Z}
	d := [3]float64{dir.X, dir.Y, dir.Z}
	lo := [3]float64{box.Min.X, box.Min.Y, box.Min.Z}
	hi := [3]float64{box.Max.X, box.Max.Y, box.Max.Z}

	for axis := 0; axis < 3; axis++ {
		if math.Abs(d[axis]) < 1e-12 {
			if o[axis] < lo[axis] || o[axis] > hi[axis] {
				return 0, false
			}
			continue
		}
		inv := 1.0 / d[axis]
		t1 := (lo[axis] - o[axis]) * inv
		t2 := (hi[axis] - o[axis]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return 0, false
		}
	}
	return tMin, true
}
