package geom

import "math"

// AABB is an axis-aligned box in world space.
type AABB struct {
	Min, Max Vec3
}

// BoxFromCenter builds an axis-aligned box from its center and full size.
func BoxFromCenter(center, size Vec3) AABB {
	h := size.Scale(0.5)
	return AABB{Min: center.Sub(h), Max: center.Add(h)}
}

func (b AABB) Center() Vec3 { return b.Min.Add(b.Max).Scale(0.5) }
func (b AABB) Size() Vec3   { return b.Max.Sub(b.Min) }

// Valid reports whether the box has a positive, finite extent on every axis.
// Zero-extent boxes never collide or block sight.
func (b AABB) Valid() bool {
	if !b.Min.Finite() || !b.Max.Finite() {
		return false
	}
	return b.Max.X > b.Min.X && b.Max.Y > b.Min.Y && b.Max.Z > b.Min.Z
}

// IntersectsSphere reports whether a sphere touches the box, using the
// distance from the center to the closest point of the box.
func (b AABB) IntersectsSphere(center Vec3, radius float64) bool {
	if !b.Valid() || !center.Finite() || radius < 0 {
		return false
	}
	cx := Clamp(center.X, b.Min.X, b.Max.X)
	cy := Clamp(center.Y, b.Min.Y, b.Max.Y)
	cz := Clamp(center.Z, b.Min.Z, b.Max.Z)
	dx, dy, dz := center.X-cx, center.Y-cy, center.Z-cz
	return dx*dx+dy*dy+dz*dz <= radius*radius
}

// Contains reports whether p lies inside or on the box.
func (b AABB) Contains(p Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Overlaps reports whether two boxes share volume.
func (b AABB) Overlaps(o AABB) bool {
	return b.Min.X < o.Max.X && b.Max.X > o.Min.X &&
		b.Min.Y < o.Max.Y && b.Max.Y > o.Min.Y &&
		b.Min.Z < o.Max.Z && b.Max.Z > o.Min.Z
}

// CornersXZ returns the four ground-plane corners of the box.
func (b AABB) CornersXZ() [4]Vec2 {
	return [4]Vec2{
		{b.Min.X, b.Min.Z},
		{b.Max.X, b.Min.Z},
		{b.Max.X, b.Max.Z},
		{b.Min.X, b.Max.Z},
	}
}

// RotatedBounds returns the world AABB of a box of the given size rotated
// by yaw about its center. Yaw 0 yields the plain axis-aligned box.
func RotatedBounds(center, size Vec3, yaw float64) AABB {
	if yaw == 0 {
		return BoxFromCenter(center, size)
	}
	s, c := math.Sincos(yaw)
	s, c = math.Abs(s), math.Abs(c)
	w := size.X*c + size.Z*s
	l := size.X*s + size.Z*c
	return BoxFromCenter(center, Vec3{X: w, Y: size.Y, Z: l})
}

// OBB is an oriented rectangle on the ground plane: a vehicle footprint.
// Width runs along local X, Length along local Z.
type OBB struct {
	Center Vec2
	Yaw    float64
	Width  float64
	Length float64
}

// Valid reports whether the footprint has a positive, finite size.
func (o OBB) Valid() bool {
	return finite(o.Center.X) && finite(o.Center.Z) && finite(o.Yaw) &&
		o.Width > 0 && o.Length > 0 && finite(o.Width) && finite(o.Length)
}

// Axes returns the world directions of local X and local Z.
func (o OBB) Axes() [2]Vec2 {
	return [2]Vec2{
		RotateY(Vec2{X: 1}, o.Yaw),
		RotateY(Vec2{Z: 1}, o.Yaw),
	}
}

// Corners returns the four world-space corners.
func (o OBB) Corners() [4]Vec2 {
	hw, hl := o.Width/2, o.Length/2
	local := [4]Vec2{{-hw, -hl}, {hw, -hl}, {hw, hl}, {-hw, hl}}
	var out [4]Vec2
	for i, p := range local {
		out[i] = o.Center.Add(RotateY(p, o.Yaw))
	}
	return out
}

// Radius is the half-diagonal, the bounding circle of the footprint.
func (o OBB) Radius() float64 {
	return math.Hypot(o.Width/2, o.Length/2)
}

// Project returns the interval covered by corners along axis.
func Project(corners []Vec2, axis Vec2) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, c := range corners {
		p := c.Dot(axis)
		if p < lo {
			lo = p
		}
		if p > hi {
			hi = p
		}
	}
	return lo, hi
}
