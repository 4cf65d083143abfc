// Package geom provides the vector and box math shared by collision,
// visibility and the simulation. The ground plane is XZ; Y is height.
//
// Rotations about Y use the renderer's left-handed convention:
//
//	worldX =  x*cos(yaw) + z*sin(yaw)
//	worldZ = -x*sin(yaw) + z*cos(yaw)
//
// so local +Z (forward) maps to (sin yaw, cos yaw).
package geom

import "math"

// Epsilon is the length below which a direction is treated as degenerate.
const Epsilon = 1e-9

// Vec3 is a point or direction in world space.
type Vec3 struct {
	X, Y, Z float64
}

// V3 is shorthand for Vec3{x, y, z}.
func V3(x, y, z float64) Vec3 { return Vec3{X: x, Y: y, Z: z} }

func (v Vec3) Add(o Vec3) Vec3       { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3       { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3  { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Dot(o Vec3) float64    { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }
func (v Vec3) Len() float64          { return math.Sqrt(v.Dot(v)) }
func (v Vec3) Dist(o Vec3) float64   { return v.Sub(o).Len() }
func (v Vec3) XZ() Vec2              { return Vec2{X: v.X, Z: v.Z} }
func (v Vec3) DistXZ(o Vec3) float64 { return v.XZ().Sub(o.XZ()).Len() }
func (v Vec3) AddXZ(o Vec2) Vec3     { return Vec3{v.X + o.X, v.Y, v.Z + o.Z} }
func (v Vec3) WithY(y float64) Vec3  { return Vec3{v.X, y, v.Z} }
func (v Vec3) Finite() bool          { return finite(v.X) && finite(v.Y) && finite(v.Z) }

// Normalize returns the unit vector and false when v is degenerate
// (zero length, NaN or infinite).
func (v Vec3) Normalize() (Vec3, bool) {
	if !v.Finite() {
		return Vec3{}, false
	}
	l := v.Len()
	if l < Epsilon {
		return Vec3{}, false
	}
	return v.Scale(1 / l), true
}

// Vec2 is a vector on the XZ ground plane.
type Vec2 struct {
	X, Z float64
}

// V2 is shorthand for Vec2{x, z}.
func V2(x, z float64) Vec2 { return Vec2{X: x, Z: z} }

func (v Vec2) Add(o Vec2) Vec2      { return Vec2{v.X + o.X, v.Z + o.Z} }
func (v Vec2) Sub(o Vec2) Vec2      { return Vec2{v.X - o.X, v.Z - o.Z} }
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Z * s} }
func (v Vec2) Dot(o Vec2) float64   { return v.X*o.X + v.Z*o.Z }
func (v Vec2) Len() float64         { return math.Hypot(v.X, v.Z) }
func (v Vec2) Neg() Vec2            { return Vec2{-v.X, -v.Z} }
func (v Vec2) Vec3(y float64) Vec3  { return Vec3{v.X, y, v.Z} }

// Normalize returns the unit vector and false when v is degenerate.
func (v Vec2) Normalize() (Vec2, bool) {
	if !finite(v.X) || !finite(v.Z) {
		return Vec2{}, false
	}
	l := v.Len()
	if l < Epsilon {
		return Vec2{}, false
	}
	return v.Scale(1 / l), true
}

// RotateY rotates a local XZ offset by yaw into world space.
func RotateY(local Vec2, yaw float64) Vec2 {
	s, c := math.Sincos(yaw)
	return Vec2{
		X: local.X*c + local.Z*s,
		Z: -local.X*s + local.Z*c,
	}
}

// RotateY3 rotates a local offset about the Y axis, leaving Y untouched.
func RotateY3(local Vec3, yaw float64) Vec3 {
	r := RotateY(local.XZ(), yaw)
	return Vec3{X: r.X, Y: local.Y, Z: r.Z}
}

// Forward is the world direction of local +Z for the given yaw.
func Forward(yaw float64) Vec3 {
	s, c := math.Sincos(yaw)
	return Vec3{X: s, Z: c}
}

// YawTowards returns the yaw that makes local +Z point from "from" to "to".
// Coincident points keep the current yaw.
func YawTowards(from, to Vec3, current float64) float64 {
	dx, dz := to.X-from.X, to.Z-from.Z
	if math.Abs(dx) < Epsilon && math.Abs(dz) < Epsilon {
		return current
	}
	return math.Atan2(dx, dz)
}

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
