package geom_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tank-arena/internal/geom"
)

// TestForwardIsLeftHanded verifies yaw 0 faces +Z and yaw pi/2 faces +X
func TestForwardIsLeftHanded(t *testing.T) {
	f := geom.Forward(0)
	assert.InDelta(t, 0, f.X, 1e-12)
	assert.InDelta(t, 1, f.Z, 1e-12)

	f = geom.Forward(math.Pi / 2)
	assert.InDelta(t, 1, f.X, 1e-12)
	assert.InDelta(t, 0, f.Z, 1e-12)

	r := geom.RotateY(geom.V2(0, 1), math.Pi/2)
	assert.InDelta(t, f.X, r.X, 1e-12)
	assert.InDelta(t, f.Z, r.Z, 1e-12)
}

// TestYawTowards verifies facing a point and the coincident fallback
func TestYawTowards(t *testing.T) {
	from := geom.V3(1, 0, 1)
	tests := []struct {
		name string
		to   geom.Vec3
		want float64
	}{
		{"plus z", geom.V3(1, 5, 4), 0},
		{"plus x", geom.V3(3, 0, 1), math.Pi / 2},
		{"minus z", geom.V3(1, 0, -2), math.Pi},
		{"coincident", from, 0.7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, geom.YawTowards(from, tt.to, 0.7), 1e-12)
		})
	}
}

// TestNormalize verifies zero and non-finite vectors are rejected
func TestNormalize(t *testing.T) {
	v, ok := geom.V3(3, 0, 4).Normalize()
	require.True(t, ok)
	assert.InDelta(t, 1, v.Len(), 1e-12)

	_, ok = geom.Vec3{}.Normalize()
	assert.False(t, ok)
	_, ok = geom.V3(math.NaN(), 0, 1).Normalize()
	assert.False(t, ok)
}

// TestAABBSphere verifies the closest-point sphere test
func TestAABBSphere(t *testing.T) {
	box := geom.BoxFromCenter(geom.V3(0, 1, 0), geom.V3(2, 2, 2))
	assert.True(t, box.IntersectsSphere(geom.V3(0, 1, 0), 0.1))
	assert.True(t, box.IntersectsSphere(geom.V3(1.5, 1, 0), 0.5))
	assert.False(t, box.IntersectsSphere(geom.V3(1.6, 1, 0), 0.5))
	assert.False(t, box.IntersectsSphere(geom.V3(1.4, 1, 1.4), 0.5), "corner distance is diagonal")

	flat := geom.BoxFromCenter(geom.Vec3{}, geom.V3(2, 0, 2))
	assert.False(t, flat.Valid())
	assert.False(t, flat.IntersectsSphere(geom.Vec3{}, 10))
}

// TestRotatedBounds verifies a quarter turn swaps width and length
func TestRotatedBounds(t *testing.T) {
	b := geom.RotatedBounds(geom.Vec3{}, geom.V3(4, 1, 2), math.Pi/2)
	s := b.Size()
	assert.InDelta(t, 2, s.X, 1e-9)
	assert.InDelta(t, 4, s.Z, 1e-9)
	assert.InDelta(t, 1, s.Y, 1e-9)
}

// TestOBBCorners verifies the footprint corners and bounding radius
func TestOBBCorners(t *testing.T) {
	o := geom.OBB{Center: geom.V2(10, 0), Width: 2, Length: 4}
	corners := o.Corners()
	lo, hi := geom.Project(corners[:], geom.V2(1, 0))
	assert.InDelta(t, 9, lo, 1e-12)
	assert.InDelta(t, 11, hi, 1e-12)
	lo, hi = geom.Project(corners[:], geom.V2(0, 1))
	assert.InDelta(t, -2, lo, 1e-12)
	assert.InDelta(t, 2, hi, 1e-12)
	assert.InDelta(t, math.Sqrt(5), o.Radius(), 1e-12)

	assert.False(t, geom.OBB{Width: 0, Length: 1}.Valid())
	assert.False(t, geom.OBB{Center: geom.V2(math.Inf(1), 0), Width: 1, Length: 1}.Valid())
}
