package collision_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tank-arena/internal/collision"
	"tank-arena/internal/geom"
)

func unitBox() geom.AABB {
	return geom.AABB{Min: geom.V3(-1, 0, -1), Max: geom.V3(1, 2, 1)}
}

// TestSphereVsObstaclesOrder verifies the first box in slice order wins
func TestSphereVsObstaclesOrder(t *testing.T) {
	boxes := []geom.AABB{
		geom.BoxFromCenter(geom.V3(10, 1, 0), geom.V3(2, 2, 2)),
		unitBox(),
		geom.BoxFromCenter(geom.V3(0.5, 1, 0), geom.V3(2, 2, 2)),
	}
	i, hit := collision.SphereVsObstacles(geom.V3(0, 1, 0), 0.3, boxes)
	require.True(t, hit)
	assert.Equal(t, 1, i)

	_, hit = collision.SphereVsObstacles(geom.V3(0, 1, 20), 0.3, boxes)
	assert.False(t, hit)
}

// TestResolveBounce verifies the push along the shorter axis and the damped reflection
func TestResolveBounce(t *testing.T) {
	wall := geom.BoxFromCenter(geom.V3(0, 1, 0), geom.V3(10, 2, 2))
	pos := geom.V3(0, 1, 0.5)
	vel := geom.V3(0.2, 0, -0.4)
	collision.ResolveBounce(&pos, &vel, wall)

	assert.InDelta(t, 1+collision.BounceClearance, pos.Z, 1e-12)
	assert.InDelta(t, 0.2, vel.X, 1e-12)
	assert.InDelta(t, 0.2, vel.Z, 1e-12)

	pillar := geom.BoxFromCenter(geom.V3(0, 1, 0), geom.V3(2, 2, 10))
	pos = geom.V3(-0.5, 1, 0)
	vel = geom.V3(1, 0, 0)
	collision.ResolveBounce(&pos, &vel, pillar)
	assert.InDelta(t, -1-collision.BounceClearance, pos.X, 1e-12)
	assert.InDelta(t, -0.5, vel.X, 1e-12)
}

// TestResolvePushClearsObstacle verifies a fully overlapped footprint ends strictly outside
func TestResolvePushClearsObstacle(t *testing.T) {
	box := unitBox()
	fp := geom.OBB{Width: 2, Length: 2}

	c, hit := collision.OrientedVsBox(fp, box)
	require.True(t, hit)
	assert.InDelta(t, 2, c.Depth, 1e-12)

	pos := geom.Vec3{}
	collision.ResolvePush(&pos, c.Normal, c.Depth)
	assert.InDelta(t, 2.02, math.Abs(pos.X)+math.Abs(pos.Z), 1e-12)

	fp.Center = pos.XZ()
	_, hit = collision.OrientedVsBox(fp, box)
	assert.False(t, hit)
}

// TestOrientedVsAxisAlignedNormal verifies the normal points away from the box
func TestOrientedVsAxisAlignedNormal(t *testing.T) {
	boxes := []geom.AABB{
		geom.BoxFromCenter(geom.V3(50, 1, 0), geom.V3(2, 2, 2)),
		unitBox(),
	}
	fp := geom.OBB{Center: geom.V2(-1.5, 0), Width: 2, Length: 4, Yaw: 0.1}
	c, hit := collision.OrientedVsAxisAligned(fp, boxes)
	require.True(t, hit)
	assert.Equal(t, 1, c.Obstacle)
	assert.Less(t, c.Normal.X, 0.0)
	assert.Greater(t, c.Depth, 0.0)
}

// TestOrientedVsOrientedSymmetry verifies swapping arguments negates the normal only
func TestOrientedVsOrientedSymmetry(t *testing.T) {
	tests := []struct {
		name string
		a, b geom.OBB
	}{
		{"offset", geom.OBB{Center: geom.V2(0, 0), Width: 2.2, Length: 3.2}, geom.OBB{Center: geom.V2(1.5, 0.4), Width: 2.2, Length: 3.2, Yaw: 0.3}},
		{"rotated", geom.OBB{Center: geom.V2(-1, 2), Width: 2, Length: 3, Yaw: 1.2}, geom.OBB{Center: geom.V2(0, 1), Width: 1, Length: 4, Yaw: -0.4}},
		{"same center", geom.OBB{Center: geom.V2(3, -2), Width: 1.81, Length: 1.77, Yaw: 0.2}, geom.OBB{Center: geom.V2(3, -2), Width: 0.79, Length: 1.40, Yaw: 1.1}},
		{"same center and size", geom.OBB{Center: geom.V2(0, 0), Width: 2.2, Length: 3.2, Yaw: 0.5}, geom.OBB{Center: geom.V2(0, 0), Width: 2.2, Length: 3.2, Yaw: -0.9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ab, hitAB := collision.OrientedVsOriented(tt.a, tt.b)
			ba, hitBA := collision.OrientedVsOriented(tt.b, tt.a)
			require.True(t, hitAB)
			require.True(t, hitBA)
			assert.InDelta(t, ab.Depth, ba.Depth, 1e-12)
			assert.InDelta(t, ab.Normal.X, -ba.Normal.X, 1e-12)
			assert.InDelta(t, ab.Normal.Z, -ba.Normal.Z, 1e-12)
		})
	}
}

// TestMutualPushSeparates verifies splitting the overlap leaves the footprints touching at most
func TestMutualPushSeparates(t *testing.T) {
	a := geom.V3(0, 0.5, 0)
	b := geom.V3(1.5, 0.5, 0)
	fa := geom.OBB{Center: a.XZ(), Width: 2.2, Length: 3.2}
	fb := geom.OBB{Center: b.XZ(), Width: 2.2, Length: 3.2}

	c, hit := collision.OrientedVsOriented(fa, fb)
	require.True(t, hit)
	collision.ResolveMutualPush(&a, &b, c.Normal, c.Depth)

	assert.InDelta(t, 2.2, b.X-a.X, 1e-9)
	assert.InDelta(t, -0.35, a.X, 1e-9)
	assert.InDelta(t, 1.85, b.X, 1e-9)
}

// TestDegenerateInput verifies NaN and zero extents never collide
func TestDegenerateInput(t *testing.T) {
	box := unitBox()
	_, hit := collision.OrientedVsBox(geom.OBB{Center: geom.V2(math.NaN(), 0), Width: 2, Length: 2}, box)
	assert.False(t, hit)
	_, hit = collision.OrientedVsBox(geom.OBB{Width: 2, Length: 2}, geom.AABB{})
	assert.False(t, hit)
	_, hit = collision.OrientedVsOriented(geom.OBB{Width: 2, Length: 2}, geom.OBB{Width: 0, Length: 2})
	assert.False(t, hit)

	pos := geom.Vec3{}
	collision.ResolvePush(&pos, geom.V2(1, 0), math.NaN())
	assert.Equal(t, geom.Vec3{}, pos)
}
