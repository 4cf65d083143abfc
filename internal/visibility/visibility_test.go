package visibility_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"tank-arena/internal/geom"
	"tank-arena/internal/visibility"
)

func wall() geom.AABB {
	return geom.BoxFromCenter(geom.V3(0, 1, 5), geom.V3(4, 2, 1))
}

// TestLineOfSight verifies blocking depends on the obstacle lying before maxDistance
func TestLineOfSight(t *testing.T) {
	boxes := []geom.AABB{wall()}
	origin := geom.V3(0, 0.5, 0)
	ahead := geom.V3(0, 0, 1)

	tests := []struct {
		name    string
		origin  geom.Vec3
		dir     geom.Vec3
		maxDist float64
		want    bool
	}{
		{"blocked", origin, ahead, 10, false},
		{"target before wall", origin, ahead, 4, true},
		{"looking away", origin, geom.V3(0, 0, -1), 10, true},
		{"passes beside", geom.V3(3, 0.5, 0), ahead, 10, true},
		{"passes above", geom.V3(0, 3, 0), ahead, 10, true},
		{"zero direction", origin, geom.Vec3{}, 10, false},
		{"NaN distance", origin, ahead, math.NaN(), false},
		{"unnormalized direction", origin, geom.V3(0, 0, 7), 4, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, visibility.HasLineOfSight(tt.origin, tt.dir, tt.maxDist, boxes))
		})
	}
}

// TestRayBoxDistance verifies entry distance and the inside-origin case
func TestRayBoxDistance(t *testing.T) {
	d, hit := visibility.RayBoxDistance(geom.V3(0, 1, 0), geom.V3(0, 0, 1), wall())
	assert.True(t, hit)
	assert.InDelta(t, 4.5, d, 1e-12)

	d, hit = visibility.RayBoxDistance(geom.V3(0, 1, 5), geom.V3(1, 0, 0), wall())
	assert.True(t, hit)
	assert.Equal(t, 0.0, d)

	_, hit = visibility.RayBoxDistance(geom.V3(0, 1, 0), geom.V3(1, 0, 0), wall())
	assert.False(t, hit)
}
