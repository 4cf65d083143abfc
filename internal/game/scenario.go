package game

import (
	"fmt"
	"math"
	"math/rand"

	"tank-arena/internal/ai"
	"tank-arena/internal/arena"
	"tank-arena/internal/entity"
	"tank-arena/internal/geom"
)

const (
	PlayerRingInner   = 32.0
	PlayerRingWidth   = 10.0
	PlayerSpawnTries  = 1000
	EnemyMinDistance  = 10.0
	EnemyDistanceSpan = 15.0
	EnemySpawnTries   = 50
	PropSpread        = 28.0
	PropSpawnTries    = 100
	PropMinSize       = 0.5
	PropSizeSpan      = 1.5
)

// spawnProbe is the box kept clear of obstacles around a spawning vehicle.
var spawnProbe = geom.V3(3, 3, 3)

// scenario is the freshly built entity set of a session.
type scenario struct {
	player  *entity.Vehicle
	enemies []*entity.Vehicle
	props   []*entity.Prop
}

// buildScenario places the player on the outer ring, enemies around the
// player and props near the center, all clear of obstacles. Enemies and props
// that find no free spot are skipped.
func buildScenario(a *arena.Arena, rng *rand.Rand, class entity.VehicleClass, enemies, props int, bound float64) (*scenario, error) {
	spawn, ok := playerSpawn(a, rng)
	if !ok {
		return nil, fmt.Errorf("%w: no free player spawn on the outer ring", ErrInvalidConfig)
	}

	sc := &scenario{
		player:  entity.NewPlayer(class, spawn),
		enemies: make([]*entity.Vehicle, 0, enemies),
		props:   make([]*entity.Prop, 0, props),
	}
	// Face the arena center.
	sc.player.Yaw = geom.YawTowards(sc.player.Position, geom.Vec3{}, 0)

	for range enemies {
		pos, ok := enemySpawn(a, rng, sc.player.Position, bound)
		if !ok {
			continue
		}
		sc.enemies = append(sc.enemies, entity.NewEnemy(pos, ai.NewPatrol(rng, pos)))
	}

	for range props {
		size := PropMinSize + rng.Float64()*PropSizeSpan
		pos, ok := propSpawn(a, rng, size)
		if !ok {
			continue
		}
		sc.props = append(sc.props, entity.NewProp(pos, size))
	}
	return sc, nil
}

func playerSpawn(a *arena.Arena, rng *rand.Rand) (geom.Vec3, bool) {
	for range PlayerSpawnTries {
		angle := rng.Float64() * 2 * math.Pi
		r := PlayerRingInner + rng.Float64()*PlayerRingWidth
		pos := geom.V3(math.Cos(angle)*r, entity.GroundHeight, math.Sin(angle)*r)
		if !a.Blocked(pos.WithY(1.5), spawnProbe) {
			return pos, true
		}
	}
	return geom.Vec3{}, false
}

func enemySpawn(a *arena.Arena, rng *rand.Rand, player geom.Vec3, bound float64) (geom.Vec3, bool) {
	for range EnemySpawnTries {
		angle := rng.Float64() * 2 * math.Pi
		d := EnemyMinDistance + rng.Float64()*EnemyDistanceSpan
		pos := geom.V3(player.X+math.Cos(angle)*d, entity.GroundHeight, player.Z+math.Sin(angle)*d)
		if math.Abs(pos.X) > bound || math.Abs(pos.Z) > bound {
			continue
		}
		if !a.Blocked(pos, spawnProbe) {
			return pos, true
		}
	}
	return geom.Vec3{}, false
}

func propSpawn(a *arena.Arena, rng *rand.Rand, size float64) (geom.Vec3, bool) {
	for range PropSpawnTries {
		pos := geom.V3((rng.Float64()*2-1)*PropSpread, size/2, (rng.Float64()*2-1)*PropSpread)
		if !a.Blocked(pos, geom.V3(size, size, size)) {
			return pos, true
		}
	}
	return geom.Vec3{}, false
}
