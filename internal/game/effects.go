package game

import (
	"github.com/google/uuid"

	"tank-arena/internal/geom"
)

// ExplosionFade is the opacity an explosion loses per tick.
const ExplosionFade = 0.02

// ExplosionKind selects an explosion's scale and color.
type ExplosionKind uint8

const (
	ExplosionImpact    ExplosionKind = iota // Shell hit an obstacle
	ExplosionEnemyHit                       // Player shell hit an enemy
	ExplosionPropHit                        // Player shell hit a prop
	ExplosionPlayerHit                      // Enemy shell hit the player
)

func (k ExplosionKind) String() string {
	switch k {
	case ExplosionEnemyHit:
		return "enemy_hit"
	case ExplosionPropHit:
		return "prop_hit"
	case ExplosionPlayerHit:
		return "player_hit"
	default:
		return "impact"
	}
}

// Style returns the kind's scale and hex color.
func (k ExplosionKind) Style() (scale float64, color string) {
	switch k {
	case ExplosionEnemyHit:
		return 1, "#ff4500"
	case ExplosionPropHit:
		return 0.7, "#ffffff"
	case ExplosionPlayerHit:
		return 1, "#1e90ff"
	default:
		return 0.5, "#00ffff"
	}
}

// Explosion is a fading hit effect.
type Explosion struct {
	ID       string
	Kind     ExplosionKind
	Position geom.Vec3
	Scale    float64
	Color    string
	Opacity  float64
}

// NewExplosion creates a fully opaque explosion.
func NewExplosion(kind ExplosionKind, pos geom.Vec3) *Explosion {
	scale, color := kind.Style()
	return &Explosion{
		ID:       uuid.NewString(),
		Kind:     kind,
		Position: pos,
		Scale:    scale,
		Color:    color,
		Opacity:  1,
	}
}

// Update fades the explosion one tick. It returns false once the explosion
// is fully transparent and should be removed.
func (e *Explosion) Update() bool {
	e.Opacity -= ExplosionFade
	return e.Opacity > 0
}
