package game

import (
	"fmt"

	"tank-arena/internal/geom"
)

// Input is the player's intent for one tick.
type Input struct {
	Forward   bool    `json:"forward"`
	Back      bool    `json:"back"`
	Left      bool    `json:"left"`
	Right     bool    `json:"right"`
	Fire      bool    `json:"fire"`
	LookDelta float64 `json:"lookDelta"` // Radians added to the camera angle
}

// Debug toggles testing aids. All flags default to off.
type Debug struct {
	Immortal     bool `json:"immortal"`     // Hostile hits deal no damage
	NoTarget     bool `json:"noTarget"`     // Enemies never see the player
	Noclip       bool `json:"noclip"`       // Skip player-vs-obstacle resolution
	SpeedBoost   bool `json:"speedBoost"`   // Player moves 3x faster
	InfiniteAmmo bool `json:"infiniteAmmo"` // Ignore the fire cooldown
}

// Outcome is the session's terminal state.
type Outcome uint8

const (
	OutcomeRunning Outcome = iota
	OutcomeWon
	OutcomeLost
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWon:
		return "won"
	case OutcomeLost:
		return "lost"
	default:
		return "running"
	}
}

// MarshalText encodes the outcome by name.
func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// UnmarshalText parses an outcome name.
func (o *Outcome) UnmarshalText(b []byte) error {
	switch string(b) {
	case "running":
		*o = OutcomeRunning
	case "won":
		*o = OutcomeWon
	case "lost":
		*o = OutcomeLost
	default:
		return fmt.Errorf("unknown outcome %q", b)
	}
	return nil
}

// Terminal reports whether the session has ended.
func (o Outcome) Terminal() bool { return o != OutcomeRunning }

// HUD is the heads-up data published with every snapshot.
type HUD struct {
	Score          int     `json:"score"`
	Kills          int     `json:"kills"`
	KillsToWin     int     `json:"killsToWin"`
	HealthFraction float64 `json:"healthFraction"`
	Armor          float64 `json:"armor"`
	FireRate       float64 `json:"fireRate"`
	ReloadProgress float64 `json:"reloadProgress"`
	Outcome        Outcome `json:"outcome"`
}

// EntityKind tags an EntityRef.
type EntityKind uint8

const (
	EntityVehicle EntityKind = iota
	EntityProjectile
	EntityProp
	EntityExplosion
)

func (k EntityKind) String() string {
	switch k {
	case EntityProjectile:
		return "projectile"
	case EntityProp:
		return "prop"
	case EntityExplosion:
		return "explosion"
	default:
		return "vehicle"
	}
}

// EntityRef identifies a simulated entity to a scene sink.
type EntityRef struct {
	Kind EntityKind
	ID   string
}

// SceneSink mirrors simulation state into a renderer. Spawned and Despawned
// fire as entities enter and leave the simulation; Sync fires once at the end
// of every tick. Implementations must not retain the snapshot.
type SceneSink interface {
	Spawned(ref EntityRef)
	Despawned(ref EntityRef)
	Sync(snap *Snapshot)
}

// AudioSink receives fire-and-forget sound cues.
type AudioSink interface {
	ShotFired(friendly bool, pos geom.Vec3)
	Explosion(pos geom.Vec3, scale float64)
	EngineSpeed(speed float64)
}

type nopScene struct{}

func (nopScene) Spawned(EntityRef)   {}
func (nopScene) Despawned(EntityRef) {}
func (nopScene) Sync(*Snapshot)      {}

type nopAudio struct{}

func (nopAudio) ShotFired(bool, geom.Vec3)     {}
func (nopAudio) Explosion(geom.Vec3, float64) {}
func (nopAudio) EngineSpeed(float64)          {}
