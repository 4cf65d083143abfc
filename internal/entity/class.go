package entity

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownClass is returned when a class name does not match any variant.
var ErrUnknownClass = errors.New("unknown vehicle class")

// VehicleClass selects the player's fixed stat block.
type VehicleClass uint8

const (
	ClassBalanced VehicleClass = iota
	ClassHeavy
	ClassScout
	ClassSpanish

	classCount
)

// ClassConfig is the static stat block of a vehicle class.
type ClassConfig struct {
	Name          string
	MaxHealth     float64
	Armor         float64 // Negative armor amplifies incoming damage
	FirePower     float64
	FireRate      float64 // Seconds between shots
	Speed         float64 // Units per tick
	RotationSpeed float64 // Radians per tick
	Size          float64 // Footprint scale
	Color         string
}

// Config returns the class's stat block. Unknown values fall back to
// balanced.
func (c VehicleClass) Config() ClassConfig {
	switch c {
	case ClassHeavy:
		return ClassConfig{Name: "heavy", MaxHealth: 200, Armor: 50, FirePower: 40, FireRate: 1.0, Speed: 0.1, RotationSpeed: 0.02, Size: 1.2, Color: "#2f4f4f"}
	case ClassScout:
		return ClassConfig{Name: "scout", MaxHealth: 60, Armor: -10, FirePower: 15, FireRate: 0.25, Speed: 0.25, RotationSpeed: 0.05, Size: 0.8, Color: "#9acd32"}
	case ClassSpanish:
		return ClassConfig{Name: "spanish", MaxHealth: 150, Armor: 20, FirePower: 100, FireRate: 2.0, Speed: 0.12, RotationSpeed: 0.02, Size: 1.1, Color: "#c60b1e"}
	default:
		return ClassConfig{Name: "balanced", MaxHealth: 100, Armor: 0, FirePower: 25, FireRate: 0.5, Speed: 0.15, RotationSpeed: 0.03, Size: 1.0, Color: "#4682b4"}
	}
}

// Valid reports whether c names a defined class.
func (c VehicleClass) Valid() bool { return c < classCount }

func (c VehicleClass) String() string { return c.Config().Name }

// ParseVehicleClass maps a class name to its variant. An empty name selects
// balanced.
func ParseVehicleClass(name string) (VehicleClass, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "balanced":
		return ClassBalanced, nil
	case "heavy":
		return ClassHeavy, nil
	case "scout":
		return ClassScout, nil
	case "spanish":
		return ClassSpanish, nil
	default:
		return ClassBalanced, fmt.Errorf("%w: %q", ErrUnknownClass, name)
	}
}

// AllClasses lists every class in declaration order.
func AllClasses() []VehicleClass {
	out := make([]VehicleClass, 0, classCount)
	for c := VehicleClass(0); c < classCount; c++ {
		out = append(out, c)
	}
	return out
}

// MarshalText lets classes appear by name in JSON and YAML.
func (c VehicleClass) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText parses a class name.
func (c *VehicleClass) UnmarshalText(b []byte) error {
	v, err := ParseVehicleClass(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
