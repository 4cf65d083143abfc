package arena

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"tank-arena/internal/entity"
	"tank-arena/internal/geom"
)

// Layout is the data form of an arena, as produced by an environment
// builder or read from a YAML file.
type Layout struct {
	HalfExtent float64        `json:"halfExtent" yaml:"halfExtent"`
	Obstacles  []ObstacleSpec `json:"obstacles" yaml:"obstacles"`
}

// ObstacleSpec describes one obstacle: center, full size and optional yaw in
// radians.
type ObstacleSpec struct {
	ID     string     `json:"id,omitempty" yaml:"id,omitempty"`
	Center [3]float64 `json:"center" yaml:"center"`
	Size   [3]float64 `json:"size" yaml:"size"`
	Yaw    float64    `json:"yaw,omitempty" yaml:"yaw,omitempty"`
}

// LoadYAML decodes a layout. Unknown fields are rejected so typos surface at
// session setup.
func LoadYAML(r io.Reader) (*Layout, error) {
	var l Layout
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&l); err != nil {
		return nil, fmt.Errorf("decode arena layout: %w", err)
	}
	return &l, nil
}

// LoadFile reads a YAML layout from disk.
func LoadFile(path string) (*Layout, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open arena layout: %w", err)
	}
	defer f.Close()
	return LoadYAML(f)
}

// Build turns the layout into an indexed Arena. A zero half-extent selects
// DefaultHalfExtent.
func (l *Layout) Build() (*Arena, error) {
	half := l.HalfExtent
	if half == 0 {
		half = DefaultHalfExtent
	}
	obstacles := make([]entity.Obstacle, 0, len(l.Obstacles))
	for i, s := range l.Obstacles {
		id := s.ID
		if id == "" {
			id = fmt.Sprintf("obstacle-%d", i)
		}
		obstacles = append(obstacles, entity.Obstacle{
			ID:     id,
			Center: geom.V3(s.Center[0], s.Center[1], s.Center[2]),
			Size:   geom.V3(s.Size[0], s.Size[1], s.Size[2]),
			Yaw:    s.Yaw,
		})
	}
	return New(half, obstacles)
}
