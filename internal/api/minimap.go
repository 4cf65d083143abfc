package api

import (
	"errors"
	"image/color"
	"math"

	"tank-arena/internal/arena"
	"tank-arena/internal/game"

	"github.com/fogleman/gg"
)

const (
	DefaultMinimapSize = 256
	MinMinimapSize     = 64
	MaxMinimapSize     = 1024
)

var errBadColor = errors.New("invalid hex color")

// minimap maps world XZ onto a square image. World +Z points up.
type minimap struct {
	dc    *gg.Context
	half  float64
	scale float64
}

func (m *minimap) px(x, z float64) (float64, float64) {
	return (x + m.half) * m.scale, (m.half - z) * m.scale
}

// RenderMinimap draws a top-down view of the arena and snap.
// A nil snapshot draws the obstacles only.
func RenderMinimap(a *arena.Arena, snap *game.Snapshot, size int) *gg.Context {
	half := arena.DefaultHalfExtent
	if a != nil {
		half = a.HalfExtent()
	}
	m := &minimap{
		dc:    gg.NewContext(size, size),
		half:  half,
		scale: float64(size) / (2 * half),
	}

	m.drawBackground()
	if a != nil {
		m.drawObstacles(a)
	}
	if snap == nil {
		return m.dc
	}
	m.drawProps(snap.Props)
	for _, e := range snap.Enemies {
		if e.Alive {
			m.drawVehicle(e)
		}
	}
	if snap.Player.Alive {
		m.drawVehicle(snap.Player)
	}
	m.drawProjectiles(snap.Projectiles)
	m.drawExplosions(snap.Explosions)
	return m.dc
}

func (m *minimap) drawBackground() {
	size := float64(m.dc.Width())
	m.dc.SetColor(color.RGBA{18, 22, 18, 255})
	m.dc.DrawRectangle(0, 0, size, size)
	m.dc.Fill()

	// 8-unit grid
	m.dc.SetColor(color.RGBA{40, 48, 40, 255})
	m.dc.SetLineWidth(1)
	for w := -m.half; w <= m.half; w += 8 {
		x, _ := m.px(w, 0)
		m.dc.DrawLine(x, 0, x, size)
		_, y := m.px(0, w)
		m.dc.DrawLine(0, y, size, y)
	}
	m.dc.Stroke()
}

func (m *minimap) drawObstacles(a *arena.Arena) {
	m.dc.SetColor(color.RGBA{110, 110, 120, 255})
	for _, b := range a.Boxes() {
		x0, y0 := m.px(b.Min.X, b.Max.Z)
		x1, y1 := m.px(b.Max.X, b.Min.Z)
		m.dc.DrawRectangle(x0, y0, x1-x0, y1-y0)
	}
	m.dc.Fill()
}

func (m *minimap) drawProps(props []game.PropSnapshot) {
	m.dc.SetColor(color.RGBA{205, 170, 110, 255})
	for _, p := range props {
		x, y := m.px(p.X, p.Z)
		s := math.Max(p.Size*m.scale, 2)
		m.dc.DrawRectangle(x-s/2, y-s/2, s, s)
	}
	m.dc.Fill()
}

func (m *minimap) drawVehicle(v game.VehicleSnapshot) {
	x, y := m.px(v.X, v.Z)
	w := math.Max(v.Width*m.scale, 3)
	l := math.Max(v.Length*m.scale, 4)

	m.dc.Push()
	m.dc.Translate(x, y)
	// Screen Y is flipped, so a positive world yaw turns clockwise.
	m.dc.Rotate(v.Yaw)

	if v.Color != "" {
		m.dc.SetHexColor(v.Color)
	} else if v.Kind == "player" {
		m.dc.SetColor(color.RGBA{70, 130, 180, 255})
	} else {
		m.dc.SetColor(color.RGBA{200, 50, 40, 255})
	}
	m.dc.DrawRectangle(-w/2, -l/2, w, l)
	m.dc.Fill()

	// Barrel
	m.dc.Rotate(v.TurretYaw)
	m.dc.SetColor(color.White)
	m.dc.SetLineWidth(math.Max(m.scale*0.3, 1))
	m.dc.DrawLine(0, 0, 0, -l*0.8)
	m.dc.Stroke()
	m.dc.Pop()

	if v.Spotted {
		m.dc.SetColor(color.RGBA{255, 215, 0, 200})
		m.dc.SetLineWidth(1)
		m.dc.DrawCircle(x, y, l)
		m.dc.Stroke()
	}
}

func (m *minimap) drawProjectiles(shells []game.ProjectileSnapshot) {
	r := math.Max(m.scale*0.3, 1)
	for _, s := range shells {
		if s.Friendly {
			m.dc.SetColor(color.RGBA{0, 255, 255, 255})
		} else {
			m.dc.SetColor(color.RGBA{255, 69, 0, 255})
		}
		x, y := m.px(s.X, s.Z)
		m.dc.DrawCircle(x, y, r)
		m.dc.Fill()
	}
}

func (m *minimap) drawExplosions(explosions []game.ExplosionSnapshot) {
	for _, e := range explosions {
		c, err := parseHexColor(e.Color)
		if err != nil {
			continue
		}
		c.A = uint8(math.Round(255 * math.Max(0, math.Min(1, e.Opacity))))
		m.dc.SetColor(c)
		x, y := m.px(e.X, e.Z)
		m.dc.DrawCircle(x, y, math.Max(e.Scale*2*m.scale, 2))
		m.dc.Fill()
	}
}

// parseHexColor parses "#rrggbb".
func parseHexColor(s string) (color.NRGBA, error) {
	c := color.NRGBA{A: 255}
	if len(s) != 7 || s[0] != '#' {
		return c, errBadColor
	}
	var v [3]uint8
	for i := range v {
		hi, ok1 := hexNibble(s[1+2*i])
		lo, ok2 := hexNibble(s[2+2*i])
		if !ok1 || !ok2 {
			return c, errBadColor
		}
		v[i] = hi<<4 | lo
	}
	c.R, c.G, c.B = v[0], v[1], v[2]
	return c, nil
}

func hexNibble(b byte) (uint8, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	}
	return 0, false
}
