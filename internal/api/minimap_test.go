package api

import (
	"image/color"
	"testing"

	"tank-arena/internal/game"
)

// TestParseHexColor verifies explosion color parsing
func TestParseHexColor(t *testing.T) {
	c, err := parseHexColor("#FF4500")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c != (color.NRGBA{R: 0xff, G: 0x45, B: 0x00, A: 0xff}) {
		t.Errorf("unexpected color %v", c)
	}
	for _, bad := range []string{"", "ff4500", "#ff45", "#gg4500"} {
		if _, err := parseHexColor(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

// TestRenderMinimap verifies world positions land on the expected pixels
func TestRenderMinimap(t *testing.T) {
	engine := newMockEngine()

	empty := RenderMinimap(engine.Arena(), nil, 96)
	if empty.Width() != 96 || empty.Height() != 96 {
		t.Fatalf("expected 96x96, got %dx%d", empty.Width(), empty.Height())
	}

	snap := &game.Snapshot{
		Props: []game.PropSnapshot{{ID: "p", X: -30, Z: -30, Size: 4, Health: 50}},
	}
	dc := RenderMinimap(engine.Arena(), snap, 96)
	img := dc.Image()

	// 96 px over 96 world units: world (x, z) maps to pixel (x+48, 48-z).
	obstacle := color.NRGBAModel.Convert(img.At(58, 38)).(color.NRGBA)
	if obstacle.R != 110 || obstacle.G != 110 {
		t.Errorf("expected obstacle gray at (10, 10), got %v", obstacle)
	}
	prop := color.NRGBAModel.Convert(img.At(18, 78)).(color.NRGBA)
	if prop.R != 205 || prop.G != 170 {
		t.Errorf("expected prop color at (-30, -30), got %v", prop)
	}
}
