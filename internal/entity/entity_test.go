package entity

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"tank-arena/internal/geom"
)

// TestParseVehicleClass verifies names, case folding and the empty default
func TestParseVehicleClass(t *testing.T) {
	tests := []struct {
		in      string
		want    VehicleClass
		wantErr bool
	}{
		{"", ClassBalanced, false},
		{"balanced", ClassBalanced, false},
		{"HEAVY", ClassHeavy, false},
		{" scout ", ClassScout, false},
		{"spanish", ClassSpanish, false},
		{"artillery", ClassBalanced, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseVehicleClass(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownClass) {
					t.Fatalf("expected ErrUnknownClass, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("expected %v, got %v (%v)", tt.want, got, err)
			}
		})
	}
}

// TestClassJSON verifies classes round through JSON by name
func TestClassJSON(t *testing.T) {
	var v struct {
		Class VehicleClass `json:"class"`
	}
	if err := json.Unmarshal([]byte(`{"class":"scout"}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.Class != ClassScout {
		t.Errorf("expected scout, got %v", v.Class)
	}
	if err := json.Unmarshal([]byte(`{"class":"boat"}`), &v); err == nil {
		t.Error("expected an error for an unknown class")
	}
	if len(AllClasses()) != 4 {
		t.Errorf("expected 4 classes, got %d", len(AllClasses()))
	}
	if VehicleClass(9).Valid() {
		t.Error("out-of-range class reported valid")
	}
}

// TestNewPlayerStats verifies the class block is applied and scaled
func TestNewPlayerStats(t *testing.T) {
	p := NewPlayer(ClassScout, geom.V3(1, 7, 2))
	if p.Position.Y != GroundHeight {
		t.Errorf("expected Y pinned to %.1f, got %.1f", GroundHeight, p.Position.Y)
	}
	if p.MaxHealth != 60 || p.Armor != -10 || p.FireRate != 0.25 {
		t.Errorf("unexpected scout stats %+v", p)
	}
	if math.Abs(p.Width-HullWidth*0.8) > 1e-9 || math.Abs(p.Length-HullLength*0.8) > 1e-9 {
		t.Errorf("footprint not scaled: %.2f x %.2f", p.Width, p.Length)
	}
	if p.ReloadProgress() != 1 {
		t.Errorf("expected full reload, got %.2f", p.ReloadProgress())
	}
}

// TestApplyDamage verifies clamping at zero and the single kill report
func TestApplyDamage(t *testing.T) {
	e := NewEnemy(geom.Vec3{}, Patrol{})

	if e.ApplyDamage(40) {
		t.Fatal("non-lethal damage reported a kill")
	}
	if e.Health != 60 {
		t.Fatalf("expected 60 health, got %.1f", e.Health)
	}
	if !e.ApplyDamage(500) {
		t.Fatal("lethal damage not reported")
	}
	if e.Health != 0 || e.Alive {
		t.Errorf("expected dead at 0, got %.1f alive=%v", e.Health, e.Alive)
	}
	if e.ApplyDamage(10) {
		t.Error("dead vehicle killed twice")
	}
}

// TestObstacleBounds verifies yaw widens the world box
func TestObstacleBounds(t *testing.T) {
	o := Obstacle{Center: geom.V3(0, 1, 0), Size: geom.V3(4, 2, 2)}
	if s := o.Bounds().Size(); s.X != 4 || s.Z != 2 {
		t.Errorf("unexpected unrotated size %+v", s)
	}
	o.Yaw = 0.5
	if s := o.Bounds().Size(); s.X <= 4 && s.Z <= 2 {
		t.Errorf("rotated bounds did not grow: %+v", s)
	}
}
