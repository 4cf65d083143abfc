package spatial

import (
	"math/rand"
	"slices"
	"testing"
)

// TestGridQuerySortedAndDeduplicated verifies multi-cell boxes come back once, in id order
func TestGridQuerySortedAndDeduplicated(t *testing.T) {
	g := NewGrid(48, 8, 8)
	g.InsertBox(3, -20, -20, 20, 20)
	g.InsertBox(1, 0, 0, 1, 1)
	g.InsertBox(2, 40, 40, 44, 44)

	got := g.QueryRect(-5, -5, 5, 5)
	if !slices.Equal(got, []uint32{1, 3}) {
		t.Errorf("expected [1 3], got %v", got)
	}

	got = g.QueryRadius(42, 42, 1)
	if !slices.Equal(got, []uint32{2}) {
		t.Errorf("expected [2], got %v", got)
	}
}

// TestGridOutOfRangeClamps verifies points outside the grid map to border cells
func TestGridOutOfRangeClamps(t *testing.T) {
	g := NewGrid(10, 5, 1)
	g.InsertBox(0, 8, 8, 9, 9)

	if got := g.QueryRadius(500, 500, 1); !slices.Equal(got, []uint32{0}) {
		t.Errorf("expected border cell hit, got %v", got)
	}
	st := g.Stats()
	if st.Cols != 4 || st.Rows != 4 || st.CellSize != 5 {
		t.Errorf("unexpected dimensions %dx%d @%.0f", st.Cols, st.Rows, st.CellSize)
	}
}

// TestGridStats verifies a box spanning several cells is counted per cell
func TestGridStats(t *testing.T) {
	g := NewGrid(48, 8, 4)
	g.InsertBox(0, -4, -4, 4, 4)
	g.InsertBox(1, 40, 40, 41, 41)

	st := g.Stats()
	if st.TotalCells != 144 || st.NonEmptyCells != 5 || st.TotalEntries != 5 || st.MaxInCell != 1 {
		t.Errorf("unexpected stats %+v", st)
	}
}

func bruteForcePairs(bodies []Circle) []Pair {
	var out []Pair
	for i := range bodies {
		for j := i + 1; j < len(bodies); j++ {
			a, b := bodies[i], bodies[j]
			if a.X-a.Radius <= b.X+b.Radius && b.X-b.Radius <= a.X+a.Radius && zOverlap(a, b) {
				out = append(out, Pair{uint32(i), uint32(j)})
			}
		}
	}
	return out
}

// TestSweepAndPruneMatchesBruteForce verifies candidate pairs on random layouts
func TestSweepAndPruneMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	sap := NewSweepAndPrune(32)
	bodies := make([]Circle, 40)
	for round := 0; round < 20; round++ {
		for i := range bodies {
			bodies[i] = Circle{
				X:      rng.Float64()*60 - 30,
				Z:      rng.Float64()*60 - 30,
				Radius: 1 + rng.Float64()*2,
			}
		}
		got := sap.Update(bodies)
		want := bruteForcePairs(bodies)
		if !slices.Equal(got, want) {
			t.Fatalf("round %d: got %v, want %v", round, got, want)
		}
	}
}

// TestSweepAndPruneTouching verifies touching intervals are reported
func TestSweepAndPruneTouching(t *testing.T) {
	sap := NewSweepAndPrune(2)
	got := sap.Update([]Circle{{X: 0, Radius: 1}, {X: 2, Radius: 1}})
	if !slices.Equal(got, []Pair{{0, 1}}) {
		t.Errorf("expected [{0 1}], got %v", got)
	}
}
