// Package spatial provides broad-phase structures for the arena: a uniform
// grid over static obstacle boxes and a sweep-and-prune pass over vehicle
// footprints.
//
// Structures store integer indices (not pointers) into the caller's slices
// and reuse their scratch buffers between queries.
package spatial

import (
	"math"
	"slices"
)

// Grid buckets box indices into square cells on the XZ plane. The arena is
// centered on the origin, so cell coordinates are offset by the half extent.
//
// Query results are sorted ascending, which lets callers keep "first box in
// slice order" semantics while only testing nearby boxes.
type Grid struct {
	cellSize    float64
	invCellSize float64
	halfExtent  float64
	cols, rows  int
	cells       [][]uint32 // cells[row*cols+col] = box indices
	scratch     []uint32
	seen        []uint32 // per-box query stamp for dedup
	stamp       uint32
}

// NewGrid creates a grid covering [-halfExtent, halfExtent] on X and Z.
// Points outside the covered area map to the border cells.
func NewGrid(halfExtent, cellSize float64, maxBoxes int) *Grid {
	if cellSize <= 0 {
		cellSize = 10
	}
	if halfExtent <= 0 {
		halfExtent = cellSize
	}
	side := int(math.Ceil(2 * halfExtent / cellSize))
	if side < 1 {
		side = 1
	}

	cells := make([][]uint32, side*side)
	avgPerCell := maxBoxes / len(cells)
	if avgPerCell < 4 {
		avgPerCell = 4
	}
	for i := range cells {
		cells[i] = make([]uint32, 0, avgPerCell)
	}

	return &Grid{
		cellSize:    cellSize,
		invCellSize: 1.0 / cellSize,
		halfExtent:  halfExtent,
		cols:        side,
		rows:        side,
		cells:       cells,
		scratch:     make([]uint32, 0, 64),
		seen:        make([]uint32, 0, maxBoxes),
	}
}

// InsertBox registers box id in every cell its XZ extent touches.
func (g *Grid) InsertBox(id uint32, minX, minZ, maxX, maxZ float64) {
	c0, r0 := g.cellCoords(minX, minZ)
	c1, r1 := g.cellCoords(maxX, maxZ)
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			idx := row*g.cols + col
			g.cells[idx] = append(g.cells[idx], id)
		}
	}
	for int(id) >= len(g.seen) {
		g.seen = append(g.seen, 0)
	}
}

// QueryRect returns the ids of boxes registered in any cell overlapping the
// rectangle, deduplicated and sorted ascending. Candidates may lie outside
// the rectangle; callers run the exact test.
//
// The returned slice is reused by the next query.
func (g *Grid) QueryRect(minX, minZ, maxX, maxZ float64) []uint32 {
	g.scratch = g.scratch[:0]
	g.stamp++
	if g.stamp == 0 {
		clear(g.seen)
		g.stamp = 1
	}

	c0, r0 := g.cellCoords(minX, minZ)
	c1, r1 := g.cellCoords(maxX, maxZ)
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			for _, id := range g.cells[row*g.cols+col] {
				if g.seen[id] == g.stamp {
					continue
				}
				g.seen[id] = g.stamp
				g.scratch = append(g.scratch, id)
			}
		}
	}
	slices.Sort(g.scratch)
	return g.scratch
}

// QueryRadius is QueryRect over the square bounding a circle.
func (g *Grid) QueryRadius(cx, cz, radius float64) []uint32 {
	return g.QueryRect(cx-radius, cz-radius, cx+radius, cz+radius)
}

func (g *Grid) cellCoords(x, z float64) (col, row int) {
	col = clampIndex(int(math.Floor((x+g.halfExtent)*g.invCellSize)), g.cols)
	row = clampIndex(int(math.Floor((z+g.halfExtent)*g.invCellSize)), g.rows)
	return col, row
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// Stats returns grid statistics for debugging/profiling.
func (g *Grid) Stats() GridStats {
	var total, maxInCell, nonEmpty int
	for _, cell := range g.cells {
		count := len(cell)
		total += count
		if count > maxInCell {
			maxInCell = count
		}
		if count > 0 {
			nonEmpty++
		}
	}

	avg := 0.0
	if nonEmpty > 0 {
		avg = float64(total) / float64(nonEmpty)
	}

	return GridStats{
		Cols:           g.cols,
		Rows:           g.rows,
		CellSize:       g.cellSize,
		TotalCells:     len(g.cells),
		NonEmptyCells:  nonEmpty,
		TotalEntries:   total,
		MaxInCell:      maxInCell,
		AvgPerNonEmpty: avg,
	}
}

// GridStats contains grid statistics for debugging.
type GridStats struct {
	Cols, Rows     int
	CellSize       float64
	TotalCells     int
	NonEmptyCells  int
	TotalEntries   int // A box spanning several cells counts once per cell
	MaxInCell      int
	AvgPerNonEmpty float64
}
