package spatial

import (
	"sort"
)

// SweepAndPrune finds pairs of bodies whose X intervals overlap. Bodies move
// little between ticks, so the endpoint list stays nearly sorted and
// insertion sort keeps the pass close to linear.
type SweepAndPrune struct {
	endpoints []Endpoint
	pairs     []Pair
	active    []uint32
}

// Endpoint is one end of a body's interval on the sweep axis.
type Endpoint struct {
	Value float64
	ID    uint32
	IsMin bool
}

// Pair is two bodies whose intervals overlap. A < B always holds, so pair
// order is independent of sweep order.
type Pair struct {
	A, B uint32
}

// Circle is a body's bounding circle on the XZ plane.
type Circle struct {
	X, Z, Radius float64
}

// NewSweepAndPrune preallocates buffers for maxBodies.
func NewSweepAndPrune(maxBodies int) *SweepAndPrune {
	return &SweepAndPrune{
		endpoints: make([]Endpoint, 0, maxBodies*2),
		pairs:     make([]Pair, 0, maxBodies),
		active:    make([]uint32, 0, maxBodies/4+1),
	}
}

// Update rebuilds the endpoints from bounding circles and returns candidate
// pairs whose X intervals and Z intervals both overlap, sorted by (A, B).
// The returned slice is reused on the next call.
func (s *SweepAndPrune) Update(bodies []Circle) []Pair {
	s.pairs = s.pairs[:0]
	s.endpoints = s.endpoints[:0]

	for i, b := range bodies {
		s.endpoints = append(s.endpoints,
			Endpoint{b.X - b.Radius, uint32(i), true},
			Endpoint{b.X + b.Radius, uint32(i), false},
		)
	}

	insertionSortEndpoints(s.endpoints)

	s.active = s.active[:0]
	for _, ep := range s.endpoints {
		if ep.IsMin {
			for _, other := range s.active {
				if !zOverlap(bodies[ep.ID], bodies[other]) {
					continue
				}
				a, b := ep.ID, other
				if a > b {
					a, b = b, a
				}
				s.pairs = append(s.pairs, Pair{a, b})
			}
			s.active = append(s.active, ep.ID)
			continue
		}
		for i, id := range s.active {
			if id == ep.ID {
				s.active[i] = s.active[len(s.active)-1]
				s.active = s.active[:len(s.active)-1]
				break
			}
		}
	}

	sort.Slice(s.pairs, func(i, j int) bool {
		if s.pairs[i].A != s.pairs[j].A {
			return s.pairs[i].A < s.pairs[j].A
		}
		return s.pairs[i].B < s.pairs[j].B
	})
	return s.pairs
}

func zOverlap(a, b Circle) bool {
	return a.Z-a.Radius <= b.Z+b.Radius && b.Z-b.Radius <= a.Z+a.Radius
}

// endpointLess orders min endpoints before max endpoints at equal values so
// touching intervals are reported.
func endpointLess(a, b Endpoint) bool {
	if a.Value != b.Value {
		return a.Value < b.Value
	}
	return a.IsMin && !b.IsMin
}

func insertionSortEndpoints(eps []Endpoint) {
	for i := 1; i < len(eps); i++ {
		key := eps[i]
		j := i - 1
		for j >= 0 && endpointLess(key, eps[j]) {
			eps[j+1] = eps[j]
			j--
		}
		eps[j+1] = key
	}
}
