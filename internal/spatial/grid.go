// Package spatial provides the uniform-grid index used for every proximity
// query in the simulation.
package spatial

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Cell is a quantized 3D grid coordinate.
type Cell struct {
	X, Y, Z int32
}

// Grid maps positions to buckets of items by flooring each axis over the
// cell size. Queries return candidates: callers refine with an exact
// distance check. Accessed only from the tick goroutine, no locks.
//
// Choose the cell size near the typical query radius (about 2x an
// interaction radius, the largest cloud radius, or the connection distance)
// so a radius query touches O(1) cells.
type Grid[T any] struct {
	cellSize float64
	inv      float64
	cells    map[Cell][]T
	count    int
}

// NewGrid creates an empty grid. Non-positive cell sizes fall back to 1.
func NewGrid[T any](cellSize float64) *Grid[T] {
	if !(cellSize > 0) || math.IsInf(cellSize, 0) {
		cellSize = 1
	}
	return &Grid[T]{
		cellSize: cellSize,
		inv:      1 / cellSize,
		cells:    make(map[Cell][]T),
	}
}

func (g *Grid[T]) CellSize() float64 { return g.cellSize }

// CellOf returns the cell containing p.
func (g *Grid[T]) CellOf(p mgl64.Vec3) Cell {
	return Cell{
		X: toCellCoord(p[0] * g.inv),
		Y: toCellCoord(p[1] * g.inv),
		Z: toCellCoord(p[2] * g.inv),
	}
}

func toCellCoord(v float64) int32 {
	f := math.Floor(v)
	switch {
	case f > math.MaxInt32:
		return math.MaxInt32
	case f < math.MinInt32:
		return math.MinInt32
	}
	return int32(f)
}

// Insert appends item to the bucket of p's cell.
func (g *Grid[T]) Insert(p mgl64.Vec3, item T) {
	c := g.CellOf(p)
	g.cells[c] = append(g.cells[c], item)
	g.count++
}

// QueryCell returns the items sharing p's cell exactly. Neighbours across
// a cell boundary are not reported.
func (g *Grid[T]) QueryCell(p mgl64.Vec3) []T {
	bucket := g.cells[g.CellOf(p)]
	if len(bucket) == 0 {
		return nil
	}
	out := make([]T, len(bucket))
	copy(out, bucket)
	return out
}

// QueryRadius returns every item in cells within ceil(radius/cellSize) cells
// of p's cell on all three axes. The result never misses an item within
// radius of p; it may include items farther away.
func (g *Grid[T]) QueryRadius(p mgl64.Vec3, radius float64) []T {
	return g.QueryRadiusBuf(p, radius, nil)
}

// QueryRadiusBuf appends the QueryRadius candidates to buf and returns the
// extended slice, avoiding per-call allocation.
func (g *Grid[T]) QueryRadiusBuf(p mgl64.Vec3, radius float64, buf []T) []T {
	if g.count == 0 || radius < 0 || math.IsNaN(radius) {
		return buf
	}
	c := g.CellOf(p)
	f := math.Ceil(radius * g.inv)
	// Past this many cells it is cheaper to walk the occupied buckets.
	// Spans too wide for int64 are unbounded.
	if !(f <= 64) || math.Pow(2*f+1, 3) > float64(len(g.cells)) {
		span := int64(math.MaxInt64)
		if f <= 64 {
			span = int64(f)
		}
		for k, bucket := range g.cells {
			if within(k.X, c.X, span) && within(k.Y, c.Y, span) && within(k.Z, c.Z, span) {
				buf = append(buf, bucket...)
			}
		}
		return buf
	}
	span := int64(f)
	s := int32(span)
	for dx := -s; dx <= s; dx++ {
		for dy := -s; dy <= s; dy++ {
			for dz := -s; dz <= s; dz++ {
				bucket := g.cells[Cell{X: c.X + dx, Y: c.Y + dy, Z: c.Z + dz}]
				buf = append(buf, bucket...)
			}
		}
	}
	return buf
}

func within(a, b int32, span int64) bool {
	d := int64(a) - int64(b)
	return d >= -span && d <= span
}

// Clear removes every bucket.
func (g *Grid[T]) Clear() {
	clear(g.cells)
	g.count = 0
}

// Count returns the number of items across all buckets.
func (g *Grid[T]) Count() int { return g.count }

// Cells returns the number of occupied buckets.
func (g *Grid[T]) Cells() int { return len(g.cells) }
