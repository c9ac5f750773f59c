package spatial

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

type point struct {
	id  int
	pos mgl64.Vec3
}

func randomPoints(rng *rand.Rand, n int, extent float64) []point {
	pts := make([]point, n)
	for i := range pts {
		pts[i] = point{id: i, pos: mgl64.Vec3{
			(rng.Float64()*2 - 1) * extent,
			(rng.Float64()*2 - 1) * extent,
			(rng.Float64()*2 - 1) * extent,
		}}
	}
	return pts
}

func exactWithin(candidates []point, q mgl64.Vec3, r float64) []int {
	var ids []int
	seen := make(map[int]bool)
	for _, p := range candidates {
		if seen[p.id] {
			continue
		}
		if p.pos.Sub(q).Len() <= r {
			ids = append(ids, p.id)
			seen[p.id] = true
		}
	}
	sort.Ints(ids)
	return ids
}

func TestGridRadiusQueryMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	cases := []struct {
		name     string
		cellSize float64
		radius   float64
	}{
		{"cell twice radius", 20, 10},
		{"cell equals radius", 10, 10},
		{"cell smaller than radius", 3, 10},
		{"tiny cells fall back to bucket walk", 0.5, 40},
	}
	pts := randomPoints(rng, 2000, 100)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := NewGrid[point](tc.cellSize)
			for _, p := range pts {
				g.Insert(p.pos, p)
			}
			if g.Count() != len(pts) {
				t.Fatalf("count = %d, want %d", g.Count(), len(pts))
			}
			for q := 0; q < 50; q++ {
				query := randomPoints(rng, 1, 110)[0].pos
				got := exactWithin(g.QueryRadius(query, tc.radius), query, tc.radius)
				want := exactWithin(pts, query, tc.radius)
				if len(got) != len(want) {
					t.Fatalf("query %v: got %d items, brute force %d", query, len(got), len(want))
				}
				for i := range want {
					if got[i] != want[i] {
						t.Fatalf("query %v: mismatch at %d: %d vs %d", query, i, got[i], want[i])
					}
				}
			}
		})
	}
}

func TestGridNegativeCoordinatesFloor(t *testing.T) {
	g := NewGrid[int](10)
	if c := g.CellOf(mgl64.Vec3{-0.5, 9.99, -10}); c != (Cell{X: -1, Y: 0, Z: -1}) {
		t.Fatalf("CellOf = %+v", c)
	}
	g.Insert(mgl64.Vec3{-1, 0, 0}, 1)
	g.Insert(mgl64.Vec3{1, 0, 0}, 2)
	if got := g.QueryCell(mgl64.Vec3{-5, 5, 5}); len(got) != 1 || got[0] != 1 {
		t.Fatalf("QueryCell = %v", got)
	}
	if got := g.QueryRadius(mgl64.Vec3{-1, 0, 0}, 2); len(got) != 2 {
		t.Fatalf("radius query across origin = %v", got)
	}
}

func TestGridClearThenReinsertIsIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	pts := randomPoints(rng, 300, 50)
	g := NewGrid[point](8)
	for _, p := range pts {
		g.Insert(p.pos, p)
	}
	q := mgl64.Vec3{3, -2, 1}
	before := exactWithin(g.QueryRadius(q, 15), q, 15)

	g.Clear()
	if g.Count() != 0 || g.Cells() != 0 {
		t.Fatal("clear left items behind")
	}
	if got := g.QueryRadius(q, 15); len(got) != 0 {
		t.Fatalf("query on empty grid returned %d items", len(got))
	}
	for _, p := range pts {
		g.Insert(p.pos, p)
	}
	after := exactWithin(g.QueryRadius(q, 15), q, 15)
	if len(before) != len(after) {
		t.Fatalf("before %d, after %d", len(before), len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("mismatch at %d", i)
		}
	}
}

func TestGridDegenerateInputs(t *testing.T) {
	g := NewGrid[int](0)
	if g.CellSize() != 1 {
		t.Fatalf("cell size fallback = %v", g.CellSize())
	}
	g.Insert(mgl64.Vec3{}, 1)
	if got := g.QueryRadius(mgl64.Vec3{}, -1); len(got) != 0 {
		t.Fatal("negative radius should return nothing")
	}
	if got := g.QueryRadius(mgl64.Vec3{}, 0); len(got) != 1 {
		t.Fatal("zero radius should still scan the query cell")
	}
	if got := g.QueryCell(mgl64.Vec3{5, 5, 5}); got != nil {
		t.Fatal("empty cell should return nil")
	}
}

func TestGridHugeRadiusReturnsEverything(t *testing.T) {
	g := NewGrid[int](1)
	g.Insert(mgl64.Vec3{0, 0, 0}, 1)
	g.Insert(mgl64.Vec3{5, 0, 0}, 2)
	g.Insert(mgl64.Vec3{-300, 40, 9}, 3)

	for _, r := range []float64{1e6, 1e19, 1e20, math.MaxFloat64, math.Inf(1)} {
		got := g.QueryRadius(mgl64.Vec3{}, r)
		sort.Ints(got)
		if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
			t.Fatalf("radius %g: got %v, want [1 2 3]", r, got)
		}
	}

	tiny := NewGrid[int](1e-20)
	tiny.Insert(mgl64.Vec3{0, 0, 0}, 1)
	tiny.Insert(mgl64.Vec3{10, 0, 0}, 2)
	if got := tiny.QueryRadius(mgl64.Vec3{}, 20); len(got) != 2 {
		t.Fatalf("tiny cells: got %v, want both items", got)
	}
}
