package system

import (
	"time"

	coresys "github.com/thebreadishard/CosmicNetworkSim1/internal/core/system"
	"github.com/thebreadishard/CosmicNetworkSim1/internal/spatial"
	"github.com/thebreadishard/CosmicNetworkSim1/internal/world"
)

// IndexSystem rebuilds the star and active-star grids from scratch every
// tick, and the cloud grid when the cloud set or its cell size changed.
// The grids are read-only for the rest of the tick. Phase 3 (Index).
type IndexSystem struct {
	deps *Deps
}

func NewIndexSystem(deps *Deps) *IndexSystem {
	return &IndexSystem{deps: deps}
}

func (s *IndexSystem) Phase() coresys.Phase { return coresys.PhaseIndex }

func (s *IndexSystem) Update(_ time.Duration) {
	d := s.deps
	ix := &d.Index
	connCell, cloudCell := d.Grid.CellSizes(d.ConnectionDistance(), d.World.MaxCloudRadius())

	ix.Stars = resetGrid(ix.Stars, connCell)
	ix.Active = resetGrid(ix.Active, connCell)
	ix.ActiveList = ix.ActiveList[:0]
	d.World.EachStar(func(star *world.Star) {
		ix.Stars.Insert(star.Position, star)
		if star.Active() {
			ix.Active.Insert(star.Position, star)
			ix.ActiveList = append(ix.ActiveList, star)
		}
	})

	if ix.Clouds == nil || ix.CloudsDirty || ix.Clouds.CellSize() != cloudCell {
		ix.Clouds = spatial.NewGrid[*world.DustCloud](cloudCell)
		for _, c := range d.World.Clouds() {
			ix.Clouds.Insert(c.Position, c)
		}
		ix.CloudsDirty = false
	}
}

// resetGrid clears g, or replaces it when the cell size has changed.
func resetGrid[T any](g *spatial.Grid[T], cell float64) *spatial.Grid[T] {
	if g == nil || g.CellSize() != cell {
		return spatial.NewGrid[T](cell)
	}
	g.Clear()
	return g
}
