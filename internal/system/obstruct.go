package system

import (
	"time"

	"github.com/thebreadishard/CosmicNetworkSim1/internal/core/event"
	coresys "github.com/thebreadishard/CosmicNetworkSim1/internal/core/system"
	"github.com/thebreadishard/CosmicNetworkSim1/internal/world"
)

// ObstructionSystem marks stars lying within a dust cloud's radius in the
// disk plane as obscured, and clears the mark otherwise. Phase 6 (Obstruct).
type ObstructionSystem struct {
	deps *Deps
	buf  []*world.DustCloud
}

func NewObstructionSystem(deps *Deps) *ObstructionSystem {
	return &ObstructionSystem{deps: deps}
}

func (s *ObstructionSystem) Phase() coresys.Phase { return coresys.PhaseObstruct }

func (s *ObstructionSystem) Update(_ time.Duration) {
	d := s.deps
	grid := d.Index.Clouds
	reach := d.World.MaxCloudRadius()
	d.World.EachStar(func(star *world.Star) {
		obscured := false
		if grid != nil && grid.Count() > 0 {
			s.buf = grid.QueryRadiusBuf(star.Position, reach, s.buf[:0])
			for _, c := range s.buf {
				if c.CoversPlanar(star.Position) {
					obscured = true
					break
				}
			}
		}
		if obscured != star.Obscured {
			star.Obscured = obscured
			event.Emit(d.Bus, event.StarObscured{StarID: star.ID, Obscured: obscured})
		}
	})
}

// EmitSystem delivers the tick's lifecycle events. Phase 7 (Emit).
type EmitSystem struct {
	deps *Deps
}

func NewEmitSystem(deps *Deps) *EmitSystem {
	return &EmitSystem{deps: deps}
}

func (s *EmitSystem) Phase() coresys.Phase { return coresys.PhaseEmit }

func (s *EmitSystem) Update(_ time.Duration) {
	s.deps.Bus.Flush()
}
