package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/thebreadishard/CosmicNetworkSim1/internal/core/ecs"
	"github.com/thebreadishard/CosmicNetworkSim1/internal/core/event"
	coresys "github.com/thebreadishard/CosmicNetworkSim1/internal/core/system"
	"github.com/thebreadishard/CosmicNetworkSim1/internal/world"
)

// PruneDeadSystem flushes the deferred destruction queue: each dead star's
// connections are removed first, then the star itself.
// Phase 1 (PruneDead).
type PruneDeadSystem struct {
	deps *Deps
}

func NewPruneDeadSystem(deps *Deps) *PruneDeadSystem {
	return &PruneDeadSystem{deps: deps}
}

func (s *PruneDeadSystem) Phase() coresys.Phase { return coresys.PhasePruneDead }

func (s *PruneDeadSystem) Update(_ time.Duration) {
	d := s.deps
	for _, id := range d.Dying {
		star := d.World.Star(id)
		if star == nil {
			continue // already removed
		}
		removeLinks(d, id)

		died := event.StarDied{StarID: id, Age: star.Age}
		if d.Rng.Float64() < d.Config.SupernovaChance {
			died.Supernova = true
			d.Counters.Supernovae++
			d.Log.Info("supernova",
				zap.Uint64("star", uint64(id)),
				zap.Int("group", star.Group),
				zap.Float64("age", star.Age),
			)
			if d.OnTerminal != nil {
				d.OnTerminal(died)
			}
		}
		d.World.RemoveStar(id)
		d.Counters.Deaths++
		event.Emit(d.Bus, died)
	}
	d.Dying = d.Dying[:0]
}

// removeLinks drops every connection touching id, emitting a removal for each.
func removeLinks(d *Deps, id ecs.EntityID) {
	for _, k := range d.World.LinksOf(id) {
		if d.World.RemoveConnection(k) {
			d.Counters.Removed++
			event.Emit(d.Bus, event.ConnectionRemoved{A: k.Lo, B: k.Hi})
		}
	}
}

// PruneInvalidSystem removes connections whose endpoints are no longer both
// active. Phase 5 (PruneInvalid).
type PruneInvalidSystem struct {
	deps  *Deps
	stale []world.PairKey
}

func NewPruneInvalidSystem(deps *Deps) *PruneInvalidSystem {
	return &PruneInvalidSystem{deps: deps}
}

func (s *PruneInvalidSystem) Phase() coresys.Phase { return coresys.PhasePruneInvalid }

func (s *PruneInvalidSystem) Update(_ time.Duration) {
	d := s.deps
	s.stale = s.stale[:0]
	d.World.EachConnection(func(c *world.Connection) {
		a, b := d.World.Star(c.A), d.World.Star(c.B)
		if a == nil || b == nil || !a.Active() || !b.Active() {
			s.stale = append(s.stale, c.Key())
		}
	})
	for _, k := range s.stale {
		if d.World.RemoveConnection(k) {
			d.Counters.Removed++
			event.Emit(d.Bus, event.ConnectionRemoved{A: k.Lo, B: k.Hi})
		}
	}
}
