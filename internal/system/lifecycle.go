package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/thebreadishard/CosmicNetworkSim1/internal/core/event"
	coresys "github.com/thebreadishard/CosmicNetworkSim1/internal/core/system"
	"github.com/thebreadishard/CosmicNetworkSim1/internal/world"
)

// LifecycleSystem ages every star and applies its state transitions.
// Dead stars are queued for PruneDeadSystem. Phase 0 (Lifecycle).
type LifecycleSystem struct {
	deps *Deps
}

func NewLifecycleSystem(deps *Deps) *LifecycleSystem {
	return &LifecycleSystem{deps: deps}
}

func (s *LifecycleSystem) Phase() coresys.Phase { return coresys.PhaseLifecycle }

func (s *LifecycleSystem) Update(dt time.Duration) {
	d := s.deps
	secs := dt.Seconds()
	d.World.EachStar(func(star *world.Star) {
		if star.Dead() {
			return // killed externally, already queued
		}
		switch star.Update(secs, d.Now, d.Config, d.Rng) {
		case world.TransitionActivated:
			event.Emit(d.Bus, event.StarActivated{StarID: star.ID, At: d.Now})
			d.Log.Debug("star activated", zap.Uint64("star", uint64(star.ID)))
		case world.TransitionDeactivated:
			event.Emit(d.Bus, event.StarDeactivated{StarID: star.ID, At: d.Now})
			d.Log.Debug("star deactivated", zap.Uint64("star", uint64(star.ID)))
		case world.TransitionDied:
			d.MarkDead(star.ID)
			return
		}
		if star.TakeEmission() {
			event.Emit(d.Bus, event.StarEmitted{StarID: star.ID})
		}
	})
}
