package system

import (
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/thebreadishard/CosmicNetworkSim1/internal/config"
	"github.com/thebreadishard/CosmicNetworkSim1/internal/core/ecs"
	"github.com/thebreadishard/CosmicNetworkSim1/internal/core/event"
	"github.com/thebreadishard/CosmicNetworkSim1/internal/galaxy"
	"github.com/thebreadishard/CosmicNetworkSim1/internal/spatial"
	"github.com/thebreadishard/CosmicNetworkSim1/internal/world"
)

// Deps is the state shared by every pipeline system of one engine.
// Owned by the engine, touched only from the tick goroutine.
type Deps struct {
	World *world.State
	Bus   *event.Bus
	Rng   *rand.Rand
	Log   *zap.Logger

	Config *config.SimulationConfig
	Grid   config.GridConfig

	Groups []galaxy.Group
	Placer galaxy.Placer
	// InitialTarget is the population the groups were seeded with.
	InitialTarget int

	// Now is the simulation clock: the sum of every tick's deltaTime.
	Now time.Duration

	// Dying is the deferred destruction queue, flushed by PruneDeadSystem.
	Dying []ecs.EntityID

	Index    Indices
	Counters Counters

	// OnTerminal is called synchronously for every supernova.
	OnTerminal func(event.StarDied)
}

// Indices are the three spatial indices: every live star and active stars
// are rebuilt each tick, clouds only when the static set changes.
type Indices struct {
	Stars  *spatial.Grid[*world.Star]
	Active *spatial.Grid[*world.Star]
	Clouds *spatial.Grid[*world.DustCloud]
	// ActiveList holds active stars in store order for the handshake pass.
	ActiveList  []*world.Star
	CloudsDirty bool
}

// Counters accumulate totals since the engine started.
type Counters struct {
	Births     int
	Deaths     int
	Supernovae int
	Created    int // connections
	Removed    int // connections
}

// MaxGroupRadius is the largest radius among the groups.
func (d *Deps) MaxGroupRadius() float64 {
	m := 0.0
	for i := range d.Groups {
		if d.Groups[i].Radius > m {
			m = d.Groups[i].Radius
		}
	}
	return m
}

// ConnectionDistance is recomputed from the current config and groups on
// every call.
func (d *Deps) ConnectionDistance() float64 {
	return d.Config.ConnectionDistance(d.MaxGroupRadius())
}

// MarkDead queues a star for removal in the next prune pass.
func (d *Deps) MarkDead(id ecs.EntityID) {
	d.Dying = append(d.Dying, id)
}
