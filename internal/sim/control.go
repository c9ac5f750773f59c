package sim

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/thebreadishard/CosmicNetworkSim1/internal/core/ecs"
	"github.com/thebreadishard/CosmicNetworkSim1/internal/core/event"
	"github.com/thebreadishard/CosmicNetworkSim1/internal/system"
	"github.com/thebreadishard/CosmicNetworkSim1/internal/world"
)

// Direct manipulation used by scripted scenarios and tooling. Each call
// takes effect immediately; its events are delivered on the next Update.

// SpawnStar places a fresh star of group gi at pos. Pass gi = -1 for a star
// whose group center is the origin.
func (e *Engine) SpawnStar(pos mgl64.Vec3, gi int) ecs.EntityID {
	return system.SpawnStar(e.deps, gi, pos).ID
}

// AddCloud adds a static dust cloud. The cloud index is rebuilt next tick.
func (e *Engine) AddCloud(pos mgl64.Vec3, radius float64) {
	e.deps.World.AddCloud(&world.DustCloud{Position: pos, Radius: radius})
	e.deps.Index.CloudsDirty = true
}

// Activate forces a dormant star active now. It returns false for unknown,
// spent or dead stars.
func (e *Engine) Activate(id ecs.EntityID) bool {
	s := e.deps.World.Star(id)
	if s == nil || !s.Activate(e.deps.Now) {
		return false
	}
	event.Emit(e.bus, event.StarActivated{StarID: id, At: e.deps.Now})
	return true
}

// Kill ends a star's life; it is removed with its connections in the next
// tick's prune phase.
func (e *Engine) Kill(id ecs.EntityID) bool {
	s := e.deps.World.Star(id)
	if s == nil || s.Dead() {
		return false
	}
	s.Kill()
	e.deps.MarkDead(id)
	return true
}

// CreateConnection connects a and b unconditionally. It is idempotent per
// unordered pair: a repeat call is a no-op returning false.
func (e *Engine) CreateConnection(a, b ecs.EntityID) bool {
	sa, sb := e.deps.World.Star(a), e.deps.World.Star(b)
	if sa == nil || sb == nil {
		return false
	}
	dist := sa.Position.Sub(sb.Position).Len()
	if !e.deps.World.AddConnection(a, b, e.deps.Now, dist) {
		return false
	}
	e.deps.Counters.Created++
	event.Emit(e.bus, event.ConnectionCreated{A: a, B: b, At: e.deps.Now})
	return true
}
