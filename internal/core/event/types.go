package event

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/thebreadishard/CosmicNetworkSim1/internal/core/ecs"
)

// Lifecycle events consumed by the rendering adapter. The engine emits them
// in dependency order: a ConnectionRemoved always precedes the StarDied of
// either endpoint.

type StarCreated struct {
	StarID   ecs.EntityID
	Group    int
	Position mgl64.Vec3
	Lifetime float64
}

type StarActivated struct {
	StarID ecs.EntityID
	At     time.Duration
}

type StarDeactivated struct {
	StarID ecs.EntityID
	At     time.Duration
}

type StarDied struct {
	StarID    ecs.EntityID
	Age       float64
	Supernova bool
}

// StarEmitted marks a consumed emission pulse.
type StarEmitted struct {
	StarID ecs.EntityID
}

// StarObscured fires when a star's obscured flag flips.
type StarObscured struct {
	StarID   ecs.EntityID
	Obscured bool
}

type ConnectionCreated struct {
	A, B ecs.EntityID
	At   time.Duration
}

type ConnectionRemoved struct {
	A, B ecs.EntityID
}
