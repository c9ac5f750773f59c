package world

import (
	"time"

	"github.com/thebreadishard/CosmicNetworkSim1/internal/core/ecs"
)

// PairKey identifies an unordered star pair: Lo < Hi always.
type PairKey struct {
	Lo, Hi ecs.EntityID
}

// MakePairKey orders a and b so (a,b) and (b,a) share a key.
func MakePairKey(a, b ecs.EntityID) PairKey {
	if a > b {
		a, b = b, a
	}
	return PairKey{Lo: a, Hi: b}
}

// Connection is an edge between two stars. A and B keep the order the pair
// was created in; identity is the unordered Key.
type Connection struct {
	A, B      ecs.EntityID
	CreatedAt time.Duration
	Distance  float64
}

func (c *Connection) Key() PairKey { return MakePairKey(c.A, c.B) }

// Other returns the endpoint opposite id.
func (c *Connection) Other(id ecs.EntityID) ecs.EntityID {
	if c.A == id {
		return c.B
	}
	return c.A
}
