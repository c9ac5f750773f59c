package world

import (
	"time"

	"github.com/thebreadishard/CosmicNetworkSim1/internal/core/ecs"
)

// State owns every star, dust cloud, and connection of one engine.
// Accessed only from the tick goroutine, no locks.
type State struct {
	pool        *ecs.EntityPool
	stars       *ecs.Store[ecs.EntityID, Star]
	clouds      []*DustCloud
	connections *ecs.Store[PairKey, Connection]
	// star id -> keys of its connections
	links map[ecs.EntityID][]PairKey

	maxCloudRadius float64
}

func NewState() *State {
	return &State{
		pool:        ecs.NewEntityPool(),
		stars:       ecs.NewStore[ecs.EntityID, Star](1024),
		connections: ecs.NewStore[PairKey, Connection](1024),
		links:       make(map[ecs.EntityID][]PairKey, 1024),
	}
}

// ---------- stars ----------

// AddStar assigns a fresh id to s and registers it.
func (st *State) AddStar(s *Star) ecs.EntityID {
	s.ID = st.pool.Create()
	st.stars.Set(s.ID, s)
	return s.ID
}

func (st *State) Star(id ecs.EntityID) *Star {
	s, _ := st.stars.Get(id)
	return s
}

// RemoveStar drops a star. Its connections must already be removed; any
// left over are dropped silently so no edge outlives its endpoint.
func (st *State) RemoveStar(id ecs.EntityID) bool {
	if !st.stars.Remove(id) {
		return false
	}
	for _, k := range st.links[id] {
		st.removeConnection(k)
	}
	delete(st.links, id)
	st.pool.Destroy(id)
	return true
}

// EachStar visits stars in store order. fn must not add or remove stars.
func (st *State) EachStar(fn func(*Star)) {
	st.stars.Each(func(_ ecs.EntityID, s *Star) { fn(s) })
}

// Stars returns a snapshot slice of the live stars.
func (st *State) Stars() []*Star { return st.stars.Items() }

func (st *State) StarCount() int { return st.stars.Len() }

// ---------- clouds ----------

func (st *State) AddCloud(c *DustCloud) {
	st.clouds = append(st.clouds, c)
	if c.Radius > st.maxCloudRadius {
		st.maxCloudRadius = c.Radius
	}
}

func (st *State) Clouds() []*DustCloud { return st.clouds }

func (st *State) MaxCloudRadius() float64 { return st.maxCloudRadius }

// ---------- connections ----------

// AddConnection creates the connection a-b. It is a no-op returning false
// when the pair is already connected, a == b, or either star is unknown.
func (st *State) AddConnection(a, b ecs.EntityID, now time.Duration, dist float64) bool {
	if a == b || !st.stars.Has(a) || !st.stars.Has(b) {
		return false
	}
	k := MakePairKey(a, b)
	if st.connections.Has(k) {
		return false
	}
	st.connections.Set(k, &Connection{A: a, B: b, CreatedAt: now, Distance: dist})
	st.links[a] = append(st.links[a], k)
	st.links[b] = append(st.links[b], k)
	return true
}

func (st *State) Connected(a, b ecs.EntityID) bool {
	return st.connections.Has(MakePairKey(a, b))
}

func (st *State) Connection(k PairKey) *Connection {
	c, _ := st.connections.Get(k)
	return c
}

// RemoveConnection deletes the connection for k and unlinks both endpoints.
func (st *State) RemoveConnection(k PairKey) bool {
	return st.removeConnection(k)
}

func (st *State) removeConnection(k PairKey) bool {
	if !st.connections.Remove(k) {
		return false
	}
	st.unlink(k.Lo, k)
	st.unlink(k.Hi, k)
	return true
}

func (st *State) unlink(id ecs.EntityID, k PairKey) {
	keys := st.links[id]
	for i, kk := range keys {
		if kk == k {
			last := len(keys) - 1
			keys[i] = keys[last]
			keys = keys[:last]
			break
		}
	}
	if len(keys) == 0 {
		delete(st.links, id)
		return
	}
	st.links[id] = keys
}

// LinksOf returns a copy of the connection keys touching id.
func (st *State) LinksOf(id ecs.EntityID) []PairKey {
	keys := st.links[id]
	if len(keys) == 0 {
		return nil
	}
	out := make([]PairKey, len(keys))
	copy(out, keys)
	return out
}

// EachConnection visits connections in store order. fn must not mutate.
func (st *State) EachConnection(fn func(*Connection)) {
	st.connections.Each(func(_ PairKey, c *Connection) { fn(c) })
}

func (st *State) Connections() []*Connection { return st.connections.Items() }

func (st *State) ConnectionCount() int { return st.connections.Len() }
