package system

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/thebreadishard/CosmicNetworkSim1/internal/core/event"
	coresys "github.com/thebreadishard/CosmicNetworkSim1/internal/core/system"
	"github.com/thebreadishard/CosmicNetworkSim1/internal/world"
)

// HandshakeSystem forms connections between active stars. A pair connects
// once both have been active for the round trip 2*distance/speed, the
// distance is within the connection range, and no dust cloud blocks the
// line between them. Phase 4 (Connect).
type HandshakeSystem struct {
	deps   *Deps
	seen   map[world.PairKey]struct{}
	buf    []*world.Star
	clouds []*world.DustCloud
}

func NewHandshakeSystem(deps *Deps) *HandshakeSystem {
	return &HandshakeSystem{
		deps: deps,
		seen: make(map[world.PairKey]struct{}, 1024),
	}
}

func (s *HandshakeSystem) Phase() coresys.Phase { return coresys.PhaseConnect }

func (s *HandshakeSystem) Update(_ time.Duration) {
	d := s.deps
	if d.Index.Active == nil || len(d.Index.ActiveList) < 2 {
		return
	}
	maxDist := d.ConnectionDistance()
	speed := d.Config.PropagationSpeed
	clear(s.seen)

	for _, a := range d.Index.ActiveList {
		s.buf = d.Index.Active.QueryRadiusBuf(a.Position, maxDist, s.buf[:0])
		for _, b := range s.buf {
			if b == a {
				continue
			}
			k := world.MakePairKey(a.ID, b.ID)
			if _, dup := s.seen[k]; dup {
				continue
			}
			s.seen[k] = struct{}{}

			if d.World.Connected(a.ID, b.ID) {
				continue
			}
			dist := a.Position.Sub(b.Position).Len()
			if dist > maxDist {
				continue
			}
			required := 2 * dist / speed
			if a.ActiveFor(d.Now).Seconds() < required || b.ActiveFor(d.Now).Seconds() < required {
				continue
			}
			if s.Obstructed(a.Position, b.Position) {
				continue
			}
			if d.World.AddConnection(a.ID, b.ID, d.Now, dist) {
				d.Counters.Created++
				event.Emit(d.Bus, event.ConnectionCreated{A: a.ID, B: b.ID, At: d.Now})
				d.Log.Debug("connection formed",
					zap.Uint64("a", uint64(a.ID)),
					zap.Uint64("b", uint64(b.ID)),
					zap.Float64("distance", dist),
				)
			}
		}
	}
}

// Obstructed reports whether either endpoint sits inside a dust cloud or
// the segment between them crosses one. Only clouds near the segment are
// tested, found through the cloud grid.
func (s *HandshakeSystem) Obstructed(a, b mgl64.Vec3) bool {
	d := s.deps
	if d.Index.Clouds == nil || d.Index.Clouds.Count() == 0 {
		return false
	}
	mid := a.Add(b).Mul(0.5)
	reach := b.Sub(a).Len()/2 + d.World.MaxCloudRadius()
	s.clouds = d.Index.Clouds.QueryRadiusBuf(mid, reach, s.clouds[:0])
	for _, c := range s.clouds {
		if c.Contains(a) || c.Contains(b) || c.IntersectsSegment(a, b) {
			return true
		}
	}
	return false
}
