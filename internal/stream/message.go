// Package stream publishes the simulation to rendering clients over
// websockets: a full snapshot on join, then one frame of lifecycle events
// per published tick.
package stream

import (
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/thebreadishard/CosmicNetworkSim1/internal/config"
	"github.com/thebreadishard/CosmicNetworkSim1/internal/sim"
	"github.com/thebreadishard/CosmicNetworkSim1/internal/world"
)

const (
	KindSnapshot = "snapshot"
	KindFrame    = "frame"
)

// Event kinds, in the order the engine can emit them within one tick.
const (
	EventStarCreated       = "star_created"
	EventStarActivated     = "star_activated"
	EventStarDeactivated   = "star_deactivated"
	EventStarEmitted       = "star_emitted"
	EventStarObscured      = "star_obscured"
	EventStarDied          = "star_died"
	EventConnectionCreated = "connection_created"
	EventConnectionRemoved = "connection_removed"
)

// Message is the envelope of every binary websocket message.
type Message struct {
	Kind     string    `msgpack:"k"`
	Snapshot *Snapshot `msgpack:"s,omitempty"`
	Frame    *Frame    `msgpack:"f,omitempty"`
}

// Event is one flattened lifecycle event. Star-only events leave Other
// zero; connection events carry both endpoints.
type Event struct {
	Kind      string        `msgpack:"k"`
	Star      uint64        `msgpack:"id"`
	Other     uint64        `msgpack:"o,omitempty"`
	Group     int           `msgpack:"g,omitempty"`
	Pos       [3]float64    `msgpack:"p"`
	At        time.Duration `msgpack:"at,omitempty"`
	Lifetime  float64       `msgpack:"lt,omitempty"`
	Age       float64       `msgpack:"age,omitempty"`
	Obscured  bool          `msgpack:"ob,omitempty"`
	Supernova bool          `msgpack:"sn,omitempty"`
}

type Frame struct {
	Tick   uint64    `msgpack:"tick"`
	Events []Event   `msgpack:"events"`
	Stats  sim.Stats `msgpack:"stats"`
}

type StarView struct {
	ID        uint64     `msgpack:"id"`
	Group     int        `msgpack:"g"`
	Pos       [3]float64 `msgpack:"p"`
	State     string     `msgpack:"st"`
	Obscured  bool       `msgpack:"ob"`
	Intensity float64    `msgpack:"in"`
}

type CloudView struct {
	Pos    [3]float64 `msgpack:"p"`
	Radius float64    `msgpack:"r"`
}

type Snapshot struct {
	Tick        uint64      `msgpack:"tick"`
	Stars       []StarView  `msgpack:"stars"`
	Connections [][2]uint64 `msgpack:"conns"`
	Clouds      []CloudView `msgpack:"clouds"`
	Stats       sim.Stats   `msgpack:"stats"`
}

// Source is the read side of the engine the hub publishes from. It is only
// called from the goroutine driving the engine.
type Source interface {
	Stats() sim.Stats
	Config() config.SimulationConfig
	Stars() []*world.Star
	Connections() []*world.Connection
	Clouds() []*world.DustCloud
}

// BuildSnapshot copies the full visible state of src.
func BuildSnapshot(src Source) *Snapshot {
	cfg := src.Config()
	stats := src.Stats()
	stars := src.Stars()
	conns := src.Connections()
	clouds := src.Clouds()

	snap := &Snapshot{
		Tick:        stats.Ticks,
		Stars:       make([]StarView, 0, len(stars)),
		Connections: make([][2]uint64, 0, len(conns)),
		Clouds:      make([]CloudView, 0, len(clouds)),
		Stats:       stats,
	}
	for _, s := range stars {
		snap.Stars = append(snap.Stars, StarView{
			ID:        uint64(s.ID),
			Group:     s.Group,
			Pos:       s.Position,
			State:     s.State().String(),
			Obscured:  s.Obscured,
			Intensity: s.Intensity(&cfg),
		})
	}
	for _, c := range conns {
		snap.Connections = append(snap.Connections, [2]uint64{uint64(c.A), uint64(c.B)})
	}
	for _, c := range clouds {
		snap.Clouds = append(snap.Clouds, CloudView{Pos: c.Position, Radius: c.Radius})
	}
	return snap
}

func encode(m *Message) ([]byte, error) {
	return msgpack.Marshal(m)
}

// Decode parses one binary websocket message.
func Decode(data []byte) (*Message, error) {
	m := &Message{}
	if err := msgpack.Unmarshal(data, m); err != nil {
		return nil, err
	}
	return m, nil
}
