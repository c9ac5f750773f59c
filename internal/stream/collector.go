package stream

import (
	"github.com/thebreadishard/CosmicNetworkSim1/internal/core/event"
)

// Collector subscribes to the engine bus and keeps the events delivered
// since the last Drain, in delivery order.
type Collector struct {
	events []Event
}

func NewCollector(bus *event.Bus) *Collector {
	c := &Collector{}
	event.Subscribe(bus, func(ev event.StarCreated) {
		c.add(Event{
			Kind:     EventStarCreated,
			Star:     uint64(ev.StarID),
			Group:    ev.Group,
			Pos:      ev.Position,
			Lifetime: ev.Lifetime,
		})
	})
	event.Subscribe(bus, func(ev event.StarActivated) {
		c.add(Event{Kind: EventStarActivated, Star: uint64(ev.StarID), At: ev.At})
	})
	event.Subscribe(bus, func(ev event.StarDeactivated) {
		c.add(Event{Kind: EventStarDeactivated, Star: uint64(ev.StarID), At: ev.At})
	})
	event.Subscribe(bus, func(ev event.StarEmitted) {
		c.add(Event{Kind: EventStarEmitted, Star: uint64(ev.StarID)})
	})
	event.Subscribe(bus, func(ev event.StarObscured) {
		c.add(Event{Kind: EventStarObscured, Star: uint64(ev.StarID), Obscured: ev.Obscured})
	})
	event.Subscribe(bus, func(ev event.StarDied) {
		c.add(Event{Kind: EventStarDied, Star: uint64(ev.StarID), Age: ev.Age, Supernova: ev.Supernova})
	})
	event.Subscribe(bus, func(ev event.ConnectionCreated) {
		c.add(Event{Kind: EventConnectionCreated, Star: uint64(ev.A), Other: uint64(ev.B), At: ev.At})
	})
	event.Subscribe(bus, func(ev event.ConnectionRemoved) {
		c.add(Event{Kind: EventConnectionRemoved, Star: uint64(ev.A), Other: uint64(ev.B)})
	})
	return c
}

func (c *Collector) add(ev Event) { c.events = append(c.events, ev) }

// Drain returns the collected events and starts a new batch.
func (c *Collector) Drain() []Event {
	out := c.events
	c.events = nil
	return out
}

func (c *Collector) Len() int { return len(c.events) }
