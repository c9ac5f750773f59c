package stream

import (
	"sync"

	"go.uber.org/zap"

	"github.com/thebreadishard/CosmicNetworkSim1/internal/config"
	"github.com/thebreadishard/CosmicNetworkSim1/internal/core/event"
	"github.com/thebreadishard/CosmicNetworkSim1/internal/sim"
)

const (
	maxConnsPerIP = 8
	maxTotalConns = 256
)

// Hub fans engine frames out to every connected viewer. Publish is called
// from the engine goroutine after each Update; HTTP handlers only add and
// remove clients.
type Hub struct {
	cfg       config.StreamConfig
	log       *zap.Logger
	collector *Collector

	mu      sync.Mutex
	clients map[*Client]struct{}
	ipConns map[string]int
	last    sim.Stats
}

func NewHub(cfg config.StreamConfig, bus *event.Bus, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 64
	}
	return &Hub{
		cfg:       cfg,
		log:       log,
		collector: NewCollector(bus),
		clients:   make(map[*Client]struct{}),
		ipConns:   make(map[string]int),
	}
}

// accept registers c unless the per-address or total limit is reached.
func (h *Hub) accept(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.clients) >= maxTotalConns || h.ipConns[c.remoteAddr] >= maxConnsPerIP {
		return false
	}
	h.clients[c] = struct{}{}
	h.ipConns[c.remoteAddr]++
	return true
}

func (h *Hub) canAccept(ip string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients) < maxTotalConns && h.ipConns[ip] < maxConnsPerIP
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.ipConns[c.remoteAddr]--
	if h.ipConns[c.remoteAddr] <= 0 {
		delete(h.ipConns, c.remoteAddr)
	}
	h.log.Info("viewer disconnected", zap.String("remote", c.remoteAddr), zap.Int("viewers", len(h.clients)))
}

// ClientCount returns the number of connected viewers.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// LastStats returns the stats of the last publish.
func (h *Hub) LastStats() sim.Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last
}

// Publish sends the events collected since the previous call. Viewers that
// just joined or fell behind get a snapshot of src instead, which already
// reflects those events. Viewers over their frame budget keep the events
// for their next frame.
func (h *Hub) Publish(src Source) {
	events := h.collector.Drain()
	stats := src.Stats()

	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = stats

	var (
		snapshot []byte
		shared   []byte
	)
	for c := range h.clients {
		if c.resync {
			if snapshot == nil {
				snapshot = h.encode(&Message{Kind: KindSnapshot, Snapshot: BuildSnapshot(src)})
			}
			if snapshot != nil && c.offer(snapshot) {
				c.resync = false
				c.backlog = nil
			}
			continue
		}

		if !c.limiter.Allow() {
			c.backlog = append(c.backlog, events...)
			continue
		}
		if len(c.backlog) == 0 {
			if shared == nil {
				shared = h.encode(&Message{Kind: KindFrame, Frame: &Frame{Tick: stats.Ticks, Events: events, Stats: stats}})
			}
			if shared != nil {
				c.offer(shared)
			}
			continue
		}
		merged := append(c.backlog, events...)
		if data := h.encode(&Message{Kind: KindFrame, Frame: &Frame{Tick: stats.Ticks, Events: merged, Stats: stats}}); data != nil {
			if c.offer(data) {
				c.backlog = nil
			}
		}
	}
}

func (h *Hub) encode(m *Message) []byte {
	data, err := encode(m)
	if err != nil {
		h.log.Error("encode stream message", zap.String("kind", m.Kind), zap.Error(err))
		return nil
	}
	return data
}

// Close disconnects every viewer.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	h.ipConns = make(map[string]int)
}
