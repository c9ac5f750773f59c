package ecs

import "fmt"

// EntityID packs a slot index (low 32 bits) and the slot's generation (high
// 32 bits). The zero id never names a live entity.
type EntityID uint64

func NewEntityID(index uint32, generation uint32) EntityID {
	return EntityID(uint64(generation)<<32 | uint64(index))
}

func (id EntityID) Index() uint32      { return uint32(id) }
func (id EntityID) Generation() uint32 { return uint32(id >> 32) }
func (id EntityID) IsZero() bool       { return id == 0 }

func (id EntityID) String() string {
	return fmt.Sprintf("%d#%d", id.Index(), id.Generation())
}

type slot struct {
	generation uint32
	alive      bool
}

// EntityPool is an arena of id slots. Destroying an id bumps its slot's
// generation, so a stale copy can never alias the slot's next occupant.
// Freed slots are reused oldest first. Pools are per engine.
type EntityPool struct {
	slots []slot // slots[0] is reserved
	free  []uint32
	head  int // next entry of free to reuse
	live  int
}

func NewEntityPool() *EntityPool {
	return &EntityPool{
		slots: make([]slot, 1, 1024),
		free:  make([]uint32, 0, 256),
	}
}

func (p *EntityPool) Create() EntityID {
	var idx uint32
	if p.head < len(p.free) {
		idx = p.free[p.head]
		p.head++
		if p.head == len(p.free) {
			p.free, p.head = p.free[:0], 0
		}
	} else {
		idx = uint32(len(p.slots))
		p.slots = append(p.slots, slot{})
	}
	p.slots[idx].alive = true
	p.live++
	return NewEntityID(idx, p.slots[idx].generation)
}

func (p *EntityPool) Alive(id EntityID) bool {
	idx := int(id.Index())
	if idx == 0 || idx >= len(p.slots) {
		return false
	}
	s := p.slots[idx]
	return s.alive && s.generation == id.Generation()
}

// Destroy frees id's slot. Stale or unknown ids are ignored.
func (p *EntityPool) Destroy(id EntityID) {
	if !p.Alive(id) {
		return
	}
	s := &p.slots[id.Index()]
	s.alive = false
	s.generation++
	p.free = append(p.free, id.Index())
	p.live--
}

// Live returns the number of allocated, not yet destroyed ids.
func (p *EntityPool) Live() int { return p.live }
