package system

import (
	"fmt"
	"time"
)

// Runner holds systems bucketed by phase. Tick walks the phases in order;
// within a phase systems run in registration order.
type Runner struct {
	buckets [phaseCount][]System
	n       int
}

func NewRunner() *Runner {
	return &Runner{}
}

// Register adds s to its phase. It panics on a phase outside the pipeline,
// which is a wiring bug.
func (r *Runner) Register(s System) {
	p := s.Phase()
	if p < 0 || p >= phaseCount {
		panic(fmt.Sprintf("system: register with unknown phase %d", int(p)))
	}
	r.buckets[p] = append(r.buckets[p], s)
	r.n++
}

func (r *Runner) Tick(dt time.Duration) {
	for p := range r.buckets {
		for _, s := range r.buckets[p] {
			s.Update(dt)
		}
	}
}

// TickPhase runs only the systems registered for phase.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) {
	if phase < 0 || phase >= phaseCount {
		return
	}
	for _, s := range r.buckets[phase] {
		s.Update(dt)
	}
}

// Len returns the number of registered systems.
func (r *Runner) Len() int { return r.n }
