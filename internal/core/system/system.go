package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseLifecycle    Phase = iota // 0: age, activate, deactivate stars
	PhasePruneDead                 // 1: drop dead stars and their connections
	PhaseBirth                     // 2: population replacement
	PhaseIndex                     // 3: rebuild spatial indices
	PhaseConnect                   // 4: handshake connection formation
	PhasePruneInvalid              // 5: drop connections with inactive endpoints
	PhaseObstruct                  // 6: dust cloud obscuration
	PhaseEmit                      // 7: flush lifecycle events

	phaseCount
)

var phaseNames = [...]string{
	"lifecycle", "prune_dead", "birth", "index", "connect", "prune_invalid", "obstruct", "emit",
}

func (p Phase) String() string {
	if p < 0 || p >= phaseCount {
		return "unknown"
	}
	return phaseNames[p]
}

// System is the interface every pipeline stage implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
