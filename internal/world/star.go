package world

import (
	"math"
	"math/rand"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/thebreadishard/CosmicNetworkSim1/internal/config"
	"github.com/thebreadishard/CosmicNetworkSim1/internal/core/ecs"
)

// StarState is the lifecycle state of a star.
type StarState uint8

const (
	StateDormant StarState = iota // never activated
	StateActive
	StateSpent // was active once, never reactivates
	StateDead
)

func (s StarState) String() string {
	switch s {
	case StateDormant:
		return "dormant"
	case StateActive:
		return "active"
	case StateSpent:
		return "spent"
	case StateDead:
		return "dead"
	}
	return "unknown"
}

// Transition reports what a single Star.Update did.
type Transition uint8

const (
	TransitionNone Transition = iota
	TransitionActivated
	TransitionDeactivated
	TransitionDied
)

// Star is a point that ages, may host one active epoch, and dies.
// Position never changes after placement.
type Star struct {
	ID          ecs.EntityID
	Group       int
	Position    mgl64.Vec3
	GroupCenter mgl64.Vec3

	Age            float64 // seconds
	Lifetime       float64 // seconds
	CanSupportLife bool

	// Obscured is recomputed every tick by the obstruction pass.
	Obscured bool

	state       StarState
	activatedAt time.Duration

	emissionTimer    float64
	emissionInterval float64
	emissionReady    bool
}

// NewStar builds a dormant star at age 0 with lifetime and life-bearing
// drawn from cfg. The id is assigned by State.AddStar.
func NewStar(pos, center mgl64.Vec3, group int, cfg *config.SimulationConfig, rng *rand.Rand) *Star {
	s := &Star{
		Group:          group,
		Position:       pos,
		GroupCenter:    center,
		Lifetime:       cfg.MinLifetime + rng.Float64()*cfg.LifetimeRange,
		CanSupportLife: rng.Float64() < cfg.LifeChance,
	}
	s.resetEmission(cfg, rng)
	return s
}

func (s *Star) State() StarState { return s.state }
func (s *Star) Active() bool     { return s.state == StateActive }
func (s *Star) Dead() bool       { return s.state == StateDead }

// Spent reports whether the star has already used its single active epoch.
func (s *Star) Spent() bool { return s.state == StateSpent }

// ActivatedAt returns the simulation time of activation; ok is false while
// the star is not active.
func (s *Star) ActivatedAt() (at time.Duration, ok bool) {
	if s.state != StateActive {
		return 0, false
	}
	return s.activatedAt, true
}

// ActiveFor returns how long the star has been continuously active at now.
func (s *Star) ActiveFor(now time.Duration) time.Duration {
	if s.state != StateActive {
		return 0
	}
	return now - s.activatedAt
}

// PlanarDistance is the distance from the group center in the disk (X/Z) plane.
func (s *Star) PlanarDistance() float64 {
	return PlanarDistance(s.Position, s.GroupCenter)
}

// TakeEmission consumes the emission-ready flag.
func (s *Star) TakeEmission() bool {
	r := s.emissionReady
	s.emissionReady = false
	return r
}

// Fade is the aging brightness factor in [0,1]: 1 until age/lifetime
// passes threshold, then linear down to 0 at end of life.
func (s *Star) Fade(threshold float64) float64 {
	if s.Lifetime <= 0 {
		return 0
	}
	r := s.Age / s.Lifetime
	if r <= threshold {
		return 1
	}
	if threshold >= 1 {
		return 0
	}
	f := 1 - (r-threshold)/(1-threshold)
	return math.Max(0, math.Min(1, f))
}

// Intensity combines aging fade and dust obscuration.
func (s *Star) Intensity(cfg *config.SimulationConfig) float64 {
	v := s.Fade(cfg.AgingFadeThreshold)
	if s.Obscured {
		v *= cfg.ObscuredDimFactor
	}
	return v
}

// Update advances the star by dt seconds. Steps run in order: age, death,
// activation (dormant only), then deactivation or emission cadence (stars
// already active at the start of the tick).
func (s *Star) Update(dt float64, now time.Duration, cfg *config.SimulationConfig, rng *rand.Rand) Transition {
	if s.state == StateDead {
		return TransitionNone
	}
	s.Age += dt
	if s.Age >= s.Lifetime {
		s.state = StateDead
		s.emissionReady = false
		return TransitionDied
	}

	switch s.state {
	case StateDormant:
		if s.CanSupportLife && s.PlanarDistance() >= cfg.MinActivationDistance &&
			rng.Float64() < Chance(cfg.ActivationChance, dt) {
			s.activate(now)
			return TransitionActivated
		}
	case StateActive:
		if rng.Float64() < Chance(cfg.DeactivationChance, dt) {
			s.deactivate()
			return TransitionDeactivated
		}
		s.emissionTimer -= dt
		if s.emissionTimer <= 0 && s.PlanarDistance() >= cfg.CoreExclusionRadius {
			s.emissionReady = true
			s.resetEmission(cfg, rng)
		}
	}
	return TransitionNone
}

// Activate forces a dormant star active at now. It fails for spent or dead
// stars, which never reactivate.
func (s *Star) Activate(now time.Duration) bool {
	if s.state != StateDormant {
		return false
	}
	s.activate(now)
	return true
}

func (s *Star) activate(now time.Duration) {
	s.state = StateActive
	s.activatedAt = now
	s.emissionTimer = 0
}

func (s *Star) deactivate() {
	s.state = StateSpent
	s.activatedAt = 0
	s.emissionReady = false
}

// Kill marks the star dead immediately.
func (s *Star) Kill() {
	s.state = StateDead
	s.emissionReady = false
}

func (s *Star) resetEmission(cfg *config.SimulationConfig, rng *rand.Rand) {
	s.emissionInterval = cfg.EmissionIntervalMin + rng.Float64()*cfg.EmissionIntervalRange
	s.emissionTimer = s.emissionInterval
}

// Chance converts a per-second rate into this tick's Bernoulli probability,
// clamped to [0,1] so a stalled frame cannot push it past certainty.
func Chance(ratePerSecond, dt float64) float64 {
	p := ratePerSecond * dt
	switch {
	case p <= 0 || math.IsNaN(p):
		return 0
	case p >= 1:
		return 1
	}
	return p
}

// PlanarDistance is the X/Z-plane distance between a and b.
func PlanarDistance(a, b mgl64.Vec3) float64 {
	dx := a[0] - b[0]
	dz := a[2] - b[2]
	return math.Hypot(dx, dz)
}
