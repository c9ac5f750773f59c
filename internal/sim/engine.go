// Package sim is the simulation engine: it owns the stars, clouds,
// connections and spatial indices of one run and advances them one frame
// at a time.
package sim

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/thebreadishard/CosmicNetworkSim1/internal/config"
	"github.com/thebreadishard/CosmicNetworkSim1/internal/core/ecs"
	"github.com/thebreadishard/CosmicNetworkSim1/internal/core/event"
	coresys "github.com/thebreadishard/CosmicNetworkSim1/internal/core/system"
	"github.com/thebreadishard/CosmicNetworkSim1/internal/galaxy"
	"github.com/thebreadishard/CosmicNetworkSim1/internal/system"
	"github.com/thebreadishard/CosmicNetworkSim1/internal/world"
)

// Stats is a read-only snapshot for display.
type Stats struct {
	Stars       int           `msgpack:"stars" json:"stars"`
	Active      int           `msgpack:"active" json:"active"`
	Connections int           `msgpack:"connections" json:"connections"`
	Obscured    int           `msgpack:"obscured" json:"obscured"`
	Clouds      int           `msgpack:"clouds" json:"clouds"`
	Births      int           `msgpack:"births" json:"births"`
	Deaths      int           `msgpack:"deaths" json:"deaths"`
	Supernovae  int           `msgpack:"supernovae" json:"supernovae"`
	SimTime     time.Duration `msgpack:"sim_time" json:"sim_time"`
	Ticks       uint64        `msgpack:"ticks" json:"ticks"`
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithGrid overrides the index cell-size factors. New rejects factors
// outside the range config.GridConfig.Validate accepts.
func WithGrid(g config.GridConfig) Option {
	return func(e *Engine) { e.deps.Grid = g }
}

// WithPlacer replaces the built-in shape placer, e.g. with a Lua script.
func WithPlacer(p galaxy.Placer) Option {
	return func(e *Engine) { e.deps.Placer = p }
}

// Engine advances one simulation. It is not safe for concurrent use: a
// single frame loop calls Update and reads results between frames.
type Engine struct {
	cfg    config.SimulationConfig
	deps   *system.Deps
	runner *coresys.Runner
	bus    *event.Bus
	log    *zap.Logger
	ticks  uint64
}

// New validates cfg and builds an engine. An invalid cfg yields a
// *config.ValidationError; use cfg.Sanitize first to clamp instead.
func New(cfg config.SimulationConfig, opts ...Option) (*Engine, error) {
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	e := &Engine{
		cfg: cfg,
		bus: event.NewBus(),
		log: zap.NewNop(),
	}
	e.deps = &system.Deps{
		World:  world.NewState(),
		Bus:    e.bus,
		Rng:    rand.New(rand.NewSource(seed)),
		Config: &e.cfg,
		Grid: config.GridConfig{
			ConnectionCellFactor: 1,
			CloudCellFactor:      2,
		},
		Placer: galaxy.Shapes{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	e.deps.Log = e.log
	if issues := e.deps.Grid.Validate(); len(issues) > 0 {
		return nil, &config.ValidationError{Issues: issues}
	}

	e.runner = coresys.NewRunner()
	e.runner.Register(system.NewLifecycleSystem(e.deps))
	e.runner.Register(system.NewPruneDeadSystem(e.deps))
	e.runner.Register(system.NewBirthSystem(e.deps))
	e.runner.Register(system.NewIndexSystem(e.deps))
	e.runner.Register(system.NewHandshakeSystem(e.deps))
	e.runner.Register(system.NewPruneInvalidSystem(e.deps))
	e.runner.Register(system.NewObstructionSystem(e.deps))
	e.runner.Register(system.NewEmitSystem(e.deps))

	e.log.Debug("engine created", zap.Int64("seed", seed))
	return e, nil
}

// Bus exposes the lifecycle event bus for rendering adapters to subscribe.
func (e *Engine) Bus() *event.Bus { return e.bus }

// Config returns the active simulation config.
func (e *Engine) Config() config.SimulationConfig { return e.cfg }

// SetConfig validates and swaps the simulation config. Derived thresholds
// pick the new values up on the next tick.
func (e *Engine) SetConfig(cfg config.SimulationConfig) error {
	if err := cfg.Check(); err != nil {
		return err
	}
	cfg.Seed = e.cfg.Seed
	e.cfg = cfg
	return nil
}

// InitializePopulation seeds every group of the table. It may be called
// once, before the first Update. Creation events are delivered on the
// next Update's flush.
func (e *Engine) InitializePopulation(groups []galaxy.Group) error {
	if len(e.deps.Groups) > 0 {
		return fmt.Errorf("population already initialized with %d groups", len(e.deps.Groups))
	}
	for i := range groups {
		if err := groups[i].Validate(); err != nil {
			return fmt.Errorf("initialize population: %w", err)
		}
	}
	e.deps.Groups = append([]galaxy.Group(nil), groups...)
	total := 0
	for gi := range e.deps.Groups {
		total += len(system.SeedGroup(e.deps, gi, e.deps.Placer))
	}
	e.deps.InitialTarget = total
	e.runner.TickPhase(coresys.PhaseIndex, 0)
	e.log.Info("population initialized",
		zap.Int("groups", len(groups)),
		zap.Int("stars", total),
		zap.Int("clouds", len(e.deps.World.Clouds())),
		zap.Float64("connection_distance", e.deps.ConnectionDistance()),
	)
	return nil
}

// Update advances the simulation by dt, clamped to the configured max delta.
func (e *Engine) Update(dt time.Duration) {
	dt = e.cfg.ClampDelta(dt)
	e.deps.Now += dt
	e.ticks++
	e.runner.Tick(dt)
}

// Now returns the simulation clock.
func (e *Engine) Now() time.Duration { return e.deps.Now }

// Stats returns counts for display.
func (e *Engine) Stats() Stats {
	w := e.deps.World
	st := Stats{
		Stars:       w.StarCount(),
		Connections: w.ConnectionCount(),
		Clouds:      len(w.Clouds()),
		Births:      e.deps.Counters.Births,
		Deaths:      e.deps.Counters.Deaths,
		Supernovae:  e.deps.Counters.Supernovae,
		SimTime:     e.deps.Now,
		Ticks:       e.ticks,
	}
	w.EachStar(func(s *world.Star) {
		if s.Active() {
			st.Active++
		}
		if s.Obscured {
			st.Obscured++
		}
	})
	return st
}

// OnTerminalEvent registers fn to run synchronously when a star dies as a
// supernova. The engine does not depend on anything fn does.
func (e *Engine) OnTerminalEvent(fn func(event.StarDied)) {
	prev := e.deps.OnTerminal
	if prev == nil {
		e.deps.OnTerminal = fn
		return
	}
	e.deps.OnTerminal = func(ev event.StarDied) {
		prev(ev)
		fn(ev)
	}
}

// ConnectionDistance is the current max connection distance.
func (e *Engine) ConnectionDistance() float64 { return e.deps.ConnectionDistance() }

// Star returns the live star with id, or nil.
func (e *Engine) Star(id ecs.EntityID) *world.Star { return e.deps.World.Star(id) }

// Stars returns the live stars in store order.
func (e *Engine) Stars() []*world.Star { return e.deps.World.Stars() }

// Connections returns the live connections.
func (e *Engine) Connections() []*world.Connection { return e.deps.World.Connections() }

// Clouds returns the dust clouds.
func (e *Engine) Clouds() []*world.DustCloud { return e.deps.World.Clouds() }

// StarsNear returns live stars within radius of p, using the star index
// built on the last tick.
func (e *Engine) StarsNear(p mgl64.Vec3, radius float64) []*world.Star {
	grid := e.deps.Index.Stars
	if grid == nil {
		return nil
	}
	var out []*world.Star
	for _, s := range grid.QueryRadius(p, radius) {
		if s.Dead() || e.deps.World.Star(s.ID) != s {
			continue
		}
		if s.Position.Sub(p).Len() <= radius {
			out = append(out, s)
		}
	}
	return out
}
