package system

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/thebreadishard/CosmicNetworkSim1/internal/core/ecs"
	"github.com/thebreadishard/CosmicNetworkSim1/internal/core/event"
	coresys "github.com/thebreadishard/CosmicNetworkSim1/internal/core/system"
	"github.com/thebreadishard/CosmicNetworkSim1/internal/galaxy"
	"github.com/thebreadishard/CosmicNetworkSim1/internal/world"
)

// BirthSystem replaces lost stars: while the population is below both the
// cap and the threshold, one Bernoulli draw per tick may spawn one star.
// Phase 2 (Birth).
type BirthSystem struct {
	deps *Deps
}

func NewBirthSystem(deps *Deps) *BirthSystem {
	return &BirthSystem{deps: deps}
}

func (s *BirthSystem) Phase() coresys.Phase { return coresys.PhaseBirth }

func (s *BirthSystem) Update(dt time.Duration) {
	d := s.deps
	if len(d.Groups) == 0 || d.Placer == nil {
		return
	}
	if d.World.StarCount() >= d.Config.BirthCeiling(d.InitialTarget) {
		return
	}
	rate := d.Config.BirthReplacementRatio / d.Config.BirthTimeDivisor
	if d.Rng.Float64() >= world.Chance(rate, dt.Seconds()) {
		return
	}
	gi := s.pickGroup()
	star := SpawnStar(d, gi, d.Placer.Place(&d.Groups[gi], d.Rng))
	d.Counters.Births++
	d.Log.Debug("star born", zap.Uint64("star", uint64(star.ID)), zap.String("group", d.Groups[gi].Name))
}

// pickGroup chooses a home group weighted by initial star count.
func (s *BirthSystem) pickGroup() int {
	d := s.deps
	total := 0
	for i := range d.Groups {
		total += d.Groups[i].Count
	}
	if total <= 0 {
		return d.Rng.Intn(len(d.Groups))
	}
	n := d.Rng.Intn(total)
	for i := range d.Groups {
		n -= d.Groups[i].Count
		if n < 0 {
			return i
		}
	}
	return len(d.Groups) - 1
}

// SpawnStar creates an untouched star of group gi at pos and announces it.
func SpawnStar(d *Deps, gi int, pos mgl64.Vec3) *world.Star {
	center := mgl64.Vec3{}
	if gi >= 0 && gi < len(d.Groups) {
		center = d.Groups[gi].CenterVec()
	}
	star := world.NewStar(pos, center, gi, d.Config, d.Rng)
	d.World.AddStar(star)
	emitCreated(d, star)
	return star
}

func emitCreated(d *Deps, star *world.Star) {
	event.Emit(d.Bus, event.StarCreated{
		StarID:   star.ID,
		Group:    star.Group,
		Position: star.Position,
		Lifetime: star.Lifetime,
	})
}

// SeedGroup creates the initial stars and dust clouds of group gi, with
// ages drawn from the group's age profile. Returns the new star ids.
func SeedGroup(d *Deps, gi int, placer galaxy.Placer) []ecs.EntityID {
	g := &d.Groups[gi]
	center := g.CenterVec()
	ids := make([]ecs.EntityID, 0, g.Count)
	for i := 0; i < g.Count; i++ {
		star := world.NewStar(placer.Place(g, d.Rng), center, gi, d.Config, d.Rng)
		star.Age = star.Lifetime * (g.AgeMin + d.Rng.Float64()*(g.AgeMax-g.AgeMin))
		ids = append(ids, d.World.AddStar(star))
		emitCreated(d, star)
	}
	for i := 0; i < g.Clouds; i++ {
		d.World.AddCloud(&world.DustCloud{
			Position: placer.Place(g, d.Rng),
			Radius:   g.CloudMinRadius + d.Rng.Float64()*g.CloudRadiusRange,
		})
		d.Index.CloudsDirty = true
	}
	return ids
}
