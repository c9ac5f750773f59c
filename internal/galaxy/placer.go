package galaxy

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
)

// Placer yields one position inside a group. The engine treats it as a
// black box and reuses it for births.
type Placer interface {
	Place(g *Group, rng *rand.Rand) mgl64.Vec3
}

// PlacerFunc adapts a function to Placer.
type PlacerFunc func(g *Group, rng *rand.Rand) mgl64.Vec3

func (f PlacerFunc) Place(g *Group, rng *rand.Rand) mgl64.Vec3 { return f(g, rng) }

type shapeFunc func(g *Group, rng *rand.Rand) (r, theta, y float64)

var shapes = map[string]shapeFunc{
	"spiral":     spiral,
	"elliptical": elliptical,
	"disk":       disk,
	"ring":       ring,
}

// Shapes places stars with the built-in procedural shapes. Unknown or empty
// shapes fall back to a uniform disk.
type Shapes struct{}

func (Shapes) Place(g *Group, rng *rand.Rand) mgl64.Vec3 {
	fn, ok := shapes[g.Shape]
	if !ok {
		fn = disk
	}
	r, theta, y := fn(g, rng)
	c := g.CenterVec()
	// the disk lies in X/Z, Y is the normal
	return mgl64.Vec3{
		c[0] + r*math.Cos(theta),
		c[1] + y,
		c[2] + r*math.Sin(theta),
	}
}

func spiral(g *Group, rng *rand.Rand) (float64, float64, float64) {
	arms := g.Arms
	if arms <= 0 {
		arms = 2
	}
	// bias toward the core
	frac := math.Pow(rng.Float64(), 0.7)
	r := frac * g.Radius
	arm := rng.Intn(arms)
	theta := float64(arm)*2*math.Pi/float64(arms) + frac*g.ArmTwist + rng.NormFloat64()*g.ArmSpread
	return r, theta, thickness(g, frac, rng)
}

func elliptical(g *Group, rng *rand.Rand) (float64, float64, float64) {
	frac := math.Min(1, math.Abs(rng.NormFloat64())/2.5)
	r := frac * g.Radius
	theta := rng.Float64() * 2 * math.Pi
	// roughly spheroidal: vertical scatter scales with the radius
	y := rng.NormFloat64() * 0.6 * r / 2.5
	return r, theta, y
}

func disk(g *Group, rng *rand.Rand) (float64, float64, float64) {
	frac := math.Sqrt(rng.Float64())
	return frac * g.Radius, rng.Float64() * 2 * math.Pi, thickness(g, frac, rng)
}

func ring(g *Group, rng *rand.Rand) (float64, float64, float64) {
	frac := 0.8 + 0.2*rng.Float64()
	return frac * g.Radius, rng.Float64() * 2 * math.Pi, thickness(g, frac, rng)
}

// thickness tapers the disk from Thickness at the core to zero at the rim.
func thickness(g *Group, frac float64, rng *rand.Rand) float64 {
	if g.Thickness <= 0 {
		return 0
	}
	return rng.NormFloat64() * g.Thickness * (1 - frac) * 0.5
}
