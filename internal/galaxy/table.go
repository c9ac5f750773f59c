// Package galaxy holds the group placement table and the procedural placers
// that turn a group description into star positions.
package galaxy

import (
	"fmt"
	"math"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

// Group describes one galaxy: where it sits, its shape, how many stars it
// starts with, and the age profile of those stars.
type Group struct {
	Name      string     `yaml:"name"`
	Center    [3]float64 `yaml:"center"`
	Radius    float64    `yaml:"radius"`
	Shape     string     `yaml:"shape"` // spiral, elliptical, disk, ring
	Arms      int        `yaml:"arms"`
	ArmTwist  float64    `yaml:"arm_twist"`  // radians of twist from core to rim
	ArmSpread float64    `yaml:"arm_spread"` // angular scatter around an arm, radians
	Thickness float64    `yaml:"thickness"`  // disk half-height at the core
	Count     int        `yaml:"count"`

	// Initial age as a fraction of each star's lifetime, drawn in [AgeMin, AgeMax].
	AgeMin float64 `yaml:"age_min"`
	AgeMax float64 `yaml:"age_max"`

	Clouds           int     `yaml:"clouds"`
	CloudMinRadius   float64 `yaml:"cloud_min_radius"`
	CloudRadiusRange float64 `yaml:"cloud_radius_range"`
}

func (g *Group) CenterVec() mgl64.Vec3 {
	return mgl64.Vec3{g.Center[0], g.Center[1], g.Center[2]}
}

// MaxCloudRadius is the largest cloud radius this group can produce.
func (g *Group) MaxCloudRadius() float64 {
	if g.Clouds <= 0 {
		return 0
	}
	return g.CloudMinRadius + g.CloudRadiusRange
}

// Validate rejects a group that cannot be seeded: a non-positive radius, a
// negative count, an age profile outside [0,1], or an unknown shape.
func (g *Group) Validate() error {
	switch {
	case !(g.Radius > 0) || math.IsInf(g.Radius, 0):
		return fmt.Errorf("group %q: radius must be > 0", g.Name)
	case g.Count < 0:
		return fmt.Errorf("group %q: count must be >= 0", g.Name)
	case !(g.AgeMin >= 0 && g.AgeMax <= 1 && g.AgeMin <= g.AgeMax):
		return fmt.Errorf("group %q: age profile [%g, %g] outside [0,1]", g.Name, g.AgeMin, g.AgeMax)
	case g.Clouds < 0 || g.CloudMinRadius < 0 || g.CloudRadiusRange < 0:
		return fmt.Errorf("group %q: cloud parameters must be >= 0", g.Name)
	case g.Clouds > 0 && g.MaxCloudRadius() <= 0:
		return fmt.Errorf("group %q: clouds need a positive radius", g.Name)
	}
	if _, ok := shapes[g.Shape]; !ok && g.Shape != "" {
		return fmt.Errorf("group %q: unknown shape %q", g.Name, g.Shape)
	}
	return nil
}

// Table is the list of galaxy groups a run starts from.
type Table struct {
	Groups []Group `yaml:"groups"`
}

// LoadTable loads a galaxies yaml file.
func LoadTable(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read galaxy table: %w", err)
	}
	t, err := ParseTable(raw)
	if err != nil {
		return nil, fmt.Errorf("galaxy table %s: %w", path, err)
	}
	return t, nil
}

// ParseTable decodes and validates a galaxy table.
func ParseTable(raw []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("parse galaxy table: %w", err)
	}
	for i := range t.Groups {
		if err := t.Groups[i].Validate(); err != nil {
			return nil, err
		}
	}
	return &t, nil
}

// Count returns the number of groups.
func (t *Table) Count() int { return len(t.Groups) }

// TargetPopulation sums the initial star counts.
func (t *Table) TargetPopulation() int {
	n := 0
	for i := range t.Groups {
		n += t.Groups[i].Count
	}
	return n
}
