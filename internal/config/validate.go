package config

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// FieldError names one out-of-range or malformed parameter.
type FieldError struct {
	Field   string
	Problem string
}

func (e FieldError) String() string { return e.Field + ": " + e.Problem }

// ValidationError is returned when a configuration is rejected.
type ValidationError struct {
	Issues []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		parts[i] = is.String()
	}
	return fmt.Sprintf("invalid simulation config (%d issues): %s", len(e.Issues), strings.Join(parts, "; "))
}

type rangeCheck struct {
	field    string
	val      *float64
	min, max float64
	open     bool // min is exclusive
}

func (c *SimulationConfig) floatChecks() []rangeCheck {
	inf := math.Inf(1)
	return []rangeCheck{
		{"activation_chance", &c.ActivationChance, 0, inf, false},
		{"deactivation_chance", &c.DeactivationChance, 0, inf, false},
		{"life_chance", &c.LifeChance, 0, 1, false},
		{"min_lifetime", &c.MinLifetime, 0, inf, true},
		{"lifetime_range", &c.LifetimeRange, 0, inf, false},
		{"min_activation_distance", &c.MinActivationDistance, 0, inf, false},
		{"core_exclusion_radius", &c.CoreExclusionRadius, 0, inf, false},
		{"emission_interval_min", &c.EmissionIntervalMin, 0, inf, true},
		{"emission_interval_range", &c.EmissionIntervalRange, 0, inf, false},
		{"aging_fade_threshold", &c.AgingFadeThreshold, 0, 1, false},
		{"obscured_dim_factor", &c.ObscuredDimFactor, 0, 1, false},
		{"propagation_speed", &c.PropagationSpeed, 0, inf, true},
		{"max_connection_distance", &c.MaxConnectionDistance, 0, inf, false},
		{"connection_distance_factor", &c.ConnectionDistanceFactor, 0, inf, true},
		{"birth_replacement_ratio", &c.BirthReplacementRatio, 0, inf, false},
		{"birth_time_divisor", &c.BirthTimeDivisor, 0, inf, true},
		{"supernova_chance", &c.SupernovaChance, 0, 1, false},
	}
}

// smallest value substituted for an exclusive lower bound when clamping
const openFloor = 1e-6

// Validate reports every out-of-range or malformed parameter.
// A nil result means the config can be used as is.
func (c SimulationConfig) Validate() []FieldError {
	var issues []FieldError
	for _, rc := range c.floatChecks() {
		if p := rc.problem(); p != "" {
			issues = append(issues, FieldError{Field: rc.field, Problem: p})
		}
	}
	if c.PopulationCap < 0 {
		issues = append(issues, FieldError{"population_cap", "must be >= 0"})
	}
	if c.PopulationThreshold < 0 {
		issues = append(issues, FieldError{"population_threshold", "must be >= 0"})
	}
	if c.MaxDelta <= 0 {
		issues = append(issues, FieldError{"max_delta", "must be > 0"})
	}
	return issues
}

func (rc rangeCheck) problem() string {
	v := *rc.val
	switch {
	case math.IsNaN(v):
		return "is NaN"
	case math.IsInf(v, 0):
		return "is infinite"
	case rc.open && v <= rc.min:
		return fmt.Sprintf("must be > %g", rc.min)
	case !rc.open && v < rc.min:
		return fmt.Sprintf("must be >= %g", rc.min)
	case v > rc.max:
		return fmt.Sprintf("must be <= %g", rc.max)
	}
	return ""
}

// Sanitize returns a copy clamped into legal ranges together with the
// issues it corrected. NaN and infinite values fall back to defaults.
func (c SimulationConfig) Sanitize() (SimulationConfig, []FieldError) {
	issues := c.Validate()
	if len(issues) == 0 {
		return c, nil
	}
	out := c
	def := DefaultSimulation()
	defChecks := def.floatChecks()
	for i, rc := range out.floatChecks() {
		v := *rc.val
		switch {
		case math.IsNaN(v) || math.IsInf(v, 0):
			*rc.val = *defChecks[i].val
		case rc.open && v <= rc.min:
			*rc.val = rc.min + openFloor
		case v < rc.min:
			*rc.val = rc.min
		case v > rc.max:
			*rc.val = rc.max
		}
	}
	if out.PopulationCap < 0 {
		out.PopulationCap = 0
	}
	if out.PopulationThreshold < 0 {
		out.PopulationThreshold = 0
	}
	if out.MaxDelta <= 0 {
		out.MaxDelta = def.MaxDelta
	}
	return out, issues
}

// Check returns a *ValidationError when the config has any issue.
func (c SimulationConfig) Check() error {
	if issues := c.Validate(); len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

// ConnectionDistance resolves the max connection distance: the explicit
// value when set, otherwise ConnectionDistanceFactor times the largest
// group radius.
func (c SimulationConfig) ConnectionDistance(maxGroupRadius float64) float64 {
	if c.MaxConnectionDistance > 0 {
		return c.MaxConnectionDistance
	}
	return c.ConnectionDistanceFactor * maxGroupRadius
}

// BirthCeiling is the population births may not reach: the lower of the
// absolute cap and the population threshold (initialTarget when unset).
func (c SimulationConfig) BirthCeiling(initialTarget int) int {
	threshold := c.PopulationThreshold
	if threshold == 0 {
		threshold = initialTarget
	}
	if c.PopulationCap < threshold {
		return c.PopulationCap
	}
	return threshold
}

// ClampDelta bounds a frame delta to (0, MaxDelta].
func (c SimulationConfig) ClampDelta(dt time.Duration) time.Duration {
	if dt < 0 {
		return 0
	}
	if c.MaxDelta > 0 && dt > c.MaxDelta {
		return c.MaxDelta
	}
	return dt
}

// Cell-size factors outside this range either scan far too many cells per
// query or put the whole population in one bucket.
const (
	MinCellFactor = 0.25
	MaxCellFactor = 16
)

func (g *GridConfig) factorChecks() []rangeCheck {
	return []rangeCheck{
		{"grid.connection_cell_factor", &g.ConnectionCellFactor, MinCellFactor, MaxCellFactor, false},
		{"grid.cloud_cell_factor", &g.CloudCellFactor, MinCellFactor, MaxCellFactor, false},
	}
}

// Validate reports cell-size factors outside [MinCellFactor, MaxCellFactor].
func (g GridConfig) Validate() []FieldError {
	var issues []FieldError
	for _, rc := range g.factorChecks() {
		if p := rc.problem(); p != "" {
			issues = append(issues, FieldError{Field: rc.field, Problem: p})
		}
	}
	return issues
}

// Sanitize clamps both factors into range. NaN and infinite factors fall
// back to the defaults.
func (g GridConfig) Sanitize() (GridConfig, []FieldError) {
	issues := g.Validate()
	if len(issues) == 0 {
		return g, nil
	}
	out := g
	def := Defaults().Grid
	defChecks := def.factorChecks()
	for i, rc := range out.factorChecks() {
		v := *rc.val
		switch {
		case math.IsNaN(v) || math.IsInf(v, 0):
			*rc.val = *defChecks[i].val
		case v < rc.min:
			*rc.val = rc.min
		case v > rc.max:
			*rc.val = rc.max
		}
	}
	return out, issues
}

// CellSizes returns the connection and cloud index cell sizes.
func (g GridConfig) CellSizes(connectionDistance, maxCloudRadius float64) (connCell, cloudCell float64) {
	connFactor, cloudFactor := g.ConnectionCellFactor, g.CloudCellFactor
	if !(connFactor > 0) {
		connFactor = 1
	}
	if !(cloudFactor > 0) {
		cloudFactor = 2
	}
	connCell = connFactor * connectionDistance
	cloudCell = cloudFactor * maxCloudRadius
	if !(connCell > 0) {
		connCell = 1
	}
	if !(cloudCell > 0) {
		cloudCell = 1
	}
	return connCell, cloudCell
}
