package world

import "github.com/go-gl/mathgl/mgl64"

// DustCloud is a static spherical occluder.
type DustCloud struct {
	Position mgl64.Vec3
	Radius   float64
}

// Contains reports whether p lies inside the sphere.
func (c *DustCloud) Contains(p mgl64.Vec3) bool {
	return p.Sub(c.Position).Len() <= c.Radius
}

// CoversPlanar reports whether p lies within the radius in the X/Z plane.
func (c *DustCloud) CoversPlanar(p mgl64.Vec3) bool {
	return PlanarDistance(p, c.Position) <= c.Radius
}

// IntersectsSegment reports whether the segment a-b passes within Radius of
// the center. The closest point is clamped to the segment.
func (c *DustCloud) IntersectsSegment(a, b mgl64.Vec3) bool {
	return SegmentPointDistance(a, b, c.Position) <= c.Radius
}

// SegmentPointDistance returns the distance from p to the closest point of
// segment a-b.
func SegmentPointDistance(a, b, p mgl64.Vec3) float64 {
	ab := b.Sub(a)
	lenSq := ab.Dot(ab)
	if lenSq == 0 {
		return p.Sub(a).Len()
	}
	t := p.Sub(a).Dot(ab) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	closest := a.Add(ab.Mul(t))
	return p.Sub(closest).Len()
}
