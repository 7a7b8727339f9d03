// Package geo holds the flat floor-plan geometry used across the engine.
// Coordinates are projected map units, never latitude/longitude on a globe.
package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Distance returns the Euclidean distance between two planar points.
func Distance(a, b orb.Point) float64 {
	return planar.Distance(a, b)
}

// PointToSegmentDist computes the perpendicular distance from point p to
// segment ab, and returns the projection ratio along ab (clamped to [0,1]).
func PointToSegmentDist(p, a, b orb.Point) (dist float64, ratio float64) {
	if a == b {
		return planar.Distance(p, a), 0
	}

	dx := b[0] - a[0]
	dy := b[1] - a[1]
	lenSq := dx*dx + dy*dy

	// Project p onto line ab, clamp to [0,1].
	t := ((p[0]-a[0])*dx + (p[1]-a[1])*dy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	ex := p[0] - (a[0] + t*dx)
	ey := p[1] - (a[1] + t*dy)
	return math.Sqrt(ex*ex + ey*ey), t
}

// PointBound returns the degenerate bound holding a single point.
func PointBound(p orb.Point) orb.Bound {
	return orb.Bound{Min: p, Max: p}
}

// BoundOf returns the smallest bound holding all points. The zero bound is
// returned for an empty input.
func BoundOf(points ...orb.Point) orb.Bound {
	if len(points) == 0 {
		return orb.Bound{}
	}
	b := PointBound(points[0])
	for _, p := range points[1:] {
		b = b.Extend(p)
	}
	return b
}

// Overlaps reports whether two closed rectangles share at least one point.
// Rectangles that only touch along an edge or corner overlap.
func Overlaps(a, b orb.Bound) bool {
	return a.Min[0] <= b.Max[0] && b.Min[0] <= a.Max[0] &&
		a.Min[1] <= b.Max[1] && b.Min[1] <= a.Max[1]
}
