package geo

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Location is a point on one floor of the building.
type Location struct {
	Point orb.Point
	Floor string
}

// NewLocation builds a Location from x/y map coordinates.
func NewLocation(x, y float64, floor string) Location {
	return Location{Point: orb.Point{x, y}, Floor: floor}
}

// DistanceTo returns the planar distance between two locations. Locations on
// different floors are incomparable, reported by ok == false.
func (l Location) DistanceTo(other Location) (dist float64, ok bool) {
	if l.Floor != other.Floor {
		return 0, false
	}
	return Distance(l.Point, other.Point), true
}

func (l Location) String() string {
	return fmt.Sprintf("(%g, %g) on floor %s", l.Point[0], l.Point[1], l.Floor)
}

// LocationWithEntrances is a place with a representative center and zero or
// more entrances that may differ from it.
type LocationWithEntrances struct {
	Center    Location
	entrances []Location
}

// NewLocationWithEntrances creates a place. When entrances is empty the
// center doubles as the only entrance.
func NewLocationWithEntrances(center Location, entrances ...Location) LocationWithEntrances {
	es := make([]Location, len(entrances))
	copy(es, entrances)
	return LocationWithEntrances{Center: center, entrances: es}
}

// Entrances returns the explicit entrances, or the center alone if there
// are none.
func (l LocationWithEntrances) Entrances() []Location {
	if len(l.entrances) == 0 {
		return []Location{l.Center}
	}
	out := make([]Location, len(l.entrances))
	copy(out, l.entrances)
	return out
}

// DistanceTo compares two places by their centers.
func (l LocationWithEntrances) DistanceTo(other LocationWithEntrances) (float64, bool) {
	return l.Center.DistanceTo(other.Center)
}
