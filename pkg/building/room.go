package building

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/paulmach/orb"
)

// Room is a destination in the building. Entrances are the walkway vertices
// a route may start or end at; Center is only used for placement.
type Room struct {
	Key         string
	Entrances   []string
	Center      *orb.Point
	Outline     orb.Ring
	Floor       string
	Names       []string
	Tags        []string
	Description string

	// location of the first entrance, used when Center is nil.
	entrancePoint orb.Point
}

// Name is the display name, "Title Cased Name (key)", or the key alone for
// unnamed rooms.
func (r *Room) Name() string {
	if len(r.Names) == 0 {
		return r.Key
	}
	return titleCase(r.Names[0]) + " (" + r.Key + ")"
}

// ShortName is the title-cased first name, or the key for unnamed rooms.
func (r *Room) ShortName() string {
	if len(r.Names) == 0 {
		return r.Key
	}
	return titleCase(r.Names[0])
}

// CenterPoint returns the explicit center, falling back to the location of
// the first entrance.
func (r *Room) CenterPoint() orb.Point {
	if r.Center != nil {
		return *r.Center
	}
	return r.entrancePoint
}

// titleCase upper-cases the first letter of every space-separated word and
// leaves the rest alone, so "ECE lab" becomes "ECE Lab".
func titleCase(s string) string {
	words := strings.Split(s, " ")
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		if size == 0 {
			continue
		}
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
