package geocoder

import (
	"slices"
	"strings"

	"github.com/azybler/wayfinder/pkg/geo"
)

// Definition is a named or unnamed point of interest.
type Definition struct {
	Name           string
	AlternateNames []string
	Description    string
	Tags           []Tag
	// RawTags holds tag strings that did not parse to a known Tag.
	RawTags  []string
	Location geo.LocationWithEntrances
	// Ref is an opaque back-reference for the caller, e.g. a room key.
	Ref string
}

// NewDefinition builds a definition, parsing tag strings into Tags and
// keeping unrecognised ones in RawTags.
func NewDefinition(name string, loc geo.LocationWithEntrances, tags ...string) Definition {
	d := Definition{Name: name, Location: loc}
	for _, s := range tags {
		t, ok := ParseTag(s)
		if !ok {
			d.RawTags = append(d.RawTags, s)
			continue
		}
		if !slices.Contains(d.Tags, t) {
			d.Tags = append(d.Tags, t)
		}
	}
	return d
}

// HasTag reports whether the definition carries tag.
func (d Definition) HasTag(tag Tag) bool {
	return slices.Contains(d.Tags, tag)
}

// Names returns the primary name (if any) followed by the alternates.
func (d Definition) Names() []string {
	var out []string
	if d.Name != "" {
		out = append(out, d.Name)
	}
	return append(out, d.AlternateNames...)
}

// ExtendedWithAlternateName returns a copy of d with one more alternate name.
// d itself is not modified.
func (d Definition) ExtendedWithAlternateName(name string) Definition {
	d.AlternateNames = append(slices.Clip(d.AlternateNames), name)
	d.Tags = slices.Clone(d.Tags)
	d.RawTags = slices.Clone(d.RawTags)
	return d
}

// Center is shorthand for d.Location.Center.
func (d Definition) Center() geo.Location {
	return d.Location.Center
}

// key identifies a definition for duplicate detection: the normalized name,
// or the floor and center for unnamed definitions.
func (d Definition) key() string {
	if n := normalizeName(d.Name); n != "" {
		return "name:" + n
	}
	c := d.Location.Center
	return "at:" + c.String()
}

func normalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
