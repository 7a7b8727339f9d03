package geocoder

import "strings"

// Tag classifies a definition. The set is closed; tags that are not
// recognised parse to TagOther and the raw string is kept on the
// definition so newer map data still round-trips.
type Tag uint8

const (
	TagOther Tag = iota
	TagClosed
	TagHandSanitizer
	TagBleedingControl
	TagAED
	TagBathroomMen
	TagBathroomWomen
	TagBathroomUnisex
	TagWaterFountain
	TagElevator
	TagStairs
	TagInfrastructure
	TagEmergency
)

var tagNames = map[Tag]string{
	TagOther:           "other",
	TagClosed:          "closed",
	TagHandSanitizer:   "hs",
	TagBleedingControl: "bleeding-control",
	TagAED:             "aed",
	TagBathroomMen:     "bathroom-m",
	TagBathroomWomen:   "bathroom-w",
	TagBathroomUnisex:  "bathroom-u",
	TagWaterFountain:   "water-fountain",
	TagElevator:        "elevator",
	TagStairs:          "stairs",
	TagInfrastructure:  "infrastructure",
	TagEmergency:       "emergency",
}

var tagsByName = func() map[string]Tag {
	m := make(map[string]Tag, len(tagNames))
	for t, n := range tagNames {
		m[n] = t
	}
	// Spellings found in older map data.
	m["hand-sanitizer"] = TagHandSanitizer
	m["stop-the-bleed"] = TagBleedingControl
	return m
}()

// ParseTag returns the Tag for s, ignoring case and surrounding space.
// The second result is false for unrecognised strings, which map to TagOther.
func ParseTag(s string) (Tag, bool) {
	t, ok := tagsByName[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return TagOther, false
	}
	return t, true
}

func (t Tag) String() string {
	if n, ok := tagNames[t]; ok {
		return n
	}
	return "other"
}

// MarshalText implements encoding.TextMarshaler.
func (t Tag) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unknown tags decode to
// TagOther without error.
func (t *Tag) UnmarshalText(b []byte) error {
	*t, _ = ParseTag(string(b))
	return nil
}
