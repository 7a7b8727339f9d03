package building

import (
	"slices"
	"strings"

	"github.com/paulmach/orb"
)

// VertexTag classifies a walkway vertex.
type VertexTag uint8

const (
	VertexTagOther VertexTag = iota
	VertexTagStairs
	VertexTagElevator
)

// ParseVertexTag maps a tag string to a VertexTag. Unknown strings return
// VertexTagOther and false.
func ParseVertexTag(s string) (VertexTag, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stairs":
		return VertexTagStairs, true
	case "elevator":
		return VertexTagElevator, true
	}
	return VertexTagOther, false
}

func (t VertexTag) String() string {
	switch t {
	case VertexTagStairs:
		return "stairs"
	case VertexTagElevator:
		return "elevator"
	}
	return "other"
}

// Vertex is a point of the walkway graph.
type Vertex struct {
	ID       string
	Floor    string
	Location orb.Point
	Tags     []VertexTag
	// RawTags keeps tag strings that are not a known VertexTag.
	RawTags []string
}

func newVertex(rec VertexRecord) Vertex {
	v := Vertex{
		ID:       rec.ID,
		Floor:    rec.Floor,
		Location: orb.Point(rec.Location),
	}
	for _, s := range rec.Tags {
		t, ok := ParseVertexTag(s)
		if !ok {
			v.RawTags = append(v.RawTags, s)
			continue
		}
		if !v.HasTag(t) {
			v.Tags = append(v.Tags, t)
		}
	}
	return v
}

// HasTag reports whether v carries tag.
func (v Vertex) HasTag(tag VertexTag) bool {
	return slices.Contains(v.Tags, tag)
}

// IsVertical reports whether v connects floors.
func (v Vertex) IsVertical() bool {
	return v.HasTag(VertexTagStairs) || v.HasTag(VertexTagElevator)
}

func (v Vertex) record() VertexRecord {
	rec := VertexRecord{ID: v.ID, Floor: v.Floor, Location: [2]float64(v.Location)}
	for _, t := range v.Tags {
		rec.Tags = append(rec.Tags, t.String())
	}
	rec.Tags = append(rec.Tags, v.RawTags...)
	return rec
}
