package building

import "github.com/paulmach/orb"

// Segment is a run of consecutive path vertices on one floor.
type Segment struct {
	Floor    string
	Vertices []string
	Points   orb.LineString
}

// TransitionKind tells how a path changes floor.
type TransitionKind uint8

const (
	TransitionUnknown TransitionKind = iota
	TransitionStairs
	TransitionElevator
)

func (k TransitionKind) String() string {
	switch k {
	case TransitionStairs:
		return "stairs"
	case TransitionElevator:
		return "elevator"
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (k TransitionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Transition is a floor change between two consecutive path vertices. It
// carries no geometry of its own.
type Transition struct {
	FromVertex string
	ToVertex   string
	FromFloor  string
	ToFloor    string
	Kind       TransitionKind
}

// Segments splits path by floor. Every floor change between consecutive
// vertices ends one segment, starts the next, and yields a Transition.
// Vertices unknown to the model are skipped.
func (m *Model) Segments(path []string) ([]Segment, []Transition) {
	var (
		segs  []Segment
		trans []Transition
		prev  Vertex
		have  bool
	)
	for _, id := range path {
		v, ok := m.graph.Vertex(id)
		if !ok {
			continue
		}
		if !have || v.Floor != prev.Floor {
			if have {
				trans = append(trans, Transition{
					FromVertex: prev.ID,
					ToVertex:   v.ID,
					FromFloor:  prev.Floor,
					ToFloor:    v.Floor,
					Kind:       transitionKind(prev, v),
				})
			}
			segs = append(segs, Segment{Floor: v.Floor})
		}
		s := &segs[len(segs)-1]
		s.Vertices = append(s.Vertices, v.ID)
		s.Points = append(s.Points, v.Location)
		prev, have = v, true
	}
	return segs, trans
}

func transitionKind(a, b Vertex) TransitionKind {
	switch {
	case a.HasTag(VertexTagElevator) && b.HasTag(VertexTagElevator):
		return TransitionElevator
	case a.HasTag(VertexTagStairs) || b.HasTag(VertexTagStairs):
		return TransitionStairs
	case a.HasTag(VertexTagElevator) || b.HasTag(VertexTagElevator):
		return TransitionElevator
	}
	return TransitionUnknown
}
