package building

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azybler/wayfinder/pkg/geo"
	"github.com/azybler/wayfinder/pkg/geocoder"
	"github.com/azybler/wayfinder/pkg/graph"
)

func v(id, floor string, x, y float64, tags ...string) VertexRecord {
	return VertexRecord{ID: id, Floor: floor, Location: [2]float64{x, y}, Tags: tags}
}

// lineDoc is A(0,0) - B(3,0) - C(3,4) on floor 1.
func lineDoc() *Document {
	return &Document{
		Floors:   []FloorInfo{{Number: "1", Image: "floor1.svg"}},
		Vertices: []VertexRecord{v("A", "1", 0, 0), v("B", "1", 3, 0), v("C", "1", 3, 4)},
		Edges:    [][2]string{{"A", "B"}, {"B", "C"}},
		Rooms: map[string]RoomRecord{
			"R1": {Vertices: []string{"A"}, Names: []string{"lobby"}},
			"R2": {Vertices: []string{"C"}, Names: []string{"ECE lab"}},
		},
	}
}

func TestFindBestPathLine(t *testing.T) {
	m, report := New(lineDoc(), nil)
	require.NoError(t, report.Err())

	r1, ok := m.Room("R1")
	require.True(t, ok)
	r2, ok := m.Room("R2")
	require.True(t, ok)

	path, dist, err := m.FindBestPath(r1, r2)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, path)
	assert.InDelta(t, 7.0, dist, 1e-9)
}

func TestFindBestPathSameEntrance(t *testing.T) {
	doc := lineDoc()
	doc.Rooms["R3"] = RoomRecord{Vertices: []string{"A"}}
	m, _ := New(doc, nil)

	r1, _ := m.Room("R1")
	r3, _ := m.Room("R3")
	path, dist, err := m.FindBestPath(r1, r3)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, path)
	assert.Zero(t, dist)
}

func TestFindBestPathPicksBestEntrancePair(t *testing.T) {
	// Two source entrances S1, S2 and two destination entrances D1, D2.
	// S2 -> D1 is the only short pair.
	doc := &Document{
		Vertices: []VertexRecord{
			v("S1", "1", 0, 0), v("S2", "1", 0, 10),
			v("D1", "1", 2, 10), v("D2", "1", 50, 0),
			v("M", "1", 25, 0),
		},
		Edges: [][2]string{
			{"S1", "M"}, {"M", "D2"},
			{"S2", "D1"},
			{"S1", "S2"},
		},
		Rooms: map[string]RoomRecord{
			"src": {Vertices: []string{"S1", "S2"}},
			"dst": {Vertices: []string{"D1", "D2"}},
		},
	}
	m, report := New(doc, nil)
	require.NoError(t, report.Err())

	src, _ := m.Room("src")
	dst, _ := m.Room("dst")
	path, dist, err := m.FindBestPath(src, dst)
	require.NoError(t, err)
	assert.Equal(t, []string{"S2", "D1"}, path)
	assert.InDelta(t, 2.0, dist, 1e-9)
}

func TestFindBestPathTieGoesToFirstPair(t *testing.T) {
	doc := &Document{
		Vertices: []VertexRecord{v("S", "1", 0, 0), v("D1", "1", 1, 0), v("D2", "1", -1, 0)},
		Edges:    [][2]string{{"S", "D1"}, {"S", "D2"}},
		Rooms: map[string]RoomRecord{
			"src": {Vertices: []string{"S"}},
			"dst": {Vertices: []string{"D2", "D1"}},
		},
	}
	m, _ := New(doc, nil)
	src, _ := m.Room("src")
	dst, _ := m.Room("dst")

	path, _, err := m.FindBestPath(src, dst)
	require.NoError(t, err)
	assert.Equal(t, []string{"S", "D2"}, path)
}

func TestFindBestPathNoPath(t *testing.T) {
	doc := lineDoc()
	doc.Vertices = append(doc.Vertices, v("X", "1", 100, 100))
	doc.Rooms["island"] = RoomRecord{Vertices: []string{"X"}}
	doc.Rooms["nowhere"] = RoomRecord{Center: &[2]float64{5, 5}, Floor: "1"}
	m, report := New(doc, nil)
	require.NoError(t, report.Err())

	r1, _ := m.Room("R1")
	island, _ := m.Room("island")
	_, _, err := m.FindBestPath(r1, island)
	require.ErrorIs(t, err, ErrNoPathFound)

	nowhere, ok := m.Room("nowhere")
	require.True(t, ok)
	_, _, err = m.FindBestPath(nowhere, r1)
	require.ErrorIs(t, err, ErrNoPathFound)
}

func TestNewToleratesBadRecords(t *testing.T) {
	doc := lineDoc()
	doc.Vertices = append(doc.Vertices, v("A", "1", 9, 9))
	doc.Edges = append(doc.Edges, [2]string{"A", "ghost"})
	doc.Rooms["R1"] = RoomRecord{Vertices: []string{"ghost", "A"}}
	doc.Rooms["lost"] = RoomRecord{Vertices: []string{"ghost"}}

	m, report := New(doc, nil)
	require.Error(t, report.Err())
	assert.Len(t, report.Problems, 5)
	assert.Equal(t, 1, report.DroppedRooms)
	assert.Equal(t, 2, report.Rooms)
	assert.Equal(t, 3, report.Vertices)
	assert.Equal(t, 2, report.Edges)
	assert.Equal(t, 1, report.Components)

	assert.True(t, errors.Is(report.Err(), graph.ErrDuplicateVertex))
	assert.True(t, errors.Is(report.Err(), graph.ErrUnknownVertex))
	assert.True(t, errors.Is(report.Err(), ErrUnknownRoomVertex))
	assert.True(t, errors.Is(report.Err(), ErrRoomUnplaceable))

	// The first vertex record wins and the room keeps its known entrance.
	a, ok := m.Vertex("A")
	require.True(t, ok)
	assert.Equal(t, orb.Point{0, 0}, a.Location)

	r1, ok := m.Room("R1")
	require.True(t, ok)
	assert.Equal(t, []string{"A"}, r1.Entrances)
	_, ok = m.Room("lost")
	assert.False(t, ok)
}

func TestRoomLookups(t *testing.T) {
	doc := lineDoc()
	doc.Rooms["R0"] = RoomRecord{Vertices: []string{"B"}, Names: []string{"lobby"}, Center: &[2]float64{1, 1}}
	m, _ := New(doc, nil)

	var keys []string
	for _, r := range m.Rooms() {
		keys = append(keys, r.Key)
	}
	assert.Equal(t, []string{"R0", "R1", "R2"}, keys)

	lobbies := m.RoomsFromName("lobby")
	require.Len(t, lobbies, 2)
	assert.Equal(t, "R0", lobbies[0].Key)
	assert.Empty(t, m.RoomsFromName("gym"))

	r0, _ := m.Room("R0")
	assert.Equal(t, orb.Point{1, 1}, r0.CenterPoint())
	r2, _ := m.Room("R2")
	assert.Equal(t, orb.Point{3, 4}, r2.CenterPoint())
	assert.Equal(t, "1", r2.Floor)
	assert.Equal(t, "ECE Lab (R2)", r2.Name())
	assert.Equal(t, "ECE Lab", r2.ShortName())

	assert.Len(t, m.RoomsOnFloor("1"), 3)
	assert.Empty(t, m.RoomsOnFloor("2"))
	assert.Equal(t, []FloorInfo{{Number: "1", Image: "floor1.svg"}}, m.Floors())
}

// twoFloorDoc has a corridor on each floor joined by stairs and an elevator.
func twoFloorDoc() *Document {
	return &Document{
		Floors: []FloorInfo{{Number: "1"}, {Number: "2"}},
		Vertices: []VertexRecord{
			v("a1", "1", 0, 0), v("s1", "1", 10, 0, "stairs"), v("e1", "1", 0, 10, "elevator"),
			v("s2", "2", 10, 0, "stairs"), v("e2", "2", 0, 10, "elevator"), v("b2", "2", 20, 0),
		},
		Edges: [][2]string{
			{"a1", "s1"}, {"s1", "s2"}, {"s2", "b2"},
			{"a1", "e1"}, {"e1", "e2"}, {"e2", "b2"},
		},
		Rooms: map[string]RoomRecord{
			"101": {Vertices: []string{"a1"}},
			"201": {Vertices: []string{"b2"}, Names: []string{"office"}, Tags: []string{"hs"}},
		},
	}
}

func TestSegments(t *testing.T) {
	m, report := New(twoFloorDoc(), nil)
	require.NoError(t, report.Err())

	src, _ := m.Room("101")
	dst, _ := m.Room("201")
	path, _, err := m.FindBestPath(src, dst)
	require.NoError(t, err)
	require.Equal(t, []string{"a1", "s1", "s2", "b2"}, path)

	segs, trans := m.Segments(path)
	require.Len(t, segs, 2)
	assert.Equal(t, "1", segs[0].Floor)
	assert.Equal(t, []string{"a1", "s1"}, segs[0].Vertices)
	assert.Equal(t, orb.LineString{{0, 0}, {10, 0}}, segs[0].Points)
	assert.Equal(t, "2", segs[1].Floor)
	assert.Equal(t, []string{"s2", "b2"}, segs[1].Vertices)

	require.Len(t, trans, 1)
	assert.Equal(t, Transition{
		FromVertex: "s1", ToVertex: "s2", FromFloor: "1", ToFloor: "2", Kind: TransitionStairs,
	}, trans[0])

	segs, trans = m.Segments([]string{"b2", "e2", "e1", "a1"})
	require.Len(t, segs, 2)
	require.Len(t, trans, 1)
	assert.Equal(t, TransitionElevator, trans[0].Kind)
	assert.Equal(t, "elevator", trans[0].Kind.String())

	segs, trans = m.Segments(nil)
	assert.Empty(t, segs)
	assert.Empty(t, trans)
}

func TestComponents(t *testing.T) {
	doc := twoFloorDoc()
	doc.Vertices = append(doc.Vertices, v("x", "2", 99, 99))
	m, report := New(doc, nil)
	assert.Equal(t, 2, report.Components)
	assert.Equal(t, 6, report.LargestComponent)

	comps := m.Components()
	require.Len(t, comps, 2)
	assert.Equal(t, []string{"x"}, comps[1])
}

func TestRegisterDefinitions(t *testing.T) {
	doc := twoFloorDoc()
	doc.Rooms["202"] = RoomRecord{Vertices: []string{"s2"}, Names: []string{"office"}}
	m, _ := New(doc, nil)

	g := geocoder.New(nil)
	assert.Equal(t, 3, m.RegisterDefinitions(g))

	office, ok := g.GetDefinitionFromName("Office")
	require.True(t, ok)
	assert.Equal(t, "201", office.Ref)
	assert.True(t, office.HasTag(geocoder.TagHandSanitizer))
	assert.Equal(t, []string{"201"}, office.AlternateNames)

	second, ok := g.GetDefinitionFromName("office (202)")
	require.True(t, ok)
	assert.Equal(t, "202", second.Ref)

	byKey, ok := g.GetDefinitionFromName("101")
	require.True(t, ok)
	assert.Equal(t, "101", byKey.Ref)

	d, err := g.GetClosestDefinition(geo.NewLocation(19, 1, "2"))
	require.NoError(t, err)
	assert.Equal(t, "201", d.Ref)
	require.Len(t, d.Location.Entrances(), 1)
	assert.Equal(t, "2", d.Location.Entrances()[0].Floor)
}

func TestDocumentRoundTrip(t *testing.T) {
	const src = `{
		"floors": [{"number": "1", "image": "1.svg"}],
		"vertices": [
			{"id": "a", "floor": "1", "location": [0, 0], "tags": ["stairs", "ramp"]},
			{"id": "b", "floor": "1", "location": [3, 4]}
		],
		"edges": [["a", "b"]],
		"rooms": {"100": {"vertices": ["b"], "outline": [[0,0],[1,0],[1,1],[0,0]], "names": ["closet"]}}
	}`
	doc, err := LoadDocument(strings.NewReader(src))
	require.NoError(t, err)

	m, report := New(doc, nil)
	require.NoError(t, report.Err())

	a, _ := m.Vertex("a")
	assert.True(t, a.HasTag(VertexTagStairs))
	assert.True(t, a.IsVertical())
	assert.Equal(t, []string{"ramp"}, a.RawTags)
	assert.Equal(t, []string{"stairs", "ramp"}, a.record().Tags)

	w, ok := m.Graph().Weight("a", "b")
	require.True(t, ok)
	assert.InDelta(t, 5.0, w, 1e-12)

	room, _ := m.Room("100")
	assert.Len(t, room.Outline, 4)

	var sb strings.Builder
	require.NoError(t, WriteDocument(&sb, doc))
	again, err := LoadDocument(strings.NewReader(sb.String()))
	require.NoError(t, err)
	assert.Equal(t, doc, again)

	_, err = LoadDocument(strings.NewReader("{"))
	require.Error(t, err)
}

func TestTitleCase(t *testing.T) {
	tests := []struct{ in, want string }{
		{"ece lab", "Ece Lab"},
		{"ECE lab", "ECE Lab"},
		{"", ""},
		{"a  b", "A  B"},
		{"élan", "Élan"},
	}
	for _, tt := range tests {
		if got := titleCase(tt.in); got != tt.want {
			t.Errorf("titleCase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUnreachableIsInfinite(t *testing.T) {
	doc := lineDoc()
	doc.Vertices = append(doc.Vertices, v("Z", "1", 1, 1))
	m, _ := New(doc, nil)
	tree, err := m.Graph().ShortestPaths("A")
	require.NoError(t, err)
	assert.True(t, math.IsInf(tree.Distance("Z"), 1))
}

func TestFindBestPathFromOffsets(t *testing.T) {
	m, _ := New(lineDoc(), nil)
	r2, _ := m.Room("R2")

	path, dist, err := m.FindBestPathFrom([]Start{{Vertex: "A"}, {Vertex: "B", Offset: 0.5}}, r2)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C"}, path)
	assert.InDelta(t, 4.5, dist, 1e-9)

	path, dist, err = m.FindBestPathFrom([]Start{{Vertex: "A"}, {Vertex: "B", Offset: 5}}, r2)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, path)
	assert.InDelta(t, 7.0, dist, 1e-9)

	_, _, err = m.FindBestPathFrom([]Start{{Vertex: "nope"}}, r2)
	require.ErrorIs(t, err, graph.ErrUnknownVertex)
}
