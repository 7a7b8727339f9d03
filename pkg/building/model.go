// Package building turns a map document into a routable building: a walkway
// graph over floors, rooms with entrance vertices, and room-to-room paths
// split into per-floor segments.
//
// A Model is built once by New and is read-only afterwards, so it may be
// shared between goroutines.
package building

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"golang.org/x/exp/slog"

	"github.com/azybler/wayfinder/pkg/graph"
)

var (
	// ErrNoPathFound is returned when no entrance of the source room reaches
	// any entrance of the destination room.
	ErrNoPathFound = errors.New("building: no path found")
	// ErrUnknownRoomVertex marks a room entrance that names no vertex.
	ErrUnknownRoomVertex = errors.New("building: room references unknown vertex")
	// ErrRoomUnplaceable marks a room with neither a known entrance nor a center.
	ErrRoomUnplaceable = errors.New("building: room has no entrance and no center")
)

// Model is a building ready for routing.
type Model struct {
	graph  *graph.Graph[string, Vertex]
	rooms  map[string]*Room
	keys   []string
	byName map[string][]*Room
	floors []FloorInfo
	logger *slog.Logger
}

// BuildReport collects every problem found while building a Model.
type BuildReport struct {
	Problems []error

	Vertices     int
	Edges        int
	Rooms        int
	DroppedRooms int
	Components   int
	// LargestComponent is the vertex count of the biggest connected component.
	LargestComponent int
}

// Err joins all problems, or returns nil for a clean build.
func (r *BuildReport) Err() error {
	return errors.Join(r.Problems...)
}

// New builds a Model from doc. Bad records are logged, skipped and listed in
// the report; they never abort the build. A nil logger uses slog.Default().
func New(doc *Document, logger *slog.Logger) (*Model, *BuildReport) {
	if logger == nil {
		logger = slog.Default()
	}
	report := &BuildReport{}

	vertices := make([]graph.VertexRecord[string, Vertex], len(doc.Vertices))
	for i, rec := range doc.Vertices {
		vertices[i] = graph.VertexRecord[string, Vertex]{ID: rec.ID, Payload: newVertex(rec)}
	}
	edges := make([]graph.EdgeRecord[string], len(doc.Edges))
	for i, e := range doc.Edges {
		edges[i] = graph.EdgeRecord[string]{From: e[0], To: e[1]}
	}

	g, err := graph.Build(vertices, edges, func(from, to Vertex) float64 {
		return planar.Distance(from.Location, to.Location)
	})
	if err != nil {
		for _, p := range unjoin(err) {
			logger.Warn("skipping map record", "error", p)
			report.Problems = append(report.Problems, p)
		}
	}

	m := &Model{
		graph:  g,
		rooms:  make(map[string]*Room, len(doc.Rooms)),
		byName: make(map[string][]*Room),
		floors: append([]FloorInfo(nil), doc.Floors...),
		logger: logger,
	}

	keys := make([]string, 0, len(doc.Rooms))
	for k := range doc.Rooms {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		room, problems := m.newRoom(key, doc.Rooms[key])
		for _, p := range problems {
			logger.Warn("room problem", "room", key, "error", p)
			report.Problems = append(report.Problems, p)
		}
		if room == nil {
			report.DroppedRooms++
			continue
		}
		m.rooms[key] = room
		m.keys = append(m.keys, key)
		for _, n := range room.Names {
			m.byName[n] = append(m.byName[n], room)
		}
	}

	comps := g.Components()
	report.Vertices = g.Len()
	report.Edges = g.NumArcs() / 2
	report.Rooms = len(m.rooms)
	report.Components = len(comps)
	if len(comps) > 0 {
		report.LargestComponent = len(comps[0])
	}

	logger.Info("building model ready",
		"vertices", report.Vertices,
		"edges", report.Edges,
		"rooms", report.Rooms,
		"components", report.Components,
		"problems", len(report.Problems),
	)
	return m, report
}

func (m *Model) newRoom(key string, rec RoomRecord) (*Room, []error) {
	var problems []error
	room := &Room{
		Key:         key,
		Floor:       rec.Floor,
		Names:       append([]string(nil), rec.Names...),
		Tags:        append([]string(nil), rec.Tags...),
		Description: rec.Description,
	}
	if rec.Center != nil {
		c := orb.Point(*rec.Center)
		room.Center = &c
	}
	if len(rec.Outline) > 0 {
		room.Outline = make(orb.Ring, len(rec.Outline))
		for i, p := range rec.Outline {
			room.Outline[i] = orb.Point(p)
		}
	}

	for _, id := range rec.Vertices {
		v, ok := m.graph.Vertex(id)
		if !ok {
			problems = append(problems, fmt.Errorf("room %s: %w: %s", key, ErrUnknownRoomVertex, id))
			continue
		}
		if len(room.Entrances) == 0 {
			room.entrancePoint = v.Location
			if room.Floor == "" {
				room.Floor = v.Floor
			}
		}
		room.Entrances = append(room.Entrances, id)
	}

	if len(room.Entrances) == 0 && (room.Center == nil || room.Floor == "") {
		problems = append(problems, fmt.Errorf("room %s: %w", key, ErrRoomUnplaceable))
		return nil, problems
	}
	return room, problems
}

// unjoin flattens an errors.Join result back into its parts.
func unjoin(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}

// Graph exposes the walkway graph. Callers must not mutate it.
func (m *Model) Graph() *graph.Graph[string, Vertex] { return m.graph }

// Vertex looks up a walkway vertex.
func (m *Model) Vertex(id string) (Vertex, bool) { return m.graph.Vertex(id) }

// Floors returns the floors in document order.
func (m *Model) Floors() []FloorInfo {
	return append([]FloorInfo(nil), m.floors...)
}

// Room looks up a room by key.
func (m *Model) Room(key string) (*Room, bool) {
	r, ok := m.rooms[key]
	return r, ok
}

// RoomsFromName returns every room that uses name, in key order.
func (m *Model) RoomsFromName(name string) []*Room {
	return append([]*Room(nil), m.byName[name]...)
}

// Rooms returns all rooms in key order.
func (m *Model) Rooms() []*Room {
	out := make([]*Room, len(m.keys))
	for i, k := range m.keys {
		out[i] = m.rooms[k]
	}
	return out
}

// RoomsOnFloor returns the rooms placed on floor, in key order.
func (m *Model) RoomsOnFloor(floor string) []*Room {
	var out []*Room
	for _, k := range m.keys {
		if r := m.rooms[k]; r.Floor == floor {
			out = append(out, r)
		}
	}
	return out
}

// Components returns the connected components of the walkway graph,
// largest first.
func (m *Model) Components() [][]string { return m.graph.Components() }

// Start is a vertex a path may begin at, with the distance already covered
// before reaching it.
type Start struct {
	Vertex string
	Offset float64
}

// FindBestPath returns the shortest walkway path between any entrance of src
// and any entrance of dst, with its length.
//
// One shortest-path tree is grown per source entrance, and each tree is
// scanned for every destination entrance. A later pair replaces the current
// best only when strictly shorter, so ties go to the first pair in entrance
// order.
func (m *Model) FindBestPath(src, dst *Room) ([]string, float64, error) {
	starts := make([]Start, len(src.Entrances))
	for i, e := range src.Entrances {
		starts[i] = Start{Vertex: e}
	}
	return m.FindBestPathFrom(starts, dst)
}

// FindBestPathFrom is FindBestPath with an explicit set of start vertices.
// A start's offset is added to every distance measured from it.
func (m *Model) FindBestPathFrom(starts []Start, dst *Room) ([]string, float64, error) {
	var (
		best     *graph.ShortestPathTree[string]
		bestDest string
		bestDist = math.Inf(1)
	)
	for _, s := range starts {
		tree, err := m.graph.ShortestPaths(s.Vertex)
		if err != nil {
			return nil, 0, err
		}
		for _, e := range dst.Entrances {
			if d := s.Offset + tree.Distance(e); d < bestDist {
				best, bestDest, bestDist = tree, e, d
			}
		}
	}
	if best == nil {
		return nil, 0, fmt.Errorf("%w: to room %s", ErrNoPathFound, dst.Key)
	}

	path, ok := best.PathTo(bestDest)
	if !ok {
		return nil, 0, fmt.Errorf("%w: to room %s", ErrNoPathFound, dst.Key)
	}
	return path, bestDist, nil
}
