package routing

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"

	"github.com/azybler/wayfinder/pkg/building"
	"github.com/azybler/wayfinder/pkg/geo"
)

var (
	// ErrPointTooFar is returned when the query point is too far from any walkway.
	ErrPointTooFar = errors.New("point too far from walkway")
	// ErrNoWalkwayOnFloor is returned when a floor has no walkway edges at all.
	ErrNoWalkwayOnFloor = errors.New("no walkway on floor")
)

// Default snapping parameters, in map units.
const (
	DefaultSnapRadius = 50.0
	DefaultGridCell   = 25.0
)

// MaxSnapReach bounds how many cells a snap scans in each direction. A
// cell size below SnapRadius/MaxSnapReach is raised to that value.
const MaxSnapReach = 8

// SnapResult represents a point snapped to a walkway edge.
type SnapResult struct {
	From  string    // first endpoint of the edge
	To    string    // second endpoint of the edge
	Floor string    // floor of both endpoints
	Ratio float64   // 0.0 = at From, 1.0 = at To
	Dist  float64   // distance from query point to snapped point
	Point orb.Point // snapped point on the edge
}

// cellKey packs two int32 cell indices into a single uint64 map key.
func cellKey(xIdx, yIdx int32) uint64 {
	return uint64(uint32(xIdx))<<32 | uint64(uint32(yIdx))
}

// cellEdge stores a cell key and edge data in a flat sortable structure.
type cellEdge struct {
	key  uint64
	from string
	to   string
}

// floorGrid holds the edges of one floor sorted by cell key.
type floorGrid struct {
	edges []cellEdge
}

// Snapper provides nearest-walkway snapping using a flat sorted grid index
// per floor. Edges between floors (stairs, elevators) are never snapped to.
type Snapper struct {
	floors   map[string]*floorGrid
	model    *building.Model
	cellSize float64
	maxDist  float64
}

// NewSnapper builds the per-floor grid index from the model's walkway edges.
// Non-positive parameters fall back to the defaults.
func NewSnapper(m *building.Model, maxDist, cellSize float64) *Snapper {
	if maxDist <= 0 {
		maxDist = DefaultSnapRadius
	}
	if cellSize <= 0 {
		cellSize = DefaultGridCell
	}
	if lo := maxDist / MaxSnapReach; cellSize < lo {
		cellSize = lo
	}
	s := &Snapper{
		floors:   make(map[string]*floorGrid),
		model:    m,
		cellSize: cellSize,
		maxDist:  maxDist,
	}

	g := m.Graph()
	for _, id := range g.Vertices() {
		u, _ := g.Vertex(id)
		for _, arc := range g.Arcs(id) {
			v, _ := g.Vertex(arc.To)
			if u.Floor != v.Floor {
				continue
			}
			// Undirected edges are stored twice; index each once.
			if _, back := g.Weight(arc.To, id); back && arc.To < id {
				continue
			}

			xLo, yLo := s.cell(orb.Point{math.Min(u.Location[0], v.Location[0]), math.Min(u.Location[1], v.Location[1])})
			xHi, yHi := s.cell(orb.Point{math.Max(u.Location[0], v.Location[0]), math.Max(u.Location[1], v.Location[1])})

			fg, ok := s.floors[u.Floor]
			if !ok {
				fg = &floorGrid{}
				s.floors[u.Floor] = fg
			}
			for x := xLo; x <= xHi; x++ {
				for y := yLo; y <= yHi; y++ {
					fg.edges = append(fg.edges, cellEdge{key: cellKey(x, y), from: id, to: arc.To})
				}
			}
		}
	}

	for _, fg := range s.floors {
		sort.SliceStable(fg.edges, func(i, j int) bool {
			return fg.edges[i].key < fg.edges[j].key
		})
	}
	return s
}

// cell returns the integer cell coordinates for a point.
func (s *Snapper) cell(p orb.Point) (xIdx, yIdx int32) {
	return int32(math.Floor(p[0] / s.cellSize)), int32(math.Floor(p[1] / s.cellSize))
}

// cellRange returns the slice of edges for the given cell key using binary search.
func (fg *floorGrid) cellRange(key uint64) []cellEdge {
	lo := sort.Search(len(fg.edges), func(i int) bool {
		return fg.edges[i].key >= key
	})
	if lo >= len(fg.edges) || fg.edges[lo].key != key {
		return nil
	}
	hi := sort.Search(len(fg.edges), func(i int) bool {
		return fg.edges[i].key > key
	})
	return fg.edges[lo:hi]
}

// Snap finds the nearest walkway edge to loc on loc's floor.
func (s *Snapper) Snap(loc geo.Location) (SnapResult, error) {
	fg, ok := s.floors[loc.Floor]
	if !ok {
		return SnapResult{}, fmt.Errorf("%w: %q", ErrNoWalkwayOnFloor, loc.Floor)
	}

	cx, cy := s.cell(loc.Point)
	reach := int32(math.Ceil(s.maxDist / s.cellSize))

	bestDist := math.Inf(1)
	var best SnapResult

	for dx := -reach; dx <= reach; dx++ {
		for dy := -reach; dy <= reach; dy++ {
			for _, ce := range fg.cellRange(cellKey(cx+dx, cy+dy)) {
				u, _ := s.model.Vertex(ce.from)
				v, _ := s.model.Vertex(ce.to)

				d, ratio := geo.PointToSegmentDist(loc.Point, u.Location, v.Location)
				if d < bestDist {
					bestDist = d
					best = SnapResult{
						From:  ce.from,
						To:    ce.to,
						Floor: loc.Floor,
						Ratio: ratio,
						Dist:  d,
						Point: orb.Point{
							u.Location[0] + ratio*(v.Location[0]-u.Location[0]),
							u.Location[1] + ratio*(v.Location[1]-u.Location[1]),
						},
					}
				}
			}
		}
	}

	if bestDist > s.maxDist {
		return SnapResult{}, ErrPointTooFar
	}
	return best, nil
}
