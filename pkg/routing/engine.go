// Package routing answers route queries between rooms and from free
// locations to rooms on top of a building model.
package routing

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/exp/slog"

	"github.com/azybler/wayfinder/pkg/building"
	"github.com/azybler/wayfinder/pkg/geo"
	"github.com/azybler/wayfinder/pkg/geocoder"
)

// ErrUnknownRoom is returned when a room reference matches no room key or name.
var ErrUnknownRoom = errors.New("unknown room")

// ErrNoRoute is returned when no route exists between the two places.
var ErrNoRoute = building.ErrNoPathFound

// RouteResult is the output of a route query.
type RouteResult struct {
	From          string // source room key, empty for location queries
	To            string // destination room key
	Vertices      []string
	TotalDistance float64
	Segments      []building.Segment
	Transitions   []building.Transition
	// Snap is set for location queries.
	Snap *SnapResult
}

// Router is the interface for route queries.
type Router interface {
	RouteRooms(ctx context.Context, from, to string) (*RouteResult, error)
	RouteFromLocation(ctx context.Context, loc geo.Location, to string) (*RouteResult, error)
}

// Options tune an Engine.
type Options struct {
	SnapRadius float64
	GridCell   float64
	Logger     *slog.Logger
}

// Engine implements Router over a building model.
type Engine struct {
	model    *building.Model
	geocoder *geocoder.Geocoder
	snapper  *Snapper
	logger   *slog.Logger
}

// NewEngine creates a routing engine. gc may be nil; it is only used to
// resolve room references by a case-insensitive or alternate name.
func NewEngine(m *building.Model, gc *geocoder.Geocoder, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		model:    m,
		geocoder: gc,
		snapper:  NewSnapper(m, opts.SnapRadius, opts.GridCell),
		logger:   logger,
	}
}

// Snapper exposes the engine's snapper.
func (e *Engine) Snapper() *Snapper { return e.snapper }

// ResolveRooms returns the rooms ref may mean: the room with key ref, else
// every room with the exact name ref, else the room behind the geocoder
// definition named ref.
func (e *Engine) ResolveRooms(ref string) ([]*building.Room, error) {
	if r, ok := e.model.Room(ref); ok {
		return []*building.Room{r}, nil
	}
	if rs := e.model.RoomsFromName(ref); len(rs) > 0 {
		return rs, nil
	}
	if e.geocoder != nil {
		for _, d := range e.geocoder.GetDefinitionsFromName(ref) {
			if r, ok := e.model.Room(d.Ref); ok {
				return []*building.Room{r}, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownRoom, ref)
}

// RouteRooms computes the shortest route between two rooms. When a
// reference names several rooms, every one is considered and the shortest
// route wins.
func (e *Engine) RouteRooms(ctx context.Context, from, to string) (*RouteResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	srcs, err := e.ResolveRooms(from)
	if err != nil {
		return nil, err
	}
	dsts, err := e.ResolveRooms(to)
	if err != nil {
		return nil, err
	}

	var (
		starts []building.Start
		owner  = make(map[string]string)
	)
	for _, r := range srcs {
		for _, v := range r.Entrances {
			if _, dup := owner[v]; dup {
				continue
			}
			owner[v] = r.Key
			starts = append(starts, building.Start{Vertex: v})
		}
	}

	res, err := e.best(starts, dsts)
	if err != nil {
		return nil, err
	}
	res.From = owner[res.Vertices[0]]
	e.logger.Debug("room route", "from", res.From, "to", res.To, "distance", res.TotalDistance)
	return res, nil
}

// RouteFromLocation snaps loc to the nearest walkway on its floor and routes
// from there to the room to. Both ends of the snapped edge are tried, each
// with the distance along the edge already covered.
func (e *Engine) RouteFromLocation(ctx context.Context, loc geo.Location, to string) (*RouteResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap, err := e.snapper.Snap(loc)
	if err != nil {
		return nil, err
	}
	dsts, err := e.ResolveRooms(to)
	if err != nil {
		return nil, err
	}

	u, _ := e.model.Vertex(snap.From)
	v, _ := e.model.Vertex(snap.To)
	edge := geo.Distance(u.Location, v.Location)
	starts := []building.Start{
		{Vertex: snap.From, Offset: snap.Ratio * edge},
		{Vertex: snap.To, Offset: (1 - snap.Ratio) * edge},
	}

	res, err := e.best(starts, dsts)
	if err != nil {
		return nil, err
	}
	res.Snap = &snap
	e.logger.Debug("location route", "at", loc.String(), "to", res.To, "distance", res.TotalDistance)
	return res, nil
}

// best picks the shortest path from starts to any of dsts. Ties go to the
// earlier destination.
func (e *Engine) best(starts []building.Start, dsts []*building.Room) (*RouteResult, error) {
	var (
		res     *RouteResult
		lastErr error
	)
	for _, d := range dsts {
		path, dist, err := e.model.FindBestPathFrom(starts, d)
		if err != nil {
			lastErr = err
			continue
		}
		if res == nil || dist < res.TotalDistance {
			res = &RouteResult{To: d.Key, Vertices: path, TotalDistance: dist}
		}
	}
	if res == nil {
		if lastErr == nil {
			lastErr = ErrNoRoute
		}
		return nil, lastErr
	}
	res.Segments, res.Transitions = e.model.Segments(res.Vertices)
	return res, nil
}
