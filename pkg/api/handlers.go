package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"golang.org/x/exp/slog"

	"github.com/azybler/wayfinder/pkg/building"
	"github.com/azybler/wayfinder/pkg/declutter"
	"github.com/azybler/wayfinder/pkg/geo"
	"github.com/azybler/wayfinder/pkg/geocoder"
	"github.com/azybler/wayfinder/pkg/routing"
)

const (
	maxSmallBody   = 4 << 10
	maxLabelBody   = 1 << 20
	maxLabels      = 5000
	defaultResults = 10
	maxResults     = 100
)

// Geocoder is the part of the geocoder the handlers use.
type Geocoder interface {
	GetClosestMatching(loc geo.Location, match func(geocoder.Definition) bool) (geocoder.Definition, error)
	Search(prefix string, limit int) []geocoder.SearchResult
}

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	router   routing.Router
	geocoder Geocoder
	stats    StatsResponse
	logger   *slog.Logger
}

// NewHandlers creates handlers. A nil logger uses slog.Default().
func NewHandlers(router routing.Router, gc Geocoder, stats StatsResponse, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		router:   router,
		geocoder: gc,
		stats:    stats,
		logger:   logger,
	}
}

// HandleRoute handles POST /api/v1/route.
func (h *Handlers) HandleRoute(w http.ResponseWriter, r *http.Request) {
	var req RouteRequest
	if !decodeJSON(w, r, maxSmallBody, &req) {
		return
	}
	if strings.TrimSpace(req.From) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "from")
		return
	}
	if strings.TrimSpace(req.To) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "to")
		return
	}

	result, err := h.router.RouteRooms(r.Context(), req.From, req.To)
	if err != nil {
		h.writeRouteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, routeResponse(result))
}

// HandleRouteFromLocation handles POST /api/v1/route/from-location.
func (h *Handlers) HandleRouteFromLocation(w http.ResponseWriter, r *http.Request) {
	var req RouteFromLocationRequest
	if !decodeJSON(w, r, maxSmallBody, &req) {
		return
	}
	if err := validateLocation(req.Location); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_location", "location")
		return
	}
	if strings.TrimSpace(req.To) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "to")
		return
	}

	loc := geo.NewLocation(req.Location.X, req.Location.Y, req.Location.Floor)
	result, err := h.router.RouteFromLocation(r.Context(), loc, req.To)
	if err != nil {
		h.writeRouteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, routeResponse(result))
}

func (h *Handlers) writeRouteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, routing.ErrUnknownRoom):
		writeError(w, http.StatusNotFound, "unknown_room", "")
	case errors.Is(err, routing.ErrNoRoute):
		writeError(w, http.StatusNotFound, "no_route_found", "")
	case errors.Is(err, routing.ErrPointTooFar):
		writeError(w, http.StatusUnprocessableEntity, "point_too_far_from_walkway", "")
	case errors.Is(err, routing.ErrNoWalkwayOnFloor):
		writeError(w, http.StatusUnprocessableEntity, "no_walkway_on_floor", "")
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "request_timeout", "")
	default:
		h.logger.Error("route failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "")
	}
}

// HandleClosest handles POST /api/v1/closest.
func (h *Handlers) HandleClosest(w http.ResponseWriter, r *http.Request) {
	var req ClosestRequest
	if !decodeJSON(w, r, maxSmallBody, &req) {
		return
	}
	if err := validateLocation(req.LocationJSON); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_location", "")
		return
	}

	var match func(geocoder.Definition) bool
	if req.Tag != "" {
		tag, ok := geocoder.ParseTag(req.Tag)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_tag", "tag")
			return
		}
		match = geocoder.WithTag(tag)
	}

	loc := geo.NewLocation(req.X, req.Y, req.Floor)
	def, err := h.geocoder.GetClosestMatching(loc, match)
	switch {
	case errors.Is(err, geocoder.ErrNoIndexForFloor):
		writeError(w, http.StatusNotFound, "no_index_for_floor", "floor")
	case errors.Is(err, geocoder.ErrNoDefinitionOnFloor):
		writeError(w, http.StatusNotFound, "no_definition_on_floor", "")
	case err != nil:
		h.logger.Error("closest lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "")
	default:
		writeJSON(w, http.StatusOK, definitionJSON(def))
	}
}

// HandleSearch handles GET /api/v1/search?q=prefix&limit=n.
func (h *Handlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "q")
		return
	}
	limit := defaultResults
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > maxResults {
			writeError(w, http.StatusBadRequest, "invalid_request", "limit")
			return
		}
		limit = n
	}

	resp := SearchResponse{Results: []SearchResultJSON{}}
	for _, res := range h.geocoder.Search(q, limit) {
		resp.Results = append(resp.Results, SearchResultJSON{Name: res.Name, Definition: definitionJSON(res.Definition)})
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleDeclutter handles POST /api/v1/declutter. Every request gets its
// own Declutterer.
func (h *Handlers) HandleDeclutter(w http.ResponseWriter, r *http.Request) {
	var req DeclutterRequest
	if !decodeJSON(w, r, maxLabelBody, &req) {
		return
	}
	if len(req.Labels) > maxLabels {
		writeError(w, http.StatusBadRequest, "too_many_labels", "labels")
		return
	}

	cands, err := candidates(req.Labels)
	if err != nil {
		h.logger.Debug("rejected labels", "error", err)
		writeError(w, http.StatusBadRequest, "invalid_label", "labels")
		return
	}

	d := declutter.New(h.logger)
	visible := d.Declutter(cands)
	ids := d.VisibleIDs()
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, DeclutterResponse{Visible: visible, VisibleIDs: ids})
}

// candidates converts labels to declutter input. Every label needs an id
// and a finite box.
func candidates(labels []LabelJSON) ([]declutter.Candidate, error) {
	out := make([]declutter.Candidate, len(labels))
	for i, l := range labels {
		if l.ID == "" {
			return nil, fmt.Errorf("label %d: missing id", i)
		}
		for _, v := range l.Box {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("label %q: box %v is not finite", l.ID, l.Box)
			}
		}
		out[i] = declutter.Candidate{
			ID:  l.ID,
			Box: orb.Bound{Min: orb.Point{l.Box[0], l.Box[1]}, Max: orb.Point{l.Box[2], l.Box[3]}},
		}
	}
	return out, nil
}

// HandleHealth handles GET /api/v1/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// HandleStats handles GET /api/v1/stats.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.stats)
}

// decodeJSON enforces the content type and a body limit, then decodes into
// v. It writes the error response itself and reports whether to continue.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) bool {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return false
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return false
	}
	return true
}

func validateLocation(l LocationJSON) error {
	if math.IsNaN(l.X) || math.IsNaN(l.Y) || math.IsInf(l.X, 0) || math.IsInf(l.Y, 0) {
		return errors.New("coordinates must be finite numbers")
	}
	if strings.TrimSpace(l.Floor) == "" {
		return errors.New("floor must be set")
	}
	return nil
}

func routeResponse(res *routing.RouteResult) RouteResponse {
	resp := RouteResponse{
		From:          res.From,
		To:            res.To,
		TotalDistance: res.TotalDistance,
		Vertices:      res.Vertices,
		Segments:      make([]SegmentJSON, 0, len(res.Segments)),
		Transitions:   make([]TransitionJSON, 0, len(res.Transitions)),
	}
	for _, s := range res.Segments {
		pts := make([][2]float64, len(s.Points))
		for i, p := range s.Points {
			pts[i] = p
		}
		resp.Segments = append(resp.Segments, SegmentJSON{Floor: s.Floor, Vertices: s.Vertices, Points: pts})
	}
	for _, t := range res.Transitions {
		resp.Transitions = append(resp.Transitions, transitionJSON(t))
	}
	if res.Snap != nil {
		resp.Snap = &SnapJSON{
			From:     res.Snap.From,
			To:       res.Snap.To,
			Ratio:    res.Snap.Ratio,
			Distance: res.Snap.Dist,
			Point:    res.Snap.Point,
		}
	}
	return resp
}

func transitionJSON(t building.Transition) TransitionJSON {
	return TransitionJSON{
		FromVertex: t.FromVertex,
		ToVertex:   t.ToVertex,
		FromFloor:  t.FromFloor,
		ToFloor:    t.ToFloor,
		Kind:       t.Kind.String(),
	}
}

func locationJSON(l geo.Location) LocationJSON {
	return LocationJSON{Floor: l.Floor, X: l.Point[0], Y: l.Point[1]}
}

func definitionJSON(d geocoder.Definition) DefinitionJSON {
	out := DefinitionJSON{
		Name:           d.Name,
		AlternateNames: d.AlternateNames,
		Description:    d.Description,
		Ref:            d.Ref,
		Center:         locationJSON(d.Center()),
	}
	for _, t := range d.Tags {
		out.Tags = append(out.Tags, t.String())
	}
	out.Tags = append(out.Tags, d.RawTags...)
	for _, e := range d.Location.Entrances() {
		out.Entrances = append(out.Entrances, locationJSON(e))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, field string) {
	writeJSON(w, status, ErrorResponse{Error: code, Field: field})
}
