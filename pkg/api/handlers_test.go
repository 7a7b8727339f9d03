package api

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/paulmach/orb"

	"github.com/azybler/wayfinder/pkg/building"
	"github.com/azybler/wayfinder/pkg/geo"
	"github.com/azybler/wayfinder/pkg/geocoder"
	"github.com/azybler/wayfinder/pkg/routing"
)

// mockRouter implements routing.Router for testing.
type mockRouter struct {
	result *routing.RouteResult
	err    error
	gotLoc geo.Location
	gotTo  string
}

func (m *mockRouter) RouteRooms(ctx context.Context, from, to string) (*routing.RouteResult, error) {
	m.gotTo = to
	return m.result, m.err
}

func (m *mockRouter) RouteFromLocation(ctx context.Context, loc geo.Location, to string) (*routing.RouteResult, error) {
	m.gotLoc, m.gotTo = loc, to
	return m.result, m.err
}

func testGeocoder() *geocoder.Geocoder {
	gc := geocoder.New(nil)
	at := func(x, y float64, floor string) geo.LocationWithEntrances {
		return geo.NewLocationWithEntrances(geo.NewLocation(x, y, floor))
	}
	gc.AddDefinition(geocoder.NewDefinition("Lobby", at(0, 0, "1")))
	gc.AddDefinition(geocoder.NewDefinition("Lab", at(10, 10, "1"), "hs"))
	gc.AddDefinition(geocoder.NewDefinition("Library", at(0, 0, "2")))
	return gc
}

func post(h http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func TestHandleRoute_Success(t *testing.T) {
	mock := &mockRouter{
		result: &routing.RouteResult{
			From:          "100",
			To:            "210",
			Vertices:      []string{"a", "b", "c"},
			TotalDistance: 42.5,
			Segments: []building.Segment{
				{Floor: "1", Vertices: []string{"a", "b"}, Points: orb.LineString{{0, 0}, {1, 0}}},
				{Floor: "2", Vertices: []string{"c"}, Points: orb.LineString{{1, 0}}},
			},
			Transitions: []building.Transition{
				{FromVertex: "b", ToVertex: "c", FromFloor: "1", ToFloor: "2", Kind: building.TransitionElevator},
			},
		},
	}
	h := NewHandlers(mock, testGeocoder(), StatsResponse{}, nil)

	w := post(h.HandleRoute, "/api/v1/route", `{"from":"100","to":"210"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200. body: %s", w.Code, w.Body.String())
	}

	var resp RouteResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.TotalDistance != 42.5 {
		t.Errorf("TotalDistance = %f, want 42.5", resp.TotalDistance)
	}
	if len(resp.Segments) != 2 {
		t.Fatalf("Segments length = %d, want 2", len(resp.Segments))
	}
	if resp.Segments[0].Points[1] != [2]float64{1, 0} {
		t.Errorf("Segments[0].Points = %v", resp.Segments[0].Points)
	}
	if len(resp.Transitions) != 1 || resp.Transitions[0].Kind != "elevator" {
		t.Errorf("Transitions = %+v", resp.Transitions)
	}
	if resp.Snap != nil {
		t.Errorf("Snap = %+v, want nil", resp.Snap)
	}
}

func TestHandleRoute_InvalidJSON(t *testing.T) {
	h := NewHandlers(&mockRouter{}, testGeocoder(), StatsResponse{}, nil)

	w := post(h.HandleRoute, "/api/v1/route", "not json")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHandleRoute_MissingContentType(t *testing.T) {
	h := NewHandlers(&mockRouter{}, testGeocoder(), StatsResponse{}, nil)

	req := httptest.NewRequest("POST", "/api/v1/route", strings.NewReader(`{"from":"a","to":"b"}`))
	w := httptest.NewRecorder()
	h.HandleRoute(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHandleRoute_MissingField(t *testing.T) {
	h := NewHandlers(&mockRouter{}, testGeocoder(), StatsResponse{}, nil)

	w := post(h.HandleRoute, "/api/v1/route", `{"from":"100"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var resp ErrorResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Field != "to" {
		t.Errorf("field = %q, want to", resp.Field)
	}
}

func TestHandleRoute_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		want string
	}{
		{"unknown room", routing.ErrUnknownRoom, http.StatusNotFound, "unknown_room"},
		{"no route", routing.ErrNoRoute, http.StatusNotFound, "no_route_found"},
		{"timeout", context.DeadlineExceeded, http.StatusServiceUnavailable, "request_timeout"},
		{"canceled", context.Canceled, http.StatusServiceUnavailable, "request_timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandlers(&mockRouter{err: tt.err}, testGeocoder(), StatsResponse{}, nil)
			w := post(h.HandleRoute, "/api/v1/route", `{"from":"a","to":"b"}`)
			if w.Code != tt.code {
				t.Errorf("status = %d, want %d", w.Code, tt.code)
			}
			var resp ErrorResponse
			json.Unmarshal(w.Body.Bytes(), &resp)
			if resp.Error != tt.want {
				t.Errorf("error = %q, want %q", resp.Error, tt.want)
			}
		})
	}
}

func TestHandleRouteFromLocation(t *testing.T) {
	mock := &mockRouter{result: &routing.RouteResult{
		To:       "210",
		Vertices: []string{"a"},
		Snap:     &routing.SnapResult{From: "a", To: "b", Ratio: 0.25, Dist: 1.5, Point: orb.Point{2, 3}},
	}}
	h := NewHandlers(mock, testGeocoder(), StatsResponse{}, nil)

	w := post(h.HandleRouteFromLocation, "/api/v1/route/from-location",
		`{"location":{"floor":"2","x":4,"y":5},"to":"210"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200. body: %s", w.Code, w.Body.String())
	}
	if mock.gotLoc != geo.NewLocation(4, 5, "2") || mock.gotTo != "210" {
		t.Errorf("router got %v, %q", mock.gotLoc, mock.gotTo)
	}

	var resp RouteResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Snap == nil || resp.Snap.Point != [2]float64{2, 3} || resp.Snap.Distance != 1.5 {
		t.Errorf("Snap = %+v", resp.Snap)
	}
}

func TestHandleRouteFromLocation_Errors(t *testing.T) {
	h := NewHandlers(&mockRouter{err: routing.ErrPointTooFar}, testGeocoder(), StatsResponse{}, nil)
	w := post(h.HandleRouteFromLocation, "/api/v1/route/from-location",
		`{"location":{"floor":"1","x":4,"y":5},"to":"210"}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", w.Code)
	}

	w = post(h.HandleRouteFromLocation, "/api/v1/route/from-location",
		`{"location":{"x":4,"y":5},"to":"210"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing floor: status = %d, want 400", w.Code)
	}
}

func TestHandleClosest(t *testing.T) {
	h := NewHandlers(&mockRouter{}, testGeocoder(), StatsResponse{}, nil)

	tests := []struct {
		name string
		body string
		code int
		want string
	}{
		{"nearest on floor", `{"floor":"1","x":1,"y":1}`, http.StatusOK, "Lobby"},
		{"nearest with tag", `{"floor":"1","x":1,"y":1,"tag":"hs"}`, http.StatusOK, "Lab"},
		{"other floor", `{"floor":"2","x":9,"y":9}`, http.StatusOK, "Library"},
		{"tag absent on floor", `{"floor":"2","x":0,"y":0,"tag":"aed"}`, http.StatusNotFound, ""},
		{"unknown floor", `{"floor":"9","x":0,"y":0}`, http.StatusNotFound, ""},
		{"unknown tag", `{"floor":"1","x":0,"y":0,"tag":"teleporter"}`, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(h.HandleClosest, "/api/v1/closest", tt.body)
			if w.Code != tt.code {
				t.Fatalf("status = %d, want %d. body: %s", w.Code, tt.code, w.Body.String())
			}
			if tt.want == "" {
				return
			}
			var resp DefinitionJSON
			json.Unmarshal(w.Body.Bytes(), &resp)
			if resp.Name != tt.want {
				t.Errorf("name = %q, want %q", resp.Name, tt.want)
			}
			if len(resp.Entrances) != 1 || resp.Entrances[0] != resp.Center {
				t.Errorf("entrances = %+v, want the center", resp.Entrances)
			}
		})
	}
}

func TestHandleSearch(t *testing.T) {
	h := NewHandlers(&mockRouter{}, testGeocoder(), StatsResponse{}, nil)

	req := httptest.NewRequest("GET", "/api/v1/search?q=li", nil)
	w := httptest.NewRecorder()
	h.HandleSearch(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp SearchResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Results) != 1 || resp.Results[0].Name != "Library" {
		t.Errorf("results = %+v", resp.Results)
	}

	for _, q := range []string{"/api/v1/search", "/api/v1/search?q=l&limit=0", "/api/v1/search?q=l&limit=x"} {
		w := httptest.NewRecorder()
		h.HandleSearch(w, httptest.NewRequest("GET", q, nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", q, w.Code)
		}
	}
}

func TestHandleDeclutter(t *testing.T) {
	h := NewHandlers(&mockRouter{}, testGeocoder(), StatsResponse{}, nil)

	w := post(h.HandleDeclutter, "/api/v1/declutter",
		`{"labels":[{"id":"L1","box":[0,0,10,5]},{"id":"L2","box":[0,0,10,5]},{"id":"L3","box":[20,0,30,5]}]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200. body: %s", w.Code, w.Body.String())
	}
	var resp DeclutterResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.Visible["L1"] || resp.Visible["L2"] || !resp.Visible["L3"] {
		t.Errorf("visible = %v", resp.Visible)
	}
	if strings.Join(resp.VisibleIDs, ",") != "L1,L3" {
		t.Errorf("visible_ids = %v", resp.VisibleIDs)
	}
}

func TestHandleDeclutter_InvalidLabels(t *testing.T) {
	h := NewHandlers(&mockRouter{}, testGeocoder(), StatsResponse{}, nil)

	w := post(h.HandleDeclutter, "/api/v1/declutter", `{"labels":[{"id":"L1","box":[0,0,1,1]},{"box":[0,0,1,1]}]}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var resp ErrorResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error != "invalid_label" || resp.Field != "labels" {
		t.Errorf("error = %+v, want invalid_label on labels", resp)
	}
}

func TestCandidatesRejectsNonFiniteBox(t *testing.T) {
	_, err := candidates([]LabelJSON{
		{ID: "ok", Box: [4]float64{0, 0, 1, 1}},
		{ID: "bad", Box: [4]float64{0, math.NaN(), 1, math.Inf(1)}},
	})
	if err == nil || !strings.Contains(err.Error(), `"bad"`) {
		t.Errorf("err = %v, want an error naming label bad", err)
	}

	cands, err := candidates([]LabelJSON{{ID: "ok", Box: [4]float64{0, 0, 1, 2}}})
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if cands[0].Box.Max != (orb.Point{1, 2}) {
		t.Errorf("box = %v", cands[0].Box)
	}
}

func TestHandleHealth(t *testing.T) {
	h := NewHandlers(&mockRouter{}, testGeocoder(), StatsResponse{}, nil)

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()

	h.HandleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}

	var resp HealthResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Status != "ok" {
		t.Errorf("status = %q, want 'ok'", resp.Status)
	}
}

func TestHandleStats(t *testing.T) {
	stats := StatsResponse{Floors: 3, Vertices: 1200, Edges: 1500, Rooms: 240}
	h := NewHandlers(&mockRouter{}, testGeocoder(), stats, nil)

	req := httptest.NewRequest("GET", "/api/v1/stats", nil)
	w := httptest.NewRecorder()

	h.HandleStats(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}

	var resp StatsResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp != stats {
		t.Errorf("stats = %+v, want %+v", resp, stats)
	}
}
