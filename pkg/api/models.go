package api

// LocationJSON is a point on a floor.
type LocationJSON struct {
	Floor string  `json:"floor"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// RouteRequest is the JSON body for POST /api/v1/route. From and To are room
// keys or names.
type RouteRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// RouteFromLocationRequest is the JSON body for POST /api/v1/route/from-location.
type RouteFromLocationRequest struct {
	Location LocationJSON `json:"location"`
	To       string       `json:"to"`
}

// RouteResponse is the JSON response for a successful route query.
type RouteResponse struct {
	From          string           `json:"from,omitempty"`
	To            string           `json:"to"`
	TotalDistance float64          `json:"total_distance"`
	Vertices      []string         `json:"vertices"`
	Segments      []SegmentJSON    `json:"segments"`
	Transitions   []TransitionJSON `json:"transitions"`
	Snap          *SnapJSON        `json:"snap,omitempty"`
}

// SegmentJSON is the part of a route on one floor.
type SegmentJSON struct {
	Floor    string       `json:"floor"`
	Vertices []string     `json:"vertices"`
	Points   [][2]float64 `json:"points"`
}

// TransitionJSON is a floor change.
type TransitionJSON struct {
	FromVertex string `json:"from_vertex"`
	ToVertex   string `json:"to_vertex"`
	FromFloor  string `json:"from_floor"`
	ToFloor    string `json:"to_floor"`
	Kind       string `json:"kind"`
}

// SnapJSON describes where a location query joined the walkway graph.
type SnapJSON struct {
	From     string     `json:"from"`
	To       string     `json:"to"`
	Ratio    float64    `json:"ratio"`
	Distance float64    `json:"distance"`
	Point    [2]float64 `json:"point"`
}

// ClosestRequest is the JSON body for POST /api/v1/closest. Tag optionally
// restricts the result to open definitions carrying that tag.
type ClosestRequest struct {
	LocationJSON
	Tag string `json:"tag,omitempty"`
}

// DefinitionJSON is a point of interest.
type DefinitionJSON struct {
	Name           string         `json:"name"`
	AlternateNames []string       `json:"alternate_names,omitempty"`
	Description    string         `json:"description,omitempty"`
	Tags           []string       `json:"tags,omitempty"`
	Ref            string         `json:"ref,omitempty"`
	Center         LocationJSON   `json:"center"`
	Entrances      []LocationJSON `json:"entrances"`
}

// SearchResultJSON is one match of GET /api/v1/search.
type SearchResultJSON struct {
	Name       string         `json:"name"`
	Definition DefinitionJSON `json:"definition"`
}

// SearchResponse is the JSON response for GET /api/v1/search.
type SearchResponse struct {
	Results []SearchResultJSON `json:"results"`
}

// LabelJSON is one label box, [minX, minY, maxX, maxY] in screen space.
type LabelJSON struct {
	ID  string     `json:"id"`
	Box [4]float64 `json:"box"`
}

// DeclutterRequest is the JSON body for POST /api/v1/declutter. Labels are
// listed in priority order.
type DeclutterRequest struct {
	Labels []LabelJSON `json:"labels"`
}

// DeclutterResponse is the JSON response for POST /api/v1/declutter.
type DeclutterResponse struct {
	Visible    map[string]bool `json:"visible"`
	VisibleIDs []string        `json:"visible_ids"`
}

// ErrorResponse is the JSON response for errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// StatsResponse is the JSON response for GET /api/v1/stats.
type StatsResponse struct {
	Floors      int `json:"floors"`
	Vertices    int `json:"vertices"`
	Edges       int `json:"edges"`
	Rooms       int `json:"rooms"`
	Definitions int `json:"definitions"`
	Components  int `json:"components"`
}

// HealthResponse is the JSON response for GET /api/v1/health.
type HealthResponse struct {
	Status string `json:"status"`
}
