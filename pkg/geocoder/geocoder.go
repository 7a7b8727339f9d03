// Package geocoder resolves building locations and names to points of
// interest.
//
// A Geocoder is an explicitly constructed value; callers pass it to
// whichever component needs it. Definitions are added during a build phase
// and the geocoder is read-only afterwards.
package geocoder

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/paulmach/orb"
	"golang.org/x/exp/slog"

	"github.com/azybler/wayfinder/pkg/geo"
	"github.com/azybler/wayfinder/pkg/spatial"
)

var (
	// ErrNoIndexForFloor is returned when a floor never received a definition.
	ErrNoIndexForFloor = errors.New("geocoder: no index for floor")
	// ErrNoDefinitionOnFloor is returned when a floor index exists but no
	// definition on it satisfies the query.
	ErrNoDefinitionOnFloor = errors.New("geocoder: no definition on floor")
)

// Geocoder indexes definitions by floor-aware position and by name.
type Geocoder struct {
	index  *spatial.Index[*Definition]
	byKey  map[string]*Definition
	byName map[string][]*Definition
	order  []*Definition
	logger *slog.Logger
}

// New creates an empty geocoder. A nil logger uses slog.Default().
func New(logger *slog.Logger) *Geocoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Geocoder{
		index:  spatial.NewIndex[*Definition](),
		byKey:  make(map[string]*Definition),
		byName: make(map[string][]*Definition),
		logger: logger,
	}
}

// AddDefinition registers def. It returns false, leaving the geocoder
// unchanged, when an equivalent definition is already registered: same name
// ignoring case and spacing, or for unnamed definitions the same floor and
// center.
//
// On success the center goes into both the per-floor nearest-neighbour index
// and the building-wide bounding-box index.
func (g *Geocoder) AddDefinition(def Definition) bool {
	key := def.key()
	if _, dup := g.byKey[key]; dup {
		g.logger.Debug("duplicate definition skipped", "name", def.Name, "key", key)
		return false
	}
	if len(def.RawTags) > 0 {
		g.logger.Debug("definition has unrecognised tags", "name", def.Name, "tags", def.RawTags)
	}

	d := def
	g.byKey[key] = &d
	g.order = append(g.order, &d)
	for _, n := range d.Names() {
		nn := normalizeName(n)
		g.byName[nn] = append(g.byName[nn], &d)
	}

	c := d.Location.Center
	g.index.Insert(c.Floor, c.Point, &d)
	return true
}

// Len returns the number of registered definitions.
func (g *Geocoder) Len() int { return len(g.order) }

// Floors returns the floors that have at least one definition, in the order
// they were first seen.
func (g *Geocoder) Floors() []string { return g.index.Partitions() }

// Definitions returns every definition in registration order.
func (g *Geocoder) Definitions() []Definition {
	out := make([]Definition, len(g.order))
	for i, d := range g.order {
		out[i] = *d
	}
	return out
}

// GetClosestDefinition returns the definition on loc's floor whose center is
// nearest to loc. Definitions on other floors are never considered.
func (g *Geocoder) GetClosestDefinition(loc geo.Location) (Definition, error) {
	return g.GetClosestMatching(loc, nil)
}

// GetClosestMatching is GetClosestDefinition restricted to definitions
// accepted by match. A nil match accepts everything.
func (g *Geocoder) GetClosestMatching(loc geo.Location, match func(Definition) bool) (Definition, error) {
	var accept func(*Definition) bool
	if match != nil {
		accept = func(d *Definition) bool { return match(*d) }
	}

	hits, err := g.index.KNearest(loc.Floor, loc.Point, 1, accept)
	if err != nil {
		if errors.Is(err, spatial.ErrNoPartition) {
			return Definition{}, fmt.Errorf("%w: %q", ErrNoIndexForFloor, loc.Floor)
		}
		return Definition{}, err
	}
	if len(hits) == 0 {
		return Definition{}, fmt.Errorf("%w: %q", ErrNoDefinitionOnFloor, loc.Floor)
	}
	return *hits[0].Payload, nil
}

// WithTag returns a match function for GetClosestMatching that accepts open
// definitions carrying tag.
func WithTag(tag Tag) func(Definition) bool {
	return func(d Definition) bool {
		return d.HasTag(tag) && !d.HasTag(TagClosed)
	}
}

// GetDefinitionFromName looks a definition up by its primary or an alternate
// name, ignoring case. When several share the name the first registered wins.
func (g *Geocoder) GetDefinitionFromName(name string) (Definition, bool) {
	ds := g.byName[normalizeName(name)]
	if len(ds) == 0 {
		return Definition{}, false
	}
	return *ds[0], true
}

// GetDefinitionsFromName returns every definition using name.
func (g *Geocoder) GetDefinitionsFromName(name string) []Definition {
	ds := g.byName[normalizeName(name)]
	out := make([]Definition, len(ds))
	for i, d := range ds {
		out[i] = *d
	}
	return out
}

// SearchResult is one name match.
type SearchResult struct {
	Name       string
	Definition Definition
}

// Search returns definitions with a name (primary or alternate) starting
// with prefix, ignoring case. Names that match exactly sort first, then
// alphabetically. limit <= 0 means no limit.
func (g *Geocoder) Search(prefix string, limit int) []SearchResult {
	p := normalizeName(prefix)
	if p == "" {
		return nil
	}

	var names []string
	for n := range g.byName {
		if strings.HasPrefix(n, p) {
			names = append(names, n)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		ei, ej := names[i] == p, names[j] == p
		if ei != ej {
			return ei
		}
		return names[i] < names[j]
	})

	var out []SearchResult
	for _, n := range names {
		for _, d := range g.byName[n] {
			out = append(out, SearchResult{Name: displayName(*d, n), Definition: *d})
			if limit > 0 && len(out) >= limit {
				return out
			}
		}
	}
	return out
}

// displayName returns the spelling of normalized name n as registered on d.
func displayName(d Definition, n string) string {
	for _, name := range d.Names() {
		if normalizeName(name) == n {
			return name
		}
	}
	return n
}

// DefinitionsInBound returns definitions whose center lies in b on any floor.
func (g *Geocoder) DefinitionsInBound(b orb.Bound) []Definition {
	ds := g.index.InBound(b)
	out := make([]Definition, len(ds))
	for i, d := range ds {
		out[i] = *d
	}
	return out
}

// DefinitionsInBoundOnFloor is DefinitionsInBound limited to one floor.
func (g *Geocoder) DefinitionsInBoundOnFloor(b orb.Bound, floor string) []Definition {
	var out []Definition
	for _, d := range g.index.InBound(b) {
		if d.Location.Center.Floor == floor {
			out = append(out, *d)
		}
	}
	return out
}
