package building

import (
	"github.com/azybler/wayfinder/pkg/geo"
	"github.com/azybler/wayfinder/pkg/geocoder"
)

// Definition projects a room into a geocoder definition named by its short
// name. The room key and the remaining names become alternate names.
func (m *Model) Definition(r *Room) geocoder.Definition {
	center := geo.NewLocation(r.CenterPoint()[0], r.CenterPoint()[1], r.Floor)
	var entrances []geo.Location
	for _, id := range r.Entrances {
		if v, ok := m.graph.Vertex(id); ok {
			entrances = append(entrances, geo.NewLocation(v.Location[0], v.Location[1], v.Floor))
		}
	}

	def := geocoder.NewDefinition(r.ShortName(), geo.NewLocationWithEntrances(center, entrances...), r.Tags...)
	def.Description = r.Description
	def.Ref = r.Key
	if len(r.Names) > 0 {
		def.AlternateNames = append(def.AlternateNames, r.Key)
		def.AlternateNames = append(def.AlternateNames, r.Names[1:]...)
	}
	return def
}

// Definitions projects every room, in key order.
func (m *Model) Definitions() []geocoder.Definition {
	out := make([]geocoder.Definition, 0, len(m.keys))
	for _, r := range m.Rooms() {
		out = append(out, m.Definition(r))
	}
	return out
}

// RegisterDefinitions adds every room to g and returns how many were
// accepted. A room whose short name is already taken is retried under its
// full name, which includes the unique key.
func (m *Model) RegisterDefinitions(g *geocoder.Geocoder) int {
	n := 0
	for _, r := range m.Rooms() {
		def := m.Definition(r)
		if g.AddDefinition(def) {
			n++
			continue
		}
		def.Name = r.Name()
		if g.AddDefinition(def) {
			n++
			continue
		}
		m.logger.Debug("room not registered with geocoder", "room", r.Key)
	}
	return n
}
