package graph

import (
	"errors"
	"fmt"
)

// VertexRecord is one vertex to be added by Build.
type VertexRecord[K comparable, V any] struct {
	ID      K
	Payload V
}

// EdgeRecord is one edge to be added by Build. When Weight is nil the
// builder's weight function is used.
type EdgeRecord[K comparable] struct {
	From     K
	To       K
	Weight   *float64
	Directed bool
}

// RecordError describes one vertex or edge record that could not be added.
type RecordError struct {
	Index int    // position of the record in its input slice
	Kind  string // "vertex" or "edge"
	Err   error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s record %d: %v", e.Kind, e.Index, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// WeightFunc derives an edge weight from its two endpoint payloads.
type WeightFunc[V any] func(from, to V) float64

// Build creates a graph from vertex and edge records. A bad record is
// skipped and reported; it never aborts the rest of the build. The returned
// error is nil when every record was accepted, otherwise it joins one
// *RecordError per rejected record.
func Build[K comparable, V any](vertices []VertexRecord[K, V], edges []EdgeRecord[K], weight WeightFunc[V]) (*Graph[K, V], error) {
	g := New[K, V]()
	var errs []error

	for i, v := range vertices {
		if err := g.AddVertex(v.ID, v.Payload); err != nil {
			errs = append(errs, &RecordError{Index: i, Kind: "vertex", Err: err})
		}
	}

	for i, e := range edges {
		var w float64
		switch {
		case e.Weight != nil:
			w = *e.Weight
		case weight != nil:
			from, okFrom := g.Vertex(e.From)
			to, okTo := g.Vertex(e.To)
			if okFrom && okTo {
				w = weight(from, to)
			}
		}
		if err := g.AddEdge(e.From, e.To, w, e.Directed); err != nil {
			errs = append(errs, &RecordError{Index: i, Kind: "edge", Err: err})
		}
	}

	return g, errors.Join(errs...)
}
