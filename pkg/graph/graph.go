// Package graph implements a generic weighted graph over opaque vertex keys,
// single-source shortest paths and path reconstruction.
//
// The graph has no knowledge of floors or rooms; callers attach any payload
// they need to each vertex.
package graph

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrDuplicateVertex is returned when a vertex id is added twice.
	ErrDuplicateVertex = errors.New("graph: duplicate vertex")
	// ErrUnknownVertex is returned when an edge or query names an absent vertex.
	ErrUnknownVertex = errors.New("graph: unknown vertex")
	// ErrNegativeWeight is returned for edges with a negative or NaN weight.
	ErrNegativeWeight = errors.New("graph: negative edge weight")
)

// Arc is one directed adjacency entry.
type Arc[K comparable] struct {
	To     K
	Weight float64
}

// Graph is a weighted graph with vertex payloads of type V.
//
// Adjacency lists keep insertion order. Adding an arc that already exists
// overwrites its weight in place (last write wins). A Graph is built once
// and then only read; it is not safe for concurrent mutation.
type Graph[K comparable, V any] struct {
	vertices map[K]V
	order    []K
	adj      map[K][]Arc[K]
	numArcs  int
}

// New creates an empty graph.
func New[K comparable, V any]() *Graph[K, V] {
	return &Graph[K, V]{
		vertices: make(map[K]V),
		adj:      make(map[K][]Arc[K]),
	}
}

// AddVertex adds a vertex with its payload.
func (g *Graph[K, V]) AddVertex(id K, payload V) error {
	if _, ok := g.vertices[id]; ok {
		return fmt.Errorf("%w: %v", ErrDuplicateVertex, id)
	}
	g.vertices[id] = payload
	g.order = append(g.order, id)
	return nil
}

// AddEdge adds an edge between two existing vertices. Undirected edges are
// stored as two directed arcs.
func (g *Graph[K, V]) AddEdge(from, to K, weight float64, directed bool) error {
	if weight < 0 || math.IsNaN(weight) {
		return fmt.Errorf("%w: %v→%v weight=%v", ErrNegativeWeight, from, to, weight)
	}
	if _, ok := g.vertices[from]; !ok {
		return fmt.Errorf("%w: %v", ErrUnknownVertex, from)
	}
	if _, ok := g.vertices[to]; !ok {
		return fmt.Errorf("%w: %v", ErrUnknownVertex, to)
	}
	g.addArc(from, to, weight)
	if !directed {
		g.addArc(to, from, weight)
	}
	return nil
}

func (g *Graph[K, V]) addArc(from, to K, weight float64) {
	arcs := g.adj[from]
	for i := range arcs {
		if arcs[i].To == to {
			arcs[i].Weight = weight
			return
		}
	}
	g.adj[from] = append(arcs, Arc[K]{To: to, Weight: weight})
	g.numArcs++
}

// Vertex returns the payload stored for id.
func (g *Graph[K, V]) Vertex(id K) (V, bool) {
	v, ok := g.vertices[id]
	return v, ok
}

// HasVertex reports whether id is part of the graph.
func (g *Graph[K, V]) HasVertex(id K) bool {
	_, ok := g.vertices[id]
	return ok
}

// Vertices returns all vertex ids in insertion order.
func (g *Graph[K, V]) Vertices() []K {
	out := make([]K, len(g.order))
	copy(out, g.order)
	return out
}

// Len returns the number of vertices.
func (g *Graph[K, V]) Len() int { return len(g.order) }

// NumArcs returns the number of directed adjacency entries.
func (g *Graph[K, V]) NumArcs() int { return g.numArcs }

// Neighbors returns the targets of arcs leaving id. An isolated or unknown
// vertex yields an empty slice.
func (g *Graph[K, V]) Neighbors(id K) []K {
	arcs := g.adj[id]
	out := make([]K, len(arcs))
	for i, a := range arcs {
		out[i] = a.To
	}
	return out
}

// Arcs returns the arcs leaving id. The slice must not be modified.
func (g *Graph[K, V]) Arcs(id K) []Arc[K] {
	return g.adj[id]
}

// Weight returns the weight of the arc from→to. Directed arcs are one-way,
// so the order of the arguments matters.
func (g *Graph[K, V]) Weight(from, to K) (float64, bool) {
	for _, a := range g.adj[from] {
		if a.To == to {
			return a.Weight, true
		}
	}
	return 0, false
}
