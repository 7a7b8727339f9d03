package graph

import (
	"fmt"
	"math"
)

// minHeap is an indexed binary min-heap over dense vertex slots with
// decrease-key. Equal distances are ordered by insertion sequence, so the
// first vertex discovered at a given distance is settled first.
type minHeap struct {
	items []heapItem
	pos   []int // slot → index in items, -1 when not queued
	seq   uint64
}

type heapItem struct {
	slot int
	dist float64
	seq  uint64
}

func newMinHeap(n int) *minHeap {
	pos := make([]int, n)
	for i := range pos {
		pos[i] = -1
	}
	return &minHeap{items: make([]heapItem, 0, 16), pos: pos}
}

func (h *minHeap) Len() int { return len(h.items) }

// Push inserts slot, or lowers its key if it is already queued.
func (h *minHeap) Push(slot int, dist float64) {
	if i := h.pos[slot]; i >= 0 {
		if dist < h.items[i].dist {
			h.items[i].dist = dist
			h.siftUp(i)
		}
		return
	}
	h.items = append(h.items, heapItem{slot: slot, dist: dist, seq: h.seq})
	h.seq++
	i := len(h.items) - 1
	h.pos[slot] = i
	h.siftUp(i)
}

func (h *minHeap) Pop() heapItem {
	n := len(h.items)
	item := h.items[0]
	h.swap(0, n-1)
	h.items = h.items[:n-1]
	h.pos[item.slot] = -1
	if len(h.items) > 0 {
		h.siftDown(0)
	}
	return item
}

func (h *minHeap) less(i, j int) bool {
	a, b := h.items[i], h.items[j]
	if a.dist != b.dist {
		return a.dist < b.dist
	}
	return a.seq < b.seq
}

func (h *minHeap) swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.pos[h.items[i].slot] = i
	h.pos[h.items[j].slot] = j
}

func (h *minHeap) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !h.less(i, parent) {
			break
		}
		h.swap(i, parent)
		i = parent
	}
}

func (h *minHeap) siftDown(i int) {
	n := len(h.items)
	for {
		smallest := i
		left := 2*i + 1
		right := 2*i + 2
		if left < n && h.less(left, smallest) {
			smallest = left
		}
		if right < n && h.less(right, smallest) {
			smallest = right
		}
		if smallest == i {
			break
		}
		h.swap(i, smallest)
		i = smallest
	}
}

// ShortestPathTree is the result of a single-source shortest path run.
type ShortestPathTree[K comparable] struct {
	Source K
	// Dist holds every vertex of the graph. Unreachable vertices map to +Inf.
	Dist map[K]float64
	// Prev holds the predecessor of every reachable vertex except the source.
	Prev map[K]K
}

// Distance returns the shortest distance to v, or +Inf when v is unreachable
// or unknown.
func (t *ShortestPathTree[K]) Distance(v K) float64 {
	d, ok := t.Dist[v]
	if !ok {
		return math.Inf(1)
	}
	return d
}

// Reachable reports whether v has a finite distance from the source.
func (t *ShortestPathTree[K]) Reachable(v K) bool {
	return !math.IsInf(t.Distance(v), 1)
}

// Predecessor returns the vertex before v on the shortest path from the source.
func (t *ShortestPathTree[K]) Predecessor(v K) (K, bool) {
	p, ok := t.Prev[v]
	return p, ok
}

// PathTo returns the shortest path from the source to dest.
func (t *ShortestPathTree[K]) PathTo(dest K) ([]K, bool) {
	if !t.Reachable(dest) {
		return nil, false
	}
	return ReconstructPath(t.Source, dest, t.Prev)
}

// ShortestPaths runs Dijkstra's algorithm from source.
//
// Edge weights are non-negative by construction (AddEdge rejects anything
// else), so they are not re-checked here.
//
// Complexity: O((V + E) log V) time, O(V) space.
func (g *Graph[K, V]) ShortestPaths(source K) (*ShortestPathTree[K], error) {
	if !g.HasVertex(source) {
		return nil, fmt.Errorf("%w: %v", ErrUnknownVertex, source)
	}

	n := len(g.order)
	slotOf := make(map[K]int, n)
	for i, id := range g.order {
		slotOf[id] = i
	}

	dist := make([]float64, n)
	prev := make([]int, n)
	settled := make([]bool, n)
	for i := range dist {
		dist[i] = math.Inf(1)
		prev[i] = -1
	}

	src := slotOf[source]
	dist[src] = 0
	pq := newMinHeap(n)
	pq.Push(src, 0)

	for pq.Len() > 0 {
		item := pq.Pop()
		u := item.slot
		settled[u] = true

		for _, a := range g.adj[g.order[u]] {
			v := slotOf[a.To]
			if settled[v] {
				continue
			}
			alt := dist[u] + a.Weight
			if alt < dist[v] {
				dist[v] = alt
				prev[v] = u
				pq.Push(v, alt)
			}
		}
	}

	tree := &ShortestPathTree[K]{
		Source: source,
		Dist:   make(map[K]float64, n),
		Prev:   make(map[K]K),
	}
	for i, id := range g.order {
		tree.Dist[id] = dist[i]
		if prev[i] >= 0 {
			tree.Prev[id] = g.order[prev[i]]
		}
	}
	return tree, nil
}

// ReconstructPath walks prev from dest back to source and returns the path
// in source→dest order. It returns false when dest is not connected to
// source through prev.
func ReconstructPath[K comparable](source, dest K, prev map[K]K) ([]K, bool) {
	if source == dest {
		return []K{dest}, true
	}

	path := []K{dest}
	node := dest
	// A well-formed predecessor map cannot be longer than its own size;
	// the bound stops the walk on a corrupt, cyclic map.
	for steps := 0; steps <= len(prev); steps++ {
		p, ok := prev[node]
		if !ok {
			return nil, false
		}
		path = append(path, p)
		if p == source {
			for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
				path[i], path[j] = path[j], path[i]
			}
			return path, true
		}
		node = p
	}
	return nil, false
}
