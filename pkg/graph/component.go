package graph

import "sort"

// forest is a disjoint-set forest over vertex slots. Roots are merged by
// size; find compresses paths by halving.
type forest struct {
	parent []int
	size   []int
}

func newForest(n int) forest {
	f := forest{parent: make([]int, n), size: make([]int, n)}
	for i := range f.parent {
		f.parent[i] = i
		f.size[i] = 1
	}
	return f
}

func (f forest) find(x int) int {
	for f.parent[x] != x {
		f.parent[x] = f.parent[f.parent[x]]
		x = f.parent[x]
	}
	return x
}

func (f forest) join(x, y int) {
	rx, ry := f.find(x), f.find(y)
	if rx == ry {
		return
	}
	if f.size[rx] < f.size[ry] {
		rx, ry = ry, rx
	}
	f.parent[ry] = rx
	f.size[rx] += f.size[ry]
}

// Components returns the weakly connected components of g (arcs treated as
// undirected), largest first. Vertices inside a component and components of
// equal size keep vertex insertion order.
func (g *Graph[K, V]) Components() [][]K {
	n := len(g.order)
	if n == 0 {
		return nil
	}

	slotOf := make(map[K]int, n)
	for i, id := range g.order {
		slotOf[id] = i
	}

	f := newForest(n)
	for i, id := range g.order {
		for _, a := range g.adj[id] {
			f.join(i, slotOf[a.To])
		}
	}

	byRoot := make(map[int]int)
	var comps [][]K
	for i, id := range g.order {
		root := f.find(i)
		idx, ok := byRoot[root]
		if !ok {
			idx = len(comps)
			byRoot[root] = idx
			comps = append(comps, make([]K, 0, f.size[root]))
		}
		comps[idx] = append(comps[idx], id)
	}

	sort.SliceStable(comps, func(i, j int) bool {
		return len(comps[i]) > len(comps[j])
	})
	return comps
}
