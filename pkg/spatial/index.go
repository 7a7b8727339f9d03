// Package spatial provides the point index behind the geocoder: one
// nearest-neighbour tree per partition (floor) and one bounding-box tree over
// every point regardless of partition.
//
// The two trees are separate read models over the same entries. Insert
// always writes to both, so a successful insert is visible to nearest and
// range queries alike. An Index is built during a single-writer phase and
// only read afterwards; it is not safe for concurrent mutation.
package spatial

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/tidwall/rtree"
)

var (
	// ErrNoPartition is returned when a partition never received an entry.
	ErrNoPartition = errors.New("spatial: no index for partition")
	// ErrEmptyPartition is returned when a partition exists but holds nothing.
	ErrEmptyPartition = errors.New("spatial: partition is empty")
)

// pointTolerance pads point rectangles in the bounding-box tree. rtreego
// intersects open rectangles, so a zero-size point on the edge of a query
// bound would otherwise be missed.
const pointTolerance = 1e-9

// Entry is one indexed point.
type Entry[T any] struct {
	Partition string
	Point     orb.Point
	Payload   T
}

// Bounds implements rtreego.Spatial.
func (e *Entry[T]) Bounds() rtreego.Rect {
	return rtreego.Point{e.Point[0], e.Point[1]}.ToRect(pointTolerance)
}

// Hit is an entry returned by a nearest query with its distance.
type Hit[T any] struct {
	Payload  T
	Point    orb.Point
	Distance float64
}

// Index is a partitioned point index.
type Index[T any] struct {
	partitions map[string]*rtree.RTreeG[*Entry[T]]
	names      []string
	all        *rtreego.Rtree
	size       int
}

// NewIndex creates an empty index.
func NewIndex[T any]() *Index[T] {
	return &Index[T]{
		partitions: make(map[string]*rtree.RTreeG[*Entry[T]]),
		all:        rtreego.NewTree(2, 4, 16),
	}
}

// Insert adds payload at p in the given partition, creating the partition
// on first use.
func (ix *Index[T]) Insert(partition string, p orb.Point, payload T) {
	tr, ok := ix.partitions[partition]
	if !ok {
		tr = &rtree.RTreeG[*Entry[T]]{}
		ix.partitions[partition] = tr
		ix.names = append(ix.names, partition)
	}

	e := &Entry[T]{Partition: partition, Point: p, Payload: payload}
	tr.Insert(p, p, e)
	ix.all.Insert(e)
	ix.size++
}

// Len returns the number of entries across all partitions.
func (ix *Index[T]) Len() int { return ix.size }

// PartitionLen returns the number of entries in one partition.
func (ix *Index[T]) PartitionLen(partition string) int {
	tr, ok := ix.partitions[partition]
	if !ok {
		return 0
	}
	return tr.Len()
}

// Partitions returns partition names in creation order.
func (ix *Index[T]) Partitions() []string {
	out := make([]string, len(ix.names))
	copy(out, ix.names)
	return out
}

// Nearest returns the payload closest to p within one partition by planar
// Euclidean distance, together with that distance.
func (ix *Index[T]) Nearest(partition string, p orb.Point) (T, float64, error) {
	hits, err := ix.nearby(partition, p, 1, nil)
	if err != nil {
		var zero T
		return zero, 0, err
	}
	if len(hits) == 0 {
		var zero T
		return zero, 0, fmt.Errorf("%w: %q", ErrEmptyPartition, partition)
	}
	return hits[0].Payload, hits[0].Distance, nil
}

// KNearest returns up to k payloads of one partition in ascending distance
// from p. When accept is non-nil only payloads it accepts are returned.
// k <= 0 means no limit.
func (ix *Index[T]) KNearest(partition string, p orb.Point, k int, accept func(T) bool) ([]Hit[T], error) {
	return ix.nearby(partition, p, k, accept)
}

func (ix *Index[T]) nearby(partition string, p orb.Point, k int, accept func(T) bool) ([]Hit[T], error) {
	tr, ok := ix.partitions[partition]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoPartition, partition)
	}

	var hits []Hit[T]
	target := [2]float64(p)
	// BoxDist yields squared distances, which order the same as distances.
	tr.Nearby(
		rtree.BoxDist[float64, *Entry[T]](target, target, nil),
		func(_, _ [2]float64, e *Entry[T], _ float64) bool {
			if accept != nil && !accept(e.Payload) {
				return true
			}
			hits = append(hits, Hit[T]{
				Payload:  e.Payload,
				Point:    e.Point,
				Distance: planar.Distance(p, e.Point),
			})
			return k <= 0 || len(hits) < k
		},
	)
	return hits, nil
}

// InBound returns every payload whose point lies inside b (edges included),
// across all partitions, ordered by partition creation then x, y.
func (ix *Index[T]) InBound(b orb.Bound) []T {
	if ix.size == 0 {
		return nil
	}
	lo := rtreego.Point{b.Min[0], b.Min[1]}
	hi := rtreego.Point{
		math.Max(b.Max[0], b.Min[0]+pointTolerance),
		math.Max(b.Max[1], b.Min[1]+pointTolerance),
	}
	rect, err := rtreego.NewRectFromPoints(lo, hi)
	if err != nil {
		return nil
	}

	var entries []*Entry[T]
	for _, s := range ix.all.SearchIntersect(rect) {
		e := s.(*Entry[T])
		if b.Contains(e.Point) {
			entries = append(entries, e)
		}
	}

	order := make(map[string]int, len(ix.names))
	for i, n := range ix.names {
		order[n] = i
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Partition != b.Partition {
			return order[a.Partition] < order[b.Partition]
		}
		if a.Point[0] != b.Point[0] {
			return a.Point[0] < b.Point[0]
		}
		return a.Point[1] < b.Point[1]
	})

	out := make([]T, len(entries))
	for i, e := range entries {
		out[i] = e.Payload
	}
	return out
}
