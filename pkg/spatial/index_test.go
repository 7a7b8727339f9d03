package spatial

import (
	"fmt"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNearestUnknownPartition(t *testing.T) {
	ix := NewIndex[string]()
	_, _, err := ix.Nearest("1", orb.Point{0, 0})
	require.ErrorIs(t, err, ErrNoPartition)

	ix.Insert("2", orb.Point{0, 0}, "a")
	_, _, err = ix.Nearest("1", orb.Point{0, 0})
	require.ErrorIs(t, err, ErrNoPartition)
}

func TestNearestStaysInPartition(t *testing.T) {
	ix := NewIndex[string]()
	ix.Insert("1", orb.Point{100, 100}, "far-same-floor")
	ix.Insert("2", orb.Point{0, 0}, "near-other-floor")

	got, d, err := ix.Nearest("1", orb.Point{0, 0})
	require.NoError(t, err)
	assert.Equal(t, "far-same-floor", got)
	assert.InDelta(t, math.Sqrt(2)*100, d, 1e-9)
}

func TestNearestMatchesLinearScan(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	ix := NewIndex[int]()

	type rec struct {
		floor string
		p     orb.Point
	}
	var all []rec
	floors := []string{"1", "2", "3"}
	for i := range 300 {
		f := floors[r.IntN(len(floors))]
		p := orb.Point{r.Float64() * 1000, r.Float64() * 1000}
		all = append(all, rec{f, p})
		ix.Insert(f, p, i)
	}

	for q := range 100 {
		f := floors[r.IntN(len(floors))]
		p := orb.Point{r.Float64() * 1000, r.Float64() * 1000}

		best := math.Inf(1)
		for _, a := range all {
			if a.floor != f {
				continue
			}
			best = math.Min(best, planar.Distance(p, a.p))
		}

		t.Run(fmt.Sprintf("query%d", q), func(t *testing.T) {
			id, d, err := ix.Nearest(f, p)
			require.NoError(t, err)
			assert.Equal(t, f, all[id].floor, "nearest must come from the queried floor")
			assert.InDelta(t, best, d, 1e-9)
			assert.InDelta(t, best, planar.Distance(p, all[id].p), 1e-9)
		})
	}
}

func TestKNearestOrderAndFilter(t *testing.T) {
	ix := NewIndex[int]()
	for i := range 10 {
		ix.Insert("1", orb.Point{float64(i), 0}, i)
	}

	hits, err := ix.KNearest("1", orb.Point{0, 0}, 3, nil)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{hits[0].Payload, hits[1].Payload, hits[2].Payload})

	odd := func(i int) bool { return i%2 == 1 }
	hits, err = ix.KNearest("1", orb.Point{0, 0}, 2, odd)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, 1, hits[0].Payload)
	assert.Equal(t, 3, hits[1].Payload)
	assert.Equal(t, 3.0, hits[1].Distance)

	hits, err = ix.KNearest("1", orb.Point{0, 0}, 0, odd)
	require.NoError(t, err)
	assert.Len(t, hits, 5)

	none := func(int) bool { return false }
	hits, err = ix.KNearest("1", orb.Point{0, 0}, 1, none)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestInBoundSpansPartitions(t *testing.T) {
	ix := NewIndex[string]()
	ix.Insert("1", orb.Point{1, 1}, "a")
	ix.Insert("2", orb.Point{2, 2}, "b")
	ix.Insert("1", orb.Point{10, 10}, "edge")
	ix.Insert("3", orb.Point{50, 50}, "outside")

	got := ix.InBound(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{10, 10}})
	assert.Equal(t, []string{"a", "edge", "b"}, got)

	assert.Empty(t, ix.InBound(orb.Bound{Min: orb.Point{20, 20}, Max: orb.Point{30, 30}}))
}

func TestInBoundDegenerateQuery(t *testing.T) {
	ix := NewIndex[string]()
	ix.Insert("1", orb.Point{5, 5}, "hit")
	ix.Insert("1", orb.Point{5, 6}, "miss")

	got := ix.InBound(orb.Bound{Min: orb.Point{5, 5}, Max: orb.Point{5, 5}})
	assert.Equal(t, []string{"hit"}, got)
}

func TestCounts(t *testing.T) {
	ix := NewIndex[string]()
	assert.Nil(t, ix.InBound(orb.Bound{Max: orb.Point{1, 1}}))

	ix.Insert("2", orb.Point{0, 0}, "a")
	ix.Insert("1", orb.Point{0, 0}, "b")
	ix.Insert("2", orb.Point{1, 0}, "c")

	assert.Equal(t, 3, ix.Len())
	assert.Equal(t, 2, ix.PartitionLen("2"))
	assert.Equal(t, 0, ix.PartitionLen("9"))
	assert.Equal(t, []string{"2", "1"}, ix.Partitions())
}
