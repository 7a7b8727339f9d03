// Package declutter picks which map labels to show so that no two shown
// labels overlap.
//
// Every pass starts from scratch: the overlap index is cleared and bulk
// loaded with the current candidate boxes, every label is hidden, and the
// candidates are visited in order. A candidate whose box meets no box shown
// earlier in the pass is shown; otherwise it stays hidden and is taken out
// of the index so it no longer appears in later searches. Box edges are
// closed, so labels that merely touch count as overlapping.
//
// Earlier candidates have priority: of two identical boxes the first one is
// shown. The result depends only on the candidate list, so repeating a pass
// over the same list gives the same answer.
package declutter

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/tidwall/rtree"
	"golang.org/x/exp/slog"
)

// Candidate is one label competing for screen space.
type Candidate struct {
	ID  string
	Box orb.Bound
}

// Declutterer owns the overlap index and the outcome of the last pass. It
// is not safe for concurrent use.
type Declutterer struct {
	tree    rtree.RTreeG[*Candidate]
	visible map[string]bool
	passes  int
	logger  *slog.Logger
}

// New creates a Declutterer. A nil logger uses slog.Default().
func New(logger *slog.Logger) *Declutterer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Declutterer{
		visible: make(map[string]bool),
		logger:  logger,
	}
}

// Declutter runs one pass over cands and returns the visibility of every
// distinct label id. A candidate that repeats an id already seen in the same
// pass is ignored.
func (d *Declutterer) Declutter(cands []Candidate) map[string]bool {
	d.tree.Clear()
	d.passes++

	items := make([]Candidate, 0, len(cands))
	vis := make(map[string]bool, len(cands))
	for _, c := range cands {
		if _, dup := vis[c.ID]; dup {
			d.logger.Debug("duplicate label ignored", "id", c.ID)
			continue
		}
		vis[c.ID] = false
		items = append(items, Candidate{ID: c.ID, Box: normalize(c.Box)})
	}
	order := make([]*Candidate, len(items))
	for i := range items {
		c := &items[i]
		order[i] = c
		d.tree.Insert(c.Box.Min, c.Box.Max, c)
	}

	for _, c := range order {
		if !d.blocked(c, vis) {
			vis[c.ID] = true
			continue
		}
		d.tree.Delete(c.Box.Min, c.Box.Max, c)
	}

	d.visible = vis
	return copyMap(vis)
}

// blocked reports whether a box already shown in this pass meets c's box.
// Boxes not yet visited are in the index too but never block.
func (d *Declutterer) blocked(c *Candidate, vis map[string]bool) bool {
	hit := false
	d.tree.Search(c.Box.Min, c.Box.Max, func(_, _ [2]float64, o *Candidate) bool {
		if o != c && vis[o.ID] {
			hit = true
		}
		return !hit
	})
	return hit
}

// Visible reports whether id was shown by the last pass.
func (d *Declutterer) Visible(id string) bool {
	return d.visible[id]
}

// VisibleIDs returns the ids shown by the last pass, sorted.
func (d *Declutterer) VisibleIDs() []string {
	var out []string
	for id, ok := range d.visible {
		if ok {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// Pass returns the number of passes run so far.
func (d *Declutterer) Pass() int { return d.passes }

// normalize orders the corners of b so Min <= Max on both axes.
func normalize(b orb.Bound) orb.Bound {
	if b.Min[0] > b.Max[0] {
		b.Min[0], b.Max[0] = b.Max[0], b.Min[0]
	}
	if b.Min[1] > b.Max[1] {
		b.Min[1], b.Max[1] = b.Max[1], b.Min[1]
	}
	return b
}

func copyMap(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
