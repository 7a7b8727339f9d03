// Package osm imports indoor OSM data (Simple Indoor Tagging) into a
// building map document.
package osm

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"golang.org/x/exp/slog"

	"github.com/azybler/wayfinder/pkg/building"
)

// Format is the encoding of an OSM input.
type Format int

const (
	FormatXML Format = iota
	FormatPBF
)

func (f Format) String() string {
	if f == FormatPBF {
		return "pbf"
	}
	return "xml"
}

// FormatFromPath guesses the format from a file name.
func FormatFromPath(path string) Format {
	if strings.HasSuffix(strings.ToLower(path), ".pbf") {
		return FormatPBF
	}
	return FormatXML
}

// walkwayHighways lists highway values a pedestrian can walk indoors.
var walkwayHighways = map[string]bool{
	"footway":  true,
	"corridor": true,
	"steps":    true,
	"elevator": true,
	"path":     true,
}

// isWalkway returns true if the way is an indoor walkway.
func isWalkway(tags osm.Tags) bool {
	if !walkwayHighways[tags.Find("highway")] && tags.Find("indoor") != "corridor" {
		return false
	}
	access := tags.Find("access")
	if access == "no" || access == "private" {
		return false
	}
	return tags.Find("foot") != "no"
}

// isRoom returns true if the way outlines a room.
func isRoom(tags osm.Tags) bool {
	indoor := tags.Find("indoor")
	return indoor == "room" || (indoor == "area" && tags.HasTag("ref"))
}

// levels splits a level tag like "1;2" or "0-2" into floor identifiers.
func levels(v string) []string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	if lo, hi, ok := strings.Cut(v, "-"); ok && lo != "" {
		a, errA := strconv.Atoi(lo)
		b, errB := strconv.Atoi(hi)
		if errA == nil && errB == nil && a <= b {
			out := make([]string, 0, b-a+1)
			for l := a; l <= b; l++ {
				out = append(out, strconv.Itoa(l))
			}
			return out
		}
	}
	var out []string
	for _, p := range strings.Split(v, ";") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// nodeLevels returns the floors a node sits on, from level then repeat_on.
func nodeLevels(tags osm.Tags) []string {
	ls := levels(tags.Find("level"))
	for _, l := range levels(tags.Find("repeat_on")) {
		if !contains(ls, l) {
			ls = append(ls, l)
		}
	}
	return ls
}

func contains(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}

// wayInfo holds parsed way data collected during pass 1.
type wayInfo struct {
	ID      osm.WayID
	NodeIDs []osm.NodeID
	Tags    osm.Tags
	Levels  []string
}

// ParseOptions configures the importer.
type ParseOptions struct {
	Format Format
	// Origin is the lon/lat mapped to (0, 0). When zero the south-west
	// corner of the imported nodes is used.
	Origin orb.Point
	Logger *slog.Logger
}

// Parse reads indoor OSM data and returns a map document. Node coordinates
// are projected to metres east and north of the origin.
// The reader is consumed twice (seeks back to start for the second pass),
// so it must implement io.ReadSeeker.
func Parse(ctx context.Context, rs io.ReadSeeker, opt ParseOptions) (*building.Document, error) {
	logger := opt.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Pass 1: scan ways to collect walkways, rooms and referenced node IDs.
	referenced := make(map[osm.NodeID]struct{})
	var walkways, rooms []wayInfo

	scanner := newScanner(ctx, rs, opt.Format, true)
	for scanner.Scan() {
		w, ok := scanner.Object().(*osm.Way)
		if !ok || len(w.Nodes) < 2 {
			continue
		}
		info := wayInfo{ID: w.ID, NodeIDs: w.Nodes.NodeIDs(), Tags: w.Tags, Levels: levels(w.Tags.Find("level"))}
		switch {
		case isWalkway(w.Tags):
			walkways = append(walkways, info)
		case isRoom(w.Tags):
			rooms = append(rooms, info)
		default:
			continue
		}
		for _, id := range info.NodeIDs {
			referenced[id] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, fmt.Errorf("pass 1 (ways): %w", err)
	}
	scanner.Close()

	logger.Info("pass 1 complete", "walkways", len(walkways), "rooms", len(rooms), "referenced_nodes", len(referenced))

	// Pass 2: scan nodes for coordinates and tags of referenced nodes only.
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek for pass 2: %w", err)
	}

	nodes := make(map[osm.NodeID]*osm.Node, len(referenced))
	scanner = newScanner(ctx, rs, opt.Format, false)
	for scanner.Scan() {
		n, ok := scanner.Object().(*osm.Node)
		if !ok {
			continue
		}
		if _, needed := referenced[n.ID]; needed {
			nodes[n.ID] = n
		}
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, fmt.Errorf("pass 2 (nodes): %w", err)
	}
	scanner.Close()

	logger.Info("pass 2 complete", "nodes", len(nodes))

	// Single-level walkways go first so multi-level ones (stairs spanning
	// floors) can reuse the floors their untagged nodes already have.
	sort.SliceStable(walkways, func(i, j int) bool {
		return len(walkways[i].Levels) <= 1 && len(walkways[j].Levels) > 1
	})

	b := newBuilder(nodes, opt.Origin, logger)
	for _, w := range walkways {
		b.addWalkway(w)
	}
	b.linkVertical()
	for _, w := range rooms {
		b.addRoom(w)
	}
	doc := b.document()

	if b.skipped > 0 {
		logger.Warn("skipped way nodes", "count", b.skipped)
	}
	logger.Info("import complete",
		"floors", len(doc.Floors),
		"vertices", len(doc.Vertices),
		"edges", len(doc.Edges),
		"rooms", len(doc.Rooms),
	)
	return doc, nil
}

func newScanner(ctx context.Context, r io.Reader, f Format, ways bool) osm.Scanner {
	if f == FormatPBF {
		s := osmpbf.New(ctx, r, 1)
		s.SkipRelations = true
		s.SkipNodes = ways
		s.SkipWays = !ways
		return s
	}
	return osmxml.New(ctx, r)
}

// vertexKey identifies one node on one floor.
type vertexKey struct {
	node  osm.NodeID
	floor string
}

func (k vertexKey) id() string {
	return fmt.Sprintf("n%d@%s", k.node, k.floor)
}

type builder struct {
	nodes    map[osm.NodeID]*osm.Node
	origin   orb.Point
	cosLat   float64
	vertices map[vertexKey]*building.VertexRecord
	order    []vertexKey
	edges    map[[2]string]struct{}
	edgeList [][2]string
	rooms    map[string]building.RoomRecord
	floors   map[string]struct{}
	skipped  int
	logger   *slog.Logger
}

func newBuilder(nodes map[osm.NodeID]*osm.Node, origin orb.Point, logger *slog.Logger) *builder {
	if origin == (orb.Point{}) && len(nodes) > 0 {
		origin = orb.Point{math.Inf(1), math.Inf(1)}
		for _, n := range nodes {
			origin[0] = math.Min(origin[0], n.Lon)
			origin[1] = math.Min(origin[1], n.Lat)
		}
	}
	return &builder{
		nodes:    nodes,
		origin:   origin,
		cosLat:   math.Cos(origin[1] * math.Pi / 180),
		vertices: make(map[vertexKey]*building.VertexRecord),
		edges:    make(map[[2]string]struct{}),
		rooms:    make(map[string]building.RoomRecord),
		floors:   make(map[string]struct{}),
		logger:   logger,
	}
}

// metresPerDegree is the length of one degree of latitude.
const metresPerDegree = 111_320.0

// project maps lon/lat to local metres with an equirectangular projection,
// accurate over the extent of a building.
func (b *builder) project(lon, lat float64) [2]float64 {
	x := (lon - b.origin[0]) * metresPerDegree * b.cosLat
	y := (lat - b.origin[1]) * metresPerDegree
	return [2]float64{math.Round(x*1000) / 1000, math.Round(y*1000) / 1000}
}

// floorOf picks the floor of a node as used by way w: the node's own level
// when it has exactly one, else the way's level when it has exactly one,
// else the only floor of w the node already has a vertex on.
func (b *builder) floorOf(n *osm.Node, w wayInfo) (string, bool) {
	nl := levels(n.Tags.Find("level"))
	switch {
	case len(nl) == 1:
		return nl[0], true
	case len(w.Levels) == 1 && (len(nl) == 0 || contains(nl, w.Levels[0])):
		return w.Levels[0], true
	}

	found := ""
	for _, l := range w.Levels {
		if _, ok := b.vertices[vertexKey{node: n.ID, floor: l}]; ok {
			if found != "" {
				return "", false
			}
			found = l
		}
	}
	return found, found != ""
}

func (b *builder) vertex(n *osm.Node, floor string, wayTags osm.Tags) string {
	k := vertexKey{node: n.ID, floor: floor}
	rec, ok := b.vertices[k]
	if !ok {
		rec = &building.VertexRecord{ID: k.id(), Floor: floor, Location: b.project(n.Lon, n.Lat)}
		b.vertices[k] = rec
		b.order = append(b.order, k)
		b.floors[floor] = struct{}{}
	}
	addTag := func(t string) {
		if !contains(rec.Tags, t) {
			rec.Tags = append(rec.Tags, t)
		}
	}
	if n.Tags.Find("highway") == "elevator" || wayTags.Find("highway") == "elevator" {
		addTag("elevator")
	}
	if n.Tags.Find("stairs") == "yes" || wayTags.Find("highway") == "steps" {
		addTag("stairs")
	}
	return rec.ID
}

func (b *builder) addEdge(from, to string) {
	if from == to {
		return
	}
	k := [2]string{from, to}
	if from > to {
		k = [2]string{to, from}
	}
	if _, dup := b.edges[k]; dup {
		return
	}
	b.edges[k] = struct{}{}
	b.edgeList = append(b.edgeList, [2]string{from, to})
}

func (b *builder) addWalkway(w wayInfo) {
	prev := ""
	for _, id := range w.NodeIDs {
		n, ok := b.nodes[id]
		if !ok {
			b.skipped++
			prev = ""
			continue
		}
		floor, ok := b.floorOf(n, w)
		if !ok {
			b.logger.Debug("walkway node without a floor", "way", w.ID, "node", id)
			b.skipped++
			prev = ""
			continue
		}
		cur := b.vertex(n, floor, w.Tags)
		if prev != "" {
			b.addEdge(prev, cur)
		}
		prev = cur
	}
}

// linkVertical joins the copies of one node on different floors when the
// node is a stairway or elevator, or is explicitly on several levels.
func (b *builder) linkVertical() {
	byNode := make(map[osm.NodeID][]vertexKey)
	var ids []osm.NodeID
	for _, k := range b.order {
		if _, ok := byNode[k.node]; !ok {
			ids = append(ids, k.node)
		}
		byNode[k.node] = append(byNode[k.node], k)
	}
	for _, id := range ids {
		ks := byNode[id]
		if len(ks) < 2 {
			continue
		}
		n := b.nodes[id]
		vertical := len(nodeLevels(n.Tags)) > 1
		for _, k := range ks {
			if contains(b.vertices[k].Tags, "elevator") || contains(b.vertices[k].Tags, "stairs") {
				vertical = true
			}
		}
		if !vertical {
			continue
		}
		sort.Slice(ks, func(i, j int) bool { return floorLess(ks[i].floor, ks[j].floor) })
		for i := 1; i < len(ks); i++ {
			b.addEdge(ks[i-1].id(), ks[i].id())
		}
	}
}

func (b *builder) addRoom(w wayInfo) {
	if len(w.Levels) != 1 {
		b.logger.Debug("room without a single level", "way", w.ID)
		return
	}
	floor := w.Levels[0]

	key := w.Tags.Find("ref")
	if key == "" {
		key = fmt.Sprintf("w%d", w.ID)
	}
	if _, dup := b.rooms[key]; dup {
		b.logger.Warn("duplicate room ref", "ref", key, "way", w.ID)
		return
	}

	rec := building.RoomRecord{Floor: floor, Description: w.Tags.Find("description")}
	ring := make(orb.Ring, 0, len(w.NodeIDs))
	for _, id := range w.NodeIDs {
		n, ok := b.nodes[id]
		if !ok {
			continue
		}
		p := b.project(n.Lon, n.Lat)
		ring = append(ring, orb.Point(p))
		rec.Outline = append(rec.Outline, p)

		if !n.Tags.HasTag("door") && !n.Tags.HasTag("entrance") {
			continue
		}
		v, ok := b.vertices[vertexKey{node: id, floor: floor}]
		if ok && !contains(rec.Vertices, v.ID) {
			rec.Vertices = append(rec.Vertices, v.ID)
		}
	}
	if len(ring) < 3 {
		return
	}
	c, _ := planar.CentroidArea(ring)
	rec.Center = &[2]float64{math.Round(c[0]*1000) / 1000, math.Round(c[1]*1000) / 1000}

	if name := w.Tags.Find("name"); name != "" {
		rec.Names = append(rec.Names, name)
	}
	for _, alt := range strings.Split(w.Tags.Find("alt_name"), ";") {
		if alt = strings.TrimSpace(alt); alt != "" {
			rec.Names = append(rec.Names, alt)
		}
	}
	rec.Tags = roomTags(w.Tags)
	b.rooms[key] = rec
}

// roomTags derives definition tags from OSM tags.
func roomTags(tags osm.Tags) []string {
	var out []string
	switch tags.Find("amenity") {
	case "toilets":
		switch {
		case tags.Find("male") == "yes" && tags.Find("female") != "yes":
			out = append(out, "bathroom-m")
		case tags.Find("female") == "yes" && tags.Find("male") != "yes":
			out = append(out, "bathroom-w")
		default:
			out = append(out, "bathroom-u")
		}
	case "drinking_water":
		out = append(out, "water-fountain")
	}
	if tags.Find("emergency") == "defibrillator" {
		out = append(out, "aed")
	}
	if tags.Find("access") == "no" || tags.Find("disused") == "yes" {
		out = append(out, "closed")
	}
	return out
}

// floorLess orders floors numerically when both parse as numbers.
func floorLess(a, b string) bool {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		return fa < fb
	}
	return a < b
}

func (b *builder) document() *building.Document {
	doc := &building.Document{Rooms: b.rooms}

	floors := make([]string, 0, len(b.floors))
	for f := range b.floors {
		floors = append(floors, f)
	}
	for _, r := range b.rooms {
		if _, ok := b.floors[r.Floor]; !ok {
			b.floors[r.Floor] = struct{}{}
			floors = append(floors, r.Floor)
		}
	}
	sort.Slice(floors, func(i, j int) bool { return floorLess(floors[i], floors[j]) })
	for _, f := range floors {
		doc.Floors = append(doc.Floors, building.FloorInfo{Number: f})
	}

	for _, k := range b.order {
		doc.Vertices = append(doc.Vertices, *b.vertices[k])
	}
	doc.Edges = b.edgeList
	return doc
}
