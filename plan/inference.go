package plan

import (
	"slices"
	"sort"
	"strings"
)

const (
	// MinRoomArea is the area (cm²) a loop must exceed to become a room.
	MinRoomArea = 10000.0

	minInferenceWalls = 3
	maxLoopDepth      = 15
)

// IDFunc mints identifiers for new entities.
type IDFunc func() string

// wallGraph is the undirected graph of wall endpoints, keyed by lattice node.
// Nodes and adjacency lists keep insertion order so that the search is
// deterministic for a given wall sequence.
type wallGraph struct {
	grid  Grid
	order []GridKey
	adj   map[GridKey][]GridKey
}

func buildWallGraph(walls []Wall, grid Grid) *wallGraph {
	g := &wallGraph{grid: grid, adj: make(map[GridKey][]GridKey)}
	for _, w := range walls {
		a, b := grid.Key(w.Start), grid.Key(w.End)
		if a == b {
			continue
		}
		g.addNode(a)
		g.addNode(b)
		g.link(a, b)
		g.link(b, a)
	}
	return g
}

func (g *wallGraph) addNode(k GridKey) {
	if _, ok := g.adj[k]; ok {
		return
	}
	g.adj[k] = nil
	g.order = append(g.order, k)
}

func (g *wallGraph) link(from, to GridKey) {
	if !slices.Contains(g.adj[from], to) {
		g.adj[from] = append(g.adj[from], to)
	}
}

// neighboursByDistance returns the neighbours of k, nearest to target first.
// Ties keep adjacency order.
func (g *wallGraph) neighboursByDistance(k GridKey, target Point) []GridKey {
	ns := slices.Clone(g.adj[k])
	sort.SliceStable(ns, func(i, j int) bool {
		return Distance(g.grid.Point(ns[i]), target) < Distance(g.grid.Point(ns[j]), target)
	})
	return ns
}

// findLoop runs a depth-bounded, nearest-first search for a cycle through
// start. It is greedy: the first cycle found is returned even if a smaller
// one exists, and some cycles in non-convex layouts are never found.
// The result is a closed ring of at least three distinct nodes, or nil.
func (g *wallGraph) findLoop(start GridKey) []GridKey {
	target := g.grid.Point(start)
	path := []GridKey{start}
	onPath := make(map[GridKey]bool)

	var search func(cur GridKey, depth int) bool
	search = func(cur GridKey, depth int) bool {
		if depth > maxLoopDepth {
			return false
		}
		onPath[cur] = true
		for _, next := range g.neighboursByDistance(cur, target) {
			if depth >= 2 && next == start {
				path = append(path, next)
				return true
			}
			if onPath[next] {
				continue
			}
			path = append(path, next)
			if search(next, depth+1) {
				return true
			}
			path = path[:len(path)-1]
		}
		delete(onPath, cur)
		return false
	}

	if !search(start, 0) {
		return nil
	}
	return closeRing(path)
}

// closeRing collapses consecutive duplicates and repeats the first node at
// the end. Rings with fewer than three distinct nodes yield nil.
func closeRing(path []GridKey) []GridKey {
	ring := []GridKey{path[0]}
	for _, k := range path[1:] {
		if k != ring[len(ring)-1] {
			ring = append(ring, k)
		}
	}
	if ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}
	if len(ring) < 4 {
		return nil
	}
	return ring
}

// signature identifies a ring by its set of nodes, ignoring order and the
// closing duplicate.
func signature(keys []GridKey) string {
	uniq := make([]string, 0, len(keys))
	seen := make(map[GridKey]bool, len(keys))
	for _, k := range keys {
		if seen[k] {
			continue
		}
		seen[k] = true
		uniq = append(uniq, k.String())
	}
	sort.Strings(uniq)
	return strings.Join(uniq, "|")
}

// RoomSignature returns the order-independent identity of a polygon after
// quantizing its points to grid.
func RoomSignature(points []Point, grid Grid) string {
	keys := make([]GridKey, len(points))
	for i, p := range points {
		keys[i] = grid.Key(p)
	}
	return signature(keys)
}

// InferRooms derives the rooms enclosed by walls. Rooms in prior whose
// quantized point set matches a derived loop lend it their id and type;
// every other loop gets a fresh id from newID. Degenerate input yields
// fewer rooms, never an error.
func InferRooms(walls []Wall, prior []Room, grid Grid, newID IDFunc) []Room {
	rooms := []Room{}
	if len(walls) < minInferenceWalls {
		return rooms
	}

	known := make(map[string]Room, len(prior))
	for _, r := range prior {
		sig := RoomSignature(r.Points, grid)
		if _, dup := known[sig]; !dup {
			known[sig] = r
		}
	}

	g := buildWallGraph(walls, grid)
	visited := make(map[GridKey]bool)
	accepted := make(map[string]bool)

	for _, start := range g.order {
		if visited[start] || len(g.adj[start]) < 2 {
			continue
		}
		ring := g.findLoop(start)
		if ring == nil {
			continue
		}
		for _, k := range ring {
			visited[k] = true
		}

		sig := signature(ring)
		if accepted[sig] {
			continue
		}
		accepted[sig] = true

		points := make([]Point, len(ring))
		for i, k := range ring {
			points[i] = grid.Point(k)
		}
		area := PolygonArea(points)
		if area <= MinRoomArea {
			continue
		}

		room := Room{
			Points: points,
			Area:   area,
			Center: PolygonCenter(openRing(points)),
		}
		if prev, ok := known[sig]; ok {
			room.ID = prev.ID
			room.RoomType = prev.RoomType
		} else {
			room.ID = newID()
		}
		rooms = append(rooms, room)
	}
	return rooms
}

// InferRooms re-derives f's rooms from its walls.
func (f Floor) InferRooms(grid Grid, newID IDFunc) Floor {
	return f.WithRooms(InferRooms(f.Walls, f.Rooms, grid, newID))
}
