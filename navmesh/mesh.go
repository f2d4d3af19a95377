package navmesh

import (
	"fmt"
	"math"

	"github.com/dhconnelly/rtreego"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/iterator"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/embergine/embergine"
)

// MeshID identifies a navigation mesh.
type MeshID = embergine.Id[NavMesh]

// TriangleIndexError reports a triangle referencing a vertex out of range.
type TriangleIndexError struct {
	Triangle int
	Corner   int
	Vertex   uint32
}

func (e TriangleIndexError) Error() string {
	return fmt.Sprintf("navmesh: triangle %d corner %d references vertex %d out of range",
		e.Triangle, e.Corner, e.Vertex)
}

// NavTriangle references three vertices by index.
type NavTriangle struct {
	First, Second, Third uint32
}

// Triangle is a convenience constructor.
func Triangle(first, second, third uint32) NavTriangle {
	return NavTriangle{First: first, Second: second, Third: third}
}

// NavArea is the derived per-triangle record: centroid, enclosing radius,
// and runtime traversal cost.
type NavArea struct {
	Triangle  uint32
	Size      float64
	Cost      float64
	InvCost   float64
	Center    Vec3
	Radius    float64
	RadiusSqr float64
}

// TriangleArea computes the area of the triangle a, b, c.
func TriangleArea(a, b, c Vec3) float64 {
	return b.Sub(a).Cross(c.Sub(a)).Magnitude() * 0.5
}

// TriangleCenter computes the centroid of the triangle a, b, c.
func TriangleCenter(a, b, c Vec3) Vec3 {
	return a.Add(b).Add(c).Scale(1.0 / 3.0)
}

// connection is an undirected pair of indices; ordering is normalized so
// (a, b) and (b, a) key the same entry.
type connection struct {
	a, b uint32
}

func newConnection(a, b uint32) connection {
	if a > b {
		a, b = b, a
	}
	return connection{a: a, b: b}
}

// spatialTriangle is the r-tree resident: one triangle with precomputed edge
// directions and plane normal for closest-point queries.
type spatialTriangle struct {
	index   int
	a, b, c Vec3
	normal  Vec3
	dab     Vec3
	dbc     Vec3
	dca     Vec3
	bounds  rtreego.Rect
}

func newSpatialTriangle(index int, a, b, c Vec3) *spatialTriangle {
	ab := b.Sub(a)
	bc := c.Sub(b)
	ca := a.Sub(c)
	normal := a.Sub(b).Cross(a.Sub(c)).Normalize()
	s := &spatialTriangle{
		index:  index,
		a:      a,
		b:      b,
		c:      c,
		normal: normal,
		dab:    normal.Cross(ab),
		dbc:    normal.Cross(bc),
		dca:    normal.Cross(ca),
	}
	s.bounds = triangleBounds(a, b, c)
	return s
}

func triangleBounds(a, b, c Vec3) rtreego.Rect {
	min := Vec3{
		X: math.Min(a.X, math.Min(b.X, c.X)),
		Y: math.Min(a.Y, math.Min(b.Y, c.Y)),
		Z: math.Min(a.Z, math.Min(b.Z, c.Z)),
	}
	max := Vec3{
		X: math.Max(a.X, math.Max(b.X, c.X)),
		Y: math.Max(a.Y, math.Max(b.Y, c.Y)),
		Z: math.Max(a.Z, math.Max(b.Z, c.Z)),
	}
	lengths := []float64{max.X - min.X, max.Y - min.Y, max.Z - min.Z}
	for i := range lengths {
		if lengths[i] < ZeroTreshold {
			lengths[i] = ZeroTreshold
		}
	}
	rect, err := rtreego.NewRect(rtreego.Point{min.X, min.Y, min.Z}, lengths)
	if err != nil {
		panic(fmt.Sprintf("navmesh: triangle bounds: %v", err))
	}
	return rect
}

// Bounds implements rtreego.Spatial.
func (s *spatialTriangle) Bounds() rtreego.Rect {
	return s.bounds
}

// Normal returns the triangle plane normal.
func (s *spatialTriangle) Normal() Vec3 {
	return s.normal
}

// ClosestPoint projects the query point onto each edge and classifies it
// against the triangle's Voronoi regions: a corner, a point on an edge, or a
// projection onto the triangle plane.
func (s *spatialTriangle) ClosestPoint(point Vec3) Vec3 {
	pab := point.Project(s.a, s.b)
	pbc := point.Project(s.b, s.c)
	pca := point.Project(s.c, s.a)
	switch {
	case pca > 1 && pab < 0:
		return s.a
	case pab > 1 && pbc < 0:
		return s.b
	case pbc > 1 && pca < 0:
		return s.c
	case pab >= 0 && pab <= 1 && !point.IsAbovePlane(s.a, s.dab):
		return Unproject(s.a, s.b, pab)
	case pbc >= 0 && pbc <= 1 && !point.IsAbovePlane(s.b, s.dbc):
		return Unproject(s.b, s.c, pbc)
	case pca >= 0 && pca <= 1 && !point.IsAbovePlane(s.c, s.dca):
		return Unproject(s.c, s.a, pca)
	}
	return point.ProjectOnPlane(s.a, s.normal)
}

func (s *spatialTriangle) distanceSqr(point Vec3) float64 {
	return point.Sub(s.ClosestPoint(point)).SqrMagnitude()
}

// NavQuery selects how closest-triangle lookups trade accuracy for cost.
type NavQuery uint8

const (
	// NavQueryAccuracy asks the r-tree for its nearest neighbor.
	NavQueryAccuracy NavQuery = iota
	// NavQueryClosest scans candidates and picks the minimum true distance.
	NavQueryClosest
	// NavQueryClosestFirst takes the first close candidate, cheap but
	// approximate.
	NavQueryClosestFirst
)

// NavPathMode selects the string-pulling refinement applied to found paths.
type NavPathMode uint8

const (
	// NavPathModeAccuracy tests shared-edge endpoints against hard edges.
	NavPathModeAccuracy NavPathMode = iota
	// NavPathModeMidPoints walks shared-edge midpoints and prunes
	// straight-line reachable ones.
	NavPathModeMidPoints
)

type connectionInfo struct {
	weight float64
	edge   connection
}

// NavMesh is a triangulated walkable surface with a spatial index, a triangle
// adjacency graph, and a hard-edge list for path refinement.
type NavMesh struct {
	id          MeshID
	vertices    []Vec3
	triangles   []NavTriangle
	areas       []NavArea
	connections map[connection]connectionInfo
	base        *simple.WeightedUndirectedGraph
	rtree       *rtreego.Rtree
	spatials    []*spatialTriangle
	hardEdges   map[int][][2]Vec3
}

// NewNavMesh validates the triangles and derives areas, adjacency, the
// weighted triangle graph, the spatial index, and hard edges.
func NewNavMesh(vertices []Vec3, triangles []NavTriangle) (*NavMesh, error) {
	areas := make([]NavArea, 0, len(triangles))
	for i, triangle := range triangles {
		for corner, vertex := range [3]uint32{triangle.First, triangle.Second, triangle.Third} {
			if vertex >= uint32(len(vertices)) {
				return nil, TriangleIndexError{Triangle: i, Corner: corner, Vertex: vertex}
			}
		}
		first := vertices[triangle.First]
		second := vertices[triangle.Second]
		third := vertices[triangle.Third]
		center := TriangleCenter(first, second, third)
		radius := math.Max(first.Sub(center).Magnitude(),
			math.Max(second.Sub(center).Magnitude(), third.Sub(center).Magnitude()))
		areas = append(areas, NavArea{
			Triangle:  uint32(i),
			Size:      TriangleArea(first, second, third),
			Cost:      1,
			InvCost:   1,
			Center:    center,
			Radius:    radius,
			RadiusSqr: radius * radius,
		})
	}

	// {edge: [triangle index]}
	edges := make(map[connection][]int, len(triangles)*3)
	for index, triangle := range triangles {
		for _, edge := range triangleEdges(triangle) {
			edges[edge] = append(edges[edge], index)
		}
	}

	connections := make(map[connection]connectionInfo)
	for edge, tris := range edges {
		for _, a := range tris {
			for _, b := range tris {
				if a == b {
					continue
				}
				conn := newConnection(uint32(a), uint32(b))
				if _, ok := connections[conn]; ok {
					continue
				}
				weight := areas[b].Center.Sub(areas[a].Center).SqrMagnitude()
				connections[conn] = connectionInfo{weight: weight, edge: edge}
			}
		}
	}

	base := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	for i := range triangles {
		base.AddNode(simple.Node(i))
	}
	for conn, info := range connections {
		base.SetWeightedEdge(simple.WeightedEdge{
			F: simple.Node(conn.a),
			T: simple.Node(conn.b),
			W: info.weight,
		})
	}

	spatials := make([]*spatialTriangle, 0, len(triangles))
	for index, triangle := range triangles {
		spatials = append(spatials, newSpatialTriangle(index,
			vertices[triangle.First], vertices[triangle.Second], vertices[triangle.Third]))
	}
	rtree := rtreego.NewTree(3, 2, 8)
	for _, spatial := range spatials {
		rtree.Insert(spatial)
	}

	hardEdges := make(map[int][][2]Vec3)
	for index, triangle := range triangles {
		for _, edge := range triangleEdges(triangle) {
			if len(edges[edge]) >= 2 {
				continue
			}
			hardEdges[index] = append(hardEdges[index], [2]Vec3{vertices[edge.a], vertices[edge.b]})
		}
	}

	return &NavMesh{
		id:          embergine.NewId[NavMesh](),
		vertices:    vertices,
		triangles:   triangles,
		areas:       areas,
		connections: connections,
		base:        base,
		rtree:       rtree,
		spatials:    spatials,
		hardEdges:   hardEdges,
	}, nil
}

func triangleEdges(t NavTriangle) [3]connection {
	return [3]connection{
		newConnection(t.First, t.Second),
		newConnection(t.Second, t.Third),
		newConnection(t.Third, t.First),
	}
}

// ID returns the mesh id.
func (m *NavMesh) ID() MeshID { return m.id }

// Vertices exposes the mesh vertices.
func (m *NavMesh) Vertices() []Vec3 { return m.vertices }

// Triangles exposes the mesh triangles.
func (m *NavMesh) Triangles() []NavTriangle { return m.triangles }

// Areas exposes the derived per-triangle records.
func (m *NavMesh) Areas() []NavArea { return m.areas }

// HardEdges returns the hard edges of a triangle, nil when it has none.
func (m *NavMesh) HardEdges(triangle int) [][2]Vec3 {
	return m.hardEdges[triangle]
}

// SetAreaCost updates a triangle's runtime traversal cost, returning the
// previous value. A cost of zero disables the triangle for pathfinding.
func (m *NavMesh) SetAreaCost(index int, cost float64) float64 {
	area := &m.areas[index]
	old := area.Cost
	cost = math.Max(cost, 0)
	area.Cost = cost
	if cost == 0 {
		area.InvCost = 0
	} else {
		area.InvCost = 1 / cost
	}
	return old
}

// FindClosestTriangle locates the triangle nearest to the point under the
// given query mode, reporting false on an empty mesh.
func (m *NavMesh) FindClosestTriangle(point Vec3, query NavQuery) (int, bool) {
	if len(m.spatials) == 0 {
		return 0, false
	}
	pt := rtreego.Point{point.X, point.Y, point.Z}
	switch query {
	case NavQueryClosestFirst:
		candidates := m.rtree.NearestNeighbors(1, pt)
		if len(candidates) == 0 || candidates[0] == nil {
			return 0, false
		}
		return candidates[0].(*spatialTriangle).index, true
	case NavQueryClosest:
		candidates := m.rtree.NearestNeighbors(len(m.spatials), pt)
		best, bestDist := -1, math.Inf(1)
		for _, candidate := range candidates {
			if candidate == nil {
				continue
			}
			spatial := candidate.(*spatialTriangle)
			if dist := spatial.distanceSqr(point); dist < bestDist {
				best, bestDist = spatial.index, dist
			}
		}
		if best < 0 {
			return 0, false
		}
		return best, true
	default:
		nearest := m.rtree.NearestNeighbor(pt)
		if nearest == nil {
			return 0, false
		}
		return nearest.(*spatialTriangle).index, true
	}
}

// ClosestPoint snaps the point onto the mesh under the given query mode.
func (m *NavMesh) ClosestPoint(point Vec3, query NavQuery) (Vec3, bool) {
	triangle, ok := m.FindClosestTriangle(point, query)
	if !ok {
		return Vec3{}, false
	}
	return m.spatials[triangle].ClosestPoint(point), true
}

// costedGraph traverses the base triangle graph with runtime costs applied:
// edge weight is the base weight scaled by both endpoint costs, and disabled
// triangles (inverse cost zero) are skipped entirely.
type costedGraph struct {
	mesh *NavMesh
}

func (g costedGraph) From(id int64) graph.Nodes {
	if g.mesh.areas[id].InvCost == 0 {
		return graph.Empty
	}
	var nodes []graph.Node
	it := g.mesh.base.From(id)
	for it.Next() {
		node := it.Node()
		if g.mesh.areas[node.ID()].InvCost == 0 {
			continue
		}
		nodes = append(nodes, node)
	}
	if len(nodes) == 0 {
		return graph.Empty
	}
	return iterator.NewOrderedNodes(nodes)
}

func (g costedGraph) Edge(uid, vid int64) graph.Edge {
	return g.mesh.base.Edge(uid, vid)
}

func (g costedGraph) Weight(xid, yid int64) (float64, bool) {
	w, ok := g.mesh.base.Weight(xid, yid)
	if !ok {
		return w, false
	}
	return w * g.mesh.areas[xid].Cost * g.mesh.areas[yid].Cost, true
}

var _ graph.Weighted = costedGraph{}

func (g costedGraph) Node(id int64) graph.Node { return g.mesh.base.Node(id) }

func (g costedGraph) Nodes() graph.Nodes { return g.mesh.base.Nodes() }

func (g costedGraph) WeightedEdge(uid, vid int64) graph.WeightedEdge {
	edge := g.mesh.base.Edge(uid, vid)
	if edge == nil {
		return nil
	}
	w, _ := g.Weight(uid, vid)
	return simple.WeightedEdge{F: edge.From(), T: edge.To(), W: w}
}

func (g costedGraph) HasEdgeBetween(xid, yid int64) bool {
	return g.mesh.base.HasEdgeBetween(xid, yid)
}

// FindPathTriangles runs A* over the triangle graph with a zero heuristic,
// so search degenerates to deterministic cost-only shortest paths.
func (m *NavMesh) FindPathTriangles(from, to int) ([]int, float64, bool) {
	if from < 0 || to < 0 || from >= len(m.triangles) || to >= len(m.triangles) {
		return nil, 0, false
	}
	g := costedGraph{mesh: m}
	shortest, _ := path.AStar(simple.Node(from), simple.Node(to), g, zeroHeuristic)
	nodes, cost := shortest.To(int64(to))
	if len(nodes) == 0 {
		return nil, 0, false
	}
	out := make([]int, 0, len(nodes))
	for _, node := range nodes {
		out = append(out, int(node.ID()))
	}
	return out, cost, true
}

func zeroHeuristic(_, _ graph.Node) float64 { return 0 }

// FindPath locates start and end triangles, snaps the endpoints onto them,
// searches the triangle graph, and applies the requested refinement.
func (m *NavMesh) FindPath(from, to Vec3, query NavQuery, mode NavPathMode) ([]Vec3, bool) {
	start, ok := m.FindClosestTriangle(from, query)
	if !ok {
		return nil, false
	}
	end, ok := m.FindClosestTriangle(to, query)
	if !ok {
		return nil, false
	}
	from = m.spatials[start].ClosestPoint(from)
	to = m.spatials[end].ClosestPoint(to)
	triangles, _, ok := m.FindPathTriangles(start, end)
	if !ok || len(triangles) == 0 {
		return nil, false
	}
	if len(triangles) == 1 {
		return []Vec3{from, to}, true
	}
	switch mode {
	case NavPathModeMidPoints:
		return m.refineMidPoints(triangles, from, to), true
	default:
		return m.refineAccuracy(triangles, from, to), true
	}
}

// sharedEdge returns the vertex positions of the edge shared by two adjacent
// triangles along a path.
func (m *NavMesh) sharedEdge(a, b int) (Vec3, Vec3) {
	info := m.connections[newConnection(uint32(a), uint32(b))]
	return m.vertices[info.edge.a], m.vertices[info.edge.b]
}

func (m *NavMesh) refineMidPoints(triangles []int, from, to Vec3) []Vec3 {
	type step struct {
		center    Vec3
		hardEdges [][2]Vec3
		normal    Vec3
	}
	steps := make([]step, 0, len(triangles))
	for i := 0; i+1 < len(triangles); i++ {
		a, b := m.sharedEdge(triangles[i], triangles[i+1])
		steps = append(steps, step{
			center:    a.Add(b).Scale(0.5),
			hardEdges: m.hardEdges[triangles[i]],
			normal:    m.spatials[triangles[i]].Normal(),
		})
	}
	last := triangles[len(triangles)-1]
	steps = append(steps, step{
		center:    to,
		hardEdges: m.hardEdges[last],
		normal:    m.spatials[last].Normal(),
	})

	points := []Vec3{from}
	anchor := from
	lastCenter := from
	var lastNormal *Vec3
	for _, s := range steps {
		if s.hardEdges == nil {
			continue
		}
		oldLast := lastCenter
		oldNormal := s.normal
		if lastNormal != nil {
			oldNormal = *lastNormal
		}
		lastCenter = s.center
		normal := s.normal
		lastNormal = &normal
		cut := false
		for _, edge := range s.hardEdges {
			if LinesIntersect(anchor, s.center, edge[0], edge[1], s.normal) {
				cut = true
				break
			}
		}
		if oldNormal.Dot(s.normal) < 1-ZeroTreshold || cut {
			anchor = oldLast
			points = append(points, oldLast)
		}
	}
	return append(points, to)
}

func (m *NavMesh) refineAccuracy(triangles []int, from, to Vec3) []Vec3 {
	type step struct {
		first     Vec3
		second    Vec3
		hardEdges [][2]Vec3
		normal    Vec3
	}
	steps := make([]step, 0, len(triangles))
	for i := 0; i+1 < len(triangles); i++ {
		a, b := m.sharedEdge(triangles[i], triangles[i+1])
		steps = append(steps, step{
			first:     a,
			second:    b,
			hardEdges: m.hardEdges[triangles[i]],
			normal:    m.spatials[triangles[i]].Normal(),
		})
	}
	last := triangles[len(triangles)-1]
	steps = append(steps, step{
		first:     to,
		second:    to,
		hardEdges: m.hardEdges[last],
		normal:    m.spatials[last].Normal(),
	})

	points := []Vec3{from}
	anchor := from
	lastFirst := from
	lastSecond := from
	var lastNormal *Vec3
	for _, s := range steps {
		if s.hardEdges == nil {
			continue
		}
		oldFirst := lastFirst
		oldSecond := lastSecond
		oldNormal := s.normal
		if lastNormal != nil {
			oldNormal = *lastNormal
		}
		lastFirst = s.first
		lastSecond = s.second
		normal := s.normal
		lastNormal = &normal
		gotFirst := false
		gotSecond := false
		for _, edge := range s.hardEdges {
			if !gotFirst && LinesIntersect(anchor, s.first, edge[0], edge[1], s.normal) {
				gotFirst = true
			}
			if !gotSecond && LinesIntersect(anchor, s.second, edge[0], edge[1], s.normal) {
				gotSecond = true
			}
		}
		switch {
		case gotFirst && gotSecond:
			// Both endpoints are cut off: advance to the farther corner so
			// the next segment clears the obstruction.
			df := oldFirst.Sub(anchor).SqrMagnitude()
			ds := oldSecond.Sub(anchor).SqrMagnitude()
			if df > ds {
				anchor = oldFirst
			} else {
				anchor = oldSecond
			}
			points = append(points, anchor)
		case gotFirst:
			anchor = oldFirst
			points = append(points, anchor)
		case gotSecond:
			anchor = oldSecond
			points = append(points, anchor)
		case oldNormal.Dot(s.normal) < 1-ZeroTreshold:
			anchor = oldFirst.Add(oldSecond).Scale(0.5)
			points = append(points, anchor)
		}
	}
	return append(points, to)
}

// PathTargetPoint projects the point onto the path, advances it by offset
// along the polyline, and returns the world point with its arc length.
func PathTargetPoint(path []Vec3, point Vec3, offset float64) (Vec3, float64) {
	switch len(path) {
	case 0:
		return point, 0
	case 1:
		return path[0], 0
	case 2:
		return pointOnLine(path[0], path[1], point, offset)
	}
	bestPoint := path[0]
	bestDist := math.Inf(-1)
	travelled := 0.0
	for i := 0; i+1 < len(path); i++ {
		p, d := pointOnLine(path[i], path[i+1], point, offset)
		total := travelled + d
		if total > bestDist {
			bestPoint, bestDist = p, total
		}
		travelled += path[i+1].Sub(path[i]).Magnitude()
	}
	return bestPoint, bestDist
}

// PathLength measures the path.
func PathLength(path []Vec3) float64 {
	switch len(path) {
	case 0, 1:
		return 0
	}
	total := 0.0
	for i := 0; i+1 < len(path); i++ {
		total += path[i+1].Sub(path[i]).SqrMagnitude()
	}
	return math.Sqrt(total)
}

func pointOnLine(from, to, point Vec3, offset float64) (Vec3, float64) {
	d := to.Sub(from).Magnitude()
	if d < ZeroTreshold {
		return from, 0
	}
	p := point.Project(from, to) + offset/d
	if p <= 0 {
		return from, 0
	}
	if p >= 1 {
		return to, d
	}
	return Unproject(from, to, p), p * d
}
