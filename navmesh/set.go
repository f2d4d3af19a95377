package navmesh

// NavMeshSet is a resource holding multiple navigation meshes keyed by their
// id, useful when a scene has several disjoint walkable islands.
type NavMeshSet struct {
	meshes map[MeshID]*NavMesh
}

// NewNavMeshSet constructs an empty set.
func NewNavMeshSet() *NavMeshSet {
	return &NavMeshSet{meshes: make(map[MeshID]*NavMesh)}
}

// Register adds a mesh keyed by its id.
func (s *NavMeshSet) Register(mesh *NavMesh) {
	if mesh != nil {
		s.meshes[mesh.ID()] = mesh
	}
}

// Unregister removes a mesh, reporting whether it was present.
func (s *NavMeshSet) Unregister(id MeshID) bool {
	if _, ok := s.meshes[id]; !ok {
		return false
	}
	delete(s.meshes, id)
	return true
}

// UnregisterAll clears the set.
func (s *NavMeshSet) UnregisterAll() {
	s.meshes = make(map[MeshID]*NavMesh)
}

// Len reports how many meshes are registered.
func (s *NavMeshSet) Len() int {
	return len(s.meshes)
}

// FindMesh fetches a mesh by id.
func (s *NavMeshSet) FindMesh(id MeshID) *NavMesh {
	return s.meshes[id]
}

// Meshes iterates the registered meshes.
func (s *NavMeshSet) Meshes(fn func(*NavMesh) bool) {
	for _, mesh := range s.meshes {
		if !fn(mesh) {
			return
		}
	}
}

// ClosestPoint snaps the point to the nearest registered mesh, reporting
// which mesh won.
func (s *NavMeshSet) ClosestPoint(point Vec3, query NavQuery) (MeshID, Vec3, bool) {
	var bestID MeshID
	var bestPoint Vec3
	bestDist := -1.0
	for id, mesh := range s.meshes {
		snapped, ok := mesh.ClosestPoint(point, query)
		if !ok {
			continue
		}
		dist := snapped.Sub(point).SqrMagnitude()
		if bestDist < 0 || dist < bestDist {
			bestID, bestPoint, bestDist = id, snapped, dist
		}
	}
	return bestID, bestPoint, bestDist >= 0
}
