// Package navmesh answers closest-point and shortest-walkable-path queries
// over triangulated walkable surfaces, backed by an r-tree spatial index and
// an A* search over the triangle adjacency graph.
package navmesh

import "math"

// ZeroTreshold is the numeric tolerance below which lengths and dot-product
// deviations are treated as zero.
const ZeroTreshold = 1e-6

// Vec3 is a position or direction in 3D space.
type Vec3 struct {
	X, Y, Z float64
}

// NewVec3 constructs a vector.
func NewVec3(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// Scale returns v scaled by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Dot returns the dot product.
func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Cross returns the cross product.
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

// SqrMagnitude returns the squared length.
func (v Vec3) SqrMagnitude() float64 {
	return v.Dot(v)
}

// Magnitude returns the length.
func (v Vec3) Magnitude() float64 {
	return math.Sqrt(v.SqrMagnitude())
}

// Normalize returns a unit-length copy; zero-length vectors come back
// unchanged.
func (v Vec3) Normalize() Vec3 {
	m := v.Magnitude()
	if m < ZeroTreshold {
		return v
	}
	return v.Scale(1.0 / m)
}

// Project returns the parameter of v projected onto the segment from-to: 0
// at from, 1 at to, outside [0, 1] beyond the endpoints.
func (v Vec3) Project(from, to Vec3) float64 {
	diff := to.Sub(from)
	sqr := diff.SqrMagnitude()
	if sqr < ZeroTreshold*ZeroTreshold {
		return 0
	}
	return v.Sub(from).Dot(diff) / sqr
}

// Unproject maps a segment parameter back to a world point.
func Unproject(from, to Vec3, t float64) Vec3 {
	return from.Add(to.Sub(from).Scale(t))
}

// IsAbovePlane reports whether v lies on the positive side of the plane
// through origin with the given normal.
func (v Vec3) IsAbovePlane(origin, normal Vec3) bool {
	return normal.Normalize().Dot(v.Sub(origin)) > -ZeroTreshold
}

// ProjectOnPlane drops v onto the plane through origin with the given normal.
func (v Vec3) ProjectOnPlane(origin, normal Vec3) Vec3 {
	n := normal.Normalize()
	return v.Sub(n.Scale(n.Dot(v.Sub(origin))))
}

// LinesIntersect reports whether segments (a1, a2) and (b1, b2), both lying
// in the plane with the given normal, properly cross each other.
func LinesIntersect(a1, a2, b1, b2, normal Vec3) bool {
	d1 := sideSign(b1, b2, a1, normal)
	d2 := sideSign(b1, b2, a2, normal)
	d3 := sideSign(a1, a2, b1, normal)
	d4 := sideSign(a1, a2, b2, normal)
	return d1*d2 < 0 && d3*d4 < 0
}

// sideSign classifies p against the segment from-to within the plane: the
// sign of the in-plane perpendicular component.
func sideSign(from, to, p Vec3, normal Vec3) float64 {
	v := normal.Dot(to.Sub(from).Cross(p.Sub(from)))
	if v > ZeroTreshold {
		return 1
	}
	if v < -ZeroTreshold {
		return -1
	}
	return 0
}
