package navmesh

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func vecAlmostEqual(a, b Vec3) bool {
	return almostEqual(a.X, b.X) && almostEqual(a.Y, b.Y) && almostEqual(a.Z, b.Z)
}

func TestVec3ProjectUnproject(t *testing.T) {
	from := NewVec3(0, 0, 0)
	to := NewVec3(10, 0, 0)

	if p := NewVec3(5, 3, 0).Project(from, to); !almostEqual(p, 0.5) {
		t.Fatalf("unexpected projection parameter: %f", p)
	}
	if p := NewVec3(-2, 0, 0).Project(from, to); p >= 0 {
		t.Fatalf("point behind segment should project negative, got %f", p)
	}
	if p := NewVec3(12, 0, 0).Project(from, to); p <= 1 {
		t.Fatalf("point past segment should project beyond one, got %f", p)
	}
	if v := Unproject(from, to, 0.25); !vecAlmostEqual(v, NewVec3(2.5, 0, 0)) {
		t.Fatalf("unexpected unprojection: %v", v)
	}
}

func TestVec3CrossAndNormalize(t *testing.T) {
	n := NewVec3(1, 0, 0).Cross(NewVec3(0, 1, 0))
	if !vecAlmostEqual(n, NewVec3(0, 0, 1)) {
		t.Fatalf("unexpected cross product: %v", n)
	}
	u := NewVec3(0, 3, 4).Normalize()
	if !almostEqual(u.Magnitude(), 1) {
		t.Fatalf("normalized magnitude should be 1, got %f", u.Magnitude())
	}
}

func TestLinesIntersect(t *testing.T) {
	normal := NewVec3(0, 0, 1)
	if !LinesIntersect(NewVec3(0, 0, 0), NewVec3(2, 2, 0), NewVec3(0, 2, 0), NewVec3(2, 0, 0), normal) {
		t.Fatalf("crossing segments should intersect")
	}
	if LinesIntersect(NewVec3(0, 0, 0), NewVec3(1, 0, 0), NewVec3(0, 1, 0), NewVec3(1, 1, 0), normal) {
		t.Fatalf("parallel segments should not intersect")
	}
	if LinesIntersect(NewVec3(0, 0, 0), NewVec3(1, 1, 0), NewVec3(3, 0, 0), NewVec3(0, 3, 0), normal) {
		t.Fatalf("non-overlapping segments should not intersect")
	}
}

func TestProjectOnPlane(t *testing.T) {
	p := NewVec3(3, 4, 7).ProjectOnPlane(NewVec3(0, 0, 2), NewVec3(0, 0, 1))
	if !vecAlmostEqual(p, NewVec3(3, 4, 2)) {
		t.Fatalf("unexpected plane projection: %v", p)
	}
}
