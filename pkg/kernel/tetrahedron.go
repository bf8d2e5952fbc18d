package kernel

import "fmt"

// Tetrahedron is four ordered points. Construction does not validate them.
type Tetrahedron[N any] struct {
	f Field[N]
	v [4]Point[N]
}

// NewTetrahedron returns the tetrahedron (p0, p1, p2, p3).
func NewTetrahedron[N any](f Field[N], p0, p1, p2, p3 Point[N]) Tetrahedron[N] {
	return Tetrahedron[N]{f: f, v: [4]Point[N]{p0, p1, p2, p3}}
}

// Vertex returns vertex i modulo 4.
func (t Tetrahedron[N]) Vertex(i int) Point[N] {
	return t.v[Mod4(i)]
}

// Vertices returns the four vertices in order.
func (t Tetrahedron[N]) Vertices() [4]Point[N] {
	return t.v
}

// IsDegenerate reports whether the vertices are coplanar.
func (t Tetrahedron[N]) IsDegenerate() bool {
	return coplanar(vec[N]{f: t.f}, t.v)
}

func (t Tetrahedron[N]) String() string {
	s := "Tetrahedron("
	for i, p := range t.v {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("Point(%v, %v, %v)", p.X, p.Y, p.Z)
	}
	return s + ")"
}
