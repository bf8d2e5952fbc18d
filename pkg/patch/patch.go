// Package patch implements the bilinear patch primitive: the ruled surface
//
//	S(u,v) = (1-u)(1-v)*V0 + u(1-v)*V1 + u*v*V2 + (1-u)*v*V3,  (u,v) in [0,1]^2
//
// swept between opposite edges of a spatial quadrilateral. A BilinearPatch
// holds the kernel it was built with and the kernel-constructed
// representation of its four vertices; every predicate is answered by that
// kernel, so the same code runs over exact and floating arithmetic.
package patch

import "github.com/chazu/ruled/pkg/kernel"

// BilinearPatch is an immutable value. The zero value has no kernel and is
// not usable; it is what failed reads return.
type BilinearPatch[N any] struct {
	k   kernel.Kernel[N]
	rep kernel.PatchRep[N]
}

// New builds a patch from four points in the given order. Degenerate
// configurations are accepted.
func New[N any](k kernel.Kernel[N], p, q, r, s kernel.Point[N]) BilinearPatch[N] {
	return BilinearPatch[N]{k: k, rep: k.ConstructPatch(p, q, r, s)}
}

// FromRep wraps an existing kernel representation.
func FromRep[N any](k kernel.Kernel[N], rep kernel.PatchRep[N]) BilinearPatch[N] {
	return BilinearPatch[N]{k: k, rep: rep}
}

// Valid reports whether the patch was constructed through a kernel.
func (bp BilinearPatch[N]) Valid() bool {
	return bp.k != nil
}

// Kernel returns the kernel the patch was built with.
func (bp BilinearPatch[N]) Kernel() kernel.Kernel[N] {
	return bp.k
}

// Rep returns the kernel-level representation.
func (bp BilinearPatch[N]) Rep() kernel.PatchRep[N] {
	return bp.rep
}

// Vertex returns vertex i modulo 4. Any integer is accepted. The zero
// patch returns zero points.
func (bp BilinearPatch[N]) Vertex(i int) kernel.Point[N] {
	if !bp.Valid() {
		return bp.rep[kernel.Mod4(i)]
	}
	return bp.k.ConstructVertex(bp.rep, i)
}

// At is the index operator; it is the same as Vertex.
func (bp BilinearPatch[N]) At(i int) kernel.Point[N] {
	return bp.Vertex(i)
}

// Vertices returns the four vertices in index order.
func (bp BilinearPatch[N]) Vertices() [4]kernel.Point[N] {
	return [4]kernel.Point[N]{bp.Vertex(0), bp.Vertex(1), bp.Vertex(2), bp.Vertex(3)}
}

// Equal reports whether o is bp up to a cyclic rotation of the vertices.
// Reflections reverse the parametrization and do not compare equal. Zero
// patches are equal to each other and to nothing else.
func (bp BilinearPatch[N]) Equal(o BilinearPatch[N]) bool {
	if !bp.Valid() || !o.Valid() {
		return bp.Valid() == o.Valid()
	}
	for k := 0; k < 4; k++ {
		if bp.matches(o, k) {
			return true
		}
	}
	return false
}

// NotEqual is the negation of Equal.
func (bp BilinearPatch[N]) NotEqual(o BilinearPatch[N]) bool {
	return !bp.Equal(o)
}

func (bp BilinearPatch[N]) matches(o BilinearPatch[N], offset int) bool {
	for i := 0; i < 4; i++ {
		if !bp.k.EqualPoints(bp.Vertex(i), o.Vertex(i+offset)) {
			return false
		}
	}
	return true
}

// IsDegenerate reports whether the vertices are collinear. A flat but
// non-collinear quadrilateral is not degenerate.
func (bp BilinearPatch[N]) IsDegenerate() bool {
	return bp.k.IsDegenerate(bp.rep)
}

// HasOn reports whether p is on a vertex, an edge or the face of bp.
func (bp BilinearPatch[N]) HasOn(p kernel.Point[N]) bool {
	return bp.k.HasOn(bp.rep, p)
}

// Transform returns the patch whose vertices are t applied to the vertices
// of bp, in the same order.
func (bp BilinearPatch[N]) Transform(t kernel.Transform[N]) BilinearPatch[N] {
	return New(bp.k,
		t.Apply(bp.Vertex(0)),
		t.Apply(bp.Vertex(1)),
		t.Apply(bp.Vertex(2)),
		t.Apply(bp.Vertex(3)),
	)
}

// Tetrahedron returns the tetrahedron with the patch vertices, in order.
// It may be degenerate.
func (bp BilinearPatch[N]) Tetrahedron() kernel.Tetrahedron[N] {
	return bp.k.ConstructTetrahedron(bp.Vertex(0), bp.Vertex(1), bp.Vertex(2), bp.Vertex(3))
}

// PointAt evaluates S(u,v). Parameters outside [0,1] extrapolate.
func (bp BilinearPatch[N]) PointAt(u, v N) kernel.Point[N] {
	f := bp.k.Field()
	one := f.One()
	nu, nv := f.Sub(one, u), f.Sub(one, v)
	w := [4]N{f.Mul(nu, nv), f.Mul(u, nv), f.Mul(u, v), f.Mul(nu, v)}

	x, y, z := f.Zero(), f.Zero(), f.Zero()
	for i, wi := range w {
		p := bp.Vertex(i)
		x = f.Add(x, f.Mul(wi, p.X))
		y = f.Add(y, f.Mul(wi, p.Y))
		z = f.Add(z, f.Mul(wi, p.Z))
	}
	return kernel.NewPoint(x, y, z)
}

// Rotate returns the patch whose vertex i is vertex i+k of bp. The result
// is Equal to bp.
func (bp BilinearPatch[N]) Rotate(k int) BilinearPatch[N] {
	return New(bp.k, bp.Vertex(k), bp.Vertex(k+1), bp.Vertex(k+2), bp.Vertex(k+3))
}

// Reverse returns the patch with the vertex order reflected (V3, V2, V1,
// V0). It covers the same surface but is not Equal in general.
func (bp BilinearPatch[N]) Reverse() BilinearPatch[N] {
	return New(bp.k, bp.Vertex(3), bp.Vertex(2), bp.Vertex(1), bp.Vertex(0))
}
