// Package kernel defines the abstract geometry kernel interface.
// Implementations (exact, sdfx) supply the number type and its arithmetic;
// the predicates and constructions in this package are written once against
// that arithmetic, so primitives built on a Kernel never depend on how
// numbers are represented or compared.
package kernel

import "github.com/tinylib/msgp/msgp"

// Field is the arithmetic of a kernel's number type.
//
// Values of N are treated as immutable: implementations must return fresh
// values and never modify their arguments.
type Field[N any] interface {
	Zero() N
	One() N
	FromInt(i int64) N
	FromFloat(f float64) N

	Add(a, b N) N
	Sub(a, b N) N
	Mul(a, b N) N
	Div(a, b N) N // b must be non-zero under Sign
	Neg(a N) N

	// Sign returns -1, 0 or +1. It is the kernel's only zero test: exact
	// backends decide it exactly, floating backends apply their tolerance.
	Sign(a N) int

	// Sqrt returns the non-negative square root of a when it is
	// representable in N. ok is false for negative a, and for values whose
	// root is irrational in an exact number type.
	Sqrt(a N) (root N, ok bool)
}

// Codec reads and writes single numbers in the stream grammar shared by all
// primitives of a kernel.
type Codec[N any] interface {
	FormatNumber(a N) string
	ParseNumber(s string) (N, error)
	AppendNumber(b []byte, a N) []byte
	ReadNumber(r *msgp.Reader) (N, error)
}

// Kernel is the abstract geometry kernel interface.
// Primitives construct their representation through it and route every
// predicate through it.
type Kernel[N any] interface {
	Field() Field[N]
	Codec() Codec[N]

	// Construction
	ConstructPatch(p, q, r, s Point[N]) PatchRep[N]
	ConstructVertex(bp PatchRep[N], i int) Point[N]
	ConstructTetrahedron(p0, p1, p2, p3 Point[N]) Tetrahedron[N]

	// Predicates
	EqualPoints(a, b Point[N]) bool
	IsDegenerate(bp PatchRep[N]) bool
	HasOn(bp PatchRep[N], p Point[N]) bool
}

// Transform maps points to points. Affine transformations of any kernel
// implement it.
type Transform[N any] interface {
	Apply(p Point[N]) Point[N]
}

// PatchRep is the kernel-level storage of a bilinear patch: four points in
// parametrization order.
type PatchRep[N any] [4]Point[N]
