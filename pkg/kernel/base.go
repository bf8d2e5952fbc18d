package kernel

// Base implements Kernel for any Field. Backends embed it and supply their
// arithmetic and codec; a backend with a faster or pre-built predicate can
// override the corresponding method.
type Base[N any] struct {
	field Field[N]
	codec Codec[N]
}

// NewBase returns a kernel computing with f and reading/writing numbers
// with c.
func NewBase[N any](f Field[N], c Codec[N]) *Base[N] {
	return &Base[N]{field: f, codec: c}
}

// Field returns the kernel arithmetic.
func (k *Base[N]) Field() Field[N] { return k.field }

// Codec returns the kernel number codec.
func (k *Base[N]) Codec() Codec[N] { return k.codec }

// ConstructPatch stores the four points in the given order. No validation
// is performed; degenerate configurations are valid patches.
func (k *Base[N]) ConstructPatch(p, q, r, s Point[N]) PatchRep[N] {
	return PatchRep[N]{p, q, r, s}
}

// ConstructVertex returns vertex i modulo 4. Negative indices wrap.
func (k *Base[N]) ConstructVertex(bp PatchRep[N], i int) Point[N] {
	return bp[Mod4(i)]
}

// ConstructTetrahedron builds a tetrahedron from four points, order
// preserved.
func (k *Base[N]) ConstructTetrahedron(p0, p1, p2, p3 Point[N]) Tetrahedron[N] {
	return NewTetrahedron(k.field, p0, p1, p2, p3)
}

// EqualPoints compares coordinates with the field's zero test.
func (k *Base[N]) EqualPoints(a, b Point[N]) bool {
	return vec[N]{f: k.field}.equal(a, b)
}

// IsDegenerate reports whether the patch vertices are collinear.
func (k *Base[N]) IsDegenerate(bp PatchRep[N]) bool {
	return collinear(vec[N]{f: k.field}, bp)
}

// HasOn reports whether p lies on a vertex, an edge or the interior of bp.
func (k *Base[N]) HasOn(bp PatchRep[N], p Point[N]) bool {
	return patchHasOn(k.field, bp, p)
}

// Mod4 normalizes a vertex index into [0, 4).
func Mod4(i int) int {
	return ((i % 4) + 4) % 4
}
