// Package sdfx implements the kernel.Kernel interface over float64, using
// the github.com/deadsy/sdfx CAD library for vectors and affine matrices.
// Zero tests use an absolute tolerance. Patch predicates first map the patch
// into a unit box, so for them the tolerance is relative to the patch size.
package sdfx

import (
	"math"
	"math/big"
	"strconv"

	"github.com/chazu/ruled/pkg/kernel"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/tinylib/msgp/msgp"
)

// Compile-time interface checks.
var (
	_ kernel.Kernel[float64]    = (*SdfxKernel)(nil)
	_ kernel.Transform[float64] = Transform{}
)

// DefaultTolerance is the magnitude below which a value is treated as zero.
const DefaultTolerance = 1e-9

// Option configures an SdfxKernel.
type Option func(*options)

type options struct {
	tolerance float64
}

// WithTolerance sets the zero tolerance. Non-positive values select exact
// float comparison.
func WithTolerance(tol float64) Option {
	return func(o *options) {
		o.tolerance = tol
	}
}

// SdfxKernel implements kernel.Kernel using float64 arithmetic.
type SdfxKernel struct {
	*kernel.Base[float64]
	tolerance float64
}

// New returns a new SdfxKernel.
func New(opts ...Option) *SdfxKernel {
	o := options{tolerance: DefaultTolerance}
	for _, opt := range opts {
		opt(&o)
	}
	if o.tolerance < 0 {
		o.tolerance = 0
	}
	f := field{tol: o.tolerance}
	return &SdfxKernel{
		Base:      kernel.NewBase[float64](f, codec{}),
		tolerance: o.tolerance,
	}
}

// Tolerance returns the zero tolerance of the kernel.
func (k *SdfxKernel) Tolerance() float64 {
	return k.tolerance
}

// IsDegenerate reports whether the patch vertices are collinear, measured
// in the patch's unit frame.
func (k *SdfxKernel) IsDegenerate(bp kernel.PatchRep[float64]) bool {
	t := unitFrame(bp)
	return k.Base.IsDegenerate(applyRep(t, bp))
}

// HasOn reports whether p lies on bp, measured in the patch's unit frame.
func (k *SdfxKernel) HasOn(bp kernel.PatchRep[float64], p kernel.Point[float64]) bool {
	t := unitFrame(bp)
	return k.Base.HasOn(applyRep(t, bp), t.Apply(p))
}

// unitFrame returns the transform taking the bounding box of bp to a box
// centred on the origin whose largest half-side is 1. Containment and
// collinearity are invariant under it.
func unitFrame(bp kernel.PatchRep[float64]) Transform {
	box := sdf.Box3{Min: ToVec(bp[0]), Max: ToVec(bp[0])}
	for _, p := range bp[1:] {
		box = box.Include(ToVec(p))
	}
	move := FromM44(sdf.Translate3d(box.Center().Neg()))
	half := box.Size().MaxComponent() / 2
	if half == 0 {
		return move
	}
	s := 1 / half
	return move.Then(FromM44(sdf.Scale3d(v3.Vec{X: s, Y: s, Z: s})))
}

func applyRep(t Transform, bp kernel.PatchRep[float64]) kernel.PatchRep[float64] {
	var out kernel.PatchRep[float64]
	for i, p := range bp {
		out[i] = t.Apply(p)
	}
	return out
}

// Translate returns the transform moving points by (x, y, z).
func (k *SdfxKernel) Translate(x, y, z float64) Transform {
	return FromM44(sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z}))
}

// Scale returns the transform scaling about the origin by (x, y, z).
func (k *SdfxKernel) Scale(x, y, z float64) Transform {
	return FromM44(sdf.Scale3d(v3.Vec{X: x, Y: y, Z: z}))
}

// Rotate returns the rotation by Euler angles (degrees) around X, Y, Z axes.
func (k *SdfxKernel) Rotate(x, y, z float64) Transform {
	xRad := x * math.Pi / 180.0
	yRad := y * math.Pi / 180.0
	zRad := z * math.Pi / 180.0

	m := sdf.RotateZ(zRad).Mul(sdf.RotateY(yRad)).Mul(sdf.RotateX(xRad))
	return FromM44(m)
}

// Transform wraps an sdf.M44 to implement kernel.Transform.
type Transform struct {
	m sdf.M44
}

// FromM44 adapts an sdfx matrix.
func FromM44(m sdf.M44) Transform {
	return Transform{m: m}
}

// Apply maps p.
func (t Transform) Apply(p kernel.Point[float64]) kernel.Point[float64] {
	return FromVec(t.m.MulPosition(ToVec(p)))
}

// Then returns the transform applying t first, then next.
func (t Transform) Then(next Transform) Transform {
	return Transform{m: next.m.Mul(t.m)}
}

// M44 returns the underlying sdfx matrix.
func (t Transform) M44() sdf.M44 {
	return t.m
}

// ToVec converts a kernel point to an sdfx vector.
func ToVec(p kernel.Point[float64]) v3.Vec {
	return v3.Vec{X: p.X, Y: p.Y, Z: p.Z}
}

// FromVec converts an sdfx vector to a kernel point.
func FromVec(v v3.Vec) kernel.Point[float64] {
	return kernel.Point[float64]{X: v.X, Y: v.Y, Z: v.Z}
}

// field is float64 arithmetic with a tolerance-based sign.
type field struct {
	tol float64
}

func (field) Zero() float64               { return 0 }
func (field) One() float64                { return 1 }
func (field) FromInt(i int64) float64     { return float64(i) }
func (field) FromFloat(f float64) float64 { return f }
func (field) Add(a, b float64) float64    { return a + b }
func (field) Sub(a, b float64) float64    { return a - b }
func (field) Mul(a, b float64) float64    { return a * b }
func (field) Div(a, b float64) float64    { return a / b }
func (field) Neg(a float64) float64       { return -a }

func (f field) Sign(a float64) int {
	switch {
	case math.Abs(a) <= f.tol:
		return 0
	case a < 0:
		return -1
	default:
		return 1
	}
}

// Sqrt treats values within tolerance of zero as zero.
func (f field) Sqrt(a float64) (float64, bool) {
	switch f.Sign(a) {
	case -1:
		return 0, false
	case 0:
		return 0, true
	}
	return math.Sqrt(a), true
}

// codec writes shortest round-trip decimal text and msgp float64 binaries.
type codec struct{}

func (codec) FormatNumber(a float64) string {
	return strconv.FormatFloat(a, 'g', -1, 64)
}

// ParseNumber also accepts rational text such as "1/3", rounded to the
// nearest float64.
func (codec) ParseNumber(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err == nil {
		return f, nil
	}
	if r, ok := new(big.Rat).SetString(s); ok {
		f, _ = r.Float64()
		return f, nil
	}
	return 0, err
}

func (codec) AppendNumber(b []byte, a float64) []byte {
	return msgp.AppendFloat64(b, a)
}

func (codec) ReadNumber(r *msgp.Reader) (float64, error) {
	return r.ReadFloat64()
}
