package kernel

// Affine is an affine transformation x -> M*x + t stored as a 3x4 matrix
// whose last column is the translation. All arithmetic goes through the
// kernel field, so an exact kernel transforms exactly.
type Affine[N any] struct {
	f Field[N]
	m [3][4]N
}

// Compile-time interface check.
var _ Transform[float64] = Affine[float64]{}

// NewAffine returns the transformation with matrix m (row-major, last column
// is the translation).
func NewAffine[N any](f Field[N], m [3][4]N) Affine[N] {
	return Affine[N]{f: f, m: m}
}

// Identity returns the identity transformation.
func Identity[N any](f Field[N]) Affine[N] {
	return Scaling(f, f.One())
}

// Translation returns the transformation moving points by (x, y, z).
func Translation[N any](f Field[N], x, y, z N) Affine[N] {
	o, z0 := f.One(), f.Zero()
	return NewAffine(f, [3][4]N{
		{o, z0, z0, x},
		{z0, o, z0, y},
		{z0, z0, o, z},
	})
}

// Scaling returns the uniform scaling about the origin by s.
func Scaling[N any](f Field[N], s N) Affine[N] {
	z0 := f.Zero()
	return NewAffine(f, [3][4]N{
		{s, z0, z0, z0},
		{z0, s, z0, z0},
		{z0, z0, s, z0},
	})
}

// Apply maps p.
func (a Affine[N]) Apply(p Point[N]) Point[N] {
	f := a.f
	row := func(r [4]N) N {
		return f.Add(f.Add(f.Mul(r[0], p.X), f.Mul(r[1], p.Y)), f.Add(f.Mul(r[2], p.Z), r[3]))
	}
	return Point[N]{X: row(a.m[0]), Y: row(a.m[1]), Z: row(a.m[2])}
}

// Compose returns the transformation applying b first, then a.
func (a Affine[N]) Compose(b Affine[N]) Affine[N] {
	f := a.f
	var out [3][4]N
	for i := 0; i < 3; i++ {
		for j := 0; j < 4; j++ {
			sum := f.Zero()
			for k := 0; k < 3; k++ {
				sum = f.Add(sum, f.Mul(a.m[i][k], b.m[k][j]))
			}
			if j == 3 {
				sum = f.Add(sum, a.m[i][3])
			}
			out[i][j] = sum
		}
	}
	return Affine[N]{f: f, m: out}
}

// Matrix returns the 3x4 matrix of the transformation.
func (a Affine[N]) Matrix() [3][4]N {
	return a.m
}
