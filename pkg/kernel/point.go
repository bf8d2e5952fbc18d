package kernel

// Point is a location in three-dimensional space with coordinates in the
// kernel's number type.
type Point[N any] struct {
	X, Y, Z N
}

// NewPoint returns the point (x, y, z).
func NewPoint[N any](x, y, z N) Point[N] {
	return Point[N]{X: x, Y: y, Z: z}
}

// Coord returns the i'th coordinate (0=x, 1=y, 2=z).
func (p Point[N]) Coord(i int) N {
	switch i {
	case 0:
		return p.X
	case 1:
		return p.Y
	default:
		return p.Z
	}
}

// vec is the field-aware vector arithmetic used by predicates.
// Points double as direction vectors.
type vec[N any] struct {
	f Field[N]
}

func (v vec[N]) sub(a, b Point[N]) Point[N] {
	return Point[N]{X: v.f.Sub(a.X, b.X), Y: v.f.Sub(a.Y, b.Y), Z: v.f.Sub(a.Z, b.Z)}
}

func (v vec[N]) add(a, b Point[N]) Point[N] {
	return Point[N]{X: v.f.Add(a.X, b.X), Y: v.f.Add(a.Y, b.Y), Z: v.f.Add(a.Z, b.Z)}
}

func (v vec[N]) scale(a Point[N], s N) Point[N] {
	return Point[N]{X: v.f.Mul(a.X, s), Y: v.f.Mul(a.Y, s), Z: v.f.Mul(a.Z, s)}
}

func (v vec[N]) cross(a, b Point[N]) Point[N] {
	f := v.f
	return Point[N]{
		X: f.Sub(f.Mul(a.Y, b.Z), f.Mul(a.Z, b.Y)), // y * b.z - z * b.y
		Y: f.Sub(f.Mul(a.Z, b.X), f.Mul(a.X, b.Z)), // z * b.x - x * b.z
		Z: f.Sub(f.Mul(a.X, b.Y), f.Mul(a.Y, b.X)), // x * b.y - y * b.x
	}
}

func (v vec[N]) dot(a, b Point[N]) N {
	f := v.f
	return f.Add(f.Add(f.Mul(a.X, b.X), f.Mul(a.Y, b.Y)), f.Mul(a.Z, b.Z))
}

func (v vec[N]) isZero(a Point[N]) bool {
	return v.f.Sign(a.X) == 0 && v.f.Sign(a.Y) == 0 && v.f.Sign(a.Z) == 0
}

func (v vec[N]) equal(a, b Point[N]) bool {
	return v.isZero(v.sub(a, b))
}

// abs returns |a| through the field's sign test.
func (v vec[N]) abs(a N) N {
	if v.f.Sign(a) < 0 {
		return v.f.Neg(a)
	}
	return a
}

// less reports a < b.
func (v vec[N]) less(a, b N) bool {
	return v.f.Sign(v.f.Sub(a, b)) < 0
}
