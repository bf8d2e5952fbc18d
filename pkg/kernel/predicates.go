package kernel

// Predicates on bilinear patches. With A = V0-P, B = V1-V0, C = V3-V0 and
// D = V0-V1+V2-V3 the parametrization gives
//
//	S(u,v) - P = A + B*u + C*v + D*u*v
//
// so containment is the question whether that bilinear system of three
// equations has a root in the unit square.

// collinear reports whether the points of bp span an affine space of
// dimension at most one.
func collinear[N any](v vec[N], bp PatchRep[N]) bool {
	d1 := v.sub(bp[1], bp[0])
	d2 := v.sub(bp[2], bp[0])
	d3 := v.sub(bp[3], bp[0])
	return v.isZero(v.cross(d1, d2)) &&
		v.isZero(v.cross(d1, d3)) &&
		v.isZero(v.cross(d2, d3))
}

// coplanar reports whether four points span an affine space of dimension at
// most two.
func coplanar[N any](v vec[N], p [4]Point[N]) bool {
	d1 := v.sub(p[1], p[0])
	d2 := v.sub(p[2], p[0])
	d3 := v.sub(p[3], p[0])
	return v.f.Sign(v.dot(v.cross(d1, d2), d3)) == 0
}

// patchHasOn reports whether p = S(u,v) for some (u,v) in [0,1]^2.
func patchHasOn[N any](f Field[N], bp PatchRep[N], p Point[N]) bool {
	v := vec[N]{f: f}
	if collinear(v, bp) {
		return onCollinear(v, bp, p)
	}

	A := v.sub(bp[0], p)
	B := v.sub(bp[1], bp[0])
	C := v.sub(bp[3], bp[0])
	D := v.add(v.sub(bp[0], bp[1]), v.sub(bp[2], bp[3]))

	if found, ok := solveRuled(f, A, B, C, D); ok {
		return found
	}
	// Every u-ruling passes through p; sweep along v instead. Both sweeps
	// are vacuous only for collinear vertices, handled above.
	found, _ := solveRuled(f, A, C, B, D)
	return found
}

// onCollinear decides containment for a patch whose vertices lie on one
// line. A bilinear interpolation of scalars attains its range at the corners,
// so the image is the segment spanned by the extreme vertices.
func onCollinear[N any](v vec[N], bp PatchRep[N], p Point[N]) bool {
	f := v.f
	var dir Point[N]
	best := f.Zero()
	found := false
	for i := 1; i < 4; i++ {
		d := v.sub(bp[i], bp[0])
		if l := v.dot(d, d); v.less(best, l) {
			dir, best, found = d, l, true
		}
	}

	w := v.sub(p, bp[0])
	if !found {
		return v.isZero(w)
	}
	if !v.isZero(v.cross(dir, w)) {
		return false
	}

	s := v.dot(w, dir)
	lo, hi := f.Zero(), f.Zero()
	for i := 1; i < 4; i++ {
		si := v.dot(v.sub(bp[i], bp[0]), dir)
		if v.less(si, lo) {
			lo = si
		}
		if v.less(hi, si) {
			hi = si
		}
	}
	return !v.less(s, lo) && !v.less(hi, s)
}

// solveRuled looks for a root of A + B*s + C*t + D*s*t = 0 in the unit
// square by eliminating t. ok is false when the elimination is vacuous, that
// is when a(s) x c(s) vanishes for every s.
func solveRuled[N any](f Field[N], A, B, C, D Point[N]) (found, ok bool) {
	v := vec[N]{f: f}

	// a(s) = A + B*s and c(s) = C + D*s must be parallel:
	// a(s) x c(s) = K0 + K1*s + K2*s^2 = 0.
	K0 := v.cross(A, C)
	K1 := v.add(v.cross(A, D), v.cross(B, C))
	K2 := v.cross(B, D)

	comp := -1
	var best N
	for i := 0; i < 3; i++ {
		c0, c1, c2 := K0.Coord(i), K1.Coord(i), K2.Coord(i)
		if f.Sign(c0) == 0 && f.Sign(c1) == 0 && f.Sign(c2) == 0 {
			continue
		}
		m := f.Add(f.Add(v.abs(c0), v.abs(c1)), v.abs(c2))
		if comp < 0 || v.less(best, m) {
			comp, best = i, m
		}
	}
	if comp < 0 {
		return false, false
	}

	roots, ext := solveQuadratic(f, K0.Coord(comp), K1.Coord(comp), K2.Coord(comp))
	for _, s := range roots {
		if !ext.inUnit(s) {
			continue
		}
		parallel := true
		for i := 0; i < 3; i++ {
			if i == comp {
				continue
			}
			if ext.sign(ext.quadratic(K0.Coord(i), K1.Coord(i), K2.Coord(i), s)) != 0 {
				parallel = false
				break
			}
		}
		if parallel && onRuling(ext, A, B, C, D, s) {
			return true, true
		}
	}
	return false, true
}

// onRuling back-substitutes s and reports whether a(s) + t*c(s) = 0 for some
// t in [0,1]. All three coordinate equations are checked.
func onRuling[N any](ext extension[N], A, B, C, D Point[N], s surd[N]) bool {
	var a, c [3]surd[N]
	for i := 0; i < 3; i++ {
		a[i] = ext.linear(A.Coord(i), B.Coord(i), s)
		c[i] = ext.linear(C.Coord(i), D.Coord(i), s)
	}

	k := -1
	for i := 0; i < 3; i++ {
		if ext.sign(c[i]) == 0 {
			continue
		}
		if k < 0 || ext.sign(ext.sub(magnitude(ext, c[i]), magnitude(ext, c[k]))) > 0 {
			k = i
		}
	}
	if k < 0 {
		// The ruling collapsed to a point; any t works if it is p.
		for i := 0; i < 3; i++ {
			if ext.sign(a[i]) != 0 {
				return false
			}
		}
		return true
	}

	t := ext.div(ext.sub(ext.lift(ext.f.Zero()), a[k]), c[k])
	if !ext.inUnit(t) {
		return false
	}
	for i := 0; i < 3; i++ {
		if ext.sign(ext.add(a[i], ext.mul(t, c[i]))) != 0 {
			return false
		}
	}
	return true
}

func magnitude[N any](ext extension[N], x surd[N]) surd[N] {
	if ext.sign(x) < 0 {
		return ext.sub(ext.lift(ext.f.Zero()), x)
	}
	return x
}

// solveQuadratic returns the real roots of c0 + c1*x + c2*x^2 = 0 together
// with the extension they live in. The polynomial must not be identically
// zero.
func solveQuadratic[N any](f Field[N], c0, c1, c2 N) ([]surd[N], extension[N]) {
	e := extension[N]{f: f, d: f.Zero()}

	if f.Sign(c2) == 0 {
		if f.Sign(c1) == 0 {
			return nil, e
		}
		return []surd[N]{e.lift(f.Neg(f.Div(c0, c1)))}, e
	}

	two := f.FromInt(2)
	disc := f.Sub(f.Mul(c1, c1), f.Mul(f.FromInt(4), f.Mul(c2, c0)))
	switch f.Sign(disc) {
	case -1:
		return nil, e
	case 0:
		return []surd[N]{e.lift(f.Div(f.Neg(c1), f.Mul(two, c2)))}, e
	}

	if r, ok := f.Sqrt(disc); ok {
		// q = -(c1 + sign(c1)*r)/2 avoids cancellation; the roots are
		// q/c2 and c0/q.
		if f.Sign(c1) < 0 {
			r = f.Neg(r)
		}
		q := f.Neg(f.Div(f.Add(c1, r), two))
		return []surd[N]{e.lift(f.Div(q, c2)), e.lift(f.Div(c0, q))}, e
	}

	e.d = disc
	den := f.Mul(two, c2)
	mid := f.Div(f.Neg(c1), den)
	half := f.Div(f.One(), den)
	return []surd[N]{{a: mid, b: f.Neg(half)}, {a: mid, b: half}}, e
}
