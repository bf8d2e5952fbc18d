package kernel

// surd is the number a + b*sqrt(d) for the radicand d of its extension.
type surd[N any] struct {
	a, b N
}

// extension is the field N[sqrt(d)]. Roots of the quadratics solved by the
// containment predicate live here, so exact kernels never round them.
// When d is zero every value has b == 0 and the arithmetic reduces to N.
//
// d is either zero or not a square in N, which keeps the norm of every
// non-zero element non-zero.
type extension[N any] struct {
	f Field[N]
	d N
}

func (e extension[N]) lift(x N) surd[N] {
	return surd[N]{a: x, b: e.f.Zero()}
}

func (e extension[N]) add(x, y surd[N]) surd[N] {
	return surd[N]{a: e.f.Add(x.a, y.a), b: e.f.Add(x.b, y.b)}
}

func (e extension[N]) sub(x, y surd[N]) surd[N] {
	return surd[N]{a: e.f.Sub(x.a, y.a), b: e.f.Sub(x.b, y.b)}
}

func (e extension[N]) mul(x, y surd[N]) surd[N] {
	f := e.f
	return surd[N]{
		a: f.Add(f.Mul(x.a, y.a), f.Mul(f.Mul(x.b, y.b), e.d)),
		b: f.Add(f.Mul(x.a, y.b), f.Mul(x.b, y.a)),
	}
}

// div returns x/y. y must be non-zero under sign.
func (e extension[N]) div(x, y surd[N]) surd[N] {
	f := e.f
	norm := f.Sub(f.Mul(y.a, y.a), f.Mul(f.Mul(y.b, y.b), e.d))
	conj := surd[N]{a: y.a, b: f.Neg(y.b)}
	num := e.mul(x, conj)
	return surd[N]{a: f.Div(num.a, norm), b: f.Div(num.b, norm)}
}

// linear returns c0 + c1*x.
func (e extension[N]) linear(c0, c1 N, x surd[N]) surd[N] {
	return surd[N]{a: e.f.Add(c0, e.f.Mul(c1, x.a)), b: e.f.Mul(c1, x.b)}
}

// quadratic returns c0 + c1*x + c2*x^2.
func (e extension[N]) quadratic(c0, c1, c2 N, x surd[N]) surd[N] {
	return e.add(e.mul(e.linear(c1, c2, x), x), e.lift(c0))
}

// sign decides the sign of a + b*sqrt(d) using only sign tests in N.
func (e extension[N]) sign(x surd[N]) int {
	f := e.f
	sa, sb := f.Sign(x.a), f.Sign(x.b)
	if sb == 0 || f.Sign(e.d) == 0 {
		return sa
	}
	if sa == 0 || sa == sb {
		return sb
	}
	// Opposite signs: the larger magnitude of a and b*sqrt(d) wins.
	switch f.Sign(f.Sub(f.Mul(x.a, x.a), f.Mul(f.Mul(x.b, x.b), e.d))) {
	case 0:
		return 0
	case 1:
		return sa
	default:
		return sb
	}
}

// inUnit reports 0 <= x <= 1.
func (e extension[N]) inUnit(x surd[N]) bool {
	return e.sign(x) >= 0 && e.sign(e.sub(e.lift(e.f.One()), x)) >= 0
}
