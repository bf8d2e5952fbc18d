// Package exact implements the kernel.Kernel interface over arbitrary
// precision rationals (math/big.Rat). Every predicate is decided exactly.
package exact

import (
	"fmt"
	"math/big"

	"github.com/chazu/ruled/pkg/kernel"
	"github.com/tinylib/msgp/msgp"
)

// Compile-time interface checks.
var (
	_ kernel.Kernel[*big.Rat] = (*Kernel)(nil)
	_ kernel.Field[*big.Rat]  = field{}
	_ kernel.Codec[*big.Rat]  = codec{}
)

// Kernel is the exact rational kernel.
type Kernel struct {
	*kernel.Base[*big.Rat]
}

// New returns a new exact Kernel.
func New() *Kernel {
	return &Kernel{Base: kernel.NewBase[*big.Rat](field{}, codec{})}
}

// R returns the rational num/den.
func R(num, den int64) *big.Rat {
	return big.NewRat(num, den)
}

// Pt returns the point with integer coordinates (x, y, z).
func Pt(x, y, z int64) kernel.Point[*big.Rat] {
	return kernel.NewPoint(big.NewRat(x, 1), big.NewRat(y, 1), big.NewRat(z, 1))
}

// field is the arithmetic of *big.Rat. Results are always freshly
// allocated; arguments are never written.
type field struct{}

func (field) Zero() *big.Rat             { return new(big.Rat) }
func (field) One() *big.Rat              { return big.NewRat(1, 1) }
func (field) FromInt(i int64) *big.Rat   { return new(big.Rat).SetInt64(i) }
func (field) Add(a, b *big.Rat) *big.Rat { return new(big.Rat).Add(a, b) }
func (field) Sub(a, b *big.Rat) *big.Rat { return new(big.Rat).Sub(a, b) }
func (field) Mul(a, b *big.Rat) *big.Rat { return new(big.Rat).Mul(a, b) }
func (field) Div(a, b *big.Rat) *big.Rat { return new(big.Rat).Quo(a, b) }
func (field) Neg(a *big.Rat) *big.Rat    { return new(big.Rat).Neg(a) }
func (field) Sign(a *big.Rat) int        { return a.Sign() }

// FromFloat converts f exactly. Non-finite values have no rational form.
func (field) FromFloat(f float64) *big.Rat {
	r := new(big.Rat).SetFloat64(f)
	if r == nil {
		panic(fmt.Sprintf("exact: %v has no rational value", f))
	}
	return r
}

// Sqrt succeeds only when numerator and denominator are both perfect
// squares.
func (field) Sqrt(a *big.Rat) (*big.Rat, bool) {
	switch a.Sign() {
	case -1:
		return nil, false
	case 0:
		return new(big.Rat), true
	}
	num, ok := isqrt(a.Num())
	if !ok {
		return nil, false
	}
	den, ok := isqrt(a.Denom())
	if !ok {
		return nil, false
	}
	return new(big.Rat).SetFrac(num, den), true
}

func isqrt(n *big.Int) (*big.Int, bool) {
	r := new(big.Int).Sqrt(n)
	if new(big.Int).Mul(r, r).Cmp(n) != 0 {
		return nil, false
	}
	return r, true
}

// codec writes rationals as "num/den" (or "num" for integers). Binary
// streams carry the same text as a msgp string.
type codec struct{}

func (codec) FormatNumber(a *big.Rat) string { return a.RatString() }

func (codec) ParseNumber(s string) (*big.Rat, error) {
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, fmt.Errorf("exact: invalid number %q", s)
	}
	return r, nil
}

func (codec) AppendNumber(b []byte, a *big.Rat) []byte {
	return msgp.AppendString(b, a.RatString())
}

func (c codec) ReadNumber(r *msgp.Reader) (*big.Rat, error) {
	s, err := r.ReadString()
	if err != nil {
		return nil, err
	}
	return c.ParseNumber(s)
}
