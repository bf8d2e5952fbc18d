package kio

import (
	"fmt"

	"github.com/chazu/ruled/pkg/kernel"
)

// FormatPoint returns p in the text form of mode: "x y z" for ASCII and
// "Point(x, y, z)" otherwise.
func FormatPoint[N any](c kernel.Codec[N], p kernel.Point[N], mode Mode) string {
	x, y, z := c.FormatNumber(p.X), c.FormatNumber(p.Y), c.FormatNumber(p.Z)
	if mode == ASCII {
		return x + " " + y + " " + z
	}
	return "Point(" + x + ", " + y + ", " + z + ")"
}

// WritePoint writes p in the writer's mode.
func WritePoint[N any](w *Writer, c kernel.Codec[N], p kernel.Point[N]) {
	if w.Mode() == Binary {
		var b []byte
		b = c.AppendNumber(b, p.X)
		b = c.AppendNumber(b, p.Y)
		b = c.AppendNumber(b, p.Z)
		w.WriteBytes(b)
		return
	}
	w.WriteString(FormatPoint(c, p, w.Mode()))
}

// ReadPoint reads three coordinates. On failure the reader is left in its
// failed state and the boolean result is false.
func ReadPoint[N any](r *Reader, c kernel.Codec[N]) (kernel.Point[N], bool) {
	var xyz [3]N
	for i := range xyz {
		n, ok := readNumber(r, c)
		if !ok {
			return kernel.Point[N]{}, false
		}
		xyz[i] = n
	}
	return kernel.NewPoint(xyz[0], xyz[1], xyz[2]), true
}

func readNumber[N any](r *Reader, c kernel.Codec[N]) (N, bool) {
	var zero N
	if !r.OK() {
		return zero, false
	}

	switch r.Mode() {
	case Binary:
		n, err := c.ReadNumber(r.Msgp())
		if err != nil {
			r.Fail(fmt.Errorf("kio: read number: %w", err))
			return zero, false
		}
		return n, true
	case ASCII:
		tok, ok := r.Token()
		if !ok {
			return zero, false
		}
		n, err := c.ParseNumber(tok)
		if err != nil {
			r.Fail(fmt.Errorf("kio: read number: %w", err))
			return zero, false
		}
		return n, true
	}
	r.Fail(ErrModeNotReadable)
	return zero, false
}
