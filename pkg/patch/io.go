package patch

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/chazu/ruled/pkg/kernel"
	"github.com/chazu/ruled/pkg/kio"
)

// Write writes bp in the writer's mode:
//
//	ASCII   "<V0> <V1> <V2> <V3>"
//	Binary  the four point encodings, concatenated
//	Pretty  "BilinearPatch(<V0>, <V1>, <V2>, <V3>)"
//
// It returns the writer's error state.
func (bp BilinearPatch[N]) Write(w *kio.Writer) error {
	c := bp.k.Codec()
	switch w.Mode() {
	case kio.ASCII, kio.Binary:
		for i := 0; i < 4; i++ {
			if i > 0 && w.Mode() == kio.ASCII {
				w.WriteString(" ")
			}
			kio.WritePoint(w, c, bp.Vertex(i))
		}
	default:
		w.WriteString("BilinearPatch(")
		for i := 0; i < 4; i++ {
			if i > 0 {
				w.WriteString(", ")
			}
			kio.WritePoint(w, c, bp.Vertex(i))
		}
		w.WriteString(")")
	}
	return w.Err()
}

// Encode returns bp serialized in mode.
func (bp BilinearPatch[N]) Encode(mode kio.Mode) []byte {
	var buf bytes.Buffer
	// bytes.Buffer writes never fail.
	_ = bp.Write(kio.NewWriter(&buf, mode))
	return buf.Bytes()
}

// String returns the pretty form.
func (bp BilinearPatch[N]) String() string {
	if !bp.Valid() {
		return "BilinearPatch(<invalid>)"
	}
	return string(bp.Encode(kio.Pretty))
}

// Read reads four points and builds a patch through k. On failure the
// reader stays in its failed state and the zero patch is returned.
func Read[N any](r *kio.Reader, k kernel.Kernel[N]) (BilinearPatch[N], error) {
	var v [4]kernel.Point[N]
	for i := range v {
		p, ok := kio.ReadPoint(r, k.Codec())
		if !ok {
			return BilinearPatch[N]{}, fmt.Errorf("patch: vertex %d: %w", i, r.Err())
		}
		v[i] = p
	}
	return New(k, v[0], v[1], v[2], v[3]), nil
}

// Parse reads a patch from its ASCII form.
func Parse[N any](k kernel.Kernel[N], s string) (BilinearPatch[N], error) {
	return Read(kio.NewReader(strings.NewReader(s), kio.ASCII), k)
}

// Decode reads a patch from data in mode.
func Decode[N any](k kernel.Kernel[N], data []byte, mode kio.Mode) (BilinearPatch[N], error) {
	return Read(kio.NewReader(bytes.NewReader(data), mode), k)
}
