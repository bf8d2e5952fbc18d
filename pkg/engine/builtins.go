package engine

import (
	"encoding/hex"
	"fmt"
	"math"
	"strings"

	"github.com/chazu/ruled/pkg/kernel"
	"github.com/chazu/ruled/pkg/kio"
	"github.com/chazu/ruled/pkg/patch"
	"github.com/chazu/ruled/pkg/scene"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpPoint wraps a kernel point so it can be passed between builtins.
type sexpPoint[N any] struct {
	p kernel.Point[N]
	c kernel.Codec[N]
}

func (s *sexpPoint[N]) SexpString(ps *zygo.PrintState) string {
	return kio.FormatPoint(s.c, s.p, kio.Pretty)
}
func (s *sexpPoint[N]) Type() *zygo.RegisteredType { return nil }

// sexpPatch wraps a bilinear patch. name is set for patches obtained
// through defpatch or patch-ref and is used in error messages.
type sexpPatch[N any] struct {
	bp   patch.BilinearPatch[N]
	name string
}

func (s *sexpPatch[N]) SexpString(ps *zygo.PrintState) string {
	if s.name != "" {
		return fmt.Sprintf("(patch-ref %q)", s.name)
	}
	return s.bp.String()
}
func (s *sexpPatch[N]) Type() *zygo.RegisteredType { return nil }

// sexpTetra wraps the tetrahedron built from a patch.
type sexpTetra[N any] struct {
	t kernel.Tetrahedron[N]
	c kernel.Codec[N]
}

func (s *sexpTetra[N]) SexpString(ps *zygo.PrintState) string {
	var b strings.Builder
	b.WriteString("Tetrahedron(")
	for i, p := range s.t.Vertices() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(kio.FormatPoint(s.c, p, kio.Pretty))
	}
	b.WriteString(")")
	return b.String()
}
func (s *sexpTetra[N]) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value: treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toNumber converts a Sexp to a kernel number. Integers and floats come
// from zygomys literals; strings are parsed by the kernel codec so that
// exact values such as "1/3" survive.
func toNumber[N any](k kernel.Kernel[N], s zygo.Sexp) (N, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return k.Field().FromInt(v.Val), nil
	case *zygo.SexpFloat:
		if math.IsNaN(v.Val) || math.IsInf(v.Val, 0) {
			var zero N
			return zero, fmt.Errorf("expected finite number, got %v", v.Val)
		}
		return k.Field().FromFloat(v.Val), nil
	case *zygo.SexpStr:
		if _, kw := isKW(v); !kw {
			return k.Codec().ParseNumber(v.S)
		}
	}
	var zero N
	return zero, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts an integer index.
func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_ascii) and plain strings ("ascii").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toBool extracts a boolean from a Sexp.
func toBool(s zygo.Sexp) (bool, error) {
	if b, ok := s.(*zygo.SexpBool); ok {
		return b.Val, nil
	}
	return false, fmt.Errorf("expected boolean, got %T (%s)", s, s.SexpString(nil))
}

// toMode converts a keyword or string to a stream mode.
func toMode(s zygo.Sexp) (kio.Mode, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return kio.Pretty, fmt.Errorf("expected mode keyword (:ascii, :binary, :pretty): %w", err)
	}
	return kio.ParseMode(name)
}

func toPoint[N any](s zygo.Sexp) (kernel.Point[N], error) {
	if p, ok := s.(*sexpPoint[N]); ok {
		return p.p, nil
	}
	return kernel.Point[N]{}, fmt.Errorf("expected point, got %T (%s)", s, s.SexpString(nil))
}

func toPatch[N any](s zygo.Sexp) (patch.BilinearPatch[N], error) {
	if p, ok := s.(*sexpPatch[N]); ok {
		return p.bp, nil
	}
	return patch.BilinearPatch[N]{}, fmt.Errorf("expected patch, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the patch builtins into a zygomys environment.
// Builtins compute with k and record named patches and queries in sc.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals and
// kebab-case names match the underscore names registered here.
func registerBuiltins[N any](env *zygo.Zlisp, k kernel.Kernel[N], sc *scene.Scene[N]) {
	f := k.Field()
	c := k.Codec()

	wrapPatch := func(bp patch.BilinearPatch[N]) zygo.Sexp {
		return &sexpPatch[N]{bp: bp}
	}
	wrapPoint := func(p kernel.Point[N]) zygo.Sexp {
		return &sexpPoint[N]{p: p, c: c}
	}

	// -----------------------------------------------------------------------
	// (point 1 2 3), (point "1/3" 0 0)
	// -----------------------------------------------------------------------
	env.AddFunction("point", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("point requires exactly 3 arguments, got %d", len(args))
		}
		var xyz [3]N
		for i, axis := range []string{"x", "y", "z"} {
			n, err := toNumber(k, args[i])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("point: %s: %w", axis, err)
			}
			xyz[i] = n
		}
		return wrapPoint(kernel.NewPoint(xyz[0], xyz[1], xyz[2])), nil
	})

	// -----------------------------------------------------------------------
	// (patch p q r s) or (patch (list p q r s))
	// -----------------------------------------------------------------------
	env.AddFunction("patch", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		items := args
		if len(args) == 1 {
			list, err := sexpListToSlice(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("patch: %w", err)
			}
			items = list
		}
		if len(items) != 4 {
			return zygo.SexpNull, fmt.Errorf("patch requires exactly 4 points, got %d", len(items))
		}
		var v [4]kernel.Point[N]
		for i := range v {
			p, err := toPoint[N](items[i])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("patch: vertex %d: %w", i, err)
			}
			v[i] = p
		}
		return wrapPatch(patch.New(k, v[0], v[1], v[2], v[3])), nil
	})

	// -----------------------------------------------------------------------
	// (defpatch "name" (patch ...))
	// -----------------------------------------------------------------------
	env.AddFunction("defpatch", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("defpatch requires a name and a patch expression")
		}
		patchName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defpatch: name: %w", err)
		}
		bp, err := toPatch[N](args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defpatch: %w", err)
		}
		if _, err := sc.Add(patchName, bp); err != nil {
			return zygo.SexpNull, fmt.Errorf("defpatch: %w", err)
		}
		return &sexpPatch[N]{bp: bp, name: patchName}, nil
	})

	// -----------------------------------------------------------------------
	// (patch-ref "name")
	// -----------------------------------------------------------------------
	env.AddFunction("patch_ref", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("patch-ref requires a name argument")
		}
		patchName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("patch-ref: name: %w", err)
		}
		e := sc.Lookup(patchName)
		if e == nil {
			return zygo.SexpNull, fmt.Errorf("patch-ref: no patch named %q", patchName)
		}
		return &sexpPatch[N]{bp: e.Patch, name: patchName}, nil
	})

	// -----------------------------------------------------------------------
	// (vertex bp i)
	// -----------------------------------------------------------------------
	env.AddFunction("vertex", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("vertex requires a patch and an index")
		}
		bp, err := toPatch[N](args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vertex: %w", err)
		}
		i, err := toInt(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vertex: index: %w", err)
		}
		return wrapPoint(bp.Vertex(i)), nil
	})

	// -----------------------------------------------------------------------
	// (degenerate bp) or (degenerate (tetrahedron bp))
	// -----------------------------------------------------------------------
	env.AddFunction("degenerate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("degenerate requires exactly 1 argument, got %d", len(args))
		}
		switch v := args[0].(type) {
		case *sexpPatch[N]:
			return &zygo.SexpBool{Val: v.bp.IsDegenerate()}, nil
		case *sexpTetra[N]:
			return &zygo.SexpBool{Val: v.t.IsDegenerate()}, nil
		}
		return zygo.SexpNull, fmt.Errorf("degenerate: expected patch or tetrahedron, got %T", args[0])
	})

	// -----------------------------------------------------------------------
	// (has-on bp pt)
	// -----------------------------------------------------------------------
	env.AddFunction("has_on", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("has-on requires a patch and a point")
		}
		bp, err := toPatch[N](args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("has-on: %w", err)
		}
		p, err := toPoint[N](args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("has-on: %w", err)
		}
		return &zygo.SexpBool{Val: bp.HasOn(p)}, nil
	})

	// -----------------------------------------------------------------------
	// (patch-equal a b)
	// -----------------------------------------------------------------------
	env.AddFunction("patch_equal", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("patch-equal requires two patches")
		}
		a, err := toPatch[N](args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("patch-equal: %w", err)
		}
		b, err := toPatch[N](args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("patch-equal: %w", err)
		}
		return &zygo.SexpBool{Val: a.Equal(b)}, nil
	})

	// -----------------------------------------------------------------------
	// (translate bp (point dx dy dz))
	// -----------------------------------------------------------------------
	env.AddFunction("translate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("translate requires a patch and an offset point")
		}
		bp, err := toPatch[N](args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("translate: %w", err)
		}
		d, err := toPoint[N](args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("translate: offset: %w", err)
		}
		return wrapPatch(bp.Transform(kernel.Translation(f, d.X, d.Y, d.Z))), nil
	})

	// -----------------------------------------------------------------------
	// (scale bp 2)
	// -----------------------------------------------------------------------
	env.AddFunction("scale", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("scale requires a patch and a factor")
		}
		bp, err := toPatch[N](args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("scale: %w", err)
		}
		s, err := toNumber(k, args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("scale: factor: %w", err)
		}
		return wrapPatch(bp.Transform(kernel.Scaling(f, s))), nil
	})

	// -----------------------------------------------------------------------
	// (eval-at bp u v)
	// -----------------------------------------------------------------------
	env.AddFunction("eval_at", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("eval-at requires a patch and two parameters")
		}
		bp, err := toPatch[N](args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("eval-at: %w", err)
		}
		u, err := toNumber(k, args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("eval-at: u: %w", err)
		}
		v, err := toNumber(k, args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("eval-at: v: %w", err)
		}
		return wrapPoint(bp.PointAt(u, v)), nil
	})

	// -----------------------------------------------------------------------
	// (tetrahedron bp)
	// -----------------------------------------------------------------------
	env.AddFunction("tetrahedron", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("tetrahedron requires exactly 1 argument, got %d", len(args))
		}
		bp, err := toPatch[N](args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("tetrahedron: %w", err)
		}
		return &sexpTetra[N]{t: bp.Tetrahedron(), c: c}, nil
	})

	// -----------------------------------------------------------------------
	// (write-patch bp :mode :ascii)
	//
	// Binary output is returned hex encoded so it fits in a string.
	// -----------------------------------------------------------------------
	env.AddFunction("write_patch", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("write-patch requires a patch argument")
		}
		bp, err := toPatch[N](pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("write-patch: %w", err)
		}
		mode := kio.Pretty
		if v, ok := pa.kw["mode"]; ok {
			mode, err = toMode(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("write-patch: mode: %w", err)
			}
		}
		data := bp.Encode(mode)
		if mode == kio.Binary {
			return &zygo.SexpStr{S: hex.EncodeToString(data)}, nil
		}
		return &zygo.SexpStr{S: string(data)}, nil
	})

	// -----------------------------------------------------------------------
	// (read-patch "0 0 0 1 0 0 1 1 1 0 1 1" :mode :ascii)
	// -----------------------------------------------------------------------
	env.AddFunction("read_patch", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("read-patch requires a text argument")
		}
		text, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("read-patch: %w", err)
		}
		mode := kio.ASCII
		if v, ok := pa.kw["mode"]; ok {
			mode, err = toMode(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("read-patch: mode: %w", err)
			}
		}
		data := []byte(text)
		if mode == kio.Binary {
			data, err = hex.DecodeString(strings.TrimSpace(text))
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("read-patch: %w", err)
			}
		}
		bp, err := patch.Decode(k, data, mode)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("read-patch: %w", err)
		}
		return wrapPatch(bp), nil
	})

	// -----------------------------------------------------------------------
	// (query "label" (has-on ...))
	// -----------------------------------------------------------------------
	env.AddFunction("query", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("query requires a label and a boolean expression")
		}
		label, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("query: label: %w", err)
		}
		b, err := toBool(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("query %q: %w", label, err)
		}
		sc.Record(label, b)
		return &zygo.SexpBool{Val: b}, nil
	})
}
