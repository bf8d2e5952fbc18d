package engine

import (
	"math"
	"math/big"
	"testing"

	"github.com/chazu/ruled/pkg/kernel/exact"
	"github.com/chazu/ruled/pkg/kernel/sdfx"
	"github.com/chazu/ruled/pkg/scene"
	zygo "github.com/glycerine/zygomys/zygo"
)

// evalSexp evaluates src in a fresh sandbox with the builtins installed and
// returns the value of the last expression.
func evalSexp(t *testing.T, src string) zygo.Sexp {
	t.Helper()
	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerBuiltins(env, exact.New(), scene.New[*big.Rat]())

	res, err := env.EvalString(preprocessSource(src))
	if err != nil {
		t.Fatalf("eval %q: %v", src, err)
	}
	return res
}

const rampDef = `(def bp (patch (point 0 0 0) (point 1 0 0) (point 1 1 1) (point 0 1 1)))
`

func TestPatchQueries(t *testing.T) {
	src := rampDef + `
(defpatch "ramp" bp)
(def twisted (patch (point 0 0 0) (point 1 0 0) (point 1 1 0) (point 0 1 1)))

(query "center" (has-on bp (point 1/2 1/2 1/2)))
(query "off" (has-on bp (point 0 0 1)))
(query "vertex" (has-on bp (vertex bp 6)))
(query "rotated" (patch-equal bp (patch (vertex bp 1) (vertex bp 2) (vertex bp 3) (vertex bp 4))))
(query "reversed" (patch-equal bp (patch (vertex bp 3) (vertex bp 2) (vertex bp 1) (vertex bp 0))))
(query "degenerate" (degenerate bp))
(query "line" (degenerate (patch (point 0 0 0) (point 1 1 1) (point 2 2 2) (point 1 1 1))))
(query "flat-tetrahedron" (degenerate (tetrahedron bp)))
(query "twisted-tetrahedron" (degenerate (tetrahedron twisted)))
(query "ascii" (patch-equal bp (read-patch (write-patch bp :mode :ascii))))
(query "binary" (patch-equal bp (read-patch (write-patch bp :mode :binary) :mode :binary)))
(query "ref" (patch-equal bp (patch-ref "ramp")))
(query "translated" (has-on (translate bp (point 1 2 3)) (point "3/2" "5/2" "7/2")))
(query "scaled" (has-on (scale bp 2) (point 1 1 1)))
(query "sampled" (has-on twisted (eval-at twisted "1/3" "2/7")))
(query "list" (patch-equal bp (patch (list (point 0 0 0) (point 1 0 0) (point 1 1 1) (point 0 1 1)))))
`
	sc, evalErrs, err := newExactEngine().Evaluate(src)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}

	want := map[string]bool{
		"center":              true,
		"off":                 false,
		"vertex":              true,
		"rotated":             true,
		"reversed":            false,
		"degenerate":          false,
		"line":                true,
		"flat-tetrahedron":    true,
		"twisted-tetrahedron": false,
		"ascii":               true,
		"binary":              true,
		"ref":                 true,
		"translated":          true,
		"scaled":              true,
		"sampled":             true,
		"list":                true,
	}
	for label, expect := range want {
		t.Run(label, func(t *testing.T) {
			got, ok := sc.QueryResult(label)
			if !ok {
				t.Fatalf("query %q not recorded", label)
			}
			if got != expect {
				t.Errorf("query %q = %v, want %v", label, got, expect)
			}
		})
	}
	if n := len(sc.Queries()); n != len(want) {
		t.Errorf("recorded %d queries, want %d", n, len(want))
	}
	if sc.Lookup("ramp") == nil {
		t.Error("patch \"ramp\" not in scene")
	}
}

func TestHasOnIrrationalParameter(t *testing.T) {
	// x = u+v, y = uv. y = 1/5 on x = 1 needs u = (1 +- sqrt(1/5))/2.
	src := `
(def bp (patch (point 0 0 0) (point 1 0 0) (point 2 1 0) (point 1 0 0)))
(query "irrational" (has-on bp (point 1 "1/5" 0)))
(query "rational" (has-on bp (point 1 "1/4" 0)))
(query "outside" (has-on bp (point 1 "1/3" 0)))
`
	sc, evalErrs, err := newExactEngine().Evaluate(src)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	for _, tt := range []struct {
		label string
		want  bool
	}{
		{"irrational", true},
		{"rational", true},
		{"outside", false},
	} {
		if got, _ := sc.QueryResult(tt.label); got != tt.want {
			t.Errorf("%s = %v, want %v", tt.label, got, tt.want)
		}
	}
}

func TestWritePatchModes(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want string
	}{
		{
			name: "ascii",
			expr: `(write-patch bp :mode :ascii)`,
			want: "0 0 0 1 0 0 1 1 1 0 1 1",
		},
		{
			name: "pretty",
			expr: `(write-patch bp :mode :pretty)`,
			want: "BilinearPatch(Point(0, 0, 0), Point(1, 0, 0), Point(1, 1, 1), Point(0, 1, 1))",
		},
		{
			name: "default is pretty",
			expr: `(write-patch bp)`,
			want: "BilinearPatch(Point(0, 0, 0), Point(1, 0, 0), Point(1, 1, 1), Point(0, 1, 1))",
		},
		{
			name: "scaled by a rational",
			expr: `(write-patch (scale bp "1/2") :mode :ascii)`,
			want: "0 0 0 1/2 0 0 1/2 1/2 1/2 0 1/2 1/2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := evalSexp(t, rampDef+tt.expr)
			str, ok := res.(*zygo.SexpStr)
			if !ok {
				t.Fatalf("expected string, got %T", res)
			}
			if str.S != tt.want {
				t.Errorf("got %q, want %q", str.S, tt.want)
			}
		})
	}
}

func TestVertexWrapsIndex(t *testing.T) {
	tests := []struct {
		index string
		want  string
	}{
		{"0", "Point(0, 0, 0)"},
		{"3", "Point(0, 1, 1)"},
		{"4", "Point(0, 0, 0)"},
		{"-1", "Point(0, 1, 1)"},
		{"-6", "Point(1, 1, 1)"},
	}

	for _, tt := range tests {
		t.Run(tt.index, func(t *testing.T) {
			res := evalSexp(t, rampDef+"(vertex bp "+tt.index+")")
			p, ok := res.(*sexpPoint[*big.Rat])
			if !ok {
				t.Fatalf("expected point, got %T", res)
			}
			if got := p.SexpString(nil); got != tt.want {
				t.Errorf("vertex %s = %s, want %s", tt.index, got, tt.want)
			}
		})
	}
}

func TestTetrahedronSexpString(t *testing.T) {
	res := evalSexp(t, rampDef+"(tetrahedron bp)")
	tet, ok := res.(*sexpTetra[*big.Rat])
	if !ok {
		t.Fatalf("expected tetrahedron, got %T", res)
	}
	want := "Tetrahedron(Point(0, 0, 0), Point(1, 0, 0), Point(1, 1, 1), Point(0, 1, 1))"
	if got := tet.SexpString(nil); got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestBuiltinErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"point arity", `(point 1 2)`},
		{"point non-number", `(point 1 2 (list))`},
		{"point bad rational", `(point "one" 0 0)`},
		{"patch arity", `(patch (point 0 0 0))`},
		{"patch non-point", `(patch 1 2 3 4)`},
		{"missing ref", `(patch-ref "nope")`},
		{"defpatch non-patch", `(defpatch "a" (point 0 0 0))`},
		{"defpatch empty name", rampDef + `(defpatch "" bp)`},
		{"defpatch duplicate", rampDef + `(defpatch "a" bp) (defpatch "a" bp)`},
		{"vertex non-patch", `(vertex (point 0 0 0) 1)`},
		{"vertex float index", rampDef + `(vertex bp 1.5)`},
		{"short read", `(read-patch "0 0 0 1 0 0")`},
		{"pretty read", `(read-patch "0 0 0 1 0 0 1 1 1 0 1 1" :mode :pretty)`},
		{"bad hex", `(read-patch "zz" :mode :binary)`},
		{"unknown mode", rampDef + `(write-patch bp :mode :fancy)`},
		{"query non-boolean", `(query "x" 1)`},
		{"degenerate non-patch", `(degenerate 1)`},
		{"infinite coordinate", `(point (/ 1.0 0.0) 0 0)`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, evalErrs, err := newExactEngine().Evaluate(tt.src)
			if err != nil {
				t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
			}
			if sc != nil {
				t.Error("expected nil scene")
			}
			if len(evalErrs) == 0 {
				t.Fatal("expected an eval error")
			}
			t.Logf("error: %s", evalErrs[0].Error())
		})
	}
}

func TestKebabCaseNamesResolve(t *testing.T) {
	// User variables with hyphens go through the same rewrite as builtins.
	src := `
(def my-patch (patch (point 0 0 0) (point 1 0 0) (point 1 1 1) (point 0 1 1)))
(defpatch "my-patch" my-patch)
(query "named" (patch-equal my-patch (patch-ref "my-patch")))
`
	sc, evalErrs, err := newExactEngine().Evaluate(src)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if got, _ := sc.QueryResult("named"); !got {
		t.Error("expected named query to be true")
	}
	if sc.Lookup("my-patch") == nil {
		t.Error("string names must keep their hyphens")
	}
}

func TestToNumberRejectsNonFinite(t *testing.T) {
	for _, x := range []float64{math.Inf(1), math.Inf(-1), math.NaN()} {
		if _, err := toNumber[*big.Rat](exact.New(), &zygo.SexpFloat{Val: x}); err == nil {
			t.Errorf("exact kernel accepted %v", x)
		}
		if _, err := toNumber[float64](sdfx.New(), &zygo.SexpFloat{Val: x}); err == nil {
			t.Errorf("float kernel accepted %v", x)
		}
	}
	n, err := toNumber[*big.Rat](exact.New(), &zygo.SexpFloat{Val: 0.25})
	if err != nil || n.RatString() != "1/4" {
		t.Errorf("toNumber(0.25) = %v, %v", n, err)
	}
}

func TestRationalLiteralsAreExact(t *testing.T) {
	// S(u,v) = (u, v, 3v)
	src := `
(def steep (patch (point 0 0 0) (point 1 0 0) (point 1 1 3) (point 0 1 3)))
(query "rational" (has-on steep (point 1/2 1/10 3/10)))
(query "decimal" (has-on steep (point 0.5 0.1 0.3)))
`
	sc, evalErrs, err := newExactEngine().Evaluate(src)
	if err != nil || len(evalErrs) > 0 {
		t.Fatalf("evaluate: %v %v", err, evalErrs)
	}
	if got, _ := sc.QueryResult("rational"); !got {
		t.Error("1/10 and 3/10 should be read exactly")
	}
	// 0.1 and 0.3 are binary fractions; 3 * 0.1 != 0.3 in exact arithmetic.
	if got, _ := sc.QueryResult("decimal"); got {
		t.Error("float literals unexpectedly exact")
	}
}
