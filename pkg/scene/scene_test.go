package scene

import (
	"errors"
	"math/big"
	"reflect"
	"testing"

	"github.com/chazu/ruled/pkg/kernel/exact"
	"github.com/chazu/ruled/pkg/patch"
)

func makePatch(c [4][3]int64) patch.BilinearPatch[*big.Rat] {
	k := exact.New()
	return patch.New(k,
		exact.Pt(c[0][0], c[0][1], c[0][2]),
		exact.Pt(c[1][0], c[1][1], c[1][2]),
		exact.Pt(c[2][0], c[2][1], c[2][2]),
		exact.Pt(c[3][0], c[3][1], c[3][2]))
}

var (
	ramp      = [4][3]int64{{0, 0, 0}, {1, 0, 0}, {1, 1, 1}, {0, 1, 1}}
	saddle    = [4][3]int64{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 1}}
	collinear = [4][3]int64{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}, {3, 0, 0}}
)

func TestNewIDIsDeterministic(t *testing.T) {
	a := NewID("ramp", "0 0 0")
	b := NewID("ramp", "0 0 0")
	if a != b {
		t.Errorf("same input gave %s and %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("ID length = %d, want 64 hex digits", len(a))
	}
	// Part boundaries matter.
	if NewID("ab", "c") == NewID("a", "bc") {
		t.Error("IDs of differently split parts collide")
	}
}

func TestIDShort(t *testing.T) {
	tests := []struct {
		id   ID
		want string
	}{
		{ZeroID, ""},
		{ID("abc"), "abc"},
		{ID("0123456789abcdef"), "01234567"},
	}
	for _, tt := range tests {
		if got := tt.id.Short(); got != tt.want {
			t.Errorf("ID(%q).Short() = %q, want %q", tt.id, got, tt.want)
		}
	}
	if !ZeroID.IsZero() || ID("x").IsZero() {
		t.Error("IsZero wrong")
	}
}

func TestAdd(t *testing.T) {
	s := New[*big.Rat]()

	id, err := s.Add("ramp", makePatch(ramp))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if id.IsZero() {
		t.Fatal("Add returned a zero ID")
	}
	if _, err := s.Add("saddle", makePatch(saddle)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
	if got := s.Names(); !reflect.DeepEqual(got, []string{"ramp", "saddle"}) {
		t.Errorf("Names() = %v", got)
	}

	e := s.Lookup("ramp")
	if e == nil || e.ID != id || !e.Patch.Equal(makePatch(ramp)) {
		t.Fatalf("Lookup(ramp) = %+v", e)
	}
	if s.Get(id) != e {
		t.Error("Get(id) does not return the looked-up entry")
	}
	if s.Lookup("missing") != nil || s.Get(NewID("missing")) != nil {
		t.Error("lookup of a missing patch should return nil")
	}
	if len(s.Entries()) != 2 || s.Entries()[1].Name != "saddle" {
		t.Error("Entries() not in insertion order")
	}
}

func TestAddRejectsBadNames(t *testing.T) {
	s := New[*big.Rat]()
	if _, err := s.Add("", makePatch(ramp)); !errors.Is(err, ErrEmptyName) {
		t.Errorf("empty name: err = %v, want ErrEmptyName", err)
	}
	if _, err := s.Add("a", makePatch(ramp)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Add("a", makePatch(saddle)); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("duplicate name: err = %v, want ErrDuplicateName", err)
	}
	if s.Len() != 1 {
		t.Errorf("rejected adds changed the scene: Len() = %d", s.Len())
	}
	if !s.Lookup("a").Patch.Equal(makePatch(ramp)) {
		t.Error("duplicate add replaced the original patch")
	}
}

func TestIDDependsOnContent(t *testing.T) {
	s1, s2 := New[*big.Rat](), New[*big.Rat]()
	a, _ := s1.Add("p", makePatch(ramp))
	b, _ := s2.Add("p", makePatch(ramp))
	c, _ := s2.Add("q", makePatch(ramp))
	d, _ := s1.Add("q", makePatch(saddle))

	if a != b {
		t.Error("same name and patch gave different IDs")
	}
	if a == c {
		t.Error("different names gave the same ID")
	}
	if c == d {
		t.Error("different patches gave the same ID")
	}
}

func TestQueries(t *testing.T) {
	s := New[*big.Rat]()
	if _, ok := s.QueryResult("x"); ok {
		t.Error("QueryResult on an empty scene reported a result")
	}

	s.Record("x", true)
	s.Record("y", false)
	s.Record("x", false)

	if got, ok := s.QueryResult("x"); !ok || got {
		t.Errorf("QueryResult(x) = %v, %v; want the latest (false)", got, ok)
	}
	if got, ok := s.QueryResult("y"); !ok || got {
		t.Errorf("QueryResult(y) = %v, %v", got, ok)
	}
	want := []Query{{"x", true}, {"y", false}, {"x", false}}
	if !reflect.DeepEqual(s.Queries(), want) {
		t.Errorf("Queries() = %v, want %v", s.Queries(), want)
	}
}
