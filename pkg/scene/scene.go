// Package scene holds the named bilinear patches produced by evaluating a
// script. A Scene is built once per evaluation and is read-only afterwards.
package scene

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/chazu/ruled/pkg/kio"
	"github.com/chazu/ruled/pkg/patch"
)

var (
	// ErrEmptyName is returned when adding a patch without a name.
	ErrEmptyName = errors.New("scene: patch name must not be empty")
	// ErrDuplicateName is returned when a name is already taken.
	ErrDuplicateName = errors.New("scene: duplicate patch name")
)

// ID is a content-addressed identifier: the hex sha256 of a patch's name
// and ASCII form.
type ID string

// ZeroID is the empty identifier.
const ZeroID ID = ""

// NewID hashes the given parts into an ID.
func NewID(parts ...string) ID {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return ID(hex.EncodeToString(h.Sum(nil)))
}

// IsZero reports whether id is empty.
func (id ID) IsZero() bool { return id == ZeroID }

// Short returns the first 8 hex digits, for messages.
func (id ID) Short() string {
	if len(id) <= 8 {
		return string(id)
	}
	return string(id[:8])
}

func (id ID) String() string { return string(id) }

// Entry is a named patch in a scene.
type Entry[N any] struct {
	ID    ID                     `json:"id"`
	Name  string                 `json:"name"`
	Patch patch.BilinearPatch[N] `json:"-"`
}

// Query is the recorded result of a boolean script query.
type Query struct {
	Label  string `json:"label"`
	Result bool   `json:"result"`
}

// Scene is an ordered collection of named patches plus recorded queries.
type Scene[N any] struct {
	entries []*Entry[N]
	byName  map[string]int
	byID    map[ID]int
	queries []Query
}

// New returns an empty scene.
func New[N any]() *Scene[N] {
	return &Scene[N]{
		byName: make(map[string]int),
		byID:   make(map[ID]int),
	}
}

// Add stores bp under name and returns its ID.
func (s *Scene[N]) Add(name string, bp patch.BilinearPatch[N]) (ID, error) {
	if name == "" {
		return ZeroID, ErrEmptyName
	}
	if _, exists := s.byName[name]; exists {
		return ZeroID, fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}

	var content string
	if bp.Valid() {
		content = string(bp.Encode(kio.ASCII))
	}
	id := NewID(name, content)

	s.entries = append(s.entries, &Entry[N]{ID: id, Name: name, Patch: bp})
	s.byName[name] = len(s.entries) - 1
	s.byID[id] = len(s.entries) - 1
	return id, nil
}

// Lookup returns the entry with the given name, or nil.
func (s *Scene[N]) Lookup(name string) *Entry[N] {
	i, ok := s.byName[name]
	if !ok {
		return nil
	}
	return s.entries[i]
}

// Get returns the entry with the given ID, or nil.
func (s *Scene[N]) Get(id ID) *Entry[N] {
	i, ok := s.byID[id]
	if !ok {
		return nil
	}
	return s.entries[i]
}

// Entries returns the entries in insertion order.
func (s *Scene[N]) Entries() []*Entry[N] {
	return s.entries
}

// Names returns the patch names in insertion order.
func (s *Scene[N]) Names() []string {
	names := make([]string, len(s.entries))
	for i, e := range s.entries {
		names[i] = e.Name
	}
	return names
}

// Len returns the number of patches.
func (s *Scene[N]) Len() int {
	return len(s.entries)
}

// Record appends a query result.
func (s *Scene[N]) Record(label string, result bool) {
	s.queries = append(s.queries, Query{Label: label, Result: result})
}

// Queries returns the recorded queries in evaluation order.
func (s *Scene[N]) Queries() []Query {
	return s.queries
}

// QueryResult returns the last recorded result for label.
func (s *Scene[N]) QueryResult(label string) (result, ok bool) {
	for i := len(s.queries) - 1; i >= 0; i-- {
		if s.queries[i].Label == label {
			return s.queries[i].Result, true
		}
	}
	return false, false
}
