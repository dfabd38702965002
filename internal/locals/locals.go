// Package locals resolves file-local variable bindings from the captures of
// a tree-sitter locals query.
//
// A locals query tags syntax nodes with three capture families:
//
//	@scope[.kind]       a node delimiting a lexical region
//	@definition[.kind]  an identifier introducing a binding
//	@reference[.kind]   an identifier that may use a binding
//
// A definition match may carry (#set! hoist "<scope kind>") to make the
// binding visible throughout the nearest enclosing scope of that kind.
//
// Resolution builds a scope tree in a single sweep over the sorted captures
// and then binds each reference by walking the scope parent chain. Each
// definition gets a file-unique id starting at 1; occurrences refer to it as
// the symbol "local <id>".
package locals

import (
	"fmt"

	"fortio.org/safecast"
	log "github.com/sirupsen/logrus"
)

// RootKind is the kind of the synthetic scope spanning the whole file.
const RootKind = "global"

// Tree is the scope tree built for one file together with its occurrences.
// It keeps the capture nodes alive; do not use it after the syntax tree they
// came from is closed.
type Tree struct {
	arena       *scopes
	names       *interner
	root        ScopeID
	occurrences []Occurrence
}

// Resolve classifies raw, builds the scope tree and returns the occurrences:
// definitions in discovery order followed by bound references.
func Resolve(source []byte, raw []RawCapture) ([]Occurrence, error) {
	t, err := Build(source, raw)
	if err != nil {
		return nil, err
	}
	return t.occurrences, nil
}

// Build is Resolve but keeps the scope tree for inspection.
func Build(source []byte, raw []RawCapture) (*Tree, error) {
	size, err := safecast.Conv[uint32](len(source))
	if err != nil {
		return nil, fmt.Errorf("locals: source of %d bytes: %w", len(source), err)
	}
	c := Classify(raw)
	b := newBuilder(source, Span{Start: 0, End: size}, c)
	if err := b.build(c.Scopes); err != nil {
		return nil, err
	}
	b.resolve()

	log.WithFields(log.Fields{
		"scopes":      b.arena.Len(),
		"definitions": len(b.defs),
		"references":  len(b.refs),
		"occurrences": len(b.occurrences),
	}).Trace("locals: resolved")

	return &Tree{
		arena:       b.arena,
		names:       b.names,
		root:        b.root,
		occurrences: b.occurrences,
	}, nil
}

// Occurrences returns the occurrences in emission order.
func (t *Tree) Occurrences() []Occurrence { return t.occurrences }

// Root returns the synthetic root scope.
func (t *Tree) Root() ScopeID { return t.root }

// Scope returns the scope for id, or nil.
func (t *Tree) Scope(id ScopeID) *Scope { return t.arena.get(id) }

// ScopeCount reports the number of scopes including the root.
func (t *Tree) ScopeCount() int { return t.arena.Len() }

// NameOf returns the identifier text of an interned name.
func (t *Tree) NameOf(n Name) string { return t.names.lookup(n) }
