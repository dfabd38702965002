package locals

import (
	"cmp"
	"fmt"
	"iter"

	"fortio.org/safecast"
)

// ScopeID identifies a scope in a file's scope arena.
type ScopeID uint32

// NoScopeID marks the absence of a scope, e.g. the parent of the root.
const NoScopeID ScopeID = 0

// IsValid reports whether the ID refers to an allocated scope.
func (id ScopeID) IsValid() bool { return id != NoScopeID }

// Span is a half-open byte interval [Start, End) into the source.
type Span struct {
	Start uint32
	End   uint32
}

func spanOf(n Node) Span {
	return Span{Start: n.StartByte(), End: n.EndByte()}
}

// Contains reports whether o lies entirely within s.
func (s Span) Contains(o Span) bool {
	return s.Start <= o.Start && o.End <= s.End
}

// compareSpans orders scope spans for a pre-order sweep: by start byte, and
// for equal starts the wider span first so that a container is visited
// before anything it contains.
//
//	A = 3..9, B = 10..22, C = 10..12  =>  A < B < C
//
// Identical spans compare equal; callers sort stably so capture order
// decides which of the two becomes the parent.
func compareSpans(a, b Span) int {
	if c := cmp.Compare(a.Start, b.Start); c != 0 {
		return c
	}
	return cmp.Compare(b.End, a.End)
}

// Scope is a lexical region owning definitions, references and nested scopes.
type Scope struct {
	// Kind is the capture suffix, "function" for @scope.function. The
	// synthetic root has kind RootKind.
	Kind   string
	Span   Span
	Parent ScopeID

	// HoistedDefinitions were moved here from a nested scope. They are
	// visible everywhere in the scope regardless of position.
	HoistedDefinitions []Definition
	// Definitions are sorted by start byte.
	Definitions []Definition
	// References are sorted by start byte.
	References []Reference
	// Children are sorted by start byte and never overlap.
	Children []ScopeID
}

// Definition is a binding occurrence.
type Definition struct {
	ID   int
	Kind string
	Name Name
	Node Node
}

// Reference is a usage occurrence.
type Reference struct {
	Kind string
	Name Name
	Node Node
}

// findDefinition looks up name as seen from a reference starting at start.
// Hoisted definitions are visible regardless of position; ordinary ones only
// when they start at or before the reference.
func (s *Scope) findDefinition(name Name, start uint32) (*Definition, bool) {
	for i := range s.HoistedDefinitions {
		if s.HoistedDefinitions[i].Name == name {
			return &s.HoistedDefinitions[i], true
		}
	}
	for i := range s.Definitions {
		def := &s.Definitions[i]
		if def.Node.StartByte() > start {
			break
		}
		if def.Name == name {
			return def, true
		}
	}
	return nil, false
}

// scopes is the arena owning every Scope of one file. Index 0 is reserved
// for NoScopeID.
type scopes struct {
	data []Scope
}

func newScopes(capacity int) *scopes {
	return &scopes{data: make([]Scope, 1, capacity+1)}
}

// alloc appends a scope and links it into its parent's children. Pointers
// previously returned by get must not be used after alloc.
func (s *scopes) alloc(kind string, span Span, parent ScopeID) ScopeID {
	value, err := safecast.Conv[uint32](len(s.data))
	if err != nil {
		panic(fmt.Errorf("scope arena overflow: %w", err))
	}
	id := ScopeID(value)
	s.data = append(s.data, Scope{Kind: kind, Span: span, Parent: parent})
	if parent.IsValid() {
		p := &s.data[parent]
		p.Children = append(p.Children, id)
	}
	return id
}

// get returns the scope for id, or nil for an invalid id.
func (s *scopes) get(id ScopeID) *Scope {
	if !id.IsValid() || int(id) >= len(s.data) {
		return nil
	}
	return &s.data[id]
}

// parent returns the parent of id. Asking for the parent of the root is a
// builder defect.
func (s *scopes) parent(id ScopeID) (ScopeID, error) {
	sc := s.get(id)
	if sc == nil {
		return NoScopeID, internalErrorf("scope %d does not exist", id)
	}
	if !sc.Parent.IsValid() {
		return NoScopeID, internalErrorf("scope %d (%s %d-%d) has no parent", id, sc.Kind, sc.Span.Start, sc.Span.End)
	}
	return sc.Parent, nil
}

// ancestors yields the strict ancestors of id, innermost first.
func (s *scopes) ancestors(id ScopeID) iter.Seq[ScopeID] {
	return func(yield func(ScopeID) bool) {
		for cur := s.get(id); cur != nil && cur.Parent.IsValid(); cur = s.get(cur.Parent) {
			if !yield(cur.Parent) {
				return
			}
		}
	}
}

// all yields every scope ID in allocation order.
func (s *scopes) all() iter.Seq[ScopeID] {
	return func(yield func(ScopeID) bool) {
		for i := 1; i < len(s.data); i++ {
			if !yield(ScopeID(i)) {
				return
			}
		}
	}
}

// Len reports the number of allocated scopes, root included.
func (s *scopes) Len() int { return len(s.data) - 1 }
