package locals

import (
	"cmp"
	"slices"
	"unicode/utf8"
)

// builder carries the state of one resolution: the arena and interner being
// filled, the sorted capture streams with their read cursors, and the
// occurrences emitted so far.
type builder struct {
	src    []byte
	arena  *scopes
	names  *interner
	root   ScopeID
	nextID int

	defs []DefinitionCapture
	refs []ReferenceCapture
	di   int
	ri   int

	// defStarts holds the start byte of every definition in the file. A
	// reference starting at one of them is the definition itself.
	defStarts   map[uint32]struct{}
	occurrences []Occurrence
}

func newBuilder(src []byte, rootSpan Span, c Captures) *builder {
	b := &builder{
		src:         src,
		arena:       newScopes(len(c.Scopes) + 1),
		names:       newInterner(),
		defStarts:   make(map[uint32]struct{}, len(c.Definitions)),
		occurrences: make([]Occurrence, 0, len(c.Definitions)+len(c.References)),
	}
	b.root = b.arena.alloc(RootKind, rootSpan, NoScopeID)

	b.defs = slices.Clone(c.Definitions)
	slices.SortStableFunc(b.defs, func(x, y DefinitionCapture) int {
		return cmp.Compare(x.Node.StartByte(), y.Node.StartByte())
	})
	b.refs = slices.Clone(c.References)
	slices.SortStableFunc(b.refs, func(x, y ReferenceCapture) int {
		return cmp.Compare(x.Node.StartByte(), y.Node.StartByte())
	})
	return b
}

// build sweeps the sorted scopes once, keeping a cursor on the innermost
// open scope. Definitions and references are attached to the cursor as soon
// as the sweep passes their start byte.
func (b *builder) build(scopeCaptures []ScopeCapture) error {
	sorted := slices.Clone(scopeCaptures)
	slices.SortStableFunc(sorted, func(x, y ScopeCapture) int {
		return compareSpans(spanOf(x.Node), spanOf(y.Node))
	})

	current := b.root
	for _, sc := range sorted {
		span := spanOf(sc.Node)
		for span.End > b.arena.get(current).Span.End {
			if err := b.drain(current, uint64(b.arena.get(current).Span.End)); err != nil {
				return err
			}
			parent, err := b.arena.parent(current)
			if err != nil {
				return err
			}
			current = parent
		}
		if err := b.drain(current, uint64(span.Start)); err != nil {
			return err
		}
		current = b.arena.alloc(sc.Kind, span, current)
	}

	for {
		limit := uint64(b.arena.get(current).Span.End)
		if current == b.root {
			// The root also owns zero-width captures at end of file.
			limit++
		}
		if err := b.drain(current, limit); err != nil {
			return err
		}
		if current == b.root {
			break
		}
		parent, err := b.arena.parent(current)
		if err != nil {
			return err
		}
		current = parent
	}

	if b.di < len(b.defs) {
		first := b.defs[b.di].Node
		return internalErrorf("%d of %d definitions not attached to any scope (first at byte %d)",
			len(b.defs)-b.di, len(b.defs), first.StartByte())
	}
	return nil
}

// drain attaches to scope every pending definition and reference starting
// before limit.
func (b *builder) drain(scope ScopeID, limit uint64) error {
	for ; b.di < len(b.defs) && uint64(b.defs[b.di].Node.StartByte()) < limit; b.di++ {
		if err := b.addDefinition(scope, b.defs[b.di]); err != nil {
			return err
		}
	}
	for ; b.ri < len(b.refs) && uint64(b.refs[b.ri].Node.StartByte()) < limit; b.ri++ {
		if err := b.addReference(scope, b.refs[b.ri]); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) addDefinition(scope ScopeID, dc DefinitionCapture) error {
	text, err := b.text(dc.Kind, dc.Node)
	if err != nil {
		return err
	}
	b.nextID++
	def := Definition{
		ID:   b.nextID,
		Kind: dc.Kind,
		Name: b.names.intern(text),
		Node: dc.Node,
	}
	b.occurrences = append(b.occurrences, Occurrence{
		Range: rangeOf(dc.Node),
		ID:    def.ID,
		Role:  RoleDefinition,
		Kind:  dc.Kind,
	})
	b.defStarts[dc.Node.StartByte()] = struct{}{}

	if dc.Hoist == "" {
		sc := b.arena.get(scope)
		sc.Definitions = append(sc.Definitions, def)
		return nil
	}
	target := b.arena.get(b.hoistTarget(scope, dc.Hoist))
	target.HoistedDefinitions = append(target.HoistedDefinitions, def)
	return nil
}

func (b *builder) addReference(scope ScopeID, rc ReferenceCapture) error {
	text, err := b.text(rc.Kind, rc.Node)
	if err != nil {
		return err
	}
	sc := b.arena.get(scope)
	sc.References = append(sc.References, Reference{
		Kind: rc.Kind,
		Name: b.names.intern(text),
		Node: rc.Node,
	})
	return nil
}

// hoistTarget walks outward from the strict ancestors of from and returns the
// first scope of the given kind. Without a match the walk ends at the root;
// a definition already attached to the root stays there.
func (b *builder) hoistTarget(from ScopeID, kind string) ScopeID {
	target := from
	for id := range b.arena.ancestors(from) {
		target = id
		if b.arena.get(id).Kind == kind {
			break
		}
	}
	return target
}

func (b *builder) text(kind string, n Node) ([]byte, error) {
	start, end := n.StartByte(), n.EndByte()
	if start > end || int(end) > len(b.src) {
		return nil, internalErrorf("%s capture bytes %d-%d outside source of %d bytes", kind, start, end, len(b.src))
	}
	text := b.src[start:end]
	if !utf8.Valid(text) {
		return nil, &EncodingError{Kind: kind, Start: start, End: end, Point: n.StartPoint()}
	}
	return text, nil
}
