package locals

// resolve binds every reference to the definition it denotes and appends a
// reference occurrence for each bound one. Scopes are visited in allocation
// order, which is the pre-order of the sweep.
func (b *builder) resolve() {
	for id := range b.arena.all() {
		for _, ref := range b.arena.get(id).References {
			if _, isDef := b.defStarts[ref.Node.StartByte()]; isDef {
				continue
			}
			def, ok := b.lookup(id, ref.Name, ref.Node.StartByte())
			if !ok {
				continue
			}
			b.occurrences = append(b.occurrences, Occurrence{
				Range: rangeOf(ref.Node),
				ID:    def.ID,
				Kind:  ref.Kind,
			})
		}
	}
}

// lookup walks the parent chain from scope until some scope can see a
// definition of name from position start.
func (b *builder) lookup(scope ScopeID, name Name, start uint32) (*Definition, bool) {
	for sc := b.arena.get(scope); sc != nil; sc = b.arena.get(sc.Parent) {
		if def, ok := sc.findDefinition(name, start); ok {
			return def, true
		}
	}
	return nil, false
}
