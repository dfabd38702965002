package locals

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Dump writes the scope tree in pre-order. Each scope lists its hoisted
// definitions first (prefixed "h:"), then its definitions and child scopes
// interleaved by position:
//
//	scope global [0,38)
//	  scope function [0,38)
//	    h:def function f 0:9-0:10 local 1
//	    def var x 1:2-1:3 local 2
func (t *Tree) Dump(w io.Writer) error {
	bw := bufio.NewWriter(w)
	t.dumpScope(bw, t.root, 0)
	return bw.Flush()
}

func (t *Tree) dumpScope(w *bufio.Writer, id ScopeID, depth int) {
	sc := t.arena.get(id)
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(w, "%sscope %s [%d,%d)\n", indent, sc.Kind, sc.Span.Start, sc.Span.End)

	inner := indent + "  "
	for _, def := range sc.HoistedDefinitions {
		t.dumpDefinition(w, inner+"h:", def)
	}
	defs, children := sc.Definitions, sc.Children
	for len(defs) > 0 || len(children) > 0 {
		if len(children) == 0 || (len(defs) > 0 && defs[0].Node.StartByte() < t.arena.get(children[0]).Span.Start) {
			t.dumpDefinition(w, inner, defs[0])
			defs = defs[1:]
			continue
		}
		t.dumpScope(w, children[0], depth+1)
		children = children[1:]
	}
}

func (t *Tree) dumpDefinition(w *bufio.Writer, prefix string, def Definition) {
	fmt.Fprintf(w, "%sdef %s %s %s %s\n", prefix, def.Kind, t.names.lookup(def.Name), rangeOf(def.Node), LocalSymbol(def.ID))
}
