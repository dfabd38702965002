package locals

import (
	"fmt"
	"strconv"
	"strings"

	"fortio.org/safecast"
	sitter "github.com/smacker/go-tree-sitter"
)

// Role is a bit set describing how an occurrence uses its symbol.
type Role int32

// RoleDefinition has the same value as scip.SymbolRole_Definition.
const RoleDefinition Role = 1

// IsDefinition reports whether the definition bit is set.
func (r Role) IsDefinition() bool { return r&RoleDefinition != 0 }

// Range is a source position span in zero-based rows and byte columns.
type Range struct {
	Start sitter.Point
	End   sitter.Point
}

func rangeOf(n Node) Range {
	return Range{Start: n.StartPoint(), End: n.EndPoint()}
}

func (r Range) String() string {
	return fmt.Sprintf("%d:%d-%d:%d", r.Start.Row, r.Start.Column, r.End.Row, r.End.Column)
}

// Occurrence is one emitted use of a local symbol.
type Occurrence struct {
	Range Range
	ID    int
	Role  Role
	// Kind is the capture kind, e.g. "var" for @definition.var.
	Kind string
}

// Symbol returns the file-local symbol, e.g. "local 3".
func (o Occurrence) Symbol() string { return LocalSymbol(o.ID) }

// CompactRange encodes the range the way SCIP does.
func (o Occurrence) CompactRange() ([]int32, error) {
	r := o.Range
	out, err := CompactRange(r.Start.Row, r.Start.Column, r.End.Row, r.End.Column)
	if err != nil {
		return nil, fmt.Errorf("range %s: %w", r, err)
	}
	return out, nil
}

// CompactRange returns [line, startCol, endCol] when the span sits on one
// line and [startLine, startCol, endLine, endCol] otherwise.
func CompactRange[T safecast.Integer](startLine, startCol, endLine, endCol T) ([]int32, error) {
	vals := []T{startLine, startCol, endLine, endCol}
	if startLine == endLine {
		vals = []T{startLine, startCol, endCol}
	}
	out := make([]int32, len(vals))
	for i, v := range vals {
		c, err := safecast.Conv[int32](v)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

const localSymbolPrefix = "local "

// LocalSymbol formats a definition id as a local symbol.
func LocalSymbol(id int) string {
	return localSymbolPrefix + strconv.Itoa(id)
}

// ParseLocalSymbol is the inverse of LocalSymbol.
func ParseLocalSymbol(symbol string) (int, bool) {
	rest, ok := strings.CutPrefix(symbol, localSymbolPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.Atoi(rest)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}
