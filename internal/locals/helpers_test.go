package locals

import (
	"strings"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/require"
)

// fakeNode stands in for *sitter.Node so tests can place captures by hand.
type fakeNode struct {
	start, end     uint32
	startPt, endPt sitter.Point
}

func (n fakeNode) StartByte() uint32        { return n.start }
func (n fakeNode) EndByte() uint32          { return n.end }
func (n fakeNode) StartPoint() sitter.Point { return n.startPt }
func (n fakeNode) EndPoint() sitter.Point   { return n.endPt }

func pointAt(src string, offset int) sitter.Point {
	prefix := src[:offset]
	row := strings.Count(prefix, "\n")
	col := offset - (strings.LastIndex(prefix, "\n") + 1)
	return sitter.Point{Row: uint32(row), Column: uint32(col)}
}

// span returns a node covering src[start:end].
func span(src string, start, end int) fakeNode {
	return fakeNode{
		start:   uint32(start),
		end:     uint32(end),
		startPt: pointAt(src, start),
		endPt:   pointAt(src, end),
	}
}

// nth returns a node covering the n-th (zero-based) occurrence of text.
func nth(t *testing.T, src, text string, n int) fakeNode {
	t.Helper()
	from := 0
	for i := 0; ; i++ {
		idx := strings.Index(src[from:], text)
		require.GreaterOrEqual(t, idx, 0, "occurrence %d of %q not found in %q", n, text, src)
		if i == n {
			return span(src, from+idx, from+idx+len(text))
		}
		from += idx + len(text)
	}
}

func whole(src string) fakeNode { return span(src, 0, len(src)) }

func scopeCap(kind string, n Node) RawCapture {
	return RawCapture{Name: "scope." + kind, Node: n}
}

func defCap(kind string, n Node) RawCapture {
	return RawCapture{Name: "definition." + kind, Node: n}
}

func hoistCap(kind, target string, n Node) RawCapture {
	return RawCapture{
		Name:       "definition." + kind,
		Node:       n,
		Properties: map[string]string{HoistProperty: target},
	}
}

func refCap(n Node) RawCapture {
	return RawCapture{Name: "reference", Node: n}
}

func defOcc(n Node, id int, kind string) Occurrence {
	return Occurrence{Range: rangeOf(n), ID: id, Role: RoleDefinition, Kind: kind}
}

func refOcc(n Node, id int) Occurrence {
	return Occurrence{Range: rangeOf(n), ID: id, Kind: "reference"}
}
