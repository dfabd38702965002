package locals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	t.Parallel()
	n := fakeNode{start: 1, end: 2}

	tests := []struct {
		name      string
		capture   string
		wantScope string
		wantDef   string
		wantRef   string
	}{
		{name: "scope with kind", capture: "scope.function", wantScope: "function"},
		{name: "bare scope", capture: "scope", wantScope: "scope"},
		{name: "definition with kind", capture: "definition.var", wantDef: "var"},
		{name: "dotted kind keeps remainder", capture: "definition.var.const", wantDef: "var.const"},
		{name: "bare definition", capture: "definition", wantDef: "definition"},
		{name: "reference with kind", capture: "reference.call", wantRef: "call"},
		{name: "bare reference", capture: "reference", wantRef: "reference"},
		{name: "prefix without dot", capture: "scoped", wantScope: "scoped"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := Classify([]RawCapture{{Name: tt.capture, Node: n}})
			switch {
			case tt.wantScope != "":
				require.Len(t, c.Scopes, 1)
				assert.Equal(t, tt.wantScope, c.Scopes[0].Kind)
				assert.Empty(t, c.Definitions)
				assert.Empty(t, c.References)
			case tt.wantDef != "":
				require.Len(t, c.Definitions, 1)
				assert.Equal(t, tt.wantDef, c.Definitions[0].Kind)
				assert.Empty(t, c.Definitions[0].Hoist)
				assert.Empty(t, c.Scopes)
			case tt.wantRef != "":
				require.Len(t, c.References, 1)
				assert.Equal(t, tt.wantRef, c.References[0].Kind)
				assert.Empty(t, c.Scopes)
			}
		})
	}
}

func TestClassify_DiscardsUnknownNames(t *testing.T) {
	t.Parallel()
	n := fakeNode{start: 0, end: 1}
	c := Classify([]RawCapture{
		{Name: "local.scope", Node: n},
		{Name: "name", Node: n},
		{Name: "_ignored", Node: n},
	})
	assert.Empty(t, c.Scopes)
	assert.Empty(t, c.Definitions)
	assert.Empty(t, c.References)
}

func TestClassify_HoistProperty(t *testing.T) {
	t.Parallel()
	n := fakeNode{start: 0, end: 1}
	c := Classify([]RawCapture{
		hoistCap("function", "function", n),
		{Name: "definition.var", Node: n, Properties: map[string]string{"other": "x"}},
	})
	require.Len(t, c.Definitions, 2)
	assert.Equal(t, "function", c.Definitions[0].Hoist)
	assert.Empty(t, c.Definitions[1].Hoist)
}

func TestClassify_KeepsInputOrder(t *testing.T) {
	t.Parallel()
	a := fakeNode{start: 5, end: 6}
	b := fakeNode{start: 1, end: 2}
	c := Classify([]RawCapture{refCap(a), refCap(b)})
	require.Len(t, c.References, 2)
	assert.Equal(t, uint32(5), c.References[0].Node.StartByte())
	assert.Equal(t, uint32(1), c.References[1].Node.StartByte())
}
