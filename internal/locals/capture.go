package locals

import (
	"strings"

	log "github.com/sirupsen/logrus"
	sitter "github.com/smacker/go-tree-sitter"
)

// Capture name prefixes understood by the resolver, and the match property
// naming a hoist target.
const (
	scopePrefix      = "scope"
	definitionPrefix = "definition"
	referencePrefix  = "reference"

	HoistProperty = "hoist"
)

// Node is the part of a syntax node the resolver looks at. *sitter.Node
// implements it.
type Node interface {
	StartByte() uint32
	EndByte() uint32
	StartPoint() sitter.Point
	EndPoint() sitter.Point
}

// RawCapture is a single capture from a locals query match. Properties holds
// the match's #set! pairs and may be nil.
type RawCapture struct {
	Name       string
	Node       Node
	Properties map[string]string
}

type ScopeCapture struct {
	Kind string
	Node Node
}

type DefinitionCapture struct {
	Kind string
	// Hoist is the kind of the ancestor scope the definition moves to, or
	// empty for an ordinary definition.
	Hoist string
	Node  Node
}

type ReferenceCapture struct {
	Kind string
	Node Node
}

// Captures is the classified output of a locals query. The slices keep
// input order.
type Captures struct {
	Scopes      []ScopeCapture
	Definitions []DefinitionCapture
	References  []ReferenceCapture
}

// Classify partitions raw captures by name prefix. Unknown capture names are
// dropped with a debug log line.
func Classify(raw []RawCapture) Captures {
	var c Captures
	for _, rc := range raw {
		switch {
		case strings.HasPrefix(rc.Name, scopePrefix):
			c.Scopes = append(c.Scopes, ScopeCapture{
				Kind: captureKind(rc.Name, scopePrefix),
				Node: rc.Node,
			})
		case strings.HasPrefix(rc.Name, definitionPrefix):
			c.Definitions = append(c.Definitions, DefinitionCapture{
				Kind:  captureKind(rc.Name, definitionPrefix),
				Hoist: rc.Properties[HoistProperty],
				Node:  rc.Node,
			})
		case strings.HasPrefix(rc.Name, referencePrefix):
			c.References = append(c.References, ReferenceCapture{
				Kind: captureKind(rc.Name, referencePrefix),
				Node: rc.Node,
			})
		default:
			log.Debugf("locals: discarded capture %q", rc.Name)
		}
	}
	return c
}

// captureKind strips "<prefix>." from name. A name without the separator is
// its own kind.
func captureKind(name, prefix string) string {
	if kind, ok := strings.CutPrefix(name, prefix+"."); ok {
		return kind
	}
	return name
}
