package runtime

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/localnav/internal/locals"
)

// CollectCaptures runs the locals query over root and returns every capture
// of every match that passes the query's predicates. #set! pairs of a match
// become the Properties of each of its captures.
func CollectCaptures(cfg *LocalConfiguration, root *sitter.Node, src []byte) []locals.RawCapture {
	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(cfg.Query, root)

	var captures []locals.RawCapture
	for {
		match, ok := cursor.NextMatch()
		if !ok {
			break
		}
		match = cursor.FilterPredicates(match, src)
		if len(match.Captures) == 0 {
			continue
		}
		props := setProperties(cfg.Query, match.PatternIndex)
		for _, capture := range match.Captures {
			captures = append(captures, locals.RawCapture{
				Name:       cfg.Query.CaptureNameForId(capture.Index),
				Node:       capture.Node,
				Properties: props,
			})
		}
	}
	return captures
}

// setProperties reads the (#set! key "value") predicates of a pattern.
func setProperties(q *sitter.Query, patternIndex uint16) map[string]string {
	var props map[string]string
	for _, steps := range q.PredicatesForPattern(uint32(patternIndex)) {
		if len(steps) < 3 ||
			steps[0].Type != sitter.QueryPredicateStepTypeString ||
			steps[1].Type != sitter.QueryPredicateStepTypeString {
			continue
		}
		if q.StringValueForId(steps[0].ValueId) != "set!" {
			continue
		}
		value := ""
		if steps[2].Type == sitter.QueryPredicateStepTypeString {
			value = q.StringValueForId(steps[2].ValueId)
		}
		if props == nil {
			props = make(map[string]string)
		}
		props[q.StringValueForId(steps[1].ValueId)] = value
	}
	return props
}
