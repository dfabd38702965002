package runtime

import (
	"context"
	"os"
	"sync"
	"unsafe"

	"github.com/risor-io/risor/object"
	log "github.com/sirupsen/logrus"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/localnav/internal/locals"
)

// sourceStore remembers the source bytes and grammar of every tree parsed
// by a script. node_text and query need them, and a *sitter.Node cannot
// reach its tree, so entries are keyed by the root node's address and found
// by walking Parent() up from any node.
type sourceStore struct {
	mu      sync.RWMutex
	entries map[uintptr]parsedSource
}

type parsedSource struct {
	src  []byte
	lang *sitter.Language
}

func newSourceStore() *sourceStore {
	return &sourceStore{entries: make(map[uintptr]parsedSource)}
}

func (s *sourceStore) store(tree *sitter.Tree, src []byte, lang *sitter.Language) {
	key := uintptr(unsafe.Pointer(tree.RootNode()))
	s.mu.Lock()
	s.entries[key] = parsedSource{src: src, lang: lang}
	s.mu.Unlock()
}

func (s *sourceStore) lookup(node *sitter.Node) (parsedSource, bool) {
	for node.Parent() != nil {
		node = node.Parent()
	}
	key := uintptr(unsafe.Pointer(node))
	s.mu.RLock()
	ps, ok := s.entries[key]
	s.mu.RUnlock()
	return ps, ok
}

func stringArg(fn, what string, obj object.Object) (string, object.Object) {
	s, ok := obj.(*object.String)
	if !ok {
		return "", object.Errorf("%s: %s must be a string, got %s", fn, what, obj.Type())
	}
	return s.Value(), nil
}

func nodeArg(fn string, obj object.Object) (*sitter.Node, object.Object) {
	proxy, ok := obj.(*object.Proxy)
	if !ok {
		return nil, object.Errorf("%s: expected proxy (Node), got %s", fn, obj.Type())
	}
	node, ok := proxy.Interface().(*sitter.Node)
	if !ok {
		return nil, object.Errorf("%s: expected *sitter.Node, got %T", fn, proxy.Interface())
	}
	return node, nil
}

// makeParseFn creates the "parse" host function.
//
// parse(path, language) → *sitter.Tree
func makeParseFn(ss *sourceStore) *object.Builtin {
	return object.NewBuiltin("parse", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("parse", 2, len(args))
		}
		path, errObj := stringArg("parse", "path", args[0])
		if errObj != nil {
			return errObj
		}
		lang, errObj := stringArg("parse", "language", args[1])
		if errObj != nil {
			return errObj
		}
		src, err := os.ReadFile(path)
		if err != nil {
			return object.Errorf("parse: reading %s: %v", path, err)
		}
		return parseSource(ctx, ss, src, lang)
	})
}

// makeParseSrcFn creates "parse_src", which parses a source string.
//
// parse_src(source, language) → *sitter.Tree
func makeParseSrcFn(ss *sourceStore) *object.Builtin {
	return object.NewBuiltin("parse_src", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("parse_src", 2, len(args))
		}
		src, errObj := stringArg("parse_src", "source", args[0])
		if errObj != nil {
			return errObj
		}
		lang, errObj := stringArg("parse_src", "language", args[1])
		if errObj != nil {
			return errObj
		}
		return parseSource(ctx, ss, []byte(src), lang)
	})
}

func parseSource(ctx context.Context, ss *sourceStore, src []byte, langName string) object.Object {
	lang, found := ParserForLanguage(langName)
	if !found {
		return object.Errorf("parse: unsupported language %q", langName)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return object.Errorf("parse: tree-sitter parse failed: %v", err)
	}
	ss.store(tree, src, lang)

	proxy, err := object.NewProxy(tree)
	if err != nil {
		return object.Errorf("parse: proxy error: %v", err)
	}
	return proxy
}

// makeNodeTextFn creates the "node_text" host function. Risor cannot pass a
// string where node.Content expects []byte, hence the host side lookup.
//
// node_text(node) → string
func makeNodeTextFn(ss *sourceStore) *object.Builtin {
	return object.NewBuiltin("node_text", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("node_text", 1, len(args))
		}
		node, errObj := nodeArg("node_text", args[0])
		if errObj != nil {
			return errObj
		}
		ps, found := ss.lookup(node)
		if !found {
			return object.Errorf("node_text: no source found for node's tree")
		}
		return object.NewString(node.Content(ps.src))
	})
}

// makeQueryFn creates the "query" host function.
//
// query(pattern, node) → list of maps from capture name to Node
func makeQueryFn(ss *sourceStore) *object.Builtin {
	return object.NewBuiltin("query", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("query", 2, len(args))
		}
		pattern, errObj := stringArg("query", "pattern", args[0])
		if errObj != nil {
			return errObj
		}
		node, errObj := nodeArg("query", args[1])
		if errObj != nil {
			return errObj
		}
		ps, found := ss.lookup(node)
		if !found {
			return object.Errorf("query: no source found for node's tree")
		}

		q, err := sitter.NewQuery([]byte(pattern), ps.lang)
		if err != nil {
			return object.Errorf("query: invalid pattern: %v", err)
		}
		defer q.Close()

		cursor := sitter.NewQueryCursor()
		defer cursor.Close()
		cursor.Exec(q, node)

		results := []object.Object{}
		for {
			match, ok := cursor.NextMatch()
			if !ok {
				break
			}
			match = cursor.FilterPredicates(match, ps.src)
			if len(match.Captures) == 0 {
				continue
			}
			captures := make(map[string]object.Object, len(match.Captures))
			for _, capture := range match.Captures {
				name := q.CaptureNameForId(capture.Index)
				p, err := object.NewProxy(capture.Node)
				if err != nil {
					return object.Errorf("query: proxy error for capture %q: %v", name, err)
				}
				captures[name] = p
			}
			results = append(results, object.NewMap(captures))
		}
		return object.NewList(results)
	})
}

// makeNodeChildFn creates "node_child", a ChildByFieldName that yields
// Risor nil instead of a proxied nil pointer.
//
// node_child(node, fieldName) → Node or nil
func makeNodeChildFn() *object.Builtin {
	return object.NewBuiltin("node_child", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("node_child", 2, len(args))
		}
		node, errObj := nodeArg("node_child", args[0])
		if errObj != nil {
			return errObj
		}
		field, errObj := stringArg("node_child", "field", args[1])
		if errObj != nil {
			return errObj
		}
		child := node.ChildByFieldName(field)
		if child == nil {
			return object.Nil
		}
		p, err := object.NewProxy(child)
		if err != nil {
			return object.Errorf("node_child: proxy error: %v", err)
		}
		return p
	})
}

// makeResolveLocalsFn creates the "resolve_locals" host function.
//
// resolve_locals(source, language) → list of occurrence maps
func makeResolveLocalsFn(configs *Configs) *object.Builtin {
	return object.NewBuiltin("resolve_locals", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("resolve_locals", 2, len(args))
		}
		src, errObj := stringArg("resolve_locals", "source", args[0])
		if errObj != nil {
			return errObj
		}
		lang, errObj := stringArg("resolve_locals", "language", args[1])
		if errObj != nil {
			return errObj
		}
		cfg, err := configs.For(lang)
		if err != nil {
			return object.Errorf("resolve_locals: %v", err)
		}
		occs, err := ResolveSource(ctx, cfg, []byte(src))
		if err != nil {
			return object.Errorf("resolve_locals: %v", err)
		}
		items := make([]object.Object, 0, len(occs))
		for _, occ := range occs {
			m, err := localOccurrenceToMap(occ)
			if err != nil {
				return object.Errorf("resolve_locals: %v", err)
			}
			items = append(items, m)
		}
		return object.NewList(items)
	})
}

// localOccurrenceToMap also carries "range", the compact SCIP encoding.
func localOccurrenceToMap(occ locals.Occurrence) (object.Object, error) {
	compact, err := occ.CompactRange()
	if err != nil {
		return nil, err
	}
	rng := make([]object.Object, len(compact))
	for i, v := range compact {
		rng[i] = object.NewInt(int64(v))
	}
	return object.NewMap(map[string]object.Object{
		"range":      object.NewList(rng),
		"symbol":     object.NewString(occ.Symbol()),
		"id":         object.NewInt(int64(occ.ID)),
		"definition": object.NewBool(occ.Role.IsDefinition()),
		"kind":       object.NewString(occ.Kind),
		"start_line": object.NewInt(int64(occ.Range.Start.Row)),
		"start_col":  object.NewInt(int64(occ.Range.Start.Column)),
		"end_line":   object.NewInt(int64(occ.Range.End.Row)),
		"end_col":    object.NewInt(int64(occ.Range.End.Column)),
	}), nil
}

// logObject exposes log.Info/Warn/Error/Debug to scripts through logrus.
type logObject struct {
	entry *log.Entry
}

func newLogObject(source string) *logObject {
	return &logObject{entry: log.WithField("script", source)}
}

func (l *logObject) Debug(msg string) { l.entry.Debug(msg) }
func (l *logObject) Info(msg string)  { l.entry.Info(msg) }
func (l *logObject) Warn(msg string)  { l.entry.Warn(msg) }
func (l *logObject) Error(msg string) { l.entry.Error(msg) }
