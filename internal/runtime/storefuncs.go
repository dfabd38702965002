package runtime

import (
	"context"

	"github.com/risor-io/risor/object"

	"github.com/jward/localnav/internal/locals"
	"github.com/jward/localnav/internal/store"
)

// makeFilesFn creates the "files" host function.
//
// files() → list of {id, path, language, hash, line_count}
func makeFilesFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("files", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 0 {
			return object.NewArgsError("files", 0, len(args))
		}
		files, err := s.Files()
		if err != nil {
			return object.Errorf("files: %v", err)
		}
		items := make([]object.Object, 0, len(files))
		for _, f := range files {
			items = append(items, object.NewMap(map[string]object.Object{
				"id":         object.NewInt(f.ID),
				"path":       object.NewString(f.Path),
				"language":   object.NewString(f.Language),
				"hash":       object.NewString(f.Hash),
				"line_count": object.NewInt(int64(f.LineCount)),
			}))
		}
		return object.NewList(items)
	})
}

// makeOccurrencesFn creates the "occurrences" host function.
//
// occurrences(path) → list of stored occurrence maps
func makeOccurrencesFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("occurrences", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("occurrences", 1, len(args))
		}
		path, errObj := stringArg("occurrences", "path", args[0])
		if errObj != nil {
			return errObj
		}
		f, err := s.FileByPath(path)
		if err != nil {
			return object.Errorf("occurrences: %v", err)
		}
		if f == nil {
			return object.Errorf("occurrences: %s is not indexed", path)
		}
		occs, err := s.OccurrencesByFile(f.ID)
		if err != nil {
			return object.Errorf("occurrences: %v", err)
		}
		items := make([]object.Object, 0, len(occs))
		for _, o := range occs {
			items = append(items, storedOccurrenceToMap(o))
		}
		return object.NewList(items)
	})
}

func storedOccurrenceToMap(o *store.Occurrence) object.Object {
	id, _ := locals.ParseLocalSymbol(o.Symbol)
	return object.NewMap(map[string]object.Object{
		"symbol":     object.NewString(o.Symbol),
		"id":         object.NewInt(int64(id)),
		"definition": object.NewBool(o.IsDefinition()),
		"kind":       object.NewString(o.Kind),
		"start_line": object.NewInt(int64(o.StartLine)),
		"start_col":  object.NewInt(int64(o.StartCol)),
		"end_line":   object.NewInt(int64(o.EndLine)),
		"end_col":    object.NewInt(int64(o.EndCol)),
	})
}
