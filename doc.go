// Package localnav resolves local bindings in source files and serves
// go-to-definition and find-references over them. It is built on tree-sitter
// locals queries and supports Go, TypeScript, JavaScript, Python, Rust, C,
// C++, Java, PHP, and Ruby.
//
// # Pipeline
//
// For each source file localnav parses with tree-sitter, runs the
// language's locals query, builds a scope tree from the @scope,
// @definition and @reference captures, and binds every reference to the
// innermost visible definition. Each binding becomes a file-local symbol
// ("local 1", "local 2", ...) shared by the definition occurrence and its
// references, and the occurrences are written to SQLite.
//
// # Usage
//
//	e, err := localnav.New("localnav.db")
//	if err != nil { ... }
//	defer e.Close()
//
//	ctx := context.Background()
//	err = e.IndexDirectory(ctx, "path/to/project")
//
//	q := e.Query()
//	locs, err := q.DefinitionAt("/abs/path/main.go", 10, 5)
//
// # Query API
//
// The [QueryBuilder] returned by [Engine.Query] provides:
//
//   - [QueryBuilder.DefinitionAt]: where the local at a position is defined.
//   - [QueryBuilder.ReferencesAt]: every reference to the local at a position.
//   - [QueryBuilder.Occurrences]: all occurrences of a file.
//   - [QueryBuilder.Files]: the indexed files.
//
// Lines and columns are zero-based; columns count bytes.
//
// # Incremental Indexing
//
// [Engine.IndexFiles] skips files whose content hash is unchanged. When the
// locals queries change, every stored file hash is cleared, so each file is
// resolved again the next time it is indexed. Use [WithLanguages]
// to restrict which languages the Engine processes.
//
// # Export
//
// [Engine.WriteSCIP] writes the index as a SCIP protobuf, and
// [Engine.Profile] times parsing and resolution per file.
package localnav
