package runtime

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/localnav/internal/locals"
	"github.com/jward/localnav/internal/store"
)

const goTestSource = `package main

func add(a, b int) int {
	sum := a + b
	return sum
}
`

const jsHoistSource = `function outer() {
  inner();
  if (true) {
    var x = 1;
  }
  return x;
  function inner() { return 1; }
}
`

func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func pt(row, col uint32) sitter.Point { return sitter.Point{Row: row, Column: col} }

func occ(id int, role locals.Role, kind string, row, col, endCol uint32) locals.Occurrence {
	return locals.Occurrence{
		Range: locals.Range{Start: pt(row, col), End: pt(row, endCol)},
		ID:    id,
		Role:  role,
		Kind:  kind,
	}
}

// --- Language detection tests ---

func TestLanguageForFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"main.go", "go", true},
		{"app.ts", "typescript", true},
		{"app.tsx", "typescript", true},
		{"app.js", "javascript", true},
		{"app.mjs", "javascript", true},
		{"script.py", "python", true},
		{"lib.rs", "rust", true},
		{"main.c", "c", true},
		{"util.h", "c", true},
		{"main.cc", "cpp", true},
		{"App.java", "java", true},
		{"index.php", "php", true},
		{"app.rb", "ruby", true},
		{"file.txt", "", false},
		{"Makefile", "", false},
		{"path/to/file.GO", "go", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			got, ok := LanguageForFile(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParserForLanguage(t *testing.T) {
	t.Parallel()
	for _, lang := range GrammarLanguages() {
		l, ok := ParserForLanguage(lang)
		assert.True(t, ok, lang)
		assert.NotNil(t, l, lang)
	}
	_, ok := ParserForLanguage("cobol")
	assert.False(t, ok)
	assert.Len(t, GrammarLanguages(), 10)
}

// --- Configuration tests ---

func TestConfigForLanguage(t *testing.T) {
	t.Parallel()
	for _, lang := range []string{"go", "java", "javascript"} {
		cfg, err := ConfigForLanguage(lang)
		require.NoError(t, err, lang)
		assert.Equal(t, lang, cfg.Language)
		assert.NotNil(t, cfg.Query)

		again, err := ConfigForLanguage(lang)
		require.NoError(t, err)
		assert.Same(t, cfg, again, "configurations are compiled once")
	}
}

func TestConfigForLanguage_Unsupported(t *testing.T) {
	t.Parallel()
	_, err := ConfigForLanguage("cobol")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedLanguage))
}

func TestConfigs_CustomFS(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{
		"go.scm":   {Data: []byte("(block) @scope\n(identifier) @reference\n")},
		"ruby.scm": {Data: []byte("(not_a_node) @scope\n")},
	}
	configs := NewConfigs(fsys)

	langs, err := configs.Languages()
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "ruby"}, langs)

	_, err = configs.For("go")
	require.NoError(t, err)

	_, err = configs.For("ruby")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compiling ruby locals query")

	_, err = configs.For("python")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedLanguage))

	h, err := configs.Hash()
	require.NoError(t, err)
	assert.Len(t, h, 64)
}

// --- Capture collection and resolution ---

func TestCollectCaptures_HoistProperty(t *testing.T) {
	t.Parallel()
	cfg, err := ConfigForLanguage("javascript")
	require.NoError(t, err)

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(cfg.Grammar)
	src := []byte(jsHoistSource)
	tree, err := parser.ParseCtx(context.Background(), nil, src)
	require.NoError(t, err)
	defer tree.Close()

	captures := CollectCaptures(cfg, tree.RootNode(), src)
	require.NotEmpty(t, captures)

	var varDef *locals.RawCapture
	for i := range captures {
		if captures[i].Name == "definition.var" {
			varDef = &captures[i]
		}
		if captures[i].Name == "reference" {
			assert.Empty(t, captures[i].Properties[locals.HoistProperty])
		}
	}
	require.NotNil(t, varDef)
	assert.Equal(t, "function", varDef.Properties[locals.HoistProperty])
	assert.Equal(t, uint32(3), varDef.Node.StartPoint().Row)
}

func TestResolveSource_Go(t *testing.T) {
	t.Parallel()
	cfg, err := ConfigForLanguage("go")
	require.NoError(t, err)

	got, err := ResolveSource(context.Background(), cfg, []byte(goTestSource))
	require.NoError(t, err)

	want := []locals.Occurrence{
		occ(1, locals.RoleDefinition, "parameter", 2, 9, 10),
		occ(2, locals.RoleDefinition, "parameter", 2, 12, 13),
		occ(3, locals.RoleDefinition, "var", 3, 1, 4),
		occ(1, 0, "reference", 3, 8, 9),
		occ(2, 0, "reference", 3, 12, 13),
		occ(3, 0, "reference", 4, 8, 11),
	}
	assert.Equal(t, want, got)
}

func TestResolveSource_JavaScriptHoisting(t *testing.T) {
	t.Parallel()
	cfg, err := ConfigForLanguage("javascript")
	require.NoError(t, err)

	got, err := ResolveSource(context.Background(), cfg, []byte(jsHoistSource))
	require.NoError(t, err)

	want := []locals.Occurrence{
		occ(1, locals.RoleDefinition, "function", 0, 9, 14),
		occ(2, locals.RoleDefinition, "var", 3, 8, 9),
		occ(3, locals.RoleDefinition, "function", 6, 11, 16),
		occ(3, 0, "reference", 1, 2, 7),
		occ(2, 0, "reference", 5, 9, 10),
	}
	assert.Equal(t, want, got)
}

func TestResolveSource_InvalidUTF8(t *testing.T) {
	t.Parallel()
	cfg, err := ConfigForLanguage("go")
	require.NoError(t, err)

	src := "package main\n\nfunc f() {\n\tx\xff := 1\n\t_ = x\xff\n}\n"
	_, err = ResolveSource(context.Background(), cfg, []byte(src))
	if err != nil {
		// tree-sitter may split the identifier around the bad byte; when a
		// capture does include it the whole file fails.
		assert.ErrorIs(t, err, locals.ErrInvalidUTF8)
	}
}

func TestResolveFile_And_DumpFile(t *testing.T) {
	t.Parallel()
	path := writeTestFile(t, "add.go", goTestSource)
	ctx := context.Background()

	lang, occs, err := ResolveFile(ctx, DefaultConfigs(), path)
	require.NoError(t, err)
	assert.Equal(t, "go", lang)
	assert.Len(t, occs, 6)

	var sb strings.Builder
	require.NoError(t, DumpFile(ctx, DefaultConfigs(), path, &sb))
	out := sb.String()
	assert.True(t, strings.HasPrefix(out, "scope global "))
	assert.Contains(t, out, "  scope function ")
	assert.Contains(t, out, "def parameter a 2:9-2:10 local 1")
	assert.Contains(t, out, "def var sum 3:1-3:4 local 3")

	_, _, err = ResolveFile(ctx, DefaultConfigs(), writeTestFile(t, "notes.txt", "hello"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
}

// --- Risor integration tests (via RunSource) ---

func TestRunSource_ParseAndNodeText(t *testing.T) {
	goFile := writeTestFile(t, "test.go", goTestSource)
	rt := NewRuntime(nil, "")

	script := `
tree := parse(test_file, "go")
root := tree.RootNode()
assert(root.Type() == "source_file", "expected source_file")

fn := root.NamedChild(1)
assert(fn.Type() == "function_declaration", 'got {fn.Type()}')
name := node_text(node_child(fn, "name"))
assert(name == "add", 'expected add, got {name}')
assert(node_child(fn, "no_such_field") == nil, "missing field is nil")
`
	err := rt.RunSource(context.Background(), script, map[string]any{"test_file": goFile})
	require.NoError(t, err)
}

func TestRunSource_QueryHostFunction(t *testing.T) {
	rt := NewRuntime(nil, "")

	script := `
tree := parse_src(src, "go")
matches := query("(short_var_declaration left: (expression_list (identifier) @name))", tree.RootNode())
assert(len(matches) == 1, 'expected 1 match, got {len(matches)}')
text := node_text(matches[0]["name"])
assert(text == "sum", 'expected sum, got {text}')
`
	err := rt.RunSource(context.Background(), script, map[string]any{"src": goTestSource})
	require.NoError(t, err)
}

func TestRunSource_QueryInvalidPattern(t *testing.T) {
	rt := NewRuntime(nil, "")
	script := `
tree := parse_src(src, "go")
query("(not_a_real_node_type @x)", tree.RootNode())
`
	err := rt.RunSource(context.Background(), script, map[string]any{"src": goTestSource})
	require.Error(t, err)
}

func TestRunSource_ResolveLocals(t *testing.T) {
	rt := NewRuntime(nil, "")

	script := `
occs := resolve_locals(src, "go")
assert(len(occs) == 6, 'expected 6 occurrences, got {len(occs)}')

first := occs[0]
assert(first["symbol"] == "local 1", 'got {first["symbol"]}')
assert(first["definition"], "first occurrence is a definition")
assert(first["start_line"] == 2, 'got line {first["start_line"]}')
assert(first["start_col"] == 9, 'got col {first["start_col"]}')
assert(len(first["range"]) == 3, "single-line range is compact")
assert(first["range"][2] == 10, 'got end col {first["range"][2]}')

last := occs[5]
assert(last["symbol"] == "local 3", 'got {last["symbol"]}')
assert(!last["definition"], "last occurrence is a reference")
assert(last["kind"] == "reference", 'got {last["kind"]}')
`
	err := rt.RunSource(context.Background(), script, map[string]any{"src": goTestSource})
	require.NoError(t, err)
}

func TestRunSource_ResolveLocalsUnsupportedLanguage(t *testing.T) {
	rt := NewRuntime(nil, "")
	err := rt.RunSource(context.Background(), `resolve_locals("x", "cobol")`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cobol")
}

func TestRunSource_StoreGlobals(t *testing.T) {
	s, err := store.NewStore(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate())

	f := &store.File{Path: "/src/a.go", Language: "go", Hash: "h", LineCount: 3, LastIndexed: time.Now()}
	_, err = s.InsertFile(f)
	require.NoError(t, err)
	_, err = s.InsertOccurrence(&store.Occurrence{FileID: f.ID, Symbol: "local 1", Roles: store.RoleDefinition, Kind: "var", StartLine: 1, StartCol: 1, EndLine: 1, EndCol: 2})
	require.NoError(t, err)

	rt := NewRuntime(s, "")
	script := `
fs := files()
assert(len(fs) == 1, 'expected 1 file, got {len(fs)}')
assert(fs[0]["path"] == "/src/a.go", 'got {fs[0]["path"]}')

occs := occurrences("/src/a.go")
assert(len(occs) == 1, 'expected 1 occurrence, got {len(occs)}')
assert(occs[0]["symbol"] == "local 1", 'got {occs[0]["symbol"]}')
assert(occs[0]["definition"], "stored definition")
assert(occs[0]["id"] == 1, 'got id {occs[0]["id"]}')
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))

	err = rt.RunSource(context.Background(), `occurrences("/src/missing.go")`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not indexed")
}

func TestRunSource_NoStoreGlobalsWithoutStore(t *testing.T) {
	rt := NewRuntime(nil, "")
	err := rt.RunSource(context.Background(), `files()`, nil)
	require.Error(t, err)
}

func TestRunSource_LogObject(t *testing.T) {
	rt := NewRuntime(nil, "")
	script := `
log.Debug("debug")
log.Info("info")
log.Warn("warn")
log.Error("error")
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))
}

// --- Script loading and imports ---

func TestRunScript_LoadsFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test.risor"), []byte(`result := 1 + 1`), 0644))

	rt := NewRuntime(nil, dir)
	require.NoError(t, rt.RunScript(context.Background(), "test.risor", nil))
}

func TestRunScript_MissingFile(t *testing.T) {
	rt := NewRuntime(nil, t.TempDir())
	err := rt.RunScript(context.Background(), "nonexistent.risor", nil)
	require.Error(t, err)
}

func TestLoadScript_FromFS(t *testing.T) {
	t.Parallel()
	mapFS := fstest.MapFS{
		"tools/count.risor": &fstest.MapFile{Data: []byte(`x := 1`)},
	}
	rt := NewRuntime(nil, "", WithRuntimeFS(mapFS))

	src, err := rt.LoadScript("/tools/count.risor")
	require.NoError(t, err)
	assert.Equal(t, "x := 1", src)

	_, err = rt.LoadScript("tools/missing.risor")
	require.Error(t, err)
}

func TestLoadScript_AbsolutePathIgnoresScriptsDir(t *testing.T) {
	t.Parallel()
	path := writeTestFile(t, "abs.risor", "y := 2")
	rt := NewRuntime(nil, "/does/not/exist")

	src, err := rt.LoadScript(path)
	require.NoError(t, err)
	assert.Equal(t, "y := 2", src)
}

func TestImport_FSImporter(t *testing.T) {
	mapFS := fstest.MapFS{
		"helpers.risor": &fstest.MapFile{Data: []byte(`
func definitions(occs) {
	n := 0
	for i := 0; i < len(occs); i++ {
		if occs[i]["definition"] {
			n += 1
		}
	}
	return n
}
`)},
	}
	rt := NewRuntime(nil, "", WithRuntimeFS(mapFS))

	script := `
import helpers

n := helpers.definitions(resolve_locals(src, "go"))
assert(n == 3, 'expected 3 definitions, got {n}')
`
	require.NoError(t, rt.RunSource(context.Background(), script, map[string]any{"src": goTestSource}))
}

func TestImport_LocalImporter(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "math_utils.risor"), []byte(`
func double(x) {
	return x * 2
}
`), 0644))

	rt := NewRuntime(nil, dir)
	script := `
import math_utils

result := math_utils.double(21)
assert(result == 42, 'expected 42, got {result}')
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))
}

func TestNewRuntime_Options(t *testing.T) {
	t.Parallel()
	custom := NewConfigs(fstest.MapFS{})

	rt := NewRuntime(nil, "/some/dir", WithConfigs(custom))
	require.NotNil(t, rt)
	assert.Nil(t, rt.fsys)
	assert.Equal(t, "/some/dir", rt.scriptsDir)
	assert.Same(t, custom, rt.configs)

	assert.Same(t, DefaultConfigs(), NewRuntime(nil, "").configs)
}
