package runtime

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/localnav/queries"
)

// ErrUnsupportedLanguage is returned for languages without a grammar or a
// locals query.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// LocalConfiguration is a compiled locals query for one language. The query
// is read-only after compilation and may be shared across goroutines; each
// use needs its own parser and query cursor.
type LocalConfiguration struct {
	Language string
	Grammar  *sitter.Language
	Query    *sitter.Query
}

// Configs compiles locals queries from a query filesystem on first use and
// caches them for the life of the process.
type Configs struct {
	fsys fs.FS

	mu      sync.Mutex
	entries map[string]*configEntry
}

type configEntry struct {
	once sync.Once
	cfg  *LocalConfiguration
	err  error
}

// NewConfigs returns a cache reading <language>.scm files from fsys.
func NewConfigs(fsys fs.FS) *Configs {
	return &Configs{fsys: fsys, entries: make(map[string]*configEntry)}
}

var defaultConfigs = NewConfigs(queries.FS)

// DefaultConfigs returns the cache over the built-in queries.
func DefaultConfigs() *Configs { return defaultConfigs }

// ConfigForLanguage returns the built-in configuration for lang.
func ConfigForLanguage(lang string) (*LocalConfiguration, error) {
	return defaultConfigs.For(lang)
}

// For returns the configuration for lang, compiling it on first call.
// Compilation errors are cached too.
func (c *Configs) For(lang string) (*LocalConfiguration, error) {
	c.mu.Lock()
	e, ok := c.entries[lang]
	if !ok {
		e = &configEntry{}
		c.entries[lang] = e
	}
	c.mu.Unlock()

	e.once.Do(func() {
		e.cfg, e.err = compileConfig(c.fsys, lang)
	})
	return e.cfg, e.err
}

// Languages returns the sorted languages that have both a grammar and a
// query.
func (c *Configs) Languages() ([]string, error) {
	withQuery, err := queries.Languages(c.fsys)
	if err != nil {
		return nil, fmt.Errorf("runtime: listing queries: %w", err)
	}
	var langs []string
	for _, lang := range GrammarLanguages() {
		if slices.Contains(withQuery, lang) {
			langs = append(langs, lang)
		}
	}
	return langs, nil
}

// Hash returns the content hash of the query filesystem.
func (c *Configs) Hash() (string, error) {
	return queries.Hash(c.fsys)
}

func compileConfig(fsys fs.FS, lang string) (*LocalConfiguration, error) {
	grammar, ok := ParserForLanguage(lang)
	if !ok {
		return nil, fmt.Errorf("runtime: %w %q", ErrUnsupportedLanguage, lang)
	}
	src, err := queries.Source(fsys, lang)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("runtime: %w %q: no locals query", ErrUnsupportedLanguage, lang)
		}
		return nil, fmt.Errorf("runtime: %w", err)
	}
	q, err := sitter.NewQuery(src, grammar)
	if err != nil {
		return nil, fmt.Errorf("runtime: compiling %s locals query: %w", lang, err)
	}
	return &LocalConfiguration{Language: lang, Grammar: grammar, Query: q}, nil
}
