// Package queries holds the tree-sitter locals queries, one <language>.scm
// file per supported language.
package queries

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

// FS holds the built-in queries.
//
//go:embed *.scm
var FS embed.FS

const ext = ".scm"

// Source returns the locals query for lang from fsys.
func Source(fsys fs.FS, lang string) ([]byte, error) {
	data, err := fs.ReadFile(fsys, lang+ext)
	if err != nil {
		return nil, fmt.Errorf("locals query for %s: %w", lang, err)
	}
	return data, nil
}

// Languages returns the sorted names of the languages with a query in fsys.
func Languages(fsys fs.FS) ([]string, error) {
	matches, err := fs.Glob(fsys, "*"+ext)
	if err != nil {
		return nil, err
	}
	langs := make([]string, 0, len(matches))
	for _, m := range matches {
		langs = append(langs, strings.TrimSuffix(path.Base(m), ext))
	}
	sort.Strings(langs)
	return langs, nil
}

// Hash returns a content hash over every query in fsys. A change in any
// query changes the hash, which invalidates previously indexed results.
func Hash(fsys fs.FS) (string, error) {
	langs, err := Languages(fsys)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	for _, lang := range langs {
		data, err := Source(fsys, lang)
		if err != nil {
			return "", err
		}
		h.Write([]byte(lang))
		h.Write([]byte{0})
		h.Write(data)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
