package localnav

import (
	"fmt"

	"github.com/jward/localnav/internal/store"
)

// QueryBuilder provides navigation queries over the Store.
type QueryBuilder struct {
	store *store.Store
}

// Location represents a source code position range. Lines and columns are
// zero-based and the end is exclusive.
type Location struct {
	File   string
	Symbol string
	Kind   string
	// Definition is set for definition occurrences.
	Definition bool
	StartLine  int
	StartCol   int
	EndLine    int
	EndCol     int
}

func locationOf(path string, o *store.Occurrence) Location {
	return Location{
		File:       path,
		Symbol:     o.Symbol,
		Kind:       o.Kind,
		Definition: o.IsDefinition(),
		StartLine:  o.StartLine,
		StartCol:   o.StartCol,
		EndLine:    o.EndLine,
		EndCol:     o.EndCol,
	}
}

// DefinitionAt finds the definition of the local at (file, line, col). A
// position on a definition yields that definition. Unindexed files and
// positions outside any occurrence yield nil.
func (q *QueryBuilder) DefinitionAt(file string, line, col int) ([]Location, error) {
	f, symbols, err := q.symbolsAt(file, line, col)
	if err != nil {
		return nil, fmt.Errorf("definition at: %w", err)
	}

	var locations []Location
	for _, sym := range symbols {
		occs, err := q.store.OccurrencesBySymbol(f.ID, sym)
		if err != nil {
			return nil, fmt.Errorf("definition at: %w", err)
		}
		for _, o := range occs {
			if o.IsDefinition() {
				locations = append(locations, locationOf(f.Path, o))
			}
		}
	}
	return locations, nil
}

// ReferencesAt finds every reference to the local at (file, line, col),
// whether the position is on its definition or on one of its references.
func (q *QueryBuilder) ReferencesAt(file string, line, col int) ([]Location, error) {
	f, symbols, err := q.symbolsAt(file, line, col)
	if err != nil {
		return nil, fmt.Errorf("references at: %w", err)
	}

	var locations []Location
	for _, sym := range symbols {
		occs, err := q.store.OccurrencesBySymbol(f.ID, sym)
		if err != nil {
			return nil, fmt.Errorf("references at: %w", err)
		}
		for _, o := range occs {
			if !o.IsDefinition() {
				locations = append(locations, locationOf(f.Path, o))
			}
		}
	}
	return locations, nil
}

// Occurrences returns every occurrence of file: definitions first, then
// references. Unindexed files yield nil.
func (q *QueryBuilder) Occurrences(file string) ([]Location, error) {
	f, err := q.store.FileByPath(file)
	if err != nil {
		return nil, fmt.Errorf("occurrences: lookup file: %w", err)
	}
	if f == nil {
		return nil, nil
	}
	occs, err := q.store.OccurrencesByFile(f.ID)
	if err != nil {
		return nil, fmt.Errorf("occurrences: %w", err)
	}
	locations := make([]Location, 0, len(occs))
	for _, o := range occs {
		locations = append(locations, locationOf(f.Path, o))
	}
	return locations, nil
}

// Files returns the indexed files ordered by path.
func (q *QueryBuilder) Files() ([]*File, error) {
	files, err := q.store.Files()
	if err != nil {
		return nil, fmt.Errorf("files: %w", err)
	}
	return files, nil
}

// symbolsAt returns the distinct symbols of the occurrences covering the
// position, in storage order. f is nil when the file is not indexed.
func (q *QueryBuilder) symbolsAt(file string, line, col int) (*store.File, []string, error) {
	f, err := q.store.FileByPath(file)
	if err != nil {
		return nil, nil, fmt.Errorf("lookup file: %w", err)
	}
	if f == nil {
		return nil, nil, nil
	}
	occs, err := q.store.OccurrencesAt(f.ID, line, col)
	if err != nil {
		return nil, nil, err
	}
	seen := make(map[string]bool, len(occs))
	var symbols []string
	for _, o := range occs {
		if !seen[o.Symbol] {
			seen[o.Symbol] = true
			symbols = append(symbols, o.Symbol)
		}
	}
	return f, symbols, nil
}
