package locals

import (
	"fmt"

	"fortio.org/safecast"
)

// Name is an interned identifier. Names are only comparable with names from
// the same Tree.
type Name uint32

// interner maps identifier text to Names for a single file.
type interner struct {
	byID  []string
	index map[string]Name
}

func newInterner() *interner {
	return &interner{
		byID:  []string{""},
		index: map[string]Name{"": 0},
	}
}

// intern returns the Name for b, allocating one on first sight.
func (i *interner) intern(b []byte) Name {
	if id, ok := i.index[string(b)]; ok {
		return id
	}
	value, err := safecast.Conv[uint32](len(i.byID))
	if err != nil {
		panic(fmt.Errorf("name interner overflow: %w", err))
	}
	s := string(b)
	id := Name(value)
	i.byID = append(i.byID, s)
	i.index[s] = id
	return id
}

func (i *interner) lookup(n Name) string {
	if int(n) >= len(i.byID) {
		return ""
	}
	return i.byID[n]
}
