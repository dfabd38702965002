package store

import "time"

// RoleDefinition is the roles bit marking a definition occurrence.
const RoleDefinition = 1

type File struct {
	ID          int64
	Path        string
	Language    string
	Hash        string
	LineCount   int
	LastIndexed time.Time
}

// Occurrence is a stored local symbol occurrence. Lines and columns are
// zero-based; the end position is exclusive.
type Occurrence struct {
	ID        int64
	FileID    int64
	Symbol    string
	Roles     int
	Kind      string
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// IsDefinition reports whether the occurrence defines its symbol.
func (o *Occurrence) IsDefinition() bool {
	return o.Roles&RoleDefinition != 0
}

// Contains reports whether (line, col) falls within the occurrence.
func (o *Occurrence) Contains(line, col int) bool {
	if line < o.StartLine || line > o.EndLine {
		return false
	}
	if line == o.StartLine && col < o.StartCol {
		return false
	}
	if line == o.EndLine && col >= o.EndCol {
		return false
	}
	return true
}
