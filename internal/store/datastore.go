package store

// DataStore is the write-side interface used while resolving a file. Store
// writes straight to SQLite; BatchedStore buffers for a later CommitBatch.
type DataStore interface {
	InsertOccurrence(o *Occurrence) (int64, error)
	OccurrencesByFile(fileID int64) ([]*Occurrence, error)
}

// Compile-time check: *Store satisfies DataStore.
var _ DataStore = (*Store)(nil)
