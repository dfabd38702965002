package store

import "sync"

// BatchedStore buffers occurrence inserts in memory using fake (negative)
// IDs so that resolution workers never touch SQLite. The buffer is written
// out by Store.CommitBatch.
//
// Thread safety: the mutex protects fake ID allocation and slice appends.
// Reads of committed data pass through to the underlying Store.
type BatchedStore struct {
	store *Store
	mu    sync.Mutex

	Occurrences []Occurrence

	nextFakeID int64 // starts at -1, decrements
}

// Compile-time check: *BatchedStore satisfies DataStore.
var _ DataStore = (*BatchedStore)(nil)

// NewBatchedStore creates a BatchedStore backed by s for read queries.
func NewBatchedStore(s *Store) *BatchedStore {
	return &BatchedStore{
		store:      s,
		nextFakeID: -1,
	}
}

func (b *BatchedStore) allocFakeID() int64 {
	id := b.nextFakeID
	b.nextFakeID--
	return id
}

func (b *BatchedStore) InsertOccurrence(o *Occurrence) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	o.ID = fakeID
	b.Occurrences = append(b.Occurrences, *o)
	return fakeID, nil
}

// OccurrencesByFile merges committed occurrences of the file with the ones
// still buffered.
func (b *BatchedStore) OccurrencesByFile(fileID int64) ([]*Occurrence, error) {
	occs, err := b.store.OccurrencesByFile(fileID)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.Occurrences {
		if b.Occurrences[i].FileID == fileID {
			occs = append(occs, &b.Occurrences[i])
		}
	}
	return occs, nil
}

// Len reports the number of buffered occurrences.
func (b *BatchedStore) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Occurrences)
}
