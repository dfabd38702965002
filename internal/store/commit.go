package store

import (
	"fmt"
)

// CommitBatch inserts all buffered occurrences from a BatchedStore into
// SQLite within a single transaction. On success the batch is emptied; on
// failure nothing is written and the batch is left as it was.
func (s *Store) CommitBatch(batch *BatchedStore) error {
	batch.mu.Lock()
	defer batch.mu.Unlock()
	if len(batch.Occurrences) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(insertOccurrenceSQL)
	if err != nil {
		return fmt.Errorf("commit batch: prepare: %w", err)
	}
	defer stmt.Close()

	for _, o := range batch.Occurrences {
		// file rows are committed before resolution starts
		if o.FileID <= 0 {
			return fmt.Errorf("commit batch: occurrence %s has no committed file (file_id=%d)", o.Symbol, o.FileID)
		}
		if _, err := stmt.Exec(o.FileID, o.Symbol, o.Roles, o.Kind, o.StartLine, o.StartCol, o.EndLine, o.EndCol); err != nil {
			return fmt.Errorf("commit batch: occurrence %s: %w", o.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: commit: %w", err)
	}
	batch.Occurrences = nil
	batch.nextFakeID = -1
	return nil
}
