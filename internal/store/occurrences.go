package store

import (
	"database/sql"
	"fmt"
)

const occurrenceColumns = "id, file_id, symbol, roles, kind, start_line, start_col, end_line, end_col"

const insertOccurrenceSQL = `INSERT INTO occurrences (file_id, symbol, roles, kind,
	start_line, start_col, end_line, end_col) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func (s *Store) InsertOccurrence(o *Occurrence) (int64, error) {
	res, err := s.db.Exec(insertOccurrenceSQL,
		o.FileID, o.Symbol, o.Roles, o.Kind, o.StartLine, o.StartCol, o.EndLine, o.EndCol,
	)
	if err != nil {
		return 0, fmt.Errorf("insert occurrence: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	o.ID = id
	return id, nil
}

// OccurrencesByFile returns a file's occurrences in insertion order:
// definitions first, then references.
func (s *Store) OccurrencesByFile(fileID int64) ([]*Occurrence, error) {
	return s.queryOccurrences(
		"SELECT "+occurrenceColumns+" FROM occurrences WHERE file_id = ? ORDER BY id", fileID)
}

// OccurrencesAt returns the occurrences of a file whose range contains the
// zero-based position (line, col).
func (s *Store) OccurrencesAt(fileID int64, line, col int) ([]*Occurrence, error) {
	return s.queryOccurrences(
		`SELECT `+occurrenceColumns+` FROM occurrences
		 WHERE file_id = ?
		   AND (start_line < ? OR (start_line = ? AND start_col <= ?))
		   AND (end_line > ? OR (end_line = ? AND end_col > ?))
		 ORDER BY id`,
		fileID, line, line, col, line, line, col)
}

// OccurrencesBySymbol returns every occurrence of a local symbol in a file.
func (s *Store) OccurrencesBySymbol(fileID int64, symbol string) ([]*Occurrence, error) {
	return s.queryOccurrences(
		"SELECT "+occurrenceColumns+" FROM occurrences WHERE file_id = ? AND symbol = ? ORDER BY id",
		fileID, symbol)
}

func (s *Store) queryOccurrences(query string, args ...any) ([]*Occurrence, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query occurrences: %w", err)
	}
	defer rows.Close()
	var out []*Occurrence
	for rows.Next() {
		o := &Occurrence{}
		var kind sql.NullString
		if err := rows.Scan(&o.ID, &o.FileID, &o.Symbol, &o.Roles, &kind,
			&o.StartLine, &o.StartCol, &o.EndLine, &o.EndCol); err != nil {
			return nil, fmt.Errorf("scan occurrence: %w", err)
		}
		o.Kind = kind.String
		out = append(out, o)
	}
	return out, rows.Err()
}
