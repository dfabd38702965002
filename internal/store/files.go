package store

import (
	"database/sql"
	"fmt"
)

const fileColumns = "id, path, language, hash, line_count, last_indexed"

func (s *Store) InsertFile(f *File) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO files (path, language, hash, line_count, last_indexed) VALUES (?, ?, ?, ?, ?)",
		f.Path, f.Language, f.Hash, f.LineCount, f.LastIndexed,
	)
	if err != nil {
		return 0, fmt.Errorf("insert file: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	f.ID = id
	return id, nil
}

// FileByPath returns the file with the given path, or (nil, nil) when it has
// not been indexed.
func (s *Store) FileByPath(path string) (*File, error) {
	f := &File{}
	err := s.db.QueryRow(
		"SELECT "+fileColumns+" FROM files WHERE path = ?", path,
	).Scan(&f.ID, &f.Path, &f.Language, &f.Hash, &f.LineCount, &f.LastIndexed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file by path: %w", err)
	}
	return f, nil
}

// Files returns every indexed file ordered by path.
func (s *Store) Files() ([]*File, error) {
	return s.queryFiles("SELECT " + fileColumns + " FROM files ORDER BY path")
}

func (s *Store) FilesByLanguage(language string) ([]*File, error) {
	return s.queryFiles("SELECT "+fileColumns+" FROM files WHERE language = ? ORDER BY path", language)
}

func (s *Store) queryFiles(query string, args ...any) ([]*File, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query files: %w", err)
	}
	defer rows.Close()
	var files []*File
	for rows.Next() {
		f := &File{}
		if err := rows.Scan(&f.ID, &f.Path, &f.Language, &f.Hash, &f.LineCount, &f.LastIndexed); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// ClearFileHashes blanks every stored content hash so the next index run
// re-resolves each file even when its content is unchanged.
func (s *Store) ClearFileHashes() error {
	if _, err := s.db.Exec("UPDATE files SET hash = ''"); err != nil {
		return fmt.Errorf("clear file hashes: %w", err)
	}
	return nil
}
