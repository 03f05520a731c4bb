// Package store persists pipeline state in a DuckDB database, one
// book per data directory. Each pipeline stage writes its own tables,
// so commands can resume where a previous run stopped.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/ashrobertsdragon/lorebinder/internal/model"
)

// Store manages all data persistence via DuckDB.
type Store struct {
	DB      *sql.DB
	DataDir string
}

// New opens (or creates) a DuckDB database in the given data directory.
func New(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "lorebinder.duckdb")
	db, err := sql.Open("duckdb", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening duckdb: %w", err)
	}

	s := &Store{DB: db, DataDir: dataDir}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.DB.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS chapters (
			idx INTEGER PRIMARY KEY,
			title TEXT NOT NULL,
			body TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ner_blocks (
			chapter_idx INTEGER PRIMARY KEY REFERENCES chapters(idx),
			raw TEXT NOT NULL,
			model TEXT NOT NULL,
			extracted_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS categorized_names (
			chapter_idx INTEGER PRIMARY KEY REFERENCES chapters(idx),
			names TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS chapter_attributes (
			chapter_idx INTEGER PRIMARY KEY REFERENCES chapters(idx),
			attributes TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS lorebinder (
			id INTEGER PRIMARY KEY,
			binder TEXT NOT NULL,
			built_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.DB.Exec(stmt); err != nil {
			return fmt.Errorf("executing %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// WriteChapters stores the book's chapters, replacing any previous
// ingest.
func (s *Store) WriteChapters(chapters []model.Chapter) error {
	tx, err := s.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM chapters"); err != nil {
		return err
	}
	for _, ch := range chapters {
		if _, err := tx.Exec("INSERT INTO chapters (idx, title, body) VALUES (?, ?, ?)",
			ch.Index, ch.Title, ch.Body); err != nil {
			return fmt.Errorf("inserting chapter %d: %w", ch.Index, err)
		}
	}
	return tx.Commit()
}

// ReadChapters loads all chapters in order.
func (s *Store) ReadChapters() ([]model.Chapter, error) {
	rows, err := s.DB.Query("SELECT idx, title, body FROM chapters ORDER BY idx")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chapters []model.Chapter
	for rows.Next() {
		var ch model.Chapter
		if err := rows.Scan(&ch.Index, &ch.Title, &ch.Body); err != nil {
			return nil, err
		}
		chapters = append(chapters, ch)
	}
	return chapters, rows.Err()
}

// WriteEntityBlock saves one chapter's raw entity response and its
// sorted names in a single transaction.
func (s *Store) WriteEntityBlock(block model.RawEntityBlock, names model.CategorizedNames) error {
	encoded, err := json.Marshal(names)
	if err != nil {
		return fmt.Errorf("encoding names: %w", err)
	}

	tx, err := s.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("INSERT OR REPLACE INTO ner_blocks (chapter_idx, raw, model, extracted_at) VALUES (?, ?, ?, ?)",
		block.ChapterIndex, block.Text, block.Model, block.ExtractedAt); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT OR REPLACE INTO categorized_names (chapter_idx, names) VALUES (?, ?)",
		block.ChapterIndex, string(encoded)); err != nil {
		return err
	}
	return tx.Commit()
}

// ReadCategorizedNames loads one chapter's sorted names.
func (s *Store) ReadCategorizedNames(chapterIdx int) (model.CategorizedNames, error) {
	var encoded string
	err := s.DB.QueryRow("SELECT names FROM categorized_names WHERE chapter_idx = ?", chapterIdx).Scan(&encoded)
	if err != nil {
		return nil, err
	}
	var names model.CategorizedNames
	if err := json.Unmarshal([]byte(encoded), &names); err != nil {
		return nil, fmt.Errorf("decoding names for chapter %d: %w", chapterIdx, err)
	}
	return names, nil
}

// EntityBlockExists checks whether a chapter has been extracted.
func (s *Store) EntityBlockExists(chapterIdx int) bool {
	var n int
	s.DB.QueryRow("SELECT 1 FROM ner_blocks WHERE chapter_idx = ?", chapterIdx).Scan(&n)
	return n == 1
}

// WriteChapterAttributes saves one chapter's analysis result.
func (s *Store) WriteChapterAttributes(chapterIdx int, attrs model.ChapterAttributes) error {
	encoded, err := json.Marshal(attrs)
	if err != nil {
		return fmt.Errorf("encoding attributes: %w", err)
	}
	_, err = s.DB.Exec("INSERT OR REPLACE INTO chapter_attributes (chapter_idx, attributes) VALUES (?, ?)",
		chapterIdx, string(encoded))
	return err
}

// AttributesExist checks whether a chapter has been analyzed.
func (s *Store) AttributesExist(chapterIdx int) bool {
	var n int
	s.DB.QueryRow("SELECT 1 FROM chapter_attributes WHERE chapter_idx = ?", chapterIdx).Scan(&n)
	return n == 1
}

// ReadAllChapterAttributes loads every analyzed chapter, keyed by
// chapter id, in the shape the merger consumes.
func (s *Store) ReadAllChapterAttributes() (map[string]model.ChapterAttributes, error) {
	rows, err := s.DB.Query("SELECT chapter_idx, attributes FROM chapter_attributes ORDER BY chapter_idx")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]model.ChapterAttributes{}
	for rows.Next() {
		var idx int
		var encoded string
		if err := rows.Scan(&idx, &encoded); err != nil {
			return nil, err
		}
		var attrs model.ChapterAttributes
		if err := json.Unmarshal([]byte(encoded), &attrs); err != nil {
			return nil, fmt.Errorf("decoding attributes for chapter %d: %w", idx, err)
		}
		out[strconv.Itoa(idx)] = attrs
	}
	return out, rows.Err()
}

// WriteLorebinder stores the merged binder, replacing any previous
// build.
func (s *Store) WriteLorebinder(binder model.Lorebinder, builtAt string) error {
	encoded, err := json.Marshal(binder)
	if err != nil {
		return fmt.Errorf("encoding lorebinder: %w", err)
	}
	_, err = s.DB.Exec("INSERT OR REPLACE INTO lorebinder (id, binder, built_at) VALUES (1, ?, ?)",
		string(encoded), builtAt)
	return err
}

// ReadLorebinder loads the merged binder. sql.ErrNoRows means no build
// has run yet.
func (s *Store) ReadLorebinder() (model.Lorebinder, error) {
	var encoded string
	if err := s.DB.QueryRow("SELECT binder FROM lorebinder WHERE id = 1").Scan(&encoded); err != nil {
		return nil, err
	}
	var binder model.Lorebinder
	if err := json.Unmarshal([]byte(encoded), &binder); err != nil {
		return nil, fmt.Errorf("decoding lorebinder: %w", err)
	}
	return binder, nil
}

// HasLorebinder checks whether a build has completed.
func (s *Store) HasLorebinder() bool {
	var n int
	s.DB.QueryRow("SELECT 1 FROM lorebinder WHERE id = 1").Scan(&n)
	return n == 1
}

// SetMeta stores a key/value pair.
func (s *Store) SetMeta(key, value string) error {
	_, err := s.DB.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)", key, value)
	return err
}

// GetMeta retrieves a value, or "" if the key is unset.
func (s *Store) GetMeta(key string) string {
	var value string
	s.DB.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	return value
}

// ChapterCount returns the number of ingested chapters.
func (s *Store) ChapterCount() int {
	var n int
	s.DB.QueryRow("SELECT COUNT(*) FROM chapters").Scan(&n)
	return n
}

// ExtractedCount returns how many chapters have entity blocks.
func (s *Store) ExtractedCount() int {
	var n int
	s.DB.QueryRow("SELECT COUNT(*) FROM ner_blocks").Scan(&n)
	return n
}

// AnalyzedCount returns how many chapters have attribute analyses.
func (s *Store) AnalyzedCount() int {
	var n int
	s.DB.QueryRow("SELECT COUNT(*) FROM chapter_attributes").Scan(&n)
	return n
}
