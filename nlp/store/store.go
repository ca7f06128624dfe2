// Package store persists dataset records in a SQL database through squealx.
package store

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/oarkflow/squealx"
	_ "modernc.org/sqlite"

	"github.com/oarkflow/segtag/nlp/dataset"
)

var ErrNotFound = errors.New("record not found")

var schema = []string{
	`CREATE TABLE IF NOT EXISTS segmentations (
	original   TEXT PRIMARY KEY,
	word       TEXT NOT NULL,
	batch_id   TEXT NOT NULL,
	complexity INTEGER NOT NULL,
	record     TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
	`CREATE INDEX IF NOT EXISTS segmentations_word ON segmentations (word)`,
}

type Store struct {
	db *squealx.DB
}

type row struct {
	Original   string `db:"original"`
	Word       string `db:"word"`
	BatchID    string `db:"batch_id"`
	Complexity int    `db:"complexity"`
	Record     string `db:"record"`
}

// Open connects and pings. The sqlite driver is registered by this package.
func Open(driver, dsn string) (*Store, error) {
	db, err := squealx.Open(driver, dsn, "segtag")
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Migrate() error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

// NewBatchID identifies one ingestion run.
func NewBatchID() string { return uuid.NewString() }

// Save validates rec and upserts it by rec.Key(), the word it was produced from.
func (s *Store) Save(rec dataset.Record, batchID string) error {
	if err := dataset.Validate(rec); err != nil {
		return err
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	query := `INSERT INTO segmentations (original, word, batch_id, complexity, record)
		VALUES (:original, :word, :batch_id, :complexity, :record)
		ON CONFLICT(original) DO UPDATE SET
			word = excluded.word,
			batch_id = excluded.batch_id,
			complexity = excluded.complexity,
			record = excluded.record`
	_, err = s.db.Exec(query, map[string]any{
		"original":   rec.Key(),
		"word":       rec.Word,
		"batch_id":   batchID,
		"complexity": rec.Complexity,
		"record":     string(payload),
	})
	if err != nil {
		return fmt.Errorf("save %q: %w", rec.Word, err)
	}
	return nil
}

// Get looks a record up by the word it was produced from, then by its
// repaired word.
func (s *Store) Get(word string) (dataset.Record, error) {
	var rows []row
	for _, col := range []string{"original", "word"} {
		err := s.db.Select(&rows, "SELECT original, word, batch_id, complexity, record FROM segmentations WHERE "+col+" = :word ORDER BY original LIMIT 1",
			map[string]any{"word": word})
		if err != nil {
			return dataset.Record{}, fmt.Errorf("get %q: %w", word, err)
		}
		if len(rows) > 0 {
			break
		}
	}
	if len(rows) == 0 {
		return dataset.Record{}, fmt.Errorf("%w: %q", ErrNotFound, word)
	}
	return rows[0].decode()
}

// List returns up to limit records ordered by original word. limit <= 0 means 100.
func (s *Store) List(limit int) ([]dataset.Record, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []row
	err := s.db.Select(&rows, "SELECT original, word, batch_id, complexity, record FROM segmentations ORDER BY original LIMIT :limit",
		map[string]any{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	out := make([]dataset.Record, 0, len(rows))
	for _, r := range rows {
		rec, err := r.decode()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// CountBatch reports how many records the given batch last wrote.
func (s *Store) CountBatch(batchID string) (int, error) {
	var counts []struct {
		N int `db:"n"`
	}
	err := s.db.Select(&counts, "SELECT COUNT(*) AS n FROM segmentations WHERE batch_id = :batch_id",
		map[string]any{"batch_id": batchID})
	if err != nil {
		return 0, fmt.Errorf("count batch: %w", err)
	}
	if len(counts) == 0 {
		return 0, nil
	}
	return counts[0].N, nil
}

func (r row) decode() (dataset.Record, error) {
	var rec dataset.Record
	if err := json.Unmarshal([]byte(r.Record), &rec); err != nil {
		return dataset.Record{}, fmt.Errorf("decode %q: %w", r.Word, err)
	}
	return rec, nil
}
