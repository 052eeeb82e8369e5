// Package store provides the optional durable session store: a SQLite
// database holding the asserted fact set so a session can warm-start from a
// previous run.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"sys2/internal/logging"
	"sys2/internal/types"
)

// Local is a SQLite-backed fact store. One store serves one session; the
// database handle is restricted to a single connection so WAL writes stay
// ordered.
type Local struct {
	db   *sql.DB
	path string
}

// Open initializes the database at path, creating directories and schema as
// needed.
func Open(path string) (*Local, error) {
	log := logging.Get(logging.CategoryStore)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, types.Wrap(types.KindIO, err, "create store directory %s", dir)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, types.Wrap(types.KindIO, err, "open store %s", path)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		log.Debug("set busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		log.Debug("set journal_mode=WAL: %v", err)
	}
	s := &Local{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	log.Info("store opened at %s", path)
	return s, nil
}

func (s *Local) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS facts (
		subject  TEXT NOT NULL,
		relation TEXT NOT NULL,
		object   TEXT NOT NULL,
		polarity INTEGER NOT NULL,
		PRIMARY KEY (subject, relation, object, polarity)
	);
	CREATE INDEX IF NOT EXISTS idx_facts_subject ON facts(subject);
	CREATE INDEX IF NOT EXISTS idx_facts_relation ON facts(relation);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return types.Wrap(types.KindIO, err, "migrate store schema")
	}
	return nil
}

// ReplaceFacts overwrites the persisted fact set with the given asserted
// facts, atomically.
func (s *Local) ReplaceFacts(facts []types.Fact) error {
	tx, err := s.db.Begin()
	if err != nil {
		return types.Wrap(types.KindIO, err, "begin store transaction")
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM facts"); err != nil {
		return types.Wrap(types.KindIO, err, "clear persisted facts")
	}
	stmt, err := tx.Prepare("INSERT INTO facts(subject, relation, object, polarity) VALUES(?, ?, ?, ?)")
	if err != nil {
		return types.Wrap(types.KindIO, err, "prepare fact insert")
	}
	defer stmt.Close()
	for _, f := range facts {
		if _, err := stmt.Exec(f.Subject, f.Relation, f.Object, int(f.Polarity)); err != nil {
			return types.Wrap(types.KindIO, err, "persist fact %s", f)
		}
	}
	if err := tx.Commit(); err != nil {
		return types.Wrap(types.KindIO, err, "commit persisted facts")
	}
	return nil
}

// LoadFacts returns every persisted fact in primary-key order.
func (s *Local) LoadFacts() ([]types.Fact, error) {
	rows, err := s.db.Query(
		"SELECT subject, relation, object, polarity FROM facts ORDER BY subject, relation, object, polarity")
	if err != nil {
		return nil, types.Wrap(types.KindIO, err, "load persisted facts")
	}
	defer rows.Close()

	var out []types.Fact
	for rows.Next() {
		var f types.Fact
		var polarity int
		if err := rows.Scan(&f.Subject, &f.Relation, &f.Object, &polarity); err != nil {
			return nil, types.Wrap(types.KindIO, err, "scan persisted fact")
		}
		f.Polarity = types.Polarity(polarity)
		f.Source = types.SourceAsserted
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, types.Wrap(types.KindIO, err, "iterate persisted facts")
	}
	return out, nil
}

// Count returns the number of persisted facts.
func (s *Local) Count() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM facts").Scan(&n); err != nil {
		return 0, types.Wrap(types.KindIO, err, "count persisted facts")
	}
	return n, nil
}

// Close releases the database handle.
func (s *Local) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}
