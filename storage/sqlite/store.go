// Package sqlite stores table rows and run summaries in a SQLite database
// through database/sql and the pure-Go modernc.org/sqlite driver.
//
// Each ingestion table becomes one SQL table, created the first time a
// record is inserted into it. Rows keep their columns in a mus-encoded
// blob so tables need no schema beyond the record key.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/poiesic/ipgest/core"
	"github.com/poiesic/ipgest/storage"

	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Store implements storage.Store on SQLite.
type Store struct {
	db     *sql.DB
	path   string
	mu     sync.Mutex
	tables map[string]bool
	closed bool
}

var _ storage.Store = (*Store)(nil)

// Open creates or opens a SQLite database at path.
func Open(path string) (*Store, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection serializes writers and keeps :memory: databases alive
	db.SetMaxOpenConns(1)

	store := &Store{
		db:     db,
		path:   path,
		tables: make(map[string]bool),
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// NewMemoryStore opens an in-memory store for testing.
func NewMemoryStore() (*Store, error) {
	return Open(MemoryPath)
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection. Closing twice is a no-op.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS ipgest_runs (
		id TEXT PRIMARY KEY,
		started INTEGER NOT NULL,
		data BLOB NOT NULL
	);`
	_, err := s.db.Exec(schema)
	return err
}

// ensureTable creates table on first use.
func (s *Store) ensureTable(ctx context.Context, table string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrStorageClosed
	}
	if s.tables[table] {
		return nil
	}
	// Table names are validated identifiers, so quoting is enough
	ddl := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS "%s" (
		record_id TEXT NOT NULL,
		doc_number TEXT NOT NULL,
		row_index INTEGER NOT NULL,
		source TEXT,
		data BLOB NOT NULL,
		PRIMARY KEY (record_id, row_index)
	);`, table)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return err
	}
	s.tables[table] = true
	return nil
}

func (s *Store) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// recordKey renders an ID so that text order matches numeric order.
func recordKey(id core.ID) string {
	return fmt.Sprintf("%016x", uint64(id))
}

// InsertRows replaces the rows rec holds for table in one transaction.
func (s *Store) InsertRows(ctx context.Context, table string, rec *core.Record) error {
	if err := storage.ValidateTableName(table); err != nil {
		return fmt.Errorf("%w: %q", err, table)
	}
	if err := s.ensureTable(ctx, table); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	key := recordKey(rec.ID)
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM "%s" WHERE record_id = ?`, table), key); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT OR REPLACE INTO "%s" (record_id, doc_number, row_index, source, data) VALUES (?, ?, ?, ?, ?)`, table))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, row := range rec.Rows(table) {
		if _, err := stmt.ExecContext(ctx, key, rec.DocNumber, i, rec.Source, storage.MarshalRow(row)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Rows returns every row of table ordered by record ID and row index.
func (s *Store) Rows(ctx context.Context, table string) ([]core.Row, error) {
	if err := storage.ValidateTableName(table); err != nil {
		return nil, fmt.Errorf("%w: %q", err, table)
	}
	if err := s.ensureTable(ctx, table); err != nil {
		return nil, err
	}

	rs, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT data FROM "%s" ORDER BY record_id, row_index`, table))
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	var rows []core.Row
	for rs.Next() {
		var data []byte
		if err := rs.Scan(&data); err != nil {
			return nil, err
		}
		row, err := storage.UnmarshalRow(data)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, rs.Err()
}

// CountRows returns the number of rows in table.
func (s *Store) CountRows(ctx context.Context, table string) (int, error) {
	if err := storage.ValidateTableName(table); err != nil {
		return 0, fmt.Errorf("%w: %q", err, table)
	}
	if err := s.ensureTable(ctx, table); err != nil {
		return 0, err
	}
	var count int
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM "%s"`, table)).Scan(&count)
	return count, err
}

// SaveRun stores a run summary; the most recently saved one is the last run.
func (s *Store) SaveRun(ctx context.Context, summary *core.RunSummary) error {
	if s.isClosed() {
		return storage.ErrStorageClosed
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO ipgest_runs (id, started, data) VALUES (?, ?, ?)`,
		summary.ID, summary.Started.UnixMicro(), storage.MarshalRunSummary(summary))
	return err
}

// LastRun returns the most recently saved run summary.
// Returns nil, nil if no run has been saved.
func (s *Store) LastRun(ctx context.Context) (*core.RunSummary, error) {
	if s.isClosed() {
		return nil, storage.ErrStorageClosed
	}
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM ipgest_runs ORDER BY rowid DESC LIMIT 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return storage.UnmarshalRunSummary(data)
}
