package badger

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/ipgest/core"
	"github.com/poiesic/ipgest/storage"
)

// TableWriter implements storage.TableWriter for BadgerDB.
type TableWriter struct {
	backend *Backend
}

var _ storage.TableWriter = (*TableWriter)(nil)

// NewTableWriter creates a new TableWriter.
func NewTableWriter(backend *Backend) *TableWriter {
	return &TableWriter{
		backend: backend,
	}
}

// Close is a no-op; the backend owns the database handle.
func (w *TableWriter) Close() error {
	return nil
}

// InsertRows replaces the rows rec holds for table.
func (w *TableWriter) InsertRows(ctx context.Context, table string, rec *core.Record) error {
	if err := storage.ValidateTableName(table); err != nil {
		return fmt.Errorf("%w: %q", err, table)
	}
	if w.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return w.backend.WithTx(func(tx *badger.Txn) error {
		// Drop rows left by an earlier insertion of this record
		for _, key := range keysWithPrefix(tx, makeRecordRowsPrefix(table, rec.ID)) {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		for i, row := range rec.Rows(table) {
			if err := tx.Set(makeRowKey(table, rec.ID, i), storage.MarshalRow(row)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Rows returns every row of table in key order.
func (w *TableWriter) Rows(ctx context.Context, table string) ([]core.Row, error) {
	if err := storage.ValidateTableName(table); err != nil {
		return nil, fmt.Errorf("%w: %q", err, table)
	}
	if w.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	var rows []core.Row
	err := w.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeTablePrefix(table)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := iter.Item().Value(func(val []byte) error {
				row, err := storage.UnmarshalRow(val)
				if err != nil {
					return err
				}
				rows = append(rows, row)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CountRows counts the rows of table without reading their values.
func (w *TableWriter) CountRows(ctx context.Context, table string) (int, error) {
	if err := storage.ValidateTableName(table); err != nil {
		return 0, fmt.Errorf("%w: %q", err, table)
	}
	if w.backend.IsClosed() {
		return 0, storage.ErrStorageClosed
	}
	count := 0
	err := w.backend.WithTx(func(tx *badger.Txn) error {
		count = len(keysWithPrefix(tx, makeTablePrefix(table)))
		return nil
	}, false)
	return count, err
}
