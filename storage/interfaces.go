package storage

import (
	"context"

	"github.com/poiesic/ipgest/core"
)

// RowInserter writes the rows a record contributes to a table.
// Implementations must be thread-safe and support concurrent access.
type RowInserter interface {
	// InsertRows stores rec.Rows(table) under table, keyed by rec.ID.
	// Rows from an earlier insertion of the same record are replaced.
	// A record without rows for table removes any earlier rows.
	InsertRows(ctx context.Context, table string, rec *core.Record) error
}

// TableWriter provides row insertion and read-back for named tables.
type TableWriter interface {
	RowInserter

	// Rows returns all rows stored in table, ordered by record ID and row index.
	Rows(ctx context.Context, table string) ([]core.Row, error)

	// CountRows returns the number of rows stored in table.
	CountRows(ctx context.Context, table string) (int, error)

	// Close releases resources held by the writer.
	Close() error
}

// RunRepository persists run summaries.
type RunRepository interface {
	// SaveRun stores the summary and makes it the latest run.
	SaveRun(ctx context.Context, summary *core.RunSummary) error

	// LastRun returns the most recently saved summary.
	// Returns nil, nil if no run has been saved.
	LastRun(ctx context.Context) (*core.RunSummary, error)
}

// Store combines table and run persistence over one backend.
type Store interface {
	TableWriter
	RunRepository
}
