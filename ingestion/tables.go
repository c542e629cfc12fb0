package ingestion

import (
	"context"
	"fmt"

	"github.com/poiesic/ipgest/core"
	"github.com/poiesic/ipgest/storage"
)

// DefaultTableNames lists the tables every grant record is inserted into.
var DefaultTableNames = []string{
	"assignee",
	"citation",
	"class",
	"inventor",
	"patent",
	"patdesc",
	"lawyer",
	"sciref",
	"usreldoc",
}

// InsertFunc stores a record's contribution to one table.
type InsertFunc func(ctx context.Context, rec *core.Record) error

// Table is a named insert callback.
type Table struct {
	Name   string
	Insert InsertFunc
}

// Tables is an ordered set of tables.
type Tables []Table

// TablesFor binds each named table to w.
func TablesFor(names []string, w storage.RowInserter) Tables {
	tables := make(Tables, 0, len(names))
	for _, name := range names {
		tables = append(tables, Table{
			Name: name,
			Insert: func(ctx context.Context, rec *core.Record) error {
				return w.InsertRows(ctx, name, rec)
			},
		})
	}
	return tables
}

// Validate checks that tables is non-empty with unique names and callbacks.
func (t Tables) Validate() error {
	if len(t) == 0 {
		return ErrTablesRequired
	}
	seen := make(map[string]bool, len(t))
	for i, table := range t {
		if table.Name == "" || table.Insert == nil {
			return fmt.Errorf("%w: entry %d", ErrInvalidTable, i)
		}
		if seen[table.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateTable, table.Name)
		}
		seen[table.Name] = true
	}
	return nil
}

// Names returns the table names in order.
func (t Tables) Names() []string {
	names := make([]string, len(t))
	for i, table := range t {
		names[i] = table.Name
	}
	return names
}

// Insert calls every table's callback in order. The first failure stops
// the insert and is returned wrapped in core.ErrPersistence.
func (t Tables) Insert(ctx context.Context, rec *core.Record) error {
	for _, table := range t {
		if err := table.Insert(ctx, rec); err != nil {
			return fmt.Errorf("%w: table %s: %w", core.ErrPersistence, table.Name, err)
		}
	}
	return nil
}
