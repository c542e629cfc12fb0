package core

import (
	"encoding/binary"
	"maps"
	"slices"
	"time"
	"unicode/utf8"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for converted records.
// It is derived from the record's document number so that re-ingesting
// the same document produces the same ID.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// SourceFile is a corpus file discovered under the corpus root.
type SourceFile struct {
	Path string // Path formed from root, subdirectory and file name
	Size int64  // Size in bytes at discovery time
}

// Fragment is one document cut out of a concatenated corpus file.
// Text includes both the start and the end marker.
type Fragment struct {
	Source  string // Path of the originating file
	Ordinal int    // Position within Source, starting at 0
	Text    string
}

// Excerpt returns up to n bytes of the fragment starting at offset from.
// Fragments shorter than from yield their first n bytes instead, so the
// excerpt is never empty for a non-empty fragment. Both ends are moved to
// rune boundaries, so the excerpt never holds a partial UTF-8 sequence.
func (f Fragment) Excerpt(from, n int) string {
	if from < 0 || from >= len(f.Text) {
		from = 0
	}
	for from < len(f.Text) && !utf8.RuneStart(f.Text[from]) {
		from++
	}
	to := min(from+n, len(f.Text))
	for to > from && to < len(f.Text) && !utf8.RuneStart(f.Text[to]) {
		to--
	}
	return f.Text[from:to]
}

// Row is a single row destined for one table, keyed by column name.
type Row map[string]string

// Columns returns the row's column names in sorted order.
func (r Row) Columns() []string {
	return slices.Sorted(maps.Keys(r))
}

// Record is the structured form of one fragment, as produced by a converter.
// Tables maps a table name to the rows the record contributes to it.
type Record struct {
	ID        ID
	DocNumber string
	Source    string // Originating file, copied from the fragment
	Ordinal   int    // Fragment ordinal within Source
	Tables    map[string][]Row
}

// Rows returns the rows the record contributes to table.
func (r *Record) Rows(table string) []Row {
	if r.Tables == nil {
		return nil
	}
	return r.Tables[table]
}

// AddRow appends a row for table.
func (r *Record) AddRow(table string, row Row) {
	if r.Tables == nil {
		r.Tables = make(map[string][]Row)
	}
	r.Tables[table] = append(r.Tables[table], row)
}

// RunSummary is the persisted outcome of one ingestion run.
type RunSummary struct {
	ID       string
	Started  time.Time
	Finished time.Time
	Counters Counters
}

// Elapsed returns the wall time of the run.
func (s *RunSummary) Elapsed() time.Duration {
	if s.Finished.IsZero() {
		return 0
	}
	return s.Finished.Sub(s.Started)
}
