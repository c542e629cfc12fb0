package badger

import (
	"encoding/binary"
	"time"

	"github.com/poiesic/ipgest/core"
)

// Key prefixes for different data types
const (
	tableRowPrefix = "tbl"
	runPrefix      = "run"
	lastRunKey     = "run:last"
)

// makeTablePrefix generates the prefix shared by all rows of a table.
// Format: prefix:table:
func makeTablePrefix(table string) []byte {
	return []byte(tableRowPrefix + ":" + table + ":")
}

// makeRecordRowsPrefix generates the prefix shared by one record's rows in a table.
// Format: prefix:table:recordID
func makeRecordRowsPrefix(table string, id core.ID) []byte {
	prefix := makeTablePrefix(table)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeRowKey generates the key of one row.
// Format: prefix:table:recordID:rowIndex
func makeRowKey(table string, id core.ID, index int) []byte {
	prefix := makeRecordRowsPrefix(table, id)
	buf := make([]byte, len(prefix)+4)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint32(buf[offset:], uint32(index))
	return buf
}

// makeRunKey generates the key of a run summary, ordered by start time.
// Format: prefix:timestamp
func makeRunKey(started time.Time) []byte {
	prefix := runPrefix + ":t"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(started.UnixMicro()))
	return buf
}
