package badger

import (
	"bytes"
	"testing"
	"time"

	"github.com/poiesic/ipgest/core"
	"github.com/stretchr/testify/assert"
)

func TestMakeRowKey_Ordering(t *testing.T) {
	// Keys must sort by record ID, then row index
	keys := [][]byte{
		makeRowKey("patent", 1, 0),
		makeRowKey("patent", 1, 1),
		makeRowKey("patent", 1, 256),
		makeRowKey("patent", 2, 0),
		makeRowKey("patent", core.ID(1)<<40, 0),
	}
	for i := 1; i < len(keys); i++ {
		assert.Negative(t, bytes.Compare(keys[i-1], keys[i]), "key %d should sort before key %d", i-1, i)
	}
}

func TestMakeRowKey_Prefixes(t *testing.T) {
	key := makeRowKey("inventor", 42, 3)
	assert.True(t, bytes.HasPrefix(key, makeRecordRowsPrefix("inventor", 42)))
	assert.True(t, bytes.HasPrefix(key, makeTablePrefix("inventor")))
	assert.False(t, bytes.HasPrefix(key, makeTablePrefix("inv")))
	assert.False(t, bytes.HasPrefix(key, makeRecordRowsPrefix("inventor", 43)))
}

func TestMakeRunKey_Ordering(t *testing.T) {
	earlier := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	later := earlier.Add(time.Microsecond)
	assert.Negative(t, bytes.Compare(makeRunKey(earlier), makeRunKey(later)))
	assert.NotEqual(t, lastRunKey, string(makeRunKey(earlier)))
}
