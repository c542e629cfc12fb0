// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/ipgest/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(id)))
	varint.Uint64.Marshal(uint64(id), buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return core.ID(id), nil
}

// MarshalRow serializes a Row to bytes.
// Columns are written in sorted order so equal rows encode identically.
func MarshalRow(row core.Row) []byte {
	cols := row.Columns()

	size := varint.Uint64.Size(uint64(len(cols)))
	for _, col := range cols {
		size += ord.String.Size(col) + ord.String.Size(row[col])
	}

	buf := make([]byte, size)
	n := varint.Uint64.Marshal(uint64(len(cols)), buf)
	for _, col := range cols {
		n += ord.String.Marshal(col, buf[n:])
		n += ord.String.Marshal(row[col], buf[n:])
	}
	return buf
}

// UnmarshalRow deserializes a Row from bytes.
func UnmarshalRow(data []byte) (core.Row, error) {
	count, n, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}

	// Every column takes at least two bytes (two empty strings)
	if count > uint64(len(data)-n)/2 {
		return nil, ErrTruncatedData
	}

	row := make(core.Row, count)
	for range count {
		col, m, err := ord.String.Unmarshal(data[n:])
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
		}
		n += m

		val, m, err := ord.String.Unmarshal(data[n:])
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
		}
		n += m

		row[col] = val
	}
	return row, nil
}

// counterFields lists the counters in their wire order.
func counterFields(c *core.Counters) []*int64 {
	return []*int64{&c.Files, &c.Fragments, &c.SplitErrors, &c.Built, &c.Failed, &c.Inserted}
}

// MarshalRunSummary serializes a RunSummary to bytes.
// Timestamps are stored as Unix microseconds.
func MarshalRunSummary(summary *core.RunSummary) []byte {
	counters := summary.Counters
	fields := counterFields(&counters)
	started := summary.Started.UnixMicro()
	finished := summary.Finished.UnixMicro()

	size := ord.String.Size(summary.ID) + varint.Int64.Size(started) + varint.Int64.Size(finished)
	for _, f := range fields {
		size += varint.Int64.Size(*f)
	}

	buf := make([]byte, size)
	n := ord.String.Marshal(summary.ID, buf)
	n += varint.Int64.Marshal(started, buf[n:])
	n += varint.Int64.Marshal(finished, buf[n:])
	for _, f := range fields {
		n += varint.Int64.Marshal(*f, buf[n:])
	}
	return buf
}

// UnmarshalRunSummary deserializes a RunSummary from bytes.
func UnmarshalRunSummary(data []byte) (*core.RunSummary, error) {
	var summary core.RunSummary

	id, n, err := ord.String.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	summary.ID = id

	var stamps [2]int64
	for i := range stamps {
		v, m, err := varint.Int64.Unmarshal(data[n:])
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
		}
		stamps[i] = v
		n += m
	}
	summary.Started = time.UnixMicro(stamps[0]).UTC()
	summary.Finished = time.UnixMicro(stamps[1]).UTC()

	for _, f := range counterFields(&summary.Counters) {
		v, m, err := varint.Int64.Unmarshal(data[n:])
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
		}
		*f = v
		n += m
	}

	return &summary, nil
}
