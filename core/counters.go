package core

import "log/slog"

// Counters holds the cumulative totals of an ingestion run.
// It is a plain value: stages receive the current totals and return the
// updated ones, so there is never more than one owner mutating it.
type Counters struct {
	Files       int64 // Source files discovered
	Fragments   int64 // Fragments cut from all files
	SplitErrors int64 // Files that could not be split
	Built       int64 // Fragments converted into records
	Failed      int64 // Fragments whose conversion failed
	Inserted    int64 // Records inserted into every table
}

// Add returns the element-wise sum of c and other.
func (c Counters) Add(other Counters) Counters {
	return Counters{
		Files:       c.Files + other.Files,
		Fragments:   c.Fragments + other.Fragments,
		SplitErrors: c.SplitErrors + other.SplitErrors,
		Built:       c.Built + other.Built,
		Failed:      c.Failed + other.Failed,
		Inserted:    c.Inserted + other.Inserted,
	}
}

// Pending returns the number of fragments that have been neither built nor failed.
func (c Counters) Pending() int64 {
	return c.Fragments - c.Built - c.Failed
}

// LogValue implements slog.LogValuer for structured logging.
func (c Counters) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("files", c.Files),
		slog.Int64("fragments", c.Fragments),
		slog.Int64("split_errors", c.SplitErrors),
		slog.Int64("built", c.Built),
		slog.Int64("failed", c.Failed),
		slog.Int64("inserted", c.Inserted),
	)
}
