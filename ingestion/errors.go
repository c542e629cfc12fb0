package ingestion

import "errors"

var (
	// ErrLocatorRequired is returned when a file lister is not provided.
	ErrLocatorRequired = errors.New("locator required")

	// ErrSplitterRequired is returned when a file splitter is not provided.
	ErrSplitterRequired = errors.New("splitter required")

	// ErrConverterRequired is returned when a converter is not provided.
	ErrConverterRequired = errors.New("converter required")

	// ErrTablesRequired is returned when no tables are configured.
	ErrTablesRequired = errors.New("at least one table required")

	// ErrInvalidTable is returned for a table without a name or insert callback.
	ErrInvalidTable = errors.New("invalid table")

	// ErrDuplicateTable is returned when two tables share a name.
	ErrDuplicateTable = errors.New("duplicate table")

	// ErrInvalidBatchSize is returned for a batch size below one.
	ErrInvalidBatchSize = errors.New("batch size must be positive")
)
