package convert

import "errors"

// CategoryEmpty is the category of conversions that returned no record.
const CategoryEmpty = "empty"

var (
	// ErrNilRecord indicates a converter returned neither a record nor an error.
	ErrNilRecord = errors.New("converter returned no record")
)
