package convert

import (
	"context"
	"errors"
	"fmt"

	"github.com/poiesic/ipgest/core"
)

// Converter builds a record from a fragment.
// Implementations must be thread-safe for concurrent use.
type Converter interface {
	// Convert parses the fragment and returns the record it describes.
	// Returns an error, preferably a *core.ConversionError, if the
	// fragment cannot be converted.
	Convert(ctx context.Context, f core.Fragment) (*core.Record, error)
}

// ConverterFunc adapts a function to the Converter interface.
type ConverterFunc func(ctx context.Context, f core.Fragment) (*core.Record, error)

var _ Converter = ConverterFunc(nil)

// Convert calls fn(ctx, f).
func (fn ConverterFunc) Convert(ctx context.Context, f core.Fragment) (*core.Record, error) {
	return fn(ctx, f)
}

// CategoryPanic is the category of conversions that panicked.
const CategoryPanic = "panic"

// Convert runs c on f and normalizes every failure into a
// *core.ConversionError, including panics and nil records. Errors that are
// not already conversion errors are categorized by their dynamic type.
func Convert(ctx context.Context, c Converter, f core.Fragment) (rec *core.Record, cerr *core.ConversionError) {
	defer func() {
		if r := recover(); r != nil {
			rec = nil
			cerr = core.NewConversionError(CategoryPanic, f, fmt.Errorf("%v", r))
		}
	}()

	rec, err := c.Convert(ctx, f)
	if err != nil {
		return nil, AsConversionError(f, err)
	}
	if rec == nil {
		return nil, core.NewConversionError(CategoryEmpty, f, ErrNilRecord)
	}
	return rec, nil
}

// AsConversionError returns err as a *core.ConversionError for f.
func AsConversionError(f core.Fragment, err error) *core.ConversionError {
	var cerr *core.ConversionError
	if errors.As(err, &cerr) {
		return cerr
	}
	return core.NewConversionError(fmt.Sprintf("%T", err), f, err)
}
