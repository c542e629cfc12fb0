// Package mock provides a test double for convert.Converter.
//
// # Usage in Tests
//
//	// Default behavior: one "patent" row per fragment
//	conv := mock.NewMockConverter()
//
//	// Fail every fragment containing a marker string
//	conv := mock.NewMockConverter().FailOn("BROKEN")
//
//	// Custom behavior injection
//	conv := mock.NewMockConverter().
//	    WithConvertFunc(func(ctx context.Context, f core.Fragment) (*core.Record, error) {
//	        return nil, errors.New("boom")
//	    })
//
//	// Check call counts
//	count := conv.CallCount()
//
// # Default Behavior
//
// The default conversion takes the document number from the first
// <doc-number> element of the fragment, falling back to source and ordinal,
// and contributes one row to the "patent" table.
package mock
