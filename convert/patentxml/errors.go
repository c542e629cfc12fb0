package patentxml

import "errors"

// Conversion failure categories.
const (
	CategoryXMLSyntax    = "xml-syntax"
	CategoryNotAGrant    = "not-a-grant"
	CategoryMissingField = "missing-field"
	CategoryDescription  = "description"
)

var (
	// ErrNotAGrant indicates a well-formed document whose root is not us-patent-grant.
	ErrNotAGrant = errors.New("document is not a patent grant")

	// ErrMissingDocNumber indicates a grant without a publication document number.
	ErrMissingDocNumber = errors.New("publication doc-number missing")
)
