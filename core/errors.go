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


package core

import (
	"errors"
	"fmt"
)

// Error categories of an ingestion run.
var (
	// ErrFileSystem indicates the corpus root or a subdirectory is inaccessible.
	// It is fatal and aborts the run before any splitting starts.
	ErrFileSystem = errors.New("file system error")

	// ErrIO indicates a single corpus file could not be read.
	// The file contributes no fragments; the run continues.
	ErrIO = errors.New("i/o error")

	// ErrConversion indicates a fragment could not be converted into a record.
	ErrConversion = errors.New("conversion failed")

	// ErrPersistence indicates a table insertion callback failed.
	ErrPersistence = errors.New("persistence failed")
)

// Domain validation errors
var (
	// ErrInvalidFragment indicates a Fragment failed validation.
	ErrInvalidFragment = errors.New("invalid fragment")

	// ErrInvalidRecord indicates a Record failed validation.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrEmptyDocNumber indicates the record has no document number.
	ErrEmptyDocNumber = errors.New("document number cannot be empty")
)

// ConversionError describes why one fragment could not be converted.
// Category is a short machine-friendly label ("xml-syntax", "missing-field", ...).
type ConversionError struct {
	Category string
	Source   string
	Ordinal  int
	Excerpt  string
	Err      error
}

// Excerpt window used in diagnostics. For grant files it lands on the
// document-id area right after the XML declaration and DOCTYPE.
const (
	ExcerptOffset = 175
	ExcerptLength = 25
)

// NewConversionError builds a ConversionError for fragment f.
func NewConversionError(category string, f Fragment, err error) *ConversionError {
	return &ConversionError{
		Category: category,
		Source:   f.Source,
		Ordinal:  f.Ordinal,
		Excerpt:  f.Excerpt(ExcerptOffset, ExcerptLength),
		Err:      err,
	}
}

func (e *ConversionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s (%s #%d)", e.Category, e.Source, e.Ordinal)
	}
	return fmt.Sprintf("%s (%s #%d): %v", e.Category, e.Source, e.Ordinal, e.Err)
}

// Unwrap exposes ErrConversion and the underlying cause.
func (e *ConversionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrConversion}
	}
	return []error{ErrConversion, e.Err}
}
