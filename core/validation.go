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
	"fmt"
	"strings"
)

// ValidateFragment checks that a fragment is bounded by the given markers.
//
// Validation rules:
//   - Text must start with start (case-insensitive)
//   - Text must end with end (case-insensitive)
//   - Ordinal must not be negative
func ValidateFragment(f Fragment, start, end string) error {
	if f.Ordinal < 0 {
		return fmt.Errorf("%w: negative ordinal %d", ErrInvalidFragment, f.Ordinal)
	}
	if len(f.Text) < len(start)+len(end) {
		return fmt.Errorf("%w: %d bytes is shorter than its markers", ErrInvalidFragment, len(f.Text))
	}
	if !strings.EqualFold(f.Text[:len(start)], start) {
		return fmt.Errorf("%w: missing start marker %q", ErrInvalidFragment, start)
	}
	if !strings.EqualFold(f.Text[len(f.Text)-len(end):], end) {
		return fmt.Errorf("%w: missing end marker %q", ErrInvalidFragment, end)
	}
	return nil
}

// ValidateRecord validates a Record produced by a converter.
//
// Validation rules:
//   - DocNumber must not be empty
//
// NOT validated (owned by the converter):
//   - Table contents and column names
//   - ID (0 is replaced by IDFromContent(DocNumber))
func ValidateRecord(record *Record) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}

	if strings.TrimSpace(record.DocNumber) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyDocNumber)
	}

	return nil
}
