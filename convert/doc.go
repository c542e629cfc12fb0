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


// Package convert defines how fragments become records.
//
// A Converter turns one fragment into a core.Record whose rows are grouped
// by table name. Converters may run concurrently and must not retain the
// fragment after returning.
//
// # Implementation Packages
//
//   - convert/patentxml: USPTO grant documents (us-patent-grant v4.x)
//   - convert/mock: test doubles with call counting and failure injection
//
// # Failures
//
// Converters report failures as *core.ConversionError so the builder can log
// a category and an excerpt for triage. Convert wraps any other error,
// and any panic, into one:
//
//	rec, cerr := convert.Convert(ctx, c, fragment)
//	if cerr != nil {
//	    logger.Error("conversion failed", "category", cerr.Category)
//	}
package convert
