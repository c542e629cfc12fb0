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


// Package storage provides the persistence abstraction for ipgest.
//
// The ingestion pipeline never talks to a database directly. It receives a
// set of named insertion callbacks, one per table, and those callbacks are
// bound to a RowInserter implemented here. Two backends are provided:
//
//   - storage/badger: embedded BadgerDB key-value store
//   - storage/sqlite: SQLite database with one SQL table per table name
//
// # Architecture
//
//   - RowInserter: writes the rows a record contributes to one table
//   - TableWriter: RowInserter plus lifecycle and read-back
//   - RunRepository: persists the summary of each ingestion run
//   - Store: TableWriter and RunRepository over the same backend
//
// # Idempotence
//
// Inserting the same record into the same table twice replaces the rows of
// the first insertion; it never duplicates them. Re-running an ingestion over
// an unchanged corpus leaves every table unchanged.
//
// # Usage
//
//	store, err := badger.OpenStore("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
// Use in tests with in-memory storage:
//
//	store, err := badger.NewMemoryStore()
//
// # Thread Safety
//
// All implementations must be safe for concurrent use.
package storage
