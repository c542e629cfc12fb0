// Package ingestion runs the extraction pipeline over a corpus.
//
// A run moves through four stages:
//   - Locate: list the corpus files to process
//   - Dispatch: split every file into fragments on a bounded worker pool
//   - Build: convert each fragment into a record, isolating failures
//   - Insert: hand each record to every configured table
//
// A fragment that fails conversion is logged and counted, never fatal.
// Counters accumulate over the whole run and are reported at checkpoints
// after each stage and after every build pass.
package ingestion
