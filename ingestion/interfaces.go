package ingestion

import (
	"context"

	"github.com/poiesic/ipgest/core"
)

// FileLister discovers the files of a corpus.
type FileLister interface {
	// List returns the files to process, or an error if the corpus
	// cannot be enumerated.
	List(ctx context.Context) ([]core.SourceFile, error)
}

// FileSplitter cuts one file into fragments.
// Implementations must be thread-safe for concurrent use.
type FileSplitter interface {
	// Split returns the fragments of file in file order.
	Split(ctx context.Context, file core.SourceFile) ([]core.Fragment, error)
}
