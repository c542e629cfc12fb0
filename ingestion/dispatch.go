package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/ipgest/core"
)

// FileError records a file that could not be split.
type FileError struct {
	File core.SourceFile
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.File.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// DispatchResult is the flattened output of splitting a set of files.
type DispatchResult struct {
	// Fragments holds every fragment found. Fragments of one file are
	// contiguous and in file order; files appear in completion order.
	Fragments []core.Fragment

	// Failed lists the files whose split failed.
	Failed []*FileError
}

// fileResult is what one worker reports back for one file.
type fileResult struct {
	file      core.SourceFile
	fragments []core.Fragment
	err       error
}

// Dispatcher splits files on a bounded worker pool.
type Dispatcher struct {
	splitter FileSplitter
	pool     *ants.Pool
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher with size workers.
// A size below one means runtime.NumCPU().
func NewDispatcher(splitter FileSplitter, size int, logger *slog.Logger) (*Dispatcher, error) {
	if splitter == nil {
		return nil, ErrSplitterRequired
	}
	if size < 1 {
		size = runtime.NumCPU()
	}
	if logger == nil {
		logger = slog.Default()
	}

	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, err
	}

	return &Dispatcher{
		splitter: splitter,
		pool:     pool,
		logger:   logger,
	}, nil
}

// Dispatch splits every file, one task per file, and waits for all of
// them. A failing file is logged and reported in the result; it never
// stops the other files.
func (d *Dispatcher) Dispatch(ctx context.Context, files []core.SourceFile) DispatchResult {
	results := make(chan fileResult, len(files))
	var wg sync.WaitGroup

	for _, file := range files {
		wg.Add(1)
		err := d.pool.Submit(func() {
			defer wg.Done()
			results <- d.splitFile(ctx, file)
		})
		if err != nil {
			wg.Done()
			results <- fileResult{file: file, err: fmt.Errorf("%w: submit: %w", core.ErrIO, err)}
		}
	}

	// Results are buffered, so workers never block on the channel
	wg.Wait()
	close(results)

	var out DispatchResult
	for res := range results {
		if res.err != nil {
			// A failed file contributes no fragments
			d.logger.Error("failed to split file", "file", res.file.Path, "err", res.err)
			out.Failed = append(out.Failed, &FileError{File: res.file, Err: res.err})
			continue
		}
		out.Fragments = append(out.Fragments, res.fragments...)
	}
	return out
}

// splitFile runs the splitter on one file, turning a panic into an I/O failure.
func (d *Dispatcher) splitFile(ctx context.Context, file core.SourceFile) (res fileResult) {
	res.file = file
	defer func() {
		if r := recover(); r != nil {
			res.fragments = nil
			res.err = fmt.Errorf("%w: split panicked: %v", core.ErrIO, r)
		}
	}()

	if err := ctx.Err(); err != nil {
		res.err = err
		return res
	}
	res.fragments, res.err = d.splitter.Split(ctx, file)
	d.logger.Debug("split file", "file", file.Path, "fragments", len(res.fragments))
	return res
}

// Release releases the worker pool.
// The dispatcher should not be used after calling Release.
func (d *Dispatcher) Release() {
	if d.pool != nil {
		d.pool.Release()
	}
}
