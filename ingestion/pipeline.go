package ingestion

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/ipgest/convert"
	"github.com/poiesic/ipgest/core"
)

// Pipeline orchestrates one extraction run over a corpus.
type Pipeline struct {
	locator    FileLister
	converter  convert.Converter
	tables     Tables
	dispatcher *Dispatcher
	poolSize   int
	batchSize  int
	logger     *slog.Logger
	clock      func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the number of files split concurrently.
// Default is runtime.NumCPU(), with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		p.poolSize = size
		return nil
	}
}

// WithBatchSize sets the number of fragments converted per build pass.
// Default is DefaultBatchSize.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return ErrInvalidBatchSize
		}
		p.batchSize = size
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithClock sets the time source used for run timestamps and elapsed time.
func WithClock(clock func() time.Time) Option {
	return func(p *Pipeline) error {
		if clock != nil {
			p.clock = clock
		}
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	locator FileLister,
	splitter FileSplitter,
	converter convert.Converter,
	tables Tables,
	opts ...Option,
) (*Pipeline, error) {
	if locator == nil {
		return nil, ErrLocatorRequired
	}
	if splitter == nil {
		return nil, ErrSplitterRequired
	}
	if converter == nil {
		return nil, ErrConverterRequired
	}
	if err := tables.Validate(); err != nil {
		return nil, err
	}

	// Create pipeline with defaults
	p := &Pipeline{
		locator:   locator,
		converter: converter,
		tables:    tables,
		poolSize:  max(runtime.NumCPU(), 1),
		batchSize: DefaultBatchSize,
		logger:    slog.Default(),
		clock:     time.Now,
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	dispatcher, err := NewDispatcher(splitter, p.poolSize, p.logger)
	if err != nil {
		return nil, err
	}
	p.dispatcher = dispatcher

	return p, nil
}

// Run locates, splits, builds and inserts the corpus once.
//
// A discovery failure is returned without a summary. Once discovery
// succeeds a summary is always returned, including when a persistence
// failure stopped the run early.
func (p *Pipeline) Run(ctx context.Context) (*core.RunSummary, error) {
	summary := &core.RunSummary{
		ID:      uuid.NewString(),
		Started: p.clock().UTC(),
	}
	logger := p.logger.With("run", summary.ID)
	reporter := NewReporter(logger, p.clock)

	// Locate
	files, err := p.locator.List(ctx)
	if err != nil {
		logger.Error("failed to list corpus files", "err", err)
		return nil, err
	}
	var counters core.Counters
	var bytes int64
	for _, f := range files {
		bytes += f.Size
	}
	counters.Files = int64(len(files))
	reporter.Start(summary.Started, bytes)
	reporter.Checkpoint(StageDiscovered, counters)

	// Dispatch
	result := p.dispatcher.Dispatch(ctx, files)
	counters.Fragments = int64(len(result.Fragments))
	counters.SplitErrors = int64(len(result.Failed))
	reporter.Checkpoint(StageSplit, counters)

	// Build and insert
	builder, err := NewBuilder(p.converter,
		WithBuildBatchSize(p.batchSize),
		WithBuildLogger(logger),
		WithPassCheckpoint(func(c core.Counters) {
			reporter.Checkpoint(StageBuilt, c)
		}),
	)
	if err != nil {
		return nil, err
	}
	counters, err = builder.Build(ctx, result.Fragments, counters, p.tables.Insert)

	summary.Finished = p.clock().UTC()
	summary.Counters = counters
	reporter.Checkpoint(StageFinished, counters)
	if err != nil {
		logger.Error("run stopped", "err", err, "pending", counters.Pending())
		return summary, err
	}
	return summary, nil
}

// Tables returns the configured tables.
func (p *Pipeline) Tables() Tables {
	return p.tables
}

// Release releases resources including the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.dispatcher != nil {
		p.dispatcher.Release()
	}
}
