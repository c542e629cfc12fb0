package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/ipgest/convert"
	"github.com/poiesic/ipgest/core"
)

// DefaultBatchSize is the number of fragments converted per build pass.
const DefaultBatchSize = 1000

// CategoryInvalidRecord is the category of records that fail validation.
const CategoryInvalidRecord = "invalid-record"

// Outcome is the result of converting one fragment: a record or a failure.
type Outcome struct {
	Fragment core.Fragment
	Record   *core.Record
	Err      *core.ConversionError
}

// OK reports whether the conversion succeeded.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// EmitFunc receives every successfully built record.
type EmitFunc func(ctx context.Context, rec *core.Record) error

// Builder converts fragments into records, isolating per-fragment failures.
type Builder struct {
	converter  convert.Converter
	batchSize  int
	logger     *slog.Logger
	checkpoint func(core.Counters)
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithBuildBatchSize sets the number of fragments per pass.
func WithBuildBatchSize(size int) BuilderOption {
	return func(b *Builder) {
		if size > 0 {
			b.batchSize = size
		}
	}
}

// WithBuildLogger sets the logger for conversion failures.
func WithBuildLogger(logger *slog.Logger) BuilderOption {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithPassCheckpoint sets a callback invoked with the running counters
// after every pass.
func WithPassCheckpoint(fn func(core.Counters)) BuilderOption {
	return func(b *Builder) {
		b.checkpoint = fn
	}
}

// NewBuilder creates a builder around converter.
func NewBuilder(converter convert.Converter, opts ...BuilderOption) (*Builder, error) {
	if converter == nil {
		return nil, ErrConverterRequired
	}
	b := &Builder{
		converter: converter,
		batchSize: DefaultBatchSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Convert converts a single fragment. The record is stamped with the
// fragment's source and ordinal and given a content ID if it has none.
func (b *Builder) Convert(ctx context.Context, f core.Fragment) Outcome {
	rec, cerr := convert.Convert(ctx, b.converter, f)
	if cerr != nil {
		return Outcome{Fragment: f, Err: cerr}
	}

	rec.Source = f.Source
	rec.Ordinal = f.Ordinal
	if rec.ID == 0 && rec.DocNumber != "" {
		rec.ID = core.IDFromContent(rec.DocNumber)
	}
	if err := core.ValidateRecord(rec); err != nil {
		return Outcome{Fragment: f, Err: core.NewConversionError(CategoryInvalidRecord, f, err)}
	}
	return Outcome{Fragment: f, Record: rec}
}

// Build converts every fragment once, in order, and emits each record.
// Conversion failures are logged and counted; they never stop the build.
// An emit failure stops the build and is returned wrapped in
// core.ErrPersistence together with the counters so far.
func (b *Builder) Build(ctx context.Context, fragments []core.Fragment, counters core.Counters, emit EmitFunc) (core.Counters, error) {
	for start := 0; start < len(fragments); start += b.batchSize {
		end := min(start+b.batchSize, len(fragments))

		for _, f := range fragments[start:end] {
			if err := ctx.Err(); err != nil {
				return counters, err
			}

			out := b.Convert(ctx, f)
			if !out.OK() {
				counters.Failed++
				b.logFailure(out.Err)
				continue
			}

			counters.Built++
			if err := emit(ctx, out.Record); err != nil {
				if !errors.Is(err, core.ErrPersistence) {
					err = fmt.Errorf("%w: %w", core.ErrPersistence, err)
				}
				return counters, err
			}
			counters.Inserted++
		}

		if b.checkpoint != nil {
			b.checkpoint(counters)
		}
	}
	return counters, nil
}

func (b *Builder) logFailure(cerr *core.ConversionError) {
	b.logger.Error("failed to build record",
		"category", cerr.Category,
		"source", cerr.Source,
		"ordinal", cerr.Ordinal,
		"excerpt", cerr.Excerpt,
		"err", cerr.Err,
	)
}
