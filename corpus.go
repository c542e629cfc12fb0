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


// Package ipgest extracts patent grants from concatenated XML corpus files
// and stores them as table rows.
//
// Corpus ties the pieces together from a config.Config:
//
//	cfg := config.DefaultConfig()
//	cfg.Root = "/data/uspto"
//	corpus, err := ipgest.Open(cfg)
//	if err != nil {
//	    return err
//	}
//	defer corpus.Close()
//
//	summary, err := corpus.Run(ctx)
package ipgest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/ipgest/config"
	"github.com/poiesic/ipgest/convert"
	"github.com/poiesic/ipgest/convert/patentxml"
	"github.com/poiesic/ipgest/core"
	"github.com/poiesic/ipgest/ingestion"
	"github.com/poiesic/ipgest/locate"
	"github.com/poiesic/ipgest/split"
	"github.com/poiesic/ipgest/storage"
	"github.com/poiesic/ipgest/storage/badger"
	"github.com/poiesic/ipgest/storage/sqlite"
)

// Corpus runs ingestion over a configured corpus into a store.
type Corpus struct {
	cfg      *config.Config
	store    storage.Store
	pipeline *ingestion.Pipeline
	logger   *slog.Logger
}

// CorpusOption configures a Corpus.
type CorpusOption func(*corpusOptions)

type corpusOptions struct {
	logger    *slog.Logger
	converter convert.Converter
	store     storage.Store
}

// WithLogger sets the logger for the corpus and its pipeline.
func WithLogger(logger *slog.Logger) CorpusOption {
	return func(o *corpusOptions) {
		o.logger = logger
	}
}

// WithConverter replaces the grant converter.
func WithConverter(c convert.Converter) CorpusOption {
	return func(o *corpusOptions) {
		o.converter = c
	}
}

// WithStore uses an already open store instead of the configured one.
// The corpus takes ownership and closes it.
func WithStore(s storage.Store) CorpusOption {
	return func(o *corpusOptions) {
		o.store = s
	}
}

// OpenStore opens the store described by sc.
func OpenStore(sc config.StoreConfig) (storage.Store, error) {
	switch sc.Kind {
	case config.StoreBadger:
		store, err := badger.OpenStore(sc.Path, sc.InMemory())
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StoreSQLite:
		store, err := sqlite.Open(sc.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStore, sc.Kind)
	}
}

// Open validates cfg and assembles the store, locator, splitter, converter
// and pipeline it describes.
func Open(cfg *config.Config, opts ...CorpusOption) (*Corpus, error) {
	// Apply options
	options := &corpusOptions{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	locator, err := locate.New(cfg.Root, cfg.Dirs, cfg.Pattern)
	if err != nil {
		return nil, err
	}

	splitter, err := split.New(
		split.WithMarkers(split.Markers{Start: cfg.StartMarker, End: cfg.EndMarker}),
		split.WithMaxFragmentSize(cfg.MaxFragmentSize),
		split.WithMmap(cfg.Mmap),
		split.WithLogger(options.logger),
	)
	if err != nil {
		return nil, err
	}

	converter := options.converter
	if converter == nil {
		converter = patentxml.New(
			patentxml.WithChunkSize(cfg.ChunkSize),
			patentxml.WithDescription(cfg.Description),
		)
	}

	// Open store
	store := options.store
	if store == nil {
		if store, err = OpenStore(cfg.Store); err != nil {
			return nil, err
		}
	}

	inserter := &retryingInserter{
		inner:     store,
		attempts:  cfg.Retry.Attempts,
		baseDelay: cfg.Retry.BaseDelay,
	}

	pipelineOpts := []ingestion.Option{
		ingestion.WithBatchSize(cfg.BatchSize),
		ingestion.WithLogger(options.logger),
	}
	if cfg.Workers > 0 {
		pipelineOpts = append(pipelineOpts, ingestion.WithPoolSize(cfg.Workers))
	}
	pipeline, err := ingestion.NewPipeline(locator, splitter, converter,
		ingestion.TablesFor(cfg.Tables, inserter), pipelineOpts...)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &Corpus{
		cfg:      cfg,
		store:    store,
		pipeline: pipeline,
		logger:   options.logger,
	}, nil
}

// Run ingests the corpus once and saves the run summary. The summary is
// returned whenever discovery succeeded, even if the run failed later.
func (c *Corpus) Run(ctx context.Context) (*core.RunSummary, error) {
	summary, err := c.pipeline.Run(ctx)
	if summary == nil {
		return nil, err
	}
	if saveErr := c.store.SaveRun(ctx, summary); saveErr != nil {
		c.logger.Error("error saving run summary", "run", summary.ID, "err", saveErr)
		err = errors.Join(err, fmt.Errorf("%w: %w", core.ErrPersistence, saveErr))
	}
	return summary, err
}

// LastRun returns the summary of the most recent run, or nil if none.
func (c *Corpus) LastRun(ctx context.Context) (*core.RunSummary, error) {
	return c.store.LastRun(ctx)
}

// Store returns the corpus store.
func (c *Corpus) Store() storage.Store {
	return c.store
}

// Config returns the validated configuration.
func (c *Corpus) Config() *config.Config {
	return c.cfg
}

// Close releases the worker pool and closes the store.
func (c *Corpus) Close() error {
	c.pipeline.Release()

	if err := c.store.Close(); err != nil {
		c.logger.Error("error closing store", "err", err)
		return err
	}
	return nil
}
