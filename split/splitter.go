package split

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/poiesic/ipgest/core"
	"golang.org/x/exp/mmap"
)

const (
	// DefaultMaxFragmentSize bounds a single fragment. Grant documents with
	// embedded tables and sequence listings run to a few megabytes.
	DefaultMaxFragmentSize = 64 << 20

	initialBufferSize = 64 << 10
)

// Splitter extracts fragments from corpus files.
// A Splitter is safe for concurrent use; each call reads its own file.
type Splitter struct {
	markers Markers
	maxSize int
	mmap    bool
	logger  *slog.Logger
}

// Option configures a Splitter.
type Option func(*Splitter)

// WithMarkers sets the start/end marker pair.
// Default is DefaultMarkers.
func WithMarkers(m Markers) Option {
	return func(s *Splitter) {
		s.markers = m
	}
}

// WithMaxFragmentSize sets the largest fragment the splitter will buffer.
// Default is DefaultMaxFragmentSize.
func WithMaxFragmentSize(size int) Option {
	return func(s *Splitter) {
		if size > 0 {
			s.maxSize = size
		}
	}
}

// WithMmap enables or disables memory-mapped reads.
// Default is enabled; when mapping fails the file is streamed instead.
func WithMmap(enabled bool) Option {
	return func(s *Splitter) {
		s.mmap = enabled
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Splitter) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// New creates a Splitter.
func New(opts ...Option) (*Splitter, error) {
	s := &Splitter{
		markers: DefaultMarkers,
		maxSize: DefaultMaxFragmentSize,
		mmap:    true,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.markers.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Markers returns the marker pair in use.
func (s *Splitter) Markers() Markers {
	return s.markers
}

// Split opens file read-only and returns its fragments in file order.
// A file without any fragment yields an empty slice and no error.
// Failures to open or read the file are returned wrapping core.ErrIO
// and no fragments: a file that cannot be read in full contributes none.
func (s *Splitter) Split(ctx context.Context, file core.SourceFile) ([]core.Fragment, error) {
	r, err := s.open(file.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", core.ErrIO, file.Path, err)
	}
	defer r.Close()

	return s.SplitReader(ctx, file.Path, r)
}

// SplitReader scans r in a single pass and returns its fragments.
// source is recorded on every fragment for diagnostics.
func (s *Splitter) SplitReader(ctx context.Context, source string, r io.Reader) ([]core.Fragment, error) {
	// The scanner's limit is the larger of maxSize and the buffer capacity
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, min(initialBufferSize, s.maxSize)), s.maxSize)
	sc.Split(s.markers.scanner())

	fragments := []core.Fragment{}
	for sc.Scan() {
		fragments = append(fragments, core.Fragment{
			Source:  source,
			Ordinal: len(fragments),
			Text:    sc.Text(),
		})

		// Check context between fragments
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: read %s after %d fragments: %w", core.ErrIO, source, len(fragments), err)
	}

	s.logger.Debug("split file", "source", source, "fragments", len(fragments))
	return fragments, nil
}

// open returns a reader over path, memory-mapped when enabled.
func (s *Splitter) open(path string) (io.ReadCloser, error) {
	if s.mmap {
		m, err := mmap.Open(path)
		if err == nil {
			return &mappedReader{
				SectionReader: io.NewSectionReader(m, 0, int64(m.Len())),
				m:             m,
			}, nil
		}
		s.logger.Debug("mmap failed, streaming instead", "source", path, "err", err)
	}
	return os.Open(path)
}

// mappedReader reads sequentially through a memory-mapped file.
type mappedReader struct {
	*io.SectionReader
	m *mmap.ReaderAt
}

func (r *mappedReader) Close() error {
	return r.m.Close()
}
