package ingestion

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/ipgest/convert/mock"
	"github.com/poiesic/ipgest/convert/patentxml"
	"github.com/poiesic/ipgest/core"
	"github.com/poiesic/ipgest/locate"
	"github.com/poiesic/ipgest/split"
	"github.com/poiesic/ipgest/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPipeline(t *testing.T, root string, dirs []string, conv *mock.MockConverter, tables Tables, opts ...Option) *Pipeline {
	t.Helper()
	locator, err := locate.New(root, dirs, locate.DefaultPattern)
	require.NoError(t, err)
	splitter, err := split.New()
	require.NoError(t, err)

	p, err := NewPipeline(locator, splitter, conv, tables, opts...)
	require.NoError(t, err)
	t.Cleanup(p.Release)
	return p
}

func TestNewPipeline_Validation(t *testing.T) {
	splitter, err := split.New()
	require.NoError(t, err)
	conv := mock.NewMockConverter()
	tables := (&recordingTables{}).tables("patent")
	lister := &fakeLister{}

	tests := []struct {
		name string
		fn   func() (*Pipeline, error)
		err  error
	}{
		{"no locator", func() (*Pipeline, error) { return NewPipeline(nil, splitter, conv, tables) }, ErrLocatorRequired},
		{"no splitter", func() (*Pipeline, error) { return NewPipeline(lister, nil, conv, tables) }, ErrSplitterRequired},
		{"no converter", func() (*Pipeline, error) { return NewPipeline(lister, splitter, nil, tables) }, ErrConverterRequired},
		{"no tables", func() (*Pipeline, error) { return NewPipeline(lister, splitter, conv, nil) }, ErrTablesRequired},
		{"bad batch size", func() (*Pipeline, error) {
			return NewPipeline(lister, splitter, conv, tables, WithBatchSize(0))
		}, ErrInvalidBatchSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := tt.fn()
			assert.ErrorIs(t, err, tt.err)
			assert.Nil(t, p)
		})
	}
}

func TestRun_CountsFragmentsAndFailures(t *testing.T) {
	root := t.TempDir()
	writeCorpusFile(t, filepath.Join(root, "2024"), "ipg240102.xml", "01", "02", "03")
	writeCorpusFile(t, filepath.Join(root, "2024"), "ipg240109.xml", "04", "BAD", "06")
	writeCorpusFile(t, filepath.Join(root, "2024"), "notes.txt", "99")

	logger, logs := newTestLogger()
	conv := mock.NewMockConverter().FailOn("<doc-number>BAD</doc-number>")
	rt := &recordingTables{}
	p := newTestPipeline(t, root, []string{"2024"}, conv, rt.tables(DefaultTableNames...),
		WithLogger(logger), WithPoolSize(2))

	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, summary)

	c := summary.Counters
	assert.Equal(t, int64(2), c.Files)
	assert.Equal(t, int64(6), c.Fragments)
	assert.Equal(t, int64(5), c.Built)
	assert.Equal(t, int64(1), c.Failed)
	assert.Equal(t, int64(5), c.Inserted)
	assert.Zero(t, c.SplitErrors)

	// Every built record reaches every table
	for _, name := range DefaultTableNames {
		assert.ElementsMatch(t, []string{"01", "02", "03", "04", "06"}, rt.inserted(name), name)
	}

	// One diagnostic for the failed fragment
	assert.Equal(t, 1, logs.countLevel(slog.LevelError))
	assert.NotEmpty(t, summary.ID)
	assert.False(t, summary.Finished.Before(summary.Started))
	for _, stage := range []Stage{StageDiscovered, StageSplit, StageBuilt, StageFinished} {
		assert.Contains(t, logs.String(), "stage="+string(stage))
	}
}

func TestRun_EmptyDirectory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0755))
	writeCorpusFile(t, filepath.Join(root, "other"), "ipg240102.xml", "01")

	conv := mock.NewMockConverter()
	rt := &recordingTables{}
	p := newTestPipeline(t, root, []string{"empty"}, conv, rt.tables("patent"))

	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, core.Counters{}, summary.Counters)
	assert.Zero(t, conv.CallCount())
}

func TestRun_DiscoveryFailure(t *testing.T) {
	logger, logs := newTestLogger()
	rt := &recordingTables{}
	p := newTestPipeline(t, t.TempDir(), []string{"missing"}, mock.NewMockConverter(), rt.tables("patent"),
		WithLogger(logger))

	summary, err := p.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrFileSystem)
	assert.Nil(t, summary)
	assert.NotContains(t, logs.String(), "stage=")
}

func TestRun_PersistenceFailure(t *testing.T) {
	root := t.TempDir()
	writeCorpusFile(t, root, "ipg240102.xml", "01", "02", "03")

	diskFull := errors.New("disk full")
	rt := &recordingTables{failOn: "02", err: diskFull}
	p := newTestPipeline(t, root, nil, mock.NewMockConverter(), rt.tables("patent"))

	summary, err := p.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrPersistence)
	assert.ErrorIs(t, err, diskFull)

	// The summary still reports how far the run got
	require.NotNil(t, summary)
	assert.Equal(t, int64(3), summary.Counters.Fragments)
	assert.Equal(t, int64(1), summary.Counters.Inserted)
	assert.Equal(t, int64(1), summary.Counters.Pending())
}

func TestRun_SplitErrorsCounted(t *testing.T) {
	files := []core.SourceFile{{Path: "a.xml"}, {Path: "b.xml"}}
	splitter := &fakeSplitter{
		fragments: map[string][]core.Fragment{"a.xml": fragmentsOf("a.xml", "1", "2")},
		errs:      map[string]error{"b.xml": core.ErrIO},
	}
	rt := &recordingTables{}
	p, err := NewPipeline(&fakeLister{files: files}, splitter, mock.NewMockConverter(), rt.tables("patent"))
	require.NoError(t, err)
	defer p.Release()

	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.Counters.Files)
	assert.Equal(t, int64(1), summary.Counters.SplitErrors)
	assert.Equal(t, int64(2), summary.Counters.Built)
}

func TestRun_Clock(t *testing.T) {
	start := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)
	ticks := 0
	clock := func() time.Time {
		ticks++
		return start.Add(time.Duration(ticks) * time.Second)
	}
	rt := &recordingTables{}
	p, err := NewPipeline(&fakeLister{}, &fakeSplitter{}, mock.NewMockConverter(), rt.tables("patent"), WithClock(clock))
	require.NoError(t, err)
	defer p.Release()

	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, start.Add(time.Second), summary.Started)
	assert.True(t, summary.Elapsed() > 0)
}

func TestRun_IdempotentWithStore(t *testing.T) {
	root := t.TempDir()
	writeCorpusFile(t, root, "ipg240102.xml", "07000001", "07000002")
	writeCorpusFile(t, root, "ipg240109.xml", "07000003")

	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	defer store.Close()

	locator, err := locate.New(root, nil, locate.DefaultPattern)
	require.NoError(t, err)
	splitter, err := split.New()
	require.NoError(t, err)
	p, err := NewPipeline(locator, splitter, patentxml.New(), TablesFor(DefaultTableNames, store))
	require.NoError(t, err)
	defer p.Release()

	ctx := context.Background()
	first, err := p.Run(ctx)
	require.NoError(t, err)
	second, err := p.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, first.Counters, second.Counters)
	assert.Equal(t, int64(3), second.Counters.Built)
	assert.NotEqual(t, first.ID, second.ID)

	// Re-running replaces rows rather than duplicating them
	count, err := store.CountRows(ctx, "patent")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
