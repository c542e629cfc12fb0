package ingestion

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/poiesic/ipgest/core"
	"github.com/stretchr/testify/require"
)

// grantDoc returns a minimal grant document with a doc number.
func grantDoc(docNumber string) string {
	return fmt.Sprintf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n"+
		"<us-patent-grant><us-bibliographic-data-grant><publication-reference><document-id>"+
		"<doc-number>%s</doc-number></document-id></publication-reference>"+
		"</us-bibliographic-data-grant></us-patent-grant>\n", docNumber)
}

// writeCorpusFile writes the given documents, concatenated, to dir/name.
func writeCorpusFile(t *testing.T, dir, name string, docNumbers ...string) core.SourceFile {
	t.Helper()
	var b strings.Builder
	for _, n := range docNumbers {
		b.WriteString(grantDoc(n))
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0644))
	return core.SourceFile{Path: path, Size: int64(b.Len())}
}

// syncBuffer is a goroutine-safe log sink.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// countLevel counts log lines at level.
func (b *syncBuffer) countLevel(level slog.Level) int {
	return strings.Count(b.String(), "level="+level.String())
}

func newTestLogger() (*slog.Logger, *syncBuffer) {
	buf := &syncBuffer{}
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

// fakeLister returns fixed files or an error.
type fakeLister struct {
	files []core.SourceFile
	err   error
}

func (f *fakeLister) List(ctx context.Context) ([]core.SourceFile, error) {
	return f.files, f.err
}

// fakeSplitter serves fragments from memory.
type fakeSplitter struct {
	fragments map[string][]core.Fragment
	errs      map[string]error
	panicOn   string
}

func (f *fakeSplitter) Split(ctx context.Context, file core.SourceFile) ([]core.Fragment, error) {
	if file.Path == f.panicOn {
		panic("splitter exploded")
	}
	return f.fragments[file.Path], f.errs[file.Path]
}

// recordingTables collects inserted doc numbers per table.
type recordingTables struct {
	mu     sync.Mutex
	rows   map[string][]string
	failOn string
	err    error
}

func (r *recordingTables) tables(names ...string) Tables {
	r.rows = make(map[string][]string)
	var out Tables
	for _, name := range names {
		out = append(out, Table{
			Name: name,
			Insert: func(ctx context.Context, rec *core.Record) error {
				r.mu.Lock()
				defer r.mu.Unlock()
				if rec.DocNumber == r.failOn {
					return r.err
				}
				r.rows[name] = append(r.rows[name], rec.DocNumber)
				return nil
			},
		})
	}
	return out
}

func (r *recordingTables) inserted(table string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.rows[table]...)
}

func fragmentsOf(source string, docNumbers ...string) []core.Fragment {
	out := make([]core.Fragment, len(docNumbers))
	for i, n := range docNumbers {
		out[i] = core.Fragment{Source: source, Ordinal: i, Text: grantDoc(n)}
	}
	return out
}
