// Package locate discovers corpus files under a root directory.
//
// File names are matched with Python-compatible regular expressions
// (github.com/dlclark/regexp2) so that patterns written for existing
// corpus tooling, such as `ipg\d{6}.xml`, keep working unchanged.
package locate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/poiesic/ipgest/core"
)

// DefaultPattern matches USPTO weekly grant files (ipgYYMMDD.xml).
const DefaultPattern = `ipg\d{6}.xml`

// matchTimeout bounds a single file name match against pathological patterns.
const matchTimeout = time.Second

// ErrRootRequired is returned when no corpus root is configured.
var ErrRootRequired = errors.New("corpus root required")

// Locator enumerates candidate files under Root.
type Locator struct {
	root    string
	dirs    []string
	pattern *regexp2.Regexp
}

// New creates a Locator for the given root, subdirectories and file name pattern.
// An empty pattern uses DefaultPattern. No subdirectories means Root itself is listed.
// The pattern is matched case-insensitively and is not anchored.
func New(root string, dirs []string, pattern string) (*Locator, error) {
	if root == "" {
		return nil, ErrRootRequired
	}
	if pattern == "" {
		pattern = DefaultPattern
	}

	re, err := regexp2.Compile(pattern, regexp2.IgnoreCase)
	if err != nil {
		return nil, fmt.Errorf("invalid file pattern %q: %w", pattern, err)
	}
	re.MatchTimeout = matchTimeout

	if len(dirs) == 0 {
		dirs = []string{""}
	}

	return &Locator{
		root:    root,
		dirs:    slices.Clone(dirs),
		pattern: re,
	}, nil
}

// List returns every matching regular file, directory by directory in the
// configured order and by name within a directory.
// A missing or unreadable directory aborts the listing with an error
// wrapping core.ErrFileSystem; no partial list is returned.
func (l *Locator) List(ctx context.Context) ([]core.SourceFile, error) {
	var files []core.SourceFile

	for _, dir := range l.dirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := filepath.Join(l.root, dir)
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("%w: list %s: %w", core.ErrFileSystem, path, err)
		}

		// os.ReadDir returns entries sorted by file name
		for _, entry := range entries {
			mode := entry.Type()
			if !mode.IsRegular() && mode&fs.ModeSymlink == 0 {
				continue
			}

			ok, err := l.pattern.MatchString(entry.Name())
			if err != nil {
				return nil, fmt.Errorf("%w: match %s: %w", core.ErrFileSystem, entry.Name(), err)
			}
			if !ok {
				continue
			}

			// Stat follows symlinks to the corpus file they point at
			full := filepath.Join(path, entry.Name())
			info, err := os.Stat(full)
			if errors.Is(err, fs.ErrNotExist) && mode&fs.ModeSymlink != 0 {
				continue // dangling link
			}
			if err != nil {
				return nil, fmt.Errorf("%w: stat %s: %w", core.ErrFileSystem, full, err)
			}
			if !info.Mode().IsRegular() {
				continue
			}

			files = append(files, core.SourceFile{
				Path: full,
				Size: info.Size(),
			})
		}
	}

	return files, nil
}
