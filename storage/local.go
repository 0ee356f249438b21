package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
)

// LocalLister lists audio files in a single upload directory.
type LocalLister struct {
	dir    string
	filter extensionFilter
}

// NewLocalLister creates a lister for dir. With no extensions it counts
// DefaultAudioExtensions.
func NewLocalLister(dir string, exts ...string) *LocalLister {
	return &LocalLister{dir: dir, filter: newExtensionFilter(exts)}
}

// ListFilenames returns the sorted names of regular audio files directly
// under the directory. A directory that does not exist holds no files.
func (l *LocalLister) ListFilenames(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read upload folder %s: %w", l.dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || !l.filter.accepts(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}
