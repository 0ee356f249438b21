// Package storage enumerates the audio files that actually exist, either on
// the local upload folder or in a MinIO bucket, so the maintenance engine can
// compare them with the song table.
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
)

// FileLister enumerates the audio filenames present in storage. Names are
// relative to the storage root, the same form Song.Filename uses.
type FileLister interface {
	ListFilenames(ctx context.Context) ([]string, error)
}

// DefaultAudioExtensions are the suffixes counted as audio files.
var DefaultAudioExtensions = []string{".mp3"}

// extensionFilter reports whether a name has one of the accepted suffixes,
// compared case-insensitively. An empty list accepts everything.
type extensionFilter []string

func newExtensionFilter(exts []string) extensionFilter {
	if len(exts) == 0 {
		exts = DefaultAudioExtensions
	}
	f := make(extensionFilter, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		f = append(f, e)
	}
	return f
}

func (f extensionFilter) accepts(name string) bool {
	if len(f) == 0 {
		return true
	}
	ext := strings.ToLower(path.Ext(name))
	for _, e := range f {
		if ext == e {
			return true
		}
	}
	return false
}

// FormatSize renders a byte count with a binary unit, e.g. "3.4 MB".
func FormatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
