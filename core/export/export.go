// Package export writes songs and playlists in interchange formats.
package export

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"hastingtx/model"
)

// Export formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatM3U  = "m3u"
)

// CSVHeader is the column order of WriteCSV.
var CSVHeader = []string{
	"id", "identifier", "title", "artist", "album", "genre", "description",
	"duration", "listen_count", "download_count", "tags", "upload_date",
}

// tagNames joins a song's tag names with ", ".
func tagNames(s model.Song) string {
	names := make([]string, len(s.Tags))
	for i, t := range s.Tags {
		names[i] = t.Name
	}
	return strings.Join(names, ", ")
}

// WriteCSV writes songs as CSV with a header row.
func WriteCSV(w io.Writer, songs []model.Song) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, s := range songs {
		record := []string{
			strconv.FormatInt(s.ID, 10),
			s.Identifier,
			s.Title,
			s.Artist,
			s.Album,
			s.Genre,
			s.Description,
			strconv.Itoa(s.Duration),
			strconv.FormatInt(s.ListenCount, 10),
			strconv.FormatInt(s.DownloadCount, 10),
			tagNames(s),
			s.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row for song %d: %w", s.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes songs as an indented JSON array.
func WriteJSON(w io.Writer, songs []model.Song) error {
	if songs == nil {
		songs = []model.Song{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(songs); err != nil {
		return fmt.Errorf("encode songs: %w", err)
	}
	return nil
}

// WriteM3U writes an extended M3U playlist. Each entry's path is
// pathPrefix followed by the song's filename; songs without a file are
// skipped.
func WriteM3U(w io.Writer, name string, songs []model.Song, pathPrefix string) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "#EXTM3U")
	fmt.Fprintf(bw, "#PLAYLIST:%s\n", oneLine(name))
	for _, s := range songs {
		if s.Filename == "" {
			continue
		}
		artist := s.Artist
		if artist == "" {
			artist = "Unknown"
		}
		fmt.Fprintf(bw, "#EXTINF:%d,%s - %s\n", s.Duration, oneLine(artist), oneLine(s.Title))
		fmt.Fprintln(bw, pathPrefix+s.Filename)
	}
	return bw.Flush()
}

// oneLine keeps a value from breaking the line-based M3U layout.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
