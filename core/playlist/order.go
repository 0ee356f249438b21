package playlist

import (
	"sort"
	"strings"

	"hastingtx/model"
)

// SortEntries orders entries in place under order. Every policy ends in a
// song id comparison, so the result is a total order and repeat calls on
// the same input agree.
//
//   - manual: position ascending with null positions last, then added_at,
//     then song id.
//   - title: case-folded title, then song id.
//   - album: case-folded album with empty albums last, then case-folded
//     title, then song id.
func SortEntries(entries []model.PlaylistEntry, order model.SortOrder) {
	var less func(a, b *model.PlaylistEntry) bool
	switch order {
	case model.SortTitle:
		less = byTitle
	case model.SortAlbum:
		less = byAlbum
	default:
		less = byPosition
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return less(&entries[i], &entries[j])
	})
}

func byPosition(a, b *model.PlaylistEntry) bool {
	switch {
	case a.Position != nil && b.Position == nil:
		return true
	case a.Position == nil && b.Position != nil:
		return false
	case a.Position != nil && *a.Position != *b.Position:
		return *a.Position < *b.Position
	}
	if !a.AddedAt.Equal(b.AddedAt) {
		return a.AddedAt.Before(b.AddedAt)
	}
	return a.Song.ID < b.Song.ID
}

func byTitle(a, b *model.PlaylistEntry) bool {
	ta, tb := strings.ToLower(a.Song.Title), strings.ToLower(b.Song.Title)
	if ta != tb {
		return ta < tb
	}
	return a.Song.ID < b.Song.ID
}

func byAlbum(a, b *model.PlaylistEntry) bool {
	aa := strings.ToLower(strings.TrimSpace(a.Song.Album))
	ab := strings.ToLower(strings.TrimSpace(b.Song.Album))
	switch {
	case aa != "" && ab == "":
		return true
	case aa == "" && ab != "":
		return false
	case aa != ab:
		return aa < ab
	}
	return byTitle(a, b)
}
