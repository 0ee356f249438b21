package catalog

import (
	"context"
	"time"

	"hastingtx/core/playlist"
	"hastingtx/model"
)

// ResolveOrder returns the songs of a playlist in its sort order.
func (c *Catalog) ResolveOrder(ctx context.Context, identifier string) (songs []model.Song, err error) {
	defer observe("resolve_order", time.Now(), &err)
	return c.playlists.ResolveOrder(ctx, identifier)
}

// ResolveEntries is ResolveOrder keeping membership details and the playlist.
func (c *Catalog) ResolveEntries(ctx context.Context, identifier string) (entries []model.PlaylistEntry, p *model.Playlist, err error) {
	defer observe("resolve_order", time.Now(), &err)
	return c.playlists.ResolveEntries(ctx, identifier)
}

// ResolveByAlbum returns an album's songs, title order by default.
func (c *Catalog) ResolveByAlbum(ctx context.Context, name string, order ...model.SortOrder) (songs []model.Song, err error) {
	defer observe("resolve_by_album", time.Now(), &err)
	return c.playlists.ResolveByAlbum(ctx, name, order...)
}

// ResolveByGenre returns a genre's songs, title order by default.
func (c *Catalog) ResolveByGenre(ctx context.Context, name string, order ...model.SortOrder) (songs []model.Song, err error) {
	defer observe("resolve_by_genre", time.Now(), &err)
	return c.playlists.ResolveByGenre(ctx, name, order...)
}

// Playlists lists every playlist with its song count.
func (c *Catalog) Playlists(ctx context.Context) (out []playlist.Summary, err error) {
	defer observe("list_playlists", time.Now(), &err)
	return c.playlists.List(ctx)
}

// CreatePlaylist stores a new playlist.
func (c *Catalog) CreatePlaylist(ctx context.Context, in playlist.CreateInput) (p *model.Playlist, err error) {
	defer observe("create_playlist", time.Now(), &err)
	return c.playlists.CreatePlaylist(ctx, in)
}

// UpdatePlaylist changes a playlist's presentation.
func (c *Catalog) UpdatePlaylist(ctx context.Context, identifier string, in playlist.UpdateInput) (p *model.Playlist, err error) {
	defer observe("update_playlist", time.Now(), &err)
	return c.playlists.UpdatePlaylist(ctx, identifier, in)
}

// DeletePlaylist removes a playlist. "all" cannot be deleted.
func (c *Catalog) DeletePlaylist(ctx context.Context, identifier string) (err error) {
	defer observe("delete_playlist", time.Now(), &err)
	return c.playlists.DeletePlaylist(ctx, identifier)
}

// EnsureAllPlaylist seeds the reserved "all" playlist.
func (c *Catalog) EnsureAllPlaylist(ctx context.Context) (p *model.Playlist, err error) {
	defer observe("ensure_all_playlist", time.Now(), &err)
	return c.playlists.EnsureAllPlaylist(ctx)
}

// AddToPlaylist adds a song at position, or at the end when position is nil.
func (c *Catalog) AddToPlaylist(ctx context.Context, identifier string, songID int64, position *int) (row *model.PlaylistSong, err error) {
	defer observe("playlist_add_song", time.Now(), &err)
	return c.playlists.AddSong(ctx, identifier, songID, position)
}

// RemoveFromPlaylist drops a song from a playlist.
func (c *Catalog) RemoveFromPlaylist(ctx context.Context, identifier string, songID int64) (err error) {
	defer observe("playlist_remove_song", time.Now(), &err)
	return c.playlists.RemoveSong(ctx, identifier, songID)
}

// ReorderPlaylist gives songIDs dense positions 1..n.
func (c *Catalog) ReorderPlaylist(ctx context.Context, identifier string, songIDs []int64) (err error) {
	defer observe("playlist_reorder", time.Now(), &err)
	return c.playlists.Reorder(ctx, identifier, songIDs)
}

// SetPlaylistSongs replaces a playlist's membership.
func (c *Catalog) SetPlaylistSongs(ctx context.Context, identifier string, songIDs []int64) (err error) {
	defer observe("playlist_set_songs", time.Now(), &err)
	return c.playlists.SetSongs(ctx, identifier, songIDs)
}
