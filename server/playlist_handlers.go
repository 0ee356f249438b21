package server

import (
	"net/http"

	"hastingtx/core/export"
	"hastingtx/core/playlist"
	"hastingtx/logger"
	"hastingtx/model"

	"github.com/gorilla/mux"
)

// uploadsPath is where the audio files are served from.
const uploadsPath = "/uploads/"

// ListPlaylistsHandler lists playlists with their song counts. Private
// playlists are listed for admins only.
func (h *APIHandler) ListPlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	playlists, err := h.catalog.Playlists(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	visible := make([]playlist.Summary, 0, len(playlists))
	for _, p := range playlists {
		if p.IsPublic || h.isAdmin(r) {
			visible = append(visible, p)
		}
	}
	writeJSON(w, http.StatusOK, visible)
}

// resolveVisible resolves a playlist for a public route. Private playlists
// are reported as missing unless the caller is an admin.
func (h *APIHandler) resolveVisible(r *http.Request, identifier string) ([]model.PlaylistEntry, *model.Playlist, error) {
	entries, p, err := h.resolveVisible(r, identifier)
	if err != nil {
		return nil, nil, err
	}
	if !p.IsPublic && !h.isAdmin(r) {
		return nil, nil, model.NewNotFound("playlist", identifier)
	}
	return entries, p, nil
}

type playlistDetail struct {
	Playlist *model.Playlist       `json:"playlist"`
	Entries  []model.PlaylistEntry `json:"entries"`
}

// GetPlaylistHandler returns a playlist with its resolved songs.
func (h *APIHandler) GetPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	entries, p, err := h.resolveVisible(r, mux.Vars(r)["identifier"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []model.PlaylistEntry{}
	}
	writeJSON(w, http.StatusOK, playlistDetail{Playlist: p, Entries: entries})
}

// PlaylistM3UHandler streams a playlist as an extended M3U file.
func (h *APIHandler) PlaylistM3UHandler(w http.ResponseWriter, r *http.Request) {
	identifier := mux.Vars(r)["identifier"]
	entries, p, err := h.resolveVisible(r, identifier)
	if err != nil {
		writeError(w, r, err)
		return
	}
	songs := make([]model.Song, len(entries))
	for i, e := range entries {
		songs[i] = e.Song
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	w.Header().Set("Content-Type", "audio/x-mpegurl")
	w.Header().Set("Content-Disposition", `attachment; filename="`+p.Identifier+`.m3u"`)
	if err := export.WriteM3U(w, p.Name, songs, scheme+"://"+r.Host+uploadsPath); err != nil {
		logger.Warn("Failed to write playlist", logger.String("playlist", identifier), logger.ErrorField(err))
	}
}

// ListAlbumsHandler lists distinct albums.
func (h *APIHandler) ListAlbumsHandler(w http.ResponseWriter, r *http.Request) {
	albums, err := h.catalog.Albums(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if albums == nil {
		albums = []model.AlbumCount{}
	}
	writeJSON(w, http.StatusOK, albums)
}

// sortParam reads ?order= as a playlist sort order.
func sortParam(r *http.Request) []model.SortOrder {
	if o := r.URL.Query().Get("order"); o != "" {
		return []model.SortOrder{model.SortOrder(o)}
	}
	return nil
}

// AlbumSongsHandler lists the songs of an album.
func (h *APIHandler) AlbumSongsHandler(w http.ResponseWriter, r *http.Request) {
	songs, err := h.catalog.ResolveByAlbum(r.Context(), mux.Vars(r)["name"], sortParam(r)...)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if songs == nil {
		songs = []model.Song{}
	}
	writeJSON(w, http.StatusOK, songs)
}

// ListGenresHandler lists genres that have songs.
func (h *APIHandler) ListGenresHandler(w http.ResponseWriter, r *http.Request) {
	genres, err := h.catalog.PopulatedGenres(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if genres == nil {
		genres = []model.GenreCount{}
	}
	writeJSON(w, http.StatusOK, genres)
}

// GenreSongsHandler lists the songs of a genre.
func (h *APIHandler) GenreSongsHandler(w http.ResponseWriter, r *http.Request) {
	songs, err := h.catalog.ResolveByGenre(r.Context(), mux.Vars(r)["name"], sortParam(r)...)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if songs == nil {
		songs = []model.Song{}
	}
	writeJSON(w, http.StatusOK, songs)
}

// ========== Admin ==========

// CreatePlaylistHandler stores a new playlist.
func (h *APIHandler) CreatePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	var in playlist.CreateInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.catalog.CreatePlaylist(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// UpdatePlaylistHandler changes a playlist's presentation.
func (h *APIHandler) UpdatePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	var in playlist.UpdateInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.catalog.UpdatePlaylist(r.Context(), mux.Vars(r)["identifier"], in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeletePlaylistHandler removes a playlist.
func (h *APIHandler) DeletePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeletePlaylist(r.Context(), mux.Vars(r)["identifier"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addSongRequest struct {
	SongID   int64 `json:"songId"`
	Position *int  `json:"position"`
}

// AddPlaylistSongHandler adds a song to a playlist.
func (h *APIHandler) AddPlaylistSongHandler(w http.ResponseWriter, r *http.Request) {
	var req addSongRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	row, err := h.catalog.AddToPlaylist(r.Context(), mux.Vars(r)["identifier"], req.SongID, req.Position)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, row)
}

// RemovePlaylistSongHandler removes a song from a playlist.
func (h *APIHandler) RemovePlaylistSongHandler(w http.ResponseWriter, r *http.Request) {
	songID, err := pathID(r, "songId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.catalog.RemoveFromPlaylist(r.Context(), mux.Vars(r)["identifier"], songID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type songIDsRequest struct {
	SongIDs []int64 `json:"songIds"`
}

// ReorderPlaylistHandler assigns positions to a playlist's members.
func (h *APIHandler) ReorderPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	var req songIDsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.catalog.ReorderPlaylist(r.Context(), mux.Vars(r)["identifier"], req.SongIDs); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetPlaylistSongsHandler replaces a playlist's membership.
func (h *APIHandler) SetPlaylistSongsHandler(w http.ResponseWriter, r *http.Request) {
	var req songIDsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.catalog.SetPlaylistSongs(r.Context(), mux.Vars(r)["identifier"], req.SongIDs); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
