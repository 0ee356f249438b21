package server

import (
	"context"
	"net/http"

	"hastingtx/core/catalog"
	"hastingtx/model"
)

// ListSongsHandler lists songs. ?q= searches instead of listing; ?order=
// and ?limit= control the listing.
func (h *APIHandler) ListSongsHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var songs []model.Song
	if q := r.URL.Query().Get("q"); q != "" {
		songs, err = h.catalog.SearchSongs(r.Context(), q, limit)
	} else {
		songs, err = h.catalog.ListSongs(r.Context(), r.URL.Query().Get("order"), limit)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	if songs == nil {
		songs = []model.Song{}
	}
	writeJSON(w, http.StatusOK, songs)
}

// songDetail is a song with its rating summary and the caller's own vote.
type songDetail struct {
	*model.Song
	Rating   model.RatingSummary `json:"rating"`
	MyRating *int                `json:"myRating,omitempty"`
}

// GetSongHandler returns one song with its rating.
func (h *APIHandler) GetSongHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	ctx := r.Context()
	song, err := h.catalog.GetSong(ctx, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary, err := h.catalog.RatingSummary(ctx, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	detail := songDetail{Song: song, Rating: summary}
	score, ok, err := h.catalog.OriginRating(ctx, id, clientIP(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if ok {
		detail.MyRating = &score
	}
	writeJSON(w, http.StatusOK, detail)
}

type rateRequest struct {
	Rating int `json:"rating"`
}

// RateSongHandler records the caller's 1-10 vote for a song.
func (h *APIHandler) RateSongHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req rateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	summary, err := h.catalog.RecordRating(r.Context(), id, clientIP(r), req.Rating)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// RatingHandler returns the rating summary of a song.
func (h *APIHandler) RatingHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary, err := h.catalog.RatingSummary(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// PlayHandler counts a listen.
func (h *APIHandler) PlayHandler(w http.ResponseWriter, r *http.Request) {
	h.songEvent(w, r, h.catalog.RecordPlay)
}

// DownloadHandler counts a download.
func (h *APIHandler) DownloadHandler(w http.ResponseWriter, r *http.Request) {
	h.songEvent(w, r, h.catalog.RecordDownload)
}

func (h *APIHandler) songEvent(w http.ResponseWriter, r *http.Request, record func(ctx context.Context, songID int64, origin string) error) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := record(r.Context(), id, clientIP(r)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListTagsHandler lists tags with song counts.
func (h *APIHandler) ListTagsHandler(w http.ResponseWriter, r *http.Request) {
	tags, err := h.catalog.Tags(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if tags == nil {
		tags = []model.TagCount{}
	}
	writeJSON(w, http.StatusOK, tags)
}

// ========== Admin ==========

// CreateSongHandler stores a new song.
func (h *APIHandler) CreateSongHandler(w http.ResponseWriter, r *http.Request) {
	var in catalog.SongInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	song, err := h.catalog.CreateSong(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, song)
}

// UpdateSongHandler applies a partial update to a song.
func (h *APIHandler) UpdateSongHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in catalog.SongUpdate
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	song, err := h.catalog.UpdateSong(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, song)
}

// DeleteSongHandler removes a song.
func (h *APIHandler) DeleteSongHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.catalog.DeleteSong(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type tagsRequest struct {
	Tags []string `json:"tags"`
}

// SetSongTagsHandler replaces the tags of a song.
func (h *APIHandler) SetSongTagsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req tagsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	tags, err := h.catalog.SetSongTags(r.Context(), id, req.Tags)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if tags == nil {
		tags = []model.Tag{}
	}
	writeJSON(w, http.StatusOK, tags)
}

type bulkAlbumRequest struct {
	SongIDs []int64 `json:"songIds"`
	Album   string  `json:"album"`
}

// SetAlbumHandler assigns one album to many songs.
func (h *APIHandler) SetAlbumHandler(w http.ResponseWriter, r *http.Request) {
	var req bulkAlbumRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rows, err := h.catalog.SetAlbum(r.Context(), req.SongIDs, req.Album)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rowsResponse{Rows: rows})
}

type bulkGenreRequest struct {
	SongIDs []int64 `json:"songIds"`
	Genre   string  `json:"genre"`
	Create  bool    `json:"create"`
}

// SetGenreHandler links many songs to one genre.
func (h *APIHandler) SetGenreHandler(w http.ResponseWriter, r *http.Request) {
	var req bulkGenreRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rows, err := h.catalog.SetGenre(r.Context(), req.SongIDs, req.Genre, req.Create)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rowsResponse{Rows: rows})
}

type rowsResponse struct {
	Rows int64 `json:"rows"`
}
