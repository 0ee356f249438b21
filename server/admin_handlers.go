package server

import (
	"net/http"

	"hastingtx/core/maintenance"
	"hastingtx/model"

	"github.com/gorilla/mux"
)

// AllGenresHandler lists every genre, populated or not.
func (h *APIHandler) AllGenresHandler(w http.ResponseWriter, r *http.Request) {
	genres, err := h.catalog.Genres(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if genres == nil {
		genres = []model.GenreCount{}
	}
	writeJSON(w, http.StatusOK, genres)
}

type genreRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parent      string `json:"parent"`
}

// CreateGenreHandler stores a new genre.
func (h *APIHandler) CreateGenreHandler(w http.ResponseWriter, r *http.Request) {
	var req genreRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	g, err := h.catalog.CreateGenre(r.Context(), req.Name, req.Description, req.Parent)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

type parentRequest struct {
	Parent string `json:"parent"`
}

// SetGenreParentHandler moves a genre under another one. An empty parent
// makes it a root.
func (h *APIHandler) SetGenreParentHandler(w http.ResponseWriter, r *http.Request) {
	var req parentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.catalog.SetParentByName(r.Context(), mux.Vars(r)["name"], req.Parent); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteGenreHandler removes a genre.
func (h *APIHandler) DeleteGenreHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteGenre(r.Context(), mux.Vars(r)["name"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type renameAlbumRequest struct {
	Name string `json:"name"`
}

// RenameAlbumHandler renames an album on every song carrying it.
func (h *APIHandler) RenameAlbumHandler(w http.ResponseWriter, r *http.Request) {
	var req renameAlbumRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rows, err := h.catalog.RenameAlbum(r.Context(), mux.Vars(r)["name"], req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rowsResponse{Rows: rows})
}

type mergeAlbumsRequest struct {
	Sources []string `json:"sources"`
	Target  string   `json:"target"`
}

// MergeAlbumsHandler folds several albums into one.
func (h *APIHandler) MergeAlbumsHandler(w http.ResponseWriter, r *http.Request) {
	var req mergeAlbumsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rows, err := h.catalog.MergeAlbums(r.Context(), req.Sources, req.Target)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rowsResponse{Rows: rows})
}

// ========== Stats ==========

// OverviewHandler returns catalog-wide totals.
func (h *APIHandler) OverviewHandler(w http.ResponseWriter, r *http.Request) {
	overview, err := h.catalog.Overview(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

// TopHandler ranks songs by ?metric= (listens, downloads or rating).
func (h *APIHandler) TopHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", maintenance.DefaultTopLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	metric := r.URL.Query().Get("metric")
	if metric == "" {
		metric = maintenance.MetricListens
	}
	top, err := h.catalog.TopBy(r.Context(), metric, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if top == nil {
		top = []maintenance.TopEntry{}
	}
	writeJSON(w, http.StatusOK, top)
}

// MissingFieldsHandler counts songs lacking each optional field.
func (h *APIHandler) MissingFieldsHandler(w http.ResponseWriter, r *http.Request) {
	fields, err := h.catalog.MissingFieldsSummary(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fields)
}

// ActivityHandler returns the latest uploads, votes and events.
func (h *APIHandler) ActivityHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	activity, err := h.catalog.RecentActivity(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, activity)
}

// ========== Maintenance ==========

// DuplicatesHandler reports likely duplicate songs.
func (h *APIHandler) DuplicatesHandler(w http.ResponseWriter, r *http.Request) {
	groups, err := h.catalog.FindDuplicates(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if groups == nil {
		groups = []maintenance.DuplicateGroup{}
	}
	writeJSON(w, http.StatusOK, groups)
}

// OrphansHandler compares the song table with the audio storage.
func (h *APIHandler) OrphansHandler(w http.ResponseWriter, r *http.Request) {
	if h.lister == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "no audio storage configured"})
		return
	}
	report, err := h.catalog.FindOrphanedFilesIn(r.Context(), h.lister)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// FixCaseHandler canonicalizes the casing of one dimension.
func (h *APIHandler) FixCaseHandler(w http.ResponseWriter, r *http.Request) {
	res, err := h.catalog.FixCase(r.Context(), mux.Vars(r)["dimension"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
