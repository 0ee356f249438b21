package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hastingtx/config"
	"hastingtx/logger"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// corsMiddleware allows the API to be called from any origin.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS, HEAD")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// requestLogMiddleware tags every request with an id and logs its outcome.
func requestLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		logger.Debug("HTTP request",
			logger.String("request_id", id),
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", rec.status),
			logger.Duration("elapsed", time.Since(start)))
	})
}

// NewRouter builds the route table. Routes under /api/admin are limited to
// whitelisted origins.
func NewRouter(h *APIHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(corsMiddleware, requestLogMiddleware)

	router.HandleFunc("/healthz", h.HealthHandler).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	// Preflight; corsMiddleware answers before this handler runs.
	router.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(http.ResponseWriter, *http.Request) {})

	// Public catalog
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/songs", h.ListSongsHandler).Methods(http.MethodGet)
	api.HandleFunc("/songs/{id:[0-9]+}", h.GetSongHandler).Methods(http.MethodGet)
	api.HandleFunc("/songs/{id:[0-9]+}/rating", h.RatingHandler).Methods(http.MethodGet)
	api.HandleFunc("/songs/{id:[0-9]+}/rating", h.RateSongHandler).Methods(http.MethodPost)
	api.HandleFunc("/songs/{id:[0-9]+}/play", h.PlayHandler).Methods(http.MethodPost)
	api.HandleFunc("/songs/{id:[0-9]+}/download", h.DownloadHandler).Methods(http.MethodPost)
	api.HandleFunc("/playlists", h.ListPlaylistsHandler).Methods(http.MethodGet)
	api.HandleFunc("/playlists/{identifier}", h.GetPlaylistHandler).Methods(http.MethodGet)
	api.HandleFunc("/playlists/{identifier}/m3u", h.PlaylistM3UHandler).Methods(http.MethodGet)
	api.HandleFunc("/albums", h.ListAlbumsHandler).Methods(http.MethodGet)
	api.HandleFunc("/albums/{name}", h.AlbumSongsHandler).Methods(http.MethodGet)
	api.HandleFunc("/genres", h.ListGenresHandler).Methods(http.MethodGet)
	api.HandleFunc("/genres/{name}/songs", h.GenreSongsHandler).Methods(http.MethodGet)
	api.HandleFunc("/tags", h.ListTagsHandler).Methods(http.MethodGet)
	api.HandleFunc("/visit", h.VisitHandler).Methods(http.MethodPost)

	// Admin
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(h.AdminMiddleware)
	admin.HandleFunc("/songs", h.CreateSongHandler).Methods(http.MethodPost)
	admin.HandleFunc("/songs/album", h.SetAlbumHandler).Methods(http.MethodPost)
	admin.HandleFunc("/songs/genre", h.SetGenreHandler).Methods(http.MethodPost)
	admin.HandleFunc("/songs/{id:[0-9]+}", h.UpdateSongHandler).Methods(http.MethodPatch)
	admin.HandleFunc("/songs/{id:[0-9]+}", h.DeleteSongHandler).Methods(http.MethodDelete)
	admin.HandleFunc("/songs/{id:[0-9]+}/tags", h.SetSongTagsHandler).Methods(http.MethodPut)

	admin.HandleFunc("/playlists", h.CreatePlaylistHandler).Methods(http.MethodPost)
	admin.HandleFunc("/playlists/{identifier}", h.UpdatePlaylistHandler).Methods(http.MethodPatch)
	admin.HandleFunc("/playlists/{identifier}", h.DeletePlaylistHandler).Methods(http.MethodDelete)
	admin.HandleFunc("/playlists/{identifier}/songs", h.AddPlaylistSongHandler).Methods(http.MethodPost)
	admin.HandleFunc("/playlists/{identifier}/songs", h.SetPlaylistSongsHandler).Methods(http.MethodPut)
	admin.HandleFunc("/playlists/{identifier}/songs/{songId:[0-9]+}", h.RemovePlaylistSongHandler).Methods(http.MethodDelete)
	admin.HandleFunc("/playlists/{identifier}/order", h.ReorderPlaylistHandler).Methods(http.MethodPut)

	admin.HandleFunc("/genres", h.AllGenresHandler).Methods(http.MethodGet)
	admin.HandleFunc("/genres", h.CreateGenreHandler).Methods(http.MethodPost)
	admin.HandleFunc("/genres/{name}/parent", h.SetGenreParentHandler).Methods(http.MethodPut)
	admin.HandleFunc("/genres/{name}", h.DeleteGenreHandler).Methods(http.MethodDelete)

	admin.HandleFunc("/albums/merge", h.MergeAlbumsHandler).Methods(http.MethodPost)
	admin.HandleFunc("/albums/{name}", h.RenameAlbumHandler).Methods(http.MethodPut)

	admin.HandleFunc("/stats/overview", h.OverviewHandler).Methods(http.MethodGet)
	admin.HandleFunc("/stats/top", h.TopHandler).Methods(http.MethodGet)
	admin.HandleFunc("/stats/missing", h.MissingFieldsHandler).Methods(http.MethodGet)
	admin.HandleFunc("/stats/activity", h.ActivityHandler).Methods(http.MethodGet)

	admin.HandleFunc("/maintenance/duplicates", h.DuplicatesHandler).Methods(http.MethodGet)
	admin.HandleFunc("/maintenance/orphans", h.OrphansHandler).Methods(http.MethodGet)
	admin.HandleFunc("/maintenance/fix-case/{dimension}", h.FixCaseHandler).Methods(http.MethodPost)

	// Audio files on local disk
	router.PathPrefix(uploadsPath).Handler(http.StripPrefix(uploadsPath, http.FileServer(http.Dir(h.cfg.UploadFolder))))

	return router
}

// Run serves h on cfg.ServerAddr until SIGINT or SIGTERM, then shuts down
// gracefully.
func Run(cfg *config.Config, h *APIHandler) error {
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      NewRouter(h),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", logger.String("addr", cfg.ServerAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-stop:
	}
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return err
	}

	logger.Info("Server stopped")
	return nil
}
