package server

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"

	"hastingtx/config"
	"hastingtx/core/auth"
	"hastingtx/core/catalog"
	"hastingtx/logger"
	"hastingtx/model"
	"hastingtx/storage"

	"github.com/gorilla/mux"
)

// APIHandler serves the catalog over HTTP.
type APIHandler struct {
	catalog *catalog.Catalog
	lister  storage.FileLister
	cfg     *config.Config
}

// NewAPIHandler creates the handler set. lister may be nil, in which case
// orphan detection is unavailable.
func NewAPIHandler(cat *catalog.Catalog, lister storage.FileLister, cfg *config.Config) *APIHandler {
	return &APIHandler{
		catalog: cat,
		lister:  lister,
		cfg:     cfg,
	}
}

// errorResponse is the body of every non-2xx JSON response.
type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to encode response", logger.ErrorField(err))
	}
}

// statusFor maps catalog errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrDuplicate), errors.Is(err, model.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, model.ErrCycle):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		resp.Field = verr.Field
	}
	if status == http.StatusInternalServerError {
		logger.Error("Request failed",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.ErrorField(err))
		resp = errorResponse{Error: "internal server error"}
	}
	writeJSON(w, status, resp)
}

// decodeJSON reads the request body into v. Unknown fields are rejected.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return model.NewValidation("", "invalid request body: %v", err)
	}
	return nil
}

// pathID parses the {name} route variable as a positive id.
func pathID(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, model.NewValidation(name, "invalid id %q", raw)
	}
	return id, nil
}

// queryInt returns the integer query parameter name or fallback when absent.
func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, model.NewValidation(name, "must be a non-negative integer")
	}
	return n, nil
}

// clientIP returns the host part of the connection's remote address.
// Forwarding headers are not consulted.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// AdminMiddleware rejects requests whose origin is not on the admin whitelist.
func (h *APIHandler) AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.isAdmin(r) {
			logger.Warn("Admin access denied",
				logger.String("ip", clientIP(r)),
				logger.String("path", r.URL.Path))
			writeJSON(w, http.StatusForbidden, errorResponse{Error: "access denied: IP not whitelisted"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// isAdmin reports whether r comes from a whitelisted origin.
func (h *APIHandler) isAdmin(r *http.Request) bool {
	return auth.IsOriginAllowed(clientIP(r), h.cfg.AdminIPWhitelist)
}

// HealthHandler reports liveness.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type visitRequest struct {
	Page string `json:"page"`
}

// VisitHandler records a page view by the caller.
func (h *APIHandler) VisitHandler(w http.ResponseWriter, r *http.Request) {
	var req visitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.catalog.RecordVisit(r.Context(), clientIP(r), req.Page); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
