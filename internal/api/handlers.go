package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kdimtricp/xgtag/internal/lifecycle"
	"github.com/kdimtricp/xgtag/internal/logger"
	"github.com/kdimtricp/xgtag/internal/navigation"
	"github.com/kdimtricp/xgtag/internal/projections"
	"github.com/kdimtricp/xgtag/internal/records"
	"github.com/kdimtricp/xgtag/internal/storage"
)

type App struct {
	Lifecycle     *lifecycle.Manager
	Navigator     *navigation.Navigator
	Projections   *projections.Service
	Media         storage.Storage
	Log           *logger.Logger
	MaxUploadSize int64
}

type errorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

func (app *App) badRequest(w http.ResponseWriter, message string, fields ...string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: message, Fields: fields})
}

// writeError maps service errors to status codes.
func (app *App) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *lifecycle.ValidationError
	var ferr *navigation.FormError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Error(), Fields: verr.Fields()})
	case errors.As(err, &ferr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: ferr.Error(), Fields: ferr.Fields})
	case errors.Is(err, records.ErrInvalidID):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, records.ErrNotFound),
		errors.Is(err, storage.ErrMediaNotFound),
		errors.Is(err, lifecycle.ErrUnknownConfirmation):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, navigation.ErrNotEditing), errors.Is(err, navigation.ErrEditConflict):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		app.Log.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}
