package api

import (
	"net/http"

	"github.com/kdimtricp/xgtag/internal/lifecycle"
)

type purgeResponse struct {
	lifecycle.PurgeReport
	Error string `json:"error,omitempty"`
}

// ClearAllHandler deletes every shot, annotation and video. Partial failures
// still report what was cleared.
func (app *App) ClearAllHandler(w http.ResponseWriter, r *http.Request) {
	report, err := app.Lifecycle.Purge(r.Context())
	app.Navigator.Cancel()
	if err != nil {
		app.Log.Error("Purge incomplete", "error", err)
		writeJSON(w, http.StatusInternalServerError, purgeResponse{PurgeReport: report, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, purgeResponse{PurgeReport: report})
}

func (app *App) ReconcileHandler(w http.ResponseWriter, r *http.Request) {
	report, err := app.Lifecycle.Reconcile(r.Context())
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
