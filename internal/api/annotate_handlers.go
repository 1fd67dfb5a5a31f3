package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/kdimtricp/xgtag/internal/models"
)

func (app *App) EnterAnnotateHandler(w http.ResponseWriter, r *http.Request) {
	state, err := app.Navigator.Enter(r.Context(), r.URL.Query().Get("shot_id"))
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

type selectRequest struct {
	ShotID string `json:"shot_id"`
}

func (app *App) SelectShotHandler(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := decodeJSON(r, &req); err != nil {
		app.badRequest(w, "invalid JSON body")
		return
	}
	if req.ShotID == "" {
		app.badRequest(w, "shot_id is required", "shot_id")
		return
	}

	state, err := app.Navigator.Select(r.Context(), req.ShotID)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

var errInvalidBody = errors.New("invalid JSON body")

// SubmitAnnotationHandler applies the posted fields over the open form, so a
// client may send only the fields it changed.
func (app *App) SubmitAnnotationHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		app.badRequest(w, "failed to read body")
		return
	}

	saved, err := app.Navigator.Edit(r.Context(), func(form *models.Annotation) error {
		if err := json.Unmarshal(body, form); err != nil {
			return errInvalidBody
		}
		return nil
	})
	if errors.Is(err, errInvalidBody) {
		app.badRequest(w, err.Error())
		return
	}
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (app *App) CancelAnnotateHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, app.Navigator.Cancel())
}

func (app *App) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	summary, err := app.Projections.Summary(r.Context())
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
