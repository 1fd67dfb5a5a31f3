package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kdimtricp/xgtag/internal/lifecycle"
	"github.com/kdimtricp/xgtag/internal/models"
	"github.com/kdimtricp/xgtag/internal/records"
	"github.com/kdimtricp/xgtag/internal/storage"
)

func (app *App) UploadShotHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, app.MaxUploadSize)

	if err := r.ParseMultipartForm(app.MaxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "file too large", Fields: []string{"video"}})
			return
		}
		app.badRequest(w, "invalid multipart form")
		return
	}

	fields := models.ShotFields{
		TeamShooting: r.FormValue("team_shooting"),
		Opponent:     r.FormValue("opponent"),
		DateOfGame:   r.FormValue("date_of_game"),
		MatchMinute:  parseMinute(r.FormValue("match_minute")),
		ShotLocation: r.FormValue("shot_location"),
		NeedsReview:  parseCheckbox(r.FormValue("needs_review")),
	}

	video, err := readVideo(r)
	if errors.Is(err, errUnsupportedVideo) {
		app.writeError(w, r, app.Lifecycle.Reject(fields, "video"))
		return
	}
	if err != nil {
		app.badRequest(w, err.Error(), "video")
		return
	}

	res, err := app.Lifecycle.Submit(r.Context(), fields, video)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	app.writeSubmitResult(w, res)
}

var errUnsupportedVideo = errors.New("only MP4 video files are allowed")

// readVideo returns the uploaded clip, or nil when none was attached so the
// missing field is reported alongside the others.
func readVideo(r *http.Request) ([]byte, error) {
	file, header, err := r.FormFile("video")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get file")
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".mp4" && contentType != "video/mp4" {
		return nil, errUnsupportedVideo
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file")
	}
	return data, nil
}

// parseMinute maps an unparseable value to -1 so it fails range validation.
func parseMinute(v string) int {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return -1
	}
	return n
}

func parseCheckbox(v string) bool {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "on") {
		return true
	}
	b, _ := strconv.ParseBool(v)
	return b
}

func (app *App) writeSubmitResult(w http.ResponseWriter, res lifecycle.SubmitResult) {
	switch res.Outcome {
	case lifecycle.OutcomeCreated:
		writeJSON(w, http.StatusCreated, res)
	case lifecycle.OutcomePending:
		writeJSON(w, http.StatusConflict, res)
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

type confirmRequest struct {
	Accept *bool `json:"accept"`
}

func (app *App) ConfirmShotHandler(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	var req confirmRequest
	if err := decodeJSON(r, &req); err != nil || req.Accept == nil {
		app.badRequest(w, `body must be {"accept": true|false}`, "accept")
		return
	}

	res, err := app.Lifecycle.Resolve(r.Context(), token, *req.Accept)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	app.writeSubmitResult(w, res)
}

func (app *App) QueueHandler(w http.ResponseWriter, r *http.Request) {
	queue, err := app.Projections.Unannotated(r.Context())
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, queue)
}

type missingVideoResponse struct {
	Error   string `json:"error"`
	Warning string `json:"warning"`
}

func (app *App) StreamVideoHandler(w http.ResponseWriter, r *http.Request) {
	shotID := chi.URLParam(r, "id")
	if err := records.ValidateID(shotID); err != nil {
		http.NotFound(w, r)
		return
	}

	exists, err := app.Media.Exists(r.Context(), shotID)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	if !exists {
		app.Log.Warn("Video file missing", "shot_id", shotID)
		writeJSON(w, http.StatusNotFound, missingVideoResponse{
			Error:   "video not found",
			Warning: fmt.Sprintf("video for %s is missing", shotID),
		})
		return
	}

	file, err := app.Media.Open(r.Context(), shotID)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", "video/mp4")

	// Seekable handles get Range support from ServeContent.
	if rs, ok := file.(io.ReadSeeker); ok {
		var modTime time.Time
		if f, ok := file.(interface{ Stat() (os.FileInfo, error) }); ok {
			if stat, err := f.Stat(); err == nil {
				modTime = stat.ModTime()
			}
		}
		http.ServeContent(w, r, storage.ObjectName(shotID), modTime, rs)
		return
	}

	if _, err := io.Copy(w, file); err != nil {
		app.Log.Warn("Video stream interrupted", "shot_id", shotID, "error", err)
	}
}
