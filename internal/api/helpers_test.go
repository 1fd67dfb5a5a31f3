package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kdimtricp/xgtag/internal/lifecycle"
	"github.com/kdimtricp/xgtag/internal/logger"
	"github.com/kdimtricp/xgtag/internal/navigation"
	"github.com/kdimtricp/xgtag/internal/projections"
	"github.com/kdimtricp/xgtag/internal/records"
	"github.com/kdimtricp/xgtag/internal/storage"
)

type testServer struct {
	Server *httptest.Server
	App    *App
	Repo   *records.Repository
	Media  *storage.LocalStorage
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()

	fs, err := records.NewFileStore(filepath.Join(dir, "data"))
	require.NoError(t, err)
	media, err := storage.NewLocalStorage(filepath.Join(dir, "videos"))
	require.NoError(t, err)

	log := logger.Nop()
	repo := records.NewRepository(fs, log)
	manager := lifecycle.NewManager(repo, media, log)

	app := &App{
		Lifecycle:     manager,
		Navigator:     navigation.NewNavigator(repo, media, manager, log),
		Projections:   projections.NewService(repo),
		Media:         media,
		Log:           log,
		MaxUploadSize: 10 * 1024 * 1024,
	}

	server := httptest.NewServer(NewRouter(app))
	t.Cleanup(server.Close)

	return &testServer{Server: server, App: app, Repo: repo, Media: media}
}

type uploadForm struct {
	TeamShooting string
	Opponent     string
	DateOfGame   string
	MatchMinute  string
	ShotLocation string
	NeedsReview  string
	Filename     string
	ContentType  string
	Content      []byte
}

func validUpload() uploadForm {
	return uploadForm{
		TeamShooting: "Arsenal",
		Opponent:     "Chelsea",
		DateOfGame:   "2025-02-28",
		MatchMinute:  "63",
		ShotLocation: "Penalty Box",
		NeedsReview:  "on",
		Filename:     "clip.mp4",
		ContentType:  "video/mp4",
		Content:      []byte("fake mp4 content"),
	}
}

func createMultipartUpload(t *testing.T, f uploadForm) (io.Reader, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for name, value := range map[string]string{
		"team_shooting": f.TeamShooting,
		"opponent":      f.Opponent,
		"date_of_game":  f.DateOfGame,
		"match_minute":  f.MatchMinute,
		"shot_location": f.ShotLocation,
		"needs_review":  f.NeedsReview,
	} {
		require.NoError(t, writer.WriteField(name, value))
	}

	if f.Filename != "" {
		header := make(map[string][]string)
		header["Content-Disposition"] = []string{`form-data; name="video"; filename="` + f.Filename + `"`}
		header["Content-Type"] = []string{f.ContentType}
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(f.Content)
		require.NoError(t, err)
	}

	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func (ts *testServer) upload(t *testing.T, f uploadForm) (*http.Response, map[string]any) {
	t.Helper()
	body, contentType := createMultipartUpload(t, f)
	resp, err := http.Post(ts.Server.URL+"/shots", contentType, body)
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func (ts *testServer) createShot(t *testing.T, opponent string) string {
	t.Helper()
	f := validUpload()
	f.Opponent = opponent
	resp, body := ts.upload(t, f)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	return body["shot_id"].(string)
}

func (ts *testServer) doJSON(t *testing.T, method, path string, payload any) (*http.Response, map[string]any) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.Server.URL+path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(data) > 0 {
		require.NoError(t, json.Unmarshal(data, &out), "body: %s", data)
	}
	return out
}

func stringList(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, _ := item.(string)
		out = append(out, s)
	}
	return out
}
