package api

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPing(t *testing.T) {
	ts := setupTestServer(t)

	resp, err := http.Get(ts.Server.URL + "/ping")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pong", string(body))
}

func TestUploadShot(t *testing.T) {
	tests := []struct {
		name           string
		mutate         func(*uploadForm)
		expectedStatus int
		expectFields   []string
	}{
		{
			name:           "valid upload",
			mutate:         func(*uploadForm) {},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "missing required fields together",
			mutate: func(f *uploadForm) {
				f.TeamShooting = ""
				f.Opponent = ""
				f.Filename = ""
			},
			expectedStatus: http.StatusBadRequest,
			expectFields:   []string{"team_shooting", "opponent", "video"},
		},
		{
			name:           "non-numeric minute",
			mutate:         func(f *uploadForm) { f.MatchMinute = "late" },
			expectedStatus: http.StatusBadRequest,
			expectFields:   []string{"match_minute"},
		},
		{
			name: "not an mp4",
			mutate: func(f *uploadForm) {
				f.Filename = "clip.avi"
				f.ContentType = "video/x-msvideo"
			},
			expectedStatus: http.StatusBadRequest,
			expectFields:   []string{"video"},
		},
		{
			name: "not an mp4 reported with missing fields",
			mutate: func(f *uploadForm) {
				f.TeamShooting = ""
				f.Opponent = ""
				f.Filename = "clip.avi"
				f.ContentType = "video/x-msvideo"
			},
			expectedStatus: http.StatusBadRequest,
			expectFields:   []string{"team_shooting", "opponent", "video"},
		},
		{
			name: "not an mp4 with bad minute",
			mutate: func(f *uploadForm) {
				f.MatchMinute = "200"
				f.Filename = "clip.avi"
				f.ContentType = "video/x-msvideo"
			},
			expectedStatus: http.StatusBadRequest,
			expectFields:   []string{"match_minute", "video"},
		},
		{
			name:           "empty video",
			mutate:         func(f *uploadForm) { f.Content = nil },
			expectedStatus: http.StatusBadRequest,
			expectFields:   []string{"video"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := setupTestServer(t)
			f := validUpload()
			tt.mutate(&f)

			resp, body := ts.upload(t, f)
			require.Equal(t, tt.expectedStatus, resp.StatusCode, body)

			if tt.expectedStatus == http.StatusCreated {
				id := body["shot_id"].(string)
				assert.Regexp(t, `^shot_[0-9a-f]{6}$`, id)

				shot, err := ts.Repo.Shot(context.Background(), id)
				require.NoError(t, err)
				assert.Equal(t, 63, shot.MatchMinute)
				assert.True(t, shot.NeedsReview)
				assert.Equal(t, "TBD", shot.AICertainty)
				return
			}
			assert.Equal(t, tt.expectFields, stringList(body["fields"]))

			shots, _, err := ts.Repo.Shots(context.Background())
			require.NoError(t, err)
			assert.Empty(t, shots)
		})
	}
}

func TestUploadShot_DuplicateConfirmation(t *testing.T) {
	for _, accept := range []bool{true, false} {
		name := "decline"
		if accept {
			name = "accept"
		}
		t.Run(name, func(t *testing.T) {
			ts := setupTestServer(t)
			ts.createShot(t, "Chelsea")

			resp, body := ts.upload(t, validUpload())
			require.Equal(t, http.StatusConflict, resp.StatusCode, body)
			confirmation := body["confirmation"].(map[string]any)
			token := confirmation["token"].(string)
			assert.Equal(t, "pending", confirmation["state"])
			assert.Len(t, stringList(confirmation["duplicate_of"]), 1)

			resp, body = ts.doJSON(t, http.MethodPost, "/shots/confirmations/"+token, map[string]bool{"accept": accept})
			shots, _, err := ts.Repo.Shots(context.Background())
			require.NoError(t, err)

			if accept {
				assert.Equal(t, http.StatusCreated, resp.StatusCode)
				assert.Equal(t, "created", body["outcome"])
				assert.Len(t, shots, 2)
			} else {
				assert.Equal(t, http.StatusOK, resp.StatusCode)
				assert.Equal(t, "cancelled", body["outcome"])
				assert.Len(t, shots, 1)
			}

			resp, _ = ts.doJSON(t, http.MethodPost, "/shots/confirmations/"+token, map[string]bool{"accept": true})
			assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		})
	}
}

func TestConfirmShot_BadRequests(t *testing.T) {
	ts := setupTestServer(t)

	resp, _ := ts.doJSON(t, http.MethodPost, "/shots/confirmations/unknown", map[string]bool{"accept": true})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body := ts.doJSON(t, http.MethodPost, "/shots/confirmations/unknown", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, []string{"accept"}, stringList(body["fields"]))
}

func TestQueue(t *testing.T) {
	ts := setupTestServer(t)
	older := ts.createShot(t, "Chelsea")

	f := validUpload()
	f.DateOfGame = "2025-03-05"
	resp, body := ts.upload(t, f)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	newer := body["shot_id"].(string)

	resp, body = ts.doJSON(t, http.MethodGet, "/shots/unannotated", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	shots := body["shots"].([]any)
	require.Len(t, shots, 2)
	assert.Equal(t, newer, shots[0].(map[string]any)["shot_id"])
	assert.Equal(t, older, shots[1].(map[string]any)["shot_id"])
}

func TestStreamVideo(t *testing.T) {
	ts := setupTestServer(t)
	id := ts.createShot(t, "Chelsea")

	tests := []struct {
		name         string
		rangeHeader  string
		expectStatus int
		expectBody   string
	}{
		{"full content", "", http.StatusOK, "fake mp4 content"},
		{"range request", "bytes=0-3", http.StatusPartialContent, "fake"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, ts.Server.URL+"/shots/"+id+"/video", nil)
			require.NoError(t, err)
			if tt.rangeHeader != "" {
				req.Header.Set("Range", tt.rangeHeader)
			}
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			body, _ := io.ReadAll(resp.Body)
			assert.Equal(t, tt.expectStatus, resp.StatusCode)
			assert.Equal(t, tt.expectBody, string(body))
			assert.Equal(t, "video/mp4", resp.Header.Get("Content-Type"))
			assert.Equal(t, "bytes", resp.Header.Get("Accept-Ranges"))
		})
	}
}

func TestStreamVideo_Missing(t *testing.T) {
	ts := setupTestServer(t)
	id := ts.createShot(t, "Chelsea")
	require.NoError(t, ts.Media.Delete(context.Background(), id))

	resp, body := ts.doJSON(t, http.MethodGet, "/shots/"+id+"/video", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.True(t, strings.Contains(body["warning"].(string), id))

	plain, err := http.Get(ts.Server.URL + "/shots/..hidden/video")
	require.NoError(t, err)
	plain.Body.Close()
	assert.Equal(t, http.StatusNotFound, plain.StatusCode)
}
