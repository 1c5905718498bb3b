package main

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/jobscout-api/internal/api"
	"github.com/phrazzld/jobscout-api/internal/config"
	"github.com/phrazzld/jobscout-api/internal/mocks"
	"github.com/phrazzld/jobscout-api/internal/task"
	"github.com/phrazzld/jobscout-api/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testApplication(emitter *mocks.MockEventEmitter) *application {
	log := testutils.DiscardLogger()
	return &application{
		config: &config.Config{
			Server: config.ServerConfig{
				Port:        8080,
				LogLevel:    "info",
				PublicURL:   "https://jobscout.test",
				MaxUploadMB: 5,
			},
		},
		logger:        log,
		emitter:       emitter,
		subscriptions: &mocks.MockSubscriptionService{},
		manager:       task.NewManager(log),
		correlator:    task.NewCorrelator(log),
	}
}

func TestRouterRoutes(t *testing.T) {
	router := testApplication(&mocks.MockEventEmitter{}).setupRouter()

	tests := []struct {
		name         string
		path         string
		accept       string
		wantStatus   int
		wantBody     string
		wantLocation string
	}{
		{name: "ping", path: "/ping", wantStatus: http.StatusOK, wantBody: `"pong"`},
		{name: "health", path: "/health", wantStatus: http.StatusOK, wantBody: "OK"},
		{name: "queue stats", path: "/health/queues", wantStatus: http.StatusOK, wantBody: `"pending_results":0`},
		{name: "root redirects to signup", path: "/", wantStatus: http.StatusSeeOther, wantLocation: "/signup"},
		{name: "signup form", path: "/signup", wantStatus: http.StatusOK, wantBody: "<form"},
		{name: "success page", path: "/success", wantStatus: http.StatusOK},
		{name: "error page", path: "/error", wantStatus: http.StatusOK},
		{
			name:       "unsubscribe",
			path:       "/unsubscribe?token=ada@example.com",
			accept:     "application/json",
			wantStatus: http.StatusOK,
			wantBody:   `"email":"ada@example.com"`,
		},
		{name: "unknown route", path: "/missing", wantStatus: http.StatusNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.accept != "" {
				req.Header.Set("Accept", tc.accept)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			if tc.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tc.wantBody)
			}
			if tc.wantLocation != "" {
				assert.Equal(t, tc.wantLocation, rec.Header().Get("Location"))
			}
			assert.NotEmpty(t, rec.Header().Get("X-Trace-ID"))
		})
	}
}

func TestRouterSignupEmitsUserTask(t *testing.T) {
	emitter := &mocks.MockEventEmitter{}
	router := testApplication(emitter).setupRouter()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("email", "ada@example.com"))
	require.NoError(t, mw.WriteField("username", "ada"))
	fw, err := mw.CreateFormFile("resume", "resume.pdf")
	require.NoError(t, err)
	_, err = fw.Write(testutils.ResumePDF("Ada Lovelace", "Go engineer"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/signup", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var resp api.SignupResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, api.StatusQueued, resp.Status)

	emitted := emitter.Emitted()
	require.Len(t, emitted, 1)
	assert.Equal(t, string(task.TypeUser), emitted[0].Type)
	assert.Equal(t, resp.TaskID, emitted[0].ID)
}
