package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/phrazzld/jobscout-api/internal/api/shared"
	"github.com/phrazzld/jobscout-api/internal/events"
	"github.com/phrazzld/jobscout-api/internal/mocks"
	"github.com/phrazzld/jobscout-api/internal/task"
	"github.com/phrazzld/jobscout-api/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var validPDF = testutils.ResumePDF("Ada Lovelace", "Go engineer")

func TestSignupForm(t *testing.T) {
	h := NewSignupHandler(&mocks.MockEventEmitter{}, 5, testutils.DiscardLogger())

	rec := httptest.NewRecorder()
	h.Form(rec, httptest.NewRequest(http.MethodGet, "/signup", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `name="resume"`)
	assert.Contains(t, rec.Body.String(), "up to 5 MB")
}

func TestSignupSubmit(t *testing.T) {
	tests := []struct {
		name         string
		form         signupForm
		acceptJSON   bool
		wantStatus   int
		wantLocation string
		wantError    string
		wantQueued   bool
	}{
		{
			name:         "browser signup redirects to success",
			form:         signupForm{email: "ada@example.com", username: "ada", resume: validPDF},
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/success",
			wantQueued:   true,
		},
		{
			name:       "json signup is accepted",
			form:       signupForm{email: "ada@example.com", username: "ada", resume: validPDF},
			acceptJSON: true,
			wantStatus: http.StatusAccepted,
			wantQueued: true,
		},
		{
			name:       "invalid email",
			form:       signupForm{email: "not-an-email", username: "ada", resume: validPDF},
			acceptJSON: true,
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid Email: invalid email format",
		},
		{
			name:       "missing resume",
			form:       signupForm{email: "ada@example.com", username: "ada"},
			acceptJSON: true,
			wantStatus: http.StatusBadRequest,
			wantError:  "Résumé file is required",
		},
		{
			name:       "resume is not a pdf",
			form:       signupForm{email: "ada@example.com", username: "ada", fileName: "cv.docx", resume: []byte("PK\x03\x04 word document")},
			acceptJSON: true,
			wantStatus: http.StatusBadRequest,
			wantError:  "Résumé must be a PDF file",
		},
		{
			name:       "resume too large",
			form:       signupForm{email: "ada@example.com", username: "ada", resume: append(append([]byte{}, validPDF...), bytes.Repeat([]byte{' '}, 1<<20)...)},
			acceptJSON: true,
			wantStatus: http.StatusRequestEntityTooLarge,
			wantError:  "Résumé file is too large",
		},
		{
			name:         "browser errors redirect to the error page",
			form:         signupForm{email: "not-an-email", resume: validPDF},
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/error",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			emitter := &mocks.MockEventEmitter{}
			h := NewSignupHandler(emitter, 1, testutils.DiscardLogger())

			rec := httptest.NewRecorder()
			h.Submit(rec, newSignupRequest(t, tc.form, tc.acceptJSON))

			assert.Equal(t, tc.wantStatus, rec.Code)
			if tc.wantLocation != "" {
				assert.Equal(t, tc.wantLocation, rec.Header().Get("Location"))
			}
			if tc.wantError != "" {
				var resp shared.ErrorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, tc.wantError, resp.Error)
			}

			emitted := emitter.Emitted()
			if !tc.wantQueued {
				assert.Empty(t, emitted)
				return
			}
			require.Len(t, emitted, 1)
			assert.Equal(t, string(task.TypeUser), emitted[0].Type)

			var payload task.SignupPayload
			require.NoError(t, emitted[0].UnmarshalPayload(&payload))
			assert.Equal(t, "ada@example.com", payload.Email)
			assert.Equal(t, "ada", payload.Username)
			assert.Equal(t, validPDF, payload.ResumePDF)

			if tc.acceptJSON {
				var resp SignupResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, emitted[0].ID, resp.TaskID)
				assert.Equal(t, StatusQueued, resp.Status)
			}
		})
	}
}

func TestSignupDefaultsUsernameToEmailLocalPart(t *testing.T) {
	emitter := &mocks.MockEventEmitter{}
	h := NewSignupHandler(emitter, 1, testutils.DiscardLogger())

	rec := httptest.NewRecorder()
	h.Submit(rec, newSignupRequest(t, signupForm{email: " grace.hopper@example.com ", resume: validPDF}, false))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	require.Len(t, emitter.Emitted(), 1)
	var payload task.SignupPayload
	require.NoError(t, emitter.Emitted()[0].UnmarshalPayload(&payload))
	assert.Equal(t, "grace.hopper@example.com", payload.Email)
	assert.Equal(t, "grace.hopper", payload.Username)
}

func TestSignupRejectsNonMultipartBody(t *testing.T) {
	h := NewSignupHandler(&mocks.MockEventEmitter{}, 1, testutils.DiscardLogger())

	req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(`{"email":"ada@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h.Submit(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid signup form")
}

func TestSignupQueueUnavailable(t *testing.T) {
	emitter := &mocks.MockEventEmitter{
		EmitEventFn: func(context.Context, *events.TaskRequestEvent) error {
			return events.ErrNoHandlers
		},
	}
	h := NewSignupHandler(emitter, 1, testutils.DiscardLogger())

	rec := httptest.NewRecorder()
	h.Submit(rec, newSignupRequest(t, signupForm{email: "ada@example.com", resume: validPDF}, true))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var resp shared.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Service is busy, please try again later", resp.Error)
}
