package api

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type signupForm struct {
	email    string
	username string
	fileName string
	resume   []byte
}

func newSignupRequest(t *testing.T, form signupForm, acceptJSON bool) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("email", form.email))
	if form.username != "" {
		require.NoError(t, mw.WriteField("username", form.username))
	}
	if form.resume != nil {
		name := form.fileName
		if name == "" {
			name = "resume.pdf"
		}
		fw, err := mw.CreateFormFile("resume", name)
		require.NoError(t, err)
		_, err = fw.Write(form.resume)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/signup", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if acceptJSON {
		req.Header.Set("Accept", "application/json")
	}
	return req
}
