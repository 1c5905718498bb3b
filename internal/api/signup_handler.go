package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/phrazzld/jobscout-api/internal/api/shared"
	"github.com/phrazzld/jobscout-api/internal/events"
	"github.com/phrazzld/jobscout-api/internal/platform/logger"
	"github.com/phrazzld/jobscout-api/internal/task"
)

// formOverhead is the room left for the text fields and multipart framing
// on top of the résumé size limit.
const formOverhead = 1 << 20

var pdfMagic = []byte("%PDF-")

// SignupHandler serves the signup form and queues submitted signups as
// user tasks.
type SignupHandler struct {
	emitter        events.EventEmitter
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewSignupHandler creates a SignupHandler accepting résumés of at most
// maxUploadMB megabytes.
func NewSignupHandler(emitter events.EventEmitter, maxUploadMB int, log *slog.Logger) *SignupHandler {
	return &SignupHandler{
		emitter:        emitter,
		maxUploadBytes: int64(maxUploadMB) << 20,
		logger:         log.With("component", "signup_handler"),
	}
}

// Form serves GET /signup.
func (h *SignupHandler) Form(w http.ResponseWriter, r *http.Request) {
	renderPage(w, r, http.StatusOK, "signup.html", pageData{
		Title:       "Sign up",
		MaxUploadMB: int(h.maxUploadBytes >> 20),
	})
}

// Submit serves POST /signup. Browsers are redirected to /success or
// /error; clients that accept JSON get 202 with the task ID or a JSON
// error.
func (h *SignupHandler) Submit(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	payload, err := h.parse(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	id, err := events.Emit(r.Context(), h.emitter, string(task.TypeUser), payload)
	if err != nil {
		h.fail(w, r, fmt.Errorf("failed to queue signup: %w", err))
		return
	}
	log.InfoContext(r.Context(), "signup queued", "task_id", id, "resume_bytes", len(payload.ResumePDF))

	if shared.WantsJSON(r) {
		shared.RespondWithJSON(w, r, http.StatusAccepted, SignupResponse{TaskID: id, Status: StatusQueued})
		return
	}
	http.Redirect(w, r, "/success", http.StatusSeeOther)
}

func (h *SignupHandler) parse(w http.ResponseWriter, r *http.Request) (task.SignupPayload, error) {
	var payload task.SignupPayload

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+formOverhead)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return payload, ErrResumeTooLarge
		}
		return payload, fmt.Errorf("%w: %w", ErrInvalidForm, err)
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	req := SignupRequest{
		Email:    strings.TrimSpace(r.FormValue("email")),
		Username: strings.TrimSpace(r.FormValue("username")),
	}
	if req.Username == "" {
		req.Username, _, _ = strings.Cut(req.Email, "@")
	}
	if err := shared.ValidateRequest(req); err != nil {
		return payload, err
	}

	pdf, err := h.readResume(r)
	if err != nil {
		return payload, err
	}

	return task.SignupPayload{Email: req.Email, Username: req.Username, ResumePDF: pdf}, nil
}

func (h *SignupHandler) readResume(r *http.Request) ([]byte, error) {
	file, header, err := r.FormFile("resume")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, ErrResumeMissing
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidForm, err)
	}
	defer func() { _ = file.Close() }()

	if header.Size > h.maxUploadBytes {
		return nil, ErrResumeTooLarge
	}
	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidForm, err)
	}
	if int64(len(data)) > h.maxUploadBytes {
		return nil, ErrResumeTooLarge
	}
	if len(data) == 0 {
		return nil, ErrResumeMissing
	}
	if !bytes.HasPrefix(data, pdfMagic) {
		return nil, ErrResumeNotPDF
	}
	return data, nil
}

func (h *SignupHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if shared.WantsJSON(r) {
		HandleAPIError(w, r, err)
		return
	}
	shared.LogError(r, MapErrorToStatusCode(err), "signup rejected", err)
	http.Redirect(w, r, "/error", http.StatusSeeOther)
}
