package httptransport

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"face-redaction-service/internal/entity"
	"face-redaction-service/internal/service"
)

type Handler struct {
	jobSvc    *service.JobService
	maxUpload int64
}

func NewHandler(jobSvc *service.JobService, maxUpload int64) *Handler {
	if maxUpload <= 0 {
		maxUpload = 25 << 20
	}
	return &Handler{jobSvc: jobSvc, maxUpload: maxUpload}
}

type submitResp struct {
	ID string `json:"id"`
}

type jobResp struct {
	ID        string          `json:"id"`
	State     entity.JobState `json:"state"`
	ResultRef *string         `json:"result_ref,omitempty"`
	Error     *string         `json:"error,omitempty"`
	CreatedAt string          `json:"created_at"`
	UpdatedAt string          `json:"updated_at"`
}

// SubmitJob godoc
// @Summary Submit an image for face redaction
// @Description Accepts a multipart form with an "image" part (JPEG/PNG) and an optional "overlay" part. Returns the job id immediately; processing is asynchronous.
// @Tags jobs
// @Accept mpfd
// @Produce json
// @Param image formData file true "image to redact"
// @Param overlay formData file false "overlay drawn over each face instead of a black rectangle"
// @Success 201 {object} submitResp
// @Failure 400 {object} apiError
// @Failure 500 {object} apiError
// @Router /jobs [post]
func (h *Handler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	imageData, imageName, err := formFile(r, "image")
	if err != nil {
		writeErr(w, http.StatusBadRequest, "image part is required")
		return
	}
	req := service.SubmitRequest{Filename: imageName, Image: imageData}

	if overlayData, overlayName, err := formFile(r, "overlay"); err == nil {
		req.Overlay = overlayData
		req.OverlayFilename = overlayName
	}

	id, err := h.jobSvc.Submit(r.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrUnsupportedType) {
			writeErr(w, http.StatusBadRequest, err.Error())
			return
		}
		writeErr(w, http.StatusInternalServerError, "submit failed")
		return
	}

	writeJSON(w, http.StatusCreated, submitResp{ID: id.String()})
}

// GetJob godoc
// @Summary Get job status by id
// @Tags jobs
// @Produce json
// @Param id path string true "job id (uuid)"
// @Success 200 {object} jobResp
// @Failure 400 {object} apiError
// @Failure 404 {object} apiError
// @Router /jobs/{id} [get]
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid id")
		return
	}

	job, err := h.jobSvc.Status(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeErr(w, http.StatusNotFound, "job not found")
			return
		}
		writeErr(w, http.StatusInternalServerError, "status lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, jobResp{
		ID:        job.ID.String(),
		State:     job.State,
		ResultRef: job.ResultRef,
		Error:     job.Error,
		CreatedAt: job.CreatedAt.Format(time.RFC3339),
		UpdatedAt: job.UpdatedAt.Format(time.RFC3339),
	})
}

// GetJobResult godoc
// @Summary Download the redacted image
// @Tags jobs
// @Produce png
// @Produce jpeg
// @Param id path string true "job id (uuid)"
// @Success 200 {file} binary
// @Failure 400 {object} apiError
// @Failure 404 {object} apiError
// @Failure 409 {object} apiError "job exists but has not completed"
// @Router /jobs/{id}/result [get]
func (h *Handler) GetJobResult(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid id")
		return
	}

	data, contentType, err := h.jobSvc.Fetch(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			writeErr(w, http.StatusNotFound, "job not found")
		case errors.Is(err, service.ErrNotReady):
			writeErr(w, http.StatusConflict, "job not completed")
		default:
			writeErr(w, http.StatusInternalServerError, "fetch failed")
		}
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func formFile(r *http.Request, field string) ([]byte, string, error) {
	f, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", err
	}
	return data, header.Filename, nil
}
