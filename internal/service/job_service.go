package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"face-redaction-service/internal/entity"
	"face-redaction-service/internal/repository/postgresql"
)

var (
	// ErrNotFound means the job id is unknown to the store.
	ErrNotFound = errors.New("job not found")
	// ErrNotReady means the job exists but has not completed. Distinct from
	// ErrNotFound so callers can keep polling.
	ErrNotReady = errors.New("job not ready")
	// ErrUnsupportedType rejects non JPEG/PNG submissions.
	ErrUnsupportedType = errors.New("unsupported image type")
)

// JobRepository is the store port (implementation: postgresql.JobRepository).
type JobRepository interface {
	Create(ctx context.Context, id uuid.UUID, inputRef string, overlayRef *string) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Job, error)
}

// WorkQueue is the enqueue-only port of the directory queue. Dropping the
// files IS the enqueue; the worker discovers them on its next scan.
type WorkQueue interface {
	Put(jobID uuid.UUID, ext string, data []byte) (string, error)
	PutOverlay(jobID uuid.UUID, ext string, data []byte) (string, error)
}

// JobService is the only surface external callers touch: submit a job,
// poll its status, fetch the finished artifact.
type JobService struct {
	repo  JobRepository
	queue WorkQueue
}

func NewJobService(repo JobRepository, queue WorkQueue) *JobService {
	return &JobService{repo: repo, queue: queue}
}

type SubmitRequest struct {
	Filename        string
	Image           []byte
	OverlayFilename string
	Overlay         []byte // nil means rectangle redaction
}

// Submit enqueues a new redaction job and returns its id immediately; it
// never waits for processing. Only the filename extension is checked here —
// undecodable bytes surface later as a failed job, which lets the caller see
// the error through the status API instead of losing it at upload time.
func (s *JobService) Submit(ctx context.Context, req SubmitRequest) (uuid.UUID, error) {
	ext, err := imageExt(req.Filename)
	if err != nil {
		return uuid.Nil, err
	}
	var overlayExt string
	if req.Overlay != nil {
		if overlayExt, err = imageExt(req.OverlayFilename); err != nil {
			return uuid.Nil, fmt.Errorf("overlay: %w", err)
		}
	}

	id := uuid.New()

	// Overlay first: once the input file lands the worker may pick the job
	// up on its very next scan, and by then the overlay must be in place.
	var overlayRef *string
	if req.Overlay != nil {
		ref, err := s.queue.PutOverlay(id, overlayExt, req.Overlay)
		if err != nil {
			return uuid.Nil, fmt.Errorf("enqueue overlay: %w", err)
		}
		overlayRef = &ref
	}
	inputRef, err := s.queue.Put(id, ext, req.Image)
	if err != nil {
		return uuid.Nil, fmt.Errorf("enqueue image: %w", err)
	}

	if err := s.repo.Create(ctx, id, inputRef, overlayRef); err != nil {
		return uuid.Nil, fmt.Errorf("create job record: %w", err)
	}
	return id, nil
}

// Status is a read-only lookup against the job store.
func (s *JobService) Status(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, postgresql.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

// Fetch returns the redacted image bytes and their content type once the job
// has completed.
func (s *JobService) Fetch(ctx context.Context, id uuid.UUID) ([]byte, string, error) {
	job, err := s.Status(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if job.State != entity.StateCompleted || job.ResultRef == nil {
		return nil, "", ErrNotReady
	}
	data, err := os.ReadFile(*job.ResultRef)
	if err != nil {
		return nil, "", fmt.Errorf("read result: %w", err)
	}
	return data, ContentTypeForExt(filepath.Ext(*job.ResultRef)), nil
}

func imageExt(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg", ".png":
		return ext, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}
}

// ContentTypeForExt maps a result extension to its MIME type.
func ContentTypeForExt(ext string) string {
	if strings.EqualFold(ext, ".png") {
		return "image/png"
	}
	return "image/jpeg"
}
