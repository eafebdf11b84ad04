package worker

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"face-redaction-service/internal/detector"
	"face-redaction-service/internal/entity"
	"face-redaction-service/internal/queue"
	"face-redaction-service/internal/redactor"
)

// JobRepo is the store port the worker needs (implementation:
// postgresql.JobRepository).
type JobRepo interface {
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	MarkCompleted(ctx context.Context, id uuid.UUID, resultRef string) error
	MarkFailed(ctx context.Context, id uuid.UUID, errText string) error
	InsertDetection(ctx context.Context, rec entity.DetectionRecord) error
}

// Processor runs one work item through detect -> redact -> persist ->
// record -> archive.
type Processor struct {
	repo JobRepo
	dir  *queue.Dir
	det  detector.Detector
	red  *redactor.Redactor

	// defaultOverlay applies to jobs that bring no overlay of their own.
	// nil means rectangle redaction.
	defaultOverlay image.Image

	log *logrus.Entry
}

func NewProcessor(repo JobRepo, dir *queue.Dir, det detector.Detector, red *redactor.Redactor, defaultOverlay image.Image) *Processor {
	return &Processor{
		repo:           repo,
		dir:            dir,
		det:            det,
		red:            red,
		defaultOverlay: defaultOverlay,
		log:            logrus.WithField("component", "worker"),
	}
}

// Process handles a single queue entry. Per-job failures mark the job failed
// and archive the input; they are never returned upward, so one bad image
// can't halt the scan. Store errors alone never fail a job: the redacted
// artifact is still produced and the miss is logged (best-effort durability).
func (p *Processor) Process(ctx context.Context, e queue.Entry) {
	log := p.log.WithField("job_id", e.JobID)

	if err := p.repo.MarkProcessing(ctx, e.JobID); err != nil {
		storeErrors.Inc()
		log.WithError(err).Warn("mark processing failed, continuing without store")
	}

	start := time.Now()

	img, err := loadImage(e.Path)
	if err != nil {
		p.fail(ctx, log, e, fmt.Errorf("decode input: %w", err))
		return
	}

	overlay := p.defaultOverlay
	if e.OverlayPath != "" {
		overlay, err = loadImage(e.OverlayPath)
		if err != nil {
			p.fail(ctx, log, e, fmt.Errorf("decode overlay: %w", err))
			return
		}
	}
	method := entity.MethodRectangle
	if overlay != nil {
		method = entity.MethodImage
	}

	boxes, err := p.det.Detect(ctx, img)
	if err != nil {
		p.fail(ctx, log, e, err)
		return
	}

	redacted := p.red.Redact(img, boxes, overlay)

	data, err := encodeImage(redacted, e.Ext)
	if err != nil {
		p.fail(ctx, log, e, fmt.Errorf("encode result: %w", err))
		return
	}
	resultRef, err := p.dir.WriteResult(e.JobID, e.Ext, data)
	if err != nil {
		p.fail(ctx, log, e, fmt.Errorf("write result: %w", err))
		return
	}

	elapsed := time.Since(start)

	scores := make([]float64, 0, len(boxes))
	for _, b := range boxes {
		scores = append(scores, b.Confidence)
	}
	rec := entity.DetectionRecord{
		Filename:         filepath.Base(e.Path),
		Timestamp:        time.Now().UTC(),
		NumFaces:         len(boxes),
		ConfidenceScores: scores,
		ProcessingTime:   elapsed.Seconds(),
		RedactionMethod:  method,
	}
	if err := p.repo.InsertDetection(ctx, rec); err != nil {
		storeErrors.Inc()
		log.WithError(err).Warn("insert detection record failed")
	}
	if err := p.repo.MarkCompleted(ctx, e.JobID, resultRef); err != nil {
		storeErrors.Inc()
		log.WithError(err).Warn("mark completed failed")
	}

	if err := p.dir.Archive(e); err != nil {
		log.WithError(err).Error("archive input failed")
	}

	jobsProcessed.WithLabelValues("completed").Inc()
	log.WithFields(logrus.Fields{
		"num_faces":   len(boxes),
		"method":      method,
		"duration_ms": elapsed.Milliseconds(),
	}).Info("job completed")
}

// fail marks the job failed and still archives the input so it is never
// retried automatically. No detection record is written for failed jobs.
func (p *Processor) fail(ctx context.Context, log *logrus.Entry, e queue.Entry, cause error) {
	if err := p.repo.MarkFailed(ctx, e.JobID, cause.Error()); err != nil {
		storeErrors.Inc()
		log.WithError(err).Warn("mark failed failed")
	}
	if err := p.dir.Archive(e); err != nil {
		log.WithError(err).Error("archive input failed")
	}
	jobsProcessed.WithLabelValues("failed").Inc()
	log.WithError(cause).Info("job failed")
}

// LoadOverlay reads the worker-level default overlay. A missing or
// undecodable file downgrades to rectangle redaction rather than refusing to
// start.
func LoadOverlay(path string) image.Image {
	img, err := loadImage(path)
	if err != nil {
		logrus.WithError(err).WithField("path", path).Warn("default overlay unusable, falling back to rectangles")
		return nil
	}
	return img
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

// encodeImage matches the input's container: JPEG in, JPEG out; PNG
// otherwise.
func encodeImage(img image.Image, ext string) ([]byte, error) {
	var buf bytes.Buffer
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
			return nil, err
		}
	default:
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
