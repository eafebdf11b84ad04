package postgresql

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"face-redaction-service/internal/entity"
)

var ErrNotFound = errors.New("not found")

type JobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

func (r *JobRepository) Create(ctx context.Context, id uuid.UUID, inputRef string, overlayRef *string) error {
	const q = `
INSERT INTO jobs (id, state, input_ref, overlay_ref, created_at, updated_at)
VALUES ($1, 'pending', $2, $3, $4, $4);
`
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx, q, id, inputRef, overlayRef, now)
	return err
}

func (r *JobRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	const q = `
SELECT id, state, input_ref, overlay_ref, result_ref, error, created_at, updated_at
FROM jobs
WHERE id = $1;
`
	var (
		job       entity.Job
		stateText string
	)
	if err := r.pool.QueryRow(ctx, q, id).Scan(
		&job.ID,
		&stateText,
		&job.InputRef,
		&job.OverlayRef, // NULL => nil
		&job.ResultRef,  // NULL => nil
		&job.Error,      // NULL => nil
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	job.State = entity.JobState(stateText)
	return &job, nil
}

// MarkProcessing moves a pending job to processing. The state guard keeps the
// lifecycle one-directional: a job already past pending is left untouched.
func (r *JobRepository) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE jobs SET state='processing', updated_at=$2 WHERE id=$1 AND state='pending';`

	tag, err := r.pool.Exec(ctx, q, id, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *JobRepository) MarkCompleted(ctx context.Context, id uuid.UUID, resultRef string) error {
	const q = `
UPDATE jobs SET state='completed', result_ref=$2, error=NULL, updated_at=$3
WHERE id=$1 AND state IN ('pending','processing');
`
	tag, err := r.pool.Exec(ctx, q, id, resultRef, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *JobRepository) MarkFailed(ctx context.Context, id uuid.UUID, errText string) error {
	const q = `
UPDATE jobs SET state='failed', error=$2, result_ref=NULL, updated_at=$3
WHERE id=$1 AND state IN ('pending','processing');
`
	tag, err := r.pool.Exec(ctx, q, id, errText, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertDetection appends one immutable audit record. pgx maps []float64 to
// float8[] natively.
func (r *JobRepository) InsertDetection(ctx context.Context, rec entity.DetectionRecord) error {
	const q = `
INSERT INTO detections (filename, ts, num_faces, confidence_scores, processing_time, redaction_method)
VALUES ($1, $2, $3, $4, $5, $6);
`
	_, err := r.pool.Exec(ctx, q,
		rec.Filename,
		rec.Timestamp,
		rec.NumFaces,
		rec.ConfidenceScores,
		rec.ProcessingTime,
		rec.RedactionMethod,
	)
	return err
}
