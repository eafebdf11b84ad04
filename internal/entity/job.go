package entity

import (
	"image"
	"time"

	"github.com/google/uuid"
)

type JobState string

const (
	StatePending    JobState = "pending"
	StateProcessing JobState = "processing"
	StateCompleted  JobState = "completed"
	StateFailed     JobState = "failed"
)

// Terminal reports whether no further transition is possible.
func (s JobState) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Job is one redaction request, tracked end-to-end by its id. Ingress
// creates it in pending; the worker owns every transition after that.
type Job struct {
	ID         uuid.UUID `json:"id"`
	State      JobState  `json:"state"`
	InputRef   string    `json:"input_ref"`
	OverlayRef *string   `json:"overlay_ref,omitempty"`
	ResultRef  *string   `json:"result_ref,omitempty"`
	Error      *string   `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DetectionRecord is the immutable audit entry written once a job completes.
// ConfidenceScores holds one score per drawn box, in drawing order.
type DetectionRecord struct {
	Filename         string    `json:"filename"`
	Timestamp        time.Time `json:"timestamp"`
	NumFaces         int       `json:"num_faces"`
	ConfidenceScores []float64 `json:"confidence_scores"`
	ProcessingTime   float64   `json:"processing_time"` // seconds
	RedactionMethod  string    `json:"redaction_method"`
}

const (
	MethodRectangle = "rectangle"
	MethodImage     = "image"
)

// FaceBox is a single detection: pixel-space bounding box, origin top-left,
// plus the detector's confidence in [0,1].
type FaceBox struct {
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Confidence float64 `json:"confidence"`
}

func (b FaceBox) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// Padded widens the box by frac (0.1 => +10% width and height) keeping the
// top-left corner, then clamps a negative origin to zero. Detectors report
// slightly tight boxes and occasionally negative origins.
func (b FaceBox) Padded(frac float64) FaceBox {
	out := b
	out.Width = int(float64(b.Width) * (1 + frac))
	out.Height = int(float64(b.Height) * (1 + frac))
	if out.X < 0 {
		out.X = 0
	}
	if out.Y < 0 {
		out.Y = 0
	}
	return out
}
