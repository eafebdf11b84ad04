// Package detector wraps the external face-detection capability behind a
// stable interface. The model itself is a black box that takes an image and
// returns bounding boxes with confidence scores.
package detector

import (
	"context"
	"fmt"
	"image"

	"face-redaction-service/internal/entity"
)

// Detector finds faces in an image. Implementations must never mutate the
// input image, and must treat zero faces as a valid, non-error outcome.
type Detector interface {
	Detect(ctx context.Context, img image.Image) ([]entity.FaceBox, error)
}

// DetectionError wraps an internal model failure. The adapter makes no retry
// attempts; retry policy belongs to the caller.
type DetectionError struct {
	Cause error
}

func (e *DetectionError) Error() string {
	return fmt.Sprintf("detection failed: %v", e.Cause)
}

func (e *DetectionError) Unwrap() error { return e.Cause }
