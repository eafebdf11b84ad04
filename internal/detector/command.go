package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os/exec"
	"time"

	"face-redaction-service/internal/entity"
)

// rawDetection matches the JSON a detector process emits per face:
// MTCNN-style box as [x, y, width, height] plus a confidence score.
type rawDetection struct {
	Box        [4]int  `json:"box"`
	Confidence float64 `json:"confidence"`
}

// Command runs an external detector process once per image. The image goes
// to the child's stdin as PNG; the child prints a JSON array of detections
// on stdout and exits.
type Command struct {
	// Argv is the detector invocation, binary first.
	Argv []string

	// MinConfidence drops detections below this score. Boxes that survive
	// are widened by Padding and get negative origins clamped, compensating
	// for the tight (sometimes out-of-frame) boxes the model reports.
	MinConfidence float64
	Padding       float64

	// Timeout caps one invocation; zero leaves the call unbounded.
	Timeout time.Duration
}

func (c *Command) Detect(ctx context.Context, img image.Image) ([]entity.FaceBox, error) {
	if len(c.Argv) == 0 {
		return nil, &DetectionError{Cause: fmt.Errorf("no detector command configured")}
	}

	var stdin bytes.Buffer
	if err := png.Encode(&stdin, img); err != nil {
		return nil, &DetectionError{Cause: fmt.Errorf("encode input: %w", err)}
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.Argv[0], c.Argv[1:]...)
	cmd.Stdin = &stdin
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &DetectionError{Cause: fmt.Errorf("detector process: %w (stderr: %s)", err, stderr.String())}
	}

	return ParseResult(stdout.Bytes(), c.MinConfidence, c.Padding)
}

// ParseResult decodes detector output and applies the confidence filter and
// box padding. Exposed separately so the wire format stays testable without
// spawning a process.
func ParseResult(data []byte, minConfidence, padding float64) ([]entity.FaceBox, error) {
	var raw []rawDetection
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &DetectionError{Cause: fmt.Errorf("decode detector output: %w", err)}
	}

	boxes := make([]entity.FaceBox, 0, len(raw))
	for _, det := range raw {
		if det.Confidence < minConfidence {
			continue
		}
		box := entity.FaceBox{
			X:          det.Box[0],
			Y:          det.Box[1],
			Width:      det.Box[2],
			Height:     det.Box[3],
			Confidence: det.Confidence,
		}
		boxes = append(boxes, box.Padded(padding))
	}
	return boxes, nil
}
