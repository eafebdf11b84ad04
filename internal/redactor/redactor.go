// Package redactor paints over detected face regions. It is pure compute:
// no I/O, no state, inputs are never mutated.
package redactor

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/nfnt/resize"

	"face-redaction-service/internal/entity"
)

// Redactor draws over face boxes, either with a solid rectangle or with a
// scaled overlay image.
type Redactor struct {
	// RectColor is the fill used when no overlay is supplied.
	RectColor color.Color
}

func New() *Redactor {
	return &Redactor{RectColor: color.Black}
}

// Redact returns a new image with every box painted over. With a nil overlay
// each box is filled with RectColor; otherwise the overlay is stretched to
// the box's exact width and height and composited at the box origin, honoring
// the overlay's alpha channel when it has one (an opaque overlay is a plain
// paste). Boxes are drawn in the order given, so later boxes win at overlaps.
// Boxes are clipped to the image; a box entirely outside contributes nothing.
func (r *Redactor) Redact(img image.Image, boxes []entity.FaceBox, overlay image.Image) *image.RGBA {
	dst := image.NewRGBA(img.Bounds())
	draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)

	for _, box := range boxes {
		if box.Width <= 0 || box.Height <= 0 {
			continue
		}
		rect := box.Rect()
		clipped := rect.Intersect(dst.Bounds())
		if clipped.Empty() {
			continue
		}

		if overlay == nil {
			draw.Draw(dst, clipped, image.NewUniform(r.RectColor), image.Point{}, draw.Src)
			continue
		}

		// Stretch to cover the full box, then draw only the clipped part,
		// shifting the source origin by however much was cut off top/left.
		scaled := resize.Resize(uint(box.Width), uint(box.Height), overlay, resize.Bilinear)
		sp := scaled.Bounds().Min.Add(clipped.Min.Sub(rect.Min))
		draw.Draw(dst, clipped, scaled, sp, draw.Over)
	}
	return dst
}
