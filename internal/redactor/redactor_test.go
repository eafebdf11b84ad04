package redactor

import (
	"image"
	"image/color"
	"testing"

	"github.com/nfnt/resize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"face-redaction-service/internal/entity"
)

func uniformImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

var (
	white = color.NRGBA{255, 255, 255, 255}
	red   = color.NRGBA{255, 0, 0, 255}
)

func TestRedactRectangleFillsExactBox(t *testing.T) {
	src := uniformImage(20, 20, white)
	box := entity.FaceBox{X: 5, Y: 5, Width: 6, Height: 4}

	out := New().Redact(src, []entity.FaceBox{box}, nil)

	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			r, g, b, a := out.At(x, y).RGBA()
			inside := x >= 5 && x < 11 && y >= 5 && y < 9
			if inside {
				assert.Equal(t, [4]uint32{0, 0, 0, 0xffff}, [4]uint32{r, g, b, a}, "pixel (%d,%d) should be sentinel black", x, y)
			} else {
				assert.Equal(t, [4]uint32{0xffff, 0xffff, 0xffff, 0xffff}, [4]uint32{r, g, b, a}, "pixel (%d,%d) should be untouched", x, y)
			}
		}
	}
}

func TestRedactDoesNotMutateInput(t *testing.T) {
	src := uniformImage(10, 10, white)
	New().Redact(src, []entity.FaceBox{{X: 0, Y: 0, Width: 10, Height: 10}}, nil)

	r, g, b, _ := src.At(5, 5).RGBA()
	assert.Equal(t, [3]uint32{0xffff, 0xffff, 0xffff}, [3]uint32{r, g, b})
}

func TestRedactClipsBoxToImageBounds(t *testing.T) {
	src := uniformImage(10, 10, white)
	// hangs off the bottom-right corner
	box := entity.FaceBox{X: 7, Y: 7, Width: 10, Height: 10}

	out := New().Redact(src, []entity.FaceBox{box}, nil)

	_, _, b, _ := out.At(8, 8).RGBA()
	assert.Zero(t, b, "clipped interior should be filled")
	r, _, _, _ := out.At(3, 3).RGBA()
	assert.Equal(t, uint32(0xffff), r, "outside the box stays white")
}

func TestRedactBoxFullyOutsideIsNoop(t *testing.T) {
	src := uniformImage(10, 10, white)
	box := entity.FaceBox{X: 50, Y: 50, Width: 5, Height: 5}

	out := New().Redact(src, []entity.FaceBox{box}, nil)

	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			r, _, _, _ := out.At(x, y).RGBA()
			require.Equal(t, uint32(0xffff), r, "pixel (%d,%d)", x, y)
		}
	}
}

func TestRedactOpaqueOverlayPastesExactly(t *testing.T) {
	src := uniformImage(20, 20, white)
	overlay := uniformImage(4, 4, red)
	box := entity.FaceBox{X: 2, Y: 3, Width: 8, Height: 5}

	out := New().Redact(src, []entity.FaceBox{box}, overlay)

	// an opaque overlay is pasted as-is: box pixels equal the overlay
	// scaled to the box's exact size
	scaled := resize.Resize(8, 5, overlay, resize.Bilinear)
	for y := 3; y < 8; y++ {
		for x := 2; x < 10; x++ {
			wantR, wantG, wantB, wantA := scaled.At(x-2, y-3).RGBA()
			r, g, b, a := out.At(x, y).RGBA()
			require.Equal(t, [4]uint32{wantR, wantG, wantB, wantA}, [4]uint32{r, g, b, a}, "pixel (%d,%d)", x, y)
		}
	}
	r, g, _, _ := out.At(0, 0).RGBA()
	assert.Equal(t, [2]uint32{0xffff, 0xffff}, [2]uint32{r, g})
}

func TestRedactTranslucentOverlayBlends(t *testing.T) {
	src := uniformImage(10, 10, white)
	overlay := uniformImage(2, 2, color.NRGBA{0, 255, 0, 128})
	box := entity.FaceBox{X: 0, Y: 0, Width: 10, Height: 10}

	out := New().Redact(src, []entity.FaceBox{box}, overlay)

	r, g, _, a := out.At(5, 5).RGBA()
	assert.Equal(t, uint32(0xffff), a, "result stays opaque")
	assert.Less(t, r, uint32(0xffff), "white background must shine through partially")
	assert.Greater(t, g, r, "green overlay must dominate its channel")
}

func TestRedactLaterBoxWinsOverlap(t *testing.T) {
	src := uniformImage(20, 10, white)
	// left half black, right half white
	overlay := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	overlay.SetNRGBA(0, 0, color.NRGBA{0, 0, 0, 255})
	overlay.SetNRGBA(1, 0, white)

	boxes := []entity.FaceBox{
		{X: 0, Y: 0, Width: 10, Height: 10},
		{X: 5, Y: 0, Width: 10, Height: 10},
	}
	out := New().Redact(src, boxes, overlay)

	// (5,2) is the white right half of box one but the black left edge of
	// box two; the later box must win.
	r, _, _, _ := out.At(5, 2).RGBA()
	assert.Less(t, r, uint32(0x3000), "overlap should show the later box's overlay")
}

func TestRedactIsDeterministic(t *testing.T) {
	src := uniformImage(16, 16, white)
	overlay := uniformImage(3, 3, red)
	boxes := []entity.FaceBox{
		{X: 1, Y: 1, Width: 7, Height: 7},
		{X: 4, Y: 4, Width: 9, Height: 9},
	}

	first := New().Redact(src, boxes, overlay)
	second := New().Redact(src, boxes, overlay)
	assert.Equal(t, first.Pix, second.Pix, "same image and boxes must give byte-identical output")
}

func TestRedactRectangleIsIdempotent(t *testing.T) {
	src := uniformImage(12, 12, white)
	boxes := []entity.FaceBox{{X: 2, Y: 2, Width: 5, Height: 5}}

	once := New().Redact(src, boxes, nil)
	twice := New().Redact(once, boxes, nil)
	assert.Equal(t, once.Pix, twice.Pix)
}

func TestRedactZeroBoxesLeavesImageUnchanged(t *testing.T) {
	src := uniformImage(8, 8, red)
	out := New().Redact(src, nil, nil)

	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			r, g, b, a := out.At(x, y).RGBA()
			require.Equal(t, [4]uint32{0xffff, 0, 0, 0xffff}, [4]uint32{r, g, b, a}, "pixel (%d,%d)", x, y)
		}
	}
}
