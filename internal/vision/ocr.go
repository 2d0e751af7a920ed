package vision

import (
	"image"
)

// TextExtractor pulls visible text out of a frame. Implementations live
// outside this module (system OCR binaries, cloud OCR); failures are local to
// the frame and never abort a run.
type TextExtractor interface {
	ExtractText(img image.Image) (string, error)
}

type TextExtractorFunc func(img image.Image) (string, error)

func (f TextExtractorFunc) ExtractText(img image.Image) (string, error) {
	return f(img)
}

// ROI is a normalized region of interest, coordinates in [0,1].
type ROI struct {
	X1, Y1, X2, Y2 float64
}

// CropROI returns the sub-image covered by the normalized region. A nil ROI
// returns the frame unchanged.
func CropROI(img image.Image, roi *ROI) image.Image {
	if roi == nil {
		return img
	}
	b := img.Bounds()
	w := float64(b.Dx())
	h := float64(b.Dy())
	x1 := b.Min.X + clampPx(roi.X1*w, w)
	y1 := b.Min.Y + clampPx(roi.Y1*h, h)
	x2 := b.Min.X + clampPx(roi.X2*w, w)
	y2 := b.Min.Y + clampPx(roi.Y2*h, h)
	if x2 <= x1 || y2 <= y1 {
		return img
	}
	rect := image.Rect(x1, y1, x2, y2)
	if sub, ok := img.(interface {
		SubImage(r image.Rectangle) image.Image
	}); ok {
		return sub.SubImage(rect)
	}
	return img
}

func clampPx(v, max float64) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return int(max)
	}
	return int(v)
}
