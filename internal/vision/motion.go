package vision

import (
	"image"
	"image/color"
)

type grayPlane struct {
	w, h int
	pix  []uint8
}

func downsampleGray(img image.Image, downscale int) grayPlane {
	if downscale < 1 {
		downscale = 1
	}
	b := img.Bounds()
	w := b.Dx() / downscale
	h := b.Dy() / downscale
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	p := grayPlane{w: w, h: h, pix: make([]uint8, w*h)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := img.At(b.Min.X+x*downscale, b.Min.Y+y*downscale)
			p.pix[y*w+x] = color.GrayModel.Convert(c).(color.Gray).Y
		}
	}
	return p
}

// meanAbsDiff compares two grayscale planes over their shared area and returns
// the mean absolute pixel difference normalized to [0,1].
func meanAbsDiff(a, b grayPlane) float64 {
	w := a.w
	if b.w < w {
		w = b.w
	}
	h := a.h
	if b.h < h {
		h = b.h
	}
	if w == 0 || h == 0 {
		return 0
	}
	var sum int64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			d := int(a.pix[y*a.w+x]) - int(b.pix[y*b.w+x])
			if d < 0 {
				d = -d
			}
			sum += int64(d)
		}
	}
	return float64(sum) / float64(w*h) / 255.0
}

// MotionTracker scores motion between consecutive sampled frames. The first
// frame seeds the tracker and yields no score.
type MotionTracker struct {
	downscale int
	prev      *grayPlane
}

func NewMotionTracker(downscale int) *MotionTracker {
	if downscale < 1 {
		downscale = 4
	}
	return &MotionTracker{downscale: downscale}
}

func (t *MotionTracker) Update(img image.Image) (float64, bool) {
	curr := downsampleGray(img, t.downscale)
	if t.prev == nil {
		t.prev = &curr
		return 0, false
	}
	score := meanAbsDiff(*t.prev, curr)
	t.prev = &curr
	return score, true
}

func (t *MotionTracker) Reset() {
	t.prev = nil
}
