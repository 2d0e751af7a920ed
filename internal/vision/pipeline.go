package vision

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"math"

	"screensync/internal/model"
)

const (
	confidenceKnown   = 0.85
	confidenceUnknown = 0.35
)

type Config struct {
	SampleFPS       float64
	Classifier      ClassifierConfig
	OCR             TextExtractor // nil disables text extraction
	OCRROI          *ROI
	MotionDownscale int
	MaxFrames       int // 0 means unbounded
}

// Pipeline turns a frame stream into an ordered Observation sequence. The only
// state carried across frames is the previous sampled frame inside the motion
// tracker.
type Pipeline struct {
	cfg    Config
	motion *MotionTracker
	logger *slog.Logger
}

func NewPipeline(cfg Config, logger *slog.Logger) *Pipeline {
	if cfg.SampleFPS <= 0 {
		cfg.SampleFPS = 10.0
	}
	return &Pipeline{
		cfg:    cfg,
		motion: NewMotionTracker(cfg.MotionDownscale),
		logger: logger,
	}
}

// SampleStep returns the frame decimation step. Decimation only: the step is
// never below 1, so the source is never upsampled.
func SampleStep(srcFPS, targetFPS float64) int {
	if srcFPS <= 0 {
		srcFPS = 30.0
	}
	if targetFPS <= 0 {
		targetFPS = srcFPS
	}
	step := int(math.Round(srcFPS / targetFPS))
	if step < 1 {
		step = 1
	}
	return step
}

// Observe classifies one sampled frame.
func (p *Pipeline) Observe(tVideoMS int64, img image.Image) model.Observation {
	signals := make(map[string]any)

	motion, hasMotion := p.motion.Update(img)
	if hasMotion {
		signals["motion"] = motion
	}

	var text string
	if p.cfg.OCR != nil {
		extracted, err := p.cfg.OCR.ExtractText(CropROI(img, p.cfg.OCRROI))
		if err != nil {
			if p.logger != nil {
				p.logger.Debug("text extraction failed", "t_video_ms", tVideoMS, "err", err)
			}
		} else {
			text = extracted
		}
	}
	if text != "" {
		signals["ocr_text"] = text
	}

	// No motion signal classifies as motion == 0.
	state := Classify(text, motion, p.cfg.Classifier)
	conf := confidenceUnknown
	if state != model.StateUnknown {
		conf = confidenceKnown
	}
	return model.Observation{
		TVideoMS:   tVideoMS,
		State:      state,
		Confidence: conf,
		Signals:    signals,
		OCRText:    text,
	}
}

// Run drains the frame source, sampling at the configured cadence. Frame
// source errors are fatal; the partial observation list is discarded.
func (p *Pipeline) Run(src FrameSource) ([]model.Observation, error) {
	step := SampleStep(src.FPS(), p.cfg.SampleFPS)
	observations := make([]model.Observation, 0, 256)
	frameIdx := 0
	for {
		fr, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read frame: %w", err)
		}
		if frameIdx%step == 0 {
			observations = append(observations, p.Observe(fr.TVideoMS, fr.Image))
			if p.cfg.MaxFrames > 0 && len(observations) >= p.cfg.MaxFrames {
				break
			}
		}
		frameIdx++
	}
	return observations, nil
}
