package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel  string          `json:"log_level" yaml:"log_level"`
	LogFormat string          `json:"log_format" yaml:"log_format"`
	Run       RunConfig       `json:"run" yaml:"run"`
	Video     VideoConfig     `json:"video" yaml:"video"`
	Correlate CorrelateConfig `json:"correlate" yaml:"correlate"`
	Session   SessionConfig   `json:"session" yaml:"session"`
	Telemetry TelemetryConfig `json:"telemetry" yaml:"telemetry"`
	Control   ControlConfig   `json:"control" yaml:"control"`
	Storage   StorageConfig   `json:"storage" yaml:"storage"`
}

type RunConfig struct {
	RunID string `json:"run_id" yaml:"run_id"`
	// AppOpenVideoMS overrides APP_OPEN detection when >= 0. -1 means detect.
	AppOpenVideoMS int64  `json:"app_open_video_ms" yaml:"app_open_video_ms"`
	DeviceKey      string `json:"device_key" yaml:"device_key"`
	OutDir         string `json:"out_dir" yaml:"out_dir"`
	// EventLookaheadMS bounds the telemetry fetch window after app open.
	EventLookaheadMS int64 `json:"event_lookahead_ms" yaml:"event_lookahead_ms"`
}

type VideoConfig struct {
	SampleFPS          float64  `json:"sample_fps" yaml:"sample_fps"`
	EnableOCR          bool     `json:"enable_ocr" yaml:"enable_ocr"`
	OCRROI             *ROI     `json:"ocr_roi" yaml:"ocr_roi"`
	PlaybackMotionMin  float64  `json:"playback_motion_min" yaml:"playback_motion_min"`
	PausedMotionMax    float64  `json:"paused_motion_max" yaml:"paused_motion_max"`
	MotionDownscale    int      `json:"motion_downscale" yaml:"motion_downscale"`
	MaxFrames          int      `json:"max_frames" yaml:"max_frames"`
	FrameDirExtensions []string `json:"frame_dir_extensions" yaml:"frame_dir_extensions"`
}

// ROI is a normalized region of interest in [0,1] coordinates.
type ROI struct {
	X1 float64 `json:"x1" yaml:"x1"`
	Y1 float64 `json:"y1" yaml:"y1"`
	X2 float64 `json:"x2" yaml:"x2"`
	Y2 float64 `json:"y2" yaml:"y2"`
}

type CorrelateConfig struct {
	MaxDeltaMS     int64             `json:"max_delta_ms" yaml:"max_delta_ms"`
	AnchorWindowMS int64             `json:"anchor_window_ms" yaml:"anchor_window_ms"`
	KindToState    map[string]string `json:"kind_to_state" yaml:"kind_to_state"`
}

type SessionConfig struct {
	TopK     int   `json:"top_k" yaml:"top_k"`
	WindowMS int64 `json:"window_ms" yaml:"window_ms"`
}

type TelemetryConfig struct {
	Adapter    string           `json:"adapter" yaml:"adapter"`
	File       FileConfig       `json:"file" yaml:"file"`
	S3         S3Config         `json:"s3" yaml:"s3"`
	OpenSearch OpenSearchConfig `json:"opensearch" yaml:"opensearch"`
	Postgres   PostgresConfig   `json:"postgres" yaml:"postgres"`
	Kafka      KafkaConfig      `json:"kafka" yaml:"kafka"`
}

type FileConfig struct {
	Path string `json:"path" yaml:"path"`
}

type S3Config struct {
	Bucket string `json:"bucket" yaml:"bucket"`
	Prefix string `json:"prefix" yaml:"prefix"`
	Region string `json:"region" yaml:"region"`
}

type OpenSearchConfig struct {
	Host     string `json:"host" yaml:"host"`
	Index    string `json:"index" yaml:"index"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
}

type PostgresConfig struct {
	DSN   string `json:"dsn" yaml:"dsn"`
	Table string `json:"table" yaml:"table"`
}

type KafkaConfig struct {
	Brokers []string `json:"brokers" yaml:"brokers"`
	Topic   string   `json:"topic" yaml:"topic"`
	GroupID string   `json:"group_id" yaml:"group_id"`
	Limit   int      `json:"limit" yaml:"limit"`
}

type ControlConfig struct {
	Driver      string `json:"driver" yaml:"driver"`
	BlasterHost string `json:"blaster_host" yaml:"blaster_host"`
	BlasterPort int    `json:"blaster_port" yaml:"blaster_port"`
	DeviceID    string `json:"device_id" yaml:"device_id"`
}

type StorageConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Driver  string `json:"driver" yaml:"driver"`
	DSN     string `json:"dsn" yaml:"dsn"`
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "json",
		Run: RunConfig{
			RunID:            "run",
			AppOpenVideoMS:   -1,
			OutDir:           "runs",
			EventLookaheadMS: 300_000,
		},
		Video: VideoConfig{
			SampleFPS:          10.0,
			EnableOCR:          false,
			PlaybackMotionMin:  0.03,
			PausedMotionMax:    0.01,
			MotionDownscale:    4,
			FrameDirExtensions: []string{".png", ".jpg", ".jpeg"},
		},
		Correlate: CorrelateConfig{
			MaxDeltaMS:     5_000,
			AnchorWindowMS: 300_000,
		},
		Session: SessionConfig{
			TopK:     3,
			WindowMS: 30_000,
		},
		Telemetry: TelemetryConfig{Adapter: "file"},
		Control:   ControlConfig{Driver: "log", BlasterPort: 80},
		Storage:   StorageConfig{Enabled: false, Driver: "sqlite", DSN: "file:screensync.db?_pragma=busy_timeout(5000)"},
	}
}

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()

	trimmed := strings.TrimSpace(string(content))
	if len(trimmed) == 0 {
		return nil, errors.New("config file is empty")
	}
	var decodeErr error
	if looksLikeJSON(trimmed) {
		decodeErr = json.Unmarshal([]byte(trimmed), cfg)
	} else {
		decodeErr = yaml.Unmarshal([]byte(trimmed), cfg)
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	if path == "" || cfg == nil {
		return errors.New("config path or config is empty")
	}
	var data []byte
	var err error
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".json" {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func looksLikeJSON(s string) bool {
	for _, ch := range s {
		if ch == '{' || ch == '[' {
			return true
		}
		if ch > ' ' {
			return false
		}
	}
	return false
}

func applyDefaults(cfg *Config) {
	if cfg.Run.RunID == "" {
		cfg.Run.RunID = "run"
	}
	if cfg.Run.OutDir == "" {
		cfg.Run.OutDir = "runs"
	}
	if cfg.Run.EventLookaheadMS <= 0 {
		cfg.Run.EventLookaheadMS = 300_000
	}
	if cfg.Video.SampleFPS <= 0 {
		cfg.Video.SampleFPS = 10.0
	}
	if cfg.Video.MotionDownscale <= 0 {
		cfg.Video.MotionDownscale = 4
	}
	if cfg.Video.PlaybackMotionMin <= 0 {
		cfg.Video.PlaybackMotionMin = 0.03
	}
	if cfg.Video.PausedMotionMax <= 0 {
		cfg.Video.PausedMotionMax = 0.01
	}
	if len(cfg.Video.FrameDirExtensions) == 0 {
		cfg.Video.FrameDirExtensions = []string{".png", ".jpg", ".jpeg"}
	}
	if cfg.Correlate.MaxDeltaMS <= 0 {
		cfg.Correlate.MaxDeltaMS = 5_000
	}
	if cfg.Correlate.AnchorWindowMS <= 0 {
		cfg.Correlate.AnchorWindowMS = 300_000
	}
	if cfg.Session.TopK <= 0 {
		cfg.Session.TopK = 3
	}
	if cfg.Session.WindowMS <= 0 {
		cfg.Session.WindowMS = 30_000
	}
	if cfg.Telemetry.Adapter == "" {
		cfg.Telemetry.Adapter = "file"
	}
	if cfg.Control.Driver == "" {
		cfg.Control.Driver = "log"
	}
	if cfg.Control.BlasterPort <= 0 {
		cfg.Control.BlasterPort = 80
	}
}

func Validate(cfg *Config) error {
	if cfg.Video.PausedMotionMax > cfg.Video.PlaybackMotionMin {
		return fmt.Errorf("video.paused_motion_max (%v) must not exceed video.playback_motion_min (%v)",
			cfg.Video.PausedMotionMax, cfg.Video.PlaybackMotionMin)
	}
	if roi := cfg.Video.OCRROI; roi != nil {
		for _, v := range []float64{roi.X1, roi.Y1, roi.X2, roi.Y2} {
			if v < 0 || v > 1 {
				return errors.New("video.ocr_roi coordinates must be within [0,1]")
			}
		}
	}
	switch cfg.Telemetry.Adapter {
	case "file":
		// path may be empty; the run skips correlation in that case
	case "s3":
		if cfg.Telemetry.S3.Bucket == "" {
			return errors.New("telemetry.s3.bucket required for the s3 adapter")
		}
	case "opensearch":
		if cfg.Telemetry.OpenSearch.Host == "" || cfg.Telemetry.OpenSearch.Index == "" {
			return errors.New("telemetry.opensearch requires host and index")
		}
	case "postgres":
		if cfg.Telemetry.Postgres.DSN == "" || cfg.Telemetry.Postgres.Table == "" {
			return errors.New("telemetry.postgres requires dsn and table")
		}
	case "kafka":
		if len(cfg.Telemetry.Kafka.Brokers) == 0 || cfg.Telemetry.Kafka.Topic == "" {
			return errors.New("telemetry.kafka requires brokers and topic")
		}
	default:
		return fmt.Errorf("unknown telemetry adapter: %q", cfg.Telemetry.Adapter)
	}
	switch cfg.Control.Driver {
	case "log":
	case "blaster":
		if cfg.Control.BlasterHost == "" {
			return errors.New("control.blaster_host required for the blaster driver")
		}
	default:
		return fmt.Errorf("unknown control driver: %q", cfg.Control.Driver)
	}
	if cfg.Storage.Enabled {
		switch strings.ToLower(cfg.Storage.Driver) {
		case "sqlite", "postgres", "postgresql":
		default:
			return fmt.Errorf("unsupported storage driver: %q", cfg.Storage.Driver)
		}
	}
	return nil
}
