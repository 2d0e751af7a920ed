package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"screensync/internal/artifacts"
	"screensync/internal/config"
	"screensync/internal/events"
	"screensync/internal/logging"
	"screensync/internal/model"
	"screensync/internal/run"
	"screensync/internal/storage"
	"screensync/internal/vision"
)

func main() {
	var (
		configPath       = flag.String("config", "", "path to config file (yaml or json)")
		framesDir        = flag.String("frames", "", "directory of frame images named <t_video_ms>.<ext>")
		observationsPath = flag.String("observations", "", "replay a precomputed observations.jsonl instead of running vision")
		outDir           = flag.String("out", "", "output directory base (overrides config)")
		maxFrames        = flag.Int("max-frames", 0, "limit sampled frames for quick test runs")
	)
	flag.Parse()

	if err := realMain(*configPath, *framesDir, *observationsPath, *outDir, *maxFrames); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func realMain(configPath, framesDir, observationsPath, outDir string, maxFrames int) error {
	cfg := config.DefaultConfig()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if outDir != "" {
		cfg.Run.OutDir = outDir
	}
	if maxFrames > 0 {
		cfg.Video.MaxFrames = maxFrames
	}
	logger := logging.NewLogger(cfg.LogLevel, cfg.LogFormat)

	if framesDir == "" && observationsPath == "" {
		return fmt.Errorf("one of -frames or -observations is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := &run.Runner{
		Config:    cfg,
		Logger:    logger,
		VideoPath: framesDir,
	}

	if observationsPath != "" {
		replay, err := artifacts.ReadJSONL[model.Observation](observationsPath)
		if err != nil {
			return fmt.Errorf("load observations: %w", err)
		}
		runner.Replay = replay
	} else {
		// Exported frame dirs are already at the sampling cadence, so the
		// pipeline takes every file.
		src, err := vision.NewDirSource(framesDir, cfg.Video.SampleFPS, cfg.Video.FrameDirExtensions)
		if err != nil {
			return err
		}
		runner.Frames = src
	}

	if hasTelemetrySource(cfg.Telemetry) {
		adapter, err := events.NewAdapter(ctx, cfg.Telemetry, logger)
		if err != nil {
			return err
		}
		runner.Adapter = adapter
	} else {
		logger.Warn("no telemetry source configured, skipping event correlation")
	}

	store, err := storage.NewStore(cfg.Storage)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
		runner.Store = store
	}

	result, err := runner.Execute(ctx)
	if err != nil {
		return err
	}
	logger.Info("report written", "path", result.OutDir+"/report.md")
	return nil
}

func hasTelemetrySource(cfg config.TelemetryConfig) bool {
	switch cfg.Adapter {
	case "file":
		return cfg.File.Path != ""
	case "":
		return false
	default:
		return true
	}
}
