// Package control sends remote-control commands and verifies their effect
// through the vision pipeline.
package control

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"screensync/internal/config"
	"screensync/internal/model"
)

// Driver sends one remote-control command. Implementations are selected by
// configuration; a send is never assumed to have worked until the vision
// pipeline confirms a state change.
type Driver interface {
	Send(ctx context.Context, command model.Command) error
}

func NewDriver(cfg config.ControlConfig, logger *slog.Logger) (Driver, error) {
	switch cfg.Driver {
	case "log":
		return &LogDriver{Logger: logger}, nil
	case "blaster":
		return &HTTPBlasterDriver{
			Host:     cfg.BlasterHost,
			Port:     cfg.BlasterPort,
			DeviceID: cfg.DeviceID,
			Client:   &http.Client{Timeout: 10 * time.Second},
		}, nil
	default:
		return nil, fmt.Errorf("unknown control driver: %q", cfg.Driver)
	}
}

// LogDriver records commands without sending anything. Useful when the remote
// is driven by hand and only the action log matters.
type LogDriver struct {
	Logger *slog.Logger
}

func (d *LogDriver) Send(_ context.Context, command model.Command) error {
	if d.Logger != nil {
		d.Logger.Info("remote command (log only)", "command", command)
	}
	return nil
}

// HTTPBlasterDriver posts commands to a network IR blaster.
type HTTPBlasterDriver struct {
	Host     string
	Port     int
	DeviceID string
	Client   *http.Client
}

func (d *HTTPBlasterDriver) Send(ctx context.Context, command model.Command) error {
	form := url.Values{}
	form.Set("command", string(command))
	if d.DeviceID != "" {
		form.Set("device_id", d.DeviceID)
	}
	endpoint := fmt.Sprintf("http://%s:%d/send", d.Host, d.Port)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := d.Client.Do(req)
	if err != nil {
		return fmt.Errorf("blaster send: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("blaster returned %d", resp.StatusCode)
	}
	return nil
}
