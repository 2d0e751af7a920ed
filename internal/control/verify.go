package control

import (
	"context"
	"time"

	"screensync/internal/model"
)

type VerifyConfig struct {
	Timeout      time.Duration
	PollInterval time.Duration
}

func DefaultVerifyConfig() VerifyConfig {
	return VerifyConfig{
		Timeout:      5 * time.Second,
		PollInterval: 200 * time.Millisecond,
	}
}

// SendAndVerify sends a command and polls the latest observation until the
// expected state shows up or the timeout lapses. With no expected state the
// action is returned unverified right after the send.
func SendAndVerify(
	ctx context.Context,
	driver Driver,
	command model.Command,
	latest func() (model.Observation, bool),
	expected model.UXState,
	cfg VerifyConfig,
) (model.Action, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultVerifyConfig().Timeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultVerifyConfig().PollInterval
	}

	action := model.Action{
		TWallMS: time.Now().UnixMilli(),
		Command: command,
		Attempt: 1,
	}
	if err := driver.Send(ctx, command); err != nil {
		return action, err
	}
	if expected == "" {
		return action, nil
	}

	deadline := time.NewTimer(cfg.Timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	var last *model.Observation
	for {
		if obs, ok := latest(); ok {
			last = &obs
			if obs.State == expected {
				action.Verified = true
				action.Verification = map[string]any{
					"state":      string(obs.State),
					"t_video_ms": obs.TVideoMS,
				}
				return action, nil
			}
		}
		select {
		case <-ctx.Done():
			return action, ctx.Err()
		case <-deadline.C:
			action.Verified = false
			verification := map[string]any{"expected_state": string(expected)}
			if last != nil {
				verification["last_seen"] = string(last.State)
				verification["last_t_video_ms"] = last.TVideoMS
			}
			action.Verification = verification
			return action, nil
		case <-ticker.C:
		}
	}
}
