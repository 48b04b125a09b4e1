// Package notify delivers alert notifications to the user.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/Dicklesworthstone/netspeed/internal/model"
)

// Dispatcher shows one notification.
type Dispatcher interface {
	Dispatch(ctx context.Context, n model.Notification) error
}

// LogDispatcher writes notifications to a structured logger.
type LogDispatcher struct {
	Logger *slog.Logger
}

func (d LogDispatcher) Dispatch(_ context.Context, n model.Notification) error {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelWarn
	if n.Severity == model.SeverityInfo {
		level = slog.LevelInfo
	}
	logger.Log(context.Background(), level, n.Title,
		"type", n.Type, "message", n.Message, "value", n.Value, "threshold", n.Threshold)
	return nil
}

// DesktopDispatcher shells out to notify-send.
type DesktopDispatcher struct {
	Command string
	AppName string
	Timeout time.Duration
}

func NewDesktopDispatcher() DesktopDispatcher {
	return DesktopDispatcher{Command: "notify-send", AppName: "netspeed", Timeout: 2 * time.Second}
}

// Available reports whether the notifier binary is on PATH.
func (d DesktopDispatcher) Available() bool {
	_, err := exec.LookPath(d.Command)
	return err == nil
}

func (d DesktopDispatcher) Dispatch(ctx context.Context, n model.Notification) error {
	urgency := "normal"
	switch n.Severity {
	case model.SeverityDanger:
		urgency = "critical"
	case model.SeverityInfo:
		urgency = "low"
	}
	_, err := runCmd(ctx, d.Timeout, d.Command, "--app-name", d.AppName, "--urgency", urgency, n.Title, n.Message)
	if err != nil {
		return fmt.Errorf("%s: %w", d.Command, err)
	}
	return nil
}

// Multi fans a notification out to every dispatcher and joins their errors.
type Multi []Dispatcher

func (m Multi) Dispatch(ctx context.Context, n model.Notification) error {
	var errs []error
	for _, d := range m {
		if err := d.Dispatch(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func runCmd(parent context.Context, timeout time.Duration, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		return "", ctx.Err()
	}
	return string(out), err
}
