package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/Dicklesworthstone/netspeed/internal/config"
	"github.com/Dicklesworthstone/netspeed/internal/model"
	"github.com/Dicklesworthstone/netspeed/internal/notify"
	"github.com/Dicklesworthstone/netspeed/internal/sampler"
	"github.com/Dicklesworthstone/netspeed/internal/ui"
)

var version = "dev"

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "netspeed: %v\n", err)
		os.Exit(2)
	}

	logger, closeLog := newLogger(cfg)
	defer closeLog()
	slog.SetDefault(logger)
	logger.Info("starting", "version", version, "interval", cfg.Interval, "data_dir", cfg.DataDir)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s := sampler.New(cfg, sampler.WithLogger(logger))
	dispatch := dispatcher(cfg, logger)

	switch {
	case cfg.JSON:
		err = oneShot(ctx, s, os.Stdout)
	case cfg.JSONStream:
		err = stream(ctx, s, dispatch, os.Stdout)
	default:
		err = ui.RunTUI(s, dispatch)
	}
	if err != nil {
		logger.Error("exiting", "err", err)
		fmt.Fprintf(os.Stderr, "netspeed: %v\n", err)
		os.Exit(1)
	}
}

// newLogger writes to a file while the TUI owns the terminal and to
// stderr otherwise.
func newLogger(cfg config.Config) (*slog.Logger, func()) {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}
	if cfg.JSON || cfg.JSONStream {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), func() {}
	}
	path := cfg.LogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err == nil {
		if f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
			return slog.New(slog.NewTextHandler(f, opts)), func() { _ = f.Close() }
		}
	}
	return slog.New(slog.NewTextHandler(io.Discard, opts)), func() {}
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return l
}

func dispatcher(cfg config.Config, logger *slog.Logger) notify.Dispatcher {
	d := notify.Multi{notify.LogDispatcher{Logger: logger.With("component", "notify")}}
	if cfg.DesktopNotify {
		desktop := notify.NewDesktopDispatcher()
		if desktop.Available() {
			d = append(d, desktop)
		} else {
			logger.Warn("desktop notifications unavailable", "command", desktop.Command)
		}
	}
	return d
}

// oneShot needs two ticks so rates have a baseline.
func oneShot(ctx context.Context, s *sampler.Sampler, w io.Writer) error {
	defer func() {
		if err := s.Close(); err != nil {
			slog.Warn("flushing statistics failed", "err", err)
		}
	}()
	s.Tick(ctx)
	select {
	case <-time.After(s.Interval):
	case <-ctx.Done():
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s.Tick(ctx))
}

func stream(ctx context.Context, s *sampler.Sampler, d notify.Dispatcher, w io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	enc := json.NewEncoder(w)
	var err error
	// keep draining after a write error so the sampler can flush and exit
	for snap := range s.Stream(ctx) {
		if err != nil {
			continue
		}
		dispatchAll(ctx, d, snap.Notifications)
		if err = enc.Encode(snap); err != nil {
			cancel()
		}
	}
	return err
}

func dispatchAll(ctx context.Context, d notify.Dispatcher, notes []model.Notification) {
	for _, n := range notes {
		if err := d.Dispatch(ctx, n); err != nil {
			slog.Warn("notification failed", "type", n.Type, "err", err)
		}
	}
}
