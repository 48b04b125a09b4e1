package sampler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Dicklesworthstone/netspeed/internal/alert"
	"github.com/Dicklesworthstone/netspeed/internal/config"
	"github.com/Dicklesworthstone/netspeed/internal/model"
	"github.com/Dicklesworthstone/netspeed/internal/procfs"
	"github.com/Dicklesworthstone/netspeed/internal/stats"
)

const hostRefresh = time.Minute

// CommandKind enumerates the user actions the sampler accepts between ticks.
type CommandKind int

const (
	ResetSession CommandKind = iota
	ToggleSnooze
	CycleInterface
	ResetCooldowns
	UpdateSettings
)

// Command is applied on the sampling goroutine so no state is shared.
type Command struct {
	Kind      CommandKind
	Direction int             // CycleInterface: +1 next, -1 previous
	Settings  config.Settings // UpdateSettings
}

// Sampler emits one Snapshot per tick. Every component is owned by the
// goroutine that calls Tick, or by the Stream goroutine once it runs.
type Sampler struct {
	Interval time.Duration
	Autosave time.Duration

	clock  Clock
	logger *slog.Logger
	reader *procfs.Reader
	cpuSrc CPUSource
	memSrc MemorySource
	info   InfoSource

	mu       sync.RWMutex // guards settings, which the UI reads concurrently
	settings config.Settings
	network  *NetworkSampler
	cpu      CPUSampler
	disk     DiskSampler
	temp     *TemperatureSampler
	stats    *stats.Aggregator
	alerts   *alert.Engine

	commands chan Command
	host     model.Host
	hostAt   time.Time
	closed   bool
}

// Option configures the Sampler.
type Option func(*Sampler)

func WithClock(c Clock) Option { return func(s *Sampler) { s.clock = c } }

func WithLogger(l *slog.Logger) Option { return func(s *Sampler) { s.logger = l } }

// WithReader replaces the pseudo-file reader (useful for testing).
func WithReader(r *procfs.Reader) Option { return func(s *Sampler) { s.reader = r } }

func WithCPUSource(c CPUSource) Option { return func(s *Sampler) { s.cpuSrc = c } }

func WithMemorySource(m MemorySource) Option { return func(s *Sampler) { s.memSrc = m } }

func WithInfoSource(i InfoSource) Option { return func(s *Sampler) { s.info = i } }

func WithStatistics(a *stats.Aggregator) Option { return func(s *Sampler) { s.stats = a } }

func WithAlerts(e *alert.Engine) Option { return func(s *Sampler) { s.alerts = e } }

// New wires every component from cfg. Statistics and snooze state live in
// cfg.DataDir; an empty DataDir keeps both in memory.
func New(cfg config.Config, opts ...Option) *Sampler {
	s := &Sampler{
		Interval: cfg.Interval,
		Autosave: cfg.AutosaveInterval,
		clock:    SystemClock{},
		logger:   slog.Default(),
		settings: cfg.Settings,
		commands: make(chan Command, 16),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Interval <= 0 {
		s.Interval = time.Second
	}
	if s.Autosave <= 0 {
		s.Autosave = time.Minute
	}
	if s.reader == nil {
		s.reader = procfs.New(procfs.WithProcRoot(cfg.ProcRoot), procfs.WithSysRoot(cfg.SysRoot))
	}
	host := HostSource{ProcRoot: cfg.ProcRoot, SysRoot: cfg.SysRoot}
	if s.cpuSrc == nil {
		s.cpuSrc = host
	}
	if s.memSrc == nil {
		s.memSrc = host
	}
	if s.info == nil {
		s.info = host
	}
	if s.stats == nil {
		path := ""
		if cfg.DataDir != "" {
			path = cfg.StatsPath()
		}
		s.stats = stats.Open(path, s.clock, s.logger.With("component", "stats"))
	}
	if s.alerts == nil {
		var store alert.SnoozeStore
		if cfg.DataDir != "" {
			store = alert.FileSnoozeStore{Path: cfg.SnoozePath()}
		}
		s.alerts = alert.New(s.clock, store, s.logger.With("component", "alert"))
	}
	s.network = NewNetworkSampler(s.reader)
	s.temp = NewTemperatureSampler(s.reader)
	return s
}

// Tick samples everything once: network, statistics, cpu, memory,
// temperature, disk, then alerts.
func (s *Sampler) Tick(ctx context.Context) model.Snapshot {
	now := s.clock.Now()
	cfg := s.Settings()

	net := s.network.Measure(now, s.reader.NetDev(), cfg.Interface)
	if net.Valid && (net.DeltaRx < 0 || net.DeltaTx < 0) {
		s.logger.Debug("network counter regression", "iface", net.Interface, "drx", net.DeltaRx, "dtx", net.DeltaTx)
		net = model.NetworkRate{Interface: net.Interface, Regressed: true, DeltaRx: net.DeltaRx, DeltaTx: net.DeltaTx}
	}
	if net.Valid && cfg.TrackStatistics {
		s.stats.AddTraffic(net.DeltaRx, net.DeltaTx)
	}

	var cpu model.CPU
	if times, ok := s.cpuSrc.Times(ctx); ok {
		cpu.Total = s.cpu.Step(times)
	}
	cpu.Load1, cpu.Load5, cpu.Load15 = s.info.Load(ctx)

	var mem model.Memory
	if total, avail, ok := s.memSrc.Memory(ctx); ok {
		mem.Percent = MemoryPercent(total, avail)
	}

	temp := s.temp.Read(cfg.TemperatureSensor)
	disk := s.disk.Measure(now, s.reader.Diskstats(), cfg.DiskDevice)

	if s.hostAt.IsZero() || now.Sub(s.hostAt) >= hostRefresh {
		s.host = s.info.Info(ctx)
		s.hostAt = now
	}

	st := s.stats.Stats()
	snap := model.Snapshot{
		Timestamp:   now,
		Interval:    s.Interval,
		Host:        s.host,
		Network:     net,
		CPU:         cpu,
		Memory:      mem,
		Disk:        disk,
		Temperature: temp,
		Devices: model.Devices{
			Interfaces: s.network.Interfaces(),
			Disks:      s.disk.Devices(),
			Sensors:    s.temp.Sensors(),
		},
	}
	metrics := alert.Metrics{
		Network:     net,
		CPUPercent:  cpu.Total,
		MemPercent:  mem.Percent,
		Temperature: temp,
	}
	// without tracking the monthly total is stale, so quota alerts stay off
	if cfg.TrackStatistics {
		snap.Stats = &st
		snap.SessionStart = s.stats.SessionStart()
		snap.QuotaPercent = alert.QuotaPercent(st.Monthly.Total, cfg.Alerts)
		metrics.MonthlyBytes = st.Monthly.Total
	}
	snap.Notifications = s.alerts.Evaluate(metrics, cfg.Alerts)
	if until, ok := s.alerts.SnoozedUntil(); ok {
		snap.SnoozedUntil = until
	}
	return snap
}

// Stream returns a channel that will receive snapshots until ctx is done.
// The goroutine behind it also autosaves statistics, applies commands sent
// with Do, and closes the sampler before closing the channel.
func (s *Sampler) Stream(ctx context.Context) <-chan model.Snapshot {
	ch := make(chan model.Snapshot, 1)
	go func() {
		ticker := time.NewTicker(s.Interval)
		defer ticker.Stop()
		autosave := time.NewTicker(s.Autosave)
		defer autosave.Stop()
		defer close(ch)
		defer func() {
			if err := s.Close(); err != nil {
				s.logger.Warn("flushing statistics failed", "err", err)
			}
		}()
		for {
			select {
			case <-ticker.C:
				snap := s.Tick(ctx)
				select {
				case ch <- snap:
				case <-ctx.Done():
					return
				}
			case <-autosave.C:
				s.save()
			case cmd := <-s.commands:
				s.Apply(cmd)
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

// Do queues cmd for the Stream goroutine. A full queue drops the command.
func (s *Sampler) Do(cmd Command) {
	select {
	case s.commands <- cmd:
	default:
		s.logger.Warn("command dropped, queue full", "kind", cmd.Kind)
	}
}

// Apply runs cmd on the caller's goroutine. Only use it when Stream is not running.
func (s *Sampler) Apply(cmd Command) {
	switch cmd.Kind {
	case ResetSession:
		if err := s.stats.ResetSession(); err != nil {
			s.logger.Warn("saving statistics after reset failed", "err", err)
		}
		s.logger.Info("session statistics reset")
	case ToggleSnooze:
		s.alerts.ToggleSnooze(s.Settings().Alerts.SnoozeDuration)
	case CycleInterface:
		dir := cmd.Direction
		if dir == 0 {
			dir = 1
		}
		name, ok := s.network.Cycle(dir)
		if !ok {
			return
		}
		s.mu.Lock()
		s.settings.Interface.Mode = config.InterfaceManual
		s.settings.Interface.Pinned = name
		s.mu.Unlock()
		s.logger.Info("interface pinned", "iface", name)
	case ResetCooldowns:
		s.alerts.ResetAllCooldowns()
	case UpdateSettings:
		if err := cmd.Settings.Validate(); err != nil {
			s.logger.Warn("settings rejected", "err", err)
			return
		}
		if cmd.Settings.Interface != s.Settings().Interface {
			s.network.Reset()
		}
		s.mu.Lock()
		s.settings = cmd.Settings
		s.mu.Unlock()
	}
}

// Settings returns the snapshot currently in effect. Safe from any goroutine.
func (s *Sampler) Settings() config.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

func (s *Sampler) save() {
	if err := s.stats.Save(); err != nil {
		s.logger.Warn("autosave failed", "err", err)
	}
}

// Close flushes statistics. The snooze deadline is persisted as it changes.
func (s *Sampler) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.stats.Close()
}
