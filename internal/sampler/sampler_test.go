package sampler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v4/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dicklesworthstone/netspeed/internal/config"
	"github.com/Dicklesworthstone/netspeed/internal/model"
	"github.com/Dicklesworthstone/netspeed/internal/procfs"
	"github.com/Dicklesworthstone/netspeed/internal/stats"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

type noProbe struct{}

func (noProbe) DefaultRouteInterfaces() map[string]bool { return nil }
func (noProbe) OperState(string) (string, bool) { return "", false }
func (noProbe) IsWireless(string) bool { return false }

func TestCPUSamplerStep(t *testing.T) {
	var s CPUSampler
	base := CPUTimes{User: 100, System: 50, Idle: 800, Iowait: 50}
	assert.Zero(t, s.Step(base), "first sample")

	allIdle := base
	allIdle.Idle += 90
	allIdle.Iowait += 10
	assert.Equal(t, 0.0, s.Step(allIdle))

	busy := allIdle
	busy.User += 60
	busy.System += 40
	assert.Equal(t, 100.0, s.Step(busy))

	half := busy
	half.User += 50
	half.Idle += 50
	assert.InDelta(t, 50.0, s.Step(half), 1e-9)

	assert.Zero(t, s.Step(half), "no elapsed time")

	backwards := half
	backwards.User -= 500
	assert.Zero(t, s.Step(backwards))
}

func TestCPUSamplerBounds(t *testing.T) {
	var s CPUSampler
	prev := CPUTimes{Idle: 1000}
	s.Step(prev)
	for i := 0; i < 50; i++ {
		cur := prev
		cur.User += float64(i * 3)
		cur.Idle += float64(50 - i)
		cur.Steal += float64(i % 7)
		pct := s.Step(cur)
		assert.GreaterOrEqual(t, pct, 0.0)
		assert.LessOrEqual(t, pct, 100.0)
		prev = cur
	}
}

func TestMemoryPercent(t *testing.T) {
	assert.Zero(t, MemoryPercent(0, 0))
	assert.Zero(t, MemoryPercent(100, 200), "available above total")
	assert.Equal(t, 25.0, MemoryPercent(1000, 750))
	assert.Equal(t, 100.0, MemoryPercent(1000, 0))

	prev := -1.0
	for avail := uint64(1000); avail > 0; avail -= 100 {
		pct := MemoryPercent(1000, avail)
		assert.Greater(t, pct, prev)
		prev = pct
	}
}

func TestNetworkSamplerRate(t *testing.T) {
	n := NewNetworkSampler(noProbe{})
	start := time.Date(2024, time.May, 15, 12, 0, 0, 0, time.UTC)
	s := config.DefaultSettings().Interface

	first := n.Measure(start, []procfs.InterfaceCounters{{Name: "eth0", RxBytes: 1000, TxBytes: 0}}, s)
	assert.False(t, first.Valid, "first sample after selection")
	assert.Equal(t, "eth0", first.Interface)

	second := n.Measure(start.Add(time.Second), []procfs.InterfaceCounters{{Name: "eth0", RxBytes: 126000, TxBytes: 0}}, s)
	require.True(t, second.Valid)
	assert.InDelta(t, 125000, second.RxBps, 1e-6)
	assert.InDelta(t, 1.0, second.Mbit, 1e-9)
	assert.Equal(t, int64(125000), second.DeltaRx)
}

func TestNetworkSamplerZeroElapsed(t *testing.T) {
	n := NewNetworkSampler(noProbe{})
	at := time.Date(2024, time.May, 15, 12, 0, 0, 0, time.UTC)
	s := config.DefaultSettings().Interface
	n.Measure(at, []procfs.InterfaceCounters{{Name: "eth0"}}, s)
	r := n.Measure(at, []procfs.InterfaceCounters{{Name: "eth0", RxBytes: 1}}, s)
	require.True(t, r.Valid)
	assert.InDelta(t, 1000, r.RxBps, 1e-6, "elapsed is floored at one millisecond")
}

func TestNetworkSamplerReselection(t *testing.T) {
	n := NewNetworkSampler(noProbe{})
	at := time.Date(2024, time.May, 15, 12, 0, 0, 0, time.UTC)
	s := config.DefaultSettings().Interface

	n.Measure(at, []procfs.InterfaceCounters{{Name: "eth0", RxBytes: 10}, {Name: "wlan0", RxBytes: 5}}, s)
	assert.Equal(t, "eth0", n.Interface())

	at = at.Add(time.Second)
	r := n.Measure(at, []procfs.InterfaceCounters{{Name: "wlan0", RxBytes: 50}}, s)
	assert.Equal(t, "wlan0", r.Interface)
	assert.False(t, r.Valid, "vanished interface forces reselection")

	s.Mode = config.InterfaceManual
	s.Pinned = "eth1"
	at = at.Add(time.Second)
	r = n.Measure(at, []procfs.InterfaceCounters{{Name: "wlan0", RxBytes: 60}, {Name: "eth1", RxBytes: 1}}, s)
	assert.Equal(t, "eth1", r.Interface)
	assert.False(t, r.Valid)

	at = at.Add(time.Second)
	r = n.Measure(at, []procfs.InterfaceCounters{{Name: "wlan0", RxBytes: 70}, {Name: "eth1", RxBytes: 11}}, s)
	assert.True(t, r.Valid)
	assert.Equal(t, int64(10), r.DeltaRx)
}

func TestNetworkSamplerSurfacesRegression(t *testing.T) {
	n := NewNetworkSampler(noProbe{})
	at := time.Date(2024, time.May, 15, 12, 0, 0, 0, time.UTC)
	s := config.DefaultSettings().Interface
	n.Measure(at, []procfs.InterfaceCounters{{Name: "eth0", RxBytes: 5000}}, s)
	r := n.Measure(at.Add(time.Second), []procfs.InterfaceCounters{{Name: "eth0", RxBytes: 100}}, s)
	assert.True(t, r.Valid)
	assert.Equal(t, int64(-4900), r.DeltaRx)
}

func TestNetworkSamplerCycle(t *testing.T) {
	n := NewNetworkSampler(noProbe{})
	s := config.DefaultSettings().Interface
	n.Measure(time.Now(), []procfs.InterfaceCounters{{Name: "lo"}, {Name: "eth0", RxBytes: 9}, {Name: "wlan0"}, {Name: "usb0"}}, s)
	require.Equal(t, "eth0", n.Interface())
	assert.Equal(t, []string{"eth0", "wlan0", "usb0"}, n.Interfaces())

	next, ok := n.Cycle(1)
	require.True(t, ok)
	assert.Equal(t, "wlan0", next)
	prev, _ := n.Cycle(-1)
	assert.Equal(t, "usb0", prev, "wraps backwards")

	single := NewNetworkSampler(noProbe{})
	single.Measure(time.Now(), []procfs.InterfaceCounters{{Name: "eth0"}}, s)
	_, ok = single.Cycle(1)
	assert.False(t, ok)
}

func TestDiskSamplerRate(t *testing.T) {
	var d DiskSampler
	at := time.Date(2024, time.May, 15, 12, 0, 0, 0, time.UTC)
	rows := func(read, written uint64) []procfs.DiskCounters {
		return []procfs.DiskCounters{
			{Name: "sda1", SectorsRead: 1, SectorsWritten: 1},
			{Name: "sda", SectorsRead: read, SectorsWritten: written},
		}
	}

	first := d.Measure(at, rows(1000, 1000), "")
	assert.Equal(t, model.DiskRate{Device: "sda"}, first)

	second := d.Measure(at.Add(500*time.Millisecond), rows(3000, 1000), "")
	assert.InDelta(t, 2048000, second.ReadSpeed, 1e-6)
	assert.Zero(t, second.WriteSpeed)

	third := d.Measure(at.Add(time.Second), rows(10, 10), "")
	assert.Zero(t, third.ReadSpeed, "clamped at zero")
	assert.Zero(t, third.WriteSpeed)

	same := d.Measure(at.Add(time.Second), rows(20, 20), "")
	assert.Zero(t, same.ReadSpeed, "no elapsed time")
	assert.Equal(t, []string{"sda"}, d.Devices())
}

func TestDiskSamplerPinAndFallback(t *testing.T) {
	var d DiskSampler
	at := time.Date(2024, time.May, 15, 12, 0, 0, 0, time.UTC)
	rows := []procfs.DiskCounters{{Name: "nvme0n1", SectorsRead: 10}, {Name: "sdb", SectorsRead: 10}}

	assert.Equal(t, "nvme0n1", d.Measure(at, rows, "").Device)
	r := d.Measure(at.Add(time.Second), rows, "sdb")
	assert.Equal(t, "sdb", r.Device)
	assert.Zero(t, r.ReadSpeed, "first sample after selecting the pin")

	r = d.Measure(at.Add(2*time.Second), rows[:1], "sdb")
	assert.Equal(t, "nvme0n1", r.Device, "missing pin falls back")

	assert.Equal(t, model.DiskRate{}, d.Measure(at.Add(3*time.Second), nil, ""))
}

func writeFixture(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestTemperatureSampler(t *testing.T) {
	sys := t.TempDir()
	zone := filepath.Join(sys, "class/thermal/thermal_zone0")
	hw := filepath.Join(sys, "class/hwmon/hwmon0")
	writeFixture(t, filepath.Join(zone, "type"), "acpitz\n")
	writeFixture(t, filepath.Join(zone, "temp"), "40000\n")
	writeFixture(t, filepath.Join(hw, "name"), "k10temp\n")
	writeFixture(t, filepath.Join(hw, "temp1_label"), "Tctl\n")
	writeFixture(t, filepath.Join(hw, "temp1_input"), "61500\n")

	ts := NewTemperatureSampler(procfs.New(procfs.WithSysRoot(sys)))
	got := ts.Read("")
	assert.Equal(t, model.Temperature{SourceID: "hwmon:hwmon0:temp1", Name: "k10temp - Tctl", Celsius: 61.5, Valid: true}, got)
	assert.Len(t, ts.Sources(), 2)

	got = ts.Read("acpitz")
	assert.Equal(t, 40.0, got.Celsius)

	require.NoError(t, os.RemoveAll(zone))
	got = ts.Read("acpitz")
	assert.Equal(t, "hwmon:hwmon0:temp1", got.SourceID, "vanished source triggers rediscovery")

	require.NoError(t, os.RemoveAll(hw))
	assert.False(t, ts.Read("").Valid)
}

type fakeHost struct {
	times CPUTimes
	total uint64
	avail uint64
}

func (f *fakeHost) Times(context.Context) (CPUTimes, bool) { return f.times, true }

func (f *fakeHost) Memory(context.Context) (uint64, uint64, bool) { return f.total, f.avail, true }

func (f *fakeHost) Info(context.Context) model.Host { return model.Host{Hostname: "test"} }

func (f *fakeHost) Load(context.Context) (float64, float64, float64) { return 1, 2, 3 }

type harness struct {
	proc    string
	sys     string
	clock   *fakeClock
	host    *fakeHost
	sampler *Sampler
	cfg     config.Config
}

func netDev(eth0Rx, eth0Tx uint64) string {
	return fmt.Sprintf(`Inter-|   Receive                                                |  Transmit
 face |bytes    packets errs drop fifo frame compressed multicast|bytes    packets errs drop fifo colls carrier compressed
    lo: 999 1 0 0 0 0 0 0 999 1 0 0 0 0 0 0
  eth0: %d 1 0 0 0 0 0 0 %d 1 0 0 0 0 0 0
`, eth0Rx, eth0Tx)
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		proc:  t.TempDir(),
		clock: &fakeClock{now: time.Date(2024, time.May, 15, 12, 0, 0, 0, time.Local)},
		host:  &fakeHost{total: 1000, avail: 400},
		sys:   t.TempDir(),
	}
	writeFixture(t, filepath.Join(h.proc, "net/dev"), netDev(0, 0))
	writeFixture(t, filepath.Join(h.proc, "diskstats"), "   8 0 sda 1 0 0 0 1 0 0 0 0 0 0 0 0 0 0\n")

	h.cfg = config.Default()
	h.cfg.DataDir = t.TempDir()
	h.cfg.Settings.Alerts.QuotaGB = 1
	h.build()
	return h
}

// build (re)creates the sampler from h.cfg over the same fixtures and data dir.
func (h *harness) build() {
	h.sampler = New(h.cfg,
		WithClock(h.clock),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithReader(procfs.New(procfs.WithProcRoot(h.proc), procfs.WithSysRoot(h.sys))),
		WithCPUSource(h.host),
		WithMemorySource(h.host),
		WithInfoSource(h.host),
	)
}

func (h *harness) step(t *testing.T, rx, tx uint64) model.Snapshot {
	t.Helper()
	writeFixture(t, filepath.Join(h.proc, "net/dev"), netDev(rx, tx))
	h.clock.advance(time.Second)
	return h.sampler.Tick(context.Background())
}

func TestTickAccumulatesTraffic(t *testing.T) {
	h := newHarness(t)
	first := h.sampler.Tick(context.Background())
	assert.False(t, first.Network.Valid)
	assert.Equal(t, "eth0", first.Network.Interface)
	assert.Equal(t, 60.0, first.Memory.Percent)
	assert.Equal(t, "test", first.Host.Hostname)
	assert.Equal(t, 2.0, first.CPU.Load5)

	snap := h.step(t, 1000, 500)
	require.True(t, snap.Network.Valid)
	assert.Equal(t, 1500.0, snap.Network.BytesPerSec)
	require.NotNil(t, snap.Stats)
	assert.Equal(t, model.Totals{Rx: 1000, Tx: 500, Total: 1500}, snap.Stats.Session)
	assert.Equal(t, model.Totals{Rx: 1000, Tx: 500, Total: 1500}, snap.Stats.Monthly)
	assert.InDelta(t, 1500.0/(1<<30)*100, snap.QuotaPercent, 1e-12)
	assert.Equal(t, h.clock.now.Add(-time.Second), snap.SessionStart)
	assert.Equal(t, []string{"eth0"}, snap.Devices.Interfaces)
	assert.Equal(t, []string{"sda"}, snap.Devices.Disks)
	assert.Empty(t, snap.Devices.Sensors)
}

func TestTickReportsSensors(t *testing.T) {
	h := newHarness(t)
	zone := filepath.Join(h.sys, "class/thermal/thermal_zone0")
	writeFixture(t, filepath.Join(zone, "type"), "x86_pkg_temp\n")
	writeFixture(t, filepath.Join(zone, "temp"), "52000\n")

	snap := h.sampler.Tick(context.Background())
	assert.Equal(t, []model.Sensor{{ID: "thermal:thermal_zone0", Name: "x86_pkg_temp"}}, snap.Devices.Sensors)
	assert.Equal(t, 52.0, snap.Temperature.Celsius)
}

func TestTickDiscardsRegression(t *testing.T) {
	h := newHarness(t)
	h.sampler.Tick(context.Background())
	h.step(t, 5000, 0)

	snap := h.step(t, 100, 0)
	assert.True(t, snap.Network.Regressed)
	assert.False(t, snap.Network.Valid)
	assert.Zero(t, snap.Network.BytesPerSec)
	assert.Equal(t, uint64(5000), snap.Stats.Session.Rx, "regressed delta is not counted")

	snap = h.step(t, 300, 0)
	assert.True(t, snap.Network.Valid, "baseline advanced past the regression")
	assert.Equal(t, int64(200), snap.Network.DeltaRx)
	assert.Equal(t, uint64(5200), snap.Stats.Session.Rx)
}

func TestTickWithoutStatistics(t *testing.T) {
	h := newHarness(t)
	s := h.sampler.Settings()
	s.TrackStatistics = false
	h.sampler.Apply(Command{Kind: UpdateSettings, Settings: s})
	h.sampler.Tick(context.Background())
	snap := h.step(t, 100, 100)
	assert.Nil(t, snap.Stats)
	assert.True(t, snap.SessionStart.IsZero())
}

func TestTickWithoutStatisticsSkipsQuota(t *testing.T) {
	h := newHarness(t)
	h.sampler.Tick(context.Background())
	snap := h.step(t, 1<<30, 0)
	require.Len(t, snap.Notifications, 1)
	assert.Equal(t, model.AlertQuotaCritical, snap.Notifications[0].Type)
	require.NoError(t, h.sampler.Close())

	// the saved month is over quota but no longer tracked
	h.cfg.Settings.TrackStatistics = false
	h.build()
	first := h.sampler.Tick(context.Background())
	second := h.step(t, 1<<30+10, 0)
	for _, n := range append(first.Notifications, second.Notifications...) {
		assert.NotEqual(t, model.AlertQuotaCritical, n.Type)
		assert.NotEqual(t, model.AlertQuotaWarning, n.Type)
	}
	assert.Nil(t, second.Stats)
	assert.Zero(t, second.QuotaPercent)
}

func TestTickRaisesAlerts(t *testing.T) {
	h := newHarness(t)
	h.host.avail = 10
	first := h.sampler.Tick(context.Background())
	require.Len(t, first.Notifications, 1)
	assert.Equal(t, model.AlertMemoryHigh, first.Notifications[0].Type)

	second := h.step(t, 0, 0)
	assert.Empty(t, second.Notifications, "cooldown")

	h.sampler.Apply(Command{Kind: ResetCooldowns})
	h.sampler.Apply(Command{Kind: ToggleSnooze})
	third := h.step(t, 0, 0)
	assert.Empty(t, third.Notifications, "snoozed")
	assert.False(t, third.SnoozedUntil.IsZero())

	h.sampler.Apply(Command{Kind: ToggleSnooze})
	fourth := h.step(t, 0, 0)
	assert.Len(t, fourth.Notifications, 1)
}

func TestApplyCycleInterfacePins(t *testing.T) {
	h := newHarness(t)
	writeFixture(t, filepath.Join(h.proc, "net/dev"), netDev(10, 10)+"  wlan0: 1 1 0 0 0 0 0 0 1 1 0 0 0 0 0 0\n")
	h.sampler.Tick(context.Background())

	h.sampler.Apply(Command{Kind: CycleInterface, Direction: 1})
	s := h.sampler.Settings()
	assert.Equal(t, config.InterfaceManual, s.Interface.Mode)
	assert.Equal(t, "wlan0", s.Interface.Pinned)

	h.clock.advance(time.Second)
	snap := h.sampler.Tick(context.Background())
	assert.Equal(t, "wlan0", snap.Network.Interface)
}

func TestApplyRejectsInvalidSettings(t *testing.T) {
	h := newHarness(t)
	bad := h.sampler.Settings()
	bad.Interface.Mode = "sideways"
	h.sampler.Apply(Command{Kind: UpdateSettings, Settings: bad})
	assert.Equal(t, config.InterfaceAuto, h.sampler.Settings().Interface.Mode)
}

func TestCloseFlushesStatistics(t *testing.T) {
	h := newHarness(t)
	h.sampler.Tick(context.Background())
	h.step(t, 700, 0)
	require.NoError(t, h.sampler.Close())
	require.NoError(t, h.sampler.Close(), "idempotent")

	reopened := stats.Open(h.cfg.StatsPath(), h.clock, nil)
	assert.Equal(t, uint64(700), reopened.Stats().Session.Rx)
}

func TestApplyResetSession(t *testing.T) {
	h := newHarness(t)
	h.sampler.Tick(context.Background())
	h.step(t, 700, 0)
	h.sampler.Apply(Command{Kind: ResetSession})
	snap := h.step(t, 800, 0)
	assert.Equal(t, uint64(100), snap.Stats.Session.Rx)
	assert.Equal(t, uint64(800), snap.Stats.Daily.Rx)
}

func TestStreamEmitsAndCloses(t *testing.T) {
	h := newHarness(t)
	h.sampler.Interval = 10 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	ch := h.sampler.Stream(ctx)

	h.sampler.Do(Command{Kind: ResetCooldowns})
	select {
	case snap := <-ch:
		assert.Equal(t, "eth0", snap.Network.Interface)
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot")
	}
	cancel()
	for range ch {
	}
	_, err := os.Stat(h.cfg.StatsPath())
	assert.NoError(t, err, "closing the stream flushes statistics")
}

func TestHostSourceContextRedirect(t *testing.T) {
	ctx := HostSource{ProcRoot: "/tmp/fixture-proc"}.context(context.Background())
	env, ok := ctx.Value(common.EnvKey).(common.EnvMap)
	require.True(t, ok)
	assert.Equal(t, "/tmp/fixture-proc", env[common.HostProcEnvKey])

	plain := HostSource{ProcRoot: "/proc"}.context(context.Background())
	assert.Nil(t, plain.Value(common.EnvKey))
}

func TestHostSourceMissingProc(t *testing.T) {
	h := HostSource{ProcRoot: t.TempDir()}
	_, ok := h.Times(context.Background())
	assert.False(t, ok)
	_, _, ok = h.Memory(context.Background())
	assert.False(t, ok)
}
