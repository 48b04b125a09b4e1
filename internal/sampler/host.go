package sampler

import (
	"context"

	"github.com/shirou/gopsutil/v4/common"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/Dicklesworthstone/netspeed/internal/model"
)

// CPUSource yields the aggregate CPU time counters; false means the line
// was missing or unusable.
type CPUSource interface {
	Times(ctx context.Context) (CPUTimes, bool)
}

// MemorySource yields MemTotal and MemAvailable in bytes.
type MemorySource interface {
	Memory(ctx context.Context) (total, available uint64, ok bool)
}

// InfoSource yields host identity and load averages for display.
type InfoSource interface {
	Info(ctx context.Context) model.Host
	Load(ctx context.Context) (load1, load5, load15 float64)
}

// HostSource reads CPU, memory and host data through gopsutil. A non-empty
// ProcRoot redirects every read, which lets tests point at a fixture tree.
type HostSource struct {
	ProcRoot string
	SysRoot  string
}

var (
	_ CPUSource    = HostSource{}
	_ MemorySource = HostSource{}
	_ InfoSource   = HostSource{}
)

func (h HostSource) context(ctx context.Context) context.Context {
	env := common.EnvMap{}
	if h.ProcRoot != "" && h.ProcRoot != "/proc" {
		env[common.HostProcEnvKey] = h.ProcRoot
	}
	if h.SysRoot != "" && h.SysRoot != "/sys" {
		env[common.HostSysEnvKey] = h.SysRoot
	}
	if len(env) == 0 {
		return ctx
	}
	return context.WithValue(ctx, common.EnvKey, env)
}

func (h HostSource) Times(ctx context.Context) (CPUTimes, bool) {
	stats, err := cpu.TimesWithContext(h.context(ctx), false)
	if err != nil || len(stats) == 0 {
		return CPUTimes{}, false
	}
	s := stats[0]
	return CPUTimes{
		User:    s.User,
		Nice:    s.Nice,
		System:  s.System,
		Idle:    s.Idle,
		Iowait:  s.Iowait,
		Irq:     s.Irq,
		Softirq: s.Softirq,
		Steal:   s.Steal,
	}, true
}

func (h HostSource) Memory(ctx context.Context) (uint64, uint64, bool) {
	vm, err := mem.VirtualMemoryWithContext(h.context(ctx))
	if err != nil || vm == nil {
		return 0, 0, false
	}
	return vm.Total, vm.Available, true
}

func (h HostSource) Info(ctx context.Context) model.Host {
	info, err := host.InfoWithContext(h.context(ctx))
	if err != nil || info == nil {
		return model.Host{}
	}
	return model.Host{
		Hostname:      info.Hostname,
		Kernel:        info.KernelVersion,
		UptimeSeconds: info.Uptime,
	}
}

func (h HostSource) Load(ctx context.Context) (float64, float64, float64) {
	avg, err := load.AvgWithContext(h.context(ctx))
	if err != nil || avg == nil {
		return 0, 0, 0
	}
	return avg.Load1, avg.Load5, avg.Load15
}
