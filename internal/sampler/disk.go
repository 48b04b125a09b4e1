package sampler

import (
	"time"

	"github.com/Dicklesworthstone/netspeed/internal/model"
	"github.com/Dicklesworthstone/netspeed/internal/procfs"
	"github.com/Dicklesworthstone/netspeed/internal/selector"
)

// DiskSampler tracks one whole device and converts its sector counters
// into bytes per second.
type DiskSampler struct {
	device   string
	prev     procfs.DiskCounters
	prevTime time.Time
	devices  []string
}

func (d *DiskSampler) Measure(now time.Time, rows []procfs.DiskCounters, pinned string) model.DiskRate {
	d.devices = selector.WholeDisks(rows)

	row, found := findDisk(rows, d.device)
	if d.device == "" || !found || (pinned != "" && pinned != d.device && containsName(d.devices, pinned)) {
		name, ok := selector.PickDisk(rows, pinned)
		if !ok {
			d.device = ""
			return model.DiskRate{}
		}
		d.device = name
		d.prev, _ = findDisk(rows, name)
		d.prevTime = now
		return model.DiskRate{Device: name}
	}

	elapsed := now.Sub(d.prevTime).Seconds()
	prev := d.prev
	d.prev, d.prevTime = row, now
	if elapsed <= 0 {
		return model.DiskRate{Device: d.device}
	}
	read := float64(int64(row.SectorsRead)-int64(prev.SectorsRead)) * procfs.SectorSize / elapsed
	write := float64(int64(row.SectorsWritten)-int64(prev.SectorsWritten)) * procfs.SectorSize / elapsed
	return model.DiskRate{
		Device:     d.device,
		ReadSpeed:  max(read, 0),
		WriteSpeed: max(write, 0),
	}
}

// Devices lists whole devices seen by the last Measure.
func (d *DiskSampler) Devices() []string { return append([]string(nil), d.devices...) }

func findDisk(rows []procfs.DiskCounters, name string) (procfs.DiskCounters, bool) {
	for _, r := range rows {
		if r.Name == name {
			return r, true
		}
	}
	return procfs.DiskCounters{}, false
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
