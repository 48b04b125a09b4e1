package sampler

import (
	"time"

	"github.com/Dicklesworthstone/netspeed/internal/config"
	"github.com/Dicklesworthstone/netspeed/internal/model"
	"github.com/Dicklesworthstone/netspeed/internal/procfs"
	"github.com/Dicklesworthstone/netspeed/internal/selector"
)

// minElapsed keeps a zero-length tick from dividing by zero.
const minElapsed = time.Millisecond

// NetworkSampler tracks one interface and converts its counters into rates.
type NetworkSampler struct {
	probe    selector.Probe
	iface    string
	prev     map[string]procfs.InterfaceCounters
	prevTime time.Time
	names    []string
}

func NewNetworkSampler(probe selector.Probe) *NetworkSampler {
	return &NetworkSampler{probe: probe}
}

func filtersFor(s config.InterfaceSettings) selector.Filters {
	return selector.Filters{
		HideVirtual:   s.HideVirtual,
		HideContainer: s.HideContainer,
		HideMesh:      s.HideMesh,
	}
}

// Measure computes rates for the tracked interface. The interface is
// (re)selected when none is tracked, when it disappeared, or when a present
// pin names a different one; the measurement after a selection is not Valid.
// Negative deltas are returned as they are so the caller can discard them.
func (n *NetworkSampler) Measure(now time.Time, counters []procfs.InterfaceCounters, s config.InterfaceSettings) model.NetworkRate {
	cur := make(map[string]procfs.InterfaceCounters, len(counters))
	for _, c := range counters {
		cur[c.Name] = c
	}
	n.names = selector.Names(counters)

	prevTime := n.prevTime
	prev := n.prev
	n.prevTime = now
	n.prev = cur

	pinned := s.PinnedName()
	_, tracked := cur[n.iface]
	_, pinPresent := cur[pinned]
	if n.iface == "" || !tracked || (pinned != "" && pinPresent && pinned != n.iface) {
		n.iface, _ = selector.PickInterface(counters, n.probe, filtersFor(s), pinned)
		return model.NetworkRate{Interface: n.iface}
	}

	before, ok := prev[n.iface]
	if !ok || prevTime.IsZero() {
		return model.NetworkRate{Interface: n.iface}
	}
	after := cur[n.iface]

	elapsed := now.Sub(prevTime)
	if elapsed < minElapsed {
		elapsed = minElapsed
	}
	secs := elapsed.Seconds()
	dRx := int64(after.RxBytes) - int64(before.RxBytes)
	dTx := int64(after.TxBytes) - int64(before.TxBytes)
	bps := float64(dRx+dTx) / secs
	return model.NetworkRate{
		Interface:   n.iface,
		Valid:       true,
		RxBps:       float64(dRx) / secs,
		TxBps:       float64(dTx) / secs,
		BytesPerSec: bps,
		Mbit:        bps * 8 / 1e6,
		DeltaRx:     dRx,
		DeltaTx:     dTx,
	}
}

// Interface is the currently tracked interface, empty before the first Measure.
func (n *NetworkSampler) Interface() string { return n.iface }

// Interfaces lists non-loopback interfaces seen by the last Measure.
func (n *NetworkSampler) Interfaces() []string {
	return append([]string(nil), n.names...)
}

// Reset forces reselection on the next Measure.
func (n *NetworkSampler) Reset() { n.iface = "" }

// Cycle returns the interface direction steps away from the tracked one,
// wrapping at both ends. It fails when fewer than two interfaces exist.
func (n *NetworkSampler) Cycle(direction int) (string, bool) {
	if len(n.names) <= 1 {
		return "", false
	}
	idx := -1
	for i, name := range n.names {
		if name == n.iface {
			idx = i
			break
		}
	}
	next := idx + direction
	if next < 0 {
		next = len(n.names) - 1
	}
	if next >= len(n.names) {
		next = 0
	}
	return n.names[next], true
}
