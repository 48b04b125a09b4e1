package procfs

import (
	"strconv"
	"strings"
)

// InterfaceCounters are the absolute byte counters of one interface.
type InterfaceCounters struct {
	Name    string
	RxBytes uint64
	TxBytes uint64
}

// Total is rx+tx, used for ranking.
func (c InterfaceCounters) Total() uint64 { return c.RxBytes + c.TxBytes }

// ParseNetDev parses /proc/net/dev in file order. Header lines and rows with
// too few or non-numeric counters are skipped individually.
func ParseNetDev(text string) []InterfaceCounters {
	var out []InterfaceCounters
	for _, line := range strings.Split(text, "\n") {
		name, data, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		fields := strings.Fields(data)
		if len(fields) < 9 {
			continue
		}
		rx, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			continue
		}
		tx, err := strconv.ParseUint(fields[8], 10, 64)
		if err != nil {
			continue
		}
		out = append(out, InterfaceCounters{Name: name, RxBytes: rx, TxBytes: tx})
	}
	return out
}

// NetDev reads per-interface counters; an unreadable file yields nil.
func (r *Reader) NetDev() []InterfaceCounters {
	text, ok := r.Read(r.Proc("net", "dev"))
	if !ok {
		return nil
	}
	return ParseNetDev(text)
}
