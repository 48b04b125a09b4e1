package procfs

import (
	"strconv"
	"strings"
)

// RouteFlagUp is RTF_UP from linux/route.h.
const RouteFlagUp = 0x1

// Route is one routing table row.
type Route struct {
	Iface       string
	Destination string // hex, as printed by the kernel
	PrefixLen   int
	Flags       uint64
}

// IsDefault reports a usable default route: unspecified destination, zero
// prefix and the up flag set.
func (r Route) IsDefault() bool {
	if r.Flags&RouteFlagUp == 0 || r.PrefixLen != 0 {
		return false
	}
	return strings.Trim(r.Destination, "0") == ""
}

// ParseRoutes parses /proc/net/route. The destination prefix length is
// derived from the mask column when present.
//
//	Iface Destination Gateway Flags RefCnt Use Metric Mask ...
func ParseRoutes(text string) []Route {
	var out []Route
	for _, line := range strings.Split(text, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 4 || fields[0] == "Iface" {
			continue
		}
		if _, err := strconv.ParseUint(fields[1], 16, 32); err != nil {
			continue
		}
		flags, err := strconv.ParseUint(fields[3], 16, 32)
		if err != nil {
			continue
		}
		prefix := 0
		if len(fields) >= 8 {
			if mask, err := strconv.ParseUint(fields[7], 16, 32); err == nil {
				prefix = popcount(mask)
			}
		}
		out = append(out, Route{Iface: fields[0], Destination: fields[1], PrefixLen: prefix, Flags: flags})
	}
	return out
}

// ParseIPv6Routes parses /proc/net/ipv6_route.
//
//	dest destlen src srclen nexthop metric refcnt use flags iface
func ParseIPv6Routes(text string) []Route {
	var out []Route
	for _, line := range strings.Split(text, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 10 || len(fields[0]) != 32 {
			continue
		}
		prefix, err := strconv.ParseUint(fields[1], 16, 8)
		if err != nil {
			continue
		}
		flags, err := strconv.ParseUint(fields[8], 16, 32)
		if err != nil {
			continue
		}
		out = append(out, Route{Iface: fields[9], Destination: fields[0], PrefixLen: int(prefix), Flags: flags})
	}
	return out
}

// Routes reads the IPv4 routing table; an unreadable file yields nil.
func (r *Reader) Routes() []Route {
	text, ok := r.Read(r.Proc("net", "route"))
	if !ok {
		return nil
	}
	return ParseRoutes(text)
}

// DefaultRouteInterfaces returns the interfaces owning an IPv4 or IPv6 default route.
func (r *Reader) DefaultRouteInterfaces() map[string]bool {
	out := make(map[string]bool)
	for _, rt := range r.Routes() {
		if rt.IsDefault() {
			out[rt.Iface] = true
		}
	}
	if text, ok := r.Read(r.Proc("net", "ipv6_route")); ok {
		for _, rt := range ParseIPv6Routes(text) {
			if rt.IsDefault() && rt.Iface != "lo" {
				out[rt.Iface] = true
			}
		}
	}
	return out
}

func popcount(v uint64) int {
	n := 0
	for v != 0 {
		v &= v - 1
		n++
	}
	return n
}
