// Package selector picks which network interface, block device and
// temperature sensor to report when several are present.
package selector

import (
	"regexp"
	"sort"

	"github.com/Dicklesworthstone/netspeed/internal/procfs"
)

type InterfaceClass string

const (
	ClassOther     InterfaceClass = "other"
	ClassLoopback  InterfaceClass = "loopback"
	ClassVirtual   InterfaceClass = "virtual"
	ClassContainer InterfaceClass = "container"
	ClassMesh      InterfaceClass = "mesh"
	ClassEthernet  InterfaceClass = "ethernet"
	ClassWireless  InterfaceClass = "wireless"
)

// InterfaceRule maps a name pattern to a class. The first matching rule wins.
type InterfaceRule struct {
	Pattern *regexp.Regexp
	Class   InterfaceClass
}

var InterfaceRules = []InterfaceRule{
	{regexp.MustCompile(`^lo$`), ClassLoopback},
	{regexp.MustCompile(`^tailscale`), ClassMesh},
	{regexp.MustCompile(`^(docker|br-|veth|cni|flannel|cali|vxlan|lxc|lxd|podman)`), ClassContainer},
	{regexp.MustCompile(`^(tun|tap|wg|virbr|ppp|ipsec|vpn)`), ClassVirtual},
	{regexp.MustCompile(`^(eth|en)`), ClassEthernet},
	{regexp.MustCompile(`^(wl|wlan|wlp)`), ClassWireless},
}

// Classify returns the class of the first rule matching name.
func Classify(name string) InterfaceClass {
	for _, rule := range InterfaceRules {
		if rule.Pattern.MatchString(name) {
			return rule.Class
		}
	}
	return ClassOther
}

// Filters removes whole classes from the auto-pick candidate set.
type Filters struct {
	HideVirtual   bool
	HideContainer bool
	HideMesh      bool
}

func (f Filters) hides(c InterfaceClass) bool {
	switch c {
	case ClassLoopback:
		return true
	case ClassVirtual:
		return f.HideVirtual
	case ClassContainer:
		return f.HideContainer
	case ClassMesh:
		return f.HideMesh
	}
	return false
}

// Probe supplies the link attributes used for ranking. *procfs.Reader implements it.
type Probe interface {
	DefaultRouteInterfaces() map[string]bool
	OperState(iface string) (string, bool)
	IsWireless(iface string) bool
}

var _ Probe = (*procfs.Reader)(nil)

type InterfaceCandidate struct {
	Name          string
	Class         InterfaceClass
	TotalBytes    uint64
	DefaultRoute  bool
	LinkUp        bool
	PreferredKind bool
}

// Better reports whether c ranks strictly above o on the tuple
// (default route, link up, preferred kind, total traffic).
func (c InterfaceCandidate) Better(o InterfaceCandidate) bool {
	if c.DefaultRoute != o.DefaultRoute {
		return c.DefaultRoute
	}
	if c.LinkUp != o.LinkUp {
		return c.LinkUp
	}
	if c.PreferredKind != o.PreferredKind {
		return c.PreferredKind
	}
	return c.TotalBytes > o.TotalBytes
}

// Candidates builds the rankable set in file order, without loopback and
// without filtered classes.
func Candidates(counters []procfs.InterfaceCounters, probe Probe, f Filters) []InterfaceCandidate {
	routes := probe.DefaultRouteInterfaces()
	out := make([]InterfaceCandidate, 0, len(counters))
	for _, c := range counters {
		class := Classify(c.Name)
		if f.hides(class) {
			continue
		}
		state, _ := probe.OperState(c.Name)
		out = append(out, InterfaceCandidate{
			Name:          c.Name,
			Class:         class,
			TotalBytes:    c.Total(),
			DefaultRoute:  routes[c.Name],
			LinkUp:        state == "up" || state == "unknown",
			PreferredKind: class == ClassEthernet || class == ClassWireless || probe.IsWireless(c.Name),
		})
	}
	return out
}

// Rank orders candidates best first; full ties keep file order.
func Rank(cands []InterfaceCandidate) []InterfaceCandidate {
	ranked := append([]InterfaceCandidate(nil), cands...)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Better(ranked[j]) })
	return ranked
}

// PickInterface returns the pinned interface when it is present in counters,
// otherwise the best ranked candidate.
func PickInterface(counters []procfs.InterfaceCounters, probe Probe, f Filters, pinned string) (string, bool) {
	if pinned != "" {
		for _, c := range counters {
			if c.Name == pinned {
				return pinned, true
			}
		}
	}
	ranked := Rank(Candidates(counters, probe, f))
	if len(ranked) == 0 {
		return "", false
	}
	return ranked[0].Name, true
}

// Names lists every non-loopback interface in file order; used for manual cycling.
func Names(counters []procfs.InterfaceCounters) []string {
	var out []string
	for _, c := range counters {
		if Classify(c.Name) == ClassLoopback {
			continue
		}
		out = append(out, c.Name)
	}
	return out
}
