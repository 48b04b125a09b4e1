package procfs

// OperState returns /sys/class/net/<iface>/operstate.
func (r *Reader) OperState(iface string) (string, bool) {
	return r.ReadValue(r.Sys("class", "net", iface, "operstate"))
}

// IsWireless reports a wireless extension or cfg80211 phy link.
func (r *Reader) IsWireless(iface string) bool {
	return r.Exists(r.Sys("class", "net", iface, "wireless")) ||
		r.Exists(r.Sys("class", "net", iface, "phy80211"))
}

