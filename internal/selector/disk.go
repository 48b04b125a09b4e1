package selector

import (
	"regexp"

	"github.com/Dicklesworthstone/netspeed/internal/procfs"
)

type DiskFamily string

const (
	FamilySCSI   DiskFamily = "scsi"
	FamilyNVMe   DiskFamily = "nvme"
	FamilyMMC    DiskFamily = "mmc"
	FamilyVirtIO DiskFamily = "virtio"
	FamilyIDE    DiskFamily = "ide"
)

// DiskRule matches a whole-device naming family. Partition names never match.
type DiskRule struct {
	Pattern *regexp.Regexp
	Family  DiskFamily
}

var DiskRules = []DiskRule{
	{regexp.MustCompile(`^sd[a-z]$`), FamilySCSI},
	{regexp.MustCompile(`^nvme\d+n\d+$`), FamilyNVMe},
	{regexp.MustCompile(`^mmcblk\d+$`), FamilyMMC},
	{regexp.MustCompile(`^vd[a-z]$`), FamilyVirtIO},
	{regexp.MustCompile(`^hd[a-z]$`), FamilyIDE},
}

func Family(name string) (DiskFamily, bool) {
	for _, rule := range DiskRules {
		if rule.Pattern.MatchString(name) {
			return rule.Family, true
		}
	}
	return "", false
}

func IsWholeDisk(name string) bool {
	_, ok := Family(name)
	return ok
}

// WholeDisks lists whole devices in file order.
func WholeDisks(rows []procfs.DiskCounters) []string {
	var out []string
	for _, r := range rows {
		if IsWholeDisk(r.Name) {
			out = append(out, r.Name)
		}
	}
	return out
}

// PickDisk returns the pinned device if it is a present whole device,
// otherwise the first whole device in file order.
func PickDisk(rows []procfs.DiskCounters, pinned string) (string, bool) {
	disks := WholeDisks(rows)
	if pinned != "" {
		for _, d := range disks {
			if d == pinned {
				return d, true
			}
		}
	}
	if len(disks) == 0 {
		return "", false
	}
	return disks[0], true
}
