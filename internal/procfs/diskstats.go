package procfs

import (
	"strconv"
	"strings"
)

// SectorSize is the fixed unit of the diskstats sector columns.
const SectorSize = 512

// DiskCounters is one /proc/diskstats row reduced to the columns we use.
type DiskCounters struct {
	Name           string
	SectorsRead    uint64
	SectorsWritten uint64
}

// ParseDiskstats keeps file order. Rows shorter than 14 fields or with
// non-numeric sector columns are skipped.
//
//	0 major  1 minor  2 name  3 reads  4 merged  5 sectors read
//	6 ms reading  7 writes  8 merged  9 sectors written ...
func ParseDiskstats(text string) []DiskCounters {
	var out []DiskCounters
	for _, line := range strings.Split(text, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 14 {
			continue
		}
		read, err := strconv.ParseUint(fields[5], 10, 64)
		if err != nil {
			continue
		}
		written, err := strconv.ParseUint(fields[9], 10, 64)
		if err != nil {
			continue
		}
		out = append(out, DiskCounters{Name: fields[2], SectorsRead: read, SectorsWritten: written})
	}
	return out
}

// Diskstats reads the block device table; an unreadable file yields nil.
func (r *Reader) Diskstats() []DiskCounters {
	text, ok := r.Read(r.Proc("diskstats"))
	if !ok {
		return nil
	}
	return ParseDiskstats(text)
}
