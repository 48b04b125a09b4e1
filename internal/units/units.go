// Package units renders rates and sizes for humans.
package units

import (
	"fmt"
	"math"
)

var byteSuffixes = []string{"B", "KB", "MB", "GB", "TB"}

// Bytes formats a byte count with 1024-based suffixes and two decimals.
func Bytes(b uint64) string {
	if b == 0 {
		return "0 B"
	}
	v := float64(b)
	i := 0
	for v >= 1024 && i < len(byteSuffixes)-1 {
		v /= 1024
		i++
	}
	return fmt.Sprintf("%.2f %s", v, byteSuffixes[i])
}

// Speed formats a byte rate: Mbit/s from 1 Mbit up, then KB/s, then B/s.
func Speed(bytesPerSec float64) string {
	if bytesPerSec <= 0 || math.IsNaN(bytesPerSec) {
		return "0 B/s"
	}
	if mbit := bytesPerSec * 8 / 1e6; mbit >= 1 {
		return fmt.Sprintf("%.1f Mbit/s", mbit)
	}
	if kb := bytesPerSec / 1024; kb >= 1 {
		return fmt.Sprintf("%.1f KB/s", kb)
	}
	return fmt.Sprintf("%d B/s", int64(math.Round(bytesPerSec)))
}

func Percent(v float64) string { return fmt.Sprintf("%.1f%%", v) }

func Celsius(v float64) string { return fmt.Sprintf("%d°C", int64(math.Round(v))) }
