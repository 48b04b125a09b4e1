package sampler

// MemoryPercent is the used share of physical memory. Unknown or
// inconsistent totals give 0.
func MemoryPercent(total, available uint64) float64 {
	if total == 0 || available >= total {
		return 0
	}
	return clampFloat(100*float64(total-available)/float64(total), 0, 100)
}
