package model

// SpeedTier buckets network throughput for the panel animation.
type SpeedTier string

const (
	TierSnail  SpeedTier = "snail"
	TierTurtle SpeedTier = "turtle"
	TierRabbit SpeedTier = "rabbit"
)

// TierFor picks the tier for a speed in Mbit/s. Thresholds are inclusive.
func TierFor(mbit, turtle, rabbit float64) SpeedTier {
	switch {
	case mbit >= rabbit:
		return TierRabbit
	case mbit >= turtle:
		return TierTurtle
	default:
		return TierSnail
	}
}

// Level is a coarse 0-3 activity scale (idle, low, medium, high).
type Level int

const (
	LevelIdle Level = iota
	LevelLow
	LevelMedium
	LevelHigh
)

func (l Level) String() string {
	switch l {
	case LevelLow:
		return "low"
	case LevelMedium:
		return "medium"
	case LevelHigh:
		return "high"
	default:
		return "idle"
	}
}

// DiskLevel classifies combined disk throughput. Thresholds are MiB/s.
func DiskLevel(readBps, writeBps, lowMB, mediumMB, highMB float64) Level {
	total := readBps + writeBps
	const mib = 1024 * 1024
	switch {
	case total < lowMB*mib:
		return LevelIdle
	case total < mediumMB*mib:
		return LevelLow
	case total < highMB*mib:
		return LevelMedium
	default:
		return LevelHigh
	}
}

// TemperatureLevel classifies a reading; an invalid reading is idle.
func TemperatureLevel(t Temperature, warm, hot, critical float64) Level {
	if !t.Valid {
		return LevelIdle
	}
	switch {
	case t.Celsius >= critical:
		return LevelHigh
	case t.Celsius >= hot:
		return LevelMedium
	case t.Celsius >= warm:
		return LevelLow
	default:
		return LevelIdle
	}
}
