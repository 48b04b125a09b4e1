package sampler

// CPUTimes are the eight aggregate CPU counters. Units do not matter as long
// as consecutive samples agree.
type CPUTimes struct {
	User    float64
	Nice    float64
	System  float64
	Idle    float64
	Iowait  float64
	Irq     float64
	Softirq float64
	Steal   float64
}

func (t CPUTimes) Total() float64 {
	return t.User + t.Nice + t.System + t.Idle + t.Iowait + t.Irq + t.Softirq + t.Steal
}

// IdleAll counts iowait as idle.
func (t CPUTimes) IdleAll() float64 { return t.Idle + t.Iowait }

// CPUSampler turns successive CPUTimes into a busy percentage.
type CPUSampler struct {
	prev   CPUTimes
	primed bool
}

// Step returns busy percent in [0,100]; 0 on the first sample or when no
// time elapsed.
func (s *CPUSampler) Step(cur CPUTimes) float64 {
	prev, primed := s.prev, s.primed
	s.prev, s.primed = cur, true
	if !primed {
		return 0
	}
	deltaTotal := cur.Total() - prev.Total()
	deltaIdle := cur.IdleAll() - prev.IdleAll()
	if deltaTotal <= 0 {
		return 0
	}
	return clampFloat(100*(deltaTotal-deltaIdle)/deltaTotal, 0, 100)
}
