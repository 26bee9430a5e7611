package engine

import "time"

//frameWindow is the number of the latest steps the frame statistics are calculated on
const frameWindow = 100

//FrameStats describes the simulation speed in steps per second
type FrameStats struct {
	Latest float64
	Mean   float64
	Min    float64
	Max    float64
}

//frameMeter keeps the steps per second rate of the latest frameWindow steps
type frameMeter struct {
	last    time.Time
	samples []float64
}

//record registers the step finished at now and returns the updated statistics
//the first step after reset has no rate yet
func (m *frameMeter) record(now time.Time) FrameStats {
	defer func() { m.last = now }()
	if m.last.IsZero() {
		return m.stats()
	}
	delta := now.Sub(m.last)
	if delta <= 0 {
		return m.stats()
	}
	m.samples = append(m.samples, 1/delta.Seconds())
	if len(m.samples) > frameWindow {
		m.samples = m.samples[len(m.samples)-frameWindow:]
	}
	return m.stats()
}

func (m *frameMeter) reset() {
	m.last = time.Time{}
	m.samples = m.samples[:0]
}

func (m *frameMeter) stats() FrameStats {
	if len(m.samples) == 0 {
		return FrameStats{}
	}
	s := FrameStats{Latest: m.samples[len(m.samples)-1], Min: m.samples[0], Max: m.samples[0]}
	sum := 0.0
	for _, v := range m.samples {
		sum += v
		s.Min = min(s.Min, v)
		s.Max = max(s.Max, v)
	}
	s.Mean = sum / float64(len(m.samples))
	return s
}
