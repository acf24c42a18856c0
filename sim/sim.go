package sim

import (
	"math"
	"time"
)

// Wave is a triangle wave between Min and Max. Values are a pure function of
// time so history queries and live readings agree.
type Wave struct {
	Min    float64
	Max    float64
	Period time.Duration
	Phase  time.Duration
}

// NewWave creates a wave that starts at start and ramps by step every tick.
// The period is derived from the range and the step.
func NewWave(start, step, minVal, maxVal float64, tick time.Duration) Wave {
	steps := (maxVal - minVal) / step
	if steps <= 0 || math.IsInf(steps, 0) || math.IsNaN(steps) {
		steps = 1
	}
	period := time.Duration(2 * steps * float64(tick))
	frac := (start - minVal) / (maxVal - minVal)
	if math.IsNaN(frac) {
		frac = 0
	}
	return Wave{
		Min:    minVal,
		Max:    maxVal,
		Period: period,
		Phase:  time.Duration(frac * float64(period) / 2),
	}
}

// At returns the value of the wave at t
func (w Wave) At(t time.Time) float64 {
	if w.Period <= 0 {
		return w.Min
	}
	pos := time.Duration(t.UnixNano()+int64(w.Phase)) % w.Period
	if pos < 0 {
		pos += w.Period
	}
	f := float64(pos) / float64(w.Period)
	// up for the first half, down for the second
	if f < 0.5 {
		return w.Min + (w.Max-w.Min)*2*f
	}
	return w.Max - (w.Max-w.Min)*2*(f-0.5)
}
