package analytics

import (
	"math"

	"github.com/indcloud/console/data"
)

// Accumulator keeps the running min, max and mean of a series of values.
// It is not safe for concurrent use; FetchAll feeds it from a single
// goroutine.
type Accumulator struct {
	total float64
	count int
	min   float64
	max   float64
}

// NewAccumulator returns an empty accumulator
func NewAccumulator() *Accumulator {
	return &Accumulator{
		min: math.Inf(1),
		max: math.Inf(-1),
	}
}

// Add takes a value. NaN values are ignored.
func (a *Accumulator) Add(v float64) {
	if math.IsNaN(v) {
		return
	}
	a.total += v
	a.count++
	if v < a.min {
		a.min = v
	}
	if v > a.max {
		a.max = v
	}
}

// AddPoints adds the value of every point that has one
func (a *Accumulator) AddPoints(pts []data.AggregatePoint) int {
	added := 0
	for _, p := range pts {
		if p.Value == nil {
			continue
		}
		a.Add(*p.Value)
		added++
	}
	return added
}

// Merge adds everything b has seen
func (a *Accumulator) Merge(b *Accumulator) {
	if b.count == 0 {
		return
	}
	a.total += b.total
	a.count += b.count
	if b.min < a.min {
		a.min = b.min
	}
	if b.max > a.max {
		a.max = b.max
	}
}

// Reset empties the accumulator
func (a *Accumulator) Reset() {
	*a = *NewAccumulator()
}

// Count returns the number of values seen
func (a *Accumulator) Count() int {
	return a.count
}

// Min returns the smallest value, nil when nothing was added
func (a *Accumulator) Min() *float64 {
	if a.count == 0 {
		return nil
	}
	v := a.min
	return &v
}

// Max returns the largest value, nil when nothing was added
func (a *Accumulator) Max() *float64 {
	if a.count == 0 {
		return nil
	}
	v := a.max
	return &v
}

// Avg returns the mean, nil when nothing was added
func (a *Accumulator) Avg() *float64 {
	if a.count == 0 {
		return nil
	}
	v := a.total / float64(a.count)
	return &v
}

// Summary is a snapshot of an accumulator
type Summary struct {
	Min     *float64
	Max     *float64
	Avg     *float64
	Samples int
	// Devices is the number of devices that contributed at least one value
	Devices int
}

// Summary returns the current values
func (a *Accumulator) Summary() Summary {
	return Summary{
		Min:     a.Min(),
		Max:     a.Max(),
		Avg:     a.Avg(),
		Samples: a.count,
	}
}
