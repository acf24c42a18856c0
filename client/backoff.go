package client

import (
	"math"
	"math/rand"
	"time"
)

// ExpBackoff calculates an exponential delay capped at max plus a random
// fraction of a second
func ExpBackoff(attempts int, max time.Duration) time.Duration {
	delay := max
	// compare in float seconds so large attempt counts cannot overflow
	if secs := math.Exp2(float64(attempts)); secs < max.Seconds() {
		delay = time.Duration(secs * float64(time.Second))
	}
	// randomize a bit
	delay = delay + time.Duration(rand.Float32()*1000)*time.Millisecond
	return delay
}
