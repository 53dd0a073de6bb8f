package pusher

import (
	"math"
	"math/rand"
	"time"
)

// BackoffConfig configures reconnect pacing. Reconnects are retried
// with exponential backoff instead of the immediate unconditional
// retry some clients use, which risks reconnect storms.
type BackoffConfig struct {
	// Initial is the delay before the first reconnect attempt.
	Initial time.Duration
	// Max caps the delay between attempts.
	Max time.Duration
	// Multiplier grows the delay per attempt.
	Multiplier float64
	// Jitter adds randomness to the delay (0.0 to 1.0).
	Jitter float64
}

// DefaultBackoffConfig returns sensible reconnect defaults.
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		Initial:    time.Second,
		Max:        30 * time.Second,
		Multiplier: 2.0,
		Jitter:     0.1,
	}
}

// delay computes the wait before the given attempt (0-based).
func (b BackoffConfig) delay(attempt int) time.Duration {
	d := float64(b.Initial) * math.Pow(b.Multiplier, float64(attempt))
	if d > float64(b.Max) {
		d = float64(b.Max)
	}
	if b.Jitter > 0 {
		d += d * b.Jitter * (rand.Float64()*2 - 1)
	}
	return time.Duration(d)
}
