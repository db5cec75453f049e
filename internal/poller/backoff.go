package poller

import "time"

// backoffDelay returns the capped exponential delay before the next poll:
// base * 2^attempts, never exceeding max.
func backoffDelay(base, max time.Duration, attempts int) time.Duration {
	if base <= 0 {
		base = time.Second
	}
	if max <= 0 {
		max = 30 * time.Second
	}
	if attempts < 0 {
		attempts = 0
	}
	// past 30 doublings the shift would overflow; it is over max anyway
	if attempts > 30 {
		return max
	}

	delay := base << uint(attempts)
	if delay > max || delay <= 0 {
		return max
	}
	return delay
}
