// Copyright (c) 2025 BVK Chaitanya

package scheduler

import "time"

// ActiveInterval returns the next interval after a poll that found mentions.
func ActiveInterval(backoff, minInterval time.Duration) time.Duration {
	return max(minInterval, backoff/2)
}

// IdleInterval returns the next interval after a poll that found nothing.
func IdleInterval(backoff, defaultInterval time.Duration) time.Duration {
	return min(defaultInterval, backoff*3/2)
}

// RateLimitedBackoff returns the backoff after a rate limit error.
func RateLimitedBackoff(backoff time.Duration, multiplier float64, maxBackoff time.Duration) time.Duration {
	next := time.Duration(float64(backoff) * multiplier)
	if next < backoff {
		// Overflow.
		return maxBackoff
	}
	return min(next, maxBackoff)
}
