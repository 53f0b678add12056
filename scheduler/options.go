// Copyright (c) 2025 BVK Chaitanya

package scheduler

import (
	"fmt"
	"time"
)

type Options struct {
	// DefaultPollInterval is the interval for new schedules and the upper
	// bound for idle polling.
	DefaultPollInterval time.Duration

	// MinPollInterval is the lower bound for any poll interval.
	MinPollInterval time.Duration

	// MaxBackoff bounds the backoff after rate limit errors.
	MaxBackoff time.Duration

	BackoffMultiplier float64

	// Stagger separates the first polls of bots that are scheduled together.
	Stagger time.Duration

	// SafetyBuffer is added to the rate limit reset time.
	SafetyBuffer time.Duration

	TickInterval time.Duration

	Now func() time.Time
}

func (v *Options) setDefaults() {
	if v.DefaultPollInterval == 0 {
		v.DefaultPollInterval = 300 * time.Second
	}
	if v.MinPollInterval == 0 {
		v.MinPollInterval = 30 * time.Second
	}
	if v.MaxBackoff == 0 {
		v.MaxBackoff = 3600 * time.Second
	}
	if v.BackoffMultiplier == 0 {
		v.BackoffMultiplier = 2
	}
	if v.Stagger == 0 {
		v.Stagger = 2 * time.Second
	}
	if v.SafetyBuffer == 0 {
		v.SafetyBuffer = 5 * time.Second
	}
	if v.TickInterval == 0 {
		v.TickInterval = time.Second
	}
	if v.Now == nil {
		v.Now = time.Now
	}
}

func (v *Options) Check() error {
	if v.MinPollInterval <= 0 {
		return fmt.Errorf("min poll interval must be positive")
	}
	if v.DefaultPollInterval < v.MinPollInterval {
		return fmt.Errorf("default poll interval %s is below the min poll interval %s", v.DefaultPollInterval, v.MinPollInterval)
	}
	if v.MaxBackoff < v.DefaultPollInterval {
		return fmt.Errorf("max backoff %s is below the default poll interval %s", v.MaxBackoff, v.DefaultPollInterval)
	}
	if v.BackoffMultiplier <= 1 {
		return fmt.Errorf("backoff multiplier must be greater than one")
	}
	if v.Stagger < 0 || v.SafetyBuffer < 0 {
		return fmt.Errorf("stagger and safety buffer cannot be negative")
	}
	if v.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive")
	}
	return nil
}
