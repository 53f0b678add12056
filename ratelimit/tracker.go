// Copyright (c) 2025 BVK Chaitanya

package ratelimit

import (
	"sync"
	"time"
)

// Endpoint categories tracked for the social api.
const (
	Mentions   = "mentions"
	UserLookup = "user-lookup"
	Tweet      = "tweet"
)

// LowWatermark is the remaining request quota at or below which an endpoint
// is treated as limited till its reset time.
const LowWatermark = 1

type State struct {
	IsLimited bool
	ResetAt   time.Time
}

type Options struct {
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

func (v *Options) setDefaults() {
	if v.Now == nil {
		v.Now = time.Now
	}
}

// Tracker keeps per-endpoint rate limit state in memory. It is safe for
// concurrent use.
type Tracker struct {
	opts Options

	mu sync.Mutex

	stateMap map[string]*State
}

func New(opts *Options) *Tracker {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	return &Tracker{
		opts:     *opts,
		stateMap: make(map[string]*State),
	}
}

// IsLimited returns true if the endpoint has an active limit. An expired
// limit is cleared as a side effect.
func (t *Tracker) IsLimited(endpoint string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.stateMap[endpoint]
	if !ok || !s.IsLimited {
		return false
	}
	if !t.opts.Now().Before(s.ResetAt) {
		s.IsLimited = false
		return false
	}
	return true
}

// ResetAt returns the reset time for an active limit.
func (t *Tracker) ResetAt(endpoint string) (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.stateMap[endpoint]
	if !ok || !s.IsLimited {
		return time.Time{}, false
	}
	return s.ResetAt, true
}

func (t *Tracker) RecordLimit(endpoint string, resetAt time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stateMap[endpoint] = &State{IsLimited: true, ResetAt: resetAt}
}

// RecordSuccess records the quota reported by a successful response. The
// endpoint is throttled proactively when remaining quota is at or below the
// low watermark. Negative remaining value means the quota is unknown.
func (t *Tracker) RecordSuccess(endpoint string, remaining int, resetAt time.Time) {
	if remaining >= 0 && remaining <= LowWatermark && !resetAt.IsZero() {
		t.RecordLimit(endpoint, resetAt)
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if s, ok := t.stateMap[endpoint]; ok && !t.opts.Now().Before(s.ResetAt) {
		delete(t.stateMap, endpoint)
	}
}

// Snapshot returns a copy of all endpoint states.
func (t *Tracker) Snapshot() map[string]State {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.opts.Now()
	m := make(map[string]State, len(t.stateMap))
	for k, v := range t.stateMap {
		m[k] = State{IsLimited: v.IsLimited && now.Before(v.ResetAt), ResetAt: v.ResetAt}
	}
	return m
}
