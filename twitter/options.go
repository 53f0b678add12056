// Copyright (c) 2025 BVK Chaitanya

package twitter

import (
	"fmt"
	"net/url"
	"time"

	"github.com/bvk/mentionbot/ratelimit"
)

type Options struct {
	// BaseURL is the api endpoint. Defaults to https://api.twitter.com.
	BaseURL string

	HttpClientTimeout time.Duration

	// RequestsPerSecond limits the request rate from this client.
	RequestsPerSecond float64

	// MaxPages limits the number of pages fetched for one mentions request.
	MaxPages int

	// Tracker if non-nil is consulted before user lookups and replies, and is
	// updated with their rate limit responses.
	Tracker *ratelimit.Tracker
}

func (v *Options) setDefaults() {
	if len(v.BaseURL) == 0 {
		v.BaseURL = "https://api.twitter.com"
	}
	if v.HttpClientTimeout == 0 {
		v.HttpClientTimeout = 30 * time.Second
	}
	if v.RequestsPerSecond == 0 {
		v.RequestsPerSecond = 1
	}
	if v.MaxPages == 0 {
		v.MaxPages = 5
	}
}

func (v *Options) Check() error {
	if _, err := url.Parse(v.BaseURL); err != nil {
		return fmt.Errorf("invalid base url: %w", err)
	}
	if v.MaxPages < 0 {
		return fmt.Errorf("max pages cannot be negative")
	}
	return nil
}
