// Copyright (c) 2025 BVK Chaitanya

package jupiter

import (
	"fmt"
	"net/url"
	"time"
)

type Options struct {
	// BaseURL is the swap api endpoint with the quote and swap methods.
	BaseURL string

	// APIKey is optional. It is sent as the x-api-key header when set.
	APIKey string

	HttpClientTimeout time.Duration

	RequestsPerSecond float64
}

func (v *Options) setDefaults() {
	if len(v.BaseURL) == 0 {
		v.BaseURL = "https://lite-api.jup.ag/swap/v1"
	}
	if v.HttpClientTimeout == 0 {
		v.HttpClientTimeout = 30 * time.Second
	}
	if v.RequestsPerSecond == 0 {
		v.RequestsPerSecond = 1
	}
}

func (v *Options) Check() error {
	if _, err := url.Parse(v.BaseURL); err != nil {
		return fmt.Errorf("invalid base url: %w", err)
	}
	if v.RequestsPerSecond < 0 {
		return fmt.Errorf("requests per second cannot be negative")
	}
	return nil
}
