// Copyright (c) 2025 BVK Chaitanya

package solana

import (
	"fmt"
	"time"
)

type Options struct {
	// RPCURL is the json-rpc http endpoint.
	RPCURL string

	// WSURL is the json-rpc websocket endpoint. When empty, confirmations are
	// polled over http.
	WSURL string

	Commitment string

	HttpClientTimeout time.Duration

	MaxRetries int
	RetryDelay time.Duration
	MaxDelay   time.Duration

	RequestsPerSecond float64

	// ConfirmTimeout bounds the wait for a transaction confirmation.
	ConfirmTimeout time.Duration
}

func (v *Options) setDefaults() {
	if len(v.RPCURL) == 0 {
		v.RPCURL = "https://api.mainnet-beta.solana.com"
	}
	if len(v.Commitment) == 0 {
		v.Commitment = "confirmed"
	}
	if v.HttpClientTimeout == 0 {
		v.HttpClientTimeout = 30 * time.Second
	}
	if v.MaxRetries == 0 {
		v.MaxRetries = 3
	}
	if v.RetryDelay == 0 {
		v.RetryDelay = time.Second
	}
	if v.MaxDelay == 0 {
		v.MaxDelay = 10 * time.Second
	}
	if v.RequestsPerSecond == 0 {
		v.RequestsPerSecond = 5
	}
	if v.ConfirmTimeout == 0 {
		v.ConfirmTimeout = time.Minute
	}
}

func (v *Options) Check() error {
	switch v.Commitment {
	case "processed", "confirmed", "finalized":
	default:
		return fmt.Errorf("invalid commitment level %q", v.Commitment)
	}
	if v.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	return nil
}
