// Copyright (c) 2023 BVK Chaitanya

package server

import (
	"net/url"
	"time"

	"github.com/bvk/mentionbot/scheduler"
	"github.com/bvk/mentionbot/trader"
	"github.com/shopspring/decimal"
)

type Options struct {
	// DefaultMode is the execution mode for bots without one. Defaults to
	// simulated.
	DefaultMode string

	// Fee is the SOL amount reserved for network fees in every trade.
	Fee decimal.Decimal

	// NoFee trades without reserving any network fee.
	NoFee bool

	// SimulatedRate is the output amount per input unit for simulated
	// trades.
	SimulatedRate decimal.Decimal

	// OfflineBalances uses the balances stored with the wallets instead of
	// querying the chain. Useful with simulated trades.
	OfflineBalances bool

	// NoResume doesn't start the poll loop and the job worker.
	NoResume bool

	// TwitterBaseURL overrides the social api endpoint.
	TwitterBaseURL string

	Scheduler scheduler.Options

	Now func() time.Time
}

func (v *Options) setDefaults() {
	if len(v.DefaultMode) == 0 {
		v.DefaultMode = string(trader.Simulated)
	}
	if v.Now == nil {
		v.Now = time.Now
	}
}

func (v *Options) Check() error {
	if _, err := trader.ParseExecutionMode(v.DefaultMode); err != nil {
		return err
	}
	if len(v.TwitterBaseURL) != 0 {
		if _, err := url.Parse(v.TwitterBaseURL); err != nil {
			return err
		}
	}
	return nil
}
