// Copyright (c) 2025 BVK Chaitanya

// Package trader takes validated trade intents through the funds check and
// execution into a terminal trade record.
package trader

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bvk/mentionbot/gobs"
	"github.com/bvk/mentionbot/swap"
	"github.com/bvk/mentionbot/token"
	"github.com/shopspring/decimal"
)

type ExecutionMode string

const (
	// Live executes swaps on the network.
	Live ExecutionMode = "live"

	// Simulated never touches the network and produces synthetic results.
	Simulated ExecutionMode = "simulated"

	// LiveFallback executes live and substitutes a simulated result when the
	// live execution fails.
	LiveFallback ExecutionMode = "live-fallback"
)

func ParseExecutionMode(s string) (ExecutionMode, error) {
	switch m := ExecutionMode(strings.ToLower(strings.TrimSpace(s))); m {
	case Live, Simulated, LiveFallback:
		return m, nil
	}
	return "", fmt.Errorf("execution mode %q is not one of live, simulated or live-fallback: %w", s, os.ErrInvalid)
}

// Trade status values.
const (
	StatusPending   = "pending"
	StatusExecuting = "executing"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

func IsTerminal(status string) bool {
	return status == StatusCompleted || status == StatusFailed
}

// Message record status values.
const (
	MessageTraded  = "traded"
	MessageInvalid = "invalid"
	MessageIgnored = "ignored"
)

type Store interface {
	Bot(ctx context.Context, id string) (*gobs.Bot, error)

	Wallet(ctx context.Context, name string) (*gobs.Wallet, error)
	SaveWallet(ctx context.Context, w *gobs.Wallet) error

	CreateTrade(ctx context.Context, t *gobs.Trade) error
	UpdateTrade(ctx context.Context, t *gobs.Trade) error
	Trades(ctx context.Context, botID string) ([]*gobs.Trade, error)

	MessageRecord(ctx context.Context, botID, messageID string) (*gobs.MessageRecord, error)
	SaveMessageRecord(ctx context.Context, m *gobs.MessageRecord) error
}

type Swapper interface {
	Swap(ctx context.Context, req *swap.Request) (*swap.Result, error)
}

type Balancer interface {
	Balance(ctx context.Context, owner string, tok *token.Token) (decimal.Decimal, error)
}

type Options struct {
	// Fee is the network fee reserved in SOL for every swap. A zero fee is
	// replaced with the default unless NoFee is set.
	Fee decimal.Decimal

	// NoFee disables the fee reservation.
	NoFee bool

	// DefaultMode is used for bots without an execution mode.
	DefaultMode ExecutionMode

	// SimulatedRate is the output amount per unit of input for simulated
	// swaps.
	SimulatedRate decimal.Decimal

	// RefreshTimeout bounds the wallet balance refresh after a trade.
	RefreshTimeout time.Duration

	Now func() time.Time
}

func (v *Options) setDefaults() {
	if v.NoFee {
		v.Fee = decimal.Zero
	} else if v.Fee.IsZero() {
		v.Fee = decimal.RequireFromString("0.000005")
	}
	if len(v.DefaultMode) == 0 {
		v.DefaultMode = Simulated
	}
	if v.SimulatedRate.IsZero() {
		v.SimulatedRate = decimal.NewFromInt(1)
	}
	if v.RefreshTimeout == 0 {
		v.RefreshTimeout = 30 * time.Second
	}
	if v.Now == nil {
		v.Now = time.Now
	}
}

func (v *Options) Check() error {
	if v.Fee.IsNegative() {
		return fmt.Errorf("fee cannot be negative: %w", os.ErrInvalid)
	}
	if _, err := ParseExecutionMode(string(v.DefaultMode)); err != nil {
		return err
	}
	if !v.SimulatedRate.IsPositive() {
		return fmt.Errorf("simulated rate must be positive: %w", os.ErrInvalid)
	}
	return nil
}

type InsufficientFundsError struct {
	Token     string
	Required  decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: required %s %s, available %s %s", e.Required, e.Token, e.Available, e.Token)
}

// ExecutionError wraps a failure from the swap client.
type ExecutionError struct {
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("could not execute swap: %v", e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Rejection is published when a mention is not a valid command for the bot.
type Rejection struct {
	BotID     string
	MessageID string
	Author    string
	Text      string
	Reason    string
}

// BalanceUpdate is published after a wallet balance refresh.
type BalanceUpdate struct {
	BotID string

	// LowBalanceLimit is copied from the bot configuration.
	LowBalanceLimit decimal.Decimal

	Wallet *gobs.Wallet
}
