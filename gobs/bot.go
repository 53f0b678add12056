// Copyright (c) 2025 BVK Chaitanya

package gobs

import (
	"time"

	"github.com/shopspring/decimal"
)

type Bot struct {
	ID string

	// Handle is the social account name without the @ prefix.
	Handle string

	// UserID is the social account id used to fetch mentions.
	UserID string

	WalletName string

	SupportedActions []string
	SupportedTokens  []string

	SlippageBps int

	// ExecutionMode is one of live, simulated or live-fallback. Empty value
	// picks the server default.
	ExecutionMode string

	// LowBalanceLimit is the SOL balance at or below which an alert is sent
	// after a balance refresh. Zero disables the alert.
	LowBalanceLimit decimal.Decimal

	Active bool

	CreatedAt time.Time
}

type PollSchedule struct {
	BotID string

	LastSeenMessageID string

	NextPollTime time.Time

	BackoffSeconds int64
}

type MessageRecord struct {
	BotID     string
	MessageID string

	// Status is one of traded, invalid or ignored.
	Status string
	Reason string

	TradeID string

	ProcessedAt time.Time
}
