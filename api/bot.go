// Copyright (c) 2025 BVK Chaitanya

package api

import (
	"time"

	"github.com/bvk/mentionbot/gobs"
	"github.com/shopspring/decimal"
)

const (
	BotAddPath   = "/mentionbot/bot/add"
	BotListPath  = "/mentionbot/bot/list"
	BotGetPath   = "/mentionbot/bot/get"
	BotStartPath = "/mentionbot/bot/start"
	BotStopPath  = "/mentionbot/bot/stop"
)

type BotAddRequest struct {
	ID string

	// Handle is the social account name. UserID is looked up from the handle
	// when it is empty.
	Handle string
	UserID string

	WalletName string

	SupportedActions []string
	SupportedTokens  []string

	SlippageBps   int
	ExecutionMode string

	LowBalanceLimit decimal.Decimal
}

type BotAddResponse struct {
	Bot *gobs.Bot
}

type BotListRequest struct {
}

type BotListResponse struct {
	Bots []*gobs.Bot
}

type BotGetRequest struct {
	ID string
}

type BotGetResponse struct {
	Bot *gobs.Bot

	State string

	LastSeenMessageID string
	NextPollTime      time.Time
	Backoff           time.Duration
}

type BotStartRequest struct {
	ID string
}

type BotStartResponse struct {
	State string
}

type BotStopRequest struct {
	ID string
}

type BotStopResponse struct {
	State string
}
