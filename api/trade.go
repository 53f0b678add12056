// Copyright (c) 2025 BVK Chaitanya

package api

import "github.com/bvk/mentionbot/gobs"

const (
	TradeListPath = "/mentionbot/trade/list"
	TradeGetPath  = "/mentionbot/trade/get"
)

type TradeListRequest struct {
	BotID string

	// Limit when positive returns only the latest trades.
	Limit int
}

type TradeListResponse struct {
	Trades []*gobs.Trade
}

type TradeGetRequest struct {
	ID string
}

type TradeGetResponse struct {
	Trade *gobs.Trade
}
