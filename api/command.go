// Copyright (c) 2025 BVK Chaitanya

package api

import (
	"github.com/bvk/mentionbot/gobs"
	"github.com/shopspring/decimal"
)

const (
	CommandPath = "/mentionbot/command"
	JobGetPath  = "/mentionbot/job/get"
	ParsePath   = "/mentionbot/parse"
)

// CommandRequest queues a command for a bot as if it was mentioned with the
// text. SourceMessageID is optional.
type CommandRequest struct {
	BotID           string
	Text            string
	SourceMessageID string
}

type CommandResponse struct {
	JobID string
}

type JobGetRequest struct {
	JobID string

	// Wait blocks the request till the job is done.
	Wait bool
}

type JobGetResponse struct {
	Job *gobs.CommandJob

	// Trade is set when the job created a trade.
	Trade *gobs.Trade
}

// ParseRequest parses and validates the text without trading. Validation is
// skipped when BotID is empty.
type ParseRequest struct {
	BotID  string
	Handle string
	Text   string
}

type ParseResponse struct {
	Action   string
	InToken  string
	OutToken string
	Amount   decimal.Decimal
}
