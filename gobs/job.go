// Copyright (c) 2025 BVK Chaitanya

package gobs

import "time"

type CommandJob struct {
	ID string

	BotID           string
	Text            string
	SourceMessageID string

	State string

	TradeID string
	Error   string

	EnqueuedAt time.Time
	UpdatedAt  time.Time
}
