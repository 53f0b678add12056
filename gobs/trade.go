// Copyright (c) 2025 BVK Chaitanya

package gobs

import (
	"time"

	"github.com/shopspring/decimal"
)

type Trade struct {
	ID    string
	BotID string

	Action   string
	InToken  string
	OutToken string

	Amount    decimal.Decimal
	OutAmount *decimal.Decimal

	Status string

	// Mode is the execution mode that produced the result.
	Mode string

	TransactionSignature string
	ErrorMessage         string

	SourceMessageID   string
	SourceMessageText string
	SourceAuthor      string

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Wallet struct {
	Name      string
	PublicKey string

	Balances map[string]decimal.Decimal

	RefreshedAt time.Time
}
