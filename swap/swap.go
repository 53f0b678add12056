// Copyright (c) 2025 BVK Chaitanya

// Package swap defines token swap requests and results, and a simulator that
// produces synthetic results without touching the network.
package swap

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"strings"

	"github.com/bvk/mentionbot/token"
	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
)

// SimulatedPrefix marks signatures of simulated results.
const SimulatedPrefix = "SIMULATED-"

type Request struct {
	InToken  *token.Token
	OutToken *token.Token

	// Amount is the input amount in ui units.
	Amount decimal.Decimal

	// Owner is the base58 address of the wallet paying for the swap.
	Owner string

	SlippageBps int
}

func (r *Request) Check() error {
	if r.InToken == nil || r.OutToken == nil {
		return fmt.Errorf("input and output tokens are required: %w", os.ErrInvalid)
	}
	if r.InToken.Symbol == r.OutToken.Symbol {
		return fmt.Errorf("input and output tokens must be different: %w", os.ErrInvalid)
	}
	if !r.Amount.IsPositive() {
		return fmt.Errorf("amount must be positive: %w", os.ErrInvalid)
	}
	if len(r.Owner) == 0 {
		return fmt.Errorf("owner address is required: %w", os.ErrInvalid)
	}
	if r.SlippageBps < 0 || r.SlippageBps > 10000 {
		return fmt.Errorf("slippage %d bps is out of range: %w", r.SlippageBps, os.ErrInvalid)
	}
	return nil
}

type Result struct {
	Signature string
	OutAmount decimal.Decimal
	Simulated bool
}

func IsSimulated(signature string) bool {
	return strings.HasPrefix(signature, SimulatedPrefix)
}

// Simulator returns synthetic swap results with the output amount computed
// as input amount times the rate.
type Simulator struct {
	Rate decimal.Decimal
}

func (s *Simulator) Swap(ctx context.Context, req *Request) (*Result, error) {
	if err := req.Check(); err != nil {
		return nil, err
	}
	var buf [64]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return nil, fmt.Errorf("could not generate simulated signature: %w", err)
	}
	rate := s.Rate
	if rate.IsZero() {
		rate = decimal.NewFromInt(1)
	}
	result := &Result{
		Signature: SimulatedPrefix + base58.Encode(buf[:]),
		OutAmount: req.Amount.Mul(rate),
		Simulated: true,
	}
	return result, nil
}
