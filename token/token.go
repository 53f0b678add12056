// Copyright (c) 2025 BVK Chaitanya

// Package token holds the fixed registry of tradable Solana tokens.
package token

import (
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// FeeSymbol is the token used to pay network fees.
const FeeSymbol = "SOL"

type Token struct {
	Symbol   string
	Mint     string
	Decimals int32
}

var registry = map[string]*Token{
	"SOL":  {Symbol: "SOL", Mint: "So11111111111111111111111111111111111111112", Decimals: 9},
	"USDC": {Symbol: "USDC", Mint: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", Decimals: 6},
	"USDT": {Symbol: "USDT", Mint: "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB", Decimals: 6},
	"JUP":  {Symbol: "JUP", Mint: "JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN", Decimals: 6},
	"BONK": {Symbol: "BONK", Mint: "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263", Decimals: 5},
	"WIF":  {Symbol: "WIF", Mint: "EKpQGSJtjMFqKZ9KQanSqYXRcF8fBopzLHYxdM65zcjm", Decimals: 6},
	"RAY":  {Symbol: "RAY", Mint: "4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R", Decimals: 6},
}

// Lookup returns the registered token for a case-insensitive symbol.
func Lookup(symbol string) (*Token, bool) {
	t, ok := registry[strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(symbol), "$"))]
	return t, ok
}

// Symbols returns all registered symbols in sorted order.
func Symbols() []string {
	var vs []string
	for s := range registry {
		vs = append(vs, s)
	}
	sort.Strings(vs)
	return vs
}

// ToUnits converts a ui amount into the integer base units of the token.
func (t *Token) ToUnits(amount decimal.Decimal) decimal.Decimal {
	return amount.Shift(t.Decimals).Truncate(0)
}

// FromUnits converts integer base units into a ui amount.
func (t *Token) FromUnits(units decimal.Decimal) decimal.Decimal {
	return units.Shift(-t.Decimals)
}

// Set is the canonical form of a bot's supported token configuration.
type Set []string

// ParseSet parses a comma or space separated list of symbols into a Set. All
// symbols must be present in the registry.
func ParseSet(s string) (Set, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	return NewSet(fields...)
}

// NewSet creates a normalized and de-duplicated Set from a list of symbols.
func NewSet(symbols ...string) (Set, error) {
	var set Set
	for _, s := range symbols {
		t, ok := Lookup(s)
		if !ok {
			return nil, fmt.Errorf("token %q is not supported: %w", s, os.ErrInvalid)
		}
		if !slices.Contains(set, t.Symbol) {
			set = append(set, t.Symbol)
		}
	}
	return set, nil
}

func (s Set) Contains(symbol string) bool {
	t, ok := Lookup(symbol)
	return ok && slices.Contains(s, t.Symbol)
}

func (s Set) String() string {
	return strings.Join(s, ",")
}
