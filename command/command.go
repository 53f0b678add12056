// Copyright (c) 2025 BVK Chaitanya

// Package command turns the free text of a mention into a trade intent.
//
// The grammar is deliberately small: one verb (swap, buy or sell), one amount
// and two supported token symbols. Every verb executes as a swap from InToken
// to OutToken; buy and sell only change how the two symbols are ordered.
//
// Note that sell uses the reversed positional order, so "sell 5 JUP for SOL"
// spends SOL to realize JUP. Existing deployments depend on this behavior.
package command

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/bvk/mentionbot/token"
	"github.com/shopspring/decimal"
)

type Action string

const (
	Swap Action = "swap"
	Buy  Action = "buy"
	Sell Action = "sell"
)

// Command is a parsed trade intent. It is never persisted by itself.
type Command struct {
	Action Action

	InToken  string
	OutToken string

	Amount decimal.Decimal
}

func (c *Command) String() string {
	return fmt.Sprintf("%s %s %s for %s", c.Action, c.Amount, c.InToken, c.OutToken)
}

type ParseError struct {
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not parse command: %s", e.Reason)
}

type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid command: %s", e.Reason)
}

var (
	verbRe      = regexp.MustCompile(`(?i)\b(buy|sell|swap)\b`)
	mentionRe   = regexp.MustCompile(`@\w+`)
	amountRe    = regexp.MustCompile(`(?:^|[\s$(])(-?(?:\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:\.\d+)?|\.\d+))\b`)
	wordRe      = regexp.MustCompile(`\$?[A-Za-z][A-Za-z0-9]*`)
	forRe       = regexp.MustCompile(`(?i)\bfor\b`)
	connectorRe = regexp.MustCompile(`(?i)\b(of|for|to|with)\b`)
)

type match struct {
	symbol string
	offset int
}

// Parse extracts a Command from the mention text. The bot's own @handle and
// any other @mentions are ignored. Amounts must start on a word boundary. Returns a *ParseError when the text doesn't follow the grammar.
func Parse(text, handle string) (*Command, error) {
	perr := func(format string, args ...interface{}) error {
		return &ParseError{Text: text, Reason: fmt.Sprintf(format, args...)}
	}

	s := text
	if h := strings.TrimPrefix(strings.TrimSpace(handle), "@"); len(h) > 0 {
		re := regexp.MustCompile(`(?i)@` + regexp.QuoteMeta(h) + `\b`)
		s = re.ReplaceAllString(s, " ")
	}
	s = mentionRe.ReplaceAllString(s, " ")

	loc := verbRe.FindStringSubmatchIndex(s)
	if loc == nil {
		return nil, perr("no action verb (buy, sell or swap) found")
	}
	action := Action(strings.ToLower(s[loc[2]:loc[3]]))
	verbEnd := loc[1]

	sub := amountRe.FindStringSubmatch(s)
	if len(sub) < 2 || len(sub[1]) == 0 {
		return nil, perr("no amount found")
	}
	literal := sub[1]
	amount, err := decimal.NewFromString(strings.ReplaceAll(literal, ",", ""))
	if err != nil {
		return nil, perr("invalid amount %q", literal)
	}
	if !amount.IsPositive() {
		return nil, perr("amount %s must be positive", amount)
	}

	var matches []match
	var distinct []string
	for _, idx := range wordRe.FindAllStringIndex(s, -1) {
		t, ok := token.Lookup(s[idx[0]:idx[1]])
		if !ok {
			continue
		}
		matches = append(matches, match{symbol: t.Symbol, offset: idx[0]})
		if !slices.Contains(distinct, t.Symbol) {
			distinct = append(distinct, t.Symbol)
		}
	}
	if len(distinct) < 2 {
		return nil, perr("two different supported tokens are required")
	}

	in, out := distinct[0], distinct[1]
	switch action {
	case Swap:
		if at := findAfter(forRe, s, verbEnd); at >= 0 {
			before, after := split(matches, at)
			if len(before) > 0 && len(after) > 0 {
				in, out = before[len(before)-1].symbol, after[0].symbol
			}
		}
	case Buy:
		if at := findAfter(connectorRe, s, verbEnd); at >= 0 {
			before, after := split(matches, at)
			if len(before) > 0 && len(after) > 0 {
				in, out = before[0].symbol, after[0].symbol
			}
		}
	case Sell:
		in, out = distinct[1], distinct[0]
	}
	if in == out {
		return nil, perr("input and output tokens must be different")
	}

	cmd := &Command{
		Action:   action,
		InToken:  in,
		OutToken: out,
		Amount:   amount,
	}
	return cmd, nil
}

// findAfter returns the offset of the first match of re at or after the
// given position, or -1.
func findAfter(re *regexp.Regexp, s string, pos int) int {
	loc := re.FindStringIndex(s[pos:])
	if loc == nil {
		return -1
	}
	return pos + loc[0]
}

func split(matches []match, at int) (before, after []match) {
	for _, m := range matches {
		if m.offset < at {
			before = append(before, m)
		} else {
			after = append(after, m)
		}
	}
	return before, after
}

// Validate checks the command against a bot's configuration. Returns a
// *ValidationError when the command is not allowed.
func Validate(cmd *Command, actions []string, tokens token.Set) error {
	if !cmd.Amount.IsPositive() {
		return &ValidationError{Reason: fmt.Sprintf("amount %s must be positive", cmd.Amount)}
	}
	if !slices.ContainsFunc(actions, func(a string) bool { return strings.EqualFold(a, string(cmd.Action)) }) {
		return &ValidationError{Reason: fmt.Sprintf("action %q is not supported", cmd.Action)}
	}
	if !tokens.Contains(cmd.InToken) {
		return &ValidationError{Reason: fmt.Sprintf("token %s is not supported", cmd.InToken)}
	}
	if !tokens.Contains(cmd.OutToken) {
		return &ValidationError{Reason: fmt.Sprintf("token %s is not supported", cmd.OutToken)}
	}
	return nil
}
