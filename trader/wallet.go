// Copyright (c) 2025 BVK Chaitanya

package trader

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/bvk/mentionbot/gobs"
	"github.com/bvk/mentionbot/token"
	"github.com/shopspring/decimal"
)

func (o *Orchestrator) balance(ctx context.Context, wallet *gobs.Wallet, tok *token.Token) (decimal.Decimal, error) {
	if o.balancer == nil {
		return wallet.Balances[tok.Symbol], nil
	}
	v, err := o.balancer.Balance(ctx, wallet.PublicKey, tok)
	if err != nil {
		return decimal.Zero, fmt.Errorf("could not fetch %s balance of wallet %q: %w", tok.Symbol, wallet.Name, err)
	}
	return v, nil
}

// checkFunds verifies the wallet can pay for the swap amount and the network
// fee.
func (o *Orchestrator) checkFunds(ctx context.Context, wallet *gobs.Wallet, in *token.Token, amount decimal.Decimal) error {
	sol, _ := token.Lookup(token.FeeSymbol)
	solBalance, err := o.balance(ctx, wallet, sol)
	if err != nil {
		return err
	}

	if in.Symbol == sol.Symbol {
		required := amount.Add(o.opts.Fee)
		if solBalance.LessThan(required) {
			return &InsufficientFundsError{Token: sol.Symbol, Required: required, Available: solBalance}
		}
		return nil
	}

	inBalance, err := o.balance(ctx, wallet, in)
	if err != nil {
		return err
	}
	if inBalance.LessThan(amount) {
		return &InsufficientFundsError{Token: in.Symbol, Required: amount, Available: inBalance}
	}
	if solBalance.LessThan(o.opts.Fee) {
		return &InsufficientFundsError{Token: sol.Symbol, Required: o.opts.Fee, Available: solBalance}
	}
	return nil
}

// RefreshWallet fetches the current balances for the bot's wallet and
// publishes them as a balance update.
func (o *Orchestrator) RefreshWallet(ctx context.Context, botID string) (*gobs.Wallet, error) {
	bot, err := o.store.Bot(ctx, botID)
	if err != nil {
		return nil, fmt.Errorf("could not load bot %q: %w", botID, err)
	}
	symbols := append([]string{token.FeeSymbol}, bot.SupportedTokens...)
	if err := o.refreshWallet(ctx, bot, symbols); err != nil {
		return nil, err
	}
	return o.store.Wallet(ctx, bot.WalletName)
}

func (o *Orchestrator) refreshWallet(ctx context.Context, bot *gobs.Bot, symbols []string) error {
	if o.balancer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, o.opts.RefreshTimeout)
	defer cancel()

	wallet, err := o.store.Wallet(ctx, bot.WalletName)
	if err != nil {
		return fmt.Errorf("could not load wallet %q: %w", bot.WalletName, err)
	}

	balances := maps.Clone(wallet.Balances)
	if balances == nil {
		balances = make(map[string]decimal.Decimal)
	}
	slices.Sort(symbols)
	for _, sym := range slices.Compact(symbols) {
		tok, ok := token.Lookup(sym)
		if !ok {
			continue
		}
		v, err := o.balance(ctx, wallet, tok)
		if err != nil {
			return err
		}
		balances[tok.Symbol] = v
	}
	wallet.Balances = balances
	wallet.RefreshedAt = o.opts.Now()
	if err := o.store.SaveWallet(ctx, wallet); err != nil {
		return fmt.Errorf("could not save wallet %q: %w", wallet.Name, err)
	}

	o.balanceTopic.Send(&BalanceUpdate{
		BotID:           bot.ID,
		LowBalanceLimit: bot.LowBalanceLimit,
		Wallet:          wallet,
	})
	return nil
}
