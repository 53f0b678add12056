// Copyright (c) 2025 BVK Chaitanya

package bot

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/bvk/mentionbot/api"
	"github.com/bvk/mentionbot/cli"
	"github.com/bvk/mentionbot/subcmds/cmdutil"
	"github.com/shopspring/decimal"
)

type Add struct {
	cmdutil.ClientFlags

	handle     string
	userID     string
	walletName string

	actions string
	tokens  string

	slippageBps int
	mode        string

	lowBalanceLimit string
}

func (c *Add) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("add", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	fset.StringVar(&c.handle, "handle", "", "social account handle of the bot")
	fset.StringVar(&c.userID, "user-id", "", "social account user id; looked up from the handle when empty")
	fset.StringVar(&c.walletName, "wallet", "", "name of the wallet that funds the trades")
	fset.StringVar(&c.actions, "actions", "", "comma separated list of allowed actions (default swap,buy,sell)")
	fset.StringVar(&c.tokens, "tokens", "", "comma separated list of at least two token symbols")
	fset.IntVar(&c.slippageBps, "slippage-bps", 0, "max slippage in basis points (default 50)")
	fset.StringVar(&c.mode, "mode", "", "execution mode (live, simulated or live-fallback); server default when empty")
	fset.StringVar(&c.lowBalanceLimit, "low-balance-limit", "0", "SOL balance at or below which a notification is sent")
	return fset, cli.CmdFunc(c.run)
}

func (c *Add) Synopsis() string {
	return "Registers a new bot with the service"
}

func (c *Add) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("needs one (bot id) argument")
	}
	limit, err := decimal.NewFromString(c.lowBalanceLimit)
	if err != nil {
		return fmt.Errorf("invalid low balance limit %q: %w", c.lowBalanceLimit, err)
	}

	req := &api.BotAddRequest{
		ID:              args[0],
		Handle:          c.handle,
		UserID:          c.userID,
		WalletName:      c.walletName,
		SupportedTokens: splitList(c.tokens),
		SlippageBps:     c.slippageBps,
		ExecutionMode:   c.mode,
		LowBalanceLimit: limit,
	}
	if len(c.actions) != 0 {
		req.SupportedActions = splitList(c.actions)
	}
	resp, err := cmdutil.Post[api.BotAddResponse](ctx, &c.ClientFlags, api.BotAddPath, req)
	if err != nil {
		return err
	}
	fmt.Printf("added bot %s for @%s (user id %s)\n", resp.Bot.ID, resp.Bot.Handle, resp.Bot.UserID)
	return nil
}

func splitList(s string) []string {
	var vs []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); len(v) != 0 {
			vs = append(vs, v)
		}
	}
	return vs
}
