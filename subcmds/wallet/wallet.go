// Copyright (c) 2025 BVK Chaitanya

package wallet

import (
	"context"
	"flag"
	"fmt"
	"os"
	"slices"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/bvk/mentionbot/api"
	"github.com/bvk/mentionbot/cli"
	"github.com/bvk/mentionbot/gobs"
	"github.com/bvk/mentionbot/subcmds/cmdutil"
)

type Add struct {
	cmdutil.ClientFlags

	publicKey string
}

func (c *Add) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("add", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	fset.StringVar(&c.publicKey, "public-key", "", "base58 encoded wallet address")
	return fset, cli.CmdFunc(c.run)
}

func (c *Add) Synopsis() string {
	return "Registers a watch-only wallet address"
}

func (c *Add) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("needs one (wallet name) argument")
	}
	req := &api.WalletAddRequest{
		Name:      args[0],
		PublicKey: c.publicKey,
	}
	resp, err := cmdutil.Post[api.WalletAddResponse](ctx, &c.ClientFlags, api.WalletAddPath, req)
	if err != nil {
		return err
	}
	fmt.Printf("added wallet %s with address %s\n", resp.Wallet.Name, resp.Wallet.PublicKey)
	return nil
}

type List struct {
	cmdutil.ClientFlags
}

func (c *List) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("list", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	return fset, cli.CmdFunc(c.run)
}

func (c *List) Synopsis() string {
	return "Lists wallets with their last known balances"
}

func (c *List) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("this command takes no arguments")
	}
	resp, err := cmdutil.Post[api.WalletListResponse](ctx, &c.ClientFlags, api.WalletListPath, &api.WalletListRequest{})
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 1, ' ', 0)
	fmt.Fprintf(tw, "Name\tAddress\tSigner\tRefreshed\tBalances\t\n")
	for _, w := range resp.Wallets {
		refreshed := "never"
		if !w.RefreshedAt.IsZero() {
			refreshed = w.RefreshedAt.Local().Format(time.DateTime)
		}
		signer := slices.Contains(resp.Signers, w.Name)
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%s\t\n", w.Name, w.PublicKey, signer, refreshed, balances(w))
	}
	tw.Flush()
	return nil
}

type Refresh struct {
	cmdutil.ClientFlags
}

func (c *Refresh) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("refresh", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	return fset, cli.CmdFunc(c.run)
}

func (c *Refresh) Synopsis() string {
	return "Fetches current balances of a bot's wallet from the chain"
}

func (c *Refresh) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("needs one (bot id) argument")
	}
	resp, err := cmdutil.Post[api.WalletRefreshResponse](ctx, &c.ClientFlags, api.WalletRefreshPath, &api.WalletRefreshRequest{BotID: args[0]})
	if err != nil {
		return err
	}
	fmt.Printf("%s: %s\n", resp.Wallet.Name, balances(resp.Wallet))
	return nil
}

func balances(w *gobs.Wallet) string {
	var symbols []string
	for k := range w.Balances {
		symbols = append(symbols, k)
	}
	sort.Strings(symbols)

	s := ""
	for i, sym := range symbols {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%s=%s", sym, w.Balances[sym])
	}
	return s
}
