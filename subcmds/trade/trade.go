// Copyright (c) 2025 BVK Chaitanya

package trade

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/bvk/mentionbot/api"
	"github.com/bvk/mentionbot/cli"
	"github.com/bvk/mentionbot/subcmds/cmdutil"
)

type List struct {
	cmdutil.ClientFlags

	limit int
}

func (c *List) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("list", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	fset.IntVar(&c.limit, "limit", 0, "when positive, prints only the latest trades")
	return fset, cli.CmdFunc(c.run)
}

func (c *List) Synopsis() string {
	return "Lists trades of a bot"
}

func (c *List) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("needs one (bot id) argument")
	}
	req := &api.TradeListRequest{
		BotID: args[0],
		Limit: c.limit,
	}
	resp, err := cmdutil.Post[api.TradeListResponse](ctx, &c.ClientFlags, api.TradeListPath, req)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 1, ' ', 0)
	fmt.Fprintf(tw, "ID\tCreated\tAction\tAmount\tIn\tOut\tOutAmount\tMode\tStatus\tSignature\t\n")
	for _, t := range resp.Trades {
		out := "-"
		if t.OutAmount != nil {
			out = t.OutAmount.String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n", t.ID, t.CreatedAt.Local().Format(time.DateTime),
			t.Action, t.Amount, t.InToken, t.OutToken, out, t.Mode, t.Status, t.TransactionSignature)
	}
	tw.Flush()
	return nil
}

type Get struct {
	cmdutil.ClientFlags
}

func (c *Get) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("get", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	return fset, cli.CmdFunc(c.run)
}

func (c *Get) Synopsis() string {
	return "Prints a trade record"
}

func (c *Get) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("needs one (trade id) argument")
	}
	resp, err := cmdutil.Post[api.TradeGetResponse](ctx, &c.ClientFlags, api.TradeGetPath, &api.TradeGetRequest{ID: args[0]})
	if err != nil {
		return err
	}
	js, err := json.MarshalIndent(resp.Trade, "", "  ")
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", js)
	return nil
}
