// Copyright (c) 2025 BVK Chaitanya

package bot

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/bvk/mentionbot/api"
	"github.com/bvk/mentionbot/cli"
	"github.com/bvk/mentionbot/subcmds/cmdutil"
)

type List struct {
	cmdutil.ClientFlags
}

func (c *List) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("list", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	return fset, cli.CmdFunc(c.run)
}

func (c *List) Synopsis() string {
	return "Lists all registered bots"
}

func (c *List) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("this command takes no arguments")
	}
	resp, err := cmdutil.Post[api.BotListResponse](ctx, &c.ClientFlags, api.BotListPath, &api.BotListRequest{})
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 1, ' ', 0)
	fmt.Fprintf(tw, "ID\tHandle\tWallet\tActions\tTokens\tSlippage\tMode\tActive\t\n")
	for _, b := range resp.Bots {
		mode := b.ExecutionMode
		if len(mode) == 0 {
			mode = "default"
		}
		fmt.Fprintf(tw, "%s\t@%s\t%s\t%s\t%s\t%d\t%s\t%t\t\n", b.ID, b.Handle, b.WalletName,
			strings.Join(b.SupportedActions, ","), strings.Join(b.SupportedTokens, ","), b.SlippageBps, mode, b.Active)
	}
	tw.Flush()
	return nil
}
