// Copyright (c) 2025 BVK Chaitanya

package bot

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"

	"github.com/bvk/mentionbot/api"
	"github.com/bvk/mentionbot/cli"
	"github.com/bvk/mentionbot/subcmds/cmdutil"
)

type Get struct {
	cmdutil.ClientFlags
}

func (c *Get) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("get", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	return fset, cli.CmdFunc(c.run)
}

func (c *Get) Synopsis() string {
	return "Prints a bot's configuration and polling state"
}

func (c *Get) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("needs one (bot id) argument")
	}
	resp, err := cmdutil.Post[api.BotGetResponse](ctx, &c.ClientFlags, api.BotGetPath, &api.BotGetRequest{ID: args[0]})
	if err != nil {
		return err
	}
	js, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", js)
	return nil
}
