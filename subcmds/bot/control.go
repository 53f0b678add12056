// Copyright (c) 2025 BVK Chaitanya

package bot

import (
	"context"
	"flag"
	"fmt"

	"github.com/bvk/mentionbot/api"
	"github.com/bvk/mentionbot/cli"
	"github.com/bvk/mentionbot/subcmds/cmdutil"
)

type Start struct {
	cmdutil.ClientFlags
}

func (c *Start) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("start", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	return fset, cli.CmdFunc(c.run)
}

func (c *Start) Synopsis() string {
	return "Starts polling mentions for a bot"
}

func (c *Start) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("needs one (bot id) argument")
	}
	resp, err := cmdutil.Post[api.BotStartResponse](ctx, &c.ClientFlags, api.BotStartPath, &api.BotStartRequest{ID: args[0]})
	if err != nil {
		return err
	}
	fmt.Printf("bot %s is %s\n", args[0], resp.State)
	return nil
}

type Stop struct {
	cmdutil.ClientFlags
}

func (c *Stop) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("stop", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	return fset, cli.CmdFunc(c.run)
}

func (c *Stop) Synopsis() string {
	return "Stops polling mentions for a bot"
}

func (c *Stop) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("needs one (bot id) argument")
	}
	resp, err := cmdutil.Post[api.BotStopResponse](ctx, &c.ClientFlags, api.BotStopPath, &api.BotStopRequest{ID: args[0]})
	if err != nil {
		return err
	}
	fmt.Printf("bot %s is %s\n", args[0], resp.State)
	return nil
}
