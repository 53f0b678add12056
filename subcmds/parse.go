// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/bvk/mentionbot/api"
	"github.com/bvk/mentionbot/cli"
	"github.com/bvk/mentionbot/command"
	"github.com/bvk/mentionbot/subcmds/cmdutil"
	"github.com/bvk/mentionbot/token"
)

// Parse checks mention text against the command grammar. Without the -bot
// flag the text is parsed locally and no server is required.
type Parse struct {
	cmdutil.ClientFlags

	botID   string
	handle  string
	actions string
	tokens  string
}

func (c *Parse) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("parse", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	fset.StringVar(&c.botID, "bot", "", "when non-empty, text is validated by the server against this bot")
	fset.StringVar(&c.handle, "handle", "", "bot handle to ignore in the text")
	fset.StringVar(&c.actions, "actions", "", "comma separated list of allowed actions for local validation")
	fset.StringVar(&c.tokens, "tokens", "", "comma separated list of allowed tokens for local validation")
	return fset, cli.CmdFunc(c.run)
}

func (c *Parse) Synopsis() string {
	return "Parses mention text into a trade command"
}

func (c *Parse) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("needs mention text as arguments")
	}
	text := strings.Join(args, " ")

	if len(c.botID) != 0 {
		req := &api.ParseRequest{
			BotID: c.botID,
			Text:  text,
		}
		resp, err := cmdutil.Post[api.ParseResponse](ctx, &c.ClientFlags, api.ParsePath, req)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s %s for %s\n", resp.Action, resp.Amount, resp.InToken, resp.OutToken)
		return nil
	}

	cmd, err := command.Parse(text, c.handle)
	if err != nil {
		return err
	}
	if len(c.actions) != 0 || len(c.tokens) != 0 {
		actions := strings.Split(c.actions, ",")
		if len(c.actions) == 0 {
			actions = []string{string(command.Swap), string(command.Buy), string(command.Sell)}
		}
		tokens := token.Set(token.Symbols())
		if len(c.tokens) != 0 {
			v, err := token.ParseSet(c.tokens)
			if err != nil {
				return err
			}
			tokens = v
		}
		if err := command.Validate(cmd, actions, tokens); err != nil {
			return err
		}
	}
	fmt.Println(cmd)
	return nil
}
