// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/bvk/mentionbot/api"
	"github.com/bvk/mentionbot/cli"
	"github.com/bvk/mentionbot/gobs"
	"github.com/bvk/mentionbot/subcmds/cmdutil"
)

// Command submits mention text to a bot as if it was received from the
// social network.
type Command struct {
	cmdutil.ClientFlags

	botID     string
	messageID string
	wait      bool
}

func (c *Command) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("command", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	fset.StringVar(&c.botID, "bot", "", "id of the bot that processes the command")
	fset.StringVar(&c.messageID, "message-id", "", "optional source message id used for deduplication")
	fset.BoolVar(&c.wait, "wait", false, "when true, waits for the command to complete")
	return fset, cli.CmdFunc(c.run)
}

func (c *Command) Synopsis() string {
	return "Submits a trade command to a bot"
}

func (c *Command) CommandHelp() string {
	return `

Command "command" queues the text as a command job for the bot and prints the
job id. The text follows the same grammar as the mentions:

    $ mentionbot command -bot=sol -wait swap 0.01 SOL for JUP

`
}

func (c *Command) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("needs command text as arguments")
	}
	if len(c.botID) == 0 {
		return fmt.Errorf("bot id must be given")
	}

	req := &api.CommandRequest{
		BotID:           c.botID,
		Text:            strings.Join(args, " "),
		SourceMessageID: c.messageID,
	}
	resp, err := cmdutil.Post[api.CommandResponse](ctx, &c.ClientFlags, api.CommandPath, req)
	if err != nil {
		return err
	}
	if !c.wait {
		fmt.Println(resp.JobID)
		return nil
	}

	c.HTTPTimeout = 0
	jresp, err := cmdutil.Post[api.JobGetResponse](ctx, &c.ClientFlags, api.JobGetPath, &api.JobGetRequest{JobID: resp.JobID, Wait: true})
	if err != nil {
		return err
	}
	printJob(jresp.Job, jresp.Trade)
	return nil
}

func printJob(job *gobs.CommandJob, trade *gobs.Trade) {
	fmt.Printf("job %s is %s\n", job.ID, job.State)
	if len(job.Error) != 0 {
		fmt.Printf("error: %s\n", job.Error)
	}
	if trade != nil {
		fmt.Printf("trade %s %s %s %s for %s is %s (%s)\n", trade.ID, trade.Action, trade.Amount, trade.InToken, trade.OutToken, trade.Status, trade.Mode)
		if len(trade.TransactionSignature) != 0 {
			fmt.Printf("signature: %s\n", trade.TransactionSignature)
		}
	}
}
