// Copyright (c) 2025 BVK Chaitanya

package job

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

	wait bool
}

func (c *Get) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("get", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	fset.BoolVar(&c.wait, "wait", false, "when true, waits for the job to complete")
	return fset, cli.CmdFunc(c.run)
}

func (c *Get) Synopsis() string {
	return "Prints a command job and its trade"
}

func (c *Get) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("needs one (job id) argument")
	}
	if c.wait {
		c.HTTPTimeout = 0
	}
	req := &api.JobGetRequest{
		JobID: args[0],
		Wait:  c.wait,
	}
	resp, err := cmdutil.Post[api.JobGetResponse](ctx, &c.ClientFlags, api.JobGetPath, req)
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
