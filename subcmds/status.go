// Copyright (c) 2023 BVK Chaitanya

package subcmds

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/bvk/mentionbot/api"
	"github.com/bvk/mentionbot/cli"
	"github.com/bvk/mentionbot/subcmds/cmdutil"
	"github.com/dustin/go-humanize"
)

type Status struct {
	cmdutil.ClientFlags
}

func (c *Status) Synopsis() string {
	return "Status prints the scheduling and rate limit state of the service"
}

func (c *Status) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("status", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	return fset, cli.CmdFunc(c.run)
}

func (c *Status) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("this command takes no arguments")
	}

	resp, err := cmdutil.Post[api.StatusResponse](ctx, &c.ClientFlags, api.StatusPath, &api.StatusRequest{})
	if err != nil {
		return err
	}

	now := time.Now()
	fmt.Printf("Uptime: %s\n", now.Sub(resp.StartTime).Truncate(time.Second))
	fmt.Printf("Default Mode: %s\n", resp.DefaultMode)
	fmt.Printf("Queued Jobs: %d\n", resp.QueuedJobs)
	fmt.Printf("PID: %d\n", resp.PID)
	fmt.Printf("Process RSS: %s\n", humanize.IBytes(resp.ProcessRSS))
	fmt.Printf("Process CPU: %.1f%%\n", resp.ProcessCPUPercent)
	fmt.Printf("Host Memory Used: %.1f%%\n", resp.HostMemoryUsedPercent)

	if len(resp.Bots) > 0 {
		fmt.Println()
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 1, ' ', tabwriter.AlignRight)
		fmt.Fprintf(tw, "Bot\tState\tLastSeen\tNextPoll\tBackoff\t\n")
		for _, b := range resp.Bots {
			next := "-"
			if !b.NextPollTime.IsZero() {
				next = b.NextPollTime.Sub(now).Truncate(time.Second).String()
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n", b.BotID, b.State, b.LastSeenMessageID, next, b.Backoff)
		}
		tw.Flush()
	}

	if len(resp.Endpoints) > 0 {
		fmt.Println()
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 1, ' ', tabwriter.AlignRight)
		fmt.Fprintf(tw, "Endpoint\tLimited\tResetAt\t\n")
		for _, e := range resp.Endpoints {
			reset := "-"
			if e.IsLimited {
				reset = e.ResetAt.Local().Format(time.DateTime)
			}
			fmt.Fprintf(tw, "%s\t%t\t%s\t\n", e.Endpoint, e.IsLimited, reset)
		}
		tw.Flush()
	}
	return nil
}
