// Copyright (c) 2023 BVK Chaitanya

package main

import (
	"context"
	"log"
	"os"

	"github.com/bvk/mentionbot/cli"
	"github.com/bvk/mentionbot/subcmds"
	"github.com/bvk/mentionbot/subcmds/bot"
	"github.com/bvk/mentionbot/subcmds/db"
	"github.com/bvk/mentionbot/subcmds/job"
	"github.com/bvk/mentionbot/subcmds/setup"
	"github.com/bvk/mentionbot/subcmds/trade"
	"github.com/bvk/mentionbot/subcmds/wallet"
)

func main() {
	dbCmds := []cli.Command{
		new(db.Get),
		new(db.List),
		new(db.Backup),
		new(db.Restore),
	}

	botCmds := []cli.Command{
		new(bot.Add),
		new(bot.List),
		new(bot.Get),
		new(bot.Start),
		new(bot.Stop),
	}

	walletCmds := []cli.Command{
		new(wallet.Add),
		new(wallet.List),
		new(wallet.Refresh),
	}

	tradeCmds := []cli.Command{
		new(trade.List),
		new(trade.Get),
	}

	jobCmds := []cli.Command{
		new(job.Get),
	}

	setupCmds := []cli.Command{
		new(setup.Twitter),
		new(setup.Telegram),
		new(setup.Pushover),
	}

	cmds := []cli.Command{
		new(subcmds.Run),
		new(subcmds.Status),
		new(subcmds.Parse),
		new(subcmds.Command),
		cli.CommandGroup("bot", "Manage mention bots", botCmds...),
		cli.CommandGroup("wallet", "Manage trading wallets", walletCmds...),
		cli.CommandGroup("trade", "View executed trades", tradeCmds...),
		cli.CommandGroup("job", "View command jobs", jobCmds...),
		cli.CommandGroup("db", "View/update database directly", dbCmds...),
		cli.CommandGroup("setup", "Configure service credentials", setupCmds...),
	}
	if err := cli.Run(context.Background(), cmds, os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
