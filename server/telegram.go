// Copyright (c) 2025 BVK Chaitanya

package server

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bvk/mentionbot/telegram"
	"github.com/visvasity/cli"
)

const telegramTradesLimit = 5

func (s *Server) AddTelegramCommand(ctx context.Context, name, purpose string, handler telegram.CmdFunc) error {
	if s.telegramClient != nil {
		return s.telegramClient.AddCommand(ctx, name, purpose, handler)
	}
	return nil // Ignored
}

func (s *Server) addTelegramCommands(ctx context.Context) error {
	cmds := []struct {
		name, purpose string
		handler       telegram.CmdFunc
	}{
		{"bots", "Lists the bots and their scheduling state", s.botsTelegramCmd},
		{"trades", "Prints the latest trades of a bot", s.tradesTelegramCmd},
		{"pause", "Stops polling mentions for a bot", s.pauseTelegramCmd},
		{"resume", "Starts polling mentions for a bot", s.resumeTelegramCmd},
	}
	for _, c := range cmds {
		if err := s.AddTelegramCommand(ctx, c.name, c.purpose, c.handler); err != nil {
			return fmt.Errorf("could not add telegram command %q: %w", c.name, err)
		}
	}
	return nil
}

func (s *Server) botsTelegramCmd(ctx context.Context, _ []string) error {
	stdout := cli.Stdout(ctx)
	bots, err := s.ds.Bots(ctx)
	if err != nil {
		return err
	}
	if len(bots) == 0 {
		fmt.Fprintln(stdout, "No bots are configured.")
		return nil
	}
	for _, bot := range bots {
		state, err := s.scheduler.State(ctx, bot.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s @%s %s\n", bot.ID, bot.Handle, state)
	}
	return nil
}

func (s *Server) tradesTelegramCmd(ctx context.Context, args []string) error {
	stdout := cli.Stdout(ctx)
	if len(args) == 0 || len(args) > 2 {
		return fmt.Errorf("needs bot id and an optional count argument")
	}
	limit := telegramTradesLimit
	if len(args) == 2 {
		v, err := strconv.Atoi(args[1])
		if err != nil || v <= 0 {
			return fmt.Errorf("count must be a positive number")
		}
		limit = v
	}
	trades, err := s.ds.Trades(ctx, args[0])
	if err != nil {
		return err
	}
	if len(trades) == 0 {
		fmt.Fprintf(stdout, "No trades for %s.\n", args[0])
		return nil
	}
	for i, t := range trades {
		if i == limit {
			break
		}
		fmt.Fprintf(stdout, "%s %s %s %s->%s %s\n", t.CreatedAt.Format("01-02 15:04"), t.Status, t.Amount, t.InToken, t.OutToken, t.Mode)
	}
	return nil
}

func (s *Server) pauseTelegramCmd(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("needs one bot id argument")
	}
	if err := s.scheduler.StopScheduling(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cli.Stdout(ctx), "Stopped polling for %s.\n", args[0])
	return nil
}

func (s *Server) resumeTelegramCmd(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("needs one bot id argument")
	}
	if err := s.scheduler.StartScheduling(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cli.Stdout(ctx), "Started polling for %s.\n", args[0])
	return nil
}
