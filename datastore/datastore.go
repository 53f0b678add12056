// Copyright (c) 2025 BVK Chaitanya

// Package datastore keeps bots, poll schedules, trades, wallets and message
// records in a key-value database.
package datastore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/bvk/mentionbot/gobs"
	"github.com/bvk/mentionbot/kvutil"
	"github.com/bvkgo/kv"
)

const (
	BotsKeyspace      = "/bots/"
	SchedulesKeyspace = "/schedules/"
	TradesKeyspace    = "/trades/"
	WalletsKeyspace   = "/wallets/"
	MessagesKeyspace  = "/messages/"
)

type Datastore struct {
	db kv.Database
}

func New(db kv.Database) *Datastore {
	return &Datastore{db: db}
}

func (ds *Datastore) Database() kv.Database {
	return ds.db
}

// CheckName verifies that a name can be used as a single key path component.
func CheckName(name string) error {
	if len(name) == 0 || strings.ContainsAny(name, "/ \t\n") || name == "." || name == ".." {
		return fmt.Errorf("name %q is not valid: %w", name, os.ErrInvalid)
	}
	return nil
}

func (ds *Datastore) AddBot(ctx context.Context, bot *gobs.Bot) error {
	if err := CheckName(bot.ID); err != nil {
		return err
	}
	return kvutil.CreateDB(ctx, ds.db, path.Join(BotsKeyspace, bot.ID), bot)
}

func (ds *Datastore) Bot(ctx context.Context, id string) (*gobs.Bot, error) {
	return kvutil.GetDB[gobs.Bot](ctx, ds.db, path.Join(BotsKeyspace, id))
}

func (ds *Datastore) SaveBot(ctx context.Context, bot *gobs.Bot) error {
	return kvutil.SetDB(ctx, ds.db, path.Join(BotsKeyspace, bot.ID), bot)
}

func (ds *Datastore) Bots(ctx context.Context) ([]*gobs.Bot, error) {
	return kvutil.ListDB[gobs.Bot](ctx, ds.db, BotsKeyspace)
}

// ActiveBots returns active bots ordered by their id.
func (ds *Datastore) ActiveBots(ctx context.Context) ([]*gobs.Bot, error) {
	bots, err := ds.Bots(ctx)
	if err != nil {
		return nil, err
	}
	var active []*gobs.Bot
	for _, b := range bots {
		if b.Active {
			active = append(active, b)
		}
	}
	return active, nil
}

func (ds *Datastore) SetBotActive(ctx context.Context, id string, active bool) error {
	key := path.Join(BotsKeyspace, id)
	return kv.WithReadWriter(ctx, ds.db, func(ctx context.Context, rw kv.ReadWriter) error {
		bot, err := kvutil.Get[gobs.Bot](ctx, rw, key)
		if err != nil {
			return err
		}
		bot.Active = active
		return kvutil.Set(ctx, rw, key, bot)
	})
}

func (ds *Datastore) Schedule(ctx context.Context, botID string) (*gobs.PollSchedule, error) {
	return kvutil.GetDB[gobs.PollSchedule](ctx, ds.db, path.Join(SchedulesKeyspace, botID))
}

func (ds *Datastore) SaveSchedule(ctx context.Context, s *gobs.PollSchedule) error {
	return kvutil.SetDB(ctx, ds.db, path.Join(SchedulesKeyspace, s.BotID), s)
}

func (ds *Datastore) Schedules(ctx context.Context) ([]*gobs.PollSchedule, error) {
	return kvutil.ListDB[gobs.PollSchedule](ctx, ds.db, SchedulesKeyspace)
}

func (ds *Datastore) SetLastSeenMessageID(ctx context.Context, botID, messageID string) error {
	key := path.Join(SchedulesKeyspace, botID)
	return kv.WithReadWriter(ctx, ds.db, func(ctx context.Context, rw kv.ReadWriter) error {
		s, err := kvutil.Get[gobs.PollSchedule](ctx, rw, key)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return err
			}
			s = &gobs.PollSchedule{BotID: botID}
		}
		s.LastSeenMessageID = messageID
		return kvutil.Set(ctx, rw, key, s)
	})
}

// CreateTrade saves a new trade. Returns os.ErrExist if a trade with the same
// id is already present.
func (ds *Datastore) CreateTrade(ctx context.Context, t *gobs.Trade) error {
	return kvutil.CreateDB(ctx, ds.db, path.Join(TradesKeyspace, t.ID), t)
}

func (ds *Datastore) UpdateTrade(ctx context.Context, t *gobs.Trade) error {
	key := path.Join(TradesKeyspace, t.ID)
	return kv.WithReadWriter(ctx, ds.db, func(ctx context.Context, rw kv.ReadWriter) error {
		if _, err := rw.Get(ctx, key); err != nil {
			return fmt.Errorf("could not find trade %q: %w", t.ID, err)
		}
		return kvutil.Set(ctx, rw, key, t)
	})
}

func (ds *Datastore) Trade(ctx context.Context, id string) (*gobs.Trade, error) {
	return kvutil.GetDB[gobs.Trade](ctx, ds.db, path.Join(TradesKeyspace, id))
}

// Trades returns trades for a bot, newest first. Empty bot id selects trades
// from all bots.
func (ds *Datastore) Trades(ctx context.Context, botID string) ([]*gobs.Trade, error) {
	all, err := kvutil.ListDB[gobs.Trade](ctx, ds.db, TradesKeyspace)
	if err != nil {
		return nil, err
	}
	var trades []*gobs.Trade
	for _, t := range all {
		if len(botID) == 0 || t.BotID == botID {
			trades = append(trades, t)
		}
	}
	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].CreatedAt.After(trades[j].CreatedAt)
	})
	return trades, nil
}

func (ds *Datastore) AddWallet(ctx context.Context, w *gobs.Wallet) error {
	if err := CheckName(w.Name); err != nil {
		return err
	}
	return kvutil.CreateDB(ctx, ds.db, path.Join(WalletsKeyspace, w.Name), w)
}

func (ds *Datastore) Wallet(ctx context.Context, name string) (*gobs.Wallet, error) {
	return kvutil.GetDB[gobs.Wallet](ctx, ds.db, path.Join(WalletsKeyspace, name))
}

func (ds *Datastore) SaveWallet(ctx context.Context, w *gobs.Wallet) error {
	return kvutil.SetDB(ctx, ds.db, path.Join(WalletsKeyspace, w.Name), w)
}

func (ds *Datastore) Wallets(ctx context.Context) ([]*gobs.Wallet, error) {
	return kvutil.ListDB[gobs.Wallet](ctx, ds.db, WalletsKeyspace)
}

func (ds *Datastore) MessageRecord(ctx context.Context, botID, messageID string) (*gobs.MessageRecord, error) {
	return kvutil.GetDB[gobs.MessageRecord](ctx, ds.db, path.Join(MessagesKeyspace, botID, messageID))
}

func (ds *Datastore) SaveMessageRecord(ctx context.Context, m *gobs.MessageRecord) error {
	return kvutil.SetDB(ctx, ds.db, path.Join(MessagesKeyspace, m.BotID, m.MessageID), m)
}
