// Copyright (c) 2023 BVK Chaitanya

// Package server assembles the mention bot from its components and exposes
// the operator api.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/bvk/mentionbot/api"
	"github.com/bvk/mentionbot/datastore"
	"github.com/bvk/mentionbot/gobs"
	"github.com/bvk/mentionbot/httputil"
	"github.com/bvk/mentionbot/job"
	"github.com/bvk/mentionbot/jupiter"
	"github.com/bvk/mentionbot/notify"
	"github.com/bvk/mentionbot/pushover"
	"github.com/bvk/mentionbot/ratelimit"
	"github.com/bvk/mentionbot/scheduler"
	"github.com/bvk/mentionbot/solana"
	"github.com/bvk/mentionbot/telegram"
	"github.com/bvk/mentionbot/trader"
	"github.com/bvk/mentionbot/twitter"
	"github.com/bvkgo/kv"
	"github.com/shopspring/decimal"
)

type Server struct {
	opts Options

	startTime time.Time

	db kv.Database
	ds *datastore.Datastore

	secrets *Secrets

	tracker *ratelimit.Tracker

	twitterClient  *twitter.Client
	solanaClient   *solana.Client
	jupiterClient  *jupiter.Client
	telegramClient *telegram.Client
	pushoverClient *pushover.Client

	orchestrator *trader.Orchestrator
	scheduler    *scheduler.Scheduler
	queue        *job.Queue
	notifier     *notify.Notifier

	// signerMap holds wallet names with a signing key and their addresses.
	signerMap map[string]string
}

func New(ctx context.Context, secrets *Secrets, db kv.Database, opts *Options) (_ *Server, status error) {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}
	if err := secrets.Check(); err != nil {
		return nil, err
	}
	if secrets.Solana == nil {
		secrets.Solana = new(SolanaSecrets)
	}
	if secrets.Jupiter == nil {
		secrets.Jupiter = new(JupiterSecrets)
	}

	s := &Server{
		opts:      *opts,
		startTime: opts.Now(),
		db:        db,
		ds:        datastore.New(db),
		secrets:   secrets,
		tracker:   ratelimit.New(&ratelimit.Options{Now: opts.Now}),
		signerMap: make(map[string]string),
	}
	defer func() {
		if status != nil {
			s.Close()
		}
	}()

	tclient, err := twitter.New(secrets.Twitter, &twitter.Options{
		BaseURL: opts.TwitterBaseURL,
		Tracker: s.tracker,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create twitter client: %w", err)
	}
	s.twitterClient = tclient

	sclient, err := solana.New(&solana.Options{
		RPCURL: secrets.Solana.RPCURL,
		WSURL:  secrets.Solana.WSURL,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create solana client: %w", err)
	}
	s.solanaClient = sclient

	jclient, err := jupiter.New(sclient, &jupiter.Options{
		BaseURL: secrets.Jupiter.BaseURL,
		APIKey:  secrets.Jupiter.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create jupiter client: %w", err)
	}
	s.jupiterClient = jclient

	for _, name := range secrets.WalletNames() {
		priv, err := solana.ParsePrivateKey(secrets.Wallets[name])
		if err != nil {
			return nil, err
		}
		s.signerMap[name] = jclient.AddKey(priv)
	}

	var balancer trader.Balancer
	if !opts.OfflineBalances {
		balancer = sclient
	}
	topts := &trader.Options{
		Fee:           opts.Fee,
		NoFee:         opts.NoFee,
		DefaultMode:   trader.ExecutionMode(opts.DefaultMode),
		SimulatedRate: opts.SimulatedRate,
		Now:           opts.Now,
	}
	orchestrator, err := trader.New(s.ds, jclient, balancer, topts)
	if err != nil {
		return nil, fmt.Errorf("could not create trade orchestrator: %w", err)
	}
	s.orchestrator = orchestrator

	sopts := opts.Scheduler
	if sopts.Now == nil {
		sopts.Now = opts.Now
	}
	sched, err := scheduler.New(s.ds, tclient, orchestrator, s.tracker, &sopts)
	if err != nil {
		return nil, fmt.Errorf("could not create scheduler: %w", err)
	}
	s.scheduler = sched

	s.queue = job.NewQueue(db, s.runCommandJob, &job.Options{Now: opts.Now})

	var messengers []notify.Messenger
	if secrets.Telegram != nil {
		client, err := telegram.New(ctx, db, secrets.Telegram)
		if err != nil {
			return nil, fmt.Errorf("could not create telegram client: %w", err)
		}
		s.telegramClient = client
		messengers = append(messengers, client)
	}
	if secrets.Pushover != nil {
		client, err := pushover.New(secrets.Pushover, nil)
		if err != nil {
			return nil, fmt.Errorf("could not create pushover client: %w", err)
		}
		s.pushoverClient = client
		messengers = append(messengers, client)
	}

	var replier notify.Replier
	if tclient.CanReply() {
		replier = tclient
	}
	s.notifier = notify.New(replier, messengers, &notify.Options{Now: opts.Now})
	return s, nil
}

func (s *Server) Close() error {
	if s.telegramClient != nil {
		s.telegramClient.Close()
	}
	if s.orchestrator != nil {
		s.orchestrator.Close()
	}
	return nil
}

// Start recovers interrupted trades and jobs and starts the background
// services.
func (s *Server) Start(ctx context.Context) error {
	if err := s.registerWallets(ctx); err != nil {
		return err
	}
	if n, err := s.orchestrator.Recover(ctx); err != nil {
		return fmt.Errorf("could not recover interrupted trades: %w", err)
	} else if n > 0 {
		slog.Warn("recovered interrupted trades", "count", n)
	}

	if err := s.notifier.Start(ctx, s.orchestrator); err != nil {
		return err
	}
	if err := s.addTelegramCommands(ctx); err != nil {
		return err
	}
	if err := s.queue.Start(ctx); err != nil {
		return fmt.Errorf("could not start command job queue: %w", err)
	}
	if !s.opts.NoResume {
		if err := s.scheduler.Start(ctx); err != nil {
			return fmt.Errorf("could not start scheduler: %w", err)
		}
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	var errs []error
	if !s.opts.NoResume {
		errs = append(errs, s.scheduler.Stop(ctx))
	}
	errs = append(errs, s.queue.Stop(ctx))
	errs = append(errs, s.notifier.Stop(ctx))
	return errors.Join(errs...)
}

// registerWallets creates wallet records for the signing keys in the secrets.
func (s *Server) registerWallets(ctx context.Context) error {
	for name, addr := range s.signerMap {
		w, err := s.ds.Wallet(ctx, name)
		if err == nil {
			if w.PublicKey != addr {
				return fmt.Errorf("wallet %q is registered with address %s, but signing key is for %s", name, w.PublicKey, addr)
			}
			continue
		}
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("could not load wallet %q: %w", name, err)
		}
		w = &gobs.Wallet{
			Name:      name,
			PublicKey: addr,
			Balances:  make(map[string]decimal.Decimal),
		}
		if err := s.ds.AddWallet(ctx, w); err != nil {
			return fmt.Errorf("could not register wallet %q: %w", name, err)
		}
		slog.Info("registered wallet from secrets", "wallet", name, "address", addr)
	}
	return nil
}

func (s *Server) runCommandJob(ctx context.Context, j *gobs.CommandJob) (string, error) {
	trade, err := s.orchestrator.ProcessCommand(ctx, j.BotID, j.Text, j.SourceMessageID, "")
	if trade != nil {
		return trade.ID, err
	}
	return "", err
}

func (s *Server) HandlerMap() map[string]http.Handler {
	return map[string]http.Handler{
		api.BotAddPath:        httputil.HandlerFunc(s.doBotAdd),
		api.BotListPath:       httputil.HandlerFunc(s.doBotList),
		api.BotGetPath:        httputil.HandlerFunc(s.doBotGet),
		api.BotStartPath:      httputil.HandlerFunc(s.doBotStart),
		api.BotStopPath:       httputil.HandlerFunc(s.doBotStop),
		api.CommandPath:       httputil.HandlerFunc(s.doCommand),
		api.JobGetPath:        httputil.HandlerFunc(s.doJobGet),
		api.ParsePath:         httputil.HandlerFunc(s.doParse),
		api.WalletAddPath:     httputil.HandlerFunc(s.doWalletAdd),
		api.WalletListPath:    httputil.HandlerFunc(s.doWalletList),
		api.WalletRefreshPath: httputil.HandlerFunc(s.doWalletRefresh),
		api.TradeListPath:     httputil.HandlerFunc(s.doTradeList),
		api.TradeGetPath:      httputil.HandlerFunc(s.doTradeGet),
		api.StatusPath:        httputil.HandlerFunc(s.doStatus),
	}
}
