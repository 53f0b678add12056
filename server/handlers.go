// Copyright (c) 2025 BVK Chaitanya

package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/bvk/mentionbot/api"
	"github.com/bvk/mentionbot/command"
	"github.com/bvk/mentionbot/datastore"
	"github.com/bvk/mentionbot/gobs"
	"github.com/bvk/mentionbot/httputil"
	"github.com/bvk/mentionbot/job"
	"github.com/bvk/mentionbot/solana"
	"github.com/bvk/mentionbot/token"
	"github.com/bvk/mentionbot/trader"
	"github.com/shopspring/decimal"
)

const defaultSlippageBps = 50

var defaultActions = []string{string(command.Swap), string(command.Buy), string(command.Sell)}

// commandError marks parse and validation errors as client errors.
func commandError(err error) error {
	var perr *command.ParseError
	var verr *command.ValidationError
	if errors.As(err, &perr) || errors.As(err, &verr) {
		return httputil.BadRequest(err)
	}
	return err
}

func (s *Server) doBotAdd(ctx context.Context, req *api.BotAddRequest) (*api.BotAddResponse, error) {
	if err := datastore.CheckName(req.ID); err != nil {
		return nil, err
	}
	handle := strings.TrimPrefix(strings.TrimSpace(req.Handle), "@")
	if len(handle) == 0 {
		return nil, fmt.Errorf("bot handle cannot be empty: %w", os.ErrInvalid)
	}

	actions := slices.Clone(req.SupportedActions)
	if len(actions) == 0 {
		actions = slices.Clone(defaultActions)
	}
	for i, a := range actions {
		a = strings.ToLower(strings.TrimSpace(a))
		switch command.Action(a) {
		case command.Swap, command.Buy, command.Sell:
		default:
			return nil, fmt.Errorf("action %q is not supported: %w", a, os.ErrInvalid)
		}
		actions[i] = a
	}

	tokens, err := token.NewSet(req.SupportedTokens...)
	if err != nil {
		return nil, err
	}
	if len(tokens) < 2 {
		return nil, fmt.Errorf("at least two supported tokens are required: %w", os.ErrInvalid)
	}

	if len(req.ExecutionMode) != 0 {
		if _, err := trader.ParseExecutionMode(req.ExecutionMode); err != nil {
			return nil, err
		}
	}
	slippage := req.SlippageBps
	if slippage == 0 {
		slippage = defaultSlippageBps
	}
	if slippage < 0 || slippage > 10000 {
		return nil, fmt.Errorf("slippage %d bps is out of range: %w", slippage, os.ErrInvalid)
	}
	if req.LowBalanceLimit.IsNegative() {
		return nil, fmt.Errorf("low balance limit cannot be negative: %w", os.ErrInvalid)
	}

	if _, err := s.ds.Wallet(ctx, req.WalletName); err != nil {
		return nil, fmt.Errorf("could not load wallet %q: %w", req.WalletName, err)
	}

	userID := req.UserID
	if len(userID) == 0 {
		user, err := s.twitterClient.LookupUser(ctx, handle)
		if err != nil {
			return nil, fmt.Errorf("could not lookup user id for %q: %w", handle, err)
		}
		userID = user.ID
	}

	bot := &gobs.Bot{
		ID:               req.ID,
		Handle:           handle,
		UserID:           userID,
		WalletName:       req.WalletName,
		SupportedActions: actions,
		SupportedTokens:  []string(tokens),
		SlippageBps:      slippage,
		ExecutionMode:    strings.ToLower(req.ExecutionMode),
		LowBalanceLimit:  req.LowBalanceLimit,
		CreatedAt:        s.opts.Now(),
	}
	if err := s.ds.AddBot(ctx, bot); err != nil {
		return nil, fmt.Errorf("could not add bot %q: %w", req.ID, err)
	}
	return &api.BotAddResponse{Bot: bot}, nil
}

func (s *Server) doBotList(ctx context.Context, _ *api.BotListRequest) (*api.BotListResponse, error) {
	bots, err := s.ds.Bots(ctx)
	if err != nil {
		return nil, err
	}
	return &api.BotListResponse{Bots: bots}, nil
}

func (s *Server) doBotGet(ctx context.Context, req *api.BotGetRequest) (*api.BotGetResponse, error) {
	bot, err := s.ds.Bot(ctx, req.ID)
	if err != nil {
		return nil, fmt.Errorf("could not load bot %q: %w", req.ID, err)
	}
	state, err := s.scheduler.State(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	resp := &api.BotGetResponse{
		Bot:   bot,
		State: state,
	}
	sched, err := s.ds.Schedule(ctx, req.ID)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if sched != nil {
		resp.LastSeenMessageID = sched.LastSeenMessageID
		resp.NextPollTime = sched.NextPollTime
		resp.Backoff = time.Duration(sched.BackoffSeconds) * time.Second
	}
	return resp, nil
}

func (s *Server) doBotStart(ctx context.Context, req *api.BotStartRequest) (*api.BotStartResponse, error) {
	if err := s.scheduler.StartScheduling(ctx, req.ID); err != nil {
		return nil, err
	}
	state, err := s.scheduler.State(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return &api.BotStartResponse{State: state}, nil
}

func (s *Server) doBotStop(ctx context.Context, req *api.BotStopRequest) (*api.BotStopResponse, error) {
	if err := s.scheduler.StopScheduling(ctx, req.ID); err != nil {
		return nil, err
	}
	state, err := s.scheduler.State(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return &api.BotStopResponse{State: state}, nil
}

func (s *Server) doCommand(ctx context.Context, req *api.CommandRequest) (*api.CommandResponse, error) {
	if len(strings.TrimSpace(req.Text)) == 0 {
		return nil, fmt.Errorf("command text cannot be empty: %w", os.ErrInvalid)
	}
	if _, err := s.ds.Bot(ctx, req.BotID); err != nil {
		return nil, fmt.Errorf("could not load bot %q: %w", req.BotID, err)
	}
	if len(req.SourceMessageID) != 0 {
		if _, err := s.ds.MessageRecord(ctx, req.BotID, req.SourceMessageID); err == nil {
			return nil, fmt.Errorf("message %s is already processed: %w", req.SourceMessageID, os.ErrExist)
		}
	}
	j, err := s.queue.Enqueue(ctx, req.BotID, req.Text, req.SourceMessageID)
	if err != nil {
		return nil, err
	}
	return &api.CommandResponse{JobID: j.ID}, nil
}

func (s *Server) doJobGet(ctx context.Context, req *api.JobGetRequest) (*api.JobGetResponse, error) {
	get := s.queue.Get
	if req.Wait {
		get = s.queue.Wait
	}
	j, err := get(ctx, req.JobID)
	if err != nil {
		return nil, err
	}
	resp := &api.JobGetResponse{Job: j}
	if len(j.TradeID) != 0 {
		trade, err := s.ds.Trade(ctx, j.TradeID)
		if err != nil {
			return nil, fmt.Errorf("could not load trade %q: %w", j.TradeID, err)
		}
		resp.Trade = trade
	}
	return resp, nil
}

func (s *Server) doParse(ctx context.Context, req *api.ParseRequest) (*api.ParseResponse, error) {
	cmd, err := Parse(ctx, s.ds, req)
	if err != nil {
		return nil, commandError(err)
	}
	resp := &api.ParseResponse{
		Action:   string(cmd.Action),
		InToken:  cmd.InToken,
		OutToken: cmd.OutToken,
		Amount:   cmd.Amount,
	}
	return resp, nil
}

// Parse parses the request text and validates it against the bot's
// configuration when a bot id is given.
func Parse(ctx context.Context, ds *datastore.Datastore, req *api.ParseRequest) (*command.Command, error) {
	if len(req.BotID) == 0 {
		return command.Parse(req.Text, req.Handle)
	}
	bot, err := ds.Bot(ctx, req.BotID)
	if err != nil {
		return nil, fmt.Errorf("could not load bot %q: %w", req.BotID, err)
	}
	cmd, err := command.Parse(req.Text, bot.Handle)
	if err != nil {
		return nil, err
	}
	tokens, err := token.NewSet(bot.SupportedTokens...)
	if err != nil {
		return nil, err
	}
	if err := command.Validate(cmd, bot.SupportedActions, tokens); err != nil {
		return nil, err
	}
	return cmd, nil
}

func (s *Server) doWalletAdd(ctx context.Context, req *api.WalletAddRequest) (*api.WalletAddResponse, error) {
	if err := datastore.CheckName(req.Name); err != nil {
		return nil, err
	}
	if _, err := solana.ParsePublicKey(req.PublicKey); err != nil {
		return nil, fmt.Errorf("invalid wallet public key: %w", errors.Join(os.ErrInvalid, err))
	}
	w := &gobs.Wallet{
		Name:      req.Name,
		PublicKey: req.PublicKey,
		Balances:  make(map[string]decimal.Decimal),
	}
	if err := s.ds.AddWallet(ctx, w); err != nil {
		return nil, fmt.Errorf("could not add wallet %q: %w", req.Name, err)
	}
	return &api.WalletAddResponse{Wallet: w}, nil
}

func (s *Server) doWalletList(ctx context.Context, _ *api.WalletListRequest) (*api.WalletListResponse, error) {
	wallets, err := s.ds.Wallets(ctx)
	if err != nil {
		return nil, err
	}
	resp := &api.WalletListResponse{
		Wallets: wallets,
		Signers: s.secrets.WalletNames(),
	}
	return resp, nil
}

func (s *Server) doWalletRefresh(ctx context.Context, req *api.WalletRefreshRequest) (*api.WalletRefreshResponse, error) {
	w, err := s.orchestrator.RefreshWallet(ctx, req.BotID)
	if err != nil {
		return nil, err
	}
	return &api.WalletRefreshResponse{Wallet: w}, nil
}

func (s *Server) doTradeList(ctx context.Context, req *api.TradeListRequest) (*api.TradeListResponse, error) {
	trades, err := s.ds.Trades(ctx, req.BotID)
	if err != nil {
		return nil, err
	}
	if req.Limit > 0 && len(trades) > req.Limit {
		trades = trades[:req.Limit]
	}
	return &api.TradeListResponse{Trades: trades}, nil
}

func (s *Server) doTradeGet(ctx context.Context, req *api.TradeGetRequest) (*api.TradeGetResponse, error) {
	trade, err := s.ds.Trade(ctx, req.ID)
	if err != nil {
		return nil, fmt.Errorf("could not load trade %q: %w", req.ID, err)
	}
	return &api.TradeGetResponse{Trade: trade}, nil
}

func (s *Server) doStatus(ctx context.Context, _ *api.StatusRequest) (*api.StatusResponse, error) {
	scheds, err := s.scheduler.Schedules(ctx)
	if err != nil {
		return nil, err
	}
	jobs, err := s.queue.List(ctx)
	if err != nil {
		return nil, err
	}

	resp := &api.StatusResponse{
		StartTime:   s.startTime,
		DefaultMode: s.opts.DefaultMode,
	}
	for _, v := range scheds {
		resp.Bots = append(resp.Bots, &api.BotStatus{
			BotID:             v.BotID,
			State:             v.State,
			LastSeenMessageID: v.LastSeenMessageID,
			NextPollTime:      v.NextPollTime,
			Backoff:           v.Backoff,
		})
	}
	for endpoint, state := range s.tracker.Snapshot() {
		resp.Endpoints = append(resp.Endpoints, &api.EndpointStatus{
			Endpoint:  endpoint,
			IsLimited: state.IsLimited,
			ResetAt:   state.ResetAt,
		})
	}
	sort.Slice(resp.Endpoints, func(i, j int) bool {
		return resp.Endpoints[i].Endpoint < resp.Endpoints[j].Endpoint
	})
	for _, j := range jobs {
		if !job.IsDone(job.State(j.State)) {
			resp.QueuedJobs++
		}
	}
	fillHostStats(ctx, resp)
	return resp, nil
}
