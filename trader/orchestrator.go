// Copyright (c) 2025 BVK Chaitanya

package trader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/bvk/mentionbot/command"
	"github.com/bvk/mentionbot/ctxutil"
	"github.com/bvk/mentionbot/gobs"
	"github.com/bvk/mentionbot/idgen"
	"github.com/bvk/mentionbot/social"
	"github.com/bvk/mentionbot/swap"
	"github.com/bvk/mentionbot/token"
	"github.com/google/uuid"
	"github.com/visvasity/topic"
)

type Orchestrator struct {
	cg ctxutil.CloseGroup

	opts Options

	store Store

	swapper  Swapper
	balancer Balancer

	simulator *swap.Simulator

	tradeTopic     *topic.Topic[*gobs.Trade]
	rejectionTopic *topic.Topic[*Rejection]
	balanceTopic   *topic.Topic[*BalanceUpdate]
}

// New creates a trade orchestrator. Swapper can be nil when no bot runs in
// live mode. When balancer is nil, funds are checked against the last
// refreshed wallet balances.
func New(store Store, swapper Swapper, balancer Balancer, opts *Options) (*Orchestrator, error) {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}
	o := &Orchestrator{
		opts:           *opts,
		store:          store,
		swapper:        swapper,
		balancer:       balancer,
		simulator:      &swap.Simulator{Rate: opts.SimulatedRate},
		tradeTopic:     topic.New[*gobs.Trade](),
		rejectionTopic: topic.New[*Rejection](),
		balanceTopic:   topic.New[*BalanceUpdate](),
	}
	return o, nil
}

// Close waits for background wallet refreshes and closes the topics.
func (o *Orchestrator) Close() error {
	o.cg.Close()
	o.tradeTopic.Close()
	o.rejectionTopic.Close()
	o.balanceTopic.Close()
	return nil
}

// TradeUpdates returns a receiver for trades that reached a terminal state.
func (o *Orchestrator) TradeUpdates() (*topic.Receiver[*gobs.Trade], error) {
	return topic.Subscribe(o.tradeTopic, 0, false)
}

// Rejections returns a receiver for mentions rejected by the parser or the
// validator.
func (o *Orchestrator) Rejections() (*topic.Receiver[*Rejection], error) {
	return topic.Subscribe(o.rejectionTopic, 0, false)
}

func (o *Orchestrator) BalanceUpdates() (*topic.Receiver[*BalanceUpdate], error) {
	return topic.Subscribe(o.balanceTopic, 0, false)
}

// Request is a validated trade intent for a bot.
type Request struct {
	BotID string

	Command *command.Command

	// SourceMessageID is empty for trades not triggered by a mention.
	SourceMessageID   string
	SourceMessageText string
	SourceAuthor      string
}

func (o *Orchestrator) executionMode(bot *gobs.Bot) ExecutionMode {
	if len(bot.ExecutionMode) == 0 {
		return o.opts.DefaultMode
	}
	mode, err := ParseExecutionMode(bot.ExecutionMode)
	if err != nil {
		slog.Warn("bot has an invalid execution mode (using the default)", "bot", bot.ID, "mode", bot.ExecutionMode)
		return o.opts.DefaultMode
	}
	return mode
}

// Execute creates a trade for the request and takes it to a terminal state.
//
// When the trade fails terminally, both the failed trade and the cause are
// returned. A nil trade with an error means no trade was created; it is
// os.ErrExist when the source message already has a trade.
func (o *Orchestrator) Execute(ctx context.Context, req *Request) (*gobs.Trade, error) {
	bot, err := o.store.Bot(ctx, req.BotID)
	if err != nil {
		return nil, fmt.Errorf("could not load bot %q: %w", req.BotID, err)
	}
	return o.execute(ctx, bot, req)
}

func (o *Orchestrator) execute(ctx context.Context, bot *gobs.Bot, req *Request) (*gobs.Trade, error) {
	cmd := req.Command
	in, ok := token.Lookup(cmd.InToken)
	if !ok {
		return nil, fmt.Errorf("token %q is not supported: %w", cmd.InToken, os.ErrInvalid)
	}
	out, ok := token.Lookup(cmd.OutToken)
	if !ok {
		return nil, fmt.Errorf("token %q is not supported: %w", cmd.OutToken, os.ErrInvalid)
	}
	wallet, err := o.store.Wallet(ctx, bot.WalletName)
	if err != nil {
		return nil, fmt.Errorf("could not load wallet %q for bot %q: %w", bot.WalletName, bot.ID, err)
	}

	id := uuid.NewString()
	if len(req.SourceMessageID) != 0 {
		id = idgen.TradeID(bot.ID, req.SourceMessageID)
	}

	now := o.opts.Now()
	trade := &gobs.Trade{
		ID:                id,
		BotID:             bot.ID,
		Action:            string(cmd.Action),
		InToken:           in.Symbol,
		OutToken:          out.Symbol,
		Amount:            cmd.Amount,
		Status:            StatusPending,
		SourceMessageID:   req.SourceMessageID,
		SourceMessageText: req.SourceMessageText,
		SourceAuthor:      req.SourceAuthor,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := o.store.CreateTrade(ctx, trade); err != nil {
		return nil, fmt.Errorf("could not create trade %q: %w", id, err)
	}
	slog.InfoContext(ctx, "created a new trade", "bot", bot.ID, "trade", id, "command", cmd, "message", req.SourceMessageID)

	if err := o.checkFunds(ctx, wallet, in, cmd.Amount); err != nil {
		return o.finish(ctx, bot, trade, nil, err)
	}

	trade.Status = StatusExecuting
	trade.UpdatedAt = o.opts.Now()
	if err := o.store.UpdateTrade(ctx, trade); err != nil {
		return o.finish(ctx, bot, trade, nil, err)
	}

	sreq := &swap.Request{
		InToken:     in,
		OutToken:    out,
		Amount:      cmd.Amount,
		Owner:       wallet.PublicKey,
		SlippageBps: bot.SlippageBps,
	}
	result, err := o.swap(ctx, o.executionMode(bot), sreq)
	return o.finish(ctx, bot, trade, result, err)
}

func (o *Orchestrator) swap(ctx context.Context, mode ExecutionMode, req *swap.Request) (*swap.Result, error) {
	if mode == Simulated {
		return o.simulator.Swap(ctx, req)
	}

	result, err := o.swapLive(ctx, req)
	if err == nil || mode != LiveFallback {
		return result, err
	}

	var eerr *ExecutionError
	if !errors.As(err, &eerr) {
		return nil, err
	}
	slog.WarnContext(ctx, "live swap failed (substituting a simulated result)", "in", req.InToken.Symbol, "out", req.OutToken.Symbol, "amount", req.Amount, "err", err)
	return o.simulator.Swap(ctx, req)
}

func (o *Orchestrator) swapLive(ctx context.Context, req *swap.Request) (*swap.Result, error) {
	if o.swapper == nil {
		return nil, &ExecutionError{Err: fmt.Errorf("live swaps are not configured")}
	}
	result, err := o.swapper.Swap(ctx, req)
	if err != nil {
		return nil, &ExecutionError{Err: err}
	}
	return result, nil
}

// finish records the terminal state of the trade exactly once.
func (o *Orchestrator) finish(ctx context.Context, bot *gobs.Bot, trade *gobs.Trade, result *swap.Result, cause error) (*gobs.Trade, error) {
	trade.UpdatedAt = o.opts.Now()
	if cause != nil {
		trade.Status = StatusFailed
		trade.ErrorMessage = cause.Error()
	} else {
		outAmount := result.OutAmount
		trade.Status = StatusCompleted
		trade.OutAmount = &outAmount
		trade.TransactionSignature = result.Signature
		trade.Mode = string(Live)
		if result.Simulated {
			trade.Mode = string(Simulated)
		}
	}

	// Terminal update must not be lost to a canceled request context.
	if err := o.store.UpdateTrade(context.WithoutCancel(ctx), trade); err != nil {
		slog.ErrorContext(ctx, "could not save terminal trade state", "bot", bot.ID, "trade", trade.ID, "status", trade.Status, "err", err)
		return trade, errors.Join(cause, err)
	}
	if cause != nil {
		slog.WarnContext(ctx, "trade has failed", "bot", bot.ID, "trade", trade.ID, "err", cause)
	} else {
		slog.InfoContext(ctx, "trade is completed", "bot", bot.ID, "trade", trade.ID, "mode", trade.Mode, "signature", trade.TransactionSignature, "out", trade.OutAmount)
	}

	published := *trade
	o.tradeTopic.Send(&published)

	symbols := []string{token.FeeSymbol, trade.InToken, trade.OutToken}
	o.cg.Go(func(ctx context.Context) {
		if err := o.refreshWallet(ctx, bot, symbols); err != nil {
			slog.Warn("could not refresh wallet balances", "bot", bot.ID, "wallet", bot.WalletName, "err", err)
		}
	})
	return trade, cause
}

// ProcessCommand runs the complete pipeline for a command text. Parse and
// validation failures create no trade and are returned as *command.ParseError
// or *command.ValidationError. Returns os.ErrExist when the message was
// already processed.
func (o *Orchestrator) ProcessCommand(ctx context.Context, botID, text, sourceMessageID, author string) (*gobs.Trade, error) {
	bot, err := o.store.Bot(ctx, botID)
	if err != nil {
		return nil, fmt.Errorf("could not load bot %q: %w", botID, err)
	}

	if len(sourceMessageID) != 0 {
		if _, err := o.store.MessageRecord(ctx, botID, sourceMessageID); err == nil {
			return nil, fmt.Errorf("message %s is already processed by bot %q: %w", sourceMessageID, botID, os.ErrExist)
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("could not check message record: %w", err)
		}
	}

	cmd, err := o.parse(bot, text)
	if err != nil {
		o.reject(ctx, bot, sourceMessageID, author, text, err)
		return nil, err
	}

	req := &Request{
		BotID:             botID,
		Command:           cmd,
		SourceMessageID:   sourceMessageID,
		SourceMessageText: text,
		SourceAuthor:      author,
	}
	trade, err := o.execute(ctx, bot, req)
	if trade == nil {
		return nil, err
	}

	if len(sourceMessageID) != 0 {
		record := &gobs.MessageRecord{
			BotID:       botID,
			MessageID:   sourceMessageID,
			Status:      MessageTraded,
			TradeID:     trade.ID,
			ProcessedAt: o.opts.Now(),
		}
		if err := o.store.SaveMessageRecord(context.WithoutCancel(ctx), record); err != nil {
			slog.ErrorContext(ctx, "could not save message record", "bot", botID, "message", sourceMessageID, "trade", trade.ID, "err", err)
		}
	}
	return trade, err
}

func (o *Orchestrator) parse(bot *gobs.Bot, text string) (*command.Command, error) {
	tokens, err := token.NewSet(bot.SupportedTokens...)
	if err != nil {
		return nil, &command.ValidationError{Reason: err.Error()}
	}
	cmd, err := command.Parse(text, bot.Handle)
	if err != nil {
		return nil, err
	}
	if err := command.Validate(cmd, bot.SupportedActions, tokens); err != nil {
		return nil, err
	}
	return cmd, nil
}

func (o *Orchestrator) reject(ctx context.Context, bot *gobs.Bot, messageID, author, text string, cause error) {
	slog.InfoContext(ctx, "rejected command", "bot", bot.ID, "message", messageID, "err", cause)
	if len(messageID) == 0 {
		return
	}
	record := &gobs.MessageRecord{
		BotID:       bot.ID,
		MessageID:   messageID,
		Status:      MessageInvalid,
		Reason:      cause.Error(),
		ProcessedAt: o.opts.Now(),
	}
	if err := o.store.SaveMessageRecord(ctx, record); err != nil {
		slog.ErrorContext(ctx, "could not save message record", "bot", bot.ID, "message", messageID, "err", err)
	}
	o.rejectionTopic.Send(&Rejection{
		BotID:     bot.ID,
		MessageID: messageID,
		Author:    author,
		Text:      text,
		Reason:    cause.Error(),
	})
}

// HandleMention processes a mention fetched by the scheduler. Already
// processed mentions are skipped silently.
func (o *Orchestrator) HandleMention(ctx context.Context, bot *gobs.Bot, m *social.Mention) error {
	if _, err := o.ProcessCommand(ctx, bot.ID, m.Text, m.ID, m.AuthorUsername); err != nil {
		if errors.Is(err, os.ErrExist) {
			slog.DebugContext(ctx, "skipping already processed mention", "bot", bot.ID, "message", m.ID)
			return nil
		}
		return err
	}
	return nil
}

// Recover marks trades left in pending or executing state by an earlier
// process as failed. Trades are never resumed. Returns the number of trades
// updated.
func (o *Orchestrator) Recover(ctx context.Context) (int, error) {
	trades, err := o.store.Trades(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("could not list trades: %w", err)
	}
	count := 0
	for _, t := range trades {
		if IsTerminal(t.Status) {
			continue
		}
		t.Status = StatusFailed
		t.ErrorMessage = "interrupted"
		t.UpdatedAt = o.opts.Now()
		if err := o.store.UpdateTrade(ctx, t); err != nil {
			return count, fmt.Errorf("could not mark trade %q as interrupted: %w", t.ID, err)
		}
		slog.WarnContext(ctx, "marked interrupted trade as failed", "bot", t.BotID, "trade", t.ID)
		count++
	}
	return count, nil
}
