// Copyright (c) 2025 BVK Chaitanya

// Package notify reports trade outcomes and command rejections back to the
// mention authors and to the operator's messengers.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bvk/mentionbot/ctxutil"
	"github.com/bvk/mentionbot/gobs"
	"github.com/bvk/mentionbot/token"
	"github.com/bvk/mentionbot/trader"
	"github.com/visvasity/topic"
)

type Replier interface {
	Reply(ctx context.Context, inReplyTo, text string) error
}

type Messenger interface {
	SendMessage(ctx context.Context, at time.Time, text string) error
}

// Source publishes the events reported by the notifier.
type Source interface {
	TradeUpdates() (*topic.Receiver[*gobs.Trade], error)
	Rejections() (*topic.Receiver[*trader.Rejection], error)
	BalanceUpdates() (*topic.Receiver[*trader.BalanceUpdate], error)
}

type Options struct {
	// AlertFreezeDuration is the minimum gap between low balance alerts for a
	// wallet.
	AlertFreezeDuration time.Duration

	// ReplyTimeout bounds each social reply and messenger call.
	ReplyTimeout time.Duration

	Now func() time.Time
}

func (v *Options) setDefaults() {
	if v.AlertFreezeDuration == 0 {
		v.AlertFreezeDuration = time.Hour
	}
	if v.ReplyTimeout == 0 {
		v.ReplyTimeout = 30 * time.Second
	}
	if v.Now == nil {
		v.Now = time.Now
	}
}

type Notifier struct {
	cg ctxutil.CloseGroup

	opts Options

	replier Replier

	messengers []Messenger

	mu sync.Mutex

	alertFreezeDeadlineMap map[string]time.Time
}

// New creates a notifier. Replier can be nil when replies are not possible.
func New(replier Replier, messengers []Messenger, opts *Options) *Notifier {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	return &Notifier{
		opts:                   *opts,
		replier:                replier,
		messengers:             messengers,
		alertFreezeDeadlineMap: make(map[string]time.Time),
	}
}

// Start subscribes to the source events and reports them in the background
// till Stop is called.
func (n *Notifier) Start(ctx context.Context, src Source) error {
	trades, err := src.TradeUpdates()
	if err != nil {
		return fmt.Errorf("could not subscribe to trade updates: %w", err)
	}
	rejections, err := src.Rejections()
	if err != nil {
		trades.Close()
		return fmt.Errorf("could not subscribe to rejections: %w", err)
	}
	balances, err := src.BalanceUpdates()
	if err != nil {
		trades.Close()
		rejections.Close()
		return fmt.Errorf("could not subscribe to balance updates: %w", err)
	}

	n.cg.Go(func(ctx context.Context) { watch(ctx, trades, n.NotifyTrade) })
	n.cg.Go(func(ctx context.Context) { watch(ctx, rejections, n.NotifyRejection) })
	n.cg.Go(func(ctx context.Context) { watch(ctx, balances, n.CheckLowBalance) })
	return nil
}

func (n *Notifier) Stop(ctx context.Context) error {
	n.cg.Close()
	return nil
}

func watch[T any](ctx context.Context, receiver *topic.Receiver[T], fn func(context.Context, T)) {
	defer receiver.Close()

	ch, err := topic.ReceiveCh(receiver)
	if err != nil {
		slog.Error("could not get receiver channel (unexpected)", "err", err)
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case v, ok := <-ch:
			if !ok {
				return
			}
			fn(ctx, v)
		}
	}
}

// NotifyTrade replies to the mention that triggered the trade and sends the
// outcome to all messengers. Failures are logged.
func (n *Notifier) NotifyTrade(ctx context.Context, t *gobs.Trade) {
	if !trader.IsTerminal(t.Status) {
		return
	}
	msg := Format(t)
	if len(t.SourceMessageID) != 0 {
		n.reply(ctx, t.BotID, t.SourceMessageID, ReplyText(t.SourceAuthor, msg))
	}
	n.broadcast(ctx, fmt.Sprintf("[%s] %s", t.BotID, msg))
}

// NotifyRejection replies to a mention that was not accepted as a command.
func (n *Notifier) NotifyRejection(ctx context.Context, r *trader.Rejection) {
	if len(r.MessageID) == 0 {
		return
	}
	n.reply(ctx, r.BotID, r.MessageID, ReplyText(r.Author, FormatRejection(r)))
}

// CheckLowBalance alerts the messengers when the wallet's SOL balance is at
// or below the bot's limit. Alerts for a wallet are sent at most once per
// freeze duration.
func (n *Notifier) CheckLowBalance(ctx context.Context, u *trader.BalanceUpdate) {
	if !u.LowBalanceLimit.IsPositive() || u.Wallet == nil {
		return
	}
	balance, ok := u.Wallet.Balances[token.FeeSymbol]
	if !ok || balance.GreaterThan(u.LowBalanceLimit) {
		return
	}

	now := n.opts.Now()
	key := fmt.Sprintf("alerts/low-balance-alert/%s/%s", u.Wallet.Name, token.FeeSymbol)

	n.mu.Lock()
	if deadline, ok := n.alertFreezeDeadlineMap[key]; ok && now.Before(deadline) {
		n.mu.Unlock()
		return
	}
	n.alertFreezeDeadlineMap[key] = now.Add(n.opts.AlertFreezeDuration)
	n.mu.Unlock()

	n.broadcast(ctx, fmt.Sprintf("Available balance %s %s in wallet %q used by bot %s is below the limit %s.",
		balance.StringFixed(5), token.FeeSymbol, u.Wallet.Name, u.BotID, u.LowBalanceLimit))
}

func (n *Notifier) reply(ctx context.Context, botID, messageID, text string) {
	if n.replier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, n.opts.ReplyTimeout)
	defer cancel()

	if err := n.replier.Reply(ctx, messageID, text); err != nil {
		slog.Warn("could not reply to the mention", "bot", botID, "message", messageID, "err", err)
	}
}

func (n *Notifier) broadcast(ctx context.Context, text string) {
	ctx, cancel := context.WithTimeout(ctx, n.opts.ReplyTimeout)
	defer cancel()

	now := n.opts.Now()
	for _, m := range n.messengers {
		if err := m.SendMessage(ctx, now, text); err != nil {
			slog.Warn("could not send message", "err", err)
		}
	}
}
