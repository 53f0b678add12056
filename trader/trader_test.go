// Copyright (c) 2025 BVK Chaitanya

package trader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/bvk/mentionbot/command"
	"github.com/bvk/mentionbot/datastore"
	"github.com/bvk/mentionbot/gobs"
	"github.com/bvk/mentionbot/social"
	"github.com/bvk/mentionbot/swap"
	"github.com/bvk/mentionbot/token"
	"github.com/bvkgo/kv/kvmemdb"
	"github.com/shopspring/decimal"
	"github.com/visvasity/topic"
)

type fakeSwapper struct {
	calls int
	err   error
}

func (f *fakeSwapper) Swap(ctx context.Context, req *swap.Request) (*swap.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &swap.Result{Signature: "5livesig", OutAmount: req.Amount.Mul(decimal.NewFromInt(100))}, nil
}

type fakeBalancer map[string]decimal.Decimal

func (f fakeBalancer) Balance(ctx context.Context, owner string, tok *token.Token) (decimal.Decimal, error) {
	return f[tok.Symbol], nil
}

func setup(t *testing.T, mode ExecutionMode, balances fakeBalancer) (*datastore.Datastore, *Orchestrator, *fakeSwapper) {
	ctx := context.Background()
	ds := datastore.New(kvmemdb.New())

	if err := ds.AddWallet(ctx, &gobs.Wallet{Name: "main", PublicKey: "owner"}); err != nil {
		t.Fatal(err)
	}
	bot := &gobs.Bot{
		ID:               "bot1",
		Handle:           "tradebot",
		UserID:           "100",
		WalletName:       "main",
		SupportedActions: []string{"swap", "buy", "sell"},
		SupportedTokens:  []string{"SOL", "JUP", "USDC"},
		SlippageBps:      50,
		ExecutionMode:    string(mode),
		Active:           true,
	}
	if err := ds.AddBot(ctx, bot); err != nil {
		t.Fatal(err)
	}

	swapper := new(fakeSwapper)
	o, err := New(ds, swapper, balances, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { o.Close() })
	return ds, o, swapper
}

func TestInsufficientFunds(t *testing.T) {
	ctx := context.Background()
	ds, o, swapper := setup(t, Live, fakeBalancer{"SOL": decimal.RequireFromString("0.01")})

	trade, err := o.ProcessCommand(ctx, "bot1", "@tradebot swap 0.01 SOL for JUP", "11", "alice")
	var ferr *InsufficientFundsError
	if !errors.As(err, &ferr) {
		t.Fatalf("wanted InsufficientFundsError, got %v", err)
	}
	if !ferr.Required.Equal(decimal.RequireFromString("0.010005")) {
		t.Fatalf("wanted required amount 0.010005, got %s", ferr.Required)
	}
	if swapper.calls != 0 {
		t.Fatalf("wanted no swap calls, got %d", swapper.calls)
	}
	if trade == nil || trade.Status != StatusFailed {
		t.Fatalf("wanted a failed trade")
	}
	saved, err := ds.Trade(ctx, trade.ID)
	if err != nil {
		t.Fatal(err)
	}
	if saved.Status != StatusFailed || !strings.Contains(saved.ErrorMessage, "insufficient funds") {
		t.Fatalf("wanted failed trade with insufficient funds message, got %q %q", saved.Status, saved.ErrorMessage)
	}
}

func TestFundsCheckNonFeeToken(t *testing.T) {
	ctx := context.Background()
	balances := fakeBalancer{"USDC": decimal.NewFromInt(10)}
	_, o, swapper := setup(t, Live, balances)

	// Enough input token but no SOL for the fee.
	_, err := o.ProcessCommand(ctx, "bot1", "@tradebot swap 5 USDC for JUP", "12", "alice")
	var ferr *InsufficientFundsError
	if !errors.As(err, &ferr) || ferr.Token != "SOL" {
		t.Fatalf("wanted InsufficientFundsError for SOL, got %v", err)
	}
	if swapper.calls != 0 {
		t.Fatalf("wanted no swap calls, got %d", swapper.calls)
	}
}

func TestZeroFee(t *testing.T) {
	opts := &Options{}
	opts.setDefaults()
	if !opts.Fee.Equal(decimal.RequireFromString("0.000005")) {
		t.Fatalf("wanted the default fee, got %s", opts.Fee)
	}

	ctx := context.Background()
	ds, _, _ := setup(t, Live, nil)
	balances := fakeBalancer{"SOL": decimal.RequireFromString("0.01")}
	swapper := new(fakeSwapper)
	o, err := New(ds, swapper, balances, &Options{NoFee: true})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { o.Close() })
	if !o.opts.Fee.IsZero() {
		t.Fatalf("wanted zero fee, got %s", o.opts.Fee)
	}

	// Entire SOL balance can be swapped without a fee reservation.
	trade, err := o.ProcessCommand(ctx, "bot1", "@tradebot swap 0.01 SOL for JUP", "15", "alice")
	if err != nil {
		t.Fatal(err)
	}
	if trade.Status != StatusCompleted || swapper.calls != 1 {
		t.Fatalf("wanted a completed live trade, got %q with %d swap calls", trade.Status, swapper.calls)
	}
}

func TestLiveTrade(t *testing.T) {
	ctx := context.Background()
	ds, o, swapper := setup(t, Live, fakeBalancer{"SOL": decimal.NewFromInt(1)})

	receiver, err := o.TradeUpdates()
	if err != nil {
		t.Fatal(err)
	}
	defer receiver.Close()
	updatesCh, err := topic.ReceiveCh(receiver)
	if err != nil {
		t.Fatal(err)
	}

	trade, err := o.ProcessCommand(ctx, "bot1", "@tradebot swap 0.01 SOL for JUP", "21", "alice")
	if err != nil {
		t.Fatal(err)
	}
	if swapper.calls != 1 {
		t.Fatalf("wanted one swap call, got %d", swapper.calls)
	}
	if trade.Status != StatusCompleted || trade.TransactionSignature != "5livesig" || trade.Mode != string(Live) {
		t.Fatalf("wanted completed live trade with signature, got %q %q %q", trade.Status, trade.TransactionSignature, trade.Mode)
	}
	if trade.OutAmount == nil || !trade.OutAmount.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("wanted output amount 1, got %v", trade.OutAmount)
	}
	if trade.SourceAuthor != "alice" || trade.SourceMessageID != "21" {
		t.Fatalf("wanted source fields to be recorded")
	}

	record, err := ds.MessageRecord(ctx, "bot1", "21")
	if err != nil {
		t.Fatal(err)
	}
	if record.Status != MessageTraded || record.TradeID != trade.ID {
		t.Fatalf("wanted traded message record for %s, got %q %q", trade.ID, record.Status, record.TradeID)
	}

	select {
	case v := <-updatesCh:
		if v.ID != trade.ID || v.Status != StatusCompleted {
			t.Fatalf("wanted completed trade update for %s", trade.ID)
		}
	case <-time.After(time.Second):
		t.Fatalf("wanted a trade update")
	}
}

func TestSimulatedTrades(t *testing.T) {
	ctx := context.Background()

	_, o, swapper := setup(t, Simulated, fakeBalancer{"SOL": decimal.NewFromInt(1)})
	trade, err := o.ProcessCommand(ctx, "bot1", "@tradebot swap 0.5 SOL for JUP", "31", "bob")
	if err != nil {
		t.Fatal(err)
	}
	if swapper.calls != 0 {
		t.Fatalf("wanted no swap calls in simulated mode")
	}
	if !strings.HasPrefix(trade.TransactionSignature, swap.SimulatedPrefix) || trade.Mode != string(Simulated) {
		t.Fatalf("wanted simulated signature, got %q", trade.TransactionSignature)
	}
	if !trade.OutAmount.Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("wanted output amount 0.5 at the default rate, got %s", trade.OutAmount)
	}

	_, o, swapper = setup(t, LiveFallback, fakeBalancer{"SOL": decimal.NewFromInt(1)})
	swapper.err = fmt.Errorf("no route")
	trade, err = o.ProcessCommand(ctx, "bot1", "@tradebot swap 0.5 SOL for JUP", "32", "bob")
	if err != nil {
		t.Fatal(err)
	}
	if swapper.calls != 1 {
		t.Fatalf("wanted one live attempt, got %d", swapper.calls)
	}
	if !strings.HasPrefix(trade.TransactionSignature, swap.SimulatedPrefix) || trade.Mode != string(Simulated) {
		t.Fatalf("wanted simulated fallback signature, got %q", trade.TransactionSignature)
	}

	_, o, swapper = setup(t, Live, fakeBalancer{"SOL": decimal.NewFromInt(1)})
	swapper.err = fmt.Errorf("no route")
	trade, err = o.ProcessCommand(ctx, "bot1", "@tradebot swap 0.5 SOL for JUP", "33", "bob")
	var eerr *ExecutionError
	if !errors.As(err, &eerr) {
		t.Fatalf("wanted ExecutionError, got %v", err)
	}
	if trade.Status != StatusFailed || !strings.Contains(trade.ErrorMessage, "no route") {
		t.Fatalf("wanted failed trade with the swap error, got %q %q", trade.Status, trade.ErrorMessage)
	}
}

func TestDuplicateMessage(t *testing.T) {
	ctx := context.Background()
	ds, o, _ := setup(t, Simulated, fakeBalancer{"SOL": decimal.NewFromInt(1)})

	if _, err := o.ProcessCommand(ctx, "bot1", "@tradebot swap 0.1 SOL for JUP", "41", "carol"); err != nil {
		t.Fatal(err)
	}
	if _, err := o.ProcessCommand(ctx, "bot1", "@tradebot swap 0.1 SOL for JUP", "41", "carol"); !errors.Is(err, os.ErrExist) {
		t.Fatalf("wanted os.ErrExist, got %v", err)
	}

	bot, err := ds.Bot(ctx, "bot1")
	if err != nil {
		t.Fatal(err)
	}
	mention := &social.Mention{ID: "41", Text: "@tradebot swap 0.1 SOL for JUP", AuthorUsername: "carol"}
	if err := o.HandleMention(ctx, bot, mention); err != nil {
		t.Fatalf("wanted duplicate mention to be skipped, got %v", err)
	}

	trades, err := ds.Trades(ctx, "bot1")
	if err != nil {
		t.Fatal(err)
	}
	if len(trades) != 1 {
		t.Fatalf("wanted one trade, got %d", len(trades))
	}
}

func TestRejection(t *testing.T) {
	ctx := context.Background()
	ds, o, _ := setup(t, Simulated, fakeBalancer{"SOL": decimal.NewFromInt(1)})

	receiver, err := o.Rejections()
	if err != nil {
		t.Fatal(err)
	}
	defer receiver.Close()
	rejectionsCh, err := topic.ReceiveCh(receiver)
	if err != nil {
		t.Fatal(err)
	}

	_, err = o.ProcessCommand(ctx, "bot1", "@tradebot swap 1 SOL for BONK", "51", "dave")
	var verr *command.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("wanted ValidationError, got %v", err)
	}
	record, err := ds.MessageRecord(ctx, "bot1", "51")
	if err != nil {
		t.Fatal(err)
	}
	if record.Status != MessageInvalid || len(record.TradeID) != 0 {
		t.Fatalf("wanted invalid message record without a trade")
	}

	select {
	case r := <-rejectionsCh:
		if r.MessageID != "51" || r.Author != "dave" || !strings.Contains(r.Reason, "BONK") {
			t.Fatalf("wanted rejection for message 51, got %+v", r)
		}
	case <-time.After(time.Second):
		t.Fatalf("wanted a rejection")
	}

	trades, err := ds.Trades(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(trades) != 0 {
		t.Fatalf("wanted no trades for rejected commands, got %d", len(trades))
	}
}

func TestRecover(t *testing.T) {
	ctx := context.Background()
	ds, o, _ := setup(t, Simulated, nil)

	for i, status := range []string{StatusPending, StatusExecuting, StatusCompleted} {
		trade := &gobs.Trade{ID: fmt.Sprintf("t%d", i), BotID: "bot1", Status: status, CreatedAt: time.Now()}
		if err := ds.CreateTrade(ctx, trade); err != nil {
			t.Fatal(err)
		}
	}
	n, err := o.Recover(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("wanted 2 recovered trades, got %d", n)
	}
	for _, id := range []string{"t0", "t1"} {
		trade, err := ds.Trade(ctx, id)
		if err != nil {
			t.Fatal(err)
		}
		if trade.Status != StatusFailed || trade.ErrorMessage != "interrupted" {
			t.Fatalf("wanted %s to be failed as interrupted, got %q", id, trade.Status)
		}
	}
	if trade, _ := ds.Trade(ctx, "t2"); trade.Status != StatusCompleted {
		t.Fatalf("wanted completed trade to be unchanged")
	}
}

func TestParseExecutionMode(t *testing.T) {
	if m, err := ParseExecutionMode(" Live-Fallback "); err != nil || m != LiveFallback {
		t.Fatalf("wanted live-fallback, got %q %v", m, err)
	}
	if _, err := ParseExecutionMode("paper"); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("wanted os.ErrInvalid, got %v", err)
	}
}
