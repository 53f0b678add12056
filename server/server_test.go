// Copyright (c) 2023 BVK Chaitanya

package server

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bvk/mentionbot/api"
	"github.com/bvk/mentionbot/job"
	"github.com/bvk/mentionbot/solana"
	"github.com/bvk/mentionbot/swap"
	"github.com/bvk/mentionbot/trader"
	"github.com/bvk/mentionbot/twitter"
	"github.com/bvkgo/kv/kvmemdb"
	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
)

func post[RESP, REQ any](t *testing.T, handlers map[string]http.Handler, apiPath string, req *REQ) (*RESP, int) {
	t.Helper()
	data, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	r := httptest.NewRequest(http.MethodPost, apiPath, bytes.NewReader(data))
	w := httptest.NewRecorder()
	handlers[apiPath].ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		return nil, w.Code
	}
	resp := new(RESP)
	if err := json.Unmarshal(w.Body.Bytes(), resp); err != nil {
		t.Fatal(err)
	}
	return resp, w.Code
}

func newTestServer(t *testing.T) *Server {
	ctx := context.Background()

	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatal(err)
	}
	secrets := &Secrets{
		Twitter: &twitter.Credentials{BearerToken: "test-token"},
		Wallets: map[string]string{"main": base58.Encode(priv)},
	}
	opts := &Options{
		OfflineBalances: true,
		NoResume:        true,
	}
	s, err := New(ctx, secrets, kvmemdb.New(), opts)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Stop(context.Background()) })
	return s
}

func TestServer(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t)
	handlers := s.HandlerMap()

	wallets, code := post[api.WalletListResponse](t, handlers, api.WalletListPath, &api.WalletListRequest{})
	if code != http.StatusOK {
		t.Fatalf("wanted 200, got %d", code)
	}
	if len(wallets.Wallets) != 1 || wallets.Wallets[0].Name != "main" {
		t.Fatalf("wanted wallet from the secrets to be registered, got %v", wallets.Wallets)
	}

	w, err := s.ds.Wallet(ctx, "main")
	if err != nil {
		t.Fatal(err)
	}
	w.Balances = map[string]decimal.Decimal{"SOL": decimal.NewFromInt(1)}
	if err := s.ds.SaveWallet(ctx, w); err != nil {
		t.Fatal(err)
	}

	addReq := &api.BotAddRequest{
		ID:              "bot1",
		Handle:          "@tradebot",
		UserID:          "100",
		WalletName:      "main",
		SupportedTokens: []string{"sol", "jup"},
	}
	added, code := post[api.BotAddResponse](t, handlers, api.BotAddPath, addReq)
	if code != http.StatusOK {
		t.Fatalf("wanted 200, got %d", code)
	}
	if added.Bot.Handle != "tradebot" || added.Bot.SlippageBps != defaultSlippageBps || len(added.Bot.SupportedActions) != 3 {
		t.Fatalf("wanted normalized bot with defaults, got %+v", added.Bot)
	}
	if _, code := post[api.BotAddResponse](t, handlers, api.BotAddPath, addReq); code != http.StatusConflict {
		t.Fatalf("wanted 409 for duplicate bot, got %d", code)
	}
	missing := &api.BotAddRequest{ID: "bot2", Handle: "other", UserID: "200", WalletName: "nope", SupportedTokens: []string{"SOL", "JUP"}}
	if _, code := post[api.BotAddResponse](t, handlers, api.BotAddPath, missing); code != http.StatusNotFound {
		t.Fatalf("wanted 404 for missing wallet, got %d", code)
	}

	parsed, code := post[api.ParseResponse](t, handlers, api.ParsePath, &api.ParseRequest{BotID: "bot1", Text: "@tradebot swap 0.1 SOL for JUP"})
	if code != http.StatusOK {
		t.Fatalf("wanted 200, got %d", code)
	}
	if parsed.InToken != "SOL" || parsed.OutToken != "JUP" || !parsed.Amount.Equal(decimal.RequireFromString("0.1")) {
		t.Fatalf("unexpected parse result %+v", parsed)
	}
	if _, code := post[api.ParseResponse](t, handlers, api.ParsePath, &api.ParseRequest{BotID: "bot1", Text: "@tradebot swap 0.1 SOL for USDC"}); code != http.StatusBadRequest {
		t.Fatalf("wanted 400 for unsupported token, got %d", code)
	}

	queued, code := post[api.CommandResponse](t, handlers, api.CommandPath, &api.CommandRequest{BotID: "bot1", Text: "@tradebot swap 0.1 SOL for JUP", SourceMessageID: "42"})
	if code != http.StatusOK {
		t.Fatalf("wanted 200, got %d", code)
	}
	done, code := post[api.JobGetResponse](t, handlers, api.JobGetPath, &api.JobGetRequest{JobID: queued.JobID, Wait: true})
	if code != http.StatusOK {
		t.Fatalf("wanted 200, got %d", code)
	}
	if done.Job.State != string(job.COMPLETED) {
		t.Fatalf("wanted completed job, got %+v", done.Job)
	}
	if done.Trade == nil || done.Trade.Status != trader.StatusCompleted {
		t.Fatalf("wanted completed trade, got %+v", done.Trade)
	}
	if !strings.HasPrefix(done.Trade.TransactionSignature, swap.SimulatedPrefix) {
		t.Fatalf("wanted simulated signature, got %q", done.Trade.TransactionSignature)
	}

	if _, code := post[api.CommandResponse](t, handlers, api.CommandPath, &api.CommandRequest{BotID: "bot1", Text: "@tradebot swap 0.1 SOL for JUP", SourceMessageID: "42"}); code != http.StatusConflict {
		t.Fatalf("wanted 409 for processed message, got %d", code)
	}

	trades, code := post[api.TradeListResponse](t, handlers, api.TradeListPath, &api.TradeListRequest{BotID: "bot1"})
	if code != http.StatusOK || len(trades.Trades) != 1 {
		t.Fatalf("wanted one trade, got %d (%d)", len(trades.Trades), code)
	}
	if _, code := post[api.TradeGetResponse](t, handlers, api.TradeGetPath, &api.TradeGetRequest{ID: "missing"}); code != http.StatusNotFound {
		t.Fatalf("wanted 404 for missing trade, got %d", code)
	}
}

func TestBotScheduling(t *testing.T) {
	s := newTestServer(t)
	handlers := s.HandlerMap()

	pub, _, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, code := post[api.WalletAddResponse](t, handlers, api.WalletAddPath, &api.WalletAddRequest{Name: "watch", PublicKey: solana.Address(pub)}); code != http.StatusOK {
		t.Fatalf("wanted 200, got %d", code)
	}
	if _, code := post[api.WalletAddResponse](t, handlers, api.WalletAddPath, &api.WalletAddRequest{Name: "bad", PublicKey: "not-a-key"}); code != http.StatusBadRequest {
		t.Fatalf("wanted 400 for invalid public key, got %d", code)
	}

	addReq := &api.BotAddRequest{
		ID:              "bot1",
		Handle:          "tradebot",
		UserID:          "100",
		WalletName:      "watch",
		SupportedTokens: []string{"SOL", "USDC"},
	}
	if _, code := post[api.BotAddResponse](t, handlers, api.BotAddPath, addReq); code != http.StatusOK {
		t.Fatalf("wanted 200, got %d", code)
	}

	got, code := post[api.BotGetResponse](t, handlers, api.BotGetPath, &api.BotGetRequest{ID: "bot1"})
	if code != http.StatusOK {
		t.Fatalf("wanted 200, got %d", code)
	}
	if got.State != "not-scheduled" {
		t.Fatalf("wanted new bot to be not scheduled, got %q", got.State)
	}

	started, code := post[api.BotStartResponse](t, handlers, api.BotStartPath, &api.BotStartRequest{ID: "bot1"})
	if code != http.StatusOK {
		t.Fatalf("wanted 200, got %d", code)
	}
	if started.State != "due" {
		t.Fatalf("wanted started bot to be due, got %q", started.State)
	}

	status, code := post[api.StatusResponse](t, handlers, api.StatusPath, &api.StatusRequest{})
	if code != http.StatusOK {
		t.Fatalf("wanted 200, got %d", code)
	}
	if len(status.Bots) != 1 || status.Bots[0].BotID != "bot1" {
		t.Fatalf("wanted status for bot1, got %+v", status.Bots)
	}
	if status.DefaultMode != "simulated" {
		t.Fatalf("wanted simulated default mode, got %q", status.DefaultMode)
	}

	stopped, code := post[api.BotStopResponse](t, handlers, api.BotStopPath, &api.BotStopRequest{ID: "bot1"})
	if code != http.StatusOK {
		t.Fatalf("wanted 200, got %d", code)
	}
	if stopped.State != "not-scheduled" {
		t.Fatalf("wanted stopped bot to be not scheduled, got %q", stopped.State)
	}

	if _, code := post[api.BotStartResponse](t, handlers, api.BotStartPath, &api.BotStartRequest{ID: "missing"}); code != http.StatusNotFound {
		t.Fatalf("wanted 404 for missing bot, got %d", code)
	}
}
