// Copyright (c) 2025 BVK Chaitanya

package solana

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bvk/mentionbot/token"
	"github.com/gorilla/websocket"
	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
)

func TestKeys(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	got, err := ParsePrivateKey(base58.Encode(priv))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(priv) {
		t.Fatalf("wanted same private key after decoding")
	}

	var ints []string
	for _, b := range priv {
		ints = append(ints, fmt.Sprintf("%d", b))
	}
	if _, err := ParsePrivateKey("[" + strings.Join(ints, ",") + "]"); err != nil {
		t.Fatalf("wanted json array format to parse, got %v", err)
	}

	bad := append([]byte(nil), priv...)
	bad[63] ^= 0xff
	if _, err := ParsePrivateKey(base58.Encode(bad)); err == nil {
		t.Fatalf("wanted mismatched secret key to fail")
	}

	if v, err := ParsePublicKey(Address(pub)); err != nil || !v.Equal(pub) {
		t.Fatalf("wanted public key to round trip, got %v", err)
	}
	if _, err := ParsePublicKey(base58.Encode(pub[:31])); err == nil {
		t.Fatalf("wanted short public key to fail")
	}
}

// testTransaction builds a legacy transaction with two signers where the
// input key is the second signer.
func testTransaction(other, signer ed25519.PublicKey) []byte {
	var tx []byte
	tx = append(tx, 2)
	tx = append(tx, make([]byte, 2*ed25519.SignatureSize)...)
	tx = append(tx, 2, 0, 1) // header
	tx = append(tx, 3)       // account keys
	tx = append(tx, other...)
	tx = append(tx, signer...)
	tx = append(tx, make([]byte, 32)...)
	tx = append(tx, make([]byte, 32)...) // blockhash
	tx = append(tx, 0)                   // instructions
	return tx
}

func TestSignTransaction(t *testing.T) {
	other, _, _ := ed25519.GenerateKey(rand.Reader)
	pub, priv, _ := ed25519.GenerateKey(rand.Reader)

	tx := testTransaction(other, pub)
	signed, sig, err := SignTransaction(tx, priv)
	if err != nil {
		t.Fatal(err)
	}

	msg := signed[1+2*ed25519.SignatureSize:]
	slot := signed[1+ed25519.SignatureSize : 1+2*ed25519.SignatureSize]
	if !ed25519.Verify(pub, msg, slot) {
		t.Fatalf("wanted a valid signature in the second slot")
	}
	if base58.Encode(slot) != sig {
		t.Fatalf("wanted returned signature to match the slot")
	}
	if first := signed[1 : 1+ed25519.SignatureSize]; string(first) != string(make([]byte, ed25519.SignatureSize)) {
		t.Fatalf("wanted first slot to be untouched")
	}

	_, stranger, _ := ed25519.GenerateKey(rand.Reader)
	if _, _, err := SignTransaction(tx, stranger); err == nil {
		t.Fatalf("wanted non-signer key to fail")
	}
}

func newRPCServer(t *testing.T, handler func(method string, params []json.RawMessage) (any, *RPCError)) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     uint64            `json:"id"`
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("could not decode rpc request: %v", err)
			return
		}
		result, rerr := handler(req.Method, req.Params)
		json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": result, "error": rerr})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestBalance(t *testing.T) {
	server := newRPCServer(t, func(method string, params []json.RawMessage) (any, *RPCError) {
		switch method {
		case "getBalance":
			return map[string]any{"value": 1500000000}, nil
		case "getTokenAccountsByOwner":
			account := func(amount string) any {
				return map[string]any{"account": map[string]any{"data": map[string]any{"parsed": map[string]any{"info": map[string]any{
					"tokenAmount": map[string]any{"amount": amount, "decimals": 6},
				}}}}}
			}
			return map[string]any{"value": []any{account("2500000"), account("500000")}}, nil
		}
		return nil, &RPCError{Code: -32601, Message: "method not found"}
	})

	c, err := New(&Options{RPCURL: server.URL, RequestsPerSecond: 1000})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	sol, _ := token.Lookup("SOL")
	if v, err := c.Balance(ctx, "owner", sol); err != nil || !v.Equal(decimal.RequireFromString("1.5")) {
		t.Fatalf("wanted 1.5 SOL, got %s (%v)", v, err)
	}
	jup, _ := token.Lookup("JUP")
	if v, err := c.Balance(ctx, "owner", jup); err != nil || !v.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("wanted 3 JUP, got %s (%v)", v, err)
	}

	var rerr *RPCError
	if _, err := c.SendTransaction(ctx, []byte{1}); !errors.As(err, &rerr) {
		t.Fatalf("wanted RPCError, got %v", err)
	}
}

func TestRetryOnTooManyRequests(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls++; calls < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"jsonrpc":"2.0","id":1,"result":"5igSig"}`)
	}))
	defer server.Close()

	c, err := New(&Options{RPCURL: server.URL, RetryDelay: time.Millisecond, RequestsPerSecond: 1000})
	if err != nil {
		t.Fatal(err)
	}
	sig, err := c.SendTransaction(context.Background(), []byte{1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	if sig != "5igSig" || calls != 3 {
		t.Fatalf("wanted signature after 3 calls, got %q after %d", sig, calls)
	}
}

func TestWaitConfirmedWebsocket(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("could not upgrade: %v", err)
			return
		}
		defer conn.Close()

		var req struct {
			ID     uint64 `json:"id"`
			Method string `json:"method"`
			Params []any  `json:"params"`
		}
		if err := conn.ReadJSON(&req); err != nil {
			t.Errorf("could not read subscribe request: %v", err)
			return
		}
		if req.Method != "signatureSubscribe" || req.Params[0] != "good" && req.Params[0] != "bad" {
			t.Errorf("unexpected request %+v", req)
			return
		}
		conn.WriteJSON(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": 7})

		var txerr any
		if req.Params[0] == "bad" {
			txerr = map[string]any{"InstructionError": []any{0, "Custom"}}
		}
		conn.WriteJSON(map[string]any{
			"jsonrpc": "2.0",
			"method":  "signatureNotification",
			"params": map[string]any{
				"subscription": 7,
				"result":       map[string]any{"context": map[string]any{"slot": 1}, "value": map[string]any{"err": txerr}},
			},
		})
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	c, err := New(&Options{RPCURL: server.URL, WSURL: wsURL, ConfirmTimeout: 5 * time.Second})
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if err := c.WaitConfirmed(ctx, "good"); err != nil {
		t.Fatal(err)
	}
	var terr *TransactionError
	if err := c.WaitConfirmed(ctx, "bad"); !errors.As(err, &terr) {
		t.Fatalf("wanted TransactionError, got %v", err)
	}
}
