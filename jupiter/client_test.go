// Copyright (c) 2025 BVK Chaitanya

package jupiter

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/bvk/mentionbot/swap"
	"github.com/bvk/mentionbot/token"
	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
)

type fakeBroadcaster struct {
	sent      [][]byte
	confirmed []string
}

func (f *fakeBroadcaster) SendTransaction(ctx context.Context, tx []byte) (string, error) {
	f.sent = append(f.sent, tx)
	return base58.Encode(tx[1:65]), nil
}

func (f *fakeBroadcaster) WaitConfirmed(ctx context.Context, signature string) error {
	f.confirmed = append(f.confirmed, signature)
	return nil
}

// unsignedTransaction returns a legacy transaction with a single signer slot.
func unsignedTransaction(signer ed25519.PublicKey) []byte {
	var tx []byte
	tx = append(tx, 1)
	tx = append(tx, make([]byte, 64)...)
	tx = append(tx, 1, 0, 1, 2)
	tx = append(tx, signer...)
	tx = append(tx, make([]byte, 32)...) // program
	tx = append(tx, make([]byte, 32)...) // blockhash
	tx = append(tx, 0)
	return tx
}

func TestSwap(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	sol, _ := token.Lookup("SOL")
	usdc, _ := token.Lookup("USDC")

	mux := http.NewServeMux()
	mux.HandleFunc("GET /quote", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("inputMint") != sol.Mint || q.Get("outputMint") != usdc.Mint {
			http.Error(w, "bad mints", http.StatusBadRequest)
			return
		}
		if q.Get("amount") != "10000000" || q.Get("slippageBps") != "50" {
			http.Error(w, "bad amount", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"inputMint":      sol.Mint,
			"outputMint":     usdc.Mint,
			"inAmount":       "10000000",
			"outAmount":      "1500000",
			"priceImpactPct": "0",
			"routePlan":      []any{},
		})
	})
	mux.HandleFunc("POST /swap", func(w http.ResponseWriter, r *http.Request) {
		var req swapRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var quote quoteResponse
		if err := json.Unmarshal(req.QuoteResponse, &quote); err != nil || quote.OutAmount != "1500000" {
			http.Error(w, "quote response is not passed back", http.StatusBadRequest)
			return
		}
		if !req.WrapAndUnwrapSol {
			http.Error(w, "wrap is not set", http.StatusBadRequest)
			return
		}
		signer, _ := base58.Decode(req.UserPublicKey)
		json.NewEncoder(w).Encode(map[string]any{
			"swapTransaction": base64.StdEncoding.EncodeToString(unsignedTransaction(signer)),
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	rpc := new(fakeBroadcaster)
	c, err := New(rpc, &Options{BaseURL: server.URL, RequestsPerSecond: 100})
	if err != nil {
		t.Fatal(err)
	}
	owner := c.AddKey(priv)

	req := &swap.Request{
		InToken:     sol,
		OutToken:    usdc,
		Amount:      decimal.RequireFromString("0.01"),
		Owner:       owner,
		SlippageBps: 50,
	}
	result, err := c.Swap(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if !result.OutAmount.Equal(decimal.RequireFromString("1.5")) {
		t.Fatalf("wanted output amount 1.5, got %s", result.OutAmount)
	}
	if result.Simulated {
		t.Fatalf("wanted a live result")
	}
	if len(rpc.sent) != 1 || len(rpc.confirmed) != 1 || rpc.confirmed[0] != result.Signature {
		t.Fatalf("wanted one sent and confirmed transaction")
	}
	tx := rpc.sent[0]
	if !ed25519.Verify(pub, tx[65:], tx[1:65]) {
		t.Fatalf("wanted a valid signature on the transaction")
	}
	if sig, _ := base58.Decode(result.Signature); !bytes.Equal(sig, tx[1:65]) {
		t.Fatalf("wanted result signature to match the transaction")
	}
}

func TestSwapUnknownWallet(t *testing.T) {
	c, err := New(new(fakeBroadcaster), &Options{BaseURL: "http://127.0.0.1:1"})
	if err != nil {
		t.Fatal(err)
	}
	sol, _ := token.Lookup("SOL")
	usdc, _ := token.Lookup("USDC")
	req := &swap.Request{InToken: sol, OutToken: usdc, Amount: decimal.NewFromInt(1), Owner: "unknown"}
	if _, err := c.Swap(context.Background(), req); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("wanted os.ErrNotExist, got %v", err)
	}
}

func TestQuoteHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no route", http.StatusBadRequest)
	}))
	defer server.Close()

	c, err := New(new(fakeBroadcaster), &Options{BaseURL: server.URL})
	if err != nil {
		t.Fatal(err)
	}
	sol, _ := token.Lookup("SOL")
	bonk, _ := token.Lookup("BONK")
	req := &swap.Request{InToken: sol, OutToken: bonk, Amount: decimal.NewFromInt(1), Owner: "owner"}
	if _, err := c.GetQuote(context.Background(), req); err == nil {
		t.Fatalf("wanted an error for a failed quote")
	}
}
