// Copyright (c) 2025 BVK Chaitanya

// Package jupiter implements live token swaps through the Jupiter aggregator.
// Swap transactions built by the aggregator are signed locally and broadcast
// through a Solana rpc node.
package jupiter

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"strconv"

	"github.com/bvk/mentionbot/solana"
	"github.com/bvk/mentionbot/swap"
	"github.com/bvk/mentionbot/syncmap"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// Broadcaster submits signed transactions to the network.
type Broadcaster interface {
	SendTransaction(ctx context.Context, tx []byte) (string, error)
	WaitConfirmed(ctx context.Context, signature string) error
}

type Client struct {
	opts Options

	baseURL *url.URL

	client *http.Client

	limiter *rate.Limiter

	rpc Broadcaster

	// keyMap holds wallet private keys indexed by their base58 address.
	keyMap syncmap.Map[string, ed25519.PrivateKey]
}

func New(rpc Broadcaster, opts *Options) (*Client, error) {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}
	baseURL, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("could not parse base url: %w", err)
	}
	c := &Client{
		opts:    *opts,
		baseURL: baseURL,
		client: &http.Client{
			Timeout: opts.HttpClientTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		rpc:     rpc,
	}
	return c, nil
}

// AddKey registers a wallet signing key. Returns the wallet address.
func (c *Client) AddKey(priv ed25519.PrivateKey) string {
	addr := solana.Address(priv.Public().(ed25519.PublicKey))
	c.keyMap.Store(addr, priv)
	return addr
}

func (c *Client) HasKey(address string) bool {
	_, ok := c.keyMap.Load(address)
	return ok
}

// Quote is a swap route returned by the aggregator. Raw holds the complete
// response which must be passed back unmodified to build the transaction.
type Quote struct {
	InAmount  decimal.Decimal
	OutAmount decimal.Decimal

	PriceImpactPct string

	Raw json.RawMessage
}

type quoteResponse struct {
	InputMint      string `json:"inputMint"`
	OutputMint     string `json:"outputMint"`
	InAmount       string `json:"inAmount"`
	OutAmount      string `json:"outAmount"`
	PriceImpactPct string `json:"priceImpactPct"`
}

type swapRequest struct {
	QuoteResponse           json.RawMessage `json:"quoteResponse"`
	UserPublicKey           string          `json:"userPublicKey"`
	WrapAndUnwrapSol        bool            `json:"wrapAndUnwrapSol"`
	DynamicComputeUnitLimit bool            `json:"dynamicComputeUnitLimit"`
}

type swapResponse struct {
	SwapTransaction      string `json:"swapTransaction"`
	LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
}

// GetQuote returns the best route for the request with amounts in ui units.
func (c *Client) GetQuote(ctx context.Context, req *swap.Request) (*Quote, error) {
	if err := req.Check(); err != nil {
		return nil, err
	}
	units := req.InToken.ToUnits(req.Amount)
	if !units.IsPositive() {
		return nil, fmt.Errorf("amount %s is below the smallest unit of %s: %w", req.Amount, req.InToken.Symbol, os.ErrInvalid)
	}

	values := make(url.Values)
	values.Set("inputMint", req.InToken.Mint)
	values.Set("outputMint", req.OutToken.Mint)
	values.Set("amount", units.String())
	values.Set("slippageBps", strconv.Itoa(req.SlippageBps))

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "quote", values, nil, &raw); err != nil {
		return nil, fmt.Errorf("could not get quote: %w", err)
	}
	var resp quoteResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("could not decode quote: %w", err)
	}
	in, err := decimal.NewFromString(resp.InAmount)
	if err != nil {
		return nil, fmt.Errorf("could not parse quote input amount %q: %w", resp.InAmount, err)
	}
	out, err := decimal.NewFromString(resp.OutAmount)
	if err != nil {
		return nil, fmt.Errorf("could not parse quote output amount %q: %w", resp.OutAmount, err)
	}
	quote := &Quote{
		InAmount:       req.InToken.FromUnits(in),
		OutAmount:      req.OutToken.FromUnits(out),
		PriceImpactPct: resp.PriceImpactPct,
		Raw:            raw,
	}
	return quote, nil
}

// Swap performs a live swap. It returns after the transaction reaches the
// configured commitment level or fails.
func (c *Client) Swap(ctx context.Context, req *swap.Request) (*swap.Result, error) {
	priv, ok := c.keyMap.Load(req.Owner)
	if !ok {
		return nil, fmt.Errorf("no signing key for wallet %s: %w", req.Owner, os.ErrNotExist)
	}

	quote, err := c.GetQuote(ctx, req)
	if err != nil {
		return nil, err
	}

	sreq := &swapRequest{
		QuoteResponse:           quote.Raw,
		UserPublicKey:           req.Owner,
		WrapAndUnwrapSol:        true,
		DynamicComputeUnitLimit: true,
	}
	sresp := new(swapResponse)
	if err := c.do(ctx, http.MethodPost, "swap", nil, sreq, sresp); err != nil {
		return nil, fmt.Errorf("could not build swap transaction: %w", err)
	}
	unsigned, err := base64.StdEncoding.DecodeString(sresp.SwapTransaction)
	if err != nil {
		return nil, fmt.Errorf("could not decode swap transaction: %w", err)
	}

	signed, signature, err := solana.SignTransaction(unsigned, priv)
	if err != nil {
		return nil, err
	}
	if _, err := c.rpc.SendTransaction(ctx, signed); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "swap transaction is submitted", "signature", signature, "in", req.InToken.Symbol, "out", req.OutToken.Symbol, "amount", req.Amount)

	if err := c.rpc.WaitConfirmed(ctx, signature); err != nil {
		return nil, fmt.Errorf("swap transaction %s did not confirm: %w", signature, err)
	}

	result := &swap.Result{
		Signature: signature,
		OutAmount: quote.OutAmount,
	}
	return result, nil
}

func (c *Client) do(ctx context.Context, method, apiPath string, values url.Values, request, response any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	u := *c.baseURL
	u.Path = path.Join(u.Path, apiPath)
	if values != nil {
		u.RawQuery = values.Encode()
	}

	var body io.Reader
	if request != nil {
		data, err := json.Marshal(request)
		if err != nil {
			return fmt.Errorf("could not json-encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("could not create http request: %w", err)
	}
	if request != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if len(c.opts.APIKey) != 0 {
		req.Header.Set("x-api-key", c.opts.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("could not perform http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("http status %d: %s", resp.StatusCode, bytes.TrimSpace(data))
	}
	if err := json.NewDecoder(resp.Body).Decode(response); err != nil {
		return fmt.Errorf("could not json-decode response: %w", err)
	}
	return nil
}
