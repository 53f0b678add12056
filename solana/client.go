// Copyright (c) 2025 BVK Chaitanya

// Package solana implements the few Solana json-rpc methods needed to check
// wallet balances and to broadcast and confirm signed transactions.
package solana

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/bvk/mentionbot/token"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

type Client struct {
	opts Options

	client *http.Client

	limiter *rate.Limiter

	requestID atomic.Uint64
}

func New(opts *Options) (*Client, error) {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}
	c := &Client{
		opts: *opts,
		client: &http.Client{
			Timeout: opts.HttpClientTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
	}
	return c, nil
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// call performs a json-rpc call. Transport failures and 429 responses are
// retried with exponential backoff; rpc errors are not retried.
func (c *Client) call(ctx context.Context, method string, params []any, result any) error {
	body, err := json.Marshal(&rpcRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("could not json-encode request: %w", err)
	}

	delay := c.opts.RetryDelay
	var lastErr error
	for attempt := 0; attempt <= c.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return context.Cause(ctx)
			case <-time.After(delay):
			}
			if delay = 2 * delay; delay > c.opts.MaxDelay {
				delay = c.opts.MaxDelay
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.RPCURL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("could not create http request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("could not perform http request: %w", err)
			continue
		}
		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("could not read response: %w", err)
			continue
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}
		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected http status %d: %s", resp.StatusCode, data)
			continue
		}

		var rresp rpcResponse
		if err := json.Unmarshal(data, &rresp); err != nil {
			lastErr = fmt.Errorf("could not json-decode response: %w", err)
			continue
		}
		if rresp.Error != nil {
			return rresp.Error
		}
		if result != nil && rresp.Result != nil {
			if err := json.Unmarshal(rresp.Result, result); err != nil {
				return fmt.Errorf("could not json-decode %s result: %w", method, err)
			}
		}
		return nil
	}
	return fmt.Errorf("%s: max retries exceeded: %w", method, lastErr)
}

// GetBalance returns the lamports held by the account.
func (c *Client) GetBalance(ctx context.Context, owner string) (uint64, error) {
	var result struct {
		Value uint64 `json:"value"`
	}
	params := []any{owner, map[string]any{"commitment": c.opts.Commitment}}
	if err := c.call(ctx, "getBalance", params, &result); err != nil {
		return 0, err
	}
	return result.Value, nil
}

// GetTokenBalance returns the total ui amount of a mint held across all token
// accounts of the owner.
func (c *Client) GetTokenBalance(ctx context.Context, owner, mint string) (decimal.Decimal, error) {
	var result struct {
		Value []struct {
			Account struct {
				Data struct {
					Parsed struct {
						Info struct {
							TokenAmount struct {
								Amount   string `json:"amount"`
								Decimals int32  `json:"decimals"`
							} `json:"tokenAmount"`
						} `json:"info"`
					} `json:"parsed"`
				} `json:"data"`
			} `json:"account"`
		} `json:"value"`
	}
	params := []any{
		owner,
		map[string]any{"mint": mint},
		map[string]any{"encoding": "jsonParsed", "commitment": c.opts.Commitment},
	}
	if err := c.call(ctx, "getTokenAccountsByOwner", params, &result); err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, v := range result.Value {
		amount := v.Account.Data.Parsed.Info.TokenAmount
		units, err := decimal.NewFromString(amount.Amount)
		if err != nil {
			return decimal.Zero, fmt.Errorf("could not parse token amount %q: %w", amount.Amount, err)
		}
		total = total.Add(units.Shift(-amount.Decimals))
	}
	return total, nil
}

// Balance returns the ui amount of a token held by the owner.
func (c *Client) Balance(ctx context.Context, owner string, tok *token.Token) (decimal.Decimal, error) {
	if tok.Symbol == token.FeeSymbol {
		lamports, err := c.GetBalance(ctx, owner)
		if err != nil {
			return decimal.Zero, fmt.Errorf("could not get sol balance: %w", err)
		}
		return tok.FromUnits(decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), 0)), nil
	}
	v, err := c.GetTokenBalance(ctx, owner, tok.Mint)
	if err != nil {
		return decimal.Zero, fmt.Errorf("could not get %s balance: %w", tok.Symbol, err)
	}
	return v, nil
}

// SendTransaction broadcasts a signed wire-format transaction and returns its
// signature.
func (c *Client) SendTransaction(ctx context.Context, tx []byte) (string, error) {
	params := []any{
		base64.StdEncoding.EncodeToString(tx),
		map[string]any{
			"encoding":            "base64",
			"preflightCommitment": c.opts.Commitment,
			"maxRetries":          3,
		},
	}
	var signature string
	if err := c.call(ctx, "sendTransaction", params, &signature); err != nil {
		return "", fmt.Errorf("could not send transaction: %w", err)
	}
	return signature, nil
}

type SignatureStatus struct {
	Slot               uint64          `json:"slot"`
	Confirmations      *uint64         `json:"confirmations"`
	Err                json.RawMessage `json:"err"`
	ConfirmationStatus string          `json:"confirmationStatus"`
}

func (c *Client) GetSignatureStatus(ctx context.Context, signature string) (*SignatureStatus, error) {
	var result struct {
		Value []*SignatureStatus `json:"value"`
	}
	params := []any{[]string{signature}, map[string]any{"searchTransactionHistory": false}}
	if err := c.call(ctx, "getSignatureStatuses", params, &result); err != nil {
		return nil, err
	}
	if len(result.Value) == 0 {
		return nil, nil
	}
	return result.Value[0], nil
}

func isNullJSON(v json.RawMessage) bool {
	return len(v) == 0 || string(v) == "null"
}

func (c *Client) reached(status string) bool {
	levels := map[string]int{"processed": 1, "confirmed": 2, "finalized": 3}
	return levels[status] >= levels[c.opts.Commitment]
}
