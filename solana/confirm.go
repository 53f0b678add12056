// Copyright (c) 2025 BVK Chaitanya

package solana

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bvk/mentionbot/ctxutil"
	"github.com/gorilla/websocket"
)

// TransactionError is returned when a broadcast transaction failed on chain.
type TransactionError struct {
	Signature string
	Err       string
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction %s failed: %s", e.Signature, e.Err)
}

// WaitConfirmed blocks till the transaction reaches the configured commitment
// level. It subscribes over the websocket endpoint when one is configured and
// polls signature status otherwise.
func (c *Client) WaitConfirmed(ctx context.Context, signature string) error {
	ctx, cancel := context.WithTimeout(ctx, c.opts.ConfirmTimeout)
	defer cancel()

	if len(c.opts.WSURL) != 0 {
		err := c.subscribeSignature(ctx, signature)
		if err == nil {
			return nil
		}
		var terr *TransactionError
		if errors.As(err, &terr) {
			return err
		}
		slog.Warn("could not confirm over websocket; falling back to polling", "signature", signature, "err", err)
	}
	return c.pollSignature(ctx, signature)
}

func (c *Client) pollSignature(ctx context.Context, signature string) error {
	for {
		status, err := c.GetSignatureStatus(ctx, signature)
		if err != nil {
			return fmt.Errorf("could not get signature status: %w", err)
		}
		if status != nil {
			if !isNullJSON(status.Err) {
				return &TransactionError{Signature: signature, Err: string(status.Err)}
			}
			if c.reached(status.ConfirmationStatus) {
				return nil
			}
		}
		if err := ctxutil.Sleep(ctx, time.Second); err != nil {
			return fmt.Errorf("transaction %s is not confirmed: %w", signature, err)
		}
	}
}

type wsMessage struct {
	ID     uint64          `json:"id"`
	Method string          `json:"method"`
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
	Params *struct {
		Subscription uint64 `json:"subscription"`
		Result       struct {
			Value struct {
				Err json.RawMessage `json:"err"`
			} `json:"value"`
		} `json:"result"`
	} `json:"params"`
}

func (c *Client) subscribeSignature(ctx context.Context, signature string) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.opts.WSURL, nil)
	if err != nil {
		return fmt.Errorf("could not dial websocket: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	id := c.requestID.Add(1)
	req := &rpcRequest{
		JSONRPC: "2.0",
		ID:      id,
		Method:  "signatureSubscribe",
		Params:  []any{signature, map[string]any{"commitment": c.opts.Commitment}},
	}
	if err := conn.WriteJSON(req); err != nil {
		return fmt.Errorf("could not send subscribe request: %w", err)
	}

	for {
		msg := new(wsMessage)
		if err := conn.ReadJSON(msg); err != nil {
			if cause := context.Cause(ctx); cause != nil {
				return fmt.Errorf("transaction %s is not confirmed: %w", signature, cause)
			}
			return fmt.Errorf("could not read websocket message: %w", err)
		}
		if msg.ID == id {
			if msg.Error != nil {
				return msg.Error
			}
			continue
		}
		if msg.Method != "signatureNotification" || msg.Params == nil {
			continue
		}
		if v := msg.Params.Result.Value.Err; !isNullJSON(v) {
			return &TransactionError{Signature: signature, Err: string(v)}
		}
		return nil
	}
}
