// Copyright (c) 2025 BVK Chaitanya

package notify

import (
	"fmt"
	"strings"

	"github.com/bvk/mentionbot/gobs"
	"github.com/bvk/mentionbot/swap"
	"github.com/bvk/mentionbot/trader"
)

// MaxReplyLength is the maximum number of characters in a social reply.
const MaxReplyLength = 280

// Format renders a trade outcome as a short human readable message.
func Format(t *gobs.Trade) string {
	switch t.Status {
	case trader.StatusCompleted:
		out := "?"
		if t.OutAmount != nil {
			out = t.OutAmount.String()
		}
		if swap.IsSimulated(t.TransactionSignature) {
			return fmt.Sprintf("Simulated swap of %s %s for %s %s (no on-chain transaction). Ref: %s", t.Amount, t.InToken, out, t.OutToken, t.TransactionSignature)
		}
		return fmt.Sprintf("Swapped %s %s for %s %s. Tx: https://solscan.io/tx/%s", t.Amount, t.InToken, out, t.OutToken, t.TransactionSignature)

	case trader.StatusFailed:
		return fmt.Sprintf("Could not swap %s %s for %s: %s", t.Amount, t.InToken, t.OutToken, t.ErrorMessage)
	}
	return fmt.Sprintf("Swap of %s %s for %s is %s.", t.Amount, t.InToken, t.OutToken, t.Status)
}

// FormatRejection renders the reason a mention was not accepted as a command.
func FormatRejection(r *trader.Rejection) string {
	return fmt.Sprintf("Sorry, I could not process your command. %s. Try: swap 0.1 SOL for USDC", capitalize(r.Reason))
}

// ReplyText addresses the message to the author and trims it to fit a reply.
func ReplyText(author, msg string) string {
	if len(author) != 0 {
		msg = "@" + strings.TrimPrefix(author, "@") + " " + msg
	}
	rs := []rune(msg)
	if len(rs) <= MaxReplyLength {
		return msg
	}
	return string(rs[:MaxReplyLength-3]) + "..."
}

func capitalize(s string) string {
	if len(s) == 0 {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
