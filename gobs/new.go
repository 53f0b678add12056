// Copyright (c) 2023 BVK Chaitanya

package gobs

import (
	"fmt"
	"strings"
)

// NewByTypename returns a new zero value for the named type. It is used to
// decode raw database values for inspection.
func NewByTypename(typename string) (any, error) {
	var v any
	switch typename {
	case "Bot":
		v = new(Bot)
	case "PollSchedule":
		v = new(PollSchedule)
	case "MessageRecord":
		v = new(MessageRecord)
	case "Trade":
		v = new(Trade)
	case "Wallet":
		v = new(Wallet)
	case "CommandJob":
		v = new(CommandJob)
	case "TelegramState":
		v = new(TelegramState)
	case "KeyValue":
		v = new(KeyValue)
	default:
		return nil, fmt.Errorf("unsupported type name %q", typename)
	}
	return v, nil
}

// TypenameForKey returns the type name for values stored under a well known
// keyspace.
func TypenameForKey(key string) (string, bool) {
	prefixes := []struct{ prefix, typename string }{
		{"/bots/", "Bot"},
		{"/schedules/", "PollSchedule"},
		{"/messages/", "MessageRecord"},
		{"/trades/", "Trade"},
		{"/wallets/", "Wallet"},
		{"/jobs/", "CommandJob"},
		{"/telegram/", "TelegramState"},
	}
	for _, p := range prefixes {
		if strings.HasPrefix(key, p.prefix) {
			return p.typename, true
		}
	}
	return "", false
}
