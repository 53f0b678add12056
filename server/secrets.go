// Copyright (c) 2023 BVK Chaitanya

package server

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/bvk/mentionbot/pushover"
	"github.com/bvk/mentionbot/solana"
	"github.com/bvk/mentionbot/telegram"
	"github.com/bvk/mentionbot/twitter"
)

type SolanaSecrets struct {
	RPCURL string `json:"rpc_url"`
	WSURL  string `json:"ws_url"`
}

type JupiterSecrets struct {
	BaseURL string `json:"base_url"`
	APIKey  string `json:"api_key"`
}

type Secrets struct {
	Twitter  *twitter.Credentials `json:"twitter"`
	Solana   *SolanaSecrets       `json:"solana"`
	Jupiter  *JupiterSecrets      `json:"jupiter"`
	Pushover *pushover.Keys       `json:"pushover"`
	Telegram *telegram.Secrets    `json:"telegram"`

	// Wallets maps wallet names to base58 encoded signing keys.
	Wallets map[string]string `json:"wallets"`
}

func SecretsFromFile(fpath string) (*Secrets, error) {
	data, err := os.ReadFile(fpath)
	if err != nil {
		return nil, err
	}
	s := new(Secrets)
	if err := json.Unmarshal(data, s); err != nil {
		return nil, err
	}
	s.ApplyEnv()
	return s, nil
}

// ApplyEnv overrides the secrets with non-empty MENTIONBOT_* environment
// variables.
func (v *Secrets) ApplyEnv() {
	set := func(name string, dst *string) {
		if s := os.Getenv(name); len(s) != 0 {
			*dst = s
		}
	}

	if v.Twitter == nil && len(os.Getenv("MENTIONBOT_TWITTER_BEARER_TOKEN")) != 0 {
		v.Twitter = new(twitter.Credentials)
	}
	if v.Twitter != nil {
		set("MENTIONBOT_TWITTER_BEARER_TOKEN", &v.Twitter.BearerToken)
		set("MENTIONBOT_TWITTER_USER_ACCESS_TOKEN", &v.Twitter.UserAccessToken)
	}

	if v.Solana == nil {
		v.Solana = new(SolanaSecrets)
	}
	set("MENTIONBOT_SOLANA_RPC_URL", &v.Solana.RPCURL)
	set("MENTIONBOT_SOLANA_WS_URL", &v.Solana.WSURL)

	if v.Jupiter == nil {
		v.Jupiter = new(JupiterSecrets)
	}
	set("MENTIONBOT_JUPITER_URL", &v.Jupiter.BaseURL)
	set("MENTIONBOT_JUPITER_API_KEY", &v.Jupiter.APIKey)
}

func (v *Secrets) Check() error {
	if v.Twitter == nil {
		return fmt.Errorf("twitter credentials are required")
	}
	if err := v.Twitter.Check(); err != nil {
		return fmt.Errorf("invalid twitter credentials: %w", err)
	}
	for name, key := range v.Wallets {
		if _, err := solana.ParsePrivateKey(key); err != nil {
			return fmt.Errorf("invalid signing key for wallet %q: %w", name, err)
		}
	}
	if v.Telegram != nil {
		if err := v.Telegram.Check(); err != nil {
			return err
		}
	}
	if v.Pushover != nil {
		if err := v.Pushover.Check(); err != nil {
			return err
		}
	}
	return nil
}

// WalletNames returns the names of wallets with a signing key in sorted
// order.
func (v *Secrets) WalletNames() []string {
	var names []string
	for name := range v.Wallets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
