// Copyright (c) 2025 BVK Chaitanya

package api

import "github.com/bvk/mentionbot/gobs"

const (
	WalletAddPath     = "/mentionbot/wallet/add"
	WalletListPath    = "/mentionbot/wallet/list"
	WalletRefreshPath = "/mentionbot/wallet/refresh"
)

// WalletAddRequest registers a wallet by its public key. Signing keys are
// only read from the secrets file.
type WalletAddRequest struct {
	Name      string
	PublicKey string
}

type WalletAddResponse struct {
	Wallet *gobs.Wallet
}

type WalletListRequest struct {
}

type WalletListResponse struct {
	Wallets []*gobs.Wallet

	// Signers holds the wallet names with a signing key.
	Signers []string
}

type WalletRefreshRequest struct {
	BotID string
}

type WalletRefreshResponse struct {
	Wallet *gobs.Wallet
}
