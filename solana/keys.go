// Copyright (c) 2025 BVK Chaitanya

package solana

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// ParsePublicKey decodes a base58 wallet address. Program derived addresses
// are rejected because they are not on the ed25519 curve and cannot sign.
func ParsePublicKey(s string) (ed25519.PublicKey, error) {
	data, err := base58.Decode(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("could not base58-decode public key: %w", err)
	}
	if len(data) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key must be %d bytes, got %d: %w", ed25519.PublicKeySize, len(data), os.ErrInvalid)
	}
	if _, err := new(edwards25519.Point).SetBytes(data); err != nil {
		return nil, fmt.Errorf("public key is not on the ed25519 curve: %w", os.ErrInvalid)
	}
	return ed25519.PublicKey(data), nil
}

// ParsePrivateKey decodes a wallet secret key in base58 or in the json byte
// array format written by solana-keygen.
func ParsePrivateKey(s string) (ed25519.PrivateKey, error) {
	s = strings.TrimSpace(s)

	var data []byte
	if strings.HasPrefix(s, "[") {
		var ints []int
		if err := json.Unmarshal([]byte(s), &ints); err != nil {
			return nil, fmt.Errorf("could not json-decode secret key: %w", err)
		}
		for _, v := range ints {
			if v < 0 || v > 255 {
				return nil, fmt.Errorf("secret key byte %d is out of range: %w", v, os.ErrInvalid)
			}
			data = append(data, byte(v))
		}
	} else {
		v, err := base58.Decode(s)
		if err != nil {
			return nil, fmt.Errorf("could not base58-decode secret key: %w", err)
		}
		data = v
	}

	if len(data) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("secret key must be %d bytes, got %d: %w", ed25519.PrivateKeySize, len(data), os.ErrInvalid)
	}
	priv := ed25519.NewKeyFromSeed(data[:ed25519.SeedSize])
	if !bytes.Equal(priv[ed25519.SeedSize:], data[ed25519.SeedSize:]) {
		return nil, fmt.Errorf("secret key doesn't match its public key: %w", os.ErrInvalid)
	}
	return priv, nil
}

func Address(pub ed25519.PublicKey) string {
	return base58.Encode(pub)
}
