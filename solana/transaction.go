// Copyright (c) 2025 BVK Chaitanya

package solana

import (
	"bytes"
	"crypto/ed25519"
	"fmt"
	"os"

	"github.com/mr-tron/base58"
)

func decodeCompactU16(data []byte) (int, int, error) {
	value, shift := 0, 0
	for i := 0; i < 3; i++ {
		if i >= len(data) {
			return 0, 0, fmt.Errorf("compact-u16 is truncated: %w", os.ErrInvalid)
		}
		b := int(data[i])
		value |= (b & 0x7f) << shift
		if b&0x80 == 0 {
			return value, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, fmt.Errorf("compact-u16 is too long: %w", os.ErrInvalid)
}

// SignTransaction signs a wire-format transaction (legacy or versioned) with
// the key and places the signature in the slot of the matching signer. It
// returns the signed transaction and the base58 signature.
func SignTransaction(tx []byte, priv ed25519.PrivateKey) ([]byte, string, error) {
	nsigs, n, err := decodeCompactU16(tx)
	if err != nil {
		return nil, "", fmt.Errorf("could not decode signature count: %w", err)
	}
	sigStart := n
	msgStart := sigStart + nsigs*ed25519.SignatureSize
	if nsigs == 0 || msgStart >= len(tx) {
		return nil, "", fmt.Errorf("transaction has no signature slots: %w", os.ErrInvalid)
	}
	msg := tx[msgStart:]

	p := 0
	if msg[0]&0x80 != 0 {
		p = 1 // Versioned message prefix.
	}
	if p+3 > len(msg) {
		return nil, "", fmt.Errorf("message header is truncated: %w", os.ErrInvalid)
	}
	nsigners := int(msg[p])
	p += 3
	nkeys, n, err := decodeCompactU16(msg[p:])
	if err != nil {
		return nil, "", fmt.Errorf("could not decode account key count: %w", err)
	}
	p += n
	if nsigners != nsigs || nsigners > nkeys || p+nkeys*32 > len(msg) {
		return nil, "", fmt.Errorf("message account keys are inconsistent: %w", os.ErrInvalid)
	}

	pub := priv.Public().(ed25519.PublicKey)
	slot := -1
	for i := 0; i < nsigners; i++ {
		if bytes.Equal(msg[p+i*32:p+(i+1)*32], pub) {
			slot = i
			break
		}
	}
	if slot < 0 {
		return nil, "", fmt.Errorf("key %s is not a signer of the transaction: %w", Address(pub), os.ErrInvalid)
	}

	sig := ed25519.Sign(priv, msg)
	signed := bytes.Clone(tx)
	copy(signed[sigStart+slot*ed25519.SignatureSize:], sig)
	return signed, base58.Encode(sig), nil
}
