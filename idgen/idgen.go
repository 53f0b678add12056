// Copyright (c) 2023 BVK Chaitanya

package idgen

import (
	"encoding/binary"

	"github.com/google/uuid"
)

// Generator creates a deterministic sequence of uuids derived from a seed.
type Generator struct {
	base uuid.UUID
	next uint64
}

func New(seed string, offset uint64) *Generator {
	return &Generator{
		base: uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)),
		next: offset,
	}
}

func (v *Generator) Offset() uint64 {
	return v.next
}

func (v *Generator) NextID() uuid.UUID {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v.next)
	v.next++
	return uuid.NewSHA1(v.base, buf[:])
}

// TradeID returns the trade id for a mention. Same mention always maps to the
// same trade id.
func TradeID(botID, messageID string) string {
	return New(botID+"/"+messageID, 0).NextID().String()
}
