// Copyright (c) 2023 BVK Chaitanya

package idgen

import (
	"math/rand"
	"testing"
)

func TestIDGenOffset(t *testing.T) {
	uid := "unique id"

	g1 := New(uid, 0)
	offset := rand.Intn(20)
	for i := 0; i < offset; i++ {
		g1.NextID()
	}

	g2 := New(uid, g1.Offset())
	if a, b := g1.NextID(), g2.NextID(); a != b {
		t.Fatalf("want %v, got %v", a, b)
	}
}

func TestTradeID(t *testing.T) {
	a := TradeID("bot1", "1790000000000000001")
	if b := TradeID("bot1", "1790000000000000001"); a != b {
		t.Fatalf("want %v, got %v", a, b)
	}
	if c := TradeID("bot2", "1790000000000000001"); a == c {
		t.Fatalf("want different ids for different bots, got %v", c)
	}
	if d := TradeID("bot1", "1790000000000000002"); a == d {
		t.Fatalf("want different ids for different messages, got %v", d)
	}
}
