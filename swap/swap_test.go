// Copyright (c) 2025 BVK Chaitanya

package swap

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/bvk/mentionbot/token"
	"github.com/shopspring/decimal"
)

func TestSimulator(t *testing.T) {
	sol, _ := token.Lookup("SOL")
	jup, _ := token.Lookup("JUP")

	sim := &Simulator{Rate: decimal.RequireFromString("2.5")}
	req := &Request{InToken: sol, OutToken: jup, Amount: decimal.RequireFromString("0.01"), Owner: "owner", SlippageBps: 50}
	r1, err := sim.Swap(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if !IsSimulated(r1.Signature) || !r1.Simulated {
		t.Fatalf("wanted simulated signature, got %q", r1.Signature)
	}
	if !r1.OutAmount.Equal(decimal.RequireFromString("0.025")) {
		t.Fatalf("wanted 0.025, got %s", r1.OutAmount)
	}
	r2, err := sim.Swap(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if r1.Signature == r2.Signature {
		t.Fatalf("wanted unique simulated signatures")
	}

	req.OutToken = sol
	if _, err := sim.Swap(context.Background(), req); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("wanted os.ErrInvalid, got %v", err)
	}
}
