// Copyright (c) 2025 BVK Chaitanya

package token

import (
	"errors"
	"os"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseSet(t *testing.T) {
	set, err := ParseSet("sol, $jup,SOL  usdc")
	if err != nil {
		t.Fatal(err)
	}
	if s := set.String(); s != "SOL,JUP,USDC" {
		t.Fatalf("wanted SOL,JUP,USDC, got %q", s)
	}
	if !set.Contains("jup") {
		t.Fatalf("wanted jup to be in the set")
	}
	if set.Contains("BONK") {
		t.Fatalf("wanted BONK to be absent from the set")
	}

	if _, err := ParseSet("SOL,DOGE"); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("wanted os.ErrInvalid, got %v", err)
	}
}

func TestUnits(t *testing.T) {
	sol, _ := Lookup("SOL")
	units := sol.ToUnits(decimal.RequireFromString("0.0100000009"))
	if !units.Equal(decimal.NewFromInt(10000000)) {
		t.Fatalf("wanted 10000000, got %s", units)
	}
	if v := sol.FromUnits(units); !v.Equal(decimal.RequireFromString("0.01")) {
		t.Fatalf("wanted 0.01, got %s", v)
	}
}
