// Copyright (c) 2025 BVK Chaitanya

package telegram

import (
	"slices"
	"testing"
)

func TestSecrets(t *testing.T) {
	s := &Secrets{BotToken: "token", OwnerID: "owner", AdminID: "admin", OtherIDs: []string{"watcher"}}
	if err := s.Check(); err != nil {
		t.Fatal(err)
	}
	if !s.IsOperator("owner") || !s.IsOperator("admin") {
		t.Fatalf("wanted owner and admin to be operators")
	}
	if s.IsOperator("watcher") || s.IsOperator("") {
		t.Fatalf("wanted others and empty user to be not operators")
	}
	if v := s.Receivers(); !slices.Equal(v, []string{"owner", "watcher"}) {
		t.Fatalf("wanted owner and watcher as receivers, got %v", v)
	}

	bad := []*Secrets{
		{OwnerID: "owner"},
		{BotToken: "token"},
		{BotToken: "token", OwnerID: "@owner"},
		{BotToken: "token", OwnerID: "owner", OtherIDs: []string{""}},
		{BotToken: "token", OwnerID: "owner", OtherIDs: []string{"owner"}},
		{BotToken: "token", OwnerID: "owner", AdminID: "admin", OtherIDs: []string{"admin"}},
	}
	for i, v := range bad {
		if err := v.Check(); err == nil {
			t.Fatalf("%d: wanted check to fail for %+v", i, v)
		}
	}

	// Clone doesn't share the others slice.
	c := s.Clone()
	c.OtherIDs[0] = "changed"
	if s.OtherIDs[0] != "watcher" {
		t.Fatalf("wanted clone to be independent")
	}
}
