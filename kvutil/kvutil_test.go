// Copyright (c) 2023 BVK Chaitanya

package kvutil

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bvk/mentionbot/gobs"
	"github.com/bvkgo/kv/kvmemdb"
)

func TestCreate(t *testing.T) {
	ctx := context.Background()
	db := kvmemdb.New()

	v := &gobs.PollSchedule{BotID: "a", BackoffSeconds: 60}
	if err := CreateDB(ctx, db, "/schedules/a", v); err != nil {
		t.Fatal(err)
	}
	if err := CreateDB(ctx, db, "/schedules/a", v); !errors.Is(err, os.ErrExist) {
		t.Fatalf("wanted os.ErrExist, got %v", err)
	}
	if _, err := GetDB[gobs.PollSchedule](ctx, db, "/schedules/b"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("wanted os.ErrNotExist, got %v", err)
	}
}

func TestBackupRestore(t *testing.T) {
	ctx := context.Background()
	db := kvmemdb.New()

	for _, id := range []string{"a", "b", "c"} {
		if err := SetDB(ctx, db, "/bots/"+id, &gobs.Bot{ID: id}); err != nil {
			t.Fatal(err)
		}
	}
	if err := SetDB(ctx, db, "/trades/x", &gobs.Trade{ID: "x"}); err != nil {
		t.Fatal(err)
	}

	file := filepath.Join(t.TempDir(), "backup.gob")
	if err := BackupDB(ctx, db, file); err != nil {
		t.Fatal(err)
	}

	other := kvmemdb.New()
	if err := SetDB(ctx, other, "/bots/stale", &gobs.Bot{ID: "stale"}); err != nil {
		t.Fatal(err)
	}
	if err := RestoreDB(ctx, other, file); err != nil {
		t.Fatal(err)
	}

	bots, err := ListDB[gobs.Bot](ctx, other, "/bots")
	if err != nil {
		t.Fatal(err)
	}
	if len(bots) != 3 {
		t.Fatalf("wanted 3 bots, got %d", len(bots))
	}
	for i, id := range []string{"a", "b", "c"} {
		if bots[i].ID != id {
			t.Fatalf("wanted bot %s at %d, got %s", id, i, bots[i].ID)
		}
	}
	if _, err := GetDB[gobs.Trade](ctx, other, "/trades/x"); err != nil {
		t.Fatal(err)
	}
}
