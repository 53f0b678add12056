// Copyright (c) 2025 BVK Chaitanya

package job

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/bvk/mentionbot/gobs"
	"github.com/bvk/mentionbot/kvutil"
	"github.com/bvkgo/kv/kvmemdb"
	"github.com/google/uuid"
)

func TestQueue(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var mu sync.Mutex
	var order []string
	fn := func(ctx context.Context, j *gobs.CommandJob) (string, error) {
		mu.Lock()
		order = append(order, j.Text)
		mu.Unlock()
		if j.Text == "bad" {
			return "", fmt.Errorf("could not parse command")
		}
		return "trade-" + j.Text, nil
	}

	q := NewQueue(kvmemdb.New(), fn, nil)
	if err := q.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer q.Stop(ctx)

	var ids []string
	for _, text := range []string{"one", "bad", "two"} {
		j, err := q.Enqueue(ctx, "bot1", text, "")
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, j.ID)
	}

	for i, id := range ids {
		j, err := q.Wait(ctx, id)
		if err != nil {
			t.Fatal(err)
		}
		if i == 1 {
			if j.State != string(FAILED) || len(j.Error) == 0 {
				t.Fatalf("wanted failed job with an error, got %q", j.State)
			}
			continue
		}
		if j.State != string(COMPLETED) || j.TradeID != "trade-"+j.Text {
			t.Fatalf("wanted completed job with trade id, got %q %q", j.State, j.TradeID)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if fmt.Sprint(order) != "[one bad two]" {
		t.Fatalf("wanted fifo order, got %v", order)
	}

	if _, err := q.Get(ctx, uuid.NewString()); err == nil {
		t.Fatalf("wanted an error for a missing job")
	}
}

func TestQueueRecovery(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := kvmemdb.New()
	now := time.Now()
	queued := &gobs.CommandJob{ID: uuid.NewString(), BotID: "bot1", Text: "queued", State: string(QUEUED), EnqueuedAt: now}
	running := &gobs.CommandJob{ID: uuid.NewString(), BotID: "bot1", Text: "running", State: string(RUNNING), EnqueuedAt: now.Add(-time.Second)}
	for _, j := range []*gobs.CommandJob{queued, running} {
		if err := kvutil.SetDB(ctx, db, path.Join(Keyspace, j.ID), j); err != nil {
			t.Fatal(err)
		}
	}

	var mu sync.Mutex
	var ran []string
	fn := func(ctx context.Context, j *gobs.CommandJob) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		ran = append(ran, j.Text)
		return "", nil
	}
	q := NewQueue(db, fn, nil)
	if err := q.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer q.Stop(ctx)

	j, err := q.Wait(ctx, queued.ID)
	if err != nil {
		t.Fatal(err)
	}
	if j.State != string(COMPLETED) {
		t.Fatalf("wanted recovered queued job to complete, got %q", j.State)
	}
	j, err = q.Get(ctx, running.ID)
	if err != nil {
		t.Fatal(err)
	}
	if j.State != string(FAILED) || j.Error != "interrupted" {
		t.Fatalf("wanted running job to be failed as interrupted, got %q %q", j.State, j.Error)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(ran) != 1 || ran[0] != "queued" {
		t.Fatalf("wanted only the queued job to run, got %v", ran)
	}
	if _, err := q.Get(ctx, "bad/id"); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("wanted an error for an invalid job id")
	}
}
