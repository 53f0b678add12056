// Copyright (c) 2025 BVK Chaitanya

// Package job implements a persistent FIFO queue of command jobs that are
// processed one at a time in the background.
package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"slices"
	"sync"
	"time"

	"github.com/bvk/mentionbot/ctxutil"
	"github.com/bvk/mentionbot/gobs"
	"github.com/bvk/mentionbot/kvutil"
	"github.com/bvkgo/kv"
	"github.com/google/uuid"
)

const Keyspace = "/jobs/"

type State string

const (
	QUEUED    State = "QUEUED"
	RUNNING   State = "RUNNING"
	COMPLETED State = "COMPLETED"
	FAILED    State = "FAILED"
)

func IsDone(s State) bool {
	return s == COMPLETED || s == FAILED
}

// Func processes a job and returns the id of the trade it created, if any.
type Func func(ctx context.Context, job *gobs.CommandJob) (tradeID string, err error)

type Options struct {
	Now func() time.Time
}

func (v *Options) setDefaults() {
	if v.Now == nil {
		v.Now = time.Now
	}
}

type Queue struct {
	cg ctxutil.CloseGroup

	opts Options

	db kv.Database

	fn Func

	wakeCh chan struct{}

	mu sync.Mutex

	pending []string
}

func NewQueue(db kv.Database, fn Func, opts *Options) *Queue {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	return &Queue{
		opts:   *opts,
		db:     db,
		fn:     fn,
		wakeCh: make(chan struct{}, 1),
	}
}

// Start recovers jobs left by an earlier process and starts the worker.
// Queued jobs are processed again and running jobs are marked as failed.
func (q *Queue) Start(ctx context.Context) error {
	jobs, err := q.List(ctx)
	if err != nil {
		return err
	}
	slices.SortStableFunc(jobs, func(a, b *gobs.CommandJob) int {
		return a.EnqueuedAt.Compare(b.EnqueuedAt)
	})

	var pending []string
	for _, j := range jobs {
		switch State(j.State) {
		case QUEUED:
			pending = append(pending, j.ID)
		case RUNNING:
			j.State, j.Error, j.UpdatedAt = string(FAILED), "interrupted", q.opts.Now()
			if err := kvutil.SetDB(ctx, q.db, path.Join(Keyspace, j.ID), j); err != nil {
				return fmt.Errorf("could not mark job %q as interrupted: %w", j.ID, err)
			}
			slog.Warn("marked interrupted command job as failed", "job", j.ID, "bot", j.BotID)
		}
	}

	q.mu.Lock()
	q.pending = append(pending, q.pending...)
	q.mu.Unlock()

	q.cg.Go(q.worker)
	q.wake()
	return nil
}

func (q *Queue) Stop(ctx context.Context) error {
	q.cg.Close()
	return nil
}

func (q *Queue) wake() {
	select {
	case q.wakeCh <- struct{}{}:
	default:
	}
}

// Enqueue saves a new job in QUEUED state and wakes up the worker.
func (q *Queue) Enqueue(ctx context.Context, botID, text, sourceMessageID string) (*gobs.CommandJob, error) {
	now := q.opts.Now()
	j := &gobs.CommandJob{
		ID:              uuid.NewString(),
		BotID:           botID,
		Text:            text,
		SourceMessageID: sourceMessageID,
		State:           string(QUEUED),
		EnqueuedAt:      now,
		UpdatedAt:       now,
	}
	if err := kvutil.CreateDB(ctx, q.db, path.Join(Keyspace, j.ID), j); err != nil {
		return nil, fmt.Errorf("could not save command job: %w", err)
	}

	q.mu.Lock()
	q.pending = append(q.pending, j.ID)
	q.mu.Unlock()

	q.wake()
	return j, nil
}

func (q *Queue) Get(ctx context.Context, id string) (*gobs.CommandJob, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("job id %q is not valid: %w", id, os.ErrInvalid)
	}
	return kvutil.GetDB[gobs.CommandJob](ctx, q.db, path.Join(Keyspace, id))
}

func (q *Queue) List(ctx context.Context) ([]*gobs.CommandJob, error) {
	return kvutil.ListDB[gobs.CommandJob](ctx, q.db, Keyspace)
}

// Wait blocks till the job is done or the context is canceled.
func (q *Queue) Wait(ctx context.Context, id string) (*gobs.CommandJob, error) {
	for {
		j, err := q.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if IsDone(State(j.State)) {
			return j, nil
		}
		if err := ctxutil.Sleep(ctx, 10*time.Millisecond); err != nil {
			return nil, err
		}
	}
}

func (q *Queue) pop() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return "", false
	}
	id := q.pending[0]
	q.pending = q.pending[1:]
	return id, true
}

func (q *Queue) worker(ctx context.Context) {
	for ctx.Err() == nil {
		id, ok := q.pop()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-q.wakeCh:
				continue
			}
		}
		if err := q.run(ctx, id); err != nil && !errors.Is(err, context.Cause(ctx)) {
			slog.Error("could not run command job", "job", id, "err", err)
		}
	}
}

func (q *Queue) run(ctx context.Context, id string) error {
	key := path.Join(Keyspace, id)
	j, err := kvutil.GetDB[gobs.CommandJob](ctx, q.db, key)
	if err != nil {
		return err
	}
	if State(j.State) != QUEUED {
		return nil
	}

	j.State, j.UpdatedAt = string(RUNNING), q.opts.Now()
	if err := kvutil.SetDB(ctx, q.db, key, j); err != nil {
		return err
	}

	tradeID, err := q.fn(ctx, j)
	j.TradeID, j.UpdatedAt = tradeID, q.opts.Now()
	if err != nil {
		j.State, j.Error = string(FAILED), err.Error()
		slog.Warn("command job has failed", "job", id, "bot", j.BotID, "trade", tradeID, "err", err)
	} else {
		j.State = string(COMPLETED)
		slog.Info("command job is completed", "job", id, "bot", j.BotID, "trade", tradeID)
	}
	return kvutil.SetDB(context.WithoutCancel(ctx), q.db, key, j)
}
