// Copyright (c) 2023 BVK Chaitanya

package ctxutil

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"
)

func TestCloseGroup(t *testing.T) {
	var cg CloseGroup

	var count atomic.Int32
	for i := 0; i < 100; i++ {
		cg.Go(func(ctx context.Context) {
			<-ctx.Done()
			if cause := context.Cause(ctx); !errors.Is(cause, os.ErrClosed) {
				t.Errorf("wanted os.ErrClosed, got %v", cause)
			}
			count.Add(1)
		})
	}

	cg.Close()
	if v := count.Load(); v != 100 {
		t.Fatalf("wanted 100 goroutines to finish, got %d", v)
	}
}

func TestRetryTimeout(t *testing.T) {
	ctx := context.Background()

	n := 0
	err := RetryTimeout(ctx, time.Millisecond, time.Second, func() error {
		if n++; n < 3 {
			return os.ErrNotExist
		}
		return nil
	})
	if err != nil {
		t.Fatalf("wanted nil, got %v", err)
	}
	if n != 3 {
		t.Fatalf("wanted 3 attempts, got %d", n)
	}

	err = RetryTimeout(ctx, time.Millisecond, 10*time.Millisecond, func() error {
		return os.ErrNotExist
	})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("wanted os.ErrNotExist, got %v", err)
	}
}
