// Copyright (c) 2025 BVK Chaitanya

package server

import (
	"context"
	"os"
	"testing"

	"github.com/bvk/mentionbot/api"
)

func TestFillHostStats(t *testing.T) {
	resp := new(api.StatusResponse)
	fillHostStats(context.Background(), resp)

	if resp.PID != os.Getpid() {
		t.Fatalf("wanted pid %d, got %d", os.Getpid(), resp.PID)
	}
	if resp.ProcessRSS == 0 {
		t.Fatalf("wanted non-zero process rss")
	}
	if resp.HostMemoryUsedPercent <= 0 || resp.HostMemoryUsedPercent > 100 {
		t.Fatalf("wanted host memory usage percent in (0, 100], got %f", resp.HostMemoryUsedPercent)
	}
}
