// Copyright (c) 2025 BVK Chaitanya

package server

import (
	"context"
	"log/slog"
	"os"

	"github.com/bvk/mentionbot/api"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
)

// fillHostStats adds process and host resource usage to the status
// response. Stats that cannot be read are left zero.
func fillHostStats(ctx context.Context, resp *api.StatusResponse) {
	resp.PID = os.Getpid()

	p, err := process.NewProcessWithContext(ctx, int32(resp.PID))
	if err != nil {
		slog.Warn("could not inspect the service process", "err", err)
	} else {
		if mi, err := p.MemoryInfoWithContext(ctx); err != nil {
			slog.Warn("could not read process memory usage", "err", err)
		} else {
			resp.ProcessRSS = mi.RSS
		}
		if v, err := p.CPUPercentWithContext(ctx); err != nil {
			slog.Warn("could not read process cpu usage", "err", err)
		} else {
			resp.ProcessCPUPercent = v
		}
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err != nil {
		slog.Warn("could not read host memory usage", "err", err)
	} else {
		resp.HostMemoryUsedPercent = vm.UsedPercent
	}
}
