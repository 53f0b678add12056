// Copyright (c) 2025 BVK Chaitanya

package api

import "time"

const StatusPath = "/mentionbot/status"

type StatusRequest struct {
}

type BotStatus struct {
	BotID string
	State string

	LastSeenMessageID string
	NextPollTime      time.Time
	Backoff           time.Duration
}

type EndpointStatus struct {
	Endpoint  string
	IsLimited bool
	ResetAt   time.Time
}

type StatusResponse struct {
	StartTime time.Time

	DefaultMode string

	Bots      []*BotStatus
	Endpoints []*EndpointStatus

	QueuedJobs int

	PID                   int
	ProcessRSS            uint64
	ProcessCPUPercent     float64
	HostMemoryUsedPercent float64
}
