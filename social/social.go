// Copyright (c) 2025 BVK Chaitanya

// Package social defines the types shared by the social network clients and
// their users.
package social

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

type Mention struct {
	ID string

	AuthorID       string
	AuthorUsername string

	Text string

	CreatedAt time.Time
}

type User struct {
	ID       string
	Username string
	Name     string
}

// RateLimitInfo holds the quota reported by a successful response. Remaining
// is negative when the response carries no quota information.
type RateLimitInfo struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RateLimitError is returned when the server rejects a request for exceeding
// the rate limit. ResetAt is zero when the server didn't report it.
type RateLimitError struct {
	Endpoint string
	ResetAt  time.Time
}

func (e *RateLimitError) Error() string {
	if e.ResetAt.IsZero() {
		return fmt.Sprintf("rate limited on endpoint %q", e.Endpoint)
	}
	return fmt.Sprintf("rate limited on endpoint %q till %s", e.Endpoint, e.ResetAt.Format(time.RFC3339))
}

// CompareIDs compares two decimal message ids numerically. Empty id is
// smaller than every other id.
func CompareIDs(a, b string) int {
	a, b = strings.TrimLeft(a, "0"), strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

// SortOldestFirst sorts mentions in increasing id order.
func SortOldestFirst(ms []*Mention) {
	slices.SortStableFunc(ms, func(a, b *Mention) int {
		return CompareIDs(a.ID, b.ID)
	})
}

// MaxID returns the largest id among the input and the mentions.
func MaxID(id string, ms []*Mention) string {
	for _, m := range ms {
		if CompareIDs(m.ID, id) > 0 {
			id = m.ID
		}
	}
	return id
}
