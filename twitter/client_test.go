// Copyright (c) 2025 BVK Chaitanya

package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bvk/mentionbot/ratelimit"
	"github.com/bvk/mentionbot/social"
)

func newTestClient(t *testing.T, handler http.Handler, tracker *ratelimit.Tracker) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	creds := &Credentials{BearerToken: "bearer", UserAccessToken: "user"}
	opts := &Options{
		BaseURL:           server.URL,
		RequestsPerSecond: 1000,
		Tracker:           tracker,
	}
	c, err := New(creds, opts)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestFetchMentionsSince(t *testing.T) {
	reset := time.Now().Add(15 * time.Minute).Unix()

	mux := http.NewServeMux()
	mux.HandleFunc("/2/users/42/mentions", func(w http.ResponseWriter, r *http.Request) {
		if v := r.Header.Get("Authorization"); v != "Bearer bearer" {
			t.Errorf("wanted bearer token, got %q", v)
		}
		if v := r.URL.Query().Get("since_id"); v != "100" {
			t.Errorf("wanted since_id 100, got %q", v)
		}
		w.Header().Set("x-rate-limit-limit", "10")
		w.Header().Set("x-rate-limit-remaining", "7")
		w.Header().Set("x-rate-limit-reset", fmt.Sprintf("%d", reset))

		resp := map[string]any{
			"data": []map[string]any{
				{"id": "105", "text": "@tradebot swap 1 SOL for JUP", "author_id": "7", "created_at": "2025-01-02T03:04:05.000Z"},
				{"id": "103", "text": "@tradebot hello", "author_id": "8", "created_at": "2025-01-02T03:04:00.000Z"},
			},
			"includes": map[string]any{
				"users": []map[string]any{{"id": "7", "username": "alice"}, {"id": "8", "username": "bob"}},
			},
			"meta": map[string]any{"result_count": 2, "newest_id": "105", "oldest_id": "103"},
		}
		if r.URL.Query().Get("pagination_token") == "" {
			resp["meta"].(map[string]any)["next_token"] = "page2"
		} else {
			resp["data"] = []map[string]any{{"id": "101", "text": "old", "author_id": "7"}}
		}
		json.NewEncoder(w).Encode(resp)
	})

	c := newTestClient(t, mux, nil)
	mentions, info, err := c.FetchMentionsSince(context.Background(), "42", "100")
	if err != nil {
		t.Fatal(err)
	}
	if len(mentions) != 3 {
		t.Fatalf("wanted 3 mentions, got %d", len(mentions))
	}
	if m := mentions[0]; m.ID != "105" || m.AuthorUsername != "alice" || m.CreatedAt.IsZero() {
		t.Fatalf("wanted first mention 105 from alice, got %+v", m)
	}
	if mentions[2].ID != "101" {
		t.Fatalf("wanted last mention from the second page, got %s", mentions[2].ID)
	}
	if info == nil || info.Remaining != 7 || info.ResetAt.Unix() != reset {
		t.Fatalf("wanted remaining 7 with reset %d, got %+v", reset, info)
	}
}

func TestFetchMentionsPageLimit(t *testing.T) {
	var logs bytes.Buffer
	defaultLogger := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(defaultLogger) })

	npages := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		npages++
		id := fmt.Sprintf("%d", 200-npages)
		resp := map[string]any{
			"data": []map[string]any{{"id": id, "text": "@tradebot hello", "author_id": "7"}},
			"meta": map[string]any{"result_count": 1, "next_token": fmt.Sprintf("page%d", npages+1)},
		}
		json.NewEncoder(w).Encode(resp)
	})

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	c, err := New(&Credentials{BearerToken: "bearer"}, &Options{BaseURL: server.URL, RequestsPerSecond: 1000, MaxPages: 2})
	if err != nil {
		t.Fatal(err)
	}

	mentions, _, err := c.FetchMentionsSince(context.Background(), "42", "100")
	if err != nil {
		t.Fatal(err)
	}
	if npages != 2 || len(mentions) != 2 {
		t.Fatalf("wanted 2 pages with 2 mentions, got %d pages with %d mentions", npages, len(mentions))
	}
	if s := logs.String(); !strings.Contains(s, "exceed the page limit") || !strings.Contains(s, "oldestID=198") {
		t.Fatalf("wanted a page limit warning with the oldest fetched id, got %q", s)
	}
}

func TestFetchMentionsRateLimited(t *testing.T) {
	reset := time.Now().Add(time.Minute).Unix()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-rate-limit-remaining", "0")
		w.Header().Set("x-rate-limit-reset", fmt.Sprintf("%d", reset))
		w.WriteHeader(http.StatusTooManyRequests)
	})

	c := newTestClient(t, handler, nil)
	_, _, err := c.FetchMentionsSince(context.Background(), "42", "")

	var rerr *social.RateLimitError
	if !errors.As(err, &rerr) {
		t.Fatalf("wanted RateLimitError, got %v", err)
	}
	if rerr.ResetAt.Unix() != reset || rerr.Endpoint != ratelimit.Mentions {
		t.Fatalf("wanted reset %d on mentions, got %+v", reset, rerr)
	}
}

func TestReplyTracksLimit(t *testing.T) {
	calls := 0
	reset := time.Now().Add(time.Hour).Unix()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if v := r.Header.Get("Authorization"); v != "Bearer user" {
			t.Errorf("wanted user token, got %q", v)
		}
		req := new(tweetRequest)
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			t.Errorf("could not decode request: %v", err)
		}
		if req.Reply == nil || req.Reply.InReplyToTweetID != "105" {
			t.Errorf("wanted reply to 105, got %+v", req.Reply)
		}
		w.Header().Set("x-rate-limit-remaining", "1")
		w.Header().Set("x-rate-limit-reset", fmt.Sprintf("%d", reset))
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"data":{"id":"200","text":%q}}`, req.Text)
	})

	tracker := ratelimit.New(nil)
	c := newTestClient(t, handler, tracker)
	if err := c.Reply(context.Background(), "105", "done"); err != nil {
		t.Fatal(err)
	}
	if !tracker.IsLimited(ratelimit.Tweet) {
		t.Fatalf("wanted tweet endpoint to be throttled at low watermark")
	}

	var rerr *social.RateLimitError
	if err := c.Reply(context.Background(), "105", "again"); !errors.As(err, &rerr) {
		t.Fatalf("wanted RateLimitError, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("wanted one server call, got %d", calls)
	}
}
