// Copyright (c) 2025 BVK Chaitanya

package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"strconv"
	"time"

	"github.com/bvk/mentionbot/ratelimit"
	"github.com/bvk/mentionbot/social"
	"golang.org/x/time/rate"
)

// Client is a minimal client for the X (twitter) v2 api.
type Client struct {
	opts Options

	creds Credentials

	baseURL *url.URL

	client *http.Client

	limiter *rate.Limiter
}

func New(creds *Credentials, opts *Options) (*Client, error) {
	if err := creds.Check(); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}
	baseURL, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("could not parse base url: %w", err)
	}
	c := &Client{
		opts:    *opts,
		creds:   *creds,
		baseURL: baseURL,
		client: &http.Client{
			Timeout: opts.HttpClientTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
	}
	return c, nil
}

func (c *Client) CanReply() bool {
	return len(c.creds.UserAccessToken) != 0
}

// FetchMentionsSince returns mentions of the user newer than the since id in
// the server's order (newest first). Empty since id fetches the latest page
// only. At most MaxPages pages are fetched and a warning is logged when more
// pages remain.
func (c *Client) FetchMentionsSince(ctx context.Context, userID, sinceID string) ([]*social.Mention, *social.RateLimitInfo, error) {
	var mentions []*social.Mention
	var info *social.RateLimitInfo

	nextToken := ""
	for page := 0; page < c.opts.MaxPages; page++ {
		values := make(url.Values)
		values.Set("max_results", "100")
		values.Set("tweet.fields", "author_id,created_at")
		values.Set("expansions", "author_id")
		values.Set("user.fields", "username")
		if len(sinceID) != 0 {
			values.Set("since_id", sinceID)
		}
		if len(nextToken) != 0 {
			values.Set("pagination_token", nextToken)
		}

		resp := new(mentionsResponse)
		pinfo, err := c.do(ctx, ratelimit.Mentions, http.MethodGet, path.Join("/2/users", userID, "mentions"), values, c.creds.BearerToken, nil, resp)
		if err != nil {
			return nil, pinfo, err
		}
		info = pinfo

		if len(resp.Data) == 0 && len(resp.Errors) != 0 {
			return nil, info, errorsString(resp.Errors)
		}

		usernames := make(map[string]string)
		for _, u := range resp.Includes.Users {
			usernames[u.ID] = u.Username
		}
		for _, t := range resp.Data {
			mentions = append(mentions, &social.Mention{
				ID:             t.ID,
				AuthorID:       t.AuthorID,
				AuthorUsername: usernames[t.AuthorID],
				Text:           t.Text,
				CreatedAt:      t.CreatedAt,
			})
		}

		// Without a since id only the latest page is useful.
		nextToken = resp.Meta.NextToken
		if len(nextToken) == 0 || len(sinceID) == 0 {
			break
		}
	}
	if len(nextToken) != 0 && len(sinceID) != 0 {
		oldest := ""
		if len(mentions) != 0 {
			oldest = mentions[len(mentions)-1].ID
		}
		slog.Warn("mentions exceed the page limit; mentions older than the oldest fetched are skipped", "user", userID, "sinceID", sinceID, "oldestID", oldest, "pages", c.opts.MaxPages)
	}
	return mentions, info, nil
}

func (c *Client) LookupUser(ctx context.Context, username string) (*social.User, error) {
	if t := c.opts.Tracker; t != nil && t.IsLimited(ratelimit.UserLookup) {
		resetAt, _ := t.ResetAt(ratelimit.UserLookup)
		return nil, &social.RateLimitError{Endpoint: ratelimit.UserLookup, ResetAt: resetAt}
	}

	resp := new(userResponse)
	info, err := c.do(ctx, ratelimit.UserLookup, http.MethodGet, path.Join("/2/users/by/username", username), nil, c.creds.BearerToken, nil, resp)
	c.track(ratelimit.UserLookup, info, err)
	if err != nil {
		return nil, err
	}
	if resp.Data == nil {
		if len(resp.Errors) != 0 {
			return nil, fmt.Errorf("could not find user %q: %w", username, errorsString(resp.Errors))
		}
		return nil, fmt.Errorf("user %q not found: %w", username, os.ErrNotExist)
	}
	user := &social.User{
		ID:       resp.Data.ID,
		Username: resp.Data.Username,
		Name:     resp.Data.Name,
	}
	return user, nil
}

// Reply posts a reply to the given tweet.
func (c *Client) Reply(ctx context.Context, inReplyTo, text string) error {
	if !c.CanReply() {
		return fmt.Errorf("user access token is not configured: %w", os.ErrInvalid)
	}
	if t := c.opts.Tracker; t != nil && t.IsLimited(ratelimit.Tweet) {
		resetAt, _ := t.ResetAt(ratelimit.Tweet)
		return &social.RateLimitError{Endpoint: ratelimit.Tweet, ResetAt: resetAt}
	}

	req := &tweetRequest{Text: text}
	if len(inReplyTo) != 0 {
		req.Reply = &struct {
			InReplyToTweetID string `json:"in_reply_to_tweet_id"`
		}{InReplyToTweetID: inReplyTo}
	}
	resp := new(tweetResponse)
	info, err := c.do(ctx, ratelimit.Tweet, http.MethodPost, "/2/tweets", nil, c.creds.UserAccessToken, req, resp)
	c.track(ratelimit.Tweet, info, err)
	if err != nil {
		return err
	}
	if resp.Data == nil {
		return fmt.Errorf("could not post reply: %w", errorsString(resp.Errors))
	}
	slog.Info("posted reply", "in-reply-to", inReplyTo, "tweet", resp.Data.ID)
	return nil
}

func (c *Client) track(endpoint string, info *social.RateLimitInfo, err error) {
	t := c.opts.Tracker
	if t == nil {
		return
	}
	var rerr *social.RateLimitError
	if errors.As(err, &rerr) {
		resetAt := rerr.ResetAt
		if resetAt.IsZero() {
			resetAt = time.Now().Add(15 * time.Minute)
		}
		t.RecordLimit(endpoint, resetAt)
		return
	}
	if info != nil {
		t.RecordSuccess(endpoint, info.Remaining, info.ResetAt)
	}
}

func (c *Client) do(ctx context.Context, endpoint, method, apiPath string, values url.Values, token string, request, response any) (*social.RateLimitInfo, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := *c.baseURL
	u.Path = path.Join(u.Path, apiPath)
	if values != nil {
		u.RawQuery = values.Encode()
	}

	var body io.Reader
	if request != nil {
		data, err := json.Marshal(request)
		if err != nil {
			return nil, fmt.Errorf("could not json-encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("could not create http request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if request != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not perform http request: %w", err)
	}
	defer resp.Body.Close()

	info := parseRateLimitHeaders(resp.Header)
	if resp.StatusCode == http.StatusTooManyRequests {
		return info, &social.RateLimitError{Endpoint: endpoint, ResetAt: info.ResetAt}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return info, fmt.Errorf("http status %d: %s", resp.StatusCode, bytes.TrimSpace(data))
	}
	if err := json.NewDecoder(resp.Body).Decode(response); err != nil {
		return info, fmt.Errorf("could not json-decode response: %w", err)
	}
	return info, nil
}

func parseRateLimitHeaders(h http.Header) *social.RateLimitInfo {
	info := &social.RateLimitInfo{Limit: -1, Remaining: -1}
	if v, err := strconv.Atoi(h.Get("x-rate-limit-limit")); err == nil {
		info.Limit = v
	}
	if v, err := strconv.Atoi(h.Get("x-rate-limit-remaining")); err == nil {
		info.Remaining = v
	}
	if v, err := strconv.ParseInt(h.Get("x-rate-limit-reset"), 10, 64); err == nil {
		info.ResetAt = time.Unix(v, 0)
	}
	return info
}
