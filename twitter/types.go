// Copyright (c) 2025 BVK Chaitanya

package twitter

import (
	"fmt"
	"strings"
	"time"
)

type apiTweet struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

type apiUser struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

type apiError struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Type   string `json:"type"`
	Status int    `json:"status"`
}

type mentionsResponse struct {
	Data []*apiTweet `json:"data"`

	Includes struct {
		Users []*apiUser `json:"users"`
	} `json:"includes"`

	Meta struct {
		ResultCount int    `json:"result_count"`
		NewestID    string `json:"newest_id"`
		OldestID    string `json:"oldest_id"`
		NextToken   string `json:"next_token"`
	} `json:"meta"`

	Errors []*apiError `json:"errors"`
}

type userResponse struct {
	Data   *apiUser    `json:"data"`
	Errors []*apiError `json:"errors"`
}

type tweetRequest struct {
	Text  string `json:"text"`
	Reply *struct {
		InReplyToTweetID string `json:"in_reply_to_tweet_id"`
	} `json:"reply,omitempty"`
}

type tweetResponse struct {
	Data *struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
	Errors []*apiError `json:"errors"`
}

func errorsString(errs []*apiError) error {
	var msgs []string
	for _, e := range errs {
		if len(e.Detail) > 0 {
			msgs = append(msgs, e.Detail)
		} else {
			msgs = append(msgs, e.Title)
		}
	}
	return fmt.Errorf("api error: %s", strings.Join(msgs, "; "))
}
