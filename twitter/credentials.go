// Copyright (c) 2025 BVK Chaitanya

package twitter

import "fmt"

type Credentials struct {
	// BearerToken is the app-only token used to read mentions and users.
	BearerToken string `json:"bearer_token"`

	// UserAccessToken is an OAuth2 user context token with tweet.write scope,
	// used to post replies. Replies are disabled when it is empty.
	UserAccessToken string `json:"user_access_token"`
}

func (v *Credentials) Check() error {
	if len(v.BearerToken) == 0 {
		return fmt.Errorf("bearer token cannot be empty")
	}
	return nil
}
