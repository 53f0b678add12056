// Copyright (c) 2025 BVK Chaitanya

package telegram

import (
	"fmt"
	"slices"
	"strings"
)

// Secrets configures the operator bot. Owner and admin can run commands.
// Owner and other users receive trade notifications.
type Secrets struct {
	BotToken string `json:"token"`

	OwnerID string `json:"owner"`

	AdminID string `json:"admin"`

	OtherIDs []string `json:"others"`
}

func (v *Secrets) Check() error {
	if len(v.BotToken) == 0 {
		return fmt.Errorf("bot token cannot be empty")
	}
	if len(v.OwnerID) == 0 {
		return fmt.Errorf("owner id cannot be empty")
	}
	for _, id := range append([]string{v.OwnerID, v.AdminID}, v.OtherIDs...) {
		if strings.ContainsAny(id, " \t@") {
			return fmt.Errorf("user id %q must be a plain username", id)
		}
	}
	if slices.Contains(v.OtherIDs, "") {
		return fmt.Errorf("empty string in other ids is not a valid id")
	}
	if len(v.AdminID) != 0 && slices.Contains(v.OtherIDs, v.AdminID) {
		return fmt.Errorf("admin id should not be repeated in other ids")
	}
	if slices.Contains(v.OtherIDs, v.OwnerID) {
		return fmt.Errorf("owner id should not be repeated in other ids")
	}
	return nil
}

// Receivers returns the users that are sent notifications.
func (v *Secrets) Receivers() []string {
	return append([]string{v.OwnerID}, v.OtherIDs...)
}

// IsOperator returns true if user is allowed to run bot commands.
func (v *Secrets) IsOperator(user string) bool {
	if len(user) == 0 {
		return false
	}
	return user == v.OwnerID || user == v.AdminID
}

func (v *Secrets) Clone() *Secrets {
	return &Secrets{
		BotToken: v.BotToken,
		OwnerID:  v.OwnerID,
		AdminID:  v.AdminID,
		OtherIDs: slices.Clone(v.OtherIDs),
	}
}
