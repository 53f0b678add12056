// Copyright (c) 2025 BVK Chaitanya

package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/bvkgo/kv/kvmemdb"
	"github.com/go-telegram/bot/models"
	"github.com/visvasity/cli"
)

var testingSecrets *Secrets

func checkSecrets() bool {
	if testingSecrets != nil {
		return true
	}
	data, err := os.ReadFile("telegram-creds.json")
	if err != nil {
		return false
	}
	s := new(Secrets)
	if err := json.Unmarshal(data, s); err != nil {
		return false
	}
	if err := s.Check(); err != nil {
		return false
	}
	testingSecrets = s
	return true
}

func TestClient(t *testing.T) {
	ctx := context.Background()

	if !checkSecrets() {
		t.Skip("no credentials")
		return
	}

	db := kvmemdb.New()
	c, err := New(ctx, db, testingSecrets)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			t.Fatal(err)
		}
	}()

	t.Logf("Authorized on account %s with owner %s", c.BotUserName(), c.OwnerUserName())

	c.SendMessage(ctx, time.Now(), "hello")
}

func commandUpdate(text string, length int) *models.Update {
	return &models.Update{
		Message: &models.Message{
			Text: text,
			Entities: []models.MessageEntity{
				{Type: models.MessageEntityTypeBotCommand, Offset: 0, Length: length},
			},
		},
	}
}

func TestGetCommand(t *testing.T) {
	c := new(Client)
	c.addBuiltinCommands()

	name, args, handler, err := c.getCommand(commandUpdate("/uptime@mentionbot_bot extra args", 22))
	if err != nil {
		t.Fatal(err)
	}
	if name != "uptime" || strings.Join(args, ",") != "extra,args" {
		t.Fatalf("wanted uptime with two args, got %q %v", name, args)
	}

	var sb strings.Builder
	if err := handler(cli.WithStdout(context.Background(), &sb), args); err != nil {
		t.Fatal(err)
	}
	if sb.Len() == 0 {
		t.Fatalf("wanted uptime output")
	}

	if _, _, _, err := c.getCommand(commandUpdate("/trades", 7)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("wanted os.ErrNotExist for an unknown command, got %v", err)
	}
	if _, _, _, err := c.getCommand(&models.Update{Message: &models.Message{Text: "hello"}}); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("wanted os.ErrInvalid for plain text, got %v", err)
	}
}
