// Copyright (c) 2023 BVK Chaitanya

package pushover

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"
)

var testingKeys *Keys

func checkKeys() bool {
	if testingKeys != nil {
		return true
	}
	data, err := os.ReadFile("pushover-keys.json")
	if err != nil {
		return false
	}
	s := new(Keys)
	if err := json.Unmarshal(data, s); err != nil {
		return false
	}
	if err := s.Check(); err != nil {
		return false
	}
	testingKeys = s
	return true
}

func TestSendMessage(t *testing.T) {
	if !checkKeys() {
		t.Skip("no keys")
		return
	}

	c, err := New(testingKeys, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.SendMessage(context.Background(), time.Now(), t.Name()); err != nil {
		t.Fatal(err)
	}
}

func TestSendMessageLocal(t *testing.T) {
	var got message
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if got.Token != "app" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(&response{Status: 0, Errors: []string{"application token is invalid"}})
			return
		}
		json.NewEncoder(w).Encode(&response{Status: 1, Request: "r1"})
	}))
	defer server.Close()

	at := time.Unix(1700000000, 0)
	c, err := New(&Keys{ApplicationKey: "app", UserKey: "user"}, &Options{Endpoint: server.URL, Title: "mentionbot"})
	if err != nil {
		t.Fatal(err)
	}
	if err := c.SendMessage(context.Background(), at, "hello"); err != nil {
		t.Fatal(err)
	}
	if got.User != "user" || got.Message != "hello" || got.Title != "mentionbot" || got.Timestamp != at.Unix() {
		t.Fatalf("unexpected message %#v", got)
	}

	bad, err := New(&Keys{ApplicationKey: "bad", UserKey: "user"}, &Options{Endpoint: server.URL})
	if err != nil {
		t.Fatal(err)
	}
	if err := bad.SendMessage(context.Background(), at, "hello"); err == nil {
		t.Fatalf("wanted an error for an invalid application key")
	}

	if _, err := New(&Keys{}, nil); err == nil {
		t.Fatalf("wanted an error for empty keys")
	}
}
