// Copyright (c) 2025 BVK Chaitanya

package setup

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/bvk/mentionbot/cli"
	"github.com/bvk/mentionbot/twitter"
	"golang.org/x/term"
)

type Twitter struct {
	dataDir string

	bearerToken     string
	userAccessToken string

	testHandle string
}

func (c *Twitter) Synopsis() string {
	return "Setup configures Twitter API credentials"
}

func (c *Twitter) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("twitter", flag.ContinueOnError)
	fset.StringVar(&c.dataDir, "data-dir", "", "path to the data directory")
	fset.StringVar(&c.bearerToken, "bearer-token", "", "app-only bearer token; read from the terminal when empty")
	fset.StringVar(&c.userAccessToken, "user-access-token", "", "optional user context token to post replies")
	fset.StringVar(&c.testHandle, "test-handle", "", "when non-empty, looks up this handle to test the credentials")
	return fset, cli.CmdFunc(c.run)
}

func (c *Twitter) CommandHelp() string {
	return `

Command "twitter" saves the Twitter API credentials into the secrets file.
Bearer token is required to read mentions. Replies are posted only when a
user access token with the tweet.write scope is also configured.

  $ mentionbot setup twitter --test-handle=mybot

`
}

func (c *Twitter) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("this command takes no arguments")
	}

	if len(c.bearerToken) == 0 {
		fmt.Print("Bearer Token: ")
		data, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("could not read bearer token: %w", err)
		}
		c.bearerToken = string(data)
	}

	secrets, fpath, err := loadSecrets(c.dataDir)
	if err != nil {
		return err
	}
	secrets.Twitter = &twitter.Credentials{
		BearerToken:     c.bearerToken,
		UserAccessToken: c.userAccessToken,
	}
	if err := secrets.Twitter.Check(); err != nil {
		return err
	}

	if len(c.testHandle) != 0 {
		client, err := twitter.New(secrets.Twitter, nil /* opts */)
		if err != nil {
			return err
		}
		user, err := client.LookupUser(ctx, c.testHandle)
		if err != nil {
			return fmt.Errorf("could not lookup user %q with the credentials: %w", c.testHandle, err)
		}
		fmt.Printf("@%s has user id %s\n", user.Username, user.ID)
	}

	return saveSecrets(fpath, secrets)
}
