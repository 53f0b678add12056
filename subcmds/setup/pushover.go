// Copyright (c) 2023 BVK Chaitanya

package setup

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/bvk/mentionbot/cli"
	"github.com/bvk/mentionbot/pushover"
)

type Pushover struct {
	dataDir     string
	skipTesting bool

	appKey  string
	userKey string
}

func (c *Pushover) Synopsis() string {
	return "Setup configures Pushover notification keys"
}

func (c *Pushover) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("pushover", flag.ContinueOnError)
	fset.StringVar(&c.dataDir, "data-dir", "", "path to the data directory")
	fset.StringVar(&c.appKey, "application-key", "", "Pushover application key")
	fset.StringVar(&c.userKey, "user-key", "", "Pushover user key")
	fset.BoolVar(&c.skipTesting, "skip-testing", false, "don't send a test message")
	return fset, cli.CmdFunc(c.run)
}

func (c *Pushover) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("this command takes no arguments")
	}
	secrets, fpath, err := loadSecrets(c.dataDir)
	if err != nil {
		return err
	}

	secrets.Pushover = &pushover.Keys{
		ApplicationKey: c.appKey,
		UserKey:        c.userKey,
	}
	client, err := pushover.New(secrets.Pushover, nil /* opts */)
	if err != nil {
		return err
	}
	if !c.skipTesting {
		if err := client.SendMessage(ctx, time.Now(), "Test message from Pushover config setup; please ignore."); err != nil {
			return fmt.Errorf("could not send test message: %w", err)
		}
	}

	return saveSecrets(fpath, secrets)
}
