// Copyright (c) 2023 BVK Chaitanya

package db

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/bvk/mentionbot/cli"
	"github.com/bvk/mentionbot/subcmds/cmdutil"
	"github.com/bvkgo/kv"
)

type List struct {
	cmdutil.DBFlags
}

func (c *List) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("list", flag.ContinueOnError)
	c.DBFlags.SetFlags(fset)
	return fset, cli.CmdFunc(c.run)
}

func (c *List) Synopsis() string {
	return "Lists all keys or keys with a prefix"
}

func (c *List) run(ctx context.Context, args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("takes at most one (key prefix) argument")
	}
	prefix := ""
	if len(args) != 0 {
		prefix = args[0]
	}

	db, closer, err := c.DBFlags.GetDatabase(ctx)
	if err != nil {
		return err
	}
	defer closer()

	list := func(ctx context.Context, r kv.Reader) error {
		it, err := r.Ascend(ctx, prefix, "")
		if err != nil {
			return err
		}
		defer kv.Close(it)

		for k, _, err := it.Fetch(ctx, false); err == nil; k, _, err = it.Fetch(ctx, true) {
			if !strings.HasPrefix(k, prefix) {
				break
			}
			if cmdutil.IsGoodKey(k) {
				fmt.Println(k)
			}
		}
		if _, _, err := it.Fetch(ctx, false); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	}
	return kv.WithReader(ctx, db, list)
}
