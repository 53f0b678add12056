// Copyright (c) 2023 BVK Chaitanya

package db

import (
	"bytes"
	"context"
	"encoding/gob"
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/bvk/mentionbot/cli"
	"github.com/bvk/mentionbot/gobs"
	"github.com/bvk/mentionbot/subcmds/cmdutil"
	"github.com/bvkgo/kv"
)

type Get struct {
	cmdutil.DBFlags
}

func (c *Get) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("get", flag.ContinueOnError)
	c.DBFlags.SetFlags(fset)
	return fset, cli.CmdFunc(c.run)
}

func (c *Get) Synopsis() string {
	return "Prints the value of a key in the database"
}

func (c *Get) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("needs one (key) argument")
	}
	key := args[0]

	db, closer, err := c.DBFlags.GetDatabase(ctx)
	if err != nil {
		return err
	}
	defer closer()

	var data []byte
	get := func(ctx context.Context, r kv.Reader) error {
		v, err := r.Get(ctx, key)
		if err != nil {
			return err
		}
		data, err = io.ReadAll(v)
		return err
	}
	if err := kv.WithReader(ctx, db, get); err != nil {
		return fmt.Errorf("could not read key %q: %w", key, err)
	}

	js, err := decode(key, data)
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", js)
	return nil
}

// decode returns the json form of a gob value based on the key's keyspace.
// Values in unknown keyspaces are printed in hex.
func decode(key string, data []byte) ([]byte, error) {
	typename, ok := gobs.TypenameForKey(key)
	if !ok {
		return []byte(fmt.Sprintf("%x", data)), nil
	}
	value, err := gobs.NewByTypename(typename)
	if err != nil {
		return nil, err
	}
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(value); err != nil {
		return nil, fmt.Errorf("could not decode %s value at %q: %w", typename, key, err)
	}
	return json.MarshalIndent(value, "", "  ")
}
