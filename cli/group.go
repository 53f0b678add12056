// Copyright (c) 2023 BVK Chaitanya

package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

type cmdGroup struct {
	flags    *flag.FlagSet
	synopsis string
	subcmds  []Command
}

// Command implements Command interface.
func (cg *cmdGroup) Command() (*flag.FlagSet, CmdFunc) {
	return cg.flags, nil
}

func (cg *cmdGroup) lookup(name string) (Command, bool) {
	for _, c := range cg.subcmds {
		if fs, _ := c.Command(); fs.Name() == name {
			return c, true
		}
	}
	return nil, false
}

type boolFlag interface {
	flag.Value
	IsBoolFlag() bool
}

// resolution is the outcome of walking the command-line arguments through
// the command tree.
type resolution struct {
	// cmdpath holds the commands from the root group to the selected command.
	cmdpath []Command

	// flagsets holds the flag sets visible to the selected command with the
	// deepest one at the end.
	flagsets []*flag.FlagSet

	// special is one of the builtin top-level commands when non-empty.
	special string

	args []string
}

func (r *resolution) last() Command {
	return r.cmdpath[len(r.cmdpath)-1]
}

func (r *resolution) findFlag(name string) *flag.Flag {
	for i := len(r.flagsets) - 1; i >= 0; i-- {
		if f := r.flagsets[i].Lookup(name); f != nil {
			return f
		}
	}
	return nil
}

// setFlag processes the flag at args[i] and returns the number of extra
// arguments consumed as the flag value.
func (r *resolution) setFlag(args []string, i int) (int, error) {
	s := args[i]
	name := strings.TrimPrefix(s[1:], "-")
	if len(name) == 0 || name[0] == '-' || name[0] == '=' {
		return 0, fmt.Errorf("bad flag syntax: %s", s)
	}
	name, value, hasValue := strings.Cut(name, "=")

	f := r.findFlag(name)
	if f == nil {
		return 0, fmt.Errorf("flag provided but not defined: -%s", name)
	}

	if bf, ok := f.Value.(boolFlag); ok && bf.IsBoolFlag() {
		if !hasValue {
			value = "true"
		}
		if err := bf.Set(value); err != nil {
			return 0, fmt.Errorf("invalid boolean value %q for -%s: %w", value, name, err)
		}
		return 0, nil
	}

	consumed := 0
	if !hasValue {
		if i+1 >= len(args) {
			return 0, fmt.Errorf("flag needs an argument: -%s", name)
		}
		value, consumed = args[i+1], 1
	}
	if err := f.Value.Set(value); err != nil {
		return 0, fmt.Errorf("invalid value %q for flag -%s: %w", value, name, err)
	}
	return consumed, nil
}

// resolve picks the subcommand named by the leading non-flag arguments and
// applies the flags found on the way. Flags of a command are also accepted
// after its subcommands.
func (cg *cmdGroup) resolve(args []string) (*resolution, error) {
	r := &resolution{
		cmdpath:  []Command{cg},
		flagsets: []*flag.FlagSet{flag.CommandLine},
	}

	group := cg
	i := 0
	for ; i < len(args); i++ {
		s := args[i]
		if s == "--" {
			i++
			break
		}

		if len(s) >= 2 && s[0] == '-' {
			n, err := r.setFlag(args, i)
			if err != nil {
				return nil, err
			}
			i += n
			continue
		}

		// Remaining arguments belong to the selected command.
		if group == nil {
			break
		}

		sub, ok := group.lookup(s)
		if !ok {
			if len(r.cmdpath) == 1 && isSpecial(s) {
				r.special = s
				continue
			}
			return nil, fmt.Errorf("command not defined: %s", s)
		}
		r.cmdpath = append(r.cmdpath, sub)

		if sg, ok := sub.(*cmdGroup); ok {
			group = sg
			continue
		}
		group = nil
		fs, _ := sub.Command()
		r.flagsets = append(r.flagsets, fs)
	}

	r.args = args[i:]
	return r, nil
}

func (cg *cmdGroup) run(ctx context.Context, args []string) error {
	r, err := cg.resolve(args)
	if err != nil {
		return err
	}

	w := io.Writer(os.Stderr)
	switch r.special {
	case "help":
		return printHelp(w, r.cmdpath)
	case "flags":
		fs, _ := r.last().Command()
		fs.SetOutput(w)
		fs.PrintDefaults()
		return nil
	case "commands":
		return printSubcommands(w, r.cmdpath)
	}

	_, fun := r.last().Command()
	if fun == nil {
		return printHelp(w, r.cmdpath)
	}
	return fun(ctx, r.args)
}
