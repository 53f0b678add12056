// Copyright (c) 2023 BVK Chaitanya

package cli

import (
	"cmp"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"
)

var specialCmds = []entry{
	{"help", "describe subcommands and flags"},
	{"flags", "describe all known flags"},
	{"commands", "list all command names"},
}

func isSpecial(name string) bool {
	return slices.ContainsFunc(specialCmds, func(e entry) bool { return e.name == name })
}

// entry is a command name with its one-line synopsis.
type entry struct {
	name     string
	synopsis string
}

func countFlags(fs *flag.FlagSet) (n int) {
	fs.VisitAll(func(*flag.Flag) { n++ })
	return n
}

func commandName(c Command) string {
	fs, _ := c.Command()
	return filepath.Base(fs.Name())
}

func synopsis(c Command) string {
	switch v := c.(type) {
	case interface{ Synopsis() string }:
		return v.Synopsis()
	case *cmdGroup:
		return v.synopsis
	}
	return ""
}

func helpDoc(c Command) string {
	if v, ok := c.(interface{ CommandHelp() string }); ok {
		return strings.TrimSpace(v.CommandHelp())
	}
	return synopsis(c)
}

func usage(cmdpath []Command) string {
	words := make([]string, 0, len(cmdpath)+3)
	hasFlags := false
	for _, c := range cmdpath {
		fs, _ := c.Command()
		words = append(words, filepath.Base(fs.Name()))
		hasFlags = hasFlags || countFlags(fs) > 0
	}
	if hasFlags {
		words = append(words, "<flags>")
	}
	if _, ok := cmdpath[len(cmdpath)-1].(*cmdGroup); ok {
		words = append(words, "<subcommand>")
	}
	return strings.Join(append(words, "<args>"), " ")
}

// inheritedFlags collects flags defined by the ancestors of the last command.
// When a flag name is repeated, the definition closest to the last command
// wins.
func inheritedFlags(cmdpath []Command) *flag.FlagSet {
	flagMap := make(map[string]*flag.Flag)
	for _, c := range cmdpath[:len(cmdpath)-1] {
		fs, _ := c.Command()
		fs.VisitAll(func(f *flag.Flag) { flagMap[f.Name] = f })
	}
	fset := flag.NewFlagSet("inherited", flag.ContinueOnError)
	for _, f := range flagMap {
		fset.Var(f.Value, f.Name, f.Usage)
	}
	return fset
}

// subcommands returns the entries of the last command when it is a group.
// Entries without a synopsis are listed first and each part is sorted by the
// name.
func subcommands(cmdpath []Command) []entry {
	cg, ok := cmdpath[len(cmdpath)-1].(*cmdGroup)
	if !ok {
		return nil
	}
	var entries []entry
	for _, c := range cg.subcmds {
		entries = append(entries, entry{commandName(c), synopsis(c)})
	}
	slices.SortFunc(entries, func(a, b entry) int {
		if ae, be := a.synopsis == "", b.synopsis == ""; ae != be {
			if ae {
				return -1
			}
			return 1
		}
		return cmp.Compare(a.name, b.name)
	})
	return entries
}

func writeEntries(w io.Writer, entries []entry) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, e := range entries {
		fmt.Fprintf(tw, "\t%s\t%s\n", e.name, e.synopsis)
	}
	tw.Flush()
}

func printSubcommands(w io.Writer, cmdpath []Command) error {
	if len(cmdpath) == 1 {
		writeEntries(w, specialCmds)
		fmt.Fprintln(w)
	}
	writeEntries(w, subcommands(cmdpath))
	return nil
}

func printHelp(w io.Writer, cmdpath []Command) error {
	cmd := cmdpath[len(cmdpath)-1]

	fmt.Fprintf(w, "Usage: %s\n", usage(cmdpath))
	if doc := helpDoc(cmd); len(doc) > 0 {
		fmt.Fprintf(w, "\n%s\n", doc)
	}

	if _, ok := cmd.(*cmdGroup); ok {
		fmt.Fprintf(w, "\nSubcommands:\n")
		printSubcommands(w, cmdpath)
	}

	if fs, _ := cmd.Command(); countFlags(fs) > 0 {
		fmt.Fprintf(w, "\nFlags:\n")
		fs.SetOutput(w)
		fs.PrintDefaults()
	}
	if fs := inheritedFlags(cmdpath); countFlags(fs) > 0 {
		fmt.Fprintf(w, "\nInherited Flags:\n")
		fs.SetOutput(w)
		fs.PrintDefaults()
	}
	return nil
}
