// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package canonpath is canonpath subcommand to print windows paths with
// their casing on disk.
package canonpath

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"

	"go.chromium.org/infra/build/vscompdb/osfs"
	"go.chromium.org/infra/build/vscompdb/winpath"
)

// envMounts is the environment variable for the default of -mounts.
const envMounts = "VSCOMPDB_MOUNTS"

const usage = `print windows paths with their casing on disk

 $ vscompdb canonpath [-disk_upper] [-revert] <path>...
 $ vscompdb canonpath -command <command line>...

Each argument is resolved to the casing of the existing
path on disk. With -command, arguments are command lines
and absolute paths in them are resolved.
`

// Cmd returns the Command for the `canonpath` subcommand provided by this package.
func Cmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "canonpath [-command] <path>...",
		ShortDesc: "print windows paths with their casing on disk",
		LongDesc:  usage,
		Advanced:  true,
		CommandRun: func() subcommands.CommandRun {
			c := &run{}
			c.init()
			return c
		},
	}
}

type run struct {
	subcommands.CommandRunBase

	diskUpper bool
	revert    bool
	command   bool
	verbose   bool
	mounts    string
}

func (c *run) init() {
	c.Flags.BoolVar(&c.diskUpper, "disk_upper", false, "use upper case drive letters")
	c.Flags.BoolVar(&c.revert, "revert", false, "use '/' as path separator")
	c.Flags.BoolVar(&c.command, "command", false, "arguments are command lines")
	c.Flags.BoolVar(&c.verbose, "verbose", false, "report lookup misses")
	c.Flags.StringVar(&c.mounts, "mounts", "", "drive to host directory mapping, e.g. 'C=/mnt/c;D=/mnt/d'. $"+envMounts+" if empty")
}

func (c *run) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, c, env)
	err := c.run(ctx, a.GetOut(), args, env)
	if err != nil {
		switch {
		case errors.Is(err, flag.ErrHelp):
			fmt.Fprintf(os.Stderr, "%v\n%s\n", err, usage)
			return 2
		default:
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func (c *run) run(ctx context.Context, w io.Writer, args []string, env subcommands.Env) error {
	if len(args) == 0 {
		return fmt.Errorf("no paths: %w", flag.ErrHelp)
	}
	s := c.mounts
	if s == "" {
		s = env[envMounts].Value
	}
	mounts, err := osfs.ParseMounts(s)
	if err != nil {
		return fmt.Errorf("bad -mounts: %w", err)
	}
	fsys := osfs.New("fs", osfs.Option{Mounts: mounts})
	r := winpath.New(fsys.Windows(), winpath.Option{
		DiskUpper: c.diskUpper,
		Verbose:   c.verbose,
	})
	for _, arg := range args {
		var out string
		if c.command {
			out = winpath.NormalizeDriveCasing(r.ResolveCommand(ctx, arg), c.diskUpper)
		} else {
			out = r.Resolve(ctx, arg)
			if c.revert {
				out = winpath.ToSlash(out)
			}
		}
		fmt.Fprintln(w, out)
	}
	return nil
}
