// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package compdb is compdb subcommand to generate compile_commands.json
// from MSBuild CL command tracking logs.
package compdb

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	log "github.com/golang/glog"
	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"
	"go.chromium.org/luci/common/flag/stringlistflag"

	"go.chromium.org/infra/build/vscompdb/compdb"
	"go.chromium.org/infra/build/vscompdb/o11y/clog"
	"go.chromium.org/infra/build/vscompdb/osfs"
	"go.chromium.org/infra/build/vscompdb/ui"
	"go.chromium.org/infra/build/vscompdb/winpath"
)

const (
	// EnvMounts is the environment variable for the default of -mounts.
	EnvMounts = "VSCOMPDB_MOUNTS"
	// EnvTool is the environment variable for the default of -tool.
	EnvTool = "VSCOMPDB_TOOL"
)

const usage = `generate compile_commands.json

 $ vscompdb compdb -dir <path-to-win-build-directory> -o <file-to-save-json> [-opt "opts to insert at the beginning"]...

scans CL.command*.tlog under -dir, and writes the compilation
database to -o. Paths in the database have their casing on disk.

On non Windows hosts, -mounts maps drive letters to host
directories, e.g. -mounts 'C=/mnt/c;D=/mnt/d'.
`

// errFailures is returned when some logs failed with -strict.
var errFailures = errors.New("some logs failed")

// Cmd returns the Command for the `compdb` subcommand provided by this package.
func Cmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "compdb -dir <dir> -o <file> [-opt <option>]...",
		ShortDesc: "generate compile_commands.json from tlog files",
		LongDesc:  usage,
		CommandRun: func() subcommands.CommandRun {
			c := &run{}
			c.init()
			return c
		},
	}
}

type run struct {
	subcommands.CommandRunBase

	dir                 string
	out                 string
	opts                stringlistflag.Flag
	tool                string
	diskUpper           bool
	revert              bool
	verbose             bool
	resolveCommandPaths bool
	arguments           bool
	mounts              string
	jobs                int
	dircache            bool
	strict              bool
}

func (c *run) init() {
	c.Flags.StringVar(&c.dir, "dir", "", "windows build directory to scan for CL.command*.tlog")
	c.Flags.StringVar(&c.out, "o", "", "output compile_commands.json")
	c.Flags.StringVar(&c.out, "to", "", "alias of -o")
	c.Flags.Var(&c.opts, "opt", "option to insert at the beginning of commands. can be repeated")
	c.Flags.StringVar(&c.tool, "tool", "", "compiler to prepend to commands. $"+EnvTool+" or "+compdb.DefaultTool+" if empty")
	c.Flags.BoolVar(&c.diskUpper, "disk_upper", false, "use upper case drive letters")
	c.Flags.BoolVar(&c.revert, "revert", false, "use '/' as path separator in file and directory")
	c.Flags.BoolVar(&c.verbose, "verbose", false, "report malformed records and lookup misses")
	c.Flags.BoolVar(&c.resolveCommandPaths, "resolve_command_paths", true, "resolve casing of absolute paths in commands")
	c.Flags.BoolVar(&c.arguments, "arguments", false, "emit arguments instead of command")
	c.Flags.StringVar(&c.mounts, "mounts", "", "drive to host directory mapping, e.g. 'C=/mnt/c;D=/mnt/d'. $"+EnvMounts+" if empty")
	c.Flags.IntVar(&c.jobs, "j", 0, "number of tlog files parsed concurrently. number of CPUs if 0")
	c.Flags.BoolVar(&c.dircache, "dircache", true, "cache directory listings")
	c.Flags.BoolVar(&c.strict, "strict", false, "exit with failure when some tlog files failed")
}

func (c *run) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, c, env)
	err := c.run(ctx, args, env)
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

func (c *run) run(ctx context.Context, args []string, env subcommands.Env) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments %q: %w", args, flag.ErrHelp)
	}
	if c.dir == "" {
		return fmt.Errorf("missing -dir: %w", flag.ErrHelp)
	}
	if c.out == "" {
		return fmt.Errorf("missing -o: %w", flag.ErrHelp)
	}
	mounts, err := parseMounts(c.mounts, env)
	if err != nil {
		return fmt.Errorf("bad -mounts: %w", err)
	}
	tool := c.tool
	if tool == "" {
		tool = env[EnvTool].Value
	}
	fsys := osfs.New("fs", osfs.Option{Mounts: mounts})
	r := winpath.New(fsys.Windows(), winpath.Option{
		DiskUpper: c.diskUpper,
		Verbose:   c.verbose,
		Cache:     c.dircache,
	})

	spin := ui.Default.NewSpinner()
	spin.Start("scanning %s", c.dir)
	files, err := compdb.Discover(ctx, fsys, c.dir)
	if err != nil {
		spin.Stop(err)
		return err
	}
	spin.Done("%d tlog files", len(files))

	spin = ui.Default.NewSpinner()
	spin.Start("converting")
	res, err := compdb.Build(ctx, fsys, r, files, compdb.Option{
		Tool:                tool,
		Prefix:              c.opts,
		Revert:              c.revert,
		Verbose:             c.verbose,
		ResolveCommandPaths: c.resolveCommandPaths,
		Arguments:           c.arguments,
		Jobs:                c.jobs,
	})
	if err != nil {
		spin.Stop(err)
		return err
	}
	spin.Done("%d entries", len(res.Entries))
	for _, f := range res.Failures {
		clog.Warningf(ctx, "failed: %v", f)
		ui.Default.Warningf("failed: %v\n", f)
	}

	var buf bytes.Buffer
	err = compdb.Write(&buf, res.Entries)
	if err != nil {
		return err
	}
	err = fsys.WriteFile(ctx, c.out, buf.Bytes(), 0644)
	if err != nil {
		return fmt.Errorf("failed to create compile commands: %w", err)
	}

	rs := r.Stats()
	clog.Infof(ctx, "resolver: lookups=%d misses=%d fallbacks=%d cache_hits=%d", rs.Lookups, rs.Misses, rs.Fallbacks, rs.CacheHits)
	clog.Infof(ctx, "fs: %s", fsys.Stats())
	clog.Infof(ctx, "semaphore %s: capacity=%d peak=%d requests=%d", res.Semaphore.Name(), res.Semaphore.Capacity(), res.Semaphore.Peak(), res.Semaphore.NumRequests())
	if c.verbose {
		ui.Default.Infof("lookups: %d misses: %d fallbacks: %d\n", rs.Lookups, rs.Misses, rs.Fallbacks)
	}
	ui.Default.Infof("%s %d entries from %d tlog files (failed: %d, malformed: %d) -> %s\n",
		ui.FormatDuration(res.Duration), len(res.Entries), res.Files, len(res.Failures), res.Malformed, c.out)
	if log.V(1) {
		clog.Infof(ctx, "wrote %d bytes to %s", buf.Len(), c.out)
	}
	if c.strict && len(res.Failures) > 0 {
		return fmt.Errorf("%d of %d tlog files: %w", len(res.Failures), res.Files, errFailures)
	}
	return nil
}

// parseMounts parses s, or the environment variable when s is empty.
func parseMounts(s string, env subcommands.Env) (map[string]string, error) {
	if s == "" {
		s = env[EnvMounts].Value
	}
	return osfs.ParseMounts(s)
}
