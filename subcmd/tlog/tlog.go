// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package tlog is tlog subcommand to dump records of tlog files.
package tlog

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"

	"go.chromium.org/infra/build/vscompdb/osfs"
	"go.chromium.org/infra/build/vscompdb/tlog"
)

const usage = `dump records of tlog files

 $ vscompdb tlog [-json] [-verbose] <file>...

prints the encoding of each file, and its records
(file, directory and command) as read by compdb.
`

// Cmd returns the Command for the `tlog` subcommand provided by this package.
func Cmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "tlog [-json] <file>...",
		ShortDesc: "dump records of tlog files",
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

	json    bool
	verbose bool
}

func (c *run) init() {
	c.Flags.BoolVar(&c.json, "json", false, "print records as json lines")
	c.Flags.BoolVar(&c.verbose, "verbose", false, "report malformed records")
}

func (c *run) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, c, env)
	err := c.run(ctx, a.GetOut(), args)
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

func (c *run) run(ctx context.Context, w io.Writer, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no tlog files: %w", flag.ErrHelp)
	}
	fsys := osfs.New("fs", osfs.Option{})
	var errs []error
	for _, fname := range args {
		err := c.dump(ctx, w, fsys, fname)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", fname, err))
		}
	}
	return errors.Join(errs...)
}

type record struct {
	Tlog      string `json:"tlog"`
	Encoding  string `json:"encoding"`
	File      string `json:"file"`
	Directory string `json:"directory"`
	Command   string `json:"command"`
}

func (c *run) dump(ctx context.Context, w io.Writer, fsys *osfs.OSFS, fname string) error {
	f, err := fsys.Open(ctx, fname)
	if err != nil {
		return err
	}
	defer f.Close()
	br := bufio.NewReader(f)
	// Peek returns fewer bytes with io.EOF for short files.
	head, _ := br.Peek(3)
	enc, _ := tlog.DetectEncoding(head)
	if !c.json {
		fmt.Fprintf(w, "# %s: %s\n", fname, enc)
	}
	rd := tlog.NewReader(br, tlog.WithName(fname), tlog.WithVerbose(c.verbose))
	je := json.NewEncoder(w)
	je.SetEscapeHTML(false)
	n := 0
	for {
		rec, err := rd.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		n++
		if c.json {
			err = je.Encode(record{
				Tlog:      fname,
				Encoding:  enc.String(),
				File:      rec.File,
				Directory: rec.Directory,
				Command:   rec.Command,
			})
			if err != nil {
				return err
			}
			continue
		}
		fmt.Fprintf(w, "file: %s\ndirectory: %s\ncommand: %s\n\n", rec.File, rec.Directory, rec.Command)
	}
	if c.json {
		return nil
	}
	if v := rd.Violation(); v != "" {
		fmt.Fprintf(w, "# %d records, stopped: %s\n", n, v)
		return nil
	}
	fmt.Fprintf(w, "# %d records\n", n)
	return nil
}
