// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package compdb builds a compilation database (compile_commands.json)
// from MSBuild CL command tracking logs.
package compdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.chromium.org/infra/build/vscompdb/tlog"
	"go.chromium.org/infra/build/vscompdb/toolsupport/cmdutil"
	"go.chromium.org/infra/build/vscompdb/winpath"
)

// DefaultTool is the compiler prepended to commands by default.
const DefaultTool = "clang-cl.exe"

// Entry is an entry of compile_commands.json.
// Fields are ordered by JSON key.
type Entry struct {
	Arguments []string `json:"arguments,omitempty"`
	Command   string   `json:"command,omitempty"`
	Directory string   `json:"directory"`
	File      string   `json:"file"`
}

// Option is an option to build entries.
type Option struct {
	// Tool is the compiler prepended to commands. DefaultTool if empty.
	Tool string

	// Prefix is options inserted between Tool and the logged command.
	Prefix []string

	// Revert uses '/' as separator in file and directory.
	Revert bool

	// Verbose reports malformed records.
	Verbose bool

	// ResolveCommandPaths resolves absolute paths in commands to their
	// names on disk.
	ResolveCommandPaths bool

	// Arguments emits arguments instead of command.
	Arguments bool

	// Jobs is the number of log files parsed concurrently.
	// The number of CPUs if 0.
	Jobs int
}

func (o Option) tool() string {
	if o.Tool == "" {
		return DefaultTool
	}
	return o.Tool
}

// prefix prepends the tool and the prefix options to cmd.
func (o Option) prefix(cmd string) string {
	var sb strings.Builder
	sb.WriteString(o.tool())
	sb.WriteByte(' ')
	for _, p := range o.Prefix {
		sb.WriteString(p)
		sb.WriteByte(' ')
	}
	sb.WriteString(cmd)
	return sb.String()
}

// Convert converts a record to an entry with paths resolved by r.
// The command is not prefixed.
func Convert(ctx context.Context, r *winpath.Resolver, rec tlog.Record, opt Option) Entry {
	file := r.Resolve(ctx, rec.File)
	dir := r.Resolve(ctx, rec.Directory)
	if opt.Revert {
		file = winpath.ToSlash(file)
		dir = winpath.ToSlash(dir)
	}
	cmd := rec.Command
	if opt.ResolveCommandPaths {
		cmd = r.ResolveCommand(ctx, cmd)
	}
	cmd = winpath.NormalizeDriveCasing(cmd, r.DiskUpper())
	return Entry{
		Command:   cmd,
		Directory: dir,
		File:      file,
	}
}

// finish prefixes the command of e, and splits it when opt.Arguments.
func finish(e Entry, opt Option) (Entry, error) {
	cmd := opt.prefix(e.Command)
	if !opt.Arguments {
		e.Command = cmd
		return e, nil
	}
	args, err := cmdutil.Split(cmd)
	if err != nil {
		return e, fmt.Errorf("split command for %s: %w", e.File, err)
	}
	e.Command = ""
	e.Arguments = args
	return e, nil
}

// Write writes entries to w as a JSON array indented by 4 spaces.
func Write(w io.Writer, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	err := enc.Encode(entries)
	if err != nil {
		return err
	}
	_, err = w.Write(buf.Bytes())
	return err
}
