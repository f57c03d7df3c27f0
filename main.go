// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	log "github.com/golang/glog"
	"github.com/maruel/subcommands"
	"go.chromium.org/luci/common/cli"
	"go.chromium.org/luci/common/system/signals"

	"go.chromium.org/infra/build/vscompdb/o11y/clog"
	"go.chromium.org/infra/build/vscompdb/subcmd/canonpath"
	"go.chromium.org/infra/build/vscompdb/subcmd/compdb"
	"go.chromium.org/infra/build/vscompdb/subcmd/help"
	"go.chromium.org/infra/build/vscompdb/subcmd/tlog"
	"go.chromium.org/infra/build/vscompdb/subcmd/version"
	"go.chromium.org/infra/build/vscompdb/ui"
)

const vscompdbVersion = "vscompdb v1.0.0"

// vscompdb generates compile_commands.json from MSBuild tracking logs.

func getApplication(ctx context.Context) *cli.Application {
	return &cli.Application{
		Name:  "vscompdb",
		Title: "Compilation database generator for MSBuild projects",
		// subcommands run with ctx, canceled on interrupt.
		Context: func(context.Context) context.Context {
			return clog.NewContext(ctx, clog.New(ctx))
		},
		Commands: []*subcommands.Command{
			compdb.Cmd(),
			tlog.Cmd(),
			canonpath.Cmd(),
			version.Cmd(vscompdbVersion),
			help.Cmd(),
		},
		EnvVars: map[string]subcommands.EnvVarDefinition{
			compdb.EnvMounts: {
				ShortDesc: "default of -mounts: drive to host directory mapping, e.g. 'C=/mnt/c;D=/mnt/d'",
			},
			compdb.EnvTool: {
				ShortDesc: "default of -tool: compiler to prepend to commands",
			},
		},
	}
}

func main() {
	flag.Usage = func() {
		out := flag.CommandLine.Output()
		fmt.Fprintf(out, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(out, "global flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	os.Exit(vscompdbMain(context.Background(), flag.Args()))
}

func vscompdbMain(ctx context.Context, args []string) int {
	ctx, cancel := context.WithCancel(ctx)
	defer signals.HandleInterrupt(cancel)()

	// Flush the log on exit to not lose any messages.
	defer log.Flush()

	// Print a stack trace when a panic occurs.
	defer func() {
		if r := recover(); r != nil {
			const size = 64 << 10
			buf := make([]byte, size)
			buf = buf[:runtime.Stack(buf, false)]
			log.Fatalf("panic: %v\n%s", r, buf)
		}
	}()

	ui.Init()
	defer ui.Restore()

	// Print build information to the log.
	buildinfo, ok := debug.ReadBuildInfo()
	if ok {
		log.Infof("main module: %s %s", moduleInfo(&buildinfo.Main), vcsInfo(buildinfo))
		if log.V(1) {
			for _, m := range buildinfo.Deps {
				log.Infof("deps module: %s", moduleInfo(m))
			}
			for _, bs := range buildinfo.Settings {
				log.Infof("build %s=%s", bs.Key, bs.Value)
			}
		}
	}

	return subcommands.Run(getApplication(ctx), args)
}

func moduleInfo(m *debug.Module) string {
	if m == nil {
		return "<nil>"
	}
	return fmt.Sprintf("path:%s version:%s sum:%s replace:%s", m.Path, m.Version, m.Sum, moduleInfo(m.Replace))
}

func vcsInfo(buildinfo *debug.BuildInfo) string {
	m := make(map[string]string)
	for _, bs := range buildinfo.Settings {
		if strings.HasPrefix(bs.Key, "vcs.") {
			m[bs.Key] = bs.Value
		}
	}
	return fmt.Sprintf("vcs[revision=%s time=%s modified=%s]", m["vcs.revision"], m["vcs.time"], m["vcs.modified"])
}
