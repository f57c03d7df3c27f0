// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package compdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	log "github.com/golang/glog"
	"golang.org/x/sync/errgroup"

	"go.chromium.org/infra/build/vscompdb/o11y/clog"
	"go.chromium.org/infra/build/vscompdb/osfs"
	"go.chromium.org/infra/build/vscompdb/runtimex"
	"go.chromium.org/infra/build/vscompdb/sync/semaphore"
	"go.chromium.org/infra/build/vscompdb/tlog"
	"go.chromium.org/infra/build/vscompdb/winpath"
)

const (
	logPrefix = "CL.command"
	logExt    = ".tlog"
)

// IsLog reports whether name is a CL command tracking log file name.
func IsLog(name string) bool {
	return strings.HasPrefix(name, logPrefix) && filepath.Ext(name) == logExt
}

// Discover returns CL command tracking logs under root, in walk order.
// Subtrees that can't be read are logged and skipped.
func Discover(ctx context.Context, fsys *osfs.OSFS, root string) ([]string, error) {
	fi, err := fsys.Stat(ctx, root)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}
	var files []string
	err = fsys.Walk(ctx, root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			clog.Warningf(ctx, "skip %s: %v", path, err)
			return nil
		}
		if !info.Mode().IsRegular() || !IsLog(info.Name()) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// Failure is a log file that couldn't be processed.
type Failure struct {
	Path string
	Err  error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Path, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Result is a result of Build.
type Result struct {
	// Entries are in the order of the files, then of the records
	// in a file.
	Entries []Entry

	// Failures are files that failed, in the order of the files.
	// Entries of records before the failure are kept.
	Failures []Failure

	// Files is the number of files processed.
	Files int

	// Malformed is the number of files with a malformed record.
	Malformed int

	// Semaphore is the semaphore used to limit concurrency.
	Semaphore *semaphore.Semaphore

	// Duration is the time spent in Build.
	Duration time.Duration
}

type fileResult struct {
	entries   []Entry
	err       error
	malformed bool
}

// Build parses the log files concurrently, and converts their records
// to entries.
// Per-file failures are reported in Result.Failures. It returns an error
// only when ctx is canceled.
func Build(ctx context.Context, fsys *osfs.OSFS, r *winpath.Resolver, files []string, opt Option) (*Result, error) {
	started := time.Now()
	jobs := opt.Jobs
	if jobs <= 0 {
		jobs = runtimex.NumCPU()
	}
	sema := semaphore.New("tlog", jobs)
	results := make([]fileResult, len(files))
	eg, gctx := errgroup.WithContext(ctx)
	for i, name := range files {
		eg.Go(func() error {
			return sema.Do(gctx, func(ctx context.Context) error {
				results[i] = buildFile(ctx, fsys, r, name, opt)
				return nil
			})
		})
	}
	err := eg.Wait()
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, context.Cause(ctx)
	}
	res := &Result{
		Files:     len(files),
		Semaphore: sema,
	}
	for i, fr := range results {
		res.Entries = append(res.Entries, fr.entries...)
		if fr.err != nil {
			res.Failures = append(res.Failures, Failure{Path: files[i], Err: fr.err})
		}
		if fr.malformed {
			res.Malformed++
		}
	}
	res.Duration = time.Since(started)
	return res, nil
}

func buildFile(ctx context.Context, fsys *osfs.OSFS, r *winpath.Resolver, name string, opt Option) fileResult {
	ctx = clog.NewSpan(ctx, "", "", map[string]string{
		"tlog": name,
	})
	f, err := fsys.Open(ctx, name)
	if err != nil {
		return fileResult{err: err}
	}
	defer f.Close()

	rd := tlog.NewReader(f, tlog.WithName(name), tlog.WithVerbose(opt.Verbose))
	var fr fileResult
	for {
		rec, err := rd.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			fr.err = err
			break
		}
		e := Convert(ctx, r, rec, opt)
		e, err = finish(e, opt)
		if err != nil {
			fr.err = err
			break
		}
		if log.V(1) {
			clog.Infof(ctx, "entry %s", e.File)
		}
		fr.entries = append(fr.entries, e)
	}
	fr.malformed = rd.Violation() != ""
	return fr
}
