// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package osfs provides OS Filesystem access.
package osfs

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/afero"

	"go.chromium.org/infra/build/vscompdb/o11y/clog"
	"go.chromium.org/infra/build/vscompdb/o11y/iometrics"
)

// slowOp is the duration an operation is considered slow.
const slowOp = 1 * time.Minute

// Option is an option of OSFS.
type Option struct {
	// Fs is the file system backend. afero.NewOsFs() if nil.
	Fs afero.Fs

	// Mounts maps upper case drive letters (e.g. "C") to host directories,
	// used to access Windows paths on non Windows hosts.
	Mounts map[string]string
}

// OSFS provides OS Filesystem access.
// It counts metrics by iometrics.
type OSFS struct {
	*iometrics.IOMetrics

	fs     afero.Fs
	mounts map[string]string
}

// New creates new OSFS.
func New(name string, opt Option) *OSFS {
	fsys := opt.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &OSFS{
		IOMetrics: iometrics.New(name),
		fs:        fsys,
		mounts:    opt.Mounts,
	}
}

func logSlow(ctx context.Context, name string, dur time.Duration, err error) {
	buf := make([]byte, 4*1024)
	n := runtime.Stack(buf, false)
	clog.Warningf(ctx, "slow op %s: %s %v\n%s", name, dur, err, buf[:n])
}

func (fsys *OSFS) done(ctx context.Context, name string, started time.Time, err error) {
	fsys.OpsDone(err)
	if dur := time.Since(started); dur > slowOp {
		logSlow(ctx, name, dur, err)
	}
}

// Stat returns a FileInfo describing the named file, following links.
func (fsys *OSFS) Stat(ctx context.Context, name string) (fs.FileInfo, error) {
	started := time.Now()
	fi, err := fsys.fs.Stat(name)
	fsys.done(ctx, name, started, err)
	return fi, err
}

// ReadDir reads the named directory, and returns its entries in the order
// the file system lists them.
func (fsys *OSFS) ReadDir(ctx context.Context, name string) ([]fs.DirEntry, error) {
	started := time.Now()
	f, err := fsys.fs.Open(name)
	if err != nil {
		fsys.DirDone(0, err)
		return nil, err
	}
	fis, err := f.Readdir(-1)
	cerr := f.Close()
	if err == nil {
		err = cerr
	}
	fsys.DirDone(len(fis), err)
	if dur := time.Since(started); dur > slowOp {
		logSlow(ctx, name, dur, err)
	}
	if err != nil {
		return nil, err
	}
	entries := make([]fs.DirEntry, 0, len(fis))
	for _, fi := range fis {
		entries = append(entries, fs.FileInfoToDirEntry(fi))
	}
	return entries, nil
}

// SameFile reports whether fi1 and fi2 describe the same file.
// It is always false for backends without file identity.
func (*OSFS) SameFile(fi1, fi2 fs.FileInfo) bool {
	return os.SameFile(fi1, fi2)
}

// Walk walks the file tree rooted at root, calling fn for each file or
// directory in the tree, including root.
func (fsys *OSFS) Walk(ctx context.Context, root string, fn filepath.WalkFunc) error {
	return afero.Walk(fsys.fs, root, func(path string, info fs.FileInfo, err error) error {
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}
		fsys.OpsDone(err)
		return fn(path, info, err)
	})
}

// WriteFile writes data to the named file, creating it if necessary.
func (fsys *OSFS) WriteFile(ctx context.Context, name string, data []byte, perm fs.FileMode) error {
	started := time.Now()
	err := afero.WriteFile(fsys.fs, name, data, perm)
	fsys.WriteDone(len(data), err)
	if dur := time.Since(started); dur > slowOp {
		logSlow(ctx, name, dur, err)
	}
	return err
}

// Open opens the named file for reading.
func (fsys *OSFS) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	started := time.Now()
	f, err := fsys.fs.Open(name)
	if err != nil {
		fsys.done(ctx, name, started, err)
		return nil, err
	}
	return &file{ctx: ctx, file: f, started: started, fs: fsys}, nil
}

type file struct {
	ctx     context.Context
	file    afero.File
	started time.Time
	fs      *OSFS
	n       int
	err     error
}

func (f *file) Read(buf []byte) (int, error) {
	n, err := f.file.Read(buf)
	f.n += n
	if err != nil && err != io.EOF {
		f.err = err
	}
	return n, err
}

func (f *file) Close() error {
	name := f.file.Name()
	err := f.file.Close()
	rerr := f.err
	if rerr == nil {
		rerr = err
	}
	f.fs.ReadDone(f.n, rerr)
	if dur := time.Since(f.started); dur > slowOp {
		logSlow(f.ctx, name, dur, rerr)
	}
	return err
}

func (f *file) String() string {
	return fmt.Sprintf("file://%s", f.file.Name())
}
