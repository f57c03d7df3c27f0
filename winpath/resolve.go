// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package winpath

import (
	"context"
	"io/fs"
	"strings"
	"sync/atomic"

	log "github.com/golang/glog"

	"go.chromium.org/infra/build/vscompdb/o11y/clog"
)

// FS is a read-only file system addressed by absolute Windows paths.
type FS interface {
	// ReadDir lists the directory name.
	ReadDir(ctx context.Context, name string) ([]fs.DirEntry, error)
	// Stat returns a FileInfo of name, following links.
	Stat(ctx context.Context, name string) (fs.FileInfo, error)
	// SameFile reports whether fi1 and fi2 describe the same file.
	SameFile(fi1, fi2 fs.FileInfo) bool
}

// Option is an option of Resolver.
type Option struct {
	// DiskUpper uses upper case drive letters. Lower case otherwise.
	DiskUpper bool

	// Verbose logs lookup misses and skipped entries.
	Verbose bool

	// Cache caches directory listings for the lifetime of the Resolver.
	Cache bool
}

// Resolver resolves paths to the names stored on disk.
// It is safe for concurrent use.
type Resolver struct {
	fs   FS
	opt  Option
	dirs *dirCache

	lookups   atomic.Int64
	misses    atomic.Int64
	fallbacks atomic.Int64
}

// New creates a new resolver on fsys.
func New(fsys FS, opt Option) *Resolver {
	r := &Resolver{
		fs:  fsys,
		opt: opt,
	}
	if opt.Cache {
		r.dirs = newDirCache()
	}
	return r
}

// DiskUpper reports whether r uses upper case drive letters.
func (r *Resolver) DiskUpper() bool {
	return r.opt.DiskUpper
}

// Stats holds counters of a Resolver.
type Stats struct {
	// Lookups is the number of component lookups.
	Lookups int64
	// Misses is the number of components not found on disk.
	Misses int64
	// Fallbacks is the number of lookups matched by name
	// because identity was not available.
	Fallbacks int64
	// CacheHits is the number of directory listings served from cache.
	CacheHits int64
}

// Stats returns a snapshot of the counters.
func (r *Resolver) Stats() Stats {
	s := Stats{
		Lookups:   r.lookups.Load(),
		Misses:    r.misses.Load(),
		Fallbacks: r.fallbacks.Load(),
	}
	if r.dirs != nil {
		s.CacheHits = r.dirs.hits.Load()
	}
	return s
}

// Resolve returns p with the drive letter cased by the option and every
// other component replaced by its name on disk.
//
// A component is matched by identity (FS.SameFile) with the requested
// path. When the requested path can't be stat'ed, e.g. on case-sensitive
// file systems, the entry whose name is equal under case folding matches.
// Components not found on disk are kept as requested, and the lookup
// continues under them. The result is lexically cleaned.
// Paths that are not absolute are returned as is.
func (r *Resolver) Resolve(ctx context.Context, p string) string {
	drive, elems, trailing := Split(p)
	if drive == "" {
		return p
	}
	drive = string([]byte{caseLetter(drive[0], r.opt.DiskUpper), ':'})

	resolved := make([]string, 0, len(elems))
	// directories on the lexical resolution path, to refuse looping
	// back through links. nil for components without identity.
	root, err := r.fs.Stat(ctx, Join(drive))
	if err != nil {
		root = nil
	}
	stack := []fs.FileInfo{root}
	for _, elem := range elems {
		switch elem {
		case ".":
			resolved = append(resolved, elem)
			continue
		case "..":
			resolved = append(resolved, elem)
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
			continue
		}
		name, fi := r.lookup(ctx, Join(drive, resolved...), elem, stack)
		resolved = append(resolved, name)
		stack = append(stack, fi)
	}
	s := Join(drive, resolved...)
	if trailing && len(elems) > 0 {
		s += string(Separator)
	}
	return Clean(s)
}

func joinName(dir, name string) string {
	if strings.HasSuffix(dir, `\`) {
		return dir + name
	}
	return dir + `\` + name
}

// lookup finds the entry in dir for name.
// It returns the name on disk and its FileInfo, or name and the
// FileInfo of the requested path (may be nil) if not found.
func (r *Resolver) lookup(ctx context.Context, dir, name string, ancestors []fs.FileInfo) (string, fs.FileInfo) {
	r.lookups.Add(1)
	entries, err := r.readDir(ctx, dir)
	if err != nil {
		r.miss(ctx, dir, name, err)
		return name, nil
	}
	want, err := r.fs.Stat(ctx, joinName(dir, name))
	byName := err != nil
	if byName {
		r.fallbacks.Add(1)
		if log.V(1) {
			clog.Infof(ctx, "lookup %q in %q by name: %v", name, dir, err)
		}
	}
	for _, e := range entries {
		ename := e.Name()
		if byName && !strings.EqualFold(ename, name) {
			continue
		}
		fi, err := r.fs.Stat(ctx, joinName(dir, ename))
		if err != nil {
			// permission denied, broken link etc.
			if r.opt.Verbose {
				clog.Infof(ctx, "skip %q in %q: %v", ename, dir, err)
			}
			continue
		}
		// backends without file identity report false for SameFile,
		// but exact name is the requested file for them.
		if !byName && ename != name && !r.fs.SameFile(want, fi) {
			continue
		}
		if fi.IsDir() && !r.acceptDir(ctx, joinName(dir, ename), fi, ancestors) {
			continue
		}
		return ename, fi
	}
	r.miss(ctx, dir, name, nil)
	return name, want
}

// acceptDir checks a directory candidate is neither one of its
// ancestors (a link loop) nor unreadable (e.g. broken reparse point).
func (r *Resolver) acceptDir(ctx context.Context, path string, fi fs.FileInfo, ancestors []fs.FileInfo) bool {
	for _, a := range ancestors {
		if a != nil && r.fs.SameFile(a, fi) {
			if r.opt.Verbose {
				clog.Infof(ctx, "skip %q: loops back to an ancestor", path)
			}
			return false
		}
	}
	if _, err := r.readDir(ctx, path); err != nil {
		if r.opt.Verbose {
			clog.Infof(ctx, "skip %q: %v", path, err)
		}
		return false
	}
	return true
}

func (r *Resolver) miss(ctx context.Context, dir, name string, err error) {
	r.misses.Add(1)
	if !r.opt.Verbose {
		return
	}
	if err != nil {
		clog.Infof(ctx, "lookup %q in %q: %v", name, dir, err)
		return
	}
	clog.Infof(ctx, "lookup %q in %q: not found, keep as is", name, dir)
}

func (r *Resolver) readDir(ctx context.Context, dir string) ([]fs.DirEntry, error) {
	if r.dirs == nil {
		return r.fs.ReadDir(ctx, dir)
	}
	return r.dirs.get(ctx, dir, r.fs.ReadDir)
}
