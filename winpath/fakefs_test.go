// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package winpath

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync/atomic"
	"time"
)

// fakeNode is a file or a directory in fakeFS.
type fakeNode struct {
	name     string
	aliases  []string // short names, e.g. "PROGRA~1"
	dir      bool
	children []*fakeNode

	isLink bool
	target *fakeNode // nil for a dangling link

	denied  bool
	listErr error
}

func fakeDir(name string, children ...*fakeNode) *fakeNode {
	return &fakeNode{name: name, dir: true, children: children}
}

func fakeFile(name string) *fakeNode {
	return &fakeNode{name: name}
}

func fakeLink(name string, target *fakeNode) *fakeNode {
	return &fakeNode{name: name, isLink: true, target: target}
}

func (n *fakeNode) withAlias(alias string) *fakeNode {
	n.aliases = append(n.aliases, alias)
	return n
}

func (n *fakeNode) add(children ...*fakeNode) *fakeNode {
	n.children = append(n.children, children...)
	return n
}

// fakeFS is a Windows like file system on memory.
// It is case insensitive unless caseSensitive is set.
type fakeFS struct {
	drives        map[byte]*fakeNode
	caseSensitive bool

	readDirs atomic.Int64
}

func newFakeFS(drive byte, root *fakeNode) *fakeFS {
	return &fakeFS{
		drives: map[byte]*fakeNode{upper(drive): root},
	}
}

func (f *fakeFS) match(n *fakeNode, name string) bool {
	eq := strings.EqualFold
	if f.caseSensitive {
		eq = func(a, b string) bool { return a == b }
	}
	if eq(n.name, name) {
		return true
	}
	for _, a := range n.aliases {
		if eq(a, name) {
			return true
		}
	}
	return false
}

func (f *fakeFS) walk(name string) (*fakeNode, error) {
	drive, elems, _ := Split(Clean(name))
	if drive == "" {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrInvalid}
	}
	n := f.drives[upper(drive[0])]
	if n == nil {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
	}
	for _, e := range elems {
		if !n.dir {
			return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
		}
		var next *fakeNode
		for _, c := range n.children {
			if f.match(c, e) {
				next = c
				break
			}
		}
		if next == nil {
			return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
		}
		if next.denied {
			return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrPermission}
		}
		if next.isLink {
			if next.target == nil {
				return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
			}
			next = next.target
		}
		n = next
	}
	return n, nil
}

func (f *fakeFS) Stat(ctx context.Context, name string) (fs.FileInfo, error) {
	n, err := f.walk(name)
	if err != nil {
		return nil, err
	}
	base := name[strings.LastIndexAny(name, `\/`)+1:]
	return fakeInfo{name: base, n: n}, nil
}

func (f *fakeFS) ReadDir(ctx context.Context, name string) ([]fs.DirEntry, error) {
	f.readDirs.Add(1)
	n, err := f.walk(name)
	if err != nil {
		return nil, err
	}
	if !n.dir {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: errors.New("not a directory")}
	}
	if n.listErr != nil {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: n.listErr}
	}
	var entries []fs.DirEntry
	for _, c := range n.children {
		entries = append(entries, fakeInfo{name: c.name, n: c})
	}
	return entries, nil
}

func (f *fakeFS) SameFile(fi1, fi2 fs.FileInfo) bool {
	a, ok := fi1.(fakeInfo)
	if !ok {
		return false
	}
	b, ok := fi2.(fakeInfo)
	if !ok {
		return false
	}
	return a.n == b.n
}

// fakeInfo is both fs.FileInfo and fs.DirEntry.
type fakeInfo struct {
	name string
	n    *fakeNode
}

func (fi fakeInfo) Name() string { return fi.name }
func (fi fakeInfo) Size() int64  { return 0 }
func (fi fakeInfo) Mode() fs.FileMode {
	if fi.n.dir {
		return fs.ModeDir | 0755
	}
	return 0644
}
func (fi fakeInfo) ModTime() time.Time         { return time.Time{} }
func (fi fakeInfo) IsDir() bool                { return fi.n.dir }
func (fi fakeInfo) Sys() any                   { return nil }
func (fi fakeInfo) Type() fs.FileMode          { return fi.Mode().Type() }
func (fi fakeInfo) Info() (fs.FileInfo, error) { return fi, nil }
func (fi fakeInfo) String() string             { return fmt.Sprintf("fakeInfo(%s)", fi.name) }
