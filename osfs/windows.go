// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package osfs

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"strings"

	"go.chromium.org/infra/build/vscompdb/winpath"
)

// ParseMounts parses drive mounts in the form of "C=/mnt/c;D=/mnt/d".
// Drive letters are returned in upper case. Empty items are ignored.
func ParseMounts(s string) (map[string]string, error) {
	mounts := make(map[string]string)
	for _, item := range strings.Split(s, ";") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		drive, dir, ok := strings.Cut(item, "=")
		if !ok {
			return nil, fmt.Errorf("bad mount %q: want <drive>=<dir>", item)
		}
		drive = strings.TrimSuffix(strings.TrimSpace(drive), ":")
		dir = strings.TrimSpace(dir)
		if len(drive) != 1 || !winpath.IsAbs(drive+`:\`) {
			return nil, fmt.Errorf("bad mount %q: bad drive letter %q", item, drive)
		}
		if dir == "" {
			return nil, fmt.Errorf("bad mount %q: empty dir", item)
		}
		mounts[strings.ToUpper(drive)] = dir
	}
	return mounts, nil
}

// HostPath returns the host path of the absolute Windows path p.
// A drive in the mounts is mapped to its host directory. Other drives are
// accessed as is on Windows hosts, and don't exist elsewhere.
func (fsys *OSFS) HostPath(p string) (string, error) {
	drive, elems, _ := winpath.Split(winpath.Clean(p))
	if drive == "" {
		return "", &fs.PathError{Op: "hostpath", Path: p, Err: fs.ErrInvalid}
	}
	if dir, ok := fsys.mounts[strings.ToUpper(drive[:1])]; ok {
		return filepath.Join(append([]string{dir}, elems...)...), nil
	}
	if runtime.GOOS == "windows" {
		return winpath.Join(drive, elems...), nil
	}
	return "", &fs.PathError{Op: "hostpath", Path: p, Err: fs.ErrNotExist}
}

// Windows returns a view of fsys addressed by Windows paths.
func (fsys *OSFS) Windows() winpath.FS {
	return windowsFS{fsys: fsys}
}

type windowsFS struct {
	fsys *OSFS
}

func (w windowsFS) ReadDir(ctx context.Context, name string) ([]fs.DirEntry, error) {
	p, err := w.fsys.HostPath(name)
	if err != nil {
		return nil, err
	}
	return w.fsys.ReadDir(ctx, p)
}

func (w windowsFS) Stat(ctx context.Context, name string) (fs.FileInfo, error) {
	p, err := w.fsys.HostPath(name)
	if err != nil {
		return nil, err
	}
	return w.fsys.Stat(ctx, p)
}

func (w windowsFS) SameFile(fi1, fi2 fs.FileInfo) bool {
	return w.fsys.SameFile(fi1, fi2)
}
