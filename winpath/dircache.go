// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package winpath

import (
	"context"
	"io/fs"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

type dirResult struct {
	entries []fs.DirEntry
	err     error
}

// dirCache caches directory listings keyed by path.
// Concurrent listings of the same directory are done once.
type dirCache struct {
	mu sync.RWMutex
	m  map[string]dirResult

	g    singleflight.Group
	hits atomic.Int64
}

func newDirCache() *dirCache {
	return &dirCache{m: make(map[string]dirResult)}
}

func (c *dirCache) get(ctx context.Context, dir string, readDir func(context.Context, string) ([]fs.DirEntry, error)) ([]fs.DirEntry, error) {
	c.mu.RLock()
	r, ok := c.m[dir]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		return r.entries, r.err
	}
	v, _, _ := c.g.Do(dir, func() (any, error) {
		entries, err := readDir(ctx, dir)
		r := dirResult{entries: entries, err: err}
		if ctx.Err() != nil {
			return r, nil
		}
		c.mu.Lock()
		c.m[dir] = r
		c.mu.Unlock()
		return r, nil
	})
	r = v.(dirResult)
	return r.entries, r.err
}
