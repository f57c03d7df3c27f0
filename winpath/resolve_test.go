// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package winpath

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// testTree builds
//
//	C:\
//	  Proj\Src\Main.cpp
//	  Proj\Src\Util.h
//	  Proj\inc\X.h
//	  Program Files\SDK\   (short name PROGRA~1)
//	  Loop\Back -> Loop\
//	  Loop\x.txt
//	  Priv\Denied          (access denied)
//	  Priv\Ok.h
//	  Links\Dangling       (dangling link)
//	  Hard\a.h
//	  Hard\A_Link.h        (hard link to a.h)
//	  Junk\                (can't be listed)
func testTree() *fakeFS {
	loop := fakeDir("Loop")
	loop.add(fakeLink("Back", loop), fakeFile("x.txt"))
	a := fakeFile("a.h")
	root := fakeDir("",
		fakeDir("Proj",
			fakeDir("Src", fakeFile("Main.cpp"), fakeFile("Util.h")),
			fakeDir("inc", fakeFile("X.h"))),
		fakeDir("Program Files", fakeDir("SDK")).withAlias("PROGRA~1"),
		loop,
		fakeDir("Priv", &fakeNode{name: "Denied", denied: true}, fakeFile("Ok.h")),
		fakeDir("Links", fakeLink("Dangling", nil)),
		fakeDir("Hard", a, fakeLink("A_Link.h", a)),
		&fakeNode{name: "Junk", dir: true, listErr: errors.New("access is denied")},
	)
	return newFakeFS('C', root)
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	for _, tc := range []struct {
		name string
		in   string
		want string
	}{
		{name: "lower", in: `c:\proj\src\main.cpp`, want: `C:\Proj\Src\Main.cpp`},
		{name: "upper", in: `C:\PROJ\SRC\MAIN.CPP`, want: `C:\Proj\Src\Main.cpp`},
		{name: "slash", in: `c:/proj/src/main.cpp`, want: `C:\Proj\Src\Main.cpp`},
		{name: "trailing", in: `c:\proj\src\`, want: `C:\Proj\Src\`},
		{name: "root", in: `c:\`, want: `C:\`},
		{name: "dot", in: `c:\proj\.\src\main.cpp`, want: `C:\Proj\Src\Main.cpp`},
		{name: "dotdot", in: `c:\proj\src\..\inc\x.h`, want: `C:\Proj\inc\X.h`},
		{name: "miss_continues", in: `c:\proj\nosuch\main.cpp`, want: `C:\Proj\nosuch\main.cpp`},
		{name: "miss_then_found", in: `c:\nosuch\..\proj\src`, want: `C:\Proj\Src`},
		{name: "short_name", in: `c:\progra~1\sdk`, want: `C:\Program Files\SDK`},
		{name: "denied_sibling", in: `c:\priv\ok.h`, want: `C:\Priv\Ok.h`},
		{name: "denied", in: `c:\priv\denied`, want: `C:\Priv\denied`},
		{name: "dangling", in: `c:\links\dangling\x`, want: `C:\Links\dangling\x`},
		{name: "hardlink_first_entry", in: `c:\hard\a_link.h`, want: `C:\Hard\a.h`},
		{name: "loop", in: `c:\loop\back\x.txt`, want: `C:\Loop\back\x.txt`},
		{name: "no_loop", in: `c:\loop\x.txt`, want: `C:\Loop\x.txt`},
		{name: "unreadable_dir", in: `c:\junk\a`, want: `C:\junk\a`},
		{name: "unknown_drive", in: `z:\foo\bar`, want: `Z:\foo\bar`},
		{name: "relative", in: `main.cpp`, want: `main.cpp`},
		{name: "drive_relative", in: `c:main.cpp`, want: `c:main.cpp`},
		{name: "unc", in: `\\server\share\x`, want: `\\server\share\x`},
		{name: "empty", in: ``, want: ``},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r := New(testTree(), Option{DiskUpper: true})
			got := r.Resolve(ctx, tc.in)
			if got != tc.want {
				t.Errorf("Resolve(ctx, %q)=%q; want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestResolve_DiskLower(t *testing.T) {
	ctx := context.Background()
	r := New(testTree(), Option{})
	for in, want := range map[string]string{
		`C:\PROJ\SRC\MAIN.CPP`: `c:\Proj\Src\Main.cpp`,
		`z:\foo`:               `z:\foo`,
		`Z:\foo`:               `z:\foo`,
	} {
		if got := r.Resolve(ctx, in); got != want {
			t.Errorf("Resolve(ctx, %q)=%q; want %q", in, got, want)
		}
	}
	if r.DiskUpper() {
		t.Errorf("DiskUpper()=true; want false")
	}
}

func TestResolve_Idempotent(t *testing.T) {
	ctx := context.Background()
	r := New(testTree(), Option{DiskUpper: true})
	for _, p := range []string{
		`c:\proj\src\main.cpp`,
		`c:\proj\nosuch\main.cpp`,
		`c:\progra~1\sdk\`,
		`c:\loop\back\x.txt`,
		`c:\hard\a_link.h`,
		`z:\foo\..\bar`,
	} {
		once := r.Resolve(ctx, p)
		twice := r.Resolve(ctx, once)
		if once != twice {
			t.Errorf("Resolve(ctx, Resolve(ctx, %q))=%q; want %q", p, twice, once)
		}
	}
}

func TestResolve_CaseEquivalent(t *testing.T) {
	ctx := context.Background()
	r := New(testTree(), Option{DiskUpper: true})
	for _, p := range []string{
		`c:\proj\src\main.cpp`,
		`c:\proj\inc\x.h`,
		`c:\program files\sdk`,
		`c:\priv\ok.h`,
	} {
		lower := r.Resolve(ctx, strings.ToLower(p))
		upper := r.Resolve(ctx, strings.ToUpper(p))
		if lower != upper {
			t.Errorf("Resolve(ctx, %q)=%q != Resolve(ctx, %q)=%q", strings.ToLower(p), lower, strings.ToUpper(p), upper)
		}
	}
}

func TestResolve_CaseSensitiveFS(t *testing.T) {
	ctx := context.Background()
	fsys := testTree()
	fsys.caseSensitive = true
	r := New(fsys, Option{DiskUpper: true})

	got := r.Resolve(ctx, `c:\proj\src\main.cpp`)
	if want := `C:\Proj\Src\Main.cpp`; got != want {
		t.Errorf("Resolve(ctx, %q)=%q; want %q", `c:\proj\src\main.cpp`, got, want)
	}
	want := Stats{Lookups: 3, Fallbacks: 3}
	if diff := cmp.Diff(want, r.Stats()); diff != "" {
		t.Errorf("Stats diff -want +got:\n%s", diff)
	}
}

func TestResolve_Stats(t *testing.T) {
	ctx := context.Background()
	r := New(testTree(), Option{DiskUpper: true})
	r.Resolve(ctx, `c:\proj\src\main.cpp`)
	r.Resolve(ctx, `c:\proj\nosuch\main.cpp`)

	want := Stats{
		Lookups:   6,
		Misses:    2,
		Fallbacks: 1,
	}
	if diff := cmp.Diff(want, r.Stats()); diff != "" {
		t.Errorf("Stats diff -want +got:\n%s", diff)
	}
}

func TestResolve_Cache(t *testing.T) {
	ctx := context.Background()
	paths := []string{
		`c:\proj\src\main.cpp`,
		`c:\proj\src\util.h`,
		`c:\proj\inc\x.h`,
		`c:\progra~1\sdk`,
		`c:\loop\back\x.txt`,
	}

	uncached := New(testTree(), Option{DiskUpper: true})
	fsys := testTree()
	cached := New(fsys, Option{DiskUpper: true, Cache: true})
	for _, p := range paths {
		want := uncached.Resolve(ctx, p)
		if got := cached.Resolve(ctx, p); got != want {
			t.Errorf("cached Resolve(ctx, %q)=%q; want %q", p, got, want)
		}
	}
	n := fsys.readDirs.Load()
	for _, p := range paths {
		cached.Resolve(ctx, p)
	}
	if got := fsys.readDirs.Load(); got != n {
		t.Errorf("ReadDir calls=%d after second pass; want %d", got, n)
	}
	if cached.Stats().CacheHits == 0 {
		t.Errorf("CacheHits=0; want >0")
	}
	if uncached.Stats().CacheHits != 0 {
		t.Errorf("uncached CacheHits=%d; want 0", uncached.Stats().CacheHits)
	}
}

func TestResolve_Concurrent(t *testing.T) {
	ctx := context.Background()
	r := New(testTree(), Option{DiskUpper: true, Cache: true})
	const want = `C:\Proj\Src\Main.cpp`
	var wg sync.WaitGroup
	got := make([]string, 16)
	for i := range got {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got[i] = r.Resolve(ctx, `c:\PROJ\src\MAIN.cpp`)
		}()
	}
	wg.Wait()
	for i, g := range got {
		if g != want {
			t.Errorf("got[%d]=%q; want %q", i, g, want)
		}
	}
}
