// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

//go:build windows

package cmdutil

import (
	"runtime"
	"testing"
	"unsafe"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sys/windows"
)

// splitNative splits cmdline by CommandLineToArgvW.
func splitNative(cmdline string) ([]string, error) {
	var argc int32
	argsPtr, err := windows.UTF16PtrFromString(cmdline)
	if err != nil {
		return nil, err
	}
	sysArgv, err := windows.CommandLineToArgv(argsPtr, &argc)
	if err != nil {
		return nil, err
	}
	defer windows.LocalFree(windows.Handle(unsafe.Pointer(sysArgv)))
	args := make([]string, argc)
	for i, v := range (*sysArgv)[:argc] {
		// (*v) is [8192]uint16, but may be longer?
		s := unsafe.Slice(&v[0], len(cmdline))
		args[i] = windows.UTF16ToString(s)
	}
	runtime.KeepAlive(argsPtr)
	return args, nil
}

func TestSplit_Native(t *testing.T) {
	for _, tc := range splitTests {
		switch tc.name {
		case "double_quote_in_quotes":
			// quotes after a closing quote differ between Windows versions.
			continue
		}
		t.Run(tc.name, func(t *testing.T) {
			want, err := splitNative(tc.cmdline)
			if err != nil {
				t.Fatalf("splitNative(%q)=%q, %v; want nil err", tc.cmdline, want, err)
			}
			got, err := Split(tc.cmdline)
			if err != nil {
				t.Fatalf("Split(%q)=%q, %v; want nil err", tc.cmdline, got, err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("Split(%q) -native +got:\n%s", tc.cmdline, diff)
			}
		})
	}
}
