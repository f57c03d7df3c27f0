// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package winpath

import (
	"context"
	"strings"
)

// isDrivePrefix reports whether s[i:] starts with "<letter>:<separator>".
func isDrivePrefix(s string, i int) bool {
	return i+2 < len(s) && isLetter(s[i]) && s[i+1] == ':' && isSep(s[i+2])
}

// NormalizeDriveCasing rewrites the drive letter of every "<letter>:\" or
// "<letter>:/" found in cmd to upper (or lower) case.
// Nothing else in cmd is changed.
func NormalizeDriveCasing(cmd string, upper bool) string {
	var b []byte
	for i := 0; i < len(cmd); {
		if !isDrivePrefix(cmd, i) {
			i++
			continue
		}
		if c := caseLetter(cmd[i], upper); c != cmd[i] {
			if b == nil {
				b = []byte(cmd)
			}
			b[i] = c
		}
		i += 3
	}
	if b == nil {
		return cmd
	}
	return string(b)
}

// ResolveCommand resolves absolute paths embedded in command line text,
// e.g. `/Ic:\src\include` or `/I"c:\program files\sdk"`.
// A path starts at "<letter>:<separator>" and ends at a space, a tab or
// a double quote. When it is preceded by a double quote, it ends at the
// next double quote only.
// Text outside of the paths is kept as is.
func (r *Resolver) ResolveCommand(ctx context.Context, cmd string) string {
	var sb strings.Builder
	start := 0
	for i := 0; i < len(cmd); {
		if !isDrivePrefix(cmd, i) {
			i++
			continue
		}
		quoted := i > 0 && cmd[i-1] == '"'
		end := i + 3
	scan:
		for ; end < len(cmd); end++ {
			switch cmd[end] {
			case '"':
				break scan
			case ' ', '\t':
				if !quoted {
					break scan
				}
			}
		}
		sb.WriteString(cmd[start:i])
		sb.WriteString(r.Resolve(ctx, cmd[i:end]))
		start, i = end, end
	}
	if start == 0 {
		return cmd
	}
	sb.WriteString(cmd[start:])
	return sb.String()
}
