// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package winpath handles Windows paths independently of the host OS,
// and resolves them to the casing stored on disk.
package winpath

import "strings"

// Separator is the separator used in paths returned by this package.
const Separator = '\\'

func isSep(c byte) bool {
	return c == '\\' || c == '/'
}

func isLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// IsAbs reports whether p is an absolute path with a drive designator,
// e.g. `C:\foo`. Drive relative paths (`C:foo`), rooted paths without
// drive (`\foo`) and UNC paths are not absolute in this sense.
func IsAbs(p string) bool {
	return len(p) >= 3 && isLetter(p[0]) && p[1] == ':' && isSep(p[2])
}

// Split splits an absolute path into its drive designator (e.g. "C:") and
// its components. Empty components are dropped.
// trailing reports whether p ends with a separator.
// It returns "", nil, false if p is not absolute.
func Split(p string) (drive string, elems []string, trailing bool) {
	if !IsAbs(p) {
		return "", nil, false
	}
	drive, rest := p[:2], p[3:]
	elems = strings.FieldsFunc(rest, func(r rune) bool {
		return r == '\\' || r == '/'
	})
	trailing = len(rest) > 0 && isSep(rest[len(rest)-1])
	return drive, elems, trailing
}

// Join joins a drive designator and components into an absolute path.
func Join(drive string, elems ...string) string {
	var sb strings.Builder
	sb.Grow(len(drive) + 1 + len(elems)*8)
	sb.WriteString(drive)
	sb.WriteByte(Separator)
	for i, e := range elems {
		if i > 0 {
			sb.WriteByte(Separator)
		}
		sb.WriteString(e)
	}
	return sb.String()
}

// Clean returns the shortest path equivalent to p by purely lexical
// processing: "." is removed, ".." removes the preceding component and
// never climbs above the root, separators become `\`.
// A trailing separator is kept. Non absolute paths are returned as is.
func Clean(p string) string {
	drive, elems, trailing := Split(p)
	if drive == "" {
		return p
	}
	out := make([]string, 0, len(elems))
	for _, e := range elems {
		switch e {
		case ".":
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, e)
		}
	}
	s := Join(drive, out...)
	if trailing && len(out) > 0 {
		s += string(Separator)
	}
	return s
}

// Dir returns p up to and including its last `\`, or "" if p has none.
func Dir(p string) string {
	i := strings.LastIndexByte(p, '\\')
	if i < 0 {
		return ""
	}
	return p[:i+1]
}

// ToSlash replaces each `\` in p with '/'.
func ToSlash(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

// DriveLetter returns the upper case drive letter of an absolute path,
// or 0 if p is not absolute.
func DriveLetter(p string) byte {
	if !IsAbs(p) {
		return 0
	}
	return upper(p[0])
}

func upper(c byte) byte {
	if 'a' <= c && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

func lower(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c - 'A' + 'a'
	}
	return c
}

func caseLetter(c byte, up bool) byte {
	if up {
		return upper(c)
	}
	return lower(c)
}
