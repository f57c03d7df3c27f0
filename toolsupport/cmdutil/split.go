// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package cmdutil provides utilities for Windows command lines.
package cmdutil

import (
	"errors"
	"strings"
)

// Split splits cmd.exe's cmdline into arguments by the rules of
// CommandLineToArgvW, on any host.
//
// The first argument is the program name: it ends at the first space or
// tab, or at the closing quote when it starts with a quote.
// In other arguments, 2n backslashes followed by a quote produce n
// backslashes and the quote opens or closes a quoted part, 2n+1 backslashes
// followed by a quote produce n backslashes and a literal quote, and
// backslashes not followed by a quote are literal. A quote directly
// following a closing quote is literal.
func Split(cmdline string) ([]string, error) {
	if strings.IndexByte(cmdline, 0) >= 0 {
		return nil, errors.New("cmdline contains NUL")
	}
	if cmdline == "" {
		return nil, nil
	}
	var args []string

	// program name.
	s := cmdline
	var prog string
	if s[0] == '"' {
		s = s[1:]
		i := strings.IndexByte(s, '"')
		if i < 0 {
			i = len(s)
		}
		prog = s[:i]
		s = s[min(i+1, len(s)):]
	} else {
		i := strings.IndexAny(s, " \t")
		if i < 0 {
			i = len(s)
		}
		prog, s = s[:i], s[i:]
	}
	args = append(args, prog)
	s = strings.TrimLeft(s, " \t")

	var cur []byte
	inArg := false
	qcount := 0
	bcount := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case (c == ' ' || c == '\t') && qcount == 0:
			if inArg {
				args = append(args, string(cur))
				cur = cur[:0]
				inArg = false
			}
			bcount = 0
		case c == '\\':
			cur = append(cur, c)
			inArg = true
			bcount++
		case c == '"':
			inArg = true
			if bcount%2 == 0 {
				cur = cur[:len(cur)-bcount/2]
				qcount++
			} else {
				cur = cur[:len(cur)-bcount/2-1]
				cur = append(cur, '"')
			}
			bcount = 0
			for i+1 < len(s) && s[i+1] == '"' {
				i++
				qcount++
				if qcount == 3 {
					cur = append(cur, '"')
					qcount = 0
				}
			}
			if qcount == 2 {
				qcount = 0
			}
		default:
			cur = append(cur, c)
			inArg = true
			bcount = 0
		}
	}
	if inArg {
		args = append(args, string(cur))
	}
	return args, nil
}
