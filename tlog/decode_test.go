// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package tlog

import (
	"errors"
	"testing"
	"unicode/utf16"
)

// utf16le encodes s (runes < 0x10000) as UTF-16LE.
func utf16le(s string) []byte {
	var b []byte
	for _, u := range utf16.Encode([]rune(s)) {
		b = append(b, byte(u), byte(u>>8))
	}
	return b
}

func TestDetectEncoding(t *testing.T) {
	for _, tc := range []struct {
		name    string
		buf     []byte
		want    Encoding
		wantOff int
	}{
		{
			name: "empty",
			want: SingleByte,
		},
		{
			name: "ascii",
			buf:  []byte("^C:\\A.CPP"),
			want: SingleByte,
		},
		{
			name:    "utf16 bom",
			buf:     append([]byte{0xff, 0xfe}, utf16le("^C")...),
			want:    UTF16LE,
			wantOff: 2,
		},
		{
			name:    "utf8 bom",
			buf:     []byte("\xef\xbb\xbf^C"),
			want:    UTF8BOM,
			wantOff: 3,
		},
		{
			name:    "utf16 no bom",
			buf:     append([]byte{0}, utf16le("/c")...),
			want:    UTF16LENoBOM,
			wantOff: 1,
		},
		{
			name: "ef bb without bf",
			buf:  []byte("\xef\xbbx"),
			want: SingleByte,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, off := DetectEncoding(tc.buf)
			if got != tc.want || off != tc.wantOff {
				t.Errorf("DetectEncoding(%q)=%v, %d; want %v, %d", tc.buf, got, off, tc.want, tc.wantOff)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	for _, tc := range []struct {
		name string
		buf  []byte
		want string
	}{
		{
			name: "ascii",
			buf:  []byte(`^C:\PROJ\SRC\MAIN.CPP`),
			want: `^C:\PROJ\SRC\MAIN.CPP`,
		},
		{
			name: "ascii trims one cr",
			buf:  []byte("/c foo.cc\r"),
			want: "/c foo.cc",
		},
		{
			name: "ascii keeps inner cr",
			buf:  []byte("a\rb\r\r"),
			want: "a\rb\r",
		},
		{
			name: "ascii latin1 bytes",
			buf:  []byte("caf\xe9"),
			want: "caf\xe9",
		},
		{
			name: "ascii cut at nul",
			buf:  []byte("abc\x00def"),
			want: "abc",
		},
		{
			name: "utf16 bom",
			buf:  append([]byte{0xff, 0xfe}, utf16le("^c:\\proj\\src\\main.cpp\r")...),
			want: `^c:\proj\src\main.cpp`,
		},
		{
			name: "utf16 no bom, after split on 0x0a",
			buf:  append([]byte{0}, utf16le("/c /Ic:\\proj\\inc main.cpp\r")[:len(utf16le("/c /Ic:\\proj\\inc main.cpp\r"))-1]...),
			want: `/c /Ic:\proj\inc main.cpp`,
		},
		{
			name: "utf16 latin1",
			buf:  append([]byte{0xff, 0xfe}, utf16le("caf\u00e9")...),
			want: "caf\xe9",
		},
		{
			name: "utf16 stops at zero unit",
			buf:  append(append([]byte{0xff, 0xfe}, utf16le("ab")...), 0, 0, 'c', 0),
			want: "ab",
		},
		{
			name: "utf16 lone trailing byte",
			buf:  []byte{0xff, 0xfe, 'a', 0, 'b'},
			want: "ab",
		},
		{
			name: "utf16 only high byte of newline",
			buf:  []byte{0},
			want: "",
		},
		{
			name: "utf8 bom",
			buf:  []byte("\xef\xbb\xbf/c foo.cc\r"),
			want: "/c foo.cc",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			orig := append([]byte(nil), tc.buf...)
			got, err := Decode(tc.buf)
			if err != nil || got != tc.want {
				t.Errorf("Decode(%q)=%q, %v; want %q, nil", tc.buf, got, err, tc.want)
			}
			if string(orig) != string(tc.buf) {
				t.Errorf("Decode modified input: %q -> %q", orig, tc.buf)
			}
		})
	}
}

func TestDecode_encodingError(t *testing.T) {
	for _, tc := range []struct {
		name     string
		buf      []byte
		wantOff  int
		wantUnit uint16
	}{
		{
			name:     "bom",
			buf:      append([]byte{0xff, 0xfe}, utf16le("a\u0100")...),
			wantOff:  4,
			wantUnit: 0x0100,
		},
		{
			name:     "no bom",
			buf:      append([]byte{0}, utf16le("\u65e5")...),
			wantOff:  1,
			wantUnit: 0x65e5,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Decode(tc.buf)
			if !errors.Is(err, ErrEncoding) {
				t.Fatalf("Decode(%q)=%q, %v; want ErrEncoding", tc.buf, got, err)
			}
			var eerr *EncodingError
			if !errors.As(err, &eerr) {
				t.Fatalf("Decode(%q) err=%T; want *EncodingError", tc.buf, err)
			}
			if eerr.Offset != tc.wantOff || eerr.Unit != tc.wantUnit {
				t.Errorf("EncodingError{Offset:%d Unit:%04x}; want {Offset:%d Unit:%04x}", eerr.Offset, eerr.Unit, tc.wantOff, tc.wantUnit)
			}
		})
	}
}

func TestDecode_asciiIdentity(t *testing.T) {
	// every printable ASCII byte sequence starting with a non-zero byte
	// decodes to itself.
	var b []byte
	for c := byte(0x20); c < 0x7f; c++ {
		b = append(b, c)
	}
	for i := 0; i < len(b); i++ {
		in := b[i:]
		got, err := Decode(in)
		if err != nil || got != string(in) {
			t.Errorf("Decode(%q)=%q, %v; want identity", in, got, err)
		}
	}
}

func TestDecode_utf16RoundTrip(t *testing.T) {
	var runes []rune
	for r := rune(1); r < 0x100; r++ {
		if r == '\r' || r == '\n' {
			continue
		}
		runes = append(runes, r)
	}
	s := string(runes)
	want := make([]byte, 0, len(runes))
	for _, r := range runes {
		want = append(want, byte(r))
	}
	for _, prefix := range [][]byte{{0xff, 0xfe}, {0}} {
		buf := append(append([]byte(nil), prefix...), utf16le(s)...)
		got, err := Decode(buf)
		if err != nil || got != string(want) {
			t.Errorf("Decode(prefix=%x)=%q, %v; want %q", prefix, got, err, want)
		}
	}
}
