// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package tlog

import (
	"bytes"
	"errors"
	"fmt"
)

// ErrEncoding is returned (wrapped in *EncodingError) when a line claims to
// be UTF-16 but contains a character outside U+0000..U+00FF.
var ErrEncoding = errors.New("tlog: character out of single-byte range")

// EncodingError reports the offending UTF-16 code unit.
type EncodingError struct {
	// Offset is the byte offset of the code unit in the raw line.
	Offset int
	// Unit is the little-endian code unit.
	Unit uint16
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("%v: U+%04X at offset %d", ErrEncoding, e.Unit, e.Offset)
}

func (e *EncodingError) Unwrap() error { return ErrEncoding }

// Encoding is the text encoding of a raw line.
type Encoding int

const (
	// SingleByte is plain single-byte text (ASCII / Latin-1).
	SingleByte Encoding = iota
	// UTF16LE is UTF-16 little-endian with a byte-order mark.
	UTF16LE
	// UTF16LENoBOM is UTF-16 little-endian without a byte-order mark.
	// Lines after the first one of a UTF-16 file start with the high byte
	// of the previous line's '\n' unit.
	UTF16LENoBOM
	// UTF8BOM is UTF-8 with a byte-order mark.
	UTF8BOM
)

func (e Encoding) String() string {
	switch e {
	case SingleByte:
		return "single-byte"
	case UTF16LE:
		return "utf-16le"
	case UTF16LENoBOM:
		return "utf-16le(no-bom)"
	case UTF8BOM:
		return "utf-8(bom)"
	}
	return fmt.Sprintf("Encoding(%d)", int(e))
}

// DetectEncoding detects the encoding of buf from its leading bytes,
// and returns the offset where the text payload starts.
func DetectEncoding(buf []byte) (Encoding, int) {
	switch {
	case len(buf) >= 2 && buf[0] == 0xff && buf[1] == 0xfe:
		return UTF16LE, 2
	case len(buf) >= 3 && buf[0] == 0xef && buf[1] == 0xbb && buf[2] == 0xbf:
		return UTF8BOM, 3
	case len(buf) >= 1 && buf[0] == 0:
		return UTF16LENoBOM, 1
	}
	return SingleByte, 0
}

// Decode converts one raw line into narrow text.
// The result has no NUL and no trailing carriage return.
// buf is not modified.
func Decode(buf []byte) (string, error) {
	enc, off := DetectEncoding(buf)
	switch enc {
	case UTF16LE, UTF16LENoBOM:
		return narrowUTF16(buf, off)
	default:
		return narrowBytes(buf[off:]), nil
	}
}

// narrowUTF16 transliterates UTF-16LE units from buf[off:] until a zero
// unit or the end of buf.
func narrowUTF16(buf []byte, off int) (string, error) {
	out := make([]byte, 0, (len(buf)-off+1)/2)
	for i := off; i < len(buf); i += 2 {
		lo := buf[i]
		var hi byte
		if i+1 < len(buf) {
			hi = buf[i+1]
		}
		if lo == 0 && hi == 0 {
			break
		}
		if hi != 0 {
			return "", &EncodingError{Offset: i, Unit: uint16(lo) | uint16(hi)<<8}
		}
		out = append(out, lo)
	}
	return string(trimCR(out)), nil
}

func narrowBytes(buf []byte) string {
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		buf = buf[:i]
	}
	return string(trimCR(buf))
}

func trimCR(b []byte) []byte {
	if n := len(b); n > 0 && b[n-1] == '\r' {
		return b[:n-1]
	}
	return b
}
